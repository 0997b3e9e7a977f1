// Package replay drives a recorded (or synthetic) telemetry session: one
// scheduler tick pulls the next sample, runs it through normalization,
// tire wear, lap and sector detection, the insights aggregator and the
// coaching rules, and produces the packet handed to subscribers.
package replay

import (
	"strconv"
	"time"

	"grstrategy/pkg/coach"
	"grstrategy/pkg/insights"
	"grstrategy/pkg/laps"
	"grstrategy/pkg/model"
	"grstrategy/pkg/telemetry"
	"grstrategy/pkg/tires"
	"grstrategy/pkg/track"
	"grstrategy/pkg/weather"
)

// SessionConfig wires one session's analytics pipeline.
type SessionConfig struct {
	ID        string
	FirstLap  int
	TotalLaps int

	DefaultPosition model.GeoPoint
	BrakeMaxRaw     float64

	Laps           laps.Config
	Sectors        []track.Box
	Markers        []track.Marker
	SectorFallback float64

	Insights insights.Config
	Results  map[int]model.LapResult

	WeatherRows  []model.Weather
	WeatherDelta float64
}

// LapEvent is the per-crossing notification the engine fans out.
type LapEvent struct {
	Entry       model.LapHistoryEntry
	HasDuration bool
	NewBest     bool
	Source      laps.Source
}

// Session owns all per-session analytics state. A session is driven by a
// single goroutine; it is not safe for concurrent use.
type Session struct {
	id        string
	totalLaps int

	normalizer *telemetry.Normalizer
	tires      *tires.Model
	detector   *laps.Detector
	segmenter  *track.Segmenter
	sectors    *track.Timer
	aggregator *insights.Aggregator
	wxCursor   *weather.Cursor
	damper     *weather.Damper

	currentLap int
}

func NewSession(cfg SessionConfig) *Session {
	firstLap := cfg.FirstLap
	if firstLap <= 0 {
		firstLap = 1
	}
	cfg.Insights.FirstLap = firstLap

	return &Session{
		id:         cfg.ID,
		totalLaps:  cfg.TotalLaps,
		normalizer: telemetry.NewNormalizer(cfg.DefaultPosition, cfg.BrakeMaxRaw),
		tires:      tires.NewModel(),
		detector:   laps.NewDetector(cfg.Laps),
		segmenter:  track.NewSegmenter(cfg.Sectors, cfg.Markers, cfg.SectorFallback),
		sectors:    track.NewTimer(),
		aggregator: insights.NewAggregator(cfg.Insights, cfg.Results),
		wxCursor:   weather.NewCursor(cfg.WeatherRows),
		damper:     weather.NewDamper(cfg.WeatherDelta),
		currentLap: firstLap,
	}
}

// ID is the session's identifier.
func (s *Session) ID() string {
	return s.id
}

// CurrentLap is the lap number in progress.
func (s *Session) CurrentLap() int {
	return s.currentLap
}

// Snapshot assembles the session-summary view at this point in time.
func (s *Session) Snapshot() model.SessionInsights {
	return s.aggregator.Snapshot(s.currentLap)
}

// Tick processes one raw sample. wrapped marks a replay that just rolled
// past the end of its recording, which counts as a lap boundary of its
// own. The returned insights pointer is non-nil when any aggregate
// changed; the lap event pointer is non-nil when a lap completed.
func (s *Session) Tick(raw model.RawSample, wrapped bool) (model.Packet, *model.SessionInsights, *LapEvent) {
	prevSpeed := s.normalizer.LastSpeed()
	sample := s.normalizer.Resolve(raw)

	s.tires.Wear(sample.Brake, sample.LatG)

	wx := s.damper.Resolve(s.wxCursor.Current())
	s.wxCursor.Advance()

	crossing := s.detector.Evaluate(sample)
	if wrapped {
		// the recording's final sample: evaluate it first so a lap index
		// advance on it still times the final lap, then re-arm the
		// baseline for the restarting indices. The wrap itself closes the
		// lap in progress when the sample did not.
		s.detector.Rewind()
		if !crossing.Completed {
			crossing = laps.Crossing{Completed: true, Source: laps.SourceCategorical}
		}
	}

	changed := false
	var lapEvent *LapEvent
	previousBest := s.aggregator.BestLap()
	finishedLap := s.currentLap

	if crossing.Completed {
		if s.aggregator.CompleteLap(finishedLap, crossing.Duration, crossing.HasDuration) {
			changed = true
		}
		// the lap number never decreases, even when a wrapped recording
		// restarts its indices
		if crossing.HasNewLapIndex && crossing.NewLapIndex > s.currentLap {
			s.currentLap = crossing.NewLapIndex
		} else {
			s.currentLap++
		}
		s.sectors.ResetLap()

		lapEvent = &LapEvent{
			Entry:       model.LapHistoryEntry{Lap: finishedLap, Duration: crossing.Duration},
			HasDuration: crossing.HasDuration,
			NewBest:     crossing.HasDuration && s.aggregator.BestLap() > 0 && (previousBest == 0 || s.aggregator.BestLap() < previousBest),
			Source:      crossing.Source,
		}
	}

	label := s.segmenter.Classify(sample.Position)
	if s.sectors.Observe(label, s.currentLap) {
		s.aggregator.SetBestSectors(s.sectors.BestSplits())
		changed = true
	}

	newTop, tickChanged := s.aggregator.ObserveTick(sample, s.currentLap)
	if tickChanged {
		changed = true
	}

	alerts, tip := coach.Evaluate(coach.Input{
		Speed:           sample.Speed,
		Brake:           sample.Brake,
		Throttle:        sample.Throttle,
		LatG:            sample.LatG,
		RPM:             sample.RPM,
		TireHealth:      s.tires.Health(),
		Tires:           s.tires.Set(),
		Weather:         wx,
		PrevSpeed:       prevSpeed,
		LapFinished:     crossing.Completed,
		LapDuration:     crossing.Duration,
		HasLapDuration:  crossing.HasDuration,
		Lap:             finishedLap,
		PreviousBest:    previousBest,
		RecentDurations: s.aggregator.RecentDurations(5),
		NewTopSpeed:     newTop,
	})

	pkt := model.Packet{
		Timestamp:   timeLabel(sample),
		Speed:       sample.Speed,
		RPM:         sample.RPM,
		Gear:        sample.Gear,
		Throttle:    sample.Throttle,
		Brake:       sample.Brake,
		LatG:        sample.LatG,
		LongG:       sample.LongG,
		Lat:         sample.Position.Lat,
		Long:        sample.Position.Long,
		TireHealth:  s.tires.Health(),
		TireHealths: s.tires.Set(),
		Lap:         s.currentLap,
		TotalLaps:   s.totalLaps,
		Sector:      s.sectors.Current(),
		Weather:     wx,
		Alerts:      alerts,
		CoachingTip: tip,
	}

	var snap *model.SessionInsights
	if changed {
		si := s.aggregator.Snapshot(s.currentLap)
		snap = &si
	}
	return pkt, snap, lapEvent
}

func timeLabel(s model.Sample) string {
	if s.HasTimestamp {
		return strconv.FormatFloat(s.Timestamp, 'f', 2, 64)
	}
	return time.Now().Format("15:04:05.000")
}
