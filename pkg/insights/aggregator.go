// Package insights maintains the rolling session statistics: best and
// average lap, a short-window consistency metric, gated top speed, pit
// count and the bounded lap-time history. Nothing else mutates this state.
package insights

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"grstrategy/pkg/helper"
	"grstrategy/pkg/model"
)

// Config carries the aggregator constants, defaults applied by
// NewAggregator.
type Config struct {
	HistorySize       int     // bounded lap-time history, most recent N
	ConsistencyWindow int     // stddev window over completed laps
	ExcludedLaps      int     // warm-up laps excluded from official stats
	FirstLap          int     // first lap number present in the dataset
	TopSpeedMargin    float64 // km/h a reading must beat the best by
	PitSpeedKPH       float64 // below this the car may be pitting
	PitThrottle       float64 // and below this throttle
	PitDwell          time.Duration
	PitRearmKPH       float64
}

func (c Config) withDefaults() Config {
	if c.HistorySize <= 0 {
		c.HistorySize = 120
	}
	if c.ConsistencyWindow <= 0 {
		c.ConsistencyWindow = 5
	}
	if c.FirstLap <= 0 {
		c.FirstLap = 1
	}
	if c.TopSpeedMargin <= 0 {
		c.TopSpeedMargin = 0.5
	}
	if c.PitSpeedKPH <= 0 {
		c.PitSpeedKPH = 5
	}
	if c.PitThrottle <= 0 {
		c.PitThrottle = 5
	}
	if c.PitDwell <= 0 {
		c.PitDwell = 3 * time.Second
	}
	if c.PitRearmKPH <= 0 {
		c.PitRearmKPH = 40
	}
	return c
}

// Aggregator owns all session statistics. Created fresh per session.
type Aggregator struct {
	cfg     Config
	results map[int]model.LapResult

	history       []model.LapHistoryEntry
	bestLap       float64
	averageLap    float64
	lastLap       float64
	consistency   float64
	topSpeed      float64
	pitCount      int
	lapsCompleted int
	bestSectors   map[string]model.BestSplit

	inPit      bool
	dwellStart time.Time

	now func() time.Time
}

// NewAggregator builds an aggregator. results is the optional authoritative
// results feed, keyed by lap number; it overrides locally timed durations
// for statistics only.
func NewAggregator(cfg Config, results map[int]model.LapResult) *Aggregator {
	return &Aggregator{
		cfg:         cfg.withDefaults(),
		results:     results,
		bestSectors: make(map[string]model.BestSplit),
		now:         time.Now,
	}
}

// officialFrom is the first lap number included in official statistics.
func (a *Aggregator) officialFrom() int {
	return a.cfg.FirstLap + a.cfg.ExcludedLaps
}

// CompleteLap records a finished lap. localDuration is the locally timed
// value (hasDuration false when timing was impossible); a positive feed
// duration for the lap takes precedence. Reports whether any aggregate
// changed.
func (a *Aggregator) CompleteLap(lap int, localDuration float64, hasDuration bool) bool {
	a.lapsCompleted++
	changed := true // lap count is itself an aggregate

	duration := localDuration
	if r, ok := a.results[lap]; ok && r.Duration > 0 {
		duration = r.Duration
		hasDuration = true
	}
	if !hasDuration || duration <= 0 {
		return changed
	}
	if lap < a.officialFrom() {
		// warm-up lap, excluded from official stats
		return changed
	}

	a.history = append(a.history, model.LapHistoryEntry{Lap: lap, Duration: duration})
	if len(a.history) > a.cfg.HistorySize {
		a.history = a.history[len(a.history)-a.cfg.HistorySize:]
	}
	a.lastLap = duration
	a.recompute()
	return changed
}

func (a *Aggregator) recompute() {
	durations := make([]float64, len(a.history))
	for i, e := range a.history {
		durations[i] = e.Duration
	}

	a.bestLap = durations[0]
	for _, d := range durations[1:] {
		if d < a.bestLap {
			a.bestLap = d
		}
	}
	a.averageLap = stat.Mean(durations, nil)

	a.consistency = 0
	window := durations
	if len(window) > a.cfg.ConsistencyWindow {
		window = window[len(window)-a.cfg.ConsistencyWindow:]
	}
	if len(window) >= 2 {
		a.consistency = stat.StdDev(window, nil)
	}
}

// ObserveTick updates the tick-gated aggregates: top speed and pit count.
// newTopSpeed reports a fresh session top speed; changed reports whether a
// snapshot should be emitted.
func (a *Aggregator) ObserveTick(s model.Sample, lap int) (newTopSpeed, changed bool) {
	if lap >= a.officialFrom() && s.Speed > a.topSpeed+a.cfg.TopSpeedMargin {
		a.topSpeed = s.Speed
		newTopSpeed = true
		changed = true
	}
	if a.observePit(s) {
		changed = true
	}
	return newTopSpeed, changed
}

// observePit counts pit visits from stationary dwell: near-zero speed and
// throttle held for the dwell interval, re-armed once back up to pace.
func (a *Aggregator) observePit(s model.Sample) bool {
	if s.Speed < a.cfg.PitSpeedKPH && s.Throttle < a.cfg.PitThrottle {
		if a.inPit {
			return false
		}
		if a.dwellStart.IsZero() {
			a.dwellStart = a.now()
			return false
		}
		if a.now().Sub(a.dwellStart) >= a.cfg.PitDwell {
			a.inPit = true
			a.pitCount++
			return true
		}
		return false
	}
	a.dwellStart = time.Time{}
	if a.inPit && s.Speed > a.cfg.PitRearmKPH {
		a.inPit = false
	}
	return false
}

// SetBestSectors replaces the best-split mapping. Called only when the
// sector timer reports a change.
func (a *Aggregator) SetBestSectors(bests map[string]model.BestSplit) {
	a.bestSectors = bests
}

// BestLap is the current session best, 0 until an official lap completed.
func (a *Aggregator) BestLap() float64 {
	return a.bestLap
}

// LapsCompleted is the number of laps finished this session.
func (a *Aggregator) LapsCompleted() int {
	return a.lapsCompleted
}

// RecentDurations returns up to n most recent official lap durations,
// oldest first.
func (a *Aggregator) RecentDurations(n int) []float64 {
	if n > len(a.history) {
		n = len(a.history)
	}
	out := make([]float64, 0, n)
	for _, e := range a.history[len(a.history)-n:] {
		out = append(out, e.Duration)
	}
	return out
}

// Snapshot assembles the session-summary view. currentLap is appended as a
// provisional history entry while it is in progress.
func (a *Aggregator) Snapshot(currentLap int) model.SessionInsights {
	history := make([]model.LapHistoryEntry, len(a.history), len(a.history)+1)
	copy(history, a.history)
	if currentLap > 0 {
		history = append(history, model.LapHistoryEntry{Lap: currentLap, Provisional: true})
	}

	bests := make(map[string]model.BestSplit, len(a.bestSectors))
	for k, v := range a.bestSectors {
		bests[k] = v
	}

	delta := 0.0
	if a.bestLap > 0 && a.lastLap > 0 {
		delta = helper.Round2(a.lastLap - a.bestLap)
	}

	return model.SessionInsights{
		BestLap:       a.bestLap,
		AverageLap:    helper.Round2(a.averageLap),
		LastLap:       a.lastLap,
		DeltaToBest:   delta,
		Consistency:   helper.Round2(a.consistency),
		TopSpeed:      helper.Round2(a.topSpeed),
		PitCount:      a.pitCount,
		LapsCompleted: a.lapsCompleted,
		History:       history,
		BestSectors:   bests,
	}
}
