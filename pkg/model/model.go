package model

import "fmt"

// Alert severities. Fixed per rule, see pkg/coach.
const (
	AlertInfo    = "info"
	AlertWarn    = "warn"
	AlertSuccess = "success"
)

// GeoPoint is a GPS position in decimal degrees.
type GeoPoint struct {
	Lat  float64 `json:"lat"`
	Long float64 `json:"long"`
}

// GeoBounds is the bounding box of the recorded course.
type GeoBounds struct {
	MinLat  float64 `json:"min_lat"`
	MaxLat  float64 `json:"max_lat"`
	MinLong float64 `json:"min_long"`
	MaxLong float64 `json:"max_long"`
}

// RawSample is one pivoted row of the recorded dataset: every telemetry
// channel that had a value at this timestamp, keyed by its source column
// name. The normalizer resolves canonical fields out of it.
type RawSample struct {
	Timestamp    float64
	HasTimestamp bool
	Fields       map[string]float64
	Lap          float64
	HasLap       bool
}

// Get returns the first present field from the given source names.
func (r RawSample) Get(names ...string) (float64, bool) {
	for _, name := range names {
		if v, ok := r.Fields[name]; ok {
			return v, true
		}
	}
	return 0, false
}

// Sample is one normalized tick of input. Immutable once produced.
type Sample struct {
	Timestamp    float64
	HasTimestamp bool
	TimeLabel    string
	Speed        float64
	RPM          float64
	Gear         int
	Throttle     float64
	Brake        float64
	LatG         float64
	LongG        float64
	Position     GeoPoint
	LapIndex     int
	HasLapIndex  bool
}

// TireSet holds the four wear scalars, range [0,100].
type TireSet struct {
	FrontLeft  float64 `json:"fl"`
	FrontRight float64 `json:"fr"`
	RearLeft   float64 `json:"rl"`
	RearRight  float64 `json:"rr"`
}

// Fronts is the mean wear of the front axle.
func (t TireSet) Fronts() float64 {
	return (t.FrontLeft + t.FrontRight) / 2
}

// Rears is the mean wear of the rear axle.
func (t TireSet) Rears() float64 {
	return (t.RearLeft + t.RearRight) / 2
}

// Weather is one snapshot of the weather feed.
type Weather struct {
	TempC      float64 `json:"temp_c"`
	TrackTempC float64 `json:"track_temp_c"`
	Humidity   int     `json:"humidity"`
	WindKPH    float64 `json:"wind_kph"`
	WindDir    float64 `json:"wind_dir"`
	Rain       int     `json:"rain"`
}

// Alert is a short coaching message produced fresh each tick.
type Alert struct {
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

// Packet is the per-tick output handed to subscribers. Every numeric field
// is finite and defaulted so consumers never branch on absence.
type Packet struct {
	Timestamp   string   `json:"timestamp"`
	Speed       float64  `json:"speed"`
	RPM         float64  `json:"rpm"`
	Gear        int      `json:"gear"`
	Throttle    float64  `json:"throttle"`
	Brake       float64  `json:"brake"`
	LatG        float64  `json:"g_lat"`
	LongG       float64  `json:"g_long"`
	Lat         float64  `json:"lat"`
	Long        float64  `json:"long"`
	TireHealth  float64  `json:"tire_health"`
	TireHealths TireSet  `json:"tire_healths"`
	Lap         int      `json:"lap"`
	TotalLaps   int      `json:"total_laps"`
	Sector      string   `json:"sector,omitempty"`
	Weather     *Weather `json:"weather,omitempty"`
	Alerts      []Alert  `json:"alerts"`
	CoachingTip string   `json:"coaching_tip,omitempty"`
}

// BestSplit is the best observed duration for one sector and the lap that
// achieved it.
type BestSplit struct {
	Seconds float64 `json:"seconds"`
	Lap     int     `json:"lap"`
}

// LapHistoryEntry is one lap in the bounded session history. The entry for
// the lap still in progress carries Provisional until it completes.
type LapHistoryEntry struct {
	Lap         int     `json:"lap"`
	Duration    float64 `json:"duration"`
	Provisional bool    `json:"provisional,omitempty"`
}

// SessionInsights is the session-summary snapshot, emitted whenever any
// aggregate changes. Mutated only by the insights aggregator.
type SessionInsights struct {
	BestLap       float64              `json:"best_lap"`
	AverageLap    float64              `json:"average_lap"`
	LastLap       float64              `json:"last_lap"`
	DeltaToBest   float64              `json:"delta_to_best"`
	Consistency   float64              `json:"consistency"`
	TopSpeed      float64              `json:"top_speed"`
	PitCount      int                  `json:"pit_count"`
	LapsCompleted int                  `json:"laps_completed"`
	History       []LapHistoryEntry    `json:"history"`
	BestSectors   map[string]BestSplit `json:"best_sectors,omitempty"`
}

// LapResult is one row of the authoritative results feed. A positive
// Duration overrides the locally timed duration for statistics.
type LapResult struct {
	Lap      int     `json:"lap"`
	Duration float64 `json:"duration"`
	Sector1  float64 `json:"sector1"`
	Sector2  float64 `json:"sector2"`
	Sector3  float64 `json:"sector3"`
	TopSpeed float64 `json:"top_speed"`
}

// TrackInit is the static session-start payload: course polyline, bounds
// and start/finish point.
type TrackInit struct {
	Shape  []GeoPoint `json:"shape"`
	Bounds GeoBounds  `json:"bounds"`
	Start  GeoPoint   `json:"start"`
}

// SessionStarted announces a replay session going live.
type SessionStarted struct {
	SessionID string `json:"sessionId"`
	Source    string `json:"source"`
	TotalLaps int    `json:"totalLaps"`
	FirstLap  int    `json:"firstLap"`
}

func (ss SessionStarted) String() string {
	return fmt.Sprintf("  ▸ Session: %s\n  ▸ Source: %s\n  ▸ Laps: %d", ss.SessionID, ss.Source, ss.TotalLaps)
}
