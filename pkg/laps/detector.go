// Package laps detects lap boundaries from two independent signals and
// reconciles them into one authoritative crossing per tick.
//
// The geofence signal watches the haversine distance to the start/finish
// point with an enter/exit dead-band and a debounce interval, so dwelling
// at the line cannot retrigger. The categorical signal watches the
// dataset's explicit lap index. Whenever the data carries a lap index the
// categorical signal is authoritative; the geometric signal is the
// fallback for data (or synthetic mode) without one.
package laps

import (
	"time"

	"grstrategy/pkg/model"
	"grstrategy/pkg/track"
)

// Source identifies which signal produced a crossing.
type Source string

const (
	SourceGeofence    Source = "geofence"
	SourceCategorical Source = "categorical"
)

// Config is the geofence configuration for the detector.
type Config struct {
	Start       model.GeoPoint
	HasStart    bool
	EnterRadius float64       // meters, crossing declared below this
	ExitRadius  float64       // meters, "near start" released above this
	Debounce    time.Duration // minimum gap between crossings
}

// Crossing is the reconciled per-tick output. Duration is the locally
// timed lap in seconds; HasDuration is false when timestamps did not allow
// timing the lap (the crossing still counts).
type Crossing struct {
	Completed      bool
	Duration       float64
	HasDuration    bool
	Source         Source
	NewLapIndex    int
	HasNewLapIndex bool
}

// Detector owns the state of both signals for one session.
type Detector struct {
	cfg Config

	nearStart    bool
	lastCross    time.Time
	hasLastCross bool

	lastIndex      int
	hasLastIndex   bool
	lapStartTS     float64
	hasLapStartTS  bool
	sawCategorical bool

	now func() time.Time
}

func NewDetector(cfg Config) *Detector {
	if cfg.EnterRadius <= 0 {
		cfg.EnterRadius = 15
	}
	if cfg.ExitRadius <= 0 {
		cfg.ExitRadius = 25
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 5 * time.Second
	}
	return &Detector{cfg: cfg, now: time.Now}
}

// Evaluate advances both signals with the tick's sample and returns the
// reconciled crossing. State updates happen even when the other signal
// wins, so neither detector drifts.
func (d *Detector) Evaluate(s model.Sample) Crossing {
	categorical := d.evaluateCategorical(s)
	geometric := d.evaluateGeofence(s)

	if categorical.Completed {
		return categorical
	}
	// the lap index, once seen, is the authority on lap boundaries
	if geometric.Completed && !d.sawCategorical {
		return geometric
	}
	return Crossing{}
}

// Rewind re-arms the categorical signal after the replay rolls past the
// end of its recording, so the restarting lap indices register as fresh
// laps instead of being ignored as a decrease.
func (d *Detector) Rewind() {
	d.hasLastIndex = false
	d.hasLapStartTS = false
}

func (d *Detector) evaluateCategorical(s model.Sample) Crossing {
	if !s.HasLapIndex {
		return Crossing{}
	}
	d.sawCategorical = true

	crossed := d.hasLastIndex && s.LapIndex > d.lastIndex
	if !d.hasLastIndex || crossed {
		d.lastIndex = s.LapIndex
		d.hasLastIndex = true
	}
	if !crossed {
		if !d.hasLapStartTS && s.HasTimestamp {
			d.lapStartTS = s.Timestamp
			d.hasLapStartTS = true
		}
		return Crossing{}
	}

	c := Crossing{
		Completed:      true,
		Source:         SourceCategorical,
		NewLapIndex:    s.LapIndex,
		HasNewLapIndex: true,
	}
	// malformed timestamps suppress the duration, not the crossing
	if s.HasTimestamp && d.hasLapStartTS && s.Timestamp > d.lapStartTS {
		c.Duration = s.Timestamp - d.lapStartTS
		c.HasDuration = true
	}
	if s.HasTimestamp {
		d.lapStartTS = s.Timestamp
		d.hasLapStartTS = true
	} else {
		d.hasLapStartTS = false
	}
	return c
}

func (d *Detector) evaluateGeofence(s model.Sample) Crossing {
	if !d.cfg.HasStart {
		return Crossing{}
	}

	dist := track.Distance(s.Position, d.cfg.Start)
	now := d.now()

	if dist < d.cfg.EnterRadius && !d.nearStart &&
		(!d.hasLastCross || now.Sub(d.lastCross) > d.cfg.Debounce) {
		c := Crossing{Completed: true, Source: SourceGeofence}
		if d.hasLastCross {
			c.Duration = now.Sub(d.lastCross).Seconds()
			c.HasDuration = c.Duration > 0
		}
		d.lastCross = now
		d.hasLastCross = true
		d.nearStart = true
		return c
	}
	if dist > d.cfg.ExitRadius {
		d.nearStart = false
	}
	return Crossing{}
}
