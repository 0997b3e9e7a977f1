// Package weather feeds the engine pre-parsed weather snapshots and damps
// redundant updates so noisy sensors cannot flicker the dashboard.
package weather

import (
	"math"

	"grstrategy/pkg/model"
)

// Cursor walks an ordered snapshot sequence one step per tick, wrapping at
// the end. A nil or empty sequence yields nil snapshots.
type Cursor struct {
	rows []model.Weather
	idx  int
}

func NewCursor(rows []model.Weather) *Cursor {
	return &Cursor{rows: rows}
}

// Current returns the snapshot under the cursor without advancing.
func (c *Cursor) Current() *model.Weather {
	if len(c.rows) == 0 {
		return nil
	}
	w := c.rows[c.idx%len(c.rows)]
	return &w
}

// Advance moves the cursor one step, wrapping at end of data.
func (c *Cursor) Advance() {
	if len(c.rows) == 0 {
		return
	}
	c.idx = (c.idx + 1) % len(c.rows)
}

// Damper suppresses snapshot updates below the change threshold: a new
// snapshot replaces the dispatched one only when temperature or track
// temperature moved by at least thresholdDeg.
type Damper struct {
	thresholdDeg float64
	lastSent     *model.Weather
}

func NewDamper(thresholdDeg float64) *Damper {
	if thresholdDeg <= 0 {
		thresholdDeg = 1
	}
	return &Damper{thresholdDeg: thresholdDeg}
}

// Resolve picks the snapshot to dispatch for this tick. Below-threshold
// changes return the previously dispatched snapshot, exactly.
func (d *Damper) Resolve(snapshot *model.Weather) *model.Weather {
	if snapshot == nil {
		return d.lastSent
	}
	if d.lastSent == nil {
		d.lastSent = snapshot
		return snapshot
	}
	if math.Abs(snapshot.TempC-d.lastSent.TempC) < d.thresholdDeg &&
		math.Abs(snapshot.TrackTempC-d.lastSent.TrackTempC) < d.thresholdDeg {
		return d.lastSent
	}
	d.lastSent = snapshot
	return snapshot
}
