package track

import (
	"grstrategy/pkg/model"
	"time"
)

// Sector labels. Empty string means the position matched no sector.
const (
	Sector1 = "S1"
	Sector2 = "S2"
	Sector3 = "S3"
)

// Box is an axis-aligned GPS region assigned to one sector.
type Box struct {
	Label   string  `yaml:"label"`
	MinLat  float64 `yaml:"min_lat"`
	MaxLat  float64 `yaml:"max_lat"`
	MinLong float64 `yaml:"min_long"`
	MaxLong float64 `yaml:"max_long"`
}

// Contains reports whether the point falls inside the box.
func (b Box) Contains(p model.GeoPoint) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat &&
		p.Long >= b.MinLong && p.Long <= b.MaxLong
}

// Marker is a named fallback point for positions outside every box.
type Marker struct {
	Label string         `yaml:"label"`
	Point model.GeoPoint `yaml:"point"`
}

// Segmenter classifies a position into one of three course sectors. It is
// stateless: the same position always yields the same sector.
type Segmenter struct {
	boxes          []Box
	markers        []Marker
	fallbackRadius float64
}

// NewSegmenter builds a segmenter. fallbackRadius is the maximum distance
// (meters) at which a nearest marker still counts as a classification.
func NewSegmenter(boxes []Box, markers []Marker, fallbackRadius float64) *Segmenter {
	if fallbackRadius <= 0 {
		fallbackRadius = 300
	}
	return &Segmenter{boxes: boxes, markers: markers, fallbackRadius: fallbackRadius}
}

// Classify returns the sector label for the position, or "" when the
// position is in no box and no marker is within the fallback radius.
func (sg *Segmenter) Classify(p model.GeoPoint) string {
	for _, b := range sg.boxes {
		if b.Contains(p) {
			return b.Label
		}
	}

	best := ""
	bestDist := sg.fallbackRadius
	for _, m := range sg.markers {
		if d := Distance(p, m.Point); d <= bestDist {
			best = m.Label
			bestDist = d
		}
	}
	return best
}

// Timer times sector occupancy and keeps the best observed split per
// sector for the session. Current-lap state resets at every lap boundary;
// the bests persist.
type Timer struct {
	current   string
	entryTime time.Time
	bests     map[string]model.BestSplit
	now       func() time.Time
}

func NewTimer() *Timer {
	return &Timer{
		bests: make(map[string]model.BestSplit),
		now:   time.Now,
	}
}

// Observe records the sector the car currently occupies. On a sector
// change it closes the split for the sector just left and reports whether
// the best-of-session mapping improved.
func (t *Timer) Observe(label string, lap int) (improved bool) {
	if label == t.current {
		return false
	}

	left := t.current
	entered := t.entryTime
	t.current = label
	t.entryTime = t.now()

	if left == "" || entered.IsZero() {
		return false
	}
	elapsed := t.now().Sub(entered).Seconds()
	if elapsed <= 0 {
		return false
	}
	best, ok := t.bests[left]
	if !ok || elapsed < best.Seconds {
		t.bests[left] = model.BestSplit{Seconds: elapsed, Lap: lap}
		return true
	}
	return false
}

// ResetLap clears the current-lap occupancy at a lap boundary.
func (t *Timer) ResetLap() {
	t.current = ""
	t.entryTime = time.Time{}
}

// Current is the sector the car currently occupies, "" when unclassified.
func (t *Timer) Current() string {
	return t.current
}

// BestSplits returns a copy of the best-of-session mapping.
func (t *Timer) BestSplits() map[string]model.BestSplit {
	out := make(map[string]model.BestSplit, len(t.bests))
	for k, v := range t.bests {
		out[k] = v
	}
	return out
}
