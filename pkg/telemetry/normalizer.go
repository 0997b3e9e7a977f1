// Package telemetry resolves canonical fields out of raw pivoted dataset
// rows. Upstream columns are sparse and inconsistently named, so every
// field consults an ordered fallback list and degrades to a smoothed
// carry-over of the previous tick instead of dropping to zero.
package telemetry

import "grstrategy/pkg/model"

// Source name fallback chains, most specific first.
var (
	speedSources    = []string{"speed", "Speed", "SPEED", "speed_kmh", "speed_mps"}
	rpmSources      = []string{"RPM", "nmot"}
	gearSources     = []string{"Gear", "gear"}
	throttleSources = []string{"Throttle", "aps"}
	brakeSources    = []string{"Brake", "brake_pressure"}
	latGSources     = []string{"accx_can", "lat_g"}
	longGSources    = []string{"accy_can", "long_g"}
	latSources      = []string{"VBOX_Lat_Min", "GPS_Lat"}
	longSources     = []string{"VBOX_Long_Minutes", "GPS_Long"}
)

// Exponential smoothing weights, applied once a previous value exists.
const (
	speedSmoothing = 0.97
	rpmSmoothing   = 0.95
)

// Normalizer turns RawSamples into Samples. It keeps the previous resolved
// speed and rpm for carry-over and never errors on missing data.
type Normalizer struct {
	defaultPosition model.GeoPoint
	brakeMaxRaw     float64

	lastSpeed float64
	lastRPM   float64
}

// NewNormalizer builds a normalizer. brakeMaxRaw is the raw pressure value
// mapped to 100 % for brake sources that exceed the percentage range.
func NewNormalizer(defaultPosition model.GeoPoint, brakeMaxRaw float64) *Normalizer {
	if brakeMaxRaw <= 0 {
		brakeMaxRaw = 1500
	}
	return &Normalizer{
		defaultPosition: defaultPosition,
		brakeMaxRaw:     brakeMaxRaw,
	}
}

// Resolve produces the normalized tick for one raw row.
func (n *Normalizer) Resolve(raw model.RawSample) model.Sample {
	rpmHint, _ := raw.Get(rpmSources...)

	rawSpeed, _ := raw.Get(speedSources...)
	if rawSpeed <= 0 && n.lastSpeed > 5 {
		rawSpeed = n.lastSpeed
	}
	if rawSpeed <= 0 && rpmHint > 500 {
		// a spinning engine means the car is moving, estimate from revs
		rawSpeed = max(8.0, rpmHint/80.0)
	}
	speed := rawSpeed
	if n.lastSpeed > 0 {
		speed = speedSmoothing*rawSpeed + (1-speedSmoothing)*n.lastSpeed
	}
	n.lastSpeed = max(speed, 0)

	rawRPM := rpmHint
	if rawRPM <= 100 && n.lastRPM > 0 {
		rawRPM = n.lastRPM
	}
	rpm := rawRPM
	if n.lastRPM > 0 {
		rpm = rpmSmoothing*rawRPM + (1-rpmSmoothing)*n.lastRPM
	}
	n.lastRPM = max(rpm, 0)

	brake, _ := raw.Get(brakeSources...)
	if brake > 100 {
		// raw pressure sensor, rescale to percent
		brake = brake / n.brakeMaxRaw * 100
		if brake > 100 {
			brake = 100
		}
	}

	gear, _ := raw.Get(gearSources...)
	throttle, _ := raw.Get(throttleSources...)
	latG, _ := raw.Get(latGSources...)
	longG, _ := raw.Get(longGSources...)

	pos := n.defaultPosition
	if v, ok := raw.Get(latSources...); ok {
		pos.Lat = v
	}
	if v, ok := raw.Get(longSources...); ok {
		pos.Long = v
	}

	s := model.Sample{
		Timestamp:    raw.Timestamp,
		HasTimestamp: raw.HasTimestamp,
		Speed:        speed,
		RPM:          rpm,
		Gear:         int(gear),
		Throttle:     throttle,
		Brake:        brake,
		LatG:         latG,
		LongG:        longG,
		Position:     pos,
	}
	if raw.HasLap {
		s.LapIndex = int(raw.Lap)
		s.HasLapIndex = true
	}
	return s
}

// LastSpeed is the previous tick's resolved speed, used by the coaching
// rules that look at tick-over-tick deceleration.
func (n *Normalizer) LastSpeed() float64 {
	return n.lastSpeed
}
