package replay

import (
	"math"
	"time"

	"grstrategy/pkg/model"
)

// Feed supplies one raw sample per scheduler tick. wrapped is true on the
// tick where a replay rolled past the end of its recording.
type Feed interface {
	Next() (raw model.RawSample, wrapped bool)
	Source() string
}

// datasetFeed walks a loaded recording one sample per tick, wrapping at
// the end.
type datasetFeed struct {
	samples []model.RawSample
	idx     int
}

func NewDatasetFeed(samples []model.RawSample) Feed {
	return &datasetFeed{samples: samples}
}

func (f *datasetFeed) Next() (model.RawSample, bool) {
	raw := f.samples[f.idx]
	f.idx++
	if f.idx >= len(f.samples) {
		f.idx = 0
		return raw, true
	}
	return raw, false
}

func (f *datasetFeed) Source() string {
	return "dataset"
}

// Synthetic source constants. The waveform is a plausible flying lap shape
// so every downstream consumer behaves exactly as it would on real data.
const (
	syntheticBaseSpeed = 140.0
	syntheticSpeedAmp  = 40.0
	syntheticBaseRPM   = 5000.0
	syntheticRPMAmp    = 1500.0
	syntheticGear      = 4.0
	syntheticThrottle  = 80.0
)

// syntheticFeed generates sinusoidal telemetry for sessions without a
// recording. It carries an explicit lap index that advances every
// lapSeconds, so lap detection runs the same categorical path as real
// data.
type syntheticFeed struct {
	position   model.GeoPoint
	lapSeconds float64

	start time.Time
	now   func() time.Time
}

func NewSyntheticFeed(position model.GeoPoint, lapSeconds float64) Feed {
	if lapSeconds <= 0 {
		lapSeconds = 90
	}
	return &syntheticFeed{
		position:   position,
		lapSeconds: lapSeconds,
		now:        time.Now,
	}
}

func (f *syntheticFeed) Next() (model.RawSample, bool) {
	if f.start.IsZero() {
		f.start = f.now()
	}
	t := f.now().Sub(f.start).Seconds()

	return model.RawSample{
		Timestamp:    t,
		HasTimestamp: true,
		Fields: map[string]float64{
			"speed":    syntheticBaseSpeed + syntheticSpeedAmp*math.Sin(t),
			"RPM":      syntheticBaseRPM + syntheticRPMAmp*math.Sin(t),
			"Gear":     syntheticGear,
			"Throttle": syntheticThrottle,
			"accx_can": math.Sin(t),
			"accy_can": math.Cos(t),
			"GPS_Lat":  f.position.Lat,
			"GPS_Long": f.position.Long,
		},
		Lap:    math.Floor(t/f.lapSeconds) + 1,
		HasLap: true,
	}, false
}

func (f *syntheticFeed) Source() string {
	return "synthetic"
}
