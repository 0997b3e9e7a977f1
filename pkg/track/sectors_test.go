package track

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grstrategy/pkg/model"
)

var testBoxes = []Box{
	{Label: Sector1, MinLat: 33.529, MaxLat: 33.534, MinLong: -86.623, MaxLong: -86.6165},
	{Label: Sector2, MinLat: 33.529, MaxLat: 33.534, MinLong: -86.6165, MaxLong: -86.6125},
	{Label: Sector3, MinLat: 33.524, MaxLat: 33.529, MinLong: -86.623, MaxLong: -86.6125},
}

func TestClassify(t *testing.T) {
	sg := NewSegmenter(testBoxes, nil, 300)

	tests := []struct {
		name string
		p    model.GeoPoint
		want string
	}{
		{"inside first box", model.GeoPoint{Lat: 33.532, Long: -86.619}, Sector1},
		{"inside second box", model.GeoPoint{Lat: 33.530, Long: -86.614}, Sector2},
		{"inside third box", model.GeoPoint{Lat: 33.526, Long: -86.618}, Sector3},
		{"outside everything", model.GeoPoint{Lat: 34.5, Long: -87.5}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sg.Classify(tt.p))
			// classification is pure
			assert.Equal(t, tt.want, sg.Classify(tt.p))
		})
	}
}

func TestClassifyMarkerFallback(t *testing.T) {
	markers := []Marker{
		{Label: Sector1, Point: model.GeoPoint{Lat: 33.532, Long: -86.619}},
		{Label: Sector2, Point: model.GeoPoint{Lat: 33.531, Long: -86.614}},
	}
	sg := NewSegmenter(nil, markers, 300)

	// ~110 m north of the first marker
	assert.Equal(t, Sector1, sg.Classify(model.GeoPoint{Lat: 33.533, Long: -86.619}))
	// several kilometers away, beyond the fallback radius
	assert.Equal(t, "", sg.Classify(model.GeoPoint{Lat: 33.6, Long: -86.619}))
}

func TestTimerBestSplits(t *testing.T) {
	tm := NewTimer()
	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	tm.now = func() time.Time { return clock }

	assert.False(t, tm.Observe(Sector1, 3), "no previous sector to close")
	clock = clock.Add(30 * time.Second)
	assert.True(t, tm.Observe(Sector2, 3))
	clock = clock.Add(28 * time.Second)
	assert.True(t, tm.Observe(Sector3, 3))
	clock = clock.Add(25 * time.Second)
	assert.True(t, tm.Observe(Sector1, 3))

	bests := tm.BestSplits()
	require.Len(t, bests, 3)
	assert.InDelta(t, 30, bests[Sector1].Seconds, 0.001)
	assert.Equal(t, 3, bests[Sector1].Lap)

	// a faster pass improves the split, a slower one does not
	clock = clock.Add(29 * time.Second)
	assert.True(t, tm.Observe(Sector2, 4))
	assert.InDelta(t, 29, tm.BestSplits()[Sector1].Seconds, 0.001)
	assert.Equal(t, 4, tm.BestSplits()[Sector1].Lap)

	clock = clock.Add(45 * time.Second)
	assert.False(t, tm.Observe(Sector3, 4))
	assert.InDelta(t, 28, tm.BestSplits()[Sector2].Seconds, 0.001)
}

func TestTimerResetLap(t *testing.T) {
	tm := NewTimer()
	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	tm.now = func() time.Time { return clock }

	tm.Observe(Sector3, 1)
	assert.Equal(t, Sector3, tm.Current())

	tm.ResetLap()
	assert.Equal(t, "", tm.Current())

	// the sector left before the boundary must not be timed across it
	clock = clock.Add(10 * time.Second)
	assert.False(t, tm.Observe(Sector1, 2))
	assert.Empty(t, tm.BestSplits())
}

func TestDistance(t *testing.T) {
	a := model.GeoPoint{Lat: 33.532, Long: -86.619}
	assert.InDelta(t, 0, Distance(a, a), 0.001)

	// one degree of latitude is ~111.19 km on the spherical model
	b := model.GeoPoint{Lat: 34.532, Long: -86.619}
	assert.InDelta(t, 111195, Distance(a, b), 100)
}

func TestBuildInit(t *testing.T) {
	samples := make([]model.RawSample, 0, 200)
	for i := 0; i < 200; i++ {
		lap := 1.0
		if i >= 100 {
			lap = 2.0
		}
		samples = append(samples, model.RawSample{
			Fields: map[string]float64{
				"GPS_Lat":  33.530 + float64(i%100)*0.0001,
				"GPS_Long": -86.620 + float64(i%100)*0.0001,
			},
			Lap:    lap,
			HasLap: true,
		})
	}
	// lap 2 is denser
	samples = append(samples, model.RawSample{
		Fields: map[string]float64{"GPS_Lat": 33.531, "GPS_Long": -86.621},
		Lap:    2, HasLap: true,
	})

	init := BuildInit(samples, model.GeoPoint{Lat: 0, Long: 0})
	assert.GreaterOrEqual(t, len(init.Shape), 30)
	assert.Equal(t, init.Shape[0], init.Start)
	assert.LessOrEqual(t, init.Bounds.MinLat, init.Bounds.MaxLat)
	assert.InDelta(t, 33.530, init.Bounds.MinLat, 0.0001)
}

func TestBuildInitNoGPS(t *testing.T) {
	fallback := model.GeoPoint{Lat: 33.532, Long: -86.619}
	init := BuildInit(nil, fallback)
	assert.Equal(t, fallback, init.Start)
	assert.Empty(t, init.Shape)
}
