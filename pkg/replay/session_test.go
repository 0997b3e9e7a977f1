package replay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grstrategy/pkg/model"
	"grstrategy/pkg/track"
)

func testSessionConfig() SessionConfig {
	return SessionConfig{
		ID:              "test-session",
		FirstLap:        3,
		TotalLaps:       22,
		DefaultPosition: model.GeoPoint{Lat: 33.532, Long: -86.619},
		Sectors: []track.Box{
			{Label: track.Sector1, MinLat: 33.529, MaxLat: 33.534, MinLong: -86.623, MaxLong: -86.6125},
		},
	}
}

func lapSample(lap int, ts float64) model.RawSample {
	return model.RawSample{
		Timestamp:    ts,
		HasTimestamp: true,
		Fields: map[string]float64{
			"speed":    120,
			"RPM":      5500,
			"Gear":     4,
			"Throttle": 60,
			"GPS_Lat":  33.532,
			"GPS_Long": -86.619,
		},
		Lap:    float64(lap),
		HasLap: true,
	}
}

func TestTickLapCompletion(t *testing.T) {
	s := NewSession(testSessionConfig())

	pkt, _, lapEvent := s.Tick(lapSample(3, 0), false)
	assert.Nil(t, lapEvent)
	assert.Equal(t, 3, pkt.Lap)
	assert.Equal(t, 22, pkt.TotalLaps)

	pkt, snap, lapEvent := s.Tick(lapSample(4, 90), false)
	require.NotNil(t, lapEvent)
	assert.Equal(t, 3, lapEvent.Entry.Lap)
	require.True(t, lapEvent.HasDuration)
	assert.InDelta(t, 90, lapEvent.Entry.Duration, 0.001)
	assert.True(t, lapEvent.NewBest)
	assert.Equal(t, 4, pkt.Lap)

	require.NotNil(t, snap, "a completed lap changes the aggregates")
	assert.Equal(t, 1, snap.LapsCompleted)
	assert.InDelta(t, 90, snap.BestLap, 0.001)
}

func TestTickPacketDefaults(t *testing.T) {
	s := NewSession(testSessionConfig())

	pkt, _, _ := s.Tick(model.RawSample{Fields: map[string]float64{}}, false)

	assert.Zero(t, pkt.Speed)
	assert.Zero(t, pkt.RPM)
	assert.InDelta(t, 33.532, pkt.Lat, 0.001, "missing GPS falls back to the default position")
	assert.InDelta(t, 100, pkt.TireHealth, 0.001)
	assert.NotEmpty(t, pkt.Alerts, "the alert list is never empty")
	assert.Nil(t, pkt.Weather)
}

func TestTickSectorLabel(t *testing.T) {
	s := NewSession(testSessionConfig())

	pkt, _, _ := s.Tick(lapSample(3, 0), false)
	assert.Equal(t, track.Sector1, pkt.Sector)
}

func TestTickWeatherDamping(t *testing.T) {
	cfg := testSessionConfig()
	cfg.WeatherRows = []model.Weather{
		{TempC: 28, TrackTempC: 32},
		{TempC: 28.4, TrackTempC: 32.3},
		{TempC: 30, TrackTempC: 33.5},
	}
	s := NewSession(cfg)

	pkt, _, _ := s.Tick(lapSample(3, 0), false)
	require.NotNil(t, pkt.Weather)
	first := pkt.Weather
	assert.InDelta(t, 28, first.TempC, 0.001)

	pkt, _, _ = s.Tick(lapSample(3, 1), false)
	assert.Same(t, first, pkt.Weather, "sub-threshold change keeps the dispatched snapshot")

	pkt, _, _ = s.Tick(lapSample(3, 2), false)
	assert.InDelta(t, 30, pkt.Weather.TempC, 0.001)
}

func TestTickWrapCountsLap(t *testing.T) {
	s := NewSession(testSessionConfig())

	s.Tick(lapSample(21, 0), false)
	s.Tick(lapSample(22, 90), false)

	// the feed flags the wrap on the recording's final sample; the wrap
	// closes the lap in progress without a duration
	_, _, lapEvent := s.Tick(lapSample(22, 95), true)
	require.NotNil(t, lapEvent)
	assert.Equal(t, 22, lapEvent.Entry.Lap)
	assert.False(t, lapEvent.HasDuration)

	// the rewound indices pick back up as fresh timed laps, and the
	// session lap number keeps climbing instead of following the smaller
	// index
	_, _, lapEvent = s.Tick(lapSample(3, 0), false)
	require.Nil(t, lapEvent)

	var pkt model.Packet
	pkt, _, lapEvent = s.Tick(lapSample(4, 88), false)
	require.NotNil(t, lapEvent)
	assert.True(t, lapEvent.HasDuration)
	assert.InDelta(t, 88, lapEvent.Entry.Duration, 0.001)
	assert.Equal(t, 23, lapEvent.Entry.Lap)
	assert.Equal(t, 24, pkt.Lap)
}

func TestReplaySecondPassStillDetectsLaps(t *testing.T) {
	feed := NewDatasetFeed([]model.RawSample{
		lapSample(3, 0),
		lapSample(4, 90),
		lapSample(5, 180),
		lapSample(5, 185),
	})
	s := NewSession(testSessionConfig())

	runPass := func() (events, timed int) {
		for {
			raw, wrapped := feed.Next()
			_, _, ev := s.Tick(raw, wrapped)
			if ev != nil {
				events++
				if ev.HasDuration {
					timed++
				}
			}
			if wrapped {
				return
			}
		}
	}

	events, timed := runPass()
	assert.Equal(t, 3, events, "two index advances plus the wrap boundary")
	assert.Equal(t, 2, timed)

	// the replay keeps producing one crossing per lap on every pass
	events, timed = runPass()
	assert.Equal(t, 3, events)
	assert.Equal(t, 2, timed)
}

func TestTickTireWearAccumulates(t *testing.T) {
	s := NewSession(testSessionConfig())

	raw := lapSample(3, 0)
	raw.Fields["Brake"] = 100
	raw.Fields["accx_can"] = 2.0

	var health float64 = 100
	for i := 0; i < 50; i++ {
		pkt, _, _ := s.Tick(raw, false)
		assert.LessOrEqual(t, pkt.TireHealth, health)
		health = pkt.TireHealth
	}
	assert.Less(t, health, 100.0)
}
