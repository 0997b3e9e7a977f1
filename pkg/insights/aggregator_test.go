package insights

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grstrategy/pkg/model"
)

func newTestAggregator(cfg Config, results map[int]model.LapResult) (*Aggregator, *time.Time) {
	a := NewAggregator(cfg, results)
	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return clock }
	return a, &clock
}

func TestCompleteLapExcludesWarmup(t *testing.T) {
	a, _ := newTestAggregator(Config{ExcludedLaps: 1}, nil)

	assert.True(t, a.CompleteLap(1, 110, true), "lap count changes even for warm-up")
	assert.Zero(t, a.BestLap())
	assert.Equal(t, 1, a.LapsCompleted())

	a.CompleteLap(2, 100, true)
	assert.InDelta(t, 100, a.BestLap(), 0.001)
}

func TestCompleteLapStatistics(t *testing.T) {
	a, _ := newTestAggregator(Config{}, nil)

	a.CompleteLap(1, 95, true)
	a.CompleteLap(2, 100, true)

	si := a.Snapshot(0)
	assert.InDelta(t, 95, si.BestLap, 0.001)
	assert.InDelta(t, 97.5, si.AverageLap, 0.001)
	assert.InDelta(t, 100, si.LastLap, 0.001)
	assert.InDelta(t, 5, si.DeltaToBest, 0.001)
	// sample stddev of {100, 95}
	assert.InDelta(t, 3.54, si.Consistency, 0.01)
}

func TestCompleteLapResultsFeedOverride(t *testing.T) {
	results := map[int]model.LapResult{3: {Lap: 3, Duration: 95}}
	a, _ := newTestAggregator(Config{}, results)

	a.CompleteLap(3, 102, true)
	assert.InDelta(t, 95, a.BestLap(), 0.001, "feed duration overrides the local timing")

	// feed can also supply a duration the local timer missed
	a.CompleteLap(3, 0, false)
	assert.Equal(t, 2, a.LapsCompleted())
}

func TestCompleteLapWithoutDuration(t *testing.T) {
	a, _ := newTestAggregator(Config{}, nil)

	assert.True(t, a.CompleteLap(2, 0, false))
	assert.Zero(t, a.BestLap())
	assert.Equal(t, 1, a.LapsCompleted())
	assert.Empty(t, a.Snapshot(0).History)
}

func TestHistoryBounded(t *testing.T) {
	a, _ := newTestAggregator(Config{HistorySize: 3}, nil)

	for lap := 2; lap <= 8; lap++ {
		a.CompleteLap(lap, 100+float64(lap), true)
	}
	si := a.Snapshot(0)
	require.Len(t, si.History, 3)
	assert.Equal(t, 6, si.History[0].Lap)
	assert.Equal(t, 8, si.History[2].Lap)
}

func TestSnapshotProvisionalEntry(t *testing.T) {
	a, _ := newTestAggregator(Config{}, nil)
	a.CompleteLap(2, 100, true)

	si := a.Snapshot(3)
	require.Len(t, si.History, 2)
	assert.False(t, si.History[0].Provisional)
	assert.True(t, si.History[1].Provisional)
	assert.Equal(t, 3, si.History[1].Lap)
}

func TestObserveTickTopSpeed(t *testing.T) {
	a, _ := newTestAggregator(Config{ExcludedLaps: 1}, nil)

	// warm-up laps never move the top speed
	newTop, _ := a.ObserveTick(model.Sample{Speed: 200, Throttle: 80}, 1)
	assert.False(t, newTop)

	newTop, changed := a.ObserveTick(model.Sample{Speed: 150, Throttle: 80}, 2)
	assert.True(t, newTop)
	assert.True(t, changed)

	// within the margin, no update
	newTop, _ = a.ObserveTick(model.Sample{Speed: 150.3, Throttle: 80}, 2)
	assert.False(t, newTop)

	newTop, _ = a.ObserveTick(model.Sample{Speed: 150.6, Throttle: 80}, 2)
	assert.True(t, newTop)
	assert.InDelta(t, 150.6, a.Snapshot(0).TopSpeed, 0.001)
}

func TestObservePitDwell(t *testing.T) {
	a, clock := newTestAggregator(Config{}, nil)
	stopped := model.Sample{Speed: 1, Throttle: 0}

	// seed the top speed so it stays quiet for the rest of the test
	a.ObserveTick(model.Sample{Speed: 120, Throttle: 80}, 2)

	_, changed := a.ObserveTick(stopped, 2)
	assert.False(t, changed, "dwell only starts the timer")

	*clock = clock.Add(3 * time.Second)
	_, changed = a.ObserveTick(stopped, 2)
	assert.True(t, changed)
	assert.Equal(t, 1, a.Snapshot(0).PitCount)

	// still stationary, no double count
	*clock = clock.Add(10 * time.Second)
	a.ObserveTick(stopped, 2)
	assert.Equal(t, 1, a.Snapshot(0).PitCount)

	// back up to pace re-arms the counter
	a.ObserveTick(model.Sample{Speed: 120, Throttle: 80}, 2)
	a.ObserveTick(stopped, 3)
	*clock = clock.Add(3 * time.Second)
	a.ObserveTick(stopped, 3)
	assert.Equal(t, 2, a.Snapshot(0).PitCount)
}

func TestBestSectors(t *testing.T) {
	a, _ := newTestAggregator(Config{}, nil)
	a.SetBestSectors(map[string]model.BestSplit{"S1": {Seconds: 30.1, Lap: 4}})

	si := a.Snapshot(0)
	require.Contains(t, si.BestSectors, "S1")
	assert.Equal(t, 4, si.BestSectors["S1"].Lap)
}

func TestRecentDurations(t *testing.T) {
	a, _ := newTestAggregator(Config{}, nil)
	for lap := 2; lap <= 6; lap++ {
		a.CompleteLap(lap, 100+float64(lap), true)
	}
	recent := a.RecentDurations(3)
	assert.Equal(t, []float64{104, 105, 106}, recent)
}
