package weather

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grstrategy/pkg/model"
)

func TestCursorWraps(t *testing.T) {
	rows := []model.Weather{{TempC: 20}, {TempC: 21}, {TempC: 22}}
	c := NewCursor(rows)

	for _, want := range []float64{20, 21, 22, 20, 21} {
		require.NotNil(t, c.Current())
		assert.InDelta(t, want, c.Current().TempC, 0.001)
		c.Advance()
	}
}

func TestCursorEmpty(t *testing.T) {
	c := NewCursor(nil)
	assert.Nil(t, c.Current())
	c.Advance()
	assert.Nil(t, c.Current())
}

func TestDamperSuppressesSmallChanges(t *testing.T) {
	d := NewDamper(1)

	first := &model.Weather{TempC: 28, TrackTempC: 32}
	assert.Same(t, first, d.Resolve(first))

	// half a degree on both readings stays below the threshold
	small := &model.Weather{TempC: 28.5, TrackTempC: 32.4}
	assert.Same(t, first, d.Resolve(small), "the previously dispatched snapshot is returned exactly")

	// a full degree on either reading passes
	big := &model.Weather{TempC: 28.2, TrackTempC: 33.0}
	assert.Same(t, big, d.Resolve(big))
	assert.Same(t, big, d.Resolve(&model.Weather{TempC: 28.2, TrackTempC: 33.2}))
}

func TestDamperNilSnapshot(t *testing.T) {
	d := NewDamper(1)
	assert.Nil(t, d.Resolve(nil))

	first := &model.Weather{TempC: 28, TrackTempC: 32}
	d.Resolve(first)
	assert.Same(t, first, d.Resolve(nil), "a dry feed keeps the last dispatched snapshot")
}
