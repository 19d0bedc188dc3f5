package segment_test

import (
	"math"
	"testing"

	"github.com/flood-guardian/flood-guardian-engine/internal/index"
	"github.com/flood-guardian/flood-guardian-engine/internal/raster"
	"github.com/flood-guardian/flood-guardian-engine/internal/segment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGrid(width, height int, values []float64) *index.Grid {
	return &index.Grid{
		Width:     width,
		Height:    height,
		CRS:       "WGS 84",
		Transform: raster.Transform{0, 30, 0, 0, 0, -30},
		Values:    values,
	}
}

func TestSegmentThresholdRule(t *testing.T) {
	grid := newGrid(4, 1, []float64{-0.2, 0.0, 0.3, math.NaN()})

	mask, err := segment.Segment(grid, segment.Options{Threshold: 0.0})
	require.NoError(t, err)

	// water iff index >= threshold; the threshold itself is water
	assert.Equal(t, segment.Land, mask.At(0, 0))
	assert.Equal(t, segment.Water, mask.At(0, 1))
	assert.Equal(t, segment.Water, mask.At(0, 2))
	assert.Equal(t, segment.Invalid, mask.At(0, 3))
}

func TestSegmentPreservesInvalidExactly(t *testing.T) {
	values := []float64{0.5, math.NaN(), -0.5, math.NaN(), 0.1, 0.9}
	grid := newGrid(3, 2, values)

	mask, err := segment.Segment(grid, segment.Options{Threshold: 0.0})
	require.NoError(t, err)

	for i, v := range values {
		if math.IsNaN(v) {
			assert.Equal(t, segment.Invalid, mask.Classes[i], "pixel %d should stay invalid", i)
		} else {
			assert.NotEqual(t, segment.Invalid, mask.Classes[i], "pixel %d should not become invalid", i)
		}
	}
}

func TestSegmentAllInvalidGrid(t *testing.T) {
	values := make([]float64, 9)
	for i := range values {
		values[i] = math.NaN()
	}
	mask, err := segment.Segment(newGrid(3, 3, values), segment.Options{})
	require.NoError(t, err)
	for _, class := range mask.Classes {
		assert.Equal(t, segment.Invalid, class)
	}
}

func TestSegmentMinRegionSizeUses4Connectivity(t *testing.T) {
	// Two 2-pixel water patches touching only diagonally at the center.
	// With 4-neighbor connectivity they are separate regions of size 2
	// and both fall below a bound of 3; 8-neighbor would bridge them
	// into one region of 4 and keep them.
	w := 0.5
	l := -0.5
	grid := newGrid(4, 4, []float64{
		w, w, l, l,
		l, l, w, w,
		l, l, l, l,
		l, l, l, l,
	})

	mask, err := segment.Segment(grid, segment.Options{Threshold: 0.0, MinRegionSize: 3})
	require.NoError(t, err)

	for i := range mask.Classes {
		assert.Equal(t, segment.Land, mask.Classes[i], "pixel %d", i)
	}
}

func TestSegmentMinRegionSizeKeepsLargeRegions(t *testing.T) {
	w := 0.5
	l := -0.5
	grid := newGrid(4, 2, []float64{
		w, w, w, l,
		l, l, l, w,
	})

	mask, err := segment.Segment(grid, segment.Options{Threshold: 0.0, MinRegionSize: 2})
	require.NoError(t, err)

	assert.Equal(t, segment.Water, mask.At(0, 0))
	assert.Equal(t, segment.Water, mask.At(0, 1))
	assert.Equal(t, segment.Water, mask.At(0, 2))
	// the isolated single pixel is reclassified as land
	assert.Equal(t, segment.Land, mask.At(1, 3))
}

func TestSegmentRejectsBadOptions(t *testing.T) {
	grid := newGrid(1, 1, []float64{0})

	_, err := segment.Segment(grid, segment.Options{MinRegionSize: -1})
	assert.Error(t, err)

	_, err = segment.Segment(grid, segment.Options{Threshold: math.NaN()})
	assert.Error(t, err)
}

func TestOtsuThresholdSeparatesBimodalGrid(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		if i < 60 {
			values[i] = -0.6
		} else {
			values[i] = 0.7
		}
	}
	grid := newGrid(10, 10, values)

	threshold, ok := segment.OtsuThreshold(grid)
	require.True(t, ok)
	assert.Greater(t, threshold, -0.6)
	assert.LessOrEqual(t, threshold, 0.7)

	mask, err := segment.Segment(grid, segment.Options{AutoThreshold: true})
	require.NoError(t, err)
	water, land := 0, 0
	for _, class := range mask.Classes {
		switch class {
		case segment.Water:
			water++
		case segment.Land:
			land++
		}
	}
	assert.Equal(t, 40, water)
	assert.Equal(t, 60, land)
}

func TestOtsuThresholdAllInvalid(t *testing.T) {
	values := []float64{math.NaN(), math.NaN()}
	_, ok := segment.OtsuThreshold(newGrid(2, 1, values))
	assert.False(t, ok)
}
