// Package segment classifies water-index grids into binary water masks.
package segment

import (
	"fmt"
	"math"

	"github.com/flood-guardian/flood-guardian-engine/internal/index"
	"github.com/flood-guardian/flood-guardian-engine/internal/raster"
)

// Class is the tri-state classification of one mask pixel.
type Class uint8

const (
	Land Class = iota
	Water
	Invalid
)

func (c Class) String() string {
	switch c {
	case Land:
		return "land"
	case Water:
		return "water"
	default:
		return "invalid"
	}
}

// WaterMask is a per-pixel water/land/invalid grid, flat row-major.
type WaterMask struct {
	Width     int
	Height    int
	CRS       string
	Transform raster.Transform
	Classes   []Class
}

// At returns the class at (row, col).
func (m *WaterMask) At(row, col int) Class {
	return m.Classes[row*m.Width+col]
}

// DefaultThreshold is the NDWI water cut-off from McFeeters (1996):
// open water tends to positive NDWI, soil and vegetation to negative.
const DefaultThreshold = 0.0

// Options configures segmentation.
type Options struct {
	// Threshold classifies a pixel as water when index >= Threshold.
	Threshold float64
	// AutoThreshold derives the threshold from the grid itself with
	// Otsu's method, overriding Threshold when a split exists.
	AutoThreshold bool
	// MinRegionSize, when > 0, reclassifies 4-connected water regions
	// smaller than this pixel count as land. 4-neighbor connectivity is
	// deliberate: 8-neighbor bridges regions across diagonals.
	MinRegionSize int
}

// Segment thresholds an index grid into a water mask. Invalid index
// pixels stay invalid in the mask; the threshold rule introduces no new
// invalid pixels and drops none.
func Segment(grid *index.Grid, opts Options) (*WaterMask, error) {
	if grid == nil {
		return nil, fmt.Errorf("nil index grid")
	}
	if opts.MinRegionSize < 0 {
		return nil, fmt.Errorf("negative min region size %d", opts.MinRegionSize)
	}
	if math.IsNaN(opts.Threshold) {
		return nil, fmt.Errorf("threshold is NaN")
	}

	threshold := opts.Threshold
	if opts.AutoThreshold {
		if t, ok := OtsuThreshold(grid); ok {
			threshold = t
		}
	}

	mask := &WaterMask{
		Width:     grid.Width,
		Height:    grid.Height,
		CRS:       grid.CRS,
		Transform: grid.Transform,
		Classes:   make([]Class, len(grid.Values)),
	}
	for i, v := range grid.Values {
		switch {
		case math.IsNaN(v):
			mask.Classes[i] = Invalid
		case v >= threshold:
			mask.Classes[i] = Water
		default:
			mask.Classes[i] = Land
		}
	}

	if opts.MinRegionSize > 0 {
		removeSmallWaterRegions(mask, opts.MinRegionSize)
	}

	return mask, nil
}

// removeSmallWaterRegions flood-fills each 4-connected water component
// with an explicit stack (large flood plains would overflow a recursive
// fill) and turns components below minSize into land.
func removeSmallWaterRegions(mask *WaterMask, minSize int) {
	width, height := mask.Width, mask.Height
	visited := make([]bool, len(mask.Classes))
	stack := make([]int, 0, 64)
	component := make([]int, 0, 64)

	for start, class := range mask.Classes {
		if class != Water || visited[start] {
			continue
		}

		stack = append(stack[:0], start)
		component = component[:0]
		visited[start] = true

		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			component = append(component, idx)

			row, col := idx/width, idx%width
			neighbors := [4]int{-1, -1, -1, -1}
			if row > 0 {
				neighbors[0] = idx - width
			}
			if row < height-1 {
				neighbors[1] = idx + width
			}
			if col > 0 {
				neighbors[2] = idx - 1
			}
			if col < width-1 {
				neighbors[3] = idx + 1
			}
			for _, n := range neighbors {
				if n >= 0 && !visited[n] && mask.Classes[n] == Water {
					visited[n] = true
					stack = append(stack, n)
				}
			}
		}

		if len(component) < minSize {
			for _, idx := range component {
				mask.Classes[idx] = Land
			}
		}
	}
}
