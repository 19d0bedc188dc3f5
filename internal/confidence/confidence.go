// Package confidence scores newly flooded pixels from the magnitude of
// their water-index change.
package confidence

import (
	"fmt"
	"math"
	"runtime"

	"github.com/flood-guardian/flood-guardian-engine/internal/change"
	"github.com/flood-guardian/flood-guardian-engine/internal/index"
	"github.com/gammazero/workerpool"
)

// DefaultSaturationDelta is the index delta at which confidence reaches
// 1.0. An NDWI swing of 0.5 between acquisitions is a decisive
// land-to-water transition.
const DefaultSaturationDelta = 0.5

// Grid holds one confidence value in [0, 1] per change-mask pixel, flat
// row-major. NaN marks pixels whose change class is invalid: an unknown
// pixel must not read as "confidently not flooded".
type Grid struct {
	Width  int
	Height int
	Values []float64
}

// At returns the confidence at (row, col).
func (g *Grid) At(row, col int) float64 {
	return g.Values[row*g.Width+col]
}

// Estimate scores a change mask. NewlyFlooded pixels get
// min(1, |postIdx-preIdx| / saturationDelta); Unchanged pixels get 0;
// Invalid pixels get NaN. Rows are fanned out over a fixed worker pool;
// workers <= 0 uses one worker per CPU.
func Estimate(mask *change.Mask, preIdx, postIdx *index.Grid, saturationDelta float64, workers int) (*Grid, error) {
	if mask == nil || preIdx == nil || postIdx == nil {
		return nil, fmt.Errorf("nil input grid")
	}
	if saturationDelta <= 0 || math.IsNaN(saturationDelta) {
		return nil, fmt.Errorf("saturation delta must be positive, got %v", saturationDelta)
	}
	if preIdx.Width != mask.Width || preIdx.Height != mask.Height ||
		postIdx.Width != mask.Width || postIdx.Height != mask.Height {
		return nil, fmt.Errorf("index grids do not match change mask dimensions %dx%d", mask.Width, mask.Height)
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	grid := &Grid{
		Width:  mask.Width,
		Height: mask.Height,
		Values: make([]float64, len(mask.Classes)),
	}

	width := mask.Width
	wp := workerpool.New(workers)
	for row := 0; row < mask.Height; row++ {
		offset := row * width
		wp.Submit(func() {
			for col := 0; col < width; col++ {
				i := offset + col
				switch mask.Classes[i] {
				case change.NewlyFlooded:
					grid.Values[i] = math.Min(1, math.Abs(postIdx.Values[i]-preIdx.Values[i])/saturationDelta)
				case change.Unchanged:
					grid.Values[i] = 0
				default:
					grid.Values[i] = math.NaN()
				}
			}
		})
	}
	wp.StopWait()

	return grid, nil
}
