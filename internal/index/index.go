// Package index computes normalized-difference spectral indices from
// raster scenes. The water index used by the flood pipeline is NDWI
// (green vs. near-infrared), but the computation is band-agnostic.
package index

import (
	"fmt"
	"math"
	"runtime"

	"github.com/flood-guardian/flood-guardian-engine/internal/raster"
	"github.com/gammazero/workerpool"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Grid holds one index value per scene pixel, flat row-major. NaN marks
// an invalid pixel and propagates through every later stage.
type Grid struct {
	Width     int
	Height    int
	CRS       string
	Transform raster.Transform
	Values    []float64
}

// At returns the index value at (row, col).
func (g *Grid) At(row, col int) float64 {
	return g.Values[row*g.Width+col]
}

// Valid reports whether the pixel at (row, col) carries a usable value.
func (g *Grid) Valid(row, col int) bool {
	return !math.IsNaN(g.Values[row*g.Width+col])
}

// Statistics summarizes the valid pixels of a grid.
type Statistics struct {
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Mean        float64 `json:"mean"`
	ValidPixels int     `json:"valid_pixels"`
}

// Stats computes min/max/mean over the valid pixels. All-invalid grids
// yield a zero Statistics with ValidPixels == 0.
func (g *Grid) Stats() Statistics {
	valid := make([]float64, 0, len(g.Values))
	for _, v := range g.Values {
		if !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return Statistics{}
	}
	return Statistics{
		Min:         floats.Min(valid),
		Max:         floats.Max(valid),
		Mean:        stat.Mean(valid, nil),
		ValidPixels: len(valid),
	}
}

// Compute builds the normalized difference (A-B)/(A+B) of two scene
// bands in double precision. A pixel is invalid when either input is
// non-finite, the denominator is zero, or the quotient falls outside
// [-1, 1] (only possible with malformed reflectance data).
//
// Rows are processed by a fixed worker pool; workers <= 0 uses one
// worker per CPU. Per-pixel work is pure, so the result is identical
// regardless of pool size.
func Compute(scene *raster.Scene, bandA, bandB, workers int) (*Grid, error) {
	if scene == nil {
		return nil, fmt.Errorf("nil scene")
	}
	if bandA < 0 || bandA >= len(scene.Bands) || bandB < 0 || bandB >= len(scene.Bands) {
		return nil, fmt.Errorf("band pair (%d, %d) out of range for %d-band scene", bandA, bandB, len(scene.Bands))
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	grid := &Grid{
		Width:     scene.Width,
		Height:    scene.Height,
		CRS:       scene.CRS,
		Transform: scene.Transform,
		Values:    make([]float64, scene.Width*scene.Height),
	}

	a, b := scene.Bands[bandA], scene.Bands[bandB]
	width := scene.Width

	wp := workerpool.New(workers)
	for row := 0; row < scene.Height; row++ {
		offset := row * width
		wp.Submit(func() {
			for col := 0; col < width; col++ {
				grid.Values[offset+col] = normalizedDifference(a[offset+col], b[offset+col])
			}
		})
	}
	wp.StopWait()

	return grid, nil
}

func normalizedDifference(a, b float64) float64 {
	if math.IsNaN(a) || math.IsInf(a, 0) || math.IsNaN(b) || math.IsInf(b, 0) {
		return math.NaN()
	}
	denominator := a + b
	if denominator == 0 {
		return math.NaN()
	}
	value := (a - b) / denominator
	if value < -1 || value > 1 {
		return math.NaN()
	}
	return value
}
