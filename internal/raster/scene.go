package raster

import (
	"fmt"
	"math"
)

// Transform is the GDAL-style affine geotransform mapping pixel (row, col)
// to geographic (x, y):
//
//	x = t[0] + t[1]*col + t[2]*row
//	y = t[3] + t[4]*col + t[5]*row
type Transform [6]float64

// PixelToGeo converts fractional pixel coordinates to geographic
// coordinates. Pass col+0.5/row+0.5 for the pixel center.
func (t Transform) PixelToGeo(row, col float64) (float64, float64) {
	x := t[0] + t[1]*col + t[2]*row
	y := t[3] + t[4]*col + t[5]*row
	return x, y
}

// Determinant of the 2x2 linear part. Zero means the transform collapses
// the grid onto a line and cannot georeference pixels.
func (t Transform) Determinant() float64 {
	return t[1]*t[5] - t[2]*t[4]
}

// PixelArea is the ground area covered by one pixel in squared transform
// units (m² for projected CRSs).
func (t Transform) PixelArea() float64 {
	return math.Abs(t.Determinant())
}

// ApproxEqual reports whether every coefficient of both transforms agrees
// within tol.
func (t Transform) ApproxEqual(other Transform, tol float64) bool {
	for i := range t {
		if math.Abs(t[i]-other[i]) > tol {
			return false
		}
	}
	return true
}

// Scene is a multi-band raster held in memory. Each band is a flat
// row-major float64 slice of Width*Height values; all bands share the
// same dimensions and geotransform.
type Scene struct {
	Width     int
	Height    int
	CRS       string
	Transform Transform
	Bands     [][]float64
}

// NewScene allocates a scene with bandCount zeroed bands.
func NewScene(width, height, bandCount int, crs string, transform Transform) (*Scene, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid scene dimensions %dx%d", width, height)
	}
	if bandCount <= 0 {
		return nil, fmt.Errorf("invalid band count %d", bandCount)
	}
	bands := make([][]float64, bandCount)
	for i := range bands {
		bands[i] = make([]float64, width*height)
	}
	return &Scene{
		Width:     width,
		Height:    height,
		CRS:       crs,
		Transform: transform,
		Bands:     bands,
	}, nil
}

// At returns the value of band at (row, col). No bounds checking beyond
// the slice's own; callers iterate within scene dimensions.
func (s *Scene) At(band, row, col int) float64 {
	return s.Bands[band][row*s.Width+col]
}

// Set writes the value of band at (row, col).
func (s *Scene) Set(band, row, col int, value float64) {
	s.Bands[band][row*s.Width+col] = value
}
