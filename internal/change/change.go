// Package change compares co-registered pre- and post-event water masks
// to isolate newly flooded ground.
package change

import (
	"fmt"

	"github.com/flood-guardian/flood-guardian-engine/internal/raster"
	"github.com/flood-guardian/flood-guardian-engine/internal/segment"
)

// Class is the tri-state classification of one change pixel.
type Class uint8

const (
	Unchanged Class = iota
	NewlyFlooded
	Invalid
)

func (c Class) String() string {
	switch c {
	case Unchanged:
		return "unchanged"
	case NewlyFlooded:
		return "newly-flooded"
	default:
		return "invalid"
	}
}

// Mask is a per-pixel change grid, flat row-major, sharing the inputs'
// dimensions and transform.
type Mask struct {
	Width     int
	Height    int
	CRS       string
	Transform raster.Transform
	Classes   []Class
}

// At returns the class at (row, col).
func (m *Mask) At(row, col int) Class {
	return m.Classes[row*m.Width+col]
}

// GeoregistrationMismatchError reports pre/post masks that do not share
// the same pixel grid: differing dimensions, transforms, or CRS.
// Silently resampling would attribute change to the wrong ground, so
// this is always an error.
type GeoregistrationMismatchError struct {
	Detail string
}

func (e *GeoregistrationMismatchError) Error() string {
	return fmt.Sprintf("pre/post scenes are not co-registered: %s", e.Detail)
}

// TransformTolerance is the per-coefficient tolerance for treating two
// affine transforms as identical.
const TransformTolerance = 1e-9

// Detect builds the change mask for a co-registered mask pair. A pixel
// is NewlyFlooded iff pre=land and post=water; Invalid iff either input
// is invalid; Unchanged otherwise. Water loss (water -> land) counts as
// Unchanged: the detector reports flood gain only.
func Detect(pre, post *segment.WaterMask) (*Mask, error) {
	if pre == nil || post == nil {
		return nil, fmt.Errorf("nil water mask")
	}
	if pre.Width != post.Width || pre.Height != post.Height {
		return nil, &GeoregistrationMismatchError{
			Detail: fmt.Sprintf("dimensions %dx%d vs %dx%d", pre.Width, pre.Height, post.Width, post.Height),
		}
	}
	if !pre.Transform.ApproxEqual(post.Transform, TransformTolerance) {
		return nil, &GeoregistrationMismatchError{
			Detail: fmt.Sprintf("transforms %v vs %v differ beyond %g", pre.Transform, post.Transform, TransformTolerance),
		}
	}
	if pre.CRS != post.CRS {
		return nil, &GeoregistrationMismatchError{Detail: "spatial reference systems differ"}
	}

	mask := &Mask{
		Width:     pre.Width,
		Height:    pre.Height,
		CRS:       pre.CRS,
		Transform: pre.Transform,
		Classes:   make([]Class, len(pre.Classes)),
	}
	for i := range pre.Classes {
		switch {
		case pre.Classes[i] == segment.Invalid || post.Classes[i] == segment.Invalid:
			mask.Classes[i] = Invalid
		case pre.Classes[i] == segment.Land && post.Classes[i] == segment.Water:
			mask.Classes[i] = NewlyFlooded
		default:
			mask.Classes[i] = Unchanged
		}
	}
	return mask, nil
}
