package change_test

import (
	"errors"
	"testing"

	"github.com/flood-guardian/flood-guardian-engine/internal/change"
	"github.com/flood-guardian/flood-guardian-engine/internal/raster"
	"github.com/flood-guardian/flood-guardian-engine/internal/segment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTransform = raster.Transform{500000, 30, 0, 4649776, 0, -30}

func newMask(classes []segment.Class, width, height int) *segment.WaterMask {
	return &segment.WaterMask{
		Width:     width,
		Height:    height,
		CRS:       "WGS 84 / UTM zone 33N",
		Transform: testTransform,
		Classes:   classes,
	}
}

func TestDetectPerPixelRules(t *testing.T) {
	cases := []struct {
		name string
		pre  segment.Class
		post segment.Class
		want change.Class
	}{
		{"land to water floods", segment.Land, segment.Water, change.NewlyFlooded},
		{"land to land unchanged", segment.Land, segment.Land, change.Unchanged},
		{"water to water unchanged", segment.Water, segment.Water, change.Unchanged},
		{"water loss is unchanged", segment.Water, segment.Land, change.Unchanged},
		{"invalid pre", segment.Invalid, segment.Water, change.Invalid},
		{"invalid post", segment.Land, segment.Invalid, change.Invalid},
		{"invalid both", segment.Invalid, segment.Invalid, change.Invalid},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pre := newMask([]segment.Class{tc.pre}, 1, 1)
			post := newMask([]segment.Class{tc.post}, 1, 1)

			mask, err := change.Detect(pre, post)
			require.NoError(t, err)
			assert.Equal(t, tc.want, mask.At(0, 0))
		})
	}
}

func TestDetectRejectsDimensionMismatch(t *testing.T) {
	pre := newMask(make([]segment.Class, 4), 2, 2)
	post := newMask(make([]segment.Class, 6), 3, 2)

	_, err := change.Detect(pre, post)
	var mismatch *change.GeoregistrationMismatchError
	require.ErrorAs(t, err, &mismatch)
}

func TestDetectTransformTolerance(t *testing.T) {
	pre := newMask(make([]segment.Class, 4), 2, 2)

	// shifted within tolerance: accepted
	post := newMask(make([]segment.Class, 4), 2, 2)
	post.Transform[0] += 5e-10
	_, err := change.Detect(pre, post)
	require.NoError(t, err)

	// shifted beyond tolerance: rejected, never silently resampled
	post = newMask(make([]segment.Class, 4), 2, 2)
	post.Transform[0] += 2e-9
	_, err = change.Detect(pre, post)
	var mismatch *change.GeoregistrationMismatchError
	require.ErrorAs(t, err, &mismatch)
}

func TestDetectRejectsDifferentCRS(t *testing.T) {
	pre := newMask(make([]segment.Class, 1), 1, 1)
	post := newMask(make([]segment.Class, 1), 1, 1)
	post.CRS = "WGS 84 / UTM zone 34N"

	_, err := change.Detect(pre, post)
	var mismatch *change.GeoregistrationMismatchError
	require.True(t, errors.As(err, &mismatch))
}

func TestDetectKeepsGeoreference(t *testing.T) {
	pre := newMask(make([]segment.Class, 4), 2, 2)
	post := newMask(make([]segment.Class, 4), 2, 2)

	mask, err := change.Detect(pre, post)
	require.NoError(t, err)
	assert.Equal(t, pre.Transform, mask.Transform)
	assert.Equal(t, pre.CRS, mask.CRS)
}
