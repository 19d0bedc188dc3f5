package output

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/flood-guardian/flood-guardian-engine/internal/change"
	"github.com/flood-guardian/flood-guardian-engine/internal/confidence"
	"github.com/flood-guardian/flood-guardian-engine/internal/raster"
	"github.com/flood-guardian/flood-guardian-engine/internal/report"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *report.FloodReport {
	return &report.FloodReport{
		Width:                   4,
		Height:                  4,
		CRS:                     "WGS 84 / UTM zone 33N",
		FloodedPixels:           3,
		FloodedAreaSquareMeters: 2700,
		MeanConfidence:          0.8,
		Regions: []report.Region{
			{
				PixelCount:       3,
				AreaSquareMeters: 2700,
				MeanConfidence:   0.8,
				AnchorRow:        1,
				AnchorCol:        2,
				Boundary: orb.Polygon{orb.Ring{
					{0, 0}, {90, 0}, {90, -30}, {0, -30}, {0, 0},
				}},
			},
		},
	}
}

func TestCreateFloodReportGeoJson(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.geojson")
	require.NoError(t, CreateFloodReportGeoJson(sampleReport(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "FeatureCollection", doc["type"])
	features := doc["features"].([]any)
	require.Len(t, features, 1)
	props := features[0].(map[string]any)["properties"].(map[string]any)
	assert.EqualValues(t, 3, props["pixel_count"])
	assert.EqualValues(t, 2700, doc["flooded_area_square_meters"])
}

func TestCreateFloodReportCsv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regions.csv")
	require.NoError(t, CreateFloodReportCsv(sampleReport(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "rank,pixel_count,area_square_meters,mean_confidence,anchor_row,anchor_col", lines[0])
	assert.Equal(t, "1,3,2700,0.8,1,2", lines[1])
}

func TestCreateFloodMaskImage(t *testing.T) {
	mask := &change.Mask{
		Width:     2,
		Height:    2,
		Transform: raster.Transform{0, 30, 0, 0, 0, -30},
		Classes: []change.Class{
			change.NewlyFlooded, change.Unchanged,
			change.Invalid, change.NewlyFlooded,
		},
	}
	conf := &confidence.Grid{
		Width:  2,
		Height: 2,
		Values: []float64{1, 0, math.NaN(), 0.5},
	}

	path := filepath.Join(t.TempDir(), "mask")
	require.NoError(t, CreateFloodMaskImage(mask, conf, path))

	info, err := os.Stat(path + ".png")
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}
