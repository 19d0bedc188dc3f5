// Package report aggregates pixel-level flood detections into a
// serializable flood-extent report.
package report

import (
	"fmt"
	"sort"

	"github.com/flood-guardian/flood-guardian-engine/internal/change"
	"github.com/flood-guardian/flood-guardian-engine/internal/confidence"
	"github.com/flood-guardian/flood-guardian-engine/internal/index"
	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/stat"
)

// Region is one contiguous (4-connected) patch of newly flooded pixels.
type Region struct {
	PixelCount       int     `json:"pixel_count"`
	AreaSquareMeters float64 `json:"area_square_meters"`
	MeanConfidence   float64 `json:"mean_confidence"`
	// AnchorRow/AnchorCol locate the region's top-left-most pixel; with
	// the area ordering they make region order reproducible run to run.
	AnchorRow int `json:"anchor_row"`
	AnchorCol int `json:"anchor_col"`
	// Boundary is the region's bounding box in geographic coordinates.
	Boundary orb.Polygon `json:"boundary"`
}

// FloodReport is the immutable result of one analysis run. It carries no
// timestamps or run identifiers so identical inputs serialize to
// identical bytes.
type FloodReport struct {
	Width                   int              `json:"width"`
	Height                  int              `json:"height"`
	CRS                     string           `json:"crs"`
	FloodedPixels           int              `json:"flooded_pixels"`
	FloodedAreaSquareMeters float64          `json:"flooded_area_square_meters"`
	MeanConfidence          float64          `json:"mean_confidence"`
	PostIndexStats          index.Statistics `json:"post_index_stats"`
	Regions                 []Region         `json:"regions"`
}

// Build labels the newly flooded pixels of a change mask into regions
// and aggregates totals. Regions are ordered by descending area, ties
// broken by ascending row-major index of the anchor pixel.
func Build(mask *change.Mask, conf *confidence.Grid, postIdx *index.Grid) (*FloodReport, error) {
	if mask == nil || conf == nil || postIdx == nil {
		return nil, fmt.Errorf("nil input grid")
	}
	if conf.Width != mask.Width || conf.Height != mask.Height {
		return nil, fmt.Errorf("confidence grid %dx%d does not match change mask %dx%d",
			conf.Width, conf.Height, mask.Width, mask.Height)
	}

	labels := labelRegions(mask)
	pixelArea := mask.Transform.PixelArea()

	regions := make([]Region, 0, len(labels))
	totalPixels := 0
	allConfidences := make([]float64, 0)
	for _, pixels := range labels {
		region := buildRegion(mask, conf, pixels, pixelArea)
		totalPixels += region.PixelCount
		for _, idx := range pixels {
			allConfidences = append(allConfidences, conf.Values[idx])
		}
		regions = append(regions, region)
	}

	sort.Slice(regions, func(i, j int) bool {
		if regions[i].AreaSquareMeters != regions[j].AreaSquareMeters {
			return regions[i].AreaSquareMeters > regions[j].AreaSquareMeters
		}
		return regions[i].AnchorRow*mask.Width+regions[i].AnchorCol <
			regions[j].AnchorRow*mask.Width+regions[j].AnchorCol
	})

	meanConfidence := 0.0
	if len(allConfidences) > 0 {
		meanConfidence = stat.Mean(allConfidences, nil)
	}

	return &FloodReport{
		Width:                   mask.Width,
		Height:                  mask.Height,
		CRS:                     mask.CRS,
		FloodedPixels:           totalPixels,
		FloodedAreaSquareMeters: float64(totalPixels) * pixelArea,
		MeanConfidence:          meanConfidence,
		PostIndexStats:          postIdx.Stats(),
		Regions:                 regions,
	}, nil
}

func buildRegion(mask *change.Mask, conf *confidence.Grid, pixels []int, pixelArea float64) Region {
	width := mask.Width
	minRow, minCol := mask.Height, width
	maxRow, maxCol := 0, 0
	confidences := make([]float64, 0, len(pixels))
	for _, idx := range pixels {
		row, col := idx/width, idx%width
		if row < minRow {
			minRow = row
		}
		if row > maxRow {
			maxRow = row
		}
		if col < minCol {
			minCol = col
		}
		if col > maxCol {
			maxCol = col
		}
		confidences = append(confidences, conf.Values[idx])
	}

	// pixels come out of labeling in ascending row-major order, so the
	// first entry is the top-left-most pixel.
	anchor := pixels[0]

	t := mask.Transform
	x0, y0 := t.PixelToGeo(float64(minRow), float64(minCol))
	x1, y1 := t.PixelToGeo(float64(minRow), float64(maxCol+1))
	x2, y2 := t.PixelToGeo(float64(maxRow+1), float64(maxCol+1))
	x3, y3 := t.PixelToGeo(float64(maxRow+1), float64(minCol))
	boundary := orb.Polygon{orb.Ring{
		{x0, y0}, {x1, y1}, {x2, y2}, {x3, y3}, {x0, y0},
	}}

	return Region{
		PixelCount:       len(pixels),
		AreaSquareMeters: float64(len(pixels)) * pixelArea,
		MeanConfidence:   stat.Mean(confidences, nil),
		AnchorRow:        anchor / width,
		AnchorCol:        anchor % width,
		Boundary:         boundary,
	}
}

// labelRegions groups newly flooded pixels into 4-connected components
// with a union-find over pixel indices. Iterative throughout: flooded
// regions can span millions of pixels.
func labelRegions(mask *change.Mask) [][]int {
	width := mask.Width
	parent := make(map[int]int)

	var find func(int) int
	find = func(i int) int {
		root := i
		for parent[root] != root {
			root = parent[root]
		}
		for parent[i] != root {
			parent[i], i = root, parent[i]
		}
		return root
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			if ra > rb {
				ra, rb = rb, ra
			}
			parent[rb] = ra
		}
	}

	for i, class := range mask.Classes {
		if class != change.NewlyFlooded {
			continue
		}
		parent[i] = i
		// link to already-visited neighbors (up and left)
		if row := i / width; row > 0 && mask.Classes[i-width] == change.NewlyFlooded {
			union(i, i-width)
		}
		if col := i % width; col > 0 && mask.Classes[i-1] == change.NewlyFlooded {
			union(i, i-1)
		}
	}

	components := make(map[int][]int)
	roots := make([]int, 0)
	for i, class := range mask.Classes {
		if class != change.NewlyFlooded {
			continue
		}
		root := find(i)
		if _, seen := components[root]; !seen {
			roots = append(roots, root)
		}
		components[root] = append(components[root], i)
	}

	// roots were collected in ascending row-major order already
	result := make([][]int, 0, len(roots))
	for _, root := range roots {
		result = append(result, components[root])
	}
	return result
}
