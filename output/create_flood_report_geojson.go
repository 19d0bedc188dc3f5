package output

import (
	"fmt"
	"os"

	"github.com/flood-guardian/flood-guardian-engine/internal/report"
	"github.com/paulmach/orb/geojson"
)

// CreateFloodReportGeoJson writes the report's regions as a GeoJSON
// FeatureCollection, one polygon feature per flooded region plus the
// scene totals on the collection's foreign members.
func CreateFloodReportGeoJson(rep *report.FloodReport, outputPath string) error {
	collection := geojson.NewFeatureCollection()
	for i, region := range rep.Regions {
		feature := geojson.NewFeature(region.Boundary)
		feature.Properties = geojson.Properties{
			"rank":               i + 1,
			"pixel_count":        region.PixelCount,
			"area_square_meters": region.AreaSquareMeters,
			"mean_confidence":    region.MeanConfidence,
		}
		collection.Append(feature)
	}
	collection.ExtraMembers = geojson.Properties{
		"crs":                        rep.CRS,
		"flooded_pixels":             rep.FloodedPixels,
		"flooded_area_square_meters": rep.FloodedAreaSquareMeters,
		"mean_confidence":            rep.MeanConfidence,
	}

	data, err := collection.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal flood report geojson: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write geojson file: %w", err)
	}
	return nil
}
