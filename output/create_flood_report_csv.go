package output

import (
	"fmt"
	"os"

	"github.com/flood-guardian/flood-guardian-engine/internal/report"
	"github.com/gocarina/gocsv"
)

type regionRecord struct {
	Rank             int     `csv:"rank"`
	PixelCount       int     `csv:"pixel_count"`
	AreaSquareMeters float64 `csv:"area_square_meters"`
	MeanConfidence   float64 `csv:"mean_confidence"`
	AnchorRow        int     `csv:"anchor_row"`
	AnchorCol        int     `csv:"anchor_col"`
}

// CreateFloodReportCsv writes one row per flooded region, in report
// order.
func CreateFloodReportCsv(rep *report.FloodReport, outputPath string) error {
	records := make([]regionRecord, 0, len(rep.Regions))
	for i, region := range rep.Regions {
		records = append(records, regionRecord{
			Rank:             i + 1,
			PixelCount:       region.PixelCount,
			AreaSquareMeters: region.AreaSquareMeters,
			MeanConfidence:   region.MeanConfidence,
			AnchorRow:        region.AnchorRow,
			AnchorCol:        region.AnchorCol,
		})
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create csv file: %w", err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&records, file); err != nil {
		return fmt.Errorf("failed to write csv file: %w", err)
	}
	return nil
}
