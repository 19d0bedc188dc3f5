package output

import (
	"fmt"
	"math"
	"strings"

	"github.com/flood-guardian/flood-guardian-engine/internal/change"
	"github.com/flood-guardian/flood-guardian-engine/internal/confidence"
	"github.com/flood-guardian/flood-guardian-engine/internal/properties"
	"github.com/fogleman/gg"
)

// CreateFloodMaskImage renders a change mask to PNG. Newly flooded
// pixels are shaded by confidence, unchanged pixels gray, invalid
// pixels black.
func CreateFloodMaskImage(mask *change.Mask, conf *confidence.Grid, outputPath string) error {
	if !strings.HasSuffix(outputPath, ".png") {
		outputPath += ".png"
	}

	flooded := properties.ColorMap["newly-flooded"]
	unchanged := properties.ColorMap["unchanged"]
	invalid := properties.ColorMap["invalid"]

	dc := gg.NewContext(mask.Width, mask.Height)
	for row := 0; row < mask.Height; row++ {
		for col := 0; col < mask.Width; col++ {
			switch mask.At(row, col) {
			case change.NewlyFlooded:
				score := conf.At(row, col)
				if math.IsNaN(score) {
					score = 0
				}
				// fade towards white for low-confidence detections
				dc.SetRGB(
					mix(float64(flooded.R)/255, score),
					mix(float64(flooded.G)/255, score),
					mix(float64(flooded.B)/255, score),
				)
			case change.Unchanged:
				dc.SetRGB(float64(unchanged.R)/255, float64(unchanged.G)/255, float64(unchanged.B)/255)
			default:
				dc.SetRGB(float64(invalid.R)/255, float64(invalid.G)/255, float64(invalid.B)/255)
			}
			dc.SetPixel(col, row)
		}
	}

	if err := dc.SavePNG(outputPath); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}

func mix(channel, score float64) float64 {
	return 1 - (1-channel)*score
}
