package segment

import (
	"math"

	"github.com/flood-guardian/flood-guardian-engine/internal/index"
)

const otsuBins = 256

// OtsuThreshold selects the index threshold that maximizes between-class
// variance over a 256-bin histogram of the grid's valid values. Returns
// false when the grid has no split to find (all invalid, or every value
// in one bin).
func OtsuThreshold(grid *index.Grid) (float64, bool) {
	var histogram [otsuBins]int
	total := 0
	for _, v := range grid.Values {
		if math.IsNaN(v) {
			continue
		}
		bin := int((v + 1) / 2 * otsuBins)
		if bin < 0 {
			bin = 0
		}
		if bin >= otsuBins {
			bin = otsuBins - 1
		}
		histogram[bin]++
		total++
	}
	if total == 0 {
		return 0, false
	}

	var weightedSum float64
	for bin, count := range histogram {
		weightedSum += float64(bin) * float64(count)
	}

	var backgroundWeight, backgroundSum float64
	bestVariance := -1.0
	bestBin := -1
	for bin := 0; bin < otsuBins-1; bin++ {
		backgroundWeight += float64(histogram[bin])
		if backgroundWeight == 0 {
			continue
		}
		foregroundWeight := float64(total) - backgroundWeight
		if foregroundWeight == 0 {
			break
		}
		backgroundSum += float64(bin) * float64(histogram[bin])

		backgroundMean := backgroundSum / backgroundWeight
		foregroundMean := (weightedSum - backgroundSum) / foregroundWeight
		diff := backgroundMean - foregroundMean
		variance := backgroundWeight * foregroundWeight * diff * diff
		if variance > bestVariance {
			bestVariance = variance
			bestBin = bin
		}
	}
	if bestBin < 0 {
		return 0, false
	}

	// Threshold at the upper edge of the background bin, mapped back to
	// index space [-1, 1].
	return float64(bestBin+1)/otsuBins*2 - 1, true
}
