package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	bannercolor "github.com/fatih/color"
	"github.com/flood-guardian/flood-guardian-engine/internal/engine"
	"github.com/flood-guardian/flood-guardian-engine/internal/stac"
	"github.com/flood-guardian/flood-guardian-engine/output"
	"github.com/joho/godotenv"
)

func printBanner() {
	figure1 := figure.NewFigure("Flood", "isometric1", true)
	figure2 := figure.NewFigure("Guardian", "isometric1", true)
	bannercolor.Cyan(figure1.String())
	bannercolor.Cyan(figure2.String())
	fmt.Println()
}

func main() {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	prePath := flag.String("pre", "", "pre-event raster file")
	postPath := flag.String("post", "", "post-event raster file")
	bboxFlag := flag.String("bbox", "", "west,south,east,north to fetch a scene pair from the STAC catalog instead of local files")
	daysBack := flag.Int("days", 30, "search window in days for -bbox mode")
	assetKey := flag.String("asset", "visual", "asset key to download in -bbox mode")
	outDir := flag.String("out", ".", "output directory")
	greenBand := flag.Int("green-band", 0, "zero-based green band position")
	nirBand := flag.Int("nir-band", 1, "zero-based near-infrared band position")
	threshold := flag.Float64("threshold", 0.0, "water index threshold")
	autoThreshold := flag.Bool("auto-threshold", false, "derive the threshold from the index histogram")
	minRegionSize := flag.Int("min-region-size", 0, "drop water regions below this pixel count")
	saturationDelta := flag.Float64("saturation-delta", 0.5, "index change at which confidence saturates")
	workers := flag.Int("workers", 0, "worker pool size, 0 = one per CPU")
	flag.Parse()

	printBanner()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *bboxFlag != "" {
		*prePath, *postPath, err = fetchScenePair(ctx, *bboxFlag, *daysBack, *assetKey, *outDir)
		if err != nil {
			bannercolor.Red("Scene fetch failed: %v", err)
			os.Exit(1)
		}
	}
	if *prePath == "" || *postPath == "" {
		bannercolor.Red("Both -pre and -post rasters are required (or use -bbox)")
		flag.Usage()
		os.Exit(1)
	}

	cfg := engine.Config{
		GreenBand:       *greenBand,
		NIRBand:         *nirBand,
		Threshold:       *threshold,
		AutoThreshold:   *autoThreshold,
		MinRegionSize:   *minRegionSize,
		SaturationDelta: *saturationDelta,
		Workers:         *workers,
	}

	fmt.Printf("Analyzing %s -> %s\n", *prePath, *postPath)
	start := time.Now()
	result, err := engine.AnalyzeFiles(ctx, *prePath, *postPath, cfg)
	if err != nil {
		bannercolor.Red("Analysis failed: %v", err)
		os.Exit(1)
	}
	rep := result.Report
	fmt.Printf("Analysis finished in %v\n\n", time.Since(start))

	bannercolor.Green("Flooded pixels:  %d", rep.FloodedPixels)
	bannercolor.Green("Flooded area:    %.1f m²", rep.FloodedAreaSquareMeters)
	bannercolor.Green("Mean confidence: %.3f", rep.MeanConfidence)
	bannercolor.Green("Regions:         %d", len(rep.Regions))
	fmt.Println()

	geojsonPath := filepath.Join(*outDir, "flood_report.geojson")
	if err := output.CreateFloodReportGeoJson(rep, geojsonPath); err != nil {
		bannercolor.Red("GeoJSON export failed: %v", err)
		os.Exit(1)
	}
	fmt.Println("Wrote", geojsonPath)

	csvPath := filepath.Join(*outDir, "flood_regions.csv")
	if err := output.CreateFloodReportCsv(rep, csvPath); err != nil {
		bannercolor.Red("CSV export failed: %v", err)
		os.Exit(1)
	}
	fmt.Println("Wrote", csvPath)

	imagePath := filepath.Join(*outDir, "flood_mask.png")
	if err := output.CreateFloodMaskImage(result.ChangeMask, result.Confidence, imagePath); err != nil {
		bannercolor.Red("Image export failed: %v", err)
		os.Exit(1)
	}
	fmt.Println("Wrote", imagePath)
}

func fetchScenePair(ctx context.Context, bboxFlag string, daysBack int, assetKey, destDir string) (string, string, error) {
	parts := strings.Split(bboxFlag, ",")
	if len(parts) != 4 {
		return "", "", fmt.Errorf("bbox must be west,south,east,north, got %q", bboxFlag)
	}
	var bbox [4]float64
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return "", "", fmt.Errorf("bbox coordinate %q: %w", part, err)
		}
		bbox[i] = v
	}

	client := stac.NewClient(ctx)
	to := time.Now()
	from := to.AddDate(0, 0, -daysBack)
	items, err := client.Search(ctx, bbox, from, to)
	if err != nil {
		return "", "", err
	}
	pre, post, err := stac.ScenePair(items)
	if err != nil {
		return "", "", err
	}

	prePath, err := client.DownloadAsset(ctx, pre, assetKey, destDir)
	if err != nil {
		return "", "", err
	}
	postPath, err := client.DownloadAsset(ctx, post, assetKey, destDir)
	if err != nil {
		return "", "", err
	}
	return prePath, postPath, nil
}
