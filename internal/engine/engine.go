// Package engine runs the flood-detection pipeline end to end: paired
// pre/post rasters in, a flood report out. The engine itself performs no
// logging, persistence or network I/O; callers own all of that.
package engine

import (
	"context"
	"fmt"
	"math"

	"github.com/flood-guardian/flood-guardian-engine/internal/change"
	"github.com/flood-guardian/flood-guardian-engine/internal/confidence"
	"github.com/flood-guardian/flood-guardian-engine/internal/index"
	"github.com/flood-guardian/flood-guardian-engine/internal/raster"
	"github.com/flood-guardian/flood-guardian-engine/internal/report"
	"github.com/flood-guardian/flood-guardian-engine/internal/segment"
	"golang.org/x/sync/errgroup"
)

// InvalidConfigurationError reports an out-of-range analysis option.
type InvalidConfigurationError struct {
	Option string
	Detail string
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Option, e.Detail)
}

// Config holds the options of one analysis run.
type Config struct {
	// GreenBand and NIRBand are the zero-based scene band positions fed
	// to the water index (NDWI = (green - nir) / (green + nir)).
	GreenBand int
	NIRBand   int
	// Threshold is the water cut-off applied to the index grid.
	Threshold float64
	// AutoThreshold derives the cut-off from the index histogram instead.
	AutoThreshold bool
	// MinRegionSize drops 4-connected water regions below this pixel
	// count during segmentation. Zero keeps everything.
	MinRegionSize int
	// SaturationDelta is the index change at which confidence saturates.
	SaturationDelta float64
	// Workers sizes the row-parallel worker pools; <= 0 means one per CPU.
	Workers int
}

// DefaultConfig returns the documented baseline options.
func DefaultConfig() Config {
	return Config{
		GreenBand:       0,
		NIRBand:         1,
		Threshold:       segment.DefaultThreshold,
		SaturationDelta: confidence.DefaultSaturationDelta,
	}
}

// Validate checks every option before any pixel work starts.
func (c Config) Validate() error {
	if c.GreenBand < 0 {
		return &InvalidConfigurationError{Option: "GreenBand", Detail: fmt.Sprintf("negative band position %d", c.GreenBand)}
	}
	if c.NIRBand < 0 {
		return &InvalidConfigurationError{Option: "NIRBand", Detail: fmt.Sprintf("negative band position %d", c.NIRBand)}
	}
	if c.GreenBand == c.NIRBand {
		return &InvalidConfigurationError{Option: "NIRBand", Detail: "green and NIR bands must differ"}
	}
	if math.IsNaN(c.Threshold) || c.Threshold < -1 || c.Threshold > 1 {
		return &InvalidConfigurationError{Option: "Threshold", Detail: fmt.Sprintf("%v outside [-1, 1]", c.Threshold)}
	}
	if c.MinRegionSize < 0 {
		return &InvalidConfigurationError{Option: "MinRegionSize", Detail: fmt.Sprintf("negative region size %d", c.MinRegionSize)}
	}
	if math.IsNaN(c.SaturationDelta) || c.SaturationDelta <= 0 {
		return &InvalidConfigurationError{Option: "SaturationDelta", Detail: fmt.Sprintf("%v is not positive", c.SaturationDelta)}
	}
	return nil
}

// Result bundles the flood report with the grids presentation layers
// may want to render. The report alone is the analysis contract.
type Result struct {
	Report     *report.FloodReport
	ChangeMask *change.Mask
	Confidence *confidence.Grid
}

// Analyze runs the pipeline on a loaded scene pair and returns the
// flood report. Any stage error aborts the run with no partial report.
func Analyze(ctx context.Context, pre, post *raster.Scene, cfg Config) (*report.FloodReport, error) {
	result, err := AnalyzeScenes(ctx, pre, post, cfg)
	if err != nil {
		return nil, err
	}
	return result.Report, nil
}

// AnalyzeScenes runs index computation, segmentation, change detection,
// confidence estimation and report building on a loaded scene pair.
// Pre and post scenes are processed concurrently up to segmentation.
func AnalyzeScenes(ctx context.Context, pre, post *raster.Scene, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if pre == nil || post == nil {
		return nil, fmt.Errorf("nil scene")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := segment.Options{
		Threshold:     cfg.Threshold,
		AutoThreshold: cfg.AutoThreshold,
		MinRegionSize: cfg.MinRegionSize,
	}

	var (
		preIdx, postIdx   *index.Grid
		preMask, postMask *segment.WaterMask
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		preIdx, preMask, err = indexAndSegment(pre, cfg, opts)
		return err
	})
	g.Go(func() error {
		var err error
		postIdx, postMask, err = indexAndSegment(post, cfg, opts)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mask, err := change.Detect(preMask, postMask)
	if err != nil {
		return nil, err
	}
	conf, err := confidence.Estimate(mask, preIdx, postIdx, cfg.SaturationDelta, cfg.Workers)
	if err != nil {
		return nil, err
	}
	rep, err := report.Build(mask, conf, postIdx)
	if err != nil {
		return nil, err
	}
	return &Result{Report: rep, ChangeMask: mask, Confidence: conf}, nil
}

// AnalyzeFiles loads both scene files concurrently, then delegates to
// AnalyzeScenes. The loads are the only blocking I/O of the run and
// honor cancellation.
func AnalyzeFiles(ctx context.Context, prePath, postPath string, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	expectedBands := cfg.GreenBand + 1
	if cfg.NIRBand >= cfg.GreenBand {
		expectedBands = cfg.NIRBand + 1
	}

	var pre, post *raster.Scene
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pre, err = raster.Load(gctx, prePath, expectedBands)
		return err
	})
	g.Go(func() error {
		var err error
		post, err = raster.Load(gctx, postPath, expectedBands)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return AnalyzeScenes(ctx, pre, post, cfg)
}

func indexAndSegment(scene *raster.Scene, cfg Config, opts segment.Options) (*index.Grid, *segment.WaterMask, error) {
	grid, err := index.Compute(scene, cfg.GreenBand, cfg.NIRBand, cfg.Workers)
	if err != nil {
		return nil, nil, err
	}
	mask, err := segment.Segment(grid, opts)
	if err != nil {
		return nil, nil, err
	}
	return grid, mask, nil
}
