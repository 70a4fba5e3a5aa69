// Package exporter runs depth conversions described by configuration jobs.
package exporter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/Faultbox/depthmesh/internal/config"
	"github.com/Faultbox/depthmesh/internal/source"
	"github.com/Faultbox/depthmesh/pkg/depth"
	"github.com/Faultbox/depthmesh/pkg/math"
)

// Result describes one finished job.
type Result struct {
	Job      config.JobConfig
	Vertices int // valid cells written (pixels for depth images)
	Faces    int
	Bounds   math.Bounds // empty for depth images
	Duration time.Duration
}

// Exporter turns jobs into files using one configuration.
type Exporter struct {
	cfg *config.Config
	log *zap.Logger

	// Progress receives the batch progress bar. Nil means the terminal
	// default (stderr).
	Progress io.Writer
}

// New creates an exporter. A nil logger discards all entries.
func New(cfg *config.Config, log *zap.Logger) *Exporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Exporter{cfg: cfg, log: log}
}

// Run loads the job input and writes its output.
func (e *Exporter) Run(job config.JobConfig) (Result, error) {
	if err := job.Validate(); err != nil {
		return Result{Job: job}, err
	}

	start := time.Now()
	e.log.Debug("loading source",
		zap.String("input", job.Input),
		zap.String("color", job.Color),
	)
	g, err := source.Load(job.Input, job.Color, source.Options{
		Scale:   e.cfg.Export.DepthScale,
		Invalid: e.cfg.Export.InvalidDepth,
	})
	if err != nil {
		return Result{Job: job}, err
	}

	res, err := e.Export(job, g)
	res.Duration = time.Since(start)
	if err != nil {
		return res, err
	}

	e.log.Info("export finished",
		zap.String("kind", job.Kind),
		zap.String("path", job.Output),
		zap.String("format", depth.Extension(job.Output)),
		zap.Int("vertices", res.Vertices),
		zap.Int("faces", res.Faces),
		zap.Stringer("bounds", res.Bounds),
		zap.Duration("duration", res.Duration),
	)
	return res, nil
}

// Export writes an already loaded grid for job. job.Input and job.Color are
// not read.
func (e *Exporter) Export(job config.JobConfig, g *depth.Grid) (Result, error) {
	res := Result{Job: job}
	if err := g.Validate(); err != nil {
		return res, err
	}

	switch job.Kind {
	case config.KindCloud:
		if err := depth.ExportCloud(job.Output, g); err != nil {
			return res, err
		}
		res.Vertices = g.ValidCount()
		res.Bounds = g.Bounds()

	case config.KindMesh:
		style, err := e.cfg.Export.FaceStyle()
		if err != nil {
			return res, err
		}
		err = depth.ExportMesh(job.Output, g,
			depth.WithFaceStyle(style),
			depth.WithStreamPLY(e.cfg.Export.StreamPLY),
		)
		if err != nil {
			return res, err
		}
		res.Vertices = g.ValidCount()
		res.Faces = g.TriangleCount()
		res.Bounds = g.Bounds()

	case config.KindDepth:
		min, max := e.depthRange(g)
		if err := depth.ExportDepth(job.Output, g, min, max); err != nil {
			return res, err
		}
		res.Vertices = g.ValidCount()

	default:
		return res, fmt.Errorf("unknown job kind %q", job.Kind)
	}
	return res, nil
}

// depthRange picks the gray mapping range for a depth image.
func (e *Exporter) depthRange(g *depth.Grid) (float32, float32) {
	img := e.cfg.Image
	if !img.AutoRange {
		return img.MinDepth, img.MaxDepth
	}
	min, max, ok := depth.DepthRange(g)
	if !ok {
		e.log.Warn("no valid depth samples, using configured range",
			zap.Float32("min", img.MinDepth),
			zap.Float32("max", img.MaxDepth),
		)
		return img.MinDepth, img.MaxDepth
	}
	e.log.Debug("auto depth range", zap.Float32("min", min), zap.Float32("max", max))
	return min, max
}

// RunBatch runs jobs on cfg.Batch.Workers goroutines. A failing job does not
// stop the others; the returned error joins every failure. Jobs not yet
// started when ctx is cancelled are skipped with ctx.Err().
func (e *Exporter) RunBatch(ctx context.Context, jobs []config.JobConfig) ([]Result, error) {
	results := make([]Result, len(jobs))
	errs := make([]error, len(jobs))

	bar := e.progressBar(len(jobs))
	if bar != nil {
		defer bar.Close()
	}

	workers := e.cfg.Batch.Workers
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	start := time.Now()
	for i := range jobs {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := ctx.Err(); err != nil {
				results[idx] = Result{Job: jobs[idx]}
				errs[idx] = err
				return
			}
			results[idx], errs[idx] = e.Run(jobs[idx])
			if errs[idx] != nil {
				e.log.Error("export failed",
					zap.Int("job", idx),
					zap.String("path", jobs[idx].Output),
					zap.Error(errs[idx]),
				)
			}
			if bar != nil {
				bar.Add(1)
			}
		}(i)
	}
	wg.Wait()

	var failed []error
	for i, err := range errs {
		if err != nil {
			failed = append(failed, fmt.Errorf("job %d (%s): %w", i, jobs[i].Output, err))
		}
	}

	e.log.Info("batch finished",
		zap.Int("jobs", len(jobs)),
		zap.Int("failed", len(failed)),
		zap.Duration("duration", time.Since(start)),
	)
	return results, errors.Join(failed...)
}

func (e *Exporter) progressBar(n int) *progressbar.ProgressBar {
	if !e.cfg.Batch.Progress || n == 0 {
		return nil
	}
	if e.Progress == nil {
		return progressbar.Default(int64(n), "exporting")
	}
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(e.Progress),
		progressbar.OptionSetDescription("exporting"),
		progressbar.OptionShowCount(),
	)
}
