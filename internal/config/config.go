// Package config handles depthtool configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"math"

	"github.com/Faultbox/depthmesh/internal/logger"
	"github.com/Faultbox/depthmesh/pkg/depth"
)

// Job kinds.
const (
	KindCloud = "cloud"
	KindMesh  = "mesh"
	KindDepth = "depth"
)

// Config holds all depthtool settings.
type Config struct {
	Export  ExportConfig  `yaml:"export"`
	Image   ImageConfig   `yaml:"image"`
	Logging LoggingConfig `yaml:"logging"`
	Batch   BatchConfig   `yaml:"batch"`
}

// ExportConfig holds geometry output and source decoding settings.
type ExportConfig struct {
	OBJFaces     string  `yaml:"obj_faces"`     // relative or indexed
	StreamPLY    bool    `yaml:"stream_ply"`    // single buffer, counting pre-pass
	DepthScale   float32 `yaml:"depth_scale"`   // source units per depth unit
	InvalidDepth uint16  `yaml:"invalid_depth"` // raw source value marking a masked cell
}

// ImageConfig holds depth visualization settings.
type ImageConfig struct {
	MinDepth  float32 `yaml:"min_depth"`
	MaxDepth  float32 `yaml:"max_depth"`
	AutoRange bool    `yaml:"auto_range"` // ignore min/max, use the grid's own range
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
	Quiet   bool   `yaml:"quiet"` // no console output; log_file still applies
}

// BatchConfig lists conversions run by "depthtool batch".
type BatchConfig struct {
	Jobs     []JobConfig `yaml:"jobs"`
	Progress bool        `yaml:"progress"`
	Workers  int         `yaml:"workers"`
}

// JobConfig is one batch conversion.
type JobConfig struct {
	Kind   string `yaml:"kind"`            // cloud, mesh or depth
	Input  string `yaml:"input"`           // 16-bit depth image
	Color  string `yaml:"color,omitempty"` // optional RGB image
	Output string `yaml:"output"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Export: ExportConfig{
			OBJFaces:     depth.FacesRelative.String(),
			StreamPLY:    false,
			DepthScale:   0.001, // millimeters to meters
			InvalidDepth: 0,
		},
		Image: ImageConfig{
			MinDepth:  0,
			MaxDepth:  10,
			AutoRange: true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		Batch: BatchConfig{
			Progress: true,
			Workers:  1,
		},
	}
}

// FaceStyle returns the configured OBJ face style.
func (e ExportConfig) FaceStyle() (depth.FaceStyle, error) {
	return depth.ParseFaceStyle(e.OBJFaces)
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.Export.FaceStyle(); err != nil {
		errs = append(errs, fmt.Errorf("export.obj_faces: %w", err))
	}
	scale := float64(c.Export.DepthScale)
	if scale <= 0 || math.IsInf(scale, 0) || math.IsNaN(scale) {
		errs = append(errs, fmt.Errorf("export.depth_scale: must be positive, got %v", c.Export.DepthScale))
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	if c.Batch.Workers < 1 {
		errs = append(errs, fmt.Errorf("batch.workers: must be at least 1, got %d", c.Batch.Workers))
	}
	for i, job := range c.Batch.Jobs {
		if err := job.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("batch.jobs[%d]: %w", i, err))
		}
	}

	return errors.Join(errs...)
}

// Validate checks a single job.
func (j JobConfig) Validate() error {
	switch j.Kind {
	case KindCloud, KindMesh, KindDepth:
	default:
		return fmt.Errorf("unknown kind %q", j.Kind)
	}
	if j.Input == "" {
		return errors.New("missing input")
	}
	if j.Output == "" {
		return errors.New("missing output")
	}
	return nil
}
