package config

import (
	"flag"
	"fmt"
	"math"
)

// Flags are the command-line overrides shared by every depthtool command.
type Flags struct {
	fs *flag.FlagSet

	config   string
	debug    bool
	quiet    bool
	logFile  string
	faces    string
	stream   bool
	scale    float64
	invalid  uint
	minDepth float64
	maxDepth float64
	workers  int
}

// RegisterFlags defines the shared flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.StringVar(&f.config, "config", "", "Path to config file")
	fs.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&f.quiet, "quiet", false, "Disable console logging")
	fs.StringVar(&f.logFile, "log-file", "", "Also write logs to this file")
	fs.StringVar(&f.faces, "faces", "", "OBJ face style: relative or indexed")
	fs.BoolVar(&f.stream, "stream", false, "Write PLY meshes through a single buffer")
	fs.Float64Var(&f.scale, "scale", 0, "Depth units per raw source value")
	fs.UintVar(&f.invalid, "invalid", 0, "Raw source value marking a masked cell")
	fs.Float64Var(&f.minDepth, "min", 0, "Depth mapped to the darkest gray level")
	fs.Float64Var(&f.maxDepth, "max", 0, "Depth mapped to the brightest gray level")
	fs.IntVar(&f.workers, "workers", 0, "Concurrent batch jobs")
	return f
}

// ConfigPath returns the explicit config path if provided via -config.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return f.config
}

// applyFlags applies CLI flag overrides to the config. Only flags given on
// the command line take effect, so an explicit zero still overrides.
func (f *Flags) applyFlags(cfg *Config) error {
	if f == nil {
		return nil
	}
	set := make(map[string]bool)
	f.fs.Visit(func(fl *flag.Flag) {
		set[fl.Name] = true
	})

	if f.debug {
		cfg.Logging.Level = "debug"
	}
	if set["quiet"] {
		cfg.Logging.Quiet = f.quiet
	}
	if f.logFile != "" {
		cfg.Logging.LogFile = f.logFile
	}
	if f.faces != "" {
		cfg.Export.OBJFaces = f.faces
	}
	if set["stream"] {
		cfg.Export.StreamPLY = f.stream
	}
	if set["scale"] {
		cfg.Export.DepthScale = float32(f.scale)
	}
	if set["invalid"] {
		if f.invalid > math.MaxUint16 {
			return fmt.Errorf("-invalid %d out of range 0..%d", f.invalid, math.MaxUint16)
		}
		cfg.Export.InvalidDepth = uint16(f.invalid)
	}
	if set["min"] {
		cfg.Image.MinDepth = float32(f.minDepth)
		cfg.Image.AutoRange = false
	}
	if set["max"] {
		cfg.Image.MaxDepth = float32(f.maxDepth)
		cfg.Image.AutoRange = false
	}
	if f.workers > 0 {
		cfg.Batch.Workers = f.workers
	}
	return nil
}
