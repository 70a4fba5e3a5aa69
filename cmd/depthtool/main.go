// depthtool converts depth camera images into point clouds, meshes and
// grayscale depth previews.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/depthmesh/internal/config"
	"github.com/Faultbox/depthmesh/internal/exporter"
	"github.com/Faultbox/depthmesh/internal/logger"
	"github.com/Faultbox/depthmesh/pkg/depth"
	"github.com/Faultbox/depthmesh/pkg/formats"
	"github.com/Faultbox/depthmesh/pkg/math"
)

// errUsage means the arguments were wrong; usage has already been printed.
var errUsage = errors.New("invalid arguments")

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) < 1 {
		printUsage(stderr)
		return errUsage
	}

	command := args[0]
	args = args[1:]

	switch command {
	case "cloud":
		return cmdExport(config.KindCloud, args, stderr)
	case "mesh":
		return cmdExport(config.KindMesh, args, stderr)
	case "depth":
		return cmdExport(config.KindDepth, args, stderr)
	case "info":
		return cmdInfo(args, stdout, stderr)
	case "batch":
		return cmdBatch(args, stderr)
	case "config":
		return cmdConfig(args, stdout, stderr)
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", command)
		printUsage(stderr)
		return errUsage
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `depthtool - depth image to point cloud / mesh converter

Usage:
  depthtool <command> [options]

Commands:
  cloud [-color rgb.png] <depth.png> <out.obj|out.ply>   Export valid cells as points
  mesh  [-color rgb.png] <depth.png> <out.obj|out.ply>   Export a triangle mesh
  depth <depth.png> <out.png|jpg|bmp|tif>                Export a grayscale preview
  info  <file.ply|file.obj>                              Show geometry statistics
  batch                                                  Run the jobs in the config file
  config init [path]                                     Write a default config file
  config show                                            Print the effective config

Common options:
  -config path   -debug   -quiet   -log-file path
  -faces relative|indexed   -stream   -scale f   -invalid n
  -min f   -max f   -workers n

Examples:
  depthtool mesh -scale 0.001 scan.png scan.ply
  depthtool cloud -color scan_rgb.png scan.png scan.obj
  depthtool depth -min 0.5 -max 4 scan.png preview.png
  depthtool info scan.ply`)
}

// setup parses the common flags, loads the config and starts logging.
// Console log output goes to stderr.
func setup(fs *flag.FlagSet, args []string, stderr io.Writer) (*config.Config, error) {
	flags := config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, errUsage
	}

	cfg, err := config.Load(flags)
	if err != nil {
		return nil, err
	}
	if err := logger.InitWithOptions(logger.Options{
		Level:   cfg.Logging.Level,
		File:    logFileConfig(cfg.Logging.LogFile),
		Console: stderr,
		Quiet:   cfg.Logging.Quiet,
	}); err != nil {
		return nil, err
	}
	logger.Debug("config loaded",
		zap.String("path", flags.ConfigPath()),
		zap.String("obj_faces", cfg.Export.OBJFaces),
		zap.Float32("depth_scale", cfg.Export.DepthScale),
		zap.Uint16("invalid_depth", cfg.Export.InvalidDepth),
	)
	return cfg, nil
}

func logFileConfig(path string) logger.FileConfig {
	if path == "" {
		return logger.FileConfig{}
	}
	return logger.DefaultFileConfig(path)
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func cmdExport(kind string, args []string, stderr io.Writer) error {
	fs := newFlagSet(kind, stderr)
	var colorPath string
	if kind != config.KindDepth {
		fs.StringVar(&colorPath, "color", "", "RGB image with the same size as the depth image")
	}

	cfg, err := setup(fs, args, stderr)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if fs.NArg() != 2 {
		fmt.Fprintf(stderr, "Usage: depthtool %s [options] <depth image> <output>\n", kind)
		return errUsage
	}

	job := config.JobConfig{
		Kind:   kind,
		Input:  fs.Arg(0),
		Color:  colorPath,
		Output: fs.Arg(1),
	}
	if _, err := exporter.New(cfg, logger.Named("exporter")).Run(job); err != nil {
		logger.Error("export failed", zap.String("path", job.Output), zap.Error(err))
		return err
	}
	return nil
}

func cmdBatch(args []string, stderr io.Writer) error {
	fs := newFlagSet("batch", stderr)
	cfg, err := setup(fs, args, stderr)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if len(cfg.Batch.Jobs) == 0 {
		return errors.New("no batch jobs configured (batch.jobs)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("batch starting",
		zap.Int("jobs", len(cfg.Batch.Jobs)),
		zap.Int("workers", cfg.Batch.Workers),
	)
	_, err = exporter.New(cfg, logger.Named("exporter")).RunBatch(ctx, cfg.Batch.Jobs)
	if ctx.Err() != nil {
		logger.Warn("batch interrupted, remaining jobs skipped")
	}
	return err
}

func cmdInfo(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("info", stderr)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "Usage: depthtool info <file.ply|file.obj>")
		return errUsage
	}
	path := fs.Arg(0)

	f, err := depth.FormatFromPath(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "File:      %s\n", path)
	switch f {
	case depth.FormatPLY:
		ply, err := formats.ParsePLYFile(path)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Format:    ply %s %s\n", ply.Format, ply.Version)
		fmt.Fprintf(stdout, "Vertices:  %d\n", len(ply.Vertices))
		if ply.Element("face") == nil {
			fmt.Fprintln(stdout, "Faces:     none (point cloud)")
		} else {
			fmt.Fprintf(stdout, "Faces:     %d\n", len(ply.Faces))
		}
		fmt.Fprintf(stdout, "Color:     %s\n", yesNo(ply.HasColor))
		for _, c := range ply.Comments {
			fmt.Fprintf(stdout, "Comment:   %s\n", c)
		}
		printBounds(stdout, ply.Bounds())

	case depth.FormatOBJ:
		obj, err := formats.ParseOBJFile(path)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, "Format:    obj")
		fmt.Fprintf(stdout, "Vertices:  %d\n", len(obj.Vertices))
		fmt.Fprintf(stdout, "Faces:     %d (%d relative)\n", len(obj.Faces), obj.RelativeFaces)
		fmt.Fprintf(stdout, "Points:    %d\n", len(obj.Points))
		if obj.Skipped > 0 {
			fmt.Fprintf(stdout, "Skipped:   %d lines\n", obj.Skipped)
		}
		printBounds(stdout, obj.Bounds())
	}
	return nil
}

func printBounds(w io.Writer, b math.Bounds) {
	if b.Empty() {
		fmt.Fprintln(w, "Bounds:    (empty)")
		return
	}
	size := b.Size()
	fmt.Fprintf(w, "Bounds:    %s\n", b)
	fmt.Fprintf(w, "Size:      %g x %g x %g\n", size.X, size.Y, size.Z)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func cmdConfig(args []string, stdout, stderr io.Writer) error {
	if len(args) < 1 {
		fmt.Fprintln(stderr, "Usage: depthtool config <init|show> [options]")
		return errUsage
	}

	switch args[0] {
	case "init":
		fs := newFlagSet("config init", stderr)
		force := fs.Bool("force", false, "Overwrite an existing file")
		if err := fs.Parse(args[1:]); err != nil {
			return errUsage
		}

		cfg := config.Default()
		cfg.Batch.Jobs = []config.JobConfig{
			{Kind: config.KindMesh, Input: "scan.png", Color: "scan_rgb.png", Output: "scan.ply"},
		}

		path := fs.Arg(0)
		if path == "" {
			path = config.DefaultPath()
		}
		if _, err := os.Stat(path); err == nil && !*force {
			return fmt.Errorf("%s already exists (use -force to overwrite)", path)
		}
		var err error
		if fs.Arg(0) == "" {
			path, err = cfg.Save()
		} else {
			err = cfg.SaveTo(path)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Wrote %s\n", path)
		return nil

	case "show":
		cfg, err := setup(newFlagSet("config show", stderr), args[1:], stderr)
		if err != nil {
			return err
		}
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = stdout.Write(data)
		return err

	default:
		fmt.Fprintf(stderr, "Unknown config command: %s\n", args[0])
		return errUsage
	}
}
