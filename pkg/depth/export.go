package depth

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned when the destination extension does not
// name a known encoding. No file is created in that case.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// Format is a geometry file encoding.
type Format int

// Supported encodings.
const (
	FormatOBJ Format = iota + 1 // Wavefront OBJ, ASCII
	FormatPLY                   // PLY, binary little endian
)

// String returns the file extension of the format.
func (f Format) String() string {
	switch f {
	case FormatOBJ:
		return "obj"
	case FormatPLY:
		return "ply"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Extension returns the lower-cased extension of path without the dot.
func Extension(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// FormatFromPath picks the encoding from the destination file name.
func FormatFromPath(path string) (Format, error) {
	switch ext := Extension(path); ext {
	case "obj":
		return FormatOBJ, nil
	case "ply":
		return FormatPLY, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// WriteCloud writes a point cloud of g to w in format f.
func WriteCloud(w io.Writer, f Format, g *Grid) error {
	switch f {
	case FormatOBJ:
		return WriteOBJCloud(w, g)
	case FormatPLY:
		return WritePLYCloud(w, g)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
}

// WriteMesh writes the triangulation of g to w in format f.
func WriteMesh(w io.Writer, f Format, g *Grid, opts ...MeshOption) error {
	switch f {
	case FormatOBJ:
		return WriteOBJMesh(w, g, opts...)
	case FormatPLY:
		if newMeshOptions(opts).stream {
			return StreamPLYMesh(w, g)
		}
		return WritePLYMesh(w, g)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
}

// ExportCloud writes every valid cell of g to path. The encoding follows the
// file extension: "obj" or "ply".
func ExportCloud(path string, g *Grid) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	return writeFile(path, func(w io.Writer) error {
		return WriteCloud(w, f, g)
	})
}

// ExportMesh writes the triangulated grid to path. The encoding follows the
// file extension: "obj" or "ply".
func ExportMesh(path string, g *Grid, opts ...MeshOption) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	return writeFile(path, func(w io.Writer) error {
		return WriteMesh(w, f, g, opts...)
	})
}

// ExportDepth writes a grayscale visualization of the depth samples to path.
// The image encoder follows the extension: png, jpg, jpeg, bmp, tif, tiff.
func ExportDepth(path string, g *Grid, min, max float32) error {
	ext := Extension(path)
	encode, ok := imageEncoder(ext)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	img := DepthImage(g, min, max)
	return writeFile(path, func(w io.Writer) error {
		return encode(w, img)
	})
}

// writeFile creates path, runs write through a buffered writer and closes
// the file. A partially written file is removed on failure.
func writeFile(path string, write func(w io.Writer) error) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	bw := bufio.NewWriterSize(file, 1<<16)
	if err := write(bw); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
