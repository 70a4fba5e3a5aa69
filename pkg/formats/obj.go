package formats

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Faultbox/depthmesh/pkg/math"
)

// ErrInvalidOBJ is returned for malformed OBJ records.
var ErrInvalidOBJ = errors.New("invalid OBJ data")

// OBJ represents the geometry subset of a Wavefront OBJ file.
// Face and point indices are resolved to zero-based vertex indices.
type OBJ struct {
	Vertices []math.Vec3
	Faces    [][]int
	Points   []int

	// RelativeFaces counts faces that used negative references.
	RelativeFaces int
	// Skipped counts lines with keywords this reader ignores.
	Skipped int
}

// Bounds returns the bounding box of all vertices.
func (o *OBJ) Bounds() math.Bounds {
	var b math.Bounds
	for _, v := range o.Vertices {
		b.Extend(v)
	}
	return b
}

// ParseOBJ parses "v", "f" and "p" records. Other keywords are counted and
// ignored.
func ParseOBJ(data []byte) (*OBJ, error) {
	obj := &OBJ{}

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "v":
			v, err := parseOBJVertex(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidOBJ, lineNo, err)
			}
			obj.Vertices = append(obj.Vertices, v)
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("%w: line %d: face needs 3 vertices", ErrInvalidOBJ, lineNo)
			}
			face, relative, err := obj.resolveRefs(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidOBJ, lineNo, err)
			}
			if relative {
				obj.RelativeFaces++
			}
			obj.Faces = append(obj.Faces, face)
		case "p":
			points, _, err := obj.resolveRefs(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidOBJ, lineNo, err)
			}
			obj.Points = append(obj.Points, points...)
		default:
			obj.Skipped++
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOBJ, err)
	}

	return obj, nil
}

func parseOBJVertex(fields []string) (math.Vec3, error) {
	if len(fields) < 3 {
		return math.Vec3{}, fmt.Errorf("vertex needs 3 coordinates")
	}
	var c [3]float32
	for i := range c {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return math.Vec3{}, fmt.Errorf("coordinate %d: %w", i, err)
		}
		c[i] = float32(f)
	}
	return math.Vec3{X: c[0], Y: c[1], Z: c[2]}, nil
}

// resolveRefs converts 1-based or negative relative references into
// zero-based indices. Only the vertex part of "v/vt/vn" is used.
func (o *OBJ) resolveRefs(refs []string) ([]int, bool, error) {
	out := make([]int, len(refs))
	relative := false
	for i, ref := range refs {
		if slash := strings.IndexByte(ref, '/'); slash >= 0 {
			ref = ref[:slash]
		}
		n, err := strconv.Atoi(ref)
		if err != nil {
			return nil, false, fmt.Errorf("bad reference %q", ref)
		}
		switch {
		case n > 0:
			n--
		case n < 0:
			n += len(o.Vertices)
			relative = true
		default:
			return nil, false, fmt.Errorf("zero reference")
		}
		if n < 0 || n >= len(o.Vertices) {
			return nil, false, fmt.Errorf("reference %s out of range (%d vertices)", ref, len(o.Vertices))
		}
		out[i] = n
	}
	return out, relative, nil
}

// ParseOBJFile parses an OBJ file from disk.
func ParseOBJFile(path string) (*OBJ, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading OBJ file: %w", err)
	}
	return ParseOBJ(data)
}
