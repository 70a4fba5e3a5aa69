package depth

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// FaceStyle selects how OBJ face records reference vertices.
type FaceStyle int

const (
	// FacesRelative re-emits the three vertices of every triangle and
	// references them as "f -3 -2 -1". Shared cells are written once per
	// triangle that uses them. This is the legacy byte layout.
	FacesRelative FaceStyle = iota
	// FacesIndexed writes each valid cell once and references vertices by
	// absolute 1-based index.
	FacesIndexed
)

// String returns the config name of the style.
func (s FaceStyle) String() string {
	switch s {
	case FacesRelative:
		return "relative"
	case FacesIndexed:
		return "indexed"
	default:
		return fmt.Sprintf("FaceStyle(%d)", int(s))
	}
}

// ParseFaceStyle converts a config name into a FaceStyle.
func ParseFaceStyle(name string) (FaceStyle, error) {
	switch name {
	case "", "relative":
		return FacesRelative, nil
	case "indexed":
		return FacesIndexed, nil
	default:
		return FacesRelative, fmt.Errorf("unknown OBJ face style %q", name)
	}
}

type meshOptions struct {
	faces  FaceStyle
	stream bool
}

func newMeshOptions(opts []MeshOption) meshOptions {
	var o meshOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// MeshOption configures the mesh writers. Options that do not apply to the
// chosen format are ignored.
type MeshOption func(*meshOptions)

// WithFaceStyle selects the OBJ face referencing scheme.
func WithFaceStyle(s FaceStyle) MeshOption {
	return func(o *meshOptions) {
		o.faces = s
	}
}

// WithStreamPLY makes PLY meshes go through StreamPLYMesh instead of the
// staged writer. The output bytes are the same.
func WithStreamPLY(stream bool) MeshOption {
	return func(o *meshOptions) {
		o.stream = stream
	}
}

// WriteOBJCloud writes every valid cell as a "v" line followed by a single
// "p" record listing all of them. Color is not written.
func WriteOBJCloud(w io.Writer, g *Grid) error {
	// bufio keeps the first write error; it surfaces from Flush.
	bw := bufio.NewWriter(w)
	var buf []byte

	total := 0
	g.EachVertex(func(i int, _ Vertex) {
		buf = g.appendOBJCell(buf[:0], i)
		bw.Write(buf)
		total++
	})

	bw.WriteByte('p')
	for i := 1; i <= total; i++ {
		buf = append(buf[:0], ' ')
		buf = strconv.AppendInt(buf, int64(i), 10)
		bw.Write(buf)
	}
	bw.WriteByte('\n')

	return bw.Flush()
}

// WriteOBJMesh writes the grid triangulation as OBJ.
func WriteOBJMesh(w io.Writer, g *Grid, opts ...MeshOption) error {
	o := newMeshOptions(opts)
	bw := bufio.NewWriter(w)
	switch o.faces {
	case FacesIndexed:
		writeOBJIndexed(bw, g)
	default:
		writeOBJRelative(bw, g)
	}
	return bw.Flush()
}

func writeOBJRelative(bw *bufio.Writer, g *Grid) {
	var buf []byte
	g.Triangulate(func(t Triangle) {
		buf = buf[:0]
		for _, i := range t {
			buf = g.appendOBJCell(buf, i)
		}
		buf = append(buf, "f -3 -2 -1\n"...)
		bw.Write(buf)
	})
}

func writeOBJIndexed(bw *bufio.Writer, g *Grid) {
	names, _ := BuildNameTable(g)

	var buf []byte
	g.EachVertex(func(i int, _ Vertex) {
		buf = g.appendOBJCell(buf[:0], i)
		bw.Write(buf)
	})

	g.Triangulate(func(t Triangle) {
		buf = append(buf[:0], 'f')
		for _, name := range names.Face(t) {
			buf = append(buf, ' ')
			buf = strconv.AppendUint(buf, uint64(name)+1, 10)
		}
		buf = append(buf, '\n')
		bw.Write(buf)
	})
}
