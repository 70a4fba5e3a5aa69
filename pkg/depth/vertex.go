package depth

import (
	"encoding/binary"
	stdmath "math"
	"strconv"

	"github.com/Faultbox/depthmesh/pkg/math"
)

// Vertex is a valid grid cell lifted into model space.
type Vertex struct {
	Position math.Vec3
	Color    [3]byte
	HasColor bool
}

// Vertex returns the vertex for cell (x, y). The y axis is flipped so that
// the model appears upright in common viewers. The flip is a float
// negation, so row 0 carries -0 in binary output.
func (g *Grid) Vertex(x, y int) Vertex {
	i := g.Index(x, y)
	v := Vertex{
		Position: math.Vec3{X: float32(x), Y: -float32(y), Z: g.Depth[i]},
	}
	if g.Color != nil {
		copy(v.Color[:], g.Color[i*3:i*3+3])
		v.HasColor = true
	}
	return v
}

// EachVertex calls fn for every valid cell in row-major order with the
// cell index and its vertex.
func (g *Grid) EachVertex(fn func(i int, v Vertex)) {
	for y := 0; y < g.Height; y++ {
		i := y * g.Width
		for x := 0; x < g.Width; x++ {
			if !g.Mask[i] {
				fn(i, g.Vertex(x, y))
			}
			i++
		}
	}
}

// Bounds returns the bounding box of all valid vertices.
func (g *Grid) Bounds() math.Bounds {
	var b math.Bounds
	g.EachVertex(func(_ int, v Vertex) {
		b.Extend(v.Position)
	})
	return b
}

// plyVertexSize returns the packed record size of one vertex.
func plyVertexSize(color bool) int {
	if color {
		return 15
	}
	return 12
}

// appendOBJVertex appends "v x -y z\n". Grid coordinates print as integers
// and depth uses six significant digits.
func appendOBJVertex(buf []byte, x, y int, z float32) []byte {
	buf = append(buf, 'v', ' ')
	buf = strconv.AppendInt(buf, int64(x), 10)
	buf = append(buf, ' ')
	buf = strconv.AppendInt(buf, int64(-y), 10)
	buf = append(buf, ' ')
	buf = appendFloat(buf, z)
	return append(buf, '\n')
}

// appendOBJCell appends the vertex line for cell index i.
func (g *Grid) appendOBJCell(buf []byte, i int) []byte {
	return appendOBJVertex(buf, i%g.Width, i/g.Width, g.Depth[i])
}

// appendFloat formats f like a C++ stream in its default state.
func appendFloat(buf []byte, f float32) []byte {
	d := float64(f)
	switch {
	case stdmath.IsNaN(d):
		return append(buf, "nan"...)
	case stdmath.IsInf(d, 1):
		return append(buf, "inf"...)
	case stdmath.IsInf(d, -1):
		return append(buf, "-inf"...)
	}
	return strconv.AppendFloat(buf, d, 'g', 6, 64)
}

// appendPLYVertex appends the little-endian binary record of v.
func appendPLYVertex(buf []byte, v Vertex) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, stdmath.Float32bits(v.Position.X))
	buf = binary.LittleEndian.AppendUint32(buf, stdmath.Float32bits(v.Position.Y))
	buf = binary.LittleEndian.AppendUint32(buf, stdmath.Float32bits(v.Position.Z))
	if v.HasColor {
		buf = append(buf, v.Color[0], v.Color[1], v.Color[2])
	}
	return buf
}
