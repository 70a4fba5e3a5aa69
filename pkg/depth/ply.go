package depth

import (
	"bufio"
	"encoding/binary"
	"io"
	"strconv"
)

// plyFaceSize is one face record: a uint8 count of 3 and three uint32 indices.
const plyFaceSize = 1 + 3*4

// plyHeader describes the elements declared before "end_header".
type plyHeader struct {
	vertices int
	color    bool
	faces    int
	hasFaces bool
}

// appendTo appends the ASCII header.
func (h plyHeader) appendTo(buf []byte) []byte {
	buf = append(buf, "ply\n"...)
	buf = append(buf, "format binary_little_endian 1.0\n"...)
	buf = append(buf, "element vertex "...)
	buf = strconv.AppendInt(buf, int64(h.vertices), 10)
	buf = append(buf, '\n')
	buf = append(buf, "property float x\n"...)
	buf = append(buf, "property float y\n"...)
	buf = append(buf, "property float z\n"...)
	if h.color {
		buf = append(buf, "property uchar red\n"...)
		buf = append(buf, "property uchar green\n"...)
		buf = append(buf, "property uchar blue\n"...)
	}
	if h.hasFaces {
		buf = append(buf, "element face "...)
		buf = strconv.AppendInt(buf, int64(h.faces), 10)
		buf = append(buf, '\n')
		buf = append(buf, "property list uchar uint vertex_indices\n"...)
	}
	return append(buf, "end_header\n"...)
}

// appendPLYFace appends one triangle record.
func appendPLYFace(buf []byte, face [3]uint32) []byte {
	buf = append(buf, 3)
	buf = binary.LittleEndian.AppendUint32(buf, face[0])
	buf = binary.LittleEndian.AppendUint32(buf, face[1])
	buf = binary.LittleEndian.AppendUint32(buf, face[2])
	return buf
}

// appendPLYVertices appends every valid vertex in row-major order and
// returns the buffer and the number of vertices written.
func appendPLYVertices(buf []byte, g *Grid) ([]byte, int) {
	total := 0
	g.EachVertex(func(_ int, v Vertex) {
		buf = appendPLYVertex(buf, v)
		total++
	})
	return buf, total
}

// WritePLYCloud writes every valid cell as a binary PLY vertex. There is no
// face element.
func WritePLYCloud(w io.Writer, g *Grid) error {
	body, total := appendPLYVertices(make([]byte, 0, g.ValidCount()*plyVertexSize(g.HasColor())), g)

	header := plyHeader{vertices: total, color: g.HasColor()}
	if _, err := w.Write(header.appendTo(nil)); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

// WritePLYMesh writes the grid triangulation as binary PLY.
//
// The header needs both element counts, so vertex and face records are
// staged in separate buffers and written after it.
func WritePLYMesh(w io.Writer, g *Grid) error {
	names, total := BuildNameTable(g)

	vertices, _ := appendPLYVertices(make([]byte, 0, total*plyVertexSize(g.HasColor())), g)

	faces := make([]byte, 0, 2*total*plyFaceSize)
	totalFaces := 0
	g.Triangulate(func(t Triangle) {
		faces = appendPLYFace(faces, names.Face(t))
		totalFaces++
	})

	header := plyHeader{
		vertices: total,
		color:    g.HasColor(),
		faces:    totalFaces,
		hasFaces: true,
	}
	for _, chunk := range [][]byte{header.appendTo(nil), vertices, faces} {
		if _, err := w.Write(chunk); err != nil {
			return err
		}
	}
	return nil
}

// StreamPLYMesh writes the same bytes as WritePLYMesh without staging the
// body. Counts come from a mask-only pre-pass, so the header can go first.
func StreamPLYMesh(w io.Writer, g *Grid) error {
	names, total := BuildNameTable(g)
	header := plyHeader{
		vertices: total,
		color:    g.HasColor(),
		faces:    g.TriangleCount(),
		hasFaces: true,
	}

	// bufio keeps the first write error; it surfaces from Flush.
	bw := bufio.NewWriter(w)
	bw.Write(header.appendTo(nil))

	var buf []byte
	g.EachVertex(func(_ int, v Vertex) {
		buf = appendPLYVertex(buf[:0], v)
		bw.Write(buf)
	})
	g.Triangulate(func(t Triangle) {
		buf = appendPLYFace(buf[:0], names.Face(t))
		bw.Write(buf)
	})

	return bw.Flush()
}
