// Package formats provides readers for the geometry files written by depthmesh.
package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	stdmath "math"
	"os"
	"strconv"
	"strings"

	"github.com/Faultbox/depthmesh/pkg/math"
)

// PLY format errors.
var (
	ErrInvalidPLYMagic      = errors.New("invalid PLY magic: expected 'ply'")
	ErrUnsupportedPLYFormat = errors.New("unsupported PLY format")
	ErrInvalidPLYHeader     = errors.New("invalid PLY header")
	ErrTruncatedPLYData     = errors.New("truncated PLY data")
	ErrTrailingPLYData      = errors.New("trailing PLY data")
)

// PLYProperty is one "property" line of an element.
type PLYProperty struct {
	Name      string
	Type      string // scalar type, or item type for lists
	List      bool
	CountType string // list length type
}

// PLYElement is one "element" block of the header.
type PLYElement struct {
	Name       string
	Count      int
	Properties []PLYProperty
}

// Property returns the named property, or nil.
func (e *PLYElement) Property(name string) *PLYProperty {
	for i := range e.Properties {
		if e.Properties[i].Name == name {
			return &e.Properties[i]
		}
	}
	return nil
}

// PLYVertex is a decoded vertex record.
type PLYVertex struct {
	Position math.Vec3
	Color    [3]uint8
}

// PLY represents a parsed binary little-endian PLY file.
type PLY struct {
	Format     string
	Version    string
	Comments   []string
	Elements   []PLYElement
	HeaderSize int // bytes up to and including "end_header\n"
	BodySize   int // bytes after the header

	HasColor bool
	Vertices []PLYVertex
	Faces    [][]uint32
}

// Element returns the named element, or nil.
func (p *PLY) Element(name string) *PLYElement {
	for i := range p.Elements {
		if p.Elements[i].Name == name {
			return &p.Elements[i]
		}
	}
	return nil
}

// Bounds returns the bounding box of all vertices.
func (p *PLY) Bounds() math.Bounds {
	var b math.Bounds
	for _, v := range p.Vertices {
		b.Extend(v.Position)
	}
	return b
}

// plyScalarSize maps PLY scalar type names to their byte size.
var plyScalarSize = map[string]int{
	"char": 1, "int8": 1,
	"uchar": 1, "uint8": 1,
	"short": 2, "int16": 2,
	"ushort": 2, "uint16": 2,
	"int": 4, "int32": 4,
	"uint": 4, "uint32": 4,
	"float": 4, "float32": 4,
	"double": 8, "float64": 8,
}

// ParsePLY parses a binary little-endian PLY file from raw bytes.
func ParsePLY(data []byte) (*PLY, error) {
	if len(data) < 4 {
		return nil, ErrTruncatedPLYData
	}
	if !bytes.HasPrefix(data, []byte("ply\n")) && !bytes.HasPrefix(data, []byte("ply\r\n")) {
		return nil, ErrInvalidPLYMagic
	}

	ply, err := parsePLYHeader(data)
	if err != nil {
		return nil, err
	}
	if ply.Format != "binary_little_endian" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPLYFormat, ply.Format)
	}

	r := bytes.NewReader(data[ply.HeaderSize:])
	for ei := range ply.Elements {
		if err := ply.readElement(r, &ply.Elements[ei]); err != nil {
			return nil, err
		}
	}
	if r.Len() > 0 {
		return nil, fmt.Errorf("%w: %d bytes after last element", ErrTrailingPLYData, r.Len())
	}

	return ply, nil
}

// parsePLYHeader reads the ASCII header lines up to "end_header".
func parsePLYHeader(data []byte) (*PLY, error) {
	ply := &PLY{}
	var current *PLYElement

	off := 0
	for lineNo := 1; ; lineNo++ {
		nl := bytes.IndexByte(data[off:], '\n')
		if nl < 0 {
			return nil, fmt.Errorf("%w: missing end_header", ErrTruncatedPLYData)
		}
		line := strings.TrimRight(string(data[off:off+nl]), "\r")
		off += nl + 1

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "ply", "obj_info":
		case "comment":
			ply.Comments = append(ply.Comments, strings.TrimSpace(strings.TrimPrefix(line, "comment")))
		case "format":
			if len(fields) != 3 {
				return nil, fmt.Errorf("%w: line %d: malformed format", ErrInvalidPLYHeader, lineNo)
			}
			ply.Format, ply.Version = fields[1], fields[2]
		case "element":
			if len(fields) != 3 {
				return nil, fmt.Errorf("%w: line %d: malformed element", ErrInvalidPLYHeader, lineNo)
			}
			count, err := strconv.Atoi(fields[2])
			if err != nil || count < 0 {
				return nil, fmt.Errorf("%w: line %d: bad element count %q", ErrInvalidPLYHeader, lineNo, fields[2])
			}
			ply.Elements = append(ply.Elements, PLYElement{Name: fields[1], Count: count})
			current = &ply.Elements[len(ply.Elements)-1]
		case "property":
			if current == nil {
				return nil, fmt.Errorf("%w: line %d: property before element", ErrInvalidPLYHeader, lineNo)
			}
			prop, err := parsePLYProperty(fields)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidPLYHeader, lineNo, err)
			}
			current.Properties = append(current.Properties, prop)
		case "end_header":
			ply.HeaderSize = off
			ply.BodySize = len(data) - off
			return ply, nil
		default:
			return nil, fmt.Errorf("%w: line %d: unknown keyword %q", ErrInvalidPLYHeader, lineNo, fields[0])
		}
	}
}

func parsePLYProperty(fields []string) (PLYProperty, error) {
	if len(fields) == 5 && fields[1] == "list" {
		if _, ok := plyScalarSize[fields[2]]; !ok {
			return PLYProperty{}, fmt.Errorf("unknown type %q", fields[2])
		}
		if _, ok := plyScalarSize[fields[3]]; !ok {
			return PLYProperty{}, fmt.Errorf("unknown type %q", fields[3])
		}
		return PLYProperty{Name: fields[4], Type: fields[3], List: true, CountType: fields[2]}, nil
	}
	if len(fields) != 3 {
		return PLYProperty{}, fmt.Errorf("malformed property")
	}
	if _, ok := plyScalarSize[fields[1]]; !ok {
		return PLYProperty{}, fmt.Errorf("unknown type %q", fields[1])
	}
	return PLYProperty{Name: fields[2], Type: fields[1]}, nil
}

// readElement decodes every record of e. Vertex and face elements are kept;
// other elements are consumed and dropped.
func (p *PLY) readElement(r *bytes.Reader, e *PLYElement) error {
	isVertex := e.Name == "vertex"
	isFace := e.Name == "face"
	if isVertex {
		p.HasColor = e.Property("red") != nil && e.Property("green") != nil && e.Property("blue") != nil
		p.Vertices = make([]PLYVertex, 0, min(e.Count, r.Len()))
	}
	if isFace {
		p.Faces = make([][]uint32, 0, min(e.Count, r.Len()))
	}

	for i := 0; i < e.Count; i++ {
		var v PLYVertex
		var face []uint32
		for _, prop := range e.Properties {
			if prop.List {
				n, err := readPLYScalar(r, prop.CountType)
				if err != nil {
					return fmt.Errorf("%s %d: %w", e.Name, i, err)
				}
				if n < 0 || int(n) > r.Len() {
					return fmt.Errorf("%s %d: %w: list of %v items", e.Name, i, ErrTruncatedPLYData, n)
				}
				items := make([]uint32, int(n))
				for k := range items {
					val, err := readPLYScalar(r, prop.Type)
					if err != nil {
						return fmt.Errorf("%s %d: %w", e.Name, i, err)
					}
					items[k] = uint32(val)
				}
				if isFace && prop.Name == "vertex_indices" {
					face = items
				}
				continue
			}

			val, err := readPLYScalar(r, prop.Type)
			if err != nil {
				return fmt.Errorf("%s %d: %w", e.Name, i, err)
			}
			if !isVertex {
				continue
			}
			switch prop.Name {
			case "x":
				v.Position.X = float32(val)
			case "y":
				v.Position.Y = float32(val)
			case "z":
				v.Position.Z = float32(val)
			case "red":
				v.Color[0] = uint8(val)
			case "green":
				v.Color[1] = uint8(val)
			case "blue":
				v.Color[2] = uint8(val)
			}
		}
		if isVertex {
			p.Vertices = append(p.Vertices, v)
		}
		if isFace {
			p.Faces = append(p.Faces, face)
		}
	}
	return nil
}

// readPLYScalar reads one little-endian value of the given type.
func readPLYScalar(r *bytes.Reader, typ string) (float64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:plyScalarSize[typ]]); err != nil {
		return 0, fmt.Errorf("%w: reading %s", ErrTruncatedPLYData, typ)
	}
	le := binary.LittleEndian
	switch typ {
	case "char", "int8":
		return float64(int8(buf[0])), nil
	case "uchar", "uint8":
		return float64(buf[0]), nil
	case "short", "int16":
		return float64(int16(le.Uint16(buf[:]))), nil
	case "ushort", "uint16":
		return float64(le.Uint16(buf[:])), nil
	case "int", "int32":
		return float64(int32(le.Uint32(buf[:]))), nil
	case "uint", "uint32":
		return float64(le.Uint32(buf[:])), nil
	case "float", "float32":
		return float64(stdmath.Float32frombits(le.Uint32(buf[:]))), nil
	default:
		return stdmath.Float64frombits(le.Uint64(buf[:])), nil
	}
}

// ParsePLYFile parses a PLY file from disk.
func ParsePLYFile(path string) (*PLY, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading PLY file: %w", err)
	}
	return ParsePLY(data)
}
