// Package depth converts masked depth sample grids into point clouds, triangle
// meshes and grayscale depth images.
//
// A grid is a row-major array of Width*Height cells. Each cell has a depth
// sample, a mask flag (true = invalid) and optionally three interleaved RGB
// bytes. Only valid cells ever become vertices.
package depth

import (
	"errors"
	"fmt"
)

// ErrGridSize is returned by Validate when the backing arrays do not match
// the grid dimensions.
var ErrGridSize = errors.New("grid arrays do not match dimensions")

// Grid is a read-only view over caller-owned sample buffers.
type Grid struct {
	Width  int
	Height int
	Mask   []bool    // true = invalid
	Depth  []float32 // one sample per cell
	Color  []byte    // nil or Width*Height*3 RGB bytes
}

// NewGrid wraps the given buffers. Array lengths are not checked; call
// Validate when the buffers come from an untrusted source.
func NewGrid(width, height int, mask []bool, depth []float32, color []byte) *Grid {
	return &Grid{
		Width:  width,
		Height: height,
		Mask:   mask,
		Depth:  depth,
		Color:  color,
	}
}

// Validate checks that every backing array matches Width*Height.
func (g *Grid) Validate() error {
	if g.Width < 0 || g.Height < 0 {
		return fmt.Errorf("%w: negative size %dx%d", ErrGridSize, g.Width, g.Height)
	}
	n := g.Width * g.Height
	if len(g.Mask) != n {
		return fmt.Errorf("%w: mask has %d cells, want %d", ErrGridSize, len(g.Mask), n)
	}
	if len(g.Depth) != n {
		return fmt.Errorf("%w: depth has %d cells, want %d", ErrGridSize, len(g.Depth), n)
	}
	if g.Color != nil && len(g.Color) != n*3 {
		return fmt.Errorf("%w: color has %d bytes, want %d", ErrGridSize, len(g.Color), n*3)
	}
	return nil
}

// Len returns the number of cells.
func (g *Grid) Len() int {
	return g.Width * g.Height
}

// HasColor reports whether the grid carries per-cell RGB.
func (g *Grid) HasColor() bool {
	return g.Color != nil
}

// Index returns the row-major cell index of (x, y).
func (g *Grid) Index(x, y int) int {
	return y*g.Width + x
}

// Valid reports whether the cell at (x, y) is unmasked.
func (g *Grid) Valid(x, y int) bool {
	return !g.Mask[g.Index(x, y)]
}

// ValidCount returns the number of unmasked cells.
func (g *Grid) ValidCount() int {
	total := 0
	for _, masked := range g.Mask[:g.Len()] {
		if !masked {
			total++
		}
	}
	return total
}

// Quad is the 2x2 neighbourhood whose north-west corner is (X, Y).
// Corner indices are row-major cell indices.
type Quad struct {
	X, Y           int
	NW, NE, SW, SE int

	ValidNW, ValidNE, ValidSW, ValidSE bool
}

// Quad returns the neighbourhood at (x, y). Requires x < Width-1 and
// y < Height-1.
func (g *Grid) Quad(x, y int) Quad {
	nw := g.Index(x, y)
	ne := nw + 1
	sw := nw + g.Width
	se := ne + g.Width
	return Quad{
		X: x, Y: y,
		NW: nw, NE: ne, SW: sw, SE: se,
		ValidNW: g.Valid(x, y),
		ValidNE: g.Valid(x+1, y),
		ValidSW: g.Valid(x, y+1),
		ValidSE: g.Valid(x+1, y+1),
	}
}

// Diagonals reports which of the two diagonal pairs are fully valid.
func (q Quad) Diagonals() (nwse, nesw bool) {
	return q.ValidNW && q.ValidSE, q.ValidNE && q.ValidSW
}
