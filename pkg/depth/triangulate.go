package depth

// Triangle is an ordered triple of cell indices. The order is the winding
// written to disk.
type Triangle [3]int

// Triangulate walks every quad in row-major order and calls fn for each
// emitted triangle.
//
// The nw-se diagonal is tried first. Only when it is broken does the ne-sw
// diagonal get a chance, so a quad never yields more than two triangles and
// never references a masked corner.
func (g *Grid) Triangulate(fn func(t Triangle)) {
	for y := 0; y < g.Height-1; y++ {
		for x := 0; x < g.Width-1; x++ {
			q := g.Quad(x, y)
			switch {
			case q.ValidNW && q.ValidSE:
				if q.ValidNE {
					fn(Triangle{q.SE, q.NE, q.NW})
				}
				if q.ValidSW {
					fn(Triangle{q.SW, q.SE, q.NW})
				}
			case q.ValidNE && q.ValidSW:
				if q.ValidNW {
					fn(Triangle{q.SW, q.NE, q.NW})
				}
				if q.ValidSE {
					fn(Triangle{q.SW, q.SE, q.NE})
				}
			}
		}
	}
}

// TriangleCount returns the number of triangles Triangulate would emit.
func (g *Grid) TriangleCount() int {
	total := 0
	g.Triangulate(func(Triangle) {
		total++
	})
	return total
}
