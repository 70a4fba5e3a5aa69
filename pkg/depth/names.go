package depth

// NoName marks masked cells in a NameTable.
const NoName = ^uint32(0)

// NameTable maps a cell index to its dense output vertex index. Names are
// assigned in row-major order over valid cells, starting at zero.
type NameTable []uint32

// BuildNameTable labels every valid cell and returns the table together
// with the number of names handed out.
func BuildNameTable(g *Grid) (NameTable, int) {
	n := g.Len()
	names := make(NameTable, n)
	total := 0
	for i, masked := range g.Mask[:n] {
		if masked {
			names[i] = NoName
			continue
		}
		names[i] = uint32(total)
		total++
	}
	return names, total
}

// Face resolves a triangle's cell indices into output vertex indices.
func (nt NameTable) Face(t Triangle) [3]uint32 {
	return [3]uint32{nt[t[0]], nt[t[1]], nt[t[2]]}
}
