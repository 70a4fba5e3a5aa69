package depth

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTriangulate_AllValid(t *testing.T) {
	sizes := [][2]int{{2, 2}, {3, 2}, {5, 4}, {17, 9}}

	for _, s := range sizes {
		g := createTestGrid(s[0], s[1])
		want := 2 * (s[0] - 1) * (s[1] - 1)
		if got := g.TriangleCount(); got != want {
			t.Errorf("%dx%d: TriangleCount() = %d, want %d", s[0], s[1], got, want)
		}
	}
}

func TestTriangulate_FullQuadOrder(t *testing.T) {
	g := createTestGrid(2, 2)

	// nw=0 ne=1 sw=2 se=3
	want := []Triangle{{3, 1, 0}, {2, 3, 0}}
	if diff := cmp.Diff(want, collectTriangles(g)); diff != "" {
		t.Errorf("triangles mismatch (-want +got):\n%s", diff)
	}
}

func TestTriangulate_SingleMaskedCorner(t *testing.T) {
	tests := []struct {
		name   string
		masked [2]int
		want   Triangle
	}{
		{"nw masked", [2]int{0, 0}, Triangle{2, 3, 1}},
		{"ne masked", [2]int{1, 0}, Triangle{2, 3, 0}},
		{"sw masked", [2]int{0, 1}, Triangle{3, 1, 0}},
		{"se masked", [2]int{1, 1}, Triangle{2, 1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := createTestGrid(2, 2, tt.masked)
			tris := collectTriangles(g)
			if len(tris) != 1 {
				t.Fatalf("expected 1 triangle, got %d", len(tris))
			}
			if tris[0] != tt.want {
				t.Errorf("triangle = %v, want %v", tris[0], tt.want)
			}
			masked := g.Index(tt.masked[0], tt.masked[1])
			for _, i := range tris[0] {
				if i == masked {
					t.Errorf("triangle %v references masked cell %d", tris[0], masked)
				}
			}
		})
	}
}

func TestTriangulate_DegenerateQuads(t *testing.T) {
	tests := []struct {
		name   string
		masked [][2]int
	}{
		{"nw and se masked", [][2]int{{0, 0}, {1, 1}}},
		{"ne and sw masked", [][2]int{{1, 0}, {0, 1}}},
		{"top row masked", [][2]int{{0, 0}, {1, 0}}},
		{"three masked", [][2]int{{0, 0}, {1, 0}, {0, 1}}},
		{"all masked", [][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := createTestGrid(2, 2, tt.masked...)
			if n := g.TriangleCount(); n != 0 {
				t.Errorf("expected no triangles, got %d: %v", n, collectTriangles(g))
			}
		})
	}
}

func TestTriangulate_CenterMasked(t *testing.T) {
	g := createTestGrid(3, 3, [2]int{1, 1})

	tris := collectTriangles(g)
	if len(tris) != 4 {
		t.Fatalf("expected 4 triangles, got %d: %v", len(tris), tris)
	}
	for _, tri := range tris {
		for _, i := range tri {
			if i == 4 {
				t.Errorf("triangle %v references the masked center", tri)
			}
		}
	}
}

func TestTriangulate_NeverReferencesMaskedCells(t *testing.T) {
	const w, h = 23, 17
	var masked [][2]int
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x*7+y*13)%5 == 0 || (x*y)%11 == 3 {
				masked = append(masked, [2]int{x, y})
			}
		}
	}
	g := createTestGrid(w, h, masked...)

	total := 0
	g.Triangulate(func(tri Triangle) {
		for _, i := range tri {
			if g.Mask[i] {
				t.Fatalf("triangle %v references masked cell %d", tri, i)
			}
		}
		total++
	})

	// per-quad expectation from corner validity alone
	want := 0
	for y := 0; y < h-1; y++ {
		for x := 0; x < w-1; x++ {
			q := g.Quad(x, y)
			switch nwse, nesw := q.Diagonals(); {
			case nwse:
				want += btoi(q.ValidNE) + btoi(q.ValidSW)
			case nesw:
				want += btoi(q.ValidNW) + btoi(q.ValidSE)
			}
		}
	}
	if total != want {
		t.Errorf("got %d triangles, want %d", total, want)
	}
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}

func TestTriangulate_ThinGrids(t *testing.T) {
	for _, s := range [][2]int{{0, 0}, {1, 1}, {1, 5}, {5, 1}} {
		g := createTestGrid(s[0], s[1])
		if n := g.TriangleCount(); n != 0 {
			t.Errorf("%dx%d: expected no triangles, got %d", s[0], s[1], n)
		}
	}
}

func TestNameTable(t *testing.T) {
	g := createTestGrid(3, 2, [2]int{1, 0}, [2]int{0, 1})

	names, total := BuildNameTable(g)
	if total != 4 {
		t.Fatalf("expected 4 names, got %d", total)
	}
	want := NameTable{0, NoName, 1, NoName, 2, 3}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}

	g.Triangulate(func(tri Triangle) {
		for _, name := range names.Face(tri) {
			if int(name) >= total {
				t.Errorf("face %v resolves to name %d >= %d", tri, name, total)
			}
		}
	})
}

func collectTriangles(g *Grid) []Triangle {
	var tris []Triangle
	g.Triangulate(func(t Triangle) {
		tris = append(tris, t)
	})
	return tris
}
