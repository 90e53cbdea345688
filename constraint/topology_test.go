package constraint

import "testing"

func TestGridTopology(t *testing.T) {
	tests := []struct {
		name          string
		rows, columns int
		stretch       int
		bend          int
	}{
		{"2x2", 2, 2, 4, 1},
		{"3x3", 3, 3, 12, 8},
		{"4x5", 4, 5, 31, 12 + 9 + 8},
		{"empty", 0, 3, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stretch, bend := GridTopology(tt.rows, tt.columns)
			if len(stretch) != tt.stretch {
				t.Errorf("len(stretch) = %d, want %d", len(stretch), tt.stretch)
			}
			if len(bend) != tt.bend {
				t.Errorf("len(bend) = %d, want %d", len(bend), tt.bend)
			}

			n := tt.rows * tt.columns
			for _, e := range append(stretch, bend...) {
				if e.A < 0 || e.A >= n || e.B < 0 || e.B >= n || e.A == e.B {
					t.Errorf("invalid edge %v for %d nodes", e, n)
				}
			}
		})
	}
}

func TestGridTopology_StretchIsAxisAligned(t *testing.T) {
	rows, columns := 4, 6
	stretch, _ := GridTopology(rows, columns)

	unique := make(map[Edge]bool)
	for _, e := range stretch {
		ra, ca := e.A/columns, e.A%columns
		rb, cb := e.B/columns, e.B%columns
		dr, dc := rb-ra, cb-ca
		if !((dr == 0 && (dc == 1 || dc == -1)) || (dc == 0 && (dr == 1 || dr == -1))) {
			t.Errorf("edge %v is not between grid neighbours", e)
		}
		unique[Edge{min(e.A, e.B), max(e.A, e.B)}] = true
	}

	// every horizontal and vertical neighbour pair, exactly once
	want := rows*(columns-1) + columns*(rows-1)
	if len(unique) != want || len(stretch) != want {
		t.Errorf("%d stretch edges (%d unique), want %d", len(stretch), len(unique), want)
	}
}

func TestMeshTopology(t *testing.T) {
	// two triangles sharing the edge 1-2
	//  2---3
	//  | \ |
	//  0---1
	triangles := [][3]int{{0, 1, 2}, {1, 3, 2}}

	stretch, bend := MeshTopology(triangles)

	if len(stretch) != 5 {
		t.Errorf("len(stretch) = %d, want 5", len(stretch))
	}
	if len(bend) != 1 {
		t.Fatalf("len(bend) = %d, want 1", len(bend))
	}
	if bend[0] != (Edge{0, 3}) {
		t.Errorf("bend[0] = %v, want {0 3}", bend[0])
	}
	for _, e := range stretch {
		if e.A > e.B {
			t.Errorf("stretch edge %v is not ordered", e)
		}
	}
}
