package constraint

// Edge is an unordered pair of node indices
type Edge struct {
	A, B int
}

// GridTopology returns the stretch and bend node pairs of a rows×columns grid
// laid out row by row: node (i, j) has index i*columns+j.
//
// Stretch pairs are the horizontal and vertical edges. Bend pairs link each node to its
// diagonal neighbour and to two knight-move neighbours, which resists folding along
// every grid direction.
func GridTopology(rows, columns int) (stretch []Edge, bend []Edge) {
	if rows < 1 || columns < 1 {
		return nil, nil
	}
	c := columns

	// two edges per upper-left triangle
	for i := 0; i < rows-1; i++ {
		for j := 0; j < c-1; j++ {
			v := i*c + j
			stretch = append(stretch, Edge{v, v + c}, Edge{v, v + 1})
		}
	}
	// last column
	for v := c - 1; v < c*(rows-1); v += c {
		stretch = append(stretch, Edge{v, v + c})
	}
	// last row
	for v := c * (rows - 1); v < rows*c-1; v++ {
		stretch = append(stretch, Edge{v, v + 1})
	}

	for i := 0; i < rows-1; i++ {
		for j := 0; j < c-1; j++ {
			k := i*c + j
			bend = append(bend, Edge{k, k + c + 1})
		}
	}
	for i := 1; i < rows; i++ {
		for j := 0; j < c-2; j++ {
			k := i*c + j
			bend = append(bend, Edge{k, k - (c - 2)})
		}
	}
	for i := 0; i < rows-2; i++ {
		for j := 1; j < c; j++ {
			k := i*c + j
			bend = append(bend, Edge{k, k + 2*c - 1})
		}
	}

	return stretch, bend
}

// MeshTopology returns the unique edges of a triangle mesh as stretch pairs, and one
// bend pair per couple of triangles sharing an edge, linking their opposite vertices.
func MeshTopology(triangles [][3]int) (stretch []Edge, bend []Edge) {
	type edgeInfo struct {
		opposite int
	}
	seen := make(map[Edge]edgeInfo, len(triangles)*3/2)

	for _, triangle := range triangles {
		for e := 0; e < 3; e++ {
			a := triangle[e]
			b := triangle[(e+1)%3]
			opposite := triangle[(e+2)%3]

			key := Edge{min(a, b), max(a, b)}
			info, ok := seen[key]
			if !ok {
				seen[key] = edgeInfo{opposite: opposite}
				stretch = append(stretch, key)
				continue
			}

			if info.opposite != opposite {
				bend = append(bend, Edge{info.opposite, opposite})
			}
		}
	}

	return stretch, bend
}
