package drape

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/akmonengine/drape/actor"
	"github.com/go-gl/mathgl/mgl64"
)

func randomNodes(t *testing.T, count int, extent float64, seed int64) []actor.Node {
	t.Helper()

	rng := rand.New(rand.NewSource(seed))
	nodes := make([]actor.Node, count)
	for i := range nodes {
		position := mgl64.Vec3{
			(rng.Float64()*2 - 1) * extent,
			(rng.Float64()*2 - 1) * extent,
			(rng.Float64()*2 - 1) * extent,
		}
		node, err := actor.NewNode(position, 1.0, 0.05)
		if err != nil {
			t.Fatalf("NewNode() error = %v", err)
		}
		nodes[i] = node
	}

	return nodes
}

func bruteForceNeighbours(nodes []actor.Node, index int, radius float64) []int {
	var result []int
	for i := range nodes {
		if i == index {
			continue
		}
		if nodes[index].Position.Sub(nodes[i].Position).LenSqr() <= radius*radius {
			result = append(result, i)
		}
	}
	return result
}

func TestCellCoord(t *testing.T) {
	grid := NewSpatialGrid(1.0, 16, 0)

	tests := []struct {
		name     string
		value    float64
		expected int
	}{
		{"origin", 0, 0},
		{"positive", 1.5, 1},
		{"negative", -1.5, -2},
		{"fraction", 0.5, 0},
		{"large negative", -200.3, -201},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := grid.cellCoord(tt.value); result != tt.expected {
				t.Errorf("cellCoord(%v) = %d, want %d", tt.value, result, tt.expected)
			}
		})
	}

	half := NewSpatialGrid(0.5, 16, 0)
	if result := half.cellCoord(1.2); result != 2 {
		t.Errorf("cellCoord(1.2) with spacing 0.5 = %d, want 2", result)
	}
}

func TestHashCoords(t *testing.T) {
	grid := NewSpatialGrid(1.0, 16, 0)

	tests := []struct {
		name     string
		x, y, z  int
		expected int
	}{
		{"origin", 0, 0, 0, 0},
		{"simple", 1, 2, 3, 10},
		{"negative", -1, -2, -3, 6},
		{"large", 100, 200, 300, 8},
		{"mixed", -7, 0, 12, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := grid.hashCoords(tt.x, tt.y, tt.z)
			if result < 0 || result >= grid.CellCount() {
				t.Errorf("hashCoords(%d, %d, %d) = %d, out of range [0, %d)", tt.x, tt.y, tt.z, result, grid.CellCount())
			}
			if result != tt.expected {
				t.Errorf("hashCoords(%d, %d, %d) = %d, want %d", tt.x, tt.y, tt.z, result, tt.expected)
			}
		})
	}
}

func TestHashCoords_NonPowerOfTwo(t *testing.T) {
	grid := NewSpatialGrid(1.0, 1000, 0)

	if result := grid.hashCoords(-1, -2, -3); result != 990 {
		t.Errorf("hashCoords(-1, -2, -3) = %d, want 990", result)
	}
	if result := grid.hashCoords(-7, 0, 12); result != 275 {
		t.Errorf("hashCoords(-7, 0, 12) = %d, want 275", result)
	}
}

func TestSpatialGrid_Rebuild(t *testing.T) {
	for _, workers := range []int{1, 4} {
		nodes := randomNodes(t, 500, 2.0, 42)
		grid := NewSpatialGrid(0.1, 128, len(nodes))

		grid.Rebuild(nodes, workers)

		seen := make([]bool, len(nodes))
		total := 0
		for h := 0; h < grid.CellCount(); h++ {
			bucket := grid.Bucket(h)
			total += len(bucket)
			if !sort.IntsAreSorted(bucket) {
				t.Errorf("bucket %d is not sorted: %v", h, bucket)
			}
			for _, i := range bucket {
				if seen[i] {
					t.Errorf("node %d stored twice", i)
				}
				seen[i] = true
				if got := grid.hashPosition(nodes[i].Position); got != h {
					t.Errorf("node %d stored in bucket %d, hashes to %d", i, h, got)
				}
			}
		}
		if total != len(nodes) {
			t.Errorf("workers=%d: %d nodes stored, want %d", workers, total, len(nodes))
		}
	}
}

func TestSpatialGrid_RebuildResizes(t *testing.T) {
	grid := NewSpatialGrid(0.5, 8, 0)
	nodes := randomNodes(t, 20, 1.0, 1)

	grid.Rebuild(nodes, 1)

	if len(grid.nodeIndices) != 20 {
		t.Errorf("len(nodeIndices) = %d, want 20", len(grid.nodeIndices))
	}
}

func TestSpatialGrid_Query(t *testing.T) {
	tests := []struct {
		name      string
		spacing   float64
		cellCount int
		radius    float64
	}{
		{"radius smaller than a cell", 0.5, 256, 0.2},
		{"radius larger than a cell", 0.1, 256, 0.35},
		{"single bucket", 0.1, 1, 0.3},
		{"few buckets, many collisions", 0.05, 7, 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes := randomNodes(t, 300, 1.0, 7)
			grid := NewSpatialGrid(tt.spacing, tt.cellCount, len(nodes))
			grid.Rebuild(nodes, 1)

			for i := range nodes {
				result := grid.Query(nodes, i, tt.radius, nil)
				sort.Ints(result)
				expected := bruteForceNeighbours(nodes, i, tt.radius)

				if len(result) != len(expected) {
					t.Fatalf("node %d: Query() returned %d neighbours, want %d", i, len(result), len(expected))
				}
				for k := range result {
					if result[k] != expected[k] {
						t.Fatalf("node %d: Query() = %v, want %v", i, result, expected)
					}
				}
			}
		})
	}
}

func TestSpatialGrid_QueryAll(t *testing.T) {
	sequential := randomNodes(t, 400, 1.0, 3)
	parallel := randomNodes(t, 400, 1.0, 3)
	grid := NewSpatialGrid(0.1, 400, 400)

	grid.Rebuild(sequential, 1)
	grid.QueryAll(sequential, 0.15, 1)
	grid.Rebuild(parallel, 8)
	grid.QueryAll(parallel, 0.15, 8)

	for i := range sequential {
		a := append([]int(nil), sequential[i].Neighbours...)
		b := append([]int(nil), parallel[i].Neighbours...)
		sort.Ints(a)
		sort.Ints(b)
		if len(a) != len(b) {
			t.Fatalf("node %d: %d neighbours sequentially, %d in parallel", i, len(a), len(b))
		}
		for k := range a {
			if a[k] != b[k] {
				t.Fatalf("node %d: neighbours differ: %v vs %v", i, a, b)
			}
		}
		for _, n := range a {
			if n == i {
				t.Errorf("node %d is its own neighbour", i)
			}
		}
	}
}

func TestSpatialGrid_QueryDoesNotAllocate(t *testing.T) {
	nodes := randomNodes(t, 200, 1.0, 5)
	// a search cube of 16 cells per axis over few buckets visits each bucket many times
	grid := NewSpatialGrid(0.1, 64, len(nodes))
	grid.Rebuild(nodes, 1)

	out := make([]int, 0, len(nodes))
	allocs := testing.AllocsPerRun(50, func() {
		out = grid.Query(nodes, 0, 0.75, out[:0])
	})
	if allocs != 0 {
		t.Errorf("Query() allocated %v times per call, want 0", allocs)
	}

	sort.Ints(out)
	expected := bruteForceNeighbours(nodes, 0, 0.75)
	if len(out) != len(expected) {
		t.Fatalf("Query() returned %d neighbours, want %d", len(out), len(expected))
	}
	for k := range out {
		if out[k] != expected[k] {
			t.Fatalf("Query() = %v, want %v", out, expected)
		}
	}
}

func TestBucketStamps_GenerationWraps(t *testing.T) {
	var stamps bucketStamps

	stamps.next(4)
	if !stamps.visit(1) {
		t.Error("first visit of bucket 1 reported as seen")
	}
	if stamps.visit(1) {
		t.Error("second visit of bucket 1 reported as new")
	}

	stamps.next(4)
	if !stamps.visit(1) {
		t.Error("bucket 1 still marked in a new query")
	}

	// the generation after MaxUint32 would match every stale zero stamp
	stamps.generation = math.MaxUint32
	stamps.stamps[3] = math.MaxUint32
	stamps.next(4)

	if stamps.generation != 1 {
		t.Errorf("generation = %d after wrapping, want 1", stamps.generation)
	}
	for h := 0; h < 4; h++ {
		if !stamps.visit(h) {
			t.Errorf("bucket %d marked as seen after wrapping", h)
		}
	}
}

func TestSpatialGrid_QueryAllWorkersKeepOwnStamps(t *testing.T) {
	nodes := randomNodes(t, 300, 1.0, 9)
	grid := NewSpatialGrid(0.05, 13, len(nodes))
	grid.Rebuild(nodes, 4)
	grid.QueryAll(nodes, 0.3, 4)

	if len(grid.visited) < 4 {
		t.Fatalf("len(visited) = %d, want at least 4", len(grid.visited))
	}
	for i := range nodes {
		result := append([]int(nil), nodes[i].Neighbours...)
		sort.Ints(result)
		expected := bruteForceNeighbours(nodes, i, 0.3)
		if len(result) != len(expected) {
			t.Fatalf("node %d: %d neighbours, want %d", i, len(result), len(expected))
		}
		for k := range result {
			if result[k] != expected[k] {
				t.Fatalf("node %d: neighbours = %v, want %v", i, result, expected)
			}
		}
	}
}

func BenchmarkSpatialGrid_RebuildQuery(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	nodes := make([]actor.Node, 10000)
	for i := range nodes {
		nodes[i].Position = mgl64.Vec3{rng.Float64() * 5, rng.Float64() * 5, rng.Float64() * 0.2}
	}
	grid := NewSpatialGrid(0.04, len(nodes), len(nodes))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		grid.Rebuild(nodes, 4)
		grid.QueryAll(nodes, 0.1, 4)
	}
}
