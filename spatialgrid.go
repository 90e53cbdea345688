package drape

import (
	"math"

	"github.com/akmonengine/drape/actor"
	"github.com/akmonengine/drape/internal/pipeline"
	"github.com/go-gl/mathgl/mgl64"
)

// ============================================================================
// Types
// ============================================================================

// SpatialGrid is a uniform hash grid stored in compressed rows:
// the nodes hashing to h are nodeIndices[cellStart[h]:cellStart[h+1]]
type SpatialGrid struct {
	spacing   float64
	cellCount int

	cellStart   []int
	nodeIndices []int
	// hash of every node, computed once per Rebuild
	hashes []int

	// one per worker, marks the buckets already scanned by a query
	visited []bucketStamps
}

// bucketStamps marks a bucket as visited by writing the current generation in it,
// so starting a new query only increments the generation.
type bucketStamps struct {
	stamps     []uint32
	generation uint32
}

func (b *bucketStamps) next(cellCount int) {
	if len(b.stamps) != cellCount {
		b.stamps = make([]uint32, cellCount)
		b.generation = 0
	}

	b.generation++
	if b.generation == 0 {
		clear(b.stamps)
		b.generation = 1
	}
}

// visit reports whether h is seen for the first time in the current query
func (b *bucketStamps) visit(h int) bool {
	if b.stamps[h] == b.generation {
		return false
	}
	b.stamps[h] = b.generation
	return true
}

// ============================================================================
// Constructor
// ============================================================================

// NewSpatialGrid creates a grid of cellCount buckets, whose cells are spacing wide
func NewSpatialGrid(spacing float64, cellCount int, nodeCount int) *SpatialGrid {
	cellCount = max(1, cellCount)
	if !(spacing > 0) {
		spacing = 1
	}

	return &SpatialGrid{
		spacing:     spacing,
		cellCount:   cellCount,
		cellStart:   make([]int, cellCount+1),
		nodeIndices: make([]int, nodeCount),
		hashes:      make([]int, nodeCount),
	}
}

func (sg *SpatialGrid) Spacing() float64 {
	return sg.spacing
}

func (sg *SpatialGrid) CellCount() int {
	return sg.cellCount
}

// ============================================================================
// Hashing
// ============================================================================

// cellCoord converts a world coordinate into a cell coordinate
func (sg *SpatialGrid) cellCoord(c float64) int {
	return int(math.Floor(c / sg.spacing))
}

// hashCoords maps a cell to a bucket, always in [0, cellCount)
func (sg *SpatialGrid) hashCoords(x, y, z int) int {
	h := (x * 92837111) ^ (y * 689287499) ^ (z * 283923481)
	return int(uint64(h) % uint64(sg.cellCount))
}

func (sg *SpatialGrid) hashPosition(position mgl64.Vec3) int {
	return sg.hashCoords(sg.cellCoord(position.X()), sg.cellCoord(position.Y()), sg.cellCoord(position.Z()))
}

// ============================================================================
// Build & Query
// ============================================================================

// Rebuild sorts the nodes by bucket (counting sort).
// Hashes are computed in parallel, counting and scattering are sequential.
func (sg *SpatialGrid) Rebuild(nodes []actor.Node, workersCount int) {
	if len(sg.nodeIndices) != len(nodes) {
		sg.nodeIndices = make([]int, len(nodes))
		sg.hashes = make([]int, len(nodes))
	}

	pipeline.Task(workersCount, len(nodes), func(i int) {
		sg.hashes[i] = sg.hashPosition(nodes[i].Position)
	})

	clear(sg.cellStart)
	for _, h := range sg.hashes {
		sg.cellStart[h]++
	}

	// cellStart[h] = end of the bucket h
	sum := 0
	for h := 0; h < sg.cellCount; h++ {
		sum += sg.cellStart[h]
		sg.cellStart[h] = sum
	}
	sg.cellStart[sg.cellCount] = sum

	// walking backwards keeps every bucket sorted by node index,
	// and leaves cellStart[h] on the start of the bucket
	for i := len(sg.hashes) - 1; i >= 0; i-- {
		h := sg.hashes[i]
		sg.cellStart[h]--
		sg.nodeIndices[sg.cellStart[h]] = i
	}
}

// Bucket returns the node indices stored under the hash h
func (sg *SpatialGrid) Bucket(h int) []int {
	return sg.nodeIndices[sg.cellStart[h]:sg.cellStart[h+1]]
}

// Query appends to out every node, other than index, within maxRadius of the node index.
// Different cells may share a bucket: each bucket is visited once.
// Query must not run concurrently with another Query or QueryAll.
func (sg *SpatialGrid) Query(nodes []actor.Node, index int, maxRadius float64, out []int) []int {
	visited := sg.workerStamps(1)
	return sg.query(nodes, index, maxRadius, out, &visited[0])
}

// QueryAll refreshes the Neighbours of every node
func (sg *SpatialGrid) QueryAll(nodes []actor.Node, maxRadius float64, workersCount int) {
	visited := sg.workerStamps(workersCount)

	pipeline.TaskRange(workersCount, len(nodes), func(worker, start, end int) {
		stamps := &visited[worker]
		for i := start; i < end; i++ {
			nodes[i].Neighbours = sg.query(nodes, i, maxRadius, nodes[i].Neighbours[:0], stamps)
		}
	})
}

// workerStamps grows the visited buffers before any worker starts
func (sg *SpatialGrid) workerStamps(workersCount int) []bucketStamps {
	for len(sg.visited) < max(1, workersCount) {
		sg.visited = append(sg.visited, bucketStamps{})
	}
	return sg.visited
}

func (sg *SpatialGrid) query(nodes []actor.Node, index int, maxRadius float64, out []int, visited *bucketStamps) []int {
	visited.next(sg.cellCount)

	position := nodes[index].Position
	maxRadiusSq := maxRadius * maxRadius

	minX, maxX := sg.cellCoord(position.X()-maxRadius), sg.cellCoord(position.X()+maxRadius)
	minY, maxY := sg.cellCoord(position.Y()-maxRadius), sg.cellCoord(position.Y()+maxRadius)
	minZ, maxZ := sg.cellCoord(position.Z()-maxRadius), sg.cellCoord(position.Z()+maxRadius)

	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			for z := minZ; z <= maxZ; z++ {
				h := sg.hashCoords(x, y, z)
				if !visited.visit(h) {
					continue
				}

				for _, other := range sg.Bucket(h) {
					if other == index {
						continue
					}
					if position.Sub(nodes[other].Position).LenSqr() <= maxRadiusSq {
						out = append(out, other)
					}
				}
			}
		}
	}

	return out
}
