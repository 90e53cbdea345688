package drape

import (
	"errors"
	"fmt"

	"github.com/akmonengine/drape/actor"
	"github.com/akmonengine/drape/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	DEFAULT_CLOTH_SIZE    = 2.0
	DEFAULT_CLOTH_HEIGHT  = 3.0
	DEFAULT_CLOTH_COLUMNS = 64
	DEFAULT_CLOTH_ROWS    = 64
	DEFAULT_NODE_MASS     = 0.01
)

var (
	// ErrNodeIndexOutOfRange is returned for any node index outside of the cloth
	ErrNodeIndexOutOfRange = constraint.ErrNodeIndexOutOfRange
	ErrInvalidDimensions   = errors.New("cloth needs at least 2 rows and 2 columns")
	ErrInvalidMesh         = errors.New("invalid cloth mesh")
)

// Cloth owns the nodes, the colored constraints, and the mapping used by the renderer
type Cloth struct {
	Nodes    []actor.Node
	Coloring constraint.Coloring
	// Triangles reference nodes, they are only used to compute the normals
	Triangles [][3]int

	Mass      float64
	Thickness float64

	// renderMap[v] is the node simulating the render vertex v
	renderMap []int
}

// SquareOptions describes a rows×columns cloth lying flat at Height
type SquareOptions struct {
	Rows, Columns int
	// Size is the width of the cloth along X
	Size   float64
	Height float64

	Mass      float64
	Thickness float64

	StretchingCompliance float64
	BendingCompliance    float64

	// PinCorners pins the first and the last node of the first row
	PinCorners bool
}

func DefaultSquareOptions() SquareOptions {
	return SquareOptions{
		Rows:                 DEFAULT_CLOTH_ROWS,
		Columns:              DEFAULT_CLOTH_COLUMNS,
		Size:                 DEFAULT_CLOTH_SIZE,
		Height:               DEFAULT_CLOTH_HEIGHT,
		Mass:                 DEFAULT_NODE_MASS,
		Thickness:            DefaultThickness(DEFAULT_CLOTH_SIZE, DEFAULT_CLOTH_COLUMNS),
		StretchingCompliance: constraint.DefaultStretchingCompliance,
		BendingCompliance:    constraint.DefaultBendingCompliance,
		PinCorners:           true,
	}
}

// DefaultThickness returns a collision diameter slightly smaller than the node spacing
func DefaultThickness(size float64, columns int) float64 {
	return size / float64(columns) * 0.67
}

// NewSquareCloth creates a grid cloth in the XY plane
func NewSquareCloth(opts SquareOptions) (*Cloth, error) {
	if opts.Rows < 2 || opts.Columns < 2 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrInvalidDimensions, opts.Rows, opts.Columns)
	}

	rows, columns := opts.Rows, opts.Columns
	spacing := opts.Size / float64(columns-1)

	cloth := &Cloth{
		Nodes:     make([]actor.Node, 0, rows*columns),
		Mass:      opts.Mass,
		Thickness: opts.Thickness,
		renderMap: make([]int, rows*columns),
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < columns; j++ {
			position := mgl64.Vec3{float64(j) * spacing, float64(i) * spacing, opts.Height}
			node, err := actor.NewNode(position, opts.Mass, opts.Thickness)
			if err != nil {
				return nil, err
			}
			cloth.Nodes = append(cloth.Nodes, node)
		}
	}
	for v := range cloth.renderMap {
		cloth.renderMap[v] = v
	}

	for i := 0; i < rows-1; i++ {
		for j := 0; j < columns-1; j++ {
			v := i*columns + j
			cloth.Triangles = append(cloth.Triangles,
				[3]int{v, v + 1, v + columns},
				[3]int{v + 1, v + columns + 1, v + columns},
			)
		}
	}

	stretch, bend := constraint.GridTopology(rows, columns)
	if err := cloth.buildConstraints(stretch, bend, opts.StretchingCompliance, opts.BendingCompliance); err != nil {
		return nil, err
	}

	if opts.PinCorners {
		cloth.Nodes[0].Pin()
		cloth.Nodes[columns-1].Pin()
	}

	return cloth, nil
}

// MeshOptions describes how a triangle mesh becomes a cloth
type MeshOptions struct {
	// Scale is applied before Translation; a zero Scale keeps the mesh size
	Scale       mgl64.Vec3
	Translation mgl64.Vec3

	Mass      float64
	Thickness float64

	StretchingCompliance float64
	BendingCompliance    float64
}

// NewMeshCloth creates a cloth from an indexed triangle mesh.
// Render vertices sharing the same position are welded into a single node.
func NewMeshCloth(vertices []mgl64.Vec3, indices []int, opts MeshOptions) (*Cloth, error) {
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("%w: %d indices is not a multiple of 3", ErrInvalidMesh, len(indices))
	}
	for _, index := range indices {
		if index < 0 || index >= len(vertices) {
			return nil, fmt.Errorf("%w: vertex index %d with %d vertices", ErrInvalidMesh, index, len(vertices))
		}
	}

	scale := opts.Scale
	if scale == (mgl64.Vec3{}) {
		scale = mgl64.Vec3{1, 1, 1}
	}

	cloth := &Cloth{
		Mass:      opts.Mass,
		Thickness: opts.Thickness,
		renderMap: make([]int, len(vertices)),
	}

	welded := make(map[mgl64.Vec3]int, len(vertices))
	for v, vertex := range vertices {
		position := mgl64.Vec3{vertex.X() * scale.X(), vertex.Y() * scale.Y(), vertex.Z() * scale.Z()}.Add(opts.Translation)

		if node, ok := welded[position]; ok {
			cloth.renderMap[v] = node
			continue
		}

		node, err := actor.NewNode(position, opts.Mass, opts.Thickness)
		if err != nil {
			return nil, err
		}
		welded[position] = len(cloth.Nodes)
		cloth.renderMap[v] = len(cloth.Nodes)
		cloth.Nodes = append(cloth.Nodes, node)
	}

	for t := 0; t < len(indices); t += 3 {
		triangle := [3]int{cloth.renderMap[indices[t]], cloth.renderMap[indices[t+1]], cloth.renderMap[indices[t+2]]}
		// welding can collapse a triangle
		if triangle[0] == triangle[1] || triangle[1] == triangle[2] || triangle[0] == triangle[2] {
			continue
		}
		cloth.Triangles = append(cloth.Triangles, triangle)
	}

	stretch, bend := constraint.MeshTopology(cloth.Triangles)
	if err := cloth.buildConstraints(stretch, bend, opts.StretchingCompliance, opts.BendingCompliance); err != nil {
		return nil, err
	}

	return cloth, nil
}

func (c *Cloth) buildConstraints(stretch, bend []constraint.Edge, stretchingCompliance, bendingCompliance float64) error {
	constraints := make([]constraint.Distance, 0, len(stretch)+len(bend))
	for _, e := range stretch {
		d, err := constraint.NewDistance(c.Nodes, e.A, e.B, stretchingCompliance, constraint.KindStretch)
		if err != nil {
			return err
		}
		constraints = append(constraints, d)
	}
	for _, e := range bend {
		d, err := constraint.NewDistance(c.Nodes, e.A, e.B, bendingCompliance, constraint.KindBend)
		if err != nil {
			return err
		}
		constraints = append(constraints, d)
	}

	c.Coloring = constraint.Color(constraints, len(c.Nodes))
	return nil
}

func (c *Cloth) checkIndex(i int) error {
	if i < 0 || i >= len(c.Nodes) {
		return fmt.Errorf("%w: %d with %d nodes", ErrNodeIndexOutOfRange, i, len(c.Nodes))
	}
	return nil
}

// Pin gives the node i an infinite mass
func (c *Cloth) Pin(i int) error {
	if err := c.checkIndex(i); err != nil {
		return err
	}

	c.Nodes[i].Pin()
	return nil
}

// Unpin restores the cloth mass of the node i
func (c *Cloth) Unpin(i int) error {
	if err := c.checkIndex(i); err != nil {
		return err
	}

	return c.Nodes[i].Unpin(c.Mass)
}

// MoveTo teleports the node i, typically a pinned node dragged by the user
func (c *Cloth) MoveTo(i int, position mgl64.Vec3) error {
	if err := c.checkIndex(i); err != nil {
		return err
	}

	c.Nodes[i].MoveTo(position)
	return nil
}

func (c *Cloth) Bounds() actor.AABB {
	return actor.NodesAABB(c.Nodes)
}

// ConstraintCount returns the number of distance constraints
func (c *Cloth) ConstraintCount() int {
	return len(c.Coloring.Constraints)
}

// ComputeNormals sets every node normal to the normalized, area weighted sum of its face normals
func (c *Cloth) ComputeNormals() {
	for i := range c.Nodes {
		c.Nodes[i].Normal = mgl64.Vec3{}
	}

	for _, triangle := range c.Triangles {
		a := c.Nodes[triangle[0]].Position
		b := c.Nodes[triangle[1]].Position
		d := c.Nodes[triangle[2]].Position
		normal := b.Sub(a).Cross(d.Sub(a))

		for _, n := range triangle {
			c.Nodes[n].Normal = c.Nodes[n].Normal.Add(normal)
		}
	}

	for i := range c.Nodes {
		if c.Nodes[i].Normal.Len() > 0 {
			c.Nodes[i].Normal = c.Nodes[i].Normal.Normalize()
		}
	}
}

// RenderVertexCount returns the number of vertices of the render mesh
func (c *Cloth) RenderVertexCount() int {
	return len(c.renderMap)
}

// RenderPositions writes the position of every render vertex into dst, reusing its storage
func (c *Cloth) RenderPositions(dst []mgl64.Vec3) []mgl64.Vec3 {
	dst = dst[:0]
	for _, node := range c.renderMap {
		dst = append(dst, c.Nodes[node].Position)
	}
	return dst
}

// RenderNormals writes the normal of every render vertex into dst, reusing its storage
func (c *Cloth) RenderNormals(dst []mgl64.Vec3) []mgl64.Vec3 {
	dst = dst[:0]
	for _, node := range c.renderMap {
		dst = append(dst, c.Nodes[node].Normal)
	}
	return dst
}
