// Package bvh approximates an animated skinned body with bounding spheres placed on
// its joints and on the middle of its bones. Each sphere owns the body triangles it
// fully contains, cloth nodes entering a sphere only test the triangles it owns.
package bvh

import (
	"errors"
	"fmt"
	"sort"

	"github.com/akmonengine/drape/actor"
	"github.com/akmonengine/drape/internal/pipeline"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

var (
	ErrVertexIndexOutOfRange = errors.New("vertex index out of range")
	ErrUnknownJoint          = errors.New("unknown joint")
	ErrUncoveredTriangles    = errors.New("bounding spheres do not cover the body")
	ErrVertexCount           = errors.New("vertex count mismatch")
)

// Mesh is an indexed triangle list
type Mesh struct {
	Vertices []mgl64.Vec3
	Indices  []int
}

// Segment links two joints, a sphere is placed on its middle
type Segment struct {
	A, B string
}

type Options struct {
	InitialRadius  float64
	GrowthStep     float64
	Margin         float64
	MaxGrowthSteps int
	// RootJoint never owns triangles, it usually sits inside the pelvis
	RootJoint string

	Logger *zap.Logger
}

func DefaultOptions() Options {
	return Options{
		InitialRadius:  0.1,
		GrowthStep:     0.03,
		Margin:         0.1,
		MaxGrowthSteps: 1000,
		RootJoint:      "Root",
	}
}

// Sphere is a node of the hierarchy
type Sphere struct {
	Name   string
	Center mgl64.Vec3
	Radius float64
	// Triangles owned by this sphere
	Triangles []int
	// Parents are the joint spheres of a segment sphere, -1 for a joint sphere
	Parents [2]int
	Root    bool
	// Delta is the displacement of the center during the last Modify
	Delta mgl64.Vec3
}

// IsSegment reports whether the sphere follows the middle of two joints
func (s *Sphere) IsSegment() bool {
	return s.Parents[0] >= 0
}

// Contact is a cloth node pushed out of the body by a sphere's triangles
type Contact struct {
	Node   int
	Sphere int
}

// Collider is not safe for concurrent use
type Collider struct {
	Spheres []Sphere

	vertices  []mgl64.Vec3
	triangles [][3]int
	// joints maps a joint name to its sphere
	joints map[string]int

	// per node scratch of Collide
	touched []bool
	// returned by Collide, reused by the next call
	contacts []Contact
}

// New builds the spheres, then grows them until every triangle of mesh is owned by one sphere.
// Joint spheres come first, sorted by name, followed by the segment spheres in order.
func New(mesh Mesh, joints map[string]mgl64.Vec3, segments []Segment, opts Options) (*Collider, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(mesh.Indices)%3 != 0 {
		return nil, fmt.Errorf("%w: %d indices is not a multiple of 3", ErrVertexIndexOutOfRange, len(mesh.Indices))
	}

	c := &Collider{
		vertices:  append([]mgl64.Vec3(nil), mesh.Vertices...),
		triangles: make([][3]int, 0, len(mesh.Indices)/3),
		joints:    make(map[string]int, len(joints)),
	}
	for i := 0; i < len(mesh.Indices); i += 3 {
		triangle := [3]int{mesh.Indices[i], mesh.Indices[i+1], mesh.Indices[i+2]}
		for _, v := range triangle {
			if v < 0 || v >= len(mesh.Vertices) {
				return nil, fmt.Errorf("%w: %d with %d vertices", ErrVertexIndexOutOfRange, v, len(mesh.Vertices))
			}
		}
		c.triangles = append(c.triangles, triangle)
	}

	names := make([]string, 0, len(joints))
	for name := range joints {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		c.joints[name] = len(c.Spheres)
		c.Spheres = append(c.Spheres, Sphere{
			Name:    name,
			Center:  joints[name],
			Radius:  opts.InitialRadius,
			Parents: [2]int{-1, -1},
			Root:    name == opts.RootJoint,
		})
	}

	for _, segment := range segments {
		a, ok := c.joints[segment.A]
		if !ok {
			return nil, fmt.Errorf("%w: %q in segment %s-%s", ErrUnknownJoint, segment.A, segment.A, segment.B)
		}
		b, ok := c.joints[segment.B]
		if !ok {
			return nil, fmt.Errorf("%w: %q in segment %s-%s", ErrUnknownJoint, segment.B, segment.A, segment.B)
		}

		c.Spheres = append(c.Spheres, Sphere{
			Name:    segment.A + "_" + segment.B,
			Center:  midpoint(c.Spheres[a].Center, c.Spheres[b].Center),
			Radius:  opts.InitialRadius,
			Parents: [2]int{a, b},
		})
	}

	steps, err := c.cover(opts)
	if err != nil {
		return nil, err
	}

	logger.Info("body collider built",
		zap.Int("spheres", len(c.Spheres)),
		zap.Int("triangles", len(c.triangles)),
		zap.Int("growth_steps", steps),
	)

	return c, nil
}

// cover assigns every triangle to the first sphere containing its three vertices,
// growing the spheres until no triangle is left. It returns the number of growth steps.
func (c *Collider) cover(opts Options) (int, error) {
	claimed := make([]bool, len(c.triangles))
	uncovered := len(c.triangles)

	step := 0
	for {
		for s := range c.Spheres {
			sphere := &c.Spheres[s]
			if sphere.Root {
				continue
			}

			for t, triangle := range c.triangles {
				if claimed[t] || !c.contains(sphere, triangle) {
					continue
				}
				claimed[t] = true
				sphere.Triangles = append(sphere.Triangles, t)
				uncovered--
			}
		}

		if uncovered == 0 {
			break
		}
		if step >= opts.MaxGrowthSteps {
			return step, fmt.Errorf("%w: %d triangles after %d growth steps", ErrUncoveredTriangles, uncovered, step)
		}

		for s := range c.Spheres {
			if !c.Spheres[s].Root {
				c.Spheres[s].Radius += opts.GrowthStep
			}
		}
		step++
	}

	for s := range c.Spheres {
		c.Spheres[s].Radius += opts.Margin
	}

	return step, nil
}

func (c *Collider) contains(sphere *Sphere, triangle [3]int) bool {
	radiusSq := sphere.Radius * sphere.Radius
	for _, v := range triangle {
		if c.vertices[v].Sub(sphere.Center).LenSqr() > radiusSq {
			return false
		}
	}
	return true
}

// TriangleCount returns the number of body triangles
func (c *Collider) TriangleCount() int {
	return len(c.triangles)
}

// Modify moves the joint spheres to the translation of their bone world transform,
// then places every segment sphere back on the middle of its joints.
// Joints missing from bones keep their position.
func (c *Collider) Modify(bones map[string]mgl64.Mat4) error {
	for name := range bones {
		if _, ok := c.joints[name]; !ok {
			return fmt.Errorf("%w: bone %q", ErrUnknownJoint, name)
		}
	}

	for s := range c.Spheres {
		c.Spheres[s].Delta = mgl64.Vec3{}
	}

	for name, transform := range bones {
		sphere := &c.Spheres[c.joints[name]]
		center := transform.Col(3).Vec3()
		sphere.Delta = center.Sub(sphere.Center)
		sphere.Center = center
	}

	for s := range c.Spheres {
		sphere := &c.Spheres[s]
		if !sphere.IsSegment() {
			continue
		}
		center := midpoint(c.Spheres[sphere.Parents[0]].Center, c.Spheres[sphere.Parents[1]].Center)
		sphere.Delta = center.Sub(sphere.Center)
		sphere.Center = center
	}

	return nil
}

// UpdateVertices replaces the body vertex positions, for bodies skinned on the CPU
func (c *Collider) UpdateVertices(vertices []mgl64.Vec3) error {
	if len(vertices) != len(c.vertices) {
		return fmt.Errorf("%w: got %d, want %d", ErrVertexCount, len(vertices), len(c.vertices))
	}

	copy(c.vertices, vertices)
	return nil
}

// Collide pushes the cloth nodes out of the body, and returns the contacts.
// The returned slice is only valid until the next call.
// Broad phase: cloth AABB against each sphere, then nodes inside the sphere;
// narrow phase: the owned triangle with the nearest vertex.
func (c *Collider) Collide(nodes []actor.Node, thickness float64, workersCount int) []Contact {
	box := actor.NodesAABB(nodes)

	if cap(c.touched) < len(nodes) {
		c.touched = make([]bool, len(nodes))
	}
	touched := c.touched[:len(nodes)]

	contacts := c.contacts[:0]
	for s := range c.Spheres {
		sphere := &c.Spheres[s]
		if len(sphere.Triangles) == 0 || !box.OverlapsSphere(sphere.Center, sphere.Radius) {
			continue
		}

		pipeline.Task(workersCount, len(nodes), func(j int) {
			touched[j] = c.collideNode(&nodes[j], sphere, thickness)
		})

		for j, hit := range touched {
			if hit {
				contacts = append(contacts, Contact{Node: j, Sphere: s})
			}
		}
	}

	c.contacts = contacts

	return contacts
}

func (c *Collider) collideNode(node *actor.Node, sphere *Sphere, thickness float64) bool {
	if node.IsPinned() {
		return false
	}
	if node.Position.Sub(sphere.Center).LenSqr() >= sphere.Radius*sphere.Radius {
		return false
	}

	triangle, vertex, distSq := c.nearestTriangle(sphere, node.Position)
	if triangle < 0 || distSq >= thickness*thickness {
		return false
	}

	tri := c.triangles[triangle]
	a, b, d := c.vertices[tri[0]], c.vertices[tri[1]], c.vertices[tri[2]]

	motion := node.Position.Sub(node.PreviousPosition)
	if motion.Len() > 0 {
		direction := motion.Normalize()
		if hit, ok := rayTriangle(a, b, d, node.PreviousPosition, direction); ok && hit.Sub(node.Position).Len() < thickness {
			shift := node.PreviousPosition.Sub(hit)
			if shift.Len() > 0 {
				shift = shift.Normalize()
			} else {
				shift = direction.Mul(-1)
			}

			node.Position = hit.Add(shift.Mul(thickness))
			node.Velocity = node.Velocity.Mul(0.5)
			return true
		}
	}

	away := node.Position.Sub(vertex)
	if away.Len() > 0 {
		away = away.Normalize()
	} else {
		away = triangleNormal(a, b, d)
	}

	node.Position = vertex.Add(away.Mul(thickness))
	node.Velocity = node.Velocity.Mul(0.5)
	return true
}

// nearestTriangle returns the owned triangle whose nearest vertex is the closest to point,
// -1 when the sphere owns nothing
func (c *Collider) nearestTriangle(sphere *Sphere, point mgl64.Vec3) (int, mgl64.Vec3, float64) {
	best := -1
	var bestVertex mgl64.Vec3
	var bestSq float64

	for _, t := range sphere.Triangles {
		vertex, distSq := nearestVertex(c.vertices, c.triangles[t], point)
		if best < 0 || distSq < bestSq {
			best = t
			bestVertex = vertex
			bestSq = distSq
		}
	}

	return best, bestVertex, bestSq
}

func midpoint(a, b mgl64.Vec3) mgl64.Vec3 {
	return a.Add(b).Mul(0.5)
}
