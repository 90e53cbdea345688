package constraint

import (
	"errors"
	"fmt"

	"github.com/akmonengine/drape/actor"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// DefaultStretchingCompliance keeps the structural edges inextensible
	DefaultStretchingCompliance = 0.0
	// DefaultBendingCompliance controls how easily the cloth folds.
	// Lower values = stiffer cloth, higher values = softer folds
	DefaultBendingCompliance = 0.03
)

var ErrNodeIndexOutOfRange = errors.New("node index out of range")

// Kind tags the role of a constraint, for diagnostics only
type Kind int

const (
	KindStretch Kind = iota
	KindBend
)

func (k Kind) String() string {
	switch k {
	case KindStretch:
		return "stretch"
	case KindBend:
		return "bend"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Distance keeps two nodes at their rest distance
type Distance struct {
	A, B       int
	RestLength float64
	Compliance float64
	Kind       Kind
}

// NewDistance creates a constraint whose rest length is the current distance between a and b
func NewDistance(nodes []actor.Node, a, b int, compliance float64, kind Kind) (Distance, error) {
	if a < 0 || a >= len(nodes) || b < 0 || b >= len(nodes) {
		return Distance{}, fmt.Errorf("%w: (%d, %d) with %d nodes", ErrNodeIndexOutOfRange, a, b, len(nodes))
	}

	return Distance{
		A:          a,
		B:          b,
		RestLength: nodes[a].Position.Sub(nodes[b].Position).Len(),
		Compliance: compliance,
		Kind:       kind,
	}, nil
}

// Correction computes the XPBD position deltas of both endpoints, without writing them.
// ok is false when the constraint has nothing to do: both nodes pinned, or overlapping.
func (c *Distance) Correction(nodes []actor.Node, dt float64) (deltaA, deltaB mgl64.Vec3, ok bool) {
	nodeA := &nodes[c.A]
	nodeB := &nodes[c.B]

	wA := nodeA.InverseMass
	wB := nodeB.InverseMass
	totalWeight := wA + wB
	if totalWeight == 0 {
		return deltaA, deltaB, false
	}

	d := nodeA.Position.Sub(nodeB.Position)
	length := d.Len()
	if length == 0 {
		return deltaA, deltaB, false
	}

	alphaTilde := c.Compliance / (dt * dt)
	lambda := -(length - c.RestLength) / (totalWeight + alphaTilde)

	direction := d.Mul(1.0 / length)
	deltaA = direction.Mul(lambda * wA)
	deltaB = direction.Mul(-lambda * wB)

	return deltaA, deltaB, true
}

// SolvePosition moves both endpoints immediately (Gauss-Seidel style)
func (c *Distance) SolvePosition(nodes []actor.Node, dt float64) {
	deltaA, deltaB, ok := c.Correction(nodes, dt)
	if !ok {
		return
	}

	nodes[c.A].Position = nodes[c.A].Position.Add(deltaA)
	nodes[c.B].Position = nodes[c.B].Position.Add(deltaB)
}

// Error returns the signed violation of the constraint
func (c *Distance) Error(nodes []actor.Node) float64 {
	return nodes[c.A].Position.Sub(nodes[c.B].Position).Len() - c.RestLength
}
