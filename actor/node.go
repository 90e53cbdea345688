package actor

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Axis indexes a component of a position
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

var ErrInvalidMass = errors.New("node mass must be positive and finite")

// Node represents a single cloth particle
type Node struct {
	// Spatial properties
	Position         mgl64.Vec3
	PreviousPosition mgl64.Vec3
	// NaturalPosition is the position at creation time. It is only used to
	// compute the rest distance between two nodes during self collisions.
	NaturalPosition mgl64.Vec3

	Velocity mgl64.Vec3 // m/s

	// Correction accumulates the Jacobi position deltas of one solve pass
	Correction mgl64.Vec3
	// Normal is only meaningful for rendering
	Normal mgl64.Vec3

	Mass        float64
	InverseMass float64 // 0 when pinned
	Thickness   float64 // collision diameter

	// Neighbours are the candidate self collision partners, rebuilt every tick
	Neighbours []int
}

// NewNode creates a free node at rest
func NewNode(position mgl64.Vec3, mass float64, thickness float64) (Node, error) {
	if err := validateMass(mass); err != nil {
		return Node{}, err
	}

	return Node{
		Position:         position,
		PreviousPosition: position,
		NaturalPosition:  position,
		Mass:             mass,
		InverseMass:      1.0 / mass,
		Thickness:        thickness,
	}, nil
}

func validateMass(mass float64) error {
	if mass <= 0 || math.IsNaN(mass) || math.IsInf(mass, 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidMass, mass)
	}
	return nil
}

// IsPinned reports whether the node has infinite mass
func (n *Node) IsPinned() bool {
	return n.InverseMass == 0
}

// Pin gives the node an infinite mass, it will only move through MoveTo
func (n *Node) Pin() {
	n.Mass = math.Inf(1)
	n.InverseMass = 0
	n.Velocity = mgl64.Vec3{}
}

// Unpin restores a finite mass
func (n *Node) Unpin(mass float64) error {
	if err := validateMass(mass); err != nil {
		return err
	}

	n.Mass = mass
	n.InverseMass = 1.0 / mass
	return nil
}

// MoveTo teleports the node, without introducing any velocity
func (n *Node) MoveTo(position mgl64.Vec3) {
	n.Position = position
	n.PreviousPosition = position
}

// Predict integrates gravity and moves the node to its predicted position.
// The speed is clamped to maxVelocity so that a node can never travel further
// than the self collision search radius.
func (n *Node) Predict(dt float64, gravity mgl64.Vec3, maxVelocity float64) {
	if n.IsPinned() {
		return
	}

	n.Velocity = n.Velocity.Add(gravity.Mul(dt))
	if maxVelocity > 0 {
		speed := n.Velocity.Len()
		if speed > maxVelocity {
			n.Velocity = n.Velocity.Mul(maxVelocity / speed)
		}
	}

	n.PreviousPosition = n.Position
	n.Position = n.Position.Add(n.Velocity.Mul(dt))
}

// SolveGround keeps the node above the floor plane located at height along axis
func (n *Node) SolveGround(axis Axis, height float64, damping float64) {
	if n.IsPinned() {
		return
	}

	floor := height + 0.5*n.Thickness
	if n.Position[axis] >= floor {
		return
	}

	diff := n.Position.Sub(n.PreviousPosition)
	n.Position = n.Position.Add(diff.Mul(-damping))
	n.Position[axis] = floor
}

// ApplyCorrection commits a fraction of the accumulated Jacobi correction
func (n *Node) ApplyCorrection(relaxation float64) {
	if !n.IsPinned() {
		n.Position = n.Position.Add(n.Correction.Mul(relaxation))
	}
	n.Correction = mgl64.Vec3{}
}

// UpdateVelocity derives the velocity from the displacement of the substep
func (n *Node) UpdateVelocity(dt float64) {
	if n.IsPinned() {
		return
	}

	n.Velocity = n.Position.Sub(n.PreviousPosition).Mul(1.0 / dt)
}

// Distance returns the euclidean distance between two nodes
func (n *Node) Distance(other *Node) float64 {
	return n.Position.Sub(other.Position).Len()
}
