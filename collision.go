package drape

import (
	"math"

	"github.com/akmonengine/drape/actor"
	"github.com/akmonengine/drape/internal/pipeline"
)

// solveGround keeps every node above the floor
func (w *World) solveGround(s Settings) {
	nodes := w.Cloth.Nodes
	pipeline.Task(w.Workers, len(nodes), func(i int) {
		nodes[i].SolveGround(s.UpAxis, s.GroundHeight, s.GroundDamping)
	})
}

// solveSelfCollisions pushes apart the neighbours closer than thickness.
// It is sequential: a pair writes two nodes, and a node belongs to many pairs.
func solveSelfCollisions(nodes []actor.Node, thickness float64, friction float64) {
	thicknessSq := thickness * thickness

	for i := range nodes {
		nodeA := &nodes[i]
		if nodeA.IsPinned() {
			continue
		}

		for _, j := range nodeA.Neighbours {
			nodeB := &nodes[j]
			if nodeB.IsPinned() {
				continue
			}

			diff := nodeB.Position.Sub(nodeA.Position)
			distSq := diff.LenSqr()
			if distSq > thicknessSq || distSq == 0 {
				continue
			}

			// pairs at or beyond their rest distance are left to the constraints
			naturalDistSq := nodeA.NaturalPosition.Sub(nodeB.NaturalPosition).LenSqr()
			if distSq >= naturalDistSq {
				continue
			}

			minDist := thickness
			if naturalDistSq < thicknessSq {
				minDist = math.Sqrt(naturalDistSq)
			}

			dist := math.Sqrt(distSq)
			correction := diff.Mul((minDist - dist) / dist)
			nodeA.Position = nodeA.Position.Sub(correction.Mul(0.5))
			nodeB.Position = nodeB.Position.Add(correction.Mul(0.5))

			// friction, both nodes move towards their average displacement
			displacementA := nodeA.Position.Sub(nodeA.PreviousPosition)
			displacementB := nodeB.Position.Sub(nodeB.PreviousPosition)
			average := displacementA.Add(displacementB).Mul(0.5)

			nodeA.Position = nodeA.Position.Add(average.Sub(displacementA).Mul(friction))
			nodeB.Position = nodeB.Position.Add(average.Sub(displacementB).Mul(friction))
		}
	}
}
