package drape

import (
	"github.com/akmonengine/drape/constraint"
	"github.com/akmonengine/drape/internal/pipeline"
	"github.com/go-gl/mathgl/mgl64"
)

// jacobiDelta stores the correction of one constraint, before the scatter
type jacobiDelta struct {
	a, b mgl64.Vec3
}

func (w *World) solveConstraints(s Settings, h float64) {
	coloring := &w.Cloth.Coloring

	switch s.Schedule {
	case ScheduleJacobi:
		w.solveJacobi(coloring.Constraints, h, s.JacobiRelaxation)
	case ScheduleHybrid:
		passes := min(s.HybridColoringPasses, coloring.Len())
		for i := 0; i < passes; i++ {
			w.solveColorSet(coloring.Set(i), h)
		}
		w.solveJacobi(coloring.From(passes), h, s.JacobiRelaxation)
	default:
		for i := 0; i < coloring.Len(); i++ {
			w.solveColorSet(coloring.Set(i), h)
		}
	}
}

// solveColorSet solves the constraints of a set in parallel, they never share a node
func (w *World) solveColorSet(set []constraint.Distance, h float64) {
	nodes := w.Cloth.Nodes
	pipeline.Task(w.Workers, len(set), func(i int) {
		set[i].SolvePosition(nodes, h)
	})
}

// solveJacobi evaluates every constraint against the same positions.
// Deltas are computed in parallel, summed per node sequentially, then relaxed and applied.
func (w *World) solveJacobi(constraints []constraint.Distance, h float64, relaxation float64) {
	if len(constraints) == 0 {
		return
	}

	nodes := w.Cloth.Nodes
	if cap(w.jacobiDeltas) < len(constraints) {
		w.jacobiDeltas = make([]jacobiDelta, len(constraints))
	}
	deltas := w.jacobiDeltas[:len(constraints)]

	pipeline.Task(w.Workers, len(constraints), func(i int) {
		deltaA, deltaB, ok := constraints[i].Correction(nodes, h)
		if !ok {
			deltas[i] = jacobiDelta{}
			return
		}
		deltas[i] = jacobiDelta{a: deltaA, b: deltaB}
	})

	for i := range constraints {
		a, b := constraints[i].A, constraints[i].B
		nodes[a].Correction = nodes[a].Correction.Add(deltas[i].a)
		nodes[b].Correction = nodes[b].Correction.Add(deltas[i].b)
	}

	pipeline.Task(w.Workers, len(nodes), func(i int) {
		nodes[i].ApplyCorrection(relaxation)
	})
}
