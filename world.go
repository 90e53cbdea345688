package drape

import (
	"github.com/akmonengine/drape/bvh"
	"github.com/akmonengine/drape/internal/pipeline"
	"go.uber.org/zap"
)

const (
	DEFAULT_WORKERS = 1
	// DEFAULT_GRID_SPACING_FACTOR scales the node thickness into the grid cell size
	DEFAULT_GRID_SPACING_FACTOR = 2.0
)

type World struct {
	Cloth *Cloth
	// Body is optional, the cloth then only collides with itself and the ground
	Body        *bvh.Collider
	SpatialGrid *SpatialGrid
	Workers     int
	Logger      *zap.Logger

	Events Events

	ticks        uint64
	jacobiDeltas []jacobiDelta
}

// NewWorld creates a world simulating cloth, with a grid sized for its nodes.
// A nil logger disables logging.
func NewWorld(cloth *Cloth, body *bvh.Collider, logger *zap.Logger) *World {
	if logger == nil {
		logger = zap.NewNop()
	}

	w := &World{
		Cloth:       cloth,
		Body:        body,
		SpatialGrid: NewSpatialGrid(DEFAULT_GRID_SPACING_FACTOR*cloth.Thickness, len(cloth.Nodes), len(cloth.Nodes)),
		Workers:     DEFAULT_WORKERS,
		Logger:      logger,
		Events:      NewEvents(),
	}

	logger.Info("world created",
		zap.Int("nodes", len(cloth.Nodes)),
		zap.Int("constraints", cloth.ConstraintCount()),
		zap.Int("colors", cloth.Coloring.Len()),
		zap.Float64("thickness", cloth.Thickness),
		zap.Bool("body", body != nil),
	)

	return w
}

// Ticks returns the number of completed steps
func (w *World) Ticks() uint64 {
	return w.ticks
}

// Pin pins the node i, and emits an ON_PIN event at the end of the next step
func (w *World) Pin(i int) error {
	if err := w.Cloth.Pin(i); err != nil {
		return err
	}
	w.Events.emitPin(i)
	return nil
}

// Unpin unpins the node i, and emits an ON_UNPIN event at the end of the next step
func (w *World) Unpin(i int) error {
	if err := w.Cloth.Unpin(i); err != nil {
		return err
	}
	w.Events.emitUnpin(i)
	return nil
}

// Step advances the simulation by s.StepTime, split into s.IterationsPerFrame substeps.
// Invalid settings skip the step.
func (w *World) Step(s Settings) {
	if w.Logger == nil {
		w.Logger = zap.NewNop()
	}
	if err := s.Validate(); err != nil {
		w.Logger.Warn("step skipped", zap.Error(err))
		return
	}
	if w.Cloth == nil || len(w.Cloth.Nodes) == 0 {
		return
	}
	w.Workers = max(DEFAULT_WORKERS, w.Workers)

	nodes := w.Cloth.Nodes
	thickness := w.Cloth.Thickness
	h := s.StepTime / float64(s.IterationsPerFrame)
	// a node never travels more than half its thickness per substep
	maxVelocity := 0.5 * thickness / h
	maxTravel := maxVelocity * s.StepTime

	if s.SelfCollision {
		if w.SpatialGrid == nil {
			w.SpatialGrid = NewSpatialGrid(DEFAULT_GRID_SPACING_FACTOR*thickness, len(nodes), len(nodes))
		}
		w.SpatialGrid.Rebuild(nodes, w.Workers)
		w.SpatialGrid.QueryAll(nodes, maxTravel, w.Workers)
	}

	// the body has not been posed before the first tick
	collideBody := w.Body != nil && w.ticks > 0
	recordContacts := collideBody && w.Events.hasContactListeners()
	contacts := 0

	for range s.IterationsPerFrame {
		w.predict(s, h, maxVelocity)
		w.solveGround(s)
		w.solveConstraints(s, h)

		if s.SelfCollision {
			solveSelfCollisions(nodes, thickness, s.SelfFriction)
		}

		if collideBody {
			c := w.Body.Collide(nodes, thickness, w.Workers)
			contacts += len(c)
			if recordContacts {
				w.Events.recordContacts(c)
			}
		}

		w.updateVelocity(h)
	}

	if s.ComputeNormals {
		w.Cloth.ComputeNormals()
	}
	w.ticks++

	if ce := w.Logger.Check(zap.DebugLevel, "tick"); ce != nil {
		ce.Write(
			zap.Uint64("tick", w.ticks),
			zap.Stringer("schedule", s.Schedule),
			zap.Int("substeps", s.IterationsPerFrame),
			zap.Float64("max_travel", maxTravel),
			zap.Int("body_contacts", contacts),
		)
	}

	w.Events.flush()
}

func (w *World) predict(s Settings, h float64, maxVelocity float64) {
	nodes := w.Cloth.Nodes
	pipeline.Task(w.Workers, len(nodes), func(i int) {
		nodes[i].Predict(h, s.Gravity, maxVelocity)
	})
}

func (w *World) updateVelocity(h float64) {
	nodes := w.Cloth.Nodes
	pipeline.Task(w.Workers, len(nodes), func(i int) {
		nodes[i].UpdateVelocity(h)
	})
}
