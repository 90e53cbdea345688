package drape

import (
	"errors"
	"fmt"
	"strings"

	"github.com/akmonengine/drape/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// SolveSchedule selects how the distance constraints are solved within a substep
type SolveSchedule int

const (
	// ScheduleColoring solves the color sets one after the other, the constraints of a set in parallel
	ScheduleColoring SolveSchedule = iota
	// ScheduleJacobi evaluates every constraint against the same positions, then applies the relaxed sum
	ScheduleJacobi
	// ScheduleHybrid runs a few color sets, then a Jacobi pass over the remaining ones
	ScheduleHybrid
)

const (
	DEFAULT_ITERATIONS_PER_FRAME   = 30
	DEFAULT_STEP_TIME              = 1.0 / 60.0
	DEFAULT_JACOBI_RELAXATION      = 0.3
	DEFAULT_HYBRID_COLORING_PASSES = 4
	DEFAULT_GROUND_DAMPING         = 0.02
	DEFAULT_SELF_FRICTION          = 0.2
)

var (
	ErrUnknownSchedule = errors.New("unknown solve schedule")
	ErrInvalidSettings = errors.New("invalid settings")
)

var scheduleNames = map[SolveSchedule]string{
	ScheduleColoring: "coloring",
	ScheduleJacobi:   "jacobi",
	ScheduleHybrid:   "hybrid",
}

func (s SolveSchedule) String() string {
	if name, ok := scheduleNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SolveSchedule(%d)", int(s))
}

func (s SolveSchedule) MarshalText() ([]byte, error) {
	name, ok := scheduleNames[s]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSchedule, int(s))
	}
	return []byte(name), nil
}

func (s *SolveSchedule) UnmarshalText(text []byte) error {
	value := strings.ToLower(strings.TrimSpace(string(text)))
	for schedule, name := range scheduleNames {
		if name == value {
			*s = schedule
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownSchedule, string(text))
}

// Settings are read by World.Step, they may change between two ticks
type Settings struct {
	IterationsPerFrame int
	// StepTime is the simulated duration of one tick (seconds)
	StepTime float64
	Gravity  mgl64.Vec3

	Schedule             SolveSchedule
	JacobiRelaxation     float64
	HybridColoringPasses int

	GroundHeight  float64
	GroundDamping float64
	UpAxis        actor.Axis

	SelfCollision bool
	SelfFriction  float64

	// ComputeNormals refreshes the node normals at the end of each tick
	ComputeNormals bool
}

func DefaultSettings() Settings {
	return Settings{
		IterationsPerFrame:   DEFAULT_ITERATIONS_PER_FRAME,
		StepTime:             DEFAULT_STEP_TIME,
		Gravity:              mgl64.Vec3{0, 0, -9.81},
		Schedule:             ScheduleColoring,
		JacobiRelaxation:     DEFAULT_JACOBI_RELAXATION,
		HybridColoringPasses: DEFAULT_HYBRID_COLORING_PASSES,
		GroundDamping:        DEFAULT_GROUND_DAMPING,
		UpAxis:               actor.AxisZ,
		SelfCollision:        true,
		SelfFriction:         DEFAULT_SELF_FRICTION,
	}
}

// Validate reports the first setting that would make a tick meaningless
func (s Settings) Validate() error {
	switch {
	case s.IterationsPerFrame <= 0:
		return fmt.Errorf("%w: iterations per frame must be positive, got %d", ErrInvalidSettings, s.IterationsPerFrame)
	case !(s.StepTime > 0):
		return fmt.Errorf("%w: step time must be positive, got %v", ErrInvalidSettings, s.StepTime)
	case s.Schedule < ScheduleColoring || s.Schedule > ScheduleHybrid:
		return fmt.Errorf("%w: %w: %d", ErrInvalidSettings, ErrUnknownSchedule, int(s.Schedule))
	case s.UpAxis < actor.AxisX || s.UpAxis > actor.AxisZ:
		return fmt.Errorf("%w: up axis %d", ErrInvalidSettings, int(s.UpAxis))
	case s.Schedule != ScheduleColoring && !(s.JacobiRelaxation > 0):
		return fmt.Errorf("%w: jacobi relaxation must be positive, got %v", ErrInvalidSettings, s.JacobiRelaxation)
	case s.HybridColoringPasses < 0:
		return fmt.Errorf("%w: hybrid coloring passes must not be negative, got %d", ErrInvalidSettings, s.HybridColoringPasses)
	}
	return nil
}
