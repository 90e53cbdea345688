// Package config handles simulation configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/akmonengine/drape"
	"github.com/akmonengine/drape/actor"
	"github.com/akmonengine/drape/bvh"
	"github.com/akmonengine/drape/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config holds all simulation settings.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Cloth      ClothConfig      `yaml:"cloth"`
	Grid       GridConfig       `yaml:"grid"`
	Body       BodyConfig       `yaml:"body"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// SimulationConfig holds the solver settings read at every tick.
type SimulationConfig struct {
	IterationsPerFrame   int                 `yaml:"iterations_per_frame"`
	SimulationStepTime   float64             `yaml:"simulation_step_time"` // seconds
	Gravity              mgl64.Vec3          `yaml:"gravity"`
	SolveSchedule        drape.SolveSchedule `yaml:"solve_schedule"`
	JacobiRelaxation     float64             `yaml:"jacobi_relaxation"`
	HybridColoringPasses int                 `yaml:"hybrid_coloring_passes"`
	GroundHeight         float64             `yaml:"ground_height"`
	GroundDamping        float64             `yaml:"ground_damping"`
	UpAxis               string              `yaml:"up_axis"` // x, y or z
	SelfCollision        bool                `yaml:"self_collision"`
	Workers              int                 `yaml:"workers"`
}

// ClothConfig describes the square cloth and its material.
type ClothConfig struct {
	StretchingCompliance float64 `yaml:"stretching_compliance"`
	BendingCompliance    float64 `yaml:"bending_compliance"`
	NodeThickness        float64 `yaml:"node_thickness"` // 0 derives it from size and columns
	NodeMass             float64 `yaml:"node_mass"`
	SelfFriction         float64 `yaml:"self_friction"`
	Rows                 int     `yaml:"rows"`
	Columns              int     `yaml:"columns"`
	Size                 float64 `yaml:"size"`
	Height               float64 `yaml:"height"`
}

// GridConfig holds the self collision grid settings.
type GridConfig struct {
	SpacingFactor float64 `yaml:"spacing_factor"` // cell size in node thickness
	Cells         int     `yaml:"cells"`          // 0 uses one cell per node
}

// BodyConfig holds the bounding sphere construction settings.
type BodyConfig struct {
	InitialRadius  float64 `yaml:"initial_radius"`
	GrowthStep     float64 `yaml:"growth_step"`
	Margin         float64 `yaml:"margin"`
	MaxGrowthSteps int     `yaml:"max_growth_steps"`
	RootJoint      string  `yaml:"root_joint"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	settings := drape.DefaultSettings()
	square := drape.DefaultSquareOptions()
	body := bvh.DefaultOptions()

	return &Config{
		Simulation: SimulationConfig{
			IterationsPerFrame:   settings.IterationsPerFrame,
			SimulationStepTime:   settings.StepTime,
			Gravity:              settings.Gravity,
			SolveSchedule:        settings.Schedule,
			JacobiRelaxation:     settings.JacobiRelaxation,
			HybridColoringPasses: settings.HybridColoringPasses,
			GroundHeight:         settings.GroundHeight,
			GroundDamping:        settings.GroundDamping,
			UpAxis:               "z",
			SelfCollision:        settings.SelfCollision,
			Workers:              drape.DEFAULT_WORKERS,
		},
		Cloth: ClothConfig{
			StretchingCompliance: constraint.DefaultStretchingCompliance,
			BendingCompliance:    constraint.DefaultBendingCompliance,
			NodeMass:             square.Mass,
			SelfFriction:         settings.SelfFriction,
			Rows:                 square.Rows,
			Columns:              square.Columns,
			Size:                 square.Size,
			Height:               square.Height,
		},
		Grid: GridConfig{
			SpacingFactor: drape.DEFAULT_GRID_SPACING_FACTOR,
		},
		Body: BodyConfig{
			InitialRadius:  body.InitialRadius,
			GrowthStep:     body.GrowthStep,
			Margin:         body.Margin,
			MaxGrowthSteps: body.MaxGrowthSteps,
			RootJoint:      body.RootJoint,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

func parseAxis(axis string) (actor.Axis, error) {
	switch strings.ToLower(axis) {
	case "x":
		return actor.AxisX, nil
	case "y":
		return actor.AxisY, nil
	case "z":
		return actor.AxisZ, nil
	default:
		return 0, fmt.Errorf("%w: up_axis must be x, y or z, got %q", ErrInvalidConfig, axis)
	}
}

// Validate checks every value before a world is built.
func (c *Config) Validate() error {
	if err := c.Settings().Validate(); err != nil {
		return fmt.Errorf("%w: simulation: %w", ErrInvalidConfig, err)
	}
	if _, err := parseAxis(c.Simulation.UpAxis); err != nil {
		return err
	}
	if c.Simulation.Workers < 0 {
		return fmt.Errorf("%w: simulation.workers must not be negative, got %d", ErrInvalidConfig, c.Simulation.Workers)
	}

	switch {
	case c.Cloth.Rows < 2 || c.Cloth.Columns < 2:
		return fmt.Errorf("%w: cloth needs at least 2x2 nodes, got %dx%d", ErrInvalidConfig, c.Cloth.Rows, c.Cloth.Columns)
	case !(c.Cloth.Size > 0):
		return fmt.Errorf("%w: cloth.size must be positive, got %v", ErrInvalidConfig, c.Cloth.Size)
	case !(c.Cloth.NodeMass > 0):
		return fmt.Errorf("%w: cloth.node_mass must be positive, got %v", ErrInvalidConfig, c.Cloth.NodeMass)
	case c.Cloth.NodeThickness < 0:
		return fmt.Errorf("%w: cloth.node_thickness must not be negative, got %v", ErrInvalidConfig, c.Cloth.NodeThickness)
	case c.Cloth.StretchingCompliance < 0 || c.Cloth.BendingCompliance < 0:
		return fmt.Errorf("%w: compliances must not be negative", ErrInvalidConfig)
	case c.Cloth.SelfFriction < 0 || c.Cloth.SelfFriction > 1:
		return fmt.Errorf("%w: cloth.self_friction must be within [0, 1], got %v", ErrInvalidConfig, c.Cloth.SelfFriction)
	}

	switch {
	case !(c.Grid.SpacingFactor > 0):
		return fmt.Errorf("%w: grid.spacing_factor must be positive, got %v", ErrInvalidConfig, c.Grid.SpacingFactor)
	case c.Grid.Cells < 0:
		return fmt.Errorf("%w: grid.cells must not be negative, got %d", ErrInvalidConfig, c.Grid.Cells)
	}

	switch {
	case !(c.Body.InitialRadius > 0):
		return fmt.Errorf("%w: body.initial_radius must be positive, got %v", ErrInvalidConfig, c.Body.InitialRadius)
	case !(c.Body.GrowthStep > 0):
		return fmt.Errorf("%w: body.growth_step must be positive, got %v", ErrInvalidConfig, c.Body.GrowthStep)
	case c.Body.Margin < 0:
		return fmt.Errorf("%w: body.margin must not be negative, got %v", ErrInvalidConfig, c.Body.Margin)
	case c.Body.MaxGrowthSteps < 0:
		return fmt.Errorf("%w: body.max_growth_steps must not be negative, got %d", ErrInvalidConfig, c.Body.MaxGrowthSteps)
	}

	return nil
}

// Thickness returns the node thickness, derived from the cloth resolution when unset.
func (c *Config) Thickness() float64 {
	if c.Cloth.NodeThickness > 0 {
		return c.Cloth.NodeThickness
	}
	return drape.DefaultThickness(c.Cloth.Size, c.Cloth.Columns)
}

// Settings converts the simulation section into solver settings.
// An invalid up_axis falls back to Z, Validate reports it.
func (c *Config) Settings() drape.Settings {
	axis, err := parseAxis(c.Simulation.UpAxis)
	if err != nil {
		axis = actor.AxisZ
	}

	return drape.Settings{
		IterationsPerFrame:   c.Simulation.IterationsPerFrame,
		StepTime:             c.Simulation.SimulationStepTime,
		Gravity:              c.Simulation.Gravity,
		Schedule:             c.Simulation.SolveSchedule,
		JacobiRelaxation:     c.Simulation.JacobiRelaxation,
		HybridColoringPasses: c.Simulation.HybridColoringPasses,
		GroundHeight:         c.Simulation.GroundHeight,
		GroundDamping:        c.Simulation.GroundDamping,
		UpAxis:               axis,
		SelfCollision:        c.Simulation.SelfCollision,
		SelfFriction:         c.Cloth.SelfFriction,
	}
}

// SquareOptions converts the cloth section into square cloth options.
func (c *Config) SquareOptions() drape.SquareOptions {
	return drape.SquareOptions{
		Rows:                 c.Cloth.Rows,
		Columns:              c.Cloth.Columns,
		Size:                 c.Cloth.Size,
		Height:               c.Cloth.Height,
		Mass:                 c.Cloth.NodeMass,
		Thickness:            c.Thickness(),
		StretchingCompliance: c.Cloth.StretchingCompliance,
		BendingCompliance:    c.Cloth.BendingCompliance,
		PinCorners:           true,
	}
}

// BodyOptions converts the body section into collider options.
func (c *Config) BodyOptions() bvh.Options {
	return bvh.Options{
		InitialRadius:  c.Body.InitialRadius,
		GrowthStep:     c.Body.GrowthStep,
		Margin:         c.Body.Margin,
		MaxGrowthSteps: c.Body.MaxGrowthSteps,
		RootJoint:      c.Body.RootJoint,
	}
}

// SpatialGrid creates the self collision grid of a cloth.
func (c *Config) SpatialGrid(cloth *drape.Cloth) *drape.SpatialGrid {
	cells := c.Grid.Cells
	if cells == 0 {
		cells = len(cloth.Nodes)
	}
	return drape.NewSpatialGrid(c.Grid.SpacingFactor*cloth.Thickness, cells, len(cloth.Nodes))
}
