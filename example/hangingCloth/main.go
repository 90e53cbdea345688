package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/akmonengine/drape"
	"github.com/akmonengine/drape/bvh"
	"github.com/akmonengine/drape/config"
	"github.com/akmonengine/drape/internal/logger"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

var (
	flagConfig     = flag.String("config", "", "path to config file")
	flagDebug      = flag.Bool("debug", false, "enable debug logging")
	flagTicks      = flag.Int("ticks", 240, "number of ticks to simulate")
	flagDumpConfig = flag.String("dump-config", "", "write the effective config to this path and exit")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(*flagConfig)
	if err != nil {
		return err
	}
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}

	if *flagDumpConfig != "" {
		return cfg.SaveTo(*flagDumpConfig)
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.LogFile)
	if err != nil {
		return err
	}
	defer log.Close()

	cloth, err := drape.NewSquareCloth(cfg.SquareOptions())
	if err != nil {
		return fmt.Errorf("creating cloth: %w", err)
	}

	center := mgl64.Vec3{cfg.Cloth.Size / 2, cfg.Cloth.Size / 2, 0.8}
	body := newMannequin(center, 0.3, 1.6, 16, 6)

	bodyOpts := cfg.BodyOptions()
	bodyOpts.Logger = log.Named("body")
	collider, err := bvh.New(body.mesh, body.joints, body.segments, bodyOpts)
	if err != nil {
		return fmt.Errorf("creating body collider: %w", err)
	}

	world := drape.NewWorld(cloth, collider, log.Named("world"))
	world.Workers = cfg.Simulation.Workers
	world.SpatialGrid = cfg.SpatialGrid(cloth)

	contacts := 0
	world.Events.Subscribe(drape.CONTACT_ENTER, func(event drape.Event) {
		contacts++
	})
	world.Events.Subscribe(drape.ON_UNPIN, func(event drape.Event) {
		log.Info("corner released", zap.Int("node", event.(drape.UnpinEvent).Node))
	})

	settings := cfg.Settings()
	settings.ComputeNormals = true

	positions := make([]mgl64.Vec3, 0, cloth.RenderVertexCount())
	start := time.Now()

	for tick := 0; tick < *flagTicks; tick++ {
		// sway along X, with a two second period
		t := float64(tick) * settings.StepTime
		offset := mgl64.Vec3{0.2 * math.Sin(math.Pi*t), 0, 0}

		bones := body.pose(offset)
		if err := collider.Modify(bones); err != nil {
			return err
		}
		if err := collider.UpdateVertices(body.vertices); err != nil {
			return err
		}

		// drop the cloth on the shoulders after one second
		if tick == int(1/settings.StepTime) {
			for _, corner := range []int{0, cfg.Cloth.Columns - 1} {
				if err := world.Unpin(corner); err != nil {
					return err
				}
			}
		}

		world.Step(settings)
		positions = cloth.RenderPositions(positions[:0])

		if tick%60 == 0 {
			bounds := cloth.Bounds()
			log.Info("tick",
				zap.Uint64("tick", world.Ticks()),
				zap.Int("contacts_entered", contacts),
				zap.Float64("min_z", bounds.Min.Z()),
				zap.Float64("max_z", bounds.Max.Z()),
				zap.Int("render_vertices", len(positions)),
			)
		}
	}

	elapsed := time.Since(start)
	log.Info("simulation done",
		zap.Int("ticks", *flagTicks),
		zap.Duration("elapsed", elapsed),
		zap.Duration("per_tick", elapsed/time.Duration(max(1, *flagTicks))),
	)

	return nil
}
