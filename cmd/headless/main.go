// Package main runs the simulation without a display: step the world for a
// fixed number of ticks, stream stats to CSV, and optionally save or resume
// snapshots.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pthm-cable/petri/config"
	"github.com/pthm-cable/petri/neural"
	"github.com/pthm-cable/petri/sim"
	"github.com/pthm-cable/petri/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Config YAML file (empty = use defaults)")
	seed := flag.Uint("seed", 42, "PRNG seed")
	ticks := flag.Int64("ticks", 100000, "Number of ticks to simulate")
	outputDir := flag.String("output", "", "Output directory (empty = config default)")
	resume := flag.String("resume", "", "Snapshot file to resume from")
	snapshotEvery := flag.Int64("snapshot-every", 0, "Ticks between snapshots (0 = none)")
	seedGenomes := flag.String("seed-genomes", "", "JSON file of founder genomes")
	verbose := flag.Bool("v", false, "Debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Cfg()
	if *outputDir != "" {
		cfg.Telemetry.OutputDir = *outputDir
	}

	var seeds []*neural.DNA
	if *seedGenomes != "" {
		var err error
		seeds, err = loadSeedGenomes(*seedGenomes)
		if err != nil {
			log.Fatalf("failed to load seed genomes: %v", err)
		}
		logger.Info("loaded seed genomes", "count", len(seeds))
	}

	var world *sim.World
	if *resume != "" {
		snap, err := telemetry.LoadSnapshot(*resume)
		if err != nil {
			log.Fatalf("failed to load snapshot: %v", err)
		}
		world = sim.LoadWorld(snap, logger)
		world.SetSeeds(seeds)
		cfg = snap.Config
		logger.Info("resumed from snapshot", "path", *resume, "tick", world.Tick())
	} else {
		world = sim.NewWorld(cfg, uint32(*seed), logger, seeds...)
	}

	output, err := telemetry.NewOutputManager(cfg.Telemetry.OutputDir)
	if err != nil {
		log.Fatalf("failed to create output: %v", err)
	}
	defer output.Close()

	if err := output.WriteConfig(cfg); err != nil {
		logger.Warn("failed to write config copy", "error", err)
	}

	end := world.Tick() + *ticks
	for world.Tick() < end {
		m := world.Step()

		if m.Stats != nil {
			logger.Info("stats", "window", *m.Stats)
			if err := output.WriteStats(*m.Stats); err != nil {
				logger.Warn("failed to write stats", "error", err)
			}
		}

		if *snapshotEvery > 0 && m.Tick%*snapshotEvery == 0 {
			name := "snapshot.json"
			if err := output.WriteSnapshot(world.Snapshot(), name); err != nil {
				logger.Warn("failed to write snapshot", "error", err)
			} else {
				logger.Debug("snapshot saved", "tick", m.Tick, "path", filepath.Join(output.Dir(), name))
			}
		}

		if m.Reseeded > 0 {
			logger.Info("population reseeded", "tick", m.Tick, "count", m.Reseeded)
		}
		if m.Population == 0 {
			logger.Warn("population extinct", "tick", m.Tick)
		}
	}

	final := world.Snapshot()
	if output.Dir() != "" {
		if err := output.WriteSnapshot(final, "final.json"); err != nil {
			logger.Error("failed to write final snapshot", "error", err)
		}
	}
	logger.Info("run complete", "tick", world.Tick(), "population", world.Population())
}

// loadSeedGenomes reads a JSON array of founder genomes.
func loadSeedGenomes(path string) ([]*neural.DNA, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var seeds []*neural.DNA
	if err := json.Unmarshal(data, &seeds); err != nil {
		return nil, err
	}
	return seeds, nil
}
