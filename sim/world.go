// Package sim implements the simulation world: deterministic tick stepping,
// sensing, actuation, interactions, lifecycle and snapshots.
package sim

import (
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/petri/components"
	"github.com/pthm-cable/petri/config"
	"github.com/pthm-cable/petri/neural"
	"github.com/pthm-cable/petri/rng"
	"github.com/pthm-cable/petri/systems"
	"github.com/pthm-cable/petri/telemetry"
)

// Kinematic limits applied when mapping brain outputs onto movement.
const (
	MaxSpeed      = 2.0 // world units per tick
	MaxTurnRate   = 0.2 // radians per tick
	ReverseFactor = 0.5 // reverse speed fraction of forward
)

type creatureMapper = ecs.Map6[
	components.Position,
	components.Motion,
	components.Body,
	components.Energy,
	components.Action,
	components.Genotype,
]

type creatureFilter = ecs.Filter6[
	components.Position,
	components.Motion,
	components.Body,
	components.Energy,
	components.Action,
	components.Genotype,
]

// World holds the complete simulation state. A World must only be stepped
// from a single goroutine; step() is one deterministic function of (state,
// PRNG stream) and never consults the wall clock.
type World struct {
	cfg *config.Config
	rng *rng.Source
	log *slog.Logger

	world *ecs.World

	creatures *creatureMapper
	filter    *creatureFilter

	foodMapper *ecs.Map2[components.Position, components.Food]
	foodFilter *ecs.Filter2[components.Position, components.Food]

	obstacleMapper *ecs.Map2[components.Position, components.Obstacle]
	obstacleFilter *ecs.Filter2[components.Position, components.Obstacle]

	// Individual component mappers for lookups
	posMap    *ecs.Map1[components.Position]
	motionMap *ecs.Map1[components.Motion]
	bodyMap   *ecs.Map1[components.Body]
	energyMap *ecs.Map1[components.Energy]
	actionMap *ecs.Map1[components.Action]
	genoMap   *ecs.Map1[components.Genotype]
	foodMap   *ecs.Map1[components.Food]
	obstMap   *ecs.Map1[components.Obstacle]

	// Brain runtimes by creature id
	brains map[uint64]*neural.Runtime

	lineage   *neural.Lineage
	speciator *neural.Speciator

	creatureGrid *systems.SpatialHash[ecs.Entity]
	foodGrid     *systems.SpatialHash[ecs.Entity]
	obstacleGrid *systems.SpatialHash[ecs.Entity]

	collector *telemetry.Collector
	events    []telemetry.Event

	// Optional founder genomes used for initial population and reseeding.
	seeds []*neural.DNA

	tick          int64
	nextID        uint64
	brainAcc      float64
	creatureCount int
	foodCount     int

	pendingDeaths []deathInfo
	pendingBirths []birthInfo
}

type deathInfo struct {
	entity ecs.Entity
	id     uint64
	cause  telemetry.DeathCause
	energy float64
	x, y   float64
}

type birthInfo struct {
	parent ecs.Entity
	id     uint64 // parent id
}

// Metrics are the aggregates returned by Step.
type Metrics struct {
	Tick       int64
	Population int
	FoodCount  int
	Species    int
	MeanEnergy float64
	MeanAge    float64
	Births     int
	Deaths     int
	Reseeded   int

	// Stats is non-nil when a telemetry window closed this tick.
	Stats *telemetry.TickStats
}

// NewWorld creates a world from config and seed, places obstacles, and spawns
// the initial population. Founder genomes, when given, seed the initial
// population round-robin instead of random minimal genomes.
func NewWorld(cfg *config.Config, seed uint32, log *slog.Logger, seeds ...*neural.DNA) *World {
	w := newEmptyWorld(cfg, log)
	w.rng = rng.New(seed)
	w.seeds = seeds

	w.placeObstacles()
	w.spawnInitialPopulation()
	w.rebuildGrids()

	w.log.Debug("world initialized", "seed", seed, "obstacles", cfg.Obstacles.Count, "population", w.creatureCount)
	return w
}

func newEmptyWorld(cfg *config.Config, log *slog.Logger) *World {
	if log == nil {
		log = slog.Default()
	}
	world := ecs.NewWorld()

	w := &World{
		cfg:   cfg,
		log:   log,
		world: world,

		creatures: ecs.NewMap6[
			components.Position,
			components.Motion,
			components.Body,
			components.Energy,
			components.Action,
			components.Genotype,
		](world),
		filter: ecs.NewFilter6[
			components.Position,
			components.Motion,
			components.Body,
			components.Energy,
			components.Action,
			components.Genotype,
		](world),

		foodMapper: ecs.NewMap2[components.Position, components.Food](world),
		foodFilter: ecs.NewFilter2[components.Position, components.Food](world),

		obstacleMapper: ecs.NewMap2[components.Position, components.Obstacle](world),
		obstacleFilter: ecs.NewFilter2[components.Position, components.Obstacle](world),

		posMap:    ecs.NewMap1[components.Position](world),
		motionMap: ecs.NewMap1[components.Motion](world),
		bodyMap:   ecs.NewMap1[components.Body](world),
		energyMap: ecs.NewMap1[components.Energy](world),
		actionMap: ecs.NewMap1[components.Action](world),
		genoMap:   ecs.NewMap1[components.Genotype](world),
		foodMap:   ecs.NewMap1[components.Food](world),
		obstMap:   ecs.NewMap1[components.Obstacle](world),

		brains:  make(map[uint64]*neural.Runtime),
		lineage: neural.NewLineage(),
		speciator: neural.NewSpeciator(
			cfg.Speciation.C1,
			cfg.Speciation.C2,
			cfg.Speciation.C3,
			cfg.Speciation.Threshold,
			cfg.Speciation.StagnationLimit,
		),

		creatureGrid: systems.NewSpatialHash[ecs.Entity](cfg.World.Width, cfg.World.Height, cfg.World.GridCellSize),
		foodGrid:     systems.NewSpatialHash[ecs.Entity](cfg.World.Width, cfg.World.Height, cfg.World.GridCellSize),
		obstacleGrid: systems.NewSpatialHash[ecs.Entity](cfg.World.Width, cfg.World.Height, cfg.World.GridCellSize),

		collector: telemetry.NewCollector(int64(cfg.Telemetry.StatsInterval)),
		nextID:    1,
	}

	return w
}

// SetSeeds installs founder genomes used for reseeding. Must be called
// before the population next falls below the reseed threshold to take effect.
func (w *World) SetSeeds(seeds []*neural.DNA) {
	w.seeds = seeds
}

// Tick returns the current tick counter.
func (w *World) Tick() int64 { return w.tick }

// Population returns the live creature count.
func (w *World) Population() int { return w.creatureCount }

// Step advances the simulation by one tick and returns aggregate metrics.
// Never call Step concurrently or re-entrantly on the same World.
func (w *World) Step() Metrics {
	w.events = w.events[:0]
	w.spawnFood()

	w.brainAcc++
	brainsFire := w.brainAcc >= w.cfg.Derived.BrainPeriod
	if brainsFire {
		w.brainAcc = 0
	}

	w.updateCreatures(brainsFire)
	w.rebuildGrids()
	w.resolveInteractions()

	births, deaths, reseeded := w.applyLifecycle()

	if w.cfg.Speciation.Interval > 0 && w.tick%int64(w.cfg.Speciation.Interval) == 0 {
		w.speciate()
	}

	w.tick++
	return w.metrics(births, deaths, reseeded)
}

// Events returns the events recorded during the most recent Step, in the
// order they happened. The backing slice is reused across ticks; callers must
// copy what they want to keep.
func (w *World) Events() []telemetry.Event {
	return w.events
}

func (w *World) record(e telemetry.Event) {
	w.events = append(w.events, e)
	w.collector.Record(e)
}

func (w *World) metrics(births, deaths, reseeded int) Metrics {
	m := Metrics{
		Tick:       w.tick,
		Population: w.creatureCount,
		FoodCount:  w.foodCount,
		Species:    len(w.speciator.Species),
		Births:     births,
		Deaths:     deaths,
		Reseeded:   reseeded,
	}

	var energies, ages []float64
	query := w.filter.Query()
	for query.Next() {
		_, _, _, energy, _, _ := query.Get()
		energies = append(energies, energy.Value)
		ages = append(ages, float64(energy.Age))
	}
	for _, e := range energies {
		m.MeanEnergy += e
	}
	if len(energies) > 0 {
		m.MeanEnergy /= float64(len(energies))
	}
	for _, a := range ages {
		m.MeanAge += a
	}
	if len(ages) > 0 {
		m.MeanAge /= float64(len(ages))
	}

	if w.collector.WindowDue(w.tick) {
		stats := &telemetry.TickStats{}
		w.collector.Flush(w.tick, stats)
		stats.Sample(m.Population, m.FoodCount, m.Species, energies, ages)
		m.Stats = stats
	}

	return m
}

// rebuildGrids refreshes the creature and food indices from current
// positions. The obstacle grid is static after placement.
func (w *World) rebuildGrids() {
	w.creatureGrid.Clear()
	query := w.filter.Query()
	for query.Next() {
		pos, _, _, energy, _, _ := query.Get()
		if energy.Alive {
			w.creatureGrid.Insert(query.Entity(), pos.X, pos.Y)
		}
	}

	w.foodGrid.Clear()
	foodQuery := w.foodFilter.Query()
	for foodQuery.Next() {
		pos, _ := foodQuery.Get()
		w.foodGrid.Insert(foodQuery.Entity(), pos.X, pos.Y)
	}
}

func (w *World) rebuildObstacleGrid() {
	w.obstacleGrid.Clear()
	query := w.obstacleFilter.Query()
	for query.Next() {
		pos, _ := query.Get()
		w.obstacleGrid.Insert(query.Entity(), pos.X, pos.Y)
	}
}

// exprVars builds the variable context for config formulas.
func (w *World) exprVars(radius, energy float64, age int64, nutrition float64) map[string]float64 {
	return map[string]float64{
		"radius":     radius,
		"energy":     energy,
		"age":        float64(age),
		"nutrition":  nutrition,
		"population": float64(w.creatureCount),
	}
}
