package sim

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/petri/components"
	"github.com/pthm-cable/petri/neural"
	"github.com/pthm-cable/petri/systems"
	"github.com/pthm-cable/petri/telemetry"
)

const obstaclePlacementAttempts = 50

func (w *World) placeObstacles() {
	for i := 0; i < w.cfg.Obstacles.Count; i++ {
		radius := w.rng.Range(w.cfg.Obstacles.MinRadius, w.cfg.Obstacles.MaxRadius)
		x := w.rng.Range(0, w.cfg.World.Width)
		y := w.rng.Range(0, w.cfg.World.Height)

		id := w.nextID
		w.nextID++
		w.obstacleMapper.NewEntity(
			&components.Position{X: x, Y: y},
			&components.Obstacle{ID: id, Radius: radius},
		)
	}
	w.rebuildObstacleGrid()
}

// spawnInitialPopulation fills the world with founders, using seed genomes
// when installed and minimal random genomes otherwise.
func (w *World) spawnInitialPopulation() {
	for i := 0; i < w.cfg.Population.Initial; i++ {
		w.spawnFounder(i)
	}
}

func (w *World) spawnFounder(i int) {
	var dna *neural.DNA
	if len(w.seeds) > 0 {
		dna = w.seeds[i%len(w.seeds)].Clone()
	} else {
		dna = w.founderDNA()
	}

	x := w.rng.Range(0, w.cfg.World.Width)
	y := w.rng.Range(0, w.cfg.World.Height)
	heading := w.rng.Range(0, 2*math.Pi)
	w.spawnCreature(dna, x, y, heading, w.cfg.Energy.Initial)
}

// founderDNA builds the default starting genome: vision, touch and energy
// sensing driving movement and eating.
func (w *World) founderDNA() *neural.DNA {
	sensors := []neural.Sensor{
		{Kind: neural.SensorRayVision, RayCount: 5, FOV: math.Pi / 2, MaxDistance: 120},
		{Kind: neural.SensorTouch},
		{Kind: neural.SensorEnergy},
	}
	actuators := []neural.Actuator{
		{Kind: neural.ActuatorMove},
		{Kind: neural.ActuatorEat},
	}
	return neural.NewDNA(0, sensors, actuators, w.lineage, w.rng)
}

// spawnCreature creates a live creature and compiles its brain.
func (w *World) spawnCreature(dna *neural.DNA, x, y, heading, energy float64) ecs.Entity {
	id := w.nextID
	w.nextID++

	entity := w.creatures.NewEntity(
		&components.Position{X: systems.Wrap(x, w.cfg.World.Width), Y: systems.Wrap(y, w.cfg.World.Height)},
		&components.Motion{Heading: heading},
		&components.Body{Radius: dna.BodyRadius},
		&components.Energy{Value: energy, Prev: energy, Alive: true},
		&components.Action{},
		&components.Genotype{ID: id, DNA: dna},
	)

	w.brains[id] = neural.NewRuntime(&dna.Brain)
	w.creatureCount++
	return entity
}

// spawnFood adds food up to the configured per-tick rate and cap. Fractional
// rates accumulate via a Bernoulli draw on the remainder.
func (w *World) spawnFood() {
	if w.foodCount >= w.cfg.Food.Cap {
		return
	}

	n := int(w.cfg.Food.SpawnPerTick)
	if frac := w.cfg.Food.SpawnPerTick - float64(n); frac > 0 && w.rng.Chance(frac) {
		n++
	}

	for i := 0; i < n && w.foodCount < w.cfg.Food.Cap; i++ {
		x, y, ok := w.foodPosition()
		if !ok {
			continue
		}
		nutrition := w.cfg.Food.Nutrition.Eval(w.exprVars(0, 0, 0, 0))
		w.addFood(x, y, nutrition)
	}
}

func (w *World) addFood(x, y, nutrition float64) {
	id := w.nextID
	w.nextID++
	w.foodMapper.NewEntity(
		&components.Position{X: systems.Wrap(x, w.cfg.World.Width), Y: systems.Wrap(y, w.cfg.World.Height)},
		&components.Food{ID: id, Nutrition: nutrition},
	)
	w.foodCount++
	w.record(telemetry.NewFoodSpawnEvent(w.tick, id, nutrition))
}

// foodPosition picks a spawn point, avoiding obstacles when configured.
func (w *World) foodPosition() (float64, float64, bool) {
	for attempt := 0; attempt < obstaclePlacementAttempts; attempt++ {
		x := w.rng.Range(0, w.cfg.World.Width)
		y := w.rng.Range(0, w.cfg.World.Height)
		if !w.cfg.Food.AvoidObstacles || !w.insideObstacle(x, y, w.cfg.Food.Radius) {
			return x, y, true
		}
	}
	return 0, 0, false
}

func (w *World) insideObstacle(x, y, radius float64) bool {
	candidates := w.obstacleGrid.QueryRadius(x, y, radius+w.cfg.Obstacles.MaxRadius)
	for _, e := range candidates {
		pos := w.posMap.Get(e)
		obst := w.obstMap.Get(e)
		if systems.CirclesOverlap(x, y, radius, pos.X, pos.Y, obst.Radius, w.cfg.World.Width, w.cfg.World.Height) {
			return true
		}
	}
	return false
}

// reseedIfNeeded injects fresh founders when the population collapses and
// returns how many were added.
func (w *World) reseedIfNeeded() int {
	if w.creatureCount >= w.cfg.Population.ReseedThreshold {
		return 0
	}
	n := w.cfg.Population.ReseedCount
	if max := w.cfg.Population.Max - w.creatureCount; n > max {
		n = max
	}
	if n <= 0 {
		return 0
	}
	for i := 0; i < n; i++ {
		w.spawnFounder(i)
	}
	return n
}
