package sim

import (
	"log/slog"

	"github.com/pthm-cable/petri/components"
	"github.com/pthm-cable/petri/neural"
	"github.com/pthm-cable/petri/rng"
	"github.com/pthm-cable/petri/telemetry"
)

// Snapshot captures the complete world state between ticks. Entities are
// recorded in world iteration order so that restoring recreates them in the
// same order; combined with the PRNG state and counters this makes a restored
// run bit-identical to an uninterrupted one.
func (w *World) Snapshot() *telemetry.Snapshot {
	snap := &telemetry.Snapshot{
		Tick:             w.tick,
		Config:           w.cfg,
		RNGState:         w.rng.State(),
		NextID:           w.nextID,
		BrainAccumulator: w.brainAcc,
		NextSpeciesID:    w.speciator.NextID,
		Species:          w.speciator.Species,
		Collector:        w.collector.State(),
	}
	snap.InnovationNext, snap.Innovations = w.lineage.Export()

	query := w.filter.Query()
	for query.Next() {
		pos, motion, _, energy, action, geno := query.Get()
		state := telemetry.CreatureState{
			ID:             geno.ID,
			X:              pos.X,
			Y:              pos.Y,
			Heading:        motion.Heading,
			Speed:          motion.Speed,
			AngularSpeed:   motion.AngularSpeed,
			Energy:         energy.Value,
			PrevEnergy:     energy.Prev,
			Age:            energy.Age,
			AttackCooldown: action.AttackCooldown,
			ReproCooldown:  action.ReproCooldown,
			Attacking:      action.Attacking,
			Eating:         action.Eating,
			Donating:       action.Donating,
			Broadcasting:   action.Broadcasting,
			Channel:        action.Channel,
			SpeciesID:      geno.SpeciesID,
			DNA:            geno.DNA,
		}
		if rt, ok := w.brains[geno.ID]; ok {
			state.Weights = rt.Weights()
		}
		snap.Creatures = append(snap.Creatures, state)
	}

	foodQuery := w.foodFilter.Query()
	for foodQuery.Next() {
		pos, food := foodQuery.Get()
		snap.Food = append(snap.Food, telemetry.FoodState{
			ID: food.ID, X: pos.X, Y: pos.Y, Nutrition: food.Nutrition,
		})
	}

	obstQuery := w.obstacleFilter.Query()
	for obstQuery.Next() {
		pos, obst := obstQuery.Get()
		snap.Obstacles = append(snap.Obstacles, telemetry.ObstacleState{
			ID: obst.ID, X: pos.X, Y: pos.Y, Radius: obst.Radius,
		})
	}

	return snap
}

// LoadWorld reconstructs a world from a snapshot. Spatial indices are rebuilt
// and the simulation continues bit-identically from the recorded tick.
func LoadWorld(snap *telemetry.Snapshot, log *slog.Logger) *World {
	cfg := snap.Config
	cfg.Finalize()

	w := newEmptyWorld(cfg, log)
	w.rng = rng.New(0)
	w.rng.SetState(snap.RNGState)
	w.tick = snap.Tick
	w.nextID = snap.NextID
	w.brainAcc = snap.BrainAccumulator

	w.lineage.Import(snap.InnovationNext, snap.Innovations)
	w.speciator.NextID = snap.NextSpeciesID
	w.speciator.Species = snap.Species
	w.collector.Restore(snap.Collector)

	for _, o := range snap.Obstacles {
		w.obstacleMapper.NewEntity(
			&components.Position{X: o.X, Y: o.Y},
			&components.Obstacle{ID: o.ID, Radius: o.Radius},
		)
	}
	w.rebuildObstacleGrid()

	for _, c := range snap.Creatures {
		w.creatures.NewEntity(
			&components.Position{X: c.X, Y: c.Y},
			&components.Motion{Heading: c.Heading, Speed: c.Speed, AngularSpeed: c.AngularSpeed},
			&components.Body{Radius: c.DNA.BodyRadius},
			&components.Energy{Value: c.Energy, Prev: c.PrevEnergy, Age: c.Age, Alive: true},
			&components.Action{
				AttackCooldown: c.AttackCooldown,
				ReproCooldown:  c.ReproCooldown,
				Attacking:      c.Attacking,
				Eating:         c.Eating,
				Donating:       c.Donating,
				Broadcasting:   c.Broadcasting,
				Channel:        c.Channel,
			},
			&components.Genotype{ID: c.ID, DNA: c.DNA, SpeciesID: c.SpeciesID},
		)
		rt := neural.NewRuntime(&c.DNA.Brain)
		if len(c.Weights) > 0 {
			rt.SetWeights(c.Weights)
		}
		w.brains[c.ID] = rt
		w.creatureCount++
	}

	for _, f := range snap.Food {
		w.foodMapper.NewEntity(
			&components.Position{X: f.X, Y: f.Y},
			&components.Food{ID: f.ID, Nutrition: f.Nutrition},
		)
		w.foodCount++
	}

	w.rebuildGrids()
	w.log.Debug("world restored", "tick", w.tick, "population", w.creatureCount)
	return w
}
