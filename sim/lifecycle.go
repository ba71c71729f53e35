package sim

import (
	"math"

	"github.com/pthm-cable/petri/components"
	"github.com/pthm-cable/petri/neural"
	"github.com/pthm-cable/petri/telemetry"
)

// applyLifecycle spawns queued reproductions, removes queued deaths, and
// reseeds a collapsed population. Births are applied first so parent state
// can still be read; parents that died this tick are skipped.
func (w *World) applyLifecycle() (births, deaths, reseeded int) {
	dead := make(map[uint64]bool, len(w.pendingDeaths))
	for _, d := range w.pendingDeaths {
		dead[d.id] = true
	}
	births = w.applyBirths(dead)
	deaths = w.applyDeaths()
	reseeded = w.reseedIfNeeded()
	return births, deaths, reseeded
}

func (w *World) applyDeaths() int {
	for _, d := range w.pendingDeaths {
		w.record(telemetry.NewDeathEvent(w.tick, d.id, d.cause))
		w.dropCorpseFood(d)

		delete(w.brains, d.id)
		w.creatures.Remove(d.entity)
		w.creatureCount--
	}
	n := len(w.pendingDeaths)
	w.pendingDeaths = w.pendingDeaths[:0]
	return n
}

// dropCorpseFood returns part of the dead creature's energy to the world as
// food, capped in count. Starved creatures die at zero energy and drop
// nothing; killed creatures drop based on their energy before the fatal blow.
func (w *World) dropCorpseFood(d deathInfo) {
	if d.energy <= 0 || w.cfg.Death.FoodDropRatio <= 0 {
		return
	}

	nutrition := w.cfg.Food.Nutrition.Eval(w.exprVars(0, 0, 0, 0))
	if nutrition <= 0 {
		return
	}
	n := int(d.energy * w.cfg.Death.FoodDropRatio / nutrition)
	if n > w.cfg.Death.MaxFoodDrops {
		n = w.cfg.Death.MaxFoodDrops
	}

	for i := 0; i < n && w.foodCount < w.cfg.Food.Cap; i++ {
		angle := w.rng.Range(0, 2*math.Pi)
		dist := w.rng.Range(0, neural.MaxBodyRadius*2)
		w.addFood(d.x+math.Cos(angle)*dist, d.y+math.Sin(angle)*dist, nutrition)
	}
}

// applyBirths spawns queued children. The population cap is enforced
// strictly: reproduction stops once it is reached, even mid-batch. Parents
// that died after queueing are skipped.
func (w *World) applyBirths(dead map[uint64]bool) int {
	births := 0
	for _, b := range w.pendingBirths {
		if w.creatureCount >= w.cfg.Population.Max {
			break
		}
		if dead[b.id] {
			continue
		}

		parentEnergy := w.energyMap.Get(b.parent)
		if !parentEnergy.Alive {
			continue
		}
		parentPos := w.posMap.Get(b.parent)
		parentBody := w.bodyMap.Get(b.parent)
		parentGeno := w.genoMap.Get(b.parent)

		childEnergy := parentEnergy.Value * w.cfg.Reproduction.EnergyShare
		parentEnergy.Value -= childEnergy

		dna := neural.MutateDNA(parentGeno.DNA, w.cfg.Mutation.Rate, w.cfg.Mutation.Strength, w.lineage, w.rng)

		angle := w.rng.Range(0, 2*math.Pi)
		offset := parentBody.Radius + dna.BodyRadius
		x := parentPos.X + math.Cos(angle)*offset
		y := parentPos.Y + math.Sin(angle)*offset
		heading := w.rng.Range(0, 2*math.Pi)

		child := w.spawnCreature(dna, x, y, heading, childEnergy)
		childGeno := w.genoMap.Get(child)
		childGeno.SpeciesID = parentGeno.SpeciesID

		w.record(telemetry.NewBirthEvent(w.tick, childGeno.ID, b.id))
		births++
	}
	w.pendingBirths = w.pendingBirths[:0]
	return births
}

// speciate re-clusters the live population and advances stagnation, using
// current energy plus a small age bonus as fitness.
func (w *World) speciate() {
	var members []neural.Member
	var genos []*components.Genotype
	fitness := make(map[uint64]float64)
	genomes := make(map[uint64]*neural.DNA)

	query := w.filter.Query()
	for query.Next() {
		_, _, _, energy, _, geno := query.Get()
		if !energy.Alive {
			continue
		}
		members = append(members, neural.Member{ID: geno.ID, DNA: geno.DNA})
		genos = append(genos, geno)
		fitness[geno.ID] = energy.Value + 0.01*float64(energy.Age)
		genomes[geno.ID] = geno.DNA
	}

	ids := w.speciator.Assign(members)
	for i, geno := range genos {
		geno.SpeciesID = ids[i]
	}

	w.speciator.UpdateStagnation(
		func(id uint64) float64 { return fitness[id] },
		func(id uint64) *neural.DNA { return genomes[id] },
	)
}
