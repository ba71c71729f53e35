package sim

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/petri/systems"
	"github.com/pthm-cable/petri/telemetry"
)

type actor struct {
	entity    ecs.Entity
	id        uint64
	eating    bool
	attacking bool
	donating  bool
}

// resolveInteractions applies same-tick eating, attacking and donating using
// the freshly rebuilt spatial indices. Actors are collected first so entity
// structure never changes during query iteration; actors are then processed
// in collection order.
func (w *World) resolveInteractions() {
	var actors []actor

	query := w.filter.Query()
	for query.Next() {
		_, _, _, energy, action, geno := query.Get()
		if !energy.Alive {
			continue
		}
		if action.Eating || action.Attacking || action.Donating {
			actors = append(actors, actor{
				entity:    query.Entity(),
				id:        geno.ID,
				eating:    action.Eating,
				attacking: action.Attacking,
				donating:  action.Donating,
			})
		}
	}

	eaten := make(map[ecs.Entity]bool)
	var removedFood []ecs.Entity

	for _, a := range actors {
		if !w.energyMap.Get(a.entity).Alive {
			continue
		}
		if a.eating {
			if e, ok := w.eat(a, eaten); ok {
				eaten[e] = true
				removedFood = append(removedFood, e)
			}
		}
		if a.attacking {
			w.attack(a)
		}
		if a.donating {
			w.donate(a)
		}
	}

	for _, e := range removedFood {
		w.foodMapper.Remove(e)
		w.foodCount--
	}
}

// eat consumes the first overlapping food item, capped at max energy. Food
// already claimed by an earlier actor this tick is skipped.
func (w *World) eat(a actor, eaten map[ecs.Entity]bool) (ecs.Entity, bool) {
	pos := w.posMap.Get(a.entity)
	body := w.bodyMap.Get(a.entity)
	energy := w.energyMap.Get(a.entity)

	for _, e := range w.foodGrid.QueryRadius(pos.X, pos.Y, body.Radius+w.cfg.Food.Radius) {
		if eaten[e] {
			continue
		}
		food := w.foodMap.Get(e)
		fp := w.posMap.Get(e)
		if !systems.CirclesOverlap(pos.X, pos.Y, body.Radius, fp.X, fp.Y, w.cfg.Food.Radius, w.cfg.World.Width, w.cfg.World.Height) {
			continue
		}

		gain := food.Nutrition
		if room := w.cfg.Energy.Max - energy.Value; gain > room {
			gain = room
		}
		energy.Value += gain
		w.record(telemetry.NewEatEvent(w.tick, a.id, food.ID, gain))
		return e, true
	}
	return ecs.Entity{}, false
}

// attack deals area damage to every valid target within the combat radius.
// Same-group targets are spared when the attacker has IFF. Targets reduced
// to zero energy die immediately.
func (w *World) attack(a actor) {
	action := w.actionMap.Get(a.entity)
	if action.AttackCooldown > 0 {
		return
	}
	action.AttackCooldown = w.cfg.Combat.Cooldown

	pos := w.posMap.Get(a.entity)
	body := w.bodyMap.Get(a.entity)
	energy := w.energyMap.Get(a.entity)
	geno := w.genoMap.Get(a.entity)

	damage := w.cfg.Combat.Damage.Eval(w.exprVars(body.Radius, energy.Value, energy.Age, 0))

	for _, e := range w.creatureGrid.QueryRadius(pos.X, pos.Y, w.cfg.Combat.Radius) {
		if e == a.entity {
			continue
		}
		targetEnergy := w.energyMap.Get(e)
		if !targetEnergy.Alive {
			continue
		}
		targetGeno := w.genoMap.Get(e)
		if geno.DNA.HasIFF && targetGeno.DNA.GroupID == geno.DNA.GroupID {
			continue
		}
		tp := w.posMap.Get(e)
		if systems.Dist(pos.X, pos.Y, tp.X, tp.Y, w.cfg.World.Width, w.cfg.World.Height) > w.cfg.Combat.Radius {
			continue
		}

		// Pre-blow energy determines the corpse food drop.
		before := targetEnergy.Value
		targetEnergy.Value -= damage
		w.record(telemetry.NewAttackEvent(w.tick, a.id, targetGeno.ID, damage))

		if targetEnergy.Value <= 0 {
			targetEnergy.Alive = false
			w.record(telemetry.NewKillEvent(w.tick, a.id, targetGeno.ID))
			w.pendingDeaths = append(w.pendingDeaths, deathInfo{
				entity: e,
				id:     targetGeno.ID,
				cause:  telemetry.CauseKilled,
				energy: before,
				x:      tp.X,
				y:      tp.Y,
			})
		}
	}
}

// donate transfers energy to the closest same-group ally in range. The donor
// pays the transfer cost whether or not a recipient was found.
func (w *World) donate(a actor) {
	pos := w.posMap.Get(a.entity)
	energy := w.energyMap.Get(a.entity)
	geno := w.genoMap.Get(a.entity)

	amount := w.cfg.Donation.Amount.Eval(w.exprVars(0, energy.Value, energy.Age, 0))
	if amount <= 0 {
		return
	}
	energy.Value -= amount

	best := math.Inf(1)
	var target ecs.Entity
	found := false
	for _, e := range w.creatureGrid.QueryRadius(pos.X, pos.Y, w.cfg.Donation.Radius) {
		if e == a.entity || !w.energyMap.Get(e).Alive {
			continue
		}
		if w.genoMap.Get(e).DNA.GroupID != geno.DNA.GroupID {
			continue
		}
		tp := w.posMap.Get(e)
		d := systems.Dist(pos.X, pos.Y, tp.X, tp.Y, w.cfg.World.Width, w.cfg.World.Height)
		if d <= w.cfg.Donation.Radius && d < best {
			best, target, found = d, e, true
		}
	}
	if !found {
		return
	}

	recipient := w.energyMap.Get(target)
	recipient.Value += amount
	if recipient.Value > w.cfg.Energy.Max {
		recipient.Value = w.cfg.Energy.Max
	}
	w.record(telemetry.NewDonateEvent(w.tick, a.id, w.genoMap.Get(target).ID, amount))
}
