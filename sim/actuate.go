package sim

import (
	"math"

	"github.com/pthm-cable/petri/components"
	"github.com/pthm-cable/petri/neural"
	"github.com/pthm-cable/petri/systems"
	"github.com/pthm-cable/petri/telemetry"
)

const actuatorThreshold = 0.5

// updateCreatures runs the per-creature phase of a tick: cooldowns, brain
// evaluation on brain ticks, kinematic integration, obstacle separation and
// energy accounting. Deaths and reproductions are queued, never applied
// mid-iteration.
func (w *World) updateCreatures(brainsFire bool) {
	w.pendingDeaths = w.pendingDeaths[:0]
	w.pendingBirths = w.pendingBirths[:0]

	var inputBuf []float64

	query := w.filter.Query()
	for query.Next() {
		entity := query.Entity()
		pos, motion, body, energy, action, geno := query.Get()
		if !energy.Alive {
			continue
		}

		if action.AttackCooldown > 0 {
			action.AttackCooldown--
		}
		if action.ReproCooldown > 0 {
			action.ReproCooldown--
		}

		if brainsFire {
			rt, ok := w.brains[geno.ID]
			if ok {
				inputBuf = w.gatherInputs(entity, pos, motion, body, energy, geno, inputBuf)
				outputs := rt.Forward(inputBuf)
				w.applyOutputs(motion, action, geno, outputs)

				modulator := (energy.Value - energy.Prev) / w.cfg.Energy.Max
				rt.HebbianUpdate(modulator)
				energy.Prev = energy.Value
			}
		}

		w.integrate(pos, motion, body)
		w.drainEnergy(pos, motion, body, energy, action, geno)
		energy.Age++

		if energy.Value <= 0 {
			energy.Alive = false
			w.pendingDeaths = append(w.pendingDeaths, deathInfo{
				entity: entity,
				id:     geno.ID,
				cause:  telemetry.CauseStarved,
				energy: energy.Value,
				x:      pos.X,
				y:      pos.Y,
			})
		} else if energy.Value >= w.cfg.Reproduction.Threshold &&
			action.ReproCooldown == 0 &&
			w.creatureCount+len(w.pendingBirths) < w.cfg.Population.Max {
			action.ReproCooldown = w.cfg.Reproduction.Cooldown
			w.pendingBirths = append(w.pendingBirths, birthInfo{parent: entity, id: geno.ID})
		}
	}
}

// applyOutputs maps the brain's output vector onto the genome's actuators in
// genome order.
func (w *World) applyOutputs(motion *components.Motion, action *components.Action, geno *components.Genotype, outputs []float64) {
	action.Attacking = false
	action.Eating = false
	action.Donating = false
	action.Broadcasting = false

	i := 0
	for _, a := range geno.DNA.Actuators {
		switch a.Kind {
		case neural.ActuatorMove:
			forward, turn := out(outputs, i), out(outputs, i+1)
			if forward >= 0 {
				motion.Speed = forward * MaxSpeed
			} else {
				motion.Speed = forward * MaxSpeed * ReverseFactor
			}
			motion.AngularSpeed = turn * MaxTurnRate
		case neural.ActuatorAttack:
			action.Attacking = out(outputs, i) > actuatorThreshold
		case neural.ActuatorEat:
			action.Eating = out(outputs, i) > actuatorThreshold
		case neural.ActuatorDonate:
			action.Donating = out(outputs, i) > actuatorThreshold
		case neural.ActuatorBroadcast:
			if out(outputs, i) > actuatorThreshold {
				action.Broadcasting = true
				action.Channel = a.Channel
			}
		}
		i += a.OutputCount()
	}
}

func out(outputs []float64, i int) float64 {
	if i >= len(outputs) {
		return 0
	}
	return outputs[i]
}

// integrate advances kinematics and resolves obstacle penetration by pushing
// the creature out along the torus-aware separating vector.
func (w *World) integrate(pos *components.Position, motion *components.Motion, body *components.Body) {
	width, height := w.cfg.World.Width, w.cfg.World.Height

	motion.Heading += motion.AngularSpeed
	pos.X = systems.Wrap(pos.X+math.Cos(motion.Heading)*motion.Speed, width)
	pos.Y = systems.Wrap(pos.Y+math.Sin(motion.Heading)*motion.Speed, height)

	for _, e := range w.obstacleGrid.QueryRadius(pos.X, pos.Y, body.Radius+w.cfg.Obstacles.MaxRadius) {
		op := w.posMap.Get(e)
		obst := w.obstMap.Get(e)
		dx, dy := systems.Delta(op.X, op.Y, pos.X, pos.Y, width, height)
		d := math.Sqrt(dx*dx + dy*dy)
		minDist := body.Radius + obst.Radius
		if d >= minDist {
			continue
		}
		if d == 0 {
			dx, dy, d = 1, 0, 1
		}
		pos.X = systems.Wrap(op.X+dx/d*minDist, width)
		pos.Y = systems.Wrap(op.Y+dy/d*minDist, height)
	}
}

// drainEnergy charges the tick's metabolic and action costs.
func (w *World) drainEnergy(pos *components.Position, motion *components.Motion, body *components.Body, energy *components.Energy, action *components.Action, geno *components.Genotype) {
	vars := w.exprVars(body.Radius, energy.Value, energy.Age, 0)

	metabolism := w.cfg.Energy.Metabolism.Eval(vars)
	if w.cfg.Energy.DensityScaling && w.cfg.Population.Max > 0 {
		metabolism *= float64(w.creatureCount) / float64(w.cfg.Population.Max)
	}

	cost := metabolism
	cost += w.cfg.Energy.MoveCost.Eval(vars) * math.Abs(motion.Speed)
	cost += w.cfg.Energy.TurnCost.Eval(vars) * math.Abs(motion.AngularSpeed)
	if rays := totalRays(geno.DNA); rays > 0 {
		cost += w.cfg.Energy.VisionCost.Eval(vars) * float64(rays)
	}
	if action.Broadcasting {
		cost += w.cfg.Energy.BroadcastCost.Eval(vars)
	}

	energy.Value -= cost
}

func totalRays(d *neural.DNA) int {
	n := 0
	for _, s := range d.Sensors {
		if s.Kind == neural.SensorRayVision {
			n += s.RayCount
		}
	}
	return n
}
