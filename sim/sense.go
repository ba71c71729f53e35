package sim

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/petri/components"
	"github.com/pthm-cable/petri/neural"
	"github.com/pthm-cable/petri/systems"
)

// hitCategory labels what a vision ray or touch probe found.
type hitCategory uint8

const (
	hitNone hitCategory = iota
	hitFood
	hitCreature
	hitObstacle
)

// gatherInputs encodes the creature's senses into the brain input vector:
// bias, one uniform-random tap, then per-sensor encodings in genome order.
func (w *World) gatherInputs(self ecs.Entity, pos *components.Position, motion *components.Motion, body *components.Body, energy *components.Energy, geno *components.Genotype, buf []float64) []float64 {
	buf = buf[:0]
	buf = append(buf, 1, w.rng.Float64())

	for _, s := range geno.DNA.Sensors {
		switch s.Kind {
		case neural.SensorRayVision:
			buf = w.senseRays(self, pos, motion, geno, s, buf)
		case neural.SensorTouch:
			buf = w.senseTouch(self, pos, body, geno, buf)
		case neural.SensorEnergy:
			buf = append(buf, energy.Value/w.cfg.Energy.Max)
		case neural.SensorBroadcast:
			buf = w.senseBroadcast(self, pos, motion, s, buf)
		}
	}

	return buf
}

// rayMargin is the largest circle radius a ray query must not miss.
func (w *World) rayMargin() float64 {
	m := neural.MaxBodyRadius
	if w.cfg.Food.Radius > m {
		m = w.cfg.Food.Radius
	}
	if w.cfg.Obstacles.MaxRadius > m {
		m = w.cfg.Obstacles.MaxRadius
	}
	return m
}

// senseRays casts the sensor's rays and appends, per ray, proximity plus a
// one-hot hit category. Creature hits carry an IFF sign when the observer
// can distinguish friend from foe.
func (w *World) senseRays(self ecs.Entity, pos *components.Position, motion *components.Motion, geno *components.Genotype, s neural.Sensor, buf []float64) []float64 {
	margin := w.rayMargin()

	for i := 0; i < s.RayCount; i++ {
		rel := 0.0
		if s.RayCount > 1 {
			rel = s.FOV * (float64(i)/float64(s.RayCount-1) - 0.5)
		}
		angle := motion.Heading + s.OffsetAngle + rel
		dx, dy := math.Cos(angle), math.Sin(angle)
		ex := pos.X + dx*s.MaxDistance
		ey := pos.Y + dy*s.MaxDistance

		best := s.MaxDistance
		category := hitNone
		var hitEntity ecs.Entity

		// Grids are rebuilt after sensing, so entries may point at entities
		// removed last tick. Stale entries are skipped, never dereferenced.
		for _, e := range w.foodGrid.QueryRay(pos.X, pos.Y, ex, ey, margin) {
			if !w.world.Alive(e) {
				continue
			}
			fp := w.posMap.Get(e)
			cx, cy := systems.Delta(pos.X, pos.Y, fp.X, fp.Y, w.cfg.World.Width, w.cfg.World.Height)
			if d, ok := systems.RayCircleHit(dx, dy, s.MaxDistance, cx, cy, w.cfg.Food.Radius); ok && d < best {
				best, category = d, hitFood
			}
		}
		for _, e := range w.creatureGrid.QueryRay(pos.X, pos.Y, ex, ey, margin) {
			if e == self || !w.world.Alive(e) || !w.energyMap.Get(e).Alive {
				continue
			}
			cp := w.posMap.Get(e)
			cx, cy := systems.Delta(pos.X, pos.Y, cp.X, cp.Y, w.cfg.World.Width, w.cfg.World.Height)
			if d, ok := systems.RayCircleHit(dx, dy, s.MaxDistance, cx, cy, w.bodyMap.Get(e).Radius); ok && d < best {
				best, category, hitEntity = d, hitCreature, e
			}
		}
		for _, e := range w.obstacleGrid.QueryRay(pos.X, pos.Y, ex, ey, margin) {
			if !w.world.Alive(e) {
				continue
			}
			op := w.posMap.Get(e)
			cx, cy := systems.Delta(pos.X, pos.Y, op.X, op.Y, w.cfg.World.Width, w.cfg.World.Height)
			if d, ok := systems.RayCircleHit(dx, dy, s.MaxDistance, cx, cy, w.obstMap.Get(e).Radius); ok && d < best {
				best, category = d, hitObstacle
			}
		}

		proximity := 0.0
		if category != hitNone {
			proximity = 1 - best/s.MaxDistance
		}
		foodFlag, creatureFlag, obstacleFlag := 0.0, 0.0, 0.0
		switch category {
		case hitFood:
			foodFlag = 1
		case hitCreature:
			creatureFlag = w.iffSign(geno, hitEntity)
		case hitObstacle:
			obstacleFlag = 1
		}
		buf = append(buf, proximity, foodFlag, creatureFlag, obstacleFlag)
	}

	return buf
}

// iffSign is +1 for same-group creatures and -1 for others when the observer
// has IFF; without it every creature reads as +1.
func (w *World) iffSign(geno *components.Genotype, other ecs.Entity) float64 {
	if !geno.DNA.HasIFF {
		return 1
	}
	if w.genoMap.Get(other).DNA.GroupID == geno.DNA.GroupID {
		return 1
	}
	return -1
}

// senseTouch reports overlap with food, creatures and obstacles as three
// flags, the creature flag signed by IFF.
func (w *World) senseTouch(self ecs.Entity, pos *components.Position, body *components.Body, geno *components.Genotype, buf []float64) []float64 {
	width, height := w.cfg.World.Width, w.cfg.World.Height

	foodFlag := 0.0
	for _, e := range w.foodGrid.QueryRadius(pos.X, pos.Y, body.Radius+w.cfg.Food.Radius) {
		if !w.world.Alive(e) {
			continue
		}
		fp := w.posMap.Get(e)
		if systems.CirclesOverlap(pos.X, pos.Y, body.Radius, fp.X, fp.Y, w.cfg.Food.Radius, width, height) {
			foodFlag = 1
			break
		}
	}

	creatureFlag := 0.0
	for _, e := range w.creatureGrid.QueryRadius(pos.X, pos.Y, body.Radius+neural.MaxBodyRadius) {
		if e == self || !w.world.Alive(e) || !w.energyMap.Get(e).Alive {
			continue
		}
		cp := w.posMap.Get(e)
		if systems.CirclesOverlap(pos.X, pos.Y, body.Radius, cp.X, cp.Y, w.bodyMap.Get(e).Radius, width, height) {
			creatureFlag = w.iffSign(geno, e)
			break
		}
	}

	obstacleFlag := 0.0
	for _, e := range w.obstacleGrid.QueryRadius(pos.X, pos.Y, body.Radius+w.cfg.Obstacles.MaxRadius) {
		if !w.world.Alive(e) {
			continue
		}
		op := w.posMap.Get(e)
		if systems.CirclesOverlap(pos.X, pos.Y, body.Radius, op.X, op.Y, w.obstMap.Get(e).Radius, width, height) {
			obstacleFlag = 1
			break
		}
	}

	return append(buf, foodFlag, creatureFlag, obstacleFlag)
}

// senseBroadcast reports, per subscribed channel, the nearest active
// broadcaster's signal strength and bearing relative to the heading.
func (w *World) senseBroadcast(self ecs.Entity, pos *components.Position, motion *components.Motion, s neural.Sensor, buf []float64) []float64 {
	radius := w.cfg.Broadcast.Radius

	for _, ch := range s.Channels {
		strength, bearing := 0.0, 0.0
		best := radius

		for _, e := range w.creatureGrid.QueryRadius(pos.X, pos.Y, radius) {
			if e == self || !w.world.Alive(e) || !w.energyMap.Get(e).Alive {
				continue
			}
			action := w.actionMap.Get(e)
			if !action.Broadcasting || action.Channel != ch {
				continue
			}
			bp := w.posMap.Get(e)
			dx, dy := systems.Delta(pos.X, pos.Y, bp.X, bp.Y, w.cfg.World.Width, w.cfg.World.Height)
			d := math.Sqrt(dx*dx + dy*dy)
			if d >= best {
				continue
			}
			best = d
			strength = 1 - d/radius
			rel := math.Atan2(dy, dx) - motion.Heading
			for rel > math.Pi {
				rel -= 2 * math.Pi
			}
			for rel < -math.Pi {
				rel += 2 * math.Pi
			}
			bearing = rel / math.Pi
		}

		buf = append(buf, strength, bearing)
	}

	return buf
}
