package neural

import (
	"math"

	"github.com/pthm-cable/petri/rng"
)

// MaxBroadcastChannels bounds the channel ids a genome may reference.
const MaxBroadcastChannels = 8

// Weight bounds for connection genes, shared with Hebbian updates.
const (
	MinWeight = -5.0
	MaxWeight = 5.0
)

const addConnAttempts = 20

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// MutateDNA returns an independently mutated deep copy of parent. rate is the
// base per-gene mutation probability, strength scales Gaussian jitters. New
// structural genes draw innovation numbers from lin.
func MutateDNA(parent *DNA, rate, strength float64, lin *Lineage, r *rng.Source) *DNA {
	d := parent.Clone()

	if r.Chance(rate) {
		d.BodyRadius = clampf(d.BodyRadius+r.NormFloat64()*strength, MinBodyRadius, MaxBodyRadius)
	}
	if r.Chance(rate / 5) {
		d.HasIFF = !d.HasIFF
	}

	mutateSensors(d, rate, strength, r)
	mutateActuators(d, rate, r)
	mutateBrain(&d.Brain, rate, strength, lin, r)

	Reconcile(d, lin, r)
	return d
}

func mutateSensors(d *DNA, rate, strength float64, r *rng.Source) {
	for i := range d.Sensors {
		s := &d.Sensors[i]
		switch s.Kind {
		case SensorRayVision:
			if r.Chance(rate) {
				s.FOV = clampf(s.FOV+r.NormFloat64()*strength*0.2, 0.1, 2*math.Pi)
			}
			if r.Chance(rate) {
				s.MaxDistance = clampf(s.MaxDistance+r.NormFloat64()*strength*10, 10, 500)
			}
			if r.Chance(rate) {
				s.OffsetAngle += r.NormFloat64() * strength * 0.2
			}
			if r.Chance(rate / 2) {
				if r.Chance(0.5) {
					s.RayCount++
				} else {
					s.RayCount--
				}
				if s.RayCount < 1 {
					s.RayCount = 1
				} else if s.RayCount > 16 {
					s.RayCount = 16
				}
			}
		case SensorBroadcast:
			if r.Chance(rate / 2) {
				mutateChannels(s, r)
			}
		}
	}

	if r.Chance(rate / 3) {
		addSensor(d, r)
	}
	if r.Chance(rate / 3) {
		removeSensor(d, r)
	}
}

func mutateChannels(s *Sensor, r *rng.Source) {
	if len(s.Channels) > 0 && r.Chance(0.5) {
		i := r.IntRange(0, len(s.Channels)-1)
		s.Channels = append(s.Channels[:i], s.Channels[i+1:]...)
		return
	}
	have := make(map[int]bool, len(s.Channels))
	for _, c := range s.Channels {
		have[c] = true
	}
	var missing []int
	for c := 0; c < MaxBroadcastChannels; c++ {
		if !have[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		s.Channels = append(s.Channels, rng.Pick(r, missing))
	}
}

func addSensor(d *DNA, r *rng.Source) {
	have := make(map[SensorKind]bool, len(d.Sensors))
	for _, s := range d.Sensors {
		have[s.Kind] = true
	}
	var missing []SensorKind
	for _, k := range []SensorKind{SensorRayVision, SensorTouch, SensorEnergy, SensorBroadcast} {
		if !have[k] {
			missing = append(missing, k)
		}
	}
	if len(missing) == 0 {
		return
	}
	switch rng.Pick(r, missing) {
	case SensorRayVision:
		d.Sensors = append(d.Sensors, Sensor{
			Kind:        SensorRayVision,
			RayCount:    5,
			FOV:         math.Pi / 2,
			MaxDistance: 120,
		})
	case SensorTouch:
		d.Sensors = append(d.Sensors, Sensor{Kind: SensorTouch})
	case SensorEnergy:
		d.Sensors = append(d.Sensors, Sensor{Kind: SensorEnergy})
	case SensorBroadcast:
		d.Sensors = append(d.Sensors, Sensor{
			Kind:     SensorBroadcast,
			Channels: []int{r.IntRange(0, MaxBroadcastChannels-1)},
		})
	}
}

func removeSensor(d *DNA, r *rng.Source) {
	var removable []int
	for i, s := range d.Sensors {
		if s.Kind != SensorEnergy {
			removable = append(removable, i)
		}
	}
	if len(removable) == 0 {
		return
	}
	i := rng.Pick(r, removable)
	d.Sensors = append(d.Sensors[:i], d.Sensors[i+1:]...)
}

func mutateActuators(d *DNA, rate float64, r *rng.Source) {
	if r.Chance(rate / 4) {
		addActuator(d, r)
	}
	if r.Chance(rate / 4) {
		removeActuator(d, r)
	}
}

func addActuator(d *DNA, r *rng.Source) {
	have := make(map[ActuatorKind]bool, len(d.Actuators))
	for _, a := range d.Actuators {
		have[a.Kind] = true
	}
	var missing []ActuatorKind
	for _, k := range []ActuatorKind{ActuatorMove, ActuatorAttack, ActuatorEat, ActuatorDonate, ActuatorBroadcast} {
		if !have[k] {
			missing = append(missing, k)
		}
	}
	if len(missing) == 0 {
		return
	}
	a := Actuator{Kind: rng.Pick(r, missing)}
	if a.Kind == ActuatorBroadcast {
		a.Channel = r.IntRange(0, MaxBroadcastChannels-1)
	}
	d.Actuators = append(d.Actuators, a)
}

func removeActuator(d *DNA, r *rng.Source) {
	var removable []int
	for i, a := range d.Actuators {
		if a.Kind != ActuatorMove {
			removable = append(removable, i)
		}
	}
	if len(removable) == 0 {
		return
	}
	i := rng.Pick(r, removable)
	d.Actuators = append(d.Actuators[:i], d.Actuators[i+1:]...)
}

func mutateBrain(g *BrainGenome, rate, strength float64, lin *Lineage, r *rng.Source) {
	for i := range g.Conns {
		if r.Chance(rate) {
			g.Conns[i].Weight = clampf(g.Conns[i].Weight+r.NormFloat64()*strength, MinWeight, MaxWeight)
		}
	}

	if r.Chance(rate * 0.5) {
		addConnection(g, lin, r)
	}
	if r.Chance(rate * 0.3) {
		addNode(g, lin, r)
	}
	if r.Chance(rate*0.1) && len(g.Conns) > 0 {
		i := r.IntRange(0, len(g.Conns)-1)
		g.Conns[i].Enabled = !g.Conns[i].Enabled
	}
	if r.Chance(rate * 0.1) {
		rerollActivation(g, r)
	}
	if r.Chance(rate) {
		g.Plasticity = clampf(g.Plasticity+r.NormFloat64()*strength*0.05, 0, 1)
	}
}

// addConnection adds one random edge: no duplicates, no self-loops, no edges
// into input nodes. Gives up after a bounded number of attempts.
func addConnection(g *BrainGenome, lin *Lineage, r *rng.Source) {
	if len(g.Nodes) < 2 {
		return
	}
	var targets []NodeGene
	for _, n := range g.Nodes {
		if n.Type != NodeInput {
			targets = append(targets, n)
		}
	}
	if len(targets) == 0 {
		return
	}

	for attempt := 0; attempt < addConnAttempts; attempt++ {
		from := rng.Pick(r, g.Nodes)
		to := rng.Pick(r, targets)
		if from.ID == to.ID || g.hasConn(from.ID, to.ID) {
			continue
		}
		g.Conns = append(g.Conns, ConnGene{
			Innovation: lin.Innovation(from.ID, to.ID),
			From:       from.ID,
			To:         to.ID,
			Weight:     r.Range(-1, 1),
			Enabled:    true,
		})
		return
	}
}

// addNode splits a random enabled connection: the original is disabled, a
// hidden node takes a fresh id, and two new connections bridge it. The first
// carries weight 1.0, the second the original weight.
func addNode(g *BrainGenome, lin *Lineage, r *rng.Source) {
	var enabled []int
	for i, c := range g.Conns {
		if c.Enabled {
			enabled = append(enabled, i)
		}
	}
	if len(enabled) == 0 {
		return
	}

	i := rng.Pick(r, enabled)
	orig := g.Conns[i]
	g.Conns[i].Enabled = false

	id := g.maxNodeID() + 1
	g.Nodes = append(g.Nodes, NodeGene{
		ID:         id,
		Type:       NodeHidden,
		Activation: rng.Pick(r, hiddenActivations),
	})
	g.Conns = append(g.Conns,
		ConnGene{
			Innovation: lin.Innovation(orig.From, id),
			From:       orig.From,
			To:         id,
			Weight:     1.0,
			Enabled:    true,
		},
		ConnGene{
			Innovation: lin.Innovation(id, orig.To),
			From:       id,
			To:         orig.To,
			Weight:     orig.Weight,
			Enabled:    true,
		},
	)
}

func rerollActivation(g *BrainGenome, r *rng.Source) {
	var hidden []int
	for i, n := range g.Nodes {
		if n.Type == NodeHidden {
			hidden = append(hidden, i)
		}
	}
	if len(hidden) == 0 {
		return
	}
	i := rng.Pick(r, hidden)
	g.Nodes[i].Activation = rng.Pick(r, hiddenActivations)
}
