package neural

import "github.com/pthm-cable/petri/rng"

// CrossoverBrain recombines two brain genomes NEAT-style. Connections are
// aligned by innovation number: matching genes come from either parent with a
// 60% bias toward the fitter, and a gene disabled in either parent stays
// disabled with 75% probability. Disjoint and excess genes come from the
// fitter parent, or from both when fitness is exactly equal. Ties break
// toward a.
func CrossoverBrain(a, b *BrainGenome, fitnessA, fitnessB float64, r *rng.Source) BrainGenome {
	fitter, other := a, b
	if fitnessB > fitnessA {
		fitter, other = b, a
	}
	equal := fitnessA == fitnessB

	otherByInnov := make(map[int]ConnGene, len(other.Conns))
	for _, c := range other.Conns {
		otherByInnov[c.Innovation] = c
	}
	fitterInnovs := make(map[int]bool, len(fitter.Conns))
	for _, c := range fitter.Conns {
		fitterInnovs[c.Innovation] = true
	}

	out := BrainGenome{}

	for _, fc := range fitter.Conns {
		oc, matching := otherByInnov[fc.Innovation]
		if !matching {
			out.Conns = append(out.Conns, fc)
			continue
		}
		gene := fc
		if !r.Chance(0.6) {
			gene = oc
		}
		if (!fc.Enabled || !oc.Enabled) && r.Chance(0.75) {
			gene.Enabled = false
		}
		out.Conns = append(out.Conns, gene)
	}

	if equal {
		for _, oc := range other.Conns {
			if !fitterInnovs[oc.Innovation] {
				out.Conns = append(out.Conns, oc)
			}
		}
	}

	// Node set: fitter's nodes, plus any node the inherited connections
	// reference that only the other parent carries.
	out.Nodes = append(out.Nodes, fitter.Nodes...)
	known := make(map[int]bool, len(out.Nodes))
	for _, n := range out.Nodes {
		known[n.ID] = true
	}
	otherNodes := make(map[int]NodeGene, len(other.Nodes))
	for _, n := range other.Nodes {
		otherNodes[n.ID] = n
	}
	for _, c := range out.Conns {
		for _, id := range [2]int{c.From, c.To} {
			if known[id] {
				continue
			}
			if n, ok := otherNodes[id]; ok {
				out.Nodes = append(out.Nodes, n)
				known[id] = true
			}
		}
	}

	if r.Chance(0.5) {
		out.Plasticity = fitter.Plasticity
	} else {
		out.Plasticity = other.Plasticity
	}

	return out
}

// CrossoverDNA recombines two full genomes: body radius is the clamped mean,
// group id follows the fitter parent, IFF is 80/20 biased toward the fitter,
// and the sensor and actuator sets are a union with parameter picks
// randomized where both parents carry the same organ. energySense and move
// are always present in the child. Ties break toward a.
func CrossoverDNA(a, b *DNA, fitnessA, fitnessB float64, lin *Lineage, r *rng.Source) *DNA {
	fitter, other := a, b
	if fitnessB > fitnessA {
		fitter, other = b, a
	}

	d := &DNA{
		GroupID:    fitter.GroupID,
		BodyRadius: clampf((a.BodyRadius+b.BodyRadius)/2, MinBodyRadius, MaxBodyRadius),
	}
	if r.Chance(0.8) {
		d.HasIFF = fitter.HasIFF
	} else {
		d.HasIFF = other.HasIFF
	}

	d.Sensors = crossSensors(fitter.Sensors, other.Sensors, r)
	d.Actuators = crossActuators(fitter.Actuators, other.Actuators, r)

	d.Brain = CrossoverBrain(&a.Brain, &b.Brain, fitnessA, fitnessB, r)

	Reconcile(d, lin, r)
	return d
}

func crossSensors(fitter, other []Sensor, r *rng.Source) []Sensor {
	var out []Sensor
	taken := make(map[SensorKind]bool)
	otherByKind := make(map[SensorKind]Sensor, len(other))
	for _, s := range other {
		if _, dup := otherByKind[s.Kind]; !dup {
			otherByKind[s.Kind] = s
		}
	}

	for _, s := range fitter {
		if taken[s.Kind] {
			continue
		}
		pick := s
		if o, ok := otherByKind[s.Kind]; ok && r.Chance(0.5) {
			pick = o
		}
		out = append(out, cloneSensor(pick))
		taken[s.Kind] = true
	}
	for _, s := range other {
		if !taken[s.Kind] {
			out = append(out, cloneSensor(s))
			taken[s.Kind] = true
		}
	}
	if !taken[SensorEnergy] {
		out = append(out, Sensor{Kind: SensorEnergy})
	}
	return out
}

func crossActuators(fitter, other []Actuator, r *rng.Source) []Actuator {
	var out []Actuator
	taken := make(map[ActuatorKind]bool)
	otherByKind := make(map[ActuatorKind]Actuator, len(other))
	for _, a := range other {
		if _, dup := otherByKind[a.Kind]; !dup {
			otherByKind[a.Kind] = a
		}
	}

	for _, a := range fitter {
		if taken[a.Kind] {
			continue
		}
		pick := a
		if o, ok := otherByKind[a.Kind]; ok && r.Chance(0.5) {
			pick = o
		}
		out = append(out, pick)
		taken[a.Kind] = true
	}
	for _, a := range other {
		if !taken[a.Kind] {
			out = append(out, a)
			taken[a.Kind] = true
		}
	}
	if !taken[ActuatorMove] {
		out = append(out, Actuator{Kind: ActuatorMove})
	}
	return out
}

func cloneSensor(s Sensor) Sensor {
	if len(s.Channels) > 0 {
		s.Channels = append([]int(nil), s.Channels...)
	}
	return s
}
