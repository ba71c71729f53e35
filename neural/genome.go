// Package neural implements the evolvable genome (body, sensors, actuators
// and NEAT-style brain), its mutation and crossover operators, the compiled
// brain runtime, and speciation.
package neural

import "github.com/pthm-cable/petri/rng"

// SensorKind identifies a sensor variant.
type SensorKind uint8

const (
	SensorRayVision SensorKind = iota
	SensorTouch
	SensorEnergy
	SensorBroadcast
)

// Sensor is one sensory organ of a creature. Fields beyond Kind are only
// meaningful for the variants that use them.
type Sensor struct {
	Kind        SensorKind `json:"kind"`
	RayCount    int        `json:"ray_count,omitempty"`
	FOV         float64    `json:"fov,omitempty"`
	MaxDistance float64    `json:"max_distance,omitempty"`
	OffsetAngle float64    `json:"offset_angle,omitempty"`
	Channels    []int      `json:"channels,omitempty"`
}

// InputCount returns how many brain inputs this sensor feeds.
func (s Sensor) InputCount() int {
	switch s.Kind {
	case SensorRayVision:
		return s.RayCount * 4
	case SensorTouch:
		return 3
	case SensorEnergy:
		return 1
	case SensorBroadcast:
		return len(s.Channels) * 2
	}
	return 0
}

// ActuatorKind identifies an actuator variant.
type ActuatorKind uint8

const (
	ActuatorMove ActuatorKind = iota
	ActuatorAttack
	ActuatorEat
	ActuatorDonate
	ActuatorBroadcast
)

// Actuator is one action organ of a creature.
type Actuator struct {
	Kind    ActuatorKind `json:"kind"`
	Channel int          `json:"channel,omitempty"`
}

// OutputCount returns how many brain outputs this actuator consumes.
func (a Actuator) OutputCount() int {
	if a.Kind == ActuatorMove {
		return 2
	}
	return 1
}

// BaseInputs are always present: a constant bias and one uniform-random tap.
const BaseInputs = 2

// InputCount returns the required brain input count for a sensor set.
func InputCount(sensors []Sensor) int {
	n := BaseInputs
	for _, s := range sensors {
		n += s.InputCount()
	}
	return n
}

// OutputCount returns the required brain output count for an actuator set.
func OutputCount(actuators []Actuator) int {
	n := 0
	for _, a := range actuators {
		n += a.OutputCount()
	}
	return n
}

// NodeType classifies a brain node gene.
type NodeType uint8

const (
	NodeInput NodeType = iota
	NodeOutput
	NodeHidden
)

// Activation selects a node's activation function.
type Activation uint8

const (
	ActSigmoid Activation = iota
	ActTanh
	ActReLU
	ActLinear
	ActStep
)

var hiddenActivations = []Activation{ActSigmoid, ActTanh, ActReLU, ActLinear, ActStep}

// NodeGene is one neuron of the brain genome.
type NodeGene struct {
	ID         int        `json:"id"`
	Type       NodeType   `json:"type"`
	Activation Activation `json:"activation"`
}

// ConnGene is one weighted edge of the brain genome. Innovation numbers are
// globally unique per (from,to) structural lineage and align genes across
// genomes for crossover and compatibility distance.
type ConnGene struct {
	Innovation int     `json:"innovation"`
	From       int     `json:"from"`
	To         int     `json:"to"`
	Weight     float64 `json:"weight"`
	Enabled    bool    `json:"enabled"`
}

// BrainGenome describes a NEAT network: node genes, connection genes, and a
// Hebbian plasticity rate.
type BrainGenome struct {
	Nodes      []NodeGene `json:"nodes"`
	Conns      []ConnGene `json:"conns"`
	Plasticity float64    `json:"plasticity"`
}

// Clone returns an independent deep copy.
func (g *BrainGenome) Clone() BrainGenome {
	out := BrainGenome{
		Nodes:      make([]NodeGene, len(g.Nodes)),
		Conns:      make([]ConnGene, len(g.Conns)),
		Plasticity: g.Plasticity,
	}
	copy(out.Nodes, g.Nodes)
	copy(out.Conns, g.Conns)
	return out
}

// maxNodeID returns the highest node id in use, or -1 for an empty genome.
func (g *BrainGenome) maxNodeID() int {
	max := -1
	for _, n := range g.Nodes {
		if n.ID > max {
			max = n.ID
		}
	}
	return max
}

func (g *BrainGenome) hasConn(from, to int) bool {
	for _, c := range g.Conns {
		if c.From == from && c.To == to {
			return true
		}
	}
	return false
}

// nodesOfType returns the genome's nodes of one type, in genome order.
func (g *BrainGenome) nodesOfType(t NodeType) []NodeGene {
	var out []NodeGene
	for _, n := range g.Nodes {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

// DNA is the full heritable description of a creature.
type DNA struct {
	GroupID    int         `json:"group_id"`
	HasIFF     bool        `json:"has_iff"`
	BodyRadius float64     `json:"body_radius"`
	Sensors    []Sensor    `json:"sensors"`
	Actuators  []Actuator  `json:"actuators"`
	Brain      BrainGenome `json:"brain"`
}

// Body radius bounds and the reference radius metabolism scales against.
const (
	MinBodyRadius     = 3.0
	MaxBodyRadius     = 10.0
	DefaultBodyRadius = 5.0
)

// Clone returns an independent deep copy; parent and child never alias.
func (d *DNA) Clone() *DNA {
	out := &DNA{
		GroupID:    d.GroupID,
		HasIFF:     d.HasIFF,
		BodyRadius: d.BodyRadius,
		Sensors:    make([]Sensor, len(d.Sensors)),
		Actuators:  make([]Actuator, len(d.Actuators)),
		Brain:      d.Brain.Clone(),
	}
	copy(out.Sensors, d.Sensors)
	copy(out.Actuators, d.Actuators)
	for i, s := range d.Sensors {
		if len(s.Channels) > 0 {
			out.Sensors[i].Channels = append([]int(nil), s.Channels...)
		}
	}
	return out
}

// NewBrain builds a minimal brain: one input node per required input, one
// output node per required output, fully connected input→output with small
// random weights. Innovation numbers come from the lineage so the same
// structural pair always maps to the same number across genomes.
func NewBrain(inCount, outCount int, lin *Lineage, r *rng.Source) BrainGenome {
	g := BrainGenome{
		Nodes: make([]NodeGene, 0, inCount+outCount),
		Conns: make([]ConnGene, 0, inCount*outCount),
	}

	for i := 0; i < inCount; i++ {
		g.Nodes = append(g.Nodes, NodeGene{ID: i, Type: NodeInput, Activation: ActLinear})
	}
	for i := 0; i < outCount; i++ {
		g.Nodes = append(g.Nodes, NodeGene{ID: inCount + i, Type: NodeOutput, Activation: ActTanh})
	}

	for i := 0; i < inCount; i++ {
		for j := 0; j < outCount; j++ {
			to := inCount + j
			g.Conns = append(g.Conns, ConnGene{
				Innovation: lin.Innovation(i, to),
				From:       i,
				To:         to,
				Weight:     r.Range(-0.5, 0.5),
				Enabled:    true,
			})
		}
	}

	return g
}

// NewDNA builds a founder genome from explicit sensor and actuator sets.
func NewDNA(groupID int, sensors []Sensor, actuators []Actuator, lin *Lineage, r *rng.Source) *DNA {
	d := &DNA{
		GroupID:    groupID,
		HasIFF:     true,
		BodyRadius: DefaultBodyRadius,
		Sensors:    append([]Sensor(nil), sensors...),
		Actuators:  append([]Actuator(nil), actuators...),
	}
	d.Brain = NewBrain(InputCount(d.Sensors), OutputCount(d.Actuators), lin, r)
	return d
}
