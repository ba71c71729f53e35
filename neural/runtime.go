package neural

import (
	"math"
	"sort"
)

// Runtime is a brain genome compiled for evaluation. Nodes get contiguous
// slots (inputs, then outputs, then hidden, in genome order) and connections
// are flattened into parallel arrays. Connection weights are copied at build
// time; Hebbian updates modify the runtime copy, never the genome.
type Runtime struct {
	inCount  int
	outCount int

	activations []Activation
	order       []int // evaluation order over non-input slots

	connFrom []int
	connTo   []int
	connW    []float64
	connOn   []bool
	outEdges [][]int // slot -> indices into the connection arrays

	act  []float64
	prev []float64
	out  []float64

	plasticity float64
}

// NewRuntime compiles a genome. Connections referencing unknown node ids are
// dropped. Non-input nodes are ordered by Kahn's topological sort restricted
// to enabled edges; nodes left unresolved by a cycle are appended in id order
// and see whatever partial accumulation exists when they are reached.
func NewRuntime(g *BrainGenome) *Runtime {
	slotOf := make(map[int]int, len(g.Nodes))
	var slotted []NodeGene
	for _, t := range [3]NodeType{NodeInput, NodeOutput, NodeHidden} {
		for _, n := range g.Nodes {
			if n.Type == t {
				slotOf[n.ID] = len(slotted)
				slotted = append(slotted, n)
			}
		}
	}

	rt := &Runtime{
		activations: make([]Activation, len(slotted)),
		act:         make([]float64, len(slotted)),
		prev:        make([]float64, len(slotted)),
		outEdges:    make([][]int, len(slotted)),
		plasticity:  g.Plasticity,
	}
	for i, n := range slotted {
		rt.activations[i] = n.Activation
		switch n.Type {
		case NodeInput:
			rt.inCount++
		case NodeOutput:
			rt.outCount++
		}
	}
	rt.out = make([]float64, rt.outCount)

	for _, c := range g.Conns {
		from, okF := slotOf[c.From]
		to, okT := slotOf[c.To]
		if !okF || !okT {
			continue
		}
		idx := len(rt.connFrom)
		rt.connFrom = append(rt.connFrom, from)
		rt.connTo = append(rt.connTo, to)
		rt.connW = append(rt.connW, c.Weight)
		rt.connOn = append(rt.connOn, c.Enabled)
		rt.outEdges[from] = append(rt.outEdges[from], idx)
	}

	rt.order = evalOrder(slotted, rt)
	return rt
}

func evalOrder(slotted []NodeGene, rt *Runtime) []int {
	n := len(slotted)
	indeg := make([]int, n)
	for i := range rt.connFrom {
		if !rt.connOn[i] {
			continue
		}
		to := rt.connTo[i]
		if to >= rt.inCount { // targets into inputs never count
			indeg[to]++
		}
	}

	var queue []int
	for slot := 0; slot < n; slot++ {
		if slot < rt.inCount || indeg[slot] == 0 {
			queue = append(queue, slot)
		}
	}

	resolved := make([]bool, n)
	var order []int
	for len(queue) > 0 {
		slot := queue[0]
		queue = queue[1:]
		if resolved[slot] {
			continue
		}
		resolved[slot] = true
		if slot >= rt.inCount {
			order = append(order, slot)
		}
		for _, ci := range rt.outEdges[slot] {
			if !rt.connOn[ci] {
				continue
			}
			to := rt.connTo[ci]
			if to < rt.inCount || resolved[to] {
				continue
			}
			indeg[to]--
			if indeg[to] == 0 {
				queue = append(queue, to)
			}
		}
	}

	// Cycle fallback: remaining nodes in id order.
	var leftover []int
	for slot := rt.inCount; slot < n; slot++ {
		if !resolved[slot] {
			leftover = append(leftover, slot)
		}
	}
	sort.Slice(leftover, func(i, j int) bool {
		return slotted[leftover[i]].ID < slotted[leftover[j]].ID
	})
	return append(order, leftover...)
}

// InputCount returns the number of input slots.
func (rt *Runtime) InputCount() int { return rt.inCount }

// OutputCount returns the number of output slots.
func (rt *Runtime) OutputCount() int { return rt.outCount }

// Weights returns the live connection weights, in genome connection order.
func (rt *Runtime) Weights() []float64 {
	return append([]float64(nil), rt.connW...)
}

// SetWeights overwrites the live connection weights. Extra values are
// ignored; missing values leave the compiled weights in place.
func (rt *Runtime) SetWeights(w []float64) {
	copy(rt.connW, w)
}

// Forward evaluates the network. The previous tick's activations are kept in
// a separate buffer before non-input slots are zeroed. Contributions are
// pushed along enabled edges as each node activates, so a node ordered before
// its (cyclic) sources sees only partial accumulation.
func (rt *Runtime) Forward(inputs []float64) []float64 {
	copy(rt.prev, rt.act)

	n := copy(rt.act[:rt.inCount], inputs)
	for i := n; i < rt.inCount; i++ {
		rt.act[i] = 0
	}
	for i := rt.inCount; i < len(rt.act); i++ {
		rt.act[i] = 0
	}

	for slot := 0; slot < rt.inCount; slot++ {
		rt.push(slot)
	}
	for _, slot := range rt.order {
		rt.act[slot] = activate(rt.activations[slot], rt.act[slot])
		rt.push(slot)
	}

	copy(rt.out, rt.act[rt.inCount:rt.inCount+rt.outCount])
	return rt.out
}

func (rt *Runtime) push(slot int) {
	v := rt.act[slot]
	for _, ci := range rt.outEdges[slot] {
		if !rt.connOn[ci] {
			continue
		}
		to := rt.connTo[ci]
		if to < rt.inCount {
			continue
		}
		rt.act[to] += rt.connW[ci] * v
	}
}

func activate(a Activation, x float64) float64 {
	switch a {
	case ActSigmoid:
		return 1 / (1 + math.Exp(-x))
	case ActTanh:
		return math.Tanh(x)
	case ActReLU:
		if x < 0 {
			return 0
		}
		return x
	case ActStep:
		if x > 0 {
			return 1
		}
		return 0
	}
	return x
}

// HebbianUpdate nudges every enabled live weight by
// plasticity × preActivation × postActivation × modulator, clamped to the
// weight bounds. No-op when plasticity is zero.
func (rt *Runtime) HebbianUpdate(modulator float64) {
	if rt.plasticity == 0 {
		return
	}
	for i := range rt.connW {
		if !rt.connOn[i] {
			continue
		}
		pre := rt.act[rt.connFrom[i]]
		post := rt.act[rt.connTo[i]]
		rt.connW[i] = clampf(rt.connW[i]+rt.plasticity*pre*post*modulator, MinWeight, MaxWeight)
	}
}
