package neural

import (
	"math"
	"testing"
)

// layeredGenome builds 2 inputs -> 1 hidden (relu) -> 1 output (linear) with
// fixed weights for exact-value checks.
func layeredGenome() *BrainGenome {
	return &BrainGenome{
		Nodes: []NodeGene{
			{ID: 0, Type: NodeInput, Activation: ActLinear},
			{ID: 1, Type: NodeInput, Activation: ActLinear},
			{ID: 2, Type: NodeOutput, Activation: ActLinear},
			{ID: 3, Type: NodeHidden, Activation: ActReLU},
		},
		Conns: []ConnGene{
			{Innovation: 1, From: 0, To: 3, Weight: 2, Enabled: true},
			{Innovation: 2, From: 1, To: 3, Weight: -1, Enabled: true},
			{Innovation: 3, From: 3, To: 2, Weight: 0.5, Enabled: true},
			{Innovation: 4, From: 1, To: 2, Weight: 1, Enabled: true},
		},
	}
}

func TestForwardLayeredExact(t *testing.T) {
	rt := NewRuntime(layeredGenome())

	// hidden = relu(2*1 + -1*0.5) = 1.5; output = 0.5*1.5 + 1*0.5 = 1.25
	out := rt.Forward([]float64{1, 0.5})
	if len(out) != 1 {
		t.Fatalf("output size = %d, want 1", len(out))
	}
	if math.Abs(out[0]-1.25) > 1e-9 {
		t.Errorf("output = %v, want 1.25", out[0])
	}
}

func TestForwardDeterministic(t *testing.T) {
	rt := NewRuntime(layeredGenome())
	a := append([]float64(nil), rt.Forward([]float64{0.3, -0.7})...)
	b := rt.Forward([]float64{0.3, -0.7})
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("output %d differs across identical passes", i)
		}
	}
}

func TestForwardDisabledConnIgnored(t *testing.T) {
	g := layeredGenome()
	g.Conns[3].Enabled = false // cut the direct input->output edge
	rt := NewRuntime(g)

	out := rt.Forward([]float64{1, 0.5})
	if math.Abs(out[0]-0.75) > 1e-9 {
		t.Errorf("output = %v, want 0.75 with direct edge disabled", out[0])
	}
}

func TestForwardNegativeHiddenClamped(t *testing.T) {
	rt := NewRuntime(layeredGenome())

	// hidden pre-activation = 2*0 + -1*2 = -2, relu -> 0.
	out := rt.Forward([]float64{0, 2})
	if math.Abs(out[0]-2) > 1e-9 {
		t.Errorf("output = %v, want 2 (hidden clamped to 0)", out[0])
	}
}

func TestForwardCycleCompletes(t *testing.T) {
	g := &BrainGenome{
		Nodes: []NodeGene{
			{ID: 0, Type: NodeInput, Activation: ActLinear},
			{ID: 1, Type: NodeOutput, Activation: ActLinear},
			{ID: 2, Type: NodeHidden, Activation: ActLinear},
			{ID: 3, Type: NodeHidden, Activation: ActLinear},
		},
		Conns: []ConnGene{
			{Innovation: 1, From: 0, To: 2, Weight: 1, Enabled: true},
			{Innovation: 2, From: 2, To: 3, Weight: 1, Enabled: true},
			{Innovation: 3, From: 3, To: 2, Weight: 1, Enabled: true}, // cycle
			{Innovation: 4, From: 3, To: 1, Weight: 1, Enabled: true},
		},
	}
	rt := NewRuntime(g)

	// The pass must terminate and produce a finite value despite the cycle.
	out := rt.Forward([]float64{1})
	if math.IsNaN(out[0]) || math.IsInf(out[0], 0) {
		t.Errorf("cyclic network produced %v", out[0])
	}
}

func TestStaleConnectionSkipped(t *testing.T) {
	g := layeredGenome()
	g.Conns = append(g.Conns, ConnGene{Innovation: 9, From: 77, To: 2, Weight: 5, Enabled: true})
	rt := NewRuntime(g)

	out := rt.Forward([]float64{1, 0.5})
	if math.Abs(out[0]-1.25) > 1e-9 {
		t.Errorf("output = %v, want 1.25 with stale conn skipped", out[0])
	}
}

func TestHebbianUpdate(t *testing.T) {
	g := layeredGenome()
	g.Plasticity = 0.1
	rt := NewRuntime(g)
	rt.Forward([]float64{1, 0.5})

	before := rt.Weights()
	rt.HebbianUpdate(1.0)
	after := rt.Weights()

	// weight(0->3): pre=1, post=1.5 -> +0.1*1*1.5 = +0.15
	want := before[0] + 0.15
	if math.Abs(after[0]-want) > 1e-9 {
		t.Errorf("weight after hebbian = %v, want %v", after[0], want)
	}
}

func TestHebbianNoOpWithoutPlasticity(t *testing.T) {
	rt := NewRuntime(layeredGenome())
	rt.Forward([]float64{1, 1})

	before := rt.Weights()
	rt.HebbianUpdate(1.0)
	after := rt.Weights()
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("weight %d changed with zero plasticity", i)
		}
	}
}

func TestHebbianClampsWeights(t *testing.T) {
	g := layeredGenome()
	g.Plasticity = 1.0
	rt := NewRuntime(g)

	for i := 0; i < 100; i++ {
		rt.Forward([]float64{1, 1})
		rt.HebbianUpdate(10)
	}
	for i, w := range rt.Weights() {
		if w < MinWeight || w > MaxWeight {
			t.Errorf("weight %d = %v outside [%v,%v]", i, w, MinWeight, MaxWeight)
		}
	}
}

func TestSetWeightsRoundTrip(t *testing.T) {
	rt := NewRuntime(layeredGenome())
	w := rt.Weights()
	w[0] = 3.25
	rt.SetWeights(w)
	if got := rt.Weights()[0]; got != 3.25 {
		t.Errorf("restored weight = %v, want 3.25", got)
	}
}
