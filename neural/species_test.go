package neural

import (
	"math"
	"testing"

	"github.com/pthm-cable/petri/rng"
)

func genomeWithInnovations(innovs []int, weight float64) *BrainGenome {
	g := &BrainGenome{}
	for _, n := range innovs {
		g.Conns = append(g.Conns, ConnGene{Innovation: n, From: 0, To: 1, Weight: weight, Enabled: true})
	}
	return g
}

func TestCompatibilityDistanceIdentical(t *testing.T) {
	g := genomeWithInnovations([]int{1, 2, 3}, 0.5)
	if d := CompatibilityDistance(g, g, 1, 1, 1); d != 0 {
		t.Errorf("d(g,g) = %v, want 0", d)
	}
}

func TestCompatibilityDistanceSymmetric(t *testing.T) {
	a := genomeWithInnovations([]int{1, 2, 4}, 0.5)
	b := genomeWithInnovations([]int{1, 3, 5, 6}, -0.5)
	d1 := CompatibilityDistance(a, b, 1, 1, 0.4)
	d2 := CompatibilityDistance(b, a, 1, 1, 0.4)
	if math.Abs(d1-d2) > 1e-12 {
		t.Errorf("distance not symmetric: %v vs %v", d1, d2)
	}
}

// Two genomes sharing their matching genes where one carries two extra
// innovations beyond the other's max: c1=c2=c3=1, N=4, excess=2, d=0.5.
func TestCompatibilityDistanceExcessOnly(t *testing.T) {
	a := genomeWithInnovations([]int{1, 2, 5, 6}, 0.5)
	b := genomeWithInnovations([]int{1, 2}, 0.5)

	d := CompatibilityDistance(a, b, 1, 1, 1)
	if math.Abs(d-0.5) > 1e-12 {
		t.Errorf("d = %v, want 0.5", d)
	}
}

func TestCompatibilityDistanceWeightTerm(t *testing.T) {
	a := genomeWithInnovations([]int{1, 2}, 1.0)
	b := genomeWithInnovations([]int{1, 2}, 0.0)
	// No excess or disjoint; mean abs weight diff = 1.
	if d := CompatibilityDistance(a, b, 1, 1, 0.4); math.Abs(d-0.4) > 1e-12 {
		t.Errorf("d = %v, want 0.4", d)
	}
}

func uniformPopulation(n int, lin *Lineage, r *rng.Source) []Member {
	base := NewDNA(0, testSensors(), testActuators(), lin, r)
	members := make([]Member, n)
	for i := range members {
		d := base.Clone()
		members[i] = Member{ID: uint64(i + 1), DNA: d}
	}
	return members
}

func TestAssignUniformPopulationOneSpecies(t *testing.T) {
	lin := NewLineage()
	r := rng.New(1)
	sp := NewSpeciator(1, 1, 0.4, 3.0, 15)

	members := uniformPopulation(10, lin, r)
	ids := sp.Assign(members)

	if len(sp.Species) != 1 {
		t.Fatalf("species count = %d, want 1", len(sp.Species))
	}
	for i, id := range ids {
		if id != ids[0] {
			t.Errorf("member %d assigned species %d, want %d", i, id, ids[0])
		}
	}
}

func TestAssignDivergedGenomeSecondSpecies(t *testing.T) {
	lin := NewLineage()
	r := rng.New(2)
	sp := NewSpeciator(1, 1, 1, 0.001, 15)

	members := uniformPopulation(5, lin, r)
	mutant := members[0].DNA.Clone()
	for i := 0; i < 30; i++ {
		mutant = MutateDNA(mutant, 0.9, 2.0, lin, r)
	}
	members = append(members, Member{ID: 100, DNA: mutant})

	ids := sp.Assign(members)
	if len(sp.Species) < 2 {
		t.Fatalf("species count = %d, want at least 2", len(sp.Species))
	}
	if ids[len(ids)-1] == ids[0] {
		t.Error("heavily mutated genome landed in the base species")
	}
}

func TestSpeciesIDsMonotonic(t *testing.T) {
	lin := NewLineage()
	r := rng.New(3)
	sp := NewSpeciator(1, 1, 1, 0.001, 15)

	members := uniformPopulation(3, lin, r)
	sp.Assign(members)
	first := sp.Species[0].ID

	// Empty assignment removes all species; the next cluster gets a new id.
	sp.Assign(nil)
	sp.Assign(members)
	if sp.Species[0].ID <= first {
		t.Errorf("species id %d not monotonic after %d", sp.Species[0].ID, first)
	}
}

func TestAdjustedFitness(t *testing.T) {
	if got := AdjustedFitness(10, 5); got != 2 {
		t.Errorf("AdjustedFitness(10,5) = %v, want 2", got)
	}
	if got := AdjustedFitness(10, 0); got != 10 {
		t.Errorf("AdjustedFitness(10,0) = %v, want 10", got)
	}
}

func TestStagnationCullsButKeepsOne(t *testing.T) {
	lin := NewLineage()
	r := rng.New(4)
	sp := NewSpeciator(1, 1, 0.4, 3.0, 3)

	members := uniformPopulation(4, lin, r)
	sp.Assign(members)

	fitness := func(id uint64) float64 { return 1.0 }
	genome := func(id uint64) *DNA { return members[0].DNA }

	// First update records the best; further updates with no improvement
	// push the species to the stagnation limit.
	for i := 0; i < 10; i++ {
		sp.UpdateStagnation(fitness, genome)
	}

	if len(sp.Species) != 1 {
		t.Fatalf("species count = %d, want the single best species kept", len(sp.Species))
	}
	if sp.Species[0].Stagnation != 0 {
		t.Errorf("survivor stagnation = %d, want reset to 0", sp.Species[0].Stagnation)
	}
}

func TestStagnationResetOnImprovement(t *testing.T) {
	lin := NewLineage()
	r := rng.New(5)
	sp := NewSpeciator(1, 1, 0.4, 3.0, 5)

	members := uniformPopulation(3, lin, r)
	sp.Assign(members)

	best := 1.0
	fitness := func(id uint64) float64 { return best }
	genome := func(id uint64) *DNA { return members[0].DNA }

	sp.UpdateStagnation(fitness, genome)
	sp.UpdateStagnation(fitness, genome)
	if sp.Species[0].Stagnation != 1 {
		t.Fatalf("stagnation = %d, want 1 after one flat window", sp.Species[0].Stagnation)
	}

	best = 2.0
	sp.UpdateStagnation(fitness, genome)
	if sp.Species[0].Stagnation != 0 {
		t.Errorf("stagnation = %d, want 0 after improvement", sp.Species[0].Stagnation)
	}
}
