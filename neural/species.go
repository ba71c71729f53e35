package neural

import "math"

// CompatibilityDistance measures how structurally and weight-wise different
// two brain genomes are, after aligning connections by innovation number.
// Symmetric, and zero for identical genomes.
func CompatibilityDistance(a, b *BrainGenome, c1, c2, c3 float64) float64 {
	maxA, maxB := 0, 0
	byInnovA := make(map[int]ConnGene, len(a.Conns))
	for _, c := range a.Conns {
		byInnovA[c.Innovation] = c
		if c.Innovation > maxA {
			maxA = c.Innovation
		}
	}
	byInnovB := make(map[int]ConnGene, len(b.Conns))
	for _, c := range b.Conns {
		byInnovB[c.Innovation] = c
		if c.Innovation > maxB {
			maxB = c.Innovation
		}
	}

	var excess, disjoint, matching int
	var weightDiff float64

	for _, ca := range a.Conns {
		cb, ok := byInnovB[ca.Innovation]
		if ok {
			matching++
			weightDiff += math.Abs(ca.Weight - cb.Weight)
			continue
		}
		if ca.Innovation > maxB {
			excess++
		} else {
			disjoint++
		}
	}
	for _, cb := range b.Conns {
		if _, ok := byInnovA[cb.Innovation]; ok {
			continue
		}
		if cb.Innovation > maxA {
			excess++
		} else {
			disjoint++
		}
	}

	n := len(a.Conns)
	if len(b.Conns) > n {
		n = len(b.Conns)
	}
	if n < 1 {
		n = 1
	}

	d := (c1*float64(excess) + c2*float64(disjoint)) / float64(n)
	if matching > 0 {
		d += c3 * weightDiff / float64(matching)
	}
	return d
}

// Species is one compatibility cluster of the live population.
type Species struct {
	ID             int      `json:"id"`
	Representative *DNA     `json:"representative"`
	Members        []uint64 `json:"members"`
	BestFitness    float64  `json:"best_fitness"`
	Stagnation     int      `json:"stagnation"`
}

// Speciator clusters genomes into species and tracks stagnation. Species ids
// are monotonic and never reused.
type Speciator struct {
	Species []*Species
	NextID  int

	C1, C2, C3 float64
	Threshold  float64
	Stagnation int
}

// NewSpeciator creates a speciator with the given distance coefficients,
// compatibility threshold and stagnation limit.
func NewSpeciator(c1, c2, c3, threshold float64, stagnation int) *Speciator {
	return &Speciator{
		NextID:     1,
		C1:         c1,
		C2:         c2,
		C3:         c3,
		Threshold:  threshold,
		Stagnation: stagnation,
	}
}

// Member pairs a creature id with its genome for assignment.
type Member struct {
	ID  uint64
	DNA *DNA
}

// Assign re-clusters the population. Each member joins the first existing
// species whose representative is within the threshold, else founds a new
// species with itself as representative. Species left empty are removed.
// Returns the species id for each member, in input order.
func (sp *Speciator) Assign(members []Member) []int {
	for _, s := range sp.Species {
		s.Members = s.Members[:0]
	}

	ids := make([]int, len(members))
	for i, m := range members {
		placed := false
		for _, s := range sp.Species {
			d := CompatibilityDistance(&m.DNA.Brain, &s.Representative.Brain, sp.C1, sp.C2, sp.C3)
			if d <= sp.Threshold {
				s.Members = append(s.Members, m.ID)
				ids[i] = s.ID
				placed = true
				break
			}
		}
		if placed {
			continue
		}
		s := &Species{
			ID:             sp.NextID,
			Representative: m.DNA.Clone(),
			Members:        []uint64{m.ID},
		}
		sp.NextID++
		sp.Species = append(sp.Species, s)
		ids[i] = s.ID
	}

	kept := sp.Species[:0]
	for _, s := range sp.Species {
		if len(s.Members) > 0 {
			kept = append(kept, s)
		}
	}
	sp.Species = kept
	return ids
}

// AdjustedFitness applies fitness sharing: raw fitness divided by the size of
// the member's species.
func AdjustedFitness(raw float64, speciesSize int) float64 {
	if speciesSize < 1 {
		speciesSize = 1
	}
	return raw / float64(speciesSize)
}

// UpdateStagnation advances each species' stagnation counter using the best
// raw fitness among its current members. A species beating its all-time best
// resets its counter and takes its first current member as the fresh
// representative. Species at or past the limit are culled, but at least one
// species always survives: if every species would go, the best one is kept
// with its counter reset.
func (sp *Speciator) UpdateStagnation(fitness func(id uint64) float64, genome func(id uint64) *DNA) {
	for _, s := range sp.Species {
		best := math.Inf(-1)
		for _, id := range s.Members {
			if f := fitness(id); f > best {
				best = f
			}
		}
		if best > s.BestFitness {
			s.BestFitness = best
			s.Stagnation = 0
			if len(s.Members) > 0 {
				if d := genome(s.Members[0]); d != nil {
					s.Representative = d.Clone()
				}
			}
		} else {
			s.Stagnation++
		}
	}

	kept := sp.Species[:0]
	for _, s := range sp.Species {
		if s.Stagnation < sp.Stagnation {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 && len(sp.Species) > 0 {
		best := sp.Species[0]
		for _, s := range sp.Species[1:] {
			if s.BestFitness > best.BestFitness {
				best = s
			}
		}
		best.Stagnation = 0
		kept = append(kept, best)
	}
	sp.Species = kept
}
