package telemetry

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pthm-cable/petri/config"
	"github.com/pthm-cable/petri/neural"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the complete simulation state. Restoring it continues the
// run bit-identically: PRNG state, id counters, the innovation registry and
// entity ordering are all preserved.
type Snapshot struct {
	Version int   `json:"version"`
	Tick    int64 `json:"tick"`

	Config *config.Config `json:"config"`

	RNGState         [4]uint32 `json:"rng_state"`
	NextID           uint64    `json:"next_id"`
	BrainAccumulator float64   `json:"brain_accumulator"`

	InnovationNext int            `json:"innovation_next"`
	Innovations    map[string]int `json:"innovations"`

	NextSpeciesID int               `json:"next_species_id"`
	Species       []*neural.Species `json:"species"`

	Collector CollectorState `json:"collector"`

	Creatures []CreatureState `json:"creatures"`
	Food      []FoodState     `json:"food"`
	Obstacles []ObstacleState `json:"obstacles"`
}

// CreatureState holds one creature's complete state, recorded in world
// iteration order so restoration reproduces entity ordering.
type CreatureState struct {
	ID uint64 `json:"id"`

	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Heading      float64 `json:"heading"`
	Speed        float64 `json:"speed"`
	AngularSpeed float64 `json:"angular_speed"`

	Energy     float64 `json:"energy"`
	PrevEnergy float64 `json:"prev_energy"`
	Age        int64   `json:"age"`

	AttackCooldown int `json:"attack_cooldown"`
	ReproCooldown  int `json:"repro_cooldown"`

	// Latched actuator state, held between brain ticks.
	Attacking    bool `json:"attacking,omitempty"`
	Eating       bool `json:"eating,omitempty"`
	Donating     bool `json:"donating,omitempty"`
	Broadcasting bool `json:"broadcasting,omitempty"`
	Channel      int  `json:"channel,omitempty"`

	SpeciesID int         `json:"species_id"`
	DNA       *neural.DNA `json:"dna"`

	// Live connection weights after Hebbian updates, in genome order.
	Weights []float64 `json:"weights,omitempty"`
}

// FoodState holds one food item's state.
type FoodState struct {
	ID        uint64  `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Nutrition float64 `json:"nutrition"`
}

// ObstacleState holds one obstacle's state.
type ObstacleState struct {
	ID     uint64  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
}

// Save writes the snapshot as JSON.
func (s *Snapshot) Save(path string) error {
	s.Version = SnapshotVersion
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads a snapshot from disk and validates its version.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", s.Version, SnapshotVersion)
	}
	return &s, nil
}
