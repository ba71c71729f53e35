package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/petri/config"
)

func TestCollectorWindow(t *testing.T) {
	c := NewCollector(10)

	c.Record(NewBirthEvent(3, 7, 1))
	c.Record(NewBirthEvent(4, 8, 2))
	c.Record(NewDeathEvent(5, 2, CauseStarved))
	c.Record(NewDeathEvent(6, 3, CauseKilled))
	c.Record(NewEatEvent(7, 8, 9, 25))
	c.Record(NewAttackEvent(8, 1, 2, 11))
	c.Record(NewKillEvent(9, 1, 2))
	c.Record(NewDonateEvent(9, 1, 3, 5))
	c.Record(NewFoodSpawnEvent(9, 4, 25))

	if c.WindowDue(9) {
		t.Error("window due before windowTicks elapsed")
	}
	if !c.WindowDue(10) {
		t.Error("window not due at windowTicks")
	}

	var stats TickStats
	c.Flush(10, &stats)

	if stats.Births != 2 {
		t.Errorf("births = %d, want 2", stats.Births)
	}
	if stats.Starved != 1 || stats.Killed != 1 {
		t.Errorf("starved/killed = %d/%d, want 1/1", stats.Starved, stats.Killed)
	}
	if stats.Eats != 1 || stats.Attacks != 1 || stats.Kills != 1 || stats.Donations != 1 {
		t.Errorf("eats/attacks/kills/donations = %d/%d/%d/%d, want 1/1/1/1",
			stats.Eats, stats.Attacks, stats.Kills, stats.Donations)
	}
	if stats.FoodSpawns != 1 {
		t.Errorf("food spawns = %d, want 1", stats.FoodSpawns)
	}
	if stats.WindowStart != 0 || stats.Tick != 10 {
		t.Errorf("window [%d,%d], want [0,10]", stats.WindowStart, stats.Tick)
	}
}

func TestCollectorFlushResets(t *testing.T) {
	c := NewCollector(5)
	c.Record(NewBirthEvent(1, 1, 0))

	var first, second TickStats
	c.Flush(5, &first)
	c.Flush(10, &second)

	if second.Births != 0 {
		t.Errorf("births = %d after reset, want 0", second.Births)
	}
	if second.WindowStart != 5 {
		t.Errorf("second window start = %d, want 5", second.WindowStart)
	}
	if c.WindowDue(12) {
		t.Error("window due only 2 ticks into a 5-tick window")
	}
}

func TestTickStatsSample(t *testing.T) {
	var s TickStats
	s.Sample(3, 12, 2, []float64{50, 100, 150}, []float64{10, 20})

	if s.Population != 3 || s.FoodCount != 12 || s.SpeciesCount != 2 {
		t.Errorf("counts = %d/%d/%d, want 3/12/2", s.Population, s.FoodCount, s.SpeciesCount)
	}
	if s.MeanEnergy != 100 {
		t.Errorf("mean energy = %v, want 100", s.MeanEnergy)
	}
	if s.MeanAge != 15 {
		t.Errorf("mean age = %v, want 15", s.MeanAge)
	}
}

func TestTickStatsSampleEmpty(t *testing.T) {
	var s TickStats
	s.Sample(0, 0, 0, nil, nil)
	if s.MeanEnergy != 0 || s.MeanAge != 0 {
		t.Errorf("empty sample means = %v/%v, want 0/0", s.MeanEnergy, s.MeanAge)
	}
}

func TestOutputManagerStatsCSV(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	if err := om.WriteStats(TickStats{Tick: 60, Population: 10}); err != nil {
		t.Fatalf("WriteStats: %v", err)
	}
	if err := om.WriteStats(TickStats{Tick: 120, Population: 9}); err != nil {
		t.Fatalf("WriteStats: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "stats.csv"))
	if err != nil {
		t.Fatalf("read stats.csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("line count = %d, want header plus 2 rows", len(lines))
	}
	if !strings.Contains(lines[0], "tick") || !strings.Contains(lines[0], "population") {
		t.Errorf("header missing columns: %q", lines[0])
	}
	if strings.Contains(lines[2], "tick") {
		t.Errorf("second row repeats the header: %q", lines[2])
	}
}

func TestNilOutputManagerSafe(t *testing.T) {
	var om *OutputManager
	if err := om.WriteStats(TickStats{}); err != nil {
		t.Errorf("nil WriteStats: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Errorf("nil Close: %v", err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	snap := &Snapshot{
		Tick:             123,
		Config:           cfg,
		RNGState:         [4]uint32{1, 2, 3, 4},
		NextID:           42,
		BrainAccumulator: 2,
		InnovationNext:   7,
		Innovations:      map[string]int{"0>3": 1, "1>3": 2},
		NextSpeciesID:    3,
		Food:             []FoodState{{ID: 9, X: 10, Y: 20, Nutrition: 25}},
		Obstacles:        []ObstacleState{{ID: 1, X: 5, Y: 5, Radius: 30}},
	}

	path := filepath.Join(t.TempDir(), "snap.json")
	if err := snap.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	back, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if back.Tick != 123 || back.NextID != 42 || back.InnovationNext != 7 {
		t.Errorf("counters = %d/%d/%d, want 123/42/7", back.Tick, back.NextID, back.InnovationNext)
	}
	if back.RNGState != snap.RNGState {
		t.Errorf("rng state = %v, want %v", back.RNGState, snap.RNGState)
	}
	if back.Innovations["0>3"] != 1 || back.Innovations["1>3"] != 2 {
		t.Errorf("innovations = %v", back.Innovations)
	}
	if len(back.Food) != 1 || back.Food[0].Nutrition != 25 {
		t.Errorf("food = %+v", back.Food)
	}
}

func TestSnapshotVersionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.json")
	if err := os.WriteFile(path, []byte(`{"version": 99}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSnapshot(path); err == nil {
		t.Error("expected version mismatch error")
	}
}
