package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load defaults: %v", err)
	}

	if cfg.World.Width <= 0 || cfg.World.Height <= 0 {
		t.Errorf("world size %vx%v not positive", cfg.World.Width, cfg.World.Height)
	}
	if cfg.World.GridCellSize <= 0 {
		t.Errorf("grid cell size %v not positive", cfg.World.GridCellSize)
	}
	if cfg.Population.Initial <= 0 || cfg.Population.Max < cfg.Population.Initial {
		t.Errorf("population bounds %d/%d invalid", cfg.Population.Initial, cfg.Population.Max)
	}
	if cfg.Energy.Max < cfg.Energy.Initial {
		t.Errorf("energy max %v below initial %v", cfg.Energy.Max, cfg.Energy.Initial)
	}
}

func TestDefaultFormulasEvaluate(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load defaults: %v", err)
	}

	vars := map[string]float64{"radius": 5, "energy": 100, "age": 0, "population": 40}
	if m := cfg.Energy.Metabolism.Eval(vars); m <= 0 {
		t.Errorf("metabolism = %v, want positive for a live creature", m)
	}
	if n := cfg.Food.Nutrition.Eval(vars); n < 10 || n > 30 {
		t.Errorf("nutrition = %v, want within [10,30]", n)
	}
	if d := cfg.Combat.Damage.Eval(vars); d <= 0 {
		t.Errorf("damage = %v, want positive", d)
	}
}

func TestLoadUserOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "override.yaml")
	body := []byte(`
world:
  width: 400
energy:
  metabolism: "0.1 * radius"
`)
	if err := os.WriteFile(path, body, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.World.Width != 400 {
		t.Errorf("width = %v, want user override 400", cfg.World.Width)
	}
	if cfg.World.Height <= 0 {
		t.Errorf("height = %v, default lost in merge", cfg.World.Height)
	}
	if got := cfg.Energy.Metabolism.Eval(map[string]float64{"radius": 5}); got != 0.5 {
		t.Errorf("metabolism = %v, want overridden 0.5", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestDerivedBrainPeriod(t *testing.T) {
	tests := []struct {
		tickRate, brainRate, want float64
	}{
		{60, 15, 4},
		{60, 60, 1},
		{60, 0, 1},   // unset brain rate runs every tick
		{60, 120, 1}, // faster than tick clamps to every tick
	}
	for _, tt := range tests {
		cfg := &Config{}
		cfg.Time.TickRate = tt.tickRate
		cfg.Time.BrainRate = tt.brainRate
		cfg.Finalize()
		if cfg.Derived.BrainPeriod != tt.want {
			t.Errorf("tick %v brain %v: period = %v, want %v",
				tt.tickRate, tt.brainRate, cfg.Derived.BrainPeriod, tt.want)
		}
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load defaults: %v", err)
	}
	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	back, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if back.World.Width != cfg.World.Width {
		t.Errorf("width = %v, want %v", back.World.Width, cfg.World.Width)
	}
	vars := map[string]float64{"radius": 5, "population": 40}
	if back.Energy.Metabolism.Eval(vars) != cfg.Energy.Metabolism.Eval(vars) {
		t.Error("metabolism formula changed across write/reload")
	}
	if back.Food.Nutrition.Eval(vars) != cfg.Food.Nutrition.Eval(vars) {
		t.Error("nutrition formula changed across write/reload")
	}
}
