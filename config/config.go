// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/petri/expr"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters. Tunable numeric
// fields of type expr.Value accept either a literal number or a formula
// evaluated against per-event variables (radius, energy, age, nutrition,
// population).
type Config struct {
	World        WorldConfig        `yaml:"world"`
	Time         TimeConfig         `yaml:"time"`
	Population   PopulationConfig   `yaml:"population"`
	Energy       EnergyConfig       `yaml:"energy"`
	Food         FoodConfig         `yaml:"food"`
	Combat       CombatConfig       `yaml:"combat"`
	Reproduction ReproductionConfig `yaml:"reproduction"`
	Death        DeathConfig        `yaml:"death"`
	Donation     DonationConfig     `yaml:"donation"`
	Broadcast    BroadcastConfig    `yaml:"broadcast"`
	Obstacles    ObstaclesConfig    `yaml:"obstacles"`
	Speciation   SpeciationConfig   `yaml:"speciation"`
	Mutation     MutationConfig     `yaml:"mutation"`
	Telemetry    TelemetryConfig    `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds world dimensions and spatial index granularity.
type WorldConfig struct {
	Width        float64 `yaml:"width"`
	Height       float64 `yaml:"height"`
	GridCellSize float64 `yaml:"grid_cell_size"`
}

// TimeConfig holds tick pacing. Brains fire every tick_rate/brain_rate ticks.
type TimeConfig struct {
	TickRate  float64 `yaml:"tick_rate"`
	BrainRate float64 `yaml:"brain_rate"`
}

// PopulationConfig holds population management parameters.
type PopulationConfig struct {
	Initial         int `yaml:"initial"`
	Max             int `yaml:"max"`
	ReseedThreshold int `yaml:"reseed_threshold"` // reseed when population falls below
	ReseedCount     int `yaml:"reseed_count"`
}

// EnergyConfig holds per-tick energy economics.
type EnergyConfig struct {
	Initial        float64    `yaml:"initial"`
	Max            float64    `yaml:"max"`
	Metabolism     expr.Value `yaml:"metabolism"` // vars: radius, energy, age, population
	MoveCost       expr.Value `yaml:"move_cost"`
	TurnCost       expr.Value `yaml:"turn_cost"`
	VisionCost     expr.Value `yaml:"vision_cost"` // per ray
	BroadcastCost  expr.Value `yaml:"broadcast_cost"`
	DensityScaling bool       `yaml:"density_scaling"` // scale metabolism by population / max
}

// FoodConfig holds food spawning parameters.
type FoodConfig struct {
	SpawnPerTick   float64    `yaml:"spawn_per_tick"`
	Cap            int        `yaml:"cap"`
	Nutrition      expr.Value `yaml:"nutrition"` // vars: population
	Radius         float64    `yaml:"radius"`
	AvoidObstacles bool       `yaml:"avoid_obstacles"`
}

// CombatConfig holds attack parameters.
type CombatConfig struct {
	Damage   expr.Value `yaml:"damage"` // vars: radius, energy
	Radius   float64    `yaml:"radius"`
	Cooldown int        `yaml:"cooldown"` // ticks
}

// ReproductionConfig holds reproduction parameters.
type ReproductionConfig struct {
	Threshold   float64 `yaml:"threshold"`    // minimum energy to reproduce
	Cooldown    int     `yaml:"cooldown"`     // ticks
	EnergyShare float64 `yaml:"energy_share"` // fraction of parent energy given to child
}

// DeathConfig holds corpse handling parameters.
type DeathConfig struct {
	FoodDropRatio float64 `yaml:"food_drop_ratio"` // energy fraction returned as food
	MaxFoodDrops  int     `yaml:"max_food_drops"`
}

// DonationConfig holds energy transfer parameters.
type DonationConfig struct {
	Amount expr.Value `yaml:"amount"` // vars: energy
	Radius float64    `yaml:"radius"`
}

// BroadcastConfig holds signalling parameters.
type BroadcastConfig struct {
	Radius float64 `yaml:"radius"`
}

// ObstaclesConfig holds static obstacle generation parameters.
type ObstaclesConfig struct {
	Count     int     `yaml:"count"`
	MinRadius float64 `yaml:"min_radius"`
	MaxRadius float64 `yaml:"max_radius"`
}

// SpeciationConfig holds compatibility distance coefficients and clustering
// cadence.
type SpeciationConfig struct {
	C1              float64 `yaml:"c1"` // excess coefficient
	C2              float64 `yaml:"c2"` // disjoint coefficient
	C3              float64 `yaml:"c3"` // weight difference coefficient
	Threshold       float64 `yaml:"threshold"`
	StagnationLimit int     `yaml:"stagnation_limit"`
	Interval        int     `yaml:"interval"` // ticks between re-clustering; 0 disables
}

// MutationConfig holds genome mutation parameters.
type MutationConfig struct {
	Rate     float64 `yaml:"rate"`
	Strength float64 `yaml:"strength"`
}

// TelemetryConfig holds stats aggregation and output parameters.
type TelemetryConfig struct {
	StatsInterval int    `yaml:"stats_interval"` // ticks per TickStats row
	OutputDir     string `yaml:"output_dir"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	BrainPeriod float64 // ticks between brain firings (tick_rate / brain_rate)
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if
// path is empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	return cfg, nil
}

// Finalize recomputes derived values. Needed after deserializing a Config
// from somewhere other than Load, e.g. a snapshot.
func (c *Config) Finalize() {
	c.computeDerived()
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	if c.Time.BrainRate <= 0 {
		c.Time.BrainRate = c.Time.TickRate
	}
	c.Derived.BrainPeriod = c.Time.TickRate / c.Time.BrainRate
	if c.Derived.BrainPeriod < 1 {
		c.Derived.BrainPeriod = 1
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
