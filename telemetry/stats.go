package telemetry

import (
	"log/slog"

	"gonum.org/v1/gonum/stat"
)

// TickStats holds aggregated statistics for one stats window.
type TickStats struct {
	WindowStart int64 `csv:"-" json:"-"`
	Tick        int64 `csv:"tick" json:"tick"`

	// Population sampled at window end
	Population   int     `csv:"population" json:"population"`
	FoodCount    int     `csv:"food" json:"food"`
	SpeciesCount int     `csv:"species" json:"species"`
	MeanEnergy   float64 `csv:"mean_energy" json:"mean_energy"`
	MeanAge      float64 `csv:"mean_age" json:"mean_age"`

	// Events during window
	Births     int `csv:"births" json:"births"`
	Starved    int `csv:"starved" json:"starved"`
	Killed     int `csv:"killed" json:"killed"`
	Eats       int `csv:"eats" json:"eats"`
	Attacks    int `csv:"attacks" json:"attacks"`
	Kills      int `csv:"kills" json:"kills"`
	Donations  int `csv:"donations" json:"donations"`
	FoodSpawns int `csv:"food_spawns" json:"food_spawns"`
}

// Sample fills the population-level fields from per-creature samples.
func (s *TickStats) Sample(population, food, species int, energies, ages []float64) {
	s.Population = population
	s.FoodCount = food
	s.SpeciesCount = species
	if len(energies) > 0 {
		s.MeanEnergy = stat.Mean(energies, nil)
	} else {
		s.MeanEnergy = 0
	}
	if len(ages) > 0 {
		s.MeanAge = stat.Mean(ages, nil)
	} else {
		s.MeanAge = 0
	}
}

// LogValue implements slog.LogValuer for compact structured logging.
func (s TickStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("tick", s.Tick),
		slog.Int("population", s.Population),
		slog.Int("food", s.FoodCount),
		slog.Int("species", s.SpeciesCount),
		slog.Float64("mean_energy", s.MeanEnergy),
		slog.Float64("mean_age", s.MeanAge),
		slog.Int("births", s.Births),
		slog.Int("deaths", s.Starved+s.Killed),
	)
}
