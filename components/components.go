// Package components defines ECS components for the simulation.
package components

import "github.com/pthm-cable/petri/neural"

// Position represents an entity's world position on the torus.
type Position struct {
	X, Y float64
}

// Motion holds heading and kinematic state.
type Motion struct {
	Heading      float64 // radians
	Speed        float64 // forward units per tick, negative = reverse
	AngularSpeed float64 // radians per tick
}

// Body holds physical extent.
type Body struct {
	Radius float64
}

// Energy tracks an entity's metabolic state. Prev is last tick's value and
// drives the Hebbian reward signal.
type Energy struct {
	Value float64
	Prev  float64
	Age   int64 // ticks alive
	Alive bool
}

// Action holds transient per-tick actuator state and cooldowns.
type Action struct {
	Attacking    bool
	Eating       bool
	Donating     bool
	Broadcasting bool
	Channel      int // active broadcast channel when Broadcasting

	AttackCooldown int
	ReproCooldown  int
}

// Genotype binds a creature to its genome and species.
type Genotype struct {
	ID        uint64
	DNA       *neural.DNA
	SpeciesID int
}

// Food is an edible item.
type Food struct {
	ID        uint64
	Nutrition float64
}

// Obstacle is a static impassable circle.
type Obstacle struct {
	ID     uint64
	Radius float64
}
