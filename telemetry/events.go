// Package telemetry provides event collection, aggregate statistics, CSV
// output and simulation snapshots.
package telemetry

// EventType identifies telemetry events.
type EventType uint8

const (
	EventBirth EventType = iota
	EventDeath
	EventEat
	EventAttack
	EventKill
	EventDonate
	EventFoodSpawn
)

// DeathCause labels how a creature died.
type DeathCause string

const (
	CauseStarved DeathCause = "starved"
	CauseKilled  DeathCause = "killed"
)

// Event represents a single telemetry event.
type Event struct {
	Type     EventType
	Tick     int64
	EntityID uint64

	// Optional fields depending on event type
	TargetID uint64     // attack/kill target, birth parent
	Amount   float64    // energy transferred or consumed
	Cause    DeathCause // death events only
}

// NewBirthEvent creates a birth event. The parent id rides in TargetID.
func NewBirthEvent(tick int64, childID, parentID uint64) Event {
	return Event{Type: EventBirth, Tick: tick, EntityID: childID, TargetID: parentID}
}

// NewDeathEvent creates a death event.
func NewDeathEvent(tick int64, entityID uint64, cause DeathCause) Event {
	return Event{Type: EventDeath, Tick: tick, EntityID: entityID, Cause: cause}
}

// NewEatEvent creates a feeding event.
func NewEatEvent(tick int64, entityID, foodID uint64, amount float64) Event {
	return Event{Type: EventEat, Tick: tick, EntityID: entityID, TargetID: foodID, Amount: amount}
}

// NewAttackEvent creates an attack event.
func NewAttackEvent(tick int64, attackerID, targetID uint64, damage float64) Event {
	return Event{Type: EventAttack, Tick: tick, EntityID: attackerID, TargetID: targetID, Amount: damage}
}

// NewKillEvent creates a kill event.
func NewKillEvent(tick int64, attackerID, targetID uint64) Event {
	return Event{Type: EventKill, Tick: tick, EntityID: attackerID, TargetID: targetID}
}

// NewDonateEvent creates an energy transfer event.
func NewDonateEvent(tick int64, donorID, recipientID uint64, amount float64) Event {
	return Event{Type: EventDonate, Tick: tick, EntityID: donorID, TargetID: recipientID, Amount: amount}
}

// NewFoodSpawnEvent creates a food spawn event. Amount carries the nutrition.
func NewFoodSpawnEvent(tick int64, foodID uint64, nutrition float64) Event {
	return Event{Type: EventFoodSpawn, Tick: tick, EntityID: foodID, Amount: nutrition}
}
