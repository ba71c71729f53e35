package telemetry

// Collector accumulates events within stats windows.
type Collector struct {
	windowTicks     int64
	windowStartTick int64

	// Event counters for current window
	births     int
	starved    int
	killed     int
	eats       int
	attacks    int
	kills      int
	donations  int
	foodSpawns int
}

// NewCollector creates a collector producing one stats row per windowTicks.
func NewCollector(windowTicks int64) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{windowTicks: windowTicks}
}

// Record counts one event into the current window.
func (c *Collector) Record(e Event) {
	switch e.Type {
	case EventBirth:
		c.births++
	case EventDeath:
		if e.Cause == CauseKilled {
			c.killed++
		} else {
			c.starved++
		}
	case EventEat:
		c.eats++
	case EventAttack:
		c.attacks++
	case EventKill:
		c.kills++
	case EventDonate:
		c.donations++
	case EventFoodSpawn:
		c.foodSpawns++
	}
}

// CollectorState is the serializable mid-window state of a Collector.
type CollectorState struct {
	WindowStart int64 `json:"window_start"`
	Births      int   `json:"births"`
	Starved     int   `json:"starved"`
	Killed      int   `json:"killed"`
	Eats        int   `json:"eats"`
	Attacks     int   `json:"attacks"`
	Kills       int   `json:"kills"`
	Donations   int   `json:"donations"`
	FoodSpawns  int   `json:"food_spawns"`
}

// State exports the current window for snapshotting.
func (c *Collector) State() CollectorState {
	return CollectorState{
		WindowStart: c.windowStartTick,
		Births:      c.births,
		Starved:     c.starved,
		Killed:      c.killed,
		Eats:        c.eats,
		Attacks:     c.attacks,
		Kills:       c.kills,
		Donations:   c.donations,
		FoodSpawns:  c.foodSpawns,
	}
}

// Restore resumes a window exported by State.
func (c *Collector) Restore(s CollectorState) {
	c.windowStartTick = s.WindowStart
	c.births = s.Births
	c.starved = s.Starved
	c.killed = s.Killed
	c.eats = s.Eats
	c.attacks = s.Attacks
	c.kills = s.Kills
	c.donations = s.Donations
	c.foodSpawns = s.FoodSpawns
}

// WindowDue reports whether the current window ends at the given tick.
func (c *Collector) WindowDue(tick int64) bool {
	return tick-c.windowStartTick >= c.windowTicks
}

// Flush finalizes the current window into stats and starts the next one.
// The caller supplies the population-level fields.
func (c *Collector) Flush(tick int64, stats *TickStats) {
	stats.WindowStart = c.windowStartTick
	stats.Tick = tick
	stats.Births = c.births
	stats.Starved = c.starved
	stats.Killed = c.killed
	stats.Eats = c.eats
	stats.Attacks = c.attacks
	stats.Kills = c.kills
	stats.Donations = c.donations
	stats.FoodSpawns = c.foodSpawns

	c.windowStartTick = tick
	c.births = 0
	c.starved = 0
	c.killed = 0
	c.eats = 0
	c.attacks = 0
	c.kills = 0
	c.donations = 0
	c.foodSpawns = 0
}
