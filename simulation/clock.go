package simulation

import "time"

// Clock abstracts simulated time so tests can drive the engine with a
// fixed origin (spec §4.F "Time source").
type Clock interface {
	Now() time.Time
}

// systemClock adds a configured simulated-time offset to the real
// monotonic delta since construction (spec §4.F: "the simulation-time
// offset is added to the monotonic delta since construction").
type systemClock struct {
	origin      time.Time // wall time at construction
	simOffset   time.Time // caller-supplied simulated origin, equal to origin if unset
}

func newSystemClock(simStart *time.Time) *systemClock {
	c := &systemClock{origin: time.Now()}
	if simStart != nil {
		c.simOffset = *simStart
	} else {
		c.simOffset = c.origin
	}
	return c
}

func (c *systemClock) Now() time.Time {
	elapsed := time.Since(c.origin)
	return c.simOffset.Add(elapsed)
}

// fixedClock never advances on its own; tests and `simulation_start_time`
// embedders that want full control set it explicitly with Set.
type fixedClock struct {
	t time.Time
}

func newFixedClock(t time.Time) *fixedClock { return &fixedClock{t: t} }

func (c *fixedClock) Now() time.Time { return c.t }

func (c *fixedClock) Set(t time.Time) { c.t = t }
