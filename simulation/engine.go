package simulation

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"panelclient/phase"
)

// BranchReading is one physical panel position's instantaneous telemetry,
// shaped identically to the live G2 transport's branch record so the same
// unmapped-circuit synthesis runs unmodified against simulated data.
type BranchReading struct {
	Position         int
	PowerW           float64
	VoltageV         float64
	CurrentA         float64
	RelayState       string
	Priority         string
	EnergyConsumedWh float64
	EnergyProducedWh float64
}

// CircuitReading is one configured circuit's instantaneous telemetry.
type CircuitReading struct {
	ID               string
	Name             string
	Tabs             []int
	PowerW           float64
	VoltageV         float64
	CurrentA         float64
	RelayState       string
	Priority         string
	EnergyConsumedWh float64
	EnergyProducedWh float64
}

// PanelReading is one tick's complete simulated read, covering every field
// the G2 adapter needs to build StatusResponse/PanelStateResponse/
// CircuitsResponse/StorageSOEResponse.
type PanelReading struct {
	SerialNumber    string
	FirmwareVersion string
	DoorState       string

	MainPowerW     float64
	GridPowerW     float64
	DSMState       string
	MainRelayState string
	TotalPositions int

	BatterySOE          float64
	BatteryMaxEnergyKWh float64

	Branches map[string]CircuitReading // keyed by circuit id, configured circuits only
	Unmapped []BranchReading           // every uncovered position with telemetry
}

// Override is a runtime adjustment to a circuit's tick output (spec §4.F
// "set_circuit_overrides"). A nil field leaves that aspect untouched.
type Override struct {
	PowerW     *float64
	Multiplier *float64
}

type energyAccumulator struct {
	consumedWh float64
	producedWh float64
	lastTick   time.Time
}

func (a *energyAccumulator) accumulate(now time.Time, powerW float64) {
	if !a.lastTick.IsZero() {
		deltaHours := now.Sub(a.lastTick).Hours()
		if deltaHours > 0 {
			if powerW > 0 {
				a.consumedWh += powerW * deltaHours
			} else {
				a.producedWh += -powerW * deltaHours
			}
		}
	}
	a.lastTick = now
}

// Engine is the tick-driven panel simulator (spec §4.F).
type Engine struct {
	mu sync.Mutex

	cfg   *Config
	clock Clock
	epoch time.Time

	rngs    map[string]*rand.Rand
	energy  map[string]*energyAccumulator
	overrides map[string]Override
	globalMultiplier float64

	onChange func()
}

// NewEngine constructs a simulation engine from a validated config. If
// simStart is non-nil, the engine's clock origin is pinned there rather
// than the real wall clock (spec §6 "simulation_start_time").
func NewEngine(cfg *Config, simStart *time.Time) *Engine {
	e := &Engine{
		cfg:              cfg,
		clock:            newSystemClock(simStart),
		rngs:             make(map[string]*rand.Rand),
		energy:           make(map[string]*energyAccumulator),
		overrides:        make(map[string]Override),
		globalMultiplier: 1.0,
	}
	e.epoch = e.clock.Now()
	return e
}

// OnChange registers a callback invoked whenever overrides mutate engine
// state, so the owning G2 client can clear its cache (spec §4.F: "both
// clear the enclosing client's cache").
func (e *Engine) OnChange(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onChange = fn
}

// SetClock overrides the engine's time source, for deterministic tests.
func (e *Engine) SetClock(c Clock) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clock = c
}

func (e *Engine) rngFor(key string) *rand.Rand {
	if r, ok := e.rngs[key]; ok {
		return r
	}
	r := newCircuitRand(e.cfg.SimulationParams.RandomSeed, key)
	e.rngs[key] = r
	return r
}

func (e *Engine) accumulatorFor(key string) *energyAccumulator {
	a, ok := e.energy[key]
	if !ok {
		a = &energyAccumulator{}
		e.energy[key] = a
	}
	return a
}

// SetCircuitOverrides installs or replaces overrides for the named
// circuits and clears the owning client's cache (spec §4.F).
func (e *Engine) SetCircuitOverrides(overrides map[string]Override) {
	e.mu.Lock()
	for id, o := range overrides {
		e.overrides[id] = o
	}
	onChange := e.onChange
	e.mu.Unlock()
	if onChange != nil {
		onChange()
	}
}

// ClearCircuitOverrides removes every circuit override. Idempotent.
func (e *Engine) ClearCircuitOverrides() {
	e.mu.Lock()
	e.overrides = make(map[string]Override)
	onChange := e.onChange
	e.mu.Unlock()
	if onChange != nil {
		onChange()
	}
}

// SetGlobalPowerMultiplier scales every circuit's output (spec §4.F
// "global_overrides.power_multiplier").
func (e *Engine) SetGlobalPowerMultiplier(m float64) {
	e.mu.Lock()
	e.globalMultiplier = m
	onChange := e.onChange
	e.mu.Unlock()
	if onChange != nil {
		onChange()
	}
}

// Tick computes one full panel reading at the engine's current simulated
// time (spec §4.F power-generation and energy-accumulation algorithm).
func (e *Engine) Tick() PanelReading {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	reading := PanelReading{
		SerialNumber:        e.cfg.PanelConfig.SerialNumber,
		FirmwareVersion:     e.cfg.SimulationParams.FirmwareVersion,
		DoorState:           "CLOSED",
		DSMState:            "NORMAL",
		MainRelayState:      "CLOSED",
		TotalPositions:      e.cfg.PanelConfig.TotalTabs,
		BatterySOE:          e.cfg.SimulationParams.BatterySOEInitial,
		BatteryMaxEnergyKWh: e.cfg.SimulationParams.BatteryMaxEnergyKWh,
		Branches:            make(map[string]CircuitReading, len(e.cfg.Circuits)),
	}

	mappedPositions := make(map[int]struct{})
	var totalPowerW float64

	for _, circ := range e.cfg.Circuits {
		tmpl := e.cfg.CircuitTemplates[circ.Template]
		applyCircuitOverride(&tmpl, circ.Override)

		key := "circuit:" + circ.ID
		power := tickPower(tmpl, now, e.epoch, e.rngFor(key))
		if o, ok := e.overrides[circ.ID]; ok {
			power = applyRuntimeOverride(power, o)
		}
		power *= e.globalMultiplier

		acc := e.accumulatorFor(key)
		acc.accumulate(now, power)

		voltage, current := voltageCurrentFor(circ.Tabs, power)

		reading.Branches[circ.ID] = CircuitReading{
			ID:               circ.ID,
			Name:             circ.Name,
			Tabs:             circ.Tabs,
			PowerW:           power,
			VoltageV:         voltage,
			CurrentA:         current,
			RelayState:       relayStateFor(tmpl.RelayBehaviour),
			Priority:         priorityFor(tmpl, circ.Override),
			EnergyConsumedWh: acc.consumedWh,
			EnergyProducedWh: acc.producedWh,
		}
		totalPowerW += power
		for _, p := range circ.Tabs {
			mappedPositions[p] = struct{}{}
		}
	}

	reading.Unmapped = e.tickUnmapped(now, mappedPositions)
	for _, b := range reading.Unmapped {
		totalPowerW += b.PowerW
	}

	reading.MainPowerW = totalPowerW
	reading.GridPowerW = totalPowerW // simplification: no separate battery/solar split modeled at the main-feed level
	return reading
}

func (e *Engine) tickUnmapped(now time.Time, mapped map[int]struct{}) []BranchReading {
	var out []BranchReading

	handled := make(map[int]struct{})
	for _, group := range e.cfg.TabSynchronizations {
		if !allUnmapped(group.Positions, mapped) {
			continue
		}
		tmplPos := group.Positions[0]
		tmpl, ok := e.cfg.UnmappedTabTemplates[tmplPos]
		if !ok {
			continue
		}
		key := fmt.Sprintf("tabsync:%v", group.Positions)
		total := tickPower(tmpl, now, e.epoch, e.rngFor(key)) * e.globalMultiplier
		shares := splitPower(total, group.Positions, group.PowerSplit, group.Ratios)

		acc := e.accumulatorFor(key)
		if group.EnergySync {
			acc.accumulate(now, total)
		}

		for _, p := range group.Positions {
			handled[p] = struct{}{}
			share := shares[p]
			voltage, current := voltageCurrentFor(group.Positions, share)
			consumed, produced := acc.consumedWh, acc.producedWh
			if !group.EnergySync {
				perPos := e.accumulatorFor(fmt.Sprintf("tab:%d", p))
				perPos.accumulate(now, share)
				consumed, produced = perPos.consumedWh, perPos.producedWh
			}
			out = append(out, BranchReading{
				Position:         p,
				PowerW:           share,
				VoltageV:         voltage,
				CurrentA:         current,
				RelayState:       relayStateFor(tmpl.RelayBehaviour),
				Priority:         tmpl.Priority,
				EnergyConsumedWh: consumed,
				EnergyProducedWh: produced,
			})
		}
	}

	// Standalone unmapped positions (not part of any synchronization
	// group) with a declared template each get their own deterministic
	// stream and accumulator.
	for pos, tmpl := range e.cfg.UnmappedTabTemplates {
		if _, ok := mapped[pos]; ok {
			continue
		}
		if _, ok := handled[pos]; ok {
			continue
		}
		key := fmt.Sprintf("tab:%d", pos)
		power := tickPower(tmpl, now, e.epoch, e.rngFor(key)) * e.globalMultiplier
		acc := e.accumulatorFor(key)
		acc.accumulate(now, power)
		voltage, current := voltageCurrentFor([]int{pos}, power)
		out = append(out, BranchReading{
			Position:         pos,
			PowerW:           power,
			VoltageV:         voltage,
			CurrentA:         current,
			RelayState:       relayStateFor(tmpl.RelayBehaviour),
			Priority:         tmpl.Priority,
			EnergyConsumedWh: acc.consumedWh,
			EnergyProducedWh: acc.producedWh,
		})
		handled[pos] = struct{}{}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

func allUnmapped(positions []int, mapped map[int]struct{}) bool {
	for _, p := range positions {
		if _, ok := mapped[p]; ok {
			return false
		}
	}
	return true
}

func applyCircuitOverride(tmpl *CircuitTemplate, o *CircuitOverride) {
	if o == nil {
		return
	}
	if o.Typical != nil {
		tmpl.Typical = *o.Typical
	}
	if o.Variation != nil {
		tmpl.Variation = *o.Variation
	}
	if o.Priority != nil {
		tmpl.Priority = *o.Priority
	}
}

func applyRuntimeOverride(power float64, o Override) float64 {
	if o.PowerW != nil {
		power = *o.PowerW
	}
	if o.Multiplier != nil {
		power *= *o.Multiplier
	}
	return power
}

func priorityFor(tmpl CircuitTemplate, o *CircuitOverride) string {
	if o != nil && o.Priority != nil {
		return *o.Priority
	}
	return tmpl.Priority
}

// relayStateFor always reports CLOSED: the simulation engine has no
// writableSource (spec §4.F "the simulation engine exposes its own
// override mechanism instead"), so relay_behaviour only ever describes
// whether a circuit could be commanded on a live panel, never whether it
// currently is.
func relayStateFor(rb RelayBehaviour) string {
	return "CLOSED"
}

// voltageCurrentFor derives representative voltage/current for a reading
// from its power and tab count: dual-phase (two-tab) circuits run at the
// panel's 240V leg pairing, everything else at 120V, matching the
// phase package's leg model. Current follows Ohm's law from the derived
// voltage; this is a simulation convenience with no live-panel
// counterpart to ground further.
func voltageCurrentFor(tabs []int, powerW float64) (voltageV, currentA float64) {
	voltageV = 120.0
	if len(tabs) == 2 && phase.LegOf(tabs[0]) != phase.LegOf(tabs[1]) {
		voltageV = 240.0
	}
	currentA = powerW / voltageV
	if currentA < 0 {
		currentA = -currentA
	}
	return voltageV, currentA
}

// splitPower divides total across positions per the requested strategy
// (spec §4.F "split across tabs according to power_split").
func splitPower(total float64, positions []int, split PowerSplit, ratios []float64) map[int]float64 {
	out := make(map[int]float64, len(positions))
	switch split {
	case SplitCustomRatio:
		sum := 0.0
		for _, r := range ratios {
			sum += r
		}
		if sum == 0 {
			sum = 1
		}
		for i, p := range positions {
			if i < len(ratios) {
				out[p] = total * (ratios[i] / sum)
			}
		}
	case SplitPrimarySecondary:
		if len(positions) == 0 {
			return out
		}
		out[positions[0]] = total * 0.6
		remaining := total * 0.4
		rest := positions[1:]
		if len(rest) == 0 {
			return out
		}
		each := remaining / float64(len(rest))
		for _, p := range rest {
			out[p] = each
		}
	default: // SplitEqual
		if len(positions) == 0 {
			return out
		}
		each := total / float64(len(positions))
		for _, p := range positions {
			out[p] = each
		}
	}
	return out
}
