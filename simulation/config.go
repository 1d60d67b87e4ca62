// Package simulation implements the declarative-config-driven panel
// simulator (spec §4.F): it serves the same read shape as the G2 transport
// so a caller can develop and test against a simulated panel without
// hardware.
//
// No teacher file simulates anything; the config-loading half of this
// package is grounded on the teacher's `internal/runtime.RuntimeConfigManager`
// (YAML load via gopkg.in/yaml.v3, checksum-guarded reload,
// fsnotify-backed watch), and the tick/energy math is built fresh from
// spec.md's own algorithmic description.
package simulation

import (
	"crypto/sha256"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"panelclient/internal/model"
	"panelclient/phase"
)

// Mode is a circuit template's energy direction.
type Mode string

const (
	ModeConsumer      Mode = "consumer"
	ModeProducer      Mode = "producer"
	ModeBidirectional Mode = "bidirectional"
)

// RelayBehaviour says whether a circuit's relay can be commanded.
type RelayBehaviour string

const (
	RelayControllable    RelayBehaviour = "controllable"
	RelayNonControllable RelayBehaviour = "non_controllable"
)

// PowerSplit says how a tab-synchronization group divides one power draw
// across its member positions.
type PowerSplit string

const (
	SplitEqual            PowerSplit = "equal"
	SplitPrimarySecondary PowerSplit = "primary_secondary"
	SplitCustomRatio       PowerSplit = "custom_ratio"
)

// CyclingPattern models an on/off duty cycle (spec §4.F).
type CyclingPattern struct {
	OnDurationS  float64 `yaml:"on_duration_s"`
	OffDurationS float64 `yaml:"off_duration_s"`
}

// TimeOfDayProfile scales base power by hour of day.
type TimeOfDayProfile struct {
	PeakHours         []int           `yaml:"peak_hours"`
	PeakMultiplier    float64         `yaml:"peak_multiplier"`
	OffPeakMultiplier float64         `yaml:"off_peak_multiplier"`
	HourlyMultipliers map[int]float64 `yaml:"hourly_multipliers"`
}

// SmartBehaviour models a grid-responsive load's maximum reduction.
type SmartBehaviour struct {
	GridResponseMaxReduction float64 `yaml:"grid_response_max_reduction"`
}

// BatteryBehaviour models a storage circuit's charge/discharge schedule.
type BatteryBehaviour struct {
	ChargeHours     []int           `yaml:"charge_hours"`
	DischargeHours  []int           `yaml:"discharge_hours"`
	IdleHours       []int           `yaml:"idle_hours"`
	HourlyIntensity map[int]float64 `yaml:"hourly_intensity"`
	HourlyDemand    map[int]float64 `yaml:"hourly_demand"`
}

// CircuitTemplate is an energy profile shared by zero or more circuits or
// unmapped tabs (spec §4.F).
type CircuitTemplate struct {
	Mode           Mode           `yaml:"mode"`
	PowerRange     [2]float64     `yaml:"power_range"`
	Typical        float64        `yaml:"typical"`
	Variation      float64        `yaml:"variation"`
	Efficiency     *float64       `yaml:"efficiency"`
	RelayBehaviour RelayBehaviour `yaml:"relay_behaviour"`
	Priority       string         `yaml:"priority"`

	Cycling          *CyclingPattern   `yaml:"cycling"`
	TimeOfDay        *TimeOfDayProfile `yaml:"time_of_day"`
	SmartBehaviour   *SmartBehaviour   `yaml:"smart_behaviour"`
	BatteryBehaviour *BatteryBehaviour `yaml:"battery_behaviour"`
}

// CircuitOverride holds per-circuit field overrides at load time
// (distinct from the runtime set_circuit_overrides mechanism, which
// overrides the live tick output rather than the template reference).
type CircuitOverride struct {
	Typical   *float64 `yaml:"typical"`
	Variation *float64 `yaml:"variation"`
	Priority  *string  `yaml:"priority"`
}

// Circuit is one configured load in the simulated panel (spec §4.F).
type Circuit struct {
	ID       string           `yaml:"id"`
	Name     string           `yaml:"name"`
	Template string           `yaml:"template"`
	Tabs     []int            `yaml:"tabs"`
	Override *CircuitOverride `yaml:"override"`
}

// TabSynchronization groups positions sharing one power draw (spec §4.F).
type TabSynchronization struct {
	Positions  []int      `yaml:"positions"`
	PowerSplit PowerSplit `yaml:"power_split"`
	EnergySync bool       `yaml:"energy_sync"`
	Ratios     []float64  `yaml:"ratios"` // used only when power_split=custom_ratio
}

// PanelConfig describes the simulated panel's physical identity.
type PanelConfig struct {
	SerialNumber string  `yaml:"serial_number"`
	TotalTabs    int     `yaml:"total_tabs"`
	MainSize     float64 `yaml:"main_size"`
}

// SimulationParams tunes engine-wide behavior beyond the per-circuit model.
type SimulationParams struct {
	RandomSeed          int64   `yaml:"random_seed"`
	FirmwareVersion      string  `yaml:"firmware_version"`
	BatterySOEInitial    float64 `yaml:"battery_soe_initial"`
	BatteryMaxEnergyKWh  float64 `yaml:"battery_max_energy_kwh"`
}

// Config is the root of the declarative YAML schema (spec §6).
type Config struct {
	PanelConfig           PanelConfig                `yaml:"panel_config"`
	CircuitTemplates      map[string]CircuitTemplate `yaml:"circuit_templates"`
	Circuits              []Circuit                  `yaml:"circuits"`
	UnmappedTabs          []int                      `yaml:"unmapped_tabs"`
	UnmappedTabTemplates  map[int]CircuitTemplate    `yaml:"unmapped_tab_templates"`
	TabSynchronizations   []TabSynchronization       `yaml:"tab_synchronizations"`
	SimulationParams      SimulationParams           `yaml:"simulation_params"`

	checksum [32]byte
}

// Load reads, parses, and validates a simulation config file (spec §4.F).
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, model.NewError(model.ConfigError, "simulation.load", err)
	}
	return parse(raw)
}

func parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, model.NewError(model.ConfigError, "simulation.load", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, model.NewError(model.ConfigError, "simulation.load", err)
	}
	cfg.checksum = sha256.Sum256(raw)
	return &cfg, nil
}

// changed reports whether raw's checksum differs from the last load,
// letting the hot-reload watcher skip a no-op reload (teacher's
// RuntimeConfigManager idiom).
func (c *Config) changed(raw []byte) bool {
	return sha256.Sum256(raw) != c.checksum
}

// Validate rejects configurations the engine cannot run (spec §4.F): all
// such failures are ConfigError, terminal.
func (c *Config) Validate() error {
	if c.PanelConfig.SerialNumber == "" {
		return fmt.Errorf("simulation: panel_config.serial_number is required")
	}
	if c.PanelConfig.TotalTabs <= 0 {
		return fmt.Errorf("simulation: panel_config.total_tabs must be positive")
	}
	if len(c.CircuitTemplates) == 0 {
		return fmt.Errorf("simulation: circuit_templates is required and must be non-empty")
	}
	if len(c.Circuits) == 0 {
		return fmt.Errorf("simulation: circuits is required and must be non-empty")
	}

	for name, tmpl := range c.CircuitTemplates {
		if err := tmpl.validate(); err != nil {
			return fmt.Errorf("simulation: circuit_templates[%s]: %w", name, err)
		}
	}
	for pos, tmpl := range c.UnmappedTabTemplates {
		if err := tmpl.validate(); err != nil {
			return fmt.Errorf("simulation: unmapped_tab_templates[%d]: %w", pos, err)
		}
		if !phase.InBounds(pos, c.PanelConfig.TotalTabs) {
			return fmt.Errorf("simulation: unmapped_tab_templates[%d]: position out of bounds", pos)
		}
	}

	seenIDs := make(map[string]struct{}, len(c.Circuits))
	for _, ts := range c.TabSynchronizations {
		switch ts.PowerSplit {
		case SplitEqual, SplitPrimarySecondary, SplitCustomRatio:
		default:
			return fmt.Errorf("simulation: tab_synchronizations: invalid power_split %q", ts.PowerSplit)
		}
		if ts.PowerSplit == SplitCustomRatio && len(ts.Ratios) != len(ts.Positions) {
			return fmt.Errorf("simulation: tab_synchronizations: custom_ratio requires one ratio per position")
		}
	}

	for _, circ := range c.Circuits {
		if circ.ID == "" {
			return fmt.Errorf("simulation: circuits: id is required")
		}
		if _, dup := seenIDs[circ.ID]; dup {
			return fmt.Errorf("simulation: circuits: duplicate id %q", circ.ID)
		}
		seenIDs[circ.ID] = struct{}{}

		if _, ok := c.CircuitTemplates[circ.Template]; !ok {
			return fmt.Errorf("simulation: circuits[%s]: undefined template %q", circ.ID, circ.Template)
		}
		for _, p := range circ.Tabs {
			if !phase.InBounds(p, c.PanelConfig.TotalTabs) {
				return fmt.Errorf("simulation: circuits[%s]: tab %d out of bounds", circ.ID, p)
			}
		}
		if len(circ.Tabs) == 2 && !phase.IsDualPhase(circ.Tabs, c.PanelConfig.TotalTabs) {
			return fmt.Errorf("simulation: circuits[%s]: two-tab circuit must occupy opposite legs", circ.ID)
		}
	}

	for _, p := range c.UnmappedTabs {
		if !phase.InBounds(p, c.PanelConfig.TotalTabs) {
			return fmt.Errorf("simulation: unmapped_tabs: position %d out of bounds", p)
		}
	}

	// energy_sync may only be requested for a position inside a
	// synchronization group; a bare position claiming sync without a group
	// is a config error.
	for _, ts := range c.TabSynchronizations {
		if ts.EnergySync && len(ts.Positions) < 2 {
			return fmt.Errorf("simulation: tab_synchronizations: energy_sync requires at least two positions")
		}
	}

	return nil
}

func (t CircuitTemplate) validate() error {
	switch t.Mode {
	case ModeConsumer, ModeProducer, ModeBidirectional:
	default:
		return fmt.Errorf("invalid mode %q", t.Mode)
	}
	switch t.RelayBehaviour {
	case RelayControllable, RelayNonControllable:
	default:
		return fmt.Errorf("invalid relay_behaviour %q", t.RelayBehaviour)
	}
	switch t.Priority {
	case "MUST_HAVE", "NICE_TO_HAVE", "NON_ESSENTIAL":
	default:
		return fmt.Errorf("invalid priority %q", t.Priority)
	}
	if t.PowerRange[0] > t.PowerRange[1] {
		return fmt.Errorf("power_range min must not exceed max")
	}
	if t.Variation < 0 || t.Variation > 1 {
		return fmt.Errorf("variation must be within [0,1]")
	}
	if t.Efficiency != nil && (*t.Efficiency < 0 || *t.Efficiency > 1) {
		return fmt.Errorf("efficiency must be within [0,1]")
	}
	return nil
}
