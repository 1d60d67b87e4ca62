package model

// Generation identifies which hardware generation produced a snapshot.
type Generation int

const (
	GenerationG2 Generation = iota
	GenerationG3
)

func (g Generation) String() string {
	if g == GenerationG3 {
		return "G3"
	}
	return "G2"
}

// RelayState is a G2-only circuit relay position.
type RelayState int

const (
	RelayOpen RelayState = iota
	RelayClosed
)

func (r RelayState) String() string {
	if r == RelayClosed {
		return "CLOSED"
	}
	return "OPEN"
}

// Priority is a G2-only load-shed priority.
type Priority int

const (
	PriorityMustHave Priority = iota
	PriorityNiceToHave
	PriorityNonEssential
)

func (p Priority) String() string {
	switch p {
	case PriorityMustHave:
		return "MUST_HAVE"
	case PriorityNiceToHave:
		return "NICE_TO_HAVE"
	default:
		return "NON_ESSENTIAL"
	}
}

// CircuitSnapshot is the per-circuit, transport-agnostic projection.
// Fields not observable on the producing transport are left as their zero
// value only when that zero value is itself meaningful (bools, PowerW);
// genuinely absent numeric fields use pointers so callers can distinguish
// "not reported" from "reported as zero", per invariant 9.
type CircuitSnapshot struct {
	CircuitID string
	Name      string
	PowerW    float64 // signed; negative indicates production
	VoltageV  float64
	CurrentA  float64
	IsOn      bool
	IsDualPhase bool

	// G3-only.
	ApparentPowerVA *float64
	ReactivePowerVAR *float64
	PowerFactor     *float64

	// G2-only.
	RelayState        *RelayState
	Priority          *Priority
	EnergyConsumedWh  *float64
	EnergyProducedWh  *float64
	Tabs              []int // ordered, 1-based panel positions
}

// PanelSnapshot is the caller-visible union of G2 and G3 panel state.
type PanelSnapshot struct {
	Generation      Generation
	SerialNumber    string
	FirmwareVersion string
	MainPowerW      float64 // always present

	// G3-only.
	MainVoltageV    *float64
	MainCurrentA    *float64
	MainFrequencyHz *float64

	// G2-only.
	GridPowerW       *float64
	BatterySOE       *float64 // ratio 0..1
	BatteryMaxEnergyKWh *float64
	DSMState         *string
	MainRelayState   *RelayState
	DoorState        *string

	Circuits map[string]CircuitSnapshot
}
