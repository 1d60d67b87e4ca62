package g2

// wiremodel.go holds the G2 wire-level DTOs. Spec §1 treats the vendor's
// generated request/response types as an opaque wire-model consumed
// through a thin adapter; this module plays that adapter's role by hand
// (no codegen is assumed anywhere in this library), so the rest of the
// package depends only on the field names read here, not on how they
// were produced.

// AuthResponse is returned by the authentication endpoint.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	IatMs       int64  `json:"iat_ms"`
}

// StatusResponse is the system status endpoint payload.
type StatusResponse struct {
	SerialNumber    string `json:"serial_number"`
	FirmwareVersion string `json:"firmware_version"`
	DoorState       string `json:"door_state"`
}

// PanelStateResponse is the panel-state endpoint payload.
type PanelStateResponse struct {
	MainPowerW       float64     `json:"main_power_w"`
	GridPowerW       float64     `json:"grid_power_w"`
	DSMState         string      `json:"dsm_state"`
	MainRelayState   string      `json:"main_relay_state"` // "OPEN" | "CLOSED"
	Branches         []BranchDTO `json:"branches"`
	TotalPositions   int         `json:"total_positions"`
}

// BranchDTO is one physical panel branch's instantaneous telemetry,
// indexed by 1-based position.
type BranchDTO struct {
	Position        int     `json:"position"`
	PowerW          float64 `json:"power_w"`
	VoltageV        float64 `json:"voltage_v"`
	CurrentA        float64 `json:"current_a"`
	RelayState      string  `json:"relay_state"`
	Priority        string  `json:"priority"`
	EnergyConsumedWh float64 `json:"energy_consumed_wh"`
	EnergyProducedWh float64 `json:"energy_produced_wh"`
}

// CircuitsResponse is the configured-circuits endpoint payload.
type CircuitsResponse struct {
	Circuits map[string]CircuitDTO `json:"circuits"`
}

// CircuitDTO is one configured (non-virtual) circuit.
type CircuitDTO struct {
	Name             string  `json:"name"`
	Tabs             []int   `json:"tabs"`
	PowerW           float64 `json:"power_w"`
	VoltageV         float64 `json:"voltage_v"`
	CurrentA         float64 `json:"current_a"`
	RelayState       string  `json:"relay_state"`
	Priority         string  `json:"priority"`
	EnergyConsumedWh float64 `json:"energy_consumed_wh"`
	EnergyProducedWh float64 `json:"energy_produced_wh"`
}

// StorageSOEResponse is the battery storage state-of-energy payload.
type StorageSOEResponse struct {
	BatterySOE          float64 `json:"battery_soe"`
	BatteryMaxEnergyKWh float64 `json:"battery_max_energy_kwh"`
}
