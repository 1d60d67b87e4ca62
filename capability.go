package panelclient

import "panelclient/internal/model"

// PanelCapability is a bit-set advertising which optional features the
// current transport supports (spec §3).
type PanelCapability = model.PanelCapability

const (
	CapRelayControl    = model.CapRelayControl
	CapPriorityControl = model.CapPriorityControl
	CapEnergyHistory   = model.CapEnergyHistory
	CapBattery         = model.CapBattery
	CapSolar           = model.CapSolar
	CapDSMState        = model.CapDSMState
	CapHardwareStatus  = model.CapHardwareStatus
	CapPushStreaming   = model.CapPushStreaming

	CapabilitiesG2 = model.CapabilitiesG2
	CapabilitiesG3 = model.CapabilitiesG3
)
