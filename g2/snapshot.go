package g2

import (
	"panelclient/internal/model"
	"panelclient/phase"
)

// offVoltageThreshold is the implementation-chosen boundary below which a
// circuit is considered off (spec §3: "is_on derived from voltage above an
// implementation-chosen off threshold"). Panel branches report near-zero
// voltage, not exactly zero, when de-energized.
const offVoltageThreshold = 1.0

func parseRelayState(s string) model.RelayState {
	if s == "CLOSED" {
		return model.RelayClosed
	}
	return model.RelayOpen
}

func parsePriority(s string) model.Priority {
	switch s {
	case "MUST_HAVE":
		return model.PriorityMustHave
	case "NON_ESSENTIAL":
		return model.PriorityNonEssential
	default:
		return model.PriorityNiceToHave
	}
}

// project assembles the unified PanelSnapshot from the four concurrently
// fetched G2 endpoints (spec §4.D, §4.G). Only G2-relevant pointer fields
// are populated; G3-only fields stay nil per invariant 9.
func project(status StatusResponse, panel PanelStateResponse, circuits CircuitsResponse, storage StorageSOEResponse) model.PanelSnapshot {
	gridPowerW := panel.GridPowerW
	dsmState := panel.DSMState
	mainRelay := parseRelayState(panel.MainRelayState)
	doorState := status.DoorState
	batterySOE := storage.BatterySOE
	batteryMax := storage.BatteryMaxEnergyKWh

	snap := model.PanelSnapshot{
		Generation:          model.GenerationG2,
		SerialNumber:        status.SerialNumber,
		FirmwareVersion:     status.FirmwareVersion,
		MainPowerW:          panel.MainPowerW,
		GridPowerW:          &gridPowerW,
		BatterySOE:          &batterySOE,
		BatteryMaxEnergyKWh: &batteryMax,
		DSMState:            &dsmState,
		MainRelayState:      &mainRelay,
		DoorState:           &doorState,
		Circuits:            make(map[string]model.CircuitSnapshot, len(circuits.Circuits)),
	}

	for id, c := range circuits.Circuits {
		relay := parseRelayState(c.RelayState)
		priority := parsePriority(c.Priority)
		energyConsumed := c.EnergyConsumedWh
		energyProduced := c.EnergyProducedWh

		snap.Circuits[id] = model.CircuitSnapshot{
			CircuitID:        id,
			Name:             c.Name,
			PowerW:           c.PowerW,
			VoltageV:         c.VoltageV,
			CurrentA:         c.CurrentA,
			IsOn:             c.VoltageV > offVoltageThreshold,
			IsDualPhase:      phase.IsDualPhase(c.Tabs, panel.TotalPositions),
			RelayState:       &relay,
			Priority:         &priority,
			EnergyConsumedWh: &energyConsumed,
			EnergyProducedWh: &energyProduced,
			Tabs:             c.Tabs,
		}
	}

	return snap
}
