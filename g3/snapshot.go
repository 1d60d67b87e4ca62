package g3

import "panelclient/internal/model"

const offVoltageThreshold = 1.0

// project builds the transport-agnostic PanelSnapshot from a PanelData
// read (spec invariant 9: G2-only pointer fields stay nil, G3-only fields
// are populated from streamed metrics).
func project(serial, firmware string, circuits map[string]CircuitInfo, metrics map[string]CircuitMetrics, mainFeed CircuitMetrics) model.PanelSnapshot {
	out := model.PanelSnapshot{
		Generation:      model.GenerationG3,
		SerialNumber:    serial,
		FirmwareVersion: firmware,
		MainPowerW:      mainFeed.PowerW,
		MainVoltageV:    mainFeed.VoltageV,
		MainCurrentA:    mainFeed.CurrentA,
		MainFrequencyHz: mainFeed.FrequencyHz,
		Circuits:        make(map[string]model.CircuitSnapshot, len(circuits)),
	}

	for id, info := range circuits {
		m := metrics[id] // zero value until the first notification arrives
		var voltageV, currentA float64
		if m.VoltageV != nil {
			voltageV = *m.VoltageV
		}
		if m.CurrentA != nil {
			currentA = *m.CurrentA
		}
		out.Circuits[id] = model.CircuitSnapshot{
			CircuitID:        id,
			Name:             info.Name,
			PowerW:           m.PowerW,
			VoltageV:         voltageV,
			CurrentA:         currentA,
			IsOn:             m.VoltageV != nil && *m.VoltageV > offVoltageThreshold,
			IsDualPhase:      info.IsDualPhase,
			ApparentPowerVA:  m.ApparentPowerVA,
			ReactivePowerVAR: m.ReactivePowerVAR,
			PowerFactor:      m.PowerFactor,
		}
	}

	return out
}
