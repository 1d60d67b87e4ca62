package g2

import (
	"testing"

	"github.com/stretchr/testify/require"

	"panelclient/internal/model"
)

func TestProjectLeavesG3OnlyFieldsNil(t *testing.T) {
	snap := project(StatusResponse{}, PanelStateResponse{TotalPositions: 1}, CircuitsResponse{Circuits: map[string]CircuitDTO{}}, StorageSOEResponse{})
	require.Nil(t, snap.MainVoltageV)
	require.Nil(t, snap.MainCurrentA)
	require.Nil(t, snap.MainFrequencyHz)
}

func TestProjectPopulatesG2OnlyFields(t *testing.T) {
	snap := project(
		StatusResponse{SerialNumber: "S1", DoorState: "OPEN"},
		PanelStateResponse{GridPowerW: 10, DSMState: "NORMAL", MainRelayState: "CLOSED", TotalPositions: 1},
		CircuitsResponse{Circuits: map[string]CircuitDTO{}},
		StorageSOEResponse{BatterySOE: 0.8, BatteryMaxEnergyKWh: 13.5},
	)
	require.NotNil(t, snap.GridPowerW)
	require.Equal(t, 10.0, *snap.GridPowerW)
	require.NotNil(t, snap.DSMState)
	require.Equal(t, "NORMAL", *snap.DSMState)
	require.NotNil(t, snap.MainRelayState)
	require.Equal(t, model.RelayClosed, *snap.MainRelayState)
	require.NotNil(t, snap.DoorState)
	require.Equal(t, "OPEN", *snap.DoorState)
	require.Equal(t, 0.8, *snap.BatterySOE)
}

func TestProjectCircuitIsOnFromVoltageThreshold(t *testing.T) {
	circuits := map[string]CircuitDTO{
		"on":  {Name: "On", Tabs: []int{1}, VoltageV: 120},
		"off": {Name: "Off", Tabs: []int{2}, VoltageV: 0},
	}
	snap := project(StatusResponse{}, PanelStateResponse{TotalPositions: 2}, CircuitsResponse{Circuits: circuits}, StorageSOEResponse{})
	require.True(t, snap.Circuits["on"].IsOn)
	require.False(t, snap.Circuits["off"].IsOn)
}

func TestProjectDualPhaseDetection(t *testing.T) {
	circuits := map[string]CircuitDTO{
		"dryer": {Name: "Dryer", Tabs: []int{1, 2}},
		"light": {Name: "Light", Tabs: []int{3}},
	}
	snap := project(StatusResponse{}, PanelStateResponse{TotalPositions: 4}, CircuitsResponse{Circuits: circuits}, StorageSOEResponse{})
	require.True(t, snap.Circuits["dryer"].IsDualPhase)
	require.False(t, snap.Circuits["light"].IsDualPhase)
}
