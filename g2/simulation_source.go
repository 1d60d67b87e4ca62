package g2

import (
	"context"

	"panelclient/simulation"
)

// simSource adapts a simulation.Engine to the dataSource interface, so the
// same Client cache/retry/synthesis logic in client.go serves both live
// and simulated panels (spec §4.F: "serves the same read interface as
// §4.D"). It intentionally does not implement writableSource or
// authSource: the simulation engine has its own override mechanism and no
// authentication concept.
type simSource struct {
	engine *simulation.Engine
}

func newSimSource(engine *simulation.Engine) *simSource {
	return &simSource{engine: engine}
}

func (s *simSource) FetchStatus(ctx context.Context) (StatusResponse, error) {
	r := s.engine.Tick()
	return StatusResponse{
		SerialNumber:    r.SerialNumber,
		FirmwareVersion: r.FirmwareVersion,
		DoorState:       r.DoorState,
	}, nil
}

func (s *simSource) FetchPanelState(ctx context.Context) (PanelStateResponse, error) {
	r := s.engine.Tick()
	branches := make([]BranchDTO, 0, len(r.Unmapped))
	for _, b := range r.Unmapped {
		branches = append(branches, BranchDTO{
			Position:         b.Position,
			PowerW:           b.PowerW,
			VoltageV:         b.VoltageV,
			CurrentA:         b.CurrentA,
			RelayState:       b.RelayState,
			Priority:         b.Priority,
			EnergyConsumedWh: b.EnergyConsumedWh,
			EnergyProducedWh: b.EnergyProducedWh,
		})
	}
	return PanelStateResponse{
		MainPowerW:     r.MainPowerW,
		GridPowerW:     r.GridPowerW,
		DSMState:       r.DSMState,
		MainRelayState: r.MainRelayState,
		Branches:       branches,
		TotalPositions: r.TotalPositions,
	}, nil
}

func (s *simSource) FetchCircuits(ctx context.Context) (CircuitsResponse, error) {
	r := s.engine.Tick()
	circuits := make(map[string]CircuitDTO, len(r.Branches))
	for id, c := range r.Branches {
		circuits[id] = CircuitDTO{
			Name:             c.Name,
			Tabs:             c.Tabs,
			PowerW:           c.PowerW,
			VoltageV:         c.VoltageV,
			CurrentA:         c.CurrentA,
			RelayState:       c.RelayState,
			Priority:         c.Priority,
			EnergyConsumedWh: c.EnergyConsumedWh,
			EnergyProducedWh: c.EnergyProducedWh,
		}
	}
	return CircuitsResponse{Circuits: circuits}, nil
}

func (s *simSource) FetchStorageSOE(ctx context.Context) (StorageSOEResponse, error) {
	r := s.engine.Tick()
	return StorageSOEResponse{
		BatterySOE:          r.BatterySOE,
		BatteryMaxEnergyKWh: r.BatteryMaxEnergyKWh,
	}, nil
}

// NewWithSource constructs a Client backed by an arbitrary dataSource,
// bypassing the live-HTTP wiring New performs. Used to back a Client with
// the simulation engine, and by tests that supply a fake source directly.
func NewWithSource(cfg Config, src dataSource, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return newClient(cfg, src, &tokenManager{}, opts...), nil
}

// NewSimulated constructs a G2 Client backed by a simulation engine built
// from cfg.SimulationConfigPath (spec §4.F / §6: simulation_mode,
// simulation_config_path, simulation_start_time).
func NewSimulated(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	simCfg, err := simulation.Load(cfg.SimulationConfigPath)
	if err != nil {
		return nil, err
	}
	engine := simulation.NewEngine(simCfg, cfg.SimulationStartTime)
	client, err := NewWithSource(cfg, newSimSource(engine), opts...)
	if err != nil {
		return nil, err
	}
	engine.OnChange(func() { client.cache.Clear() })
	return client, nil
}
