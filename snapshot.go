package panelclient

import "panelclient/internal/model"

// Generation identifies which hardware generation produced a snapshot.
type Generation = model.Generation

const (
	GenerationG2 = model.GenerationG2
	GenerationG3 = model.GenerationG3
)

// RelayState is a G2-only circuit relay position.
type RelayState = model.RelayState

const (
	RelayOpen   = model.RelayOpen
	RelayClosed = model.RelayClosed
)

// Priority is a G2-only load-shed priority.
type Priority = model.Priority

const (
	PriorityMustHave     = model.PriorityMustHave
	PriorityNiceToHave   = model.PriorityNiceToHave
	PriorityNonEssential = model.PriorityNonEssential
)

// CircuitSnapshot is the per-circuit, transport-agnostic projection (spec §3).
type CircuitSnapshot = model.CircuitSnapshot

// PanelSnapshot is the caller-visible union of G2 and G3 panel state (spec §3).
type PanelSnapshot = model.PanelSnapshot
