package g2

import "context"

// dataSource is the thin seam between the typed HTTP layer and the
// simulation engine (spec §4.F: "the simulation engine ... replaces G2's
// wire calls with locally generated data structured identically to the
// G2 wire model"). Client drives all cache/retry/synthesis logic against
// this interface so the same code path serves both live and simulated
// panels.
type dataSource interface {
	FetchStatus(ctx context.Context) (StatusResponse, error)
	FetchPanelState(ctx context.Context) (PanelStateResponse, error)
	FetchCircuits(ctx context.Context) (CircuitsResponse, error)
	FetchStorageSOE(ctx context.Context) (StorageSOEResponse, error)
}

// writableSource is implemented only by sources that support mutating
// calls (the live HTTP source; the simulation engine exposes its own
// override mechanism instead, spec §4.F).
type writableSource interface {
	SetCircuitRelay(ctx context.Context, id string, state string) error
	SetCircuitPriority(ctx context.Context, id string, priority string) error
}

// authSource is implemented only by sources that support G2's token
// lifecycle (the live HTTP source; simulation has no authentication).
type authSource interface {
	Authenticate(ctx context.Context, name, description string) (AuthResponse, error)
	SetAccessToken(token string)
}

// pingSource is implemented only by sources that can answer the factory's
// cheap, unauthenticated auto-detect probe (spec §4.H) — the live HTTP
// source only; the simulation engine is never auto-detected, it is
// always selected explicitly.
type pingSource interface {
	ping(ctx context.Context) error
}
