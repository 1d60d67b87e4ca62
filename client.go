package panelclient

import (
	"context"

	"panelclient/g2"
	"panelclient/g3"
)

// Client is the transport-agnostic handle spec §4.G/§4.H hands back from
// Create: every transport can produce a snapshot, advertise its
// capability set, and release its resources. Operations beyond that
// common surface (relay/priority control, authentication, streaming) are
// reached through the capability-gated interfaces below, guarded by a
// type assertion against the value Create returned.
type Client interface {
	Snapshot(ctx context.Context) (PanelSnapshot, error)
	Capabilities() PanelCapability
	Close() error
}

// RelayController is satisfied by a Client whose Capabilities().Has(CapRelayControl).
type RelayController interface {
	SetCircuitRelay(ctx context.Context, id string, state RelayState) error
}

// PriorityController is satisfied by a Client whose Capabilities().Has(CapPriorityControl).
type PriorityController interface {
	SetCircuitPriority(ctx context.Context, id string, priority Priority) error
}

// Authenticator is satisfied by a Client with a bearer-token login flow (G2 only).
type Authenticator interface {
	Authenticate(ctx context.Context, name, description string) (string, error)
	SetAccessToken(token string)
}

// StreamSubscriber is satisfied by a Client whose Capabilities().Has(CapPushStreaming).
type StreamSubscriber interface {
	RegisterCallback(fn g3.Callback) g3.UnregisterHandle
	StartStreaming(ctx context.Context) error
	StopStreaming() error
}

var (
	_ Client = (*g2.Client)(nil)
	_ Client = g3Client{}

	_ RelayController    = (*g2.Client)(nil)
	_ PriorityController = (*g2.Client)(nil)
	_ Authenticator      = (*g2.Client)(nil)
	_ StreamSubscriber   = g3Client{}
)

// g3Client adapts *g3.Client to Client. g3.Client.Snapshot is a pure
// in-memory read with no I/O and no failure mode, unlike g2.Client's;
// this wrapper is the only seam needed to unify the two shapes, and it
// still promotes RegisterCallback/StartStreaming/StopStreaming from the
// embedded *g3.Client untouched.
type g3Client struct {
	*g3.Client
}

func (c g3Client) Snapshot(ctx context.Context) (PanelSnapshot, error) {
	return c.Client.Snapshot(), nil
}

// newG3Client wraps a connected *g3.Client as a unified Client.
func newG3Client(c *g3.Client) Client { return g3Client{c} }
