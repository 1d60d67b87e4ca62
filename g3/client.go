package g3

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"panelclient/internal/model"
	"panelclient/internal/telemetry/logging"
	"panelclient/internal/telemetry/metrics"
)

// Client is the G3 transport (spec §4.E): RPC channel setup, two-phase
// topology discovery, a background streaming loop, and a lock-free
// (mutex-guarded, but contention-free in the intended single-producer
// usage) read path for callers.
type Client struct {
	cfg Config

	log     logging.Logger
	metrics metrics.Provider

	data     *PanelData
	registry *callbackRegistry

	mainConn *rpcChannel

	streamMu     sync.Mutex
	streamConn   *rpcChannel
	streaming    bool
	streamDoneCh chan struct{}

	discarded atomic.Int64
	mDiscard  metrics.Counter
}

// Option configures a Client at construction time.
type Option func(*Client)

func WithLogger(l logging.Logger) Option { return func(c *Client) { c.log = l } }
func WithMetrics(p metrics.Provider) Option { return func(c *Client) { c.metrics = p } }

// New constructs an unconnected G3 Client. Call Connect before using it.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, model.NewError(model.ConfigError, "g3.New", err)
	}
	cfg.ApplyDefaults()

	c := &Client{
		cfg:     cfg,
		log:     logging.New(nil),
		metrics: metrics.NewNoopProvider(),
		data:    newPanelData(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.registry = newCallbackRegistry(c.log)
	c.mDiscard = c.metrics.NewCounter(metrics.CounterOpts{CommonOpts: metrics.CommonOpts{
		Namespace: "panelclient", Subsystem: "g3", Name: "notifications_discarded_total",
	}})
	return c, nil
}

// Connect opens the RPC channel and runs topology discovery once (spec
// §4.E). Returns true if discovery succeeded.
func (c *Client) Connect(ctx context.Context) (bool, error) {
	conn, err := dial(ctx, c.cfg.Address())
	if err != nil {
		return false, err
	}
	c.mainConn = conn

	instancesResp, err := conn.call(methodGetInstances, encodeGetInstancesRequest(nil))
	if err != nil {
		return false, err
	}
	n, m, err := decodeGetInstancesResponse(instancesResp)
	if err != nil {
		return false, model.NewError(model.CodecError, "g3.connect", err)
	}

	resolveName := func(nameIID int) (string, error) {
		resp, err := conn.call(methodGetRevision, encodeGetRevisionRequest(nameIID))
		if err != nil {
			return "", err
		}
		return decodeGetRevisionResponse(resp)
	}

	circuits, reverse, err := discoverTopology(n, m, resolveName)
	if err != nil {
		return false, err
	}

	serial, firmware := c.resolveIdentity(ctx, resolveName)
	c.data.setTopology(serial, firmware, circuits, reverse)
	return true, nil
}

// resolveIdentity reads the panel's own serial number and firmware
// version off the two reserved identity instance ids (messages.go). A
// panel that doesn't expose identity instances leaves the corresponding
// field blank rather than failing Connect — topology discovery already
// succeeded, and PanelSnapshot treats unresolved fields as absent, not
// zero (spec §3).
func (c *Client) resolveIdentity(ctx context.Context, resolveName func(nameIID int) (string, error)) (serial, firmware string) {
	serial, err := resolveName(identitySerialIID)
	if err != nil {
		c.log.InfoCtx(ctx, "g3 serial number unresolved", "err", err)
		serial = ""
	}
	firmware, err = resolveName(identityFirmwareIID)
	if err != nil {
		c.log.InfoCtx(ctx, "g3 firmware version unresolved", "err", err)
		firmware = ""
	}
	return serial, firmware
}

// TestConnection is the factory's cheap G3 probe (spec §4.H): it only
// verifies the panel answers on the RPC port, without running full
// topology discovery.
func (c *Client) TestConnection(ctx context.Context) (bool, error) {
	conn, err := dial(ctx, c.cfg.Address())
	if err != nil {
		return false, err
	}
	defer conn.close()
	_, err = conn.call(methodGetInstances, encodeGetInstancesRequest(nil))
	if err != nil {
		return false, err
	}
	return true, nil
}

// RegisterCallback registers fn to be invoked synchronously, in
// registration order, after every decoded Subscribe notification.
func (c *Client) RegisterCallback(fn Callback) UnregisterHandle {
	return c.registry.register(fn)
}

// StartStreaming opens the long-lived Subscribe RPC and begins updating
// PanelData in a background goroutine. Idempotent: calling it while
// already streaming is a no-op.
func (c *Client) StartStreaming(ctx context.Context) error {
	c.streamMu.Lock()
	defer c.streamMu.Unlock()
	if c.streaming {
		return nil
	}

	conn, err := dial(ctx, c.cfg.Address())
	if err != nil {
		return err
	}
	c.streamConn = conn
	c.streaming = true
	c.streamDoneCh = make(chan struct{})

	go c.streamLoop(conn, c.streamDoneCh)
	return nil
}

func (c *Client) streamLoop(conn *rpcChannel, done chan struct{}) {
	defer close(done)
	conn.subscribe(func(payload []byte) bool {
		n, err := decodeNotification(payload)
		if err != nil {
			c.log.ErrorCtx(context.Background(), "g3 malformed notification", "err", err)
			return true // a malformed frame is forward-compatible noise, not fatal
		}
		if !c.data.applyNotification(n) {
			c.discarded.Add(1)
			c.mDiscard.Inc(1)
			return true
		}
		c.registry.fanOut(c.data)
		return true
	})
}

// StopStreaming requests the stream to end, awaits the background task
// with a bounded join timeout, and drops the channel state. Idempotent.
func (c *Client) StopStreaming() error {
	c.streamMu.Lock()
	if !c.streaming {
		c.streamMu.Unlock()
		return nil
	}
	conn := c.streamConn
	done := c.streamDoneCh
	c.streaming = false
	c.streamConn = nil
	c.streamMu.Unlock()

	closeErr := conn.close() // unblocks the in-flight read in streamLoop

	select {
	case <-done:
	case <-time.After(c.cfg.joinTimeout()):
		c.log.ErrorCtx(context.Background(), "g3 stream task did not join before timeout")
	}
	if closeErr != nil {
		c.log.ErrorCtx(context.Background(), "g3 stream channel close error", "err", closeErr)
	}
	return nil
}

// DiscardedNotifications returns the count of notifications dropped
// because their metric instance id was not in the topology (spec §9 open
// question: observability for otherwise-silent forward compatibility).
func (c *Client) DiscardedNotifications() int64 { return c.discarded.Load() }

// Snapshot is a pure in-memory read of PanelData — zero I/O, safe to call
// from within a callback (spec §4.E).
func (c *Client) Snapshot() model.PanelSnapshot {
	serial, firmware, circuits, metrics, mainFeed := c.data.read()
	return project(serial, firmware, circuits, metrics, mainFeed)
}

// Data returns the live PanelData for advanced callers who want direct,
// zero-copy access beyond the unified snapshot (spec §4.E "data()").
func (c *Client) Data() *PanelData { return c.data }

// Close implies StopStreaming if active, then releases the main channel.
func (c *Client) Close() error {
	if err := c.StopStreaming(); err != nil {
		c.log.ErrorCtx(context.Background(), "g3 close: stop_streaming error", "err", err)
	}
	if c.mainConn != nil {
		if err := c.mainConn.close(); err != nil {
			c.log.ErrorCtx(context.Background(), "g3 close: main channel close error", "err", err)
		}
	}
	return nil
}

// Capabilities returns the G3 capability set: PUSH_STREAMING only.
func (c *Client) Capabilities() model.PanelCapability { return model.CapabilitiesG3 }
