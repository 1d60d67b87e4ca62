package g2

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/sync/errgroup"

	"panelclient/internal/cache"
	"panelclient/internal/model"
	"panelclient/internal/retry"
	"panelclient/internal/telemetry/events"
	"panelclient/internal/telemetry/logging"
	"panelclient/internal/telemetry/metrics"
)

// cache key constants (spec §4.D). Simulation mode caches status, storage
// SOE and circuits under its own keys; panel state uses keyPanelState in
// both modes.
const (
	keyStatus      = "status"
	keyPanelState  = "panel_state"
	keyCircuits    = "circuits"
	keyStorageSOE  = "storage_soe"
	keyStatusSim   = "status_sim"
	keyStorageSim  = "storage_soe_sim"
	keyFullSimData = "full_sim_data" // circuits response in simulation mode
)

// Client is the G2 transport (spec §4.D).
type Client struct {
	cfg    Config
	source dataSource
	cache  *cache.Cache
	token  *tokenManager
	retry  *retry.Engine
	log    logging.Logger
	metrics metrics.Provider
	bus    events.Bus

	mCacheHit  metrics.Counter
	mCacheMiss metrics.Counter
	mRequests  metrics.Counter

	lastAuthName, lastAuthDescription string
	haveAuthed                        bool
}

// Option configures a Client at construction time.
type Option func(*Client)

// WithLogger overrides the structured logger.
func WithLogger(l logging.Logger) Option { return func(c *Client) { c.log = l } }

// WithMetrics overrides the metrics provider.
func WithMetrics(p metrics.Provider) Option { return func(c *Client) { c.metrics = p } }

// WithEventBus overrides the telemetry event bus that retry attempts,
// auth escalation, and cache-clear events are published to. Defaults to
// a private bus wired to the same metrics provider.
func WithEventBus(b events.Bus) Option { return func(c *Client) { c.bus = b } }

// New constructs a G2 Client against a live panel. Use NewWithSource (in
// simulation_source.go) to back a Client with the simulation engine
// instead.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, model.NewError(model.ConfigError, "g2.New", err)
	}
	cfg.ApplyDefaults()

	token := &tokenManager{}
	httpClient := &http.Client{Timeout: cfg.timeout()}
	src := newHTTPSource(cfg.BaseURL(), httpClient, token)

	return newClient(cfg, src, token, opts...), nil
}

func newClient(cfg Config, src dataSource, token *tokenManager, opts ...Option) *Client {
	c := &Client{
		cfg:     cfg,
		source:  src,
		cache:   cache.New(cfg.cacheWindow()),
		token:   token,
		log:     logging.New(nil),
		metrics: metrics.NewNoopProvider(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.bus == nil {
		c.bus = events.NewBus(c.metrics)
	}
	c.retry = retry.New(retry.Policy{
		MaxRetries:   cfg.MaxRetries,
		InitialDelay: cfg.initialRetryDelay(),
		Multiplier:   cfg.RetryMultiplier,
	}, retryClassifier)
	c.mCacheHit = c.metrics.NewCounter(metrics.CounterOpts{CommonOpts: metrics.CommonOpts{Namespace: "panelclient", Subsystem: "g2", Name: "cache_hits_total"}})
	c.mCacheMiss = c.metrics.NewCounter(metrics.CounterOpts{CommonOpts: metrics.CommonOpts{Namespace: "panelclient", Subsystem: "g2", Name: "cache_misses_total"}})
	c.mRequests = c.metrics.NewCounter(metrics.CounterOpts{CommonOpts: metrics.CommonOpts{Namespace: "panelclient", Subsystem: "g2", Name: "requests_total"}, Labels: []string{"endpoint"}})
	return c
}

func (c *Client) statusKey() string {
	if c.cfg.SimulationMode {
		return keyStatusSim
	}
	return keyStatus
}

func (c *Client) storageKey() string {
	if c.cfg.SimulationMode {
		return keyStorageSim
	}
	return keyStorageSOE
}

// Authenticate posts registration data and stores the returned bearer
// token in process memory (spec §4.D). No persistence.
func (c *Client) Authenticate(ctx context.Context, name, description string) (string, error) {
	as, ok := c.source.(authSource)
	if !ok {
		return "", model.NewError(model.ValidationError, "g2.authenticate", nil)
	}
	resp, err := as.Authenticate(ctx, name, description)
	if err != nil {
		return "", model.NewError(classifyHTTP(err), "g2.authenticate", err)
	}
	as.SetAccessToken(resp.AccessToken)
	c.lastAuthName, c.lastAuthDescription = name, description
	c.haveAuthed = true
	return resp.AccessToken, nil
}

// Ping issues the factory's cheap, unauthenticated auto-detect probe
// (spec §4.H): unlike Status, it sends no Authorization header and never
// fails merely because the client hasn't authenticated yet.
func (c *Client) Ping(ctx context.Context) error {
	ps, ok := c.source.(pingSource)
	if !ok {
		return model.NewError(model.ValidationError, "g2.ping", nil)
	}
	if err := ps.ping(ctx); err != nil {
		return model.NewError(classifyHTTP(err), "g2.ping", err)
	}
	return nil
}

// reauth performs the single forced re-authentication pass described in
// spec §4.C/§7: it only fires for an operation that previously succeeded
// in authenticating this client, using the same registration identity.
func (c *Client) reauth(ctx context.Context) error {
	if !c.haveAuthed {
		return model.ErrNoTransport
	}
	c.log.InfoCtx(ctx, "g2 re-authenticating after auth error", "name", c.lastAuthName)
	_, err := c.Authenticate(ctx, c.lastAuthName, c.lastAuthDescription)
	if err != nil {
		c.log.ErrorCtx(ctx, "g2 re-authentication failed", "err", err)
	}
	return err
}

// withAuthEscalation wraps a cache-mediated fetch/write operation with the
// G2-only AuthError escalation: one forced re-authentication, then one
// retry of op, neither counted against the retry engine's own budget.
func withAuthEscalation[T any](c *Client, ctx context.Context, op func() (T, error)) (T, error) {
	result, err := op()
	if err == nil {
		return result, nil
	}
	var perr *model.Error
	if !errors.As(err, &perr) || perr.Kind != model.AuthError {
		return result, err
	}
	c.bus.PublishCtx(ctx, events.Event{Category: events.CategoryG2Transport, Type: "auth_escalation", Severity: "warn"})
	if reauthErr := c.reauth(ctx); reauthErr != nil {
		return result, err
	}
	return op()
}

// onRetryAttempt returns a retry.Engine observer that logs every failed
// attempt, and logs and publishes every scheduled retry delay, through
// the client's logger and event bus (SPEC domain stack: "retry
// attempts/delays (§4.C)" are observable, not silent).
func (c *Client) onRetryAttempt(ctx context.Context, op string) func(retry.Attempt) {
	return func(a retry.Attempt) {
		switch {
		case a.Err == nil:
			return
		case a.Delay > 0:
			c.log.InfoCtx(ctx, "g2 retrying after transient error", "op", op, "attempt", a.N, "delay", a.Delay, "err", a.Err)
			c.bus.PublishCtx(ctx, events.Event{
				Category: events.CategoryRetry,
				Type:     op,
				Severity: "warn",
				Fields:   map[string]interface{}{"attempt": a.N, "delay_ms": a.Delay.Milliseconds()},
			})
		default:
			c.log.ErrorCtx(ctx, "g2 attempt failed", "op", op, "attempt", a.N, "err", a.Err)
		}
	}
}

// SetAccessToken installs an externally-supplied token, superseding any
// previously stored token without persistence.
func (c *Client) SetAccessToken(token string) {
	if as, ok := c.source.(authSource); ok {
		as.SetAccessToken(token)
		return
	}
	c.token.set(token)
}

// Status returns the cached-or-fetched system status.
func (c *Client) Status(ctx context.Context) (StatusResponse, error) {
	return withAuthEscalation(c, ctx, func() (StatusResponse, error) {
		return cachedFetch(c, c.statusKey(), "status", c.source.FetchStatus, ctx)
	})
}

// PanelState returns the cached-or-fetched panel state.
func (c *Client) PanelState(ctx context.Context) (PanelStateResponse, error) {
	return withAuthEscalation(c, ctx, func() (PanelStateResponse, error) {
		return cachedFetch(c, keyPanelState, "panel_state", c.source.FetchPanelState, ctx)
	})
}

// StorageSOE returns the cached-or-fetched battery state-of-energy.
func (c *Client) StorageSOE(ctx context.Context) (StorageSOEResponse, error) {
	return withAuthEscalation(c, ctx, func() (StorageSOEResponse, error) {
		return cachedFetch(c, c.storageKey(), "storage_soe", c.source.FetchStorageSOE, ctx)
	})
}

// Circuits returns the configured-plus-synthesized circuit mapping (spec
// §4.D). Cache-hit behaviour is special: a cached circuits response is
// re-synthesized against a cached panel state if one is present, so every
// hit still returns a complete, position-aligned view. If panel state is
// not cached, the cached circuits response is returned as-is.
func (c *Client) Circuits(ctx context.Context) (CircuitsResponse, error) {
	return withAuthEscalation(c, ctx, func() (CircuitsResponse, error) {
		return c.circuitsOnce(ctx)
	})
}

func (c *Client) circuitsOnce(ctx context.Context) (CircuitsResponse, error) {
	circuitsKey := keyCircuits
	if c.cfg.SimulationMode {
		circuitsKey = keyFullSimData
	}

	if cached, ok := c.cache.Get(circuitsKey); ok {
		resp := cached.(CircuitsResponse)
		if panelCached, ok := c.cache.Get(keyPanelState); ok {
			panel := panelCached.(PanelStateResponse)
			resp.Circuits = synthesizeUnmapped(configuredOnly(resp.Circuits), panel)
		}
		c.mCacheHit.Inc(1)
		return resp, nil
	}
	c.mCacheMiss.Inc(1)

	var resp CircuitsResponse
	err := c.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		resp, err = c.source.FetchCircuits(ctx)
		c.mRequests.Inc(1, "circuits")
		return err
	}, c.onRetryAttempt(ctx, "circuits"))
	if err != nil {
		c.log.ErrorCtx(ctx, "g2 circuits fetch failed", "err", err)
		return CircuitsResponse{}, model.NewError(classifyHTTP(err), "g2.circuits", err)
	}

	if panel, err := c.PanelState(ctx); err == nil {
		resp.Circuits = synthesizeUnmapped(resp.Circuits, panel)
	}
	c.cache.Put(circuitsKey, resp)
	return resp, nil
}

// configuredOnly strips previously synthesized unmapped_tab_* entries
// before re-synthesis, so re-applying synthesize against a cached panel
// state cannot duplicate stale virtual circuits from a prior generation.
func configuredOnly(circuits map[string]CircuitDTO) map[string]CircuitDTO {
	out := make(map[string]CircuitDTO, len(circuits))
	for id, c := range circuits {
		if len(id) >= 13 && id[:13] == "unmapped_tab_" {
			continue
		}
		out[id] = c
	}
	return out
}

// cachedFetch implements the read-cache-then-at-most-one-I/O-then-write
// sequence common to every live endpoint (spec §5: "cache read, then at
// most one I/O, then cache write are sequential and happen-before the
// returned value").
func cachedFetch[T any](c *Client, key, label string, fetch func(context.Context) (T, error), ctx context.Context) (T, error) {
	if cached, ok := c.cache.Get(key); ok {
		c.mCacheHit.Inc(1)
		return cached.(T), nil
	}
	c.mCacheMiss.Inc(1)

	var result T
	err := c.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		result, err = fetch(ctx)
		c.mRequests.Inc(1, label)
		return err
	}, c.onRetryAttempt(ctx, label))
	if err != nil {
		c.log.ErrorCtx(ctx, "g2 request failed", "op", label, "err", err)
		var zero T
		return zero, model.NewError(classifyHTTP(err), "g2."+label, err)
	}
	c.cache.Put(key, result)
	return result, nil
}

// SetCircuitRelay sets a circuit's relay state. Write operations clear the
// entire cache (spec §4.D).
func (c *Client) SetCircuitRelay(ctx context.Context, id string, state model.RelayState) error {
	ws, ok := c.source.(writableSource)
	if !ok {
		return model.NewError(model.ValidationError, "g2.set_circuit_relay", nil)
	}
	_, err := withAuthEscalation(c, ctx, func() (struct{}, error) {
		if err := ws.SetCircuitRelay(ctx, id, state.String()); err != nil {
			return struct{}{}, model.NewError(classifyHTTP(err), "g2.set_circuit_relay", err)
		}
		return struct{}{}, nil
	})
	if err != nil {
		c.log.ErrorCtx(ctx, "g2 set_circuit_relay failed", "id", id, "err", err)
		return err
	}
	c.cache.Clear()
	c.bus.PublishCtx(ctx, events.Event{Category: events.CategoryCache, Type: "cleared", Fields: map[string]interface{}{"reason": "set_circuit_relay"}})
	return nil
}

// SetCircuitPriority sets a circuit's load-shed priority. Write operations
// clear the entire cache.
func (c *Client) SetCircuitPriority(ctx context.Context, id string, priority model.Priority) error {
	ws, ok := c.source.(writableSource)
	if !ok {
		return model.NewError(model.ValidationError, "g2.set_circuit_priority", nil)
	}
	_, err := withAuthEscalation(c, ctx, func() (struct{}, error) {
		if err := ws.SetCircuitPriority(ctx, id, priority.String()); err != nil {
			return struct{}{}, model.NewError(classifyHTTP(err), "g2.set_circuit_priority", err)
		}
		return struct{}{}, nil
	})
	if err != nil {
		c.log.ErrorCtx(ctx, "g2 set_circuit_priority failed", "id", id, "err", err)
		return err
	}
	c.cache.Clear()
	c.bus.PublishCtx(ctx, events.Event{Category: events.CategoryCache, Type: "cleared", Fields: map[string]interface{}{"reason": "set_circuit_priority"}})
	return nil
}

// Snapshot issues the four read endpoints concurrently and projects the
// result into the unified PanelSnapshot (spec §4.D, §4.G). Concurrent
// execution uses errgroup as the task-join primitive; a failure on any
// required field surfaces that component's error.
func (c *Client) Snapshot(ctx context.Context) (model.PanelSnapshot, error) {
	var status StatusResponse
	var panel PanelStateResponse
	var circuits CircuitsResponse
	var storage StorageSOEResponse

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { var err error; status, err = c.Status(gctx); return err })
	g.Go(func() error { var err error; panel, err = c.PanelState(gctx); return err })
	g.Go(func() error { var err error; circuits, err = c.Circuits(gctx); return err })
	g.Go(func() error { var err error; storage, err = c.StorageSOE(gctx); return err })

	if err := g.Wait(); err != nil {
		return model.PanelSnapshot{}, err
	}

	return project(status, panel, circuits, storage), nil
}

// Close releases any resources held by the client. The G2 transport has
// no background task or long-lived channel, so this is a no-op kept for
// interface symmetry with G3.
func (c *Client) Close() error { return nil }

// Capabilities returns the G2 capability set (spec §3): every flag except
// PUSH_STREAMING.
func (c *Client) Capabilities() model.PanelCapability { return model.CapabilitiesG2 }
