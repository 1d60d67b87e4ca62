package panelclient

import (
	"context"
	"time"

	"panelclient/g2"
	"panelclient/g3"
	"panelclient/internal/model"
	"panelclient/internal/telemetry/logging"
	"panelclient/internal/telemetry/metrics"
)

// CreateOption configures Create's transport construction and auto-detect
// behaviour.
type CreateOption func(*createConfig)

type createConfig struct {
	generation   *Generation
	probeTimeout time.Duration
	log          logging.Logger
	metrics      metrics.Provider

	g2 g2.Config
	g3 g3.Config
}

// WithForcedGeneration skips auto-detect and constructs the named
// transport directly (spec §4.H: "If caller specifies generation →
// construct that transport and return.").
func WithForcedGeneration(gen Generation) CreateOption {
	return func(c *createConfig) { c.generation = &gen }
}

// WithProbeTimeout bounds each auto-detect probe (the G2 ping and the G3
// test_connection call). Defaults to 2 seconds, independent of either
// transport's own request timeout.
func WithProbeTimeout(d time.Duration) CreateOption {
	return func(c *createConfig) { c.probeTimeout = d }
}

// WithCreateLogger installs a structured logger on whichever transport Create builds.
func WithCreateLogger(l logging.Logger) CreateOption {
	return func(c *createConfig) { c.log = l }
}

// WithCreateMetrics installs a metrics provider on whichever transport Create builds.
func WithCreateMetrics(p metrics.Provider) CreateOption {
	return func(c *createConfig) { c.metrics = p }
}

// WithG2Config overrides the G2 transport's configuration surface beyond
// host (port, timeouts, cache window, retry policy, simulation mode).
func WithG2Config(fn func(*g2.Config)) CreateOption {
	return func(c *createConfig) { fn(&c.g2) }
}

// WithG3Config overrides the G3 transport's configuration surface beyond host.
func WithG3Config(fn func(*g3.Config)) CreateOption {
	return func(c *createConfig) { fn(&c.g3) }
}

func defaultCreateConfig(host string) createConfig {
	return createConfig{
		probeTimeout: 2 * time.Second,
		log:          logging.New(nil),
		metrics:      metrics.NewNoopProvider(),
		g2:           g2.DefaultConfig(host),
		g3:           g3.DefaultConfig(host),
	}
}

// Create selects and constructs a transport for host (spec §4.H). With no
// WithForcedGeneration option it probes G2 first (cheap: a single status
// call) and falls back to G3's test_connection, because a G2 panel may
// not answer on the G3 port at all. It fails with ErrNoTransport only
// when neither probe succeeds.
func Create(ctx context.Context, host string, opts ...CreateOption) (Client, error) {
	cfg := defaultCreateConfig(host)
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.generation != nil {
		switch *cfg.generation {
		case GenerationG2:
			return buildG2(cfg)
		case GenerationG3:
			return buildG3(ctx, cfg)
		}
	}

	if client, err := probeG2(ctx, cfg); err == nil {
		return client, nil
	}
	if client, err := probeG3(ctx, cfg); err == nil {
		return client, nil
	}
	return nil, model.ErrNoTransport
}

func buildG2(cfg createConfig) (Client, error) {
	return g2.New(cfg.g2, g2.WithLogger(cfg.log), g2.WithMetrics(cfg.metrics))
}

func buildG3(ctx context.Context, cfg createConfig) (Client, error) {
	client, err := g3.New(cfg.g3, g3.WithLogger(cfg.log), g3.WithMetrics(cfg.metrics))
	if err != nil {
		return nil, err
	}
	if _, err := client.Connect(ctx); err != nil {
		return nil, err
	}
	return newG3Client(client), nil
}

// probeG2 constructs a G2 client and issues one unauthenticated ping call
// bounded by the probe timeout; spec §4.H calls this "ping()" — a cheap
// probe that must not fail merely because the client hasn't authenticated.
func probeG2(ctx context.Context, cfg createConfig) (Client, error) {
	client, err := g2.New(cfg.g2, g2.WithLogger(cfg.log), g2.WithMetrics(cfg.metrics))
	if err != nil {
		return nil, err
	}
	probeCtx, cancel := context.WithTimeout(ctx, cfg.probeTimeout)
	defer cancel()
	if err := client.Ping(probeCtx); err != nil {
		return nil, err
	}
	return client, nil
}

// probeG3 constructs a G3 client and calls test_connection, then, on
// success, runs full topology discovery via Connect before handing the
// client back (spec S6: the returned handle must be immediately usable,
// not merely probed).
func probeG3(ctx context.Context, cfg createConfig) (Client, error) {
	client, err := g3.New(cfg.g3, g3.WithLogger(cfg.log), g3.WithMetrics(cfg.metrics))
	if err != nil {
		return nil, err
	}
	probeCtx, cancel := context.WithTimeout(ctx, cfg.probeTimeout)
	ok, err := client.TestConnection(probeCtx)
	cancel()
	if err != nil || !ok {
		if err == nil {
			err = model.ErrNoTransport
		}
		return nil, err
	}
	if _, err := client.Connect(ctx); err != nil {
		return nil, err
	}
	return newG3Client(client), nil
}
