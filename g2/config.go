// Package g2 implements the generation-two transport: a typed HTTP client
// with token-lifecycle handling, a per-endpoint time-windowed cache,
// bounded exponential-backoff retry, and unmapped-circuit synthesis
// (spec §4.D).
package g2

import (
	"fmt"
	"time"
)

// Config is the G2 transport's recognized configuration surface (spec §6).
// It follows the teacher's Validate()/ApplyDefaults() idiom
// (engine/config.UnifiedBusinessConfig), generalized from a
// multi-policy composite to a single flat options struct matching
// spec.md's option table.
type Config struct {
	Host string
	Port int

	TimeoutS float64
	UseSSL   bool

	CacheWindowS float64

	MaxRetries         int
	InitialRetryDelayS float64
	RetryMultiplier    float64

	SimulationMode        bool
	SimulationConfigPath  string
	SimulationStartTime   *time.Time
}

// DefaultConfig returns a Config with every default from spec §4.D applied.
func DefaultConfig(host string) Config {
	c := Config{Host: host}
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills unset fields with spec.md's documented defaults:
// port=80, timeout_s=30, use_ssl=false, cache_window_s=1.0,
// max_retries=0, initial_retry_delay_s=0.5, retry_multiplier=2.0,
// simulation_mode=false.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 80
	}
	if c.TimeoutS == 0 {
		c.TimeoutS = 30
	}
	if c.CacheWindowS == 0 {
		c.CacheWindowS = 1.0
	}
	if c.InitialRetryDelayS == 0 {
		c.InitialRetryDelayS = 0.5
	}
	if c.RetryMultiplier == 0 {
		c.RetryMultiplier = 2.0
	}
}

// Validate rejects configurations the transport cannot operate under.
func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("g2: host is required")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("g2: invalid port %d", c.Port)
	}
	if c.TimeoutS <= 0 {
		return fmt.Errorf("g2: timeout_s must be positive")
	}
	if c.CacheWindowS < 0 {
		return fmt.Errorf("g2: cache_window_s must be non-negative")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("g2: max_retries must be non-negative")
	}
	if c.InitialRetryDelayS <= 0 {
		return fmt.Errorf("g2: initial_retry_delay_s must be positive")
	}
	if c.RetryMultiplier <= 1.0 {
		return fmt.Errorf("g2: retry_multiplier must be greater than 1.0")
	}
	if c.SimulationMode && c.SimulationConfigPath == "" {
		return fmt.Errorf("g2: simulation_mode requires simulation_config_path")
	}
	return nil
}

// BaseURL returns the scheme://host:port prefix for HTTP requests.
func (c Config) BaseURL() string {
	scheme := "http"
	if c.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Host, c.Port)
}

func (c Config) timeout() time.Duration {
	return time.Duration(c.TimeoutS * float64(time.Second))
}

func (c Config) cacheWindow() time.Duration {
	return time.Duration(c.CacheWindowS * float64(time.Second))
}

func (c Config) initialRetryDelay() time.Duration {
	return time.Duration(c.InitialRetryDelayS * float64(time.Second))
}
