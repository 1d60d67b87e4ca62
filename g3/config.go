// Package g3 implements the generation-three transport: a binary RPC
// client that hand-encodes and decodes its own wire format, discovers
// circuit topology from two independent instance-identifier lists, and
// maintains an in-memory reflection of telemetry fed by a long-lived
// streaming subscription (spec §4.E).
//
// No teacher file speaks a binary RPC protocol (the teacher only ever
// crawls HTTP), so this package is built fresh against spec.md's own
// algorithmic description, reusing internal/wire for framing and
// following the g2 package's Config/Validate/ApplyDefaults idiom for
// consistency across transports.
package g3

import (
	"fmt"
	"time"
)

// Config is the G3 transport's recognized configuration surface (spec §6).
type Config struct {
	Host     string
	Port     int // defaults to 50065
	TimeoutS float64

	// JoinTimeoutS bounds how long stop_streaming waits for the
	// background stream task to exit before proceeding anyway.
	JoinTimeoutS float64
}

// DefaultConfig returns a Config with every G3 default applied.
func DefaultConfig(host string) Config {
	c := Config{Host: host}
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills unset fields: port=50065, timeout_s=30, join_timeout_s=5.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 50065
	}
	if c.TimeoutS == 0 {
		c.TimeoutS = 30
	}
	if c.JoinTimeoutS == 0 {
		c.JoinTimeoutS = 5
	}
}

// Validate rejects configurations the transport cannot operate under.
func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("g3: host is required")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("g3: invalid port %d", c.Port)
	}
	if c.TimeoutS <= 0 {
		return fmt.Errorf("g3: timeout_s must be positive")
	}
	return nil
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c Config) timeout() time.Duration {
	return time.Duration(c.TimeoutS * float64(time.Second))
}

func (c Config) joinTimeout() time.Duration {
	return time.Duration(c.JoinTimeoutS * float64(time.Second))
}
