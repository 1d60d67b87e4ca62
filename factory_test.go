package panelclient

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"panelclient/g2"
	"panelclient/g3"
	"panelclient/internal/wire"
)

// g3 envelope/field numbers, mirrored from g3/conn.go and g3/messages.go
// (unexported there; re-declared here to drive a fake G3 panel over a raw
// socket without importing g3's internals).
const (
	fakeEnvStatus  = 1
	fakeEnvPayload = 2

	fakeFieldNamingTraitIID = 16
	fakeFieldMetricTraitIID = 26
	fakeFieldRevisionName   = 2
)

func respondFakeEnvelope(t *testing.T, conn net.Conn, payload []byte) {
	t.Helper()
	buf := wire.PutVarintField(nil, fakeEnvStatus, 0)
	buf = wire.PutBytesField(buf, fakeEnvPayload, payload)
	require.NoError(t, wire.WriteLengthPrefixedMessage(conn, buf))
}

// startFakeG3Panel listens on an ephemeral TCP port and answers a
// GetInstances call (one circuit, name iid 1 / metric iid 10) followed by
// a GetRevision call, for every connection it accepts.
func startFakeG3Panel(t *testing.T) (host string, port int, closeFn func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				if _, err := wire.ReadLengthPrefixedMessage(conn); err != nil {
					return
				}
				instances := wire.PutVarintField(nil, fakeFieldNamingTraitIID, 1)
				instances = wire.PutVarintField(instances, fakeFieldMetricTraitIID, 10)
				respondFakeEnvelope(t, conn, instances)

				if _, err := wire.ReadLengthPrefixedMessage(conn); err != nil {
					return
				}
				respondFakeEnvelope(t, conn, wire.PutBytesField(nil, fakeFieldRevisionName, []byte("Kitchen")))
			}(conn)
		}
	}()

	h, p, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	portNum, err := strconv.Atoi(p)
	require.NoError(t, err)
	return h, portNum, func() { ln.Close() }
}

func reservedPort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	_, p, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(p)
	require.NoError(t, err)
	require.NoError(t, ln.Close())
	return port
}

func splitServerAddr(t *testing.T, rawURL string) (host string, port int) {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	h, p, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err = strconv.Atoi(p)
	require.NoError(t, err)
	return h, port
}

func TestCreateFallsBackToG3WhenOnlyG3PortResponds(t *testing.T) {
	// spec S6: panel responds only on the G3 port. create(host) calls
	// G2 ping (times out/refused), then G3 test_connection (succeeds).
	// Returned handle is the G3 client with capability set {PUSH_STREAMING}.
	host, g3Port, closeFn := startFakeG3Panel(t)
	defer closeFn()
	g2Port := reservedPort(t)

	client, err := Create(context.Background(), host,
		WithProbeTimeout(500*time.Millisecond),
		WithG2Config(func(c *g2.Config) { c.Port = g2Port }),
		WithG3Config(func(c *g3.Config) { c.Port = g3Port }),
	)
	require.NoError(t, err)
	defer client.Close()

	require.Equal(t, CapabilitiesG3, client.Capabilities())
	require.True(t, client.Capabilities().Has(CapPushStreaming))

	snap, err := client.Snapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, GenerationG3, snap.Generation)
	require.Equal(t, "Kitchen", snap.Circuits["1"].Name)
}

func TestCreatePrefersG2WhenBothRespond(t *testing.T) {
	g2srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"serial_number":"G2-1","firmware_version":"1.0","door_state":"closed"}`))
	}))
	defer g2srv.Close()
	host, g2Port := splitServerAddr(t, g2srv.URL)
	_, g3Port, closeG3 := startFakeG3Panel(t)
	defer closeG3()

	client, err := Create(context.Background(), host,
		WithProbeTimeout(500*time.Millisecond),
		WithG2Config(func(c *g2.Config) { c.Port = g2Port }),
		WithG3Config(func(c *g3.Config) { c.Port = g3Port }),
	)
	require.NoError(t, err)
	defer client.Close()

	require.Equal(t, CapabilitiesG2, client.Capabilities())
}

func TestCreateFailsWithNoTransportWhenNeitherRespond(t *testing.T) {
	_, err := Create(context.Background(), "127.0.0.1",
		WithProbeTimeout(300*time.Millisecond),
		WithG2Config(func(c *g2.Config) { c.Port = reservedPort(t) }),
		WithG3Config(func(c *g3.Config) { c.Port = reservedPort(t) }),
	)
	require.Error(t, err)
}

func TestCreateWithForcedGenerationSkipsAutoDetect(t *testing.T) {
	host, g3Port, closeFn := startFakeG3Panel(t)
	defer closeFn()

	client, err := Create(context.Background(), host,
		WithForcedGeneration(GenerationG3),
		WithG3Config(func(c *g3.Config) { c.Port = g3Port }),
	)
	require.NoError(t, err)
	defer client.Close()
	require.Equal(t, CapabilitiesG3, client.Capabilities())
}
