package g3

import (
	"testing"

	"github.com/stretchr/testify/require"

	"panelclient/internal/telemetry/logging"
)

func TestFanOutInvokesInRegistrationOrder(t *testing.T) {
	// spec S4: two callbacks registered in order [cb_a, cb_b]; on one
	// notification, cb_a observes the update before cb_b. That both see the
	// same PanelData is checked by TestFanOutPassesSamePanelDataToEveryCallback.
	r := newCallbackRegistry(logging.New(nil))
	var order []string
	r.register(func(d *PanelData) { order = append(order, "a") })
	r.register(func(d *PanelData) { order = append(order, "b") })

	data := newPanelData()
	r.fanOut(data)

	require.Equal(t, []string{"a", "b"}, order)
}

func TestFanOutPassesSamePanelDataToEveryCallback(t *testing.T) {
	r := newCallbackRegistry(logging.New(nil))
	var seenA, seenB *PanelData
	r.register(func(d *PanelData) { seenA = d })
	r.register(func(d *PanelData) { seenB = d })

	data := newPanelData()
	r.fanOut(data)

	require.Same(t, data, seenA)
	require.Same(t, data, seenB)
}

func TestFanOutIsolatesPanicInOneCallback(t *testing.T) {
	r := newCallbackRegistry(logging.New(nil))
	called := false
	r.register(func(d *PanelData) { panic("boom") })
	r.register(func(d *PanelData) { called = true })

	require.NotPanics(t, func() { r.fanOut(newPanelData()) })
	require.True(t, called)
}

func TestUnregisterRemovesCallback(t *testing.T) {
	r := newCallbackRegistry(logging.New(nil))
	calls := 0
	handle := r.register(func(d *PanelData) { calls++ })
	handle.Unregister()

	r.fanOut(newPanelData())
	require.Equal(t, 0, calls)
}

func TestUnregisterIsIdempotent(t *testing.T) {
	r := newCallbackRegistry(logging.New(nil))
	handle := r.register(func(d *PanelData) {})
	handle.Unregister()
	require.NotPanics(t, func() { handle.Unregister() })
}
