package g3

import (
	"context"
	"sync"
	"sync/atomic"

	"panelclient/internal/telemetry/logging"
)

// Callback is invoked synchronously on the stream task after every decoded
// notification (spec §4.E). It must be short and non-suspending.
type Callback func(*PanelData)

// UnregisterHandle deregisters its callback when Unregister is called.
// Dropping the handle without calling Unregister leaves the callback
// registered — ownership lives with the caller (spec §3 "Ownership and
// lifecycle").
type UnregisterHandle struct {
	id       uint64
	registry *callbackRegistry
}

// Unregister removes the associated callback. Idempotent.
func (h UnregisterHandle) Unregister() {
	h.registry.remove(h.id)
}

type registeredCallback struct {
	id uint64
	fn Callback
}

// callbackRegistry holds callbacks in registration order and fans out
// notifications to them synchronously, on the stream task, isolating
// panics so one bad callback cannot abort the stream (spec §4.E).
type callbackRegistry struct {
	mu      sync.Mutex
	nextID  atomic.Uint64
	entries []registeredCallback
	log     logging.Logger
}

func newCallbackRegistry(log logging.Logger) *callbackRegistry {
	return &callbackRegistry{log: log}
}

func (r *callbackRegistry) register(fn Callback) UnregisterHandle {
	id := r.nextID.Add(1)
	r.mu.Lock()
	r.entries = append(r.entries, registeredCallback{id: id, fn: fn})
	r.mu.Unlock()
	return UnregisterHandle{id: id, registry: r}
}

func (r *callbackRegistry) remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e.id == id {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return
		}
	}
}

// fanOut invokes every registered callback in registration order,
// synchronously, guarding each call so a panic is logged and swallowed
// rather than propagating into the stream loop.
func (r *callbackRegistry) fanOut(data *PanelData) {
	r.mu.Lock()
	snapshot := make([]registeredCallback, len(r.entries))
	copy(snapshot, r.entries)
	r.mu.Unlock()

	for _, e := range snapshot {
		r.invokeGuarded(e.fn, data)
	}
}

func (r *callbackRegistry) invokeGuarded(fn Callback, data *PanelData) {
	defer func() {
		if p := recover(); p != nil && r.log != nil {
			r.log.ErrorCtx(context.Background(), "g3 callback panicked", "panic", p)
		}
	}()
	fn(data)
}
