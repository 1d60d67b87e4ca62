package g3

import "sync"

// CircuitInfo is the static topology for one G3 circuit, resolved once per
// connect (spec §3).
type CircuitInfo struct {
	CircuitID     string // positional slot, 1-based, as text
	Name          string
	NameIID       int
	MetricIID     int
	IsDualPhase   bool
	BreakerPosition int
}

// CircuitMetrics holds the latest streamed values for one circuit or the
// main feed. Pointer fields are absent (nil) until the first notification
// for that field arrives, consistent with invariant 9's "absent, not
// zero" rule.
type CircuitMetrics struct {
	PowerW float64 // always present once any notification has arrived

	VoltageV *float64
	CurrentA *float64

	// Main-feed only.
	FrequencyHz *float64

	// Circuit-only.
	ApparentPowerVA  *float64
	ReactivePowerVAR *float64
	PowerFactor      *float64
}

// PanelData is the in-memory reflection the background stream task
// maintains and snapshot() reads without I/O (spec §3, §4.E). Reads and
// writes are serialized by a single mutex: the stream task is the sole
// writer, but Data() exposes read access to advanced callers who may run
// concurrently with it.
type PanelData struct {
	mu sync.RWMutex

	serial   string
	firmware string

	circuits            map[string]CircuitInfo
	metrics             map[string]CircuitMetrics
	mainFeed            CircuitMetrics
	metricIIDToCircuit  map[int]string
}

func newPanelData() *PanelData {
	return &PanelData{
		circuits:           make(map[string]CircuitInfo),
		metrics:            make(map[string]CircuitMetrics),
		metricIIDToCircuit: make(map[int]string),
	}
}

func (d *PanelData) setTopology(serial, firmware string, circuits map[string]CircuitInfo, reverse map[int]string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.serial = serial
	d.firmware = firmware
	d.circuits = circuits
	d.metricIIDToCircuit = reverse
}

// applyNotification updates either the main feed or one circuit's metrics
// in arrival order (spec §5: "decoded notifications update PanelData in
// arrival order"). It reports whether the metric instance id was known;
// an unknown id is the caller's cue to count a discard.
func (d *PanelData) applyNotification(n notification) (known bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if n.isMainFeed {
		d.mainFeed = n.metrics
		return true
	}
	circuitID, ok := d.metricIIDToCircuit[n.metricIID]
	if !ok {
		return false
	}
	d.metrics[circuitID] = n.metrics
	return true
}

// read returns a defensive copy of everything the snapshot projection needs,
// so the caller never observes a torn field while the stream task
// continues writing concurrently.
func (d *PanelData) read() (serial, firmware string, circuits map[string]CircuitInfo, metrics map[string]CircuitMetrics, mainFeed CircuitMetrics) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	circuits = make(map[string]CircuitInfo, len(d.circuits))
	for k, v := range d.circuits {
		circuits[k] = v
	}
	metrics = make(map[string]CircuitMetrics, len(d.metrics))
	for k, v := range d.metrics {
		metrics[k] = v
	}
	return d.serial, d.firmware, circuits, metrics, d.mainFeed
}
