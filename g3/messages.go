package g3

import (
	"math"
	"sort"

	"panelclient/internal/wire"
)

// Reserved top-level field numbers (spec §6): trait ids 15, 16, 17, 26, 27,
// 31; main-feed field 14. All seven are named below.
const (
	fieldProductFilter  = 15 // GetInstances request: vendor/product filter (opaque passthrough)
	fieldNamingTraitIID = 16 // GetInstances response: repeated naming-trait instance id
	fieldRevisionIID    = 17 // GetRevision request: instance id to read
	fieldMetricTraitIID = 26 // GetInstances response: repeated metric-trait instance id
	fieldMetricPayload  = 27 // Subscribe notification: circuit metric payload bytes
	fieldMainFeed       = 14 // Subscribe notification: main-feed payload bytes
	fieldMetricIID      = 31 // Subscribe notification: which metric instance a payload belongs to

	fieldRevisionName = 2 // GetRevision response: the resolved name string
)

// Well-known GetRevision instance ids for the panel's own identity,
// reserved the same way the top-level field numbers are (spec §6). They
// are not checked against the per-circuit naming instances GetInstances
// returns; a naming instance that reuses 0 or 1 is not detected.
const (
	identitySerialIID   = 0
	identityFirmwareIID = 1
)

// Metric submessage field numbers, a private namespace nested inside
// fieldMainFeed/fieldMetricPayload's byte payload.
const (
	metricPowerW           = 1
	metricVoltageV         = 2
	metricCurrentA         = 3
	metricFrequencyHz      = 4 // main feed only
	metricApparentPowerVA  = 5 // circuit only
	metricReactivePowerVAR = 6 // circuit only
	metricPowerFactor      = 7 // circuit only
)

func putFloat64Field(buf []byte, fieldNumber int, v float64) []byte {
	return wire.PutFixed64Field(buf, fieldNumber, math.Float64bits(v))
}

func float64FromField(f wire.Field) (float64, error) {
	bits, err := f.Uint64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}

// encodeGetInstancesRequest builds the request frame: a single opaque
// product-filter byte string the caller supplies (vendor/product of
// interest); the library does not interpret it.
func encodeGetInstancesRequest(productFilter []byte) []byte {
	return wire.PutBytesField(nil, fieldProductFilter, productFilter)
}

// decodeGetInstancesResponse parses the accumulated naming (N) and metric
// (M) instance id lists out of a GetInstances response, independently
// sorted and de-duplicated (spec §4.E).
func decodeGetInstancesResponse(payload []byte) (n, m []int, err error) {
	nSet := map[int]struct{}{}
	mSet := map[int]struct{}{}
	dispatchErr := wire.Dispatch(payload, func(f wire.Field) bool {
		v, e := f.Uint64()
		if e != nil {
			err = e
			return false
		}
		switch f.Number {
		case fieldNamingTraitIID:
			nSet[int(v)] = struct{}{}
		case fieldMetricTraitIID:
			mSet[int(v)] = struct{}{}
		}
		return true
	})
	if dispatchErr != nil {
		return nil, nil, dispatchErr
	}
	if err != nil {
		return nil, nil, err
	}
	n = setToSortedSlice(nSet)
	m = setToSortedSlice(mSet)
	return n, m, nil
}

func setToSortedSlice(s map[int]struct{}) []int {
	out := make([]int, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

func encodeGetRevisionRequest(instanceIID int) []byte {
	return wire.PutVarintField(nil, fieldRevisionIID, uint64(instanceIID))
}

func decodeGetRevisionResponse(payload []byte) (string, error) {
	var name string
	var derr error
	err := wire.Dispatch(payload, func(f wire.Field) bool {
		if f.Number == fieldRevisionName {
			b, e := f.Bytes()
			if e != nil {
				derr = e
				return false
			}
			name = string(b)
		}
		return true
	})
	if err != nil {
		return "", err
	}
	return name, derr
}

// notification is one decoded Subscribe stream frame: either a main-feed
// update or a per-circuit metric update keyed by metric instance id.
type notification struct {
	isMainFeed bool
	metricIID  int
	metrics    CircuitMetrics
}

// decodeNotification parses one Subscribe stream frame (spec §4.E).
func decodeNotification(payload []byte) (notification, error) {
	var n notification
	var metricPayload []byte
	var mainFeedPayload []byte
	var derr error

	err := wire.Dispatch(payload, func(f wire.Field) bool {
		switch f.Number {
		case fieldMainFeed:
			b, e := f.Bytes()
			if e != nil {
				derr = e
				return false
			}
			mainFeedPayload = b
		case fieldMetricIID:
			v, e := f.Uint64()
			if e != nil {
				derr = e
				return false
			}
			n.metricIID = int(v)
		case fieldMetricPayload:
			b, e := f.Bytes()
			if e != nil {
				derr = e
				return false
			}
			metricPayload = b
		}
		return true
	})
	if err != nil {
		return notification{}, err
	}
	if derr != nil {
		return notification{}, derr
	}

	if mainFeedPayload != nil {
		n.isMainFeed = true
		metrics, err := decodeMainFeed(mainFeedPayload)
		if err != nil {
			return notification{}, err
		}
		n.metrics = metrics
		return n, nil
	}
	metrics, err := decodeCircuitMetrics(metricPayload)
	if err != nil {
		return notification{}, err
	}
	n.metrics = metrics
	return n, nil
}

func decodeMainFeed(payload []byte) (CircuitMetrics, error) {
	var m CircuitMetrics
	var derr error
	err := wire.Dispatch(payload, func(f wire.Field) bool {
		v, e := float64FromField(f)
		if e != nil {
			derr = e
			return false
		}
		switch f.Number {
		case metricPowerW:
			m.PowerW = v
		case metricVoltageV:
			vv := v
			m.VoltageV = &vv
		case metricCurrentA:
			vv := v
			m.CurrentA = &vv
		case metricFrequencyHz:
			vv := v
			m.FrequencyHz = &vv
		}
		return true
	})
	if err != nil {
		return CircuitMetrics{}, err
	}
	return m, derr
}

func decodeCircuitMetrics(payload []byte) (CircuitMetrics, error) {
	var m CircuitMetrics
	var derr error
	err := wire.Dispatch(payload, func(f wire.Field) bool {
		v, e := float64FromField(f)
		if e != nil {
			derr = e
			return false
		}
		switch f.Number {
		case metricPowerW:
			m.PowerW = v
		case metricVoltageV:
			vv := v
			m.VoltageV = &vv
		case metricCurrentA:
			vv := v
			m.CurrentA = &vv
		case metricApparentPowerVA:
			vv := v
			m.ApparentPowerVA = &vv
		case metricReactivePowerVAR:
			vv := v
			m.ReactivePowerVAR = &vv
		case metricPowerFactor:
			vv := v
			m.PowerFactor = &vv
		}
		return true
	})
	if err != nil {
		return CircuitMetrics{}, err
	}
	return m, derr
}

