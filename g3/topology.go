package g3

import (
	"strconv"

	"panelclient/internal/model"
)

// discoverTopology implements the two-phase discovery in spec §4.E:
// positionally pair the sorted, de-duplicated naming (N) and metric (M)
// instance-id lists into CircuitInfo records, then resolve each circuit's
// display name via the caller-supplied name resolver (one GetRevision per
// circuit, against name_iid, never the positional id — spec's explicit
// correction of a prior implementation bug).
//
// G3's instance-id pairing carries no multi-tab information, so every
// circuit is inherently single-position; IsDualPhase is always false for
// this transport (documented design decision, no teacher or spec.md
// counterpart to ground against — G2 is the only transport where
// dual-phase circuits are observable).
func discoverTopology(n, m []int, resolveName func(nameIID int) (string, error)) (map[string]CircuitInfo, map[int]string, error) {
	sortDedup := func(ids []int) []int {
		set := make(map[int]struct{}, len(ids))
		for _, v := range ids {
			set[v] = struct{}{}
		}
		return setToSortedSlice(set)
	}
	n, m = sortDedup(n), sortDedup(m)

	if len(n) != len(m) {
		return nil, nil, model.NewError(model.TopologyMismatch, "g3.connect",
			nil)
	}

	circuits := make(map[string]CircuitInfo, len(n))
	reverse := make(map[int]string, len(m))

	for i := range n {
		circuitID := positionalID(i)
		nameIID := n[i]
		metricIID := m[i]

		name, err := resolveName(nameIID)
		if err != nil {
			return nil, nil, model.NewError(model.GrpcError, "g3.get_revision", err)
		}

		circuits[circuitID] = CircuitInfo{
			CircuitID:       circuitID,
			Name:            name,
			NameIID:         nameIID,
			MetricIID:       metricIID,
			IsDualPhase:     false,
			BreakerPosition: i + 1,
		}
		reverse[metricIID] = circuitID
	}

	return circuits, reverse, nil
}

func positionalID(zeroBasedIndex int) string {
	return strconv.Itoa(zeroBasedIndex + 1)
}
