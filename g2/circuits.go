package g2

import (
	"fmt"
	"sort"
)

// synthesizeUnmapped implements spec §4.D's unmapped-circuit synthesis:
//
//  1. mapped_positions = union of every tabs list on configured circuits.
//  2. for each position p in [1, total_positions] \ mapped_positions,
//     synthesize a virtual circuit unmapped_tab_{p} with tabs=[p], relay
//     and priority copied from the corresponding branch record, and
//     instantaneous power/energy from that branch record.
//  3. merge virtual entries into the circuits mapping, preserving
//     configured entries.
func synthesizeUnmapped(configured map[string]CircuitDTO, panel PanelStateResponse) map[string]CircuitDTO {
	mapped := make(map[int]struct{})
	for _, c := range configured {
		for _, p := range c.Tabs {
			mapped[p] = struct{}{}
		}
	}

	branchByPosition := make(map[int]BranchDTO, len(panel.Branches))
	for _, b := range panel.Branches {
		branchByPosition[b.Position] = b
	}

	out := make(map[string]CircuitDTO, len(configured))
	for id, c := range configured {
		out[id] = c
	}

	for p := 1; p <= panel.TotalPositions; p++ {
		if _, ok := mapped[p]; ok {
			continue
		}
		branch, ok := branchByPosition[p]
		if !ok {
			continue // no telemetry for this position; nothing to synthesize
		}
		id := fmt.Sprintf("unmapped_tab_%d", p)
		out[id] = CircuitDTO{
			Name:             fmt.Sprintf("Unmapped Tab %d", p),
			Tabs:             []int{p},
			PowerW:           branch.PowerW,
			VoltageV:         branch.VoltageV,
			CurrentA:         branch.CurrentA,
			RelayState:       branch.RelayState,
			Priority:         branch.Priority,
			EnergyConsumedWh: branch.EnergyConsumedWh,
			EnergyProducedWh: branch.EnergyProducedWh,
		}
	}
	return out
}

// mappedPositionsSorted is a test/debug helper returning a sorted list of
// every position covered by configured circuits.
func mappedPositionsSorted(configured map[string]CircuitDTO) []int {
	seen := make(map[int]struct{})
	for _, c := range configured {
		for _, p := range c.Tabs {
			seen[p] = struct{}{}
		}
	}
	out := make([]int, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}
