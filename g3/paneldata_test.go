package g3

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyNotificationUpdatesKnownCircuit(t *testing.T) {
	d := newPanelData()
	d.setTopology("SN1", "1.2.3", map[string]CircuitInfo{
		"1": {CircuitID: "1", Name: "Kitchen", MetricIID: 35},
	}, map[int]string{35: "1"})

	known := d.applyNotification(notification{metricIID: 35, metrics: CircuitMetrics{PowerW: 500}})
	require.True(t, known)

	_, _, circuits, metrics, _ := d.read()
	require.Equal(t, "Kitchen", circuits["1"].Name)
	require.Equal(t, 500.0, metrics["1"].PowerW)
}

func TestApplyNotificationUnknownMetricIIDReportsDiscard(t *testing.T) {
	d := newPanelData()
	d.setTopology("SN1", "1.2.3", map[string]CircuitInfo{}, map[int]string{})

	known := d.applyNotification(notification{metricIID: 999, metrics: CircuitMetrics{PowerW: 1}})
	require.False(t, known)
}

func TestApplyNotificationMainFeedUpdatesSeparately(t *testing.T) {
	d := newPanelData()
	known := d.applyNotification(notification{isMainFeed: true, metrics: CircuitMetrics{PowerW: 8400}})
	require.True(t, known)

	_, _, _, _, mainFeed := d.read()
	require.Equal(t, 8400.0, mainFeed.PowerW)
}

func TestReadReturnsDefensiveCopyNotLiveMap(t *testing.T) {
	d := newPanelData()
	d.setTopology("SN1", "1.2.3", map[string]CircuitInfo{"1": {CircuitID: "1"}}, map[int]string{})

	_, _, circuits, _, _ := d.read()
	circuits["1"] = CircuitInfo{CircuitID: "mutated"}

	_, _, circuitsAgain, _, _ := d.read()
	require.Equal(t, "1", circuitsAgain["1"].CircuitID)
}
