package g3

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"panelclient/internal/model"
)

func TestDiscoverTopologyPositionalPairing(t *testing.T) {
	// spec S3: GetInstances returns N=[5,1,12], M=[35,2,36]; after
	// independent sort+dedup, N=[1,5,12], M=[2,35,36], paired positionally
	// into circuits "1","2","3".
	n := []int{5, 1, 12}
	m := []int{35, 2, 36}

	names := map[int]string{1: "Kitchen", 5: "Garage", 12: "Office"}
	circuits, reverse, err := discoverTopology(n, m, func(nameIID int) (string, error) {
		return names[nameIID], nil
	})
	require.NoError(t, err)

	require.Equal(t, CircuitInfo{CircuitID: "1", Name: "Kitchen", NameIID: 1, MetricIID: 2, BreakerPosition: 1}, circuits["1"])
	require.Equal(t, CircuitInfo{CircuitID: "2", Name: "Garage", NameIID: 5, MetricIID: 35, BreakerPosition: 2}, circuits["2"])
	require.Equal(t, CircuitInfo{CircuitID: "3", Name: "Office", NameIID: 12, MetricIID: 36, BreakerPosition: 3}, circuits["3"])

	require.Equal(t, "1", reverse[2])
	require.Equal(t, "2", reverse[35])
	require.Equal(t, "3", reverse[36])
}

func TestDiscoverTopologyResolvesByNameIIDNotPositionalID(t *testing.T) {
	// The resolver must be called with the raw instance id (name_iid), not
	// the 1-based positional circuit id the pairing produces.
	n := []int{7}
	m := []int{20}
	var seenArg int
	_, _, err := discoverTopology(n, m, func(nameIID int) (string, error) {
		seenArg = nameIID
		return "x", nil
	})
	require.NoError(t, err)
	require.Equal(t, 7, seenArg)
}

func TestDiscoverTopologyLengthMismatchIsTopologyMismatch(t *testing.T) {
	_, _, err := discoverTopology([]int{1, 2}, []int{1}, func(int) (string, error) { return "", nil })
	var perr *model.Error
	require.True(t, errors.As(err, &perr))
	require.Equal(t, model.TopologyMismatch, perr.Kind)
}

func TestDiscoverTopologyResolverErrorWrapsAsGrpcError(t *testing.T) {
	boom := errors.New("boom")
	_, _, err := discoverTopology([]int{1}, []int{1}, func(int) (string, error) { return "", boom })
	var perr *model.Error
	require.True(t, errors.As(err, &perr))
	require.Equal(t, model.GrpcError, perr.Kind)
	require.True(t, errors.Is(perr.Err, boom))
}

func TestDiscoverTopologyIsDualPhaseAlwaysFalse(t *testing.T) {
	circuits, _, err := discoverTopology([]int{1}, []int{1}, func(int) (string, error) { return "x", nil })
	require.NoError(t, err)
	require.False(t, circuits["1"].IsDualPhase)
}
