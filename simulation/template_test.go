package simulation

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func solarTemplate() CircuitTemplate {
	return CircuitTemplate{
		Mode:       ModeProducer,
		PowerRange: [2]float64{-4000, 0},
		Typical:    -2500,
		Variation:  0,
		TimeOfDay: &TimeOfDayProfile{
			HourlyMultipliers: map[int]float64{12: 1.0, 20: 0.0},
		},
	}
}

func TestTickPowerProducerCurveMatchesTimeOfDayProfile(t *testing.T) {
	// spec S5: at 20:00 power_w is 0.0; at 12:00 it is -2500.0.
	tmpl := solarTemplate()
	epoch := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	r := rand.New(rand.NewSource(1))

	at20 := time.Date(2025, 6, 15, 20, 0, 0, 0, time.UTC)
	require.Equal(t, 0.0, tickPower(tmpl, at20, epoch, r))

	at12 := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	require.Equal(t, -2500.0, tickPower(tmpl, at12, epoch, r))
}

func TestTickPowerClampsToRange(t *testing.T) {
	tmpl := CircuitTemplate{
		PowerRange: [2]float64{0, 1000},
		Typical:    5000,
		Variation:  0,
	}
	r := rand.New(rand.NewSource(1))
	epoch := time.Now()
	require.Equal(t, 1000.0, tickPower(tmpl, epoch, epoch, r))
}

func TestTickPowerZeroDuringCyclingOffWindow(t *testing.T) {
	tmpl := CircuitTemplate{
		PowerRange: [2]float64{0, 1000},
		Typical:    500,
		Cycling:    &CyclingPattern{OnDurationS: 10, OffDurationS: 10},
	}
	r := rand.New(rand.NewSource(1))
	epoch := time.Unix(0, 0)
	onPhase := epoch.Add(5 * time.Second)
	offPhase := epoch.Add(15 * time.Second)
	require.NotZero(t, tickPower(tmpl, onPhase, epoch, r))
	require.Zero(t, tickPower(tmpl, offPhase, epoch, r))
}

func TestVariationDrawIsZeroWhenVariationIsZero(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 5; i++ {
		require.Equal(t, 0.0, variationDraw(r, 0))
	}
}

func TestVariationDrawStaysWithinBound(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 100; i++ {
		v := variationDraw(r, 0.2)
		require.GreaterOrEqual(t, v, -0.2)
		require.LessOrEqual(t, v, 0.2)
	}
}
