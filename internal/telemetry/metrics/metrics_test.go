package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNoopProviderHealthAlwaysNil(t *testing.T) {
	p := NewNoopProvider()
	require.NoError(t, p.Health(context.Background()))
	p.NewCounter(CounterOpts{}).Inc(1)
	p.NewGauge(GaugeOpts{}).Set(1)
	p.NewHistogram(HistogramOpts{}).Observe(1)
	ctor := p.NewTimer(HistogramOpts{})
	ctor().ObserveDuration()
}

func TestPrometheusProviderRegistersAndIncrements(t *testing.T) {
	p := NewPrometheusProvider(PrometheusProviderOptions{})
	c := p.NewCounter(CounterOpts{CommonOpts: CommonOpts{Namespace: "panelclient", Subsystem: "g3", Name: "notifications_total", Help: "test"}})
	c.Inc(1)
	c.Inc(2)
	require.NoError(t, p.Health(context.Background()))
}

func TestPrometheusProviderReusesExistingCollector(t *testing.T) {
	p := NewPrometheusProvider(PrometheusProviderOptions{})
	opts := CounterOpts{CommonOpts: CommonOpts{Name: "dup_counter"}}
	c1 := p.NewCounter(opts)
	c2 := p.NewCounter(opts)
	c1.Inc(1)
	c2.Inc(1)
}

func TestOTelProviderCounterAndGauge(t *testing.T) {
	p := NewOTelProvider(OTelProviderOptions{})
	c := p.NewCounter(CounterOpts{CommonOpts: CommonOpts{Namespace: "panelclient", Name: "cache_hits_total"}})
	c.Inc(1)
	g := p.NewGauge(GaugeOpts{CommonOpts: CommonOpts{Namespace: "panelclient", Name: "retry_in_flight"}})
	g.Set(3)
	g.Add(-1)
	require.NoError(t, p.Health(context.Background()))
}
