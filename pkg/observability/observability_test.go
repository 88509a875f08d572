package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDisabledProviderIsSafe(t *testing.T) {
	p, err := New(context.Background(), &Config{Enabled: false})
	require.NoError(t, err)

	// All recorders must be no-ops without panicking.
	p.RecordDecision(context.Background(), "listing_publish", true, 5*time.Millisecond)
	p.RecordMarketFallback(context.Background(), "atlantis")
	p.RecordCPIFallback(context.Background(), "nyc")
	require.NotNil(t, p.Tracer())
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestNilProviderIsSafe(t *testing.T) {
	var p *Provider
	p.RecordDecision(context.Background(), "lease_creation", false, time.Millisecond)
	p.RecordMarketFallback(context.Background(), "atlantis")
	p.RecordCPIFallback(context.Background(), "nyc")
	require.NotNil(t, p.Tracer())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, "rentos-compliance", cfg.ServiceName)
	require.True(t, cfg.Enabled)
	require.InDelta(t, 1.0, cfg.SampleRate, 0.001)
}
