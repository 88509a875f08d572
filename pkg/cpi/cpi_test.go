package cpi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func fixedClock(month time.Month) func() time.Time {
	return func() time.Time {
		return time.Date(2026, month, 15, 12, 0, 0, 0, time.UTC)
	}
}

func TestFallbackProvider_MonthTable(t *testing.T) {
	p := NewFallbackProvider().WithClock(fixedClock(time.August))

	res, err := p.GetAnnualCPIChange(context.Background(), "nyc")
	require.NoError(t, err)
	require.True(t, res.IsFallback)
	require.Equal(t, "nyc", res.Region)
	require.InDelta(t, 2.5, res.Percentage, 0.001)

	p = NewFallbackProvider().WithClock(fixedClock(time.March))
	res, err = p.GetAnnualCPIChange(context.Background(), "nyc")
	require.NoError(t, err)
	require.InDelta(t, 3.5, res.Percentage, 0.001)
}

func TestFallbackProvider_IsDeterministic(t *testing.T) {
	p := NewFallbackProvider().WithClock(fixedClock(time.January))

	first, err := p.GetAnnualCPIChange(context.Background(), "nyc")
	require.NoError(t, err)
	second, err := p.GetAnnualCPIChange(context.Background(), "nyc")
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestBLSProvider_UnconfiguredUsesFallback(t *testing.T) {
	p := NewBLSProvider("")
	res, err := p.GetAnnualCPIChange(context.Background(), "nyc")
	require.NoError(t, err)
	require.True(t, res.IsFallback)
}

func TestBLSProvider_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "nyc", r.URL.Query().Get("region"))
		require.Equal(t, "key-1", r.URL.Query().Get("registrationkey"))
		_, _ = w.Write([]byte(`{"status":"REQUEST_SUCCEEDED","results":{"annual_change_percent":3.7}}`))
	}))
	defer srv.Close()

	p := NewBLSProvider("key-1", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	res, err := p.GetAnnualCPIChange(context.Background(), "nyc")
	require.NoError(t, err)
	require.False(t, res.IsFallback)
	require.InDelta(t, 3.7, res.Percentage, 0.001)
}

func TestBLSProvider_DegradesToFallback(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"bad payload": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"status":"REQUEST_SUCCEEDED","results":{}}`))
		},
		"not json": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html>maintenance</html>`))
		},
	}

	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(handler)
			defer srv.Close()

			p := NewBLSProvider("key-1", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
			res, err := p.GetAnnualCPIChange(context.Background(), "nyc")
			require.NoError(t, err)
			require.True(t, res.IsFallback)
		})
	}
}

func TestProviders_CancelledContextPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Neither provider may convert a cancellation into a fallback answer.
	_, err := NewFallbackProvider().GetAnnualCPIChange(ctx, "nyc")
	require.ErrorIs(t, err, context.Canceled)

	_, err = NewBLSProvider("key-1").GetAnnualCPIChange(ctx, "nyc")
	require.ErrorIs(t, err, context.Canceled)

	_, err = NewBLSProvider("").GetAnnualCPIChange(ctx, "nyc")
	require.ErrorIs(t, err, context.Canceled)
}

func TestBLSProvider_CancelledDuringFetch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cancel()
		<-r.Context().Done()
	}))
	defer srv.Close()

	p := NewBLSProvider("key-1", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	_, err := p.GetAnnualCPIChange(ctx, "nyc")
	require.ErrorIs(t, err, context.Canceled)
}

func TestBLSProvider_UnreachableHostFallsBack(t *testing.T) {
	p := NewBLSProvider("key-1", WithBaseURL("http://127.0.0.1:1"))
	res, err := p.GetAnnualCPIChange(context.Background(), "nyc")
	require.NoError(t, err)
	require.True(t, res.IsFallback)
}

func TestCachedProvider_CacheErrorsAreIgnored(t *testing.T) {
	// A client pointing at a closed port fails every command; the wrapped
	// provider must still answer.
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	next := NewFallbackProvider().WithClock(fixedClock(time.June))

	p := NewCachedProvider(next, client)
	res, err := p.GetAnnualCPIChange(context.Background(), "nyc")
	require.NoError(t, err)
	require.True(t, res.IsFallback)
	require.InDelta(t, 3.0, res.Percentage, 0.001)
}
