package cpi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// BLSProvider fetches annual CPI change from a BLS-style statistics API.
// Every failure path (missing key, network error, bad payload) degrades to
// the deterministic fallback so rent-increase evaluation never hard-fails on
// CPI availability.
type BLSProvider struct {
	baseURL  string
	apiKey   string
	client   *http.Client
	fallback *FallbackProvider
	logger   *slog.Logger
}

// BLSOption configures a BLSProvider.
type BLSOption func(*BLSProvider)

// WithHTTPClient overrides the HTTP client (tests use httptest servers).
func WithHTTPClient(c *http.Client) BLSOption {
	return func(p *BLSProvider) { p.client = c }
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) BLSOption {
	return func(p *BLSProvider) { p.baseURL = u }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) BLSOption {
	return func(p *BLSProvider) { p.logger = l }
}

// NewBLSProvider creates the external provider. An empty apiKey means the
// provider is unconfigured and always answers from the fallback.
func NewBLSProvider(apiKey string, opts ...BLSOption) *BLSProvider {
	p := &BLSProvider{
		baseURL:  "https://api.bls.gov/publicAPI/v2/timeseries/data",
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 2 * time.Second},
		fallback: NewFallbackProvider(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type blsResponse struct {
	Status  string `json:"status"`
	Results struct {
		AnnualChangePercent *float64 `json:"annual_change_percent"`
	} `json:"results"`
}

// GetAnnualCPIChange implements Provider. Cancellation propagates as an
// error; only genuine upstream failures degrade to the fallback.
func (p *BLSProvider) GetAnnualCPIChange(ctx context.Context, region string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if p.apiKey == "" {
		return p.fallback.GetAnnualCPIChange(ctx, region)
	}

	res, err := p.fetch(ctx, region)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		p.logger.WarnContext(ctx, "cpi fetch failed, degrading to fallback",
			slog.String("region", region),
			slog.String("error", err.Error()),
		)
		return p.fallback.GetAnnualCPIChange(ctx, region)
	}
	return Result{Percentage: res, IsFallback: false, Region: region}, nil
}

func (p *BLSProvider) fetch(ctx context.Context, region string) (float64, error) {
	q := url.Values{}
	q.Set("region", region)
	q.Set("registrationkey", p.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return 0, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("cpi api status %d", resp.StatusCode)
	}

	var body blsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("cpi api payload: %w", err)
	}
	if body.Results.AnnualChangePercent == nil {
		return 0, fmt.Errorf("cpi api payload: missing annual_change_percent")
	}
	return *body.Results.AnnualChangePercent, nil
}
