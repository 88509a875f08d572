// Package cpi supplies the annual consumer-price-index change used by
// good-cause rent-increase rules. Two implementations exist: a deterministic
// fallback table and an external HTTP provider that degrades to the fallback
// on any failure, plus a Redis caching decorator.
package cpi

import "context"

// Result is the outcome of a CPI lookup. When IsFallback is true callers must
// emit a GOOD_CAUSE_CPI_FALLBACK_USED informational violation and log one
// record tagged CPI_ANNUAL_CHANGE_FALLBACK.
type Result struct {
	Percentage float64 `json:"percentage"`
	IsFallback bool    `json:"isFallback"`
	Region     string  `json:"region"`
}

// Provider resolves the annual CPI change for a region.
type Provider interface {
	GetAnnualCPIChange(ctx context.Context, region string) (Result, error)
}
