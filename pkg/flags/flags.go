// Package flags resolves compliance feature flags. A flag gates one check
// token (e.g. "fare_act") per market; unresolved flags default to enabled so
// that a misconfigured flag store can never silently disable enforcement.
package flags

import (
	"context"
	"strings"
)

// Resolver answers whether a compliance check is enabled for a market.
type Resolver interface {
	// IsEnabled reports whether the named check runs for the market.
	// Implementations fail open to true: enforcement is the safe default.
	IsEnabled(ctx context.Context, check, market string) (bool, error)
}

// Key builds the canonical flag key: compliance.<check>.<market lowercased>.
func Key(check, market string) string {
	return "compliance." + check + "." + strings.ToLower(market)
}

// StaticResolver serves flags from a fixed map keyed by Key(check, market).
// A missing key means enabled. The zero value enables everything.
type StaticResolver struct {
	Flags map[string]bool
}

// NewStaticResolver builds a resolver over the given overrides.
func NewStaticResolver(overrides map[string]bool) *StaticResolver {
	return &StaticResolver{Flags: overrides}
}

func (r *StaticResolver) IsEnabled(_ context.Context, check, market string) (bool, error) {
	if r == nil || r.Flags == nil {
		return true, nil
	}
	if v, ok := r.Flags[Key(check, market)]; ok {
		return v, nil
	}
	return true, nil
}
