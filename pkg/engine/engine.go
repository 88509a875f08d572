// Package engine implements the compliance orchestrator: effective-pack
// resolution with caching and override merge, feature gating, and
// best-effort recording of gate results to the injected sinks.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/fairhaven-labs/rentos/compliance/pkg/contracts"
	"github.com/fairhaven-labs/rentos/compliance/pkg/cpi"
	"github.com/fairhaven-labs/rentos/compliance/pkg/flags"
	"github.com/fairhaven-labs/rentos/compliance/pkg/marketpack"
	"github.com/fairhaven-labs/rentos/compliance/pkg/observability"
)

// sinkDeadline caps every best-effort sink call.
const sinkDeadline = 2 * time.Second

// Engine is the stateful orchestrator. Gates delegate pack resolution,
// feature gating, and result recording to it. Safe for concurrent use.
type Engine struct {
	mu        sync.RWMutex
	packCache map[string]*marketpack.MarketPack

	configSource  marketpack.ConfigSource
	flagResolver  flags.Resolver
	auditSink     contracts.AuditSink
	checkSink     contracts.ComplianceCheckSink
	cpiProvider   cpi.Provider
	logger        *slog.Logger
	obs           *observability.Provider
	auditLimiter  *rate.Limiter
	policyVersion string
	controlID     string
	cacheEnabled  bool
	auditEnabled  bool

	// wg tracks detached audit goroutines so tests can drain them.
	wg sync.WaitGroup
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfigSource injects the per-market database override source.
func WithConfigSource(src marketpack.ConfigSource) Option {
	return func(e *Engine) { e.configSource = src }
}

// WithFlagResolver injects the feature-flag resolver.
func WithFlagResolver(r flags.Resolver) Option {
	return func(e *Engine) { e.flagResolver = r }
}

// WithAuditSink injects the audit sink.
func WithAuditSink(s contracts.AuditSink) Option {
	return func(e *Engine) { e.auditSink = s }
}

// WithComplianceCheckSink injects the compliance-check sink.
func WithComplianceCheckSink(s contracts.ComplianceCheckSink) Option {
	return func(e *Engine) { e.checkSink = s }
}

// WithCPIProvider overrides the CPI provider (default: FallbackProvider).
func WithCPIProvider(p cpi.Provider) Option {
	return func(e *Engine) { e.cpiProvider = p }
}

// WithLogger injects a structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithObservability injects the metrics provider.
func WithObservability(p *observability.Provider) Option {
	return func(e *Engine) { e.obs = p }
}

// WithPolicyVersion sets the version stamped on decisions (default "1.0.0").
func WithPolicyVersion(v string) Option {
	return func(e *Engine) { e.policyVersion = v }
}

// WithControlID sets the audit control tag (default "CC7.3").
func WithControlID(id string) Option {
	return func(e *Engine) { e.controlID = id }
}

// WithPackCacheDisabled turns off the effective-pack cache.
func WithPackCacheDisabled() Option {
	return func(e *Engine) { e.cacheEnabled = false }
}

// WithAuditDisabled turns off audit emission entirely.
func WithAuditDisabled() Option {
	return func(e *Engine) { e.auditEnabled = false }
}

// WithAuditRateLimit caps best-effort audit emission at n records/second
// with the given burst.
func WithAuditRateLimit(n rate.Limit, burst int) Option {
	return func(e *Engine) { e.auditLimiter = rate.NewLimiter(n, burst) }
}

// New creates an engine. All collaborators are optional except the CPI
// provider, which defaults to the deterministic fallback.
func New(opts ...Option) *Engine {
	e := &Engine{
		packCache:     make(map[string]*marketpack.MarketPack),
		cpiProvider:   cpi.NewFallbackProvider(),
		logger:        slog.Default().With("component", "compliance_engine"),
		policyVersion: "1.0.0",
		controlID:     "CC7.3",
		cacheEnabled:  true,
		auditEnabled:  true,
		// Generous default: enough for any realistic decision rate, still
		// bounded against a runaway caller.
		auditLimiter: rate.NewLimiter(200, 400),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var (
	defaultOnce   sync.Once
	defaultEngine *Engine
)

// Default returns the process-wide engine. Tests should construct their own
// with New.
func Default() *Engine {
	defaultOnce.Do(func() {
		defaultEngine = New()
	})
	return defaultEngine
}

// CPIProvider returns the engine's CPI provider.
func (e *Engine) CPIProvider() cpi.Provider { return e.cpiProvider }

// PolicyVersion returns the version stamped on decisions.
func (e *Engine) PolicyVersion() string { return e.policyVersion }

// Logger returns the engine's logger.
func (e *Engine) Logger() *slog.Logger { return e.logger }

// Observability returns the metrics provider; may be nil.
func (e *Engine) Observability() *observability.Provider { return e.obs }

// EffectivePack resolves a free-form market identifier to its effective
// pack: alias resolution (unknown markets fall back to US_STANDARD with a
// telemetry event), then a single per-market override merge when a config
// source is present. Results are cached per market id unless the cache is
// disabled.
func (e *Engine) EffectivePack(ctx context.Context, marketID string) (*marketpack.MarketPack, error) {
	if e.cacheEnabled {
		e.mu.RLock()
		cached, ok := e.packCache[marketID]
		e.mu.RUnlock()
		if ok {
			return cached, nil
		}
	}

	packID, matched := marketpack.LookupMarket(marketID)
	if !matched {
		e.logger.WarnContext(ctx, "unknown market, falling back to US_STANDARD",
			"market", marketID,
			"normalized", marketpack.NormalizeMarket(marketID),
		)
		e.obs.RecordMarketFallback(ctx, marketID)
	}

	pack, err := marketpack.Get(packID)
	if err != nil {
		return nil, err
	}

	if e.configSource != nil {
		cctx, cancel := context.WithTimeout(ctx, sinkDeadline)
		cfg, err := e.configSource.GetMarketConfig(cctx, marketID)
		cancel()
		switch {
		case err != nil:
			// Overrides are best-effort; the in-code pack still applies.
			e.logger.WarnContext(ctx, "market config fetch failed, using defaults",
				"market", marketID, "error", err)
		case cfg != nil:
			merged, err := marketpack.MergeWithConfig(pack, cfg)
			if err != nil {
				e.logger.WarnContext(ctx, "market config merge failed, using defaults",
					"market", marketID, "error", err)
			} else {
				pack = merged
			}
		}
	}

	if e.cacheEnabled {
		e.mu.Lock()
		e.packCache[marketID] = pack
		e.mu.Unlock()
	}
	return pack, nil
}

// ClearPackCache drops every cached pack; the next resolution re-merges.
func (e *Engine) ClearPackCache() {
	e.mu.Lock()
	e.packCache = make(map[string]*marketpack.MarketPack)
	e.mu.Unlock()
}

// IsComplianceFeatureEnabled consults the flag resolver first (false
// short-circuits) and then the pack's own enabled bits for pack-backed
// features such as "fare_act_enforcement".
func (e *Engine) IsComplianceFeatureEnabled(ctx context.Context, feature, marketID string) bool {
	if e.flagResolver != nil {
		enabled, err := e.flagResolver.IsEnabled(ctx, feature, marketID)
		if err != nil {
			e.logger.WarnContext(ctx, "flag resolution failed, defaulting to enabled",
				"feature", feature, "market", marketID, "error", err)
		} else if !enabled {
			return false
		}
	}

	pack, err := e.EffectivePack(ctx, marketID)
	if err != nil {
		return false
	}

	switch feature {
	case "fare_act_enforcement":
		return pack.Rules.FareAct != nil && pack.Rules.FareAct.Enabled
	case "fcha_enforcement":
		return pack.Rules.FCHA != nil && pack.Rules.FCHA.Enabled
	case "good_cause_enforcement":
		return pack.Rules.GoodCause != nil && pack.Rules.GoodCause.Enabled
	case "rent_stabilization_enforcement":
		return pack.Rules.RentStabilization != nil && pack.Rules.RentStabilization.Enabled
	case "gdpr_enforcement":
		return pack.Rules.GDPR != nil && pack.Rules.GDPR.Enabled
	default:
		return true
	}
}

// Wait blocks until all detached audit goroutines have finished. Intended
// for tests and shutdown.
func (e *Engine) Wait() {
	e.wg.Wait()
}
