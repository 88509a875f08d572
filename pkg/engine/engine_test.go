package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fairhaven-labs/rentos/compliance/pkg/contracts"
	"github.com/fairhaven-labs/rentos/compliance/pkg/flags"
	"github.com/fairhaven-labs/rentos/compliance/pkg/marketpack"
)

type countingConfigSource struct {
	mu    sync.Mutex
	calls int
	cfg   map[string]any
	err   error
}

func (s *countingConfigSource) GetMarketConfig(_ context.Context, _ string) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.cfg, s.err
}

func TestEffectivePack_ResolvesAliases(t *testing.T) {
	e := New()

	pack, err := e.EffectivePack(context.Background(), "brooklyn")
	require.NoError(t, err)
	require.Equal(t, marketpack.NYCStrict, pack.ID)

	pack, err = e.EffectivePack(context.Background(), "texas")
	require.NoError(t, err)
	require.Equal(t, marketpack.TXStandard, pack.ID)
}

func TestEffectivePack_UnknownMarketFallsBack(t *testing.T) {
	e := New()
	pack, err := e.EffectivePack(context.Background(), "atlantis")
	require.NoError(t, err)
	require.Equal(t, marketpack.USStandard, pack.ID)
}

func TestEffectivePack_ConfigSourceCalledOncePerMarket(t *testing.T) {
	src := &countingConfigSource{
		cfg: map[string]any{
			"version": "1.1.0",
			"rules": map[string]any{
				"securityDeposit": map[string]any{"maxMonths": 2.0},
			},
		},
	}
	e := New(WithConfigSource(src))

	first, err := e.EffectivePack(context.Background(), "nyc")
	require.NoError(t, err)
	require.True(t, first.MergedFromDB)
	require.Equal(t, "1.1.0", first.Version)
	require.InDelta(t, 2.0, first.Rules.SecurityDeposit.MaxMonths, 0.001)

	// Second resolution hits the cache.
	second, err := e.EffectivePack(context.Background(), "nyc")
	require.NoError(t, err)
	require.Same(t, first, second)
	require.Equal(t, 1, src.calls)

	// Clearing the cache forces a re-fetch.
	e.ClearPackCache()
	_, err = e.EffectivePack(context.Background(), "nyc")
	require.NoError(t, err)
	require.Equal(t, 2, src.calls)
}

func TestEffectivePack_ConfigFailureUsesDefaults(t *testing.T) {
	src := &countingConfigSource{err: errors.New("db down")}
	e := New(WithConfigSource(src))

	pack, err := e.EffectivePack(context.Background(), "nyc")
	require.NoError(t, err)
	require.Equal(t, marketpack.NYCStrict, pack.ID)
	require.False(t, pack.MergedFromDB)
}

func TestEffectivePack_CacheDisabled(t *testing.T) {
	src := &countingConfigSource{}
	e := New(WithConfigSource(src), WithPackCacheDisabled())

	_, err := e.EffectivePack(context.Background(), "nyc")
	require.NoError(t, err)
	_, err = e.EffectivePack(context.Background(), "nyc")
	require.NoError(t, err)
	require.Equal(t, 2, src.calls)
}

func TestIsComplianceFeatureEnabled(t *testing.T) {
	e := New()

	// Pack-backed features.
	require.True(t, e.IsComplianceFeatureEnabled(context.Background(), "fare_act_enforcement", "nyc"))
	require.False(t, e.IsComplianceFeatureEnabled(context.Background(), "fare_act_enforcement", "texas"))
	require.True(t, e.IsComplianceFeatureEnabled(context.Background(), "gdpr_enforcement", "london"))
	require.False(t, e.IsComplianceFeatureEnabled(context.Background(), "gdpr_enforcement", "nyc"))

	// Unknown feature names default to enabled.
	require.True(t, e.IsComplianceFeatureEnabled(context.Background(), "everything_else", "nyc"))
}

func TestIsComplianceFeatureEnabled_FlagShortCircuits(t *testing.T) {
	resolver := flags.NewStaticResolver(map[string]bool{
		flags.Key("fare_act_enforcement", "nyc"): false,
	})
	e := New(WithFlagResolver(resolver))

	require.False(t, e.IsComplianceFeatureEnabled(context.Background(), "fare_act_enforcement", "nyc"))
	// Other markets unaffected.
	require.True(t, e.IsComplianceFeatureEnabled(context.Background(), "fare_act_enforcement", "brooklyn"))
}

type capturingSinks struct {
	mu       sync.Mutex
	audits   []*contracts.AuditEntry
	checks   []*contracts.ComplianceCheckEntry
	auditErr error
}

func (s *capturingSinks) CreateAuditLog(_ context.Context, e *contracts.AuditEntry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.auditErr != nil {
		return "", s.auditErr
	}
	s.audits = append(s.audits, e)
	return "audit-1", nil
}

func (s *capturingSinks) CreateComplianceCheck(_ context.Context, e *contracts.ComplianceCheckEntry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks = append(s.checks, e)
	return "check-1", nil
}

func blockedResult() *contracts.GateResult {
	decision := &contracts.ComplianceDecision{
		Passed: false,
		Violations: []contracts.Violation{{
			Code:     contracts.ViolationFAREBrokerFeeProhibited,
			Severity: contracts.SeverityCritical,
			Message:  "FARE Act prohibits charging the tenant a broker fee",
			Evidence: map[string]any{"brokerFeePaidBy": "tenant"},
		}},
		PolicyVersion:     "1.0.0",
		MarketPack:        "NYC_STRICT",
		MarketPackVersion: "1.0.0",
		ChecksPerformed:   []contracts.CheckToken{contracts.CheckFAREAct},
	}
	return &contracts.GateResult{Allowed: false, Decision: decision, BlockedReason: decision.BlockedReason()}
}

func TestRecordGateResultSync(t *testing.T) {
	sinks := &capturingSinks{}
	e := New(WithAuditSink(sinks), WithComplianceCheckSink(sinks))

	auditID, checkID := e.RecordGateResultSync(context.Background(), RecordInput{
		Gate:       "listing_publish",
		EntityType: "listing",
		EntityID:   "lst-1",
		MarketID:   "nyc",
		Result:     blockedResult(),
	})
	require.Equal(t, "audit-1", auditID)
	require.Equal(t, "check-1", checkID)

	require.Len(t, sinks.audits, 1)
	entry := sinks.audits[0]
	require.Equal(t, "compliance_gate_blocked", entry.Action)
	require.Equal(t, "CC7.3", entry.Metadata["controlId"])
	require.Equal(t, 1, entry.Metadata["violationCount"])
	require.NotEmpty(t, entry.Metadata["decisionHash"])
	// Raw evidence never enters the audit record.
	require.NotContains(t, entry.Metadata, "evidence")

	require.Len(t, sinks.checks, 1)
	check := sinks.checks[0]
	require.Equal(t, contracts.CheckStatusFailed, check.Status)
	require.Equal(t, contracts.SeverityCritical, check.Severity)
}

func TestRecordGateResult_AsyncAndBestEffort(t *testing.T) {
	sinks := &capturingSinks{auditErr: errors.New("sink down")}
	e := New(WithAuditSink(sinks), WithComplianceCheckSink(sinks))

	// A failing audit sink must not panic or propagate.
	e.RecordGateResult(context.Background(), RecordInput{
		Gate:       "listing_publish",
		EntityType: "listing",
		EntityID:   "lst-2",
		MarketID:   "nyc",
		Result:     blockedResult(),
	})
	e.Wait()

	// The compliance-check sink still received its record.
	require.Len(t, sinks.checks, 1)
}

func TestRecordGateResult_AuditDisabled(t *testing.T) {
	sinks := &capturingSinks{}
	e := New(WithAuditSink(sinks), WithAuditDisabled())

	auditID, _ := e.RecordGateResultSync(context.Background(), RecordInput{
		Gate:   "listing_publish",
		Result: blockedResult(),
	})
	require.Empty(t, auditID)
	require.Empty(t, sinks.audits)
}

func TestRecordGateResult_RateLimited(t *testing.T) {
	sinks := &capturingSinks{}
	e := New(WithAuditSink(sinks), WithAuditRateLimit(0, 1))

	// Burst of 1: first record lands, second is dropped.
	e.RecordGateResultSync(context.Background(), RecordInput{Gate: "g", Result: blockedResult()})
	e.RecordGateResultSync(context.Background(), RecordInput{Gate: "g", Result: blockedResult()})
	require.Len(t, sinks.audits, 1)
}
