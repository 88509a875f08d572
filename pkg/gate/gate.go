// Package gate exposes the atomic decision entry points, one per external
// action. Every gate follows the same template: validate the typed input
// against its JSON schema, resolve the effective market pack, run the
// relevant evaluators in declared order, classify the outcome, and hand the
// result to the engine for best-effort audit recording.
package gate

import (
	"context"
	"time"

	"github.com/fairhaven-labs/rentos/compliance/pkg/contracts"
	"github.com/fairhaven-labs/rentos/compliance/pkg/engine"
	"github.com/fairhaven-labs/rentos/compliance/pkg/marketpack"
	"github.com/fairhaven-labs/rentos/compliance/pkg/rules"
)

// Gates is the set of decision entry points bound to one engine.
// Gates are stateless across calls and safe for concurrent use.
type Gates struct {
	engine *engine.Engine
}

// New binds the gates to an engine.
func New(e *engine.Engine) *Gates {
	return &Gates{engine: e}
}

// decision assembles the ComplianceDecision for one gate run. Violations
// keep evaluator order; passed is true iff no critical violation.
func (g *Gates) decision(pack *marketpack.MarketPack, out rules.Outcome, checks []contracts.CheckToken, metadata map[string]any) *contracts.ComplianceDecision {
	return &contracts.ComplianceDecision{
		Passed:            !contracts.HasCritical(out.Violations),
		Violations:        out.Violations,
		Fixes:             out.Fixes,
		PolicyVersion:     g.engine.PolicyVersion(),
		MarketPack:        string(pack.ID),
		MarketPackVersion: pack.Version,
		CheckedAt:         time.Now().UTC(),
		ChecksPerformed:   checks,
		Metadata:          metadata,
	}
}

// finish wraps the decision in a GateResult, records it through the engine,
// and emits the decision metric.
func (g *Gates) finish(ctx context.Context, gateName, entityType, entityID, marketID string, started time.Time, decision *contracts.ComplianceDecision) *contracts.GateResult {
	result := &contracts.GateResult{
		Allowed:  decision.Passed,
		Decision: decision,
	}
	if !decision.Passed {
		result.BlockedReason = decision.BlockedReason()
	}

	g.engine.Observability().RecordDecision(ctx, gateName, result.Allowed, time.Since(started))
	g.engine.RecordGateResult(ctx, engine.RecordInput{
		Gate:       gateName,
		EntityType: entityType,
		EntityID:   entityID,
		MarketID:   marketID,
		Result:     result,
	})
	return result
}
