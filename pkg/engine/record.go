package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/fairhaven-labs/rentos/compliance/pkg/contracts"
)

// RecordInput carries everything the sinks need about one gate run.
type RecordInput struct {
	Gate       string
	EntityType string
	EntityID   string
	MarketID   string
	Result     *contracts.GateResult
	RequestID  string
}

// RecordGateResult emits the audit and compliance-check records for a gate
// run in a detached goroutine. Failures are logged, never propagated; the
// caller already holds the decision.
func (e *Engine) RecordGateResult(ctx context.Context, in RecordInput) {
	if !e.auditEnabled {
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		// Detach from the caller's cancellation: the decision has been
		// returned and the records should still land.
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sinkDeadline)
		defer cancel()
		e.record(rctx, in)
	}()
}

// RecordGateResultSync emits the records inline and returns the sink ids for
// callers that must hand the audit id back before responding. Sink failures
// are still swallowed; the returned ids are empty then.
func (e *Engine) RecordGateResultSync(ctx context.Context, in RecordInput) (auditID, checkID string) {
	if !e.auditEnabled {
		return "", ""
	}
	rctx, cancel := context.WithTimeout(ctx, sinkDeadline)
	defer cancel()
	return e.record(rctx, in)
}

func (e *Engine) record(ctx context.Context, in RecordInput) (auditID, checkID string) {
	if e.auditLimiter != nil && !e.auditLimiter.Allow() {
		e.logger.WarnContext(ctx, "audit emission rate limited, dropping record",
			"gate", in.Gate, "entityId", in.EntityID)
		return "", ""
	}

	decision := in.Result.Decision

	if e.auditSink != nil {
		action := "compliance_gate_passed"
		if !in.Result.Allowed {
			action = "compliance_gate_blocked"
		}
		entry := &contracts.AuditEntry{
			ActorEmail: "system@compliance-engine",
			Action:     action,
			EntityType: in.EntityType,
			EntityID:   in.EntityID,
			Metadata:   e.sanitizedMetadata(in),
			RequestID:  in.RequestID,
		}
		id, err := e.auditSink.CreateAuditLog(ctx, entry)
		if err != nil {
			e.logger.WarnContext(ctx, "audit sink failed",
				"gate", in.Gate, "entityId", in.EntityID,
				"error", fmt.Errorf("%w: %v", contracts.ErrSinkUnavailable, err))
		} else {
			auditID = id
		}
	}

	if e.checkSink != nil && len(decision.Violations) > 0 {
		status := contracts.CheckStatusPassed
		if !in.Result.Allowed {
			status = contracts.CheckStatusFailed
		}
		entry := &contracts.ComplianceCheckEntry{
			EntityType:  in.EntityType,
			EntityID:    in.EntityID,
			MarketID:    in.MarketID,
			CheckType:   in.Gate,
			Status:      status,
			Severity:    contracts.WorstSeverity(decision.Violations),
			Title:       fmt.Sprintf("Compliance check: %s", in.Gate),
			Description: describeViolations(decision),
			Details: map[string]any{
				"violationCodes":  violationCodes(decision.Violations),
				"checksPerformed": decision.ChecksPerformed,
				"marketPack":      decision.MarketPack,
				"policyVersion":   decision.PolicyVersion,
			},
			Recommendation: firstFixDescription(decision),
		}
		id, err := e.checkSink.CreateComplianceCheck(ctx, entry)
		if err != nil {
			e.logger.WarnContext(ctx, "compliance check sink failed",
				"gate", in.Gate, "entityId", in.EntityID,
				"error", fmt.Errorf("%w: %v", contracts.ErrSinkUnavailable, err))
		} else {
			checkID = id
		}
	}

	return auditID, checkID
}

// sanitizedMetadata builds the PII-free audit metadata: counts, hashes,
// violation codes, and evidence ids only. Raw inputs never enter the audit
// record.
func (e *Engine) sanitizedMetadata(in RecordInput) map[string]any {
	decision := in.Result.Decision
	md := map[string]any{
		"controlId":         e.controlID,
		"gate":              in.Gate,
		"marketId":          in.MarketID,
		"marketPack":        decision.MarketPack,
		"marketPackVersion": decision.MarketPackVersion,
		"policyVersion":     decision.PolicyVersion,
		"passed":            decision.Passed,
		"violationCount":    len(decision.Violations),
		"fixCount":          len(decision.Fixes),
		"violationCodes":    violationCodes(decision.Violations),
		"checksPerformed":   decision.ChecksPerformed,
		"checkedAt":         decision.CheckedAt.Format(time.RFC3339Nano),
	}
	if hash, err := decision.Hash(); err == nil {
		md["decisionHash"] = hash
	}
	return md
}

func violationCodes(violations []contracts.Violation) []string {
	codes := make([]string, len(violations))
	for i, v := range violations {
		codes[i] = string(v.Code)
	}
	return codes
}

func describeViolations(d *contracts.ComplianceDecision) string {
	if d.Passed {
		return fmt.Sprintf("%d non-blocking finding(s)", len(d.Violations))
	}
	return d.BlockedReason()
}

func firstFixDescription(d *contracts.ComplianceDecision) string {
	if len(d.Fixes) == 0 {
		return ""
	}
	return d.Fixes[0].Description
}
