package gate

import (
	"context"
	"fmt"
	"time"

	"github.com/fairhaven-labs/rentos/compliance/pkg/contracts"
	"github.com/fairhaven-labs/rentos/compliance/pkg/fairchance"
	"github.com/fairhaven-labs/rentos/compliance/pkg/rules"
)

// StageTransitionInput asks only whether a from → to move is in the closed
// transition table; the coarse gate checks no preconditions.
type StageTransitionInput struct {
	Market        string           `json:"market"`
	ApplicationID string           `json:"applicationId"`
	FromState     fairchance.State `json:"fromState"`
	ToState       fairchance.State `json:"toState"`
}

// FCHAStageTransition is the coarse-grained transition gate: table membership
// only. Use FCHAWorkflowTransition for the full state machine with evidence.
func (g *Gates) FCHAStageTransition(ctx context.Context, in *StageTransitionInput) (*contracts.GateResult, error) {
	started := time.Now()
	if err := validateInput("fcha_transition", in); err != nil {
		return nil, err
	}

	pack, err := g.engine.EffectivePack(ctx, in.Market)
	if err != nil {
		return nil, err
	}

	var out rules.Outcome
	fchaEnabled := pack.Rules.FCHA != nil && pack.Rules.FCHA.Enabled
	if fchaEnabled && !fairchance.IsValidTransition(in.FromState, in.ToState) {
		valid := fairchance.ValidNextStates(in.FromState)
		validStrs := make([]string, len(valid))
		for i, s := range valid {
			validStrs[i] = string(s)
		}
		out.Violations = append(out.Violations, contracts.Violation{
			Code:     contracts.ViolationFCHAInvalidStateTransition,
			Severity: contracts.SeverityCritical,
			Message: fmt.Sprintf("transition %s → %s is not permitted by the Fair Chance workflow",
				in.FromState, in.ToState),
			Evidence: map[string]any{
				"fromState":       string(in.FromState),
				"toState":         string(in.ToState),
				"validNextStates": validStrs,
			},
			RuleReference: "NYC Fair Chance Housing Act",
		})
	}

	decision := g.decision(pack, out, []contracts.CheckToken{contracts.CheckFCHAWorkflow}, map[string]any{
		"applicationId": in.ApplicationID,
		"fromState":     string(in.FromState),
		"toState":       string(in.ToState),
	})
	return g.finish(ctx, "fcha_stage_transition", "application", in.ApplicationID, in.Market, started, decision), nil
}

// WorkflowTransitionInput is the full state-machine gate input.
type WorkflowTransitionInput struct {
	Market string `json:"market"`
	fairchance.TransitionRequest
}

// WorkflowGateResult extends the gate result with the transition evidence
// and the advanced workflow record of an allowed transition.
type WorkflowGateResult struct {
	*contracts.GateResult
	Evidence *fairchance.TransitionEvidence `json:"evidence,omitempty"`
	Record   *fairchance.WorkflowRecord     `json:"record,omitempty"`
}

// FCHAWorkflowTransition runs the full Fair Chance state machine: table
// membership, per-target preconditions, and on success a tamper-evident
// evidence record plus the updated workflow record.
func (g *Gates) FCHAWorkflowTransition(ctx context.Context, in *WorkflowTransitionInput) (*WorkflowGateResult, error) {
	started := time.Now()
	if err := validateInput("fcha_transition", in); err != nil {
		return nil, err
	}

	pack, err := g.engine.EffectivePack(ctx, in.Market)
	if err != nil {
		return nil, err
	}

	res := fairchance.ValidateTransition(&in.TransitionRequest, pack)

	metadata := map[string]any{
		"applicationId": in.ApplicationID,
		"fromState":     string(in.FromState),
		"toState":       string(in.ToState),
	}
	if res.Evidence != nil {
		metadata["transitionId"] = res.Evidence.TransitionID
		if hash, err := res.Evidence.Hash(); err == nil {
			metadata["evidenceHash"] = hash
		}
	}

	out := rules.Outcome{Violations: res.Violations, Fixes: res.Fixes}
	decision := g.decision(pack, out, []contracts.CheckToken{contracts.CheckFCHAWorkflow}, metadata)
	gr := g.finish(ctx, "fcha_workflow_transition", "application", in.ApplicationID, in.Market, started, decision)

	return &WorkflowGateResult{
		GateResult: gr,
		Evidence:   res.Evidence,
		Record:     res.Record,
	}, nil
}

// BackgroundCheckGateInput asks whether a screening check may run now.
type BackgroundCheckGateInput struct {
	Market        string           `json:"market"`
	ApplicationID string           `json:"applicationId"`
	CheckType     string           `json:"checkType"`
	CurrentState  fairchance.State `json:"currentState"`
}

// FCHABackgroundCheck gates any screening request against the workflow
// state: prequalification checks always pass, criminal checks require a
// prior written conditional offer, unknown types warn and pass.
func (g *Gates) FCHABackgroundCheck(ctx context.Context, in *BackgroundCheckGateInput) (*contracts.GateResult, error) {
	return g.backgroundCheckGate(ctx, "fcha_background_check", contracts.CheckFCHAWorkflow, in)
}

// FCHACriminalCheck is the dedicated gate for criminal-history inquiries.
// Semantics match FCHABackgroundCheck; the separate entry point exists so
// criminal checks audit under their own check token.
func (g *Gates) FCHACriminalCheck(ctx context.Context, in *BackgroundCheckGateInput) (*contracts.GateResult, error) {
	return g.backgroundCheckGate(ctx, "fcha_criminal_check", contracts.CheckFCHACriminal, in)
}

func (g *Gates) backgroundCheckGate(ctx context.Context, gateName string, token contracts.CheckToken, in *BackgroundCheckGateInput) (*contracts.GateResult, error) {
	started := time.Now()
	if err := validateInput("fcha_background_check", in); err != nil {
		return nil, err
	}

	pack, err := g.engine.EffectivePack(ctx, in.Market)
	if err != nil {
		return nil, err
	}

	res := fairchance.ValidateBackgroundCheck(&fairchance.BackgroundCheckRequest{
		ApplicationID: in.ApplicationID,
		CheckType:     in.CheckType,
		CurrentState:  in.CurrentState,
	}, pack)

	out := rules.Outcome{Violations: res.Violations, Fixes: res.Fixes}
	decision := g.decision(pack, out, []contracts.CheckToken{token}, map[string]any{
		"applicationId": in.ApplicationID,
		"checkType":     in.CheckType,
		"currentState":  string(in.CurrentState),
	})
	return g.finish(ctx, gateName, "application", in.ApplicationID, in.Market, started, decision), nil
}
