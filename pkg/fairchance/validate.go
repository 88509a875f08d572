package fairchance

import (
	"fmt"
	"time"

	"github.com/fairhaven-labs/rentos/compliance/pkg/contracts"
	"github.com/fairhaven-labs/rentos/compliance/pkg/marketpack"
)

// ConditionalOfferDetails describes the written offer of a specific unit.
type ConditionalOfferDetails struct {
	UnitID          string         `json:"unitId"`
	LetterDelivered bool           `json:"letterDelivered"`
	DeliveryMethod  DeliveryMethod `json:"deliveryMethod,omitempty"`
	RecipientID     string         `json:"recipientId,omitempty"`
}

// BackgroundCheckAuthorization is the applicant's signed authorization.
type BackgroundCheckAuthorization struct {
	AuthorizationSigned bool       `json:"authorizationSigned"`
	SignedAt            *time.Time `json:"signedAt,omitempty"`
	Provider            string     `json:"provider,omitempty"`
}

// AdverseActionNotice is the pre-assessment notice of adverse information.
type AdverseActionNotice struct {
	Delivered      bool           `json:"delivered"`
	DeliveryMethod DeliveryMethod `json:"deliveryMethod,omitempty"`
	RecipientID    string         `json:"recipientId,omitempty"`
}

// FinalDecisionDetails carries the outcome and its written rationale.
type FinalDecisionDetails struct {
	Result    string `json:"result"` // approved | denied
	Rationale string `json:"rationale"`
}

// TransitionRequest asks the state machine to move an application between
// workflow states.
type TransitionRequest struct {
	ApplicationID string          `json:"applicationId"`
	FromState     State           `json:"fromState"`
	ToState       State           `json:"toState"`
	ActorID       string          `json:"actorId"`
	ActorKind     ActorKind       `json:"actorKind"`
	Timestamp     time.Time       `json:"timestamp,omitempty"` // zero = now
	Record        *WorkflowRecord `json:"record,omitempty"`    // existing record, if any

	PrequalificationResults      *PrequalificationResults      `json:"prequalificationResults,omitempty"`
	ConditionalOffer             *ConditionalOfferDetails      `json:"conditionalOffer,omitempty"`
	BackgroundCheckAuthorization *BackgroundCheckAuthorization `json:"backgroundCheckAuthorization,omitempty"`
	AdverseInfoFound             bool                          `json:"adverseInfoFound,omitempty"`
	AdverseActionNotice          *AdverseActionNotice          `json:"adverseActionNotice,omitempty"`
	Article23AFactorsConsidered  []string                      `json:"article23aFactorsConsidered,omitempty"`
	FinalDecision                *FinalDecisionDetails         `json:"finalDecision,omitempty"`
}

// TransitionResult is the state machine's verdict on one transition.
// Evidence and Record are populated only when Allowed.
type TransitionResult struct {
	Allowed    bool
	Violations []contracts.Violation
	Fixes      []contracts.RecommendedFix
	Evidence   *TransitionEvidence
	Record     *WorkflowRecord
}

// defaultMitigatingFactorsResponseDays applies when the pack does not set
// the workflow knob.
const defaultMitigatingFactorsResponseDays = 10

// ValidateTransition checks a requested transition against the closed table
// and the per-target preconditions. When the pack's FCHA rule is disabled the
// transition is always allowed with neither violations nor evidence.
func ValidateTransition(req *TransitionRequest, pack *marketpack.MarketPack) *TransitionResult {
	res := &TransitionResult{Allowed: true}

	rule := pack.Rules.FCHA
	if rule == nil || !rule.Enabled {
		return res
	}

	if !IsValidTransition(req.FromState, req.ToState) {
		valid := ValidNextStates(req.FromState)
		validStrs := make([]string, len(valid))
		for i, s := range valid {
			validStrs[i] = string(s)
		}
		res.Violations = append(res.Violations, contracts.Violation{
			Code:     contracts.ViolationFCHAInvalidStateTransition,
			Severity: contracts.SeverityCritical,
			Message: fmt.Sprintf("transition %s → %s is not permitted by the Fair Chance workflow",
				req.FromState, req.ToState),
			Evidence: map[string]any{
				"fromState":       string(req.FromState),
				"toState":         string(req.ToState),
				"validNextStates": validStrs,
			},
			RuleReference: "NYC Fair Chance Housing Act",
		})
		res.Allowed = false
		return res
	}

	res.Violations = append(res.Violations, targetPreconditions(req)...)
	res.Fixes = append(res.Fixes, fixesFor(res.Violations)...)

	if contracts.HasCritical(res.Violations) {
		res.Allowed = false
		return res
	}

	ts := req.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	res.Evidence = buildEvidence(req, rule, ts)
	res.Record = advanceRecord(req, res.Evidence, ts)
	return res
}

// targetPreconditions enforces the per-target requirements of the workflow.
func targetPreconditions(req *TransitionRequest) []contracts.Violation {
	var violations []contracts.Violation

	critical := func(code contracts.ViolationCode, msg string, evidence map[string]any) {
		violations = append(violations, contracts.Violation{
			Code:     code,
			Severity: contracts.SeverityCritical,
			Message:  msg,
			Evidence: evidence,
		})
	}

	switch req.ToState {
	case StateConditionalOffer:
		if !req.PrequalificationResults.Complete() {
			critical(contracts.ViolationFCHAPrequalificationIncomplete,
				"all four prequalification screens (income, credit, rental history, employment) must pass before a conditional offer",
				map[string]any{"prequalificationResults": req.PrequalificationResults})
		}
		if req.ConditionalOffer == nil || !req.ConditionalOffer.LetterDelivered {
			critical(contracts.ViolationFCHANoticeNotIssued,
				"the written conditional offer letter has not been delivered to the applicant",
				nil)
		}

	case StateBackgroundCheckAllowed:
		if req.BackgroundCheckAuthorization == nil || !req.BackgroundCheckAuthorization.AuthorizationSigned {
			critical(contracts.ViolationFCHANoticeNotIssued,
				"the applicant has not signed the background check authorization",
				nil)
		}

	case StateIndividualizedAssessment:
		if req.AdverseInfoFound && (req.AdverseActionNotice == nil || !req.AdverseActionNotice.Delivered) {
			critical(contracts.ViolationFCHANoticeNotIssued,
				"adverse information was found but the adverse action notice has not been delivered",
				nil)
		}
	}

	if req.ToState == StateDenied && req.FromState == StateIndividualizedAssessment &&
		len(req.Article23AFactorsConsidered) == 0 {
		critical(contracts.ViolationFCHAAssessmentRequired,
			"denial after an individualized assessment requires documented Article 23-A factors",
			nil)
	}

	if req.ToState == StateApproved || req.ToState == StateDenied {
		if req.FinalDecision == nil || req.FinalDecision.Rationale == "" {
			critical(contracts.ViolationFCHADecisionRationaleMissing,
				"a final decision requires a written rationale",
				nil)
		}
	}

	return violations
}

// fixesFor maps precondition violations to their remediations.
func fixesFor(violations []contracts.Violation) []contracts.RecommendedFix {
	var fixes []contracts.RecommendedFix
	for _, v := range violations {
		switch v.Code {
		case contracts.ViolationFCHAPrequalificationIncomplete:
			fixes = append(fixes, contracts.RecommendedFix{
				Action:      contracts.FixCompletePrequalification,
				Description: "Complete income, credit, rental history, and employment verification",
				Priority:    contracts.FixPriorityCritical,
			})
		case contracts.ViolationFCHANoticeNotIssued:
			fixes = append(fixes, contracts.RecommendedFix{
				Action:      contracts.FixIssueNotice,
				Description: "Deliver the required written notice before retrying the transition",
				Priority:    contracts.FixPriorityCritical,
			})
		case contracts.ViolationFCHAAssessmentRequired:
			fixes = append(fixes, contracts.RecommendedFix{
				Action:      contracts.FixDocumentAssessment,
				Description: "Document the Article 23-A factors considered in the individualized assessment",
				Priority:    contracts.FixPriorityCritical,
			})
		case contracts.ViolationFCHADecisionRationaleMissing:
			fixes = append(fixes, contracts.RecommendedFix{
				Action:      contracts.FixRecordDecisionRationale,
				Description: "Record the written rationale for the final decision",
				Priority:    contracts.FixPriorityCritical,
			})
		}
	}
	return fixes
}

// buildEvidence assembles the transition evidence for an allowed transition.
func buildEvidence(req *TransitionRequest, rule *marketpack.FCHARule, ts time.Time) *TransitionEvidence {
	ev := &TransitionEvidence{
		ApplicationID:           req.ApplicationID,
		TransitionID:            TransitionID(req.ApplicationID, ts),
		FromState:               req.FromState,
		ToState:                 req.ToState,
		Timestamp:               ts,
		ActorID:                 req.ActorID,
		ActorKind:               req.ActorKind,
		PrequalificationResults: req.PrequalificationResults,
	}

	switch req.ToState {
	case StateConditionalOffer:
		ev.NoticesIssued = append(ev.NoticesIssued, Notice{
			Type:           "conditional_offer_letter",
			IssuedAt:       ts,
			DeliveryMethod: req.ConditionalOffer.DeliveryMethod,
			RecipientID:    req.ConditionalOffer.RecipientID,
		})

	case StateBackgroundCheckAllowed:
		ev.BackgroundCheck = &BackgroundCheckEvidence{
			AuthorizationSigned: true,
			SignedAt:            req.BackgroundCheckAuthorization.SignedAt,
			Provider:            req.BackgroundCheckAuthorization.Provider,
		}

	case StateIndividualizedAssessment:
		days := defaultMitigatingFactorsResponseDays
		if rule.Workflow != nil && rule.Workflow.MitigatingFactorsResponseDays > 0 {
			days = rule.Workflow.MitigatingFactorsResponseDays
		}
		ev.ResponseWindow = &ResponseWindow{
			OpensAt:     ts,
			ClosesAt:    ts.Add(time.Duration(days) * 24 * time.Hour),
			DaysAllowed: days,
			Purpose:     "mitigating_factors_response",
		}
		if req.AdverseInfoFound {
			notice := Notice{
				Type:        "adverse_action_notice",
				IssuedAt:    ts,
				RecipientID: req.AdverseActionNotice.RecipientID,
			}
			notice.DeliveryMethod = req.AdverseActionNotice.DeliveryMethod
			ev.NoticesIssued = append(ev.NoticesIssued, notice)
		}
		ev.IndividualizedAssessment = &AssessmentEvidence{
			AdverseInfoFound:            req.AdverseInfoFound,
			Article23AFactorsConsidered: req.Article23AFactorsConsidered,
		}

	case StateApproved, StateDenied:
		if req.FromState == StateIndividualizedAssessment {
			ev.IndividualizedAssessment = &AssessmentEvidence{
				AdverseInfoFound:            req.AdverseInfoFound,
				Article23AFactorsConsidered: req.Article23AFactorsConsidered,
			}
		}
	}

	return ev
}

// advanceRecord produces the workflow record reflecting the new state.
// The incoming record, if any, is copied, never mutated.
func advanceRecord(req *TransitionRequest, ev *TransitionEvidence, ts time.Time) *WorkflowRecord {
	rec := &WorkflowRecord{
		ApplicationID: req.ApplicationID,
		CurrentState:  req.ToState,
	}

	if req.Record != nil {
		prior := *req.Record
		rec.ConditionalOfferIssuedAt = prior.ConditionalOfferIssuedAt
		rec.ConditionalOfferUnitID = prior.ConditionalOfferUnitID
		rec.BackgroundCheckAllowedAt = prior.BackgroundCheckAllowedAt
		rec.IndividualizedAssessmentStartedAt = prior.IndividualizedAssessmentStartedAt
		rec.StateHistory = make([]StateEntry, len(prior.StateHistory))
		copy(rec.StateHistory, prior.StateHistory)
	}

	if len(rec.StateHistory) == 0 {
		rec.StateHistory = []StateEntry{{State: req.FromState, EnteredAt: ts}}
	}
	exited := ts
	rec.StateHistory[len(rec.StateHistory)-1].ExitedAt = &exited
	rec.StateHistory = append(rec.StateHistory, StateEntry{
		State:        req.ToState,
		EnteredAt:    ts,
		TransitionID: ev.TransitionID,
	})

	switch req.ToState {
	case StateConditionalOffer:
		rec.ConditionalOfferIssuedAt = &ts
		rec.ConditionalOfferUnitID = req.ConditionalOffer.UnitID
	case StateBackgroundCheckAllowed:
		rec.BackgroundCheckAllowedAt = &ts
	case StateIndividualizedAssessment:
		rec.IndividualizedAssessmentStartedAt = &ts
		rec.ActiveResponseWindow = ev.ResponseWindow
	case StateApproved, StateDenied:
		rec.FinalDecisionAt = &ts
		rec.FinalDecisionResult = req.FinalDecision.Result
		rec.ActiveResponseWindow = nil
	}

	return rec
}

// BackgroundCheckRequest asks whether a screening check may run now.
type BackgroundCheckRequest struct {
	ApplicationID string `json:"applicationId"`
	CheckType     string `json:"checkType"`
	CurrentState  State  `json:"currentState"`
	ActorID       string `json:"actorId,omitempty"`
}

// BackgroundCheckResult is the verdict on a screening request.
type BackgroundCheckResult struct {
	Allowed    bool
	Violations []contracts.Violation
	Fixes      []contracts.RecommendedFix
}

// remediationSteps is the ordered path from prequalification to a lawful
// criminal check.
var remediationSteps = []string{
	"complete_prequalification",
	"issue_written_conditional_offer",
	"obtain_signed_background_check_authorization",
	"run_criminal_background_check",
}

// ValidateBackgroundCheck enforces the core Fair Chance guarantee: criminal
// inquiries only after a written conditional offer. Prequalification checks
// always pass; unknown check types pass with a warning.
func ValidateBackgroundCheck(req *BackgroundCheckRequest, pack *marketpack.MarketPack) *BackgroundCheckResult {
	res := &BackgroundCheckResult{Allowed: true}

	rule := pack.Rules.FCHA
	if rule == nil || !rule.Enabled {
		return res
	}

	switch {
	case IsPrequalificationCheck(req.CheckType):
		return res

	case IsCriminalCheck(req.CheckType):
		if CriminalCheckPermitted(req.CurrentState) {
			return res
		}
		res.Allowed = false
		res.Violations = append(res.Violations, contracts.Violation{
			Code:     contracts.ViolationFCHABackgroundCheckNotAllowed,
			Severity: contracts.SeverityCritical,
			Message: fmt.Sprintf("criminal background check %q is not permitted in state %s",
				req.CheckType, req.CurrentState),
			Evidence: map[string]any{
				"checkType":    req.CheckType,
				"currentState": string(req.CurrentState),
			},
			RuleReference: "NYC Fair Chance Housing Act",
		})
		if req.CurrentState == StatePrequalification {
			res.Violations = append(res.Violations, contracts.Violation{
				Code:     contracts.ViolationFCHACriminalCheckBeforeOffer,
				Severity: contracts.SeverityCritical,
				Message:  "a criminal inquiry was attempted before any written conditional offer",
				Evidence: map[string]any{"currentState": string(req.CurrentState)},
			})
		}
		res.Violations = append(res.Violations, contracts.Violation{
			Code:     contracts.ViolationFCHAConditionalOfferRequired,
			Severity: contracts.SeverityViolation,
			Message:  "issue a written conditional offer before running criminal background checks",
			Evidence: map[string]any{"remediationSteps": remediationSteps},
		})
		res.Fixes = append(res.Fixes, contracts.RecommendedFix{
			Action:      contracts.FixIssueConditionalOffer,
			Description: "Issue a written conditional offer for a specific unit, then obtain signed authorization",
			Priority:    contracts.FixPriorityCritical,
		})
		return res

	default:
		res.Violations = append(res.Violations, contracts.Violation{
			Code:     contracts.ViolationFCHAUnknownCheckType,
			Severity: contracts.SeverityWarning,
			Message:  fmt.Sprintf("check type %q is not classified; allowing with a warning", req.CheckType),
			Evidence: map[string]any{"checkType": req.CheckType},
		})
		return res
	}
}
