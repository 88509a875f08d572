package contracts

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/gowebpki/jcs"
)

// CheckToken identifies one evaluator invoked during a gate run.
type CheckToken string

const (
	CheckFAREAct          CheckToken = "fare_act"
	CheckBrokerFee        CheckToken = "broker_fee"
	CheckSecurityDeposit  CheckToken = "security_deposit"
	CheckDisclosures      CheckToken = "disclosures"
	CheckGoodCause        CheckToken = "good_cause"
	CheckRentIncrease     CheckToken = "rent_increase"
	CheckRentStabilized   CheckToken = "rent_stabilization"
	CheckFCHAWorkflow     CheckToken = "fcha_workflow"
	CheckFCHACriminal     CheckToken = "fcha_criminal_check"
	CheckGDPRConsent      CheckToken = "gdpr_consent"
	CheckGDPRRetention    CheckToken = "gdpr_retention"
	CheckGDPRSubjectRight CheckToken = "gdpr_subject_rights"
)

// ComplianceDecision is the engine's verdict for one gated action.
//
// Invariant: Passed is true iff no violation has SeverityCritical.
// Violations preserve evaluator order; the gate never reorders or
// deduplicates them.
type ComplianceDecision struct {
	Passed            bool             `json:"passed"`
	Violations        []Violation      `json:"violations"`
	Fixes             []RecommendedFix `json:"fixes"`
	PolicyVersion     string           `json:"policyVersion"`
	MarketPack        string           `json:"marketPack"`
	MarketPackVersion string           `json:"marketPackVersion"`
	CheckedAt         time.Time        `json:"checkedAt"`
	ChecksPerformed   []CheckToken     `json:"checksPerformed"`
	Metadata          map[string]any   `json:"metadata,omitempty"`
}

// BlockedReason joins the messages of critical violations with "; ".
// Empty when the decision passed.
func (d *ComplianceDecision) BlockedReason() string {
	var parts []string
	for _, v := range d.Violations {
		if v.Severity == SeverityCritical {
			parts = append(parts, v.Message)
		}
	}
	return strings.Join(parts, "; ")
}

// Hash returns the SHA-256 of the decision's canonical JSON (RFC 8785).
// Used to bind audit records to the exact decision content.
func (d *ComplianceDecision) Hash() (string, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return "", err
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// GateResult wraps a decision with the gate-level outcome.
// Allowed is always identical to Decision.Passed.
type GateResult struct {
	Allowed           bool                `json:"allowed"`
	Decision          *ComplianceDecision `json:"decision"`
	BlockedReason     string              `json:"blockedReason,omitempty"`
	AuditID           string              `json:"auditId,omitempty"`
	ComplianceCheckID string              `json:"complianceCheckId,omitempty"`
}
