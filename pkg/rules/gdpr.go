package rules

import (
	"fmt"
	"time"

	"github.com/fairhaven-labs/rentos/compliance/pkg/contracts"
	"github.com/fairhaven-labs/rentos/compliance/pkg/marketpack"
)

// SubjectRequest is an open data-subject rights request.
type SubjectRequest struct {
	RequestID  string     `json:"requestId"`
	ReceivedAt time.Time  `json:"receivedAt"`
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`
}

// GDPRInput describes a personal-data processing operation.
type GDPRInput struct {
	ConsentObtained bool             `json:"consentObtained"`
	LawfulBasis     string           `json:"lawfulBasis,omitempty"`
	DataCollectedAt time.Time        `json:"dataCollectedAt,omitempty"`
	SubjectRequests []SubjectRequest `json:"subjectRequests,omitempty"`
	FieldsPresent   []string         `json:"fieldsPresent,omitempty"`
	RedactedFields  []string         `json:"redactedFields,omitempty"`
	Now             time.Time        `json:"-"` // zero = time.Now, injectable for tests
}

// EvaluateGDPR applies consent, lawful-basis, retention, subject-request, and
// redaction rules in GDPR-enabled markets.
func EvaluateGDPR(in GDPRInput, pack *marketpack.MarketPack) Outcome {
	var out Outcome
	rule := pack.Rules.GDPR
	if rule == nil || !rule.Enabled {
		return out
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	if rule.ConsentRequired && !in.ConsentObtained {
		out.violation(contracts.Violation{
			Code:          contracts.ViolationGDPRConsentMissing,
			Severity:      contracts.SeverityCritical,
			Message:       "processing personal data without recorded consent",
			RuleReference: "GDPR Art. 6(1)(a)",
		})
		out.fix(contracts.RecommendedFix{
			Action:      contracts.FixObtainConsent,
			Description: "Collect and record the data subject's consent before processing",
			Priority:    contracts.FixPriorityCritical,
		})
	}

	if in.LawfulBasis == "" {
		out.violation(contracts.Violation{
			Code:          contracts.ViolationGDPRLawfulBasisMissing,
			Severity:      contracts.SeverityCritical,
			Message:       "no lawful basis recorded for this processing operation",
			RuleReference: "GDPR Art. 6",
		})
		out.fix(contracts.RecommendedFix{
			Action:      contracts.FixRecordLawfulBasis,
			Description: "Record the Article 6 lawful basis for this operation",
			Priority:    contracts.FixPriorityCritical,
		})
	}

	if rule.RetentionDays > 0 && !in.DataCollectedAt.IsZero() {
		age := now.Sub(in.DataCollectedAt)
		if age > time.Duration(rule.RetentionDays)*24*time.Hour {
			out.violation(contracts.Violation{
				Code:     contracts.ViolationGDPRDataRetentionExceeded,
				Severity: contracts.SeverityViolation,
				Message: fmt.Sprintf("data held for %d days, beyond the %d-day retention limit",
					int(age.Hours()/24), rule.RetentionDays),
				Evidence: map[string]any{
					"dataCollectedAt": in.DataCollectedAt,
					"retentionDays":   rule.RetentionDays,
				},
			})
			out.fix(contracts.RecommendedFix{
				Action:      contracts.FixPurgeExpiredData,
				Description: "Delete or anonymize data past its retention period",
				Priority:    contracts.FixPriorityHigh,
			})
		}
	}

	if rule.DataSubjectRequestDays > 0 {
		deadline := time.Duration(rule.DataSubjectRequestDays) * 24 * time.Hour
		for _, req := range in.SubjectRequests {
			if req.ResolvedAt != nil {
				continue
			}
			if now.Sub(req.ReceivedAt) > deadline {
				out.violation(contracts.Violation{
					Code:     contracts.ViolationGDPRSubjectRequestOverdue,
					Severity: contracts.SeverityViolation,
					Message: fmt.Sprintf("data subject request %s is past the %d-day response deadline",
						req.RequestID, rule.DataSubjectRequestDays),
					Evidence: map[string]any{
						"requestId":  req.RequestID,
						"receivedAt": req.ReceivedAt,
					},
					RuleReference: "GDPR Art. 12(3)",
				})
				out.fix(contracts.RecommendedFix{
					Action:      contracts.FixResolveSubjectRequest,
					Description: fmt.Sprintf("Respond to request %s immediately", req.RequestID),
					Priority:    contracts.FixPriorityHigh,
				})
			}
		}
	}

	if len(rule.SensitiveFields) > 0 {
		redacted := toSet(in.RedactedFields)
		sensitive := toSet(rule.SensitiveFields)
		for _, field := range in.FieldsPresent {
			if sensitive[field] && !redacted[field] {
				out.violation(contracts.Violation{
					Code:     contracts.ViolationGDPRRedactionRequired,
					Severity: contracts.SeverityCritical,
					Message:  fmt.Sprintf("sensitive field %q is present unredacted", field),
					Evidence: map[string]any{"field": field},
				})
				out.fix(contracts.RecommendedFix{
					Action:      contracts.FixRedactSensitiveFields,
					Description: fmt.Sprintf("Redact or tokenize the %q field before this operation", field),
					Priority:    contracts.FixPriorityCritical,
				})
			}
		}
	}

	return out
}
