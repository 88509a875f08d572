package gate

import (
	"context"
	"time"

	"github.com/fairhaven-labs/rentos/compliance/pkg/contracts"
	"github.com/fairhaven-labs/rentos/compliance/pkg/rules"
)

// GDPRDataOperationInput describes a personal-data processing operation in a
// GDPR-enabled market.
type GDPRDataOperationInput struct {
	Market     string `json:"market"`
	EntityType string `json:"entityType,omitempty"`
	EntityID   string `json:"entityId"`
	Operation  string `json:"operation"` // collect | store | share | export | delete

	ConsentObtained bool                   `json:"consentObtained,omitempty"`
	LawfulBasis     string                 `json:"lawfulBasis,omitempty"`
	DataCollectedAt time.Time              `json:"dataCollectedAt,omitempty"`
	SubjectRequests []rules.SubjectRequest `json:"subjectRequests,omitempty"`
	FieldsPresent   []string               `json:"fieldsPresent,omitempty"`
	RedactedFields  []string               `json:"redactedFields,omitempty"`
}

// GDPRDataOperation gates personal-data processing: consent, lawful basis,
// retention, subject-request deadlines, and sensitive-field redaction.
// In non-GDPR markets the gate allows with no checks.
func (g *Gates) GDPRDataOperation(ctx context.Context, in *GDPRDataOperationInput) (*contracts.GateResult, error) {
	started := time.Now()
	if err := validateInput("gdpr_data_operation", in); err != nil {
		return nil, err
	}

	pack, err := g.engine.EffectivePack(ctx, in.Market)
	if err != nil {
		return nil, err
	}

	var out rules.Outcome
	var checks []contracts.CheckToken

	if g.engine.IsComplianceFeatureEnabled(ctx, "gdpr_enforcement", in.Market) {
		out = rules.EvaluateGDPR(rules.GDPRInput{
			ConsentObtained: in.ConsentObtained,
			LawfulBasis:     in.LawfulBasis,
			DataCollectedAt: in.DataCollectedAt,
			SubjectRequests: in.SubjectRequests,
			FieldsPresent:   in.FieldsPresent,
			RedactedFields:  in.RedactedFields,
		}, pack)
		checks = append(checks,
			contracts.CheckGDPRConsent,
			contracts.CheckGDPRRetention,
			contracts.CheckGDPRSubjectRight,
		)
	}

	entityType := in.EntityType
	if entityType == "" {
		entityType = "data_subject"
	}
	decision := g.decision(pack, out, checks, map[string]any{
		"entityId":  in.EntityID,
		"operation": in.Operation,
	})
	return g.finish(ctx, "gdpr_data_operation", entityType, in.EntityID, in.Market, started, decision), nil
}
