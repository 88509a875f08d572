package gate

import (
	"context"
	"time"

	"github.com/fairhaven-labs/rentos/compliance/pkg/contracts"
	"github.com/fairhaven-labs/rentos/compliance/pkg/marketpack"
	"github.com/fairhaven-labs/rentos/compliance/pkg/rules"
)

// DisclosureRequirementInput evaluates disclosure status for one lifecycle
// phase of an entity.
type DisclosureRequirementInput struct {
	Market                  string           `json:"market"`
	EntityType              string           `json:"entityType,omitempty"`
	EntityID                string           `json:"entityId"`
	Phase                   marketpack.Phase `json:"phase"`
	DeliveredDisclosures    []string         `json:"deliveredDisclosures,omitempty"`
	AcknowledgedDisclosures []string         `json:"acknowledgedDisclosures,omitempty"`
}

// DisclosureRequirement gates an action on its phase's disclosure
// obligations.
func (g *Gates) DisclosureRequirement(ctx context.Context, in *DisclosureRequirementInput) (*contracts.GateResult, error) {
	started := time.Now()
	if err := validateInput("disclosure_requirement", in); err != nil {
		return nil, err
	}

	pack, err := g.engine.EffectivePack(ctx, in.Market)
	if err != nil {
		return nil, err
	}

	out := rules.EvaluateDisclosures(rules.DisclosureInput{
		Phase:                   in.Phase,
		DeliveredDisclosures:    in.DeliveredDisclosures,
		AcknowledgedDisclosures: in.AcknowledgedDisclosures,
	}, pack)

	entityType := in.EntityType
	if entityType == "" {
		entityType = "listing"
	}
	decision := g.decision(pack, out, []contracts.CheckToken{contracts.CheckDisclosures}, map[string]any{
		"entityId": in.EntityID,
		"phase":    string(in.Phase),
	})
	return g.finish(ctx, "disclosure_requirement", entityType, in.EntityID, in.Market, started, decision), nil
}

// LeaseCreationInput describes a lease about to be signed.
type LeaseCreationInput struct {
	Market  string `json:"market"`
	LeaseID string `json:"leaseId"`

	MonthlyRent                  float64             `json:"monthlyRent"`
	SecurityDepositAmount        float64             `json:"securityDepositAmount,omitempty"`
	DepositHeldInSeparateAccount bool                `json:"depositHeldInSeparateAccount,omitempty"`
	BrokerFeeAmount              float64             `json:"brokerFeeAmount,omitempty"`
	BrokerFeePaidBy              marketpack.FeePayer `json:"brokerFeePaidBy,omitempty"`

	DeliveredDisclosures    []string `json:"deliveredDisclosures,omitempty"`
	AcknowledgedDisclosures []string `json:"acknowledgedDisclosures,omitempty"`

	RentStabilized   bool    `json:"rentStabilized,omitempty"`
	LegalRent        float64 `json:"legalRent,omitempty"`
	PreferentialRent float64 `json:"preferentialRent,omitempty"`
	RGBRegistered    bool    `json:"rgbRegistered,omitempty"`
}

// LeaseCreation gates lease signing: broker fee, deposit, signing-phase
// disclosures, and rent stabilization for stabilized units.
func (g *Gates) LeaseCreation(ctx context.Context, in *LeaseCreationInput) (*contracts.GateResult, error) {
	started := time.Now()
	if err := validateInput("lease_creation", in); err != nil {
		return nil, err
	}

	pack, err := g.engine.EffectivePack(ctx, in.Market)
	if err != nil {
		return nil, err
	}

	var out rules.Outcome
	var checks []contracts.CheckToken

	if in.BrokerFeeAmount > 0 {
		out.Merge(rules.EvaluateBrokerFee(rules.BrokerFeeInput{
			MonthlyRent: in.MonthlyRent,
			Amount:      in.BrokerFeeAmount,
			PaidBy:      in.BrokerFeePaidBy,
		}, pack))
		checks = append(checks, contracts.CheckBrokerFee)
	}

	out.Merge(rules.EvaluateSecurityDeposit(rules.SecurityDepositInput{
		MonthlyRent:           in.MonthlyRent,
		Amount:                in.SecurityDepositAmount,
		HeldInSeparateAccount: in.DepositHeldInSeparateAccount,
	}, pack))
	checks = append(checks, contracts.CheckSecurityDeposit)

	out.Merge(rules.EvaluateDisclosures(rules.DisclosureInput{
		Phase:                   marketpack.PhaseLeaseSigning,
		DeliveredDisclosures:    in.DeliveredDisclosures,
		AcknowledgedDisclosures: in.AcknowledgedDisclosures,
	}, pack))
	checks = append(checks, contracts.CheckDisclosures)

	if in.RentStabilized {
		out.Merge(rules.EvaluateRentStabilization(rules.RentStabilizationInput{
			RentStabilized:   true,
			LegalRent:        in.LegalRent,
			PreferentialRent: in.PreferentialRent,
			RGBRegistered:    in.RGBRegistered,
		}, pack))
		checks = append(checks, contracts.CheckRentStabilized)
	}

	decision := g.decision(pack, out, checks, map[string]any{"leaseId": in.LeaseID})
	return g.finish(ctx, "lease_creation", "lease", in.LeaseID, in.Market, started, decision), nil
}
