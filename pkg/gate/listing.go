package gate

import (
	"context"
	"time"

	"github.com/fairhaven-labs/rentos/compliance/pkg/contracts"
	"github.com/fairhaven-labs/rentos/compliance/pkg/marketpack"
	"github.com/fairhaven-labs/rentos/compliance/pkg/rules"
)

// ListingInput describes a listing for the publish and update gates.
// Amounts share the unit of MonthlyRent.
type ListingInput struct {
	Market    string `json:"market"`
	ListingID string `json:"listingId"`

	MonthlyRent     float64             `json:"monthlyRent"`
	HasBrokerFee    bool                `json:"hasBrokerFee"`
	BrokerFeePaidBy marketpack.FeePayer `json:"brokerFeePaidBy,omitempty"`
	BrokerFeeAmount float64             `json:"brokerFeeAmount,omitempty"`

	SecurityDepositAmount        float64 `json:"securityDepositAmount,omitempty"`
	DepositHeldInSeparateAccount bool    `json:"depositHeldInSeparateAccount,omitempty"`

	IncomeMultiplierRequired float64           `json:"incomeMultiplierRequired,omitempty"`
	MinCreditScore           int               `json:"minCreditScore,omitempty"`
	TenantPaidFees           []rules.TenantFee `json:"tenantPaidFees,omitempty"`

	DeliveredDisclosures    []string `json:"deliveredDisclosures,omitempty"`
	AcknowledgedDisclosures []string `json:"acknowledgedDisclosures,omitempty"`
}

// ListingPublish is the gate for publishing a listing: FARE Act, broker fee,
// security deposit, and listing-phase disclosures.
func (g *Gates) ListingPublish(ctx context.Context, in *ListingInput) (*contracts.GateResult, error) {
	return g.listingGate(ctx, "listing_publish", in, nil)
}

// ListingUpdate is the gate for updating a published listing. It runs the
// same evaluators as publish and carries the changed fields as metadata.
func (g *Gates) ListingUpdate(ctx context.Context, in *ListingInput, changes map[string]any) (*contracts.GateResult, error) {
	return g.listingGate(ctx, "listing_update", in, changes)
}

func (g *Gates) listingGate(ctx context.Context, gateName string, in *ListingInput, changes map[string]any) (*contracts.GateResult, error) {
	started := time.Now()
	if err := validateInput("listing_publish", in); err != nil {
		return nil, err
	}

	pack, err := g.engine.EffectivePack(ctx, in.Market)
	if err != nil {
		return nil, err
	}

	var out rules.Outcome
	var checks []contracts.CheckToken

	if g.engine.IsComplianceFeatureEnabled(ctx, "fare_act_enforcement", in.Market) {
		out.Merge(rules.EvaluateFareAct(rules.FareActInput{
			HasBrokerFee:             in.HasBrokerFee,
			BrokerFeePaidBy:          in.BrokerFeePaidBy,
			IncomeMultiplierRequired: in.IncomeMultiplierRequired,
			MinCreditScore:           in.MinCreditScore,
			TenantPaidFees:           in.TenantPaidFees,
		}, pack))
		checks = append(checks, contracts.CheckFAREAct)
	}

	if in.HasBrokerFee {
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
		Phase:                   marketpack.PhaseListingPublish,
		DeliveredDisclosures:    in.DeliveredDisclosures,
		AcknowledgedDisclosures: in.AcknowledgedDisclosures,
	}, pack))
	checks = append(checks, contracts.CheckDisclosures)

	metadata := map[string]any{"listingId": in.ListingID}
	if len(changes) > 0 {
		metadata["changes"] = changes
	}

	decision := g.decision(pack, out, checks, metadata)
	return g.finish(ctx, gateName, "listing", in.ListingID, in.Market, started, decision), nil
}
