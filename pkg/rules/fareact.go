package rules

import (
	"fmt"

	"github.com/fairhaven-labs/rentos/compliance/pkg/contracts"
	"github.com/fairhaven-labs/rentos/compliance/pkg/marketpack"
)

// TenantFee is a fee the tenant is asked to pay, with its disclosure status.
type TenantFee struct {
	Type      string  `json:"type"`
	Amount    float64 `json:"amount"`
	Disclosed bool    `json:"disclosed"`
}

// FareActInput describes a listing for FARE Act evaluation.
type FareActInput struct {
	HasBrokerFee             bool                `json:"hasBrokerFee"`
	BrokerFeePaidBy          marketpack.FeePayer `json:"brokerFeePaidBy"`
	IncomeMultiplierRequired float64             `json:"incomeMultiplierRequired,omitempty"`
	MinCreditScore           int                 `json:"minCreditScore,omitempty"`
	TenantPaidFees           []TenantFee         `json:"tenantPaidFees,omitempty"`
}

// EvaluateFareAct applies the NYC FARE Act: the party that engaged the broker
// (typically the landlord) pays the broker fee, and all tenant-paid fees must
// be disclosed up front.
func EvaluateFareAct(in FareActInput, pack *marketpack.MarketPack) Outcome {
	var out Outcome
	rule := pack.Rules.FareAct
	if rule == nil || !rule.Enabled {
		return out
	}

	requiresLandlordPays := pack.Rules.BrokerFee != nil && pack.Rules.BrokerFee.PaidBy == marketpack.FeePaidByLandlord
	if in.HasBrokerFee && requiresLandlordPays && in.BrokerFeePaidBy != marketpack.FeePaidByLandlord {
		out.violation(contracts.Violation{
			Code:     contracts.ViolationFAREBrokerFeeProhibited,
			Severity: contracts.SeverityCritical,
			Message:  "FARE Act prohibits charging the tenant a broker fee when the landlord engaged the broker",
			Evidence: map[string]any{
				"brokerFeePaidBy": string(in.BrokerFeePaidBy),
				"requiredPayer":   string(marketpack.FeePaidByLandlord),
			},
			RuleReference:    "NYC Admin Code § 20-699.21 (FARE Act)",
			DocumentationURL: "https://www.nyc.gov/site/dca/about/FARE-Act.page",
		})
		out.fix(contracts.RecommendedFix{
			Action:           contracts.FixRemoveBrokerFee,
			Description:      "Remove the tenant-paid broker fee or reassign it to the landlord",
			AutoFixAvailable: true,
			AutoFixAction:    "set_broker_fee_paid_by_landlord",
			Priority:         contracts.FixPriorityCritical,
		})
	}

	if rule.MaxIncomeMultiplier > 0 && in.IncomeMultiplierRequired > rule.MaxIncomeMultiplier {
		out.violation(contracts.Violation{
			Code:     contracts.ViolationFAREIncomeRequirementHigh,
			Severity: contracts.SeverityViolation,
			Message: fmt.Sprintf("income requirement of %.0fx rent exceeds the %.0fx maximum",
				in.IncomeMultiplierRequired, rule.MaxIncomeMultiplier),
			Evidence: map[string]any{
				"incomeMultiplierRequired": in.IncomeMultiplierRequired,
				"maxIncomeMultiplier":      rule.MaxIncomeMultiplier,
			},
		})
		out.fix(contracts.RecommendedFix{
			Action:      contracts.FixLowerIncomeRequirement,
			Description: fmt.Sprintf("Lower the income requirement to at most %.0fx the annual rent", rule.MaxIncomeMultiplier),
			Priority:    contracts.FixPriorityMedium,
		})
	}

	if rule.MaxCreditScoreThreshold > 0 && in.MinCreditScore > rule.MaxCreditScoreThreshold {
		out.violation(contracts.Violation{
			Code:     contracts.ViolationFARECreditScoreThresholdHigh,
			Severity: contracts.SeverityViolation,
			Message: fmt.Sprintf("minimum credit score %d exceeds the permitted threshold of %d",
				in.MinCreditScore, rule.MaxCreditScoreThreshold),
			Evidence: map[string]any{
				"minCreditScore":          in.MinCreditScore,
				"maxCreditScoreThreshold": rule.MaxCreditScoreThreshold,
			},
		})
		out.fix(contracts.RecommendedFix{
			Action:      contracts.FixLowerCreditThreshold,
			Description: fmt.Sprintf("Lower the credit score threshold to at most %d", rule.MaxCreditScoreThreshold),
			Priority:    contracts.FixPriorityMedium,
		})
	}

	if rule.FeeDisclosureRequired {
		for _, fee := range in.TenantPaidFees {
			if fee.Disclosed {
				continue
			}
			out.violation(contracts.Violation{
				Code:     contracts.ViolationFAREFeeDisclosureMissing,
				Severity: contracts.SeverityCritical,
				Message:  fmt.Sprintf("tenant-paid fee %q is not disclosed in the listing", fee.Type),
				Evidence: map[string]any{"feeType": fee.Type, "amount": fee.Amount},
			})
			out.fix(contracts.RecommendedFix{
				Action:      contracts.FixDiscloseFee,
				Description: fmt.Sprintf("Itemize the %q fee in the listing before publishing", fee.Type),
				Priority:    contracts.FixPriorityCritical,
			})
		}
	}

	return out
}
