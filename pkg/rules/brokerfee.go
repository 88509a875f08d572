package rules

import (
	"fmt"

	"github.com/fairhaven-labs/rentos/compliance/pkg/contracts"
	"github.com/fairhaven-labs/rentos/compliance/pkg/marketpack"
)

// BrokerFeeInput describes a broker fee attached to a listing or lease.
// Amounts are in the same unit as MonthlyRent; no currency conversion.
type BrokerFeeInput struct {
	MonthlyRent float64             `json:"monthlyRent"`
	Amount      float64             `json:"amount"`
	PaidBy      marketpack.FeePayer `json:"paidBy"`
}

// EvaluateBrokerFee checks who pays the fee and how large it may be.
func EvaluateBrokerFee(in BrokerFeeInput, pack *marketpack.MarketPack) Outcome {
	var out Outcome
	rule := pack.Rules.BrokerFee
	if rule == nil || !rule.Enabled || in.Amount <= 0 {
		return out
	}

	switch rule.PaidBy {
	case marketpack.FeePayerProhibited:
		out.violation(contracts.Violation{
			Code:     contracts.ViolationBrokerFeePayerProhibited,
			Severity: contracts.SeverityCritical,
			Message:  "broker fees are prohibited in this jurisdiction",
			Evidence: map[string]any{"amount": in.Amount, "paidBy": string(in.PaidBy)},
		})
		out.fix(contracts.RecommendedFix{
			Action:           contracts.FixRemoveBrokerFee,
			Description:      "Remove the broker fee from this transaction",
			AutoFixAvailable: true,
			AutoFixAction:    "remove_broker_fee",
			Priority:         contracts.FixPriorityCritical,
		})
	case marketpack.FeePaidByLandlord:
		if in.PaidBy == marketpack.FeePaidByTenant {
			out.violation(contracts.Violation{
				Code:     contracts.ViolationBrokerFeePayerProhibited,
				Severity: contracts.SeverityCritical,
				Message:  "this jurisdiction requires the landlord to pay the broker fee",
				Evidence: map[string]any{"paidBy": string(in.PaidBy), "requiredPayer": "landlord"},
			})
			out.fix(contracts.RecommendedFix{
				Action:           contracts.FixRemoveBrokerFee,
				Description:      "Reassign the broker fee to the landlord or remove it",
				AutoFixAvailable: true,
				AutoFixAction:    "set_broker_fee_paid_by_landlord",
				Priority:         contracts.FixPriorityCritical,
			})
		}
	}

	if rule.MaxMultiplier > 0 && in.MonthlyRent > 0 {
		cap := rule.MaxMultiplier * in.MonthlyRent
		if in.Amount > cap {
			out.violation(contracts.Violation{
				Code:     contracts.ViolationBrokerFeeExcessive,
				Severity: contracts.SeverityCritical,
				Message: fmt.Sprintf("broker fee %.2f exceeds the cap of %.2f (%.2fx monthly rent)",
					in.Amount, cap, rule.MaxMultiplier),
				Evidence: map[string]any{
					"amount":        in.Amount,
					"cap":           cap,
					"maxMultiplier": rule.MaxMultiplier,
				},
			})
			out.fix(contracts.RecommendedFix{
				Action:           contracts.FixRemoveBrokerFee,
				Description:      fmt.Sprintf("Reduce the broker fee to at most %.2f", cap),
				AutoFixAvailable: true,
				AutoFixAction:    "set_broker_fee_to_cap",
				Priority:         contracts.FixPriorityHigh,
			})
		}
	}

	return out
}
