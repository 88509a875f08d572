package rules

import (
	"fmt"

	"github.com/fairhaven-labs/rentos/compliance/pkg/contracts"
	"github.com/fairhaven-labs/rentos/compliance/pkg/marketpack"
)

// SecurityDepositInput describes a security deposit.
type SecurityDepositInput struct {
	MonthlyRent           float64 `json:"monthlyRent"`
	Amount                float64 `json:"amount"`
	HeldInSeparateAccount bool    `json:"heldInSeparateAccount,omitempty"`
}

// EvaluateSecurityDeposit enforces the deposit cap and account handling.
// The cap violation is auto-fixable by clamping to the maximum.
func EvaluateSecurityDeposit(in SecurityDepositInput, pack *marketpack.MarketPack) Outcome {
	var out Outcome
	rule := pack.Rules.SecurityDeposit
	if rule == nil || !rule.Enabled || in.Amount <= 0 {
		return out
	}

	if rule.MaxMonths > 0 && in.MonthlyRent > 0 {
		cap := rule.MaxMonths * in.MonthlyRent
		if in.Amount > cap {
			out.violation(contracts.Violation{
				Code:     contracts.ViolationSecurityDepositExcessive,
				Severity: contracts.SeverityCritical,
				Message: fmt.Sprintf("security deposit %.2f exceeds the maximum of %.2f (%.2g months' rent)",
					in.Amount, cap, rule.MaxMonths),
				Evidence: map[string]any{
					"amount":    in.Amount,
					"cap":       cap,
					"maxMonths": rule.MaxMonths,
				},
			})
			out.fix(contracts.RecommendedFix{
				Action:           contracts.FixReduceSecurityDeposit,
				Description:      fmt.Sprintf("Reduce the security deposit to %.2f", cap),
				AutoFixAvailable: true,
				AutoFixAction:    "set_deposit_to_cap",
				Priority:         contracts.FixPriorityCritical,
			})
		}
	}

	if rule.SeparateAccountRequired && !in.HeldInSeparateAccount {
		out.violation(contracts.Violation{
			Code:     contracts.ViolationSecurityDepositAccountRequired,
			Severity: contracts.SeverityWarning,
			Message:  "the deposit must be held in a separate interest-bearing account",
		})
		out.fix(contracts.RecommendedFix{
			Action:      contracts.FixOpenSeparateAccount,
			Description: "Move the deposit into a dedicated account before lease signing",
			Priority:    contracts.FixPriorityMedium,
		})
	}

	return out
}
