package rules

import (
	"fmt"

	"github.com/fairhaven-labs/rentos/compliance/pkg/contracts"
	"github.com/fairhaven-labs/rentos/compliance/pkg/marketpack"
)

// RentStabilizationInput describes a rent-stabilized unit's registered rents.
type RentStabilizationInput struct {
	RentStabilized   bool    `json:"rentStabilized"`
	LegalRent        float64 `json:"legalRent"`
	PreferentialRent float64 `json:"preferentialRent,omitempty"`
	RGBRegistered    bool    `json:"rgbRegistered"`
}

// EvaluateRentStabilization checks legal/preferential rent consistency and
// RGB registration for stabilized units.
func EvaluateRentStabilization(in RentStabilizationInput, pack *marketpack.MarketPack) Outcome {
	var out Outcome
	rule := pack.Rules.RentStabilization
	if rule == nil || !rule.Enabled || !in.RentStabilized {
		return out
	}

	if in.PreferentialRent > 0 && in.LegalRent > 0 && in.PreferentialRent > in.LegalRent {
		out.violation(contracts.Violation{
			Code:     contracts.ViolationRentStabPreferentialExceedsLegal,
			Severity: contracts.SeverityCritical,
			Message: fmt.Sprintf("preferential rent %.2f exceeds the registered legal rent %.2f",
				in.PreferentialRent, in.LegalRent),
			Evidence: map[string]any{
				"preferentialRent": in.PreferentialRent,
				"legalRent":        in.LegalRent,
			},
		})
		out.fix(contracts.RecommendedFix{
			Action:      contracts.FixLowerPreferentialRent,
			Description: fmt.Sprintf("Set the preferential rent at or below the legal rent of %.2f", in.LegalRent),
			Priority:    contracts.FixPriorityCritical,
		})
	}

	if rule.RegistrationRequired && !in.RGBRegistered {
		out.violation(contracts.Violation{
			Code:     contracts.ViolationRentStabRegistrationMissing,
			Severity: contracts.SeverityViolation,
			Message:  "the unit is rent stabilized but has no current RGB registration",
		})
		out.fix(contracts.RecommendedFix{
			Action:      contracts.FixRegisterStabilizedUnit,
			Description: "File the annual registration for this unit with the RGB",
			Priority:    contracts.FixPriorityHigh,
		})
	}

	return out
}
