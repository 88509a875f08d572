package rules

import (
	"context"
	"fmt"

	"github.com/fairhaven-labs/rentos/compliance/pkg/contracts"
	"github.com/fairhaven-labs/rentos/compliance/pkg/cpi"
	"github.com/fairhaven-labs/rentos/compliance/pkg/marketpack"
)

// RentIncreaseInput describes a proposed rent increase. EvictionReason is
// evaluated only when non-empty (rent-increase-only checks leave it blank).
type RentIncreaseInput struct {
	Region         string  `json:"region"`
	CurrentRent    float64 `json:"currentRent"`
	ProposedRent   float64 `json:"proposedRent"`
	NoticeDays     int     `json:"noticeDays"`
	EvictionReason string  `json:"evictionReason,omitempty"`
}

// EvaluateGoodCause applies good-cause rent-increase and eviction rules. The
// CPI lookup is the single I/O dependency of the rule layer; when the
// provider answers from its fallback the outcome carries an informational
// GOOD_CAUSE_CPI_FALLBACK_USED violation so the audit trail records which
// CPI basis was used.
func EvaluateGoodCause(ctx context.Context, in RentIncreaseInput, pack *marketpack.MarketPack, provider cpi.Provider) (Outcome, error) {
	var out Outcome

	gc := pack.Rules.GoodCause
	ri := pack.Rules.RentIncrease

	if gc != nil && gc.Enabled && in.CurrentRent > 0 && in.ProposedRent > in.CurrentRent {
		res, err := provider.GetAnnualCPIChange(ctx, in.Region)
		if err != nil {
			// Providers degrade to the fallback themselves; an error here
			// means the context was cancelled.
			return out, err
		}
		if res.IsFallback {
			out.violation(contracts.Violation{
				Code:     contracts.ViolationGoodCauseCPIFallbackUsed,
				Severity: contracts.SeverityInfo,
				Message:  fmt.Sprintf("CPI data unavailable for %q; using fallback value %.1f%%", in.Region, res.Percentage),
				Evidence: map[string]any{"cpiPercentage": res.Percentage, "region": in.Region},
			})
		}

		maxPercent := res.Percentage + gc.MaxRentIncreaseOverCPI
		actual := (in.ProposedRent - in.CurrentRent) / in.CurrentRent * 100
		if actual > maxPercent {
			out.violation(contracts.Violation{
				Code:     contracts.ViolationGoodCauseRentIncreaseExcessive,
				Severity: contracts.SeverityCritical,
				Message: fmt.Sprintf("rent increase of %.1f%% exceeds the good-cause limit of %.1f%% (CPI %.1f%% + %.1f%%)",
					actual, maxPercent, res.Percentage, gc.MaxRentIncreaseOverCPI),
				Evidence: map[string]any{
					"actualPercent": actual,
					"maxPercent":    maxPercent,
					"cpiPercentage": res.Percentage,
					"cpiIsFallback": res.IsFallback,
				},
				RuleReference: "Good Cause Eviction Law",
			})
			out.fix(contracts.RecommendedFix{
				Action:           contracts.FixReduceRentIncrease,
				Description:      fmt.Sprintf("Reduce the increase to at most %.1f%%", maxPercent),
				AutoFixAvailable: true,
				AutoFixAction:    "set_rent_increase_to_limit",
				Priority:         contracts.FixPriorityCritical,
			})
		}
	}

	if ri != nil && ri.Enabled && ri.NoticeRequired && in.ProposedRent > in.CurrentRent && in.NoticeDays < ri.NoticeDays {
		out.violation(contracts.Violation{
			Code:     contracts.ViolationGoodCauseNoticeInsufficient,
			Severity: contracts.SeverityViolation,
			Message: fmt.Sprintf("%d days of notice given; this jurisdiction requires %d",
				in.NoticeDays, ri.NoticeDays),
			Evidence: map[string]any{"noticeDays": in.NoticeDays, "requiredNoticeDays": ri.NoticeDays},
		})
		out.fix(contracts.RecommendedFix{
			Action:      contracts.FixExtendNoticePeriod,
			Description: fmt.Sprintf("Delay the effective date so the tenant receives %d days of notice", ri.NoticeDays),
			Priority:    contracts.FixPriorityHigh,
		})
	}

	if gc != nil && gc.Enabled && in.EvictionReason != "" && !contains(gc.ValidEvictionReasons, in.EvictionReason) {
		out.violation(contracts.Violation{
			Code:     contracts.ViolationGoodCauseEvictionInvalidReason,
			Severity: contracts.SeverityCritical,
			Message:  fmt.Sprintf("%q is not a recognized good-cause eviction reason", in.EvictionReason),
			Evidence: map[string]any{
				"evictionReason": in.EvictionReason,
				"validReasons":   gc.ValidEvictionReasons,
			},
		})
		out.fix(contracts.RecommendedFix{
			Action:      contracts.FixUseValidEvictionReason,
			Description: "Proceed only with one of the jurisdiction's recognized eviction grounds",
			Priority:    contracts.FixPriorityCritical,
		})
	}

	return out, nil
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
