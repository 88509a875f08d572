package rules

import (
	"fmt"

	"github.com/fairhaven-labs/rentos/compliance/pkg/contracts"
	"github.com/fairhaven-labs/rentos/compliance/pkg/marketpack"
)

// DisclosureInput lists the disclosures already delivered and acknowledged
// for an entity, evaluated against one lifecycle phase.
type DisclosureInput struct {
	Phase                   marketpack.Phase `json:"phase"`
	DeliveredDisclosures    []string         `json:"deliveredDisclosures"`
	AcknowledgedDisclosures []string         `json:"acknowledgedDisclosures,omitempty"`
}

// EvaluateDisclosures checks the pack's disclosure requirements for the
// action's phase. Missing delivery blocks; a missing signature is reported
// but does not block.
func EvaluateDisclosures(in DisclosureInput, pack *marketpack.MarketPack) Outcome {
	var out Outcome

	delivered := toSet(in.DeliveredDisclosures)
	acknowledged := toSet(in.AcknowledgedDisclosures)

	for _, req := range pack.DisclosuresForPhase(in.Phase) {
		if !delivered[req.Type] {
			out.violation(contracts.Violation{
				Code:     contracts.ViolationDisclosureNotDelivered,
				Severity: contracts.SeverityCritical,
				Message:  fmt.Sprintf("required disclosure %q has not been delivered", req.Type),
				Evidence: map[string]any{
					"disclosureType": req.Type,
					"requiredBefore": string(req.RequiredBefore),
				},
			})
			out.fix(contracts.RecommendedFix{
				Action:      contracts.FixDeliverDisclosure,
				Description: fmt.Sprintf("Deliver the %q disclosure before %s", req.Type, req.RequiredBefore),
				Priority:    contracts.FixPriorityHigh,
			})
			continue
		}

		if req.SignatureRequired && !acknowledged[req.Type] {
			out.violation(contracts.Violation{
				Code:     contracts.ViolationDisclosureNotAcknowledged,
				Severity: contracts.SeverityWarning,
				Message:  fmt.Sprintf("disclosure %q requires a signature and has not been acknowledged", req.Type),
				Evidence: map[string]any{"disclosureType": req.Type},
			})
			out.fix(contracts.RecommendedFix{
				Action:      contracts.FixCollectAcknowledgement,
				Description: fmt.Sprintf("Collect a signed acknowledgement for %q", req.Type),
				Priority:    contracts.FixPriorityMedium,
			})
		}
	}

	return out
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
