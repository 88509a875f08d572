package gate

import (
	"context"
	"time"

	"github.com/fairhaven-labs/rentos/compliance/pkg/contracts"
	"github.com/fairhaven-labs/rentos/compliance/pkg/marketpack"
	"github.com/fairhaven-labs/rentos/compliance/pkg/rules"
)

// BrokerFeeChangeInput describes a broker-fee change on a listing or lease.
type BrokerFeeChangeInput struct {
	Market         string              `json:"market"`
	EntityType     string              `json:"entityType,omitempty"` // listing | lease
	EntityID       string              `json:"entityId"`
	MonthlyRent    float64             `json:"monthlyRent"`
	Amount         float64             `json:"amount"`
	PaidBy         marketpack.FeePayer `json:"paidBy"`
	PreviousAmount float64             `json:"previousAmount,omitempty"`
}

// BrokerFeeChange gates a broker-fee mutation.
func (g *Gates) BrokerFeeChange(ctx context.Context, in *BrokerFeeChangeInput) (*contracts.GateResult, error) {
	started := time.Now()
	if err := validateInput("broker_fee_change", in); err != nil {
		return nil, err
	}

	pack, err := g.engine.EffectivePack(ctx, in.Market)
	if err != nil {
		return nil, err
	}

	out := rules.EvaluateBrokerFee(rules.BrokerFeeInput{
		MonthlyRent: in.MonthlyRent,
		Amount:      in.Amount,
		PaidBy:      in.PaidBy,
	}, pack)

	entityType := in.EntityType
	if entityType == "" {
		entityType = "listing"
	}
	decision := g.decision(pack, out, []contracts.CheckToken{contracts.CheckBrokerFee}, map[string]any{
		"entityId":       in.EntityID,
		"previousAmount": in.PreviousAmount,
		"proposedAmount": in.Amount,
	})
	return g.finish(ctx, "broker_fee_change", entityType, in.EntityID, in.Market, started, decision), nil
}

// SecurityDepositChangeInput describes a deposit change.
type SecurityDepositChangeInput struct {
	Market                string  `json:"market"`
	EntityType            string  `json:"entityType,omitempty"`
	EntityID              string  `json:"entityId"`
	MonthlyRent           float64 `json:"monthlyRent"`
	Amount                float64 `json:"amount"`
	HeldInSeparateAccount bool    `json:"heldInSeparateAccount,omitempty"`
	PreviousAmount        float64 `json:"previousAmount,omitempty"`
}

// SecurityDepositChange gates a security-deposit mutation.
func (g *Gates) SecurityDepositChange(ctx context.Context, in *SecurityDepositChangeInput) (*contracts.GateResult, error) {
	started := time.Now()
	if err := validateInput("security_deposit_change", in); err != nil {
		return nil, err
	}

	pack, err := g.engine.EffectivePack(ctx, in.Market)
	if err != nil {
		return nil, err
	}

	out := rules.EvaluateSecurityDeposit(rules.SecurityDepositInput{
		MonthlyRent:           in.MonthlyRent,
		Amount:                in.Amount,
		HeldInSeparateAccount: in.HeldInSeparateAccount,
	}, pack)

	entityType := in.EntityType
	if entityType == "" {
		entityType = "lease"
	}
	decision := g.decision(pack, out, []contracts.CheckToken{contracts.CheckSecurityDeposit}, map[string]any{
		"entityId":       in.EntityID,
		"previousAmount": in.PreviousAmount,
		"proposedAmount": in.Amount,
	})
	return g.finish(ctx, "security_deposit_change", entityType, in.EntityID, in.Market, started, decision), nil
}

// RentIncreaseGateInput describes a proposed rent increase, optionally for a
// rent-stabilized unit.
type RentIncreaseGateInput struct {
	Market         string  `json:"market"`
	LeaseID        string  `json:"leaseId"`
	CurrentRent    float64 `json:"currentRent"`
	ProposedRent   float64 `json:"proposedRent"`
	NoticeDays     int     `json:"noticeDays,omitempty"`
	EvictionReason string  `json:"evictionReason,omitempty"`

	RentStabilized   bool    `json:"rentStabilized,omitempty"`
	LegalRent        float64 `json:"legalRent,omitempty"`
	PreferentialRent float64 `json:"preferentialRent,omitempty"`
	RGBRegistered    bool    `json:"rgbRegistered,omitempty"`
}

// RentIncrease gates a rent increase: good-cause CPI limit, notice period,
// eviction reason, and rent stabilization where applicable. The CPI lookup
// is the only I/O; a cancelled context propagates as an error.
func (g *Gates) RentIncrease(ctx context.Context, in *RentIncreaseGateInput) (*contracts.GateResult, error) {
	started := time.Now()
	if err := validateInput("rent_increase", in); err != nil {
		return nil, err
	}

	pack, err := g.engine.EffectivePack(ctx, in.Market)
	if err != nil {
		return nil, err
	}

	var out rules.Outcome
	checks := []contracts.CheckToken{contracts.CheckRentIncrease}

	if g.engine.IsComplianceFeatureEnabled(ctx, "good_cause_enforcement", in.Market) {
		gcOut, err := rules.EvaluateGoodCause(ctx, rules.RentIncreaseInput{
			Region:         in.Market,
			CurrentRent:    in.CurrentRent,
			ProposedRent:   in.ProposedRent,
			NoticeDays:     in.NoticeDays,
			EvictionReason: in.EvictionReason,
		}, pack, g.engine.CPIProvider())
		if err != nil {
			return nil, err
		}
		for _, v := range gcOut.Violations {
			// One record per fallback use, tagged for audit queries.
			if v.Code == contracts.ViolationGoodCauseCPIFallbackUsed {
				g.engine.Logger().WarnContext(ctx, "CPI_ANNUAL_CHANGE_FALLBACK",
					"region", in.Market, "leaseId", in.LeaseID)
				g.engine.Observability().RecordCPIFallback(ctx, in.Market)
				break
			}
		}
		out.Merge(gcOut)
		checks = append(checks, contracts.CheckGoodCause)
	}

	if in.RentStabilized {
		out.Merge(rules.EvaluateRentStabilization(rules.RentStabilizationInput{
			RentStabilized:   true,
			LegalRent:        in.LegalRent,
			PreferentialRent: in.PreferentialRent,
			RGBRegistered:    in.RGBRegistered,
		}, pack))
		checks = append(checks, contracts.CheckRentStabilized)
	}

	decision := g.decision(pack, out, checks, map[string]any{
		"leaseId":      in.LeaseID,
		"currentRent":  in.CurrentRent,
		"proposedRent": in.ProposedRent,
	})
	return g.finish(ctx, "rent_increase", "lease", in.LeaseID, in.Market, started, decision), nil
}
