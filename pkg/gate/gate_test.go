package gate

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"

	"github.com/fairhaven-labs/rentos/compliance/pkg/contracts"
	"github.com/fairhaven-labs/rentos/compliance/pkg/engine"
	"github.com/fairhaven-labs/rentos/compliance/pkg/fairchance"
	"github.com/fairhaven-labs/rentos/compliance/pkg/marketpack"
	"github.com/fairhaven-labs/rentos/compliance/pkg/rules"
)

func newGates(t *testing.T) *Gates {
	t.Helper()
	e := engine.New()
	t.Cleanup(e.Wait)
	return New(e)
}

func codes(violations []contracts.Violation) []contracts.ViolationCode {
	out := make([]contracts.ViolationCode, len(violations))
	for i, v := range violations {
		out[i] = v.Code
	}
	return out
}

func findViolation(t *testing.T, violations []contracts.Violation, code contracts.ViolationCode) contracts.Violation {
	t.Helper()
	for _, v := range violations {
		if v.Code == code {
			return v
		}
	}
	t.Fatalf("violation %s not found in %v", code, codes(violations))
	return contracts.Violation{}
}

func TestListingPublish_NYCTenantBrokerFeeBlocked(t *testing.T) {
	g := newGates(t)

	res, err := g.ListingPublish(context.Background(), &ListingInput{
		Market:               "nyc",
		ListingID:            "lst-100",
		MonthlyRent:          3000,
		HasBrokerFee:         true,
		BrokerFeePaidBy:      marketpack.FeePaidByTenant,
		BrokerFeeAmount:      3000,
		DeliveredDisclosures: []string{"fare_act_disclosure"},
	})
	require.NoError(t, err)

	require.False(t, res.Allowed)
	require.Contains(t, res.BlockedReason, "FARE Act")
	require.Equal(t, "NYC_STRICT", res.Decision.MarketPack)

	// The FARE evaluator runs first; its finding leads the list.
	require.Equal(t, contracts.ViolationFAREBrokerFeeProhibited, res.Decision.Violations[0].Code)
	findViolation(t, res.Decision.Violations, contracts.ViolationBrokerFeePayerProhibited)

	require.Contains(t, res.Decision.ChecksPerformed, contracts.CheckFAREAct)
	require.Contains(t, res.Decision.ChecksPerformed, contracts.CheckBrokerFee)
}

func TestListingPublish_TexasSameInputAllowed(t *testing.T) {
	g := newGates(t)

	res, err := g.ListingPublish(context.Background(), &ListingInput{
		Market:          "texas",
		ListingID:       "lst-100",
		MonthlyRent:     3000,
		HasBrokerFee:    true,
		BrokerFeePaidBy: marketpack.FeePaidByTenant,
		BrokerFeeAmount: 3000,
	})
	require.NoError(t, err)

	require.True(t, res.Allowed)
	require.Empty(t, res.BlockedReason)
	require.Equal(t, "TX_STANDARD", res.Decision.MarketPack)
	require.NotContains(t, res.Decision.ChecksPerformed, contracts.CheckFAREAct)
}

func TestListingPublish_MissingDisclosureBlocks(t *testing.T) {
	g := newGates(t)

	res, err := g.ListingPublish(context.Background(), &ListingInput{
		Market:      "nyc",
		ListingID:   "lst-101",
		MonthlyRent: 2500,
	})
	require.NoError(t, err)

	require.False(t, res.Allowed)
	v := findViolation(t, res.Decision.Violations, contracts.ViolationDisclosureNotDelivered)
	require.Equal(t, "fare_act_disclosure", v.Evidence["disclosureType"])
}

func TestListingPublish_InvalidInput(t *testing.T) {
	g := newGates(t)

	_, err := g.ListingPublish(context.Background(), &ListingInput{
		Market:    "nyc",
		ListingID: "lst-102",
		// MonthlyRent missing: zero fails exclusiveMinimum.
	})
	require.ErrorIs(t, err, contracts.ErrInvalidInput)

	_, err = g.ListingPublish(context.Background(), &ListingInput{
		ListingID:   "lst-102",
		MonthlyRent: 2500,
	})
	require.ErrorIs(t, err, contracts.ErrInvalidInput)
}

func TestRentIncrease_NYCExcessiveIncreaseBlocked(t *testing.T) {
	g := newGates(t)

	res, err := g.RentIncrease(context.Background(), &RentIncreaseGateInput{
		Market:       "nyc",
		LeaseID:      "lease-7",
		CurrentRent:  2000,
		ProposedRent: 2500,
		NoticeDays:   30,
	})
	require.NoError(t, err)

	require.False(t, res.Allowed)

	// The deterministic fallback table answered the CPI lookup, so the
	// outcome carries the informational fallback marker ahead of the limit
	// finding.
	fallback := findViolation(t, res.Decision.Violations, contracts.ViolationGoodCauseCPIFallbackUsed)
	require.Equal(t, contracts.SeverityInfo, fallback.Severity)

	excessive := findViolation(t, res.Decision.Violations, contracts.ViolationGoodCauseRentIncreaseExcessive)
	require.Equal(t, contracts.SeverityCritical, excessive.Severity)
	require.InDelta(t, 25.0, excessive.Evidence["actualPercent"], 0.001)

	notice := findViolation(t, res.Decision.Violations, contracts.ViolationGoodCauseNoticeInsufficient)
	require.Equal(t, contracts.SeverityViolation, notice.Severity)

	require.Contains(t, res.Decision.ChecksPerformed, contracts.CheckGoodCause)
}

func TestRentIncrease_WithinLimitAllowed(t *testing.T) {
	g := newGates(t)

	// Every month of the fallback table allows at least CPI + 5% >= 7.4%.
	res, err := g.RentIncrease(context.Background(), &RentIncreaseGateInput{
		Market:       "nyc",
		LeaseID:      "lease-8",
		CurrentRent:  2000,
		ProposedRent: 2040, // 2%
		NoticeDays:   120,
	})
	require.NoError(t, err)
	require.True(t, res.Allowed)
}

func TestRentIncrease_FallbackUseIsLogged(t *testing.T) {
	var buf bytes.Buffer
	e := engine.New(engine.WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	t.Cleanup(e.Wait)
	g := New(e)

	res, err := g.RentIncrease(context.Background(), &RentIncreaseGateInput{
		Market:       "nyc",
		LeaseID:      "lease-10",
		CurrentRent:  2000,
		ProposedRent: 2040,
		NoticeDays:   120,
	})
	require.NoError(t, err)
	require.True(t, res.Allowed)

	// The deterministic fallback answered, so exactly one tagged record
	// lands even though the increase itself passed.
	require.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("CPI_ANNUAL_CHANGE_FALLBACK")))
}

func TestRentIncrease_StabilizedUnit(t *testing.T) {
	g := newGates(t)

	res, err := g.RentIncrease(context.Background(), &RentIncreaseGateInput{
		Market:           "nyc",
		LeaseID:          "lease-9",
		CurrentRent:      2000,
		ProposedRent:     2020,
		NoticeDays:       120,
		RentStabilized:   true,
		LegalRent:        1900,
		PreferentialRent: 2000,
		RGBRegistered:    true,
	})
	require.NoError(t, err)

	require.False(t, res.Allowed)
	findViolation(t, res.Decision.Violations, contracts.ViolationRentStabPreferentialExceedsLegal)
	require.Contains(t, res.Decision.ChecksPerformed, contracts.CheckRentStabilized)
}

func TestFCHAWorkflowTransition_InvalidJumpBlocked(t *testing.T) {
	g := newGates(t)

	res, err := g.FCHAWorkflowTransition(context.Background(), &WorkflowTransitionInput{
		Market: "nyc",
		TransitionRequest: fairchance.TransitionRequest{
			ApplicationID: "app-1",
			FromState:     fairchance.StatePrequalification,
			ToState:       fairchance.StateBackgroundCheckAllowed,
			ActorID:       "agent-9",
			ActorKind:     fairchance.ActorUser,
		},
	})
	require.NoError(t, err)

	require.False(t, res.Allowed)
	require.Nil(t, res.Evidence)
	require.Nil(t, res.Record)

	v := findViolation(t, res.Decision.Violations, contracts.ViolationFCHAInvalidStateTransition)
	require.Equal(t, []string{"CONDITIONAL_OFFER", "DENIED"}, v.Evidence["validNextStates"])
}

func TestFCHAWorkflowTransition_ConditionalOfferIssued(t *testing.T) {
	g := newGates(t)

	ts := time.Date(2026, time.March, 15, 10, 30, 45, 0, time.UTC)
	res, err := g.FCHAWorkflowTransition(context.Background(), &WorkflowTransitionInput{
		Market: "nyc",
		TransitionRequest: fairchance.TransitionRequest{
			ApplicationID: "app-2",
			FromState:     fairchance.StatePrequalification,
			ToState:       fairchance.StateConditionalOffer,
			ActorID:       "agent-9",
			ActorKind:     fairchance.ActorUser,
			Timestamp:     ts,
			PrequalificationResults: &fairchance.PrequalificationResults{
				IncomeVerified:        true,
				CreditChecked:         true,
				RentalHistoryReviewed: true,
				EmploymentVerified:    true,
			},
			ConditionalOffer: &fairchance.ConditionalOfferDetails{
				UnitID:          "unit-4b",
				LetterDelivered: true,
				DeliveryMethod:  fairchance.DeliveryEmail,
				RecipientID:     "applicant-2",
			},
		},
	})
	require.NoError(t, err)

	require.True(t, res.Allowed)
	require.NotNil(t, res.Evidence)
	require.Len(t, res.Evidence.NoticesIssued, 1)
	require.Equal(t, "conditional_offer_letter", res.Evidence.NoticesIssued[0].Type)

	require.NotNil(t, res.Record)
	require.Equal(t, fairchance.StateConditionalOffer, res.Record.CurrentState)
	require.NotNil(t, res.Record.ConditionalOfferIssuedAt)
	require.Equal(t, "unit-4b", res.Record.ConditionalOfferUnitID)

	require.Equal(t, res.Evidence.TransitionID, res.Decision.Metadata["transitionId"])
	require.NotEmpty(t, res.Decision.Metadata["evidenceHash"])
}

func TestFCHAStageTransition_TableOnly(t *testing.T) {
	g := newGates(t)

	res, err := g.FCHAStageTransition(context.Background(), &StageTransitionInput{
		Market:        "nyc",
		ApplicationID: "app-3",
		FromState:     fairchance.StateApproved,
		ToState:       fairchance.StatePrequalification,
	})
	require.NoError(t, err)

	require.False(t, res.Allowed)
	v := findViolation(t, res.Decision.Violations, contracts.ViolationFCHAInvalidStateTransition)
	require.Equal(t, []string{}, v.Evidence["validNextStates"])

	// Markets without a Fair Chance rule never block on the table.
	res, err = g.FCHAStageTransition(context.Background(), &StageTransitionInput{
		Market:        "texas",
		ApplicationID: "app-3",
		FromState:     fairchance.StateApproved,
		ToState:       fairchance.StatePrequalification,
	})
	require.NoError(t, err)
	require.True(t, res.Allowed)
}

func TestFCHACriminalCheck_BeforeOfferBlocked(t *testing.T) {
	g := newGates(t)

	res, err := g.FCHACriminalCheck(context.Background(), &BackgroundCheckGateInput{
		Market:        "nyc",
		ApplicationID: "app-4",
		CheckType:     "criminal_background_check",
		CurrentState:  fairchance.StatePrequalification,
	})
	require.NoError(t, err)

	require.False(t, res.Allowed)
	require.Equal(t, []contracts.CheckToken{contracts.CheckFCHACriminal}, res.Decision.ChecksPerformed)

	findViolation(t, res.Decision.Violations, contracts.ViolationFCHABackgroundCheckNotAllowed)
	findViolation(t, res.Decision.Violations, contracts.ViolationFCHACriminalCheckBeforeOffer)

	remediation := findViolation(t, res.Decision.Violations, contracts.ViolationFCHAConditionalOfferRequired)
	require.Equal(t, contracts.SeverityViolation, remediation.Severity)
	require.Equal(t, []string{
		"complete_prequalification",
		"issue_written_conditional_offer",
		"obtain_signed_background_check_authorization",
		"run_criminal_background_check",
	}, remediation.Evidence["remediationSteps"])
}

func TestFCHABackgroundCheck_PrequalificationAlwaysAllowed(t *testing.T) {
	g := newGates(t)

	res, err := g.FCHABackgroundCheck(context.Background(), &BackgroundCheckGateInput{
		Market:        "nyc",
		ApplicationID: "app-5",
		CheckType:     "credit_check",
		CurrentState:  fairchance.StatePrequalification,
	})
	require.NoError(t, err)
	require.True(t, res.Allowed)
	require.Empty(t, res.Decision.Violations)
}

func TestSecurityDepositChange_NYCCapEnforced(t *testing.T) {
	g := newGates(t)

	res, err := g.SecurityDepositChange(context.Background(), &SecurityDepositChangeInput{
		Market:      "nyc",
		EntityID:    "lease-12",
		MonthlyRent: 2500,
		Amount:      5000,
	})
	require.NoError(t, err)

	require.False(t, res.Allowed)
	findViolation(t, res.Decision.Violations, contracts.ViolationSecurityDepositExcessive)
	// The separate-account rule reports alongside without blocking.
	account := findViolation(t, res.Decision.Violations, contracts.ViolationSecurityDepositAccountRequired)
	require.Equal(t, contracts.SeverityWarning, account.Severity)
}

func TestLeaseCreation_NYCDisclosuresAndDeposit(t *testing.T) {
	g := newGates(t)

	res, err := g.LeaseCreation(context.Background(), &LeaseCreationInput{
		Market:                       "brooklyn",
		LeaseID:                      "lease-13",
		MonthlyRent:                  2500,
		SecurityDepositAmount:        2500,
		DepositHeldInSeparateAccount: true,
		DeliveredDisclosures:         []string{"lead_paint_disclosure", "bedbug_disclosure"},
		AcknowledgedDisclosures:      []string{"lead_paint_disclosure", "bedbug_disclosure"},
	})
	require.NoError(t, err)
	require.True(t, res.Allowed)

	// Missing a signing-phase disclosure blocks.
	res, err = g.LeaseCreation(context.Background(), &LeaseCreationInput{
		Market:               "brooklyn",
		LeaseID:              "lease-14",
		MonthlyRent:          2500,
		DeliveredDisclosures: []string{"bedbug_disclosure"},
	})
	require.NoError(t, err)
	require.False(t, res.Allowed)
	v := findViolation(t, res.Decision.Violations, contracts.ViolationDisclosureNotDelivered)
	require.Equal(t, "lead_paint_disclosure", v.Evidence["disclosureType"])
}

func TestDisclosureRequirement_PhaseScoped(t *testing.T) {
	g := newGates(t)

	res, err := g.DisclosureRequirement(context.Background(), &DisclosureRequirementInput{
		Market:   "nyc",
		EntityID: "app-6",
		Phase:    marketpack.PhaseApplication,
	})
	require.NoError(t, err)
	require.False(t, res.Allowed)
	v := findViolation(t, res.Decision.Violations, contracts.ViolationDisclosureNotDelivered)
	require.Equal(t, "tenant_rights_notice", v.Evidence["disclosureType"])

	res, err = g.DisclosureRequirement(context.Background(), &DisclosureRequirementInput{
		Market:               "nyc",
		EntityID:             "app-6",
		Phase:                marketpack.PhaseApplication,
		DeliveredDisclosures: []string{"tenant_rights_notice"},
	})
	require.NoError(t, err)
	require.True(t, res.Allowed)
}

func TestGDPRDataOperation(t *testing.T) {
	g := newGates(t)

	res, err := g.GDPRDataOperation(context.Background(), &GDPRDataOperationInput{
		Market:    "london",
		EntityID:  "subject-1",
		Operation: "collect",
	})
	require.NoError(t, err)
	require.False(t, res.Allowed)
	findViolation(t, res.Decision.Violations, contracts.ViolationGDPRConsentMissing)
	findViolation(t, res.Decision.Violations, contracts.ViolationGDPRLawfulBasisMissing)

	res, err = g.GDPRDataOperation(context.Background(), &GDPRDataOperationInput{
		Market:          "london",
		EntityID:        "subject-1",
		Operation:       "collect",
		ConsentObtained: true,
		LawfulBasis:     "consent",
		FieldsPresent:   []string{"passport_number"},
		RedactedFields:  []string{"passport_number"},
	})
	require.NoError(t, err)
	require.True(t, res.Allowed)

	// Non-GDPR markets skip the evaluators entirely.
	res, err = g.GDPRDataOperation(context.Background(), &GDPRDataOperationInput{
		Market:    "nyc",
		EntityID:  "subject-1",
		Operation: "collect",
	})
	require.NoError(t, err)
	require.True(t, res.Allowed)
	require.Empty(t, res.Decision.ChecksPerformed)
}

func TestBrokerFeeChange_SubjectRequestsCarryThrough(t *testing.T) {
	g := newGates(t)

	resolved := time.Now().UTC()
	res, err := g.GDPRDataOperation(context.Background(), &GDPRDataOperationInput{
		Market:          "berlin",
		EntityID:        "subject-2",
		Operation:       "store",
		ConsentObtained: true,
		LawfulBasis:     "contract",
		SubjectRequests: []rules.SubjectRequest{
			{RequestID: "dsr-1", ReceivedAt: resolved.AddDate(0, -3, 0)},
		},
	})
	require.NoError(t, err)

	// Overdue subject requests report without blocking.
	require.True(t, res.Allowed)
	v := findViolation(t, res.Decision.Violations, contracts.ViolationGDPRSubjectRequestOverdue)
	require.Equal(t, contracts.SeverityViolation, v.Severity)
}

func TestBlockedImpliesReason(t *testing.T) {
	g := newGates(t)

	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 100
	properties := gopter.NewProperties(params)

	properties.Property("a gate blocks iff a critical violation exists, and every block carries a reason", prop.ForAll(
		func(rent float64, amount float64, payer string) bool {
			res, err := g.BrokerFeeChange(context.Background(), &BrokerFeeChangeInput{
				Market:      "nyc",
				EntityID:    "lease-prop",
				MonthlyRent: rent,
				Amount:      amount,
				PaidBy:      marketpack.FeePayer(payer),
			})
			if err != nil {
				return false
			}
			if res.Allowed != !contracts.HasCritical(res.Decision.Violations) {
				return false
			}
			if res.Allowed {
				return res.BlockedReason == ""
			}
			return res.BlockedReason != ""
		},
		gen.Float64Range(100, 10000),
		gen.Float64Range(0, 20000),
		gen.OneConstOf("tenant", "landlord", "either"),
	))

	properties.TestingRun(t)
}
