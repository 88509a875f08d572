// Package contracts defines the wire-stable types shared by the compliance
// engine: violations, recommended fixes, decisions, gate results, and the
// audit/compliance-check sink contracts.
//
// The JSON keys of these types are the external contract. Violation codes are
// a closed set: adding a code is additive, removing or renaming one is a
// breaking change.
package contracts

// ViolationCode is a stable identifier for a compliance violation.
// Codes MUST NOT change between minor releases.
type ViolationCode string

const (
	// --- FARE Act (NYC) ---
	ViolationFAREBrokerFeeProhibited      ViolationCode = "FARE_BROKER_FEE_PROHIBITED"
	ViolationFAREIncomeRequirementHigh    ViolationCode = "FARE_INCOME_REQUIREMENT_EXCESSIVE"
	ViolationFARECreditScoreThresholdHigh ViolationCode = "FARE_CREDIT_SCORE_THRESHOLD_EXCESSIVE"
	ViolationFAREFeeDisclosureMissing     ViolationCode = "FARE_FEE_DISCLOSURE_MISSING"

	// --- Broker fees ---
	ViolationBrokerFeePayerProhibited ViolationCode = "BROKER_FEE_PAYER_PROHIBITED"
	ViolationBrokerFeeExcessive       ViolationCode = "BROKER_FEE_EXCESSIVE"

	// --- Security deposits ---
	ViolationSecurityDepositExcessive       ViolationCode = "SECURITY_DEPOSIT_EXCESSIVE"
	ViolationSecurityDepositAccountRequired ViolationCode = "SECURITY_DEPOSIT_SEPARATE_ACCOUNT_REQUIRED"

	// --- Disclosures ---
	ViolationDisclosureNotDelivered    ViolationCode = "DISCLOSURE_NOT_DELIVERED"
	ViolationDisclosureNotAcknowledged ViolationCode = "DISCLOSURE_NOT_ACKNOWLEDGED"

	// --- Good Cause ---
	ViolationGoodCauseRentIncreaseExcessive ViolationCode = "GOOD_CAUSE_RENT_INCREASE_EXCESSIVE"
	ViolationGoodCauseNoticeInsufficient    ViolationCode = "GOOD_CAUSE_NOTICE_PERIOD_INSUFFICIENT"
	ViolationGoodCauseEvictionInvalidReason ViolationCode = "GOOD_CAUSE_EVICTION_INVALID_REASON"
	ViolationGoodCauseCPIFallbackUsed       ViolationCode = "GOOD_CAUSE_CPI_FALLBACK_USED"

	// --- Rent stabilization ---
	ViolationRentStabPreferentialExceedsLegal ViolationCode = "RENT_STAB_PREFERENTIAL_EXCEEDS_LEGAL"
	ViolationRentStabRegistrationMissing      ViolationCode = "RENT_STAB_REGISTRATION_MISSING"

	// --- Fair Chance Housing ---
	ViolationFCHAInvalidStateTransition     ViolationCode = "FCHA_INVALID_STATE_TRANSITION"
	ViolationFCHAPrequalificationIncomplete ViolationCode = "FCHA_PREQUALIFICATION_INCOMPLETE"
	ViolationFCHANoticeNotIssued            ViolationCode = "FCHA_NOTICE_NOT_ISSUED"
	ViolationFCHAAssessmentRequired         ViolationCode = "FCHA_INDIVIDUALIZED_ASSESSMENT_REQUIRED"
	ViolationFCHABackgroundCheckNotAllowed  ViolationCode = "FCHA_BACKGROUND_CHECK_NOT_ALLOWED"
	ViolationFCHAConditionalOfferRequired   ViolationCode = "FCHA_CONDITIONAL_OFFER_REQUIRED"
	ViolationFCHACriminalCheckBeforeOffer   ViolationCode = "FCHA_CRIMINAL_CHECK_BEFORE_OFFER"
	ViolationFCHADecisionRationaleMissing   ViolationCode = "FCHA_FINAL_DECISION_RATIONALE_MISSING"
	ViolationFCHAUnknownCheckType           ViolationCode = "FCHA_UNKNOWN_CHECK_TYPE"

	// --- GDPR ---
	ViolationGDPRConsentMissing        ViolationCode = "GDPR_CONSENT_MISSING"
	ViolationGDPRLawfulBasisMissing    ViolationCode = "GDPR_LAWFUL_BASIS_MISSING"
	ViolationGDPRDataRetentionExceeded ViolationCode = "GDPR_DATA_RETENTION_EXCEEDED"
	ViolationGDPRSubjectRequestOverdue ViolationCode = "GDPR_DATA_SUBJECT_REQUEST_OVERDUE"
	ViolationGDPRRedactionRequired     ViolationCode = "GDPR_REDACTION_REQUIRED"
)

// AllViolationCodes returns the full normative code set.
func AllViolationCodes() []ViolationCode {
	return []ViolationCode{
		ViolationFAREBrokerFeeProhibited,
		ViolationFAREIncomeRequirementHigh,
		ViolationFARECreditScoreThresholdHigh,
		ViolationFAREFeeDisclosureMissing,
		ViolationBrokerFeePayerProhibited,
		ViolationBrokerFeeExcessive,
		ViolationSecurityDepositExcessive,
		ViolationSecurityDepositAccountRequired,
		ViolationDisclosureNotDelivered,
		ViolationDisclosureNotAcknowledged,
		ViolationGoodCauseRentIncreaseExcessive,
		ViolationGoodCauseNoticeInsufficient,
		ViolationGoodCauseEvictionInvalidReason,
		ViolationGoodCauseCPIFallbackUsed,
		ViolationRentStabPreferentialExceedsLegal,
		ViolationRentStabRegistrationMissing,
		ViolationFCHAInvalidStateTransition,
		ViolationFCHAPrequalificationIncomplete,
		ViolationFCHANoticeNotIssued,
		ViolationFCHAAssessmentRequired,
		ViolationFCHABackgroundCheckNotAllowed,
		ViolationFCHAConditionalOfferRequired,
		ViolationFCHACriminalCheckBeforeOffer,
		ViolationFCHADecisionRationaleMissing,
		ViolationFCHAUnknownCheckType,
		ViolationGDPRConsentMissing,
		ViolationGDPRLawfulBasisMissing,
		ViolationGDPRDataRetentionExceeded,
		ViolationGDPRSubjectRequestOverdue,
		ViolationGDPRRedactionRequired,
	}
}

// Severity classifies the impact of a violation.
// Only Critical causes a gate to block.
type Severity string

const (
	SeverityInfo      Severity = "info"
	SeverityWarning   Severity = "warning"
	SeverityViolation Severity = "violation"
	SeverityCritical  Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityInfo:      0,
	SeverityWarning:   1,
	SeverityViolation: 2,
	SeverityCritical:  3,
}

// Worse reports whether s outranks other.
func (s Severity) Worse(other Severity) bool {
	return severityRank[s] > severityRank[other]
}

// Violation is one finding produced by a rule evaluator.
// Evidence is an audit-only side channel; it is never shown to end users.
type Violation struct {
	Code             ViolationCode  `json:"code"`
	Severity         Severity       `json:"severity"`
	Message          string         `json:"message"`
	Evidence         map[string]any `json:"evidence,omitempty"`
	RuleReference    string         `json:"ruleReference,omitempty"`
	DocumentationURL string         `json:"documentationUrl,omitempty"`
}

// WorstSeverity returns the highest severity present, or SeverityInfo for an
// empty list.
func WorstSeverity(violations []Violation) Severity {
	worst := SeverityInfo
	for _, v := range violations {
		if v.Severity.Worse(worst) {
			worst = v.Severity
		}
	}
	return worst
}

// HasCritical reports whether any violation is critical.
func HasCritical(violations []Violation) bool {
	for _, v := range violations {
		if v.Severity == SeverityCritical {
			return true
		}
	}
	return false
}
