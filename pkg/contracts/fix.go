package contracts

// FixAction identifies a remediation an operator (or automation) can take.
type FixAction string

const (
	FixRemoveBrokerFee          FixAction = "remove_broker_fee"
	FixDiscloseFee              FixAction = "disclose_fee"
	FixLowerIncomeRequirement   FixAction = "lower_income_requirement"
	FixLowerCreditThreshold     FixAction = "lower_credit_threshold"
	FixReduceSecurityDeposit    FixAction = "reduce_security_deposit"
	FixOpenSeparateAccount      FixAction = "open_separate_deposit_account"
	FixDeliverDisclosure        FixAction = "deliver_disclosure"
	FixCollectAcknowledgement   FixAction = "collect_acknowledgement"
	FixReduceRentIncrease       FixAction = "reduce_rent_increase"
	FixExtendNoticePeriod       FixAction = "extend_notice_period"
	FixUseValidEvictionReason   FixAction = "use_valid_eviction_reason"
	FixRegisterStabilizedUnit   FixAction = "register_rent_stabilized_unit"
	FixLowerPreferentialRent    FixAction = "lower_preferential_rent"
	FixIssueConditionalOffer    FixAction = "issue_conditional_offer"
	FixCompletePrequalification FixAction = "complete_prequalification"
	FixIssueNotice              FixAction = "issue_required_notice"
	FixDocumentAssessment       FixAction = "document_assessment_factors"
	FixRecordDecisionRationale  FixAction = "record_decision_rationale"
	FixObtainConsent            FixAction = "obtain_consent"
	FixRecordLawfulBasis        FixAction = "record_lawful_basis"
	FixPurgeExpiredData         FixAction = "purge_expired_data"
	FixResolveSubjectRequest    FixAction = "resolve_subject_request"
	FixRedactSensitiveFields    FixAction = "redact_sensitive_fields"
)

// FixPriority orders remediations for presentation.
type FixPriority string

const (
	FixPriorityLow      FixPriority = "low"
	FixPriorityMedium   FixPriority = "medium"
	FixPriorityHigh     FixPriority = "high"
	FixPriorityCritical FixPriority = "critical"
)

// RecommendedFix is an actionable remediation attached to a decision.
type RecommendedFix struct {
	Action           FixAction   `json:"action"`
	Description      string      `json:"description"`
	AutoFixAvailable bool        `json:"autoFixAvailable"`
	AutoFixAction    string      `json:"autoFixAction,omitempty"`
	Priority         FixPriority `json:"priority"`
}
