package fairchance

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gowebpki/jcs"
)

// ActorKind classifies who drove a transition.
type ActorKind string

const (
	ActorSystem ActorKind = "system"
	ActorUser   ActorKind = "user"
	ActorAgent  ActorKind = "agent"
)

// DeliveryMethod is how a notice reached the applicant.
type DeliveryMethod string

const (
	DeliveryEmail         DeliveryMethod = "email"
	DeliveryMail          DeliveryMethod = "mail"
	DeliveryInApp         DeliveryMethod = "in_app"
	DeliveryHandDelivered DeliveryMethod = "hand_delivered"
)

// Notice records one legally required notice issued to the applicant.
type Notice struct {
	Type           string         `json:"type"`
	IssuedAt       time.Time      `json:"issuedAt"`
	DeliveryMethod DeliveryMethod `json:"deliveryMethod"`
	RecipientID    string         `json:"recipientId"`
}

// ResponseWindow is the period in which the applicant may respond, e.g. with
// mitigating factors during an individualized assessment.
type ResponseWindow struct {
	OpensAt     time.Time `json:"opensAt"`
	ClosesAt    time.Time `json:"closesAt"`
	DaysAllowed int       `json:"daysAllowed"`
	Purpose     string    `json:"purpose"`
}

// StateEntry is one step of an application's state history.
type StateEntry struct {
	State        State      `json:"state"`
	EnteredAt    time.Time  `json:"enteredAt"`
	ExitedAt     *time.Time `json:"exitedAt,omitempty"`
	TransitionID string     `json:"transitionId,omitempty"`
}

// WorkflowRecord is the per-application Fair Chance workflow state.
type WorkflowRecord struct {
	ApplicationID                     string          `json:"applicationId"`
	CurrentState                      State           `json:"currentState"`
	StateHistory                      []StateEntry    `json:"stateHistory"`
	ConditionalOfferIssuedAt          *time.Time      `json:"conditionalOfferIssuedAt,omitempty"`
	ConditionalOfferUnitID            string          `json:"conditionalOfferUnitId,omitempty"`
	BackgroundCheckAllowedAt          *time.Time      `json:"backgroundCheckAllowedAt,omitempty"`
	IndividualizedAssessmentStartedAt *time.Time      `json:"individualizedAssessmentStartedAt,omitempty"`
	FinalDecisionAt                   *time.Time      `json:"finalDecisionAt,omitempty"`
	FinalDecisionResult               string          `json:"finalDecisionResult,omitempty"`
	ActiveResponseWindow              *ResponseWindow `json:"activeResponseWindow,omitempty"`
}

// PrequalificationResults summarizes the four mandatory prequalification
// screens. All four must be true before a conditional offer.
type PrequalificationResults struct {
	IncomeVerified        bool `json:"incomeVerified"`
	CreditChecked         bool `json:"creditChecked"`
	RentalHistoryReviewed bool `json:"rentalHistoryReviewed"`
	EmploymentVerified    bool `json:"employmentVerified"`
}

// Complete reports whether every mandatory screen passed.
func (p *PrequalificationResults) Complete() bool {
	return p != nil && p.IncomeVerified && p.CreditChecked &&
		p.RentalHistoryReviewed && p.EmploymentVerified
}

// BackgroundCheckEvidence is the background-check sub-record on evidence.
type BackgroundCheckEvidence struct {
	AuthorizationSigned bool       `json:"authorizationSigned"`
	SignedAt            *time.Time `json:"signedAt,omitempty"`
	Provider            string     `json:"provider,omitempty"`
}

// AssessmentEvidence is the individualized-assessment sub-record on evidence.
type AssessmentEvidence struct {
	AdverseInfoFound            bool     `json:"adverseInfoFound"`
	Article23AFactorsConsidered []string `json:"article23aFactorsConsidered,omitempty"`
}

// TransitionEvidence is the tamper-evident record emitted for every allowed
// transition. TransitionID is deterministic:
// fcha_<applicationId>_<digits of timestamp>.
type TransitionEvidence struct {
	ApplicationID            string                   `json:"applicationId"`
	TransitionID             string                   `json:"transitionId"`
	FromState                State                    `json:"fromState"`
	ToState                  State                    `json:"toState"`
	Timestamp                time.Time                `json:"timestamp"`
	ActorID                  string                   `json:"actorId"`
	ActorKind                ActorKind                `json:"actorKind"`
	NoticesIssued            []Notice                 `json:"noticesIssued,omitempty"`
	ResponseWindow           *ResponseWindow          `json:"responseWindow,omitempty"`
	BackgroundCheck          *BackgroundCheckEvidence `json:"backgroundCheck,omitempty"`
	IndividualizedAssessment *AssessmentEvidence      `json:"individualizedAssessment,omitempty"`
	PrequalificationResults  *PrequalificationResults `json:"prequalificationResults,omitempty"`
}

// Hash returns the SHA-256 of the evidence's canonical JSON (RFC 8785) for
// audit binding.
func (e *TransitionEvidence) Hash() (string, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// TransitionID builds the deterministic evidence id for an application at a
// point in time.
func TransitionID(applicationID string, ts time.Time) string {
	return fmt.Sprintf("fcha_%s_%s", applicationID, digitsOnly(ts.UTC().Format(time.RFC3339Nano)))
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
