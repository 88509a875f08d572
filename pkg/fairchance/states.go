// Package fairchance implements the Fair Chance Housing workflow state
// machine. It enforces the legally mandated ordering of application stages:
// no criminal background inquiry may occur before a written conditional
// offer. Valid transitions are a closed table; every permitted transition
// emits a tamper-evident evidence record.
package fairchance

// State is an application's position in the Fair Chance workflow.
type State string

const (
	StatePrequalification         State = "PREQUALIFICATION"
	StateConditionalOffer         State = "CONDITIONAL_OFFER"
	StateBackgroundCheckAllowed   State = "BACKGROUND_CHECK_ALLOWED"
	StateIndividualizedAssessment State = "INDIVIDUALIZED_ASSESSMENT"
	StateFinalDecision            State = "FINAL_DECISION"
	StateApproved                 State = "APPROVED"
	StateDenied                   State = "DENIED"
)

// validTransitions is the closed transition table. Terminal states map to an
// empty set. This table is the single source of truth; nothing else in the
// codebase decides state reachability.
var validTransitions = map[State][]State{
	StatePrequalification:         {StateConditionalOffer, StateDenied},
	StateConditionalOffer:         {StateBackgroundCheckAllowed, StateDenied},
	StateBackgroundCheckAllowed:   {StateIndividualizedAssessment, StateApproved, StateDenied},
	StateIndividualizedAssessment: {StateApproved, StateDenied},
	StateFinalDecision:            {},
	StateApproved:                 {},
	StateDenied:                   {},
}

// ValidNextStates returns a copy of the permitted successors of s.
// Unknown states have no successors.
func ValidNextStates(s State) []State {
	next, ok := validTransitions[s]
	if !ok {
		return nil
	}
	out := make([]State, len(next))
	copy(out, next)
	return out
}

// IsValidTransition reports whether from → to appears in the table.
func IsValidTransition(from, to State) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s has no successors.
func IsTerminal(s State) bool {
	return len(validTransitions[s]) == 0
}

// AllStates returns every state in the table.
func AllStates() []State {
	return []State{
		StatePrequalification,
		StateConditionalOffer,
		StateBackgroundCheckAllowed,
		StateIndividualizedAssessment,
		StateFinalDecision,
		StateApproved,
		StateDenied,
	}
}

// criminalCheckTypes is the closed set of check types that constitute a
// criminal background inquiry.
var criminalCheckTypes = map[string]bool{
	"criminal_background_check": true,
	"criminal_history":          true,
	"arrest_record":             true,
	"conviction_record":         true,
}

// prequalificationCheckTypes is the closed set of checks that are always
// permitted regardless of workflow state.
var prequalificationCheckTypes = map[string]bool{
	"income_verification":     true,
	"employment_verification": true,
	"credit_check":            true,
	"rental_history":          true,
	"eviction_history":        true,
	"identity_verification":   true,
}

// IsCriminalCheck reports whether checkType is a criminal inquiry.
func IsCriminalCheck(checkType string) bool {
	return criminalCheckTypes[checkType]
}

// IsPrequalificationCheck reports whether checkType is a prequalification
// screen.
func IsPrequalificationCheck(checkType string) bool {
	return prequalificationCheckTypes[checkType]
}

// criminalCheckPermittedStates are the only states in which a criminal
// inquiry may run.
var criminalCheckPermittedStates = map[State]bool{
	StateBackgroundCheckAllowed:   true,
	StateIndividualizedAssessment: true,
}

// CriminalCheckPermitted reports whether a criminal inquiry may run in s.
func CriminalCheckPermitted(s State) bool {
	return criminalCheckPermittedStates[s]
}
