// Package rules implements the pure rule evaluators. Every evaluator is a
// total function from a typed input and a market pack to an ordered list of
// violations and recommended fixes; none performs I/O except the good-cause
// evaluator, which takes an injected CPI provider.
//
// All thresholds come from the pack, never from code.
package rules

import (
	"github.com/fairhaven-labs/rentos/compliance/pkg/contracts"
)

// Outcome is the result of one evaluator run. Violations are ordered as
// emitted; callers must not reorder or deduplicate them.
type Outcome struct {
	Violations []contracts.Violation
	Fixes      []contracts.RecommendedFix
}

// Merge appends other's findings after o's, preserving order.
func (o *Outcome) Merge(other Outcome) {
	o.Violations = append(o.Violations, other.Violations...)
	o.Fixes = append(o.Fixes, other.Fixes...)
}

func (o *Outcome) violation(v contracts.Violation) {
	o.Violations = append(o.Violations, v)
}

func (o *Outcome) fix(f contracts.RecommendedFix) {
	o.Fixes = append(o.Fixes, f)
}
