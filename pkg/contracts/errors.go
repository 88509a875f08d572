package contracts

import (
	"errors"
	"fmt"
)

// Engine errors. Domain verdicts are never errors: evaluator findings are
// expressed as violations inside a normally returned decision.
var (
	// ErrUnknownMarketPack is returned when a pack id is not in the registry.
	ErrUnknownMarketPack = errors.New("unknown market pack")

	// ErrInvalidInput is returned when gate input fails schema validation
	// before any evaluator runs.
	ErrInvalidInput = errors.New("invalid gate input")

	// ErrSinkUnavailable wraps audit/compliance sink failures. The engine
	// logs these and never surfaces them to the gate caller.
	ErrSinkUnavailable = errors.New("sink unavailable")
)

// InvalidInputf wraps ErrInvalidInput with a formatted detail message.
func InvalidInputf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
