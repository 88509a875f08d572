package flags

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/cel-go/cel"
)

// CELResolver evaluates per-check CEL expressions against the request
// context. Expressions see three variables:
//
//	check     string  — the check token ("fare_act", "broker_fee", ...)
//	market    string  — the raw market identifier
//	timestamp int     — unix seconds at evaluation time
//
// An expression returning false disables the check. Compile or eval errors
// fail open: the check stays enabled and the error is returned for logging.
type CELResolver struct {
	env      *cel.Env
	mu       sync.RWMutex
	programs map[string]cel.Program
	exprs    map[string]string // check token -> expression source
}

// NewCELResolver compiles an environment for the given expressions, keyed by
// check token. Checks without an expression are always enabled.
func NewCELResolver(exprs map[string]string) (*CELResolver, error) {
	env, err := cel.NewEnv(
		cel.Variable("check", cel.StringType),
		cel.Variable("market", cel.StringType),
		cel.Variable("timestamp", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("flags: cel environment: %w", err)
	}
	return &CELResolver{
		env:      env,
		programs: make(map[string]cel.Program),
		exprs:    exprs,
	}, nil
}

func (r *CELResolver) IsEnabled(_ context.Context, check, market string) (bool, error) {
	expr, ok := r.exprs[check]
	if !ok || expr == "" {
		return true, nil
	}

	prg, err := r.program(expr)
	if err != nil {
		return true, err
	}

	out, _, err := prg.Eval(map[string]any{
		"check":     check,
		"market":    market,
		"timestamp": time.Now().Unix(),
	})
	if err != nil {
		return true, fmt.Errorf("flags: eval %q: %w", check, err)
	}
	enabled, ok := out.Value().(bool)
	if !ok {
		return true, fmt.Errorf("flags: expression for %q is not boolean", check)
	}
	return enabled, nil
}

func (r *CELResolver) program(expr string) (cel.Program, error) {
	r.mu.RLock()
	prg, hit := r.programs[expr]
	r.mu.RUnlock()
	if hit {
		return prg, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if prg, hit = r.programs[expr]; hit {
		return prg, nil
	}
	ast, issues := r.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("flags: compile: %w", issues.Err())
	}
	prg, err := r.env.Program(ast,
		cel.InterruptCheckFrequency(100),
		cel.CostLimit(10000),
	)
	if err != nil {
		return nil, fmt.Errorf("flags: program: %w", err)
	}
	r.programs[expr] = prg
	return prg, nil
}
