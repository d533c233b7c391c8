package rules

import (
	"fmt"
	"sync"

	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/google/cel-go/cel"
)

const (
	maxExpressionLength = 1000
	maxCachedPrograms   = 512
)

// CELEvaluator runs custom eligibility rules written in CEL against the
// `tester` variable. Compiled programs are cached by expression text.
type CELEvaluator struct {
	env   *cel.Env
	mu    sync.RWMutex
	cache map[string]cel.Program
}

func NewCELEvaluator() (*CELEvaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("tester", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel environment: %w", err)
	}
	return &CELEvaluator{env: env, cache: make(map[string]cel.Program)}, nil
}

// Validate compiles the rule and checks that it yields a boolean.
func (e *CELEvaluator) Validate(expr string) error {
	_, err := e.program(expr)
	return err
}

func (e *CELEvaluator) Evaluate(expr string, tester map[string]any) (bool, error) {
	prg, err := e.program(expr)
	if err != nil {
		return false, err
	}
	out, _, err := prg.Eval(map[string]any{"tester": tester})
	if err != nil {
		return false, fmt.Errorf("eval: %w", err)
	}
	val, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("custom rule did not return a bool")
	}
	return val, nil
}

func (e *CELEvaluator) program(expr string) (cel.Program, error) {
	if len(expr) > maxExpressionLength {
		return nil, fmt.Errorf("%w: custom rule exceeds %d characters", domain.ErrInvalidInput, maxExpressionLength)
	}
	e.mu.RLock()
	prg, hit := e.cache[expr]
	e.mu.RUnlock()
	if hit {
		return prg, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if prg, hit = e.cache[expr]; hit {
		return prg, nil
	}
	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: custom rule: %v", domain.ErrInvalidInput, issues.Err())
	}
	if t := ast.OutputType(); !t.IsExactType(cel.BoolType) && !t.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("%w: custom rule must evaluate to a bool, got %s", domain.ErrInvalidInput, t)
	}
	prg, err := e.env.Program(ast,
		cel.InterruptCheckFrequency(100),
		cel.CostLimit(10000),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: custom rule: %v", domain.ErrInvalidInput, err)
	}
	if len(e.cache) >= maxCachedPrograms {
		clear(e.cache)
	}
	e.cache[expr] = prg
	return prg, nil
}
