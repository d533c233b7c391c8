package ports

// RuleEvaluator compiles and runs custom eligibility expressions against a
// tester attribute map.
type RuleEvaluator interface {
	Validate(expr string) error
	Evaluate(expr string, tester map[string]any) (bool, error)
}
