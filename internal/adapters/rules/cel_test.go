package rules

import (
	"strings"
	"testing"

	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCELEvaluator(t *testing.T) {
	t.Parallel()

	eval, err := NewCELEvaluator()
	require.NoError(t, err)

	tester := map[string]any{
		"age":                30,
		"country":            "FR",
		"gender":             "FEMALE",
		"average_rating":     4.5,
		"completed_sessions": 7,
		"categories":         []string{"electronics"},
	}
	cases := []struct {
		expr string
		want bool
	}{
		{`tester.age >= 18 && tester.country == "FR"`, true},
		{`tester.age > 30`, false},
		{`tester.average_rating >= 4.0 || tester.completed_sessions > 10`, true},
		{`"electronics" in tester.categories`, true},
		{`tester.gender in ["MALE", "OTHER"]`, false},
	}
	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			got, err := eval.Evaluate(tc.expr, tester)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	// Served from the program cache the second time.
	got, err := eval.Evaluate(cases[0].expr, tester)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestCELEvaluatorRejectsBadRules(t *testing.T) {
	t.Parallel()

	eval, err := NewCELEvaluator()
	require.NoError(t, err)

	for _, expr := range []string{
		`tester.age >`,
		`seller.rating > 3`,
		`"always"`,
		strings.Repeat("x", maxExpressionLength+1),
	} {
		assert.ErrorIs(t, eval.Validate(expr), domain.ErrInvalidInput, expr)
	}

	_, err = eval.Evaluate(`tester.country`, map[string]any{"country": "FR"})
	assert.ErrorContains(t, err, "did not return a bool")

	_, err = eval.Evaluate(`tester.age > 3`, map[string]any{"country": "FR"})
	assert.Error(t, err, "missing attribute")
}
