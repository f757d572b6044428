package eval

import (
	"testing"

	"github.com/gelaysabelle/medical-triage-interpreter/internal/diag"
	"github.com/gelaysabelle/medical-triage-interpreter/internal/parser"
	"github.com/gelaysabelle/medical-triage-interpreter/internal/rowctx"
	"github.com/gelaysabelle/medical-triage-interpreter/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateSimpleIfElse(t *testing.T) {
	script, err := parser.Parse(`IF 'hr' > 100 THEN
  SET 'risk' = "high"
ELSE
  SET 'risk' = "low"`)
	require.NoError(t, err)

	table := rowctx.Table{rowFrom(map[string]value.Value{"hr": value.Int{V: 120}})}
	table, err = Evaluate(script, table)
	require.NoError(t, err)

	assert.Equal(t, value.Str{V: "high"}, table[0].Get("risk"))
}

func TestEvaluateElseBranch(t *testing.T) {
	script, err := parser.Parse(`IF 'hr' > 100 THEN
  SET 'risk' = "high"
ELSE
  SET 'risk' = "low"`)
	require.NoError(t, err)

	table := rowctx.Table{rowFrom(map[string]value.Value{"hr": value.Int{V: 80}})}
	table, err = Evaluate(script, table)
	require.NoError(t, err)

	assert.Equal(t, value.Str{V: "low"}, table[0].Get("risk"))
}

func TestEvaluateNullComparisonIsFalse(t *testing.T) {
	script, err := parser.Parse(`IF 'hr' > 100 THEN
  SET 'risk' = "high"
ELSE
  SET 'risk' = "unknown"`)
	require.NoError(t, err)

	table := rowctx.Table{rowFrom(nil)} // 'hr' is never set -> Null
	table, err = Evaluate(script, table)
	require.NoError(t, err)

	assert.Equal(t, value.Str{V: "unknown"}, table[0].Get("risk"))
}

func TestEvaluateAndShortCircuits(t *testing.T) {
	// If AND did not short-circuit, the type-mismatch comparison on the
	// second operand would raise a runtime warning for every row.
	script, err := parser.Parse(`IF 'hr' > 100 AND 'label' > 1 THEN
  SET 'flagged' = TRUE
ELSE
  SET 'flagged' = FALSE`)
	require.NoError(t, err)

	var warnings []*diag.Diagnostic
	table := rowctx.Table{rowFrom(map[string]value.Value{"hr": value.Int{V: 50}, "label": value.Str{V: "x"}})}
	table, err = Evaluate(script, table, WithWarnSink(func(d *diag.Diagnostic) { warnings = append(warnings, d) }))
	require.NoError(t, err)

	assert.Equal(t, value.Bool{V: false}, table[0].Get("flagged"))
	assert.Empty(t, warnings, "AND should short-circuit before evaluating the type-mismatched right operand")
}

func TestEvaluateTypeMismatchIsSoftPerRow(t *testing.T) {
	script, err := parser.Parse(`IF 'label' > 100 THEN
  SET 'risk' = "high"`)
	require.NoError(t, err)

	var warnings []*diag.Diagnostic
	table := rowctx.Table{
		rowFrom(map[string]value.Value{"label": value.Str{V: "abc"}}),
		rowFrom(map[string]value.Value{"label": value.Int{V: 200}}),
	}
	table, err = Evaluate(script, table, WithWarnSink(func(d *diag.Diagnostic) { warnings = append(warnings, d) }))
	require.NoError(t, err)

	assert.Len(t, warnings, 1, "only the first row's comparison should raise a type-mismatch warning")
	assert.False(t, table[0].Has("risk"), "the first row's rule was abandoned, so SET never ran")
	assert.Equal(t, value.Str{V: "high"}, table[1].Get("risk"))
}

func TestEvaluateCountWhereAggregatesFullTable(t *testing.T) {
	script, err := parser.Parse(`IF 'admitted' == TRUE THEN
  SET 'cohort_size' = COUNT WHERE 'admitted' == TRUE`)
	require.NoError(t, err)

	table := rowctx.Table{
		rowFrom(map[string]value.Value{"admitted": value.Bool{V: true}}),
		rowFrom(map[string]value.Value{"admitted": value.Bool{V: false}}),
		rowFrom(map[string]value.Value{"admitted": value.Bool{V: true}}),
	}
	table, err = Evaluate(script, table)
	require.NoError(t, err)

	assert.Equal(t, value.Int{V: 2}, table[0].Get("cohort_size"))
	assert.False(t, table[1].Has("cohort_size"))
	assert.Equal(t, value.Int{V: 2}, table[2].Get("cohort_size"))
}

func TestEvaluateNestedRuleSeesParentSets(t *testing.T) {
	script, err := parser.Parse(`IF 'hr' > 100 THEN
  SET 'flagged' = TRUE
  IF 'bp' > 140 THEN
    SET 'risk' = "critical"`)
	require.NoError(t, err)

	table := rowctx.Table{rowFrom(map[string]value.Value{"hr": value.Int{V: 110}, "bp": value.Int{V: 150}})}
	table, err = Evaluate(script, table)
	require.NoError(t, err)

	assert.Equal(t, value.Bool{V: true}, table[0].Get("flagged"))
	assert.Equal(t, value.Str{V: "critical"}, table[0].Get("risk"))
}

func TestEvaluateSetupErrors(t *testing.T) {
	_, err := Evaluate(nil, rowctx.Table{})
	require.Error(t, err)

	script, err := parser.Parse(`IF 'a' > 1 THEN SET 'x' = 1`)
	require.NoError(t, err)
	_, err = Evaluate(script, nil)
	require.Error(t, err)
}

func rowFrom(fields map[string]value.Value) *rowctx.Row {
	r := rowctx.NewRow()
	for k, v := range fields {
		r.Set(k, v)
	}
	return r
}
