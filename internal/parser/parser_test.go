package parser

import (
	"testing"

	"github.com/gelaysabelle/medical-triage-interpreter/internal/ast"
)

func TestParseSimpleRule(t *testing.T) {
	script, err := Parse(`IF 'hr' > 100 THEN
  SET 'risk' = "high"
ELSE
  SET 'risk' = "low"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(script.Rules) != 1 {
		t.Fatalf("got %d rules, want 1", len(script.Rules))
	}

	rule := script.Rules[0]
	cmp, ok := rule.Condition.(*ast.Cmp)
	if !ok {
		t.Fatalf("condition is %T, want *ast.Cmp", rule.Condition)
	}
	if cmp.Left.Name != "hr" || cmp.Op != ast.OpGT {
		t.Errorf("condition = %s, want 'hr' > ...", cmp.String())
	}
	if len(rule.Then) != 1 || len(rule.Else) != 1 {
		t.Fatalf("THEN/ELSE lengths = %d/%d, want 1/1", len(rule.Then), len(rule.Else))
	}
}

func TestAndOrShareOneLeftAssociativeLoop(t *testing.T) {
	// 'a' > 1 AND 'b' > 2 OR 'c' > 3 must parse as ((a AND b) OR c), never
	// as a AND (b OR c) — there is no AND-over-OR precedence in this
	// grammar.
	script, err := Parse(`IF 'a' > 1 AND 'b' > 2 OR 'c' > 3 THEN SET 'x' = 1`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	or, ok := script.Rules[0].Condition.(*ast.Or)
	if !ok {
		t.Fatalf("top node is %T, want *ast.Or", script.Rules[0].Condition)
	}
	and, ok := or.Left.(*ast.And)
	if !ok {
		t.Fatalf("or.Left is %T, want *ast.And", or.Left)
	}
	if _, ok := and.Left.(*ast.Cmp); !ok {
		t.Errorf("and.Left is %T, want *ast.Cmp", and.Left)
	}
	if _, ok := or.Right.(*ast.Cmp); !ok {
		t.Errorf("or.Right is %T, want *ast.Cmp", or.Right)
	}
}

func TestParenthesesOverrideGrouping(t *testing.T) {
	script, err := Parse(`IF 'a' > 1 AND ('b' > 2 OR 'c' > 3) THEN SET 'x' = 1`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	and, ok := script.Rules[0].Condition.(*ast.And)
	if !ok {
		t.Fatalf("top node is %T, want *ast.And", script.Rules[0].Condition)
	}
	if _, ok := and.Right.(*ast.Or); !ok {
		t.Errorf("and.Right is %T, want *ast.Or", and.Right)
	}
}

func TestParseIsNull(t *testing.T) {
	script, err := Parse(`IF 'bp' IS NOT NULL THEN SET 'flagged' = TRUE`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	isNull, ok := script.Rules[0].Condition.(*ast.IsNull)
	if !ok {
		t.Fatalf("condition is %T, want *ast.IsNull", script.Rules[0].Condition)
	}
	if !isNull.Negated {
		t.Error("IS NOT NULL should set Negated = true")
	}
}

func TestParseCountWhere(t *testing.T) {
	script, err := Parse(`IF 'a' > 1 THEN SET 'n' = COUNT WHERE 'b' > 2`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	set, ok := script.Rules[0].Then[0].(*ast.Set)
	if !ok {
		t.Fatalf("action is %T, want *ast.Set", script.Rules[0].Then[0])
	}
	count, ok := set.Value.(*ast.Count)
	if !ok {
		t.Fatalf("SET value is %T, want *ast.Count", set.Value)
	}
	if count.ID() != 0 {
		t.Errorf("first Count node should get id 0, got %d", count.ID())
	}
}

func TestCountIDsAreUniquePerParse(t *testing.T) {
	script, err := Parse(`IF 'a' > 1 THEN
  SET 'n' = COUNT WHERE 'b' > 2

IF 'c' > 1 THEN
  SET 'm' = COUNT WHERE 'd' > 2`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := script.Rules[0].Then[0].(*ast.Set).Value.(*ast.Count)
	second := script.Rules[1].Then[0].(*ast.Set).Value.(*ast.Count)
	if first.ID() == second.ID() {
		t.Errorf("distinct Count nodes got the same id %d", first.ID())
	}
}

func TestBlankLineSeparatesTopLevelRules(t *testing.T) {
	script, err := Parse(`IF 'a' > 1 THEN
  SET 'x' = 1

IF 'b' > 1 THEN
  SET 'y' = 2`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(script.Rules) != 2 {
		t.Fatalf("got %d top-level rules, want 2", len(script.Rules))
	}
}

func TestNestedRuleWithoutBlankLineStaysNested(t *testing.T) {
	script, err := Parse(`IF 'a' > 1 THEN
  IF 'b' > 1 THEN
    SET 'y' = 2`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(script.Rules) != 1 {
		t.Fatalf("got %d top-level rules, want 1 (the inner IF should nest)", len(script.Rules))
	}
	nested, ok := script.Rules[0].Then[0].(*ast.Rule)
	if !ok {
		t.Fatalf("nested action is %T, want *ast.Rule", script.Rules[0].Then[0])
	}
	if len(nested.Then) != 1 {
		t.Fatalf("nested rule THEN has %d actions, want 1", len(nested.Then))
	}
}

func TestEmptyScriptIsAParseError(t *testing.T) {
	if _, err := Parse("   \n\n  "); err == nil {
		t.Fatal("expected a parse error for an empty script")
	}
}

func TestMissingThenIsAParseError(t *testing.T) {
	if _, err := Parse(`IF 'a' > 1 SET 'x' = 1`); err == nil {
		t.Fatal("expected a parse error for a missing THEN")
	}
}
