package ast

import (
	"strings"
	"testing"

	"github.com/gelaysabelle/medical-triage-interpreter/internal/token"
	"github.com/gelaysabelle/medical-triage-interpreter/internal/value"
)

func TestRuleStringRoundTripsSurfaceSyntax(t *testing.T) {
	rule := &Rule{
		Condition: &Cmp{
			Left:  &Ident{Name: "hr"},
			Op:    OpGT,
			Right: &Lit{Val: value.Int{V: 100}},
		},
		Then: []Action{
			&Set{Target: "risk", Value: &Lit{Val: value.Str{V: "high"}}},
		},
		Else: []Action{
			&Set{Target: "risk", Value: &Lit{Val: value.Str{V: "low"}}},
		},
	}

	got := rule.String()
	for _, want := range []string{"IF 'hr' > 100 THEN", `SET 'risk' = "high"`, "ELSE", `SET 'risk' = "low"`} {
		if !strings.Contains(got, want) {
			t.Errorf("Rule.String() = %q, missing %q", got, want)
		}
	}
}

func TestNestedRuleIndentation(t *testing.T) {
	inner := &Rule{
		Condition: &Cmp{Left: &Ident{Name: "bp"}, Op: OpGT, Right: &Lit{Val: value.Int{V: 140}}},
		Then:      []Action{&Set{Target: "flag", Value: &Lit{Val: value.Bool{V: true}}}},
	}
	outer := &Rule{
		Condition: &Cmp{Left: &Ident{Name: "hr"}, Op: OpGT, Right: &Lit{Val: value.Int{V: 100}}},
		Then:      []Action{inner},
	}

	got := outer.String()
	if !strings.Contains(got, "  IF 'bp' > 140 THEN") {
		t.Errorf("nested rule should be indented by two spaces, got:\n%s", got)
	}
}

func TestCmpOpString(t *testing.T) {
	tests := []struct {
		op   CmpOp
		want string
	}{
		{OpGT, ">"}, {OpLT, "<"}, {OpGTE, ">="}, {OpLTE, "<="}, {OpEQ, "=="}, {OpNEQ, "!="},
	}
	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("CmpOp(%d).String() = %q, want %q", tt.op, got, tt.want)
		}
	}
}

func TestCountIDDefaultsToZero(t *testing.T) {
	c := &Count{Tok: token.Token{}, Condition: &Lit{Val: value.Bool{V: true}}}
	if c.ID() != 0 {
		t.Errorf("a freshly constructed Count should default to id 0, got %d", c.ID())
	}
	c.SetID(5)
	if c.ID() != 5 {
		t.Errorf("SetID(5) then ID() = %d, want 5", c.ID())
	}
}

func TestLitStringQuotesStringsOnly(t *testing.T) {
	if got := (&Lit{Val: value.Str{V: "high"}}).String(); got != `"high"` {
		t.Errorf("string literal String() = %q, want %q", got, `"high"`)
	}
	if got := (&Lit{Val: value.Int{V: 5}}).String(); got != "5" {
		t.Errorf("int literal String() = %q, want %q", got, "5")
	}
}
