// Package eval implements the tree-walking evaluator for the rule language:
// rules run in source order, rows run in table order within each rule, NULL
// comparisons are false rather than erroring, AND/OR short-circuit, COUNT
// WHERE is a memoized full-table aggregate, and a per-row type-mismatch
// abandons only the current rule for that row rather than the whole run.
package eval

import (
	"fmt"

	"github.com/gelaysabelle/medical-triage-interpreter/internal/ast"
	"github.com/gelaysabelle/medical-triage-interpreter/internal/diag"
	"github.com/gelaysabelle/medical-triage-interpreter/internal/rowctx"
	"github.com/gelaysabelle/medical-triage-interpreter/internal/value"
	"github.com/sirupsen/logrus"
)

// WarnFunc receives every soft runtime diagnostic the evaluator produces.
type WarnFunc func(*diag.Diagnostic)

// Evaluator walks a Script against a Table. It holds no state between
// Evaluate calls other than its configured options, so a single Evaluator
// may run many scripts against many tables.
type Evaluator struct {
	warn WarnFunc
}

// Option configures an Evaluator via the functional-options pattern, so
// adding a new knob never breaks existing New/Evaluate call sites.
type Option func(*Evaluator)

// WithWarnSink overrides how soft runtime diagnostics are reported. The
// default sink logs through WithLogger's logger (or logrus.StandardLogger
// if WithLogger was not used).
func WithWarnSink(fn WarnFunc) Option {
	return func(e *Evaluator) { e.warn = fn }
}

// WithLogger routes soft runtime diagnostics to logger as structured
// warnings, with "row", "rule_line" and "rule_col" fields.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(e *Evaluator) {
		e.warn = func(d *diag.Diagnostic) {
			fields := logrus.Fields{"row": d.RowIndex}
			if d.Pos != nil {
				fields["rule_line"] = d.Pos.Line
				fields["rule_col"] = d.Pos.Column
			}
			logger.WithFields(fields).Warn(d.Message)
		}
	}
}

// New builds an Evaluator. With no options, soft diagnostics are logged
// through logrus.StandardLogger().
func New(opts ...Option) *Evaluator {
	e := &Evaluator{}
	for _, opt := range opts {
		opt(e)
	}
	if e.warn == nil {
		WithLogger(logrus.StandardLogger())(e)
	}
	return e
}

// Evaluate runs script against table in place and returns table. The only
// error it returns is a fatal setup failure; per-row runtime issues are
// soft and reported through the configured warn sink instead.
func Evaluate(script *ast.Script, table rowctx.Table, opts ...Option) (rowctx.Table, error) {
	if script == nil {
		return nil, diag.Setup("evaluate called with a nil script")
	}
	if table == nil {
		return nil, diag.Setup("evaluate called with a nil table")
	}
	e := New(opts...)
	e.run(script, table)
	return table, nil
}

// countMemo caches COUNT WHERE results by the originating *ast.Count's
// stable id, for the duration of one outer rule's evaluation across the
// whole table. A fresh memo is started per outer rule since a nested SET
// inside one rule's actions can mutate rows that a later rule's COUNT
// WHERE needs to see recomputed.
type countMemo map[int]int64

func (e *Evaluator) run(script *ast.Script, table rowctx.Table) {
	for _, rule := range script.Rules {
		memo := countMemo{}
		for i, row := range table {
			e.evalRule(rule, row, table, memo, i)
		}
	}
}

// evalRule evaluates one rule against one row. A condition that raises a
// runtime error abandons this rule for this row only: the warning is
// reported and neither the THEN nor ELSE actions run, but evaluation
// continues with the next row.
func (e *Evaluator) evalRule(rule *ast.Rule, row *rowctx.Row, table rowctx.Table, memo countMemo, rowIndex int) {
	result, err := e.evalExpr(rule.Condition, row, table, memo)
	if err != nil {
		e.warn(diag.Runtime(err.Error(), rule.Pos(), rowIndex))
		return
	}
	if truthy(result) {
		e.execActions(rule.Then, row, table, memo, rowIndex)
	} else if rule.Else != nil {
		e.execActions(rule.Else, row, table, memo, rowIndex)
	}
}

func (e *Evaluator) execActions(actions []ast.Action, row *rowctx.Row, table rowctx.Table, memo countMemo, rowIndex int) {
	for _, action := range actions {
		switch a := action.(type) {
		case *ast.Set:
			v, err := e.evalSetValue(a.Value, row, table, memo)
			if err != nil {
				e.warn(diag.Runtime(err.Error(), a.Pos(), rowIndex))
				continue
			}
			row.Set(string(a.Target), v)
		case *ast.Rule:
			// A nested rule runs against the same row context its
			// containing rule's SETs have already mutated.
			e.evalRule(a, row, table, memo, rowIndex)
		default:
			e.warn(diag.Runtime(fmt.Sprintf("unsupported action node %T", action), action.Pos(), rowIndex))
		}
	}
}

func truthy(v value.Value) bool {
	b, ok := v.(value.Bool)
	return ok && b.V
}

// evalSetValue evaluates the right-hand side of a SET action: a literal or
// a COUNT WHERE aggregate.
func (e *Evaluator) evalSetValue(expr ast.Expr, row *rowctx.Row, table rowctx.Table, memo countMemo) (value.Value, error) {
	switch n := expr.(type) {
	case *ast.Lit:
		return n.Val, nil
	case *ast.Count:
		return value.Int{V: e.countValue(n, table, memo)}, nil
	default:
		return nil, fmt.Errorf("unsupported SET value node %T", expr)
	}
}

// countValue computes (or returns the memoized) COUNT WHERE result: the
// number of rows in table for which condition is truthy. Row-level errors
// are swallowed — that row simply contributes zero, rather than turning a
// single type-mismatched cell into a warning storm across the whole table.
func (e *Evaluator) countValue(c *ast.Count, table rowctx.Table, memo countMemo) int64 {
	if n, ok := memo[c.ID()]; ok {
		return n
	}
	var n int64
	for _, r := range table {
		result, err := e.evalExpr(c.Condition, r, table, memo)
		if err != nil {
			continue
		}
		if truthy(result) {
			n++
		}
	}
	memo[c.ID()] = n
	return n
}

// evalExpr evaluates the condition language: And, Or, Not, Cmp, IsNull,
// Lit, Ident. Count is deliberately absent from this switch — it only ever
// appears as a SET right-hand side (see evalSetValue), never nested inside
// a condition.
func (e *Evaluator) evalExpr(expr ast.Expr, row *rowctx.Row, table rowctx.Table, memo countMemo) (value.Value, error) {
	switch n := expr.(type) {
	case *ast.And:
		left, err := e.evalExpr(n.Left, row, table, memo)
		if err != nil {
			return nil, err
		}
		if !truthy(left) {
			return value.Bool{V: false}, nil
		}
		right, err := e.evalExpr(n.Right, row, table, memo)
		if err != nil {
			return nil, err
		}
		return value.Bool{V: truthy(right)}, nil

	case *ast.Or:
		left, err := e.evalExpr(n.Left, row, table, memo)
		if err != nil {
			return nil, err
		}
		if truthy(left) {
			return value.Bool{V: true}, nil
		}
		right, err := e.evalExpr(n.Right, row, table, memo)
		if err != nil {
			return nil, err
		}
		return value.Bool{V: truthy(right)}, nil

	case *ast.Not:
		operand, err := e.evalExpr(n.Operand, row, table, memo)
		if err != nil {
			return nil, err
		}
		return value.Bool{V: !truthy(operand)}, nil

	case *ast.Cmp:
		left := row.Get(string(n.Left.Name))
		right, err := e.rvalue(n.Right, row)
		if err != nil {
			return nil, err
		}
		ok, err := compare(left, right, n.Op)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", n.Left.String(), err)
		}
		return value.Bool{V: ok}, nil

	case *ast.IsNull:
		v := row.Get(string(n.Target.Name))
		isNull := value.IsNull(v)
		if n.Negated {
			isNull = !isNull
		}
		return value.Bool{V: isNull}, nil

	case *ast.Lit:
		return n.Val, nil

	case *ast.Ident:
		return row.Get(string(n.Name)), nil

	default:
		return nil, fmt.Errorf("unsupported condition node %T", expr)
	}
}

// rvalue evaluates the right-hand side of a comparison: a literal, or a
// column read when the RHS is itself an identifier.
func (e *Evaluator) rvalue(expr ast.Expr, row *rowctx.Row) (value.Value, error) {
	switch n := expr.(type) {
	case *ast.Lit:
		return n.Val, nil
	case *ast.Ident:
		return row.Get(string(n.Name)), nil
	default:
		return nil, fmt.Errorf("unsupported comparison right-hand side %T", expr)
	}
}

// compare implements the NULL-safe, type-promoting comparison semantics of
// the condition language. Any comparison with a null operand yields false,
// never an error. Arithmetic comparisons (>, <, >=, <=) between non-numeric
// operands raise a type-mismatch error, which the caller turns into a soft
// per-row runtime warning. Equality (==, !=) never errors: operands of
// genuinely incompatible type (e.g. a string against a boolean) simply
// compare unequal — only arithmetic comparisons are defined to raise a
// mismatch (see DESIGN.md for this Open Question's resolution).
func compare(left, right value.Value, op ast.CmpOp) (bool, error) {
	if value.IsNull(left) || value.IsNull(right) {
		return false, nil
	}

	switch op {
	case ast.OpGT, ast.OpLT, ast.OpGTE, ast.OpLTE:
		if !value.IsNumeric(left) || !value.IsNumeric(right) {
			return false, fmt.Errorf("type mismatch: cannot compare %s %s %s", left.Kind(), op, right.Kind())
		}
		lf, _ := value.AsFloat(left)
		rf, _ := value.AsFloat(right)
		switch op {
		case ast.OpGT:
			return lf > rf, nil
		case ast.OpLT:
			return lf < rf, nil
		case ast.OpGTE:
			return lf >= rf, nil
		default: // ast.OpLTE
			return lf <= rf, nil
		}

	case ast.OpEQ, ast.OpNEQ:
		eq := valuesEqual(left, right)
		if op == ast.OpNEQ {
			return !eq, nil
		}
		return eq, nil

	default:
		return false, fmt.Errorf("unknown comparison operator %v", op)
	}
}

// valuesEqual implements the language's equality semantics: numeric
// operands promote (1 == 1.0), strings compare byte-wise, booleans compare
// directly, and any other type pairing is simply unequal.
func valuesEqual(a, b value.Value) bool {
	if af, aok := value.AsFloat(a); aok {
		if bf, bok := value.AsFloat(b); bok {
			return af == bf
		}
		return false
	}
	switch at := a.(type) {
	case value.Str:
		bt, ok := b.(value.Str)
		return ok && at.V == bt.V
	case value.Bool:
		bt, ok := b.(value.Bool)
		return ok && at.V == bt.V
	default:
		return false
	}
}
