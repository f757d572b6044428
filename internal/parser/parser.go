// Package parser implements a recursive-descent parser for the rule
// language. It is hand-rolled rather than built on a Pratt/precedence
// table: the grammar's precedence (parens > IS NULL/comparison > NOT >
// AND/OR, with AND and OR sharing one left-associative loop) is small and
// fixed, so one recursive-descent function per grammar production is
// simpler than a generalized operator-precedence parser would be.
package parser

import (
	"fmt"

	"github.com/gelaysabelle/medical-triage-interpreter/internal/ast"
	"github.com/gelaysabelle/medical-triage-interpreter/internal/diag"
	"github.com/gelaysabelle/medical-triage-interpreter/internal/lexer"
	"github.com/gelaysabelle/medical-triage-interpreter/internal/token"
	"github.com/gelaysabelle/medical-triage-interpreter/internal/value"
)

// Parser consumes a token list and builds a Script AST. It never attempts
// error recovery: the first error aborts parsing.
type Parser struct {
	toks    []token.Token
	pos     int
	countID int // next id to assign to a parsed *ast.Count node
}

// New builds a Parser over an already-scanned token list.
func New(toks []token.Token) *Parser {
	return &Parser{toks: toks}
}

// Parse tokenizes src and parses it in one step — the common case for
// callers that don't need the intermediate token stream.
func Parse(src string) (*ast.Script, error) {
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return nil, err
	}
	return New(toks).ParseScript()
}

func (p *Parser) cur() token.Token {
	return p.toks[p.pos]
}

func (p *Parser) peek() token.Token {
	if p.pos+1 < len(p.toks) {
		return p.toks[p.pos+1]
	}
	return p.toks[len(p.toks)-1]
}

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) at(t token.Type) bool { return p.cur().Type == t }

func (p *Parser) expect(t token.Type) (token.Token, error) {
	if !p.at(t) {
		return token.Token{}, p.errorf("expected %s but got %s", t, p.cur().Type)
	}
	return p.advance(), nil
}

func (p *Parser) errorf(format string, args ...any) error {
	return diag.Parse(fmt.Sprintf(format, args...), p.cur().Pos)
}

// skipNewlines consumes zero or more NEWLINE tokens.
func (p *Parser) skipNewlines() {
	for p.at(token.NEWLINE) {
		p.advance()
	}
}

// blankLineAhead reports whether the current position is a "blank-line"
// separator — two or more consecutive NEWLINE tokens — immediately followed
// by IF. This is the sole heuristic that delimits one top-level rule's
// action list from the next; it is checked only at top level, never while
// parsing a nested rule's action list.
func (p *Parser) blankLineAhead() bool {
	if !p.at(token.NEWLINE) || p.peek().Type != token.NEWLINE {
		return false
	}
	i := p.pos
	for i < len(p.toks) && p.toks[i].Type == token.NEWLINE {
		i++
	}
	return i < len(p.toks) && p.toks[i].Type == token.IF
}

// ParseScript parses the entire token stream into a Script.
//
//	Script = { Newline } Rule { { Newline } Rule } { Newline }
func (p *Parser) ParseScript() (*ast.Script, error) {
	script := &ast.Script{}
	p.skipNewlines()
	for !p.at(token.EOF) {
		rule, err := p.parseTopLevelRule()
		if err != nil {
			return nil, err
		}
		script.Rules = append(script.Rules, rule)
		p.skipNewlines()
	}
	if len(script.Rules) == 0 {
		return nil, diag.Parse("empty rule script: expected one or more 'IF' rules", p.cur().Pos)
	}
	return script, nil
}

// parseTopLevelRule parses one `IF ... THEN ... [ELSE ...]` rule, stopping
// its action lists at a blank-line separator rather than consuming IF
// aggressively (unlike a nested rule-as-action — see parseActionList).
//
//	Rule = "IF" Condition "THEN" { Newline } ActionList [ "ELSE" { Newline } ActionList ]
func (p *Parser) parseTopLevelRule() (*ast.Rule, error) {
	ifTok, err := p.expect(token.IF)
	if err != nil {
		return nil, err
	}
	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.THEN); err != nil {
		return nil, err
	}
	p.skipNewlines()

	then, err := p.parseActionList(true)
	if err != nil {
		return nil, err
	}
	if len(then) == 0 {
		return nil, diag.Parse("empty THEN block: expected at least one action", p.cur().Pos)
	}

	var elseActions []ast.Action
	if p.at(token.ELSE) {
		p.advance()
		p.skipNewlines()
		elseActions, err = p.parseActionList(true)
		if err != nil {
			return nil, err
		}
		if len(elseActions) == 0 {
			return nil, diag.Parse("empty ELSE block: expected at least one action", p.cur().Pos)
		}
	}

	return &ast.Rule{IfTok: ifTok, Condition: cond, Then: then, Else: elseActions}, nil
}

// parseActionList parses a run of actions separated by any number of
// newlines. When topLevel is true, a blank-line separator followed by IF
// ends the list (the top-level rule-boundary heuristic); when false —
// inside a nested rule's own THEN/ELSE — IF always starts another nested
// rule instead, since a nested block has no blank-line boundary of its own
// to detect.
func (p *Parser) parseActionList(topLevel bool) ([]ast.Action, error) {
	var actions []ast.Action
	for {
		if topLevel && p.blankLineAhead() {
			return actions, nil
		}
		switch {
		case p.at(token.SET):
			act, err := p.parseSetAction()
			if err != nil {
				return nil, err
			}
			actions = append(actions, act)
		case p.at(token.IF):
			nested, err := p.parseNestedRule()
			if err != nil {
				return nil, err
			}
			actions = append(actions, nested)
		default:
			return actions, nil
		}
		if !p.at(token.NEWLINE) {
			return actions, nil
		}
		if topLevel && p.blankLineAhead() {
			return actions, nil
		}
		p.skipNewlines()
	}
}

// parseNestedRule parses a Rule used as an Action. Its own action lists are
// parsed with topLevel=false, so they consume IF aggressively rather than
// applying the blank-line heuristic.
func (p *Parser) parseNestedRule() (*ast.Rule, error) {
	ifTok, err := p.expect(token.IF)
	if err != nil {
		return nil, err
	}
	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.THEN); err != nil {
		return nil, err
	}
	p.skipNewlines()

	then, err := p.parseActionList(false)
	if err != nil {
		return nil, err
	}
	if len(then) == 0 {
		return nil, diag.Parse("empty THEN block: expected at least one action", p.cur().Pos)
	}

	var elseActions []ast.Action
	if p.at(token.ELSE) {
		p.advance()
		p.skipNewlines()
		elseActions, err = p.parseActionList(false)
		if err != nil {
			return nil, err
		}
		if len(elseActions) == 0 {
			return nil, diag.Parse("empty ELSE block: expected at least one action", p.cur().Pos)
		}
	}

	return &ast.Rule{IfTok: ifTok, Condition: cond, Then: then, Else: elseActions}, nil
}

// parseSetAction parses `SET IDENT = (Literal | CountExpr)`.
func (p *Parser) parseSetAction() (*ast.Set, error) {
	setTok, err := p.expect(token.SET)
	if err != nil {
		return nil, err
	}
	identTok, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.ASSIGN); err != nil {
		return nil, err
	}

	var rhs ast.Expr
	switch {
	case p.at(token.COUNT):
		rhs, err = p.parseCount()
	case isLiteralStart(p.cur().Type):
		rhs, err = p.parseLiteral()
	default:
		err = p.errorf("expected a literal value or COUNT WHERE after '=', got %s", p.cur().Type)
	}
	if err != nil {
		return nil, err
	}

	return &ast.Set{Tok: setTok, Target: ast.Name(identTok.Lit), Value: rhs}, nil
}

func isLiteralStart(t token.Type) bool {
	switch t {
	case token.INT, token.FLOAT, token.STRING, token.BOOL, token.NULL:
		return true
	default:
		return false
	}
}

// parseCount parses `COUNT WHERE <condition>` and assigns it a stable id
// for the evaluator's per-rule memoization.
func (p *Parser) parseCount() (*ast.Count, error) {
	countTok, err := p.expect(token.COUNT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.WHERE); err != nil {
		return nil, err
	}
	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}
	c := &ast.Count{Tok: countTok, Condition: cond}
	c.SetID(p.countID)
	p.countID++
	return c, nil
}

// parseLiteral parses a Number, String, Boolean, or NULL literal.
func (p *Parser) parseLiteral() (*ast.Lit, error) {
	tok := p.advance()
	var v value.Value
	switch tok.Type {
	case token.INT:
		v = value.Int{V: tok.Int}
	case token.FLOAT:
		v = value.Real{V: tok.Float}
	case token.STRING:
		v = value.Str{V: tok.Lit}
	case token.BOOL:
		v = value.Bool{V: tok.Bool}
	case token.NULL:
		v = value.Null{}
	default:
		return nil, diag.Parse("expected a literal value, got "+tok.Type.String(), tok.Pos)
	}
	return &ast.Lit{Tok: tok, Val: v}, nil
}

// parseCondition is the entry point into the condition grammar.
//
//	Condition = OrExpr
func (p *Parser) parseCondition() (ast.Expr, error) {
	return p.parseOrExpr()
}

// parseOrExpr implements the grammar's single shared left-associative loop
// over AND and OR: they sit at one precedence level, so `A AND B OR C`
// parses as `(A AND B) OR C`, left to right. This is NOT conventional
// AND-binds-tighter-than-OR precedence, and must not be "fixed" to look
// like one.
//
//	OrExpr = AndAtom { ("AND" | "OR") AndAtom }
func (p *Parser) parseOrExpr() (ast.Expr, error) {
	left, err := p.parseAndAtom()
	if err != nil {
		return nil, err
	}
	for p.at(token.AND) || p.at(token.OR) {
		opTok := p.advance()
		right, err := p.parseAndAtom()
		if err != nil {
			return nil, err
		}
		if opTok.Type == token.AND {
			left = &ast.And{Tok: opTok, Left: left, Right: right}
		} else {
			left = &ast.Or{Tok: opTok, Left: left, Right: right}
		}
	}
	return left, nil
}

// parseAndAtom handles an optional NOT prefix.
//
//	AndAtom = [ "NOT" ] Atom
func (p *Parser) parseAndAtom() (ast.Expr, error) {
	if p.at(token.NOT) {
		notTok := p.advance()
		operand, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		return &ast.Not{Tok: notTok, Operand: operand}, nil
	}
	return p.parseAtom()
}

// parseAtom parses the smallest unit of a condition: a parenthesized group,
// or an identifier followed by either an IS [NOT] NULL suffix or a
// comparison operator and its right-hand side.
//
//	Atom    = "(" Condition ")" | Ident ( IsNull | Cmp )
//	IsNull  = "IS" [ "NOT" ] "NULL"
//	Cmp     = CmpOp (Literal | Ident)
func (p *Parser) parseAtom() (ast.Expr, error) {
	if p.at(token.LPAREN) {
		p.advance()
		inner, err := p.parseCondition()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return inner, nil
	}

	identTok, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	left := &ast.Ident{Tok: identTok, Name: ast.Name(identTok.Lit)}

	if p.at(token.IS) {
		isTok := p.advance()
		negated := false
		if p.at(token.NOT) {
			negated = true
			p.advance()
		}
		if _, err := p.expect(token.NULL); err != nil {
			return nil, err
		}
		return &ast.IsNull{Tok: isTok, Target: left, Negated: negated}, nil
	}

	op, ok := cmpOpFor(p.cur().Type)
	if !ok {
		return nil, p.errorf("expected a comparison operator or IS [NOT] NULL after %s, got %s", left.String(), p.cur().Type)
	}
	opToken := p.advance()

	var rhs ast.Expr
	switch {
	case p.at(token.IDENT):
		rt := p.advance()
		rhs = &ast.Ident{Tok: rt, Name: ast.Name(rt.Lit)}
	case isLiteralStart(p.cur().Type):
		rhs, err = p.parseLiteral()
		if err != nil {
			return nil, err
		}
	default:
		return nil, p.errorf("expected a literal value or identifier after operator, got %s", p.cur().Type)
	}

	return &ast.Cmp{Tok: opToken, Left: left, Op: op, Right: rhs}, nil
}

func cmpOpFor(t token.Type) (ast.CmpOp, bool) {
	switch t {
	case token.GT:
		return ast.OpGT, true
	case token.LT:
		return ast.OpLT, true
	case token.GTE:
		return ast.OpGTE, true
	case token.LTE:
		return ast.OpLTE, true
	case token.EQ_EQ:
		return ast.OpEQ, true
	case token.NOT_EQ:
		return ast.OpNEQ, true
	default:
		return 0, false
	}
}
