// Package lexer implements the scanner for the rule language: a
// single-cursor, one-character-of-lookahead state machine that reads
// rune-by-rune and reports 1-based line/column positions. It accumulates
// every lex error it finds rather than stopping at the first one so a
// caller can report them all, but Tokenize itself treats any non-empty
// error list as fatal and surfaces only the first.
package lexer

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gelaysabelle/medical-triage-interpreter/internal/diag"
	"github.com/gelaysabelle/medical-triage-interpreter/internal/token"
)

func parseInt(s string) (int64, error)     { return strconv.ParseInt(s, 10, 64) }
func parseFloat(s string) (float64, error) { return strconv.ParseFloat(s, 64) }

// Lexer scans rule-script source text into a Token stream.
type Lexer struct {
	input        string
	position     int // byte offset of ch
	readPosition int // byte offset of the next rune
	line         int
	column       int // rune count from the start of the current line
	ch           rune
	errors       []*diag.Diagnostic
}

// New creates a Lexer over the given source text.
func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1}
	l.readChar()
	return l
}

// Errors returns every lex error accumulated so far.
func (l *Lexer) Errors() []*diag.Diagnostic {
	return l.errors
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = l.readPosition
		l.column++
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += size
	l.column++
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func (l *Lexer) currentPos() token.Position {
	return token.Position{Line: l.line, Column: l.column, Offset: l.position}
}

func (l *Lexer) addError(msg string, pos token.Position) {
	l.errors = append(l.errors, diag.Lex(msg, pos))
}

func (l *Lexer) newline() {
	l.line++
	l.column = 0
}

// skipWhitespaceAndComments skips spaces, tabs, carriage returns and `#`
// line comments, but leaves newlines for the caller — they are their own
// token kind, since a rule's top-level statements are separated by blank
// lines and the parser needs to see them.
func (l *Lexer) skipWhitespaceAndComments() {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\r':
			l.readChar()
		case l.ch == '#':
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
		default:
			return
		}
	}
}

func isDigit(ch rune) bool { return ch >= '0' && ch <= '9' }
func isLetter(ch rune) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}
func isIdentRune(ch rune) bool { return isLetter(ch) || isDigit(ch) }

// NextToken scans and returns the single next token.
func (l *Lexer) NextToken() token.Token {
	l.skipWhitespaceAndComments()
	pos := l.currentPos()

	switch {
	case l.ch == 0:
		return token.New(token.EOF, "", pos)
	case l.ch == '\n':
		l.newline()
		l.readChar()
		return token.New(token.NEWLINE, "\n", pos)
	case l.ch == '(':
		l.readChar()
		return token.New(token.LPAREN, "(", pos)
	case l.ch == ')':
		l.readChar()
		return token.New(token.RPAREN, ")", pos)
	case l.ch == '"':
		return l.readString(pos)
	case l.ch == '\'':
		return l.readQuotedIdent(pos)
	case isDigit(l.ch):
		return l.readNumber(pos)
	case l.ch == '>':
		return l.readOneOrTwo(pos, '=', token.GT, token.GTE, ">", ">=")
	case l.ch == '<':
		return l.readOneOrTwo(pos, '=', token.LT, token.LTE, "<", "<=")
	case l.ch == '=':
		return l.readOneOrTwo(pos, '=', token.ASSIGN, token.EQ_EQ, "=", "==")
	case l.ch == '!':
		l.readChar()
		if l.ch == '=' {
			l.readChar()
			return token.New(token.NOT_EQ, "!=", pos)
		}
		l.addError("unexpected character '!' (did you mean '!='?)", pos)
		return token.New(token.ILLEGAL, "!", pos)
	case isLetter(l.ch):
		return l.readWord(pos)
	default:
		ch := l.ch
		l.readChar()
		l.addError("unexpected character "+quoteRune(ch), pos)
		return token.New(token.ILLEGAL, string(ch), pos)
	}
}

func quoteRune(r rune) string {
	return "'" + string(r) + "'"
}

// readOneOrTwo scans an operator that may be extended by a trailing '='
// (>, >=, <, <=, =, ==), matching greedily so ">=" never lexes as ">"
// followed by "=".
func (l *Lexer) readOneOrTwo(pos token.Position, second rune, single, double token.Type, singleLit, doubleLit string) token.Token {
	l.readChar()
	if l.ch == second {
		l.readChar()
		return token.New(double, doubleLit, pos)
	}
	return token.New(single, singleLit, pos)
}

// readNumber scans an integer or floating-point literal: one or more digits,
// optionally followed by a '.' and one or more further digits. More than one
// '.', or a '.' with no digit after it (e.g. "3."), is a lex error — a
// trailing bare dot is rejected here rather than left to parseFloat, which
// would otherwise happily accept it as "3.0".
func (l *Lexer) readNumber(pos token.Position) token.Token {
	var sb strings.Builder
	dots := 0
	for isDigit(l.ch) || l.ch == '.' {
		if l.ch == '.' {
			dots++
		}
		sb.WriteRune(l.ch)
		l.readChar()
	}
	lit := sb.String()

	if dots > 1 {
		l.addError("invalid number literal "+quoteStr(lit)+": more than one '.'", pos)
		return token.New(token.ILLEGAL, lit, pos)
	}
	if dots == 1 {
		dot := strings.IndexByte(lit, '.')
		if dot == len(lit)-1 {
			l.addError("invalid number literal "+quoteStr(lit)+": '.' must be followed by at least one digit", pos)
			return token.New(token.ILLEGAL, lit, pos)
		}
		f, err := parseFloat(lit)
		if err != nil {
			l.addError("invalid number literal "+quoteStr(lit), pos)
			return token.New(token.ILLEGAL, lit, pos)
		}
		tok := token.New(token.FLOAT, lit, pos)
		tok.Float = f
		return tok
	}
	n, err := parseInt(lit)
	if err != nil {
		l.addError("invalid number literal "+quoteStr(lit), pos)
		return token.New(token.ILLEGAL, lit, pos)
	}
	tok := token.New(token.INT, lit, pos)
	tok.Int = n
	return tok
}

// readString scans a double-quoted string literal.
func (l *Lexer) readString(pos token.Position) token.Token {
	l.readChar() // consume opening quote
	var sb strings.Builder
	for l.ch != '"' && l.ch != 0 {
		if l.ch == '\n' {
			l.newline()
		}
		sb.WriteRune(l.ch)
		l.readChar()
	}
	if l.ch == 0 {
		l.addError("unterminated string literal", pos)
		return token.New(token.ILLEGAL, sb.String(), pos)
	}
	l.readChar() // consume closing quote
	return token.New(token.STRING, sb.String(), pos)
}

// readQuotedIdent scans a single-quoted column name. It may contain spaces
// or punctuation other than the quote character itself, since column names
// come from arbitrary external data headers, not from a restricted
// identifier alphabet.
func (l *Lexer) readQuotedIdent(pos token.Position) token.Token {
	l.readChar() // consume opening quote
	var sb strings.Builder
	for l.ch != '\'' && l.ch != 0 {
		if l.ch == '\n' {
			l.newline()
		}
		sb.WriteRune(l.ch)
		l.readChar()
	}
	if l.ch == 0 {
		l.addError("unterminated quoted identifier", pos)
		return token.New(token.ILLEGAL, sb.String(), pos)
	}
	l.readChar() // consume closing quote
	return token.New(token.IDENT, sb.String(), pos)
}

// readWord scans an unquoted alphabetic run and resolves it against the
// reserved-word table, case-insensitively. Anything that is not a reserved
// word is a lex error: column names must be quoted, so an unquoted word can
// only ever mean a keyword, never a field reference.
func (l *Lexer) readWord(pos token.Position) token.Token {
	var sb strings.Builder
	for isIdentRune(l.ch) {
		sb.WriteRune(l.ch)
		l.readChar()
	}
	word := sb.String()
	lower := strings.ToLower(word)

	typ, ok := token.LookupKeyword(lower)
	if !ok {
		l.addError("unquoted word "+quoteStr(word)+" is not a reserved word; quote column names with single quotes", pos)
		return token.New(token.ILLEGAL, word, pos)
	}
	if typ == token.BOOL {
		tok := token.New(token.BOOL, word, pos)
		tok.Bool = lower == "true"
		return tok
	}
	return token.New(typ, strings.ToUpper(word), pos)
}

func quoteStr(s string) string { return "\"" + s + "\"" }

// Tokenize runs NextToken to completion, returning the full token sequence
// (always ending with a single EOF token) or the first accumulated lex
// error. Scanning stops as soon as the first EOF is produced, so the
// output never has adjacent duplicate EOF tokens.
func Tokenize(input string) ([]token.Token, error) {
	l := New(input)
	var toks []token.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	if errs := l.Errors(); len(errs) > 0 {
		return nil, errs[0]
	}
	return toks, nil
}
