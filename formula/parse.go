package formula

import (
	"fmt"
	"strconv"

	"github.com/lukaszgryglicki/apconst"
)

// Parse parses src into an expression tree. Syntax errors are configuration
// errors: they come from a malformed formula table, not from evaluation.
func Parse(src string) (Expr, error) {
	x, err := parse(src)
	if err != nil {
		return nil, &apconst.Error{Kind: apconst.ErrConfiguration, Op: "parse formula", Name: src, Err: err}
	}
	return x, nil
}

func parse(src string) (Expr, error) {
	p := &parser{src: src}
	x, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	p.skipSpaces()
	if p.pos < len(p.src) {
		return nil, p.errorf("unexpected %q", p.src[p.pos:])
	}
	return x, nil
}

// MustParse panics on error.
func MustParse(src string) Expr {
	x, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return x
}

// parser is a recursive-descent parser over the raw source; there is no
// separate lexer.
type parser struct {
	src string
	pos int
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("at pos %d: "+format, append([]any{p.pos}, args...)...)
}

func (p *parser) skipSpaces() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t' || p.src[p.pos] == '\n') {
		p.pos++
	}
}

func (p *parser) peek() byte {
	p.skipSpaces()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) parseExpr() (Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek()
		if op != '+' && op != '-' {
			return left, nil
		}
		p.pos++
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, L: left, R: right}
	}
}

func (p *parser) parseTerm() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek()
		if op != '*' && op != '/' {
			return left, nil
		}
		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, L: left, R: right}
	}
}

func (p *parser) parseUnary() (Expr, error) {
	switch p.peek() {
	case '-':
		p.pos++
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Neg{X: x}, nil
	case '+':
		p.pos++
		return p.parseUnary()
	}
	return p.parsePower()
}

// parsePower is right-associative: 2^3^2 = 2^(3^2), and 2^-1 is accepted.
func (p *parser) parsePower() (Expr, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.peek() != '^' {
		return base, nil
	}
	p.pos++
	exp, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &Binary{Op: '^', L: base, R: exp}, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	c := p.peek()
	switch {
	case c == 0:
		return nil, p.errorf("unexpected end of input")
	case c == '(':
		p.pos++
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.peek() != ')' {
			return nil, p.errorf("expected ')'")
		}
		p.pos++
		return x, nil
	case isDigit(c) || c == '.':
		return p.parseNumber()
	case isIdentStart(c):
		name := p.parseIdent()
		if p.peek() != '(' {
			return &Ref{Name: name}, nil
		}
		p.pos++
		return p.parseCall(name)
	}
	return nil, p.errorf("unexpected %q", string(c))
}

func (p *parser) parseNumber() (Expr, error) {
	start := p.pos
	digits := 0
	for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
		p.pos++
		digits++
	}
	if p.pos < len(p.src) && p.src[p.pos] == '.' {
		p.pos++
		for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
			p.pos++
			digits++
		}
	}
	if digits == 0 {
		return nil, p.errorf("malformed number %q", p.src[start:p.pos])
	}
	if p.pos < len(p.src) && (p.src[p.pos] == 'e' || p.src[p.pos] == 'E') {
		mark := p.pos
		p.pos++
		if p.pos < len(p.src) && (p.src[p.pos] == '+' || p.src[p.pos] == '-') {
			p.pos++
		}
		expDigits := 0
		for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
			p.pos++
			expDigits++
		}
		if expDigits == 0 {
			p.pos = mark
			return nil, p.errorf("malformed exponent in %q", p.src[start:])
		}
	}
	return &Num{Text: p.src[start:p.pos]}, nil
}

func (p *parser) parseIdent() string {
	start := p.pos
	for p.pos < len(p.src) && isIdentPart(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) parseCall(name string) (Expr, error) {
	var args []Expr
	if p.peek() == ')' {
		p.pos++
	} else {
		for {
			a, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			c := p.peek()
			p.pos++
			if c == ')' {
				break
			}
			if c != ',' {
				p.pos--
				return nil, p.errorf("expected ',' or ')' in call to %s", name)
			}
		}
	}

	if name == "zeta" {
		if len(args) == 1 {
			if n, ok := args[0].(*Num); ok && isInteger(n.Text) {
				if v, err := strconv.Atoi(n.Text); err == nil {
					return &Ref{Name: apconst.ZetaName(v)}, nil
				}
			}
		}
		return nil, p.errorf("zeta takes a single integer literal")
	}
	arity, ok := functions[name]
	if !ok {
		return nil, p.errorf("unknown function %q", name)
	}
	if len(args) != arity {
		return nil, p.errorf("%s takes %d argument(s), got %d", name, arity, len(args))
	}
	return &Call{Fn: name, Args: args}, nil
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isIdentPart(c byte) bool  { return isIdentStart(c) || isDigit(c) }

func isInteger(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

// IsName reports whether s is a valid formula name.
func IsName(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentPart(s[i]) {
			return false
		}
	}
	return true
}
