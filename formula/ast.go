// Package formula parses and evaluates closed-form expressions over named
// constants at the working precision of an apconst.Provider.
//
// Grammar, lowest precedence first:
//
//	expr    = term { ("+" | "-") term }
//	term    = unary { ("*" | "/") unary }
//	unary   = ("-" | "+") unary | power
//	power   = primary [ "^" unary ]
//	primary = number | name | call | "(" expr ")"
//	call    = name "(" expr { "," expr } ")"
//
// Names resolve to other formulas of the same Set first, then to provider
// constants. zeta(n) with an integer literal n is the constant "zeta(n)".
package formula

import (
	"strings"
)

// Expr is a parsed expression tree.
type Expr interface {
	// String renders the canonical source form.
	String() string
	prec() int
	walk(fn func(Expr))
}

// Num is a decimal literal, kept as text so it is rounded once at the working precision.
type Num struct{ Text string }

// Ref references a formula or constant by name.
type Ref struct{ Name string }

// Neg is unary minus.
type Neg struct{ X Expr }

// Binary is one of + - * / ^.
type Binary struct {
	Op   byte
	L, R Expr
}

// Call applies a built-in function.
type Call struct {
	Fn   string
	Args []Expr
}

// functions maps built-in names to their arity.
var functions = map[string]int{
	"sqrt":     1,
	"ln":       1,
	"log":      1,
	"log10":    1,
	"exp":      1,
	"asin":     1,
	"sin":      1,
	"cos":      1,
	"abs":      1,
	"degrees":  1,
	"quadroot": 2,
}

// precedence levels
const (
	precAdd = iota + 1
	precMul
	precNeg
	precPow
	precAtom
)

func (n *Num) String() string    { return n.Text }
func (n *Num) prec() int         { return precAtom }
func (n *Num) walk(fn func(Expr)) { fn(n) }

func (r *Ref) String() string    { return r.Name }
func (r *Ref) prec() int         { return precAtom }
func (r *Ref) walk(fn func(Expr)) { fn(r) }

func (n *Neg) String() string { return "-" + wrap(n.X, precNeg, false) }
func (n *Neg) prec() int     { return precNeg }
func (n *Neg) walk(fn func(Expr)) {
	fn(n)
	n.X.walk(fn)
}

func (b *Binary) String() string {
	p := b.prec()
	if b.Op == '^' {
		return wrap(b.L, p, true) + "^" + wrap(b.R, p, false)
	}
	return wrap(b.L, p, false) + " " + string(b.Op) + " " + wrap(b.R, p, true)
}

func (b *Binary) prec() int {
	switch b.Op {
	case '+', '-':
		return precAdd
	case '*', '/':
		return precMul
	default:
		return precPow
	}
}

func (b *Binary) walk(fn func(Expr)) {
	fn(b)
	b.L.walk(fn)
	b.R.walk(fn)
}

func (c *Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return c.Fn + "(" + strings.Join(args, ", ") + ")"
}

func (c *Call) prec() int { return precAtom }

func (c *Call) walk(fn func(Expr)) {
	fn(c)
	for _, a := range c.Args {
		a.walk(fn)
	}
}

// wrap parenthesizes x when it binds looser than the parent. strict also
// wraps equal precedence (right operand of - and /, left operand of ^).
func wrap(x Expr, parent int, strict bool) string {
	p := x.prec()
	if p < parent || (strict && p == parent) {
		return "(" + x.String() + ")"
	}
	return x.String()
}

// Refs returns the distinct names referenced by x in first-use order.
func Refs(x Expr) []string {
	seen := make(map[string]bool)
	var out []string
	x.walk(func(e Expr) {
		if r, ok := e.(*Ref); ok && !seen[r.Name] {
			seen[r.Name] = true
			out = append(out, r.Name)
		}
	})
	return out
}
