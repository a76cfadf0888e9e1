package formula

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Knetic/govaluate"

	"github.com/lukaszgryglicki/apconst"
)

// Check compares the working-precision value of a formula with an
// independent float64 evaluation.
type Check struct {
	Name    string
	Precise float64 // working-precision value narrowed to float64
	Float   float64 // float64 evaluation through govaluate
	RelDiff float64 // |Float-Precise| / |Precise|, or the absolute difference when Precise is 0
}

// floatFunctions mirrors the call table in float64, with the same argument
// order as the high-precision evaluator.
var floatFunctions = map[string]govaluate.ExpressionFunction{
	"sqrt":    unary(math.Sqrt),
	"ln":      unary(math.Log),
	"log":     unary(math.Log),
	"log10":   unary(math.Log10),
	"exp":     unary(math.Exp),
	"asin":    unary(math.Asin),
	"sin":     unary(math.Sin),
	"cos":     unary(math.Cos),
	"abs":     unary(math.Abs),
	"degrees": unary(func(x float64) float64 { return x * 180 / math.Pi }),
	"quadroot": func(args ...interface{}) (interface{}, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("quadroot: want 2 arguments, got %d", len(args))
		}
		b, ok1 := args[0].(float64)
		c, ok2 := args[1].(float64)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("quadroot: non-numeric argument")
		}
		return (b + math.Sqrt(b*b-4*c)) / 2, nil
	},
}

func unary(f func(float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("want 1 argument, got %d", len(args))
		}
		x, ok := args[0].(float64)
		if !ok {
			return nil, fmt.Errorf("non-numeric argument %v", args[0])
		}
		return f(x), nil
	}
}

// CrossCheck evaluates names at working precision and again in float64,
// where formula references use the float64 results of their own checks and
// constants are narrowed from the provider. It catches formula tables whose
// high-precision result is far from any plausible float64 result.
func (e *Evaluator) CrossCheck(names []string) ([]Check, error) {
	floats := make(map[string]float64)
	var resolve func(name string) (float64, error)
	resolve = func(name string) (float64, error) {
		if f, ok := floats[name]; ok {
			return f, nil
		}
		for _, dep := range e.set.Deps(name) {
			if _, err := resolve(dep); err != nil {
				return 0, err
			}
		}
		f, err := e.floatEval(name, e.set.Expr(name), floats)
		if err != nil {
			return 0, err
		}
		floats[name] = f
		return f, nil
	}

	out := make([]Check, 0, len(names))
	for _, name := range names {
		v, err := e.Eval(name)
		if err != nil {
			return nil, err
		}
		f, err := resolve(name)
		if err != nil {
			return nil, err
		}
		c := Check{Name: name, Precise: v.Float64(), Float: f}
		c.RelDiff = math.Abs(c.Float - c.Precise)
		if c.Precise != 0 {
			c.RelDiff /= math.Abs(c.Precise)
		}
		out = append(out, c)
	}
	return out, nil
}

func (e *Evaluator) floatEval(owner string, x Expr, floats map[string]float64) (float64, error) {
	params := make(map[string]interface{})
	var b strings.Builder
	var err error
	emitFloat(&b, x, func(n Expr) string {
		key := "p" + strconv.Itoa(len(params))
		switch n := n.(type) {
		case *Num:
			f, perr := strconv.ParseFloat(n.Text, 64)
			if perr != nil && err == nil {
				err = apconst.EvalError(owner, perr)
			}
			params[key] = f
		case *Ref:
			if f, ok := floats[n.Name]; ok {
				params[key] = f
				break
			}
			v, gerr := e.prov.Get(n.Name)
			if gerr != nil && err == nil {
				err = apconst.EvalError(owner, gerr)
			}
			if v != nil {
				params[key] = v.Float64()
			}
		}
		return key
	})
	if err != nil {
		return 0, err
	}
	expr, err := govaluate.NewEvaluableExpressionWithFunctions(b.String(), floatFunctions)
	if err != nil {
		return 0, apconst.EvalError(owner, err)
	}
	res, err := expr.Evaluate(params)
	if err != nil {
		return 0, apconst.EvalError(owner, err)
	}
	f, ok := res.(float64)
	if !ok {
		return 0, apconst.EvalErrorf(owner, "float64 evaluation returned %T", res)
	}
	return f, nil
}

// emitFloat writes x in govaluate syntax, fully parenthesized. Leaves are
// replaced by parameter names obtained from leaf.
func emitFloat(b *strings.Builder, x Expr, leaf func(Expr) string) {
	switch x := x.(type) {
	case *Num, *Ref:
		b.WriteString(leaf(x))
	case *Neg:
		b.WriteString("(-")
		emitFloat(b, x.X, leaf)
		b.WriteString(")")
	case *Binary:
		op := string(x.Op)
		if x.Op == '^' {
			op = "**"
		}
		b.WriteString("(")
		emitFloat(b, x.L, leaf)
		b.WriteString(" " + op + " ")
		emitFloat(b, x.R, leaf)
		b.WriteString(")")
	case *Call:
		b.WriteString(x.Fn + "(")
		for i, a := range x.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			emitFloat(b, a, leaf)
		}
		b.WriteString(")")
	}
}
