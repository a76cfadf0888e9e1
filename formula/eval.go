package formula

import (
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lukaszgryglicki/apconst"
)

// Evaluator computes formulas of a Set against the constants of a Provider,
// at the provider's working precision. Each formula is computed at most once.
// An Evaluator is safe for concurrent use.
type Evaluator struct {
	prov  *apconst.Provider
	set   *Set
	bits  uint
	cache *apconst.Cache
	log   *slog.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(e *Evaluator) {
		if l != nil {
			e.log = l
		}
	}
}

// NewEvaluator binds set to prov. The provider's precision must be set and
// no formula may shadow one of its constants. The precision is frozen so
// literals and constants agree on it.
func NewEvaluator(prov *apconst.Provider, set *Set, opts ...Option) (*Evaluator, error) {
	if prov.Precision().IsZero() {
		return nil, &apconst.Error{Kind: apconst.ErrConfiguration, Op: "new evaluator", Err: errors.New("precision not set")}
	}
	for _, name := range set.names {
		if prov.Has(name) {
			return nil, &apconst.Error{Kind: apconst.ErrConfiguration, Op: "new evaluator", Name: name,
				Err: errors.New("formula shadows a constant")}
		}
	}
	p, err := prov.Freeze()
	if err != nil {
		return nil, err
	}
	e := &Evaluator{
		prov:  prov,
		set:   set,
		bits:  p.Bits(),
		cache: apconst.NewCache(),
		log:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Set returns the formula table.
func (e *Evaluator) Set() *Set { return e.set }

// Provider returns the constant provider.
func (e *Evaluator) Provider() *apconst.Provider { return e.prov }

// Stats returns the formula cache counters.
func (e *Evaluator) Stats() apconst.CacheStats { return e.cache.Stats() }

// Eval returns a copy of the value of the named formula.
func (e *Evaluator) Eval(name string) (*apconst.Real, error) {
	v, err := e.formula(name)
	if err != nil {
		return nil, err
	}
	return v.Clone(), nil
}

// EvalAll evaluates names with up to workers goroutines and returns the
// values in the order of names. workers <= 1 evaluates sequentially. On
// failure the error of the first failing name (by position) is returned.
func (e *Evaluator) EvalAll(names []string, workers int) ([]*apconst.Real, error) {
	out := make([]*apconst.Real, len(names))
	errs := make([]error, len(names))
	if workers <= 1 {
		for i, name := range names {
			v, err := e.Eval(name)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for i, name := range names {
		g.Go(func() error {
			out[i], errs[i] = e.Eval(name)
			return nil
		})
	}
	_ = g.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// EvalSource evaluates an expression that is not part of the set. It may
// refer to formulas and constants; its value is not cached.
func (e *Evaluator) EvalSource(src string) (*apconst.Real, error) {
	x, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return e.eval(src, x)
}

func (e *Evaluator) formula(name string) (*apconst.Real, error) {
	x := e.set.Expr(name)
	if x == nil {
		return nil, apconst.EvalError(name, &apconst.Error{Kind: apconst.ErrUnknownConstant, Op: "evaluate", Name: name})
	}
	return e.cache.Get(name, func() (*apconst.Real, error) {
		start := time.Now()
		v, err := e.eval(name, x)
		if err != nil {
			return nil, err
		}
		e.log.Debug("formula evaluated",
			slog.String("name", name),
			slog.Float64("approx", v.Float64()),
			slog.Duration("elapsed", time.Since(start)))
		return v, nil
	})
}

// eval evaluates x on behalf of the formula called owner. Returned values may
// be shared with the caches and must not be mutated.
func (e *Evaluator) eval(owner string, x Expr) (*apconst.Real, error) {
	return e.node(owner, x)
}

// node evaluates one subexpression. Every intermediate value must be finite.
func (e *Evaluator) node(owner string, x Expr) (*apconst.Real, error) {
	v, err := e.value(owner, x)
	if err != nil {
		return nil, err
	}
	if !v.IsFinite() {
		return nil, apconst.EvalErrorf(owner, "non-finite result of %s", x)
	}
	return v, nil
}

func (e *Evaluator) value(owner string, x Expr) (*apconst.Real, error) {
	switch x := x.(type) {
	case *Num:
		v, err := apconst.Parse(x.Text, e.bits)
		if err != nil {
			return nil, apconst.EvalError(owner, err)
		}
		return v, nil
	case *Ref:
		return e.ref(owner, x.Name)
	case *Neg:
		a, err := e.node(owner, x.X)
		if err != nil {
			return nil, err
		}
		return apconst.New(e.bits).Neg(a), nil
	case *Binary:
		return e.binary(owner, x)
	case *Call:
		return e.call(owner, x)
	}
	return nil, apconst.EvalErrorf(owner, "unsupported node %T", x)
}

func (e *Evaluator) ref(owner, name string) (*apconst.Real, error) {
	if e.set.Has(name) {
		v, err := e.formula(name)
		if err != nil {
			// already names the failing formula
			if errors.Is(err, apconst.ErrEvaluation) {
				return nil, err
			}
			return nil, apconst.EvalError(owner, err)
		}
		return v, nil
	}
	v, err := e.prov.Get(name)
	if err != nil {
		return nil, apconst.EvalError(owner, err)
	}
	return v, nil
}

func (e *Evaluator) binary(owner string, b *Binary) (*apconst.Real, error) {
	l, err := e.node(owner, b.L)
	if err != nil {
		return nil, err
	}
	r, err := e.node(owner, b.R)
	if err != nil {
		return nil, err
	}
	v := apconst.New(e.bits)
	switch b.Op {
	case '+':
		v.Add(l, r)
	case '-':
		v.Sub(l, r)
	case '*':
		v.Mul(l, r)
	case '/':
		if r.Sign() == 0 {
			return nil, apconst.EvalErrorf(owner, "division by zero in %s", b)
		}
		v.Div(l, r)
	case '^':
		v.Pow(l, r)
		if v.IsNaN() {
			return nil, apconst.EvalErrorf(owner, "negative base with non-integer exponent in %s", b)
		}
	}
	return v, nil
}

func (e *Evaluator) call(owner string, c *Call) (*apconst.Real, error) {
	args := make([]*apconst.Real, len(c.Args))
	for i, a := range c.Args {
		v, err := e.node(owner, a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	a := args[0]
	v := apconst.New(e.bits)
	switch c.Fn {
	case "sqrt":
		if a.Sign() < 0 {
			return nil, apconst.EvalErrorf(owner, "sqrt of negative value %s", a.Text(10))
		}
		v.Sqrt(a)
	case "ln", "log":
		if a.Sign() <= 0 {
			return nil, apconst.EvalErrorf(owner, "%s of non-positive value %s", c.Fn, a.Text(10))
		}
		v.Log(a)
	case "log10":
		if a.Sign() <= 0 {
			return nil, apconst.EvalErrorf(owner, "log10 of non-positive value %s", a.Text(10))
		}
		v.Log10(a)
	case "exp":
		v.Exp(a)
	case "asin":
		if a.CmpAbsOne() > 0 {
			return nil, apconst.EvalErrorf(owner, "asin argument %s outside [-1, 1]", a.Text(10))
		}
		v.Asin(a)
	case "sin":
		v.Sin(a)
	case "cos":
		v.Cos(a)
	case "abs":
		v.Abs(a)
	case "degrees":
		v.Degrees(a)
	case "quadroot":
		return e.quadroot(owner, a, args[1])
	default:
		return nil, apconst.EvalErrorf(owner, "unknown function %q", c.Fn)
	}
	return v, nil
}

// quadroot returns the larger root of x² - b·x + c = 0.
func (e *Evaluator) quadroot(owner string, b, c *apconst.Real) (*apconst.Real, error) {
	disc := apconst.New(e.bits).PowInt(b, 2)
	four := apconst.New(e.bits).SetInt64(4)
	disc.Sub(disc, four.Mul(four, c))
	if disc.Sign() < 0 {
		return nil, apconst.EvalErrorf(owner, "quadroot discriminant %s is negative", disc.Text(10))
	}
	v := apconst.New(e.bits).Sqrt(disc)
	v.Add(v, b)
	return v.Div(v, apconst.New(e.bits).SetInt64(2)), nil
}
