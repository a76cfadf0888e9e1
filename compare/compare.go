// Package compare pairs computed values with reference values under a
// tolerance rule and grades the outcome.
//
// Deviations are computed at the precision of the computed value: the
// absolute deviation is |computed - reference|, the relative deviation is
// that divided by |reference|, and the percentage is 100 times the relative
// deviation.
package compare

import (
	"errors"
	"fmt"

	"github.com/lukaszgryglicki/apconst"
)

// Kind selects how a Rule grades a deviation.
type Kind int

const (
	KindAbsolute Kind = iota + 1
	KindRelative
	KindRange
	KindQualitative
)

func (k Kind) String() string {
	switch k {
	case KindAbsolute:
		return "absolute"
	case KindRelative:
		return "relative"
	case KindRange:
		return "range"
	case KindQualitative:
		return "qualitative"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Verdict is the graded outcome of a comparison.
type Verdict int

const (
	Match Verdict = iota + 1
	Marginal
	Fail
	Unrated // qualitative rules carry a label instead
)

func (v Verdict) String() string {
	switch v {
	case Match:
		return "Match"
	case Marginal:
		return "Marginal"
	case Fail:
		return "Fail"
	case Unrated:
		return "Unrated"
	}
	return fmt.Sprintf("Verdict(%d)", int(v))
}

// Rule is a tolerance rule. Thresholds are exact decimal strings, rounded
// to the computed value's precision when a comparison runs.
type Rule struct {
	Kind      Kind
	Tolerance string // ε of absolute and relative rules
	Extended  string // optional wider ε; deviations within it are Marginal
	Low, High string // bounds of a range rule, inclusive
	Label     string // status of a qualitative rule
}

// Absolute matches when |computed - reference| <= eps.
func Absolute(eps string) Rule { return Rule{Kind: KindAbsolute, Tolerance: eps} }

// Relative matches when |computed - reference| / |reference| <= eps.
func Relative(eps string) Rule { return Rule{Kind: KindRelative, Tolerance: eps} }

// Range matches when low <= computed <= high.
func Range(low, high string) Rule { return Rule{Kind: KindRange, Low: low, High: high} }

// Qualitative carries label through without grading.
func Qualitative(label string) Rule { return Rule{Kind: KindQualitative, Label: label} }

// WithExtended returns a copy of r that grades deviations between the strict
// and the extended tolerance as Marginal.
func (r Rule) WithExtended(eps string) Rule {
	r.Extended = eps
	return r
}

func (r Rule) String() string {
	var s string
	switch r.Kind {
	case KindAbsolute:
		s = "|Δ| ≤ " + r.Tolerance
	case KindRelative:
		s = "|Δ|/|ref| ≤ " + r.Tolerance
	case KindRange:
		return "[" + r.Low + ", " + r.High + "]"
	case KindQualitative:
		return "qualitative"
	default:
		return r.Kind.String()
	}
	if r.Extended != "" {
		s += " (marginal ≤ " + r.Extended + ")"
	}
	return s
}

// Validate checks that the rule is well formed.
func (r Rule) Validate() error {
	_, err := r.thresholds(64)
	return err
}

type thresholds struct {
	tol, ext, low, high *apconst.Real
}

func (r Rule) thresholds(bits uint) (thresholds, error) {
	var t thresholds
	parse := func(field, s string) (*apconst.Real, error) {
		v, err := apconst.Parse(s, bits)
		if err != nil {
			return nil, ruleErr(r, "%s: %v", field, err)
		}
		return v, nil
	}
	var err error
	switch r.Kind {
	case KindAbsolute, KindRelative:
		if t.tol, err = parse("tolerance", r.Tolerance); err != nil {
			return t, err
		}
		if t.tol.Sign() < 0 {
			return t, ruleErr(r, "negative tolerance %s", r.Tolerance)
		}
		if r.Extended != "" {
			if t.ext, err = parse("extended tolerance", r.Extended); err != nil {
				return t, err
			}
			if t.ext.Cmp(t.tol) < 0 {
				return t, ruleErr(r, "extended tolerance %s below strict tolerance %s", r.Extended, r.Tolerance)
			}
		}
	case KindRange:
		if r.Extended != "" {
			return t, ruleErr(r, "range rules have no extended tolerance")
		}
		if t.low, err = parse("low", r.Low); err != nil {
			return t, err
		}
		if t.high, err = parse("high", r.High); err != nil {
			return t, err
		}
		if t.low.Cmp(t.high) > 0 {
			return t, ruleErr(r, "empty range [%s, %s]", r.Low, r.High)
		}
	case KindQualitative:
	default:
		return t, ruleErr(r, "unknown rule kind %d", int(r.Kind))
	}
	return t, nil
}

func ruleErr(r Rule, format string, args ...any) error {
	return &apconst.Error{Kind: apconst.ErrConfiguration, Op: "compare rule", Name: r.Kind.String(), Err: fmt.Errorf(format, args...)}
}

// Result is the outcome of one comparison. Deviation fields are nil when
// they are undefined: without a reference there is no deviation, and with
// a zero reference there is no relative deviation.
type Result struct {
	Computed  *apconst.Real
	Reference *apconst.Real
	Rule      Rule

	Absolute *apconst.Real
	Relative *apconst.Real
	Percent  *apconst.Real

	Verdict Verdict
	Label   string
}

// HasDeviation reports whether an absolute deviation was computed.
func (r Result) HasDeviation() bool { return r.Absolute != nil }

// Accuracy returns 100·(1 - relative deviation), the alternative convention
// to Percent, or nil when the relative deviation is undefined.
func (r Result) Accuracy() *apconst.Real {
	if r.Relative == nil {
		return nil
	}
	bits := r.Relative.Prec()
	one := apconst.New(bits).SetInt64(1)
	acc := apconst.New(bits).Sub(one, r.Relative)
	return acc.Mul(acc, apconst.New(bits).SetInt64(100))
}

// Compare grades computed against reference under rule. reference may be
// nil for qualitative and range rules.
func Compare(computed, reference *apconst.Real, rule Rule) (Result, error) {
	if computed == nil {
		return Result{}, &apconst.Error{Kind: apconst.ErrConfiguration, Op: "compare", Err: errors.New("no computed value")}
	}
	if !computed.IsFinite() || (reference != nil && !reference.IsFinite()) {
		return Result{}, &apconst.Error{Kind: apconst.ErrEvaluation, Op: "compare", Err: errors.New("non-finite operand")}
	}
	if reference == nil && (rule.Kind == KindAbsolute || rule.Kind == KindRelative) {
		return Result{}, ruleErr(rule, "reference value required")
	}
	bits := computed.Prec()
	th, err := rule.thresholds(bits)
	if err != nil {
		return Result{}, err
	}

	res := Result{Computed: computed, Reference: reference, Rule: rule, Label: rule.Label}
	if reference != nil {
		res.Absolute = apconst.New(bits).Sub(computed, reference)
		res.Absolute.Abs(res.Absolute)
		if reference.Sign() != 0 {
			res.Relative = apconst.New(bits).Div(res.Absolute, apconst.Abs(reference))
			res.Percent = apconst.New(bits).Mul(res.Relative, apconst.New(bits).SetInt64(100))
		}
	}

	switch rule.Kind {
	case KindAbsolute:
		res.Verdict = grade(res.Absolute, th)
	case KindRelative:
		if res.Relative == nil {
			return Result{}, ruleErr(rule, "relative tolerance against a zero reference")
		}
		res.Verdict = grade(res.Relative, th)
	case KindRange:
		res.Verdict = Fail
		if computed.Cmp(th.low) >= 0 && computed.Cmp(th.high) <= 0 {
			res.Verdict = Match
		}
	case KindQualitative:
		res.Verdict = Unrated
	}
	return res, nil
}

func grade(dev *apconst.Real, th thresholds) Verdict {
	switch {
	case dev.Cmp(th.tol) <= 0:
		return Match
	case th.ext != nil && dev.Cmp(th.ext) <= 0:
		return Marginal
	}
	return Fail
}
