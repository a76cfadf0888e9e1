// Package apconst evaluates mathematical constants and closed-form expressions
// over them at arbitrary precision.
//
// Arithmetic is delegated to GNU MPFR via cgo. Values carry their precision in
// bits; Precision converts a decimal digit target into the working bit count
// shared by a Provider and everything evaluated through it.
//
// Build requirements:
//   - libmpfr, libgmp (headers + libs)
//     Debian/Ubuntu: sudo apt-get install -y libmpfr-dev libgmp-dev build-essential
//     macOS/Homebrew: brew install mpfr gmp
//
// Minimal usage:
//
//	p, _ := apconst.NewPrecision(50)
//	prov := apconst.NewProvider(p)
//	z3, _ := prov.Get("zeta(3)")
//	fmt.Println(z3.StringFixed(40))
//
// SPDX-License-Identifier: MIT
package apconst

/*
#cgo CFLAGS: -O2
#cgo LDFLAGS: -lmpfr -lgmp
#include <stdlib.h>
#include <mpfr.h>

// Formatting helpers: mpfr_snprintf is variadic and cgo cannot call it directly.
static char* apr_to_str(mpfr_srcptr x, int digits, char conv) {
    char fmt[8] = "%.*R?";
    fmt[4] = conv;
    int n = mpfr_snprintf(NULL, 0, fmt, digits, x);
    if (n < 0) return NULL;
    char *buf = (char*)malloc((size_t)n + 1);
    if (!buf) return NULL;
    if (mpfr_snprintf(buf, (size_t)n + 1, fmt, digits, x) < 0) {
        free(buf);
        return NULL;
    }
    return buf;
}

// Several MPFR entry points are macros in some builds (mpfr_set, mpfr_abs,
// mpfr_sgn, mpfr_cmp_ui, mpfr_nan_p, ...); wrap everything Go touches.
static void apr_set(mpfr_ptr r, mpfr_srcptr a) { mpfr_set(r, a, MPFR_RNDN); }
static void apr_set_si(mpfr_ptr r, long v) { mpfr_set_si(r, v, MPFR_RNDN); }
static int apr_set_str(mpfr_ptr r, const char *s) { return mpfr_set_str(r, s, 10, MPFR_RNDN); }
static void apr_add(mpfr_ptr r, mpfr_srcptr a, mpfr_srcptr b) { mpfr_add(r, a, b, MPFR_RNDN); }
static void apr_sub(mpfr_ptr r, mpfr_srcptr a, mpfr_srcptr b) { mpfr_sub(r, a, b, MPFR_RNDN); }
static void apr_mul(mpfr_ptr r, mpfr_srcptr a, mpfr_srcptr b) { mpfr_mul(r, a, b, MPFR_RNDN); }
static void apr_div(mpfr_ptr r, mpfr_srcptr a, mpfr_srcptr b) { mpfr_div(r, a, b, MPFR_RNDN); }
static void apr_pow(mpfr_ptr r, mpfr_srcptr a, mpfr_srcptr b) { mpfr_pow(r, a, b, MPFR_RNDN); }
static void apr_pow_si(mpfr_ptr r, mpfr_srcptr a, long n) { mpfr_pow_si(r, a, n, MPFR_RNDN); }
static void apr_neg(mpfr_ptr r, mpfr_srcptr a) { mpfr_neg(r, a, MPFR_RNDN); }
static void apr_abs(mpfr_ptr r, mpfr_srcptr a) { mpfr_abs(r, a, MPFR_RNDN); }
static void apr_sqrt(mpfr_ptr r, mpfr_srcptr a) { mpfr_sqrt(r, a, MPFR_RNDN); }
static void apr_exp(mpfr_ptr r, mpfr_srcptr a) { mpfr_exp(r, a, MPFR_RNDN); }
static void apr_log(mpfr_ptr r, mpfr_srcptr a) { mpfr_log(r, a, MPFR_RNDN); }
static void apr_log10(mpfr_ptr r, mpfr_srcptr a) { mpfr_log10(r, a, MPFR_RNDN); }
static void apr_sin(mpfr_ptr r, mpfr_srcptr a) { mpfr_sin(r, a, MPFR_RNDN); }
static void apr_cos(mpfr_ptr r, mpfr_srcptr a) { mpfr_cos(r, a, MPFR_RNDN); }
static void apr_asin(mpfr_ptr r, mpfr_srcptr a) { mpfr_asin(r, a, MPFR_RNDN); }
static void apr_const_pi(mpfr_ptr r) { mpfr_const_pi(r, MPFR_RNDN); }
static void apr_const_euler(mpfr_ptr r) { mpfr_const_euler(r, MPFR_RNDN); }
static void apr_const_log2(mpfr_ptr r) { mpfr_const_log2(r, MPFR_RNDN); }
static void apr_zeta_ui(mpfr_ptr r, unsigned long n) { mpfr_zeta_ui(r, n, MPFR_RNDN); }
static double apr_get_d(mpfr_srcptr a) { return mpfr_get_d(a, MPFR_RNDN); }
static int apr_sgn(mpfr_srcptr a) { return mpfr_sgn(a); }
static int apr_cmp(mpfr_srcptr a, mpfr_srcptr b) { return mpfr_cmp(a, b); }
static int apr_cmpabs_one(mpfr_srcptr a) {
    mpfr_t one;
    mpfr_init2(one, 2);
    mpfr_set_si(one, 1, MPFR_RNDN);
    int c = mpfr_cmpabs(a, one);
    mpfr_clear(one);
    return c;
}
static int apr_nan_p(mpfr_srcptr a) { return mpfr_nan_p(a); }
static int apr_inf_p(mpfr_srcptr a) { return mpfr_inf_p(a); }
static int apr_equal_p(mpfr_srcptr a, mpfr_srcptr b) { return mpfr_equal_p(a, b); }
static const char* apr_version(void) { return mpfr_get_version(); }
*/
import "C"

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"unsafe"
)

// MPFRVersion returns the version of the linked MPFR library.
func MPFRVersion() string { return C.GoString(C.apr_version()) }

// Real is an arbitrary-precision real backed by GNU MPFR.
// Use New/Parse; zero value is not usable.
type Real struct {
	x    C.mpfr_t
	prec uint
	init bool
}

// New allocates a value with the given precision in bits. If bits==0, 53 is used.
// The new value is NaN until set.
func New(bits uint) *Real {
	if bits == 0 {
		bits = 53
	}
	r := &Real{prec: bits}
	C.mpfr_init2(&r.x[0], C.mpfr_prec_t(bits))
	r.init = true
	runtime.SetFinalizer(r, func(rr *Real) {
		if rr.init {
			C.mpfr_clear(&rr.x[0])
			rr.init = false
		}
	})
	return r
}

// Close frees C resources.
func (r *Real) Close() {
	if r != nil && r.init {
		C.mpfr_clear(&r.x[0])
		r.init = false
	}
}

// Prec returns precision in bits.
func (r *Real) Prec() uint { return r.prec }

// Clone returns a deep copy at the same precision.
func (r *Real) Clone() *Real {
	out := New(r.prec)
	C.apr_set(&out.x[0], &r.x[0])
	return out
}

// Parse parses a decimal literal ("299792458", "-6.67430e-11", "0.1") at the given precision.
func Parse(s string, prec uint) (*Real, error) {
	r := New(prec)
	if err := r.SetString(s); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

// MustParse panics on error.
func MustParse(s string, prec uint) *Real {
	r, err := Parse(s, prec)
	if err != nil {
		panic(err)
	}
	return r
}

// SetString sets r from a finite base-10 literal, rounding to r's precision.
func (r *Real) SetString(s string) error {
	if !r.init {
		return errors.New("apconst: not initialized")
	}
	t := strings.TrimSpace(s)
	if t == "" || strings.ContainsAny(t, "@ \t") {
		return fmt.Errorf("apconst: invalid real literal %q", s)
	}
	cs := C.CString(t)
	defer C.free(unsafe.Pointer(cs))
	if C.apr_set_str(&r.x[0], cs) != 0 {
		return fmt.Errorf("apconst: invalid real literal %q", s)
	}
	// mpfr also reads "nan", "inf" and exponents beyond its range
	if !r.IsFinite() {
		return fmt.Errorf("apconst: non-finite real literal %q", s)
	}
	return nil
}

// SetInt64 sets r = v.
func (r *Real) SetInt64(v int64) *Real { C.apr_set_si(&r.x[0], C.long(v)); return r }

// Constants at r's precision
func (r *Real) SetPi() *Real         { C.apr_const_pi(&r.x[0]); return r }
func (r *Real) SetEulerGamma() *Real { C.apr_const_euler(&r.x[0]); return r }
func (r *Real) SetLn2() *Real        { C.apr_const_log2(&r.x[0]); return r }
func (r *Real) SetZeta(n uint) *Real { C.apr_zeta_ui(&r.x[0], C.ulong(n)); return r }
func (r *Real) SetE() *Real          { return r.Exp(New(r.prec).SetInt64(1)) }

// Formatting

// StringFixed formats r with the given number of fractional digits.
func (r *Real) StringFixed(digits int) string {
	if digits < 0 {
		digits = 0
	}
	return r.format(digits, 'f')
}

// StringScientific formats r in d.ddd…e±x form with the given fractional digits.
func (r *Real) StringScientific(digits int) string {
	if digits < 1 {
		digits = 1
	}
	return r.format(digits, 'e')
}

// Text formats r with up to sig significant digits, choosing fixed or scientific form.
func (r *Real) Text(sig int) string {
	if sig < 1 {
		sig = 1
	}
	return r.format(sig, 'g')
}

func (r *Real) format(digits int, conv byte) string {
	if !r.init {
		return "(invalid)"
	}
	p := C.apr_to_str(&r.x[0], C.int(digits), C.char(conv))
	if p == nil {
		return "<oom>"
	}
	defer C.free(unsafe.Pointer(p))
	return C.GoString(p)
}

// String implements fmt.Stringer with enough significant digits for the precision.
func (r *Real) String() string { return r.Text(BitsToDigits(r.prec)) }

// Float64 narrows r to the nearest float64. Only for display and cross-checks.
func (r *Real) Float64() float64 { return float64(C.apr_get_d(&r.x[0])) }

// Predicates
func (r *Real) Sign() int       { return int(C.apr_sgn(&r.x[0])) }
func (r *Real) IsNaN() bool     { return C.apr_nan_p(&r.x[0]) != 0 }
func (r *Real) IsInf() bool     { return C.apr_inf_p(&r.x[0]) != 0 }
func (r *Real) IsFinite() bool  { return !r.IsNaN() && !r.IsInf() }
func (r *Real) Cmp(b *Real) int { return int(C.apr_cmp(&r.x[0], &b.x[0])) }

// CmpAbsOne compares |r| with 1.
func (r *Real) CmpAbsOne() int { return int(C.apr_cmpabs_one(&r.x[0])) }

// Identical reports whether r and b hold the same bits at the same precision.
func (r *Real) Identical(b *Real) bool {
	return r.prec == b.prec && C.apr_equal_p(&r.x[0], &b.x[0]) != 0
}

// Algebraic ops (mutating; return receiver for chaining)
func (r *Real) Set(a *Real) *Real    { C.apr_set(&r.x[0], &a.x[0]); return r }
func (r *Real) Add(a, b *Real) *Real { C.apr_add(&r.x[0], &a.x[0], &b.x[0]); return r }
func (r *Real) Sub(a, b *Real) *Real { C.apr_sub(&r.x[0], &a.x[0], &b.x[0]); return r }
func (r *Real) Mul(a, b *Real) *Real { C.apr_mul(&r.x[0], &a.x[0], &b.x[0]); return r }
func (r *Real) Div(a, b *Real) *Real { C.apr_div(&r.x[0], &a.x[0], &b.x[0]); return r }
func (r *Real) Pow(a, b *Real) *Real { C.apr_pow(&r.x[0], &a.x[0], &b.x[0]); return r }
func (r *Real) PowInt(a *Real, n int64) *Real {
	C.apr_pow_si(&r.x[0], &a.x[0], C.long(n))
	return r
}
func (r *Real) Neg(a *Real) *Real { C.apr_neg(&r.x[0], &a.x[0]); return r }
func (r *Real) Abs(a *Real) *Real { C.apr_abs(&r.x[0], &a.x[0]); return r }

// Elementary/transcendental. Out-of-domain inputs yield NaN, as in MPFR;
// callers that need errors check the domain first.
func (r *Real) Sqrt(a *Real) *Real  { C.apr_sqrt(&r.x[0], &a.x[0]); return r }
func (r *Real) Exp(a *Real) *Real   { C.apr_exp(&r.x[0], &a.x[0]); return r }
func (r *Real) Log(a *Real) *Real   { C.apr_log(&r.x[0], &a.x[0]); return r }
func (r *Real) Log10(a *Real) *Real { C.apr_log10(&r.x[0], &a.x[0]); return r }
func (r *Real) Sin(a *Real) *Real   { C.apr_sin(&r.x[0], &a.x[0]); return r }
func (r *Real) Cos(a *Real) *Real   { C.apr_cos(&r.x[0], &a.x[0]); return r }
func (r *Real) Asin(a *Real) *Real  { C.apr_asin(&r.x[0], &a.x[0]); return r }

// Degrees sets r = a·180/π.
func (r *Real) Degrees(a *Real) *Real {
	pi := New(r.prec).SetPi()
	k := New(r.prec).SetInt64(180)
	k.Div(k, pi)
	return r.Mul(a, k)
}

// Non-mutating convenience wrappers
func Add(a, b *Real) *Real { return New(maxPrec(a, b)).Add(a, b) }
func Sub(a, b *Real) *Real { return New(maxPrec(a, b)).Sub(a, b) }
func Mul(a, b *Real) *Real { return New(maxPrec(a, b)).Mul(a, b) }
func Div(a, b *Real) *Real { return New(maxPrec(a, b)).Div(a, b) }
func Pow(a, b *Real) *Real { return New(maxPrec(a, b)).Pow(a, b) }
func Neg(a *Real) *Real    { return New(a.prec).Neg(a) }
func Abs(a *Real) *Real    { return New(a.prec).Abs(a) }
func Sqrt(a *Real) *Real   { return New(a.prec).Sqrt(a) }
func Exp(a *Real) *Real    { return New(a.prec).Exp(a) }
func Log(a *Real) *Real    { return New(a.prec).Log(a) }
func Log10(a *Real) *Real  { return New(a.prec).Log10(a) }
func Sin(a *Real) *Real    { return New(a.prec).Sin(a) }
func Cos(a *Real) *Real    { return New(a.prec).Cos(a) }
func Asin(a *Real) *Real   { return New(a.prec).Asin(a) }

func maxPrec(a, b *Real) uint {
	if b.prec > a.prec {
		return b.prec
	}
	return a.prec
}
