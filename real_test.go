package apconst

import (
	"math"
	"strconv"
	"strings"
	"testing"
)

const (
	piDigits    = "3.14159265358979323846264338327950288419716939937510582097494459230781640628620899862803482534211706798214808651328230664709384460955058223172535940812848111745028410270193852110555964462294895493038196"
	zeta3Digits = "1.20205690315959428539973816151144999076498629234049888179227155534183820578631309018645587360933525814619915779526071941849199599867328321377639683720790016145394178294936006671919157552224249424396156"
	gammaDigits = "0.57721566490153286060651209008240243104215933593992359880576723488486772677766467093694706329174674951463144724980708248096050401448654283622417399764492353625350033374293733773767394279259525824709491"
)

// helper: parse with test precision
func tp(s string) *Real { return MustParse(s, 256) }

// helper: |a-b| <= 10^-exp
func closeTo(a, b *Real, exp int) bool {
	diff := Abs(Sub(a, b))
	tol := MustParse("1e-"+strconv.Itoa(exp), diff.Prec())
	return diff.Cmp(tol) <= 0
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in    string
		fixed int
		want  string
	}{
		{"0", 2, "0.00"},
		{"1", 0, "1"},
		{"-1.5", 1, "-1.5"},
		{"299792458", 0, "299792458"},
		{"0.6847", 4, "0.6847"},
		{"1836.15267343", 8, "1836.15267343"},
		{"6.67430e-11", 16, "0.0000000000667430"},
	}
	for _, tc := range tests {
		r, err := Parse(tc.in, 128)
		if err != nil {
			t.Fatalf("Parse %q failed: %v", tc.in, err)
		}
		if got := r.StringFixed(tc.fixed); got != tc.want {
			t.Errorf("StringFixed(%q, %d) = %q, want %q", tc.in, tc.fixed, got, tc.want)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	for _, s := range []string{"", "abc", "1.2.3", "1e", "1 2", "@nan@", "nan", "NaN", "inf", "-Infinity", "1e999999999999"} {
		if _, err := Parse(s, 128); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", s)
		}
	}
}

func TestScientificAndText(t *testing.T) {
	r := tp("6.67430e-11")
	if got := r.StringScientific(5); got != "6.67430e-11" {
		t.Errorf("StringScientific = %q", got)
	}
	if got := tp("1836.15267343").Text(6); got != "1836.15" {
		t.Errorf("Text(6) = %q", got)
	}
}

func TestBasicAlgebra(t *testing.T) {
	a := tp("3.25")
	b := tp("-1.75")
	if got := Add(a, b).StringFixed(2); got != "1.50" {
		t.Errorf("Add = %s", got)
	}
	if got := Sub(a, b).StringFixed(2); got != "5.00" {
		t.Errorf("Sub = %s", got)
	}
	if got := Mul(a, b).StringFixed(4); got != "-5.6875" {
		t.Errorf("Mul = %s", got)
	}
	q := Div(a, b)
	if !closeTo(Mul(q, b), a, 70) {
		t.Errorf("(a/b)*b != a, got %s", Mul(q, b).Text(40))
	}
	if got := Neg(b).StringFixed(2); got != "1.75" {
		t.Errorf("Neg = %s", got)
	}
	if got := Abs(b).StringFixed(2); got != "1.75" {
		t.Errorf("Abs = %s", got)
	}
	if got := New(256).PowInt(tp("2"), 10).StringFixed(0); got != "1024" {
		t.Errorf("PowInt = %s", got)
	}
	if got := Pow(tp("9"), tp("0.5")).StringFixed(10); got != "3.0000000000" {
		t.Errorf("Pow = %s", got)
	}
}

func TestElementary(t *testing.T) {
	x := tp("0.5")
	s := Sin(x)
	c := Cos(x)
	sum := Add(Mul(s, s), Mul(c, c))
	if !closeTo(sum, tp("1"), 70) {
		t.Fatalf("sin^2+cos^2 != 1, got %s", sum.Text(40))
	}
	if !closeTo(Exp(Log(tp("7.25"))), tp("7.25"), 70) {
		t.Fatalf("exp(log(x)) != x")
	}
	if got := Log10(tp("1000")).StringFixed(20); got != "3.00000000000000000000" {
		t.Fatalf("log10(1000) = %s", got)
	}
	if got := Sqrt(tp("2")).StringFixed(20); got != "1.41421356237309504880" {
		t.Fatalf("sqrt(2) = %s", got)
	}
	// asin(1/2) = pi/6 -> 30 degrees
	deg := New(256).Degrees(Asin(x))
	if !closeTo(deg, tp("30"), 70) {
		t.Fatalf("degrees(asin(0.5)) = %s", deg.Text(40))
	}
}

func TestDomainYieldsNaN(t *testing.T) {
	if !Asin(tp("1.5")).IsNaN() {
		t.Error("asin(1.5) should be NaN")
	}
	if !Sqrt(tp("-1")).IsNaN() {
		t.Error("sqrt(-1) should be NaN")
	}
	if !Div(tp("1"), tp("0")).IsInf() {
		t.Error("1/0 should be Inf")
	}
	if tp("1.5").CmpAbsOne() <= 0 || tp("-1").CmpAbsOne() != 0 || tp("0.25").CmpAbsOne() >= 0 {
		t.Error("CmpAbsOne mismatch")
	}
}

func TestConstantsAgainstReference(t *testing.T) {
	prec := DigitsToBits(150) + GuardBits
	cases := []struct {
		name string
		got  *Real
		want string
	}{
		{"pi", New(prec).SetPi(), piDigits},
		{"zeta3", New(prec).SetZeta(3), zeta3Digits},
		{"euler_gamma", New(prec).SetEulerGamma(), gammaDigits},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			want := MustParse(tc.want, prec)
			if !closeTo(tc.got, want, 149) {
				t.Fatalf("%s mismatch:\n got %s\nwant %s", tc.name, tc.got.Text(150), tc.want[:152])
			}
		})
	}
}

func TestCloneIdentical(t *testing.T) {
	pi := New(512).SetPi()
	c := pi.Clone()
	if !pi.Identical(c) {
		t.Fatal("clone not identical")
	}
	c.Add(c, tp("1"))
	if pi.Identical(c) {
		t.Fatal("mutating clone changed original")
	}
	if strings.HasPrefix(pi.String(), "4.") {
		t.Fatal("original mutated")
	}
}

func TestFloat64Narrowing(t *testing.T) {
	if got := New(256).SetPi().Float64(); math.Abs(got-math.Pi) > 1e-15 {
		t.Fatalf("Float64(pi) = %v", got)
	}
}
