package apconst

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestPiToRequestedDigits(t *testing.T) {
	for _, d := range []int{10, 50, 100} {
		t.Run(fmt.Sprintf("D=%d", d), func(t *testing.T) {
			prov := NewProvider(MustPrecision(d))
			pi, err := prov.Get("pi")
			if err != nil {
				t.Fatal(err)
			}
			ref := MustParse(piDigits, pi.Prec()+64)
			// d significant digits of a value in [1, 10)
			if !closeTo(pi, ref, d-1) {
				t.Fatalf("pi at %d digits = %s", d, pi.Text(d+2))
			}
		})
	}
}

func TestZeta2MatchesPiSquaredOverSix(t *testing.T) {
	for _, d := range []int{10, 50, 100} {
		t.Run(fmt.Sprintf("D=%d", d), func(t *testing.T) {
			prov := NewProvider(MustPrecision(d))
			z2, err := prov.Get("zeta(2)")
			if err != nil {
				t.Fatal(err)
			}
			pi, _ := prov.Get("pi")
			want := New(pi.Prec()).PowInt(pi, 2)
			want.Div(want, New(pi.Prec()).SetInt64(6))
			if !closeTo(z2, want, d-2) {
				t.Fatalf("zeta(2) = %s, pi^2/6 = %s", z2.Text(d), want.Text(d))
			}
		})
	}
}

func TestZetaEvenValues(t *testing.T) {
	// zeta(4) = pi^4/90, zeta(6) = pi^6/945
	prov := NewProvider(MustPrecision(60))
	pi, _ := prov.Get("pi")
	bits := pi.Prec()
	for _, tc := range []struct {
		n   int
		div int64
	}{{4, 90}, {6, 945}} {
		got, err := prov.Get(ZetaName(tc.n))
		if err != nil {
			t.Fatal(err)
		}
		want := New(bits).PowInt(pi, int64(tc.n))
		want.Div(want, New(bits).SetInt64(tc.div))
		if !closeTo(got, want, 58) {
			t.Errorf("zeta(%d) = %s, want %s", tc.n, got.Text(60), want.Text(60))
		}
	}
}

func TestGetIdempotent(t *testing.T) {
	prov := NewProvider(MustPrecision(80))
	for _, name := range prov.Names() {
		a, err := prov.Get(name)
		if err != nil {
			t.Fatalf("Get(%q): %v", name, err)
		}
		b, _ := prov.Get(name)
		if !a.Identical(b) {
			t.Fatalf("Get(%q) not bit-identical across calls", name)
		}
		// mutating a returned copy must not leak into the cache
		a.Add(a, a)
		c, _ := prov.Get(name)
		if !b.Identical(c) {
			t.Fatalf("Get(%q) returned shared storage", name)
		}
	}
}

func TestGetUnknown(t *testing.T) {
	prov := NewProvider(MustPrecision(20))
	for _, name := range []string{"tau", "zeta(1)", "zeta(7)", "zeta(x)", "", "PI"} {
		_, err := prov.Get(name)
		if !errors.Is(err, ErrUnknownConstant) {
			t.Errorf("Get(%q) err = %v, want ErrUnknownConstant", name, err)
		}
	}
}

func TestDefineLiterals(t *testing.T) {
	prov := NewProvider(MustPrecision(40))
	if err := prov.Define("c", "299792458"); err != nil {
		t.Fatal(err)
	}
	if err := prov.Define("G", "6.67430e-11"); err != nil {
		t.Fatal(err)
	}
	if err := prov.Define("c", "299792458"); err != nil {
		t.Fatalf("redefining with the same literal: %v", err)
	}
	bad := map[string]string{
		"c":       "3e8",
		"pi":      "3.14",
		"zeta(3)": "1.2",
		"x":       "not-a-number",
		"y":       "inf",
		"z":       "nan",
		" ":       "1",
	}
	for name, lit := range bad {
		if err := prov.Define(name, lit); !errors.Is(err, ErrConfiguration) {
			t.Errorf("Define(%q, %q) err = %v, want ErrConfiguration", name, lit, err)
		}
	}
	c, err := prov.Get("c")
	if err != nil {
		t.Fatal(err)
	}
	if got := c.StringFixed(0); got != "299792458" {
		t.Fatalf("c = %s", got)
	}
	if !prov.Has("G") || prov.Has("h") {
		t.Fatal("Has mismatch")
	}
}

func TestPrecisionPolicy(t *testing.T) {
	if _, err := NewPrecision(0); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("NewPrecision(0) err = %v", err)
	}
	if _, err := NewPrecision(-5); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("NewPrecision(-5) err = %v", err)
	}
	if _, err := NewPrecision(MaxDigits + 1); !errors.Is(err, ErrPrecision) {
		t.Fatalf("NewPrecision(MaxDigits+1) err = %v", err)
	}

	prov := NewProvider(Precision{})
	if _, err := prov.Get("pi"); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("Get without precision err = %v", err)
	}
	if err := prov.SetPrecision(30); err != nil {
		t.Fatal(err)
	}
	if err := prov.SetPrecision(40); err != nil {
		t.Fatalf("changing precision before first use: %v", err)
	}
	if _, err := prov.Get("pi"); err != nil {
		t.Fatal(err)
	}
	if err := prov.SetPrecision(40); err != nil {
		t.Fatalf("re-setting the same precision: %v", err)
	}
	if err := prov.SetPrecision(50); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("changing precision after use err = %v", err)
	}
	if got := prov.Precision().Digits(); got != 40 {
		t.Fatalf("digits = %d", got)
	}
}

func TestProvidersAtDifferentPrecisions(t *testing.T) {
	lo := NewProvider(MustPrecision(15))
	hi := NewProvider(MustPrecision(120))
	a, _ := lo.Get("euler_gamma")
	b, _ := hi.Get("euler_gamma")
	if a.Prec() >= b.Prec() {
		t.Fatalf("precisions not independent: %d vs %d", a.Prec(), b.Prec())
	}
	if !closeTo(a, b, 14) {
		t.Fatalf("gamma disagrees across precisions: %s vs %s", a.Text(20), b.Text(20))
	}
}

// Many goroutines asking for the same constant compute it once.
func TestConcurrentGetComputesOnce(t *testing.T) {
	prov := NewProvider(MustPrecision(500))
	const N = 64
	var wg sync.WaitGroup
	wg.Add(N)
	errs := make(chan string, N)
	first, _ := NewProvider(MustPrecision(500)).Get("zeta(5)")

	for i := 0; i < N; i++ {
		go func() {
			defer wg.Done()
			v, err := prov.Get("zeta(5)")
			if err != nil {
				errs <- err.Error()
				return
			}
			if !v.Identical(first) {
				errs <- "zeta(5) differs between goroutines"
			}
		}()
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Fatalf("concurrent get: %s", e)
	}
	if st := prov.Stats(); st.Computes != 1 || st.Entries != 1 {
		t.Fatalf("stats = %+v, want one compute", st)
	}
}

func TestScopeKeepsLiteralsApart(t *testing.T) {
	prov := NewProvider(MustPrecision(30))
	a, err := prov.Scope()
	if err != nil {
		t.Fatal(err)
	}
	b, err := prov.Scope()
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Define("c", "1"); err != nil {
		t.Fatal(err)
	}
	if err := b.Define("c", "2"); err != nil {
		t.Fatalf("clashing literal in another scope: %v", err)
	}
	if prov.Has("c") {
		t.Fatal("scope literal visible in its base")
	}
	if err := a.Define("G", "6.67430e-11"); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Get("G"); !errors.Is(err, ErrUnknownConstant) {
		t.Fatalf("literal leaked between scopes: err = %v", err)
	}
	ca, _ := a.Get("c")
	cb, _ := b.Get("c")
	if ca.StringFixed(0) != "1" || cb.StringFixed(0) != "2" {
		t.Fatalf("c = %s and %s", ca.StringFixed(0), cb.StringFixed(0))
	}

	pa, err := a.Get("pi")
	if err != nil {
		t.Fatal(err)
	}
	pb, err := b.Get("pi")
	if err != nil {
		t.Fatal(err)
	}
	if !pa.Identical(pb) {
		t.Fatal("scopes disagree on pi")
	}
	if st := prov.Stats(); st.Computes != 1 {
		t.Fatalf("base stats = %+v, want pi computed once", st)
	}
	if err := prov.SetPrecision(40); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("SetPrecision after Scope err = %v", err)
	}
	if _, err := NewProvider(Precision{}).Scope(); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("Scope without precision err = %v", err)
	}
}
