package formula

import (
	"errors"
	"reflect"
	"testing"

	"github.com/lukaszgryglicki/apconst"
)

func TestParseCanonical(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1+2*3", "1 + 2 * 3"},
		{"(1+2)*3", "(1 + 2) * 3"},
		{"a-b-c", "a - b - c"},
		{"a-(b-c)", "a - (b - c)"},
		{"a/(b*c)", "a / (b * c)"},
		{"2^3^2", "2^3^2"},
		{"(2^3)^2", "(2^3)^2"},
		{"-pi^2", "-pi^2"},
		{"(-pi)^2", "(-pi)^2"},
		{"2^-1", "2^(-1)"},
		{"+x", "x"},
		{"zeta(3)/zeta(2)", "zeta(3) / zeta(2)"},
		{"zeta( 03 )", "zeta(3)"},
		{"6*pi^5 + (zeta(3)-1)/6", "6 * pi^5 + (zeta(3) - 1) / 6"},
		{"quadroot(Z0,0.25)", "quadroot(Z0, 0.25)"},
		{"1.5e-3 * x", "1.5e-3 * x"},
		{".5+5.", ".5 + 5."},
		{"degrees(asin(zeta(4)/zeta(2)))", "degrees(asin(zeta(4) / zeta(2)))"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			x, err := Parse(tc.in)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tc.in, err)
			}
			got := x.String()
			if got != tc.want {
				t.Fatalf("Parse(%q).String() = %q, want %q", tc.in, got, tc.want)
			}
			// canonical form is a fixed point
			y, err := Parse(got)
			if err != nil {
				t.Fatalf("reparse %q: %v", got, err)
			}
			if y.String() != got {
				t.Fatalf("reparse %q gave %q", got, y.String())
			}
		})
	}
}

func TestParseStructure(t *testing.T) {
	x := MustParse("2^3^2")
	b, ok := x.(*Binary)
	if !ok || b.Op != '^' {
		t.Fatalf("top node = %#v", x)
	}
	if _, ok := b.R.(*Binary); !ok {
		t.Fatalf("^ is not right-associative: %s", x)
	}
	y := MustParse("zeta(5)")
	if r, ok := y.(*Ref); !ok || r.Name != "zeta(5)" {
		t.Fatalf("zeta(5) parsed as %#v", y)
	}
}

func TestParseErrors(t *testing.T) {
	for _, src := range []string{
		"", "1+", "(1", "1)", "1 2", "1e", "1e+", ".", "#",
		"foo(1)", "sqrt(1, 2)", "sqrt()", "quadroot(1)",
		"zeta(x)", "zeta(2.5)", "zeta(2, 3)", "zeta()", "sqrt(1",
	} {
		_, err := Parse(src)
		if err == nil {
			t.Errorf("Parse(%q) succeeded", src)
			continue
		}
		if !errors.Is(err, apconst.ErrConfiguration) {
			t.Errorf("Parse(%q) error %v is not a configuration error", src, err)
		}
	}
}

func TestRefs(t *testing.T) {
	got := Refs(MustParse("a + b*a + zeta(3) - sqrt(b)"))
	want := []string{"a", "b", "zeta(3)"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Refs = %v, want %v", got, want)
	}
	if got := Refs(MustParse("1 + 2")); len(got) != 0 {
		t.Fatalf("Refs of literal expression = %v", got)
	}
}

func TestIsName(t *testing.T) {
	for s, want := range map[string]bool{
		"mu": true, "alpha_inv": true, "Z0": true, "_x": true,
		"": false, "1x": false, "zeta(3)": false, "a-b": false,
	} {
		if IsName(s) != want {
			t.Errorf("IsName(%q) = %v", s, !want)
		}
	}
}
