package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/lukaszgryglicki/apconst"
	"github.com/lukaszgryglicki/apconst/compare"
)

// DefaultWidth is the length of divider rules.
const DefaultWidth = 63

// RenderOptions control presentation only; they never change a value.
type RenderOptions struct {
	Width  int    // rule length; 0 means DefaultWidth
	Styles Styles // zero value renders plain text
}

// Styles decorate parts of the text. Nil functions leave text unchanged.
type Styles struct {
	Title   func(string) string
	Heading func(string) string
	Verdict func(compare.Verdict, string) string
}

func (s Styles) title(x string) string {
	if s.Title == nil {
		return x
	}
	return s.Title(x)
}

func (s Styles) heading(x string) string {
	if s.Heading == nil {
		return x
	}
	return s.Heading(x)
}

func (s Styles) verdict(v compare.Verdict, x string) string {
	if s.Verdict == nil {
		return x
	}
	return s.Verdict(v, x)
}

// Render returns the report as text.
func Render(r *Report, opts RenderOptions) string {
	width := opts.Width
	if width <= 0 {
		width = DefaultWidth
	}
	st := opts.Styles
	double := strings.Repeat("=", width)
	single := strings.Repeat("-", width)

	var b strings.Builder
	line := func(parts ...string) {
		for _, p := range parts {
			b.WriteString(p)
		}
		b.WriteByte('\n')
	}

	line(double)
	line("   ", st.title(r.Title))
	line(double)
	for _, p := range r.Preamble {
		line(p)
	}
	if r.Digits > 0 {
		line("Working precision: ", strconv.Itoa(r.Digits), " digits")
	}
	line()

	if len(r.Inputs) > 0 {
		labelWidth := 0
		for _, in := range r.Inputs {
			labelWidth = max(labelWidth, len([]rune(in.Label)))
		}
		line(st.heading("Inputs:"))
		for _, in := range r.Inputs {
			pad := strings.Repeat(" ", labelWidth-len([]rune(in.Label)))
			line("  ", in.Label, ": ", pad, formatValue(in.Value, in.Decimals, in.Scientific), unitSuffix(in.Unit))
		}
		line()
	}

	for i, e := range r.Entries {
		line(single)
		line(st.heading(strconv.Itoa(i+1) + ". " + e.Label))
		renderEntry(line, e, st)
	}

	line(single)
	if len(r.Conclusion) > 0 {
		line(st.heading("CONCLUSION:"))
		for _, c := range r.Conclusion {
			line(c)
		}
		line(double)
	}
	return b.String()
}

func renderEntry(line func(...string), e EntryResult, st Styles) {
	res := e.Result
	field := func(name, value string) { line("   ", name, strings.Repeat(" ", 12-len(name)), value) }
	unit := unitSuffix(e.Unit)

	if e.Display != "" {
		field("Formula:", e.Display)
	}
	field("Calculated:", formatValue(res.Computed, e.Decimals, e.Scientific)+unit)
	src := ""
	if e.Source != "" {
		src = " (" + e.Source + ")"
	}
	switch {
	case res.Rule.Kind == compare.KindRange:
		field("Range:", "["+res.Rule.Low+", "+res.Rule.High+"]"+unit+src)
		if res.Reference != nil {
			field("Reference:", formatValue(res.Reference, e.Decimals, e.Scientific)+unit)
		}
	case res.Reference != nil:
		field("Reference:", formatValue(res.Reference, e.Decimals, e.Scientific)+unit+src)
	case src != "":
		field("Source:", strings.TrimSpace(src))
	}
	if res.HasDeviation() {
		dev := res.Absolute.Text(4)
		if res.Percent != nil {
			dev += " (" + res.Percent.Text(4) + "%)"
		}
		field("Deviation:", dev)
	}
	if acc := res.Accuracy(); acc != nil && acc.Sign() > 0 {
		field("Accuracy:", acc.StringFixed(6)+"%")
	}
	if res.Rule.Kind == compare.KindQualitative {
		field("Status:", st.verdict(res.Verdict, res.Label))
	} else {
		field("Rule:", res.Rule.String())
		field("Verdict:", st.verdict(res.Verdict, res.Verdict.String()))
	}
	if e.Note != "" {
		field("Note:", e.Note)
	}
}

func formatValue(v *apconst.Real, decimals int, scientific bool) string {
	if scientific {
		return v.StringScientific(decimals)
	}
	return v.StringFixed(decimals)
}

func unitSuffix(unit string) string {
	switch unit {
	case "":
		return ""
	case "°":
		return unit
	}
	return " " + unit
}

// Write renders r to w.
func Write(w io.Writer, r *Report, opts RenderOptions) error {
	_, err := io.WriteString(w, Render(r, opts))
	return err
}
