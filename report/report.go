// Package report assembles comparison reports from catalogs and renders
// them as text or YAML.
//
// Building a report is pure computation over a Provider; rendering writes
// nothing and returns the text, so both are testable without capturing
// output.
package report

import (
	"errors"
	"log/slog"
	"time"

	"github.com/lukaszgryglicki/apconst"
	"github.com/lukaszgryglicki/apconst/compare"
	"github.com/lukaszgryglicki/apconst/formula"
)

// Report is an evaluated catalog. Entries keep declaration order.
type Report struct {
	Name       string
	Title      string
	Preamble   []string
	Digits     int // working precision
	Inputs     []InputLine
	Entries    []EntryResult
	Conclusion []string
}

// InputLine is one evaluated line of the inputs section.
type InputLine struct {
	Label      string
	Expr       string
	Value      *apconst.Real
	Decimals   int
	Scientific bool
	Unit       string
}

// EntryResult is one evaluated and compared entry.
type EntryResult struct {
	Name       string
	Label      string
	Display    string
	Decimals   int
	Scientific bool
	Unit       string
	Note       string
	Source     string
	Result     compare.Result
}

// BuildOptions tune report assembly.
type BuildOptions struct {
	Workers int          // parallel formula evaluations; <= 1 is sequential
	Logger  *slog.Logger // nil discards
}

// Build evaluates cat against prov and compares every entry with its
// reference. Any failure aborts the whole report.
func Build(cat *Catalog, prov *apconst.Provider, opts BuildOptions) (*Report, error) {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	log = log.With(slog.String("report", cat.Name))
	start := time.Now()

	if err := cat.Validate(); err != nil {
		return nil, err
	}
	ev, err := Compile(cat, prov, log)
	if err != nil {
		return nil, err
	}
	set := ev.Set()
	names := cat.EntryNames()

	values, err := ev.EvalAll(names, opts.Workers)
	if err != nil {
		return nil, err
	}
	bits := prov.Precision().Bits()
	r := &Report{
		Name:       cat.Name,
		Title:      cat.Title,
		Preamble:   cat.Preamble,
		Digits:     prov.Precision().Digits(),
		Conclusion: cat.Conclusion,
	}
	for _, in := range cat.Inputs {
		v, err := ev.EvalSource(in.Expr)
		if err != nil {
			return nil, err
		}
		r.Inputs = append(r.Inputs, InputLine{
			Label:      in.Label,
			Expr:       in.Expr,
			Value:      v,
			Decimals:   cat.decimals(in.Decimals),
			Scientific: in.Scientific,
			Unit:       in.Unit,
		})
	}
	for i, e := range cat.Entries {
		var ref *apconst.Real
		if e.Reference.Value != "" {
			if ref, err = apconst.Parse(e.Reference.Value, bits); err != nil {
				return nil, catalogErr(cat.Name, "entry %q: %v", e.Name, err)
			}
		}
		res, err := compare.Compare(values[i], ref, e.Reference.CompareRule())
		if err != nil {
			if errors.Is(err, apconst.ErrEvaluation) {
				return nil, apconst.EvalError(e.Name, err)
			}
			return nil, catalogErr(cat.Name, "entry %q: %w", e.Name, err)
		}
		log.Debug("entry compared",
			slog.String("name", e.Name),
			slog.String("verdict", res.Verdict.String()))
		r.Entries = append(r.Entries, EntryResult{
			Name:       e.Name,
			Label:      e.Label,
			Display:    set.Display(e.Name),
			Decimals:   cat.decimals(e.Decimals),
			Scientific: e.Scientific,
			Unit:       e.Unit,
			Note:       e.Note,
			Source:     e.Reference.Source,
			Result:     res,
		})
	}
	st := ev.Stats()
	log.Info("report built",
		slog.Int("entries", len(r.Entries)),
		slog.Int64("formulas", st.Computes),
		slog.Int64("constants", prov.Stats().Computes),
		slog.Duration("elapsed", time.Since(start)))
	return r, nil
}

// Compile binds the catalog's derived formulas and entries to an evaluator.
// The catalog's constants are defined in a scope of prov, so they are seen
// by this catalog only while built-in constants stay shared.
func Compile(cat *Catalog, prov *apconst.Provider, log *slog.Logger) (*formula.Evaluator, error) {
	scope, err := prov.Scope()
	if err != nil {
		return nil, err
	}
	for _, k := range cat.Constants {
		if err := scope.Define(k.Name, k.Value); err != nil {
			return nil, err
		}
	}
	defs := make([]formula.Definition, 0, len(cat.Derived)+len(cat.Entries))
	for _, d := range cat.Derived {
		defs = append(defs, formula.Definition{Name: d.Name, Source: d.Expr, Display: d.Display})
	}
	for _, e := range cat.Entries {
		defs = append(defs, formula.Definition{Name: e.Name, Source: e.Expr, Display: e.Display})
	}
	set, err := formula.NewSet(defs...)
	if err != nil {
		return nil, err
	}
	var opts []formula.Option
	if log != nil {
		opts = append(opts, formula.WithLogger(log))
	}
	return formula.NewEvaluator(scope, set, opts...)
}

// Counts returns how many entries got each verdict.
func (r *Report) Counts() map[compare.Verdict]int {
	out := make(map[compare.Verdict]int)
	for _, e := range r.Entries {
		out[e.Result.Verdict]++
	}
	return out
}
