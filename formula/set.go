package formula

import (
	"errors"
	"strings"

	"github.com/lukaszgryglicki/apconst"
)

// Definition names a formula. Display is an optional human-readable form
// used by reports; when empty the canonical source is shown.
type Definition struct {
	Name    string
	Source  string
	Display string
}

// Set is an immutable table of parsed formulas.
type Set struct {
	defs  map[string]Definition
	exprs map[string]Expr
	deps  map[string][]string // formula-to-formula edges only
	names []string            // declaration order
	order []string            // dependencies before dependents
}

// NewSet parses defs and checks the table: names must be identifiers and
// unique, and formulas may not depend on each other cyclically.
func NewSet(defs ...Definition) (*Set, error) {
	s := &Set{
		defs:  make(map[string]Definition, len(defs)),
		exprs: make(map[string]Expr, len(defs)),
		deps:  make(map[string][]string, len(defs)),
	}
	for _, d := range defs {
		d.Name = strings.TrimSpace(d.Name)
		if !IsName(d.Name) {
			return nil, &apconst.Error{Kind: apconst.ErrConfiguration, Op: "define formula", Name: d.Name,
				Err: errors.New("invalid name")}
		}
		if _, dup := s.defs[d.Name]; dup {
			return nil, &apconst.Error{Kind: apconst.ErrConfiguration, Op: "define formula", Name: d.Name,
				Err: errors.New("defined twice")}
		}
		x, err := parse(d.Source)
		if err != nil {
			return nil, &apconst.Error{Kind: apconst.ErrConfiguration, Op: "define formula", Name: d.Name, Err: err}
		}
		s.defs[d.Name] = d
		s.exprs[d.Name] = x
		s.names = append(s.names, d.Name)
	}
	for _, name := range s.names {
		for _, ref := range Refs(s.exprs[name]) {
			if _, ok := s.exprs[ref]; ok {
				s.deps[name] = append(s.deps[name], ref)
			}
		}
	}
	order, err := s.sort()
	if err != nil {
		return nil, err
	}
	s.order = order
	return s, nil
}

// sort is a depth-first topological sort in declaration order.
func (s *Set) sort() ([]string, error) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(s.names))
	order := make([]string, 0, len(s.names))
	var path []string
	var visit func(string) error
	visit = func(name string) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			i := 0
			for path[i] != name {
				i++
			}
			cycle := append(append([]string{}, path[i:]...), name)
			return apconst.EvalErrorf(name, "dependency cycle %s", strings.Join(cycle, " -> "))
		}
		state[name] = visiting
		path = append(path, name)
		for _, dep := range s.deps[name] {
			if err := visit(dep); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		state[name] = done
		order = append(order, name)
		return nil
	}
	for _, name := range s.names {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// Names returns formula names in declaration order.
func (s *Set) Names() []string { return append([]string(nil), s.names...) }

// Order returns formula names so that each comes after the formulas it uses.
func (s *Set) Order() []string { return append([]string(nil), s.order...) }

// Has reports whether name is a formula of the set.
func (s *Set) Has(name string) bool {
	_, ok := s.exprs[name]
	return ok
}

// Lookup returns the definition of name.
func (s *Set) Lookup(name string) (Definition, bool) {
	d, ok := s.defs[name]
	return d, ok
}

// Expr returns the parsed expression of name, or nil.
func (s *Set) Expr(name string) Expr { return s.exprs[name] }

// Deps returns the formulas name refers to directly.
func (s *Set) Deps(name string) []string { return append([]string(nil), s.deps[name]...) }

// Display returns the human form of name, falling back to its canonical source.
func (s *Set) Display(name string) string {
	if d := s.defs[name]; d.Display != "" {
		return d.Display
	}
	if x := s.exprs[name]; x != nil {
		return x.String()
	}
	return ""
}
