package apconst

import (
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// Range of n accepted for zeta(n).
const (
	ZetaMin = 2
	ZetaMax = 6
)

var builtins = map[string]func(*Real) *Real{
	"pi":          (*Real).SetPi,
	"euler_gamma": (*Real).SetEulerGamma,
	"e":           (*Real).SetE,
	"ln2":         (*Real).SetLn2,
}

// Provider supplies named constants at one working precision.
//
// Built-in names are pi, euler_gamma, e, ln2 and zeta(n) for n in
// [ZetaMin, ZetaMax]; further names are literal decimals registered with Define.
// Values are computed on first use and cached for the Provider's lifetime.
type Provider struct {
	mu       sync.RWMutex
	prec     Precision
	literals map[string]string

	started *atomic.Bool
	cache   *Cache
	log     *slog.Logger

	base *Provider // owner of the built-in values of a scope
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) ProviderOption {
	return func(p *Provider) {
		if l != nil {
			p.log = l
		}
	}
}

// NewProvider returns a provider at precision p. A zero p must be set with
// SetPrecision before the first Get.
func NewProvider(p Precision, opts ...ProviderOption) *Provider {
	prov := &Provider{
		prec:     p,
		literals: make(map[string]string),
		started:  atomic.NewBool(false),
		cache:    NewCache(),
		log:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(prov)
	}
	return prov
}

// Precision returns the working precision.
func (p *Provider) Precision() Precision {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.prec
}

// SetPrecision sets the working precision. Once a constant has been computed,
// only the current value is accepted.
func (p *Provider) SetPrecision(digits int) error {
	np, err := NewPrecision(digits)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started.Load() && np != p.prec {
		return configErr("set precision", "", "precision already in use at %d digits, cannot change to %d",
			p.prec.digits, digits)
	}
	p.prec = np
	return nil
}

// Freeze fixes the working precision as if a constant had been computed and
// returns it.
func (p *Provider) Freeze() (Precision, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.prec.IsZero() {
		return Precision{}, configErr("freeze precision", "", "precision not set")
	}
	p.started.Store(true)
	return p.prec, nil
}

// Scope returns a provider at p's precision that shares p's built-in
// constants but keeps literals of its own: literals defined in the scope are
// invisible to p and to other scopes, and p's literals are invisible to it.
// Scope freezes p's precision.
func (p *Provider) Scope() (*Provider, error) {
	prec, err := p.Freeze()
	if err != nil {
		return nil, err
	}
	s := NewProvider(prec, WithLogger(p.log))
	s.started.Store(true)
	s.base = p
	return s, nil
}

// Define registers a literal constant from an exact decimal string.
func (p *Provider) Define(name, literal string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return configErr("define constant", name, "empty name")
	}
	if isBuiltin(name) {
		return configErr("define constant", name, "name is reserved for a built-in constant")
	}
	if _, err := Parse(literal, 64); err != nil {
		return configErr("define constant", name, "%v", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if old, ok := p.literals[name]; ok && old != literal {
		return configErr("define constant", name, "already defined as %q", old)
	}
	p.literals[name] = literal
	return nil
}

// Has reports whether name is resolvable.
func (p *Provider) Has(name string) bool {
	if isBuiltin(name) {
		return true
	}
	p.mu.RLock()
	_, ok := p.literals[name]
	p.mu.RUnlock()
	return ok
}

// Names lists built-in names followed by the defined literals, sorted.
func (p *Provider) Names() []string {
	out := []string{"pi", "euler_gamma", "e", "ln2"}
	for n := ZetaMin; n <= ZetaMax; n++ {
		out = append(out, ZetaName(n))
	}
	p.mu.RLock()
	lits := make([]string, 0, len(p.literals))
	for k := range p.literals {
		lits = append(lits, k)
	}
	p.mu.RUnlock()
	sort.Strings(lits)
	return append(out, lits...)
}

// Get returns a copy of the named constant at the working precision. The copy
// may be mutated freely; repeated calls return bit-identical values.
func (p *Provider) Get(name string) (*Real, error) {
	v, err := p.shared(name)
	if err != nil {
		return nil, err
	}
	return v.Clone(), nil
}

// shared returns the cached value itself.
func (p *Provider) shared(name string) (*Real, error) {
	set, builtin := resolveBuiltin(name)
	if builtin && p.base != nil {
		return p.base.shared(name)
	}
	p.mu.RLock()
	prec := p.prec
	literal, isLit := p.literals[name]
	known := builtin || isLit
	if known && !prec.IsZero() {
		p.started.Store(true)
	}
	p.mu.RUnlock()
	if prec.IsZero() {
		return nil, configErr("get constant", name, "precision not set")
	}
	if !known {
		return nil, &Error{Kind: ErrUnknownConstant, Op: "get constant", Name: name}
	}
	return p.cache.Get(name, func() (*Real, error) {
		start := time.Now()
		v := New(prec.bits)
		if builtin {
			set(v)
		} else if err := v.SetString(literal); err != nil {
			return nil, configErr("get constant", name, "%v", err)
		}
		if !v.IsFinite() {
			return nil, &Error{Kind: ErrPrecision, Op: "get constant", Name: name}
		}
		p.log.Debug("constant computed",
			slog.String("name", name),
			slog.Int("digits", prec.digits),
			slog.Uint64("bits", uint64(prec.bits)),
			slog.Duration("elapsed", time.Since(start)))
		return v, nil
	})
}

// Stats returns the cache counters. A scope counts only its literals.
func (p *Provider) Stats() CacheStats { return p.cache.Stats() }

// ZetaName returns the canonical constant name for ζ(n).
func ZetaName(n int) string { return "zeta(" + strconv.Itoa(n) + ")" }

func isBuiltin(name string) bool {
	_, ok := resolveBuiltin(name)
	return ok || strings.HasPrefix(name, "zeta(")
}

func resolveBuiltin(name string) (func(*Real) *Real, bool) {
	if f, ok := builtins[name]; ok {
		return f, true
	}
	n, ok := parseZetaName(name)
	if !ok || n < ZetaMin || n > ZetaMax {
		return nil, false
	}
	return func(r *Real) *Real { return r.SetZeta(uint(n)) }, true
}

func parseZetaName(name string) (int, bool) {
	if !strings.HasPrefix(name, "zeta(") || !strings.HasSuffix(name, ")") {
		return 0, false
	}
	n, err := strconv.Atoi(name[len("zeta(") : len(name)-1])
	if err != nil {
		return 0, false
	}
	return n, true
}
