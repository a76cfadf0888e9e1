package report

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/lukaszgryglicki/apconst"
	"github.com/lukaszgryglicki/apconst/compare"
	"github.com/lukaszgryglicki/apconst/formula"
)

// DefaultDecimals is used when neither an entry nor its catalog sets decimals.
const DefaultDecimals = 6

// Catalog is the declarative description of one report: which constants
// and formulas it needs, what each entry is compared against, and how
// values are shown.
type Catalog struct {
	Name       string     `toml:"name" yaml:"name" validate:"required,formula_name"`
	Title      string     `toml:"title" yaml:"title" validate:"required"`
	Preamble   []string   `toml:"preamble" yaml:"preamble,omitempty"`
	Decimals   int        `toml:"decimals" yaml:"decimals,omitempty" validate:"gte=0,lte=1000"`
	Constants  []Constant `toml:"constants" yaml:"constants,omitempty" validate:"dive"`
	Derived    []Derived  `toml:"derived" yaml:"derived,omitempty" validate:"dive"`
	Inputs     []Input    `toml:"inputs" yaml:"inputs,omitempty" validate:"dive"`
	Entries    []Entry    `toml:"entries" yaml:"entries" validate:"required,min=1,dive"`
	Conclusion []string   `toml:"conclusion" yaml:"conclusion,omitempty"`
}

// Constant is a literal constant registered with the provider.
type Constant struct {
	Name  string `toml:"name" yaml:"name" validate:"required,formula_name"`
	Value string `toml:"value" yaml:"value" validate:"required,decimal"`
	Note  string `toml:"note" yaml:"note,omitempty"`
}

// Derived is an intermediate formula that entries may refer to but that is
// not reported on its own.
type Derived struct {
	Name    string `toml:"name" yaml:"name" validate:"required,formula_name"`
	Expr    string `toml:"expr" yaml:"expr" validate:"required,formula"`
	Display string `toml:"display" yaml:"display,omitempty"`
}

// Input is a line of the inputs section shown before the entries.
type Input struct {
	Label      string `toml:"label" yaml:"label" validate:"required"`
	Expr       string `toml:"expr" yaml:"expr" validate:"required,formula"`
	Decimals   int    `toml:"decimals" yaml:"decimals,omitempty" validate:"gte=0,lte=1000"`
	Scientific bool   `toml:"scientific" yaml:"scientific,omitempty"`
	Unit       string `toml:"unit" yaml:"unit,omitempty"`
}

// Entry is one reported formula and its reference.
type Entry struct {
	Name       string    `toml:"name" yaml:"name" validate:"required,formula_name"`
	Label      string    `toml:"label" yaml:"label" validate:"required"`
	Expr       string    `toml:"expr" yaml:"expr" validate:"required,formula"`
	Display    string    `toml:"display" yaml:"display,omitempty"`
	Decimals   int       `toml:"decimals" yaml:"decimals,omitempty" validate:"gte=0,lte=1000"`
	Scientific bool      `toml:"scientific" yaml:"scientific,omitempty"`
	Unit       string    `toml:"unit" yaml:"unit,omitempty"`
	Note       string    `toml:"note" yaml:"note,omitempty"`
	Reference  Reference `toml:"reference" yaml:"reference"`
}

// Reference is the value an entry is compared against. Thresholds are exact
// decimal strings.
type Reference struct {
	Value     string `toml:"value" yaml:"value,omitempty" validate:"omitempty,decimal"`
	Rule      string `toml:"rule" yaml:"rule" validate:"required,oneof=absolute relative range qualitative"`
	Tolerance string `toml:"tolerance" yaml:"tolerance,omitempty" validate:"omitempty,decimal"`
	Extended  string `toml:"extended" yaml:"extended,omitempty" validate:"omitempty,decimal"`
	Low       string `toml:"low" yaml:"low,omitempty" validate:"omitempty,decimal"`
	High      string `toml:"high" yaml:"high,omitempty" validate:"omitempty,decimal"`
	Label     string `toml:"label" yaml:"label,omitempty"`
	Source    string `toml:"source" yaml:"source,omitempty"`
}

// CompareRule converts the reference into a comparison rule.
func (r Reference) CompareRule() compare.Rule {
	var rule compare.Rule
	switch r.Rule {
	case "absolute":
		rule = compare.Absolute(r.Tolerance)
	case "relative":
		rule = compare.Relative(r.Tolerance)
	case "range":
		rule = compare.Range(r.Low, r.High)
	case "qualitative":
		rule = compare.Qualitative(r.Label)
	}
	if r.Extended != "" {
		rule = rule.WithExtended(r.Extended)
	}
	return rule
}

// Format is a catalog encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatOf picks the encoding from a file extension; unknown extensions are TOML.
func FormatOf(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatTOML
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("decimal", validDecimal)
	_ = v.RegisterValidation("formula", validFormula)
	_ = v.RegisterValidation("formula_name", validFormulaName)
	return v
}

func validDecimal(fl validator.FieldLevel) bool {
	_, err := apconst.Parse(fl.Field().String(), 64)
	return err == nil
}

func validFormula(fl validator.FieldLevel) bool {
	_, err := formula.Parse(fl.Field().String())
	return err == nil
}

func validFormulaName(fl validator.FieldLevel) bool {
	return formula.IsName(fl.Field().String())
}

// Decode reads a catalog in the given format and validates it.
func Decode(data []byte, format Format) (*Catalog, error) {
	var cat Catalog
	switch format {
	case FormatTOML:
		md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&cat)
		if err != nil {
			return nil, catalogErr("", "TOML: %v", err)
		}
		if undec := md.Undecoded(); len(undec) > 0 {
			return nil, catalogErr(cat.Name, "unknown key %q", undec[0].String())
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cat); err != nil {
			return nil, catalogErr("", "YAML: %v", err)
		}
	default:
		return nil, catalogErr("", "unsupported format %q", format)
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// Load reads and validates a catalog file.
func Load(filename string) (*Catalog, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, catalogErr(filename, "%v", err)
	}
	return Decode(data, FormatOf(filename))
}

// Validate checks field constraints and cross-references: names are unique
// across constants, derived formulas and entries, and references are
// complete for their rule.
func (c *Catalog) Validate() error {
	if err := validate.Struct(c); err != nil {
		return catalogErr(c.Name, "%v", err)
	}
	seen := make(map[string]string)
	claim := func(name, what string) error {
		if prev, dup := seen[name]; dup {
			return catalogErr(c.Name, "%s %q already declared as %s", what, name, prev)
		}
		seen[name] = what
		return nil
	}
	for _, k := range c.Constants {
		if err := claim(k.Name, "constant"); err != nil {
			return err
		}
	}
	for _, d := range c.Derived {
		if err := claim(d.Name, "derived formula"); err != nil {
			return err
		}
	}
	for _, e := range c.Entries {
		if err := claim(e.Name, "entry"); err != nil {
			return err
		}
		ref := e.Reference
		if ref.Value == "" && (ref.Rule == "absolute" || ref.Rule == "relative") {
			return catalogErr(c.Name, "entry %q: %s rule needs a reference value", e.Name, ref.Rule)
		}
		if ref.Rule == "relative" {
			if v, err := apconst.Parse(ref.Value, 64); err == nil && v.Sign() == 0 {
				return catalogErr(c.Name, "entry %q: relative rule against a zero reference", e.Name)
			}
		}
		if err := ref.CompareRule().Validate(); err != nil {
			return catalogErr(c.Name, "entry %q: %v", e.Name, err)
		}
	}
	return nil
}

// EntryNames returns the entry names in declaration order.
func (c *Catalog) EntryNames() []string {
	names := make([]string, len(c.Entries))
	for i, e := range c.Entries {
		names[i] = e.Name
	}
	return names
}

func (c *Catalog) decimals(n int) int {
	switch {
	case n > 0:
		return n
	case c.Decimals > 0:
		return c.Decimals
	}
	return DefaultDecimals
}

func catalogErr(name, format string, args ...any) error {
	return &apconst.Error{Kind: apconst.ErrConfiguration, Op: "load catalog", Name: name, Err: fmt.Errorf(format, args...)}
}

//go:embed catalogs/*.toml
var builtinFS embed.FS

// builtinOrder is the order reports are run when none is named.
var builtinOrder = []string{"zeta", "apery", "planck"}

// BuiltinNames returns the names of the embedded catalogs in run order.
func BuiltinNames() []string {
	names := append([]string(nil), builtinOrder...)
	entries, _ := builtinFS.ReadDir("catalogs")
	var extra []string
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), path.Ext(e.Name()))
		if !contains(names, name) {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

// Builtin returns a fresh copy of the named embedded catalog.
func Builtin(name string) (*Catalog, error) {
	data, err := builtinFS.ReadFile("catalogs/" + name + ".toml")
	if err != nil {
		return nil, catalogErr(name, "no built-in catalog")
	}
	return Decode(data, FormatTOML)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
