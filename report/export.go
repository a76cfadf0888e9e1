package report

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/lukaszgryglicki/apconst/compare"
)

type yamlReport struct {
	Name       string      `yaml:"name"`
	Title      string      `yaml:"title"`
	Digits     int         `yaml:"digits"`
	Inputs     []yamlInput `yaml:"inputs,omitempty"`
	Entries    []yamlEntry `yaml:"entries"`
	Conclusion []string    `yaml:"conclusion,omitempty"`
}

type yamlInput struct {
	Label string `yaml:"label"`
	Expr  string `yaml:"expr"`
	Value string `yaml:"value"`
	Unit  string `yaml:"unit,omitempty"`
}

type yamlEntry struct {
	Name      string `yaml:"name"`
	Label     string `yaml:"label"`
	Formula   string `yaml:"formula,omitempty"`
	Computed  string `yaml:"computed"`
	Reference string `yaml:"reference,omitempty"`
	Source    string `yaml:"source,omitempty"`
	Rule      string `yaml:"rule"`
	Absolute  string `yaml:"absolute_deviation,omitempty"`
	Percent   string `yaml:"percent_deviation,omitempty"`
	Accuracy  string `yaml:"accuracy,omitempty"`
	Verdict   string `yaml:"verdict"`
	Status    string `yaml:"status,omitempty"`
	Unit      string `yaml:"unit,omitempty"`
}

// EncodeYAML writes r as a YAML document. Values are decimal strings with
// the same digits as the text report; deviations keep six significant
// digits.
func EncodeYAML(w io.Writer, r *Report) error {
	doc := yamlReport{
		Name:       r.Name,
		Title:      r.Title,
		Digits:     r.Digits,
		Conclusion: r.Conclusion,
	}
	for _, in := range r.Inputs {
		doc.Inputs = append(doc.Inputs, yamlInput{
			Label: in.Label,
			Expr:  in.Expr,
			Value: formatValue(in.Value, in.Decimals, in.Scientific),
			Unit:  in.Unit,
		})
	}
	for _, e := range r.Entries {
		res := e.Result
		y := yamlEntry{
			Name:     e.Name,
			Label:    e.Label,
			Formula:  e.Display,
			Computed: formatValue(res.Computed, e.Decimals, e.Scientific),
			Source:   e.Source,
			Rule:     res.Rule.String(),
			Verdict:  res.Verdict.String(),
			Unit:     e.Unit,
		}
		if res.Reference != nil {
			y.Reference = formatValue(res.Reference, e.Decimals, e.Scientific)
		}
		if res.Absolute != nil {
			y.Absolute = res.Absolute.Text(6)
		}
		if res.Percent != nil {
			y.Percent = res.Percent.Text(6)
		}
		if acc := res.Accuracy(); acc != nil {
			y.Accuracy = acc.Text(10)
		}
		if res.Rule.Kind == compare.KindQualitative {
			y.Status = res.Label
		}
		doc.Entries = append(doc.Entries, y)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}
