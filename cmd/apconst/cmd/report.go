package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/lukaszgryglicki/apconst/report"
)

func newReportCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "report <name|file>...",
		Short: "Print the named reports",
		Long: `Print the named reports in the order given. A name is one of the built-in
catalogs (see "apconst list") or the path of a TOML or YAML catalog file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReports(cmd, o, args)
		},
	}
}

func runReports(cmd *cobra.Command, o *options, names []string) error {
	e, err := setup(cmd, o)
	if err != nil {
		return err
	}
	cats, err := e.catalogs(names)
	if err != nil {
		return err
	}
	// build everything first: a failure leaves no partial output
	reports := make([]*report.Report, 0, len(cats))
	for _, cat := range cats {
		r, err := report.Build(cat, e.prov, report.BuildOptions{Workers: e.cfg.Workers, Logger: e.log})
		if err != nil {
			return err
		}
		reports = append(reports, r)
	}

	ropts := report.RenderOptions{Width: e.cfg.Width}
	if e.cfg.Color {
		ropts.Styles = report.LipglossStyles()
	}
	for i, r := range reports {
		if e.cfg.Format == "yaml" {
			if i > 0 {
				if _, err := io.WriteString(e.out, "---\n"); err != nil {
					return err
				}
			}
			if err := report.EncodeYAML(e.out, r); err != nil {
				return err
			}
			continue
		}
		if i > 0 {
			if _, err := io.WriteString(e.out, "\n"); err != nil {
				return err
			}
		}
		if err := report.Write(e.out, r, ropts); err != nil {
			return err
		}
	}
	return nil
}
