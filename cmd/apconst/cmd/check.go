package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lukaszgryglicki/apconst"
	"github.com/lukaszgryglicki/apconst/report"
)

// checkTolerance bounds the relative disagreement accepted between the
// working-precision and the float64 evaluation.
const checkTolerance = 1e-9

func newCheckCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check [name|file]...",
		Short: "Cross-check every entry against a float64 evaluation",
		Long: `Evaluate every entry twice, once at the working precision and once in
float64 arithmetic, and report how far apart the two results are. Fails when
any entry disagrees by more than one part in 10⁹.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, o)
			if err != nil {
				return err
			}
			cats, err := e.catalogs(args)
			if err != nil {
				return err
			}
			var worst string
			for _, cat := range cats {
				ev, err := report.Compile(cat, e.prov, e.log)
				if err != nil {
					return err
				}
				checks, err := ev.CrossCheck(cat.EntryNames())
				if err != nil {
					return err
				}
				fmt.Fprintf(e.out, "%s\n", cat.Name)
				for _, c := range checks {
					status := "ok"
					if c.RelDiff > checkTolerance {
						status = "DISAGREES"
						if worst == "" {
							worst = cat.Name + "/" + c.Name
						}
					}
					fmt.Fprintf(e.out, "  %-16s %-24.17g %-24.17g %9.2e  %s\n", c.Name, c.Precise, c.Float, c.RelDiff, status)
				}
			}
			if worst != "" {
				return apconst.EvalErrorf(worst, "float64 cross-check disagrees by more than %g", checkTolerance)
			}
			return nil
		},
	}
}
