package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the available reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, o)
			if err != nil {
				return err
			}
			cats, err := e.catalogs(nil)
			if err != nil {
				return err
			}
			for _, cat := range cats {
				fmt.Fprintf(e.out, "%-8s %2d entries  %s\n", cat.Name, len(cat.Entries), cat.Title)
				for _, entry := range cat.Entries {
					fmt.Fprintf(e.out, "  %-16s %s\n", entry.Name, entry.Expr)
				}
			}
			return nil
		},
	}
}
