package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConstantsCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "constants",
		Short: "Print the built-in constants at the working precision",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, o)
			if err != nil {
				return err
			}
			digits := e.prov.Precision().Digits()
			for _, name := range e.prov.Names() {
				v, err := e.prov.Get(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(e.out, "%-12s %s\n", name, v.Text(digits))
			}
			return nil
		},
	}
}
