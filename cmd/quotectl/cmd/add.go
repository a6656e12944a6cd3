package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAddCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:     "add <text> <category>",
		Short:   "Add a quote",
		Example: `  quotectl add "Simplicity is prerequisite for reliability." Engineering`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := e.service.AddQuote(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", q.ID)

			return nil
		},
	}
}
