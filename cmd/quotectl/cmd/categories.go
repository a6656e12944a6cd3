package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCategoriesCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories in first-seen order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, c := range e.service.Categories(cmd.Context()) {
				fmt.Fprintln(cmd.OutOrStdout(), c)
			}

			return nil
		},
	}
}
