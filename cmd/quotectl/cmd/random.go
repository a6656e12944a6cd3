package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRandomCmd(e *env) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "random",
		Short: "Print a random quote",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := e.service.RandomQuote(cmd.Context(), category)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%q\n  (%s)\n", q.Text, q.Category)

			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", `category to pick from ("all" or empty for any)`)

	return cmd
}
