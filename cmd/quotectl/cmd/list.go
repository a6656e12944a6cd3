package cmd

import (
	"fmt"
	"math"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/quotesync/internal/domain"
)

func newListCmd(e *env) *cobra.Command {
	var (
		category string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List quotes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit <= 0 {
				limit = math.MaxInt32
			}

			quotes, _, err := e.service.ListQuotes(cmd.Context(), category, "", limit)
			if err != nil {
				return err
			}

			return printQuotes(cmd, quotes)
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "only list quotes in this category")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of quotes (0 for all)")

	return cmd
}

func printQuotes(cmd *cobra.Command, quotes domain.Collection) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

	for _, q := range quotes {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", q.ID, q.Category, q.Text)
	}

	return tw.Flush()
}
