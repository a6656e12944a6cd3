package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newImportCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import quotes from a JSON array (- for stdin)",
		Long: `Import quotes from a JSON array of {id, text, category, lastModified}.
Records with missing fields or an id already in the collection are rejected;
the rest are added in file order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()

			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("opening import file: %w", err)
				}
				defer f.Close()

				r = f
			}

			result, err := e.service.ImportQuotes(cmd.Context(), r)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "accepted %d, rejected %d\n", result.Accepted, result.Rejected)

			for _, rejectErr := range result.Errors {
				fmt.Fprintf(out, "  %v\n", rejectErr)
			}

			return nil
		},
	}
}

func newExportCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Export the collection as JSON (stdout when no file is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return e.service.ExportQuotes(cmd.Context(), cmd.OutOrStdout())
			}

			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("creating export file: %w", err)
			}

			if err := e.service.ExportQuotes(cmd.Context(), f); err != nil {
				_ = f.Close()
				return err
			}

			return f.Close()
		},
	}
}
