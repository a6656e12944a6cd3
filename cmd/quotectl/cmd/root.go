// Package cmd implements the quotectl commands. Every command works directly
// on the SQLite database the service uses; nothing talks to the remote source.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/quotesync/internal/adapters/sqlite"
	"github.com/jsamuelsen/quotesync/internal/app"
	"github.com/jsamuelsen/quotesync/internal/platform/config"
	"github.com/jsamuelsen/quotesync/internal/platform/logging"
)

// env carries the per-invocation state shared by subcommands.
type env struct {
	dbPath   string
	logLevel string

	store   *sqlite.Store
	service *app.QuoteService
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:   "quotectl",
		Short: "Manage the local quote collection",
		Long: `quotectl reads and edits the quote collection stored by quotesync.

Examples:
  quotectl list --category Wisdom
  quotectl random
  quotectl add "Stay curious." Learning
  quotectl import quotes.json
  quotectl export backup.json`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}

			return e.open(cmd.Context(), cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return e.close()
		},
	}

	root.PersistentFlags().StringVar(&e.dbPath, "db", defaultDBPath(), "path to the quote database")
	root.PersistentFlags().StringVar(&e.logLevel, "log-level", "warn", "log level (trace, debug, info, warn, error)")

	root.AddCommand(
		newListCmd(e),
		newRandomCmd(e),
		newAddCmd(e),
		newImportCmd(e),
		newExportCmd(e),
		newCategoriesCmd(e),
	)

	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (e *env) open(ctx context.Context, cmd *cobra.Command) error {
	logger := logging.NewWithWriter(&logging.Config{
		Level:   e.logLevel,
		Format:  "pretty",
		Service: "quotectl",
		Version: "dev",
	}, cmd.ErrOrStderr())

	store, err := sqlite.Open(ctx, e.dbPath, sqlite.Options{Logger: logger})
	if err != nil {
		return err
	}

	collection := app.NewCollection(app.CollectionConfig{Store: store, Logger: logger})
	if err := collection.Load(ctx); err != nil {
		_ = store.Close()
		return fmt.Errorf("loading collection: %w", err)
	}

	e.store = store
	e.service = app.NewQuoteService(app.QuoteServiceConfig{Collection: collection, Logger: logger})

	logger.Debug("opened quote database", slog.String("path", store.Path()), slog.Int("quotes", collection.Len()))

	return nil
}

func (e *env) close() error {
	if e.store == nil {
		return nil
	}

	err := e.store.Close()
	e.store = nil

	return err
}

func defaultDBPath() string {
	if p := os.Getenv("APP_STORE_PATH"); p != "" {
		return p
	}

	return config.DefaultStorePath
}
