// Package sqlite persists the quote collection in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jsamuelsen/quotesync/internal/domain"
	"github.com/jsamuelsen/quotesync/internal/ports"
)

const (
	driverName         = "sqlite3"
	schemaVersion      = "1"
	defaultBusyTimeout = 5 * time.Second

	metaSchemaVersion = "schema_version"
	metaInitializedAt = "initialized_at"
)

const schema = `
	CREATE TABLE IF NOT EXISTS quotes (
		id            TEXT PRIMARY KEY,
		text          TEXT NOT NULL,
		category      TEXT NOT NULL,
		last_modified INTEGER NOT NULL,
		position      INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_quotes_position ON quotes(position);
	CREATE INDEX IF NOT EXISTS idx_quotes_category ON quotes(category);
`

var (
	_ ports.QuoteStore    = (*Store)(nil)
	_ ports.HealthChecker = (*Store)(nil)
)

// Options tune how the database is opened.
type Options struct {
	// BusyTimeout is how long a writer waits on a locked database. Defaults to 5s.
	BusyTimeout time.Duration

	Logger *slog.Logger
}

// Store implements ports.QuoteStore. Row order is kept in the position
// column so a load returns quotes in the order they were saved.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open opens (creating if needed) the database at path and applies the schema.
// A leading ~ is expanded to the user's home directory.
func Open(ctx context.Context, path string, opts Options) (*Store, error) {
	path, err := expandHome(path)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	busy := opts.BusyTimeout
	if busy <= 0 {
		busy = defaultBusyTimeout
	}

	db, err := sql.Open(driverName, dsn(path, busy))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// One writer at a time; readers share the same connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	if _, err := db.ExecContext(ctx,
		`INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)`, metaSchemaVersion, schemaVersion); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("recording schema version: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		db:     db,
		path:   path,
		logger: logger.With(slog.String("component", "sqlite"), slog.String("path", path)),
	}, nil
}

func dsn(path string, busy time.Duration) string {
	q := url.Values{}
	q.Set("_journal_mode", "WAL")
	q.Set("_synchronous", "NORMAL")
	q.Set("_busy_timeout", strconv.FormatInt(busy.Milliseconds(), 10))

	return "file:" + path + "?" + q.Encode()
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}

	return filepath.Join(home, path[1:]), nil
}

// Path returns the resolved database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns the persisted collection. found is false when Save has never
// run against this database, which is distinct from a saved empty collection.
func (s *Store) Load(ctx context.Context) (domain.Collection, bool, error) {
	var initialized string

	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, metaInitializedAt).Scan(&initialized)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("reading store metadata: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, category, last_modified FROM quotes ORDER BY position`)
	if err != nil {
		return nil, false, fmt.Errorf("querying quotes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	quotes := domain.Collection{}

	for rows.Next() {
		var q domain.Quote
		if err := rows.Scan(&q.ID, &q.Text, &q.Category, &q.LastModified); err != nil {
			return nil, false, fmt.Errorf("scanning quote: %w", err)
		}

		quotes = append(quotes, q)
	}

	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterating quotes: %w", err)
	}

	s.logger.DebugContext(ctx, "collection loaded", slog.Int("count", len(quotes)))

	return quotes, true, nil
}

// Save replaces every stored row with quotes in a single transaction.
func (s *Store) Save(ctx context.Context, quotes domain.Collection) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM quotes`); err != nil {
		return fmt.Errorf("clearing quotes: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO quotes (id, text, category, last_modified, position) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, q := range quotes {
		if _, err = stmt.ExecContext(ctx, q.ID, q.Text, q.Category, q.LastModified, i); err != nil {
			return fmt.Errorf("inserting quote %q: %w", q.ID, err)
		}
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)`,
		metaInitializedAt, strconv.FormatInt(time.Now().UnixMilli(), 10)); err != nil {
		return fmt.Errorf("marking store initialized: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing quotes: %w", err)
	}

	s.logger.DebugContext(ctx, "collection saved", slog.Int("count", len(quotes)))

	return nil
}

// Name implements ports.HealthChecker.
func (s *Store) Name() string {
	return "quote-store"
}

// Check implements ports.HealthChecker.
func (s *Store) Check(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
