package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ranked-tracker/internal/sheet"

	"github.com/goccy/go-json"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// SQLStore keeps rows in a SQLite-dialect database, either a local file or
// Turso. Cells are stored as JSON text.
type SQLStore struct {
	db *sql.DB
}

var _ sheet.Store = (*SQLStore)(nil)

// OpenSQLite opens (or creates) a local SQLite row store
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// a single writer avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)
	return newSQLStore(ctx, db)
}

// OpenTurso connects to a Turso database
func OpenTurso(ctx context.Context, url, authToken string) (*SQLStore, error) {
	connStr := url
	if authToken != "" {
		connStr = fmt.Sprintf("%s?authToken=%s", url, authToken)
	}

	db, err := sql.Open("libsql", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Turso: %w", err)
	}
	return newSQLStore(ctx, db)
}

func newSQLStore(ctx context.Context, db *sql.DB) (*SQLStore, error) {
	// Test connection
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLStore{db: db}
	if err := s.CreateTables(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the connection
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// CreateTables creates the required tables if they don't exist
func (s *SQLStore) CreateTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS match_rows (
			match_id TEXT PRIMARY KEY,
			row_index INTEGER NOT NULL,
			cells TEXT NOT NULL,
			recorded_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_match_rows_index ON match_rows(row_index)`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// Headers is the fixed column set
func (s *SQLStore) Headers() []string {
	return sheet.Columns
}

// MatchIDs returns every recorded match id, oldest first
func (s *SQLStore) MatchIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT match_id FROM match_rows ORDER BY row_index`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ColumnValues returns one column, oldest first. Missing cells are "".
// Cells are decoded here rather than with json_extract so header names need
// no path quoting.
func (s *SQLStore) ColumnValues(ctx context.Context, header string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT match_id, cells FROM match_rows ORDER BY row_index`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var matchID, cells string
		if err := rows.Scan(&matchID, &cells); err != nil {
			return nil, err
		}
		row, err := decodeRow(matchID, []byte(cells))
		if err != nil {
			return nil, err
		}
		values = append(values, row.String(header))
	}
	return values, rows.Err()
}

// LatestRow returns the most recently appended row, nil when empty
func (s *SQLStore) LatestRow(ctx context.Context) (*sheet.Row, error) {
	var matchID, cells string
	err := s.db.QueryRowContext(ctx, `
		SELECT match_id, cells FROM match_rows ORDER BY row_index DESC LIMIT 1
	`).Scan(&matchID, &cells)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeRow(matchID, []byte(cells))
}

// AppendRow inserts a row after the last one. A match that is already
// recorded is left untouched.
func (s *SQLStore) AppendRow(ctx context.Context, row sheet.Row) error {
	cells, err := json.Marshal(row.Cells)
	if err != nil {
		return fmt.Errorf("failed to encode row %s: %w", row.MatchID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO match_rows (match_id, row_index, cells, recorded_at)
		SELECT ?, COALESCE(MAX(row_index), 0) + 1, ?, ? FROM match_rows
	`, row.MatchID, string(cells), time.Now().UTC().Format(time.RFC3339))
	return err
}
