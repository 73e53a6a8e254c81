package db

import (
	"context"
	"errors"
	"fmt"

	"ranked-tracker/internal/sheet"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
)

var _ sheet.Store = (*DB)(nil)

// Headers is the fixed column set; SQL stores have no header row to drift
func (db *DB) Headers() []string {
	return sheet.Columns
}

// MatchIDs returns every recorded match id, oldest first
func (db *DB) MatchIDs(ctx context.Context) ([]string, error) {
	rows, err := db.pool.Query(ctx, `SELECT match_id FROM match_rows ORDER BY row_index`)
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
func (db *DB) ColumnValues(ctx context.Context, header string) ([]string, error) {
	rows, err := db.pool.Query(ctx, `
		SELECT COALESCE(cells->>$1, '')
		FROM match_rows
		ORDER BY row_index
	`, header)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// LatestRow returns the most recently appended row, nil when empty
func (db *DB) LatestRow(ctx context.Context) (*sheet.Row, error) {
	var matchID string
	var cells []byte
	err := db.pool.QueryRow(ctx, `
		SELECT match_id, cells
		FROM match_rows
		ORDER BY row_index DESC
		LIMIT 1
	`).Scan(&matchID, &cells)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeRow(matchID, cells)
}

// AppendRow inserts a row after the last one. A match that is already
// recorded is left untouched.
func (db *DB) AppendRow(ctx context.Context, row sheet.Row) error {
	cells, err := json.Marshal(row.Cells)
	if err != nil {
		return fmt.Errorf("failed to encode row %s: %w", row.MatchID, err)
	}

	_, err = db.pool.Exec(ctx, `
		INSERT INTO match_rows (match_id, row_index, cells)
		SELECT $1, COALESCE(MAX(row_index), 0) + 1, $2::jsonb FROM match_rows
		ON CONFLICT (match_id) DO NOTHING
	`, row.MatchID, string(cells))
	return err
}

// GetRowCount returns the number of recorded rows
func (db *DB) GetRowCount(ctx context.Context) (int, error) {
	var count int
	err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM match_rows`).Scan(&count)
	return count, err
}

func decodeRow(matchID string, cells []byte) (*sheet.Row, error) {
	row := sheet.NewRow(matchID)
	if err := json.Unmarshal(cells, &row.Cells); err != nil {
		return nil, fmt.Errorf("failed to decode row %s: %w", matchID, err)
	}
	if row.Cells == nil {
		row.Cells = map[string]any{}
	}
	row.Cells[sheet.ColMatchID] = matchID
	return &row, nil
}
