package sheet

import (
	"context"
	"errors"
)

// ErrMissingHeader is returned when a store lacks a column the tracker needs
var ErrMissingHeader = errors.New("sheet: missing header")

// Store is where recorded rows live. Rows are kept in the order they were
// appended, oldest first.
type Store interface {
	Headers() []string
	MatchIDs(ctx context.Context) ([]string, error)
	ColumnValues(ctx context.Context, header string) ([]string, error)
	LatestRow(ctx context.Context) (*Row, error)
	AppendRow(ctx context.Context, row Row) error
	Close() error
}
