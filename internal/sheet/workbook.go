package sheet

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/xuri/excelize/v2"
)

// DataSheet is the worksheet rows are written to
const DataSheet = "Data"

// Workbook is an xlsx file used as the row store. The first row of the Data
// sheet holds the headers; each match is one row below it.
type Workbook struct {
	path string

	mu      sync.Mutex
	f       *excelize.File
	headers []string
	index   map[string]int
	lastRow int
}

// OpenWorkbook opens the workbook at path, creating it with the default
// headers when it does not exist yet
func OpenWorkbook(path string) (*Workbook, error) {
	w := &Workbook{path: path}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := w.create(); err != nil {
			return nil, err
		}
	} else {
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open workbook: %w", err)
		}
		w.f = f
	}

	if err := w.load(); err != nil {
		w.f.Close()
		return nil, err
	}
	return w, nil
}

func (w *Workbook) create() error {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), DataSheet); err != nil {
		return err
	}
	for i, h := range Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(DataSheet, cell, h); err != nil {
			return err
		}
	}
	if err := f.SetPanes(DataSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}
	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("failed to create workbook: %w", err)
	}
	w.f = f
	return nil
}

func (w *Workbook) load() error {
	rows, err := w.f.GetRows(DataSheet)
	if err != nil {
		return fmt.Errorf("failed to read %s sheet: %w", DataSheet, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("%w: %s sheet has no header row", ErrMissingHeader, DataSheet)
	}

	w.headers = rows[0]
	w.index = HeaderIndex(w.headers)
	w.lastRow = len(rows)

	if _, ok := w.index[ColMatchID]; !ok {
		return fmt.Errorf("%w: %q", ErrMissingHeader, ColMatchID)
	}
	return nil
}

// Headers returns the header row as found in the file
func (w *Workbook) Headers() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.headers...)
}

// LastRow is the 1-based number of the last non-empty row (1 = headers only)
func (w *Workbook) LastRow() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastRow
}

// MatchIDs returns the recorded match IDs, oldest first
func (w *Workbook) MatchIDs(ctx context.Context) ([]string, error) {
	ids, err := w.ColumnValues(ctx, ColMatchID)
	if err != nil {
		return nil, err
	}
	out := ids[:0]
	for _, id := range ids {
		if id != "" {
			out = append(out, id)
		}
	}
	return out, nil
}

// ColumnValues returns every value under header below the header row
func (w *Workbook) ColumnValues(_ context.Context, header string) ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	col, ok := w.index[header]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingHeader, header)
	}

	rows, err := w.f.GetRows(DataSheet)
	if err != nil {
		return nil, err
	}

	values := make([]string, 0, len(rows))
	for _, row := range rows[1:] {
		if col <= len(row) {
			values = append(values, row[col-1])
		} else {
			values = append(values, "")
		}
	}
	return values, nil
}

// LatestRow returns the most recently appended row, nil when there is none
func (w *Workbook) LatestRow(_ context.Context) (*Row, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.lastRow <= 1 {
		return nil, nil
	}

	rows, err := w.f.GetRows(DataSheet)
	if err != nil {
		return nil, err
	}
	last := rows[len(rows)-1]

	row := Row{Cells: make(map[string]any, len(last))}
	for i, v := range last {
		if i < len(w.headers) && w.headers[i] != "" && v != "" {
			row.Cells[w.headers[i]] = v
		}
	}
	row.MatchID = row.String(ColMatchID)
	return &row, nil
}

// AppendRow writes row below the last one and saves the file. Cells whose
// header is not in the sheet are dropped.
func (w *Workbook) AppendRow(_ context.Context, row Row) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	rowNum := w.lastRow + 1
	if row.Cells == nil {
		row.Cells = make(map[string]any, 1)
	}
	row.Cells[ColMatchID] = row.MatchID

	for header, value := range row.Cells {
		col, ok := w.index[header]
		if !ok {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(col, rowNum)
		if err != nil {
			return err
		}
		if err := w.f.SetCellValue(DataSheet, cell, value); err != nil {
			return fmt.Errorf("set %s: %w", cell, err)
		}
	}

	if err := w.f.SaveAs(w.path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	w.lastRow = rowNum
	return nil
}

// Close releases the workbook
func (w *Workbook) Close() error {
	return w.f.Close()
}
