package sheet

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// HeaderRow is the row number of every worksheet's header.
const HeaderRow = 1

// FirstDataRow is the first row number that holds data.
const FirstDataRow = HeaderRow + 1

var (
	// ErrTableNotFound is returned when a worksheet does not exist.
	ErrTableNotFound = errors.New("worksheet not found")
	// ErrUnknownColumn is returned when a write names a column missing from the header.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrRowOutOfRange is returned when an update targets a row that does not exist.
	ErrRowOutOfRange = errors.New("row out of range")
)

// Row is one data row. Values holds every header column, empty when blank.
type Row struct {
	Number int
	Values map[string]string
}

// Get returns the trimmed value of column.
func (r Row) Get(column string) string {
	return strings.TrimSpace(r.Values[column])
}

// Table is a worksheet snapshot.
type Table struct {
	Name   string
	Header []string
	Rows   []Row
}

// ColumnIndex returns the 0-based position of column in the header, or -1.
func (t *Table) ColumnIndex(column string) int {
	for i, name := range t.Header {
		if name == column {
			return i
		}
	}
	return -1
}

// NextRow returns the row number the next appended row will receive.
func (t *Table) NextRow() int {
	if len(t.Rows) == 0 {
		return FirstDataRow
	}
	return t.Rows[len(t.Rows)-1].Number + 1
}

// Row returns the row with the given number.
func (t *Table) Row(number int) (Row, bool) {
	idx := number - FirstDataRow
	if idx >= 0 && idx < len(t.Rows) && t.Rows[idx].Number == number {
		return t.Rows[idx], true
	}
	for _, row := range t.Rows {
		if row.Number == number {
			return row, true
		}
	}
	return Row{}, false
}

// CellUpdate sets one cell.
type CellUpdate struct {
	Row    int
	Column string
	Value  string
}

// Store is a collection of worksheets.
type Store interface {
	// EnsureTable creates the worksheet when missing and appends any header
	// columns it lacks. Existing columns are never removed or reordered.
	EnsureTable(ctx context.Context, name string, header []string) error
	// Read returns every row of the worksheet.
	Read(ctx context.Context, name string) (*Table, error)
	// Append adds rows after the last data row. Keys must be header columns.
	Append(ctx context.Context, name string, rows []map[string]string) error
	// Update writes individual cells of existing rows.
	Update(ctx context.Context, name string, updates []CellUpdate) error
	// Tables lists worksheet names.
	Tables(ctx context.Context) ([]string, error)
	Close() error
}

// ColumnLetter converts a 0-based column index into spreadsheet letters
// (0 → A, 25 → Z, 26 → AA).
func ColumnLetter(index int) string {
	if index < 0 {
		return ""
	}
	var out []byte
	for n := index + 1; n > 0; n = (n - 1) / 26 {
		out = append([]byte{byte('A' + (n-1)%26)}, out...)
	}
	return string(out)
}

// A1 renders a single-cell reference such as 'CastInfo'!C5.
func A1(table string, columnIndex, row int) string {
	return fmt.Sprintf("%s!%s%d", QuoteName(table), ColumnLetter(columnIndex), row)
}

// QuoteName quotes a worksheet name for use in A1 notation.
func QuoteName(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// MergeHeader returns existing followed by the columns of wanted it lacks.
func MergeHeader(existing, wanted []string) ([]string, bool) {
	merged := append([]string{}, existing...)
	seen := make(map[string]struct{}, len(existing))
	for _, name := range existing {
		seen[name] = struct{}{}
	}
	changed := false
	for _, name := range wanted {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		merged = append(merged, name)
		changed = true
	}
	return merged, changed
}

// RowValues builds a Row value map aligned to header from positional cells.
func RowValues(header []string, cells []string) map[string]string {
	values := make(map[string]string, len(header))
	for i, name := range header {
		if i < len(cells) {
			values[name] = cells[i]
		} else {
			values[name] = ""
		}
	}
	return values
}

// Cells renders values positionally for header, rejecting unknown columns.
func Cells(header []string, values map[string]string) ([]string, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	cells := make([]string, len(header))
	for column, value := range values {
		i, ok := index[column]
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownColumn, column)
		}
		cells[i] = value
	}
	return cells, nil
}
