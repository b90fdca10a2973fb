package testsupport

import (
	"context"
	"path/filepath"
	"testing"

	"realitease/internal/sheet"
	"realitease/internal/sheet/sqlitesheet"
	"realitease/internal/state"
	"realitease/internal/worksheets"
)

// Stores bundles a worksheet store and a state store rooted in one temp dir.
type Stores struct {
	Sheets *sqlitesheet.Store
	State  *state.Store
}

// OpenStores opens fresh stores for tests and registers cleanup.
func OpenStores(t testing.TB) Stores {
	t.Helper()

	ctx := context.Background()
	dir := t.TempDir()
	sheets, err := sqlitesheet.Open(ctx, filepath.Join(dir, "sheets.db"))
	if err != nil {
		t.Fatalf("sqlitesheet.Open: %v", err)
	}
	t.Cleanup(func() { _ = sheets.Close() })
	st, err := state.Open(ctx, filepath.Join(dir, "state.db"))
	if err != nil {
		t.Fatalf("state.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return Stores{Sheets: sheets, State: st}
}

// Seed creates the worksheet of layout and appends rows to it.
func Seed(t testing.TB, store sheet.Store, layout worksheets.Layout, rows ...map[string]string) {
	t.Helper()

	ctx := context.Background()
	if err := store.EnsureTable(ctx, layout.Name, layout.Header); err != nil {
		t.Fatalf("ensure %s: %v", layout.Name, err)
	}
	if len(rows) == 0 {
		return
	}
	if err := store.Append(ctx, layout.Name, rows); err != nil {
		t.Fatalf("append %s: %v", layout.Name, err)
	}
}

// Rows reads every row of a worksheet.
func Rows(t testing.TB, store sheet.Store, name string) []sheet.Row {
	t.Helper()

	table, err := store.Read(context.Background(), name)
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return table.Rows
}

// RowsBy indexes the rows of a worksheet by key(row).
func RowsBy(t testing.TB, store sheet.Store, name string, key func(sheet.Row) string) map[string]sheet.Row {
	t.Helper()

	out := map[string]sheet.Row{}
	for _, row := range Rows(t, store, name) {
		out[key(row)] = row
	}
	return out
}
