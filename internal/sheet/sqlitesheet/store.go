package sqlitesheet

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"realitease/internal/sheet"
	"realitease/internal/sqlitedb"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Store implements sheet.Store on SQLite.
type Store struct {
	db   *sql.DB
	path string
}

var _ sheet.Store = (*Store)(nil)

// Open connects to (or creates) the worksheet database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	migrations, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("load worksheet migrations: %w", err)
	}
	db, err := sqlitedb.Open(ctx, path, migrations)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// EnsureTable creates the worksheet or extends its header.
func (s *Store) EnsureTable(ctx context.Context, name string, header []string) error {
	now := sqlitedb.FormatTime(time.Now())
	return sqlitedb.InTx(ctx, s.db, func(tx *sql.Tx) error {
		existing, err := loadHeader(ctx, tx, name)
		if errors.Is(err, sheet.ErrTableNotFound) {
			encoded, err := json.Marshal(header)
			if err != nil {
				return fmt.Errorf("encode header: %w", err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO worksheets (name, header_json, created_at, updated_at) VALUES (?, ?, ?, ?)`,
				name, string(encoded), now, now,
			); err != nil {
				return fmt.Errorf("create worksheet %s: %w", name, err)
			}
			return nil
		}
		if err != nil {
			return err
		}
		merged, changed := sheet.MergeHeader(existing, header)
		if !changed {
			return nil
		}
		encoded, err := json.Marshal(merged)
		if err != nil {
			return fmt.Errorf("encode header: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE worksheets SET header_json = ?, updated_at = ? WHERE name = ?`,
			string(encoded), now, name,
		); err != nil {
			return fmt.Errorf("extend worksheet %s header: %w", name, err)
		}
		return nil
	})
}

// Read returns the worksheet with every row.
func (s *Store) Read(ctx context.Context, name string) (*sheet.Table, error) {
	var table *sheet.Table
	err := sqlitedb.RetryOnBusy(ctx, func() error {
		header, err := loadHeader(ctx, s.db, name)
		if err != nil {
			return err
		}
		rows, err := s.db.QueryContext(ctx,
			`SELECT row_number, cells_json FROM worksheet_rows WHERE worksheet = ? ORDER BY row_number`, name)
		if err != nil {
			return fmt.Errorf("query worksheet %s: %w", name, err)
		}
		defer rows.Close()

		table = &sheet.Table{Name: name, Header: header}
		for rows.Next() {
			var (
				number int
				raw    string
			)
			if err := rows.Scan(&number, &raw); err != nil {
				return fmt.Errorf("scan worksheet row: %w", err)
			}
			var cells []string
			if err := json.Unmarshal([]byte(raw), &cells); err != nil {
				return fmt.Errorf("decode %s row %d: %w", name, number, err)
			}
			table.Rows = append(table.Rows, sheet.Row{Number: number, Values: sheet.RowValues(header, cells)})
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return table, nil
}

// Append adds rows after the current last row.
func (s *Store) Append(ctx context.Context, name string, values []map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	now := sqlitedb.FormatTime(time.Now())
	return sqlitedb.InTx(ctx, s.db, func(tx *sql.Tx) error {
		header, err := loadHeader(ctx, tx, name)
		if err != nil {
			return err
		}
		var last sql.NullInt64
		if err := tx.QueryRowContext(ctx,
			`SELECT MAX(row_number) FROM worksheet_rows WHERE worksheet = ?`, name,
		).Scan(&last); err != nil {
			return fmt.Errorf("find last row of %s: %w", name, err)
		}
		next := sheet.FirstDataRow
		if last.Valid {
			next = int(last.Int64) + 1
		}
		for _, row := range values {
			cells, err := sheet.Cells(header, row)
			if err != nil {
				return fmt.Errorf("%s row %d: %w", name, next, err)
			}
			encoded, err := json.Marshal(cells)
			if err != nil {
				return fmt.Errorf("encode row: %w", err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO worksheet_rows (worksheet, row_number, cells_json, updated_at) VALUES (?, ?, ?, ?)`,
				name, next, string(encoded), now,
			); err != nil {
				return fmt.Errorf("insert %s row %d: %w", name, next, err)
			}
			next++
		}
		return nil
	})
}

// Update writes cells of existing rows in one transaction.
func (s *Store) Update(ctx context.Context, name string, updates []sheet.CellUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	now := sqlitedb.FormatTime(time.Now())
	return sqlitedb.InTx(ctx, s.db, func(tx *sql.Tx) error {
		header, err := loadHeader(ctx, tx, name)
		if err != nil {
			return err
		}
		index := make(map[string]int, len(header))
		for i, column := range header {
			index[column] = i
		}

		byRow := make(map[int][]sheet.CellUpdate)
		order := make([]int, 0)
		for _, u := range updates {
			if _, ok := index[u.Column]; !ok {
				return fmt.Errorf("%s: %w %q", name, sheet.ErrUnknownColumn, u.Column)
			}
			if _, seen := byRow[u.Row]; !seen {
				order = append(order, u.Row)
			}
			byRow[u.Row] = append(byRow[u.Row], u)
		}

		for _, number := range order {
			var raw string
			err := tx.QueryRowContext(ctx,
				`SELECT cells_json FROM worksheet_rows WHERE worksheet = ? AND row_number = ?`, name, number,
			).Scan(&raw)
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: %s row %d", sheet.ErrRowOutOfRange, name, number)
			}
			if err != nil {
				return fmt.Errorf("load %s row %d: %w", name, number, err)
			}
			var cells []string
			if err := json.Unmarshal([]byte(raw), &cells); err != nil {
				return fmt.Errorf("decode %s row %d: %w", name, number, err)
			}
			if len(cells) < len(header) {
				cells = append(cells, make([]string, len(header)-len(cells))...)
			}
			for _, u := range byRow[number] {
				cells[index[u.Column]] = u.Value
			}
			encoded, err := json.Marshal(cells)
			if err != nil {
				return fmt.Errorf("encode row: %w", err)
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE worksheet_rows SET cells_json = ?, updated_at = ? WHERE worksheet = ? AND row_number = ?`,
				string(encoded), now, name, number,
			); err != nil {
				return fmt.Errorf("update %s row %d: %w", name, number, err)
			}
		}
		return nil
	})
}

// Tables lists worksheet names in creation order.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	var names []string
	err := sqlitedb.RetryOnBusy(ctx, func() error {
		names = nil
		rows, err := s.db.QueryContext(ctx, `SELECT name FROM worksheets ORDER BY created_at, name`)
		if err != nil {
			return fmt.Errorf("list worksheets: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return fmt.Errorf("scan worksheet name: %w", err)
			}
			names = append(names, name)
		}
		return rows.Err()
	})
	return names, err
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func loadHeader(ctx context.Context, q queryRower, name string) ([]string, error) {
	var raw string
	err := q.QueryRowContext(ctx, `SELECT header_json FROM worksheets WHERE name = ?`, name).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", sheet.ErrTableNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("load worksheet %s: %w", name, err)
	}
	var header []string
	if err := json.Unmarshal([]byte(raw), &header); err != nil {
		return nil, fmt.Errorf("decode worksheet %s header: %w", name, err)
	}
	return header, nil
}
