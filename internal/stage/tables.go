package stage

import (
	"context"
	"errors"
	"fmt"

	"realitease/internal/sheet"
)

// LoadTable ensures the worksheet exists with header and returns its rows.
func LoadTable(ctx context.Context, store sheet.Store, name string, header []string) (*sheet.Table, error) {
	if err := store.EnsureTable(ctx, name, header); err != nil {
		return nil, fmt.Errorf("ensure %s: %w", name, err)
	}
	table, err := store.Read(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return table, nil
}

// ReadOptional returns the worksheet rows, or an empty table when the
// worksheet does not exist yet.
func ReadOptional(ctx context.Context, store sheet.Store, name string) (*sheet.Table, error) {
	table, err := store.Read(ctx, name)
	if errors.Is(err, sheet.ErrTableNotFound) {
		return &sheet.Table{Name: name}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return table, nil
}
