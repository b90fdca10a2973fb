package sheetaccess_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"realitease/internal/config"
	"realitease/internal/services"
	"realitease/internal/sheetaccess"
)

func TestOpenSQLiteBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Sheet.SQLitePath = filepath.Join(t.TempDir(), "sheets.db")

	store, err := sheetaccess.Open(context.Background(), &cfg)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer store.Close()
	if err := store.EnsureTable(context.Background(), "ShowInfo", []string{"Show"}); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	if got := sheetaccess.Describe(&cfg); got != "sqlite:"+cfg.Sheet.SQLitePath {
		t.Fatalf("unexpected description %q", got)
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Sheet.Backend = "excel"
	if _, err := sheetaccess.Open(context.Background(), &cfg); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
