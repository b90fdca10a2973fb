// Package sheetaccess opens the configured worksheet backend.
package sheetaccess

import (
	"context"
	"fmt"

	"realitease/internal/config"
	"realitease/internal/services"
	"realitease/internal/sheet"
	"realitease/internal/sheet/googlesheets"
	"realitease/internal/sheet/sqlitesheet"
)

// Open returns the sheet.Store selected by cfg.Sheet.Backend.
func Open(ctx context.Context, cfg *config.Config) (sheet.Store, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "sheet", "open", "config is nil", nil)
	}
	switch cfg.Sheet.Backend {
	case config.SheetBackendGoogle:
		store, err := googlesheets.Open(ctx, cfg.Sheet.SpreadsheetID, cfg.Sheet.CredentialsFile)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.SheetBackendSQLite, "":
		store, err := sqlitesheet.Open(ctx, cfg.Sheet.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sheet store %s: %w", cfg.Sheet.SQLitePath, err)
		}
		return store, nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "sheet", "open", fmt.Sprintf("unknown backend %q", cfg.Sheet.Backend), nil)
	}
}

// Describe returns a short human label for the configured backend.
func Describe(cfg *config.Config) string {
	if cfg == nil {
		return ""
	}
	if cfg.Sheet.Backend == config.SheetBackendGoogle {
		return "google:" + cfg.Sheet.SpreadsheetID
	}
	return "sqlite:" + cfg.Sheet.SQLitePath
}
