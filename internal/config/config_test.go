package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"realitease/internal/config"
)

func TestLoadDefaultConfigUsesEnvAndExpandsPaths(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "test-key")
	t.Setenv("TMDB_BEARER", "bearer")
	t.Setenv("TMDB_LIST_ID", "8301263")
	t.Setenv("IMDB_LIST_URL", "https://www.imdb.com/list/ls0000001/")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "realitease")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Sheet.SQLitePath != filepath.Join(wantState, "sheets.db") {
		t.Fatalf("unexpected sqlite path: %q", cfg.Sheet.SQLitePath)
	}
	if cfg.Sheet.Backend != config.SheetBackendSQLite {
		t.Fatalf("expected sqlite backend by default, got %q", cfg.Sheet.Backend)
	}
	if cfg.TMDB.APIKey != "test-key" {
		t.Fatalf("expected TMDB key from env, got %q", cfg.TMDB.APIKey)
	}
	if cfg.TMDB.BearerToken != "bearer" || cfg.TMDB.ListID != "8301263" {
		t.Fatalf("expected bearer/list from env, got %q/%q", cfg.TMDB.BearerToken, cfg.TMDB.ListID)
	}
	if cfg.IMDb.ListURL == "" {
		t.Fatal("expected IMDb list url from env")
	}
	if cfg.Extract.Strategy != config.StrategyAuto {
		t.Fatalf("unexpected default strategy %q", cfg.Extract.Strategy)
	}
	if cfg.StateDBPath() != filepath.Join(wantState, "state.db") {
		t.Fatalf("unexpected state db path %q", cfg.StateDBPath())
	}
}

func TestLoadMissingTMDBKeyFails(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "")
	os.Unsetenv("TMDB_API_KEY")
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	if _, _, _, err := config.Load(""); err == nil || !strings.Contains(err.Error(), "tmdb.api_key") {
		t.Fatalf("expected tmdb.api_key error, got %v", err)
	}
}

func TestLoadFromFileOverridesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, "realitease.toml")
	content := `
[tmdb]
api_key = "file-key"

[logging]
format = "JSON"
level = "DEBUG"

[extract]
strategy = "Scrape"
workers = 4

[cast]
min_episodes = 3
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected config file to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.TMDB.APIKey != "file-key" {
		t.Fatalf("unexpected api key %q", cfg.TMDB.APIKey)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected normalized logging, got %q/%q", cfg.Logging.Format, cfg.Logging.Level)
	}
	if cfg.Extract.Strategy != config.StrategyScrape || cfg.Extract.Workers != 4 {
		t.Fatalf("unexpected extract config %+v", cfg.Extract)
	}
	if cfg.Cast.MinEpisodes != 3 {
		t.Fatalf("unexpected min episodes %d", cfg.Cast.MinEpisodes)
	}
}

func TestValidateRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"google backend without spreadsheet", func(c *config.Config) {
			c.Sheet.Backend = config.SheetBackendGoogle
			c.Sheet.CredentialsFile = "/tmp/creds.json"
		}, "sheet.spreadsheet_id"},
		{"google backend without credentials", func(c *config.Config) {
			c.Sheet.Backend = config.SheetBackendGoogle
			c.Sheet.SpreadsheetID = "abc"
		}, "sheet.credentials_file"},
		{"unknown backend", func(c *config.Config) { c.Sheet.Backend = "excel" }, "sheet.backend"},
		{"unknown strategy", func(c *config.Config) { c.Extract.Strategy = "browser" }, "extract.strategy"},
		{"lease shorter than heartbeat", func(c *config.Config) {
			c.Extract.LeaseTTLSeconds = 30
			c.Extract.HeartbeatSeconds = 60
		}, "extract.lease_ttl_seconds"},
		{"negative min episodes", func(c *config.Config) { c.Cast.MinEpisodes = -1 }, "cast.min_episodes"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.TMDB.APIKey = "key"
			cfg.Sheet.SQLitePath = "/tmp/sheets.db"
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "sample-key")
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Sheet.BatchSize != 100 {
		t.Fatalf("unexpected batch size %d", cfg.Sheet.BatchSize)
	}
}
