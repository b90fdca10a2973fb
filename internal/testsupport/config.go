package testsupport

import (
	"path/filepath"
	"testing"

	"realitease/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It uses the sqlite sheet backend, disables request throttling and applies
// any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.TMDB.APIKey = "test"
	cfgVal.TMDB.RequestDelayMS = 0
	cfgVal.TMDB.RetryBackoffMS = 1
	cfgVal.IMDb.RequestDelayMS = 0
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Sheet.Backend = config.SheetBackendSQLite
	cfgVal.Sheet.SQLitePath = filepath.Join(base, "state", "sheets.db")
	cfgVal.Wikidata.Enabled = false

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithTMDBKey sets the TMDB API key on the test config.
func WithTMDBKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.TMDB.APIKey = key
	}
}

// WithTMDBBaseURL points both TMDb API versions at a test server.
func WithTMDBBaseURL(base string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.TMDB.BaseURL = base + "/3"
		b.cfg.TMDB.BaseURLV4 = base + "/4"
	}
}

// WithIMDbBaseURL points IMDb page retrieval at a test server.
func WithIMDbBaseURL(base string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.IMDb.BaseURL = base
	}
}

// WithStrategy selects the episode extraction strategy.
func WithStrategy(strategy string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Extract.Strategy = strategy
	}
}

// WithNtfyTopic enables notifications against the given topic URL.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
	}
}

// WithBaseDir passes the temp directory backing the config to fn.
func WithBaseDir(fn func(dir string)) ConfigOption {
	return func(b *configBuilder) {
		fn(b.baseDir)
	}
}
