package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains local directories used for state and logs.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Sheet selects and configures the shared tabular store.
type Sheet struct {
	Backend         string `toml:"backend"`
	SpreadsheetID   string `toml:"spreadsheet_id"`
	CredentialsFile string `toml:"credentials_file"`
	SQLitePath      string `toml:"sqlite_path"`
	BatchSize       int    `toml:"batch_size"`
}

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	APIKey         string `toml:"api_key"`
	BearerToken    string `toml:"bearer_token"`
	BaseURL        string `toml:"base_url"`
	BaseURLV4      string `toml:"base_url_v4"`
	Language       string `toml:"language"`
	ListID         string `toml:"list_id"`
	RequestDelayMS int    `toml:"request_delay_ms"`
	MaxRetries     int    `toml:"max_retries"`
	RetryBackoffMS int    `toml:"retry_backoff_ms"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// IMDb contains configuration for IMDb page retrieval.
type IMDb struct {
	ListURL        string `toml:"list_url"`
	BaseURL        string `toml:"base_url"`
	UserAgent      string `toml:"user_agent"`
	RequestDelayMS int    `toml:"request_delay_ms"`
}

// TVDB contains configuration for TheTVDB v4 API. Lookups are skipped when
// no API key is configured.
type TVDB struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

// Wikidata contains configuration for Wikidata entity lookups.
type Wikidata struct {
	Enabled bool   `toml:"enabled"`
	BaseURL string `toml:"base_url"`
}

// Shows contains show registry settings.
type Shows struct {
	MarkMissingSkip bool `toml:"mark_missing_skip"`
}

// Cast contains cast collector settings.
type Cast struct {
	MinEpisodes          int  `toml:"min_episodes"`
	SeasonLookup         bool `toml:"season_lookup"`
	RefreshEpisodeCounts bool `toml:"refresh_episode_counts"`
}

// Enrich contains person enricher settings.
type Enrich struct {
	Enabled bool `toml:"enabled"`
}

// Extract contains episode/season extractor settings.
type Extract struct {
	Strategy         string `toml:"strategy"`
	Workers          int    `toml:"workers"`
	LeaseTTLSeconds  int    `toml:"lease_ttl_seconds"`
	HeartbeatSeconds int    `toml:"heartbeat_seconds"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	RunSummary     bool   `toml:"run_summary"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for realitease.
//
// Configuration sections by subsystem:
//   - Paths: state database and log directories
//   - Sheet: shared tabular store backend
//   - TMDB, IMDb, TVDB, Wikidata: metadata sources
//   - Shows, Cast, Enrich, Extract: per-stage behaviour
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Sheet         Sheet         `toml:"sheet"`
	TMDB          TMDB          `toml:"tmdb"`
	IMDb          IMDb          `toml:"imdb"`
	TVDB          TVDB          `toml:"tvdb"`
	Wikidata      Wikidata      `toml:"wikidata"`
	Shows         Shows         `toml:"shows"`
	Cast          Cast          `toml:"cast"`
	Enrich        Enrich        `toml:"enrich"`
	Extract       Extract       `toml:"extract"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/realitease/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("realitease.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Sheet.Backend == SheetBackendSQLite {
		if err := os.MkdirAll(filepath.Dir(c.Sheet.SQLitePath), 0o755); err != nil {
			return fmt.Errorf("create sheet directory: %w", err)
		}
	}
	return nil
}

// StateDBPath returns the SQLite file holding checkpoints and leases.
func (c *Config) StateDBPath() string {
	return filepath.Join(c.Paths.StateDir, "state.db")
}

// LockPath returns the file lock used for the named stage.
func (c *Config) LockPath(name string) string {
	return filepath.Join(c.Paths.StateDir, name+".lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
