package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateSheet(); err != nil {
		return err
	}
	if err := c.validateCast(); err != nil {
		return err
	}
	if err := c.validateExtract(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTMDB() error {
	if c.TMDB.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/realitease/config.toml"
		}
		return fmt.Errorf("tmdb.api_key is required. Set TMDB_API_KEY env var or edit %s (create with 'realitease config init')", defaultPath)
	}
	return ensurePositiveMap(map[string]int{
		"tmdb.retry_backoff_ms": c.TMDB.RetryBackoffMS,
		"tmdb.timeout_seconds":  c.TMDB.TimeoutSeconds,
	})
}

func (c *Config) validateSheet() error {
	switch c.Sheet.Backend {
	case SheetBackendSQLite:
		if c.Sheet.SQLitePath == "" {
			return errors.New("sheet.sqlite_path must be set when sheet.backend is sqlite")
		}
	case SheetBackendGoogle:
		if c.Sheet.SpreadsheetID == "" {
			return errors.New("sheet.spreadsheet_id must be set when sheet.backend is google (or set SPREADSHEET_ID)")
		}
		if c.Sheet.CredentialsFile == "" {
			return errors.New("sheet.credentials_file must be set when sheet.backend is google (or set GOOGLE_APPLICATION_CREDENTIALS)")
		}
	default:
		return fmt.Errorf("sheet.backend: unsupported value %q", c.Sheet.Backend)
	}
	if c.Sheet.BatchSize > defaultMaxSheetBatchSize {
		return fmt.Errorf("sheet.batch_size must be <= %d", defaultMaxSheetBatchSize)
	}
	return nil
}

func (c *Config) validateCast() error {
	if c.Cast.MinEpisodes < 0 {
		return errors.New("cast.min_episodes must be >= 0")
	}
	return nil
}

func (c *Config) validateExtract() error {
	switch c.Extract.Strategy {
	case StrategyAPI, StrategyScrape, StrategyAuto:
	default:
		return fmt.Errorf("extract.strategy: unsupported value %q (want api, scrape or auto)", c.Extract.Strategy)
	}
	if c.Extract.Workers > defaultExtractMaxWorkerCount {
		return fmt.Errorf("extract.workers must be <= %d", defaultExtractMaxWorkerCount)
	}
	if err := ensurePositiveMap(map[string]int{
		"extract.lease_ttl_seconds": c.Extract.LeaseTTLSeconds,
		"extract.heartbeat_seconds": c.Extract.HeartbeatSeconds,
	}); err != nil {
		return err
	}
	if c.Extract.LeaseTTLSeconds <= c.Extract.HeartbeatSeconds {
		return errors.New("extract.lease_ttl_seconds must be greater than extract.heartbeat_seconds")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
