package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeSheet(); err != nil {
		return err
	}
	c.normalizeTMDB()
	c.normalizeIMDb()
	c.normalizeTVDB()
	c.normalizeExtract()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSheet() error {
	c.Sheet.Backend = strings.ToLower(strings.TrimSpace(c.Sheet.Backend))
	if c.Sheet.Backend == "" {
		c.Sheet.Backend = defaultSheetBackend
	}
	c.Sheet.SpreadsheetID = strings.TrimSpace(c.Sheet.SpreadsheetID)
	if c.Sheet.SpreadsheetID == "" {
		if value, ok := os.LookupEnv("SPREADSHEET_ID"); ok {
			c.Sheet.SpreadsheetID = strings.TrimSpace(value)
		}
	}
	c.Sheet.CredentialsFile = strings.TrimSpace(c.Sheet.CredentialsFile)
	if c.Sheet.CredentialsFile == "" {
		if value, ok := os.LookupEnv("GOOGLE_APPLICATION_CREDENTIALS"); ok {
			c.Sheet.CredentialsFile = strings.TrimSpace(value)
		}
	}
	var err error
	if c.Sheet.CredentialsFile, err = expandPath(c.Sheet.CredentialsFile); err != nil {
		return fmt.Errorf("sheet.credentials_file: %w", err)
	}
	if strings.TrimSpace(c.Sheet.SQLitePath) == "" {
		c.Sheet.SQLitePath = filepath.Join(c.Paths.StateDir, defaultSheetSQLiteFile)
	}
	if c.Sheet.SQLitePath, err = expandPath(c.Sheet.SQLitePath); err != nil {
		return fmt.Errorf("sheet.sqlite_path: %w", err)
	}
	if c.Sheet.BatchSize <= 0 {
		c.Sheet.BatchSize = defaultSheetBatchSize
	}
	return nil
}

func (c *Config) normalizeTMDB() {
	if c.TMDB.APIKey == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.TMDB.APIKey = value
		}
	}
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	if c.TMDB.BearerToken == "" {
		if value, ok := os.LookupEnv("TMDB_BEARER"); ok {
			c.TMDB.BearerToken = value
		}
	}
	c.TMDB.BearerToken = strings.TrimSpace(c.TMDB.BearerToken)
	if c.TMDB.ListID == "" {
		if value, ok := os.LookupEnv("TMDB_LIST_ID"); ok {
			c.TMDB.ListID = value
		}
	}
	c.TMDB.ListID = strings.TrimSpace(c.TMDB.ListID)
	c.TMDB.BaseURL = strings.TrimSpace(c.TMDB.BaseURL)
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	c.TMDB.BaseURLV4 = strings.TrimSpace(c.TMDB.BaseURLV4)
	if c.TMDB.BaseURLV4 == "" {
		c.TMDB.BaseURLV4 = defaultTMDBBaseURLV4
	}
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)
	if c.TMDB.RequestDelayMS < 0 {
		c.TMDB.RequestDelayMS = 0
	}
	if c.TMDB.MaxRetries < 0 {
		c.TMDB.MaxRetries = 0
	}
	if c.TMDB.RetryBackoffMS <= 0 {
		c.TMDB.RetryBackoffMS = defaultTMDBRetryBackoffMS
	}
}

func (c *Config) normalizeIMDb() {
	if c.IMDb.ListURL == "" {
		if value, ok := os.LookupEnv("IMDB_LIST_URL"); ok {
			c.IMDb.ListURL = value
		}
	}
	c.IMDb.ListURL = strings.TrimSpace(c.IMDb.ListURL)
	c.IMDb.BaseURL = strings.TrimRight(strings.TrimSpace(c.IMDb.BaseURL), "/")
	if c.IMDb.BaseURL == "" {
		c.IMDb.BaseURL = defaultIMDbBaseURL
	}
	c.IMDb.UserAgent = strings.TrimSpace(c.IMDb.UserAgent)
	if c.IMDb.UserAgent == "" {
		c.IMDb.UserAgent = defaultIMDbUserAgent
	}
	if c.IMDb.RequestDelayMS < 0 {
		c.IMDb.RequestDelayMS = 0
	}
}

func (c *Config) normalizeTVDB() {
	if c.TVDB.APIKey == "" {
		if value, ok := os.LookupEnv("THETVDB_API_KEY"); ok {
			c.TVDB.APIKey = value
		}
	}
	c.TVDB.APIKey = strings.TrimSpace(c.TVDB.APIKey)
	c.TVDB.BaseURL = strings.TrimSpace(c.TVDB.BaseURL)
	if c.TVDB.BaseURL == "" {
		c.TVDB.BaseURL = defaultTVDBBaseURL
	}
	c.Wikidata.BaseURL = strings.TrimSpace(c.Wikidata.BaseURL)
	if c.Wikidata.BaseURL == "" {
		c.Wikidata.BaseURL = defaultWikidataBaseURL
	}
}

func (c *Config) normalizeExtract() {
	c.Extract.Strategy = strings.ToLower(strings.TrimSpace(c.Extract.Strategy))
	if c.Extract.Strategy == "" {
		c.Extract.Strategy = StrategyAuto
	}
	if c.Extract.Workers <= 0 {
		c.Extract.Workers = defaultExtractWorkers
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
