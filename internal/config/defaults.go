package config

// Sheet backends.
const (
	SheetBackendSQLite = "sqlite"
	SheetBackendGoogle = "google"
)

// Extraction strategies.
const (
	StrategyAPI    = "api"
	StrategyScrape = "scrape"
	StrategyAuto   = "auto"
)

const (
	defaultStateDir              = "~/.local/share/realitease"
	defaultLogDir                = "~/.local/share/realitease/logs"
	defaultSheetBackend          = SheetBackendSQLite
	defaultSheetSQLiteFile       = "sheets.db"
	defaultSheetBatchSize        = 100
	defaultTMDBBaseURL           = "https://api.themoviedb.org/3"
	defaultTMDBBaseURLV4         = "https://api.themoviedb.org/4"
	defaultTMDBLanguage          = "en-US"
	defaultTMDBRequestDelayMS    = 250
	defaultTMDBMaxRetries        = 5
	defaultTMDBRetryBackoffMS    = 1000
	defaultTMDBTimeoutSeconds    = 15
	defaultIMDbBaseURL           = "https://www.imdb.com"
	defaultIMDbUserAgent         = "Mozilla/5.0 (X11; Linux x86_64) realitease/0.1"
	defaultIMDbRequestDelayMS    = 1500
	defaultTVDBBaseURL           = "https://api4.thetvdb.com/v4"
	defaultWikidataBaseURL       = "https://www.wikidata.org/w/api.php"
	defaultCastMinEpisodes       = 1
	defaultExtractWorkers        = 1
	defaultExtractLeaseTTL       = 300
	defaultExtractHeartbeat      = 60
	defaultNotifyRequestTimeout  = 10
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultMaxSheetBatchSize     = 1000
	defaultExtractMaxWorkerCount = 16
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Sheet: Sheet{
			Backend:   defaultSheetBackend,
			BatchSize: defaultSheetBatchSize,
		},
		TMDB: TMDB{
			BaseURL:        defaultTMDBBaseURL,
			BaseURLV4:      defaultTMDBBaseURLV4,
			Language:       defaultTMDBLanguage,
			RequestDelayMS: defaultTMDBRequestDelayMS,
			MaxRetries:     defaultTMDBMaxRetries,
			RetryBackoffMS: defaultTMDBRetryBackoffMS,
			TimeoutSeconds: defaultTMDBTimeoutSeconds,
		},
		IMDb: IMDb{
			BaseURL:        defaultIMDbBaseURL,
			UserAgent:      defaultIMDbUserAgent,
			RequestDelayMS: defaultIMDbRequestDelayMS,
		},
		TVDB: TVDB{
			BaseURL: defaultTVDBBaseURL,
		},
		Wikidata: Wikidata{
			Enabled: true,
			BaseURL: defaultWikidataBaseURL,
		},
		Shows: Shows{
			MarkMissingSkip: true,
		},
		Cast: Cast{
			MinEpisodes:  defaultCastMinEpisodes,
			SeasonLookup: true,
		},
		Enrich: Enrich{
			Enabled: true,
		},
		Extract: Extract{
			Strategy:         StrategyAuto,
			Workers:          defaultExtractWorkers,
			LeaseTTLSeconds:  defaultExtractLeaseTTL,
			HeartbeatSeconds: defaultExtractHeartbeat,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			RunSummary:     true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
