package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"realitease/internal/config"
	"realitease/internal/httpretry"
	"realitease/internal/imdb"
	"realitease/internal/notifications"
	"realitease/internal/sheet"
	"realitease/internal/sheetaccess"
	"realitease/internal/state"
	"realitease/internal/tmdb"
	"realitease/internal/tvdb"
	"realitease/internal/wikidata"
)

// Dependencies holds the stores and clients shared by every stage.
type Dependencies struct {
	Config   *config.Config
	Sheets   sheet.Store
	State    *state.Store
	TMDB     *tmdb.Client
	IMDb     *imdb.Client
	TVDB     *tvdb.Client     // nil when no TVDB key is configured
	Wikidata *wikidata.Client // nil when disabled
	Notifier notifications.Service
	Logger   *slog.Logger
}

// Open creates the state directories, opens both stores and builds the
// metadata clients. Callers must Close the result.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	deps := &Dependencies{Config: cfg, Logger: logger, Notifier: notifications.NewService(cfg)}

	sheets, err := sheetaccess.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	deps.Sheets = sheets

	st, err := state.Open(ctx, cfg.StateDBPath())
	if err != nil {
		_ = deps.Close()
		return nil, fmt.Errorf("open state store: %w", err)
	}
	deps.State = st

	retryLog := httpretry.WithLogger(logger)
	deps.TMDB, err = tmdb.NewFromConfig(cfg, retryLog)
	if err != nil {
		_ = deps.Close()
		return nil, err
	}
	deps.IMDb = imdb.NewFromConfig(cfg, retryLog)

	policy := httpretry.Policy{
		MaxRetries:     cfg.TMDB.MaxRetries,
		InitialBackoff: time.Duration(cfg.TMDB.RetryBackoffMS) * time.Millisecond,
	}
	if strings.TrimSpace(cfg.TVDB.APIKey) != "" {
		deps.TVDB, err = tvdb.New(cfg.TVDB.APIKey, cfg.TVDB.BaseURL, httpretry.New(policy, retryLog))
		if err != nil {
			_ = deps.Close()
			return nil, err
		}
	}
	if cfg.Wikidata.Enabled {
		deps.Wikidata = wikidata.New(cfg.Wikidata.BaseURL, httpretry.New(policy, retryLog))
	}
	return deps, nil
}

// Close releases both stores.
func (d *Dependencies) Close() error {
	if d == nil {
		return nil
	}
	var errs []error
	if d.State != nil {
		errs = append(errs, d.State.Close())
	}
	if d.Sheets != nil {
		errs = append(errs, d.Sheets.Close())
	}
	return errors.Join(errs...)
}
