package preflight

import (
	"context"
	"path/filepath"

	"realitease/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// State directory (always checked)
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))

	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	switch cfg.Sheet.Backend {
	case config.SheetBackendGoogle:
		results = append(results, CheckFileReadable("Sheet credentials", cfg.Sheet.CredentialsFile))
	default:
		results = append(results, CheckDirectoryAccess("Sheet database directory", filepath.Dir(cfg.Sheet.SQLitePath)))
	}

	results = append(results, CheckTMDB(ctx, cfg.TMDB.BaseURL, cfg.TMDB.APIKey, cfg.TMDB.BearerToken))

	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
