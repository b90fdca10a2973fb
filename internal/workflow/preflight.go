package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"realitease/internal/config"
	"realitease/internal/logging"
	"realitease/internal/preflight"
	"realitease/internal/services"
)

// Preflight returns a Runner.Preflight hook that runs every readiness check
// for cfg and fails when any of them does.
func Preflight(cfg *config.Config, logger *slog.Logger) func(context.Context) error {
	return func(ctx context.Context) error {
		return runPreflightChecks(ctx, logging.WithContext(ctx, logger), preflight.RunAll(ctx, cfg))
	}
}

// runPreflightChecks logs each result and returns an error describing all
// failures.
func runPreflightChecks(_ context.Context, logger *slog.Logger, results []preflight.Result) error {
	var failures []string
	for _, r := range results {
		if r.Passed {
			logger.Info("preflight check passed",
				logging.String("check", r.Name),
				logging.String("detail", r.Detail),
				logging.String(logging.FieldEventType, "preflight_passed"),
			)
		} else {
			logger.Error("preflight check failed",
				logging.String("check", r.Name),
				logging.String("detail", r.Detail),
				logging.String(logging.FieldEventType, "preflight_failed"),
				logging.String(logging.FieldErrorHint, "fix the reported issue and rerun"),
			)
			failures = append(failures, fmt.Sprintf("%s: %s", r.Name, r.Detail))
		}
	}

	if len(failures) > 0 {
		return services.Wrap(services.ErrConfiguration, "workflow", "preflight",
			"preflight checks failed: "+strings.Join(failures, "; "), nil)
	}
	return nil
}
