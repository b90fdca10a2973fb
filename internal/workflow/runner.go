package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"realitease/internal/logging"
	"realitease/internal/notifications"
	"realitease/internal/services"
	"realitease/internal/stage"
	"realitease/internal/stageexec"
)

// Runner executes stages in sequence.
type Runner struct {
	Logger   *slog.Logger
	Notifier notifications.Service
	// LockPath maps a stage name to its lock file; "" disables locking.
	LockPath func(name string) string
	// Preflight, when set, runs once before the first stage.
	Preflight func(ctx context.Context) error
	Now       func() time.Time
}

// Report describes a finished or aborted run.
type Report struct {
	RunID       string
	Summaries   []stage.Summary
	FailedStage string
	Duration    time.Duration
}

// Total sums the counters of every stage summary.
func (r Report) Total() stage.Summary {
	var total stage.Summary
	for _, s := range r.Summaries {
		total.Add(s)
	}
	return total
}

// Run executes handlers in order and stops at the first stage error.
// Record-level failures inside a stage do not stop the run.
func (r *Runner) Run(ctx context.Context, handlers []stage.Handler) (Report, error) {
	now := r.Now
	if now == nil {
		now = time.Now
	}
	logger := r.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	report := Report{RunID: uuid.NewString()}
	ctx = services.WithRunID(ctx, report.RunID)
	runLogger := logging.WithContext(ctx, logger)
	started := now()

	if r.Preflight != nil {
		if err := r.Preflight(ctx); err != nil {
			report.FailedStage = "preflight"
			report.Duration = now().Sub(started)
			return report, err
		}
	}

	runLogger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.Int("stages", len(handlers)),
	)

	var runErr error
	for _, h := range handlers {
		lockPath := ""
		if r.LockPath != nil {
			lockPath = r.LockPath(h.Name())
		}
		summary, err := stageexec.Run(ctx, stageexec.Options{
			Logger:   logger,
			Notifier: r.Notifier,
			Handler:  h,
			RunID:    report.RunID,
			LockPath: lockPath,
			Now:      now,
		})
		report.Summaries = append(report.Summaries, summary)
		if err != nil {
			report.FailedStage = h.Name()
			runErr = err
			break
		}
	}
	report.Duration = now().Sub(started)

	total := report.Total()
	if runErr != nil {
		runLogger.Error("run stopped",
			logging.String(logging.FieldEventType, "run_failed"),
			logging.String("failed_stage", report.FailedStage),
			logging.Duration("duration", report.Duration),
			logging.Error(runErr),
		)
	} else {
		runLogger.Info("run completed",
			logging.String(logging.FieldEventType, "run_complete"),
			logging.Int("stages", len(report.Summaries)),
			logging.Int("processed", total.Processed),
			logging.Int("failed", total.Failed),
			logging.Duration("duration", report.Duration),
		)
	}

	if r.Notifier != nil {
		notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
		defer cancel()
		payload := notifications.Payload{
			"stages":   len(report.Summaries),
			"duration": report.Duration,
		}
		if report.FailedStage != "" {
			payload["failed_stage"] = report.FailedStage
		}
		if err := r.Notifier.Publish(notifyCtx, notifications.EventRunCompleted, payload); err != nil {
			runLogger.Debug("run notification failed", logging.Error(err))
		}
	}
	return report, runErr
}
