package stageexec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"realitease/internal/logging"
	"realitease/internal/notifications"
	"realitease/internal/services"
	"realitease/internal/stage"
)

// ErrStageRunning is returned when another process holds the stage lock.
var ErrStageRunning = errors.New("stage already running")

// Options controls stage execution.
type Options struct {
	Logger   *slog.Logger
	Notifier notifications.Service
	Handler  stage.Handler
	RunID    string
	// LockPath, when set, is taken with a non-blocking file lock for the
	// duration of the run so two processes cannot run the same stage.
	LockPath string
	Now      func() time.Time
}

// Run executes one stage and returns its summary.
func Run(ctx context.Context, opts Options) (stage.Summary, error) {
	if opts.Handler == nil {
		return stage.Summary{}, fmt.Errorf("stage handler unavailable")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	name := opts.Handler.Name()

	stageCtx := services.WithStage(services.WithRunID(ctx, opts.RunID), name)
	stageLogger := logging.WithContext(stageCtx, opts.Logger)
	if aware, ok := opts.Handler.(stage.LoggerAware); ok {
		aware.SetLogger(stageLogger)
	}

	if opts.LockPath != "" {
		unlock, err := acquire(opts.LockPath)
		if err != nil {
			stageLogger.Error("stage lock unavailable",
				logging.String(logging.FieldEventType, "stage_locked"),
				logging.String("lock_path", opts.LockPath),
				logging.Error(err),
			)
			return stage.Summary{Stage: name}, err
		}
		defer unlock()
	}

	stageLogger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))
	publish(stageCtx, stageLogger, opts.Notifier, notifications.EventStageStarted, notifications.Payload{"stage": name})

	started := now()
	summary, err := opts.Handler.Run(stageCtx)
	summary.Stage = name
	summary.Duration = now().Sub(started)
	if err != nil {
		return summary, handleFailure(stageCtx, stageLogger, opts.Notifier, name, err)
	}

	stageLogger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Int("processed", summary.Processed),
		logging.Int("appended", summary.Appended),
		logging.Int("updated", summary.Updated),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
		logging.Int("resumed", summary.Resumed),
		logging.Duration("duration", summary.Duration),
	)
	publish(stageCtx, stageLogger, opts.Notifier, notifications.EventStageCompleted, notifications.Payload{
		"stage":     name,
		"processed": summary.Processed,
		"appended":  summary.Appended,
		"updated":   summary.Updated,
		"failed":    summary.Failed,
		"duration":  summary.Duration,
	})
	return summary, nil
}

func handleFailure(ctx context.Context, logger *slog.Logger, notifier notifications.Service, name string, stageErr error) error {
	message := strings.TrimSpace(stageErr.Error())
	logger.Error("stage failed",
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.String("error_message", message),
		logging.String(logging.FieldErrorHint, services.Hint(stageErr)),
		logging.Error(stageErr),
	)
	if errors.Is(stageErr, context.Canceled) {
		return stageErr
	}
	// The run context may already be done; notify on a fresh one.
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()
	publish(notifyCtx, logger, notifier, notifications.EventError, notifications.Payload{
		"context": name,
		"error":   message,
	})
	return stageErr
}

func publish(ctx context.Context, logger *slog.Logger, notifier notifications.Service, event notifications.Event, payload notifications.Payload) {
	if notifier == nil {
		return
	}
	if err := notifier.Publish(ctx, event, payload); err != nil {
		logger.Debug("stage notification failed", logging.String("event", string(event)), logging.Error(err))
	}
}

func acquire(path string) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire stage lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s is locked", ErrStageRunning, path)
	}
	return func() { _ = lock.Unlock() }, nil
}
