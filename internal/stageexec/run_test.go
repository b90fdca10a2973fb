package stageexec_test

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"realitease/internal/logging"
	"realitease/internal/notifications"
	"realitease/internal/services"
	"realitease/internal/stage"
	"realitease/internal/stageexec"
)

type fakeHandler struct {
	name    string
	summary stage.Summary
	err     error
	stage   string
	runID   string
	logger  bool
}

func (f *fakeHandler) Name() string { return f.name }

func (f *fakeHandler) Run(ctx context.Context) (stage.Summary, error) {
	f.stage, _ = services.StageFromContext(ctx)
	f.runID, _ = services.RunIDFromContext(ctx)
	return f.summary, f.err
}

func (f *fakeHandler) HealthCheck(context.Context) stage.Health { return stage.Healthy(f.name) }

func (f *fakeHandler) SetLogger(*slog.Logger) { f.logger = true }

type recordingNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (r *recordingNotifier) Publish(_ context.Context, event notifications.Event, _ notifications.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func TestRunReturnsSummaryAndAnnotatesContext(t *testing.T) {
	handler := &fakeHandler{name: "castinfo", summary: stage.Summary{Processed: 4, Appended: 2}}
	notifier := &recordingNotifier{}
	tick := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}

	summary, err := stageexec.Run(context.Background(), stageexec.Options{
		Logger:   logging.NewNop(),
		Notifier: notifier,
		Handler:  handler,
		RunID:    "run-9",
		LockPath: filepath.Join(t.TempDir(), "castinfo.lock"),
		Now:      now,
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Stage != "castinfo" || summary.Processed != 4 || summary.Duration != time.Second {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if handler.stage != "castinfo" || handler.runID != "run-9" || !handler.logger {
		t.Fatalf("context not annotated: %+v", handler)
	}
	if len(notifier.events) != 2 || notifier.events[1] != notifications.EventStageCompleted {
		t.Fatalf("unexpected events %v", notifier.events)
	}
}

func TestRunNotifiesOnFailure(t *testing.T) {
	boom := services.Wrap(services.ErrConfiguration, "showinfo", "list", "missing bearer", nil)
	notifier := &recordingNotifier{}
	_, err := stageexec.Run(context.Background(), stageexec.Options{
		Notifier: notifier,
		Handler:  &fakeHandler{name: "showinfo", err: boom},
	})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	last := notifier.events[len(notifier.events)-1]
	if last != notifications.EventError {
		t.Fatalf("expected error event, got %v", notifier.events)
	}
}

func TestRunRefusesWhenStageLocked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "updateinfo.lock")
	held := flock.New(path)
	if ok, err := held.TryLock(); err != nil || !ok {
		t.Fatalf("pre-lock: %v %v", ok, err)
	}
	defer held.Unlock()

	handler := &fakeHandler{name: "updateinfo"}
	_, err := stageexec.Run(context.Background(), stageexec.Options{Handler: handler, LockPath: path})
	if !errors.Is(err, stageexec.ErrStageRunning) {
		t.Fatalf("expected ErrStageRunning, got %v", err)
	}
	if handler.stage != "" {
		t.Fatal("handler must not run while locked")
	}
}
