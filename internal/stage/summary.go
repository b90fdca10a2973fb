package stage

import (
	"context"
	"log/slog"
	"time"

	"realitease/internal/logging"
	"realitease/internal/services"
)

// Summary counts what a stage run did.
type Summary struct {
	Stage     string
	Processed int
	Appended  int
	Updated   int
	Skipped   int
	Failed    int
	Resumed   int
	Duration  time.Duration
	Notes     []string
}

// Add folds other into s. Durations are not summed; the caller times the run.
func (s *Summary) Add(other Summary) {
	s.Processed += other.Processed
	s.Appended += other.Appended
	s.Updated += other.Updated
	s.Skipped += other.Skipped
	s.Failed += other.Failed
	s.Resumed += other.Resumed
	s.Notes = append(s.Notes, other.Notes...)
}

// Note appends a free-form remark shown in the CLI summary.
func (s *Summary) Note(text string) {
	s.Notes = append(s.Notes, text)
}

// Fail handles a per-record error. Record-level failures are logged, counted
// and swallowed; anything else is returned so the stage aborts.
func (s *Summary) Fail(ctx context.Context, logger *slog.Logger, key string, err error) error {
	if !services.IsRecordLevel(err) {
		return err
	}
	s.Failed++
	logging.WarnWithContext(logging.WithContext(ctx, logger), "record failed",
		"record_failed",
		logging.String(logging.FieldKey, key),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, services.Hint(err)),
		logging.String(logging.FieldImpact, "record left unchanged; rerun to retry"),
	)
	return nil
}

// Skip counts a record that was deliberately not processed.
func (s *Summary) Skip(ctx context.Context, logger *slog.Logger, key, reason string) {
	s.Skipped++
	logging.WithContext(ctx, logger).Debug("record skipped",
		logging.String(logging.FieldEventType, "record_skipped"),
		logging.String(logging.FieldKey, key),
		logging.String("reason", reason),
	)
}
