package services

import "context"

type contextKey string

const (
	runIDKey     contextKey = "run_id"
	stageKey     contextKey = "stage"
	worksheetKey contextKey = "worksheet"
	rowKey       contextKey = "row"
	workerKey    contextKey = "worker"
)

// WithRunID annotates context with the pipeline run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithWorksheet annotates context with the worksheet being processed.
func WithWorksheet(ctx context.Context, name string) context.Context {
	if name == "" {
		return ctx
	}
	return context.WithValue(ctx, worksheetKey, name)
}

// WorksheetFromContext returns the worksheet name if present.
func WorksheetFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(worksheetKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRow annotates context with the 1-based worksheet row number.
func WithRow(ctx context.Context, row int) context.Context {
	if row <= 0 {
		return ctx
	}
	return context.WithValue(ctx, rowKey, row)
}

// RowFromContext extracts the worksheet row number if present.
func RowFromContext(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(rowKey).(int)
	return v, ok && v > 0
}

// WithWorker annotates context with the partition worker label.
func WithWorker(ctx context.Context, worker string) context.Context {
	if worker == "" {
		return ctx
	}
	return context.WithValue(ctx, workerKey, worker)
}

// WorkerFromContext returns the worker label if present.
func WorkerFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(workerKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
