package sheet

import (
	"context"
	"fmt"
)

// RowGuard rejects updates to rows the caller may not write.
type RowGuard func(row int) error

// CommitFunc is called after a successful flush with the keys whose writes
// the flush persisted.
type CommitFunc func(ctx context.Context, keys []string) error

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithRowGuard installs a guard checked for every buffered update.
func WithRowGuard(guard RowGuard) WriterOption {
	return func(w *Writer) { w.guard = guard }
}

// WithCommit installs a callback run after each successful flush.
func WithCommit(commit CommitFunc) WriterOption {
	return func(w *Writer) { w.commit = commit }
}

// Writer buffers appends and cell updates for one worksheet and writes them
// in batches. Keys passed to Done are committed only once every write
// buffered before them has been flushed.
type Writer struct {
	store  Store
	table  string
	size   int
	guard  RowGuard
	commit CommitFunc

	appends []map[string]string
	updates []CellUpdate
	keys    []string

	appended int
	updated  int
}

// NewWriter returns a Writer flushing every batchSize buffered writes.
func NewWriter(store Store, table string, batchSize int, opts ...WriterOption) *Writer {
	if batchSize <= 0 {
		batchSize = 100
	}
	w := &Writer{store: store, table: table, size: batchSize}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Append buffers a new row.
func (w *Writer) Append(ctx context.Context, values map[string]string) error {
	w.appends = append(w.appends, values)
	return w.maybeFlush(ctx)
}

// Update buffers cell updates after checking the row guard.
func (w *Writer) Update(ctx context.Context, updates ...CellUpdate) error {
	for _, u := range updates {
		if u.Row < FirstDataRow {
			return fmt.Errorf("%w: %s row %d", ErrRowOutOfRange, w.table, u.Row)
		}
	}
	if err := w.checkGuard(updates); err != nil {
		return err
	}
	w.updates = append(w.updates, updates...)
	return w.maybeFlush(ctx)
}

func (w *Writer) checkGuard(updates []CellUpdate) error {
	if w.guard == nil {
		return nil
	}
	for _, u := range updates {
		if err := w.guard(u.Row); err != nil {
			return err
		}
	}
	return nil
}

// Done marks key as fully buffered.
func (w *Writer) Done(ctx context.Context, key string) error {
	w.keys = append(w.keys, key)
	if len(w.appends) == 0 && len(w.updates) == 0 {
		return w.Flush(ctx)
	}
	return nil
}

// Pending reports the number of buffered writes.
func (w *Writer) Pending() int {
	return len(w.appends) + len(w.updates)
}

// Stats returns the number of rows appended and cells updated so far.
func (w *Writer) Stats() (appended, updated int) {
	return w.appended, w.updated
}

func (w *Writer) maybeFlush(ctx context.Context) error {
	if w.Pending() < w.size {
		return nil
	}
	return w.Flush(ctx)
}

// Flush writes all buffered updates, then appends, then commits keys. The
// row guard is checked again so a lease lost while updates were buffered
// fails the flush instead of writing.
func (w *Writer) Flush(ctx context.Context) error {
	if len(w.updates) > 0 {
		if err := w.checkGuard(w.updates); err != nil {
			return err
		}
		if err := w.store.Update(ctx, w.table, w.updates); err != nil {
			return fmt.Errorf("update %s: %w", w.table, err)
		}
		w.updated += len(w.updates)
		w.updates = nil
	}
	if len(w.appends) > 0 {
		if err := w.store.Append(ctx, w.table, w.appends); err != nil {
			return fmt.Errorf("append %s: %w", w.table, err)
		}
		w.appended += len(w.appends)
		w.appends = nil
	}
	if len(w.keys) > 0 {
		keys := w.keys
		w.keys = nil
		if w.commit != nil {
			if err := w.commit(ctx, keys); err != nil {
				return fmt.Errorf("commit %s keys: %w", w.table, err)
			}
		}
	}
	return nil
}
