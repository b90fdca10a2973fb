package episodes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"realitease/internal/imdb"
	"realitease/internal/logging"
	"realitease/internal/merge"
	"realitease/internal/services"
	"realitease/internal/sheet"
	"realitease/internal/stage"
	"realitease/internal/state"
	"realitease/internal/worksheets"
)

// Name is the stage and checkpoint name.
const Name = "episodes"

// Leaser claims row ranges; *state.Store satisfies it.
type Leaser interface {
	Hold(ctx context.Context, worksheet string, start, end int, owner string, ttl, interval time.Duration, logger *slog.Logger) (*state.Holder, error)
}

// Options wires the stage.
type Options struct {
	Store       sheet.Store
	Strategy    Strategy
	Leases      Leaser
	Checkpoints stage.Checkpointer
	Logger      *slog.Logger
	BatchSize   int
	Rows        Range
	Direction   Direction
	Workers     int
	LeaseTTL    time.Duration
	Heartbeat   time.Duration
	// Owner prefixes lease owners; a random ID is used when empty.
	Owner string
	// Scope names the checkpoint scope; it defaults to the requested row
	// range so passes over different ranges keep separate checkpoints.
	Scope string
}

// Stage is the episode/season extractor.
type Stage struct {
	opts   Options
	layout worksheets.Layout
	logger *slog.Logger
}

// New returns an episode extractor stage.
func New(opts Options) *Stage {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.LeaseTTL <= 0 {
		opts.LeaseTTL = 5 * time.Minute
	}
	if opts.Heartbeat <= 0 || opts.Heartbeat >= opts.LeaseTTL {
		opts.Heartbeat = opts.LeaseTTL / 3
	}
	if opts.Direction == "" {
		opts.Direction = TopDown
	}
	if opts.Rows.Start == 0 {
		opts.Rows.Start = sheet.FirstDataRow
	}
	if opts.Owner == "" {
		opts.Owner = uuid.NewString()
	}
	return &Stage{
		opts:   opts,
		layout: worksheets.ViableCastLayout(),
		logger: logging.NewComponentLogger(opts.Logger, Name),
	}
}

func (s *Stage) Name() string { return Name }

func (s *Stage) SetLogger(logger *slog.Logger) {
	s.logger = logging.NewComponentLogger(logger, Name)
}

func (s *Stage) HealthCheck(ctx context.Context) stage.Health {
	return stage.CheckStore(ctx, Name, s.opts.Store, map[string]bool{
		"extraction strategy": s.opts.Strategy != nil,
		"lease store":         s.opts.Leases != nil,
	})
}

// Run executes the stage.
func (s *Stage) Run(ctx context.Context) (stage.Summary, error) {
	summary := stage.Summary{Stage: Name}
	switch {
	case s.opts.Strategy == nil:
		return summary, services.Wrap(services.ErrConfiguration, Name, "init", "extraction strategy not configured", nil)
	case s.opts.Leases == nil:
		return summary, services.Wrap(services.ErrConfiguration, Name, "init", "lease store not configured", nil)
	}

	ctx = services.WithWorksheet(ctx, s.layout.Name)
	table, err := stage.LoadTable(ctx, s.opts.Store, s.layout.Name, s.layout.Header)
	if err != nil {
		return summary, err
	}
	span := s.opts.Rows.Resolve(table.NextRow() - 1)
	parts := Partition(span, s.opts.Workers)
	if len(parts) == 0 {
		summary.Note(fmt.Sprintf("no rows in range %s", s.opts.Rows))
		return summary, nil
	}

	scope := s.opts.Scope
	if scope == "" {
		scope = CheckpointScope(s.opts.Rows)
	}
	progress, err := stage.OpenProgress(ctx, s.opts.Checkpoints, Name, scope)
	if err != nil {
		return summary, fmt.Errorf("load checkpoints: %w", err)
	}

	logging.WithContext(ctx, s.logger).Info("extracting episodes",
		logging.String("strategy", s.opts.Strategy.Name()),
		logging.String("rows", span.String()),
		logging.String("direction", string(s.opts.Direction)),
		logging.Int("workers", len(parts)),
	)

	var mu sync.Mutex
	group, gctx := errgroup.WithContext(ctx)
	for i, part := range parts {
		worker := fmt.Sprintf("w%d", i+1)
		group.Go(func() error {
			ws, err := s.runWorker(gctx, worker, part, table, progress)
			mu.Lock()
			summary.Add(ws)
			mu.Unlock()
			return err
		})
	}
	if err := group.Wait(); err != nil {
		return summary, err
	}
	if summary.Failed == 0 {
		if err := progress.Finish(ctx); err != nil {
			return summary, fmt.Errorf("clear checkpoints: %w", err)
		}
	}
	return summary, nil
}

// runWorker leases part and fills every row in it.
func (s *Stage) runWorker(ctx context.Context, worker string, part Range, table *sheet.Table, progress *stage.Progress) (stage.Summary, error) {
	summary := stage.Summary{Stage: Name}
	ctx = services.WithWorker(ctx, worker)
	owner := s.opts.Owner + "/" + worker
	holder, err := s.opts.Leases.Hold(ctx, s.layout.Name, part.Start, part.End, owner, s.opts.LeaseTTL, s.opts.Heartbeat, s.logger)
	if err != nil {
		return summary, fmt.Errorf("lease rows %s: %w", part, err)
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := holder.Release(releaseCtx); err != nil {
			logging.WithContext(ctx, s.logger).Warn("lease release failed", logging.Error(err))
		}
	}()
	leaseCtx := holder.Context()

	writer := sheet.NewWriter(s.opts.Store, s.layout.Name, s.opts.BatchSize,
		sheet.WithRowGuard(holder.Guard()),
		sheet.WithCommit(progress.Commit),
	)
	rows := make([]sheet.Row, 0, part.End-part.Start+1)
	for number := part.Start; number <= part.End; number++ {
		if row, ok := table.Row(number); ok {
			rows = append(rows, row)
		}
	}
	if s.opts.Direction == BottomUp {
		slices.Reverse(rows)
	}

	for _, row := range rows {
		if err := leaseCtx.Err(); err != nil {
			if lost := holder.Err(); lost != nil {
				return summary, lost
			}
			return summary, ctx.Err()
		}
		if err := s.processRow(leaseCtx, writer, progress, row, &summary); err != nil {
			return summary, err
		}
	}
	if err := writer.Flush(leaseCtx); err != nil {
		return summary, err
	}
	return summary, nil
}

func (s *Stage) processRow(ctx context.Context, writer *sheet.Writer, progress *stage.Progress, row sheet.Row, summary *stage.Summary) error {
	pair := PairFromRow(row)
	key := pair.Key()
	rowCtx := services.WithRow(ctx, row.Number)
	if progress.Seen(key) {
		summary.Resumed++
		return nil
	}
	existing := merge.Record(row.Values)
	if !s.layout.Policy.IsEmpty(existing[worksheets.ViableEpisodeCount]) && !s.layout.Policy.IsEmpty(existing[worksheets.ViableSeasons]) {
		summary.Skip(rowCtx, s.logger, key, "episode count and seasons already filled")
		return nil
	}

	result, err := s.opts.Strategy.Extract(rowCtx, pair)
	switch {
	case errors.Is(err, ErrMissingInput):
		summary.Skip(rowCtx, s.logger, key, err.Error())
		logging.WithContext(rowCtx, s.logger).Info("row skipped",
			logging.String("cast", pair.CastName),
			logging.String("show", pair.ShowName),
			logging.String("reason", err.Error()),
		)
		return nil
	case errors.Is(err, imdb.ErrCrewOnly):
		summary.Skip(rowCtx, s.logger, key, "credited only as crew")
		return writer.Done(ctx, key)
	case err != nil:
		return summary.Fail(rowCtx, s.logger, key, err)
	}

	_, changes := s.layout.Policy.Merge(existing, result.Record())
	if len(changes) > 0 {
		if err := writer.Update(ctx, merge.Diff(row.Number, changes)...); err != nil {
			return err
		}
		summary.Updated++
	}
	summary.Processed++
	logging.WithContext(rowCtx, s.logger).Debug("episodes extracted",
		logging.String("cast", pair.CastName),
		logging.String("show", pair.ShowName),
		logging.Int("episodes", result.Episodes),
		logging.String("seasons", merge.JoinSeasons(result.Seasons)),
		logging.String("source", result.Source),
	)
	return writer.Done(ctx, key)
}
