// Package castinfo collects cast members of every listed show into the
// CastInfo worksheet, one row per (person, show) pair.
package castinfo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"realitease/internal/logging"
	"realitease/internal/merge"
	"realitease/internal/services"
	"realitease/internal/sheet"
	"realitease/internal/stage"
	"realitease/internal/tmdb"
	"realitease/internal/worksheets"
)

// Name is the stage and checkpoint name.
const Name = "castinfo"

// TMDB is the subset of the TMDb client the stage uses.
type TMDB interface {
	TVDetails(ctx context.Context, showID int64) (*tmdb.TVDetails, error)
	AggregateCredits(ctx context.Context, showID int64) (*tmdb.AggregateCredits, error)
	SeasonAggregateCredits(ctx context.Context, showID int64, season int) (*tmdb.AggregateCredits, error)
}

// Options wires the stage.
type Options struct {
	Store        sheet.Store
	TMDB         TMDB
	Checkpoints  stage.Checkpointer
	Logger       *slog.Logger
	BatchSize    int
	Scope        string
	MinEpisodes  int
	SeasonLookup bool
	// RefreshEpisodes makes TotalEpisodes follow the latest TMDb count.
	RefreshEpisodes bool
	// AppendOnly adds new pairs but never updates existing rows.
	AppendOnly bool
	// StartRow skips ShowInfo rows numbered below it.
	StartRow int
}

// Stage is the cast collector.
type Stage struct {
	opts   Options
	layout worksheets.Layout
	logger *slog.Logger
}

// New returns a cast collector stage.
func New(opts Options) *Stage {
	return &Stage{
		opts:   opts,
		layout: worksheets.CastInfoLayout(opts.RefreshEpisodes),
		logger: logging.NewComponentLogger(opts.Logger, Name),
	}
}

func (s *Stage) Name() string { return Name }

func (s *Stage) SetLogger(logger *slog.Logger) {
	s.logger = logging.NewComponentLogger(logger, Name)
}

func (s *Stage) HealthCheck(ctx context.Context) stage.Health {
	return stage.CheckStore(ctx, Name, s.opts.Store, map[string]bool{"tmdb client": s.opts.TMDB != nil})
}

type show struct {
	row     int
	id      int64
	key     string
	name    string
	imdbID  string
	seasons int
}

func pairKey(castID, showID string) string { return castID + "|" + showID }

// Run executes the stage.
func (s *Stage) Run(ctx context.Context) (stage.Summary, error) {
	summary := stage.Summary{Stage: Name}
	if s.opts.TMDB == nil {
		return summary, services.Wrap(services.ErrConfiguration, Name, "init", "tmdb client not configured", nil)
	}

	shows, err := s.loadShows(ctx, &summary)
	if err != nil {
		return summary, err
	}
	ctx = services.WithWorksheet(ctx, s.layout.Name)
	table, err := stage.LoadTable(ctx, s.opts.Store, s.layout.Name, s.layout.Header)
	if err != nil {
		return summary, err
	}
	existing := make(map[string]sheet.Row, len(table.Rows))
	for _, row := range table.Rows {
		key := pairKey(row.Get(worksheets.CastID), row.Get(worksheets.CastShowID))
		if _, dup := existing[key]; !dup {
			existing[key] = row
		}
	}

	progress, err := stage.OpenProgress(ctx, s.opts.Checkpoints, Name, s.opts.Scope)
	if err != nil {
		return summary, fmt.Errorf("load checkpoints: %w", err)
	}
	writer := sheet.NewWriter(s.opts.Store, s.layout.Name, s.opts.BatchSize, sheet.WithCommit(progress.Commit))
	nextRow := table.NextRow()

	for _, sh := range shows {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if progress.Seen(sh.key) {
			summary.Resumed++
			continue
		}
		showCtx := services.WithRow(services.WithWorksheet(ctx, worksheets.ShowInfo), sh.row)
		members, err := s.castFor(showCtx, sh)
		if err != nil {
			if ferr := summary.Fail(showCtx, s.logger, sh.key, err); ferr != nil {
				return summary, ferr
			}
			continue
		}

		appended, updated := 0, 0
		for _, incoming := range members {
			key := pairKey(incoming[worksheets.CastID], incoming[worksheets.CastShowID])
			row, ok := existing[key]
			if !ok {
				if err := writer.Append(ctx, incoming); err != nil {
					return summary, err
				}
				existing[key] = sheet.Row{Number: nextRow, Values: incoming}
				nextRow++
				appended++
				continue
			}
			if s.opts.AppendOnly {
				continue
			}
			merged, changes := s.layout.Policy.Merge(merge.Record(row.Values), incoming)
			if len(changes) == 0 {
				continue
			}
			if err := writer.Update(ctx, merge.Diff(row.Number, changes)...); err != nil {
				return summary, err
			}
			existing[key] = sheet.Row{Number: row.Number, Values: merged}
			updated++
		}
		if err := writer.Done(ctx, sh.key); err != nil {
			return summary, err
		}
		summary.Processed++
		summary.Appended += appended
		summary.Updated += updated
		logging.WithContext(showCtx, s.logger).Info("show cast collected",
			logging.String("show", sh.name),
			logging.Int("cast", len(members)),
			logging.Int("appended", appended),
			logging.Int("updated", updated),
		)
	}

	if err := writer.Flush(ctx); err != nil {
		return summary, err
	}
	if summary.Failed == 0 {
		if err := progress.Finish(ctx); err != nil {
			return summary, fmt.Errorf("clear checkpoints: %w", err)
		}
	}
	return summary, nil
}

// loadShows returns the ShowInfo rows eligible for cast collection.
func (s *Stage) loadShows(ctx context.Context, summary *stage.Summary) ([]show, error) {
	table, err := stage.ReadOptional(ctx, s.opts.Store, worksheets.ShowInfo)
	if err != nil {
		return nil, err
	}
	var shows []show
	seen := map[int64]bool{}
	for _, row := range table.Rows {
		if row.Number < s.opts.StartRow {
			continue
		}
		if strings.EqualFold(row.Get(worksheets.ShowOverride), worksheets.SkipMarker) {
			summary.Skip(ctx, s.logger, row.Get(worksheets.ShowKey), "show marked skip")
			continue
		}
		id, ok := tmdb.ParseID(row.Get(worksheets.ShowTMDbID))
		if !ok {
			summary.Skip(ctx, s.logger, row.Get(worksheets.ShowKey), "no tmdb id")
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		seasons, _ := strconv.Atoi(row.Get(worksheets.ShowTotalSeasons))
		shows = append(shows, show{
			row:     row.Number,
			id:      id,
			key:     strconv.FormatInt(id, 10),
			name:    row.Get(worksheets.ShowName),
			imdbID:  row.Get(worksheets.ShowIMDbSeriesID),
			seasons: seasons,
		})
	}
	return shows, nil
}

// castFor fetches the cast of one show as incoming CastInfo records.
func (s *Stage) castFor(ctx context.Context, sh show) ([]merge.Record, error) {
	credits, err := s.opts.TMDB.AggregateCredits(ctx, sh.id)
	if err != nil {
		return nil, err
	}

	var seasonsByPerson map[int64][]int
	if s.opts.SeasonLookup {
		seasonsByPerson, err = s.seasonAppearances(ctx, sh)
		if err != nil {
			return nil, err
		}
	}

	showID := strconv.FormatInt(sh.id, 10)
	records := make([]merge.Record, 0, len(credits.Cast))
	for _, member := range credits.Cast {
		if member.ID <= 0 || strings.TrimSpace(member.Name) == "" {
			continue
		}
		if member.TotalEpisodeCount < s.opts.MinEpisodes {
			continue
		}
		rec := merge.Record{
			worksheets.CastID:         strconv.FormatInt(member.ID, 10),
			worksheets.CastName:       strings.TrimSpace(member.Name),
			worksheets.CastShowID:     showID,
			worksheets.CastShowName:   sh.name,
			worksheets.CastShowIMDbID: sh.imdbID,
			worksheets.CastGender:     tmdb.GenderLabel(member.Gender),
		}
		if member.TotalEpisodeCount > 0 {
			rec[worksheets.CastTotalEpisodes] = strconv.Itoa(member.TotalEpisodeCount)
		}
		if seasons := seasonsByPerson[member.ID]; len(seasons) > 0 {
			rec[worksheets.CastSeasons] = merge.JoinSeasons(seasons)
		}
		records = append(records, rec)
	}
	return records, nil
}

// seasonAppearances maps person IDs to the seasons they appear in.
func (s *Stage) seasonAppearances(ctx context.Context, sh show) (map[int64][]int, error) {
	count := sh.seasons
	if count <= 0 {
		details, err := s.opts.TMDB.TVDetails(ctx, sh.id)
		if err != nil {
			return nil, err
		}
		count = details.NumberOfSeasons
	}
	out := map[int64][]int{}
	for season := 1; season <= count; season++ {
		credits, err := s.opts.TMDB.SeasonAggregateCredits(ctx, sh.id, season)
		if errors.Is(err, services.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, member := range credits.Cast {
			out[member.ID] = append(out[member.ID], season)
		}
	}
	return out, nil
}
