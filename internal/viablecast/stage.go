// Package viablecast selects the eligible (person, show) pairs from CastInfo
// into the ViableCast worksheet.
package viablecast

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"realitease/internal/logging"
	"realitease/internal/merge"
	"realitease/internal/services"
	"realitease/internal/sheet"
	"realitease/internal/stage"
	"realitease/internal/updateinfo"
	"realitease/internal/worksheets"
)

// Name is the stage name.
const Name = "viablecast"

// Options wires the stage.
type Options struct {
	Store     sheet.Store
	Logger    *slog.Logger
	BatchSize int
}

// Stage is the viable-set filter.
type Stage struct {
	opts   Options
	layout worksheets.Layout
	logger *slog.Logger
}

// New returns a viable-set filter stage.
func New(opts Options) *Stage {
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
	return stage.CheckStore(ctx, Name, s.opts.Store, nil)
}

type totals struct {
	shows    int
	episodes int
}

// people holds the per-person lookups built from UpdateInfo, with CastInfo
// aggregates standing in for persons UpdateInfo does not list yet.
type people struct {
	imdbByTMDb map[string]string
	totals     map[string]totals
}

func pairKey(castIMDbID, showIMDbID string) string { return castIMDbID + "|" + showIMDbID }

// Run executes the stage.
func (s *Stage) Run(ctx context.Context) (stage.Summary, error) {
	summary := stage.Summary{Stage: Name}

	update, err := stage.ReadOptional(ctx, s.opts.Store, worksheets.UpdateInfo)
	if err != nil {
		return summary, err
	}
	cast, err := stage.ReadOptional(ctx, s.opts.Store, worksheets.CastInfo)
	if err != nil {
		return summary, err
	}
	shows, err := stage.ReadOptional(ctx, s.opts.Store, worksheets.ShowInfo)
	if err != nil {
		return summary, err
	}
	lookup := buildPeople(update.Rows, cast.Rows)
	titles := showTitles(shows.Rows)

	ctx = services.WithWorksheet(ctx, s.layout.Name)
	table, err := stage.LoadTable(ctx, s.opts.Store, s.layout.Name, s.layout.Header)
	if err != nil {
		return summary, err
	}
	writer := sheet.NewWriter(s.opts.Store, s.layout.Name, s.opts.BatchSize)

	existing := map[string]bool{}
	for _, row := range table.Rows {
		castIMDb := strings.TrimSpace(row.Get(worksheets.ViableCastIMDbID))
		known := lookup.imdbByTMDb[strings.TrimSpace(row.Get(worksheets.ViableCastID))]
		switch {
		case castIMDb == "" && known != "":
			if err := writer.Update(ctx, sheet.CellUpdate{Row: row.Number, Column: worksheets.ViableCastIMDbID, Value: known}); err != nil {
				return summary, err
			}
			castIMDb = known
			summary.Updated++
		case castIMDb != "" && known != "" && castIMDb != known:
			logging.WarnWithContext(logging.WithContext(services.WithRow(ctx, row.Number), s.logger),
				"cast imdb id mismatch",
				"imdb_mismatch",
				logging.String("cast_id", row.Get(worksheets.ViableCastID)),
				logging.String("sheet_value", castIMDb),
				logging.String("update_info_value", known),
				logging.String(logging.FieldErrorHint, "check the person's IMDb ID by hand"),
				logging.String(logging.FieldImpact, "existing value kept"),
			)
		}
		if castIMDb != "" {
			existing[pairKey(castIMDb, strings.TrimSpace(row.Get(worksheets.ViableShowIMDbID)))] = true
		}
	}

	for _, row := range cast.Rows {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		rowCtx := services.WithRow(services.WithWorksheet(ctx, worksheets.CastInfo), row.Number)
		castID := strings.TrimSpace(row.Get(worksheets.CastID))
		showIMDb := strings.TrimSpace(row.Get(worksheets.CastShowIMDbID))
		name := strings.TrimSpace(row.Get(worksheets.CastName))
		key := castID + "|" + row.Get(worksheets.CastShowID)
		if showIMDb == "" || name == "" {
			summary.Skip(rowCtx, s.logger, key, "missing show imdb id or cast name")
			continue
		}
		castIMDb := merge.FirstNonEmpty(row.Get(worksheets.CastIMDbID), lookup.imdbByTMDb[castID])
		if castIMDb == "" {
			summary.Skip(rowCtx, s.logger, key, "missing cast imdb id")
			continue
		}
		pair := pairKey(castIMDb, showIMDb)
		if existing[pair] {
			continue
		}
		t := lookup.totals[castID]
		if !Eligible(t.shows, t.episodes) {
			summary.Skip(rowCtx, s.logger, key, "not eligible")
			existing[pair] = true
			continue
		}
		showID := strings.TrimSpace(row.Get(worksheets.CastShowID))
		if err := writer.Append(ctx, map[string]string{
			worksheets.ViableShowIMDbID: showIMDb,
			worksheets.ViableCastID:     castID,
			worksheets.ViableCastName:   name,
			worksheets.ViableCastIMDbID: castIMDb,
			worksheets.ViableShowID:     showID,
			worksheets.ViableShowName:   merge.FirstNonEmpty(titles[showID], row.Get(worksheets.CastShowName)),
		}); err != nil {
			return summary, err
		}
		existing[pair] = true
		summary.Processed++
		summary.Appended++
	}

	if err := writer.Flush(ctx); err != nil {
		return summary, err
	}
	logging.WithContext(ctx, s.logger).Info("viable cast selected",
		logging.Int("appended", summary.Appended),
		logging.Int("imdb_filled", summary.Updated),
		logging.Int("skipped", summary.Skipped),
	)
	return summary, nil
}

func buildPeople(update, cast []sheet.Row) people {
	out := people{imdbByTMDb: map[string]string{}, totals: map[string]totals{}}
	for _, row := range update {
		id := strings.TrimSpace(row.Get(worksheets.UpdatePersonTMDbID))
		if id == "" {
			continue
		}
		if imdb := strings.TrimSpace(row.Get(worksheets.UpdatePersonIMDbID)); imdb != "" {
			out.imdbByTMDb[id] = imdb
		}
		shows, _ := strconv.Atoi(strings.TrimSpace(row.Get(worksheets.UpdateTotalShows)))
		episodes, _ := strconv.Atoi(strings.TrimSpace(row.Get(worksheets.UpdateTotalEpisodes)))
		out.totals[id] = totals{shows: shows, episodes: episodes}
	}
	for _, p := range updateinfo.Aggregate(cast) {
		if _, ok := out.totals[p.TMDbID]; !ok {
			out.totals[p.TMDbID] = totals{shows: p.TotalShows(), episodes: p.TotalEpisodes}
		}
		if _, ok := out.imdbByTMDb[p.TMDbID]; !ok && p.IMDbID != "" {
			out.imdbByTMDb[p.TMDbID] = p.IMDbID
		}
	}
	return out
}

// showTitles maps TMDb show IDs to their ShowInfo titles.
func showTitles(rows []sheet.Row) map[string]string {
	out := map[string]string{}
	for _, row := range rows {
		id := strings.TrimSpace(row.Get(worksheets.ShowTMDbID))
		name := strings.TrimSpace(row.Get(worksheets.ShowName))
		if id != "" && name != "" {
			out[id] = name
		}
	}
	return out
}
