package showinfo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"realitease/internal/logging"
	"realitease/internal/merge"
	"realitease/internal/services"
	"realitease/internal/sheet"
	"realitease/internal/stage"
	"realitease/internal/textutil"
	"realitease/internal/tmdb"
	"realitease/internal/worksheets"
)

// Name is the stage and checkpoint name.
const Name = "showinfo"

// nameMatchThreshold is the minimum fingerprint similarity accepted when a
// show is resolved by a TMDb name search.
const nameMatchThreshold = 0.5

// TMDB is the subset of the TMDb client the stage uses.
type TMDB interface {
	FindByIMDb(ctx context.Context, imdbID string) (*tmdb.FindResponse, error)
	SearchTV(ctx context.Context, query string) (*tmdb.SearchResponse, error)
	TVDetails(ctx context.Context, showID int64) (*tmdb.TVDetails, error)
	SeasonDetails(ctx context.Context, showID int64, season int) (*tmdb.SeasonDetails, error)
	TVExternalIDs(ctx context.Context, showID int64) (*tmdb.ExternalIDs, error)
}

// TVDBLookup finds a TheTVDB series ID.
type TVDBLookup interface {
	FindSeriesID(ctx context.Context, name, imdbID string) (string, error)
}

// WikidataLookup finds a Wikidata item for a show.
type WikidataLookup interface {
	FindShow(ctx context.Context, name string) (string, error)
}

// Options wires the stage.
type Options struct {
	Store           sheet.Store
	TMDB            TMDB
	Sources         []Source
	TVDB            TVDBLookup
	Wikidata        WikidataLookup
	Checkpoints     stage.Checkpointer
	Logger          *slog.Logger
	BatchSize       int
	MarkMissingSkip bool
	Scope           string
	Now             func() time.Time
}

// Stage is the show registry builder.
type Stage struct {
	opts   Options
	layout worksheets.Layout
	logger *slog.Logger
}

// New returns a show registry stage.
func New(opts Options) *Stage {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Stage{
		opts:   opts,
		layout: worksheets.ShowInfoLayout(),
		logger: logging.NewComponentLogger(opts.Logger, Name),
	}
}

func (s *Stage) Name() string { return Name }

func (s *Stage) SetLogger(logger *slog.Logger) {
	s.logger = logging.NewComponentLogger(logger, Name)
}

func (s *Stage) HealthCheck(ctx context.Context) stage.Health {
	return stage.CheckStore(ctx, Name, s.opts.Store, map[string]bool{
		"tmdb client":  s.opts.TMDB != nil,
		"list sources": len(s.opts.Sources) > 0,
	})
}

// collected is one show to write, keyed by its ShowInfo key.
type collected struct {
	key    string
	name   string
	tmdbID int64
	imdbID string
}

// Run executes the stage.
func (s *Stage) Run(ctx context.Context) (stage.Summary, error) {
	summary := stage.Summary{Stage: Name}
	if s.opts.TMDB == nil {
		return summary, services.Wrap(services.ErrConfiguration, Name, "init", "tmdb client not configured", nil)
	}
	ctx = services.WithWorksheet(ctx, s.layout.Name)

	table, err := stage.LoadTable(ctx, s.opts.Store, s.layout.Name, s.layout.Header)
	if err != nil {
		return summary, err
	}
	progress, err := stage.OpenProgress(ctx, s.opts.Checkpoints, Name, s.opts.Scope)
	if err != nil {
		return summary, fmt.Errorf("load checkpoints: %w", err)
	}

	shows, complete, err := s.collect(ctx, &summary)
	if err != nil {
		return summary, err
	}

	index := newRowIndex(table)
	writer := sheet.NewWriter(s.opts.Store, s.layout.Name, s.opts.BatchSize, sheet.WithCommit(progress.Commit))
	nextRow := table.NextRow()

	for _, show := range shows {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		row, exists := index.lookup(show)
		if exists {
			index.activate(row.Number)
		}
		if progress.Seen(show.key) {
			summary.Resumed++
			continue
		}
		recordCtx := ctx
		if exists {
			recordCtx = services.WithRow(ctx, row.Number)
		}

		var existing merge.Record
		if exists {
			existing = merge.Record(row.Values)
		}
		incoming, err := s.describe(recordCtx, show, existing)
		if err != nil {
			if ferr := summary.Fail(recordCtx, s.logger, show.key, err); ferr != nil {
				return summary, ferr
			}
			continue
		}

		summary.Processed++
		if exists {
			merged, changes := s.layout.Policy.Merge(existing, incoming)
			if len(changes) > 0 {
				if err := writer.Update(recordCtx, merge.Diff(row.Number, changes)...); err != nil {
					return summary, err
				}
				summary.Updated++
				index.replace(row.Number, merged)
			}
		} else {
			if err := writer.Append(recordCtx, incoming); err != nil {
				return summary, err
			}
			index.add(sheet.Row{Number: nextRow, Values: incoming}, true)
			nextRow++
			summary.Appended++
			logging.WithContext(recordCtx, s.logger).Info("show appended",
				logging.String("show", show.name),
				logging.String(logging.FieldKey, show.key),
			)
		}
		if err := writer.Done(recordCtx, show.key); err != nil {
			return summary, err
		}
	}

	if s.opts.MarkMissingSkip {
		if complete {
			skipped, err := s.markMissing(ctx, writer, table, index)
			if err != nil {
				return summary, err
			}
			if skipped > 0 {
				summary.Note(fmt.Sprintf("%d show(s) marked %s", skipped, worksheets.SkipMarker))
			}
		} else {
			summary.Note("a list source failed; missing shows were not marked " + worksheets.SkipMarker)
		}
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

// collect reads every source and resolves IMDb-only shows to TMDb. complete
// is false when any source failed.
func (s *Stage) collect(ctx context.Context, summary *stage.Summary) ([]collected, bool, error) {
	complete := true
	var out []collected
	byKey := map[string]int{}
	byIMDb := map[string]int{}
	failures := 0

	add := func(c collected) {
		if i, ok := byKey[c.key]; ok {
			if out[i].imdbID == "" {
				out[i].imdbID = c.imdbID
				if c.imdbID != "" {
					byIMDb[c.imdbID] = i
				}
			}
			return
		}
		byKey[c.key] = len(out)
		if c.imdbID != "" {
			byIMDb[c.imdbID] = len(out)
		}
		out = append(out, c)
	}

	for _, source := range s.opts.Sources {
		listed, err := source.Fetch(ctx)
		if err != nil {
			if errors.Is(err, services.ErrConfiguration) || errors.Is(err, context.Canceled) {
				return nil, false, err
			}
			complete = false
			failures++
			logging.WarnWithContext(s.logger, "list source failed", "source_failed",
				logging.String("source", source.Name()),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, services.Hint(err)),
				logging.String(logging.FieldImpact, "shows from this list are not refreshed this run"),
			)
			continue
		}
		s.logger.Info("list source read", logging.String("source", source.Name()), logging.Int("shows", len(listed)))

		for _, item := range listed {
			if item.TMDbID > 0 {
				add(collected{key: strconv.FormatInt(item.TMDbID, 10), name: item.Name, tmdbID: item.TMDbID, imdbID: item.IMDbID})
				continue
			}
			if item.IMDbID == "" {
				continue
			}
			if _, seen := byIMDb[item.IMDbID]; seen {
				continue
			}
			match, err := s.resolve(ctx, item)
			if err != nil {
				if ferr := summary.Fail(ctx, s.logger, item.IMDbID, err); ferr != nil {
					return nil, false, ferr
				}
				// Keep the show listed so its row is not marked missing.
				add(collected{key: "imdb_" + item.IMDbID, name: item.Name, imdbID: item.IMDbID})
				continue
			}
			if match == nil {
				add(collected{key: "imdb_" + item.IMDbID, name: item.Name, imdbID: item.IMDbID})
				continue
			}
			name := strings.TrimSpace(match.Name)
			if name == "" {
				name = item.Name
			}
			add(collected{key: strconv.FormatInt(match.ID, 10), name: name, tmdbID: match.ID, imdbID: item.IMDbID})
		}
	}
	if len(s.opts.Sources) > 0 && failures == len(s.opts.Sources) {
		return nil, false, services.Wrap(services.ErrExternalTool, Name, "collect", "every list source failed", nil)
	}
	return out, complete, nil
}

// resolve finds the TMDb show for an IMDb-only listing: by external ID first,
// then by name search.
func (s *Stage) resolve(ctx context.Context, item ListedShow) (*tmdb.TVResult, error) {
	found, err := s.opts.TMDB.FindByIMDb(ctx, item.IMDbID)
	if err != nil && !errors.Is(err, services.ErrNotFound) {
		return nil, err
	}
	if found != nil && len(found.TVResults) > 0 {
		return &found.TVResults[0], nil
	}
	if strings.TrimSpace(item.Name) == "" {
		return nil, nil
	}
	search, err := s.opts.TMDB.SearchTV(ctx, item.Name)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	names := make([]string, len(search.Results))
	for i, r := range search.Results {
		names[i] = r.Name
	}
	idx, _ := textutil.BestMatch(item.Name, names, nameMatchThreshold)
	if idx < 0 {
		return nil, nil
	}
	return &search.Results[idx], nil
}

// describe builds the incoming ShowInfo record for show.
func (s *Stage) describe(ctx context.Context, show collected, existing merge.Record) (merge.Record, error) {
	rec := merge.Record{
		worksheets.ShowKey:          show.key,
		worksheets.ShowName:         show.name,
		worksheets.ShowIMDbSeriesID: show.imdbID,
		worksheets.ShowOverride:     "",
	}
	if show.tmdbID > 0 {
		rec[worksheets.ShowTMDbID] = strconv.FormatInt(show.tmdbID, 10)

		details, err := s.opts.TMDB.TVDetails(ctx, show.tmdbID)
		if err != nil {
			return nil, err
		}
		if name := strings.TrimSpace(details.Name); name != "" {
			rec[worksheets.ShowName] = name
		}
		if len(details.Networks) > 0 {
			rec[worksheets.ShowNetwork] = details.Networks[0].Name
		}
		if details.NumberOfSeasons > 0 {
			rec[worksheets.ShowTotalSeasons] = strconv.Itoa(details.NumberOfSeasons)
		}
		if details.NumberOfEpisodes > 0 {
			rec[worksheets.ShowTotalEpisodes] = strconv.Itoa(details.NumberOfEpisodes)
		}
		rec[worksheets.ShowMostRecent] = s.mostRecentEpisode(ctx, show.tmdbID, details)

		ids, err := s.opts.TMDB.TVExternalIDs(ctx, show.tmdbID)
		switch {
		case err == nil:
			rec[worksheets.ShowIMDbSeriesID] = merge.FirstNonEmpty(show.imdbID, ids.IMDbID)
			if ids.TVDBID > 0 {
				rec[worksheets.ShowTVDbID] = strconv.FormatInt(ids.TVDBID, 10)
			}
			rec[worksheets.ShowWikidataID] = strings.TrimSpace(ids.WikidataID)
		case errors.Is(err, services.ErrNotFound):
		default:
			return nil, err
		}
	}

	name := rec[worksheets.ShowName]
	imdbID := rec[worksheets.ShowIMDbSeriesID]
	if s.opts.TVDB != nil && rec[worksheets.ShowTVDbID] == "" && strings.TrimSpace(existing[worksheets.ShowTVDbID]) == "" {
		if id, err := s.opts.TVDB.FindSeriesID(ctx, name, imdbID); err == nil {
			rec[worksheets.ShowTVDbID] = id
		} else if !errors.Is(err, services.ErrNotFound) {
			logging.WithContext(ctx, s.logger).Debug("tvdb lookup failed", logging.String("show", name), logging.Error(err))
		}
	}
	if s.opts.Wikidata != nil && rec[worksheets.ShowWikidataID] == "" && strings.TrimSpace(existing[worksheets.ShowWikidataID]) == "" {
		if id, err := s.opts.Wikidata.FindShow(ctx, name); err == nil {
			rec[worksheets.ShowWikidataID] = id
		} else if !errors.Is(err, services.ErrNotFound) {
			logging.WithContext(ctx, s.logger).Debug("wikidata lookup failed", logging.String("show", name), logging.Error(err))
		}
	}
	return rec, nil
}

// mostRecentEpisode returns the air date of the last aired episode, or "".
func (s *Stage) mostRecentEpisode(ctx context.Context, showID int64, details *tmdb.TVDetails) string {
	if details.LastEpisodeToAir != nil && details.LastEpisodeToAir.AirDate != "" {
		return details.LastEpisodeToAir.AirDate
	}
	if len(details.Seasons) == 0 {
		return ""
	}
	latest := details.Seasons[0].SeasonNumber
	for _, season := range details.Seasons[1:] {
		latest = max(latest, season.SeasonNumber)
	}
	season, err := s.opts.TMDB.SeasonDetails(ctx, showID, latest)
	if err != nil {
		logging.WithContext(ctx, s.logger).Debug("season lookup failed", logging.Int("season", latest), logging.Error(err))
		return ""
	}
	today := s.opts.Now().Format(time.DateOnly)
	recent := ""
	for _, ep := range season.Episodes {
		if ep.AirDate != "" && ep.AirDate <= today && ep.AirDate > recent {
			recent = ep.AirDate
		}
	}
	return recent
}

// markMissing fills OVERRIDE with SKIP on rows whose show is in no list.
func (s *Stage) markMissing(ctx context.Context, writer *sheet.Writer, table *sheet.Table, index *rowIndex) (int, error) {
	marked := 0
	for _, row := range table.Rows {
		if index.active(row.Number) {
			continue
		}
		if row.Get(worksheets.ShowKey) == "" && row.Get(worksheets.ShowTMDbID) == "" && row.Get(worksheets.ShowIMDbSeriesID) == "" {
			continue
		}
		if !s.layout.Policy.IsEmpty(index.values(row.Number)[worksheets.ShowOverride]) {
			continue
		}
		rowCtx := services.WithRow(ctx, row.Number)
		if err := writer.Update(rowCtx, sheet.CellUpdate{Row: row.Number, Column: worksheets.ShowOverride, Value: worksheets.SkipMarker}); err != nil {
			return marked, err
		}
		logging.WithContext(rowCtx, s.logger).Info("show missing from lists; marked skip",
			logging.String("show", row.Get(worksheets.ShowName)),
		)
		marked++
	}
	return marked, nil
}
