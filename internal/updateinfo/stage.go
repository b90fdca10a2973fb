// Package updateinfo collapses CastInfo into one UpdateInfo row per person.
package updateinfo

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"realitease/internal/logging"
	"realitease/internal/merge"
	"realitease/internal/services"
	"realitease/internal/sheet"
	"realitease/internal/stage"
	"realitease/internal/worksheets"
)

// Name is the stage name.
const Name = "updateinfo"

// Options wires the stage.
type Options struct {
	Store     sheet.Store
	Logger    *slog.Logger
	BatchSize int
}

// Stage is the update aggregator.
type Stage struct {
	opts   Options
	layout worksheets.Layout
	logger *slog.Logger
}

// New returns an update aggregator stage.
func New(opts Options) *Stage {
	return &Stage{
		opts:   opts,
		layout: worksheets.UpdateInfoLayout(),
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

// Person is the aggregate of one person's CastInfo rows.
type Person struct {
	TMDbID        string
	Name          string
	IMDbID        string
	ShowTMDbIDs   []string
	ShowIMDbIDs   []string
	TotalEpisodes int
}

// TotalShows is the number of distinct shows.
func (p Person) TotalShows() int { return len(p.ShowTMDbIDs) }

// Record renders the person as an UpdateInfo record.
func (p Person) Record() merge.Record {
	return merge.Record{
		worksheets.UpdatePersonTMDbID:  p.TMDbID,
		worksheets.UpdatePersonName:    p.Name,
		worksheets.UpdatePersonIMDbID:  p.IMDbID,
		worksheets.UpdateTotalShows:    strconv.Itoa(p.TotalShows()),
		worksheets.UpdateTotalEpisodes: strconv.Itoa(p.TotalEpisodes),
		worksheets.UpdateShowIMDbIDs:   merge.JoinList(p.ShowIMDbIDs),
		worksheets.UpdateShowTMDbIDs:   merge.JoinList(p.ShowTMDbIDs),
	}
}

// Aggregate groups CastInfo rows by CastID in order of first appearance.
// Episode counts of a show listed twice for the same person count once.
func Aggregate(rows []sheet.Row) []Person {
	var order []string
	people := map[string]*Person{}
	seenShow := map[string]bool{}
	for _, row := range rows {
		id := strings.TrimSpace(row.Get(worksheets.CastID))
		if id == "" {
			continue
		}
		p, ok := people[id]
		if !ok {
			p = &Person{TMDbID: id}
			people[id] = p
			order = append(order, id)
		}
		p.Name = merge.FirstNonEmpty(p.Name, row.Get(worksheets.CastName))
		p.IMDbID = merge.FirstNonEmpty(p.IMDbID, row.Get(worksheets.CastIMDbID))
		if imdb := strings.TrimSpace(row.Get(worksheets.CastShowIMDbID)); imdb != "" && !slices.Contains(p.ShowIMDbIDs, imdb) {
			p.ShowIMDbIDs = append(p.ShowIMDbIDs, imdb)
		}
		showID := strings.TrimSpace(row.Get(worksheets.CastShowID))
		if showID == "" || seenShow[id+"|"+showID] {
			continue
		}
		seenShow[id+"|"+showID] = true
		p.ShowTMDbIDs = append(p.ShowTMDbIDs, showID)
		if n, err := strconv.Atoi(strings.TrimSpace(row.Get(worksheets.CastTotalEpisodes))); err == nil && n > 0 {
			p.TotalEpisodes += n
		}
	}
	out := make([]Person, 0, len(order))
	for _, id := range order {
		out = append(out, *people[id])
	}
	return out
}

// Run executes the stage.
func (s *Stage) Run(ctx context.Context) (stage.Summary, error) {
	summary := stage.Summary{Stage: Name}

	cast, err := stage.ReadOptional(ctx, s.opts.Store, worksheets.CastInfo)
	if err != nil {
		return summary, err
	}
	people := Aggregate(cast.Rows)

	ctx = services.WithWorksheet(ctx, s.layout.Name)
	table, err := stage.LoadTable(ctx, s.opts.Store, s.layout.Name, s.layout.Header)
	if err != nil {
		return summary, err
	}
	existing := make(map[string]sheet.Row, len(table.Rows))
	for _, row := range table.Rows {
		id := strings.TrimSpace(row.Get(worksheets.UpdatePersonTMDbID))
		if _, dup := existing[id]; id != "" && !dup {
			existing[id] = row
		}
	}

	writer := sheet.NewWriter(s.opts.Store, s.layout.Name, s.opts.BatchSize)
	var fresh []Person
	for _, p := range people {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Processed++
		row, ok := existing[p.TMDbID]
		if !ok {
			fresh = append(fresh, p)
			continue
		}
		_, changes := s.layout.Policy.Merge(merge.Record(row.Values), p.Record())
		if len(changes) == 0 {
			continue
		}
		if err := writer.Update(ctx, merge.Diff(row.Number, changes)...); err != nil {
			return summary, err
		}
		summary.Updated++
	}

	slices.SortStableFunc(fresh, func(a, b Person) int {
		return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	for _, p := range fresh {
		if err := writer.Append(ctx, p.Record()); err != nil {
			return summary, err
		}
		summary.Appended++
	}
	if err := writer.Flush(ctx); err != nil {
		return summary, err
	}
	logging.WithContext(ctx, s.logger).Info("people aggregated",
		logging.Int("people", len(people)),
		logging.Int("appended", summary.Appended),
		logging.Int("updated", summary.Updated),
	)
	return summary, nil
}
