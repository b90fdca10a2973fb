// Package realitease builds the person-centric RealiteaseInfo worksheet from
// ViableCast, with biography fields taken from CastInfo.
package realitease

import (
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
const Name = "realitease"

// Options wires the stage.
type Options struct {
	Store     sheet.Store
	Logger    *slog.Logger
	BatchSize int
}

// Stage is the final aggregator.
type Stage struct {
	opts   Options
	layout worksheets.Layout
	logger *slog.Logger
}

// New returns a final aggregator stage.
func New(opts Options) *Stage {
	return &Stage{
		opts:   opts,
		layout: worksheets.RealiteaseInfoLayout(),
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

// Person is one RealiteaseInfo entry.
type Person struct {
	Name        string
	IMDbID      string
	TMDbID      string
	ShowNames   []string
	ShowIMDbIDs []string
	ShowTMDbIDs []string
	Gender      string
	Birthday    string
	Zodiac      string

	shows []string
}

// ShowCount is the number of distinct shows.
func (p Person) ShowCount() int { return len(p.shows) }

// Record renders the person as a RealiteaseInfo record.
func (p Person) Record() merge.Record {
	rec := merge.Record{
		worksheets.FinalCastName:    p.Name,
		worksheets.FinalCastIMDbID:  p.IMDbID,
		worksheets.FinalCastTMDbID:  p.TMDbID,
		worksheets.FinalShowNames:   merge.JoinNames(p.ShowNames),
		worksheets.FinalShowIMDbIDs: merge.JoinList(p.ShowIMDbIDs),
		worksheets.FinalShowTMDbIDs: merge.JoinList(p.ShowTMDbIDs),
		worksheets.FinalGender:      p.Gender,
		worksheets.FinalBirthday:    p.Birthday,
		worksheets.FinalZodiac:      p.Zodiac,
	}
	rec[worksheets.FinalShowCount] = strconv.Itoa(max(p.ShowCount(), countShows(rec)))
	return rec
}

// countShows counts the shows listed in rec. A show may lack one of its IDs,
// so the longer ID list wins.
func countShows(rec merge.Record) int {
	return max(
		len(merge.SplitList(rec[worksheets.FinalShowIMDbIDs])),
		len(merge.SplitList(rec[worksheets.FinalShowTMDbIDs])),
	)
}

// mergedRecord is p's record with ShowCount taken from the show lists as they
// will read after merging into existing.
func (s *Stage) mergedRecord(existing merge.Record, p Person) merge.Record {
	rec := p.Record()
	merged, _ := s.layout.Policy.Merge(existing, rec)
	rec[worksheets.FinalShowCount] = strconv.Itoa(max(p.ShowCount(), countShows(merged)))
	return rec
}

func appendUnique(list []string, value string) []string {
	value = strings.TrimSpace(value)
	if value == "" || slices.Contains(list, value) {
		return list
	}
	return append(list, value)
}

// Aggregate groups ViableCast rows by Cast IMDbID, else CastID, and fills
// biography fields from the CastInfo rows of the same CastID.
func Aggregate(viable, cast []sheet.Row) []Person {
	type bio struct{ gender, birthday, zodiac string }
	bios := map[string]*bio{}
	for _, row := range cast {
		id := strings.TrimSpace(row.Get(worksheets.CastID))
		if id == "" {
			continue
		}
		b, ok := bios[id]
		if !ok {
			b = &bio{}
			bios[id] = b
		}
		b.gender = firstValue(b.gender, row.Get(worksheets.CastGender))
		b.birthday = firstValue(b.birthday, row.Get(worksheets.CastBirthday))
		b.zodiac = firstValue(b.zodiac, row.Get(worksheets.CastZodiac))
	}

	var order []string
	people := map[string]*Person{}
	for _, row := range viable {
		imdbID := strings.TrimSpace(row.Get(worksheets.ViableCastIMDbID))
		tmdbID := strings.TrimSpace(row.Get(worksheets.ViableCastID))
		key := imdbID
		if key == "" {
			key = "tmdb:" + tmdbID
		}
		if imdbID == "" && tmdbID == "" {
			continue
		}
		p, ok := people[key]
		if !ok {
			p = &Person{}
			people[key] = p
			order = append(order, key)
		}
		p.Name = merge.FirstNonEmpty(p.Name, row.Get(worksheets.ViableCastName))
		p.IMDbID = merge.FirstNonEmpty(p.IMDbID, imdbID)
		p.TMDbID = merge.FirstNonEmpty(p.TMDbID, tmdbID)
		p.ShowNames = appendUnique(p.ShowNames, row.Get(worksheets.ViableShowName))
		p.ShowIMDbIDs = appendUnique(p.ShowIMDbIDs, row.Get(worksheets.ViableShowIMDbID))
		p.ShowTMDbIDs = appendUnique(p.ShowTMDbIDs, row.Get(worksheets.ViableShowID))
		p.shows = appendUnique(p.shows, merge.FirstNonEmpty(row.Get(worksheets.ViableShowIMDbID), "tmdb:"+row.Get(worksheets.ViableShowID)))
	}

	out := make([]Person, 0, len(order))
	for _, key := range order {
		p := people[key]
		if b, ok := bios[p.TMDbID]; ok {
			p.Gender, p.Birthday, p.Zodiac = b.gender, b.birthday, b.zodiac
		}
		out = append(out, *p)
	}
	return out
}

var placeholders = merge.NewPolicy()

// firstValue keeps current unless it is empty or a placeholder.
func firstValue(current, next string) string {
	if !placeholders.IsEmpty(current) {
		return current
	}
	if next = strings.TrimSpace(next); !placeholders.IsEmpty(next) {
		return next
	}
	return current
}

// Run executes the stage.
func (s *Stage) Run(ctx context.Context) (stage.Summary, error) {
	summary := stage.Summary{Stage: Name}

	viable, err := stage.ReadOptional(ctx, s.opts.Store, worksheets.ViableCast)
	if err != nil {
		return summary, err
	}
	cast, err := stage.ReadOptional(ctx, s.opts.Store, worksheets.CastInfo)
	if err != nil {
		return summary, err
	}
	people := Aggregate(viable.Rows, cast.Rows)

	ctx = services.WithWorksheet(ctx, s.layout.Name)
	table, err := stage.LoadTable(ctx, s.opts.Store, s.layout.Name, s.layout.Header)
	if err != nil {
		return summary, err
	}
	byIMDb := map[string]sheet.Row{}
	byTMDb := map[string]sheet.Row{}
	for _, row := range table.Rows {
		if id := strings.TrimSpace(row.Get(worksheets.FinalCastIMDbID)); id != "" {
			if _, dup := byIMDb[id]; !dup {
				byIMDb[id] = row
			}
		}
		if id := strings.TrimSpace(row.Get(worksheets.FinalCastTMDbID)); id != "" {
			if _, dup := byTMDb[id]; !dup {
				byTMDb[id] = row
			}
		}
	}

	writer := sheet.NewWriter(s.opts.Store, s.layout.Name, s.opts.BatchSize)
	for _, p := range people {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Processed++
		row, ok := byIMDb[p.IMDbID]
		if !ok || p.IMDbID == "" {
			row, ok = byTMDb[p.TMDbID]
		}
		if !ok {
			if err := writer.Append(ctx, p.Record()); err != nil {
				return summary, err
			}
			summary.Appended++
			continue
		}
		existing := merge.Record(row.Values)
		_, changes := s.layout.Policy.Merge(existing, s.mergedRecord(existing, p))
		if len(changes) == 0 {
			continue
		}
		if err := writer.Update(ctx, merge.Diff(row.Number, changes)...); err != nil {
			return summary, err
		}
		summary.Updated++
	}
	if err := writer.Flush(ctx); err != nil {
		return summary, err
	}
	logging.WithContext(ctx, s.logger).Info("realitease info aggregated",
		logging.Int("people", len(people)),
		logging.Int("appended", summary.Appended),
		logging.Int("updated", summary.Updated),
	)
	return summary, nil
}
