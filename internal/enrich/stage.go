// Package enrich fills person-level biography fields on CastInfo rows from
// TMDb person details: IMDb ID, gender, birthday and zodiac sign.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
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
const Name = "enrich"

// TMDB is the subset of the TMDb client the stage uses.
type TMDB interface {
	Person(ctx context.Context, personID int64) (*tmdb.Person, error)
}

// Options wires the stage.
type Options struct {
	Store       sheet.Store
	TMDB        TMDB
	Checkpoints stage.Checkpointer
	Logger      *slog.Logger
	BatchSize   int
	Scope       string
}

// Stage is the person enricher.
type Stage struct {
	opts   Options
	layout worksheets.Layout
	logger *slog.Logger
}

// New returns a person enricher stage.
func New(opts Options) *Stage {
	return &Stage{
		opts:   opts,
		layout: worksheets.CastInfoLayout(false),
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

var bioFields = []string{worksheets.CastIMDbID, worksheets.CastGender, worksheets.CastBirthday, worksheets.CastZodiac}

// person groups the CastInfo rows of one TMDb person.
type person struct {
	id   string
	name string
	rows []sheet.Row
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
	people := groupPeople(table.Rows)

	progress, err := stage.OpenProgress(ctx, s.opts.Checkpoints, Name, s.opts.Scope)
	if err != nil {
		return summary, fmt.Errorf("load checkpoints: %w", err)
	}
	writer := sheet.NewWriter(s.opts.Store, s.layout.Name, s.opts.BatchSize, sheet.WithCommit(progress.Commit))

	for _, p := range people {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if progress.Seen(p.id) {
			summary.Resumed++
			continue
		}
		personCtx := services.WithRow(ctx, p.rows[0].Number)
		if !s.needsWork(p) {
			continue
		}
		id, ok := tmdb.ParseID(p.id)
		if !ok {
			summary.Skip(personCtx, s.logger, p.id, "invalid cast id")
			continue
		}

		incoming, fetched, err := s.incoming(personCtx, id, p)
		if err != nil {
			if ferr := summary.Fail(personCtx, s.logger, p.id, err); ferr != nil {
				return summary, ferr
			}
			continue
		}

		updated := 0
		for _, row := range p.rows {
			_, changes := s.layout.Policy.Merge(merge.Record(row.Values), incoming)
			if len(changes) == 0 {
				continue
			}
			if err := writer.Update(ctx, merge.Diff(row.Number, changes)...); err != nil {
				return summary, err
			}
			updated++
		}
		if err := writer.Done(ctx, p.id); err != nil {
			return summary, err
		}
		summary.Processed++
		summary.Updated += updated
		logging.WithContext(personCtx, s.logger).Debug("person enriched",
			logging.String("person", p.name),
			logging.Bool("fetched", fetched),
			logging.Int("rows_updated", updated),
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

// groupPeople returns persons in order of first appearance.
func groupPeople(rows []sheet.Row) []*person {
	var people []*person
	byID := map[string]*person{}
	for _, row := range rows {
		id := strings.TrimSpace(row.Get(worksheets.CastID))
		if id == "" {
			continue
		}
		p, ok := byID[id]
		if !ok {
			p = &person{id: id}
			byID[id] = p
			people = append(people, p)
		}
		if p.name == "" {
			p.name = strings.TrimSpace(row.Get(worksheets.CastName))
		}
		p.rows = append(p.rows, row)
	}
	return people
}

// missing returns the writable biography fields that are empty on any row.
func (s *Stage) missing(p *person) map[string]bool {
	out := map[string]bool{}
	for _, row := range p.rows {
		rec := merge.Record(row.Values)
		for _, field := range bioFields {
			if s.layout.Policy.IsEmpty(rec[field]) && !s.layout.Policy.Frozen(rec, field) {
				out[field] = true
			}
		}
	}
	return out
}

func (s *Stage) needsWork(p *person) bool {
	return len(s.missing(p)) > 0
}

// knownBirthday returns the first usable birthday already on the person's rows.
func (s *Stage) knownBirthday(p *person) string {
	for _, row := range p.rows {
		if value := row.Get(worksheets.CastBirthday); !s.layout.Policy.IsEmpty(value) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

// incoming builds the values offered to every row of the person. TMDb is
// not called when only birthday and zodiac are missing and a sibling row
// already carries the birthday.
func (s *Stage) incoming(ctx context.Context, id int64, p *person) (merge.Record, bool, error) {
	missing := s.missing(p)
	birthday := s.knownBirthday(p)
	if birthday != "" && !missing[worksheets.CastIMDbID] && !missing[worksheets.CastGender] {
		rec := merge.Record{worksheets.CastBirthday: birthday}
		if sign, ok := Zodiac(birthday); ok {
			rec[worksheets.CastZodiac] = sign
		}
		return rec, false, nil
	}

	details, err := s.opts.TMDB.Person(ctx, id)
	if err != nil {
		return nil, true, err
	}
	rec := merge.Record{
		worksheets.CastIMDbID:   strings.TrimSpace(details.IMDbID),
		worksheets.CastGender:   tmdb.GenderLabel(details.Gender),
		worksheets.CastBirthday: merge.FirstNonEmpty(birthday, details.Birthday),
	}
	if sign, ok := Zodiac(rec[worksheets.CastBirthday]); ok {
		rec[worksheets.CastZodiac] = sign
	}
	return rec, true, nil
}
