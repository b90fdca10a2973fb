package episodes

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"realitease/internal/config"
	"realitease/internal/merge"
	"realitease/internal/services"
	"realitease/internal/sheet"
	"realitease/internal/worksheets"
)

// ErrMissingInput is returned when a row lacks the identifiers a strategy
// needs. Such rows are skipped, not failed.
var ErrMissingInput = errors.New("row lacks identifiers required by strategy")

// Pair is one ViableCast row to resolve.
type Pair struct {
	Row        int
	CastID     string
	CastName   string
	CastIMDbID string
	ShowID     string
	ShowName   string
	ShowIMDbID string
}

// PairFromRow reads a ViableCast row.
func PairFromRow(row sheet.Row) Pair {
	get := func(col string) string { return strings.TrimSpace(row.Get(col)) }
	return Pair{
		Row:        row.Number,
		CastID:     get(worksheets.ViableCastID),
		CastName:   get(worksheets.ViableCastName),
		CastIMDbID: get(worksheets.ViableCastIMDbID),
		ShowID:     get(worksheets.ViableShowID),
		ShowName:   get(worksheets.ViableShowName),
		ShowIMDbID: get(worksheets.ViableShowIMDbID),
	}
}

// Key identifies the pair in checkpoints.
func (p Pair) Key() string {
	if p.CastIMDbID != "" || p.ShowIMDbID != "" {
		return p.CastIMDbID + "|" + p.ShowIMDbID
	}
	return fmt.Sprintf("row-%d", p.Row)
}

// Result is what a strategy learned about a pair.
type Result struct {
	Episodes int
	Seasons  []int
	Source   string
}

// Empty reports whether the result carries nothing to write.
func (r Result) Empty() bool {
	return r.Episodes <= 0 && len(r.Seasons) == 0
}

// Record renders the result as ViableCast G and H values. Episodes without
// known seasons are attributed to season 1.
func (r Result) Record() merge.Record {
	rec := merge.Record{}
	if r.Episodes > 0 {
		rec[worksheets.ViableEpisodeCount] = fmt.Sprint(r.Episodes)
	}
	switch {
	case len(r.Seasons) > 0:
		rec[worksheets.ViableSeasons] = merge.JoinSeasons(r.Seasons)
	case r.Episodes > 0:
		rec[worksheets.ViableSeasons] = "1"
	}
	return rec
}

// Strategy resolves episode and season counts for one pair.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, pair Pair) (Result, error)
}

// normalizeSeasons sorts and dedupes seasons, dropping season 0 unless it is
// the only season.
func normalizeSeasons(seasons []int) []int {
	var out []int
	special := false
	for _, s := range seasons {
		switch {
		case s == 0:
			special = true
		case s > 0 && !slices.Contains(out, s):
			out = append(out, s)
		}
	}
	if len(out) == 0 && special {
		return []int{0}
	}
	slices.Sort(out)
	return out
}

// NewStrategy builds the named strategy. api and page may be nil when the
// chosen strategy does not need them.
func NewStrategy(name string, api CreditsAPI, page CreditsPage) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case config.StrategyAPI:
		if api == nil {
			return nil, services.Wrap(services.ErrConfiguration, Name, "strategy", "api strategy needs a tmdb client", nil)
		}
		return &APIStrategy{Client: api}, nil
	case config.StrategyScrape:
		if page == nil {
			return nil, services.Wrap(services.ErrConfiguration, Name, "strategy", "scrape strategy needs an imdb client", nil)
		}
		return &ScrapeStrategy{Client: page}, nil
	case config.StrategyAuto, "":
		if api == nil || page == nil {
			return nil, services.Wrap(services.ErrConfiguration, Name, "strategy", "auto strategy needs tmdb and imdb clients", nil)
		}
		return &AutoStrategy{Primary: &APIStrategy{Client: api}, Fallback: &ScrapeStrategy{Client: page}}, nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, Name, "strategy", fmt.Sprintf("unknown strategy %q", name), nil)
	}
}
