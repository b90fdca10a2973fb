package episodes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"realitease/internal/config"
	"realitease/internal/imdb"
	"realitease/internal/services"
)

// CreditsPage is the subset of the IMDb client the scrape strategy uses.
type CreditsPage interface {
	FullCredits(ctx context.Context, titleID, personID string) (imdb.Appearance, error)
}

// ScrapeStrategy reads the show's IMDb full-credits page.
type ScrapeStrategy struct {
	Client CreditsPage
}

func (s *ScrapeStrategy) Name() string { return config.StrategyScrape }

// Extract locates the person on the page. A person credited only as crew
// yields imdb.ErrCrewOnly.
func (s *ScrapeStrategy) Extract(ctx context.Context, pair Pair) (Result, error) {
	if !strings.HasPrefix(pair.CastIMDbID, "nm") {
		return Result{}, fmt.Errorf("%w: cast imdb id", ErrMissingInput)
	}
	if !strings.HasPrefix(pair.ShowIMDbID, "tt") {
		return Result{}, fmt.Errorf("%w: show imdb id", ErrMissingInput)
	}
	app, err := s.Client.FullCredits(ctx, pair.ShowIMDbID, pair.CastIMDbID)
	if err != nil {
		return Result{}, err
	}
	result := Result{Episodes: app.Episodes, Seasons: normalizeSeasons(app.Seasons), Source: s.Name()}
	if result.Empty() {
		return Result{}, services.Wrap(services.ErrNotFound, Name, "fullcredits",
			fmt.Sprintf("no episode data for %s on %s", pair.CastIMDbID, pair.ShowIMDbID), nil)
	}
	return result, nil
}

// AutoStrategy tries Primary and falls back when it finds nothing usable.
type AutoStrategy struct {
	Primary  Strategy
	Fallback Strategy
}

func (s *AutoStrategy) Name() string { return config.StrategyAuto }

// Extract returns the primary result unless it is empty, not found, or the
// row lacks the primary's identifiers. Other primary errors are returned.
func (s *AutoStrategy) Extract(ctx context.Context, pair Pair) (Result, error) {
	result, err := s.Primary.Extract(ctx, pair)
	switch {
	case err == nil && !result.Empty():
		return result, nil
	case err != nil && !errors.Is(err, ErrMissingInput) && !errors.Is(err, services.ErrNotFound):
		return Result{}, err
	}
	fallback, ferr := s.Fallback.Extract(ctx, pair)
	if ferr != nil && errors.Is(ferr, ErrMissingInput) && err != nil {
		return Result{}, err
	}
	return fallback, ferr
}
