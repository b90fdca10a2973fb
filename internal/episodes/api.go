package episodes

import (
	"context"
	"errors"
	"fmt"

	"realitease/internal/config"
	"realitease/internal/services"
	"realitease/internal/tmdb"
)

// CreditsAPI is the subset of the TMDb client the API strategy uses.
type CreditsAPI interface {
	PersonTVCredits(ctx context.Context, personID int64) (*tmdb.TVCredits, error)
	Credit(ctx context.Context, creditID string) (*tmdb.Credit, error)
}

// APIStrategy reads a person's credits for the show from TMDb.
type APIStrategy struct {
	Client CreditsAPI
}

func (s *APIStrategy) Name() string { return config.StrategyAPI }

// Extract sums episodes over every cast and crew credit the person holds on
// the show. A credit whose details are unavailable counts its listed
// episode_count, or one episode.
func (s *APIStrategy) Extract(ctx context.Context, pair Pair) (Result, error) {
	personID, ok := tmdb.ParseID(pair.CastID)
	if !ok {
		return Result{}, fmt.Errorf("%w: cast id", ErrMissingInput)
	}
	showID, ok := tmdb.ParseID(pair.ShowID)
	if !ok {
		return Result{}, fmt.Errorf("%w: show id", ErrMissingInput)
	}

	credits, err := s.Client.PersonTVCredits(ctx, personID)
	if err != nil {
		return Result{}, err
	}
	var matches []tmdb.TVCredit
	for _, list := range [][]tmdb.TVCredit{credits.Cast, credits.Crew} {
		for _, c := range list {
			if c.ID == showID {
				matches = append(matches, c)
			}
		}
	}
	if len(matches) == 0 {
		return Result{}, services.Wrap(services.ErrNotFound, Name, "tv_credits",
			fmt.Sprintf("person %d has no credit on show %d", personID, showID), nil)
	}

	result := Result{Source: s.Name()}
	var seasons []int
	for _, c := range matches {
		episodes, found, err := s.creditDetails(ctx, c.CreditID, &seasons)
		if err != nil {
			return Result{}, err
		}
		if !found {
			episodes = max(c.EpisodeCount, 1)
		}
		result.Episodes += episodes
	}
	result.Seasons = normalizeSeasons(seasons)
	return result, nil
}

// creditDetails reads /credit/{id}. found is false when the credit has no
// details to count, in which case the caller falls back to the summary.
func (s *APIStrategy) creditDetails(ctx context.Context, creditID string, seasons *[]int) (int, bool, error) {
	if creditID == "" {
		return 0, false, nil
	}
	credit, err := s.Client.Credit(ctx, creditID)
	if errors.Is(err, services.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	if eps := credit.Media.Episodes; len(eps) > 0 {
		for _, e := range eps {
			*seasons = append(*seasons, e.SeasonNumber)
		}
		return len(eps), true, nil
	}

	total, special := 0, 0
	for _, season := range credit.Media.Seasons {
		if season.SeasonNumber == 0 {
			special += season.EpisodeCount
		} else {
			total += season.EpisodeCount
		}
		*seasons = append(*seasons, season.SeasonNumber)
	}
	if total == 0 {
		total = special
	}
	if total == 0 {
		return 0, false, nil
	}
	return total, true, nil
}
