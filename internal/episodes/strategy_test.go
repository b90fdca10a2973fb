package episodes_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"realitease/internal/episodes"
	"realitease/internal/imdb"
	"realitease/internal/services"
	"realitease/internal/tmdb"
)

type fakeCredits struct {
	credits map[int64]*tmdb.TVCredits
	details map[string]*tmdb.Credit
}

func (f *fakeCredits) PersonTVCredits(_ context.Context, id int64) (*tmdb.TVCredits, error) {
	if c, ok := f.credits[id]; ok {
		return c, nil
	}
	return nil, services.Wrap(services.ErrNotFound, "tmdb", "tv_credits", "missing", nil)
}

func (f *fakeCredits) Credit(_ context.Context, id string) (*tmdb.Credit, error) {
	if c, ok := f.details[id]; ok {
		return c, nil
	}
	return nil, services.Wrap(services.ErrNotFound, "tmdb", "credit", "missing", nil)
}

func creditWithEpisodes(seasons ...int) *tmdb.Credit {
	c := &tmdb.Credit{}
	for _, s := range seasons {
		c.Media.Episodes = append(c.Media.Episodes, tmdb.CreditEpisode{SeasonNumber: s})
	}
	return c
}

func creditWithSeasons(seasons ...tmdb.CreditSeason) *tmdb.Credit {
	c := &tmdb.Credit{}
	c.Media.Seasons = seasons
	return c
}

type fakePage struct {
	appearances map[string]imdb.Appearance
	errs        map[string]error
	calls       int
}

func (f *fakePage) FullCredits(_ context.Context, title, person string) (imdb.Appearance, error) {
	f.calls++
	key := person + "|" + title
	if err := f.errs[key]; err != nil {
		return imdb.Appearance{}, err
	}
	if app, ok := f.appearances[key]; ok {
		return app, nil
	}
	return imdb.Appearance{}, services.Wrap(services.ErrNotFound, "imdb", "credits", "absent", nil)
}

func TestAPIStrategyCountsCredits(t *testing.T) {
	api := &fakeCredits{
		credits: map[int64]*tmdb.TVCredits{
			1: {
				Cast: []tmdb.TVCredit{{ID: 100, CreditID: "c1"}, {ID: 999, CreditID: "other"}},
				Crew: []tmdb.TVCredit{{ID: 100, CreditID: "c2", EpisodeCount: 4}},
			},
			2: {Cast: []tmdb.TVCredit{{ID: 100, CreditID: "c3"}}},
			3: {Cast: []tmdb.TVCredit{{ID: 100, CreditID: "c4"}}},
		},
		details: map[string]*tmdb.Credit{
			"c1": creditWithEpisodes(0, 1, 1, 3),
			"c3": creditWithSeasons(tmdb.CreditSeason{SeasonNumber: 2, EpisodeCount: 10}, tmdb.CreditSeason{SeasonNumber: 5, EpisodeCount: 2}),
			"c4": creditWithEpisodes(0, 0),
		},
	}
	strategy := &episodes.APIStrategy{Client: api}

	got, err := strategy.Extract(context.Background(), episodes.Pair{CastID: "1", ShowID: "100"})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got.Episodes != 8 || !reflect.DeepEqual(got.Seasons, []int{1, 3}) {
		t.Fatalf("unexpected result %+v", got)
	}

	got, err = strategy.Extract(context.Background(), episodes.Pair{CastID: "2", ShowID: "100"})
	if err != nil || got.Episodes != 12 || !reflect.DeepEqual(got.Seasons, []int{2, 5}) {
		t.Fatalf("seasons array result %+v, %v", got, err)
	}

	got, err = strategy.Extract(context.Background(), episodes.Pair{CastID: "3", ShowID: "100"})
	if err != nil || got.Episodes != 2 || !reflect.DeepEqual(got.Seasons, []int{0}) {
		t.Fatalf("specials-only result %+v, %v", got, err)
	}

	if _, err := strategy.Extract(context.Background(), episodes.Pair{CastID: "1", ShowID: "555"}); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := strategy.Extract(context.Background(), episodes.Pair{ShowID: "100"}); !errors.Is(err, episodes.ErrMissingInput) {
		t.Fatalf("expected missing input, got %v", err)
	}
}

func TestResultRecordDefaultsSeasonOne(t *testing.T) {
	rec := episodes.Result{Episodes: 3}.Record()
	if rec["EpisodeCount"] != "3" || rec["Seasons"] != "1" {
		t.Fatalf("unexpected record %#v", rec)
	}
}

func TestScrapeStrategy(t *testing.T) {
	page := &fakePage{
		appearances: map[string]imdb.Appearance{"nm1|tt2": {Episodes: 14, Seasons: []int{3, 1}}},
		errs:        map[string]error{"nm9|tt2": imdb.ErrCrewOnly},
	}
	strategy := &episodes.ScrapeStrategy{Client: page}

	got, err := strategy.Extract(context.Background(), episodes.Pair{CastIMDbID: "nm1", ShowIMDbID: "tt2"})
	if err != nil || got.Episodes != 14 || !reflect.DeepEqual(got.Seasons, []int{1, 3}) {
		t.Fatalf("unexpected result %+v, %v", got, err)
	}
	if _, err := strategy.Extract(context.Background(), episodes.Pair{CastIMDbID: "nm9", ShowIMDbID: "tt2"}); !errors.Is(err, imdb.ErrCrewOnly) {
		t.Fatalf("expected crew-only, got %v", err)
	}
	if _, err := strategy.Extract(context.Background(), episodes.Pair{CastIMDbID: "", ShowIMDbID: "tt2"}); !errors.Is(err, episodes.ErrMissingInput) {
		t.Fatalf("expected missing input, got %v", err)
	}
}

func TestAutoStrategyFallsBack(t *testing.T) {
	api := &fakeCredits{credits: map[int64]*tmdb.TVCredits{1: {}}}
	page := &fakePage{appearances: map[string]imdb.Appearance{"nm1|tt2": {Episodes: 5}}}
	strategy, err := episodes.NewStrategy("auto", api, page)
	if err != nil {
		t.Fatalf("NewStrategy: %v", err)
	}
	got, err := strategy.Extract(context.Background(), episodes.Pair{CastID: "1", ShowID: "100", CastIMDbID: "nm1", ShowIMDbID: "tt2"})
	if err != nil || got.Episodes != 5 || got.Source != "scrape" {
		t.Fatalf("unexpected fallback result %+v, %v", got, err)
	}

	got, err = strategy.Extract(context.Background(), episodes.Pair{CastIMDbID: "nm1", ShowIMDbID: "tt2"})
	if err != nil || got.Episodes != 5 {
		t.Fatalf("missing api ids should fall back: %+v, %v", got, err)
	}

	if _, err := episodes.NewStrategy("browser", api, page); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if _, err := episodes.NewStrategy("scrape", api, nil); err == nil {
		t.Fatal("expected error without imdb client")
	}
}
