package tmdb_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"realitease/internal/services"
	"realitease/internal/tmdb"
)

func newServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"status_code":34}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := tmdb.New("", "https://example.com", "en-US"); err == nil {
		t.Fatal("expected error when api key missing")
	}
}

func TestListUsesBearerToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/4/list/8301263" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token" {
			t.Errorf("unexpected authorization %q", got)
		}
		if r.URL.Query().Get("page") != "2" {
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
		_, _ = w.Write([]byte(`{"page":2,"total_pages":2,"results":[{"id":1,"media_type":"tv","name":"Below Deck"},{"id":2,"media_type":"movie","title":"Film"}]}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL+"/3", "", tmdb.WithBearerToken("token"))
	if err != nil {
		t.Fatal(err)
	}
	page, err := client.List(context.Background(), "8301263", 2)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if page.TotalPages != 2 || len(page.Results) != 2 || page.Results[0].Name != "Below Deck" {
		t.Fatalf("unexpected page %#v", page)
	}
}

func TestListWithoutBearerFails(t *testing.T) {
	client, _ := tmdb.New("key", "https://example.com/3", "")
	if _, err := client.List(context.Background(), "1", 1); err == nil {
		t.Fatal("expected error without bearer token")
	}
}

func TestFindAndDetails(t *testing.T) {
	server := newServer(t, map[string]string{
		"/find/tt2343157":             `{"tv_results":[{"id":45952,"name":"Vanderpump Rules"}]}`,
		"/tv/45952":                   `{"id":45952,"name":"Vanderpump Rules","number_of_seasons":11,"number_of_episodes":250,"networks":[{"id":74,"name":"Bravo"}],"last_episode_to_air":{"air_date":"2024-05-14","season_number":11}}`,
		"/tv/45952/external_ids":      `{"imdb_id":"tt2343157","tvdb_id":269589,"wikidata_id":"Q15622848"}`,
		"/tv/45952/season/11":         `{"season_number":11,"episodes":[{"air_date":"2024-01-30","episode_number":1}]}`,
		"/tv/45952/aggregate_credits": `{"cast":[{"id":1,"name":"Lisa Vanderpump","total_episode_count":200}]}`,
	})
	client, err := tmdb.New("key", server.URL, "en-US")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	found, err := client.FindByIMDb(ctx, "tt2343157")
	if err != nil || len(found.TVResults) != 1 || found.TVResults[0].ID != 45952 {
		t.Fatalf("unexpected find %#v err=%v", found, err)
	}
	details, err := client.TVDetails(ctx, 45952)
	if err != nil {
		t.Fatalf("TVDetails: %v", err)
	}
	if details.Networks[0].Name != "Bravo" || details.LastEpisodeToAir == nil || details.LastEpisodeToAir.AirDate != "2024-05-14" {
		t.Fatalf("unexpected details %#v", details)
	}
	ids, err := client.TVExternalIDs(ctx, 45952)
	if err != nil || ids.TVDBID != 269589 || ids.WikidataID != "Q15622848" {
		t.Fatalf("unexpected ids %#v err=%v", ids, err)
	}
	season, err := client.SeasonDetails(ctx, 45952, 11)
	if err != nil || len(season.Episodes) != 1 {
		t.Fatalf("unexpected season %#v err=%v", season, err)
	}
	credits, err := client.AggregateCredits(ctx, 45952)
	if err != nil || credits.Cast[0].TotalEpisodeCount != 200 {
		t.Fatalf("unexpected credits %#v err=%v", credits, err)
	}
}

func TestMissingSeasonCreditsIsNotFound(t *testing.T) {
	server := newServer(t, map[string]string{})
	client, _ := tmdb.New("key", server.URL, "")
	_, err := client.SeasonAggregateCredits(context.Background(), 1, 9)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPersonCreditsAndCredit(t *testing.T) {
	server := newServer(t, map[string]string{
		"/person/7":            `{"id":7,"name":"Kyle Richards","imdb_id":"nm0724732","gender":1,"birthday":"1969-01-11"}`,
		"/person/7/tv_credits": `{"cast":[{"id":9,"credit_id":"abc","episode_count":12}],"crew":[{"id":9,"credit_id":"def","job":"Producer"}]}`,
		"/credit/abc":          `{"id":"abc","media":{"id":9,"episodes":[{"season_number":1},{"season_number":2}],"seasons":[{"season_number":1,"episode_count":6}]}}`,
	})
	client, _ := tmdb.New("key", server.URL, "")
	ctx := context.Background()

	person, err := client.Person(ctx, 7)
	if err != nil || tmdb.GenderLabel(person.Gender) != tmdb.GenderFemale || person.IMDbID != "nm0724732" {
		t.Fatalf("unexpected person %#v err=%v", person, err)
	}
	credits, err := client.PersonTVCredits(ctx, 7)
	if err != nil || len(credits.Cast) != 1 || len(credits.Crew) != 1 {
		t.Fatalf("unexpected credits %#v err=%v", credits, err)
	}
	credit, err := client.Credit(ctx, "abc")
	if err != nil || len(credit.Media.Episodes) != 2 || credit.Media.Seasons[0].EpisodeCount != 6 {
		t.Fatalf("unexpected credit %#v err=%v", credit, err)
	}
}

func TestParseIDAndGender(t *testing.T) {
	if id, ok := tmdb.ParseID(" 42 "); !ok || id != 42 {
		t.Fatalf("ParseID = %d %v", id, ok)
	}
	for _, bad := range []string{"", "imdb_tt1", "-3", "0"} {
		if _, ok := tmdb.ParseID(bad); ok {
			t.Fatalf("expected %q rejected", bad)
		}
	}
	if tmdb.GenderLabel(2) != tmdb.GenderMale || tmdb.GenderLabel(0) != "" {
		t.Fatal("unexpected gender labels")
	}
}
