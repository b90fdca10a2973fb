package viablecast_test

import (
	"context"
	"testing"

	"realitease/internal/sheet"
	"realitease/internal/testsupport"
	"realitease/internal/viablecast"
	"realitease/internal/worksheets"
)

func TestEligible(t *testing.T) {
	tests := []struct {
		shows, episodes int
		want            bool
	}{
		{0, 0, true},
		{1, 0, true},
		{5, 0, true},
		{1, 1, false},
		{1, 7, false},
		{1, 8, true},
		{2, 1, true},
		{2, 2, false},
		{2, 7, false},
		{2, 8, true},
		{3, 3, true},
		{3, 7, true},
	}
	for _, tc := range tests {
		if got := viablecast.Eligible(tc.shows, tc.episodes); got != tc.want {
			t.Errorf("Eligible(%d, %d) = %v, want %v", tc.shows, tc.episodes, got, tc.want)
		}
	}
}

func pair(r sheet.Row) string {
	return r.Get(worksheets.ViableCastIMDbID) + "|" + r.Get(worksheets.ViableShowIMDbID)
}

func seed(t *testing.T) testsupport.Stores {
	t.Helper()
	stores := testsupport.OpenStores(t)
	testsupport.Seed(t, stores.Sheets, worksheets.ShowInfoLayout(),
		map[string]string{worksheets.ShowKey: "100", worksheets.ShowName: "Vanderpump Rules", worksheets.ShowTMDbID: "100"},
	)
	testsupport.Seed(t, stores.Sheets, worksheets.UpdateInfoLayout(),
		map[string]string{worksheets.UpdatePersonTMDbID: "1", worksheets.UpdatePersonIMDbID: "nm1", worksheets.UpdateTotalShows: "2", worksheets.UpdateTotalEpisodes: "124"},
		map[string]string{worksheets.UpdatePersonTMDbID: "2", worksheets.UpdatePersonIMDbID: "nm2", worksheets.UpdateTotalShows: "1", worksheets.UpdateTotalEpisodes: "3"},
		map[string]string{worksheets.UpdatePersonTMDbID: "5", worksheets.UpdatePersonIMDbID: "nm5", worksheets.UpdateTotalShows: "1", worksheets.UpdateTotalEpisodes: "40"},
	)
	testsupport.Seed(t, stores.Sheets, worksheets.CastInfoLayout(false),
		map[string]string{worksheets.CastID: "1", worksheets.CastName: "Lisa Vanderpump", worksheets.CastShowID: "100", worksheets.CastShowName: "VPR", worksheets.CastShowIMDbID: "tt2"},
		map[string]string{worksheets.CastID: "1", worksheets.CastName: "Lisa Vanderpump", worksheets.CastShowID: "200", worksheets.CastShowName: "Vanderpump Villa", worksheets.CastShowIMDbID: "tt1"},
		map[string]string{worksheets.CastID: "2", worksheets.CastName: "Guest", worksheets.CastShowID: "100", worksheets.CastShowIMDbID: "tt2"},
		map[string]string{worksheets.CastID: "3", worksheets.CastName: "No IMDb", worksheets.CastShowID: "100", worksheets.CastShowIMDbID: "tt2"},
		map[string]string{worksheets.CastID: "4", worksheets.CastName: "No Show", worksheets.CastIMDbID: "nm4", worksheets.CastShowID: "300"},
		map[string]string{worksheets.CastID: "5", worksheets.CastName: "Existing", worksheets.CastShowID: "100", worksheets.CastShowIMDbID: "tt2"},
	)
	testsupport.Seed(t, stores.Sheets, worksheets.ViableCastLayout(),
		map[string]string{worksheets.ViableShowIMDbID: "tt2", worksheets.ViableCastID: "5", worksheets.ViableCastName: "Existing", worksheets.ViableEpisodeCount: "40", worksheets.ViableSeasons: "1, 2"},
		map[string]string{worksheets.ViableShowIMDbID: "tt9", worksheets.ViableCastID: "1", worksheets.ViableCastIMDbID: "nm999"},
	)
	return stores
}

func TestRunSelectsEligiblePairs(t *testing.T) {
	stores := seed(t)
	stage := viablecast.New(viablecast.Options{Store: stores.Sheets, BatchSize: 2})

	summary, err := stage.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Appended != 2 || summary.Updated != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	rows := testsupport.RowsBy(t, stores.Sheets, worksheets.ViableCast, pair)
	if len(rows) != 4 {
		t.Fatalf("expected 4 viable rows, got %d", len(rows))
	}
	lisa, ok := rows["nm1|tt2"]
	if !ok {
		t.Fatalf("missing eligible pair: %v", rows)
	}
	if lisa.Get(worksheets.ViableShowName) != "Vanderpump Rules" || lisa.Get(worksheets.ViableCastID) != "1" {
		t.Fatalf("unexpected row %+v", lisa.Values)
	}
	if lisa.Get(worksheets.ViableEpisodeCount) != "" || lisa.Get(worksheets.ViableSeasons) != "" {
		t.Fatalf("episode columns written on append: %+v", lisa.Values)
	}
	if got := rows["nm1|tt1"].Get(worksheets.ViableShowName); got != "Vanderpump Villa" {
		t.Fatalf("show name fallback = %q", got)
	}
	if _, ok := rows["nm2|tt2"]; ok {
		t.Fatal("ineligible person appended")
	}
	existing, ok := rows["nm5|tt2"]
	if !ok || existing.Get(worksheets.ViableEpisodeCount) != "40" {
		t.Fatalf("existing row not backfilled or changed: %v", rows)
	}
	if got := rows["nm999|tt9"].Get(worksheets.ViableCastIMDbID); got != "nm999" {
		t.Fatalf("mismatched imdb id overwritten: %q", got)
	}

	again, err := stage.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if again.Appended != 0 || again.Updated != 0 {
		t.Fatalf("second run not idempotent: %+v", again)
	}
	if got := len(testsupport.Rows(t, stores.Sheets, worksheets.ViableCast)); got != 4 {
		t.Fatalf("row count changed to %d", got)
	}
}
