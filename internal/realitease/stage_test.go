package realitease_test

import (
	"context"
	"reflect"
	"testing"

	"realitease/internal/realitease"
	"realitease/internal/sheet"
	"realitease/internal/testsupport"
	"realitease/internal/worksheets"
)

func viableRow(showIMDb, castID, name, castIMDb, showID, showName string) map[string]string {
	return map[string]string{
		worksheets.ViableShowIMDbID: showIMDb,
		worksheets.ViableCastID:     castID,
		worksheets.ViableCastName:   name,
		worksheets.ViableCastIMDbID: castIMDb,
		worksheets.ViableShowID:     showID,
		worksheets.ViableShowName:   showName,
	}
}

func byIMDb(r sheet.Row) string { return r.Get(worksheets.FinalCastIMDbID) + "/" + r.Get(worksheets.FinalCastTMDbID) }

func TestAggregateGroupsByPerson(t *testing.T) {
	viable := []sheet.Row{
		{Number: 2, Values: viableRow("tt2", "1", "Lisa Vanderpump", "nm1", "100", "Vanderpump Rules")},
		{Number: 3, Values: viableRow("tt1", "1", "Lisa Vanderpump", "nm1", "200", "Vanderpump Villa")},
		{Number: 4, Values: viableRow("tt1", "1", "Lisa Vanderpump", "nm1", "200", "Vanderpump Villa")},
		{Number: 5, Values: viableRow("tt2", "7", "No IMDb", "", "100", "Vanderpump Rules")},
	}
	cast := []sheet.Row{
		{Number: 2, Values: map[string]string{worksheets.CastID: "1", worksheets.CastBirthday: "unknown **"}},
		{Number: 3, Values: map[string]string{worksheets.CastID: "1", worksheets.CastGender: "Female", worksheets.CastBirthday: "1960-09-15", worksheets.CastZodiac: "Virgo"}},
	}
	people := realitease.Aggregate(viable, cast)
	if len(people) != 2 {
		t.Fatalf("expected two people, got %#v", people)
	}
	lisa := people[0]
	if lisa.ShowCount() != 2 || lisa.Birthday != "1960-09-15" || lisa.Zodiac != "Virgo" || lisa.Gender != "Female" {
		t.Fatalf("unexpected person %#v", lisa)
	}
	rec := lisa.Record()
	if rec[worksheets.FinalShowNames] != "Vanderpump Rules | Vanderpump Villa" || rec[worksheets.FinalShowTMDbIDs] != "100, 200" {
		t.Fatalf("unexpected record %#v", rec)
	}
	if people[1].TMDbID != "7" || people[1].IMDbID != "" {
		t.Fatalf("tmdb-keyed person wrong: %#v", people[1])
	}
}

func TestRunAppendsAndBackfills(t *testing.T) {
	stores := testsupport.OpenStores(t)
	testsupport.Seed(t, stores.Sheets, worksheets.ViableCastLayout(),
		viableRow("tt2", "1", "Lisa Vanderpump", "nm1", "100", "Vanderpump Rules"),
		viableRow("tt1", "1", "Lisa Vanderpump", "nm1", "200", "Vanderpump Villa"),
		viableRow("tt2", "3", "Tom Sandoval", "nm3", "100", "Vanderpump Rules"),
	)
	testsupport.Seed(t, stores.Sheets, worksheets.CastInfoLayout(false),
		map[string]string{worksheets.CastID: "3", worksheets.CastGender: "Male", worksheets.CastBirthday: "1983-02-02", worksheets.CastZodiac: "Aquarius"},
	)
	testsupport.Seed(t, stores.Sheets, worksheets.RealiteaseInfoLayout(), map[string]string{
		worksheets.FinalCastName:    "Lisa",
		worksheets.FinalCastTMDbID:  "1",
		worksheets.FinalShowNames:   "Vanderpump Rules",
		worksheets.FinalShowCount:   "1",
		worksheets.FinalGender:      "Female",
		worksheets.FinalShowIMDbIDs: "tt2",
	})

	stage := realitease.New(realitease.Options{Store: stores.Sheets, BatchSize: 2})
	summary, err := stage.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Appended != 1 || summary.Updated != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	rows := testsupport.RowsBy(t, stores.Sheets, worksheets.RealiteaseInfo, byIMDb)
	lisa, ok := rows["nm1/1"]
	if !ok {
		t.Fatalf("existing row not matched by tmdb id: %v", rows)
	}
	if lisa.Get(worksheets.FinalCastName) != "Lisa" || lisa.Get(worksheets.FinalShowCount) != "2" ||
		lisa.Get(worksheets.FinalShowIMDbIDs) != "tt1, tt2" || lisa.Get(worksheets.FinalShowNames) != "Vanderpump Rules | Vanderpump Villa" {
		t.Fatalf("unexpected merged row %+v", lisa.Values)
	}
	if tom := rows["nm3/3"]; tom.Get(worksheets.FinalZodiac) != "Aquarius" || tom.Get(worksheets.FinalGender) != "Male" {
		t.Fatalf("biography not copied: %+v", tom.Values)
	}

	before := testsupport.RowsBy(t, stores.Sheets, worksheets.RealiteaseInfo, byIMDb)
	again, err := stage.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if again.Appended != 0 || again.Updated != 0 || !reflect.DeepEqual(before, testsupport.RowsBy(t, stores.Sheets, worksheets.RealiteaseInfo, byIMDb)) {
		t.Fatalf("second run not idempotent: %+v", again)
	}
}

func TestRunKeepsTitlesWithCommasWhole(t *testing.T) {
	stores := testsupport.OpenStores(t)
	testsupport.Seed(t, stores.Sheets, worksheets.ViableCastLayout(),
		viableRow("tt5", "1", "Lisa Vanderpump", "nm1", "500", "Sex, Drugs and Reality"),
		viableRow("tt6", "1", "Lisa Vanderpump", "nm1", "600", "Summer House"),
	)
	stage := realitease.New(realitease.Options{Store: stores.Sheets})

	var cells []string
	for i := 0; i < 3; i++ {
		if _, err := stage.Run(context.Background()); err != nil {
			t.Fatalf("Run %d: %v", i+1, err)
		}
		rows := testsupport.Rows(t, stores.Sheets, worksheets.RealiteaseInfo)
		if len(rows) != 1 {
			t.Fatalf("run %d: expected one row, got %d", i+1, len(rows))
		}
		cells = append(cells, rows[0].Get(worksheets.FinalShowNames))
	}
	if cells[0] != "Sex, Drugs and Reality | Summer House" {
		t.Fatalf("unexpected show names %q", cells[0])
	}
	if cells[1] != cells[0] || cells[2] != cells[0] {
		t.Fatalf("show names changed across runs: %q", cells)
	}
}

func TestRunCountsShowsAlreadyInCell(t *testing.T) {
	stores := testsupport.OpenStores(t)
	testsupport.Seed(t, stores.Sheets, worksheets.ViableCastLayout(),
		viableRow("tt2", "1", "Lisa Vanderpump", "nm1", "100", "Vanderpump Rules"),
	)
	testsupport.Seed(t, stores.Sheets, worksheets.RealiteaseInfoLayout(), map[string]string{
		worksheets.FinalCastName:    "Lisa Vanderpump",
		worksheets.FinalCastIMDbID:  "nm1",
		worksheets.FinalShowNames:   "Vanderpump Villa",
		worksheets.FinalShowIMDbIDs: "tt1",
		worksheets.FinalShowTMDbIDs: "200",
		worksheets.FinalShowCount:   "1",
	})

	stage := realitease.New(realitease.Options{Store: stores.Sheets})
	if _, err := stage.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	rows := testsupport.Rows(t, stores.Sheets, worksheets.RealiteaseInfo)
	if len(rows) != 1 {
		t.Fatalf("expected one row, got %d", len(rows))
	}
	lisa := rows[0]
	if lisa.Get(worksheets.FinalShowIMDbIDs) != "tt1, tt2" || lisa.Get(worksheets.FinalShowCount) != "2" {
		t.Fatalf("count disagrees with show list: %+v", lisa.Values)
	}

	again, err := stage.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if again.Updated != 0 {
		t.Fatalf("second run rewrote the row: %+v", again)
	}
}
