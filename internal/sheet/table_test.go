package sheet_test

import (
	"errors"
	"reflect"
	"testing"

	"realitease/internal/sheet"
)

func TestColumnLetter(t *testing.T) {
	cases := map[int]string{-1: "", 0: "A", 25: "Z", 26: "AA", 27: "AB", 51: "AZ", 52: "BA", 701: "ZZ", 702: "AAA"}
	for index, want := range cases {
		if got := sheet.ColumnLetter(index); got != want {
			t.Fatalf("ColumnLetter(%d) = %q want %q", index, got, want)
		}
	}
}

func TestA1QuotesWorksheetName(t *testing.T) {
	if got := sheet.A1("Cast's Info", 2, 5); got != "'Cast''s Info'!C5" {
		t.Fatalf("unexpected reference %q", got)
	}
}

func TestMergeHeaderKeepsOrderAndAppendsMissing(t *testing.T) {
	merged, changed := sheet.MergeHeader([]string{"Show", "Network"}, []string{"Network", "WikidataID", "Show"})
	if !changed || !reflect.DeepEqual(merged, []string{"Show", "Network", "WikidataID"}) {
		t.Fatalf("unexpected merge %v changed=%v", merged, changed)
	}
	if _, changed := sheet.MergeHeader(merged, []string{"Show"}); changed {
		t.Fatal("expected no change for subset header")
	}
}

func TestCellsRejectsUnknownColumn(t *testing.T) {
	header := []string{"CastID", "CastName"}
	cells, err := sheet.Cells(header, map[string]string{"CastName": "Lisa"})
	if err != nil || !reflect.DeepEqual(cells, []string{"", "Lisa"}) {
		t.Fatalf("unexpected cells %v err=%v", cells, err)
	}
	if _, err := sheet.Cells(header, map[string]string{"Gender": "Female"}); !errors.Is(err, sheet.ErrUnknownColumn) {
		t.Fatalf("expected ErrUnknownColumn, got %v", err)
	}
}

func TestTableRowLookup(t *testing.T) {
	table := &sheet.Table{
		Header: []string{"A"},
		Rows: []sheet.Row{
			{Number: 2, Values: sheet.RowValues([]string{"A"}, []string{" x "})},
			{Number: 4, Values: sheet.RowValues([]string{"A"}, nil)},
		},
	}
	row, ok := table.Row(2)
	if !ok || row.Get("A") != "x" {
		t.Fatalf("unexpected row %#v ok=%v", row, ok)
	}
	if _, ok := table.Row(4); !ok {
		t.Fatal("expected sparse row lookup to succeed")
	}
	if _, ok := table.Row(3); ok {
		t.Fatal("expected missing row")
	}
	if table.NextRow() != 5 {
		t.Fatalf("unexpected next row %d", table.NextRow())
	}
	if (&sheet.Table{}).NextRow() != sheet.FirstDataRow {
		t.Fatal("empty table should append at first data row")
	}
	if table.ColumnIndex("B") != -1 {
		t.Fatal("expected -1 for unknown column")
	}
}
