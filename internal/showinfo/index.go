package showinfo

import (
	"realitease/internal/merge"
	"realitease/internal/sheet"
	"realitease/internal/worksheets"
)

// rowIndex finds ShowInfo rows by show key, TMDb ID or IMDb ID and tracks
// which rows belong to a listed show.
type rowIndex struct {
	rows   map[int]map[string]string
	byKey  map[string]int
	byTMDb map[string]int
	byIMDb map[string]int
	live   map[int]bool
}

func newRowIndex(table *sheet.Table) *rowIndex {
	idx := &rowIndex{
		rows:   map[int]map[string]string{},
		byKey:  map[string]int{},
		byTMDb: map[string]int{},
		byIMDb: map[string]int{},
		live:   map[int]bool{},
	}
	for _, row := range table.Rows {
		idx.add(row, false)
	}
	return idx
}

func (x *rowIndex) add(row sheet.Row, live bool) {
	x.rows[row.Number] = row.Values
	register := func(m map[string]int, value string) {
		if value == "" {
			return
		}
		if _, ok := m[value]; !ok {
			m[value] = row.Number
		}
	}
	register(x.byKey, row.Get(worksheets.ShowKey))
	register(x.byTMDb, row.Get(worksheets.ShowTMDbID))
	register(x.byIMDb, row.Get(worksheets.ShowIMDbSeriesID))
	if live {
		x.live[row.Number] = true
	}
}

func (x *rowIndex) lookup(show collected) (sheet.Row, bool) {
	candidates := []struct {
		m   map[string]int
		key string
	}{
		{x.byKey, show.key},
		{x.byTMDb, tmdbKey(show)},
		{x.byIMDb, show.imdbID},
		{x.byKey, imdbKey(show)},
	}
	for _, c := range candidates {
		if c.key == "" {
			continue
		}
		if number, ok := c.m[c.key]; ok {
			return sheet.Row{Number: number, Values: x.rows[number]}, true
		}
	}
	return sheet.Row{}, false
}

func tmdbKey(show collected) string {
	if show.tmdbID <= 0 {
		return ""
	}
	return show.key
}

func imdbKey(show collected) string {
	if show.imdbID == "" {
		return ""
	}
	return "imdb_" + show.imdbID
}

func (x *rowIndex) activate(number int) { x.live[number] = true }

func (x *rowIndex) active(number int) bool { return x.live[number] }

func (x *rowIndex) values(number int) merge.Record {
	return merge.Record(x.rows[number])
}

func (x *rowIndex) replace(number int, values merge.Record) {
	x.rows[number] = values
}
