// Package sqlitesheet stores worksheets in a local SQLite file.
//
// Each worksheet keeps its header as a JSON array and each row as a JSON array
// of cells aligned to the header, so column order and row numbers behave
// exactly like a spreadsheet. It is the default backend and the one tests run
// against.
package sqlitesheet
