// Package sheet models the shared tabular store the pipeline reads and
// writes: named worksheets whose first row is a header and whose data rows are
// addressed by 1-based row number, as in a spreadsheet.
//
// Store is implemented by the sqlitesheet and googlesheets packages. Stages
// use Writer to batch appends and cell updates; a Writer can carry a RowGuard
// that rejects writes outside a leased row range.
package sheet
