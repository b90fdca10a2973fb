package merge

import "realitease/internal/sheet"

// Diff turns the changes of one merged row into cell updates.
func Diff(row int, changes []Change) []sheet.CellUpdate {
	if len(changes) == 0 {
		return nil
	}
	updates := make([]sheet.CellUpdate, 0, len(changes))
	for _, c := range changes {
		updates = append(updates, sheet.CellUpdate{Row: row, Column: c.Field, Value: c.New})
	}
	return updates
}
