package episodes

import (
	"fmt"
	"strconv"
	"strings"

	"realitease/internal/sheet"
)

// Direction orders the rows within a range.
type Direction string

// Directions.
const (
	TopDown  Direction = "top-down"
	BottomUp Direction = "bottom-up"
)

// ParseDirection accepts top-down or bottom-up; empty means top-down.
func ParseDirection(value string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(value))) {
	case "", TopDown:
		return TopDown, nil
	case BottomUp:
		return BottomUp, nil
	default:
		return "", fmt.Errorf("unknown direction %q (want top-down or bottom-up)", value)
	}
}

// Range is an inclusive span of worksheet rows. End 0 means the last row.
type Range struct {
	Start int
	End   int
}

func (r Range) String() string {
	if r.End == 0 {
		return fmt.Sprintf("%d-", r.Start)
	}
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// CheckpointScope names the checkpoint scope of a requested range. Open
// ranges keep their open end so rows appended between runs do not move it.
func CheckpointScope(r Range) string {
	if r.Start < sheet.FirstDataRow {
		r.Start = sheet.FirstDataRow
	}
	return "rows:" + r.String()
}

// ParseRange reads "2-500", "100-" or "" (every data row).
func ParseRange(value string) (Range, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Range{Start: sheet.FirstDataRow}, nil
	}
	startText, endText, found := strings.Cut(value, "-")
	start, err := strconv.Atoi(strings.TrimSpace(startText))
	if err != nil {
		return Range{}, fmt.Errorf("invalid row range %q: %w", value, err)
	}
	r := Range{Start: start}
	if found && strings.TrimSpace(endText) != "" {
		if r.End, err = strconv.Atoi(strings.TrimSpace(endText)); err != nil {
			return Range{}, fmt.Errorf("invalid row range %q: %w", value, err)
		}
	}
	if !found {
		r.End = start
	}
	if r.Start < sheet.FirstDataRow {
		return Range{}, fmt.Errorf("row range %q starts before first data row %d", value, sheet.FirstDataRow)
	}
	if r.End != 0 && r.End < r.Start {
		return Range{}, fmt.Errorf("row range %q ends before it starts", value)
	}
	return r, nil
}

// Resolve bounds an open range by the last data row.
func (r Range) Resolve(lastRow int) Range {
	if r.Start < sheet.FirstDataRow {
		r.Start = sheet.FirstDataRow
	}
	if r.End == 0 || r.End > lastRow {
		r.End = lastRow
	}
	return r
}

// Partition splits r into at most n contiguous, disjoint ranges of near
// equal size that together cover r.
func Partition(r Range, n int) []Range {
	size := r.End - r.Start + 1
	if size <= 0 {
		return nil
	}
	n = max(1, min(n, size))
	parts := make([]Range, 0, n)
	start := r.Start
	for i := range n {
		length := size / n
		if i < size%n {
			length++
		}
		parts = append(parts, Range{Start: start, End: start + length - 1})
		start += length
	}
	return parts
}
