package merge

import (
	"slices"
	"strconv"
	"strings"
)

const (
	// ListSeparator joins identifier and number lists inside a single cell.
	ListSeparator = ", "
	// NameSeparator joins title lists, whose items may contain commas.
	NameSeparator = " | "
)

// SplitList parses a comma-separated cell into trimmed, non-empty items.
func SplitList(value string) []string {
	return SplitListBy(value, ListSeparator)
}

// SplitNames parses a cell written by JoinNames.
func SplitNames(value string) []string {
	return SplitListBy(value, NameSeparator)
}

// SplitListBy parses a cell joined with sep. Only the non-blank part of sep
// is matched, so "a,b" and "a, b" read the same.
func SplitListBy(value, sep string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	cut := strings.TrimSpace(sep)
	if cut == "" {
		cut = sep
	}
	parts := strings.Split(value, cut)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// JoinList renders items as a sorted, de-duplicated cell value. Integers sort
// numerically and before any other item.
func JoinList(items []string) string {
	return JoinListBy(items, ListSeparator)
}

// JoinNames renders titles the way JoinList does, separated by NameSeparator.
func JoinNames(items []string) string {
	return JoinListBy(items, NameSeparator)
}

// JoinListBy renders items sorted and de-duplicated, joined with sep.
func JoinListBy(items []string, sep string) string {
	seen := make(map[string]struct{}, len(items))
	unique := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		unique = append(unique, item)
	}
	slices.SortFunc(unique, compareItems)
	return strings.Join(unique, sep)
}

func compareItems(a, b string) int {
	x, errA := strconv.Atoi(a)
	y, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return x - y
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return strings.Compare(a, b)
}

// JoinSeasons renders season numbers ascending, e.g. "1, 3, 10".
func JoinSeasons(seasons []int) string {
	items := make([]string, 0, len(seasons))
	for _, n := range seasons {
		items = append(items, strconv.Itoa(n))
	}
	return JoinList(items)
}

// SplitSeasons parses a Seasons cell, ignoring items that are not numbers.
func SplitSeasons(value string) []int {
	var out []int
	for _, item := range SplitList(value) {
		if n, err := strconv.Atoi(item); err == nil {
			out = append(out, n)
		}
	}
	return out
}

// FirstNonEmpty returns the first value that is not blank.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
