// Package episodes fills the EpisodeCount and Seasons columns of ViableCast.
//
// Each (person, show) pair is resolved by a Strategy: the TMDb credit API,
// the IMDb full-credits page, or the API with the page as fallback. Work is
// split into disjoint row ranges; every worker holds a lease on its range for
// as long as it writes, so concurrent passes over the worksheet, whether
// in-process or in separate processes, never touch the same row.
package episodes
