// Package showinfo builds the ShowInfo worksheet from the configured TMDb and
// IMDb lists.
//
// Every listed show is resolved to TMDb where possible, enriched with details
// and external identifiers, then appended or backfilled. Rows for shows that
// disappeared from every list get OVERRIDE=SKIP when their OVERRIDE cell is
// empty; nothing else about them changes.
package showinfo
