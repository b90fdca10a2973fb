// Package merge implements the backfill policy every pipeline stage applies
// when newly fetched data meets an existing worksheet record.
//
// A field is filled only while it is empty. Override fields are never written,
// always-refresh fields track the incoming value, union fields accumulate a
// sorted list, and guard columns freeze the fields they protect. Merging is
// idempotent: applying the same incoming record twice yields no further
// changes.
package merge
