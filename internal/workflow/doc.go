// Package workflow runs the pipeline stages in their fixed order.
//
// Dependencies opens the shared tabular store, the state database and the
// metadata clients once per process; Build turns a stage name into a
// configured stage.Handler over those dependencies. The Runner executes a
// contiguous slice of the order through stageexec, holding a per-stage file
// lock for every stage except the partitioned extractor (which coordinates
// through row leases instead), stops at the first stage error, and publishes
// a run-completed notification.
//
// Add new stages by appending to Order and teaching Build how to wire them;
// this package is the authoritative home for that coordination logic.
package workflow
