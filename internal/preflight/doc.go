// Package preflight provides readiness checks for the stores, directories and
// external services realitease depends on.
//
// These checks run in two contexts:
//   - The workflow runner calls RunAll before the first stage of a run.
//     If any check fails, the run halts before touching the worksheets.
//   - The CLI "realitease status" command prints every Result as a table.
//
// Checks for optional sources are skipped when the source is not configured.
package preflight
