// Package services defines shared utilities consumed by the pipeline stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, worksheets, rows and
//     partition workers for logging.
//   - Structured error markers plus the Wrap helper that let stages decide
//     whether a failure skips a record or aborts the stage.
//
// Use these helpers when wiring new stage logic so operational behaviour (error
// handling, observability) stays uniform across the pipeline.
package services
