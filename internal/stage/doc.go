// Package stage holds the contract shared by the seven pipeline stages.
//
// A Handler runs one stage over the tabular store and returns a Summary. The
// helpers here cover what every stage repeats: loading a worksheet with its
// expected header, resuming from checkpoints, and skipping record-level
// failures without aborting the batch.
package stage
