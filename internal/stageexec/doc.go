// Package stageexec runs a single stage handler with the logging, locking and
// notification conventions shared by the CLI and the workflow runner.
package stageexec
