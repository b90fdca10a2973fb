package stage

import (
	"context"
	"log/slog"
)

// Handler describes the contract the workflow runner needs from each stage.
type Handler interface {
	Name() string
	Run(context.Context) (Summary, error)
	HealthCheck(context.Context) Health
}

// LoggerAware handlers accept the run-scoped logger before Run is called.
type LoggerAware interface {
	SetLogger(*slog.Logger)
}
