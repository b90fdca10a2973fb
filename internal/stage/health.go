package stage

import (
	"context"
	"fmt"

	"realitease/internal/sheet"
)

// Health summarizes the readiness of a pipeline stage.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy constructs a ready Health record.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy constructs an unhealthy Health record with context detail.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}

// CheckStore reports whether the tabular store answers a listing request and
// whether every required dependency was supplied.
func CheckStore(ctx context.Context, name string, store sheet.Store, required map[string]bool) Health {
	if store == nil {
		return Unhealthy(name, "tabular store unavailable")
	}
	for dep, ok := range required {
		if !ok {
			return Unhealthy(name, dep+" not configured")
		}
	}
	if _, err := store.Tables(ctx); err != nil {
		return Unhealthy(name, fmt.Sprintf("tabular store: %v", err))
	}
	return Healthy(name)
}
