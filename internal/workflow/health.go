package workflow

import (
	"context"

	"realitease/internal/stage"
)

// Health calls every handler's HealthCheck in order.
func Health(ctx context.Context, handlers []stage.Handler) []stage.Health {
	out := make([]stage.Health, 0, len(handlers))
	for _, h := range handlers {
		health := h.HealthCheck(ctx)
		if health.Name == "" {
			health.Name = h.Name()
		}
		out = append(out, health)
	}
	return out
}

// Ready reports whether every stage is ready.
func Ready(health []stage.Health) bool {
	for _, h := range health {
		if !h.Ready {
			return false
		}
	}
	return true
}
