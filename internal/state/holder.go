package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"realitease/internal/logging"
	"realitease/internal/sheet"
)

// Holder keeps a lease alive with periodic heartbeats until released.
type Holder struct {
	store    *Store
	ttl      time.Duration
	interval time.Duration
	logger   *slog.Logger

	mu    sync.Mutex
	lease Lease
	lost  error

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// Hold claims the range and starts heartbeating every interval. The returned
// holder's Context is cancelled when the lease is lost or released.
func (s *Store) Hold(ctx context.Context, worksheet string, start, end int, owner string, ttl, interval time.Duration, logger *slog.Logger) (*Holder, error) {
	if interval <= 0 || interval >= ttl {
		return nil, fmt.Errorf("heartbeat interval %v must be positive and shorter than ttl %v", interval, ttl)
	}
	lease, err := s.Claim(ctx, worksheet, start, end, owner, ttl)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	hctx, cancel := context.WithCancel(ctx)
	h := &Holder{
		store:    s,
		ttl:      ttl,
		interval: interval,
		logger:   logger,
		lease:    lease,
		ctx:      hctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go h.loop()
	return h, nil
}

// Context is cancelled once the lease is no longer held.
func (h *Holder) Context() context.Context { return h.ctx }

// Lease returns the current lease.
func (h *Holder) Lease() Lease {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lease
}

// Err reports why the lease was lost, if it was.
func (h *Holder) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lost
}

// Guard rejects rows outside the lease and every row once the lease is lost
// or has lapsed without a heartbeat.
func (h *Holder) Guard() sheet.RowGuard {
	return func(row int) error {
		h.mu.Lock()
		lease, lost := h.lease, h.lost
		h.mu.Unlock()
		if lost != nil {
			return lost
		}
		if lease.Expired(h.store.now()) {
			return fmt.Errorf("%w: %s expired at %s", ErrLeaseLost, lease, lease.ExpiresAt.UTC().Format(time.RFC3339))
		}
		if !lease.Contains(row) {
			return fmt.Errorf("%w: row %d not in %s", ErrOutsideLease, row, lease)
		}
		return nil
	}
}

// Release stops heartbeating and deletes the lease.
func (h *Holder) Release(ctx context.Context) error {
	h.cancel()
	<-h.done
	if h.Err() != nil {
		return nil
	}
	return h.store.Release(ctx, h.Lease())
}

func (h *Holder) loop() {
	defer close(h.done)
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-h.ctx.Done():
			return
		case <-ticker.C:
			lease, err := h.store.Heartbeat(h.ctx, h.Lease(), h.ttl)
			if err == nil {
				h.mu.Lock()
				h.lease = lease
				h.mu.Unlock()
				continue
			}
			if errors.Is(err, context.Canceled) {
				return
			}
			if errors.Is(err, ErrLeaseLost) {
				h.mu.Lock()
				h.lost = err
				h.mu.Unlock()
				logging.WarnWithContext(h.logger, "lease lost", "lease_lost",
					logging.String("lease", lease.String()),
					logging.Error(err),
				)
				h.cancel()
				return
			}
			h.logger.Warn("lease heartbeat failed", logging.Error(err))
		}
	}
}
