package stage

import (
	"context"
	"strings"
	"sync"
)

// DefaultScope is the checkpoint scope used when none is given.
const DefaultScope = "default"

// Checkpointer persists processed record keys; *state.Store satisfies it.
type Checkpointer interface {
	MarkProcessed(ctx context.Context, stage, scope string, keys ...string) error
	Processed(ctx context.Context, stage, scope string) (map[string]struct{}, error)
	ClearCheckpoints(ctx context.Context, stage, scope string) (int64, error)
}

// Progress tracks the keys a stage has finished within one checkpoint scope.
// A nil Checkpointer keeps progress in memory only.
type Progress struct {
	cp    Checkpointer
	stage string
	scope string

	mu   sync.Mutex
	done map[string]struct{}
	prev int
}

// OpenProgress loads the keys already processed for stage and scope.
func OpenProgress(ctx context.Context, cp Checkpointer, stageName, scope string) (*Progress, error) {
	if strings.TrimSpace(scope) == "" {
		scope = DefaultScope
	}
	p := &Progress{cp: cp, stage: stageName, scope: scope, done: map[string]struct{}{}}
	if cp == nil {
		return p, nil
	}
	done, err := cp.Processed(ctx, stageName, scope)
	if err != nil {
		return nil, err
	}
	for key := range done {
		p.done[key] = struct{}{}
	}
	p.prev = len(p.done)
	return p, nil
}

// Scope returns the checkpoint scope.
func (p *Progress) Scope() string { return p.scope }

// Resumed returns how many keys were already processed when opened.
func (p *Progress) Resumed() int { return p.prev }

// Seen reports whether key was processed in this scope.
func (p *Progress) Seen(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.done[key]
	return ok
}

// Commit records keys as processed. Its signature matches sheet.CommitFunc so
// keys are persisted only after the writes buffered before them are flushed.
func (p *Progress) Commit(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	if p.cp != nil {
		if err := p.cp.MarkProcessed(ctx, p.stage, p.scope, keys...); err != nil {
			return err
		}
	}
	p.mu.Lock()
	for _, key := range keys {
		p.done[key] = struct{}{}
	}
	p.mu.Unlock()
	return nil
}

// Finish clears the scope after a complete run so the next run starts fresh.
func (p *Progress) Finish(ctx context.Context) error {
	p.mu.Lock()
	p.done = map[string]struct{}{}
	p.mu.Unlock()
	if p.cp == nil {
		return nil
	}
	_, err := p.cp.ClearCheckpoints(ctx, p.stage, p.scope)
	return err
}
