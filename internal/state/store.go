package state

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"realitease/internal/sqlitedb"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Store wraps the state database.
type Store struct {
	db   *sql.DB
	path string
	lock *flock.Flock
	now  func() time.Time

	// mu guards lock, which is not safe to share between goroutines.
	mu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for lease expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open opens (creating if needed) the state database at path.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	migrations, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("load state migrations: %w", err)
	}
	db, err := sqlitedb.Open(ctx, path, migrations)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db, path: path, lock: flock.New(path + ".lock"), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// exclusive runs fn in a transaction while holding the cross-process lock.
func (s *Store) exclusive(ctx context.Context, fn func(*sql.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	locked, err := s.lock.TryLockContext(ctx, 20*time.Millisecond)
	if err != nil {
		return fmt.Errorf("acquire state lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("acquire state lock: %s.lock busy", s.path)
	}
	defer func() { _ = s.lock.Unlock() }()
	return sqlitedb.InTx(ctx, s.db, fn)
}
