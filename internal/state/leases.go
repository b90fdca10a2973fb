package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrRangeClaimed is returned when a claim overlaps a live lease of another owner.
	ErrRangeClaimed = errors.New("row range already claimed")
	// ErrLeaseLost is returned when a lease expired and was reclaimed or released.
	ErrLeaseLost = errors.New("lease lost")
	// ErrOutsideLease is returned when a write targets a row the lease does not cover.
	ErrOutsideLease = errors.New("row outside leased range")
)

// Lease is an exclusive, expiring claim on rows Start..End (inclusive) of a worksheet.
type Lease struct {
	ID        int64
	Worksheet string
	Start     int
	End       int
	Owner     string
	ClaimedAt time.Time
	ExpiresAt time.Time
}

// Contains reports whether row lies inside the lease.
func (l Lease) Contains(row int) bool {
	return row >= l.Start && row <= l.End
}

// Overlaps reports whether the lease intersects start..end.
func (l Lease) Overlaps(start, end int) bool {
	return l.Start <= end && start <= l.End
}

// Expired reports whether the lease has lapsed at now.
func (l Lease) Expired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}

func (l Lease) String() string {
	return fmt.Sprintf("%s rows %d-%d (%s)", l.Worksheet, l.Start, l.End, l.Owner)
}

// Claim leases start..end of worksheet to owner for ttl. Expired leases that
// overlap the range are discarded, as are the owner's own overlapping leases.
func (s *Store) Claim(ctx context.Context, worksheet string, start, end int, owner string, ttl time.Duration) (Lease, error) {
	worksheet = strings.TrimSpace(worksheet)
	owner = strings.TrimSpace(owner)
	switch {
	case worksheet == "":
		return Lease{}, errors.New("lease worksheet required")
	case owner == "":
		return Lease{}, errors.New("lease owner required")
	case start <= 0 || end < start:
		return Lease{}, fmt.Errorf("invalid lease range %d-%d", start, end)
	case ttl <= 0:
		return Lease{}, fmt.Errorf("invalid lease ttl %v", ttl)
	}

	var lease Lease
	err := s.exclusive(ctx, func(tx *sql.Tx) error {
		now := s.now()
		overlapping, err := queryLeases(ctx, tx,
			`WHERE worksheet = ? AND start_row <= ? AND end_row >= ?`, worksheet, end, start)
		if err != nil {
			return err
		}
		for _, other := range overlapping {
			if other.Owner == owner || other.Expired(now) {
				if _, err := tx.ExecContext(ctx, `DELETE FROM leases WHERE id = ?`, other.ID); err != nil {
					return fmt.Errorf("discard lease %d: %w", other.ID, err)
				}
				continue
			}
			return fmt.Errorf("%w: %s overlaps %s until %s", ErrRangeClaimed,
				fmt.Sprintf("%s rows %d-%d", worksheet, start, end), other, other.ExpiresAt.UTC().Format(time.RFC3339))
		}

		lease = Lease{
			Worksheet: worksheet,
			Start:     start,
			End:       end,
			Owner:     owner,
			ClaimedAt: now,
			ExpiresAt: now.Add(ttl),
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO leases (worksheet, start_row, end_row, owner, claimed_at, expires_at) VALUES (?, ?, ?, ?, ?, ?)`,
			worksheet, start, end, owner, lease.ClaimedAt.UnixNano(), lease.ExpiresAt.UnixNano())
		if err != nil {
			return fmt.Errorf("insert lease: %w", err)
		}
		lease.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return Lease{}, err
	}
	return lease, nil
}

// Heartbeat extends the lease by ttl from now.
func (s *Store) Heartbeat(ctx context.Context, lease Lease, ttl time.Duration) (Lease, error) {
	err := s.exclusive(ctx, func(tx *sql.Tx) error {
		expires := s.now().Add(ttl)
		res, err := tx.ExecContext(ctx,
			`UPDATE leases SET expires_at = ? WHERE id = ? AND owner = ?`,
			expires.UnixNano(), lease.ID, lease.Owner)
		if err != nil {
			return fmt.Errorf("extend lease %d: %w", lease.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", ErrLeaseLost, lease)
		}
		lease.ExpiresAt = expires
		return nil
	})
	return lease, err
}

// Release deletes the lease. Releasing a lease that is already gone is not an error.
func (s *Store) Release(ctx context.Context, lease Lease) error {
	return s.exclusive(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM leases WHERE id = ? AND owner = ?`, lease.ID, lease.Owner); err != nil {
			return fmt.Errorf("release lease %d: %w", lease.ID, err)
		}
		return nil
	})
}

// ReleaseLeases force-releases leases of worksheet, optionally only those of owner.
func (s *Store) ReleaseLeases(ctx context.Context, worksheet, owner string) (int64, error) {
	var removed int64
	err := s.exclusive(ctx, func(tx *sql.Tx) error {
		query := `DELETE FROM leases WHERE worksheet = ?`
		args := []any{worksheet}
		if owner != "" {
			query += ` AND owner = ?`
			args = append(args, owner)
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("release leases: %w", err)
		}
		removed, err = res.RowsAffected()
		return err
	})
	return removed, err
}

// Leases lists leases of worksheet, or of every worksheet when empty.
func (s *Store) Leases(ctx context.Context, worksheet string) ([]Lease, error) {
	if worksheet == "" {
		return queryLeases(ctx, s.db, `WHERE 1 = 1`)
	}
	return queryLeases(ctx, s.db, `WHERE worksheet = ?`, worksheet)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryLeases(ctx context.Context, q querier, where string, args ...any) ([]Lease, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, worksheet, start_row, end_row, owner, claimed_at, expires_at FROM leases `+where+
			` ORDER BY worksheet, start_row`, args...)
	if err != nil {
		return nil, fmt.Errorf("query leases: %w", err)
	}
	defer rows.Close()
	var out []Lease
	for rows.Next() {
		var (
			l                  Lease
			claimed, expiresAt int64
		)
		if err := rows.Scan(&l.ID, &l.Worksheet, &l.Start, &l.End, &l.Owner, &claimed, &expiresAt); err != nil {
			return nil, fmt.Errorf("scan lease: %w", err)
		}
		l.ClaimedAt = time.Unix(0, claimed)
		l.ExpiresAt = time.Unix(0, expiresAt)
		out = append(out, l)
	}
	return out, rows.Err()
}
