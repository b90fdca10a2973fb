package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"realitease/internal/sqlitedb"
)

// CheckpointSummary describes the processed keys of one stage scope.
type CheckpointSummary struct {
	Stage  string
	Scope  string
	Keys   int
	LastAt time.Time
}

// MarkProcessed records keys as fully written for stage and scope.
func (s *Store) MarkProcessed(ctx context.Context, stage, scope string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	now := sqlitedb.FormatTime(s.now())
	return sqlitedb.InTx(ctx, s.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO checkpoints (stage, scope, key, processed_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT(stage, scope, key) DO UPDATE SET processed_at = excluded.processed_at`)
		if err != nil {
			return fmt.Errorf("prepare checkpoint insert: %w", err)
		}
		defer stmt.Close()
		for _, key := range keys {
			if _, err := stmt.ExecContext(ctx, stage, scope, key, now); err != nil {
				return fmt.Errorf("record checkpoint %s/%s: %w", stage, key, err)
			}
		}
		return nil
	})
}

// Processed returns the keys already recorded for stage and scope.
func (s *Store) Processed(ctx context.Context, stage, scope string) (map[string]struct{}, error) {
	done := make(map[string]struct{})
	err := sqlitedb.RetryOnBusy(ctx, func() error {
		clear(done)
		rows, err := s.db.QueryContext(ctx,
			`SELECT key FROM checkpoints WHERE stage = ? AND scope = ?`, stage, scope)
		if err != nil {
			return fmt.Errorf("query checkpoints: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var key string
			if err := rows.Scan(&key); err != nil {
				return fmt.Errorf("scan checkpoint: %w", err)
			}
			done[key] = struct{}{}
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return done, nil
}

// Checkpoints summarizes every stored scope.
func (s *Store) Checkpoints(ctx context.Context) ([]CheckpointSummary, error) {
	var out []CheckpointSummary
	err := sqlitedb.RetryOnBusy(ctx, func() error {
		out = nil
		rows, err := s.db.QueryContext(ctx,
			`SELECT stage, scope, COUNT(1), MAX(processed_at) FROM checkpoints
			 GROUP BY stage, scope ORDER BY stage, scope`)
		if err != nil {
			return fmt.Errorf("summarize checkpoints: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var (
				summary CheckpointSummary
				last    string
			)
			if err := rows.Scan(&summary.Stage, &summary.Scope, &summary.Keys, &last); err != nil {
				return fmt.Errorf("scan checkpoint summary: %w", err)
			}
			summary.LastAt = sqlitedb.ParseTime(last)
			out = append(out, summary)
		}
		return rows.Err()
	})
	return out, err
}

// ClearCheckpoints removes the keys of stage; an empty scope clears all of
// the stage's scopes and an empty stage clears everything.
func (s *Store) ClearCheckpoints(ctx context.Context, stage, scope string) (int64, error) {
	query := `DELETE FROM checkpoints`
	var args []any
	switch {
	case stage != "" && scope != "":
		query += ` WHERE stage = ? AND scope = ?`
		args = append(args, stage, scope)
	case stage != "":
		query += ` WHERE stage = ?`
		args = append(args, stage)
	}
	var removed int64
	err := sqlitedb.RetryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("clear checkpoints: %w", err)
		}
		removed, err = res.RowsAffected()
		return err
	})
	return removed, err
}
