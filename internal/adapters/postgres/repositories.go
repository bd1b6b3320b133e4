package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"footprint/internal/domain"
)

// Create inserts a queued investigation together with its job row.
func (db *DB) Create(ctx context.Context, target domain.Target) (id string, err error) {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = tx.QueryRow(ctx, `
        INSERT INTO investigations (email, phone, status, progress)
        VALUES (NULLIF($1, ''), NULLIF($2, ''), 'queued', 0)
        RETURNING id
    `, target.Email, target.Phone).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert investigation: %w", err)
	}
	if _, err = tx.Exec(ctx, `INSERT INTO investigation_jobs (investigation_id) VALUES ($1)`, id); err != nil {
		return "", fmt.Errorf("insert job: %w", err)
	}
	return id, nil
}

func (db *DB) Get(ctx context.Context, id string) (domain.Investigation, error) {
	inv := domain.Investigation{ID: id}
	var finished *time.Time
	err := db.Pool.QueryRow(ctx, `
        SELECT COALESCE(email, ''), COALESCE(phone, ''), status, progress, created_at, finished_at
        FROM investigations WHERE id = $1
    `, id).Scan(&inv.Target.Email, &inv.Target.Phone, &inv.Status, &inv.Progress, &inv.CreatedAt, &finished)
	if errors.Is(err, pgx.ErrNoRows) {
		return inv, domain.ErrNotFound
	}
	if err != nil {
		return inv, err
	}
	inv.FinishedAt = finished
	return inv, nil
}

// SaveSnapshot stores the snapshot document on its investigation.
func (db *DB) SaveSnapshot(ctx context.Context, id string, snap *domain.Snapshot) error {
	tag, err := db.Pool.Exec(ctx, `UPDATE investigations SET snapshot = $2 WHERE id = $1`, id, snap)
	if err != nil {
		return &domain.PersistenceError{Op: "store snapshot", Path: id, Err: err}
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (db *DB) Snapshot(ctx context.Context, id string) (*domain.Snapshot, error) {
	var snap *domain.Snapshot
	err := db.Pool.QueryRow(ctx, `SELECT snapshot FROM investigations WHERE id = $1`, id).Scan(&snap)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && snap == nil) {
		return nil, domain.ErrNotFound
	}
	return snap, err
}

// LatestSnapshot returns the newest finished snapshot matching every
// identifier set on target.
func (db *DB) LatestSnapshot(ctx context.Context, target domain.Target) (*domain.Snapshot, error) {
	if target.Email == "" && target.Phone == "" {
		return nil, domain.ErrNotFound
	}
	var snap *domain.Snapshot
	err := db.Pool.QueryRow(ctx, `
        SELECT snapshot FROM investigations
        WHERE snapshot IS NOT NULL
          AND ($1 = '' OR lower(email) = $1)
          AND ($2 = '' OR phone = $2)
        ORDER BY finished_at DESC NULLS LAST, created_at DESC
        LIMIT 1
    `, strings.ToLower(target.Email), target.Phone).Scan(&snap)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && snap == nil) {
		return nil, domain.ErrNotFound
	}
	return snap, err
}
