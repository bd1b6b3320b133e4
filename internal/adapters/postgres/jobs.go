package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"footprint/internal/domain"
	"footprint/internal/ports"
)

// ClaimNext selects the next queued job using SKIP LOCKED and marks it running.
func (db *DB) ClaimNext(ctx context.Context) (job ports.InvestigationJob, found bool, err error) {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return job, false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = tx.QueryRow(ctx, `
        SELECT id, investigation_id FROM investigation_jobs
        WHERE status = 'queued'
        ORDER BY queued_at
        FOR UPDATE SKIP LOCKED
        LIMIT 1
    `).Scan(&job.ID, &job.InvestigationID)
	if errors.Is(err, pgx.ErrNoRows) {
		return job, false, nil
	}
	if err != nil {
		return job, false, err
	}
	if err = db.markRunning(ctx, tx, job); err != nil {
		return job, false, err
	}
	return job, true, nil
}

func (db *DB) markRunning(ctx context.Context, tx pgx.Tx, job ports.InvestigationJob) error {
	if _, err := tx.Exec(ctx, `
        UPDATE investigation_jobs SET status = 'running', started_at = now(), attempts = attempts + 1 WHERE id = $1
    `, job.ID); err != nil {
		return err
	}
	_, err := tx.Exec(ctx, `
        UPDATE investigations SET status = 'running', started_at = COALESCE(started_at, now()) WHERE id = $1
    `, job.InvestigationID)
	return err
}

// UpdateProgress clamps progress to [0, 1].
func (db *DB) UpdateProgress(ctx context.Context, investigationID string, progress float64) error {
	progress = min(max(progress, 0), 1)
	_, err := db.Pool.Exec(ctx, `UPDATE investigations SET progress = $2 WHERE id = $1`, investigationID, progress)
	return err
}

func (db *DB) MarkCompleted(ctx context.Context, jobID string) error {
	return db.finish(ctx, jobID, domain.InvestigationCompleted, "")
}

func (db *DB) MarkFailed(ctx context.Context, jobID string, reason string) error {
	return db.finish(ctx, jobID, domain.InvestigationFailed, reason)
}

// finish settles a job and its investigation atomically.
func (db *DB) finish(ctx context.Context, jobID, status, reason string) (err error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	var investigationID string
	err = tx.QueryRow(ctx, `
        UPDATE investigation_jobs SET status = $2, last_error = NULLIF($3, ''), finished_at = now()
        WHERE id = $1
        RETURNING investigation_id
    `, jobID, status, reason).Scan(&investigationID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}
	if status == domain.InvestigationCompleted {
		_, err = tx.Exec(ctx, `UPDATE investigations SET status = $2, progress = 1, finished_at = now() WHERE id = $1`, investigationID, status)
	} else {
		_, err = tx.Exec(ctx, `UPDATE investigations SET status = $2, finished_at = now() WHERE id = $1`, investigationID, status)
	}
	return err
}

// StartJobFor claims the queued job of one specific investigation and
// returns its id.
func (db *DB) StartJobFor(ctx context.Context, investigationID string) (jobID string, err error) {
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
        SELECT id FROM investigation_jobs
        WHERE investigation_id = $1 AND status = 'queued'
        FOR UPDATE SKIP LOCKED
    `, investigationID).Scan(&jobID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	err = db.markRunning(ctx, tx, ports.InvestigationJob{ID: jobID, InvestigationID: investigationID})
	return jobID, err
}
