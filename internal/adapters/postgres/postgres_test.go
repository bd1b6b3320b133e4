package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"footprint/internal/domain"
)

// These tests need a disposable database:
//
//	FOOTPRINT_TEST_DATABASE_URL=postgres://localhost/footprint_test go test ./internal/adapters/postgres
func testDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("FOOTPRINT_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("FOOTPRINT_TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := Connect(ctx, url, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(ctx))
	_, err = db.Pool.Exec(ctx, `TRUNCATE investigation_jobs, investigations`)
	require.NoError(t, err)
	return db
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrations.ReadDir("migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, "00001_investigations.sql", entries[0].Name())
}

func TestJobLifecycle(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	id, err := db.Create(ctx, domain.Target{Email: "jane.doe@acme.com"})
	require.NoError(t, err)

	inv, err := db.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.InvestigationQueued, inv.Status)
	assert.Equal(t, "jane.doe@acme.com", inv.Target.Email)

	job, found, err := db.ClaimNext(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, id, job.InvestigationID)

	_, found, err = db.ClaimNext(ctx)
	require.NoError(t, err)
	assert.False(t, found, "a running job must not be claimed twice")

	require.NoError(t, db.UpdateProgress(ctx, id, 1.7))
	inv, err = db.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.InvestigationRunning, inv.Status)
	assert.Equal(t, 1.0, inv.Progress)

	snap := &domain.Snapshot{ID: id, TargetInfo: inv.Target, Warnings: []string{}}
	require.NoError(t, db.SaveSnapshot(ctx, id, snap))
	require.NoError(t, db.MarkCompleted(ctx, job.ID))

	inv, err = db.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.InvestigationCompleted, inv.Status)
	assert.NotNil(t, inv.FinishedAt)

	got, err := db.LatestSnapshot(ctx, domain.Target{Email: "Jane.Doe@acme.com"})
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
}

func TestStartJobFor(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	id, err := db.Create(ctx, domain.Target{Phone: "+16502530000"})
	require.NoError(t, err)

	jobID, err := db.StartJobFor(ctx, id)
	require.NoError(t, err)
	require.NoError(t, db.MarkFailed(ctx, jobID, "boom"))

	inv, err := db.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.InvestigationFailed, inv.Status)

	_, err = db.StartJobFor(ctx, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = db.Snapshot(ctx, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
