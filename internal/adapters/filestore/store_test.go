package filestore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"footprint/internal/domain"
)

func sampleSnapshot() *domain.Snapshot {
	return &domain.Snapshot{
		ID:         "run-1",
		Timestamp:  time.Date(2024, 3, 1, 12, 5, 9, 0, time.UTC),
		TargetInfo: domain.Target{Email: "jane.doe@acme.com"},
		Sources: map[domain.Category]map[string]domain.SourceResult{
			domain.CategorySocial: {
				"github": {Source: "github", Category: domain.CategorySocial, Status: domain.StatusOK},
			},
		},
		Breaches: domain.BreachReport{Breaches: []domain.Breach{}, Pastes: []domain.Paste{}, SourcesChecked: []string{}, RiskScore: "Low"},
		Warnings: []string{},
	}
}

func TestSave_TimestampedLayout(t *testing.T) {
	root := t.TempDir()
	store := New(root)

	path, err := store.Save(sampleSnapshot(), "")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "2024-03-01", "2024-03-01_12-05-09", "results.json"), path)

	loaded, err := Load(path)
	require.NoError(t, err)
	if diff := cmp.Diff(sampleSnapshot(), loaded); diff != "" {
		t.Errorf("round trip changed the snapshot (-want +got):\n%s", diff)
	}
}

func TestSave_CustomName(t *testing.T) {
	root := t.TempDir()

	path, err := New(root).Save(sampleSnapshot(), "../escape/jane.json")
	require.NoError(t, err)

	assert.Equal(t, "jane.json", filepath.Base(path))
	assert.Equal(t, filepath.Join(root, "2024-03-01", "2024-03-01_12-05-09"), filepath.Dir(path))
}

func TestSaveReport_NextToSnapshot(t *testing.T) {
	root := t.TempDir()
	store := New(root)
	snap := sampleSnapshot()

	snapPath, err := store.Save(snap, "")
	require.NoError(t, err)
	reportPath, err := store.SaveReport(snap, "md", []byte("# report"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Dir(snapPath), filepath.Dir(reportPath))
	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Equal(t, "# report", string(data))
}

func TestSave_PersistenceError(t *testing.T) {
	root := filepath.Join(t.TempDir(), "blocked")
	require.NoError(t, os.WriteFile(root, []byte("not a directory"), 0o644))

	_, err := New(root).Save(sampleSnapshot(), "")
	require.Error(t, err)

	var perr *domain.PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "create directory", perr.Op)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
