// Package filestore writes snapshots and reports under a results directory,
// one timestamped directory per run:
//
//	<root>/2024-03-01/2024-03-01_12-00-00/results.json
//	<root>/2024-03-01/2024-03-01_12-00-00/report.html
package filestore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"footprint/internal/domain"
)

const (
	DefaultSnapshotName = "results.json"

	dayLayout = "2006-01-02"
	runLayout = "2006-01-02_15-04-05"
)

type Store struct {
	root string
	now  func() time.Time
}

func New(root string) *Store {
	return &Store{root: root, now: time.Now}
}

// RunDir is the directory a snapshot taken at t is written to.
func (s *Store) RunDir(t time.Time) string {
	if t.IsZero() {
		t = s.now()
	}
	return filepath.Join(s.root, t.Format(dayLayout), t.Format(runLayout))
}

// Save writes snap as indented JSON and returns the file path. name defaults
// to results.json; only its base name is used.
func (s *Store) Save(snap *domain.Snapshot, name string) (string, error) {
	if name == "" {
		name = DefaultSnapshotName
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", &domain.PersistenceError{Op: "encode snapshot", Err: err}
	}
	return s.write(s.RunDir(snap.Timestamp), filepath.Base(name), data)
}

// SaveReport writes a rendered report next to the snapshot of the same run.
func (s *Store) SaveReport(snap *domain.Snapshot, ext string, content []byte) (string, error) {
	return s.write(s.RunDir(snap.Timestamp), "report."+ext, content)
}

func (s *Store) write(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &domain.PersistenceError{Op: "create directory", Path: dir, Err: err}
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", &domain.PersistenceError{Op: "write", Path: path, Err: err}
	}
	return path, nil
}

// Load reads a snapshot previously written by Save.
func Load(path string) (*domain.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return &snap, nil
}
