package investigationrunner

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"footprint/internal/domain"
	"footprint/internal/identity"
	"footprint/internal/ports"
	"footprint/internal/services/investigator"
)

type fakeJobs struct {
	mu        sync.Mutex
	queue     []ports.InvestigationJob
	progress  []float64
	completed []string
	failed    map[string]string
}

func newFakeJobs(ids ...string) *fakeJobs {
	f := &fakeJobs{failed: map[string]string{}}
	for _, id := range ids {
		f.queue = append(f.queue, ports.InvestigationJob{ID: "job-" + id, InvestigationID: id})
	}
	return f
}

func (f *fakeJobs) ClaimNext(context.Context) (ports.InvestigationJob, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) == 0 {
		return ports.InvestigationJob{}, false, nil
	}
	job := f.queue[0]
	f.queue = f.queue[1:]
	return job, true, nil
}

func (f *fakeJobs) UpdateProgress(_ context.Context, _ string, p float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progress = append(f.progress, p)
	return nil
}

func (f *fakeJobs) MarkCompleted(_ context.Context, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, jobID)
	return nil
}

func (f *fakeJobs) MarkFailed(_ context.Context, jobID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed[jobID] = reason
	return nil
}

func (f *fakeJobs) StartJobFor(_ context.Context, investigationID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, job := range f.queue {
		if job.InvestigationID == investigationID {
			f.queue = append(f.queue[:i], f.queue[i+1:]...)
			return job.ID, nil
		}
	}
	return "", domain.ErrNotFound
}

func (f *fakeJobs) settled() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.completed) + len(f.failed)
}

type processorFunc func(ctx context.Context, id string) error

func (fn processorFunc) Process(ctx context.Context, id string) error { return fn(ctx, id) }

func TestRun_ProcessesQueue(t *testing.T) {
	jobs := newFakeJobs("a", "b", "c", "bad")
	processor := processorFunc(func(_ context.Context, id string) error {
		if id == "bad" {
			return errors.New("boom")
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Run(ctx, jobs, processor, 2, 5*time.Millisecond, zap.NewNop())
		close(done)
	}()

	require.Eventually(t, func() bool { return jobs.settled() == 4 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	sort.Strings(jobs.completed)
	assert.Equal(t, []string{"job-a", "job-b", "job-c"}, jobs.completed)
	assert.Equal(t, map[string]string{"job-bad": "boom"}, jobs.failed)
}

func TestRun_NoWorkers(t *testing.T) {
	jobs := newFakeJobs("a")
	Run(context.Background(), jobs, processorFunc(func(context.Context, string) error { return nil }), 0, time.Millisecond, zap.NewNop())
	assert.Len(t, jobs.queue, 1)
}

func TestProcessInline(t *testing.T) {
	jobs := newFakeJobs("a", "b")
	var seen []string
	processor := processorFunc(func(_ context.Context, id string) error {
		seen = append(seen, id)
		if id == "b" {
			return errors.New("boom")
		}
		return nil
	})

	require.NoError(t, ProcessInline(context.Background(), jobs, processor, "a"))
	assert.EqualError(t, ProcessInline(context.Background(), jobs, processor, "b"), "boom")
	assert.ErrorIs(t, ProcessInline(context.Background(), jobs, processor, "missing"), domain.ErrNotFound)

	assert.Equal(t, []string{"a", "b"}, seen)
	assert.Equal(t, []string{"job-a"}, jobs.completed)
	assert.Contains(t, jobs.failed, "job-b")
}

type fakeInvestigations struct {
	target domain.Target
	saved  *domain.Snapshot
}

func (f *fakeInvestigations) Create(context.Context, domain.Target) (string, error) { return "", nil }

func (f *fakeInvestigations) Get(_ context.Context, id string) (domain.Investigation, error) {
	return domain.Investigation{ID: id, Target: f.target}, nil
}

func (f *fakeInvestigations) SaveSnapshot(_ context.Context, _ string, snap *domain.Snapshot) error {
	f.saved = snap
	return nil
}

func (f *fakeInvestigations) Snapshot(context.Context, string) (*domain.Snapshot, error) {
	return f.saved, nil
}

func (f *fakeInvestigations) LatestSnapshot(context.Context, domain.Target) (*domain.Snapshot, error) {
	return f.saved, nil
}

type fakeInvestigator struct {
	got   identity.Input
	ticks [][2]int
	err   error
}

func (f *fakeInvestigator) InvestigateWithProgress(_ context.Context, in identity.Input, progress investigator.ProgressFunc) (*domain.Snapshot, error) {
	f.got = in
	for _, tick := range f.ticks {
		progress(tick[0], tick[1])
	}
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Snapshot{ID: "orchestrator-run", TargetInfo: domain.Target{Email: in.Email}}, nil
}

type fakeStore struct {
	saved []*domain.Snapshot
	err   error
}

func (f *fakeStore) Save(snap *domain.Snapshot, _ string) (string, error) {
	f.saved = append(f.saved, snap)
	return "results/run/results.json", f.err
}

func TestPipeline_Process(t *testing.T) {
	invs := &fakeInvestigations{target: domain.Target{Email: "jane@acme.com"}}
	jobs := newFakeJobs()
	inv := &fakeInvestigator{ticks: [][2]int{{1, 4}, {4, 4}, {2, 4}}}
	store := &fakeStore{}
	p := Pipeline{Investigations: invs, Jobs: jobs, Investigator: inv, Store: store, Logger: zap.NewNop()}

	require.NoError(t, p.Process(context.Background(), "inv-1"))

	assert.Equal(t, identity.Input{Email: "jane@acme.com"}, inv.got)
	assert.Equal(t, []float64{0.25, 1}, jobs.progress, "progress never moves backwards")
	require.NotNil(t, invs.saved)
	assert.Equal(t, "inv-1", invs.saved.ID)
	require.Len(t, store.saved, 1)
	assert.Same(t, invs.saved, store.saved[0])
}

func TestPipeline_FileStoreFailureIsNotFatal(t *testing.T) {
	invs := &fakeInvestigations{target: domain.Target{Email: "jane@acme.com"}}
	store := &fakeStore{err: &domain.PersistenceError{Op: "write", Err: errors.New("disk full")}}
	p := Pipeline{Investigations: invs, Jobs: newFakeJobs(), Investigator: &fakeInvestigator{}, Store: store, Logger: zap.NewNop()}

	require.NoError(t, p.Process(context.Background(), "inv-1"))
	assert.NotNil(t, invs.saved)
}

func TestPipeline_InvestigatorError(t *testing.T) {
	invs := &fakeInvestigations{target: domain.Target{Email: "jane@acme.com"}}
	p := Pipeline{Investigations: invs, Jobs: newFakeJobs(), Investigator: &fakeInvestigator{err: errors.New("invalid")}, Logger: zap.NewNop()}

	assert.EqualError(t, p.Process(context.Background(), "inv-1"), "invalid")
	assert.Nil(t, invs.saved)
}
