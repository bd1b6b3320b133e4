package investigationrunner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"footprint/internal/domain"
	"footprint/internal/identity"
	"footprint/internal/ports"
	"footprint/internal/services/investigator"
)

// Processor performs the investigation work for a job's investigation id.
type Processor interface {
	Process(ctx context.Context, investigationID string) error
}

// Investigator is the orchestrator as the pipeline sees it.
type Investigator interface {
	InvestigateWithProgress(ctx context.Context, in identity.Input, progress investigator.ProgressFunc) (*domain.Snapshot, error)
}

// Pipeline runs the orchestrator for a stored investigation, reporting progress
// as connectors settle, and stores the snapshot in Postgres and, when Store is
// set, on disk.
type Pipeline struct {
	Investigations ports.InvestigationRepository
	Jobs           ports.JobRepository
	Investigator   Investigator
	Store          ports.SnapshotStore
	Logger         *zap.Logger
}

func (p Pipeline) Process(ctx context.Context, investigationID string) error {
	logger := p.Logger.With(zap.String("investigation_id", investigationID))

	inv, err := p.Investigations.Get(ctx, investigationID)
	if err != nil {
		return fmt.Errorf("load investigation: %w", err)
	}

	tracker := progressTracker{jobs: p.Jobs, id: investigationID, logger: logger}
	snap, err := p.Investigator.InvestigateWithProgress(ctx,
		identity.Input{Email: inv.Target.Email, Phone: inv.Target.Phone},
		func(done, total int) { tracker.report(ctx, done, total) },
	)
	if err != nil {
		return err
	}
	snap.ID = investigationID

	if err := p.Investigations.SaveSnapshot(ctx, investigationID, snap); err != nil {
		return err
	}
	if p.Store != nil {
		location, err := p.Store.Save(snap, "")
		if err != nil {
			// The database copy is authoritative.
			logger.Warn("Snapshot file not written", zap.Error(err))
		} else {
			logger.Info("Snapshot written", zap.String("path", location))
		}
	}
	return nil
}

// progressTracker writes the settled fraction, never moving backwards.
type progressTracker struct {
	mu     sync.Mutex
	last   float64
	jobs   ports.JobRepository
	id     string
	logger *zap.Logger
}

func (t *progressTracker) report(ctx context.Context, done, total int) {
	if total <= 0 {
		return
	}
	p := float64(done) / float64(total)
	t.mu.Lock()
	defer t.mu.Unlock()
	if p <= t.last {
		return
	}
	t.last = p
	if err := t.jobs.UpdateProgress(ctx, t.id, p); err != nil {
		t.logger.Warn("Progress update failed", zap.Error(err))
	}
}

// Run starts worker goroutines that claim jobs and process them. It returns
// once ctx is cancelled and every worker has finished its current job.
func Run(ctx context.Context, repo ports.JobRepository, processor Processor, concurrency int, pollInterval time.Duration, logger *zap.Logger) {
	if concurrency < 1 {
		return
	}
	logger = logger.Named("runner")
	jobsCh := make(chan ports.InvestigationJob, concurrency)

	go func() {
		defer close(jobsCh)
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			for {
				job, found, err := repo.ClaimNext(ctx)
				if err != nil {
					if ctx.Err() == nil {
						logger.Error("Job claim failed", zap.Error(err))
					}
					break
				}
				if !found {
					break
				}
				select {
				case jobsCh <- job:
				case <-ctx.Done():
					// Already marked running; it fails here instead of hanging forever.
					_ = repo.MarkFailed(ctx, job.ID, "shutdown before processing")
					return
				}
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			for job := range jobsCh {
				process(ctx, repo, processor, job, logger.With(zap.Int("worker", idx)))
			}
		}(i)
	}
	wg.Wait()
}

func process(ctx context.Context, repo ports.JobRepository, processor Processor, job ports.InvestigationJob, logger *zap.Logger) {
	logger = logger.With(zap.String("job_id", job.ID), zap.String("investigation_id", job.InvestigationID))
	if err := processor.Process(ctx, job.InvestigationID); err != nil {
		logger.Warn("Job failed", zap.Error(err))
		if err := repo.MarkFailed(ctx, job.ID, err.Error()); err != nil {
			logger.Error("Marking job failed", zap.Error(err))
		}
		return
	}
	if err := repo.MarkCompleted(ctx, job.ID); err != nil {
		logger.Error("Marking job completed", zap.Error(err))
	}
}

// ProcessInline starts and processes a specific investigation synchronously
// using the same processor as the background workers.
func ProcessInline(ctx context.Context, repo ports.JobRepository, processor Processor, investigationID string) error {
	jobID, err := repo.StartJobFor(ctx, investigationID)
	if err != nil {
		return err
	}
	if err := processor.Process(ctx, investigationID); err != nil {
		_ = repo.MarkFailed(ctx, jobID, err.Error())
		return err
	}
	return repo.MarkCompleted(ctx, jobID)
}
