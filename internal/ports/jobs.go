package ports

import "context"

type InvestigationJob struct {
	ID              string
	InvestigationID string
}

// JobRepository supports claiming and updating investigation jobs.
type JobRepository interface {
	ClaimNext(ctx context.Context) (job InvestigationJob, found bool, err error)
	UpdateProgress(ctx context.Context, investigationID string, progress float64) error
	MarkCompleted(ctx context.Context, jobID string) error
	MarkFailed(ctx context.Context, jobID string, reason string) error
	StartJobFor(ctx context.Context, investigationID string) (jobID string, err error)
}
