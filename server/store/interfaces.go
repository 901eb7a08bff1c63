package store

import (
	"context"

	"github.com/tinycd/tinycd/common/models"
)

// JobQuery restricts a job listing. Zero-value fields are ignored.
type JobQuery struct {
	ProjectName string
	Branch      string
	Status      models.JobStatus
	Limit       int
}

type JobStore interface {
	// Create a new job with status queued.
	Create(ctx context.Context, txOrNil *Tx, job *models.Job) error
	// Read an existing job, looking it up by ID.
	// Returns a NotFound error if the job does not exist.
	Read(ctx context.Context, txOrNil *Tx, id models.JobID) (*models.Job, error)
	// UpdateStatus updates the status column only. A missing row is a silent no-op.
	UpdateStatus(ctx context.Context, txOrNil *Tx, id models.JobID, status models.JobStatus) error
	// Complete finalizes a job with a terminal status, capping output at the
	// configured maximum and computing the job duration from completedAt.
	Complete(ctx context.Context, txOrNil *Tx, id models.JobID, status models.JobStatus, output *string, jobError *string, completedAt models.Time) error
	// List returns jobs matching the query, most recent first.
	List(ctx context.Context, txOrNil *Tx, query JobQuery) ([]*models.Job, error)
	// CurrentJob returns the first job in running status, or a NotFound error.
	CurrentJob(ctx context.Context, txOrNil *Tx) (*models.Job, error)
	// CountByStatus returns the number of jobs with the given status.
	CountByStatus(ctx context.Context, txOrNil *Tx, status models.JobStatus) (int64, error)
	// CompletedCount returns the number of jobs in a terminal status.
	CompletedCount(ctx context.Context, txOrNil *Tx) (int64, error)
}

type JobLogStore interface {
	// Create inserts a step log row and returns its auto-increment id.
	Create(ctx context.Context, txOrNil *Tx, log *models.JobLog) (int64, error)
	// Update finalizes a step log row.
	Update(ctx context.Context, txOrNil *Tx, id int64, completedAt models.Time, durationMs int64, exitCode int64, output string, status models.StepStatus) error
	// ListByJobID returns all step logs for a job ordered by sequence ascending.
	ListByJobID(ctx context.Context, txOrNil *Tx, jobID models.JobID) ([]*models.JobLog, error)
}
