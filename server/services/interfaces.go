package services

import (
	"context"

	"github.com/tinycd/tinycd/common/models"
)

// SignatureService verifies webhook payload signatures.
type SignatureService interface {
	// Verify returns true iff signatureHeader carries a valid HMAC-SHA256 of
	// payload under secret, in the form "sha256=<hex>". Malformed headers
	// return false, never an error.
	Verify(secret string, payload []byte, signatureHeader string) bool
}

// RateLimitService applies per-key sliding-window admission control.
type RateLimitService interface {
	// Admit returns true if a request for key is admitted, recording it
	// against the window, or false if the key is currently throttled.
	Admit(key string, maxRequests int, windowSeconds int) bool
}

// EventService is the in-process lossy broadcast bus for job-state
// transitions and live step output chunks. Publishing never blocks;
// subscribers that cannot keep up miss events silently.
type EventService interface {
	PublishJobEvent(event *models.JobEvent)
	PublishLogChunk(chunk *models.LogChunk)
	// SubscribeJobEvents registers a subscriber. Call the returned cancel
	// function to unsubscribe and release the channel.
	SubscribeJobEvents() (<-chan *models.JobEvent, func())
	SubscribeLogChunks() (<-chan *models.LogChunk, func())
}

// ConfigService owns the reloadable project configuration snapshot.
type ConfigService interface {
	// Snapshot returns the current immutable configuration.
	Snapshot() *models.Config
	// Reload re-reads the configuration file and swaps the snapshot.
	// The previous snapshot stays in place on error.
	Reload() error
	// Path returns the configuration file path.
	Path() string
	// Raw returns the raw text of the configuration file as last loaded.
	Raw() string
}

// ExecutionMode selects between running the pipeline and synthesizing
// skipped step records.
type ExecutionMode int

const (
	ModeExecute ExecutionMode = iota
	ModeDryRun
)

// PipelineService runs the pipeline state machine for one job.
type PipelineService interface {
	// Run executes the full pipeline for the job, persisting one step log
	// per stage and broadcasting output chunks. Returns the composite output
	// of all steps on success.
	Run(ctx context.Context, project *models.Project, data *models.WebhookData, jobID models.JobID) (string, error)
	// DryRun writes one skipped step log per stage the pipeline would have
	// attempted and returns a synthesized summary. No subprocess is spawned.
	DryRun(ctx context.Context, project *models.Project, data *models.WebhookData, jobID models.JobID) (string, error)
}

// ExecutorService serializes pipeline execution through a single slot and
// finalizes jobs when their pipeline completes.
type ExecutorService interface {
	// Schedule queues the job for execution and returns immediately. The
	// job runs once the execution slot is acquired.
	Schedule(project *models.Project, data *models.WebhookData, job *models.Job, mode ExecutionMode)
	// WithSlot runs fn while holding the execution slot, blocking any
	// pipeline from starting. Used by configuration reload.
	WithSlot(fn func() error) error
	// Wait blocks until all scheduled jobs have finished. Intended for tests
	// and shutdown.
	Wait()
}
