package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/benbjohnson/clock"

	"github.com/tinycd/tinycd/common/gerror"
	"github.com/tinycd/tinycd/common/logger"
	"github.com/tinycd/tinycd/common/models"
	"github.com/tinycd/tinycd/server/metrics"
	"github.com/tinycd/tinycd/server/services"
	"github.com/tinycd/tinycd/server/store"
)

// ExecutorService runs job pipelines one at a time. A single mutex is the
// execution slot; jobs scheduled while it is held stay queued in their
// goroutine until the slot frees up, in FIFO-ish order decided by the
// scheduler.
type ExecutorService struct {
	jobStore store.JobStore
	pipeline services.PipelineService
	events   services.EventService
	metrics  *metrics.Metrics
	clk      clock.Clock
	slot     sync.Mutex
	wg       sync.WaitGroup
	logger.Log
}

func NewExecutorService(
	jobStore store.JobStore,
	pipeline services.PipelineService,
	events services.EventService,
	serverMetrics *metrics.Metrics,
	clk clock.Clock,
	logFactory logger.LogFactory,
) *ExecutorService {
	return &ExecutorService{
		jobStore: jobStore,
		pipeline: pipeline,
		events:   events,
		metrics:  serverMetrics,
		clk:      clk,
		Log:      logFactory("ExecutorService"),
	}
}

// Schedule queues the job for execution and returns immediately.
func (s *ExecutorService) Schedule(project *models.Project, data *models.WebhookData, job *models.Job, mode services.ExecutionMode) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runJob(project, data, job, mode)
	}()
}

// WithSlot runs fn while holding the execution slot, so no pipeline can
// start while fn is in progress.
func (s *ExecutorService) WithSlot(fn func() error) error {
	s.slot.Lock()
	defer s.slot.Unlock()
	return fn()
}

// Wait blocks until all scheduled jobs have finished.
func (s *ExecutorService) Wait() {
	s.wg.Wait()
}

func (s *ExecutorService) runJob(project *models.Project, data *models.WebhookData, job *models.Job, mode services.ExecutionMode) {
	s.slot.Lock()
	defer s.slot.Unlock()

	ctx := context.Background()

	err := s.jobStore.UpdateStatus(ctx, nil, job.ID, models.JobStatusRunning)
	if err != nil {
		s.Errorf("Failed to mark job %s as running: %v", job.ID, err)
	}
	s.publishEvent(models.JobEventRunning, job)

	var output string
	if mode == services.ModeDryRun {
		s.Infof("Job %s - simulating pipeline for project %q branch %q", job.ID, data.ProjectName, data.Branch)
		output, err = s.pipeline.DryRun(ctx, project, data, job.ID)
	} else {
		s.Infof("Job %s - starting pipeline for project %q branch %q", job.ID, data.ProjectName, data.Branch)
		output, err = s.pipeline.Run(ctx, project, data, job.ID)
	}

	completedAt := models.NewTime(s.clk.Now())
	if err != nil {
		s.finalize(ctx, job, models.JobStatusFailed, output, err, completedAt)
		return
	}
	s.finalize(ctx, job, models.JobStatusSuccess, output, nil, completedAt)
}

func (s *ExecutorService) finalize(ctx context.Context, job *models.Job, status models.JobStatus, output string, runErr error, completedAt models.Time) {
	var jobError *string
	if runErr != nil {
		message := messageForJobError(runErr)
		jobError = &message
		s.Errorf("Job %s failed: %s", job.ID, message)
	} else {
		s.Infof("Job %s completed successfully", job.ID)
	}

	err := s.jobStore.Complete(ctx, nil, job.ID, status, &output, jobError, completedAt)
	if err != nil {
		s.Errorf("Failed to finalize job %s: %v", job.ID, err)
	}
	job.Status = status

	s.metrics.JobsCompleted.WithLabelValues(status.String()).Inc()
	if duration := completedAt.Sub(job.StartedAt.Time); duration > 0 {
		s.metrics.JobDurationSeconds.Observe(duration.Seconds())
	}
	s.publishEvent(models.JobEventTypeForStatus(status), job)
}

func (s *ExecutorService) publishEvent(eventType models.JobEventType, job *models.Job) {
	s.events.PublishJobEvent(&models.JobEvent{
		EventType:   eventType,
		JobID:       job.ID,
		ProjectName: job.ProjectName,
		Branch:      job.Branch,
		Timestamp:   models.NewTime(s.clk.Now()),
	})
}

// messageForJobError keeps the user-facing message for errors raised by the
// pipeline itself and a generic prefix for anything unexpected.
func messageForJobError(err error) string {
	var gerr gerror.Error
	if errors.As(err, &gerr) {
		return gerr.Message()
	}
	return fmt.Sprintf("pipeline error: %s", err.Error())
}
