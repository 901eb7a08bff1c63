package pipeline

import (
	"context"

	"github.com/benbjohnson/clock"

	"github.com/tinycd/tinycd/common/logger"
	"github.com/tinycd/tinycd/common/models"
	"github.com/tinycd/tinycd/server/metrics"
	"github.com/tinycd/tinycd/server/services"
	"github.com/tinycd/tinycd/server/store"
)

// stepLogger persists one step log row per pipeline stage for a single job
// and broadcasts step output as it completes. Sequences are dense and
// 1-based. Persistence failures are logged and swallowed so a broken log
// table cannot stop a deployment.
type stepLogger struct {
	logStore store.JobLogStore
	events   services.EventService
	metrics  *metrics.Metrics
	clk      clock.Clock
	jobID    models.JobID
	sequence int
	logger.Log
}

// runningStep is the handle to an in-progress step's persisted row.
// A nil handle means the insert failed and completion must be skipped.
type runningStep struct {
	id        int64
	logType   models.LogType
	startedAt models.Time
}

func newStepLogger(
	logStore store.JobLogStore,
	events services.EventService,
	serverMetrics *metrics.Metrics,
	clk clock.Clock,
	jobID models.JobID,
	log logger.Log,
) *stepLogger {
	return &stepLogger{
		logStore: logStore,
		events:   events,
		metrics:  serverMetrics,
		clk:      clk,
		jobID:    jobID,
		Log:      log,
	}
}

// startStep records a step in running status and returns its handle.
func (l *stepLogger) startStep(ctx context.Context, logType models.LogType, command string) *runningStep {
	l.sequence++
	startedAt := models.NewTime(l.clk.Now())
	id, err := l.logStore.Create(ctx, nil, &models.JobLog{
		JobID:     l.jobID,
		Sequence:  l.sequence,
		LogType:   logType,
		Command:   &command,
		StartedAt: startedAt,
		Status:    models.StepStatusRunning,
	})
	if err != nil {
		l.Errorf("Failed to record %s step for job %s: %v", logType, l.jobID, err)
		return nil
	}
	return &runningStep{id: id, logType: logType, startedAt: startedAt}
}

func (l *stepLogger) completeStep(ctx context.Context, step *runningStep, output string, exitCode int64) {
	l.finishStep(ctx, step, output, exitCode, models.StepStatusSuccess)
}

func (l *stepLogger) failStep(ctx context.Context, step *runningStep, output string, exitCode int64) {
	l.finishStep(ctx, step, output, exitCode, models.StepStatusFailed)
}

func (l *stepLogger) finishStep(ctx context.Context, step *runningStep, output string, exitCode int64, status models.StepStatus) {
	if step == nil {
		return
	}
	completedAt := models.NewTime(l.clk.Now())
	if output != "" {
		l.events.PublishLogChunk(&models.LogChunk{
			JobID:     l.jobID,
			StepType:  step.logType,
			Chunk:     output,
			Timestamp: completedAt,
		})
	}
	durationMs := completedAt.Sub(step.startedAt.Time).Milliseconds()
	if durationMs < 0 {
		durationMs = 0
	}
	err := l.logStore.Update(ctx, nil, step.id, completedAt, durationMs, exitCode, output, status)
	if err != nil {
		l.Errorf("Failed to finalize %s step for job %s: %v", step.logType, l.jobID, err)
	}
	l.metrics.PipelineSteps.WithLabelValues(step.logType.String(), status.String()).Inc()
}
