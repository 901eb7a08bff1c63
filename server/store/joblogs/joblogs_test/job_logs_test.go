package joblogs_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tinycd/tinycd/common/logger"
	"github.com/tinycd/tinycd/common/models"
	"github.com/tinycd/tinycd/server/store/jobs"
	"github.com/tinycd/tinycd/server/store/joblogs"
	"github.com/tinycd/tinycd/server/store/store_test"
)

func strPtr(s string) *string {
	return &s
}

func TestJobLogStore(t *testing.T) {
	ctx := context.Background()
	db, cleanup, err := store_test.Connect(logger.NoOpLogFactory)
	require.NoError(t, err)
	defer cleanup()
	jobStore := jobs.NewStore(db, logger.NoOpLogFactory)
	logStore := joblogs.NewStore(db, logger.NoOpLogFactory)

	job := models.NewJob(models.NewTime(time.Now()), models.NewWebhookData("demo", "main", "/tmp/demo"))
	require.NoError(t, jobStore.Create(ctx, nil, job))

	t.Run("CreateReturnsIncreasingIDs", func(t *testing.T) {
		first, err := logStore.Create(ctx, nil, &models.JobLog{
			JobID:     job.ID,
			Sequence:  1,
			LogType:   models.LogTypeGitFetch,
			Command:   strPtr("git fetch"),
			StartedAt: models.NewTime(time.Now()),
			Status:    models.StepStatusRunning,
		})
		require.NoError(t, err)
		require.Greater(t, first, int64(0))

		second, err := logStore.Create(ctx, nil, &models.JobLog{
			JobID:     job.ID,
			Sequence:  2,
			LogType:   models.LogTypeMainScript,
			Command:   strPtr("echo hi"),
			StartedAt: models.NewTime(time.Now()),
			Status:    models.StepStatusRunning,
		})
		require.NoError(t, err)
		require.Greater(t, second, first)
	})

	t.Run("UpdateFinalizesRow", func(t *testing.T) {
		id, err := logStore.Create(ctx, nil, &models.JobLog{
			JobID:     job.ID,
			Sequence:  3,
			LogType:   models.LogTypePostAlways,
			Command:   strPtr("echo done"),
			StartedAt: models.NewTime(time.Now()),
			Status:    models.StepStatusRunning,
		})
		require.NoError(t, err)

		completedAt := models.NewTime(time.Now())
		err = logStore.Update(ctx, nil, id, completedAt, 42, 0, "done\n", models.StepStatusSuccess)
		require.NoError(t, err)

		logs, err := logStore.ListByJobID(ctx, nil, job.ID)
		require.NoError(t, err)
		last := logs[len(logs)-1]
		require.Equal(t, id, last.ID)
		require.Equal(t, models.StepStatusSuccess, last.Status)
		require.Equal(t, int64(42), *last.DurationMs)
		require.Equal(t, int64(0), *last.ExitCode)
		require.Equal(t, "done\n", *last.Output)
		require.NotNil(t, last.CompletedAt)
	})

	t.Run("ListOrderedBySequence", func(t *testing.T) {
		logs, err := logStore.ListByJobID(ctx, nil, job.ID)
		require.NoError(t, err)
		require.Len(t, logs, 3)
		for i, log := range logs {
			require.Equal(t, i+1, log.Sequence)
		}
	})

	t.Run("ListUnknownJobIsEmpty", func(t *testing.T) {
		logs, err := logStore.ListByJobID(ctx, nil, models.NewJobID())
		require.NoError(t, err)
		require.Empty(t, logs)
	})
}
