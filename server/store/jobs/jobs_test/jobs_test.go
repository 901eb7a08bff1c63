package jobs_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tinycd/tinycd/common/gerror"
	"github.com/tinycd/tinycd/common/logger"
	"github.com/tinycd/tinycd/common/models"
	"github.com/tinycd/tinycd/server/store"
	"github.com/tinycd/tinycd/server/store/jobs"
	"github.com/tinycd/tinycd/server/store/store_test"
)

func strPtr(s string) *string {
	return &s
}

func makeJob(projectName string) *models.Job {
	data := models.NewWebhookData(projectName, "main", "/tmp/"+projectName)
	data.CommitSHA = strPtr("abc123")
	data.CommitMessage = strPtr("a commit")
	data.CommitAuthorName = strPtr("somebody")
	return models.NewJob(models.NewTime(time.Now()), data)
}

func TestJobStore(t *testing.T) {
	ctx := context.Background()
	db, cleanup, err := store_test.Connect(logger.NoOpLogFactory)
	require.NoError(t, err)
	defer cleanup()
	jobStore := jobs.NewStore(db, logger.NoOpLogFactory)

	t.Run("CreateAndRead", func(t *testing.T) {
		job := makeJob("create-read")
		err := jobStore.Create(ctx, nil, job)
		require.NoError(t, err)

		read, err := jobStore.Read(ctx, nil, job.ID)
		require.NoError(t, err)
		require.Equal(t, job.ID, read.ID)
		require.Equal(t, "create-read", read.ProjectName)
		require.Equal(t, "main", read.Branch)
		require.Equal(t, models.JobStatusQueued, read.Status)
		require.Equal(t, "abc123", *read.CommitSHA)
		require.Nil(t, read.CompletedAt)
		require.False(t, read.OutputTruncated)
	})

	t.Run("ReadMissing", func(t *testing.T) {
		_, err := jobStore.Read(ctx, nil, models.NewJobID())
		require.Error(t, err)
		require.True(t, gerror.IsNotFound(err))
	})

	t.Run("UpdateStatus", func(t *testing.T) {
		job := makeJob("update-status")
		require.NoError(t, jobStore.Create(ctx, nil, job))

		err := jobStore.UpdateStatus(ctx, nil, job.ID, models.JobStatusRunning)
		require.NoError(t, err)
		read, err := jobStore.Read(ctx, nil, job.ID)
		require.NoError(t, err)
		require.Equal(t, models.JobStatusRunning, read.Status)

		// Missing row is a silent no-op
		err = jobStore.UpdateStatus(ctx, nil, models.NewJobID(), models.JobStatusRunning)
		require.NoError(t, err)
	})

	t.Run("Complete", func(t *testing.T) {
		job := makeJob("complete")
		require.NoError(t, jobStore.Create(ctx, nil, job))

		completedAt := models.NewTime(job.StartedAt.Add(1500 * time.Millisecond))
		err := jobStore.Complete(ctx, nil, job.ID, models.JobStatusSuccess, strPtr("hi\n"), nil, completedAt)
		require.NoError(t, err)

		read, err := jobStore.Read(ctx, nil, job.ID)
		require.NoError(t, err)
		require.Equal(t, models.JobStatusSuccess, read.Status)
		require.Equal(t, "hi\n", *read.Output)
		require.Nil(t, read.Error)
		require.NotNil(t, read.CompletedAt)
		require.NotNil(t, read.DurationMs)
		require.Equal(t, int64(1500), *read.DurationMs)
		require.False(t, read.OutputTruncated)
	})

	t.Run("CompleteClampsNegativeDuration", func(t *testing.T) {
		job := makeJob("complete-clamp")
		require.NoError(t, jobStore.Create(ctx, nil, job))

		completedAt := models.NewTime(job.StartedAt.Add(-10 * time.Second))
		err := jobStore.Complete(ctx, nil, job.ID, models.JobStatusFailed, nil, strPtr("boom"), completedAt)
		require.NoError(t, err)

		read, err := jobStore.Read(ctx, nil, job.ID)
		require.NoError(t, err)
		require.Equal(t, int64(0), *read.DurationMs)
		require.Equal(t, "boom", *read.Error)
	})

	t.Run("CompleteTruncatesOutput", func(t *testing.T) {
		job := makeJob("complete-truncate")
		require.NoError(t, jobStore.Create(ctx, nil, job))

		big := strings.Repeat("x", 2*models.MaxJobOutputBytes)
		err := jobStore.Complete(ctx, nil, job.ID, models.JobStatusSuccess, &big, nil, models.NewTime(time.Now()))
		require.NoError(t, err)

		read, err := jobStore.Read(ctx, nil, job.ID)
		require.NoError(t, err)
		require.True(t, read.OutputTruncated)
		require.Equal(t, models.MaxJobOutputBytes+len(models.OutputTruncationMarker), len(*read.Output))
		require.True(t, strings.HasSuffix(*read.Output, models.OutputTruncationMarker))
	})

	t.Run("List", func(t *testing.T) {
		var created []*models.Job
		for i := 0; i < 3; i++ {
			job := makeJob("list-project")
			require.NoError(t, jobStore.Create(ctx, nil, job))
			created = append(created, job)
		}

		listed, err := jobStore.List(ctx, nil, store.JobQuery{ProjectName: "list-project"})
		require.NoError(t, err)
		require.Len(t, listed, 3)
		// Most recent first
		require.Equal(t, created[2].ID, listed[0].ID)

		listed, err = jobStore.List(ctx, nil, store.JobQuery{ProjectName: "list-project", Limit: 2})
		require.NoError(t, err)
		require.Len(t, listed, 2)

		listed, err = jobStore.List(ctx, nil, store.JobQuery{ProjectName: "no-such-project"})
		require.NoError(t, err)
		require.Empty(t, listed)

		listed, err = jobStore.List(ctx, nil, store.JobQuery{ProjectName: "list-project", Status: models.JobStatusQueued})
		require.NoError(t, err)
		require.Len(t, listed, 3)

		listed, err = jobStore.List(ctx, nil, store.JobQuery{ProjectName: "list-project", Branch: "main"})
		require.NoError(t, err)
		require.Len(t, listed, 3)
	})

	t.Run("CurrentJobAndCounts", func(t *testing.T) {
		_, err := jobStore.CurrentJob(ctx, nil)
		require.True(t, gerror.IsNotFound(err))

		job := makeJob("current")
		require.NoError(t, jobStore.Create(ctx, nil, job))
		require.NoError(t, jobStore.UpdateStatus(ctx, nil, job.ID, models.JobStatusRunning))

		current, err := jobStore.CurrentJob(ctx, nil)
		require.NoError(t, err)
		require.Equal(t, job.ID, current.ID)

		runningCount, err := jobStore.CountByStatus(ctx, nil, models.JobStatusRunning)
		require.NoError(t, err)
		require.Equal(t, int64(1), runningCount)

		completedBefore, err := jobStore.CompletedCount(ctx, nil)
		require.NoError(t, err)
		require.NoError(t, jobStore.Complete(ctx, nil, job.ID, models.JobStatusSuccess, strPtr(""), nil, models.NewTime(time.Now())))
		completedAfter, err := jobStore.CompletedCount(ctx, nil)
		require.NoError(t, err)
		require.Equal(t, completedBefore+1, completedAfter)
	})
}
