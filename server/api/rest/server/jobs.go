package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tinycd/tinycd/common/gerror"
	"github.com/tinycd/tinycd/common/logger"
	"github.com/tinycd/tinycd/common/models"
	"github.com/tinycd/tinycd/server/api/rest/documents"
	"github.com/tinycd/tinycd/server/store"
	"github.com/tinycd/tinycd/server/store/jobs"
)

type JobAPI struct {
	jobStore store.JobStore
	logStore store.JobLogStore
	*APIBase
}

func NewJobAPI(jobStore store.JobStore, logStore store.JobLogStore, logFactory logger.LogFactory) *JobAPI {
	return &JobAPI{
		jobStore: jobStore,
		logStore: logStore,
		APIBase:  NewAPIBase(logFactory("JobAPI")),
	}
}

// List returns recent jobs, most recent first, optionally filtered by
// project, branch and status.
func (a *JobAPI) List(w http.ResponseWriter, r *http.Request) {
	query := store.JobQuery{
		ProjectName: r.URL.Query().Get("project"),
		Branch:      r.URL.Query().Get("branch"),
	}
	if statusStr := r.URL.Query().Get("status"); statusStr != "" {
		status := models.JobStatus(statusStr)
		if !status.Valid() {
			a.Error(w, r, gerror.NewErrValidationFailed("Invalid status. Use: queued, running, success, failed"))
			return
		}
		query.Status = status
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			a.Error(w, r, gerror.NewErrValidationFailed("Invalid limit"))
			return
		}
		query.Limit = limit
	}

	limit := query.Limit
	if limit == 0 {
		limit = jobs.DefaultListLimit
	} else if limit > jobs.MaxListLimit {
		limit = jobs.MaxListLimit
	}

	jobList, err := a.jobStore.List(r.Context(), nil, query)
	if err != nil {
		a.Error(w, r, err)
		return
	}
	a.OK(w, r, &documents.JobsDocument{
		Jobs:  jobList,
		Total: len(jobList),
		Limit: limit,
	})
}

// Get returns a single job by ID.
func (a *JobAPI) Get(w http.ResponseWriter, r *http.Request) {
	id := models.JobID(chi.URLParam(r, "job_id"))
	job, err := a.jobStore.Read(r.Context(), nil, id)
	if err != nil {
		a.Error(w, r, err)
		return
	}
	a.OK(w, r, job)
}

// GetLogs returns the step logs of a job ordered by sequence.
func (a *JobAPI) GetLogs(w http.ResponseWriter, r *http.Request) {
	id := models.JobID(chi.URLParam(r, "job_id"))
	// Distinguish an unknown job from a job with no steps yet.
	_, err := a.jobStore.Read(r.Context(), nil, id)
	if err != nil {
		a.Error(w, r, err)
		return
	}
	logs, err := a.logStore.ListByJobID(r.Context(), nil, id)
	if err != nil {
		a.Error(w, r, err)
		return
	}
	a.OK(w, r, &documents.JobLogsDocument{
		JobID: id,
		Logs:  logs,
		Count: len(logs),
	})
}
