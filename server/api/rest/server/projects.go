package server

import (
	"net/http"

	"github.com/tinycd/tinycd/common/logger"
	"github.com/tinycd/tinycd/common/models"
	"github.com/tinycd/tinycd/server/api/rest/documents"
	"github.com/tinycd/tinycd/server/services"
	"github.com/tinycd/tinycd/server/store"
)

// recentJobsPerProject bounds the window used for per-project success rates.
const recentJobsPerProject = 10

type ProjectAPI struct {
	configSvc services.ConfigService
	jobStore  store.JobStore
	*APIBase
}

func NewProjectAPI(configSvc services.ConfigService, jobStore store.JobStore, logFactory logger.LogFactory) *ProjectAPI {
	return &ProjectAPI{
		configSvc: configSvc,
		jobStore:  jobStore,
		APIBase:   NewAPIBase(logFactory("ProjectAPI")),
	}
}

// List returns every configured project with statistics over its most
// recent jobs.
func (a *ProjectAPI) List(w http.ResponseWriter, r *http.Request) {
	config := a.configSvc.Snapshot()
	summaries := make([]*documents.ProjectSummaryDocument, 0, len(config.Projects))

	for _, project := range config.Projects {
		jobs, err := a.jobStore.List(r.Context(), nil, store.JobQuery{
			ProjectName: project.Name,
			Limit:       recentJobsPerProject,
		})
		if err != nil {
			a.Error(w, r, err)
			return
		}

		summary := &documents.ProjectSummaryDocument{
			Name:      project.Name,
			Branches:  project.Branches,
			TotalJobs: int64(len(jobs)),
		}
		successCount := 0
		for _, job := range jobs {
			if job.Status == models.JobStatusSuccess {
				successCount++
			}
		}
		if len(jobs) > 0 {
			summary.SuccessRate = float64(successCount) / float64(len(jobs)) * 100
			status := jobs[0].Status.String()
			summary.LastJobStatus = &status
			startedAt := jobs[0].StartedAt
			summary.LastJobAt = &startedAt
		}
		summaries = append(summaries, summary)
	}

	a.OK(w, r, &documents.ProjectsDocument{
		Projects: summaries,
		Count:    len(summaries),
	})
}
