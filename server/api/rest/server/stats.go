package server

import (
	"net/http"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/tinycd/tinycd/common/logger"
	"github.com/tinycd/tinycd/common/models"
	"github.com/tinycd/tinycd/common/version"
	"github.com/tinycd/tinycd/server/api/rest/documents"
	"github.com/tinycd/tinycd/server/services"
	"github.com/tinycd/tinycd/server/store"
)

const serverName = "tinycd"

type StatsAPI struct {
	configSvc services.ConfigService
	jobStore  store.JobStore
	clk       clock.Clock
	startedAt time.Time
	*APIBase
}

func NewStatsAPI(configSvc services.ConfigService, jobStore store.JobStore, clk clock.Clock, logFactory logger.LogFactory) *StatsAPI {
	return &StatsAPI{
		configSvc: configSvc,
		jobStore:  jobStore,
		clk:       clk,
		startedAt: clk.Now(),
		APIBase:   NewAPIBase(logFactory("StatsAPI")),
	}
}

func (a *StatsAPI) uptimeSeconds() int64 {
	return int64(a.clk.Now().Sub(a.startedAt).Seconds())
}

// Get returns server process information together with job counts by status.
func (a *StatsAPI) Get(w http.ResponseWriter, r *http.Request) {
	counts := map[models.JobStatus]int64{}
	for _, status := range []models.JobStatus{
		models.JobStatusQueued,
		models.JobStatusRunning,
		models.JobStatusSuccess,
		models.JobStatusFailed,
	} {
		count, err := a.jobStore.CountByStatus(r.Context(), nil, status)
		if err != nil {
			a.Error(w, r, err)
			return
		}
		counts[status] = count
	}

	success := counts[models.JobStatusSuccess]
	failed := counts[models.JobStatusFailed]
	completed := success + failed
	successRate := 0.0
	if completed > 0 {
		successRate = float64(success) / float64(completed) * 100
	}

	a.OK(w, r, &documents.StatsDocument{
		Server: &documents.ServerStatsDocument{
			Name:          serverName,
			Version:       version.VersionToString(),
			UptimeSeconds: a.uptimeSeconds(),
			StartedAt:     a.startedAt.UTC().Format(time.RFC3339),
			TotalProjects: len(a.configSvc.Snapshot().Projects),
		},
		Jobs: &documents.JobStatsDocument{
			Total:       counts[models.JobStatusQueued] + counts[models.JobStatusRunning] + completed,
			Queued:      counts[models.JobStatusQueued],
			Running:     counts[models.JobStatusRunning],
			Success:     success,
			Failed:      failed,
			SuccessRate: successRate,
		},
	})
}
