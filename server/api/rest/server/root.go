package server

import (
	"net/http"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/tinycd/tinycd/common/gerror"
	"github.com/tinycd/tinycd/common/logger"
	"github.com/tinycd/tinycd/common/models"
	"github.com/tinycd/tinycd/common/version"
	"github.com/tinycd/tinycd/server/api/rest/documents"
	"github.com/tinycd/tinycd/server/services"
	"github.com/tinycd/tinycd/server/store"
)

type RootAPI struct {
	configSvc services.ConfigService
	jobStore  store.JobStore
	clk       clock.Clock
	startedAt time.Time
	*APIBase
}

func NewRootAPI(configSvc services.ConfigService, jobStore store.JobStore, clk clock.Clock, logFactory logger.LogFactory) *RootAPI {
	return &RootAPI{
		configSvc: configSvc,
		jobStore:  jobStore,
		clk:       clk,
		startedAt: clk.Now(),
		APIBase:   NewAPIBase(logFactory("RootAPI")),
	}
}

// Get is the health check. Plain text by default, a JSON summary with
// ?format=json.
func (a *RootAPI) Get(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("format") != "json" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(serverName + " - healthy"))
		return
	}

	var currentJobID *models.JobID
	currentJob, err := a.jobStore.CurrentJob(r.Context(), nil)
	if err == nil {
		currentJobID = &currentJob.ID
	} else if !gerror.IsNotFound(err) {
		a.Error(w, r, err)
		return
	}
	completedCount, err := a.jobStore.CompletedCount(r.Context(), nil)
	if err != nil {
		a.Error(w, r, err)
		return
	}

	a.OK(w, r, &documents.HealthDocument{
		Name:          serverName,
		Version:       version.VersionToString(),
		UptimeSeconds: int64(a.clk.Now().Sub(a.startedAt).Seconds()),
		CurrentJob:    currentJobID,
		TotalProjects: len(a.configSvc.Snapshot().Projects),
		JobsCompleted: completedCount,
		Status:        "healthy",
	})
}
