package documents

import "github.com/tinycd/tinycd/common/models"

// HealthDocument is the JSON form of the root health check.
type HealthDocument struct {
	Name          string        `json:"name"`
	Version       string        `json:"version"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	CurrentJob    *models.JobID `json:"current_job"`
	TotalProjects int           `json:"total_projects"`
	JobsCompleted int64         `json:"jobs_completed"`
	Status        string        `json:"status"`
}
