package documents

import "github.com/tinycd/tinycd/common/models"

// ProjectSummaryDocument describes one configured project together with
// statistics over its most recent jobs.
type ProjectSummaryDocument struct {
	Name          string       `json:"name"`
	Branches      []string     `json:"branches"`
	LastJobStatus *string      `json:"last_job_status"`
	LastJobAt     *models.Time `json:"last_job_at"`
	SuccessRate   float64      `json:"success_rate"`
	TotalJobs     int64        `json:"total_jobs"`
}

type ProjectsDocument struct {
	Projects []*ProjectSummaryDocument `json:"projects"`
	Count    int                       `json:"count"`
}
