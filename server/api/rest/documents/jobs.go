package documents

import "github.com/tinycd/tinycd/common/models"

type JobsDocument struct {
	Jobs  []*models.Job `json:"jobs"`
	Total int           `json:"total"`
	Limit int           `json:"limit"`
}

type JobLogsDocument struct {
	JobID models.JobID     `json:"job_id"`
	Logs  []*models.JobLog `json:"logs"`
	Count int              `json:"count"`
}
