package documents

// ServerStatsDocument describes the running server process.
type ServerStatsDocument struct {
	Name          string `json:"name"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	StartedAt     string `json:"started_at"`
	TotalProjects int    `json:"total_projects"`
}

// JobStatsDocument aggregates job counts by status. SuccessRate is a
// percentage over completed jobs, 0 when nothing has completed yet.
type JobStatsDocument struct {
	Total       int64   `json:"total"`
	Queued      int64   `json:"queued"`
	Running     int64   `json:"running"`
	Success     int64   `json:"success"`
	Failed      int64   `json:"failed"`
	SuccessRate float64 `json:"success_rate"`
}

type StatsDocument struct {
	Server *ServerStatsDocument `json:"server"`
	Jobs   *JobStatsDocument    `json:"jobs"`
}
