package models

// LogType names one step of the pipeline. The lowercase value is persisted on
// the step row and used as the step identifier in log chunk events.
type LogType string

const (
	LogTypeGitFetch    LogType = "git_fetch"
	LogTypeGitReset    LogType = "git_reset"
	LogTypeGitSwitch   LogType = "git_switch"
	LogTypeGitPull     LogType = "git_pull"
	LogTypePreScript   LogType = "pre_script"
	LogTypeMainScript  LogType = "main_script"
	LogTypePostSuccess LogType = "post_success"
	LogTypePostFailure LogType = "post_failure"
	LogTypePostScript  LogType = "post_script"
	LogTypePostAlways  LogType = "post_always"
)

func (t LogType) String() string {
	return string(t)
}

// IsGit returns true for steps that run the git binary rather than a user script.
func (t LogType) IsGit() bool {
	switch t {
	case LogTypeGitFetch, LogTypeGitReset, LogTypeGitSwitch, LogTypeGitPull:
		return true
	}
	return false
}

type StepStatus string

const (
	StepStatusRunning StepStatus = "running"
	StepStatusSuccess StepStatus = "success"
	StepStatusFailed  StepStatus = "failed"
	StepStatusSkipped StepStatus = "skipped"
)

func (s StepStatus) String() string {
	return string(s)
}

// JobLog is the persisted record of one step of one job. Sequences are dense
// and 1-based within a job.
type JobLog struct {
	ID          int64      `json:"id" db:"id" goqu:"skipinsert"`
	JobID       JobID      `json:"job_id" db:"job_id"`
	Sequence    int        `json:"sequence" db:"sequence"`
	LogType     LogType    `json:"log_type" db:"log_type"`
	Command     *string    `json:"command,omitempty" db:"command"`
	StartedAt   Time       `json:"started_at" db:"started_at"`
	CompletedAt *Time      `json:"completed_at,omitempty" db:"completed_at"`
	DurationMs  *int64     `json:"duration_ms,omitempty" db:"duration_ms"`
	ExitCode    *int64     `json:"exit_code,omitempty" db:"exit_code"`
	Output      *string    `json:"output,omitempty" db:"output"`
	Status      StepStatus `json:"status" db:"status"`
}
