package models

import (
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/tinycd/tinycd/common/gerror"
)

type JobStatus string

const (
	JobStatusQueued  JobStatus = "queued"
	JobStatusRunning JobStatus = "running"
	JobStatusSuccess JobStatus = "success"
	JobStatusFailed  JobStatus = "failed"
)

func (s JobStatus) String() string {
	return string(s)
}

func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusQueued, JobStatusRunning, JobStatusSuccess, JobStatusFailed:
		return true
	}
	return false
}

// Terminal returns true if the status is one a job can never leave.
func (s JobStatus) Terminal() bool {
	return s == JobStatusSuccess || s == JobStatusFailed
}

const (
	// MaxCommitMessageLength is the number of commit message characters kept on a job.
	MaxCommitMessageLength = 500
	// CommitMessageTruncationMarker is appended to a commit message cut at MaxCommitMessageLength.
	CommitMessageTruncationMarker = "... (truncated)"
	// MaxJobOutputBytes caps the composite output persisted for a job.
	MaxJobOutputBytes = 1024 * 1024
	// OutputTruncationMarker is appended to job output cut at MaxJobOutputBytes.
	OutputTruncationMarker = "\n... (output truncated)"
)

type JobID string

// NewJobID returns a time-ordered unique job id. V7 UUIDs sort
// lexicographically by creation time.
func NewJobID() JobID {
	return JobID(uuid.Must(uuid.NewV7()).String())
}

func (id JobID) String() string {
	return string(id)
}

type Job struct {
	ID               JobID     `json:"id" db:"id"`
	ProjectName      string    `json:"project_name" db:"project_name"`
	Branch           string    `json:"branch" db:"branch"`
	Status           JobStatus `json:"status" db:"status"`
	CommitSHA        *string   `json:"commit_sha,omitempty" db:"commit_sha"`
	CommitMessage    *string   `json:"commit_message,omitempty" db:"commit_message"`
	CommitAuthorName *string   `json:"commit_author_name,omitempty" db:"commit_author_name"`
	StartedAt        Time      `json:"started_at" db:"started_at"`
	CompletedAt      *Time     `json:"completed_at,omitempty" db:"completed_at"`
	Output           *string   `json:"output,omitempty" db:"output"`
	OutputTruncated  bool      `json:"output_truncated" db:"output_truncated"`
	Error            *string   `json:"error,omitempty" db:"error"`
	CreatedAt        Time      `json:"created_at" db:"created_at"`
	DurationMs       *int64    `json:"duration_ms,omitempty" db:"duration_ms"`
}

// NewJob creates a queued job for the supplied push. Commit details are copied
// from the webhook data; the commit message has already been truncated there.
func NewJob(now Time, data *WebhookData) *Job {
	return &Job{
		ID:               NewJobID(),
		ProjectName:      data.ProjectName,
		Branch:           data.Branch,
		Status:           JobStatusQueued,
		CommitSHA:        data.CommitSHA,
		CommitMessage:    data.CommitMessage,
		CommitAuthorName: data.CommitAuthorName,
		StartedAt:        now,
		CreatedAt:        now,
	}
}

func (j *Job) Validate() error {
	var result *multierror.Error
	if j.ID == "" {
		result = multierror.Append(result, gerror.NewErrValidationFailed("id must be set"))
	}
	if j.ProjectName == "" {
		result = multierror.Append(result, gerror.NewErrValidationFailed("project name must be set"))
	}
	if j.Branch == "" {
		result = multierror.Append(result, gerror.NewErrValidationFailed("branch must be set"))
	}
	if !j.Status.Valid() {
		result = multierror.Append(result, gerror.NewErrValidationFailed("status is not valid"))
	}
	if j.StartedAt.IsZero() {
		result = multierror.Append(result, gerror.NewErrValidationFailed("started at must be set"))
	}
	return result.ErrorOrNil()
}

// TruncateCommitMessage cuts a commit message at MaxCommitMessageLength,
// appending CommitMessageTruncationMarker if anything was removed.
func TruncateCommitMessage(message string) string {
	if len(message) <= MaxCommitMessageLength {
		return message
	}
	return message[:MaxCommitMessageLength] + CommitMessageTruncationMarker
}

// TruncateOutput caps output at MaxJobOutputBytes, appending
// OutputTruncationMarker if anything was removed. The second return value
// reports whether truncation occurred.
func TruncateOutput(output string) (string, bool) {
	if len(output) <= MaxJobOutputBytes {
		return output, false
	}
	return output[:MaxJobOutputBytes] + OutputTruncationMarker, true
}
