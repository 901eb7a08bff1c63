package documents

import "github.com/tinycd/tinycd/common/models"

// PushPayloadDocument is the subset of the GitHub push event payload the
// intake cares about. Everything else in the payload is ignored.
type PushPayloadDocument struct {
	Ref        string `json:"ref"`
	After      string `json:"after"`
	Repository struct {
		Name    string `json:"name"`
		HTMLURL string `json:"html_url"`
	} `json:"repository"`
	HeadCommit struct {
		Message string `json:"message"`
		Author  struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"author"`
	} `json:"head_commit"`
	Pusher struct {
		Name string `json:"name"`
	} `json:"pusher"`
}

// WebhookAcceptedDocument is returned when a push has been accepted and a
// job queued for it.
type WebhookAcceptedDocument struct {
	JobID  models.JobID     `json:"job_id"`
	Status models.JobStatus `json:"status"`
	DryRun bool             `json:"dry_run"`
}
