package models

// WebhookData is the immutable snapshot of a push that travels with a job
// from intake through pipeline execution. Its fields are exported to user
// scripts as CICD_* environment variables.
type WebhookData struct {
	ProjectName       string
	Branch            string
	RepoPath          string
	CommitSHA         *string
	CommitMessage     *string
	CommitAuthorName  *string
	CommitAuthorEmail *string
	PusherName        *string
	RepositoryURL     *string
}

// NewWebhookData creates minimal webhook data carrying only the routing
// fields, for pushes whose payload had no commit details (and for tests).
func NewWebhookData(projectName, branch, repoPath string) *WebhookData {
	return &WebhookData{
		ProjectName: projectName,
		Branch:      branch,
		RepoPath:    repoPath,
	}
}
