package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/benbjohnson/clock"

	"github.com/tinycd/tinycd/common/gerror"
	"github.com/tinycd/tinycd/common/logger"
	"github.com/tinycd/tinycd/common/models"
	"github.com/tinycd/tinycd/server/api/rest/documents"
	"github.com/tinycd/tinycd/server/metrics"
	"github.com/tinycd/tinycd/server/services"
	"github.com/tinycd/tinycd/server/store"
)

const (
	githubEventHeader     = "X-GitHub-Event"
	githubSignatureHeader = "X-Hub-Signature-256"
	dryRunHeader          = "X-Dry-Run"
	branchRefPrefix       = "refs/heads/"
)

type WebhookAPIConfig struct {
	// EnableDebugProbe short-circuits requests carrying a "dev" query
	// parameter with 204, for poking at the intake from a browser.
	EnableDebugProbe bool
}

type WebhookAPI struct {
	config    WebhookAPIConfig
	configSvc services.ConfigService
	signature services.SignatureService
	rateLimit services.RateLimitService
	events    services.EventService
	executor  services.ExecutorService
	jobStore  store.JobStore
	metrics   *metrics.Metrics
	clk       clock.Clock
	*APIBase
}

func NewWebhookAPI(
	config WebhookAPIConfig,
	configSvc services.ConfigService,
	signature services.SignatureService,
	rateLimit services.RateLimitService,
	events services.EventService,
	executor services.ExecutorService,
	jobStore store.JobStore,
	serverMetrics *metrics.Metrics,
	clk clock.Clock,
	logFactory logger.LogFactory,
) *WebhookAPI {
	return &WebhookAPI{
		config:    config,
		configSvc: configSvc,
		signature: signature,
		rateLimit: rateLimit,
		events:    events,
		executor:  executor,
		jobStore:  jobStore,
		metrics:   serverMetrics,
		clk:       clk,
		APIBase:   NewAPIBase(logFactory("WebhookAPI")),
	}
}

// HandleWebhook is the push intake. Deliveries that do not concern a
// configured project and branch are acknowledged with 204 so the sender
// does not retry them.
func (a *WebhookAPI) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	dryRun := r.URL.Query().Get("dry_run") == "true" || r.Header.Get(dryRunHeader) != ""

	if a.config.EnableDebugProbe && r.URL.Query().Has("dev") {
		a.Debugf("Debug probe; query params: %v", r.URL.Query())
		a.NoContent(w, r)
		return
	}

	if event := r.Header.Get(githubEventHeader); event != "push" {
		a.Infof("Ignoring %q event; only push events trigger jobs", event)
		a.metrics.WebhooksReceived.WithLabelValues(metrics.OutcomeIgnored).Inc()
		a.NoContent(w, r)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		a.metrics.WebhooksReceived.WithLabelValues(metrics.OutcomeInvalid).Inc()
		a.Error(w, r, gerror.NewErrValidationFailed("Could not read request body").Wrap(err))
		return
	}

	payload := &documents.PushPayloadDocument{}
	err = json.Unmarshal(body, payload)
	if err != nil {
		a.metrics.WebhooksReceived.WithLabelValues(metrics.OutcomeInvalid).Inc()
		a.Error(w, r, gerror.NewErrValidationFailed("Could not parse JSON body").Wrap(err))
		return
	}
	if payload.Ref == "" || payload.Repository.Name == "" {
		a.metrics.WebhooksReceived.WithLabelValues(metrics.OutcomeInvalid).Inc()
		a.Error(w, r, gerror.NewErrValidationFailed("No ref or repository.name field in push event payload"))
		return
	}
	branch := strings.TrimPrefix(payload.Ref, branchRefPrefix)
	repoName := payload.Repository.Name

	project := a.configSvc.Snapshot().MatchProject(repoName, branch)
	if project == nil {
		a.Infof("No project configured for repository %q branch %q; ignoring push", repoName, branch)
		a.metrics.WebhooksReceived.WithLabelValues(metrics.OutcomeIgnored).Inc()
		a.NoContent(w, r)
		return
	}

	// Rate limiting is checked before signature verification so a
	// misbehaving sender cannot make us do HMAC work at arbitrary rates.
	if !a.rateLimit.Admit(project.Name, project.RateLimitRequests, project.RateLimitWindowSeconds) {
		a.Warnf("Too many requests for project %q - %d requests per %d seconds",
			project.Name, project.RateLimitRequests, project.RateLimitWindowSeconds)
		a.metrics.WebhooksReceived.WithLabelValues(metrics.OutcomeThrottled).Inc()
		a.ErrorNotLogged(w, r, gerror.NewErrThrottled("Too many requests"))
		return
	}

	if project.NeedsWebhookSecret() {
		signatureHeader := r.Header.Get(githubSignatureHeader)
		if signatureHeader == "" {
			a.metrics.WebhooksReceived.WithLabelValues(metrics.OutcomeUnauthorized).Inc()
			a.Error(w, r, gerror.NewErrUnauthorized("Missing signature header"))
			return
		}
		if !project.HasValidSecret() {
			a.metrics.WebhooksReceived.WithLabelValues(metrics.OutcomeError).Inc()
			a.Error(w, r, gerror.NewErrConfigDefect(
				"Project requires a webhook secret, but none was configured"))
			return
		}
		if !a.signature.Verify(project.WebhookSecret, body, signatureHeader) {
			a.metrics.WebhooksReceived.WithLabelValues(metrics.OutcomeUnauthorized).Inc()
			a.Error(w, r, gerror.NewErrUnauthorized("Signature verification failed"))
			return
		}
	}

	data := makeWebhookData(payload, repoName, branch, project.RepoPath)
	job := models.NewJob(models.NewTime(a.clk.Now()), data)

	err = a.jobStore.Create(r.Context(), nil, job)
	if err != nil {
		a.metrics.WebhooksReceived.WithLabelValues(metrics.OutcomeError).Inc()
		a.Error(w, r, err)
		return
	}
	a.Infof("Created job %s for project %q branch %q (dry_run=%v)", job.ID, repoName, branch, dryRun)

	a.events.PublishJobEvent(&models.JobEvent{
		EventType:   models.JobEventCreated,
		JobID:       job.ID,
		ProjectName: repoName,
		Branch:      branch,
		Timestamp:   models.NewTime(a.clk.Now()),
	})

	mode := services.ModeExecute
	if dryRun {
		mode = services.ModeDryRun
	}
	a.executor.Schedule(project, data, job, mode)

	a.metrics.WebhooksReceived.WithLabelValues(metrics.OutcomeAccepted).Inc()
	a.OK(w, r, &documents.WebhookAcceptedDocument{
		JobID:  job.ID,
		Status: job.Status,
		DryRun: dryRun,
	})
}

func makeWebhookData(payload *documents.PushPayloadDocument, repoName, branch, repoPath string) *models.WebhookData {
	data := models.NewWebhookData(repoName, branch, repoPath)
	setIfPresent := func(target **string, value string) {
		if value != "" {
			v := value
			*target = &v
		}
	}
	setIfPresent(&data.CommitSHA, payload.After)
	setIfPresent(&data.CommitMessage, models.TruncateCommitMessage(payload.HeadCommit.Message))
	setIfPresent(&data.CommitAuthorName, payload.HeadCommit.Author.Name)
	setIfPresent(&data.CommitAuthorEmail, payload.HeadCommit.Author.Email)
	setIfPresent(&data.PusherName, payload.Pusher.Name)
	setIfPresent(&data.RepositoryURL, payload.Repository.HTMLURL)
	return data
}
