package models

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/tinycd/tinycd/common/gerror"
)

const (
	DefaultRateLimitRequests      = 60
	DefaultRateLimitWindowSeconds = 60
)

// Project binds a repository name and allowed branch set to a local working
// copy and a command pipeline. Projects are read-only at runtime; reloading
// configuration swaps in a whole new set.
type Project struct {
	Name              string            `toml:"name" json:"name"`
	RepoPath          string            `toml:"repo_path" json:"repo_path"`
	Branches          []string          `toml:"branches" json:"branches"`
	RunScript         string            `toml:"run_script" json:"run_script"`
	BranchScripts     map[string]string `toml:"branch_scripts" json:"branch_scripts,omitempty"`
	WithWebhookSecret bool              `toml:"with_webhook_secret" json:"with_webhook_secret"`
	WebhookSecret     string            `toml:"webhook_secret" json:"-"`
	// ResetToRemote selects between force-discarding local working-tree state
	// (git reset --hard origin/<branch>) and a switch-and-pull. Defaults to true.
	ResetToRemote *bool `toml:"reset_to_remote" json:"reset_to_remote"`

	// Lifecycle hooks, each an optional command line.
	PreScript         string `toml:"pre_script" json:"pre_script,omitempty"`
	PostScript        string `toml:"post_script" json:"post_script,omitempty"`
	PostSuccessScript string `toml:"post_success_script" json:"post_success_script,omitempty"`
	PostFailureScript string `toml:"post_failure_script" json:"post_failure_script,omitempty"`
	PostAlwaysScript  string `toml:"post_always_script" json:"post_always_script,omitempty"`

	RateLimitRequests      int `toml:"rate_limit_requests" json:"rate_limit_requests"`
	RateLimitWindowSeconds int `toml:"rate_limit_window_seconds" json:"rate_limit_window_seconds"`
}

// PopulateDefaults fills in default values for any fields left unset.
func (p *Project) PopulateDefaults() {
	if p.ResetToRemote == nil {
		resetToRemote := true
		p.ResetToRemote = &resetToRemote
	}
	if p.RateLimitRequests == 0 {
		p.RateLimitRequests = DefaultRateLimitRequests
	}
	if p.RateLimitWindowSeconds == 0 {
		p.RateLimitWindowSeconds = DefaultRateLimitWindowSeconds
	}
}

func (p *Project) Validate() error {
	var result *multierror.Error
	if p.Name == "" {
		result = multierror.Append(result, gerror.NewErrValidationFailed("project name must be set"))
	}
	if p.RepoPath == "" {
		result = multierror.Append(result, gerror.NewErrValidationFailed(fmt.Sprintf("project %q: repo_path must be set", p.Name)))
	}
	if len(p.Branches) == 0 {
		result = multierror.Append(result, gerror.NewErrValidationFailed(fmt.Sprintf("project %q: at least one branch must be set", p.Name)))
	}
	if p.RunScript == "" {
		result = multierror.Append(result, gerror.NewErrValidationFailed(fmt.Sprintf("project %q: run_script must be set", p.Name)))
	}
	if p.RateLimitRequests < 0 {
		result = multierror.Append(result, gerror.NewErrValidationFailed(fmt.Sprintf("project %q: rate_limit_requests must not be negative", p.Name)))
	}
	if p.RateLimitWindowSeconds < 0 {
		result = multierror.Append(result, gerror.NewErrValidationFailed(fmt.Sprintf("project %q: rate_limit_window_seconds must not be negative", p.Name)))
	}
	return result.ErrorOrNil()
}

// NeedsWebhookSecret returns true if webhook signature validation is enforced
// for this project.
func (p *Project) NeedsWebhookSecret() bool {
	return p.WithWebhookSecret
}

// HasValidSecret returns true if a non-empty webhook secret is configured.
func (p *Project) HasValidSecret() bool {
	return p.WebhookSecret != ""
}

// ResetToRemoteEnabled reports the effective reset policy including the default.
func (p *Project) ResetToRemoteEnabled() bool {
	return p.ResetToRemote == nil || *p.ResetToRemote
}

// MatchesBranch returns true if the project accepts pushes to the given branch.
func (p *Project) MatchesBranch(branch string) bool {
	for _, b := range p.Branches {
		if b == branch {
			return true
		}
	}
	return false
}

// ScriptForBranch returns the branch override from BranchScripts if present,
// otherwise the project's general RunScript.
func (p *Project) ScriptForBranch(branch string) string {
	if script, ok := p.BranchScripts[branch]; ok {
		return script
	}
	return p.RunScript
}
