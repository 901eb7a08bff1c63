package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/benbjohnson/clock"

	"github.com/tinycd/tinycd/common/gerror"
	"github.com/tinycd/tinycd/common/logger"
	"github.com/tinycd/tinycd/common/models"
	"github.com/tinycd/tinycd/server/metrics"
	"github.com/tinycd/tinycd/server/services"
	"github.com/tinycd/tinycd/server/store"
)

const dryRunStepOutput = "[DRY_RUN] Skipped"

// PipelineService drives the deployment state machine for one job at a
// time: update the working copy with git, then run the configured scripts
// in order, recording one step log per stage.
type PipelineService struct {
	logStore store.JobLogStore
	events   services.EventService
	metrics  *metrics.Metrics
	clk      clock.Clock
	logger.Log
}

func NewPipelineService(
	logStore store.JobLogStore,
	events services.EventService,
	serverMetrics *metrics.Metrics,
	clk clock.Clock,
	logFactory logger.LogFactory,
) *PipelineService {
	return &PipelineService{
		logStore: logStore,
		events:   events,
		metrics:  serverMetrics,
		clk:      clk,
		Log:      logFactory("PipelineService"),
	}
}

// Run executes the full pipeline for the job. Git steps and the pre script
// abort the pipeline on failure. A main script failure still runs the
// post-failure hooks before the error is returned. Hook failures are logged
// on their step rows but never change the job outcome.
func (s *PipelineService) Run(ctx context.Context, project *models.Project, data *models.WebhookData, jobID models.JobID) (string, error) {
	steps := newStepLogger(s.logStore, s.events, s.metrics, s.clk, jobID, s.Log)
	branch := data.Branch
	repoPath := data.RepoPath
	var allOutput strings.Builder

	// Update remote refs first so both sync modes see the latest state.
	output, err := s.runGitStep(ctx, steps, models.LogTypeGitFetch, repoPath, "git fetch", "fetch")
	if err != nil {
		return allOutput.String(), err
	}
	allOutput.WriteString(output)

	if project.ResetToRemoteEnabled() {
		command := fmt.Sprintf("git reset --hard origin/%s", branch)
		output, err = s.runGitStep(ctx, steps, models.LogTypeGitReset, repoPath, command, "reset", "--hard", "origin/"+branch)
		if err != nil {
			return allOutput.String(), err
		}
		allOutput.WriteString(output)
	} else {
		command := fmt.Sprintf("git switch %s", branch)
		output, err = s.runGitStep(ctx, steps, models.LogTypeGitSwitch, repoPath, command, "switch", branch)
		if err != nil {
			return allOutput.String(), err
		}
		allOutput.WriteString(output)

		output, err = s.runGitStep(ctx, steps, models.LogTypeGitPull, repoPath, "git pull", "pull")
		if err != nil {
			return allOutput.String(), err
		}
		allOutput.WriteString(output)
	}

	if project.PreScript != "" {
		output, err = s.runUserStep(ctx, steps, models.LogTypePreScript, project.PreScript, data, nil)
		if err != nil {
			return allOutput.String(), err
		}
		allOutput.WriteString(output)
	}

	mainScript := project.ScriptForBranch(branch)
	output, mainErr := s.runUserStep(ctx, steps, models.LogTypeMainScript, mainScript, data, nil)
	if mainErr == nil {
		allOutput.WriteString(output)
	}

	// Hooks see the main script's outcome via CICD_MAIN_SCRIPT_EXIT_CODE.
	// The dedicated success/failure hook takes precedence over post_script;
	// post_always runs regardless.
	mainExitCode := int64(0)
	if mainErr != nil {
		mainExitCode = 1
	}
	if mainErr == nil {
		if project.PostSuccessScript != "" {
			s.runHookStep(ctx, steps, models.LogTypePostSuccess, project.PostSuccessScript, data, mainExitCode, &allOutput)
		} else if project.PostScript != "" {
			s.runHookStep(ctx, steps, models.LogTypePostScript, project.PostScript, data, mainExitCode, &allOutput)
		}
	} else {
		if project.PostFailureScript != "" {
			s.runHookStep(ctx, steps, models.LogTypePostFailure, project.PostFailureScript, data, mainExitCode, &allOutput)
		} else if project.PostScript != "" {
			s.runHookStep(ctx, steps, models.LogTypePostScript, project.PostScript, data, mainExitCode, &allOutput)
		}
	}
	if project.PostAlwaysScript != "" {
		s.runHookStep(ctx, steps, models.LogTypePostAlways, project.PostAlwaysScript, data, mainExitCode, &allOutput)
	}

	if mainErr != nil {
		return allOutput.String(), mainErr
	}
	return allOutput.String(), nil
}

// DryRun records one skipped step log for every stage the pipeline would
// have attempted, assuming the main script would succeed, and returns a
// summary of the push that triggered it.
func (s *PipelineService) DryRun(ctx context.Context, project *models.Project, data *models.WebhookData, jobID models.JobID) (string, error) {
	now := models.NewTime(s.clk.Now())
	sequence := 0
	record := func(logType models.LogType, command string) {
		sequence++
		output := dryRunStepOutput
		zero := int64(0)
		_, err := s.logStore.Create(ctx, nil, &models.JobLog{
			JobID:       jobID,
			Sequence:    sequence,
			LogType:     logType,
			Command:     &command,
			StartedAt:   now,
			CompletedAt: &now,
			DurationMs:  &zero,
			ExitCode:    &zero,
			Output:      &output,
			Status:      models.StepStatusSkipped,
		})
		if err != nil {
			s.Errorf("Failed to record simulated %s step for job %s: %v", logType, jobID, err)
		}
		s.metrics.PipelineSteps.WithLabelValues(logType.String(), models.StepStatusSkipped.String()).Inc()
	}

	record(models.LogTypeGitFetch, "git fetch")
	if project.ResetToRemoteEnabled() {
		record(models.LogTypeGitReset, fmt.Sprintf("git reset --hard origin/%s", data.Branch))
	} else {
		record(models.LogTypeGitSwitch, fmt.Sprintf("git switch %s", data.Branch))
		record(models.LogTypeGitPull, "git pull")
	}
	if project.PreScript != "" {
		record(models.LogTypePreScript, project.PreScript)
	}
	record(models.LogTypeMainScript, project.ScriptForBranch(data.Branch))
	if project.PostSuccessScript != "" {
		record(models.LogTypePostSuccess, project.PostSuccessScript)
	} else if project.PostScript != "" {
		record(models.LogTypePostScript, project.PostScript)
	}
	if project.PostAlwaysScript != "" {
		record(models.LogTypePostAlways, project.PostAlwaysScript)
	}

	summary := fmt.Sprintf(
		"[DRY_RUN] Pipeline simulation for project '%s' branch '%s'\n"+
			"\n"+
			"Webhook data:\n"+
			"- Commit SHA: %s\n"+
			"- Commit message: %s\n"+
			"- Author: %s\n"+
			"\n"+
			"No actual commands were executed.",
		data.ProjectName,
		data.Branch,
		stringOrNone(data.CommitSHA),
		stringOrNone(data.CommitMessage),
		stringOrNone(data.CommitAuthorName),
	)
	return summary, nil
}

// runGitStep runs the git binary in the project's working copy. Git steps
// inherit the server environment unchanged.
func (s *PipelineService) runGitStep(ctx context.Context, steps *stepLogger, logType models.LogType, repoPath string, displayCommand string, args ...string) (string, error) {
	step := steps.startStep(ctx, logType, displayCommand)
	s.Infof("Running (cwd = %q): %s", repoPath, displayCommand)

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = repoPath
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	runErr := cmd.Run()

	output := stdout.String() + stderr.String()
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			message := fmt.Sprintf("Failed to start git process: %s. Ensure git is installed and accessible.", runErr)
			steps.failStep(ctx, step, message, -1)
			return "", gerror.NewErrGitOperationFailed(displayCommand, message, runErr)
		}
		exitCode := int64(exitErr.ExitCode())
		steps.failStep(ctx, step, output, exitCode)
		s.Errorf("%s failed: %s", displayCommand, output)
		return "", gerror.NewErrGitOperationFailed(displayCommand, strings.TrimSpace(output), nil)
	}

	steps.completeStep(ctx, step, output, 0)
	return output, nil
}

// runUserStep runs a configured script, aborting the pipeline on failure.
func (s *PipelineService) runUserStep(ctx context.Context, steps *stepLogger, logType models.LogType, script string, data *models.WebhookData, mainScriptExitCode *int64) (string, error) {
	step := steps.startStep(ctx, logType, script)
	s.Infof("Running %s: %s", logType, script)

	result, err := runScript(ctx, script, data.RepoPath, scriptEnv(data, mainScriptExitCode))
	if err != nil {
		steps.failStep(ctx, step, err.Error(), 1)
		return "", err
	}
	steps.completeStep(ctx, step, result.output, result.exitCode)
	return result.output, nil
}

// runHookStep runs a post hook. A hook failure is recorded on its step row
// and logged, but never propagated to the job outcome.
func (s *PipelineService) runHookStep(ctx context.Context, steps *stepLogger, logType models.LogType, script string, data *models.WebhookData, mainScriptExitCode int64, allOutput *strings.Builder) {
	output, err := s.runUserStep(ctx, steps, logType, script, data, &mainScriptExitCode)
	if err != nil {
		s.Errorf("Hook %s failed: %v", logType, err)
		return
	}
	allOutput.WriteString(output)
}

func stringOrNone(v *string) string {
	if v == nil || *v == "" {
		return "(none)"
	}
	return *v
}
