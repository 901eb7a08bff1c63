package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/tinycd/tinycd/common/gerror"
	"github.com/tinycd/tinycd/common/models"
)

type scriptResult struct {
	output   string
	exitCode int64
}

// runScript executes a configured command line in the project's working
// copy. The command is split on whitespace and started directly, never
// through a shell. A non-zero exit is returned as a ScriptExecutionFailed
// error whose message carries the combined output.
func runScript(ctx context.Context, commandLine string, repoPath string, env []string) (*scriptResult, error) {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return nil, gerror.NewErrScriptExecutionFailed("Script configuration is empty", nil)
	}

	cmd := exec.CommandContext(ctx, fields[0], fields[1:]...)
	cmd.Dir = repoPath
	cmd.Env = env
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	// Stderr goes after stdout so diagnostics read in emission order.
	output := stdout.String()
	if stderr.Len() > 0 {
		output = output + "\n" + stderr.String()
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return nil, gerror.NewErrScriptExecutionFailed(fmt.Sprintf(
				"Failed to start script %q: %s. Ensure the command exists and is executable.",
				commandLine, runErr), runErr)
		}
		exitCode := int64(exitErr.ExitCode())
		return nil, gerror.NewErrScriptExecutionFailed(fmt.Sprintf(
			"Script %q failed with exit code %d.\nOutput: %s",
			commandLine, exitCode, strings.TrimSpace(output)), nil)
	}

	return &scriptResult{output: output, exitCode: 0}, nil
}

// scriptEnv builds the environment for a user script: the server's own
// environment plus the CICD_* variables describing the push. Git steps do
// not use this; they inherit the plain server environment.
func scriptEnv(data *models.WebhookData, mainScriptExitCode *int64) []string {
	env := os.Environ()
	env = append(env,
		"CICD_PROJECT_NAME="+data.ProjectName,
		"CICD_BRANCH="+data.Branch,
		"CICD_REPO_PATH="+data.RepoPath,
	)
	appendOptional := func(key string, value *string) {
		if value != nil {
			env = append(env, key+"="+*value)
		}
	}
	appendOptional("CICD_COMMIT_SHA", data.CommitSHA)
	appendOptional("CICD_COMMIT_MESSAGE", data.CommitMessage)
	appendOptional("CICD_COMMIT_AUTHOR_NAME", data.CommitAuthorName)
	appendOptional("CICD_COMMIT_AUTHOR_EMAIL", data.CommitAuthorEmail)
	appendOptional("CICD_PUSHER_NAME", data.PusherName)
	appendOptional("CICD_REPOSITORY_URL", data.RepositoryURL)
	if mainScriptExitCode != nil {
		env = append(env, fmt.Sprintf("CICD_MAIN_SCRIPT_EXIT_CODE=%d", *mainScriptExitCode))
	}
	return env
}
