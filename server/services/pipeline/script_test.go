package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tinycd/tinycd/common/gerror"
	"github.com/tinycd/tinycd/common/models"
)

func TestRunScriptCapturesOutput(t *testing.T) {
	result, err := runScript(context.Background(), "echo hello world", t.TempDir(), nil)
	require.NoError(t, err)
	require.Equal(t, "hello world\n", result.output)
	require.EqualValues(t, 0, result.exitCode)
}

func TestRunScriptEmptyCommandLine(t *testing.T) {
	_, err := runScript(context.Background(), "   ", t.TempDir(), nil)
	require.Error(t, err)
	require.True(t, gerror.IsScriptExecutionFailed(err))
}

func TestRunScriptMissingBinary(t *testing.T) {
	_, err := runScript(context.Background(), "no-such-binary-xyz --flag", t.TempDir(), nil)
	require.Error(t, err)
	require.True(t, gerror.IsScriptExecutionFailed(err))
	require.Contains(t, err.Error(), "Failed to start script")
}

func TestRunScriptNonZeroExit(t *testing.T) {
	_, err := runScript(context.Background(), "false", t.TempDir(), nil)
	require.Error(t, err)
	require.True(t, gerror.IsScriptExecutionFailed(err))
	require.Contains(t, err.Error(), "exit code 1")
}

func TestScriptEnvIncludesPushDetails(t *testing.T) {
	data := models.NewWebhookData("demo", "main", "/srv/demo")
	sha := "abc123"
	data.CommitSHA = &sha

	env := scriptEnv(data, nil)
	require.Contains(t, env, "CICD_PROJECT_NAME=demo")
	require.Contains(t, env, "CICD_BRANCH=main")
	require.Contains(t, env, "CICD_REPO_PATH=/srv/demo")
	require.Contains(t, env, "CICD_COMMIT_SHA=abc123")
	require.NotContains(t, env, "CICD_PUSHER_NAME=")

	code := int64(2)
	env = scriptEnv(data, &code)
	require.Contains(t, env, "CICD_MAIN_SCRIPT_EXIT_CODE=2")
}
