package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTruncateCommitMessage(t *testing.T) {
	short := "fix: a small thing"
	require.Equal(t, short, TruncateCommitMessage(short))

	long := strings.Repeat("a", MaxCommitMessageLength+1)
	truncated := TruncateCommitMessage(long)
	require.Equal(t, MaxCommitMessageLength+len(CommitMessageTruncationMarker), len(truncated))
	require.True(t, strings.HasSuffix(truncated, CommitMessageTruncationMarker))

	exact := strings.Repeat("b", MaxCommitMessageLength)
	require.Equal(t, exact, TruncateCommitMessage(exact))
}

func TestTruncateOutput(t *testing.T) {
	output, truncated := TruncateOutput("hello")
	require.Equal(t, "hello", output)
	require.False(t, truncated)

	big := strings.Repeat("x", 2*MaxJobOutputBytes)
	output, truncated = TruncateOutput(big)
	require.True(t, truncated)
	require.Equal(t, MaxJobOutputBytes+len(OutputTruncationMarker), len(output))
	require.True(t, strings.HasSuffix(output, OutputTruncationMarker))
}

func TestJobIDsAreTimeOrdered(t *testing.T) {
	first := NewJobID()
	time.Sleep(2 * time.Millisecond)
	second := NewJobID()
	require.True(t, first.String() < second.String())
}

func TestProjectDefaults(t *testing.T) {
	project := &Project{
		Name:      "demo",
		RepoPath:  "/tmp/demo",
		Branches:  []string{"main"},
		RunScript: "echo hi",
	}
	project.PopulateDefaults()
	require.NoError(t, project.Validate())
	require.True(t, project.ResetToRemoteEnabled())
	require.Equal(t, DefaultRateLimitRequests, project.RateLimitRequests)
	require.Equal(t, DefaultRateLimitWindowSeconds, project.RateLimitWindowSeconds)
}

func TestProjectScriptForBranch(t *testing.T) {
	project := &Project{
		RunScript:     "make build",
		BranchScripts: map[string]string{"release": "make release"},
	}
	require.Equal(t, "make release", project.ScriptForBranch("release"))
	require.Equal(t, "make build", project.ScriptForBranch("main"))
}

func TestConfigMatchProject(t *testing.T) {
	config := &Config{
		Projects: []*Project{
			{Name: "demo", Branches: []string{"main", "dev"}},
			{Name: "other", Branches: []string{"main"}},
		},
	}
	require.Equal(t, "demo", config.MatchProject("demo", "dev").Name)
	require.Nil(t, config.MatchProject("demo", "release"))
	require.Nil(t, config.MatchProject("unknown", "main"))
}
