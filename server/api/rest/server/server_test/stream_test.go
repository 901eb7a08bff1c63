package server_test

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/r3labs/sse"
	"github.com/stretchr/testify/require"

	"github.com/tinycd/tinycd/common/models"
)

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
}

// makeClone creates a local repository with one commit on main and a clone
// of it, returning the clone's path.
func makeClone(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	origin := filepath.Join(base, "origin")
	require.NoError(t, os.MkdirAll(origin, 0755))
	runGit(t, origin, "init", "--initial-branch=main")
	runGit(t, origin, "config", "user.email", "ci@example.com")
	runGit(t, origin, "config", "user.name", "ci")
	require.NoError(t, os.WriteFile(filepath.Join(origin, "README.md"), []byte("hello\n"), 0644))
	runGit(t, origin, "add", ".")
	runGit(t, origin, "commit", "-m", "initial")

	clone := filepath.Join(base, "clone")
	runGit(t, base, "clone", origin, clone)
	return clone
}

// subscribeSSE connects an SSE client to the given stream path and forwards
// every received event to the returned channel until the context is done.
func subscribeSSE(t *testing.T, ctx context.Context, url string) <-chan *sse.Event {
	t.Helper()
	received := make(chan *sse.Event, 64)
	client := sse.NewClient(url)
	go func() {
		_ = client.SubscribeRawWithContext(ctx, func(msg *sse.Event) {
			select {
			case received <- msg:
			default:
			}
		})
	}()
	return received
}

func TestStreamJobEvents(t *testing.T) {
	f := setup(t, configForRepo(t.TempDir(), ""))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	received := subscribeSSE(t, ctx, f.httpServer.URL+"/api/stream/jobs")

	// The bus is lossy and the subscription races the HTTP connect, so keep
	// publishing until the subscriber sees an event.
	published := &models.JobEvent{
		EventType:   models.JobEventCreated,
		JobID:       models.NewJobID(),
		ProjectName: "demo",
		Branch:      "main",
		Timestamp:   models.NewTime(time.Now()),
	}
	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				f.events.PublishJobEvent(published)
			case <-ctx.Done():
				return
			}
		}
	}()

	select {
	case msg := <-received:
		require.Equal(t, "created", string(msg.Event))
		got := &models.JobEvent{}
		require.NoError(t, json.Unmarshal(msg.Data, got))
		require.Equal(t, published.JobID, got.JobID)
		require.Equal(t, "demo", got.ProjectName)
	case <-ctx.Done():
		t.Fatal("timed out waiting for job event")
	}
}

func TestStreamLogChunks(t *testing.T) {
	f := setup(t, configForRepo(t.TempDir(), ""))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	received := subscribeSSE(t, ctx, f.httpServer.URL+"/api/stream/logs")

	published := &models.LogChunk{
		JobID:     models.NewJobID(),
		StepType:  models.LogTypeMainScript,
		Chunk:     "deployed\n",
		Timestamp: models.NewTime(time.Now()),
	}
	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				f.events.PublishLogChunk(published)
			case <-ctx.Done():
				return
			}
		}
	}()

	select {
	case msg := <-received:
		require.Equal(t, models.LogChunkEventName, string(msg.Event))
		got := &models.LogChunk{}
		require.NoError(t, json.Unmarshal(msg.Data, got))
		require.Equal(t, published.JobID, got.JobID)
		require.Equal(t, "deployed\n", got.Chunk)
	case <-ctx.Done():
		t.Fatal("timed out waiting for log chunk")
	}
}

// TestStreamDeliversPipelineEvents drives a real dry run through the webhook
// and checks the job stream carries its state transitions.
func TestStreamDeliversPipelineEvents(t *testing.T) {
	f := setup(t, configForRepo(t.TempDir(), ""))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	received := subscribeSSE(t, ctx, f.httpServer.URL+"/api/stream/jobs")

	// Give the SSE client a moment to connect before triggering the push.
	time.Sleep(200 * time.Millisecond)
	res := f.postWebhook(t, "/webhook?dry_run=true", pushPayload("demo", "refs/heads/main"), nil)
	res.Body.Close()

	seen := map[string]bool{}
	for !seen["success"] {
		select {
		case msg := <-received:
			seen[string(msg.Event)] = true
		case <-ctx.Done():
			t.Fatalf("timed out; events seen: %v", seen)
		}
	}
	require.True(t, seen["running"])
}
