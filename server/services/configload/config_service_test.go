package configload

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tinycd/tinycd/common/gerror"
	"github.com/tinycd/tinycd/common/logger"
)

const validConfig = `
[[project]]
name = "demo"
repo_path = "/srv/demo"
branches = ["main", "dev"]
run_script = "make deploy"
pre_script = "make test"
rate_limit_requests = 10

[project.branch_scripts]
dev = "make deploy-dev"
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cicd_config.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, validConfig)
	service, err := NewConfigService(path, logger.NoOpLogFactory)
	require.NoError(t, err)

	config := service.Snapshot()
	require.Len(t, config.Projects, 1)
	project := config.Projects[0]
	require.Equal(t, "demo", project.Name)
	require.Equal(t, []string{"main", "dev"}, project.Branches)
	require.Equal(t, "make deploy-dev", project.ScriptForBranch("dev"))
	require.Equal(t, "make deploy", project.ScriptForBranch("main"))
	require.Equal(t, 10, project.RateLimitRequests)
	// Defaults applied
	require.Equal(t, 60, project.RateLimitWindowSeconds)
	require.True(t, project.ResetToRemoteEnabled())

	require.Equal(t, path, service.Path())
	require.Contains(t, service.Raw(), `name = "demo"`)
}

func TestUnknownFieldRejected(t *testing.T) {
	path := writeConfig(t, validConfig+"\nrun_scrpit = \"oops\"\n")
	_, err := NewConfigService(path, logger.NoOpLogFactory)
	require.Error(t, err)
	require.True(t, gerror.IsConfigDefect(err))
	require.Contains(t, err.Error(), "run_scrpit")
}

func TestInvalidProjectRejected(t *testing.T) {
	path := writeConfig(t, `
[[project]]
name = "broken"
repo_path = "/srv/broken"
branches = []
run_script = "make"
`)
	_, err := NewConfigService(path, logger.NoOpLogFactory)
	require.Error(t, err)
	require.True(t, gerror.IsConfigDefect(err))
}

func TestMissingFile(t *testing.T) {
	_, err := NewConfigService(filepath.Join(t.TempDir(), "nope.toml"), logger.NoOpLogFactory)
	require.Error(t, err)
	require.True(t, gerror.IsConfigDefect(err))
}

func TestReloadKeepsOldSnapshotOnError(t *testing.T) {
	path := writeConfig(t, validConfig)
	service, err := NewConfigService(path, logger.NoOpLogFactory)
	require.NoError(t, err)
	before := service.Snapshot()

	require.NoError(t, os.WriteFile(path, []byte("not toml at all ["), 0644))
	err = service.Reload()
	require.Error(t, err)
	require.Same(t, before, service.Snapshot())
}

func TestReloadSwapsSnapshot(t *testing.T) {
	path := writeConfig(t, validConfig)
	service, err := NewConfigService(path, logger.NoOpLogFactory)
	require.NoError(t, err)

	updated := validConfig + `
[[project]]
name = "second"
repo_path = "/srv/second"
branches = ["main"]
run_script = "make"
`
	require.NoError(t, os.WriteFile(path, []byte(updated), 0644))
	require.NoError(t, service.Reload())
	require.Len(t, service.Snapshot().Projects, 2)
}
