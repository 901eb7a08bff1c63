package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilterOSArgs(t *testing.T) {

	var whitelist = []string{
		"api_server_address",
		"config_file",
		"database_path",
		"log_levels",
	}

	var in = []string{
		"/usr/bin/tinycd-server",
		"--api_server_address",
		"127.0.0.1:8888",
		"--config_file",
		"/etc/tinycd/cicd_config.toml",
		"--webhook_shared_secret",
		"secret",
		"--database_path",
		"/var/lib/tinycd/cicd_data.db",
		"--admin_token",
		"secret",
		"--log_levels",
		"ExecutorService=debug"}

	var out = []string{
		"/usr/bin/tinycd-server",
		"--api_server_address",
		"127.0.0.1:8888",
		"--config_file",
		"/etc/tinycd/cicd_config.toml",
		"--webhook_shared_secret",
		"******",
		"--database_path",
		"/var/lib/tinycd/cicd_data.db",
		"--admin_token",
		"******",
		"--log_levels",
		"ExecutorService=debug"}

	filtered := FilterOSArgs(in, whitelist)
	require.Equal(t, out, filtered)
}
