package app

import (
	"flag"
	"os"

	"github.com/tinycd/tinycd/common/logger"
	"github.com/tinycd/tinycd/server/api/rest/server"
	"github.com/tinycd/tinycd/server/store"
)

const (
	defaultBindAddress  = "127.0.0.1:8888"
	defaultConfigPath   = "cicd_config.toml"
	defaultDatabasePath = "cicd_data.db"
)

// LogSafeFlags is a list of flags by name whose values are safe to log.
var LogSafeFlags = []string{
	"api_server_address",
	"config_file",
	"database_path",
	"log_levels",
	"dev_enable_debug_probe",
}

type ServerConfig struct {
	APIConfig         server.HTTPServerConfig
	WebhookConfig     server.WebhookAPIConfig
	DatabaseConfig    store.DatabaseConfig
	ProjectConfigPath string
	LogLevels         logger.LogLevelConfig
}

// ConfigFromFlags builds the server configuration from command-line flags.
// Each flag defaults to the corresponding environment variable, so the
// server can be configured entirely through the environment.
func ConfigFromFlags() (*ServerConfig, error) {
	var (
		databasePath string
		logLevels    string
	)
	config := &ServerConfig{}

	flag.StringVar(&config.APIConfig.Address, "api_server_address",
		envOrDefault("BIND_ADDRESS", defaultBindAddress), "The interface and port to bind the API server to.")
	flag.StringVar(&config.ProjectConfigPath, "config_file",
		envOrDefault("CICD_CONFIG", defaultConfigPath), "The path to the TOML file defining the projects to deploy.")
	flag.StringVar(&databasePath, "database_path",
		envOrDefault("DATABASE_PATH", defaultDatabasePath), "The path to the SQLite database file, created on first start.")
	flag.StringVar(&logLevels, "log_levels",
		os.Getenv("TINYCD_LOG_LEVELS"), "A comma-separated list of 'subsystem=level' pairs overriding the default log level.")
	flag.BoolVar(&config.WebhookConfig.EnableDebugProbe, "dev_enable_debug_probe",
		false, "True to let webhook requests with a 'dev' query parameter short-circuit with 204. This option should not be used in production.")
	flag.Parse()

	config.DatabaseConfig = store.DatabaseConfig{
		ConnectionString:   store.MakeConnectionString(databasePath),
		MaxIdleConnections: store.DefaultDatabaseMaxIdleConnections,
		MaxOpenConnections: store.DefaultDatabaseMaxOpenConnections,
	}
	config.LogLevels = logger.LogLevelConfig(logLevels)
	return config, nil
}

func envOrDefault(name string, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}
