package configload

import (
	"fmt"
	"os"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/tinycd/tinycd/common/gerror"
	"github.com/tinycd/tinycd/common/logger"
	"github.com/tinycd/tinycd/common/models"
)

// ConfigService loads the project configuration from a TOML file and guards
// the current snapshot with a reader-writer lock. Readers take the snapshot
// pointer and release the lock immediately; a reload swaps the pointer under
// the writer lock.
type ConfigService struct {
	path     string
	mu       sync.RWMutex
	snapshot *models.Config
	raw      string
	logger.Log
}

// NewConfigService creates the service and performs the initial load.
func NewConfigService(path string, logFactory logger.LogFactory) (*ConfigService, error) {
	s := &ConfigService{
		path: path,
		Log:  logFactory("ConfigService"),
	}
	err := s.Reload()
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Snapshot returns the current immutable configuration.
func (s *ConfigService) Snapshot() *models.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Path returns the configuration file path.
func (s *ConfigService) Path() string {
	return s.path
}

// Raw returns the raw text of the configuration file as last loaded.
func (s *ConfigService) Raw() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.raw
}

// Reload re-reads and validates the configuration file, then swaps the
// snapshot. On any error the previous snapshot stays in place.
func (s *ConfigService) Reload() error {
	config, raw, err := loadConfigFile(s.path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.snapshot = config
	s.raw = raw
	s.mu.Unlock()

	s.Infof("Loaded %d project(s) from %s", len(config.Projects), s.path)
	return nil
}

// loadConfigFile parses a project configuration file. Unknown fields are
// rejected so a typo cannot silently disable a setting.
func loadConfigFile(path string) (*models.Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", gerror.NewErrConfigDefect(fmt.Sprintf("cannot read configuration file %q", path)).Wrap(err)
	}

	config := &models.Config{}
	md, err := toml.Decode(string(data), config)
	if err != nil {
		return nil, "", gerror.NewErrConfigDefect(fmt.Sprintf("cannot parse configuration file %q", path)).Wrap(err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, "", gerror.NewErrConfigDefect(
			fmt.Sprintf("configuration file %q contains unknown field %q", path, undecoded[0].String()))
	}

	config.PopulateDefaults()
	err = config.Validate()
	if err != nil {
		return nil, "", gerror.NewErrConfigDefect(fmt.Sprintf("configuration file %q is invalid", path)).Wrap(err)
	}
	return config, string(data), nil
}
