package server

import (
	"net/http"

	"github.com/tinycd/tinycd/common/logger"
	"github.com/tinycd/tinycd/server/api/rest/documents"
	"github.com/tinycd/tinycd/server/services"
)

type ConfigAPI struct {
	configSvc services.ConfigService
	executor  services.ExecutorService
	*APIBase
}

func NewConfigAPI(configSvc services.ConfigService, executor services.ExecutorService, logFactory logger.LogFactory) *ConfigAPI {
	return &ConfigAPI{
		configSvc: configSvc,
		executor:  executor,
		APIBase:   NewAPIBase(logFactory("ConfigAPI")),
	}
}

// GetCurrent returns the raw configuration file as last loaded.
func (a *ConfigAPI) GetCurrent(w http.ResponseWriter, r *http.Request) {
	a.OK(w, r, &documents.ConfigDocument{
		ConfigTOML: a.configSvc.Raw(),
		Path:       a.configSvc.Path(),
	})
}

// Reload re-reads the configuration file. The reload holds the execution
// slot so it never races a running pipeline; a pipeline in flight finishes
// under the old configuration first.
func (a *ConfigAPI) Reload(w http.ResponseWriter, r *http.Request) {
	err := a.executor.WithSlot(a.configSvc.Reload)
	if err != nil {
		a.Error(w, r, err)
		return
	}
	a.OK(w, r, &documents.ReloadDocument{
		Status:  "success",
		Message: "Configuration reloaded successfully",
	})
}
