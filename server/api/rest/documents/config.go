package documents

type ConfigDocument struct {
	ConfigTOML string `json:"config_toml"`
	Path       string `json:"path"`
}

type ReloadDocument struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
