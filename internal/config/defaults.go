package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/kaiwa/data/runs.db"
	}
	if cfg.Storage.OutputDir == "" {
		cfg.Storage.OutputDir = "/usr/local/var/kaiwa/out"
	}
	if cfg.OCR.Languages == nil {
		cfg.OCR.Languages = []string{"eng"}
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".zip"}
	}
}
