package domain

// Config mirrors ~/.mathool/config.yaml.
type Config struct {
	ConfigFormatVersion string          `yaml:"config_format_version"`
	Service             ServiceSettings `yaml:"service"`
	Preferences         Preferences     `yaml:"preferences"`
	Storage             StorageSettings `yaml:"storage"`
	History             HistorySettings `yaml:"history"`
	Cache               CacheSettings   `yaml:"cache"`
	Fill                FillSettings    `yaml:"fill"`
	Logging             LoggingSettings `yaml:"logging"`
}

// ServiceSettings locates the remote math service.
type ServiceSettings struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout"`
	Retries        int    `yaml:"retries"`
}

// Preferences captures user level toggles.
type Preferences struct {
	DefaultMode string `yaml:"default_mode"`
}

// StorageSettings selects the persisted history backend.
type StorageSettings struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
	Key     string `yaml:"key"`
}

// HistorySettings controls hydration behavior.
type HistorySettings struct {
	Strict bool `yaml:"strict"`
}

// CacheSettings controls the in-process response cache.
type CacheSettings struct {
	Enabled bool   `yaml:"enabled"`
	TTL     string `yaml:"ttl"`
	MaxCost int64  `yaml:"max_cost"`
}

// FillSettings bounds concurrent fills of missing attributes.
type FillSettings struct {
	Concurrency int `yaml:"concurrency"`
}

// LoggingSettings selects the minimum log level.
type LoggingSettings struct {
	Level string `yaml:"level"`
}
