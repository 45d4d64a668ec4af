package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/mathool/assets"
	"github.com/doeshing/mathool/internal/domain"
	"github.com/doeshing/mathool/internal/pkg/filesystem"
	"github.com/doeshing/mathool/internal/ports"
)

// FileLoader loads YAML configuration from ~/.mathool/config.yaml (overridable via MATHOOL_CONFIG).
//
// Values are layered: embedded defaults, then the YAML file, then MATHOOL_*
// environment variables.
type FileLoader struct {
	overridePath string
}

// NewFileLoader builds a new loader. An empty path selects the default location.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{overridePath: path}
}

// Load implements ports.ConfigProvider. A missing file is created from the
// embedded defaults.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	path := l.Path()
	if err := ensureConfigDir(path); err != nil {
		return domain.Config{}, err
	}

	cfg, err := defaultConfig()
	if err != nil {
		return domain.Config{}, err
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := os.WriteFile(path, assets.DefaultConfigYAML, domain.SecureFilePermissions); err != nil {
			return domain.Config{}, fmt.Errorf("write default config: %w", err)
		}
	case err != nil:
		return domain.Config{}, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return domain.Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	loadEnv(&cfg)
	return hydrateDefaults(cfg), nil
}

// Path returns the configuration file location.
func (l *FileLoader) Path() string {
	if l.overridePath != "" {
		return filesystem.ExpandPath(l.overridePath)
	}
	if custom := os.Getenv("MATHOOL_CONFIG"); custom != "" {
		return filesystem.ExpandPath(custom)
	}
	return filepath.Join(filesystem.AppDir(), "config.yaml")
}

// WriteDefaults writes the embedded defaults to Path. An existing file is
// only replaced when force is set, and is first copied to a timestamped
// backup whose path is returned.
func (l *FileLoader) WriteDefaults(force bool) (path, backup string, err error) {
	path = l.Path()
	if err := ensureConfigDir(path); err != nil {
		return "", "", err
	}
	if _, err := os.Stat(path); err == nil {
		if !force {
			return path, "", fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if backup, err = l.Backup(); err != nil {
			return path, "", fmt.Errorf("back up %s: %w", path, err)
		}
	}
	if err := os.WriteFile(path, assets.DefaultConfigYAML, domain.SecureFilePermissions); err != nil {
		return "", backup, err
	}
	return path, backup, nil
}

// Backup copies the current config file to a timestamped backup.
func (l *FileLoader) Backup() (string, error) {
	path := l.Path()
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	backup := fmt.Sprintf("%s.%s.bak", path, time.Now().Format("20060102T150405"))
	if err := os.WriteFile(backup, data, domain.SecureFilePermissions); err != nil {
		return "", err
	}
	return backup, nil
}

func ensureConfigDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions)
}

// DefaultConfig returns the embedded defaults as Load reports them when no
// file or environment override applies.
func DefaultConfig() (domain.Config, error) {
	cfg, err := defaultConfig()
	if err != nil {
		return domain.Config{}, err
	}
	return hydrateDefaults(cfg), nil
}

func defaultConfig() (domain.Config, error) {
	var cfg domain.Config
	if err := yaml.Unmarshal(assets.DefaultConfigYAML, &cfg); err != nil {
		return domain.Config{}, fmt.Errorf("embedded defaults: %w", err)
	}
	return cfg, nil
}

func loadEnv(cfg *domain.Config) {
	setString(&cfg.Service.BaseURL, "MATHOOL_BASE_URL")
	setInt(&cfg.Service.TimeoutSeconds, "MATHOOL_TIMEOUT")
	setInt(&cfg.Service.Retries, "MATHOOL_RETRIES")
	setString(&cfg.Preferences.DefaultMode, "MATHOOL_MODE")
	setString(&cfg.Storage.Backend, "MATHOOL_STORAGE_BACKEND")
	setString(&cfg.Storage.Path, "MATHOOL_STORAGE_PATH")
	setBool(&cfg.Cache.Enabled, "MATHOOL_CACHE_ENABLED")
	setString(&cfg.Logging.Level, "MATHOOL_LOG_LEVEL")
}

func hydrateDefaults(cfg domain.Config) domain.Config {
	if cfg.ConfigFormatVersion == "" {
		cfg.ConfigFormatVersion = "1"
	}
	if cfg.Service.BaseURL == "" {
		cfg.Service.BaseURL = domain.DefaultServiceBaseURL
	}
	if cfg.Service.TimeoutSeconds == 0 {
		cfg.Service.TimeoutSeconds = domain.DefaultServiceTimeoutSeconds
	}
	if cfg.Preferences.DefaultMode == "" {
		cfg.Preferences.DefaultMode = string(domain.ModeBoth)
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = domain.StorageBackendFile
	}
	if cfg.Storage.Key == "" {
		cfg.Storage.Key = domain.DefaultHistoryKey
	}
	cfg.Storage.Path = filesystem.ExpandPath(cfg.Storage.Path)
	if cfg.Cache.TTL == "" {
		cfg.Cache.TTL = domain.DefaultCacheTTL.String()
	}
	if cfg.Cache.MaxCost == 0 {
		cfg.Cache.MaxCost = domain.DefaultCacheMaxCost
	}
	if cfg.Fill.Concurrency == 0 {
		cfg.Fill.Concurrency = domain.DefaultFillConcurrency
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "warn"
	}
	return cfg
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

var _ ports.ConfigProvider = (*FileLoader)(nil)
