package domain

import (
	"fmt"
	"strings"
	"time"
)

// GetDefaultMode returns the configured default dispatch mode.
// Falls back to ModeBoth when unset or unknown.
func (c *Config) GetDefaultMode() Mode {
	mode, err := ParseMode(c.Preferences.DefaultMode)
	if err != nil {
		return ModeBoth
	}
	return mode
}

// SetDefaultMode changes the default dispatch mode.
// Returns an error if the name is not a known mode.
func (c *Config) SetDefaultMode(name string) error {
	mode, err := ParseMode(name)
	if err != nil {
		return fmt.Errorf("cannot set default mode: %w", err)
	}
	c.Preferences.DefaultMode = string(mode)
	return nil
}

// GetServiceBaseURL returns the math service root without a trailing slash.
func (c *Config) GetServiceBaseURL() string {
	base := strings.TrimRight(strings.TrimSpace(c.Service.BaseURL), "/")
	if base == "" {
		return DefaultServiceBaseURL
	}
	return base
}

// GetServiceTimeout returns the per-request timeout.
func (c *Config) GetServiceTimeout() time.Duration {
	if c.Service.TimeoutSeconds <= 0 {
		return DefaultServiceTimeoutSeconds * time.Second
	}
	return time.Duration(c.Service.TimeoutSeconds) * time.Second
}

// GetServiceRetries returns the number of retries after a transport fault.
func (c *Config) GetServiceRetries() int {
	switch {
	case c.Service.Retries < 0:
		return 0
	case c.Service.Retries > MaxServiceRetries:
		return MaxServiceRetries
	default:
		return c.Service.Retries
	}
}

// GetStorageBackend returns the normalized storage backend name.
func (c *Config) GetStorageBackend() string {
	backend := strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if backend == "" {
		return StorageBackendFile
	}
	return backend
}

// GetHistoryKey returns the store key holding the history.
func (c *Config) GetHistoryKey() string {
	if c.Storage.Key == "" {
		return DefaultHistoryKey
	}
	return c.Storage.Key
}

// IsStrictHydration reports whether a corrupt persisted history is fatal.
func (c *Config) IsStrictHydration() bool {
	return c.History.Strict
}

// IsCacheEnabled reports whether responses are cached in-process.
func (c *Config) IsCacheEnabled() bool {
	return c.Cache.Enabled
}

// GetCacheTTL returns the response cache TTL.
// Returns the default TTL if unset or unparsable.
func (c *Config) GetCacheTTL() time.Duration {
	if c.Cache.TTL == "" {
		return DefaultCacheTTL
	}
	ttl, err := time.ParseDuration(c.Cache.TTL)
	if err != nil || ttl <= 0 {
		return DefaultCacheTTL
	}
	return ttl
}

// GetCacheMaxCost returns the response cache byte budget.
func (c *Config) GetCacheMaxCost() int64 {
	if c.Cache.MaxCost <= 0 {
		return DefaultCacheMaxCost
	}
	return c.Cache.MaxCost
}

// GetFillConcurrency returns how many fill requests may run at once.
func (c *Config) GetFillConcurrency() int {
	if c.Fill.Concurrency <= 0 {
		return DefaultFillConcurrency
	}
	return c.Fill.Concurrency
}

// ValidateConsistency checks the internal consistency of the configuration.
func (c *Config) ValidateConsistency() error {
	if c.Preferences.DefaultMode != "" {
		if _, err := ParseMode(c.Preferences.DefaultMode); err != nil {
			return fmt.Errorf("preferences.default_mode: %w", err)
		}
	}
	switch c.GetStorageBackend() {
	case StorageBackendFile, StorageBackendSQLite, StorageBackendMemory:
	default:
		return fmt.Errorf("storage.backend must be file|sqlite|memory, got %s", c.Storage.Backend)
	}
	return nil
}
