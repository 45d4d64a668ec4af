package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/doeshing/mathool/internal/domain"
)

// Validate ensures config structure is consistent.
func Validate(cfg domain.Config) error {
	if err := cfg.ValidateConsistency(); err != nil {
		return err
	}
	if err := validateService(cfg.Service); err != nil {
		return err
	}
	if err := validateCache(cfg.Cache); err != nil {
		return err
	}
	if err := validateFill(cfg.Fill); err != nil {
		return err
	}
	if err := validateLogging(cfg.Logging); err != nil {
		return err
	}
	return nil
}

func validateService(svc domain.ServiceSettings) error {
	if svc.BaseURL != "" {
		u, err := url.Parse(svc.BaseURL)
		if err != nil {
			return fmt.Errorf("service.base_url invalid: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("service.base_url must be http or https, got %q", svc.BaseURL)
		}
		if u.Host == "" {
			return fmt.Errorf("service.base_url has no host: %q", svc.BaseURL)
		}
	}
	if svc.TimeoutSeconds < 0 {
		return fmt.Errorf("service.timeout must be >= 0")
	}
	if svc.Retries < 0 || svc.Retries > domain.MaxServiceRetries {
		return fmt.Errorf("service.retries must be between 0 and %d", domain.MaxServiceRetries)
	}
	return nil
}

func validateCache(cache domain.CacheSettings) error {
	if cache.TTL != "" {
		ttl, err := time.ParseDuration(cache.TTL)
		if err != nil {
			return fmt.Errorf("cache.ttl invalid: %w", err)
		}
		if ttl <= 0 {
			return fmt.Errorf("cache.ttl must be > 0")
		}
	}
	if cache.MaxCost < 0 {
		return fmt.Errorf("cache.max_cost must be >= 0")
	}
	return nil
}

func validateFill(fill domain.FillSettings) error {
	if fill.Concurrency < 0 {
		return fmt.Errorf("fill.concurrency must be >= 0")
	}
	return nil
}

func validateLogging(logging domain.LoggingSettings) error {
	switch strings.ToLower(logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be debug|info|warn|error, got %s", logging.Level)
	}
}
