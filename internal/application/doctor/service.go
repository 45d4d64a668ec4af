package doctor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/doeshing/mathool/internal/domain"
	"github.com/doeshing/mathool/internal/ports"
)

// probe is the number whose primality the reachability check asks about.
var probe = domain.NewNumber(2)

// Service runs environment diagnostics.
type Service struct {
	ConfigProvider ports.ConfigProvider
	Store          ports.KeyValueStore
	MathService    ports.MathService
	// StoreLocation and ServiceURL only decorate the report.
	StoreLocation string
	ServiceURL    string
}

// Run executes checks and returns a report. Only a config load failure is
// returned as an error; every other problem is a check in the report.
func (s *Service) Run(ctx context.Context) (domain.HealthReport, error) {
	var checks []domain.HealthCheck

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		checks = append(checks, fail("Config file", fmt.Sprintf("load failed: %v", err)))
		return domain.HealthReport{Checks: checks}, err
	}
	checks = append(checks, ok("Config file", fmt.Sprintf("loaded version %s", cfg.ConfigFormatVersion)))

	checks = append(checks, s.storeCheck(ctx, cfg))
	checks = append(checks, s.serviceCheck(ctx))

	return domain.HealthReport{Checks: checks}, nil
}

func (s *Service) storeCheck(ctx context.Context, cfg domain.Config) domain.HealthCheck {
	if s.Store == nil {
		return warn("History store", "store not initialized")
	}
	raw, found, err := s.Store.Get(ctx, cfg.GetHistoryKey())
	if err != nil {
		return fail("History store", err.Error())
	}
	where := cfg.GetStorageBackend()
	if s.StoreLocation != "" && s.StoreLocation != where {
		where += " at " + s.StoreLocation
	}
	if !found {
		return ok("History store", fmt.Sprintf("%s, no history yet", where))
	}

	// Decoding is left to the history; here only the entry count matters.
	var entries []struct{}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return warn("History store", fmt.Sprintf("%s, unreadable history: %v", where, err))
	}
	return ok("History store", fmt.Sprintf("%s, %d entries", where, len(entries)))
}

func (s *Service) serviceCheck(ctx context.Context) domain.HealthCheck {
	if s.MathService == nil {
		return warn("Math service", "client not initialized")
	}
	prime, err := s.MathService.CheckPrime(ctx, probe)
	if err != nil {
		return fail("Math service", err.Error())
	}
	if !prime {
		return warn("Math service", "reachable but reports 2 as not prime")
	}
	details := "reachable"
	if s.ServiceURL != "" {
		details += " at " + s.ServiceURL
	}
	return ok("Math service", details)
}

func ok(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthOK, Details: details}
}

func warn(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthWarn, Details: details}
}

func fail(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthError, Details: details}
}
