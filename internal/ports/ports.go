// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the application core and external
// adapters (infrastructure). The history state machine, the query service and the
// doctor depend only on these abstractions; storage backends, the HTTP client of
// the math service, the response cache and the logger are adapters living in
// the infrastructure layer.
//
// Key architectural concepts:
//   - Ports: Interfaces defined here (e.g., KeyValueStore, MathService)
//   - Adapters: Concrete implementations in the infrastructure layer
//   - Dependency inversion: Application depends on abstractions, not implementations
package ports

import (
	"context"

	"github.com/doeshing/mathool/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from ~/.mathool/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// KeyValueStore is the durable store the history is persisted in.
// Get reports ok=false for an absent key; Remove of an absent key is not an error.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// MathService dispatches queries to the remote math service.
// Dispatch honors the mode; CheckPrime and CalculateFactorial always use the
// fixed prime and factorial targets.
type MathService interface {
	Dispatch(ctx context.Context, number domain.Number, mode domain.Mode) (domain.ResultRecord, error)
	CheckPrime(ctx context.Context, number domain.Number) (bool, error)
	CalculateFactorial(ctx context.Context, number domain.Number) (string, error)
}

// ResponseCache memoizes successful dispatch results by mode and number.
type ResponseCache interface {
	Get(mode domain.Mode, number domain.Number) (domain.ResultRecord, bool)
	Set(mode domain.Mode, number domain.Number, record domain.ResultRecord)
	Clear()
}

// Logger provides structured logging abstraction for the application layer.
// Implementations can route to different backends (stderr, files, external services).
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
