package app

import (
	"context"
	"fmt"
	"io"

	configapp "github.com/doeshing/mathool/internal/application/config"
	"github.com/doeshing/mathool/internal/application/doctor"
	"github.com/doeshing/mathool/internal/application/history"
	"github.com/doeshing/mathool/internal/application/query"
	"github.com/doeshing/mathool/internal/domain"
	"github.com/doeshing/mathool/internal/infrastructure/cache"
	"github.com/doeshing/mathool/internal/infrastructure/config"
	"github.com/doeshing/mathool/internal/infrastructure/mathapi"
	"github.com/doeshing/mathool/internal/infrastructure/storage"
	"github.com/doeshing/mathool/internal/pkg/logger"
	"github.com/doeshing/mathool/internal/ports"
)

// Container wires up application services with infrastructure adapters.
type Container struct {
	Config         domain.Config
	ConfigProvider ports.ConfigProvider
	ConfigLoader   *config.FileLoader
	Store          storage.Store
	History        *history.History
	MathClient     *mathapi.Client
	Cache          *cache.ResponseCache
	QueryService   *query.Service
	DoctorService  *doctor.Service
	Logger         ports.Logger
}

// BuildOptions adjusts how BuildContainer wires the graph.
type BuildOptions struct {
	// Verbose forces debug logging.
	Verbose bool
	// Ephemeral keeps history in memory for this run only.
	Ephemeral bool
}

// BuildContainer constructs the dependency graph and hydrates the history.
func BuildContainer(ctx context.Context, opts BuildOptions) (*Container, error) {
	cfgLoader := config.NewFileLoader("")
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.Ephemeral {
		cfg.Storage.Backend = domain.StorageBackendMemory
	}
	if err := configapp.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgLoader.Path(), err)
	}

	log := logger.NewWithLevel(cfg.Logging.Level, opts.Verbose)
	return Build(ctx, cfg, cfgLoader, log)
}

// NewConfigContainer wires only the configuration side. It serves the config
// commands when the file on disk cannot be loaded.
func NewConfigContainer(loader *config.FileLoader, log ports.Logger) *Container {
	return &Container{
		ConfigProvider: loader,
		ConfigLoader:   loader,
		Logger:         log,
	}
}

// Build wires the graph from an already loaded configuration.
func Build(ctx context.Context, cfg domain.Config, provider ports.ConfigProvider, log ports.Logger) (*Container, error) {
	store, err := storage.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	hist := history.New(store,
		history.WithKey(cfg.GetHistoryKey()),
		history.WithStrictHydration(cfg.IsStrictHydration()),
		history.WithLogger(log),
	)
	if err := hist.Hydrate(ctx); err != nil {
		closeStore(store)
		return nil, fmt.Errorf("load history %q from %s: %w", hist.Key(), store.Path(), err)
	}

	client := mathapi.NewClient(cfg.GetServiceBaseURL(),
		mathapi.WithTimeout(cfg.GetServiceTimeout()),
		mathapi.WithRetries(cfg.GetServiceRetries()),
		mathapi.WithLogger(log),
	)

	queryService := &query.Service{
		History:         hist,
		MathService:     client,
		Logger:          log,
		FillConcurrency: cfg.GetFillConcurrency(),
	}

	var responseCache *cache.ResponseCache
	if cfg.IsCacheEnabled() {
		responseCache, err = cache.NewResponseCache(cfg.GetCacheMaxCost(), cfg.GetCacheTTL())
		if err != nil {
			log.Warn("response cache disabled", map[string]interface{}{"error": err.Error()})
		} else {
			queryService.Cache = responseCache
		}
	}

	doctorService := &doctor.Service{
		ConfigProvider: provider,
		Store:          store,
		MathService:    client,
		StoreLocation:  store.Path(),
		ServiceURL:     client.BaseURL(),
	}

	container := &Container{
		Config:         cfg,
		ConfigProvider: provider,
		Store:          store,
		History:        hist,
		MathClient:     client,
		Cache:          responseCache,
		QueryService:   queryService,
		DoctorService:  doctorService,
		Logger:         log,
	}
	if loader, ok := provider.(*config.FileLoader); ok {
		container.ConfigLoader = loader
	}
	return container, nil
}

// Close releases the store and the cache.
func (c *Container) Close() error {
	if c.Cache != nil {
		c.Cache.Close()
	}
	return closeStore(c.Store)
}

func closeStore(store storage.Store) error {
	if closer, ok := store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("close store: %w", err)
		}
	}
	return nil
}
