package server

import (
	"fmt"

	"go.uber.org/zap"

	"alfredoptarigan/cv-analyzer-web/internal/config"
	"alfredoptarigan/cv-analyzer-web/internal/observability"
	"alfredoptarigan/cv-analyzer-web/internal/repositories"
	"alfredoptarigan/cv-analyzer-web/internal/services"
)

// Wire builds the production dependencies described by cfg.
func Wire(cfg *config.Config, log *zap.Logger) (Dependencies, error) {
	backend, err := newSlotBackend(cfg, log)
	if err != nil {
		return Dependencies{}, err
	}

	store, err := repositories.NewResultStore(backend, log)
	if err != nil {
		return Dependencies{}, err
	}
	log.Info("✅ Result store initialized", zap.String("driver", cfg.Store.Driver))

	inspector := services.NewFileInspector()

	deps := Dependencies{
		Config:   cfg,
		Logger:   log,
		Store:    store,
		Registry: services.NewIntakeRegistry(inspector),
		Client: services.NewSubmissionClient(
			cfg.Backend.ProxyEndpoint,
			cfg.Server.RequestTimeout,
			log,
		),
		Relay: services.NewBackendRelay(
			cfg.Backend.URL,
			cfg.Server.RequestTimeout,
			services.BreakerSettings{
				Enabled:     cfg.Backend.BreakerEnabled,
				MaxFailures: cfg.Backend.BreakerMaxFailures,
				Timeout:     cfg.Backend.BreakerTimeout,
			},
			log,
		),
		Tokens:  services.NewTokenProvider(),
		Limiter: services.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst),
		Metrics: observability.NewMetrics(),
	}
	log.Info("✅ Services initialized successfully",
		zap.String("backend_url", cfg.Backend.URL),
		zap.String("proxy_endpoint", cfg.Backend.ProxyEndpoint),
	)

	return deps, nil
}

// Sweepers lists the per-session state the sweeper worker evicts.
func (d Dependencies) Sweepers() map[string]services.Sweeper {
	return map[string]services.Sweeper{
		"intake":     d.Registry,
		"rate_limit": d.Limiter,
	}
}

func newSlotBackend(cfg *config.Config, log *zap.Logger) (repositories.SlotBackend, error) {
	switch cfg.Store.Driver {
	case "postgres":
		db, err := config.InitDatabase(cfg, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return repositories.NewGormSlotBackend(db), nil
	case "file":
		backend, err := repositories.NewFileSlotBackend(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		log.Info("✅ Result slots stored on disk", zap.String("path", cfg.Store.Path))
		return backend, nil
	case "memory", "":
		return repositories.NewMemorySlotBackend(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
