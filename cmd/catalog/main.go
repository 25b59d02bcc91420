package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"CatalogService/internal/catalog"
	"CatalogService/internal/config"
	"CatalogService/pkg/kit"
)

const service = "catalog"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := kit.NewLogger(service, cfg.Log.Level)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	log.Debug("configuration loaded", zap.String("config", cfg.String()))

	store := catalog.NewMemStore()
	svc := catalog.NewService(store, log)
	validate := catalog.NewValidator()

	if cfg.Catalog.SeedFile != "" {
		inputs, err := catalog.LoadSeed(cfg.Catalog.SeedFile, validate)
		if err != nil {
			log.Fatal("seed catalog", zap.Error(err))
		}
		seeded := svc.Seed(inputs)
		log.Info("catalog seeded", zap.String("file", cfg.Catalog.SeedFile), zap.Int("products", len(seeded)))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var limiter *kit.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = kit.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}

	srv := &catalog.Server{
		Service:         svc,
		Store:           store,
		Validate:        validate,
		Log:             log,
		DefaultPageSize: cfg.Catalog.DefaultPageSize,
		MaxPageSize:     cfg.Catalog.MaxPageSize,
	}

	h := catalog.NewHandler(srv, catalog.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsToken:   cfg.Metrics.Token,
		WriteLimiter:   limiter,
	})

	serverCfg := kit.ServerConfig{
		Addr:              cfg.Addr(),
		ReadTimeout:       cfg.Server.Timeout.Read,
		WriteTimeout:      cfg.Server.Timeout.Write,
		IdleTimeout:       cfg.Server.Timeout.Idle,
		ReadHeaderTimeout: cfg.Server.Timeout.ReadHeader,
		MaxHeaderBytes:    cfg.Server.MaxHeaderBytes,
		ShutdownTimeout:   cfg.Server.ShutdownTimeout,
	}

	if err := kit.RunHTTPServer(ctx, serverCfg, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
	log.Info("http server stopped")
}
