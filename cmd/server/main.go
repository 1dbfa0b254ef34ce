// Package main is the entry point for the branchpos API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"branchpos/internal/config"
	"branchpos/internal/core/security"
	"branchpos/internal/domain/auth"
	"branchpos/internal/domain/branch"
	"branchpos/internal/domain/catalogs/product"
	"branchpos/internal/domain/rbac"
	"branchpos/internal/infrastructure/cache"
	v1 "branchpos/internal/infrastructure/http/v1"
	"branchpos/internal/infrastructure/http/v1/handlers"
	"branchpos/internal/infrastructure/metrics"
	"branchpos/internal/infrastructure/storage/postgres"
	"branchpos/internal/infrastructure/storage/postgres/branch_repo"
	"branchpos/internal/infrastructure/storage/postgres/catalog_repo"
	"branchpos/internal/infrastructure/storage/postgres/rbac_repo"
	"branchpos/pkg/logger"
)

// pingFunc adapts a health probe to handlers.Pinger.
type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func main() {
	cfg, err := config.Load()
	if err == nil {
		err = cfg.ValidateServer()
	}
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	logger.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Infow("starting branchpos server", "env", cfg.Env)

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.MaxConns = int32(cfg.DBMaxConns)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatalw("failed to apply migrations", "error", err)
	}
	log.Info("database ready")

	// --- Metrics ---
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.New(reg)
	if err != nil {
		log.Fatalw("failed to register metrics", "error", err)
	}

	// --- Tenancy ---
	runnerCfg := postgres.DefaultRunnerConfig()
	runnerCfg.Strict = cfg.StrictScopes
	runner := postgres.NewRunner(pool, runnerCfg, log, m)
	txManager := postgres.NewTxManager(pool)

	// --- Bootstrap ---
	if cfg.Bootstrap.Enabled {
		bootstrapper := rbac.NewBootstrapper(runner, txManager, rbac_repo.NewBootstrapRepo(), bootstrapConfig(cfg), log, m)
		if _, err := bootstrapper.EnsureDefaults(ctx); err != nil {
			log.Fatalw("bootstrap failed", "error", err)
		}
	}

	// --- Policy ---
	resolver := rbac.NewResolver(rbac_repo.NewPolicyRepo(), log, m)
	cachedResolver := cache.NewCachedResolver(resolver, cfg.PolicyCacheSize, cfg.PolicyCacheTTL, m)
	guard := security.NewGuard(cachedResolver)

	listener := cache.NewPolicyListener(pool.Pool, cachedResolver)
	listener.Start(ctx)
	defer listener.Stop()

	// --- Branch selection ---
	checks := map[string]handlers.Pinger{"database": pool}
	var selections branch.SelectionStore = branch.NewMemoryStore()
	if cfg.RedisAddr != "" {
		rdb, err := cache.NewRedis(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Fatalw("failed to connect to redis", "error", err)
		}
		defer func() { _ = rdb.Close() }()

		selections = cache.NewBranchSelectionStore(rdb, cfg.BranchSessionTTL)
		checks["redis"] = pingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		log.Infow("branch selections stored in redis", "addr", cfg.RedisAddr)
	} else {
		log.Warn("REDIS_ADDR not set, branch selections are kept in process memory")
	}
	selector := branch.NewSelector(branch_repo.NewBranchRepo(), selections, log)

	// --- Services ---
	products := product.NewService(catalog_repo.NewProductRepo(), guard, txManager)
	policies := rbac.NewAdminService(rbac_repo.NewAdminRepo(), txManager, resolver, cachedResolver, log)

	jwtCfg := auth.DefaultJWTConfig(cfg.JWTSecret)
	jwtCfg.Issuer = cfg.JWTIssuer
	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET not set, using an insecure development secret")
		jwtCfg.Secret = "branchpos-development-secret"
	}
	jwtService := auth.NewJWTService(jwtCfg)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:       log,
		Metrics:      m,
		Gatherer:     reg,
		HealthChecks: checks,
		JWTValidator: jwtService,
		Runner:       runner,
		Selector:     selector,
		Guard:        guard,
		Products:     products,
		Policies:     policies,
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	go reportPoolStats(ctx, pool, m)

	<-ctx.Done()
	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func bootstrapConfig(cfg config.Config) rbac.BootstrapConfig {
	return rbac.BootstrapConfig{
		DefaultBranchCode: cfg.Bootstrap.DefaultBranchCode,
		DefaultBranchName: cfg.Bootstrap.DefaultBranchName,
		AdminUsername:     cfg.Bootstrap.AdminUsername,
		AdminPassword:     cfg.Bootstrap.AdminPassword,
		AdminDisplayName:  cfg.Bootstrap.AdminDisplayName,
		AdminBranchCode:   cfg.Bootstrap.AdminBranchCode,
	}
}

// reportPoolStats samples pool usage every 15 seconds until ctx is done.
func reportPoolStats(ctx context.Context, pool *postgres.Pool, m *metrics.Metrics) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pool.ReportStats(ctx, m)
		}
	}
}
