// Package main provides a one-shot CLI that seeds the permission catalog, role
// defaults, default branch and optional admin user. Safe to run on every deploy.
package main

import (
	"context"
	"fmt"
	"os"

	"branchpos/internal/config"
	"branchpos/internal/domain/rbac"
	"branchpos/internal/infrastructure/storage/postgres"
	"branchpos/internal/infrastructure/storage/postgres/rbac_repo"
	"branchpos/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatalw("failed to apply migrations", "error", err)
	}

	runner := postgres.NewRunner(pool, postgres.DefaultRunnerConfig(), log, nil)
	bootstrapper := rbac.NewBootstrapper(
		runner,
		postgres.NewTxManager(pool),
		rbac_repo.NewBootstrapRepo(),
		rbac.BootstrapConfig{
			DefaultBranchCode: cfg.Bootstrap.DefaultBranchCode,
			DefaultBranchName: cfg.Bootstrap.DefaultBranchName,
			AdminUsername:     cfg.Bootstrap.AdminUsername,
			AdminPassword:     cfg.Bootstrap.AdminPassword,
			AdminDisplayName:  cfg.Bootstrap.AdminDisplayName,
			AdminBranchCode:   cfg.Bootstrap.AdminBranchCode,
		},
		log,
		nil,
	)

	report, err := bootstrapper.EnsureDefaults(ctx)
	if err != nil {
		log.Fatalw("bootstrap failed", "error", err)
	}

	log.Infow("bootstrap completed successfully",
		"roles_created", report.RolesCreated,
		"actions_created", report.ActionsCreated,
		"resources_created", report.ResourcesCreated,
		"branch_created", report.BranchCreated,
		"defaults_inserted", report.DefaultsInserted,
		"admin_created", report.AdminCreated,
	)

	q, err := runner.Unscoped(ctx)
	if err != nil {
		log.Fatalw("open maintenance querier", "error", err)
	}
	counts, err := rbac_repo.RoleDefaultCounts(ctx, q)
	if err != nil {
		log.Fatalw("summarize role defaults", "error", err)
	}
	for _, c := range counts {
		log.Infow("role defaults", "role", c.Role, "rows", c.Total, "allow", c.Allow)
	}
}
