package rbac

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"branchpos/internal/core/id"
	"branchpos/internal/core/security"
	"branchpos/internal/core/tenancy"
	"branchpos/internal/core/tx"
	"branchpos/pkg/logger"
)

// BootstrapConfig configures EnsureDefaults.
type BootstrapConfig struct {
	DefaultBranchCode string
	DefaultBranchName string

	// The admin user is seeded only when both username and password are set.
	AdminUsername    string
	AdminPassword    string
	AdminDisplayName string
	// AdminBranchCode selects the admin's branch; empty means the first active branch.
	AdminBranchCode string
}

// DefaultBootstrapConfig returns the built-in branch settings and no admin user.
func DefaultBootstrapConfig() BootstrapConfig {
	return BootstrapConfig{
		DefaultBranchCode: "MAIN",
		DefaultBranchName: "Main branch",
		AdminDisplayName:  "Administrator",
	}
}

// Report summarizes one bootstrap run.
type Report struct {
	RolesCreated     int  `json:"rolesCreated"`
	ActionsCreated   int  `json:"actionsCreated"`
	ResourcesCreated int  `json:"resourcesCreated"`
	BranchCreated    bool `json:"branchCreated"`
	DefaultsInserted int  `json:"defaultsInserted"`
	AdminSeeded      bool `json:"adminSeeded"`
	AdminCreated     bool `json:"adminCreated"`
}

// BootstrapRecorder receives the outcome of each run.
type BootstrapRecorder interface {
	BootstrapRun(outcome string)
}

// Bootstrapper seeds the role, action, resource and branch vocabulary and fills in
// missing role defaults from DefaultRules. Existing rows are never modified.
type Bootstrapper struct {
	runner   tenancy.Runner
	txm      tx.Manager
	store    BootstrapStore
	cfg      BootstrapConfig
	log      *logger.Logger
	recorder BootstrapRecorder

	// hash is swapped for a cheap func in tests.
	hash func(password string) (string, error)
}

// NewBootstrapper creates a bootstrapper. recorder may be nil.
func NewBootstrapper(
	runner tenancy.Runner,
	txm tx.Manager,
	store BootstrapStore,
	cfg BootstrapConfig,
	log *logger.Logger,
	recorder BootstrapRecorder,
) *Bootstrapper {
	if cfg.DefaultBranchCode == "" {
		cfg.DefaultBranchCode = DefaultBootstrapConfig().DefaultBranchCode
	}
	if cfg.DefaultBranchName == "" {
		cfg.DefaultBranchName = DefaultBootstrapConfig().DefaultBranchName
	}
	return &Bootstrapper{
		runner:   runner,
		txm:      txm,
		store:    store,
		cfg:      cfg,
		log:      log.WithComponent("rbac-bootstrap"),
		recorder: recorder,
		hash:     hashPassword,
	}
}

func hashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// EnsureDefaults runs the whole seed under the admin-equivalent stamp in one
// transaction. Any failure rolls everything back.
func (b *Bootstrapper) EnsureDefaults(ctx context.Context) (Report, error) {
	var rep Report

	err := b.runner.Run(ctx, tenancy.SystemParams(), func(ctx context.Context) error {
		return b.txm.RunInTransaction(ctx, func(ctx context.Context) error {
			rep = Report{}
			return b.ensure(ctx, &rep)
		})
	})
	if err != nil {
		b.record("failed")
		return Report{}, fmt.Errorf("bootstrap: %w", err)
	}

	b.record("ok")
	b.log.WithContext(ctx).Infow("bootstrap completed",
		"roles_created", rep.RolesCreated,
		"actions_created", rep.ActionsCreated,
		"resources_created", rep.ResourcesCreated,
		"branch_created", rep.BranchCreated,
		"defaults_inserted", rep.DefaultsInserted,
		"admin_seeded", rep.AdminSeeded,
	)
	return rep, nil
}

func (b *Bootstrapper) record(outcome string) {
	if b.recorder != nil {
		b.recorder.BootstrapRun(outcome)
	}
}

func (b *Bootstrapper) ensure(ctx context.Context, rep *Report) error {
	roles, err := b.ensureRoles(ctx, rep)
	if err != nil {
		return err
	}

	for _, a := range security.Actions {
		created, err := b.store.EnsureAction(ctx, a)
		if err != nil {
			return fmt.Errorf("ensure action %s: %w", a, err)
		}
		if created {
			rep.ActionsCreated++
		}
	}

	for _, entry := range Catalog() {
		created, err := b.store.EnsureResource(ctx, entry)
		if err != nil {
			return fmt.Errorf("ensure resource %s: %w", entry.Key, err)
		}
		if created {
			rep.ResourcesCreated++
		}
	}

	created, err := b.store.EnsureBranch(ctx, b.cfg.DefaultBranchCode, b.cfg.DefaultBranchName)
	if err != nil {
		return fmt.Errorf("ensure branch: %w", err)
	}
	rep.BranchCreated = created

	if err := b.ensureRoleDefaults(ctx, rep); err != nil {
		return err
	}

	return b.ensureAdmin(ctx, roles[security.RoleAdmin], rep)
}

// ensureRoles creates the canonical roles that no stored alias already covers.
func (b *Bootstrapper) ensureRoles(ctx context.Context, rep *Report) (map[security.Role]Role, error) {
	stored, err := b.store.ListRoles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}

	byCanon := make(map[security.Role]Role, len(security.Roles))
	for _, r := range stored {
		if canon, ok := security.NormalizeRole(r.Name); ok {
			if _, dup := byCanon[canon]; !dup {
				byCanon[canon] = r
			}
		}
	}

	for _, canon := range security.Roles {
		if _, ok := byCanon[canon]; ok {
			continue
		}
		r, err := b.store.CreateRole(ctx, string(canon))
		if err != nil {
			return nil, fmt.Errorf("create role %s: %w", canon, err)
		}
		byCanon[canon] = r
		rep.RolesCreated++
	}
	return byCanon, nil
}

func (b *Bootstrapper) ensureRoleDefaults(ctx context.Context, rep *Report) error {
	roles, err := b.store.ListRoles(ctx)
	if err != nil {
		return fmt.Errorf("list roles: %w", err)
	}
	resources, err := b.store.ListActiveResources(ctx)
	if err != nil {
		return fmt.Errorf("list resources: %w", err)
	}
	actions, err := b.store.ListActiveActions(ctx)
	if err != nil {
		return fmt.Errorf("list actions: %w", err)
	}
	existing, err := b.store.ExistingRoleDefaults(ctx)
	if err != nil {
		return fmt.Errorf("load role defaults: %w", err)
	}

	plan := PlanDefaults(roles, resources, actions, existing)
	if len(plan) == 0 {
		return nil
	}

	n, err := b.store.InsertRoleDefaults(ctx, plan)
	if err != nil {
		return fmt.Errorf("insert role defaults: %w", err)
	}
	rep.DefaultsInserted = n
	return nil
}

func (b *Bootstrapper) ensureAdmin(ctx context.Context, adminRole Role, rep *Report) error {
	if b.cfg.AdminUsername == "" || b.cfg.AdminPassword == "" {
		return nil
	}

	var (
		branchID id.ID
		err      error
	)
	if b.cfg.AdminBranchCode != "" {
		branchID, err = b.store.BranchByCode(ctx, b.cfg.AdminBranchCode)
	} else {
		branchID, err = b.store.FirstActiveBranch(ctx)
	}
	if err != nil {
		return fmt.Errorf("resolve admin branch: %w", err)
	}

	hash, err := b.hash(b.cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	created, err := b.store.UpsertAdminUser(ctx, AdminUser{
		ID:           id.New(),
		Username:     b.cfg.AdminUsername,
		DisplayName:  b.cfg.AdminDisplayName,
		PasswordHash: hash,
		RoleID:       adminRole.ID,
		BranchID:     branchID,
	})
	if err != nil {
		return fmt.Errorf("upsert admin user: %w", err)
	}

	rep.AdminSeeded = true
	rep.AdminCreated = created
	return nil
}
