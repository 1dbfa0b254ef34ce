// Package branch_repo provides the PostgreSQL branch repository.
package branch_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"branchpos/internal/core/apperror"
	"branchpos/internal/core/id"
	"branchpos/internal/domain/branch"
	"branchpos/internal/infrastructure/storage/postgres"
)

// Compile-time check that BranchRepo implements branch.Repository.
var _ branch.Repository = (*BranchRepo)(nil)

var branchColumns = []string{"id", "code", "name", "is_active", "created_at", "updated_at"}

// BranchRepo reads branches on the ambient scope's connection.
type BranchRepo struct{}

// NewBranchRepo creates a new branch repository.
func NewBranchRepo() *BranchRepo {
	return &BranchRepo{}
}

// GetByID implements branch.Repository.
func (r *BranchRepo) GetByID(ctx context.Context, branchID id.ID) (*branch.Branch, error) {
	q, err := postgres.QuerierFromContext(ctx)
	if err != nil {
		return nil, err
	}

	sql, args, err := postgres.Builder().
		Select(branchColumns...).
		From("branches").
		Where("id = ?", branchID).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var b branch.Branch
	if err := pgxscan.Get(ctx, q, &b, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("branch", branchID.String())
		}
		return nil, fmt.Errorf("get branch: %w", err)
	}
	return &b, nil
}

// ListActive implements branch.Repository.
func (r *BranchRepo) ListActive(ctx context.Context) ([]branch.Branch, error) {
	q, err := postgres.QuerierFromContext(ctx)
	if err != nil {
		return nil, err
	}

	sql, args, err := postgres.Builder().
		Select(branchColumns...).
		From("branches").
		Where("is_active").
		OrderBy("code").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []branch.Branch
	if err := pgxscan.Select(ctx, q, &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	return out, nil
}
