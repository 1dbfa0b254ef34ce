// Package catalog_repo provides PostgreSQL implementations for catalog repositories.
// Queries run on the connection of the ambient tenancy scope and are narrowed by
// the caller's scope filter in addition to row-level security.
package catalog_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"branchpos/internal/core/apperror"
	"branchpos/internal/core/id"
	"branchpos/internal/core/security"
	"branchpos/internal/domain"
	"branchpos/internal/domain/catalogs/product"
	"branchpos/internal/infrastructure/storage/postgres"
)

// Compile-time check that ProductRepo implements product.Repository.
var _ product.Repository = (*ProductRepo)(nil)

const productTable = "products"

var productColumns = postgres.ExtractDBColumns[product.Product]()

// ProductRepo implements product.Repository.
type ProductRepo struct {
	cols postgres.ScopeColumns
}

// NewProductRepo creates a new product repository.
func NewProductRepo() *ProductRepo {
	return &ProductRepo{cols: postgres.DefaultScopeColumns}
}

func (r *ProductRepo) baseSelect(scope security.Filter) squirrel.SelectBuilder {
	q := postgres.Builder().
		Select(productColumns...).
		From(productTable)
	return postgres.ApplyScope(q, scope, r.cols)
}

func applySearch(q squirrel.SelectBuilder, search string) squirrel.SelectBuilder {
	search = strings.TrimSpace(search)
	if search == "" {
		return q
	}
	pattern := "%" + search + "%"
	return q.Where(squirrel.Or{
		squirrel.ILike{"name": pattern},
		squirrel.ILike{"sku": pattern},
	})
}

// List implements product.Repository.
func (r *ProductRepo) List(ctx context.Context, scope security.Filter, filter domain.ListFilter) (domain.ListResult[*product.Product], error) {
	result := domain.ListResult[*product.Product]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	querier, err := postgres.QuerierFromContext(ctx)
	if err != nil {
		return result, err
	}

	q := applySearch(r.baseSelect(scope), filter.Search)

	// Count total (before pagination)
	countSQL, countArgs, err := postgres.Builder().
		Select("COUNT(*)").
		FromSelect(q, "sub").
		ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	orderBy, err := parseOrderBy(filter.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy)

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list: %w", err)
	}

	return result, nil
}

// GetByID implements product.Repository.
func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID, scope security.Filter) (*product.Product, error) {
	querier, err := postgres.QuerierFromContext(ctx)
	if err != nil {
		return nil, err
	}

	sql, args, err := r.baseSelect(scope).
		Where(squirrel.Eq{"id": productID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p product.Product
	if err := pgxscan.Get(ctx, querier, &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", productID.String())
		}
		return nil, fmt.Errorf("get by id: %w", err)
	}

	return &p, nil
}

// Create implements product.Repository.
func (r *ProductRepo) Create(ctx context.Context, p *product.Product) error {
	querier, err := postgres.QuerierFromContext(ctx)
	if err != nil {
		return err
	}

	sql, args, err := insertProduct(p).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("product", "sku", p.SKU).WithCause(err)
		}
		if postgres.IsForeignKeyViolation(err) {
			return apperror.NewValidation("unknown branch or owner").WithCause(err)
		}
		return fmt.Errorf("insert %s: %w", productTable, err)
	}

	return nil
}

// Update implements product.Repository. The version check and the scope filter
// are part of the WHERE clause; zero affected rows is reported as a concurrent
// modification.
func (r *ProductRepo) Update(ctx context.Context, p *product.Product, scope security.Filter) error {
	querier, err := postgres.QuerierFromContext(ctx)
	if err != nil {
		return err
	}

	sql, args, err := r.updateProduct(p, scope).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("product", "sku", p.SKU).WithCause(err)
		}
		return fmt.Errorf("update %s: %w", productTable, err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("product", p.ID.String())
	}

	p.Version++
	return nil
}

// Delete implements product.Repository.
func (r *ProductRepo) Delete(ctx context.Context, productID id.ID, scope security.Filter) error {
	querier, err := postgres.QuerierFromContext(ctx)
	if err != nil {
		return err
	}

	q := postgres.Builder().
		Delete(productTable).
		Where(squirrel.Eq{"id": productID})
	q = postgres.ApplyScopeDelete(q, scope, r.cols)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return apperror.NewConflict("product is referenced by other records").
				WithDetail("id", productID.String()).
				WithCause(err)
		}
		return fmt.Errorf("execute delete %s: %w", productTable, err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("product", productID.String())
	}

	return nil
}

func insertProduct(p *product.Product) squirrel.InsertBuilder {
	return postgres.Builder().
		Insert(productTable).
		Columns(productColumns...).
		Values(postgres.ColumnValues(p, productColumns)...)
}

// updateProduct never writes branch_id or owner_id.
func (r *ProductRepo) updateProduct(p *product.Product, scope security.Filter) squirrel.UpdateBuilder {
	q := postgres.Builder().
		Update(productTable).
		Set("sku", p.SKU).
		Set("name", p.Name).
		Set("price", p.Price).
		Set("is_active", p.IsActive).
		Set("updated_at", p.UpdatedAt).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": p.ID}).
		Where(squirrel.Eq{"version": p.Version}) // optimistic lock: expect current version
	return postgres.ApplyScopeUpdate(q, scope, r.cols)
}

// parseOrderBy maps "name" / "-created_at" to a whitelisted ORDER BY clause.
func parseOrderBy(orderBy string) (string, error) {
	allowed := map[string]struct{}{
		"name": {}, "sku": {}, "price": {}, "created_at": {}, "updated_at": {},
	}

	if orderBy == "" {
		return "name ASC", nil
	}

	// Support "-field" for DESC.
	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	} else if strings.HasPrefix(orderBy, "+") {
		field = strings.TrimPrefix(orderBy, "+")
	}

	field = strings.TrimSpace(field)
	if _, ok := allowed[field]; !ok {
		return "", apperror.NewValidation("invalid orderBy").WithDetail("orderBy", orderBy)
	}

	return field + " " + direction, nil
}
