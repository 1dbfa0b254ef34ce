// Package product provides the branch-partitioned product catalog.
package product

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"branchpos/internal/core/apperror"
	"branchpos/internal/core/entity"
)

// Resource is the permission resource guarding products.
const Resource = "products.page"

// Product is an item sold in one branch.
type Product struct {
	entity.BaseEntity
	entity.BranchOwned

	// SKU is unique within a branch
	SKU string `db:"sku" json:"sku"`

	Name string `db:"name" json:"name"`

	Price decimal.Decimal `db:"price" json:"price"`

	IsActive bool `db:"is_active" json:"isActive"`
}

// NewProduct creates an active product. Branch and owner are assigned on create.
func NewProduct(sku, name string, price decimal.Decimal) *Product {
	return &Product{
		BaseEntity: entity.NewBaseEntity(),
		SKU:        sku,
		Name:       name,
		Price:      price,
		IsActive:   true,
	}
}

// Normalize trims user input.
func (p *Product) Normalize() {
	p.SKU = strings.ToUpper(strings.TrimSpace(p.SKU))
	p.Name = strings.TrimSpace(p.Name)
}

var _ entity.Validatable = (*Product)(nil)

// Validate checks the fields a client can set. Branch and owner are not
// checked here: they are stamped from the scope after validation.
func (p *Product) Validate(ctx context.Context) error {
	if p.SKU == "" {
		return apperror.NewValidation("sku is required").WithDetail("field", "sku")
	}
	if p.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if p.Price.IsNegative() {
		return apperror.NewValidation("price must not be negative").WithDetail("field", "price")
	}
	if !p.Price.Equal(p.Price.Round(2)) {
		return apperror.NewValidation("price has more than two decimal places").WithDetail("field", "price")
	}
	return nil
}
