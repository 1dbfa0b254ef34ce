package dto

import (
	"github.com/shopspring/decimal"

	"branchpos/internal/domain/catalogs/product"
)

// --- Request DTOs ---

// CreateProductRequest is the request body for creating a product.
// Branch and owner are not accepted: they come from the session.
type CreateProductRequest struct {
	SKU      string          `json:"sku" binding:"required"`
	Name     string          `json:"name" binding:"required"`
	Price    decimal.Decimal `json:"price"`
	IsActive *bool           `json:"isActive"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateProductRequest) ToEntity() *product.Product {
	p := product.NewProduct(r.SKU, r.Name, r.Price)
	if r.IsActive != nil {
		p.IsActive = *r.IsActive
	}
	return p
}

// UpdateProductRequest is the request body for updating a product.
type UpdateProductRequest struct {
	SKU      *string          `json:"sku"`
	Name     *string          `json:"name"`
	Price    *decimal.Decimal `json:"price"`
	IsActive *bool            `json:"isActive"`
	Version  int              `json:"version" binding:"required,min=1"`
}

// ToInput converts DTO to the service's update input.
func (r *UpdateProductRequest) ToInput() product.UpdateInput {
	return product.UpdateInput{
		SKU:      r.SKU,
		Name:     r.Name,
		Price:    r.Price,
		IsActive: r.IsActive,
		Version:  r.Version,
	}
}

// --- Response DTOs ---

// ProductResponse is the response body for a product.
type ProductResponse struct {
	BaseResponse
	BranchOwnedResponse
	SKU      string          `json:"sku"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	IsActive bool            `json:"isActive"`
}

// FromProduct converts domain entity to response DTO.
func FromProduct(p *product.Product) ProductResponse {
	return ProductResponse{
		BaseResponse:        FromBase(p.BaseEntity),
		BranchOwnedResponse: FromBranchOwned(p.BranchOwned),
		SKU:                 p.SKU,
		Name:                p.Name,
		Price:               p.Price,
		IsActive:            p.IsActive,
	}
}
