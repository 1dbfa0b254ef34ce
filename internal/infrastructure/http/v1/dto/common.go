// Package dto holds the JSON request and response shapes of the v1 API.
package dto

import (
	"time"

	"branchpos/internal/core/entity"
)

// --- List Response ---

// ListResponse wraps list results with pagination.
type ListResponse struct {
	Items      any   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// --- Base DTOs ---

// BaseResponse contains common response fields.
type BaseResponse struct {
	ID        string    `json:"id"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FromBase creates BaseResponse from entity.BaseEntity.
func FromBase(b entity.BaseEntity) BaseResponse {
	return BaseResponse{
		ID:        b.ID.String(),
		Version:   b.Version,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

// BranchOwnedResponse exposes where a row lives and who owns it.
type BranchOwnedResponse struct {
	BranchID string `json:"branchId"`
	OwnerID  string `json:"ownerId"`
}

// FromBranchOwned creates BranchOwnedResponse from entity.BranchOwned.
func FromBranchOwned(b entity.BranchOwned) BranchOwnedResponse {
	return BranchOwnedResponse{
		BranchID: b.BranchID.String(),
		OwnerID:  b.OwnerID.String(),
	}
}

// --- Success Response ---

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// --- Error Response ---

// ErrorResponse is the body of every non-2xx response. RequestID is set for
// internal errors so operators can find the logged cause.
type ErrorResponse struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"requestId,omitempty"`
}
