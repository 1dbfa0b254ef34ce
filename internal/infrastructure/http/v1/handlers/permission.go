package handlers

import (
	"github.com/gin-gonic/gin"

	"branchpos/internal/domain/rbac"
	"branchpos/internal/infrastructure/http/v1/dto"
)

// PermissionHandler exposes policy administration.
type PermissionHandler struct {
	*BaseHandler
	admin *rbac.AdminService
}

// NewPermissionHandler creates a new permission handler.
func NewPermissionHandler(base *BaseHandler, admin *rbac.AdminService) *PermissionHandler {
	return &PermissionHandler{BaseHandler: base, admin: admin}
}

// Explain handles GET /permissions/explain.
func (h *PermissionHandler) Explain(c *gin.Context) {
	var q dto.ExplainQuery
	if !h.BindQuery(c, &q) {
		return
	}

	e, err := h.admin.Explain(c.Request.Context(), q.UserID, q.Role, q.Resource, q.Action)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromExplanation(e))
}

// SetUserOverride handles PUT /permissions/users/:userId/:resource/:action.
func (h *PermissionHandler) SetUserOverride(c *gin.Context) {
	userID, ok := h.ParseID(c, "userId")
	if !ok {
		return
	}

	var req dto.RuleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.admin.SetUserOverride(c.Request.Context(), userID, req.ToInput(c.Param("resource"), c.Param("action"))); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// DeleteUserOverride handles DELETE /permissions/users/:userId/:resource/:action.
func (h *PermissionHandler) DeleteUserOverride(c *gin.Context) {
	userID, ok := h.ParseID(c, "userId")
	if !ok {
		return
	}

	if err := h.admin.DeleteUserOverride(c.Request.Context(), userID, c.Param("resource"), c.Param("action")); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// SetRoleDefault handles PUT /permissions/roles/:role/:resource/:action.
func (h *PermissionHandler) SetRoleDefault(c *gin.Context) {
	var req dto.RuleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.admin.SetRoleDefault(c.Request.Context(), c.Param("role"), req.ToInput(c.Param("resource"), c.Param("action"))); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}
