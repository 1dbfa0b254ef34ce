package handlers

import (
	"github.com/gin-gonic/gin"

	"branchpos/internal/domain/branch"
	"branchpos/internal/infrastructure/http/v1/dto"
)

// SessionHandler exposes the branch selection of the current session.
type SessionHandler struct {
	*BaseHandler
	selector *branch.Selector
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(base *BaseHandler, selector *branch.Selector) *SessionHandler {
	return &SessionHandler{BaseHandler: base, selector: selector}
}

// GetBranch handles GET /session/branch.
func (h *SessionHandler) GetBranch(c *gin.Context) {
	user, ok := h.User(c)
	if !ok {
		return
	}

	st, err := h.selector.Current(c.Request.Context(), user)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromBranchState(st))
}

// SelectBranch handles POST /session/branch. Administrators only.
func (h *SessionHandler) SelectBranch(c *gin.Context) {
	user, ok := h.User(c)
	if !ok {
		return
	}

	var req dto.SelectBranchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	st, err := h.selector.Select(c.Request.Context(), user, req.BranchID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromBranchState(st))
}

// ClearBranch handles DELETE /session/branch.
func (h *SessionHandler) ClearBranch(c *gin.Context) {
	user, ok := h.User(c)
	if !ok {
		return
	}

	if err := h.selector.Clear(c.Request.Context(), user.SessionID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// Logout handles POST /session/logout. Token revocation belongs to the identity
// service; here the session's branch selection is dropped.
func (h *SessionHandler) Logout(c *gin.Context) {
	user, ok := h.User(c)
	if !ok {
		return
	}

	if err := h.selector.Clear(c.Request.Context(), user.SessionID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "logged out")
}
