package dto

import "branchpos/internal/domain/branch"

// SelectBranchRequest narrows an administrator's session to one branch.
type SelectBranchRequest struct {
	BranchID string `json:"branchId" binding:"required"`
}

// BranchResponse is the response body for a branch.
type BranchResponse struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	IsActive bool   `json:"isActive"`
}

// SessionBranchResponse describes the session's branch state.
type SessionBranchResponse struct {
	Selected bool            `json:"selected"`
	Fixed    bool            `json:"fixed"`
	BranchID string          `json:"branchId,omitempty"`
	Branch   *BranchResponse `json:"branch,omitempty"`
}

// FromBranchState converts selector state to response DTO.
func FromBranchState(st branch.State) SessionBranchResponse {
	resp := SessionBranchResponse{
		Selected: st.Selected,
		Fixed:    st.Fixed,
		BranchID: st.BranchID,
	}
	if st.Branch != nil {
		resp.Branch = &BranchResponse{
			ID:       st.Branch.ID.String(),
			Code:     st.Branch.Code,
			Name:     st.Branch.Name,
			IsActive: st.Branch.IsActive,
		}
	}
	return resp
}
