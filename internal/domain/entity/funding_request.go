package entity

import (
	"time"

	"github.com/garyjia/funding-workflow/internal/domain/workflow"
)

// FundingRequest represents one expense-funding request and its decision
type FundingRequest struct {
	ID            string         `json:"id"`
	FormData      FormData       `json:"form_data"`
	DecisionToken string         `json:"decision_token"`
	Status        workflow.State `json:"status"`
	SubmittedAt   time.Time      `json:"submitted_at"`
	SubmittedBy   string         `json:"submitted_by"`
	SubmitterName string         `json:"submitter_name,omitempty"`
	DecidedAt     *time.Time     `json:"decided_at,omitempty"`
	Comments      string         `json:"comments,omitempty"`
}

// IsDecided returns true once the request has left the pending state
func (r *FundingRequest) IsDecided() bool {
	return r.Status != workflow.StatePending
}

// Clone returns a copy that shares nothing mutable with r
func (r *FundingRequest) Clone() *FundingRequest {
	if r == nil {
		return nil
	}
	out := *r
	out.FormData = r.FormData.Clone()
	if r.DecidedAt != nil {
		t := *r.DecidedAt
		out.DecidedAt = &t
	}
	return &out
}

// Identity is a verified requester identity as supplied by the identity provider
type Identity struct {
	Email string   `json:"email"`
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
}

// HasRole reports whether the identity carries role
func (i *Identity) HasRole(role string) bool {
	if i == nil {
		return false
	}
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}
