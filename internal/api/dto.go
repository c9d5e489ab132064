package api

import (
	"github.com/starford/coursemover/internal/move"
	"github.com/starford/coursemover/internal/session"
)

// OpenSessionRequest is the request body for opening a move session.
type OpenSessionRequest = session.Params

// OpenSessionResponse is returned while the session loads.
type OpenSessionResponse struct {
	ID    string        `json:"id" example:"3f1c2a9e-0d7b-4c55-9a57-6c1b7f2b1e11" validate:"required"`
	State session.State `json:"state" example:"loading" validate:"required"`
}

// SessionSummary is one entry of the session listing.
type SessionSummary struct {
	ID     string         `json:"id" validate:"required"`
	State  session.State  `json:"state" validate:"required"`
	Source session.Params `json:"source" validate:"required"`
}

// SessionListResponse wraps the session listing.
type SessionListResponse struct {
	Sessions []SessionSummary `json:"sessions" validate:"required"`
}

// DescendRequest names the child row to open.
type DescendRequest struct {
	Index *int `json:"index" example:"1" validate:"required"`
}

// AscendRequest names the breadcrumb depth to return to.
type AscendRequest struct {
	Depth *int `json:"depth" example:"0" validate:"required"`
}

// MoveRequest optionally pins the position under the new parent.
type MoveRequest struct {
	TargetIndex *int `json:"target_index,omitempty" example:"0"`
}

// BannerResponse wraps the confirmation shown after a move or an undo.
type BannerResponse struct {
	Banner *move.Banner `json:"banner" validate:"required"`
	HTML   string       `json:"html" validate:"required"`
}
