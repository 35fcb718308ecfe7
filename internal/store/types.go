package store

import (
	"context"

	"github.com/brizzai/agent-settings/internal/profile"
)

// Client is the sole boundary to the profile service. Reads are at-least-once
// and writes are last-write-wins; the backend decides races between overlapping
// updates.
type Client interface {
	GetProfile(ctx context.Context) (*profile.Profile, error)
	UpdateProfile(ctx context.Context, req UpdateRequest) (*profile.Profile, error)
}

// UpdateRequest is the partial profile update sent to the service. Only the
// preferences document is ever written by this tool.
type UpdateRequest struct {
	Preferences map[string]interface{} `json:"preferences"`
}
