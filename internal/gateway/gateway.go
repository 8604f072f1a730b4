// Package gateway is the only path from the application to the backend that
// holds items, author profiles and uploaded images.
package gateway

import (
	"context"

	"github.com/erazemk/lostfound/internal/model"
)

// Caller identifies the user on whose behalf a call is made. The backend's
// access policy is evaluated against it.
type Caller struct {
	UserID string
}

// Anonymous reports whether the caller carries no identity.
func (c Caller) Anonymous() bool {
	return c.UserID == ""
}

// Gateway is the contract of the backend. Every call is one round trip; no
// results are cached and nothing is retried.
type Gateway interface {
	// ListAll returns every item joined with its author, newest first.
	ListAll(ctx context.Context, caller Caller) ([]model.Item, error)
	// ListByOwner returns the items posted by ownerID, newest first.
	ListByOwner(ctx context.Context, caller Caller, ownerID string) ([]model.Item, error)
	// Insert stores a new item and returns its ID.
	Insert(ctx context.Context, caller Caller, item model.NewItem) (string, error)
	// UpdateStatus changes the status of one item owned by the caller.
	UpdateStatus(ctx context.Context, caller Caller, id string, status model.ItemStatus) error
	// Delete permanently removes one item owned by the caller.
	Delete(ctx context.Context, caller Caller, id string) error
	// UploadImage stores an image for ownerID and returns its public URL.
	UploadImage(ctx context.Context, caller Caller, ownerID string, data []byte, ext string) (string, error)
}
