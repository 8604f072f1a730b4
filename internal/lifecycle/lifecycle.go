// Package lifecycle holds the actions an owner can take on a posting after it
// was published.
package lifecycle

import (
	"context"
	"fmt"

	"github.com/erazemk/lostfound/internal/gateway"
	"github.com/erazemk/lostfound/internal/model"
)

var (
	// ErrAlreadyResolved is returned when resolving an item that is not open.
	ErrAlreadyResolved = fmt.Errorf("%w: item is already resolved", gateway.ErrValidation)
	// ErrNotConfirmed is returned when a delete arrives without confirmation.
	ErrNotConfirmed = fmt.Errorf("%w: deletion was not confirmed", gateway.ErrValidation)
)

// MarkResolved moves an open item to resolved and returns the updated copy.
// A resolved item is rejected without contacting the backend.
func MarkResolved(ctx context.Context, gw gateway.Gateway, caller gateway.Caller, item model.Item) (model.Item, error) {
	if item.Status != model.ItemStatusOpen {
		return item, ErrAlreadyResolved
	}
	if err := gw.UpdateStatus(ctx, caller, item.ID, model.ItemStatusResolved); err != nil {
		return item, err
	}
	item.Status = model.ItemStatusResolved
	return item, nil
}

// DeleteRecord permanently removes an item once the user has confirmed it.
func DeleteRecord(ctx context.Context, gw gateway.Gateway, caller gateway.Caller, item model.Item, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	return gw.Delete(ctx, caller, item.ID)
}

// Lookup finds one item by ID for a caller who only has its ID. Items the
// caller does not own are reported as ErrPermission, unknown IDs as
// ErrNotFound.
func Lookup(ctx context.Context, gw gateway.Gateway, caller gateway.Caller, id string) (model.Item, error) {
	owned, err := gw.ListByOwner(ctx, caller, caller.UserID)
	if err != nil {
		return model.Item{}, err
	}
	if item, ok := find(owned, id); ok {
		return item, nil
	}

	all, err := gw.ListAll(ctx, caller)
	if err != nil {
		return model.Item{}, err
	}
	if _, ok := find(all, id); ok {
		return model.Item{}, gateway.ErrPermission
	}
	return model.Item{}, gateway.ErrNotFound
}

func find(items []model.Item, id string) (model.Item, bool) {
	for _, item := range items {
		if item.ID == id {
			return item, true
		}
	}
	return model.Item{}, false
}
