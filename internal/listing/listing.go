// Package listing fetches items through the gateway and prepares the four
// browse tabs: open, lost, found and resolved.
package listing

import (
	"context"
	"fmt"
	"strings"

	"github.com/erazemk/lostfound/internal/gateway"
	"github.com/erazemk/lostfound/internal/model"
)

// Scope selects which items are fetched.
type Scope int

const (
	// ScopeAll fetches every item, for public browsing.
	ScopeAll Scope = iota
	// ScopeOwned fetches only the caller's items, for managing them.
	ScopeOwned
)

// ParseScope maps "all"/"" and "mine" to a Scope.
func ParseScope(s string) (Scope, error) {
	switch s {
	case "", "all":
		return ScopeAll, nil
	case "mine":
		return ScopeOwned, nil
	default:
		return 0, fmt.Errorf("%w: unknown scope %q", gateway.ErrValidation, s)
	}
}

// Tab names, in display order.
const (
	TabOpen     = "open"
	TabLost     = "lost"
	TabFound    = "found"
	TabResolved = "resolved"
)

// Tabs lists the tab names in display order.
var Tabs = []string{TabOpen, TabLost, TabFound, TabResolved}

// Views holds the filtered items split into tabs. The tabs overlap: an open
// lost item is in both Open and Lost. Each keeps the fetch order.
type Views struct {
	Open     []model.Item `json:"open"`
	Lost     []model.Item `json:"lost"`
	Found    []model.Item `json:"found"`
	Resolved []model.Item `json:"resolved"`

	items []model.Item
}

// Fetch loads the base item list for scope.
func Fetch(ctx context.Context, gw gateway.Gateway, caller gateway.Caller, scope Scope) ([]model.Item, error) {
	if scope == ScopeOwned {
		return gw.ListByOwner(ctx, caller, caller.UserID)
	}
	return gw.ListAll(ctx, caller)
}

// Matches reports whether query occurs, ignoring case, in the item's name,
// description or location. The query is used as typed, surrounding spaces
// included. Only the empty query matches everything.
func Matches(item model.Item, query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(item.Name), q) ||
		strings.Contains(strings.ToLower(item.Description), q) ||
		strings.Contains(strings.ToLower(item.Location), q)
}

// Filter returns the items matching query, in their original order. The
// empty query returns items unchanged.
func Filter(items []model.Item, query string) []model.Item {
	if query == "" {
		return items
	}
	var out []model.Item
	for _, item := range items {
		if Matches(item, query) {
			out = append(out, item)
		}
	}
	return out
}

// Partition splits items into the four tabs. Every tab is computed from
// items directly, never from another tab.
func Partition(items []model.Item) Views {
	v := Views{
		Open:     []model.Item{},
		Lost:     []model.Item{},
		Found:    []model.Item{},
		Resolved: []model.Item{},
		items:    items,
	}
	for _, item := range items {
		if item.Status == model.ItemStatusOpen {
			v.Open = append(v.Open, item)
		}
		if item.Status == model.ItemStatusResolved {
			v.Resolved = append(v.Resolved, item)
		}
		if item.Type == model.ItemTypeLost {
			v.Lost = append(v.Lost, item)
		}
		if item.Type == model.ItemTypeFound {
			v.Found = append(v.Found, item)
		}
	}
	return v
}

// Load fetches, filters and partitions in one go.
func Load(ctx context.Context, gw gateway.Gateway, caller gateway.Caller, scope Scope, query string) (Views, error) {
	items, err := Fetch(ctx, gw, caller, scope)
	if err != nil {
		return Partition(nil), err
	}
	return Partition(Filter(items, query)), nil
}

// Tab returns the items of the named tab, or nil for an unknown name.
func (v Views) Tab(name string) []model.Item {
	switch name {
	case TabOpen:
		return v.Open
	case TabLost:
		return v.Lost
	case TabFound:
		return v.Found
	case TabResolved:
		return v.Resolved
	}
	return nil
}

// Counts returns the number of items per tab name.
func (v Views) Counts() map[string]int {
	return map[string]int{
		TabOpen:     len(v.Open),
		TabLost:     len(v.Lost),
		TabFound:    len(v.Found),
		TabResolved: len(v.Resolved),
	}
}

// Items returns the filtered items the tabs were computed from.
func (v Views) Items() []model.Item {
	return v.items
}

// Remove drops the item with the given ID from every tab, for use after a
// successful delete.
func (v Views) Remove(id string) Views {
	kept := make([]model.Item, 0, len(v.items))
	for _, item := range v.items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	return Partition(kept)
}

// Patch replaces the item with the same ID and recomputes the tabs, for use
// after a successful status change.
func (v Views) Patch(updated model.Item) Views {
	patched := make([]model.Item, len(v.items))
	for i, item := range v.items {
		if item.ID == updated.ID {
			item = updated
		}
		patched[i] = item
	}
	return Partition(patched)
}
