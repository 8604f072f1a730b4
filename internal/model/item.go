package model

import (
	"fmt"
	"strings"
	"time"
)

// ItemType says whether a posting reports a lost or a found item.
type ItemType string

// Item types.
const (
	ItemTypeLost  ItemType = "lost"
	ItemTypeFound ItemType = "found"
)

// ItemStatus is the lifecycle state of a posting.
type ItemStatus string

// Item statuses. An item starts open and may only move to resolved.
const (
	ItemStatusOpen     ItemStatus = "open"
	ItemStatusResolved ItemStatus = "resolved"
)

// DateLayout is the calendar date format used for Item.Date.
const DateLayout = "2006-01-02"

// Profile is the public part of the user who posted an item.
type Profile struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// Item is a lost or found posting joined with its author's profile.
type Item struct {
	ID          string     `json:"id"`
	Type        ItemType   `json:"type"`
	Name        string     `json:"item_name"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	Date        time.Time  `json:"date"`
	Status      ItemStatus `json:"status"`
	ImageURL    string     `json:"image_url,omitempty"`
	PostedBy    string     `json:"posted_by"`
	CreatedAt   time.Time  `json:"created_at"`

	// Joined from the author's user record.
	Author Profile `json:"profiles"`
}

// NewItem is the payload for inserting an item. ID and CreatedAt are assigned
// by the store.
type NewItem struct {
	Type        ItemType
	Name        string
	Description string
	Location    string
	Date        time.Time
	Status      ItemStatus
	ImageURL    string
	PostedBy    string
}

// ValidItemType reports whether t is one of the known item types.
func ValidItemType(t ItemType) bool {
	return t == ItemTypeLost || t == ItemTypeFound
}

// ValidItemStatus reports whether s is one of the known item statuses.
func ValidItemStatus(s ItemStatus) bool {
	return s == ItemStatusOpen || s == ItemStatusResolved
}

// CanTransition reports whether an item may move from one status to another.
func CanTransition(from, to ItemStatus) bool {
	return from == ItemStatusOpen && to == ItemStatusResolved
}

// ParseDate parses a calendar date in DateLayout.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be in YYYY-MM-DD format")
	}
	return d, nil
}
