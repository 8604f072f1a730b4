package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/erazemk/lostfound/internal/db"
	"github.com/erazemk/lostfound/internal/model"
)

func createTestUser(t *testing.T, database *sql.DB, email, name string) *model.User {
	t.Helper()
	user, err := CreateUser(context.Background(), database, email, name, "hash")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return user
}

func newItem(postedBy, name string, itemType model.ItemType) model.NewItem {
	return model.NewItem{
		Type:        itemType,
		Name:        name,
		Description: name + " description",
		Location:    "Library",
		Date:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		PostedBy:    postedBy,
	}
}

func TestCreateAndGetItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, database, "alice@campus.edu", "Alice")

	item, err := CreateItem(ctx, database, newItem(alice.ID, "Blue backpack", model.ItemTypeLost))
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if item.ID == "" {
		t.Error("expected generated item id")
	}
	if item.Status != model.ItemStatusOpen {
		t.Errorf("expected status 'open', got %q", item.Status)
	}
	if item.Date.Format(model.DateLayout) != "2024-03-01" {
		t.Errorf("expected date 2024-03-01, got %s", item.Date.Format(model.DateLayout))
	}
	if item.Author.FullName != "Alice" || item.Author.Email != "alice@campus.edu" {
		t.Errorf("expected joined author profile, got %+v", item.Author)
	}
	if item.ImageURL != "" {
		t.Errorf("expected no image url, got %q", item.ImageURL)
	}
}

func TestCreateItemRejectsUnknownType(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, database, "alice@campus.edu", "Alice")

	_, err := CreateItem(ctx, database, newItem(alice.ID, "Umbrella", "stolen"))
	if err == nil {
		t.Error("expected check constraint error for unknown type")
	}
}

func TestCreateItemRequiresExistingUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	_, err := CreateItem(ctx, database, newItem("nobody", "Umbrella", model.ItemTypeFound))
	if err == nil {
		t.Error("expected foreign key error for unknown user")
	}
}

func TestListItemsNewestFirst(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, database, "alice@campus.edu", "Alice")
	bob := createTestUser(t, database, "bob@campus.edu", "Bob")

	CreateItem(ctx, database, newItem(alice.ID, "First", model.ItemTypeLost))
	CreateItem(ctx, database, newItem(bob.ID, "Second", model.ItemTypeFound))
	CreateItem(ctx, database, newItem(alice.ID, "Third", model.ItemTypeFound))

	all, err := ListItems(ctx, database, "")
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 items, got %d", len(all))
	}
	if all[0].Name != "Third" || all[2].Name != "First" {
		t.Errorf("expected newest first, got %s, %s, %s", all[0].Name, all[1].Name, all[2].Name)
	}

	mine, _ := ListItems(ctx, database, alice.ID)
	if len(mine) != 2 {
		t.Fatalf("expected 2 items for alice, got %d", len(mine))
	}
	for _, item := range mine {
		if item.PostedBy != alice.ID {
			t.Errorf("expected only alice's items, got one posted by %s", item.PostedBy)
		}
	}
}

func TestUpdateItemStatusScopedToOwner(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, database, "alice@campus.edu", "Alice")
	bob := createTestUser(t, database, "bob@campus.edu", "Bob")

	item, _ := CreateItem(ctx, database, newItem(alice.ID, "Keys", model.ItemTypeLost))

	ok, err := UpdateItemStatus(ctx, database, item.ID, bob.ID, model.ItemStatusResolved)
	if err != nil {
		t.Fatalf("UpdateItemStatus: %v", err)
	}
	if ok {
		t.Error("expected no update for a non-owner")
	}

	ok, err = UpdateItemStatus(ctx, database, item.ID, alice.ID, model.ItemStatusResolved)
	if err != nil || !ok {
		t.Fatalf("UpdateItemStatus by owner: ok=%v err=%v", ok, err)
	}

	got, _ := GetItem(ctx, database, item.ID)
	if got.Status != model.ItemStatusResolved {
		t.Errorf("expected resolved, got %q", got.Status)
	}
}

func TestResolvedStatusIsTerminal(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, database, "alice@campus.edu", "Alice")

	item, _ := CreateItem(ctx, database, newItem(alice.ID, "Keys", model.ItemTypeLost))
	UpdateItemStatus(ctx, database, item.ID, alice.ID, model.ItemStatusResolved)

	_, err := UpdateItemStatus(ctx, database, item.ID, alice.ID, model.ItemStatusOpen)
	if err == nil {
		t.Error("expected error reopening a resolved item")
	}
}

func TestDeleteItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, database, "alice@campus.edu", "Alice")
	bob := createTestUser(t, database, "bob@campus.edu", "Bob")

	item, _ := CreateItem(ctx, database, newItem(alice.ID, "Delete Me", model.ItemTypeFound))

	ok, _ := DeleteItem(ctx, database, item.ID, bob.ID)
	if ok {
		t.Error("expected non-owner delete to affect nothing")
	}

	ok, err := DeleteItem(ctx, database, item.ID, alice.ID)
	if err != nil || !ok {
		t.Fatalf("DeleteItem: ok=%v err=%v", ok, err)
	}

	// Hard delete: gone by ID too.
	got, _ := GetItem(ctx, database, item.ID)
	if got != nil {
		t.Error("expected deleted item to be gone")
	}

	ok, _ = DeleteItem(ctx, database, item.ID, alice.ID)
	if ok {
		t.Error("expected second delete to affect nothing")
	}
}
