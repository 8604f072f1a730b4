package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/lostfound/internal/model"
)

// itemSelect joins each item with its author's profile.
const itemSelect = `SELECT i.id, i.type, i.item_name, i.description, i.location, i.date,
        i.status, i.image_url, i.posted_by, i.created_at, u.full_name, u.email
 FROM items i
 JOIN users u ON u.id = i.posted_by`

// itemOrder lists newest first; rowid breaks ties within the same second.
const itemOrder = ` ORDER BY i.created_at DESC, i.rowid DESC`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*model.Item, error) {
	var (
		item     model.Item
		date     string
		imageURL sql.NullString
	)
	err := row.Scan(&item.ID, &item.Type, &item.Name, &item.Description, &item.Location, &date,
		&item.Status, &imageURL, &item.PostedBy, &item.CreatedAt, &item.Author.FullName, &item.Author.Email)
	if err != nil {
		return nil, err
	}

	item.Date, err = time.Parse(model.DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("parsing date of item %s: %w", item.ID, err)
	}
	item.ImageURL = imageURL.String
	return &item, nil
}

// CreateItem inserts a new item and returns it joined with its author.
// A zero Status is stored as open.
func CreateItem(ctx context.Context, db *sql.DB, in model.NewItem) (*model.Item, error) {
	status := in.Status
	if status == "" {
		status = model.ItemStatusOpen
	}

	var imageURL sql.NullString
	if in.ImageURL != "" {
		imageURL = sql.NullString{String: in.ImageURL, Valid: true}
	}

	id := uuid.NewString()
	_, err := db.ExecContext(ctx,
		`INSERT INTO items (id, type, item_name, description, location, date, status, image_url, posted_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, string(in.Type), in.Name, in.Description, in.Location, in.Date.Format(model.DateLayout),
		string(status), imageURL, in.PostedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID, or nil if there is none.
func GetItem(ctx context.Context, db *sql.DB, id string) (*model.Item, error) {
	item, err := scanItem(db.QueryRowContext(ctx, itemSelect+` WHERE i.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns all items, newest first, optionally restricted to the
// items posted by one user.
func ListItems(ctx context.Context, db *sql.DB, postedBy string) ([]model.Item, error) {
	var rows *sql.Rows
	var err error

	if postedBy != "" {
		rows, err = db.QueryContext(ctx, itemSelect+` WHERE i.posted_by = ?`+itemOrder, postedBy)
	} else {
		rows, err = db.QueryContext(ctx, itemSelect+itemOrder)
	}
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// UpdateItemStatus sets the status of an item owned by postedBy. It reports
// false when no such item exists.
func UpdateItemStatus(ctx context.Context, db *sql.DB, id, postedBy string, status model.ItemStatus) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET status = ? WHERE id = ? AND posted_by = ?`,
		string(status), id, postedBy,
	)
	if err != nil {
		return false, fmt.Errorf("updating item status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("updating item status: %w", err)
	}
	return n > 0, nil
}

// DeleteItem permanently deletes an item owned by postedBy. It reports false
// when no such item exists.
func DeleteItem(ctx context.Context, db *sql.DB, id, postedBy string) (bool, error) {
	result, err := db.ExecContext(ctx,
		`DELETE FROM items WHERE id = ? AND posted_by = ?`,
		id, postedBy,
	)
	if err != nil {
		return false, fmt.Errorf("deleting item: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting item: %w", err)
	}
	return n > 0, nil
}
