package gateway

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/erazemk/lostfound/internal/imaging"
	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/store"
)

// Bucket is the object storage the platform keeps images in.
type Bucket interface {
	Put(ctx context.Context, name string, data []byte) error
	URL(name string) string
}

// Platform is the Gateway backed by the SQLite tables in internal/store and
// an image bucket. It enforces the access policy: only the author of an item
// may change or delete it, and users may only post and upload as themselves.
type Platform struct {
	DB     *sql.DB
	Images Bucket
	// Now is the clock used for upload names. Defaults to time.Now.
	Now func() time.Time
}

var _ Gateway = (*Platform)(nil)

// NewPlatform returns a Platform using db for records and images for files.
func NewPlatform(db *sql.DB, images Bucket) *Platform {
	return &Platform{DB: db, Images: images, Now: time.Now}
}

// ListAll implements Gateway.
func (p *Platform) ListAll(ctx context.Context, caller Caller) ([]model.Item, error) {
	slog.Debug("gateway list all", "caller", caller.UserID)
	if caller.Anonymous() {
		return nil, ErrUnauthenticated
	}
	items, err := store.ListItems(ctx, p.DB, "")
	if err != nil {
		return nil, classify(err)
	}
	return items, nil
}

// ListByOwner implements Gateway.
func (p *Platform) ListByOwner(ctx context.Context, caller Caller, ownerID string) ([]model.Item, error) {
	slog.Debug("gateway list by owner", "caller", caller.UserID, "owner", ownerID)
	if caller.Anonymous() {
		return nil, ErrUnauthenticated
	}
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner required", ErrValidation)
	}
	items, err := store.ListItems(ctx, p.DB, ownerID)
	if err != nil {
		return nil, classify(err)
	}
	return items, nil
}

// Insert implements Gateway.
func (p *Platform) Insert(ctx context.Context, caller Caller, item model.NewItem) (string, error) {
	slog.Debug("gateway insert", "caller", caller.UserID, "type", item.Type)
	if caller.Anonymous() {
		return "", ErrUnauthenticated
	}
	if item.PostedBy != caller.UserID {
		return "", fmt.Errorf("%w: items can only be posted as yourself", ErrPermission)
	}
	if err := checkNewItem(item); err != nil {
		return "", err
	}

	created, err := store.CreateItem(ctx, p.DB, item)
	if err != nil {
		return "", classify(err)
	}
	return created.ID, nil
}

// UpdateStatus implements Gateway.
func (p *Platform) UpdateStatus(ctx context.Context, caller Caller, id string, status model.ItemStatus) error {
	slog.Debug("gateway update status", "caller", caller.UserID, "item", id, "status", status)
	if caller.Anonymous() {
		return ErrUnauthenticated
	}
	if !model.ValidItemStatus(status) {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	item, err := p.owned(ctx, caller, id)
	if err != nil {
		return err
	}
	if !model.CanTransition(item.Status, status) {
		return fmt.Errorf("%w: cannot change status from %s to %s", ErrValidation, item.Status, status)
	}

	ok, err := store.UpdateItemStatus(ctx, p.DB, id, caller.UserID, status)
	if err != nil {
		return classify(err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// Delete implements Gateway.
func (p *Platform) Delete(ctx context.Context, caller Caller, id string) error {
	slog.Debug("gateway delete", "caller", caller.UserID, "item", id)
	if caller.Anonymous() {
		return ErrUnauthenticated
	}
	if _, err := p.owned(ctx, caller, id); err != nil {
		return err
	}

	ok, err := store.DeleteItem(ctx, p.DB, id, caller.UserID)
	if err != nil {
		return classify(err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// UploadImage implements Gateway.
func (p *Platform) UploadImage(ctx context.Context, caller Caller, ownerID string, data []byte, ext string) (string, error) {
	slog.Debug("gateway upload image", "caller", caller.UserID, "owner", ownerID, "bytes", len(data))
	if caller.Anonymous() {
		return "", ErrUnauthenticated
	}
	if ownerID != caller.UserID {
		return "", fmt.Errorf("%w: uploads go to your own folder", ErrPermission)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty image", ErrValidation)
	}

	name := ObjectName(ownerID, p.now(), ext)
	if _, ok := imaging.TypeByExtension(path.Ext(name)); !ok {
		return "", fmt.Errorf("%w: unsupported image extension %q", ErrValidation, ext)
	}
	if err := p.Images.Put(ctx, name, data); err != nil {
		return "", fmt.Errorf("%w: uploading image: %w", ErrTransport, err)
	}
	return p.Images.URL(name), nil
}

// ObjectName composes the bucket path of an upload: the owner's folder, the
// upload time in milliseconds and a random nonce, then the original extension.
func ObjectName(ownerID string, at time.Time, ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	nonce := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s/%d-%s%s", ownerID, at.UnixMilli(), nonce, ext)
}

// owned loads an item and checks the caller is its author.
func (p *Platform) owned(ctx context.Context, caller Caller, id string) (*model.Item, error) {
	item, err := store.GetItem(ctx, p.DB, id)
	if err != nil {
		return nil, classify(err)
	}
	if item == nil {
		return nil, ErrNotFound
	}
	if item.PostedBy != caller.UserID {
		return nil, ErrPermission
	}
	return item, nil
}

func (p *Platform) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

// checkNewItem mirrors the table constraints so bad input is reported as a
// validation error before touching the database.
func checkNewItem(item model.NewItem) error {
	var missing []string
	if strings.TrimSpace(item.Name) == "" {
		missing = append(missing, "item_name")
	}
	if strings.TrimSpace(item.Description) == "" {
		missing = append(missing, "description")
	}
	if strings.TrimSpace(item.Location) == "" {
		missing = append(missing, "location")
	}
	if item.Date.IsZero() {
		missing = append(missing, "date")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrValidation, strings.Join(missing, ", "))
	}
	if !model.ValidItemType(item.Type) {
		return fmt.Errorf("%w: unknown type %q", ErrValidation, item.Type)
	}
	if item.Status != "" && item.Status != model.ItemStatusOpen {
		return fmt.Errorf("%w: new items must be open", ErrValidation)
	}
	return nil
}

// classify maps a store error onto the gateway taxonomy.
func classify(err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return fmt.Errorf("%w: %w", ErrTransport, err)
}
