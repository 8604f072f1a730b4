package gateway

import (
	"context"
	"io/fs"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/lostfound/internal/bucket"
	"github.com/erazemk/lostfound/internal/model"
)

func backpack(owner Caller) model.NewItem {
	return model.NewItem{
		Type:        model.ItemTypeLost,
		Name:        "Blue backpack",
		Description: "Navy JanSport, front pocket torn",
		Location:    "Library 3rd floor",
		Date:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Status:      model.ItemStatusOpen,
		PostedBy:    owner.UserID,
	}
}

func TestInsertAndListRoundTrip(t *testing.T) {
	p := NewTestPlatform(t)
	ctx := context.Background()
	u := NewTestCaller(t, p, "u@campus.edu", "User U")

	id, err := p.Insert(ctx, u, backpack(u))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	items, err := p.ListAll(ctx, u)
	require.NoError(t, err)
	require.Len(t, items, 1)

	got := items[0]
	assert.Equal(t, id, got.ID)
	assert.Equal(t, model.ItemTypeLost, got.Type)
	assert.Equal(t, "Blue backpack", got.Name)
	assert.Equal(t, "Navy JanSport, front pocket torn", got.Description)
	assert.Equal(t, "Library 3rd floor", got.Location)
	assert.Equal(t, "2024-03-01", got.Date.Format(model.DateLayout))
	assert.Equal(t, model.ItemStatusOpen, got.Status)
	assert.Equal(t, u.UserID, got.PostedBy)
	assert.Empty(t, got.ImageURL)
	assert.Equal(t, model.Profile{FullName: "User U", Email: "u@campus.edu"}, got.Author)
}

func TestAnonymousCallerIsRejected(t *testing.T) {
	p := NewTestPlatform(t)
	ctx := context.Background()
	anon := Caller{}

	_, err := p.ListAll(ctx, anon)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.ErrorIs(t, err, ErrTransport)

	_, err = p.Insert(ctx, anon, backpack(anon))
	assert.ErrorIs(t, err, ErrUnauthenticated)

	assert.ErrorIs(t, p.Delete(ctx, anon, "x"), ErrUnauthenticated)
}

func TestInsertValidation(t *testing.T) {
	p := NewTestPlatform(t)
	ctx := context.Background()
	u := NewTestCaller(t, p, "u@campus.edu", "U")

	item := backpack(u)
	item.Location = "  "
	_, err := p.Insert(ctx, u, item)
	assert.ErrorIs(t, err, ErrValidation)

	item = backpack(u)
	item.Type = "stolen"
	_, err = p.Insert(ctx, u, item)
	assert.ErrorIs(t, err, ErrValidation)

	item = backpack(u)
	item.Status = model.ItemStatusResolved
	_, err = p.Insert(ctx, u, item)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestInsertAsSomeoneElseIsRejected(t *testing.T) {
	p := NewTestPlatform(t)
	ctx := context.Background()
	u := NewTestCaller(t, p, "u@campus.edu", "U")
	v := NewTestCaller(t, p, "v@campus.edu", "V")

	_, err := p.Insert(ctx, v, backpack(u))
	assert.ErrorIs(t, err, ErrPermission)
}

func TestListByOwner(t *testing.T) {
	p := NewTestPlatform(t)
	ctx := context.Background()
	u := NewTestCaller(t, p, "u@campus.edu", "U")
	v := NewTestCaller(t, p, "v@campus.edu", "V")

	_, err := p.Insert(ctx, u, backpack(u))
	require.NoError(t, err)
	_, err = p.Insert(ctx, v, backpack(v))
	require.NoError(t, err)

	mine, err := p.ListByOwner(ctx, u, u.UserID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, u.UserID, mine[0].PostedBy)
}

func TestUpdateStatusPolicy(t *testing.T) {
	p := NewTestPlatform(t)
	ctx := context.Background()
	u := NewTestCaller(t, p, "u@campus.edu", "U")
	v := NewTestCaller(t, p, "v@campus.edu", "V")

	id, err := p.Insert(ctx, u, backpack(u))
	require.NoError(t, err)

	assert.ErrorIs(t, p.UpdateStatus(ctx, v, id, model.ItemStatusResolved), ErrPermission)
	assert.ErrorIs(t, p.UpdateStatus(ctx, u, "missing", model.ItemStatusResolved), ErrNotFound)
	assert.ErrorIs(t, p.UpdateStatus(ctx, u, id, "archived"), ErrValidation)

	require.NoError(t, p.UpdateStatus(ctx, u, id, model.ItemStatusResolved))

	// Resolved is terminal.
	assert.ErrorIs(t, p.UpdateStatus(ctx, u, id, model.ItemStatusOpen), ErrValidation)
	assert.ErrorIs(t, p.UpdateStatus(ctx, u, id, model.ItemStatusResolved), ErrValidation)

	mine, err := p.ListByOwner(ctx, u, u.UserID)
	require.NoError(t, err)
	assert.Equal(t, model.ItemStatusResolved, mine[0].Status)
}

func TestDeletePolicy(t *testing.T) {
	p := NewTestPlatform(t)
	ctx := context.Background()
	u := NewTestCaller(t, p, "u@campus.edu", "U")
	v := NewTestCaller(t, p, "v@campus.edu", "V")

	id, err := p.Insert(ctx, u, backpack(u))
	require.NoError(t, err)

	assert.ErrorIs(t, p.Delete(ctx, v, id), ErrPermission)
	items, _ := p.ListAll(ctx, u)
	require.Len(t, items, 1, "record must survive a rejected delete")

	require.NoError(t, p.Delete(ctx, u, id))
	assert.ErrorIs(t, p.Delete(ctx, u, id), ErrNotFound, "second delete must not succeed")

	items, _ = p.ListAll(ctx, u)
	assert.Empty(t, items)
}

func TestUploadImage(t *testing.T) {
	p := NewTestPlatform(t)
	ctx := context.Background()
	u := NewTestCaller(t, p, "u@campus.edu", "U")
	p.Now = func() time.Time { return time.UnixMilli(1700000000123) }

	url, err := p.UploadImage(ctx, u, u.UserID, []byte("jpeg bytes"), "JPG")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^/media/`+u.UserID+`/1700000000123-[0-9a-f]{8}\.jpg$`), url)

	name := strings.TrimPrefix(url, "/media/")
	data, err := fs.ReadFile(p.Images.(*bucket.Dir).FS(), name)
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))
}

func TestUploadImageNamesDoNotCollide(t *testing.T) {
	p := NewTestPlatform(t)
	ctx := context.Background()
	u := NewTestCaller(t, p, "u@campus.edu", "U")
	p.Now = func() time.Time { return time.UnixMilli(1700000000000) }

	first, err := p.UploadImage(ctx, u, u.UserID, []byte("a"), ".png")
	require.NoError(t, err)
	second, err := p.UploadImage(ctx, u, u.UserID, []byte("b"), ".png")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestUploadImageFailures(t *testing.T) {
	p := NewTestPlatform(t)
	ctx := context.Background()
	u := NewTestCaller(t, p, "u@campus.edu", "U")
	v := NewTestCaller(t, p, "v@campus.edu", "V")

	_, err := p.UploadImage(ctx, v, u.UserID, []byte("x"), ".png")
	assert.ErrorIs(t, err, ErrPermission)

	_, err = p.UploadImage(ctx, u, u.UserID, nil, ".png")
	assert.ErrorIs(t, err, ErrValidation)

	for _, ext := range []string{".html", ".svg", ""} {
		_, err = p.UploadImage(ctx, u, u.UserID, []byte("GIF89a"), ext)
		assert.ErrorIs(t, err, ErrValidation, ext)
	}

	p.Images = FailingBucket{}
	_, err = p.UploadImage(ctx, u, u.UserID, []byte("x"), ".png")
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, ErrBucketDown)
}

func TestObjectName(t *testing.T) {
	at := time.UnixMilli(42)
	assert.Regexp(t, `^owner/42-[0-9a-f]{8}\.webp$`, ObjectName("owner", at, "webp"))
	assert.Regexp(t, `^owner/42-[0-9a-f]{8}$`, ObjectName("owner", at, ""))
}
