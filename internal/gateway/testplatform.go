package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/lostfound/internal/bucket"
	"github.com/erazemk/lostfound/internal/db"
	"github.com/erazemk/lostfound/internal/store"
)

// NewTestPlatform returns a Platform over a fresh in-memory database and a
// bucket in a temporary directory.
func NewTestPlatform(t testing.TB) *Platform {
	t.Helper()

	images, err := bucket.New(t.TempDir(), "/media")
	if err != nil {
		t.Fatalf("creating test bucket: %v", err)
	}
	return NewPlatform(db.NewTestDB(t), images)
}

// NewTestCaller creates a user on the platform and returns it as a Caller.
func NewTestCaller(t testing.TB, p *Platform, email, fullName string) Caller {
	t.Helper()

	user, err := store.CreateUser(context.Background(), p.DB, email, fullName, "hash")
	if err != nil {
		t.Fatalf("creating test user: %v", err)
	}
	return Caller{UserID: user.ID}
}

// ErrBucketDown is what FailingBucket returns from Put.
var ErrBucketDown = errors.New("bucket unreachable")

// FailingBucket is a Bucket whose uploads always fail.
type FailingBucket struct{}

// Put implements Bucket.
func (FailingBucket) Put(context.Context, string, []byte) error { return ErrBucketDown }

// URL implements Bucket.
func (FailingBucket) URL(name string) string { return "/media/" + name }
