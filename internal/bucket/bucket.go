// Package bucket stores uploaded item images as files under one directory and
// hands out public URLs for them.
package bucket

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
)

// Name is the logical bucket name for item images.
const Name = "item-images"

// ErrInvalidName is returned for object names that would escape the bucket.
var ErrInvalidName = errors.New("invalid object name")

// Dir is a bucket backed by a local directory. Objects are addressed by
// slash-separated names such as "<owner>/<file>".
type Dir struct {
	// Root is the directory holding the objects.
	Root string
	// BaseURL is the public prefix objects are served under, e.g. "/media".
	BaseURL string
}

// New returns a bucket rooted at root, creating the directory if needed.
func New(root, baseURL string) (*Dir, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating bucket directory: %w", err)
	}
	return &Dir{Root: root, BaseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Put writes an object. The write is atomic: readers see either the old
// object or the complete new one.
func (d *Dir) Put(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := d.path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("creating object directory: %w", err)
	}
	if err := atomic.WriteFile(p, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing object %s: %w", name, err)
	}
	return nil
}

// URL returns the public URL of an object.
func (d *Dir) URL(name string) string {
	segments := strings.Split(name, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return d.BaseURL + "/" + strings.Join(segments, "/")
}

// FS exposes the bucket contents for serving.
func (d *Dir) FS() fs.FS {
	return os.DirFS(d.Root)
}

func (d *Dir) path(name string) (string, error) {
	if !fs.ValidPath(name) || name == "." || path.Base(name) == "." {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(d.Root, filepath.FromSlash(name)), nil
}
