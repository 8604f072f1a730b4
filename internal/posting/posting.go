// Package posting validates and submits new lost-or-found postings.
package posting

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/erazemk/lostfound/internal/gateway"
	"github.com/erazemk/lostfound/internal/imaging"
	"github.com/erazemk/lostfound/internal/model"
)

// ErrValidation is returned, wrapped in a *FieldError, for a rejected form.
var ErrValidation = gateway.ErrValidation

// Form holds the posting form fields as submitted.
type Form struct {
	Type        string `json:"type"`
	Name        string `json:"item_name"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Date        string `json:"date"`
}

// Image is an optional file attached to a posting. Filename is the client's
// name for it and is only used in messages; the stored extension follows MIME.
type Image struct {
	Filename string
	Data     []byte
	MIME     string
}

// Ext returns the extension the image is stored under, derived from its
// content type. It is empty for data that is not an accepted image.
func (img *Image) Ext() string {
	mime := img.MIME
	if mime == "" {
		mime = imaging.Sniff(img.Data)
	}
	ext, _ := imaging.ExtensionFor(mime)
	return ext
}

// ImageFromRequest reads the optional "image" file of a parsed multipart
// form and passes it through imaging. It returns nil when no file was sent.
func ImageFromRequest(r *http.Request) (*Image, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	result, err := imaging.Process(file)
	if err != nil {
		return nil, &FieldError{Field: "image", Message: err.Error()}
	}
	return &Image{Filename: header.Filename, Data: result.Data, MIME: result.MIME}, nil
}

// FieldError names the form field that failed validation.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *FieldError) Unwrap() error {
	return ErrValidation
}

// Validate trims the fields, checks that all are present, that the type is
// lost or found and that the date parses. It returns the insert payload
// without owner or image.
func (f Form) Validate() (model.NewItem, error) {
	f = Form{
		Type:        strings.TrimSpace(f.Type),
		Name:        strings.TrimSpace(f.Name),
		Description: strings.TrimSpace(f.Description),
		Location:    strings.TrimSpace(f.Location),
		Date:        strings.TrimSpace(f.Date),
	}

	required := []struct{ field, value string }{
		{"type", f.Type},
		{"item_name", f.Name},
		{"description", f.Description},
		{"location", f.Location},
		{"date", f.Date},
	}
	for _, r := range required {
		if r.value == "" {
			return model.NewItem{}, &FieldError{Field: r.field, Message: "required"}
		}
	}

	itemType := model.ItemType(f.Type)
	if !model.ValidItemType(itemType) {
		return model.NewItem{}, &FieldError{Field: "type", Message: "must be lost or found"}
	}

	date, err := model.ParseDate(f.Date)
	if err != nil {
		return model.NewItem{}, &FieldError{Field: "date", Message: err.Error()}
	}

	return model.NewItem{
		Type:        itemType,
		Name:        f.Name,
		Description: f.Description,
		Location:    f.Location,
		Date:        date,
		Status:      model.ItemStatusOpen,
	}, nil
}

// OrphanError reports an insert that failed after its image was uploaded.
// The upload is left in place.
type OrphanError struct {
	ImageURL string
	Err      error
}

func (e *OrphanError) Error() string {
	return e.Err.Error()
}

func (e *OrphanError) Unwrap() error {
	return e.Err
}

// Workflow submits postings through a gateway.
type Workflow struct {
	Gateway gateway.Gateway
}

// Submit validates the form, uploads the image if there is one, then inserts
// the item as open and owned by the caller. Each step runs only after the
// previous one succeeded. It returns the new item's ID.
func (w *Workflow) Submit(ctx context.Context, caller gateway.Caller, form Form, image *Image) (string, error) {
	if caller.Anonymous() {
		return "", gateway.ErrUnauthenticated
	}

	item, err := form.Validate()
	if err != nil {
		return "", err
	}
	item.PostedBy = caller.UserID

	hasImage := image != nil && len(image.Data) > 0
	if hasImage && image.Ext() == "" {
		return "", &FieldError{Field: "image", Message: "must be a JPEG, PNG, GIF or WebP image"}
	}

	if hasImage {
		url, err := w.Gateway.UploadImage(ctx, caller, caller.UserID, image.Data, image.Ext())
		if err != nil {
			return "", fmt.Errorf("uploading image: %w", err)
		}
		item.ImageURL = url
	}

	id, err := w.Gateway.Insert(ctx, caller, item)
	if err != nil {
		if item.ImageURL != "" {
			return "", &OrphanError{ImageURL: item.ImageURL, Err: err}
		}
		return "", err
	}
	return id, nil
}
