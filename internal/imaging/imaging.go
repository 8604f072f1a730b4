// Package imaging checks uploaded item photos and shrinks oversized ones.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

// MaxDimension is the maximum width or height of a stored JPEG or PNG.
const MaxDimension = 1600

// JPEGQuality is the compression quality used when a JPEG is re-encoded.
const JPEGQuality = 85

// ErrUnsupported is returned for data that is not an accepted image format.
var ErrUnsupported = errors.New("unsupported image format")

// Extensions maps each accepted MIME type to the extension it is stored under.
var Extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ExtensionFor returns the stored extension for an accepted MIME type.
func ExtensionFor(mime string) (string, bool) {
	ext, ok := Extensions[mime]
	return ext, ok
}

// TypeByExtension returns the MIME type a stored extension is served as.
// Only the extensions in Extensions are known.
func TypeByExtension(ext string) (string, bool) {
	ext = strings.ToLower(ext)
	for mime, e := range Extensions {
		if e == ext {
			return mime, true
		}
	}
	return "", false
}

// Sniff returns the content type of data as detected from its leading bytes.
func Sniff(data []byte) string {
	return http.DetectContentType(data)
}

// Result contains the processed image data.
type Result struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// Ext returns the extension matching the sniffed format.
func (r *Result) Ext() string {
	return Extensions[r.MIME]
}

// Process reads image data and validates the format by sniffing bytes.
// JPEG and PNG images larger than MaxDimension are downscaled and re-encoded
// in their own format. Everything else is returned unchanged.
func Process(r io.Reader) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}

	// Client headers and file names are not trusted.
	detected := Sniff(data)
	if _, ok := Extensions[detected]; !ok {
		return nil, fmt.Errorf("%w: %s (JPEG, PNG, GIF and WebP accepted)", ErrUnsupported, detected)
	}

	cfg, err := decodeConfig(detected, data)
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	result := &Result{Data: data, MIME: detected, Width: cfg.Width, Height: cfg.Height}

	if detected != "image/jpeg" && detected != "image/png" {
		return result, nil
	}
	if cfg.Width <= MaxDimension && cfg.Height <= MaxDimension {
		return result, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	img = downscale(img, MaxDimension)

	var buf bytes.Buffer
	if detected == "image/png" {
		err = png.Encode(&buf, img)
	} else {
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality})
	}
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", detected, err)
	}

	b := img.Bounds()
	result.Data = buf.Bytes()
	result.Width, result.Height = b.Dx(), b.Dy()
	return result, nil
}

func decodeConfig(mime string, data []byte) (image.Config, error) {
	r := bytes.NewReader(data)
	switch mime {
	case "image/jpeg":
		return jpeg.DecodeConfig(r)
	case "image/png":
		return png.DecodeConfig(r)
	case "image/gif":
		return gif.DecodeConfig(r)
	default:
		return webp.DecodeConfig(r)
	}
}

// downscale resizes the image so neither dimension exceeds maxDim, keeping
// the aspect ratio. Uses Catmull-Rom interpolation.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := w, h
	if w > h {
		newW = maxDim
		newH = int(float64(h) * float64(maxDim) / float64(w))
	} else {
		newH = maxDim
		newW = int(float64(w) * float64(maxDim) / float64(h))
	}
	newW = max(newW, 1)
	newH = max(newH, 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
