// Package encode turns rendered preview images into bytes.
package encode

import (
	"errors"
	"fmt"
	"image"
	"strings"
)

// ErrUnsupportedFormat is returned for image formats without an encoder.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Encoder encodes an image into a file format.
type Encoder interface {
	// Encode encodes an image to bytes in the encoder's format.
	Encode(img image.Image) ([]byte, error)

	// Format returns the format name (e.g. "jpeg", "png", "webp").
	Format() string

	// ContentType returns the MIME type of the encoded bytes.
	ContentType() string

	// FileExtension returns the appropriate file extension.
	FileExtension() string
}

// NewEncoder creates an encoder for the given format and quality.
func NewEncoder(format string, quality int) (Encoder, error) {
	switch strings.ToLower(format) {
	case "jpeg", "jpg":
		return &JPEGEncoder{Quality: quality}, nil
	case "png":
		return &PNGEncoder{}, nil
	case "webp":
		return newWebPEncoder(quality)
	default:
		return nil, fmt.Errorf("%w: %q (supported: jpeg, png, webp)", ErrUnsupportedFormat, format)
	}
}
