// Package blob stores project images and resolves their public URLs.
package blob

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrInvalidImage  = errors.New("blob: invalid image payload")
	ErrImageTooLarge = errors.New("blob: image too large")
	ErrNotFound      = errors.New("blob: object not found")
)

// Storage is the object storage collaborator.
type Storage interface {
	Upload(ctx context.Context, data []byte, key, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	KeyFromURL(url string) (string, bool)
}

// Image is a decoded image payload.
type Image struct {
	Data        []byte
	ContentType string
	Extension   string
}

// DecodeImage decodes a base64 image, optionally wrapped in a data URL, and
// checks that its sniffed type is an image.
func DecodeImage(payload string, maxBytes int) (Image, error) {
	raw := strings.TrimSpace(payload)
	if strings.HasPrefix(raw, "data:") {
		idx := strings.Index(raw, ",")
		if idx < 0 || !strings.Contains(raw[:idx], ";base64") {
			return Image{}, fmt.Errorf("%w: malformed data url", ErrInvalidImage)
		}
		raw = raw[idx+1:]
	}
	if raw == "" {
		return Image{}, fmt.Errorf("%w: empty payload", ErrInvalidImage)
	}
	if maxBytes > 0 && base64.StdEncoding.DecodedLen(len(raw)) > maxBytes+2 {
		return Image{}, fmt.Errorf("%w: limit is %d bytes", ErrImageTooLarge, maxBytes)
	}

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if maxBytes > 0 && len(data) > maxBytes {
		return Image{}, fmt.Errorf("%w: limit is %d bytes", ErrImageTooLarge, maxBytes)
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return Image{}, fmt.Errorf("%w: detected %s", ErrInvalidImage, mt.String())
	}
	return Image{Data: data, ContentType: mt.String(), Extension: mt.Extension()}, nil
}

// ProjectImageKey builds the object key for a project image slot.
func ProjectImageKey(projectID int64, slot, ext string) string {
	return fmt.Sprintf("projects/%d/%s-%s%s", projectID, slot, uuid.NewString(), ext)
}
