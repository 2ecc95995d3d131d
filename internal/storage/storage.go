package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PublicPrefix is the URL path stored files are served under.
const PublicPrefix = "/uploads/"

var (
	ErrInvalidName = errors.New("invalid object name")
	ErrUnavailable = errors.New("storage unavailable")
)

var allowedImageExts = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

type Storage interface {
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	// Delete removes the object. Deleting a missing object is not an error.
	Delete(ctx context.Context, name string) error
}

// URLSigner is implemented by backends that serve objects from
// somewhere other than this process.
type URLSigner interface {
	SignedURL(ctx context.Context, name string) (string, error)
}

// ImageContentType reports the content type for an allowed image file
// name and false for anything else.
func ImageContentType(filename string) (string, bool) {
	contentType, ok := allowedImageExts[strings.ToLower(filepath.Ext(filename))]
	return contentType, ok
}

// NewObjectName returns "<unix-millis>-<uuid><ext>" with ext taken
// from the original file name in lower case.
func NewObjectName(original string) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate uuid: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(original))
	return fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), id.String(), ext), nil
}

func PublicPath(name string) string {
	return PublicPrefix + name
}

// NameFromPublicPath is the inverse of PublicPath. It returns false for
// paths that were not produced by it.
func NameFromPublicPath(path string) (string, bool) {
	name, ok := strings.CutPrefix(path, PublicPrefix)
	if !ok || validateName(name) != nil {
		return "", false
	}
	return name, true
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
