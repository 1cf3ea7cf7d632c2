// Package uploads stores complaint photos and returns the URL they are served
// from.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxImageSize bounds an uploaded photo.
const MaxImageSize = 5 << 20

var (
	ErrNotImage = errors.New("only image files are allowed")
	ErrTooLarge = errors.New("image is too large")
)

type Store interface {
	// Save stores data under a generated key and returns its public URL. The
	// client filename never reaches the key.
	Save(ctx context.Context, filename string, data []byte) (string, error)
}

// extensions maps the sniffed image types that are accepted to the extension
// they are stored under.
var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// DetectImage sniffs the payload and returns its content type, rejecting
// anything that is not an image or is too large.
func DetectImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty file", ErrNotImage)
	}
	if len(data) > MaxImageSize {
		return "", fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, MaxImageSize)
	}
	ct := http.DetectContentType(data)
	if _, ok := extensions[ct]; !ok {
		return "", fmt.Errorf("%w: got %s", ErrNotImage, ct)
	}
	return ct, nil
}

// ObjectKey returns a collision-free name whose extension follows the
// sniffed content type.
func ObjectKey(contentType string) string {
	return uuid.NewString() + extensions[contentType]
}

// LocalStore writes images below Dir; the router serves Dir at BaseURL.
type LocalStore struct {
	Dir     string
	BaseURL string
}

func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalStore{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalStore) Save(ctx context.Context, filename string, data []byte) (string, error) {
	contentType, err := DetectImage(data)
	if err != nil {
		return "", err
	}
	key := ObjectKey(contentType)
	if err := os.WriteFile(filepath.Join(s.Dir, key), data, 0644); err != nil {
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	return s.BaseURL + "/" + key, nil
}
