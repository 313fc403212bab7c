package service

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/janus-access/server/internal/janus/errs"
)

// ImageStore keeps verification capture images on disk, addressed by an
// opaque ref recorded on the access event.
type ImageStore struct {
	dir string
}

func NewImageStore(dir string) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("image dir: %w", err)
	}
	return &ImageStore{dir: dir}, nil
}

// Save decodes a base64 capture and writes it to disk, returning the ref.
func (s *ImageStore) Save(encoded string) (string, error) {
	// Accept data-URL prefixes from browser captures.
	if i := strings.Index(encoded, ","); i >= 0 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	ref := "cap-" + uuid.NewString()[:8] + ".jpg"
	if err := os.WriteFile(filepath.Join(s.dir, ref), data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return ref, nil
}

// Open returns the stored image for a ref recorded on an event.
func (s *ImageStore) Open(ref string) (io.ReadCloser, error) {
	// Refs are generated names; anything path-like is rejected.
	if ref == "" || ref != filepath.Base(ref) || strings.HasPrefix(ref, ".") {
		return nil, errs.ErrNotFound
	}
	f, err := os.Open(filepath.Join(s.dir, ref))
	if os.IsNotExist(err) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	return f, nil
}
