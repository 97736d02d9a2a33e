package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound reports that the target object does not exist. Callers that
// race against deletes check for this instead of matching error strings.
var ErrNotFound = errors.New("storage: object not found")

// ObjectStore is the surface the pipeline needs from object storage.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, data []byte, metadata map[string]string, public bool) (string, error)
	Read(ctx context.Context, key string) ([]byte, error)
	Head(ctx context.Context, key string) (map[string]string, error)
	Delete(ctx context.Context, key string) error
	PresignURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	PublicURL(key string) string
}
