// Package storage defines the interface for object storage operations.
// Swap implementations by changing the concrete type injected at startup;
// the MinIO implementation works with any S3-compatible provider (MinIO, ArvanCloud, AWS S3).
package storage

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrStore wraps every failure reported by a Store backend.
var ErrStore = errors.New("object store")

// Metadata applied to every stored object.
const (
	CacheControl = "public"
	ExpiresYears = 20
)

// Store is the interface for publishing and removing objects.
type Store interface {
	// Put uploads data under key as a publicly readable object, replacing any
	// existing object.
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// Delete removes the object at key. A missing object is not an error.
	Delete(ctx context.Context, key string) error
	// Exists reports whether an object is stored at key.
	Exists(ctx context.Context, key string) (bool, error)
	// List returns every key starting with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
	// PublicURL constructs the browser-accessible URL for a given key.
	PublicURL(key string) string
}

func expiresAt(now time.Time) time.Time {
	return now.AddDate(ExpiresYears, 0, 0)
}

// PublicURL joins a public base URL and an object key.
func PublicURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
