// Package storage defines the object store abstraction the bridge orchestrates.
// Backends: COS / S3-compatible (aws-sdk-go-v2), local filesystem and in-memory.
package storage

import (
	"context"
	"io"
	"time"

	"github.com/yi-nology/cos_bridge/pkg/storage/object"
)

type (
	PutResult     = object.PutResult
	ListPage      = object.ListPage
	CompletedPart = object.CompletedPart
)

// ErrNotFound is returned by backends for missing keys and upload sessions.
var ErrNotFound = object.ErrNotFound

// Storage defines the object store operations used by the service layer.
// All backends address objects inside a single configured bucket and region.
type Storage interface {
	// PutObject writes the whole body under key. Keys ending in "/" are folder markers.
	PutObject(ctx context.Context, key string, data io.Reader, contentType string, size int64) (*PutResult, error)

	// GetObject retrieves an object. The caller must close the returned reader.
	GetObject(ctx context.Context, key string) (io.ReadCloser, error)

	DeleteObject(ctx context.Context, key string) error

	// DeleteObjects removes a batch of keys; a partially failed batch is an error.
	DeleteObjects(ctx context.Context, keys []string) error

	// ListObjects returns one page of keys under prefix, starting after token.
	ListObjects(ctx context.Context, prefix, token string) (*ListPage, error)

	ObjectExists(ctx context.Context, key string) (bool, error)

	// SignedURL returns a time-limited read URL for key.
	SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)

	CreateMultipartUpload(ctx context.Context, key, contentType string) (string, error)
	UploadPart(ctx context.Context, key, uploadID string, partNumber int32, data io.Reader, size int64) (string, error)
	CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []CompletedPart) (string, error)
	AbortMultipartUpload(ctx context.Context, key, uploadID string) error

	Bucket() string
	Region() string

	// Type returns the backend identifier ("s3", "local" or "memory").
	Type() string
}
