// Package memory implements an in-process object store for development and tests.
package memory

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yi-nology/cos_bridge/pkg/metrics"
	"github.com/yi-nology/cos_bridge/pkg/storage/object"
)

// Config holds in-memory storage configuration.
type Config struct {
	Bucket       string
	ListPageSize int
}

type stored struct {
	data        []byte
	contentType string
	etag        string
}

type session struct {
	key   string
	parts map[int32][]byte
}

// Storage keeps objects and multipart sessions in maps guarded by a mutex.
type Storage struct {
	mu       sync.RWMutex
	bucket   string
	pageSize int
	objects  map[string]stored
	uploads  map[string]*session
}

// New creates an empty in-memory store.
func New(cfg Config) *Storage {
	if cfg.Bucket == "" {
		cfg.Bucket = "memory"
	}
	if cfg.ListPageSize <= 0 {
		cfg.ListPageSize = object.DefaultListPageSize
	}
	return &Storage{
		bucket:   cfg.Bucket,
		pageSize: cfg.ListPageSize,
		objects:  make(map[string]stored),
		uploads:  make(map[string]*session),
	}
}

func (s *Storage) PutObject(ctx context.Context, key string, data io.Reader, contentType string, size int64) (*object.PutResult, error) {
	if key == "" {
		return nil, errors.New("put object: empty key")
	}
	body, err := io.ReadAll(data)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	etag := etagOf(body)

	s.mu.Lock()
	s.objects[key] = stored{data: body, contentType: contentType, etag: etag}
	s.mu.Unlock()
	metrics.RecordUploadBytes(int64(len(body)))

	return &object.PutResult{StatusCode: http.StatusOK, ETag: etag, Location: s.location(key)}, nil
}

func (s *Storage) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	obj, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("get object %s: %w", key, object.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (s *Storage) DeleteObject(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

func (s *Storage) DeleteObjects(ctx context.Context, keys []string) error {
	s.mu.Lock()
	for _, key := range keys {
		delete(s.objects, key)
	}
	s.mu.Unlock()
	return nil
}

func (s *Storage) ListObjects(ctx context.Context, prefix, token string) (*object.ListPage, error) {
	s.mu.RLock()
	keys := make([]string, 0, len(s.objects))
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	s.mu.RUnlock()

	sort.Strings(keys)
	return object.Paginate(keys, token, s.pageSize), nil
}

func (s *Storage) ObjectExists(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	_, ok := s.objects[key]
	s.mu.RUnlock()
	return ok, nil
}

func (s *Storage) SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return s.location(key) + "?expires=" + strconv.FormatInt(time.Now().Add(expiry).Unix(), 10), nil
}

func (s *Storage) CreateMultipartUpload(ctx context.Context, key, contentType string) (string, error) {
	id := uuid.NewString()
	s.mu.Lock()
	s.uploads[id] = &session{key: key, parts: make(map[int32][]byte)}
	s.mu.Unlock()
	return id, nil
}

func (s *Storage) UploadPart(ctx context.Context, key, uploadID string, partNumber int32, data io.Reader, size int64) (string, error) {
	body, err := io.ReadAll(data)
	if err != nil {
		return "", fmt.Errorf("read part: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.sessionLocked(key, uploadID)
	if err != nil {
		return "", err
	}
	sess.parts[partNumber] = body
	metrics.RecordUploadBytes(int64(len(body)))
	return etagOf(body), nil
}

func (s *Storage) CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []object.CompletedPart) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.sessionLocked(key, uploadID)
	if err != nil {
		return "", err
	}
	if len(parts) == 0 {
		return "", errors.New("complete multipart: no parts given")
	}

	var buf bytes.Buffer
	for _, p := range object.SortParts(parts) {
		body, ok := sess.parts[p.PartNumber]
		if !ok {
			return "", fmt.Errorf("complete multipart: invalid part %d", p.PartNumber)
		}
		if strings.Trim(p.ETag, `"`) != strings.Trim(etagOf(body), `"`) {
			return "", fmt.Errorf("complete multipart: etag mismatch for part %d", p.PartNumber)
		}
		buf.Write(body)
	}

	data := buf.Bytes()
	s.objects[key] = stored{data: data, etag: etagOf(data)}
	delete(s.uploads, uploadID)
	return s.location(key), nil
}

func (s *Storage) AbortMultipartUpload(ctx context.Context, key, uploadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.sessionLocked(key, uploadID); err != nil {
		return err
	}
	delete(s.uploads, uploadID)
	return nil
}

func (s *Storage) Bucket() string { return s.bucket }

func (s *Storage) Region() string { return "memory" }

func (s *Storage) Type() string { return "memory" }

// Len reports how many objects are stored.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

func (s *Storage) sessionLocked(key, uploadID string) (*session, error) {
	sess, ok := s.uploads[uploadID]
	if !ok || sess.key != key {
		return nil, fmt.Errorf("upload %s for %s: %w", uploadID, key, object.ErrNotFound)
	}
	return sess, nil
}

func (s *Storage) location(key string) string {
	return "memory://" + s.bucket + "/" + key
}

func etagOf(data []byte) string {
	sum := md5.Sum(data)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}
