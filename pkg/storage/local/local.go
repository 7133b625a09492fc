// Package local implements the local filesystem storage adapter.
// Folder markers (keys ending in "/") are stored as directories; multipart parts are
// staged under a hidden directory that listings never expose.
package local

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yi-nology/cos_bridge/pkg/metrics"
	"github.com/yi-nology/cos_bridge/pkg/storage/object"
)

const (
	backendType    = "local"
	stagingDirName = ".multipart"
	keyFileName    = "key"
)

// Config holds local storage configuration.
type Config struct {
	BasePath     string
	Bucket       string
	ListPageSize int
}

// Storage implements storage.Storage using the local filesystem.
type Storage struct {
	basePath string
	bucket   string
	pageSize int
}

// New creates a new local storage adapter rooted at cfg.BasePath.
func New(cfg Config) (*Storage, error) {
	if cfg.BasePath == "" {
		cfg.BasePath = "data/objects"
	}
	if cfg.Bucket == "" {
		cfg.Bucket = "local"
	}
	if cfg.ListPageSize <= 0 {
		cfg.ListPageSize = object.DefaultListPageSize
	}

	if err := os.MkdirAll(filepath.Join(cfg.BasePath, stagingDirName), 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	return &Storage{basePath: cfg.BasePath, bucket: cfg.Bucket, pageSize: cfg.ListPageSize}, nil
}

// PutObject writes the object through a temp file so readers never see a partial body.
func (s *Storage) PutObject(ctx context.Context, key string, data io.Reader, contentType string, size int64) (*object.PutResult, error) {
	start := time.Now()
	result, err := s.putObject(key, data)
	observe("put_object", start, err)
	if err != nil {
		return nil, err
	}
	metrics.RecordUploadBytes(size)
	return result, nil
}

func (s *Storage) putObject(key string, data io.Reader) (*object.PutResult, error) {
	fullPath, err := s.keyToPath(key)
	if err != nil {
		return nil, err
	}

	if object.IsFolderKey(key) {
		if err := os.MkdirAll(fullPath, 0o755); err != nil {
			return nil, fmt.Errorf("create directory: %w", err)
		}
		return s.ack(key, md5.New().Sum(nil)), nil
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".put-*")
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	hash := md5.New()
	if _, err := io.Copy(io.MultiWriter(tmp, hash), data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return nil, fmt.Errorf("commit file: %w", err)
	}
	return s.ack(key, hash.Sum(nil)), nil
}

func (s *Storage) ack(key string, sum []byte) *object.PutResult {
	return &object.PutResult{
		StatusCode: http.StatusOK,
		ETag:       quoteETag(sum),
		Location:   objectLocation(key),
	}
}

// GetObject opens a stored file. Folder markers read as empty bodies.
func (s *Storage) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	fullPath, err := s.keyToPath(key)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("get object %s: %w", key, object.ErrNotFound)
		}
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() != object.IsFolderKey(key) {
		return nil, fmt.Errorf("get object %s: %w", key, object.ErrNotFound)
	}
	if info.IsDir() {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}
	return os.Open(fullPath)
}

// DeleteObject removes a file or an empty folder marker. Missing keys are not an error.
// A folder marker that still has children is left in place, since a directory
// cannot outlive its entries the way an S3 marker can.
func (s *Storage) DeleteObject(ctx context.Context, key string) error {
	start := time.Now()
	err := s.deleteObject(key)
	observe("delete_object", start, err)
	return err
}

func (s *Storage) deleteObject(key string) error {
	fullPath, err := s.keyToPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if object.IsFolderKey(key) {
			if entries, readErr := os.ReadDir(fullPath); readErr == nil && len(entries) > 0 {
				return nil
			}
		}
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// DeleteObjects removes files first, then folder markers deepest first.
func (s *Storage) DeleteObjects(ctx context.Context, keys []string) error {
	start := time.Now()
	ordered := append([]string(nil), keys...)
	sort.SliceStable(ordered, func(i, j int) bool {
		fi, fj := object.IsFolderKey(ordered[i]), object.IsFolderKey(ordered[j])
		if fi != fj {
			return !fi
		}
		return len(ordered[i]) > len(ordered[j])
	})

	var err error
	for _, key := range ordered {
		if err = s.deleteObject(key); err != nil {
			break
		}
	}
	observe("delete_objects", start, err)
	return err
}

// ListObjects walks the tree and returns one sorted page of keys under prefix.
func (s *Storage) ListObjects(ctx context.Context, prefix, token string) (*object.ListPage, error) {
	start := time.Now()
	var keys []string
	err := filepath.WalkDir(s.basePath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == s.basePath {
			return nil
		}
		rel, err := filepath.Rel(s.basePath, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if d.IsDir() {
			if key == stagingDirName {
				return filepath.SkipDir
			}
			key += "/"
		} else if strings.HasPrefix(d.Name(), ".put-") {
			return nil
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	observe("list_objects", start, err)
	if err != nil {
		return nil, fmt.Errorf("list objects %s: %w", prefix, err)
	}

	sort.Strings(keys)
	return object.Paginate(keys, token, s.pageSize), nil
}

// ObjectExists checks if a file or folder marker exists.
func (s *Storage) ObjectExists(ctx context.Context, key string) (bool, error) {
	fullPath, err := s.keyToPath(key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat file: %w", err)
	}
	return info.IsDir() == object.IsFolderKey(key), nil
}

// SignedURL returns the proxy path for key; local objects are served by the API itself.
func (s *Storage) SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if _, err := s.keyToPath(key); err != nil {
		return "", err
	}
	expires := time.Now().Add(expiry).Unix()
	return objectLocation(key) + "&expires=" + strconv.FormatInt(expires, 10), nil
}

// CreateMultipartUpload opens a staging directory for the upload.
func (s *Storage) CreateMultipartUpload(ctx context.Context, key, contentType string) (string, error) {
	if _, err := s.keyToPath(key); err != nil {
		return "", err
	}
	uploadID := uuid.NewString()
	dir := s.stagingPath(uploadID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create staging directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, keyFileName), []byte(key), 0o644); err != nil {
		return "", fmt.Errorf("write staging key: %w", err)
	}
	return uploadID, nil
}

// UploadPart stores one part; uploading the same number again replaces it.
func (s *Storage) UploadPart(ctx context.Context, key, uploadID string, partNumber int32, data io.Reader, size int64) (string, error) {
	dir, err := s.session(key, uploadID)
	if err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(dir, strconv.Itoa(int(partNumber))))
	if err != nil {
		return "", fmt.Errorf("create part: %w", err)
	}
	defer f.Close()

	hash := md5.New()
	if _, err := io.Copy(io.MultiWriter(f, hash), data); err != nil {
		return "", fmt.Errorf("write part: %w", err)
	}
	return quoteETag(hash.Sum(nil)), nil
}

// CompleteMultipartUpload concatenates the listed parts in part-number order.
func (s *Storage) CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []object.CompletedPart) (string, error) {
	dir, err := s.session(key, uploadID)
	if err != nil {
		return "", err
	}
	if len(parts) == 0 {
		return "", errors.New("complete multipart: no parts given")
	}

	var readers []io.Reader
	for _, p := range object.SortParts(parts) {
		partPath := filepath.Join(dir, strconv.Itoa(int(p.PartNumber)))
		content, err := os.ReadFile(partPath)
		if err != nil {
			return "", fmt.Errorf("complete multipart: invalid part %d: %w", p.PartNumber, err)
		}
		sum := md5.Sum(content)
		if strings.Trim(p.ETag, `"`) != hex.EncodeToString(sum[:]) {
			return "", fmt.Errorf("complete multipart: etag mismatch for part %d", p.PartNumber)
		}
		readers = append(readers, bytes.NewReader(content))
	}

	result, err := s.PutObject(ctx, key, io.MultiReader(readers...), "", -1)
	if err != nil {
		return "", err
	}
	_ = os.RemoveAll(dir)
	return result.Location, nil
}

// AbortMultipartUpload removes the staging directory.
func (s *Storage) AbortMultipartUpload(ctx context.Context, key, uploadID string) error {
	dir, err := s.session(key, uploadID)
	if err != nil {
		return err
	}
	return os.RemoveAll(dir)
}

func (s *Storage) Bucket() string { return s.bucket }

func (s *Storage) Region() string { return backendType }

// Type returns "local" as the storage type identifier.
func (s *Storage) Type() string { return backendType }

func (s *Storage) session(key, uploadID string) (string, error) {
	if uploadID == "" || strings.ContainsAny(uploadID, `/\.`) {
		return "", fmt.Errorf("upload %q: %w", uploadID, object.ErrNotFound)
	}
	dir := s.stagingPath(uploadID)
	stored, err := os.ReadFile(filepath.Join(dir, keyFileName))
	if err != nil || string(stored) != key {
		return "", fmt.Errorf("upload %s for %s: %w", uploadID, key, object.ErrNotFound)
	}
	return dir, nil
}

func (s *Storage) stagingPath(uploadID string) string {
	return filepath.Join(s.basePath, stagingDirName, uploadID)
}

// keyToPath converts an object key to a full filesystem path, rejecting escapes.
func (s *Storage) keyToPath(key string) (string, error) {
	trimmed := strings.TrimSuffix(key, "/")
	if trimmed == "" || strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("invalid key %q", key)
	}
	for _, seg := range strings.Split(trimmed, "/") {
		if seg == "" || seg == "." || seg == ".." || seg == stagingDirName {
			return "", fmt.Errorf("invalid key %q", key)
		}
	}
	return filepath.Join(s.basePath, filepath.FromSlash(trimmed)), nil
}

func objectLocation(key string) string {
	return "/api/v1/cos?key=" + url.QueryEscape(key)
}

func quoteETag(sum []byte) string {
	return `"` + hex.EncodeToString(sum) + `"`
}

func observe(op string, start time.Time, err error) {
	metrics.RecordStoreOperation(backendType, op, time.Since(start), err == nil)
}
