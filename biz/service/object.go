package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/yi-nology/cos_bridge/biz/dal/model"
	"github.com/yi-nology/cos_bridge/pkg/storage"
	"github.com/yi-nology/cos_bridge/pkg/validator"
)

// ObjectResult answers a direct key-level upload.
type ObjectResult struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// UploadObject stores data under "<store path>/<category>/<unix millis>-<name>" without
// creating a file record. The category segment is dropped when the type matches none.
func (s *Service) UploadObject(ctx context.Context, data []byte, fileName, contentType string) (*ObjectResult, error) {
	name := sanitizeName(fileName)
	if name == "" {
		return nil, validationError("file name is required")
	}
	size := int64(len(data))
	mimeType, err := s.upload.Validate(size, contentType, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	key := joinKey(s.storePath, validator.Category(mimeType), millis(s.now())+"-"+name)
	result, err := s.store.PutObject(ctx, key, bytes.NewReader(data), mimeType, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	if !result.OK() {
		return nil, fmt.Errorf("%w: store answered status %d", ErrUploadFailed, result.StatusCode)
	}
	return &ObjectResult{URL: result.Location, Key: key}, nil
}

// GetObject opens the object stored at key. The caller closes the reader.
func (s *Service) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	if trimSlashes(key) == "" {
		return nil, validationError("key is required")
	}
	body, err := s.store.GetObject(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, storeError("get object", err)
	}
	return body, nil
}

// PreviewURL returns a time limited signed url for key.
func (s *Service) PreviewURL(ctx context.Context, key string) (string, error) {
	if trimSlashes(key) == "" {
		return "", validationError("key is required")
	}
	url, err := s.store.SignedURL(ctx, key, s.presignExpiry)
	if err != nil {
		return "", storeError("sign url", err)
	}
	return url, nil
}

// DeleteObject removes a single object by key. Records referring to it are untouched.
func (s *Service) DeleteObject(ctx context.Context, key string) error {
	if trimSlashes(key) == "" {
		return validationError("key is required")
	}
	if err := s.store.DeleteObject(ctx, key); err != nil {
		return fmt.Errorf("%w: %w", ErrDeleteFailed, err)
	}
	return nil
}

// OpenRecordContent opens the object behind a file record.
func (s *Service) OpenRecordContent(ctx context.Context, id string) (*model.FileRecord, io.ReadCloser, error) {
	record, err := s.logic.GetRecord(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if record.IsFolder() {
		return nil, nil, validationError("record %s is a folder", record.FileID)
	}
	body, err := s.GetObject(ctx, record.Key)
	if err != nil {
		return nil, nil, err
	}
	return record, body, nil
}
