package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/yi-nology/cos_bridge/pkg/logging"
	"github.com/yi-nology/cos_bridge/pkg/storage"

	"go.uber.org/zap"
)

const largeObjectDir = "large"

// MultipartSession identifies an upload started on the store.
type MultipartSession struct {
	Key      string `json:"key"`
	UploadID string `json:"uploadId"`
}

// PartResult is the acknowledgment for one uploaded part.
type PartResult struct {
	ETag       string `json:"eTag"`
	PartNumber int32  `json:"partNumber"`
}

// CompleteResult describes the assembled object.
type CompleteResult struct {
	Key      string `json:"key"`
	Location string `json:"location"`
}

// InitiateMultipart starts a multipart upload for key.
func (s *Service) InitiateMultipart(ctx context.Context, key string) (*MultipartSession, error) {
	key = trimSlashes(key)
	if key == "" {
		return nil, validationError("key is required")
	}
	uploadID, err := s.store.CreateMultipartUpload(ctx, key, "")
	if err != nil {
		return nil, storeError("initiate multipart", err)
	}
	logging.WithContext(ctx).Info("multipart upload initiated", zap.String("key", key), zap.String("upload_id", uploadID))
	return &MultipartSession{Key: key, UploadID: uploadID}, nil
}

// InitiateMultipartForFile derives "<store path>/large/<unix millis>-<name>" and starts an upload there.
func (s *Service) InitiateMultipartForFile(ctx context.Context, fileName string) (*MultipartSession, error) {
	name := sanitizeName(fileName)
	if name == "" {
		return nil, validationError("fileName is required")
	}
	return s.InitiateMultipart(ctx, joinKey(s.storePath, largeObjectDir, millis(s.now())+"-"+name))
}

// UploadPart sends one chunk. Part number range and uniqueness are left to the store.
func (s *Service) UploadPart(ctx context.Context, key, uploadID string, partNumber int32, data []byte) (*PartResult, error) {
	if key == "" || uploadID == "" {
		return nil, validationError("key and uploadId are required")
	}
	if err := s.upload.ValidateChunkSize(int64(len(data))); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	etag, err := s.store.UploadPart(ctx, key, uploadID, partNumber, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, storeError("upload part", err)
	}
	return &PartResult{ETag: etag, PartNumber: partNumber}, nil
}

// CompleteMultipart asks the store to assemble the listed parts.
func (s *Service) CompleteMultipart(ctx context.Context, key, uploadID string, parts []storage.CompletedPart) (*CompleteResult, error) {
	if key == "" || uploadID == "" {
		return nil, validationError("key and uploadId are required")
	}
	if len(parts) == 0 {
		return nil, validationError("parts are required")
	}
	location, err := s.store.CompleteMultipartUpload(ctx, key, uploadID, parts)
	if err != nil {
		return nil, storeError("complete multipart", err)
	}
	logging.WithContext(ctx).Info("multipart upload completed",
		zap.String("key", key), zap.String("upload_id", uploadID), zap.Int("parts", len(parts)))
	return &CompleteResult{Key: key, Location: location}, nil
}

// AbortMultipart discards an unfinished upload and its parts.
func (s *Service) AbortMultipart(ctx context.Context, key, uploadID string) error {
	if key == "" || uploadID == "" {
		return validationError("key and uploadId are required")
	}
	if err := s.store.AbortMultipartUpload(ctx, key, uploadID); err != nil {
		return storeError("abort multipart", err)
	}
	return nil
}
