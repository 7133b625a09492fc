package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/yi-nology/cos_bridge/biz/dal/model"
	"github.com/yi-nology/cos_bridge/pkg/common"
	"github.com/yi-nology/cos_bridge/pkg/logging"

	"go.uber.org/zap"
)

// UploadInput captures payload and destination for an orchestrated upload.
// At most one of ParentID and PathPrefix is honoured; ParentID wins.
type UploadInput struct {
	Data        []byte
	FileName    string
	ContentType string
	Size        int64
	ParentID    string
	PathPrefix  string
}

// UploadResult is returned after the object is stored and recorded.
type UploadResult struct {
	URL    string            `json:"url"`
	Key    string            `json:"key"`
	Record *model.FileRecord `json:"record"`
}

// UploadFile validates the payload, writes it to the store and then creates its record.
// Nothing reaches the store when validation fails, and no record is created unless the
// store acknowledged the write.
func (s *Service) UploadFile(ctx context.Context, input *UploadInput) (*UploadResult, error) {
	if input == nil {
		return nil, validationError("upload input is required")
	}
	name := sanitizeName(input.FileName)
	if name == "" {
		return nil, validationError("file name is required")
	}
	size := input.Size
	if size <= 0 {
		size = int64(len(input.Data))
	}
	contentType, err := s.upload.Validate(size, input.ContentType, input.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	var parentID *string
	prefix := input.PathPrefix
	if input.ParentID != "" {
		parent, err := s.logic.GetRecord(ctx, input.ParentID)
		if err != nil {
			return nil, err
		}
		if !parent.IsFolder() {
			return nil, fmt.Errorf("%w: parent %s", ErrNotFolder, parent.FileID)
		}
		if prefix, err = s.ResolvePathString(ctx, parent.FileID); err != nil {
			return nil, err
		}
		parentID = &parent.FileID
	}
	key := joinKey(prefix, tokenName(s.newToken(), name))

	result, err := s.store.PutObject(ctx, key, bytes.NewReader(input.Data), contentType, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	if !result.OK() {
		return nil, fmt.Errorf("%w: store answered status %d", ErrUploadFailed, result.StatusCode)
	}

	ack, _ := json.Marshal(result)
	record := &model.FileRecord{
		Name:          name,
		Type:          contentType,
		Size:          size,
		Bucket:        s.store.Bucket(),
		Key:           key,
		StoreResponse: string(ack),
		ParentID:      parentID,
	}
	if uid, ok := common.GetUserID(ctx); ok {
		record.CreatedBy = uid
	}
	if err := s.logic.CreateRecord(ctx, record); err != nil {
		logging.WithContext(ctx).Error("record uploaded object failed, object left in store",
			zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("create file record: %w", err)
	}

	logging.WithContext(ctx).Info("file uploaded",
		zap.String("file_id", record.FileID),
		zap.String("key", key),
		zap.Int64("size", size),
		zap.String("client_version", common.GetClientVersion(ctx)))
	return &UploadResult{URL: result.Location, Key: key, Record: record}, nil
}
