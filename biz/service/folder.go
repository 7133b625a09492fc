package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/yi-nology/cos_bridge/biz/dal/model"
	"github.com/yi-nology/cos_bridge/pkg/common"
	"github.com/yi-nology/cos_bridge/pkg/validator"
)

// CreateFolder writes a zero-byte marker "<parent path>/<name>/" and records it as a Folder.
func (s *Service) CreateFolder(ctx context.Context, name, parentID string) (*model.FileRecord, error) {
	clean, ok := validator.SanitizeFolderName(name)
	if !ok {
		return nil, fmt.Errorf("%w: %w %q", ErrValidation, validator.ErrInvalidName, name)
	}
	name = clean

	var parent *string
	prefix := ""
	if parentID != "" {
		record, err := s.logic.GetRecord(ctx, parentID)
		if err != nil {
			return nil, err
		}
		if !record.IsFolder() {
			return nil, fmt.Errorf("%w: parent %s", ErrNotFolder, record.FileID)
		}
		if prefix, err = s.ResolvePathString(ctx, record.FileID); err != nil {
			return nil, err
		}
		parent = &record.FileID
	}
	existing, err := s.logic.FindChildFolder(ctx, parent, name)
	if err != nil {
		return nil, fmt.Errorf("look up sibling folders: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %q as %s", ErrFolderExists, name, existing.FileID)
	}

	key := joinKey(prefix, name) + "/"
	page, err := s.store.ListObjects(ctx, key, "")
	if err != nil {
		return nil, storeError("list objects", err)
	}
	if len(page.Keys) > 0 {
		return nil, fmt.Errorf("%w: objects already stored under %s", ErrFolderExists, key)
	}

	result, err := s.store.PutObject(ctx, key, bytes.NewReader(nil), "", 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	if !result.OK() {
		return nil, fmt.Errorf("%w: store answered status %d", ErrUploadFailed, result.StatusCode)
	}

	ack, _ := json.Marshal(result)
	record := &model.FileRecord{
		Name:          name,
		Type:          model.FolderType,
		Bucket:        s.store.Bucket(),
		Key:           key,
		StoreResponse: string(ack),
		ParentID:      parent,
	}
	if uid, ok := common.GetUserID(ctx); ok {
		record.CreatedBy = uid
	}
	if err := s.logic.CreateRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("create folder record: %w", err)
	}
	return record, nil
}

// GetRecord returns a single record.
func (s *Service) GetRecord(ctx context.Context, id string) (*model.FileRecord, error) {
	return s.logic.GetRecord(ctx, id)
}

// ListChildren lists the direct children of a folder, or root records when parentID is empty.
func (s *Service) ListChildren(ctx context.Context, parentID string) ([]model.FileRecord, error) {
	if parentID == "" {
		return s.logic.ListChildren(ctx, nil)
	}
	parent, err := s.logic.GetRecord(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if !parent.IsFolder() {
		return nil, fmt.Errorf("%w: %s", ErrNotFolder, parent.FileID)
	}
	return s.logic.ListChildren(ctx, &parent.FileID)
}
