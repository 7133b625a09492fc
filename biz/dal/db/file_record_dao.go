package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/yi-nology/cos_bridge/biz/dal/model"

	"gorm.io/gorm"
)

// deleteBatchSize keeps IN lists under SQLite's bound parameter limit.
const deleteBatchSize = 500

// FileRecordDAO handles CRUD operations for file and folder records.
type FileRecordDAO struct{}

func NewFileRecordDAO() *FileRecordDAO { return &FileRecordDAO{} }

// Create inserts record, assigning a FileID when the caller left it empty.
func (dao *FileRecordDAO) Create(ctx context.Context, db *gorm.DB, record *model.FileRecord) error {
	if record == nil {
		return errors.New("file record must not be nil")
	}
	if record.Name == "" || record.Type == "" {
		return errors.New("file record name and type are required")
	}
	if record.FileID == "" {
		record.FileID = uuid.NewString()
	}
	return db.WithContext(ctx).Create(record).Error
}

// GetByFileID returns gorm.ErrRecordNotFound when no record matches.
func (dao *FileRecordDAO) GetByFileID(ctx context.Context, db *gorm.DB, fileID string) (*model.FileRecord, error) {
	var record model.FileRecord
	if err := db.WithContext(ctx).Where("file_id = ?", fileID).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// ListChildren returns direct children of parentID, or root records when parentID is nil.
func (dao *FileRecordDAO) ListChildren(ctx context.Context, db *gorm.DB, parentID *string) ([]model.FileRecord, error) {
	query := db.WithContext(ctx)
	if parentID == nil {
		query = query.Where("parent_id IS NULL")
	} else {
		query = query.Where("parent_id = ?", *parentID)
	}

	var records []model.FileRecord
	if err := query.Order("type = 'Folder' DESC").Order("name ASC").Order("id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// FindChildFolder returns the folder named name directly under parentID (root when nil),
// or gorm.ErrRecordNotFound.
func (dao *FileRecordDAO) FindChildFolder(ctx context.Context, db *gorm.DB, parentID *string, name string) (*model.FileRecord, error) {
	query := db.WithContext(ctx).Where("name = ? AND type = ?", name, model.FolderType)
	if parentID == nil {
		query = query.Where("parent_id IS NULL")
	} else {
		query = query.Where("parent_id = ?", *parentID)
	}

	var record model.FileRecord
	if err := query.First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// DeleteByFileIDs removes the listed records in batches.
func (dao *FileRecordDAO) DeleteByFileIDs(ctx context.Context, db *gorm.DB, fileIDs []string) error {
	for start := 0; start < len(fileIDs); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(fileIDs))
		if err := db.WithContext(ctx).Where("file_id IN ?", fileIDs[start:end]).Delete(&model.FileRecord{}).Error; err != nil {
			return err
		}
	}
	return nil
}
