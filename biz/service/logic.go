package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/yi-nology/cos_bridge/biz/dal/db"
	"github.com/yi-nology/cos_bridge/biz/dal/model"
	"gorm.io/gorm"
)

// Logic contains metadata rules on top of data persistence.
type Logic struct {
	db      *gorm.DB
	fileDAO *db.FileRecordDAO
}

func NewLogic(dbConn *gorm.DB) *Logic {
	return &Logic{
		db:      dbConn,
		fileDAO: db.NewFileRecordDAO(),
	}
}

func (l *Logic) CreateRecord(ctx context.Context, record *model.FileRecord) error {
	return l.fileDAO.Create(ctx, l.db, record)
}

func (l *Logic) GetRecord(ctx context.Context, fileID string) (*model.FileRecord, error) {
	record, err := l.fileDAO.GetByFileID(ctx, l.db, fileID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, fileID)
	}
	return record, err
}

func (l *Logic) ListChildren(ctx context.Context, parentID *string) ([]model.FileRecord, error) {
	return l.fileDAO.ListChildren(ctx, l.db, parentID)
}

// FindChildFolder returns the sibling folder called name, or nil when there is none.
func (l *Logic) FindChildFolder(ctx context.Context, parentID *string, name string) (*model.FileRecord, error) {
	record, err := l.fileDAO.FindChildFolder(ctx, l.db, parentID, name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return record, err
}

// DeleteSubtree removes root and every descendant in one transaction. Ids are
// collected depth first, root before its children, then deleted in batches.
func (l *Logic) DeleteSubtree(ctx context.Context, root *model.FileRecord) (int, error) {
	var ids []string
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stack := []string{root.FileID}
		visited := make(map[string]struct{})
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if _, seen := visited[id]; seen {
				continue
			}
			visited[id] = struct{}{}
			ids = append(ids, id)

			children, err := l.fileDAO.ListChildren(ctx, tx, &id)
			if err != nil {
				return fmt.Errorf("list children of %s: %w", id, err)
			}
			for i := len(children) - 1; i >= 0; i-- {
				stack = append(stack, children[i].FileID)
			}
		}
		if err := l.fileDAO.DeleteByFileIDs(ctx, tx, ids); err != nil {
			return fmt.Errorf("delete %d records: %w", len(ids), err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}
