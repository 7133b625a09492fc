package service

import (
	"context"
	"fmt"

	"github.com/yi-nology/cos_bridge/biz/dal/model"
	"github.com/yi-nology/cos_bridge/pkg/logging"
	"github.com/yi-nology/cos_bridge/pkg/metrics"

	"go.uber.org/zap"
)

// DeleteFolder removes every object under the folder's key prefix, then the record subtree.
// A store failure leaves all metadata in place so the call can be retried.
func (s *Service) DeleteFolder(ctx context.Context, id string) error {
	folder, err := s.logic.GetRecord(ctx, id)
	if err != nil {
		return err
	}
	if !folder.IsFolder() {
		return fmt.Errorf("%w: %s", ErrNotFolder, folder.FileID)
	}

	rounds, removed, err := s.purgePrefix(ctx, folder.Key)
	if err != nil {
		return err
	}
	metrics.RecordFolderDeleteRounds(rounds)

	records, err := s.logic.DeleteSubtree(ctx, folder)
	if err != nil {
		return fmt.Errorf("delete folder records: %w", err)
	}

	logging.WithContext(ctx).Info("folder deleted",
		zap.String("file_id", folder.FileID),
		zap.String("prefix", folder.Key),
		zap.Int("rounds", rounds),
		zap.Int("objects", removed),
		zap.Int("records", records))
	return nil
}

// purgePrefix lists from the start of prefix and batch deletes each page until the
// listing is no longer truncated. A round that frees nothing fails with ErrDeleteFailed.
func (s *Service) purgePrefix(ctx context.Context, prefix string) (rounds, removed int, err error) {
	if prefix == "" {
		return 0, 0, validationError("empty folder key")
	}
	var previous []string
	for {
		page, err := s.store.ListObjects(ctx, prefix, "")
		if err != nil {
			return rounds, removed, storeError("list objects", err)
		}
		rounds++
		if len(page.Keys) == 0 {
			return rounds, removed, nil
		}
		if sameKeys(previous, page.Keys) {
			return rounds, removed, fmt.Errorf("%w: %d objects under %s survived batch delete",
				ErrDeleteFailed, len(page.Keys), prefix)
		}
		if err := s.store.DeleteObjects(ctx, page.Keys); err != nil {
			return rounds, removed, fmt.Errorf("%w: %w", ErrDeleteFailed, err)
		}
		removed += len(page.Keys)
		if !page.IsTruncated {
			return rounds, removed, nil
		}
		previous = page.Keys
	}
}

func sameKeys(a, b []string) bool {
	if len(a) == 0 || len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// DeleteFile removes one object and then its record. Descendant records of a folder are
// removed too, but their objects are not; use DeleteFolder for folders.
func (s *Service) DeleteFile(ctx context.Context, id string) error {
	record, err := s.logic.GetRecord(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteObject(ctx, record.Key); err != nil {
		return fmt.Errorf("%w: %w", ErrDeleteFailed, err)
	}
	if _, err := s.logic.DeleteSubtree(ctx, record); err != nil {
		return fmt.Errorf("delete file record: %w", err)
	}
	logging.WithContext(ctx).Info("file deleted", zap.String("file_id", record.FileID), zap.String("key", record.Key))
	return nil
}

// DeleteRecord dispatches to DeleteFolder or DeleteFile depending on the record type.
func (s *Service) DeleteRecord(ctx context.Context, id string) (*model.FileRecord, error) {
	record, err := s.logic.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.IsFolder() {
		return record, s.DeleteFolder(ctx, id)
	}
	return record, s.DeleteFile(ctx, id)
}
