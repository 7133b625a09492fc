package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("not found")
	ErrNotFolder     = fmt.Errorf("%w: record is not a folder", ErrValidation)
	ErrFolderExists  = fmt.Errorf("%w: folder already exists", ErrValidation)
	ErrUploadFailed  = errors.New("upload file failed")
	ErrDeleteFailed  = errors.New("delete failed")
	ErrCycleDetected = errors.New("cycle detected in parent chain")
	ErrStore         = errors.New("object store error")

	ErrRecordNotFound = fmt.Errorf("file record %w", ErrNotFound)
	ErrObjectNotFound = fmt.Errorf("object %w", ErrNotFound)
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// storeError wraps an SDK failure so callers can match ErrStore and still see the cause.
func storeError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
}
