package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/yi-nology/cos_bridge/pkg/config"
	"github.com/yi-nology/cos_bridge/pkg/storage"
	"github.com/yi-nology/cos_bridge/pkg/validator"

	"gorm.io/gorm"
)

// Options tunes the service; zero values fall back to defaults.
type Options struct {
	StorePath     string
	MaxDepth      int
	PresignExpiry time.Duration
	Upload        *validator.UploadConfig
}

// Service orchestrates object store writes and file record bookkeeping.
type Service struct {
	logic         *Logic
	store         storage.Storage
	storePath     string
	maxDepth      int
	presignExpiry time.Duration
	upload        *validator.UploadConfig

	now      func() time.Time
	newToken func() string
}

func NewService(db *gorm.DB, store storage.Storage, opts Options) *Service {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = config.DefaultMaxDepth
	}
	if opts.PresignExpiry <= 0 {
		opts.PresignExpiry = config.DefaultPresignExpiry
	}
	if opts.Upload == nil {
		opts.Upload = validator.DefaultUploadConfig()
	}
	return &Service{
		logic:         NewLogic(db),
		store:         store,
		storePath:     trimSlashes(opts.StorePath),
		maxDepth:      opts.MaxDepth,
		presignExpiry: opts.PresignExpiry,
		upload:        opts.Upload,
		now:           time.Now,
		newToken:      uuid.NewString,
	}
}
