package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/yi-nology/cos_bridge/pkg/config"
	"github.com/yi-nology/cos_bridge/pkg/storage/local"
	"github.com/yi-nology/cos_bridge/pkg/storage/memory"
	"github.com/yi-nology/cos_bridge/pkg/storage/s3"
)

// New creates a storage adapter based on configuration.
func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch strings.ToLower(cfg.Type) {
	case "", "local":
		return local.New(local.Config{
			BasePath:     cfg.Local.BasePath,
			Bucket:       cfg.Local.Bucket,
			ListPageSize: cfg.Local.ListPageSize,
		})

	case "memory":
		return memory.New(memory.Config{
			Bucket:       cfg.Memory.Bucket,
			ListPageSize: cfg.Memory.ListPageSize,
		}), nil

	case "s3", "cos":
		return s3.New(ctx, s3.Config{
			Endpoint:     cfg.S3.Endpoint,
			Region:       cfg.S3.Region,
			Bucket:       cfg.S3.Bucket,
			AccessKey:    cfg.S3.AccessKey,
			SecretKey:    cfg.S3.SecretKey,
			PathStyle:    cfg.S3.PathStyle,
			ListPageSize: cfg.S3.ListPageSize,
		})

	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
