package middleware

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/yi-nology/cos_bridge/pkg/common"
	"github.com/yi-nology/cos_bridge/pkg/logging"

	"go.uber.org/zap"
)

// Locker is satisfied by lock.DistributedLock.
type Locker interface {
	Acquire(ctx context.Context) (string, error)
	Release(ctx context.Context, lockID string) error
}

// WriteLock returns a middleware slice that serializes requests through l.
// A nil locker (Redis disabled) yields no middleware at all.
func WriteLock(l Locker) []app.HandlerFunc {
	if l == nil {
		return nil
	}
	return []app.HandlerFunc{writeLockHandler(l)}
}

func writeLockHandler(l Locker) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		lockID, err := l.Acquire(ctx)
		if err != nil {
			logging.WithContext(ctx).Warn("acquire write lock failed", zap.Error(err))
			c.AbortWithStatusJSON(consts.StatusServiceUnavailable, common.CommonResponse{
				Code:  consts.StatusServiceUnavailable,
				Msg:   "service busy, please retry later",
				Error: err.Error(),
			})
			return
		}
		defer func() {
			if releaseErr := l.Release(ctx, lockID); releaseErr != nil {
				logging.WithContext(ctx).Warn("release write lock failed", zap.Error(releaseErr))
			}
		}()
		c.Next(ctx)
	}
}
