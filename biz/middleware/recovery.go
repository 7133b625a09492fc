package middleware

import (
	"context"
	"fmt"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/yi-nology/cos_bridge/pkg/common"
	"github.com/yi-nology/cos_bridge/pkg/logging"

	"go.uber.org/zap"
)

// Recovery returns a middleware that recovers from panics and logs the error.
func Recovery() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		defer func() {
			if err := recover(); err != nil {
				logging.WithContext(ctx).Error("panic recovered",
					zap.Any("panic", err),
					zap.Stack("stack"),
				)

				c.AbortWithStatusJSON(consts.StatusInternalServerError, common.CommonResponse{
					Code:  consts.StatusInternalServerError,
					Msg:   "internal server error",
					Error: fmt.Sprintf("%v", err),
				})
			}
		}()

		c.Next(ctx)
	}
}
