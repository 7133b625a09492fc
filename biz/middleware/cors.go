package middleware

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/yi-nology/cos_bridge/pkg/config"
)

// CORS answers preflight requests and stamps the configured headers on every response.
// Defaults are applied by config.Load, so cfg is used as is.
func CORS(cfg config.CORSConfig) app.HandlerFunc {
	allowCredentials := "false"
	if cfg.AllowCredentials {
		allowCredentials = "true"
	}

	return func(ctx context.Context, c *app.RequestContext) {
		h := &c.Response.Header
		h.Set("Access-Control-Allow-Origin", cfg.AllowOrigin)
		h.Set("Access-Control-Allow-Methods", cfg.AllowMethods)
		h.Set("Access-Control-Allow-Headers", cfg.AllowHeaders)
		h.Set("Access-Control-Allow-Credentials", allowCredentials)
		h.Set("Access-Control-Expose-Headers", RequestIDHeader)

		if string(c.Request.Method()) == consts.MethodOptions {
			c.AbortWithStatus(consts.StatusNoContent)
			return
		}

		c.Next(ctx)
	}
}
