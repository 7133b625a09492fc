package middleware

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/google/uuid"
	"github.com/yi-nology/cos_bridge/pkg/common"
	"github.com/yi-nology/cos_bridge/pkg/logging"
	"github.com/yi-nology/cos_bridge/pkg/metrics"

	"go.uber.org/zap"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-Id"

// Logging returns a middleware that tags the request with an id, logs it and records metrics.
func Logging() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		start := time.Now()

		requestID := string(c.GetHeader(RequestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = logging.WithRequestID(ctx, requestID)
		c.Response.Header.Set(RequestIDHeader, requestID)

		c.Next(ctx)

		latency := time.Since(start)
		method := string(c.Request.Method())
		statusCode := responseStatus(c)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordHTTPRequest(method, route, statusCode, latency)

		logging.WithContext(ctx).Info("request",
			zap.String("client_ip", c.ClientIP()),
			zap.String("method", method),
			zap.String("path", string(c.Request.URI().Path())),
			zap.Int("status", statusCode),
			zap.Duration("latency", latency),
		)
	}
}

// responseStatus prefers the envelope code set by handlers, since API errors are sent with HTTP 200.
func responseStatus(c *app.RequestContext) int {
	if code := c.GetInt(common.ResponseCodeKey); code != 0 {
		return code
	}
	return c.Response.StatusCode()
}
