package middleware

import (
	"context"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/yi-nology/cos_bridge/pkg/common"
)

const (
	userIDHeader        = "X-User-Id"
	clientVersionHeader = "X-Client-Version"
)

// Auth copies caller identity headers into the context. It never rejects a request;
// records created while handling it carry the user id as created_by.
func Auth() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		if id, ok := userIDFrom(c); ok {
			ctx = common.ContextWithUserID(ctx, id)
		}

		clientVersion := string(c.GetHeader(clientVersionHeader))
		if clientVersion == "" {
			clientVersion = c.Query("client_version")
		}
		if clientVersion != "" {
			ctx = common.ContextWithClientVersion(ctx, clientVersion)
		}

		c.Next(ctx)
	}
}

func userIDFrom(c *app.RequestContext) (int, bool) {
	raw := c.GetHeader(userIDHeader)
	if len(raw) == 0 {
		return 0, false
	}
	id, err := strconv.Atoi(string(raw))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
