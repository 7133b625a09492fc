package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/yi-nology/cos_bridge/pkg/common"
	"github.com/yi-nology/cos_bridge/pkg/config"
	"github.com/yi-nology/cos_bridge/pkg/logging"
)

type fakeLocker struct {
	acquireErr error
	acquired   int
	released   []string
}

func (f *fakeLocker) Acquire(ctx context.Context) (string, error) {
	if f.acquireErr != nil {
		return "", f.acquireErr
	}
	f.acquired++
	return "lock-1", nil
}

func (f *fakeLocker) Release(ctx context.Context, lockID string) error {
	f.released = append(f.released, lockID)
	return nil
}

func okHandler(ctx context.Context, c *app.RequestContext) {
	c.String(200, "ok")
}

func TestWriteLockSerializes(t *testing.T) {
	locker := &fakeLocker{}
	srv := server.New()
	srv.POST("/locked", append(WriteLock(locker), okHandler)...)

	w := ut.PerformRequest(srv.Engine, "POST", "/locked", nil)
	assert.Equal(t, 200, w.Result().StatusCode())
	assert.Equal(t, 1, locker.acquired)
	assert.Equal(t, []string{"lock-1"}, locker.released)
}

func TestWriteLockBusy(t *testing.T) {
	locker := &fakeLocker{acquireErr: errors.New("timeout")}
	srv := server.New()
	srv.POST("/locked", append(WriteLock(locker), okHandler)...)

	w := ut.PerformRequest(srv.Engine, "POST", "/locked", nil)
	assert.Equal(t, 503, w.Result().StatusCode())
	assert.Empty(t, locker.released)
}

func TestWriteLockDisabled(t *testing.T) {
	assert.Nil(t, WriteLock(nil))
}

func TestAuthEnrichesContext(t *testing.T) {
	srv := server.New()
	srv.Use(Auth())
	var gotID int
	var gotVersion string
	srv.GET("/who", func(ctx context.Context, c *app.RequestContext) {
		gotID, _ = common.GetUserID(ctx)
		gotVersion = common.GetClientVersion(ctx)
		c.String(200, "ok")
	})

	ut.PerformRequest(srv.Engine, "GET", "/who?client_version=2.0.0", nil, ut.Header{Key: "X-User-Id", Value: "9"})
	assert.Equal(t, 9, gotID)
	assert.Equal(t, "2.0.0", gotVersion)

	gotID = 0
	ut.PerformRequest(srv.Engine, "GET", "/who", nil, ut.Header{Key: "X-User-Id", Value: "-3"})
	assert.Zero(t, gotID)
}

func TestCORSPreflight(t *testing.T) {
	srv := server.New()
	srv.Use(CORS(config.CORSConfig{AllowOrigin: "https://example.com", AllowMethods: "GET", AllowHeaders: "*"}))
	srv.OPTIONS("/x", okHandler)

	w := ut.PerformRequest(srv.Engine, "OPTIONS", "/x", nil)
	resp := w.Result()
	assert.Equal(t, 204, resp.StatusCode())
	assert.Equal(t, "https://example.com", string(resp.Header.Peek("Access-Control-Allow-Origin")))
}

func TestLoggingPropagatesRequestID(t *testing.T) {
	srv := server.New()
	srv.Use(Logging())
	var seen string
	srv.GET("/rid", func(ctx context.Context, c *app.RequestContext) {
		seen = logging.GetRequestID(ctx)
		c.String(200, "ok")
	})

	w := ut.PerformRequest(srv.Engine, "GET", "/rid", nil, ut.Header{Key: RequestIDHeader, Value: "req-42"})
	assert.Equal(t, "req-42", seen)
	assert.Equal(t, "req-42", string(w.Result().Header.Peek(RequestIDHeader)))

	w = ut.PerformRequest(srv.Engine, "GET", "/rid", nil)
	assert.NotEmpty(t, string(w.Result().Header.Peek(RequestIDHeader)))
}

func requestCount(t *testing.T, path, status string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != "cos_bridge_http_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := make(map[string]string)
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["path"] == path && labels["status"] == status {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestLoggingRecordsEnvelopeCode(t *testing.T) {
	srv := server.New()
	srv.Use(Logging())
	srv.GET("/coded", func(ctx context.Context, c *app.RequestContext) {
		c.Set(common.ResponseCodeKey, 404)
		c.JSON(200, common.CommonResponse{Code: 404, Msg: "missing"})
	})
	srv.GET("/plain", okHandler)

	ut.PerformRequest(srv.Engine, "GET", "/coded", nil)
	ut.PerformRequest(srv.Engine, "GET", "/plain", nil)

	assert.Equal(t, float64(1), requestCount(t, "/coded", "404"))
	assert.Zero(t, requestCount(t, "/coded", "200"))
	assert.Equal(t, float64(1), requestCount(t, "/plain", "200"))
}

func TestRecoveryReturnsEnvelope(t *testing.T) {
	srv := server.New()
	srv.Use(Recovery())
	srv.GET("/panic", func(ctx context.Context, c *app.RequestContext) {
		panic("boom")
	})

	w := ut.PerformRequest(srv.Engine, "GET", "/panic", nil)
	assert.Equal(t, 500, w.Result().StatusCode())
	assert.Contains(t, string(w.Result().Body()), "boom")
}
