package router

import (
	"strings"
	"testing"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/yi-nology/cos_bridge/biz/dal/db"
	"github.com/yi-nology/cos_bridge/biz/handler"
	"github.com/yi-nology/cos_bridge/biz/service"
	"github.com/yi-nology/cos_bridge/pkg/config"
	"github.com/yi-nology/cos_bridge/pkg/storage/memory"
)

func TestRegisterRoutes(t *testing.T) {
	svc := service.NewService(db.SetupTestDB(t), memory.New(memory.Config{}), service.Options{})
	srv := server.New()
	Register(srv, handler.New(svc), nil, config.MetricsConfig{Enabled: true, Path: "/metrics"})

	want := make(map[string]bool)
	for _, route := range []string{
		"GET /ping",
		"GET /metrics",
		"POST /api/v1/cos",
		"POST /api/v1/cos/completeMultipartUpload",
		"DELETE /api/v1/folders/:id",
		"GET /api/v1/files/:id/path",
	} {
		want[route] = false
	}
	for _, r := range srv.Routes() {
		key := r.Method + " " + r.Path
		if _, ok := want[key]; ok {
			want[key] = true
		}
	}
	for route, found := range want {
		if !found {
			t.Errorf("route %s not registered", route)
		}
	}

	w := ut.PerformRequest(srv.Engine, "GET", "/api/v1/files", nil)
	if body := string(w.Result().Body()); !strings.Contains(body, `"code":200`) {
		t.Fatalf("unexpected list response: %s", body)
	}
}
