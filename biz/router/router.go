package router

import (
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/adaptor"
	"github.com/yi-nology/cos_bridge/biz/handler"
	"github.com/yi-nology/cos_bridge/biz/handler/version"
	"github.com/yi-nology/cos_bridge/biz/middleware"
	"github.com/yi-nology/cos_bridge/pkg/config"
	"github.com/yi-nology/cos_bridge/pkg/metrics"
)

// Register configures every HTTP route. Routes that restructure the tree or
// assemble objects pass through the write lock when one is configured.
func Register(r *server.Hertz, h *handler.Handler, locker middleware.Locker, metricsCfg config.MetricsConfig) {
	r.GET("/ping", handler.Ping)
	if metricsCfg.Enabled {
		r.GET(metricsCfg.Path, adaptor.HertzHandler(metrics.Handler()))
	}
	if h == nil {
		return
	}

	locked := func(fn app.HandlerFunc) []app.HandlerFunc {
		return append(middleware.WriteLock(locker), fn)
	}

	v1 := r.Group("/api/v1")
	v1.GET("/version", version.GetVersion)

	cos := v1.Group("/cos")
	cos.POST("", h.UploadObject)
	cos.GET("", h.GetObject)
	cos.POST("/preview", h.PreviewObject)
	cos.POST("/delete", h.DeleteObject)
	cos.POST("/initMultipartUpload", h.InitMultipartUpload)
	cos.POST("/uploadPart", h.UploadPart)
	cos.POST("/completeMultipartUpload", locked(h.CompleteMultipartUpload)...)
	cos.POST("/abortMultipartUpload", h.AbortMultipartUpload)

	files := v1.Group("/files")
	files.POST("", h.UploadFile)
	files.GET("", h.ListFiles)
	files.GET("/:id", h.GetFile)
	files.GET("/:id/path", h.GetFilePath)
	files.GET("/:id/content", h.GetFileContent)
	files.DELETE("/:id", locked(h.DeleteFile)...)

	folders := v1.Group("/folders")
	folders.POST("", h.CreateFolder)
	folders.DELETE("/:id", locked(h.DeleteFolder)...)
}
