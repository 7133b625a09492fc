package version

import (
	"context"
	"runtime"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/yi-nology/cos_bridge/pkg/common"
)

var (
	// Version information, injected at build time via -ldflags
	AppVersion   = "dev"
	AppGitCommit = "unknown"
	AppBuildTime = "unknown"
)

// Info describes the running build.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// Current returns the build information of this binary.
func Current() Info {
	return Info{
		Version:   AppVersion,
		GitCommit: AppGitCommit,
		BuildTime: AppBuildTime,
		GoVersion: runtime.Version(),
	}
}

// GetVersion .
// @router /api/v1/version [GET]
func GetVersion(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, common.CommonResponse{
		Code: consts.StatusOK,
		Msg:  "success",
		Data: Current(),
	})
}
