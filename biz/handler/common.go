package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/yi-nology/cos_bridge/biz/service"
	"github.com/yi-nology/cos_bridge/pkg/common"
	"github.com/yi-nology/cos_bridge/pkg/logging"

	"go.uber.org/zap"
)

// Handler exposes the object and file tree APIs over HTTP.
type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Ping answers liveness probes.
func Ping(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, common.CommonResponse{Code: consts.StatusOK, Msg: "pong"})
}

func respondOK(c *app.RequestContext, data any) {
	c.Set(common.ResponseCodeKey, consts.StatusOK)
	c.JSON(consts.StatusOK, common.CommonResponse{
		Code: consts.StatusOK,
		Msg:  http.StatusText(consts.StatusOK),
		Data: data,
	})
}

// respondError writes the envelope for err. The HTTP status stays 200; code carries the outcome.
func respondError(ctx context.Context, c *app.RequestContext, err error) {
	code := codeFor(err)
	msg := err.Error()
	if code == consts.StatusInternalServerError {
		logging.WithContext(ctx).Error("request failed", zap.String("path", string(c.Request.URI().Path())), zap.Error(err))
		msg = "internal error"
	}
	c.Set(common.ResponseCodeKey, code)
	c.JSON(consts.StatusOK, common.CommonResponse{
		Code:  code,
		Msg:   msg,
		Error: err.Error(),
	})
}

func codeFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return consts.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return consts.StatusNotFound
	case errors.Is(err, service.ErrCycleDetected):
		return consts.StatusConflict
	case errors.Is(err, service.ErrUploadFailed), errors.Is(err, service.ErrDeleteFailed):
		return consts.StatusBadRequest
	case errors.Is(err, service.ErrStore):
		return consts.StatusBadGateway
	default:
		return consts.StatusInternalServerError
	}
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", service.ErrValidation, fmt.Sprintf(format, args...))
}

// formFile reads the named multipart field fully into memory.
func formFile(c *app.RequestContext, field string) (data []byte, name, contentType string, err error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, "", "", badRequest("form field %q: %v", field, err)
	}
	file, err := header.Open()
	if err != nil {
		return nil, "", "", badRequest("open %q: %v", field, err)
	}
	defer file.Close()

	data, err = io.ReadAll(file)
	if err != nil {
		return nil, "", "", fmt.Errorf("read %q: %w", field, err)
	}
	return data, header.Filename, header.Header.Get("Content-Type"), nil
}

// stream sends body as the response and lets hertz close it once written.
func stream(c *app.RequestContext, body io.ReadCloser, contentType, fileName string) {
	if contentType == "" {
		contentType = consts.MIMEApplicationOctetStream
	}
	c.Response.Header.Set("Content-Type", contentType)
	if fileName != "" {
		c.Response.Header.Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", fileName))
	}
	c.SetStatusCode(consts.StatusOK)
	c.SetBodyStream(body, -1)
}
