package handler

import (
	"context"
	"path"

	"github.com/cloudwego/hertz/pkg/app"
)

type keyRequest struct {
	Key string `json:"key" query:"key"`
}

// UploadObject stores the multipart "file" field under a generated key without a file record.
// @router /api/v1/cos [POST]
func (h *Handler) UploadObject(ctx context.Context, c *app.RequestContext) {
	data, name, contentType, err := formFile(c, "file")
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	res, err := h.svc.UploadObject(ctx, data, name, contentType)
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	respondOK(c, res)
}

// GetObject streams the object named by the key query parameter.
// @router /api/v1/cos [GET]
func (h *Handler) GetObject(ctx context.Context, c *app.RequestContext) {
	key := c.Query("key")
	body, err := h.svc.GetObject(ctx, key)
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	stream(c, body, "", path.Base(key))
}

// PreviewObject returns a signed url for a key.
// @router /api/v1/cos/preview [POST]
func (h *Handler) PreviewObject(ctx context.Context, c *app.RequestContext) {
	var req keyRequest
	if err := c.BindAndValidate(&req); err != nil {
		respondError(ctx, c, badRequest("%v", err))
		return
	}
	url, err := h.svc.PreviewURL(ctx, req.Key)
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	respondOK(c, map[string]string{"url": url, "key": req.Key})
}

// DeleteObject removes a single object by key.
// @router /api/v1/cos/delete [POST]
func (h *Handler) DeleteObject(ctx context.Context, c *app.RequestContext) {
	var req keyRequest
	if err := c.BindAndValidate(&req); err != nil {
		respondError(ctx, c, badRequest("%v", err))
		return
	}
	if err := h.svc.DeleteObject(ctx, req.Key); err != nil {
		respondError(ctx, c, err)
		return
	}
	respondOK(c, map[string]string{"key": req.Key})
}
