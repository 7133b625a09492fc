package handler

import (
	"context"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/yi-nology/cos_bridge/biz/service"
	"github.com/yi-nology/cos_bridge/pkg/storage"
)

type initMultipartRequest struct {
	FileName string `json:"fileName"`
	Key      string `json:"key"`
}

type multipartRequest struct {
	Key      string `json:"key"`
	UploadID string `json:"uploadId"`
}

type completeMultipartRequest struct {
	Key      string                  `json:"key"`
	UploadID string                  `json:"uploadId"`
	Parts    []storage.CompletedPart `json:"parts"`
}

// InitMultipartUpload starts a multipart upload. An explicit key wins over fileName.
// @router /api/v1/cos/initMultipartUpload [POST]
func (h *Handler) InitMultipartUpload(ctx context.Context, c *app.RequestContext) {
	var req initMultipartRequest
	if err := c.BindAndValidate(&req); err != nil {
		respondError(ctx, c, badRequest("%v", err))
		return
	}

	var (
		session *service.MultipartSession
		err     error
	)
	if req.Key != "" {
		session, err = h.svc.InitiateMultipart(ctx, req.Key)
	} else {
		session, err = h.svc.InitiateMultipartForFile(ctx, req.FileName)
	}
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	respondOK(c, session)
}

// UploadPart accepts one "chunk" together with uploadId, key and partNumber form fields.
// @router /api/v1/cos/uploadPart [POST]
func (h *Handler) UploadPart(ctx context.Context, c *app.RequestContext) {
	partNumber, err := strconv.ParseInt(string(c.FormValue("partNumber")), 10, 32)
	if err != nil {
		respondError(ctx, c, badRequest("invalid partNumber: %v", err))
		return
	}
	data, _, _, err := formFile(c, "chunk")
	if err != nil {
		respondError(ctx, c, err)
		return
	}

	part, err := h.svc.UploadPart(ctx,
		string(c.FormValue("key")),
		string(c.FormValue("uploadId")),
		int32(partNumber),
		data,
	)
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	respondOK(c, part)
}

// CompleteMultipartUpload assembles the listed parts into the final object.
// @router /api/v1/cos/completeMultipartUpload [POST]
func (h *Handler) CompleteMultipartUpload(ctx context.Context, c *app.RequestContext) {
	var req completeMultipartRequest
	if err := c.BindAndValidate(&req); err != nil {
		respondError(ctx, c, badRequest("%v", err))
		return
	}
	res, err := h.svc.CompleteMultipart(ctx, req.Key, req.UploadID, req.Parts)
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	respondOK(c, res)
}

// AbortMultipartUpload discards an unfinished upload.
// @router /api/v1/cos/abortMultipartUpload [POST]
func (h *Handler) AbortMultipartUpload(ctx context.Context, c *app.RequestContext) {
	var req multipartRequest
	if err := c.BindAndValidate(&req); err != nil {
		respondError(ctx, c, badRequest("%v", err))
		return
	}
	if err := h.svc.AbortMultipart(ctx, req.Key, req.UploadID); err != nil {
		respondError(ctx, c, err)
		return
	}
	respondOK(c, req)
}
