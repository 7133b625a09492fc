package handler

import (
	"context"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/yi-nology/cos_bridge/biz/dal/model"
	"github.com/yi-nology/cos_bridge/biz/service"
)

type pathResponse struct {
	Path  string             `json:"path"`
	Chain []model.FileRecord `json:"chain"`
}

// UploadFile stores the "file" field under parent_id, an explicit path, or the root.
// @router /api/v1/files [POST]
func (h *Handler) UploadFile(ctx context.Context, c *app.RequestContext) {
	data, name, contentType, err := formFile(c, "file")
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	res, err := h.svc.UploadFile(ctx, &service.UploadInput{
		Data:        data,
		FileName:    name,
		ContentType: contentType,
		Size:        int64(len(data)),
		ParentID:    string(c.FormValue("parent_id")),
		PathPrefix:  string(c.FormValue("path")),
	})
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	respondOK(c, res)
}

// ListFiles lists the children of parent_id, or the root records.
// @router /api/v1/files [GET]
func (h *Handler) ListFiles(ctx context.Context, c *app.RequestContext) {
	records, err := h.svc.ListChildren(ctx, c.Query("parent_id"))
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	respondOK(c, map[string]any{"total": len(records), "items": records})
}

// GetFile returns a single record.
// @router /api/v1/files/:id [GET]
func (h *Handler) GetFile(ctx context.Context, c *app.RequestContext) {
	record, err := h.svc.GetRecord(ctx, c.Param("id"))
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	respondOK(c, record)
}

// GetFilePath resolves the slash-joined path and the root-first chain of a record.
// @router /api/v1/files/:id/path [GET]
func (h *Handler) GetFilePath(ctx context.Context, c *app.RequestContext) {
	chain, err := h.svc.ResolvePathChain(ctx, c.Param("id"))
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	segments := make([]string, len(chain))
	for i := range chain {
		segments[i] = chain[i].Segment()
	}
	respondOK(c, pathResponse{Path: strings.Join(segments, "/"), Chain: chain})
}

// GetFileContent streams the object behind a file record.
// @router /api/v1/files/:id/content [GET]
func (h *Handler) GetFileContent(ctx context.Context, c *app.RequestContext) {
	record, body, err := h.svc.OpenRecordContent(ctx, c.Param("id"))
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	stream(c, body, record.Type, record.Name)
}

// DeleteFile removes a record and its object; folders are removed recursively.
// @router /api/v1/files/:id [DELETE]
func (h *Handler) DeleteFile(ctx context.Context, c *app.RequestContext) {
	record, err := h.svc.DeleteRecord(ctx, c.Param("id"))
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	respondOK(c, map[string]string{"id": record.FileID})
}
