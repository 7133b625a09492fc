package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
)

type createFolderRequest struct {
	Name     string `json:"name"`
	ParentID string `json:"parent_id"`
}

// CreateFolder creates a folder record and its marker object.
// @router /api/v1/folders [POST]
func (h *Handler) CreateFolder(ctx context.Context, c *app.RequestContext) {
	var req createFolderRequest
	if err := c.BindAndValidate(&req); err != nil {
		respondError(ctx, c, badRequest("%v", err))
		return
	}
	record, err := h.svc.CreateFolder(ctx, req.Name, req.ParentID)
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	respondOK(c, record)
}

// DeleteFolder removes every object under the folder and then its record subtree.
// @router /api/v1/folders/:id [DELETE]
func (h *Handler) DeleteFolder(ctx context.Context, c *app.RequestContext) {
	id := c.Param("id")
	if err := h.svc.DeleteFolder(ctx, id); err != nil {
		respondError(ctx, c, err)
		return
	}
	respondOK(c, map[string]string{"id": id})
}
