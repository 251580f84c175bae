package handlers

import (
	"context"
	"errors"

	"github.com/m1z23r/drift/pkg/drift"

	"github.com/m1z23r/nikode-sync/internal/permissions"
	"github.com/m1z23r/nikode-sync/internal/services"
	"github.com/m1z23r/nikode-sync/pkg/dto"
)

type DocumentHandler struct {
	documentService DocumentServiceInterface
}

func NewDocumentHandler(documentService DocumentServiceInterface) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

func (h *DocumentHandler) Get(c *drift.Context) {
	document, err := h.documentService.Get(context.Background(), c.Param("documentId"))
	if err != nil {
		c.InternalServerError("failed to get document")
		return
	}
	if document == nil {
		c.NotFound("document not found")
		return
	}

	_ = c.JSON(200, dto.DocumentResponse{
		ID:        document.ID,
		ColID:     document.ColID,
		Data:      dto.EncodeDocData(document.Data),
		IsDeleted: document.IsDeleted,
		Colrev:    document.Colrev,
		CreatedAt: document.CreatedAt,
		UpdatedAt: document.UpdatedAt,
	})
}

func (h *DocumentHandler) SetPermission(c *drift.Context) {
	h.updatePermission(c, h.documentService.SetPermission)
}

func (h *DocumentHandler) UnsetPermission(c *drift.Context) {
	h.updatePermission(c, h.documentService.UnsetPermission)
}

func (h *DocumentHandler) updatePermission(
	c *drift.Context,
	apply func(ctx context.Context, id string, p permissions.Permission, role permissions.Role) error,
) {
	var req dto.PermissionRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	permission := permissions.Permission(req.Permission)
	switch permission {
	case permissions.Read, permissions.Write, permissions.Admin:
	default:
		c.BadRequest("unknown permission")
		return
	}

	role, err := permissions.ParseRole(req.Role)
	if err != nil {
		c.BadRequest("invalid role")
		return
	}

	err = apply(context.Background(), c.Param("documentId"), permission, role)
	if err != nil {
		if errors.Is(err, services.ErrDocumentNotFound) {
			c.NotFound("document not found")
			return
		}
		c.InternalServerError("failed to update permissions")
		return
	}

	_ = c.JSON(200, map[string]string{"status": "ok"})
}
