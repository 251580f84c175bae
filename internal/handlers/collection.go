package handlers

import (
	"context"
	"errors"

	"github.com/m1z23r/drift/pkg/drift"

	"github.com/m1z23r/nikode-sync/internal/services"
	"github.com/m1z23r/nikode-sync/pkg/dto"
)

type CollectionHandler struct {
	collectionService CollectionServiceInterface
}

func NewCollectionHandler(collectionService CollectionServiceInterface) *CollectionHandler {
	return &CollectionHandler{collectionService: collectionService}
}

func (h *CollectionHandler) Create(c *drift.Context) {
	var req dto.CreateCollectionRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.ID == "" {
		c.BadRequest("id is required")
		return
	}

	collection, err := h.collectionService.Create(context.Background(), req.ID)
	if err != nil {
		if errors.Is(err, services.ErrCollectionExists) {
			c.BadRequest("duplicate id")
			return
		}
		c.InternalServerError("failed to create collection")
		return
	}

	_ = c.JSON(201, dto.CollectionResponse{
		ID:        collection.ID,
		Colrev:    collection.Colrev,
		CreatedAt: collection.CreatedAt,
		UpdatedAt: collection.UpdatedAt,
	})
}

func (h *CollectionHandler) Get(c *drift.Context) {
	collection, err := h.collectionService.Get(context.Background(), c.Param("collectionId"))
	if err != nil {
		if errors.Is(err, services.ErrCollectionNotFound) {
			c.NotFound("collection not found")
			return
		}
		c.InternalServerError("failed to get collection")
		return
	}

	_ = c.JSON(200, dto.CollectionResponse{
		ID:        collection.ID,
		Colrev:    collection.Colrev,
		CreatedAt: collection.CreatedAt,
		UpdatedAt: collection.UpdatedAt,
	})
}

func (h *CollectionHandler) List(c *drift.Context) {
	collections, err := h.collectionService.List(context.Background())
	if err != nil {
		c.InternalServerError("failed to list collections")
		return
	}

	response := make([]dto.CollectionResponse, len(collections))
	for i, col := range collections {
		response[i] = dto.CollectionResponse{
			ID:        col.ID,
			Colrev:    col.Colrev,
			CreatedAt: col.CreatedAt,
			UpdatedAt: col.UpdatedAt,
		}
	}

	_ = c.JSON(200, response)
}

func (h *CollectionHandler) Delete(c *drift.Context) {
	err := h.collectionService.Delete(context.Background(), c.Param("collectionId"))
	if err != nil {
		if errors.Is(err, services.ErrCollectionNotFound) {
			c.NotFound("collection not found")
			return
		}
		c.InternalServerError("failed to delete collection")
		return
	}

	_ = c.JSON(200, map[string]string{"status": "deleted"})
}
