package handlers

import (
	"context"
	"errors"

	"github.com/m1z23r/drift/pkg/drift"

	"github.com/m1z23r/nikode-sync/internal/services"
	"github.com/m1z23r/nikode-sync/pkg/dto"
)

type GroupHandler struct {
	groupService GroupServiceInterface
}

func NewGroupHandler(groupService GroupServiceInterface) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

func (h *GroupHandler) Create(c *drift.Context) {
	var req dto.CreateGroupRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.ID == "" {
		c.BadRequest("id is required")
		return
	}

	group, err := h.groupService.Create(context.Background(), req.ID)
	if err != nil {
		if errors.Is(err, services.ErrGroupExists) {
			c.BadRequest("duplicate id")
			return
		}
		c.InternalServerError("failed to create group")
		return
	}

	_ = c.JSON(201, dto.GroupResponse{
		ID:        group.ID,
		CreatedAt: group.CreatedAt,
	})
}

func (h *GroupHandler) Delete(c *drift.Context) {
	err := h.groupService.Delete(context.Background(), c.Param("groupId"))
	if err != nil {
		if errors.Is(err, services.ErrGroupNotFound) {
			c.NotFound("group not found")
			return
		}
		c.InternalServerError("failed to delete group")
		return
	}

	_ = c.JSON(200, map[string]string{"status": "deleted"})
}

func (h *GroupHandler) AddMember(c *drift.Context) {
	var req dto.AddMemberRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.UserID == "" {
		c.BadRequest("user_id is required")
		return
	}

	_, err := h.groupService.AddMember(context.Background(), req.UserID, c.Param("groupId"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrGroupNotFound):
			c.NotFound("group not found")
		case errors.Is(err, services.ErrMemberExists):
			c.BadRequest("user is already a member")
		default:
			c.InternalServerError("failed to add member")
		}
		return
	}

	_ = c.JSON(200, map[string]string{"status": "added"})
}

func (h *GroupHandler) RemoveMember(c *drift.Context) {
	err := h.groupService.RemoveMember(context.Background(), c.Param("userId"), c.Param("groupId"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMemberNotFound):
			c.NotFound("membership not found")
		default:
			c.InternalServerError("failed to remove member")
		}
		return
	}

	_ = c.JSON(200, map[string]string{"status": "removed"})
}
