package dto

import "time"

type CreateGroupRequest struct {
	ID string `json:"id"`
}

type GroupResponse struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

type AddMemberRequest struct {
	UserID string `json:"user_id"`
}
