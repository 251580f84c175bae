package models

import (
	"time"

	"github.com/google/uuid"
)

type Group struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

type GroupMember struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	GroupID   string    `json:"group_id"`
	CreatedAt time.Time `json:"created_at"`
}
