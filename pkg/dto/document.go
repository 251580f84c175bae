package dto

import "time"

type DocumentResponse struct {
	ID        string    `json:"id"`
	ColID     string    `json:"col_id"`
	Data      *string   `json:"data"`
	IsDeleted bool      `json:"is_deleted"`
	Colrev    int64     `json:"colrev"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PermissionRequest grants or revokes a role on a document. Role uses
// the "any", "user:<id>" or "group:<id>" form.
type PermissionRequest struct {
	Permission string `json:"permission"`
	Role       string `json:"role"`
}
