package dto

import "time"

type CreateCollectionRequest struct {
	ID string `json:"id"`
}

type CollectionResponse struct {
	ID        string    `json:"id"`
	Colrev    int64     `json:"colrev"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
