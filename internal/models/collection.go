package models

import (
	"time"
)

type Collection struct {
	ID        string    `json:"id"`
	Colrev    int64     `json:"colrev"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Document is a row in the documents table. Data holds an opaque
// CRDT-encoded blob; it is nil for tombstones (IsDeleted true).
// Permissions is the serialized permissions table exactly as stored.
type Document struct {
	ID          string    `json:"id"`
	ColID       string    `json:"col_id"`
	Data        []byte    `json:"data"`
	IsDeleted   bool      `json:"is_deleted"`
	Permissions string    `json:"permissions"`
	Colrev      int64     `json:"colrev"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
