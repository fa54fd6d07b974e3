package model

import (
	"time"

	"github.com/google/uuid"
)

// Base carries the identity and bookkeeping columns every persisted
// row shares. DeletedAt implements soft deletion where a table uses it.
type Base struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}
