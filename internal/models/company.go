package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Company is a tenant. Every domain entity carries its company id and every
// query is scoped by it.
type Company struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	Slug      string          `json:"slug" db:"slug"`
	Settings  json.RawMessage `json:"settings" db:"settings"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}
