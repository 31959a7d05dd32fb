package models

import (
	"time"

	"github.com/google/uuid"
)

// APIKey is the persisted record for an issued key.
// Raw keys are shown once at issuance; only the bcrypt hash is stored.
type APIKey struct {
	ID        uuid.UUID `db:"id"         json:"id"`
	UserID    string    `db:"user_id"    json:"user_id"`
	KeyPrefix string    `db:"key_prefix" json:"key_prefix"`
	KeyHash   string    `db:"key_hash"   json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// IssuedAPIKey is returned to the caller exactly once. ExpiryDate and Purpose
// are informational and are not stored with the record.
type IssuedAPIKey struct {
	APIKey     string `json:"apiKey"`
	ExpiryDate string `json:"expiryDate"`
	Purpose    string `json:"purpose"`
}
