package store

import (
	"context"
	"errors"

	"github.com/kiranshivaraju/credgate/pkg/models"
)

var ErrReferenceNotFound = errors.New("referenced resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the persistence interface for issued API keys.
// Implementations must be safe for concurrent use.
type Store interface {
	Ping(ctx context.Context) error

	// CreateAPIKey inserts the record. It returns ErrReferenceNotFound when
	// key.UserID does not identify an existing user; no record is written
	// in that case.
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
}
