package store

import (
	"fmt"

	"github.com/google/uuid"
)

func UserKey(prefix, userID string) string {
	return fmt.Sprintf("%suser:%s", prefix, userID)
}

func APIKeyKey(prefix string, id uuid.UUID) string {
	return fmt.Sprintf("%sapikey:%s", prefix, id)
}

func UserAPIKeysKey(prefix, userID string) string {
	return fmt.Sprintf("%suser:%s:apikeys", prefix, userID)
}
