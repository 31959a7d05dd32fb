package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kiranshivaraju/credgate/pkg/models"
	"github.com/redis/go-redis/v9"
)

// RedisStore implements the Store interface on top of go-redis/v9.
// Users are owned by another system and must exist as UserKey entries;
// each API key is a hash indexed by a per-user set.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStore creates a new RedisStore from a Redis URL.
func NewRedisStore(redisURL, keyPrefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	return NewRedisStoreWithClient(redis.NewClient(opts), keyPrefix), nil
}

func NewRedisStoreWithClient(client *redis.Client, keyPrefix string) *RedisStore {
	return &RedisStore{client: client, keyPrefix: keyPrefix}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// CreateAPIKey watches the user and key entries so the existence checks and
// the write commit atomically.
func (s *RedisStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	userKey := UserKey(s.keyPrefix, key.UserID)
	recordKey := APIKeyKey(s.keyPrefix, key.ID)

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		userExists, err := tx.Exists(ctx, userKey).Result()
		if err != nil {
			return err
		}
		if userExists == 0 {
			return fmt.Errorf("%w: user %q", ErrReferenceNotFound, key.UserID)
		}
		recordExists, err := tx.Exists(ctx, recordKey).Result()
		if err != nil {
			return err
		}
		if recordExists > 0 {
			return ErrDuplicateKey
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, recordKey, map[string]any{
				"id":         key.ID.String(),
				"user_id":    key.UserID,
				"key_prefix": key.KeyPrefix,
				"key_hash":   key.KeyHash,
				"created_at": key.CreatedAt.UTC().Format(time.RFC3339Nano),
			})
			pipe.SAdd(ctx, UserAPIKeysKey(s.keyPrefix, key.UserID), key.ID.String())
			return nil
		})
		return err
	}, userKey, recordKey)
	if err != nil {
		if isStoreError(err) {
			return err
		}
		return fmt.Errorf("create api key: %w", err)
	}
	return nil
}

func isStoreError(err error) bool {
	return errors.Is(err, ErrReferenceNotFound) || errors.Is(err, ErrDuplicateKey)
}

var _ Store = (*RedisStore)(nil)
