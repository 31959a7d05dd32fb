// Package apikey issues opaque, long-lived API keys bound to a user.
package apikey

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/credgate/internal/store"
	"github.com/kiranshivaraju/credgate/pkg/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const (
	// KeyBytes is the amount of entropy in a generated key.
	KeyBytes = 32
	// DefaultLifetime is the advertised validity of an issued key.
	DefaultLifetime = 365 * 24 * time.Hour
	// ExpiryDateLayout formats the advertised expiry as a calendar date.
	ExpiryDateLayout = "2006-01-02"

	keyPrefixLen = 8
)

// Issuer generates keys and records them in the store.
type Issuer struct {
	store      store.Store
	lifetime   time.Duration
	now        func() time.Time
	random     io.Reader
	bcryptCost int
}

type Option func(*Issuer)

// WithLifetime overrides the advertised key lifetime.
func WithLifetime(d time.Duration) Option {
	return func(i *Issuer) {
		if d > 0 {
			i.lifetime = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

func WithRandom(r io.Reader) Option {
	return func(i *Issuer) { i.random = r }
}

func WithBcryptCost(cost int) Option {
	return func(i *Issuer) { i.bcryptCost = cost }
}

func NewIssuer(s store.Store, opts ...Option) *Issuer {
	i := &Issuer{
		store:      s,
		lifetime:   DefaultLifetime,
		now:        time.Now,
		random:     rand.Reader,
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Issue mints a new key for userID and persists its hash. The raw key is
// only ever returned here. The expiry date is advisory and is not enforced.
func (i *Issuer) Issue(ctx context.Context, userID, purpose string) (*models.IssuedAPIKey, error) {
	rawKey, err := i.generateKey()
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(rawKey), i.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash api key: %w", err)
	}

	now := i.now().UTC()
	record := &models.APIKey{
		ID:        uuid.New(),
		UserID:    userID,
		KeyPrefix: rawKey[:keyPrefixLen],
		KeyHash:   string(hash),
		CreatedAt: now,
	}

	if err := i.store.CreateAPIKey(ctx, record); err != nil {
		if errors.Is(err, store.ErrReferenceNotFound) {
			return nil, fmt.Errorf("%w: %q", ErrReferenceNotFound, userID)
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	log.Ctx(ctx).Info().
		Str("user_id", userID).
		Str("key_id", record.ID.String()).
		Str("key_prefix", record.KeyPrefix).
		Msg("api key issued")

	return &models.IssuedAPIKey{
		APIKey:     rawKey,
		ExpiryDate: ExpiryDate(now, i.lifetime),
		Purpose:    purpose,
	}, nil
}

// ExpiryDate returns issuedAt + lifetime formatted as YYYY-MM-DD.
func ExpiryDate(issuedAt time.Time, lifetime time.Duration) string {
	return issuedAt.Add(lifetime).Format(ExpiryDateLayout)
}

func (i *Issuer) generateKey() (string, error) {
	buf := make([]byte, KeyBytes)
	if _, err := io.ReadFull(i.random, buf); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
