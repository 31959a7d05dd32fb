package apikey_test

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/kiranshivaraju/credgate/internal/apikey"
	"github.com/kiranshivaraju/credgate/internal/store"
	"github.com/kiranshivaraju/credgate/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- Mock Store ---

type mockStore struct {
	mu      sync.Mutex
	users   map[string]bool
	records []*models.APIKey
	err     error
}

func newMockStore(users ...string) *mockStore {
	m := &mockStore{users: map[string]bool{}}
	for _, u := range users {
		m.users[u] = true
	}
	return m
}

func (m *mockStore) Ping(_ context.Context) error { return nil }

func (m *mockStore) CreateAPIKey(_ context.Context, key *models.APIKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if !m.users[key.UserID] {
		return store.ErrReferenceNotFound
	}
	m.records = append(m.records, key)
	return nil
}

type failingReader struct{}

func (failingReader) Read(_ []byte) (int, error) { return 0, errors.New("entropy exhausted") }

func newIssuer(s store.Store, opts ...apikey.Option) *apikey.Issuer {
	opts = append([]apikey.Option{apikey.WithBcryptCost(bcrypt.MinCost)}, opts...)
	return apikey.NewIssuer(s, opts...)
}

func TestIssue_Success(t *testing.T) {
	userID := gofakeit.UUID()
	purpose := gofakeit.Sentence(4)
	ms := newMockStore(userID)

	got, err := newIssuer(ms).Issue(context.Background(), userID, purpose)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, len(got.APIKey), 43)
	assert.Equal(t, purpose, got.Purpose)

	raw, err := base64.RawURLEncoding.DecodeString(got.APIKey)
	require.NoError(t, err)
	assert.Len(t, raw, apikey.KeyBytes)

	require.Len(t, ms.records, 1)
	rec := ms.records[0]
	assert.Equal(t, userID, rec.UserID)
	assert.Equal(t, got.APIKey[:8], rec.KeyPrefix)
	assert.NotContains(t, rec.KeyHash, got.APIKey)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(rec.KeyHash), []byte(got.APIKey)))
}

func TestIssue_KeyIsURLSafe(t *testing.T) {
	ms := newMockStore("u1")
	got, err := newIssuer(ms).Issue(context.Background(), "u1", "ci")
	require.NoError(t, err)
	assert.False(t, strings.ContainsAny(got.APIKey, "+/="), "key %q must be URL-safe", got.APIKey)
}

func TestIssue_ExpiryIs365DaysOut(t *testing.T) {
	fixed := time.Date(2024, 2, 28, 23, 30, 0, 0, time.UTC)
	ms := newMockStore("u1")
	iss := newIssuer(ms, apikey.WithClock(func() time.Time { return fixed }))

	got, err := iss.Issue(context.Background(), "u1", "billing")
	require.NoError(t, err)

	// 2024 is a leap year, so 365 days later is Feb 27 2025.
	assert.Equal(t, "2025-02-27", got.ExpiryDate)
	assert.Equal(t, fixed, ms.records[0].CreatedAt)
}

func TestIssue_ExpiryUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	local := time.Date(2024, 6, 1, 5, 0, 0, 0, loc) // 2024-05-31 19:00 UTC
	ms := newMockStore("u1")
	iss := newIssuer(ms, apikey.WithClock(func() time.Time { return local }))

	got, err := iss.Issue(context.Background(), "u1", "")
	require.NoError(t, err)
	assert.Equal(t, "2025-05-31", got.ExpiryDate)
}

func TestIssue_CustomLifetime(t *testing.T) {
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ms := newMockStore("u1")
	iss := newIssuer(ms,
		apikey.WithClock(func() time.Time { return fixed }),
		apikey.WithLifetime(30*24*time.Hour))

	got, err := iss.Issue(context.Background(), "u1", "")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-31", got.ExpiryDate)
}

func TestIssue_NotIdempotent(t *testing.T) {
	ms := newMockStore("u1")
	iss := newIssuer(ms)

	a, err := iss.Issue(context.Background(), "u1", "same")
	require.NoError(t, err)
	b, err := iss.Issue(context.Background(), "u1", "same")
	require.NoError(t, err)

	assert.NotEqual(t, a.APIKey, b.APIKey)
	require.Len(t, ms.records, 2)
	assert.NotEqual(t, ms.records[0].ID, ms.records[1].ID)
}

func TestIssue_ConcurrentSameUser(t *testing.T) {
	ms := newMockStore("u1")
	iss := newIssuer(ms)

	const n = 10
	keys := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := iss.Issue(context.Background(), "u1", "")
			if assert.NoError(t, err) {
				keys <- got.APIKey
			}
		}()
	}
	wg.Wait()
	close(keys)

	seen := map[string]bool{}
	for k := range keys {
		seen[k] = true
	}
	assert.Len(t, seen, n)
	assert.Len(t, ms.records, n)
}

func TestIssue_UnknownUser(t *testing.T) {
	ms := newMockStore()

	got, err := newIssuer(ms).Issue(context.Background(), "missing", "x")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, apikey.ErrReferenceNotFound)
	assert.NotErrorIs(t, err, apikey.ErrPersistence)
	assert.Empty(t, ms.records)
}

func TestIssue_PersistenceError(t *testing.T) {
	ms := newMockStore("u1")
	ms.err = errors.New("connection reset")

	got, err := newIssuer(ms).Issue(context.Background(), "u1", "x")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, apikey.ErrPersistence)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestIssue_RandomSourceFailure(t *testing.T) {
	ms := newMockStore("u1")

	_, err := newIssuer(ms, apikey.WithRandom(failingReader{})).Issue(context.Background(), "u1", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generate api key")
	assert.Empty(t, ms.records)
}

func TestExpiryDate(t *testing.T) {
	issued := time.Date(2023, 12, 31, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-12-30", apikey.ExpiryDate(issued, apikey.DefaultLifetime))
}
