package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/ouvidoria/pkg/domain"
	"github.com/aretw0/ouvidoria/pkg/persistence/middleware"
	"github.com/aretw0/ouvidoria/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func sampleSession(id string) *domain.Session {
	s := domain.NewSession(id, "+55 11 99999-0000")
	s.State = domain.StateAwaitingDetails
	s.Record = domain.ComplaintRecord{
		Name:         "Alice",
		Neighborhood: "Downtown",
		ProblemType:  domain.ProblemHealth,
		Location:     "Clinic street",
	}
	return s
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ports.RunSessionStoreContract(t, mw(NewMockStore()))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := NewMockStore()
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	secure := mw(underlying)

	ctx := context.Background()
	original := sampleSession("c1")
	require.NoError(t, secure.Save(ctx, "c1", original))

	stored, err := underlying.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, stored.Record.Name, "record must not be stored in clear text")
	assert.Empty(t, stored.Contact)
	assert.NotEmpty(t, stored.Sealed)
	assert.Equal(t, domain.StateAwaitingDetails, stored.State, "state stays visible")

	loaded, err := secure.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, original, loaded)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := NewMockStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)
	ctx := context.Background()

	oldStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlying)
	require.NoError(t, oldStore.Save(ctx, "c1", sampleSession("c1")))

	rotated := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlying)

	loaded, err := rotated.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", loaded.Record.Name)

	// Re-saving seals with the new key only.
	require.NoError(t, rotated.Save(ctx, "c1", loaded))
	newOnly := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: newKey})(underlying)
	_, err = newOnly.Load(ctx, "c1")
	assert.NoError(t, err)
}

func TestEncryptionMiddleware_WrongKey(t *testing.T) {
	underlying := NewMockStore()
	ctx := context.Background()

	a := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	require.NoError(t, a.Save(ctx, "c1", sampleSession("c1")))

	b := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	_, err := b.Load(ctx, "c1")
	assert.Error(t, err)
}

func TestEncryptionMiddleware_PlainSessionRejected(t *testing.T) {
	underlying := NewMockStore()
	ctx := context.Background()
	require.NoError(t, underlying.Save(ctx, "c1", sampleSession("c1")))

	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	_, err := secure.Load(ctx, "c1")
	assert.ErrorIs(t, err, middleware.ErrMissingEnvelope)
}

func TestEncryptionMiddleware_PanicsOnShortKey(t *testing.T) {
	assert.Panics(t, func() {
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short")})
	})
}

func TestParseKey(t *testing.T) {
	key := generateKey(t)

	got, err := middleware.ParseKey(hex.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	got, err = middleware.ParseKey(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	_, err = middleware.ParseKey(strings.Repeat("a", 10))
	assert.Error(t, err)
}

func TestChain_Order(t *testing.T) {
	var order []string
	tag := func(name string) middleware.Middleware {
		return func(next ports.SessionStore) ports.SessionStore {
			return &tracingStore{SessionStore: next, name: name, order: &order}
		}
	}

	store := middleware.Chain(NewMockStore(), tag("outer"), tag("inner"))
	require.NoError(t, store.Save(context.Background(), "c1", domain.NewSession("c1", "")))
	assert.Equal(t, []string{"outer", "inner"}, order)
}

type tracingStore struct {
	ports.SessionStore
	name  string
	order *[]string
}

func (s *tracingStore) Save(ctx context.Context, id string, session *domain.Session) error {
	*s.order = append(*s.order, s.name)
	return s.SessionStore.Save(ctx, id, session)
}
