package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/tendril/pkg/adapters/memory"
	"github.com/aretw0/tendril/pkg/persistence/middleware"
	"github.com/aretw0/tendril/pkg/storage"
	"github.com/aretw0/tendril/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	underlying := memory.NewStore()
	store := storage.New(middleware.NewPIIMiddleware([]string{"password", "ssn"})(underlying))
	ctx := context.Background()

	profile := value.Object(map[string]value.Value{
		"username":      value.String("jdoe"),
		"user_password": value.String("secret123"),
		"details": value.Object(map[string]value.Value{
			"address":    value.String("123 St"),
			"ssn_number": value.String("999-99-9999"),
		}),
		"history": value.Array(value.Object(map[string]value.Value{"old_password": value.String("x")})),
	})
	require.NoError(t, store.Set(ctx, "profile", profile))

	assert.Equal(t, "secret123", value.ToString(profile.Field("user_password")), "caller's value is untouched")

	stored := store.Get(ctx, "profile")
	assert.Equal(t, "jdoe", value.ToString(stored.Field("username")))
	assert.Equal(t, middleware.Masked, value.ToString(stored.Field("user_password")))
	assert.Equal(t, middleware.Masked, value.ToString(stored.Field("details").Field("ssn_number")))
	assert.Equal(t, "123 St", value.ToString(stored.Field("details").Field("address")))
	assert.Equal(t, middleware.Masked, value.ToString(stored.Field("history").Index(0).Field("old_password")))
}

func TestPIIMiddleware_MatchingKey(t *testing.T) {
	store := storage.New(middleware.NewPIIMiddleware([]string{"^token$"})(memory.NewStore()))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "token", value.String("abc")))
	assert.Equal(t, middleware.Masked, value.ToString(store.Get(ctx, "token")))
}

func TestPIIMiddleware_NonJSONPassesThrough(t *testing.T) {
	underlying := memory.NewStore()
	mw := middleware.NewPIIMiddleware([]string{"password"})(underlying)
	ctx := context.Background()

	require.NoError(t, mw.Save(ctx, "blob", []byte("password=hunter2")))
	got, err := underlying.Load(ctx, "blob")
	require.NoError(t, err)
	assert.Equal(t, "password=hunter2", string(got))
}

func TestChain_MaskThenEncrypt(t *testing.T) {
	underlying := memory.NewStore()
	key := make([]byte, 32)
	backend := middleware.Chain(underlying,
		middleware.NewPIIMiddleware([]string{"password"}),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}),
	)
	store := storage.New(backend)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "login", value.Object(map[string]value.Value{"password": value.String("p")})))

	raw, err := underlying.Load(ctx, "login")
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "password")

	assert.Equal(t, middleware.Masked, value.ToString(store.Get(ctx, "login").Field("password")))
}
