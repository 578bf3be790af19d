package session

import (
	"context"
	"testing"

	"github.com/Skotchmaster/momento/internal/kv"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_TokenLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New(kv.NewMemory())

	loggedIn, err := s.IsLoggedIn(ctx)
	require.NoError(t, err)
	assert.False(t, loggedIn)

	require.NoError(t, s.SetToken(ctx, "abc"))
	tok, err := s.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	loggedIn, err = s.IsLoggedIn(ctx)
	require.NoError(t, err)
	assert.True(t, loggedIn)

	require.NoError(t, s.RemoveToken(ctx))
	loggedIn, err = s.IsLoggedIn(ctx)
	require.NoError(t, err)
	assert.False(t, loggedIn)
}

func TestStore_CurrentUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := kv.NewMemory()
	s := New(store)

	u, err := s.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, u)

	role := "USER"
	require.NoError(t, s.SetUser(ctx, User{Email: "a@b.c", Role: &role}))
	u, err = s.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "a@b.c", u.Email)
	assert.Equal(t, "USER", u.RoleName())

	raw, _, _ := store.Get(ctx, kv.KeyUser)
	assert.JSONEq(t, `{"email":"a@b.c","role":"USER"}`, raw)
}

func TestStore_CurrentUser_NullRole(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New(kv.NewMemory())

	require.NoError(t, s.SetUser(ctx, User{Email: "a@b.c"}))
	u, err := s.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Nil(t, u.Role)
	assert.Empty(t, u.RoleName())
}

func TestStore_CurrentUser_MalformedIsAbsent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := kv.NewMemory()
	require.NoError(t, store.Set(ctx, kv.KeyUser, "{not json"))

	u, err := New(store).CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestStore_Logout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := kv.NewMemory()
	s := New(store)

	require.NoError(t, s.SetToken(ctx, "abc"))
	require.NoError(t, s.SetUser(ctx, User{Email: "a@b.c"}))
	require.NoError(t, s.Logout(ctx))

	_, ok, _ := store.Get(ctx, kv.KeyToken)
	assert.False(t, ok)
	_, ok, _ = store.Get(ctx, kv.KeyUser)
	assert.False(t, ok)
}

func TestRoleFromToken(t *testing.T) {
	t.Parallel()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "42",
		"role": "ADMIN",
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	noRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "42"}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  string
	}{
		{name: "jwt with role", token: signed, want: "ADMIN"},
		{name: "jwt without role", token: noRole, want: ""},
		{name: "opaque", token: "abc", want: ""},
		{name: "garbage segments", token: "a.b.c", want: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, RoleFromToken(tt.token))
		})
	}
}
