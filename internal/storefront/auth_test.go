package storefront

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/Skotchmaster/momento/internal/kv"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin_AdminRedirectUsesFragment(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	env.Mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"token": "abc", "role": "ADMIN"})
	})

	res, err := env.Shop.Login(ctx, "boss@shop.io", "pw")
	require.NoError(t, err)

	tok, err := env.Shop.Session().Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	assert.True(t, res.Admin)
	assert.Equal(t, "http://localhost:5173/login#token=abc", res.Redirect)
	assert.Equal(t, "http://localhost:5173/login#token=abc", env.UI.lastVisit())
	assert.NotContains(t, res.Redirect, "?")

	u, err := env.Shop.Session().CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "boss@shop.io", u.Email)
	assert.Equal(t, "ADMIN", u.RoleName())
}

func TestLogin_AdminBaseFromStoreIsTrimmed(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.KV.Set(ctx, kv.KeyAdminURL, "https://admin.example.com//"))

	env.Mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"token": "a b+c", "role": "admin"})
	})

	res, err := env.Shop.Login(ctx, "boss@shop.io", "pw")
	require.NoError(t, err)
	assert.Equal(t, "https://admin.example.com/login#token=a%20b%2Bc", res.Redirect)
}

func TestLogin_RegularUser(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	env.Mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "me@shop.io", body["email"])
		assert.Equal(t, "pw", body["password"])
		writeJSON(w, http.StatusOK, map[string]string{"token": "t1", "email": "me@shop.io", "role": "USER"})
	})

	res, err := env.Shop.Login(ctx, "me@shop.io", "pw")
	require.NoError(t, err)
	assert.False(t, res.Admin)
	assert.Equal(t, PageHome, env.UI.lastVisit())
	assert.Contains(t, env.UI.messages, "Login successful!")

	link, err := env.Shop.AuthLink(ctx)
	require.NoError(t, err)
	assert.Equal(t, Link{Label: "Logout", Href: "#"}, link)

	assert.Equal(t, []string{"user_logged_in"}, env.Events.Types())
}

func TestLogin_TokenClaimDoesNotRedirect(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": "ADMIN"}).SignedString([]byte("k"))
	require.NoError(t, err)

	env.Mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"token": signed})
	})

	res, err := env.Shop.Login(ctx, "boss@shop.io", "pw")
	require.NoError(t, err)
	assert.False(t, res.Admin)
	assert.Nil(t, res.User)
	assert.Equal(t, PageHome, res.Redirect)
	assert.Equal(t, []string{PageHome}, env.UI.visited)

	u, err := env.Shop.Session().CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, u)

	tok, err := env.Shop.Session().Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, signed, tok)
}

func TestLogin_NoRoleNoEmailKeepsUserUnset(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	env.Mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"token": "opaque"})
	})

	res, err := env.Shop.Login(ctx, "me@shop.io", "pw")
	require.NoError(t, err)
	assert.Nil(t, res.User)

	u, err := env.Shop.Session().CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestLogin_BackendErrorLeavesSessionEmpty(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	env.Mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
	})

	_, err := env.Shop.Login(ctx, "me@shop.io", "bad")
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", err.Error())

	ok, err := env.Shop.Session().IsLoggedIn(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, env.UI.visited)
}

func TestLogin_Validation(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	_, err := env.Shop.Login(context.Background(), "  ", "pw")
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestRegister(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	var calls atomic.Int32
	env.Mux.HandleFunc("POST /api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
	})

	err := env.Shop.Register(ctx, "new@shop.io", "pw1", "pw2")
	require.ErrorIs(t, err, ErrPasswordMismatch)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "Passwords do not match!", err.Error())
	assert.Zero(t, calls.Load())

	require.NoError(t, env.Shop.Register(ctx, "new@shop.io", "pw1", "pw1"))
	assert.EqualValues(t, 1, calls.Load())
	assert.Equal(t, PageLogin, env.UI.lastVisit())
	assert.Contains(t, env.UI.messages, "Registration successful! Redirecting to login...")
}

func TestRegister_Conflict(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	env.Mux.HandleFunc("POST /api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte("Email already registered"))
	})

	err := env.Shop.Register(context.Background(), "dup@shop.io", "pw", "pw")
	require.Error(t, err)
	assert.Equal(t, "Email already registered", err.Error())
}

func TestLogout(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.Shop.Session().SetToken(ctx, "abc"))
	require.NoError(t, env.Shop.Logout(ctx))

	ok, err := env.Shop.Session().IsLoggedIn(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, PageHome, env.UI.lastVisit())

	link, err := env.Shop.AuthLink(ctx)
	require.NoError(t, err)
	assert.Equal(t, Link{Label: "Login", Href: PageLogin}, link)
}
