package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Skotchmaster/momento/internal/kv"
	"github.com/golang-jwt/jwt/v5"
)

type User struct {
	Email string  `json:"email"`
	Role  *string `json:"role"`
}

func (u User) RoleName() string {
	if u.Role == nil {
		return ""
	}
	return *u.Role
}

// Store keeps the bearer token and the cached user record. Presence of a
// token is the only login signal; tokens are never expired locally.
type Store struct {
	KV kv.Store
}

func New(store kv.Store) *Store {
	return &Store{KV: store}
}

func (s *Store) Token(ctx context.Context) (string, error) {
	v, ok, err := s.KV.Get(ctx, kv.KeyToken)
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	if !ok {
		return "", nil
	}
	return v, nil
}

func (s *Store) SetToken(ctx context.Context, token string) error {
	if err := s.KV.Set(ctx, kv.KeyToken, token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (s *Store) RemoveToken(ctx context.Context) error {
	if err := s.KV.Delete(ctx, kv.KeyToken); err != nil {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}

func (s *Store) IsLoggedIn(ctx context.Context) (bool, error) {
	tok, err := s.Token(ctx)
	if err != nil {
		return false, err
	}
	return tok != "", nil
}

// CurrentUser returns nil when nothing is cached or the cached record does
// not decode.
func (s *Store) CurrentUser(ctx context.Context) (*User, error) {
	raw, ok, err := s.KV.Get(ctx, kv.KeyUser)
	if err != nil {
		return nil, fmt.Errorf("read user: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, nil
	}
	return &u, nil
}

func (s *Store) SetUser(ctx context.Context, u User) error {
	b, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.KV.Set(ctx, kv.KeyUser, string(b)); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (s *Store) Logout(ctx context.Context) error {
	if err := s.RemoveToken(ctx); err != nil {
		return err
	}
	if err := s.KV.Delete(ctx, kv.KeyUser); err != nil {
		return fmt.Errorf("remove user: %w", err)
	}
	return nil
}

// RoleFromToken reads a "role" claim without verifying the signature. It is
// for display only and never drives routing or the cached user record.
// Opaque tokens yield "".
func RoleFromToken(token string) string {
	if strings.Count(token, ".") != 2 {
		return ""
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	role, _ := claims["role"].(string)
	return role
}
