package storefront

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/Skotchmaster/momento/internal/apiclient"
	"github.com/Skotchmaster/momento/internal/events"
	"github.com/Skotchmaster/momento/internal/kv"
	"github.com/Skotchmaster/momento/internal/session"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type LoginResult struct {
	User     *session.User
	Admin    bool
	Redirect string
}

func (s *Shop) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	var resp loginResponse
	if err := s.api.Call(ctx, "/auth/login", apiclient.Request{
		Method: http.MethodPost,
		Body:   credentials{Email: email, Password: password},
	}, &resp); err != nil {
		s.log.Warn("login_failed", "email", email, "error", err)
		return nil, err
	}

	if resp.Token != "" {
		if err := s.session.SetToken(ctx, resp.Token); err != nil {
			return nil, err
		}
	}

	res := &LoginResult{}
	if resp.Email != "" || resp.Role != "" {
		u := session.User{Email: resp.Email}
		if u.Email == "" {
			u.Email = email
		}
		if resp.Role != "" {
			role := resp.Role
			u.Role = &role
		}
		if err := s.session.SetUser(ctx, u); err != nil {
			return nil, err
		}
		res.User = &u
	}

	s.publish(ctx, events.TopicUser, map[string]any{"type": "user_logged_in", "role": resp.Role})

	if strings.EqualFold(resp.Role, "ADMIN") {
		base, err := s.adminBase(ctx)
		if err != nil {
			return nil, err
		}
		res.Admin = true
		res.Redirect = base + "/login#token=" + fragmentEscape(resp.Token)
		s.nav.Navigate(ctx, res.Redirect)
		return res, nil
	}

	res.Redirect = PageHome
	s.notify.Notify(ctx, "Login successful!")
	s.nav.Navigate(ctx, PageHome)
	return res, nil
}

func (s *Shop) Register(ctx context.Context, email, password, confirm string) error {
	if password != confirm {
		return ErrPasswordMismatch
	}
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return ErrMissingCredentials
	}

	if err := s.api.Call(ctx, "/auth/register", apiclient.Request{
		Method: http.MethodPost,
		Body:   credentials{Email: email, Password: password},
	}, nil); err != nil {
		s.log.Warn("register_failed", "email", email, "error", err)
		return err
	}

	if err := s.events.Publish(ctx, events.TopicUser, email, map[string]any{"type": "user_registered"}); err != nil {
		s.log.Error("event publish error", "topic", events.TopicUser, "error", err)
	}
	s.notify.Notify(ctx, "Registration successful! Redirecting to login...")
	s.nav.Navigate(ctx, PageLogin)
	return nil
}

func (s *Shop) Logout(ctx context.Context) error {
	s.publish(ctx, events.TopicUser, map[string]any{"type": "user_logged_out"})

	if err := s.session.Logout(ctx); err != nil {
		return err
	}
	s.notify.Notify(ctx, "Logged out successfully!")
	s.nav.Navigate(ctx, PageHome)
	return nil
}

type Link struct {
	Label string
	Href  string
}

// AuthLink is the header link: Logout while a token is held, Login otherwise.
func (s *Shop) AuthLink(ctx context.Context) (Link, error) {
	ok, err := s.session.IsLoggedIn(ctx)
	if err != nil {
		return Link{}, err
	}
	if ok {
		return Link{Label: "Logout", Href: "#"}, nil
	}
	return Link{Label: "Login", Href: PageLogin}, nil
}

func (s *Shop) adminBase(ctx context.Context) (string, error) {
	base := s.adminURL
	v, ok, err := s.kv.Get(ctx, kv.KeyAdminURL)
	if err != nil {
		return "", err
	}
	if ok && v != "" {
		base = v
	}
	return strings.TrimRight(base, "/"), nil
}

// fragmentEscape percent-encodes a URL fragment value. The token travels in
// the fragment so it never reaches server access logs.
func fragmentEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
