package storefront

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Skotchmaster/momento/internal/apiclient"
	"github.com/Skotchmaster/momento/internal/cart"
	"github.com/Skotchmaster/momento/internal/events"
	"github.com/Skotchmaster/momento/internal/kv"
	"github.com/Skotchmaster/momento/internal/session"
)

const (
	PageHome  = "index.html"
	PageLogin = "login.html"

	DefaultAdminURL = "http://localhost:5173"
)

var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")

	ErrMissingCredentials = &ValidationError{Message: "Email and password are required"}
	ErrPasswordMismatch   = &ValidationError{Message: "Passwords do not match!"}
	ErrEmptyCart          = &ValidationError{Message: "Your cart is empty!"}
	ErrNotLoggedIn        = errors.New("please login to place an order")
	ErrOrderInProgress    = errors.New("order submission already in progress")
	ErrProductNotFound    = fmt.Errorf("product %w", ErrNotFound)
)

// ValidationError is a failed client-side precondition; no request was sent.
// Message is shown to the user as is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

type API interface {
	Call(ctx context.Context, endpoint string, req apiclient.Request, out any) error
}

// Navigator moves the user to another page or origin.
type Navigator interface {
	Navigate(ctx context.Context, target string)
}

// Notifier shows a short user-visible message.
type Notifier interface {
	Notify(ctx context.Context, message string)
}

type Deps struct {
	API      API
	KV       kv.Store
	Session  *session.Store
	Cart     *cart.Store
	Events   events.Publisher
	Nav      Navigator
	Notify   Notifier
	AdminURL string
	Log      *slog.Logger
}

type Shop struct {
	api      API
	kv       kv.Store
	session  *session.Store
	cart     *cart.Store
	events   events.Publisher
	nav      Navigator
	notify   Notifier
	adminURL string
	log      *slog.Logger

	orderMu    sync.Mutex
	orderState OrderState
}

func New(d Deps) *Shop {
	s := &Shop{
		api:      d.API,
		kv:       d.KV,
		session:  d.Session,
		cart:     d.Cart,
		events:   d.Events,
		nav:      d.Nav,
		notify:   d.Notify,
		adminURL: d.AdminURL,
		log:      d.Log,
	}
	if s.session == nil {
		s.session = session.New(d.KV)
	}
	if s.cart == nil {
		s.cart = cart.NewStore(d.KV)
	}
	if s.events == nil {
		s.events = events.Nop{}
	}
	if s.nav == nil {
		s.nav = nopUI{}
	}
	if s.notify == nil {
		s.notify = nopUI{}
	}
	if s.adminURL == "" {
		s.adminURL = DefaultAdminURL
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

func (s *Shop) Session() *session.Store { return s.session }

func (s *Shop) Cart() *cart.Store { return s.cart }

func (s *Shop) publish(ctx context.Context, topic string, event map[string]any) {
	key := "anonymous"
	if u, err := s.session.CurrentUser(ctx); err == nil && u != nil && u.Email != "" {
		key = u.Email
	}
	if err := s.events.Publish(ctx, topic, key, event); err != nil {
		s.log.Error("event publish error", "topic", topic, "type", event["type"], "error", err)
	}
}

type nopUI struct{}

func (nopUI) Navigate(context.Context, string) {}
func (nopUI) Notify(context.Context, string)   {}
