package apiclient

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/Skotchmaster/momento/internal/kv"
)

const (
	DefaultFallbackURL = "http://localhost:8080/api"
	apiPath            = "/api"
)

type ResolverOptions struct {
	// Origin is the origin the storefront pages are served from, e.g. http://localhost:3000.
	Origin string
	// Override wins over anything persisted.
	Override string
	// Fallback is tried once when the same-origin default cannot serve API routes.
	Fallback string
}

// Resolver picks the API base URL. The primary choice is, in order, the
// explicit override, the persisted override and the same-origin default.
// When the same-origin default turns out to be a static-only host during
// local development, Promote makes the fallback the sticky choice.
type Resolver struct {
	store kv.Store

	origin     *url.URL
	defaultURL string
	fallback   string

	mu      sync.RWMutex
	current string
}

func NewResolver(ctx context.Context, store kv.Store, opts ResolverOptions) (*Resolver, error) {
	r := &Resolver{
		store:    store,
		fallback: strings.TrimSpace(opts.Fallback),
	}

	if opts.Origin != "" {
		u, err := url.Parse(opts.Origin)
		if err != nil {
			return nil, fmt.Errorf("parse origin: %w", err)
		}
		r.origin = u
	}

	if r.origin != nil && (r.origin.Scheme == "http" || r.origin.Scheme == "https") && r.origin.Host != "" {
		r.defaultURL = r.origin.Scheme + "://" + r.origin.Host + apiPath
	} else {
		r.defaultURL = DefaultFallbackURL
	}

	switch {
	case opts.Override != "":
		r.current = opts.Override
	default:
		persisted, ok, err := store.Get(ctx, kv.KeyAPIURL)
		if err != nil {
			return nil, fmt.Errorf("read api url override: %w", err)
		}
		if ok && persisted != "" {
			r.current = persisted
		} else {
			r.current = r.defaultURL
		}
	}
	return r, nil
}

func (r *Resolver) Current() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

func (r *Resolver) Default() string { return r.defaultURL }

func (r *Resolver) Fallback() string { return r.fallback }

func (r *Resolver) UsingDefault() bool {
	return r.Current() == r.defaultURL
}

func (r *Resolver) PageOnLocalhost() bool {
	if r.origin == nil {
		return false
	}
	return IsLocalhost(r.origin.Hostname())
}

// ShouldFallback reports whether a response status from the current base
// qualifies for the one-time retry against the fallback URL.
func (r *Resolver) ShouldFallback(status int) bool {
	if status != 404 && status != 405 {
		return false
	}
	if r.fallback == "" || !r.PageOnLocalhost() {
		return false
	}
	cur := r.Current()
	return cur == r.defaultURL && cur != r.fallback
}

// Promote persists base as the override and uses it for later calls.
func (r *Resolver) Promote(ctx context.Context, base string) error {
	if err := r.store.Set(ctx, kv.KeyAPIURL, base); err != nil {
		return fmt.Errorf("persist api url: %w", err)
	}
	r.mu.Lock()
	r.current = base
	r.mu.Unlock()
	return nil
}

// Reset drops the persisted override and returns to the same-origin default.
func (r *Resolver) Reset(ctx context.Context) error {
	if err := r.store.Delete(ctx, kv.KeyAPIURL); err != nil {
		return fmt.Errorf("reset api url: %w", err)
	}
	r.mu.Lock()
	r.current = r.defaultURL
	r.mu.Unlock()
	return nil
}

func IsLocalhost(hostname string) bool {
	switch hostname {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}
