package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Skotchmaster/momento/internal/kv"
)

// Store persists the cart as one JSON array under kv.KeyCart. Every mutation
// reads, rewrites and saves the whole list; the mutex only serializes callers
// within this process, other writers of the same store win by last write.
type Store struct {
	KV kv.Store

	mu sync.Mutex
}

func NewStore(store kv.Store) *Store {
	return &Store{KV: store}
}

// Items returns an empty cart when nothing is stored or the stored value is
// not a JSON array of line items.
func (s *Store) Items(ctx context.Context) ([]LineItem, error) {
	raw, ok, err := s.KV.Get(ctx, kv.KeyCart)
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	if !ok || raw == "" {
		return []LineItem{}, nil
	}
	var items []LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil || items == nil {
		return []LineItem{}, nil
	}
	return items, nil
}

func (s *Store) Save(ctx context.Context, items []LineItem) error {
	if items == nil {
		items = []LineItem{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.KV.Set(ctx, kv.KeyCart, string(b)); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (s *Store) Add(ctx context.Context, productID int, name string, price float64, image string) ([]LineItem, error) {
	return s.mutate(ctx, func(items []LineItem) []LineItem {
		return Add(items, productID, name, price, image)
	})
}

func (s *Store) UpdateQuantity(ctx context.Context, index, delta int) ([]LineItem, error) {
	return s.mutate(ctx, func(items []LineItem) []LineItem {
		return UpdateQuantity(items, index, delta)
	})
}

func (s *Store) Remove(ctx context.Context, index int) ([]LineItem, error) {
	return s.mutate(ctx, func(items []LineItem) []LineItem {
		return Remove(items, index)
	})
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.KV.Delete(ctx, kv.KeyCart); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (s *Store) Totals(ctx context.Context) (Totals, error) {
	items, err := s.Items(ctx)
	if err != nil {
		return Totals{}, err
	}
	return ComputeTotals(items), nil
}

// Count is the badge number shown next to the cart link.
func (s *Store) Count(ctx context.Context) (int, error) {
	t, err := s.Totals(ctx)
	return t.ItemCount, err
}

func (s *Store) mutate(ctx context.Context, fn func([]LineItem) []LineItem) ([]LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.Items(ctx)
	if err != nil {
		return nil, err
	}
	next := fn(items)
	if err := s.Save(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}
