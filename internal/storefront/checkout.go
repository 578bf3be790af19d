package storefront

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Skotchmaster/momento/internal/apiclient"
	"github.com/Skotchmaster/momento/internal/cart"
	"github.com/Skotchmaster/momento/internal/events"
	"golang.org/x/sync/errgroup"
)

type OrderState int

const (
	OrderIdle OrderState = iota
	OrderSubmitting
	OrderSucceeded
	OrderFailed
)

func (s OrderState) String() string {
	switch s {
	case OrderSubmitting:
		return "submitting"
	case OrderSucceeded:
		return "succeeded"
	case OrderFailed:
		return "failed"
	default:
		return "idle"
	}
}

type orderRequest struct {
	ProductID int `json:"productId"`
	Qty       int `json:"qty"`
}

type OrderReceipt struct {
	Items  []cart.LineItem
	Totals cart.Totals
}

type LineFailure struct {
	Item cart.LineItem
	Err  error
}

// OrderError reports a checkout where at least one order line failed. Lines
// in Placed were accepted by the backend and are not rolled back; the local
// cart still holds every line.
type OrderError struct {
	Placed []cart.LineItem
	Failed []LineFailure
}

func (e *OrderError) Error() string {
	if len(e.Failed) == 1 && len(e.Placed) == 0 {
		return e.Failed[0].Err.Error()
	}
	return fmt.Sprintf("%d of %d order lines failed: %v",
		len(e.Failed), len(e.Failed)+len(e.Placed), e.Failed[0].Err)
}

func (e *OrderError) Unwrap() []error {
	out := make([]error, 0, len(e.Failed))
	for _, f := range e.Failed {
		out = append(out, f.Err)
	}
	return out
}

func (s *Shop) OrderState() OrderState {
	s.orderMu.Lock()
	defer s.orderMu.Unlock()
	return s.orderState
}

// CanSubmit mirrors the checkout button: disabled while an order is in flight.
func (s *Shop) CanSubmit() bool {
	return s.OrderState() != OrderSubmitting
}

// PlaceOrder sends one order request per cart line, concurrently, and waits
// for all of them. The cart is cleared only when every line succeeded.
func (s *Shop) PlaceOrder(ctx context.Context) (*OrderReceipt, error) {
	items, err := s.cart.Items(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		s.notify.Notify(ctx, ErrEmptyCart.Message)
		return nil, ErrEmptyCart
	}

	token, err := s.session.Token(ctx)
	if err != nil {
		return nil, err
	}
	if token == "" {
		s.notify.Notify(ctx, "Please login to place an order")
		s.nav.Navigate(ctx, PageLogin)
		return nil, ErrNotLoggedIn
	}

	if !s.beginOrder() {
		return nil, ErrOrderInProgress
	}

	l := s.log.With("handler", "checkout", "lines", len(items))
	errs := make([]error, len(items))

	var g errgroup.Group
	for i, it := range items {
		g.Go(func() error {
			errs[i] = s.api.Call(ctx, "/orders", apiclient.Request{
				Method: http.MethodPost,
				Body:   orderRequest{ProductID: it.ProductID, Qty: it.Qty},
			}, nil)
			return errs[i]
		})
	}
	// Per-line results are collected in errs; Wait only joins the goroutines.
	g.Wait()

	oe := &OrderError{}
	for i, it := range items {
		if errs[i] != nil {
			oe.Failed = append(oe.Failed, LineFailure{Item: it, Err: errs[i]})
		} else {
			oe.Placed = append(oe.Placed, it)
		}
	}

	if len(oe.Failed) > 0 {
		s.endOrder(OrderFailed)
		l.Warn("place_order_failed", "failed", len(oe.Failed), "placed", len(oe.Placed), "error", oe)
		s.publish(ctx, events.TopicOrder, map[string]any{
			"type":   "order_failed",
			"failed": len(oe.Failed),
			"placed": len(oe.Placed),
		})
		s.notify.Notify(ctx, "Failed to place order: "+oe.Error())
		return nil, oe
	}

	totals := cart.ComputeTotals(items)
	if err := s.cart.Clear(ctx); err != nil {
		s.endOrder(OrderFailed)
		return nil, err
	}
	s.endOrder(OrderSucceeded)

	l.Info("place_order_success", "items", totals.ItemCount, "total", totals.Total)
	s.publish(ctx, events.TopicOrder, map[string]any{
		"type":  "order_placed",
		"lines": len(items),
		"items": totals.ItemCount,
		"total": totals.Total,
	})
	s.notify.Notify(ctx, "Order placed successfully!")
	s.nav.Navigate(ctx, PageHome)

	return &OrderReceipt{Items: items, Totals: totals}, nil
}

func (s *Shop) beginOrder() bool {
	s.orderMu.Lock()
	defer s.orderMu.Unlock()
	if s.orderState == OrderSubmitting {
		return false
	}
	s.orderState = OrderSubmitting
	return true
}

func (s *Shop) endOrder(st OrderState) {
	s.orderMu.Lock()
	s.orderState = st
	s.orderMu.Unlock()
}

// IsOrderError reports whether err came from a partially or fully failed
// checkout rather than a precondition.
func IsOrderError(err error) bool {
	var oe *OrderError
	return errors.As(err, &oe)
}

func (s *Shop) UpdateQuantity(ctx context.Context, index, delta int) ([]cart.LineItem, error) {
	items, err := s.cart.UpdateQuantity(ctx, index, delta)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.TopicCart, map[string]any{
		"type":  "cart_quantity_changed",
		"index": index,
		"delta": delta,
	})
	return items, nil
}

func (s *Shop) RemoveItem(ctx context.Context, index int) ([]cart.LineItem, error) {
	items, err := s.cart.Remove(ctx, index)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.TopicCart, map[string]any{
		"type":  "cart_item_removed",
		"index": index,
	})
	return items, nil
}

