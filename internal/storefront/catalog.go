package storefront

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"html/template"
	"io"
	"net/http"

	"github.com/Skotchmaster/momento/internal/apiclient"
	"github.com/Skotchmaster/momento/internal/cart"
	"github.com/Skotchmaster/momento/internal/events"
	"github.com/Skotchmaster/momento/internal/kv"
	"github.com/microcosm-cc/bluemonday"
)

const PlaceholderImage = "assets/product-placeholder.svg"

type Product struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
	ImageURL    string  `json:"imageUrl"`
}

// Card is what one product tile shows. Fields hold raw catalog text; escaping
// happens where the card is rendered.
type Card struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
}

func NewCard(p Product) Card {
	c := Card{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Image:       p.Image,
	}
	if c.Name == "" {
		c.Name = "Product"
	}
	if c.Description == "" {
		c.Description = "No description available"
	}
	if c.Image == "" {
		c.Image = p.ImageURL
	}
	if c.Image == "" {
		c.Image = PlaceholderImage
	}
	return c
}

// LoadProducts fetches the catalog and caches the cards so quick view and
// add-to-cart work from the cache without another request.
func (s *Shop) LoadProducts(ctx context.Context) ([]Card, error) {
	var products []Product
	if err := s.api.Call(ctx, "/products", apiclient.Request{Method: http.MethodGet}, &products); err != nil {
		s.log.Error("load_products_failed", "error", err)
		s.notify.Notify(ctx, "Failed to load products: "+err.Error())
		return nil, fmt.Errorf("load products: %w", err)
	}

	cards := make([]Card, 0, len(products))
	for _, p := range products {
		cards = append(cards, NewCard(p))
	}

	b, err := json.Marshal(cards)
	if err != nil {
		return nil, fmt.Errorf("encode catalog cache: %w", err)
	}
	if err := s.kv.Set(ctx, kv.KeyCatalog, string(b)); err != nil {
		return nil, fmt.Errorf("save catalog cache: %w", err)
	}

	s.log.Info("products loaded", "count", len(cards))
	return cards, nil
}

func (s *Shop) cachedCard(ctx context.Context, id int) (Card, error) {
	raw, ok, err := s.kv.Get(ctx, kv.KeyCatalog)
	if err != nil {
		return Card{}, fmt.Errorf("read catalog cache: %w", err)
	}
	if ok {
		var cards []Card
		if err := json.Unmarshal([]byte(raw), &cards); err == nil {
			for _, c := range cards {
				if c.ID == id {
					return c, nil
				}
			}
		}
	}
	return Card{}, fmt.Errorf("%w: id %d", ErrProductNotFound, id)
}

// Detail is plain text for the quick view overlay. It is meant for text sinks
// only; HTML output goes through RenderCards.
type Detail struct {
	ID          int
	Name        string
	Description string
	Price       float64
	PriceLabel  string
	Image       string
}

var plainText = bluemonday.StrictPolicy()

// QuickView fills the shared detail overlay from the cached card. Markup in
// catalog text is stripped, including entity-encoded tags.
func (s *Shop) QuickView(ctx context.Context, id int) (Detail, error) {
	c, err := s.cachedCard(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	return Detail{
		ID:          c.ID,
		Name:        stripMarkup(c.Name),
		Description: stripMarkup(c.Description),
		Price:       c.Price,
		PriceLabel:  FormatPrice(c.Price),
		Image:       c.Image,
	}, nil
}

func (s *Shop) AddFromCard(ctx context.Context, id int) ([]cart.LineItem, error) {
	c, err := s.cachedCard(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := s.cart.Add(ctx, c.ID, c.Name, c.Price, c.Image)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.TopicCart, map[string]any{
		"type":      "cart_item_added",
		"productID": c.ID,
	})
	s.notify.Notify(ctx, "Product added to cart!")
	return items, nil
}

var cardsTmpl = template.Must(template.New("cards").Funcs(template.FuncMap{
	"price": FormatPrice,
}).Parse(`{{if not .}}<p class="empty-message">No products available</p>
{{else}}{{range .}}<div class="product-card" data-product-id="{{.ID}}">
  <div class="product-media">
    <img src="{{.Image}}" alt="{{.Name}}" class="product-image">
    <div class="product-overlay">
      <div class="product-actions">
        <button class="btn btn-quick" type="button" data-action="quick" data-product-id="{{.ID}}">Quick View</button>
      </div>
    </div>
  </div>
  <div class="product-info">
    <h3>{{.Name}}</h3>
    <p>{{.Description}}</p>
    <div class="product-price">{{price .Price}}</div>
    <button class="btn btn-primary btn-block" type="button" data-action="add" data-product-id="{{.ID}}">Add to Cart</button>
  </div>
</div>
{{end}}{{end}}`))

// RenderCards writes the product grid markup. html/template escapes every
// catalog-supplied value for its context.
func RenderCards(w io.Writer, cards []Card) error {
	return cardsTmpl.Execute(w, cards)
}

func FormatPrice(p float64) string {
	return fmt.Sprintf("$%.2f", p)
}

// stripMarkup returns plain text. Sanitizing and unescaping repeat until the
// text is stable so entity-encoded tags cannot decode back into markup. Text
// still changing after a few rounds is returned sanitized and escaped.
func stripMarkup(s string) string {
	for range 4 {
		next := html.UnescapeString(plainText.Sanitize(s))
		if next == s {
			return s
		}
		s = next
	}
	return plainText.Sanitize(s)
}
