package cart

type LineItem struct {
	ProductID int     `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Image     string  `json:"image"`
	Qty       int     `json:"qty"`
}

type Totals struct {
	ItemCount int     `json:"itemCount"`
	Subtotal  float64 `json:"subtotal"`
	Total     float64 `json:"total"`
}

// Add returns items with one more unit of productID. Existing line items
// accumulate quantity so each product appears at most once.
func Add(items []LineItem, productID int, name string, price float64, image string) []LineItem {
	out := clone(items)
	for i := range out {
		if out[i].ProductID == productID {
			out[i].Qty++
			return out
		}
	}
	return append(out, LineItem{
		ProductID: productID,
		Name:      name,
		Price:     price,
		Image:     image,
		Qty:       1,
	})
}

// UpdateQuantity adjusts the line at index by delta. A resulting quantity of
// zero or less drops the line; an index outside the cart leaves it as is.
func UpdateQuantity(items []LineItem, index, delta int) []LineItem {
	if index < 0 || index >= len(items) {
		return clone(items)
	}
	out := clone(items)
	out[index].Qty += delta
	if out[index].Qty <= 0 {
		return append(out[:index], out[index+1:]...)
	}
	return out
}

func Remove(items []LineItem, index int) []LineItem {
	out := clone(items)
	if index < 0 || index >= len(out) {
		return out
	}
	return append(out[:index], out[index+1:]...)
}

// ComputeTotals has no tax or shipping, so Total always equals Subtotal.
func ComputeTotals(items []LineItem) Totals {
	var t Totals
	for _, it := range items {
		t.ItemCount += it.Qty
		t.Subtotal += it.Price * float64(it.Qty)
	}
	t.Total = t.Subtotal
	return t
}

func clone(items []LineItem) []LineItem {
	out := make([]LineItem, len(items), len(items)+1)
	copy(out, items)
	return out
}
