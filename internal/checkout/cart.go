package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/ariefcatur/go-storefront/internal/money"
)

// CartItem is a product line keyed by (product id, size).
type CartItem struct {
	catalog.Product
	Quantity     int    `json:"quantity"`
	SelectedSize string `json:"selectedSize"`
}

func (it CartItem) LineTotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Cart is never persisted; it only lives for the duration of a checkout.
type Cart struct {
	items []CartItem
}

func (c *Cart) index(id int64, size string) int {
	for i, it := range c.items {
		if it.ID == id && it.SelectedSize == size {
			return i
		}
	}
	return -1
}

// Add puts one unit of p in the given size, merging with an existing line.
func (c *Cart) Add(p catalog.Product, size string) {
	c.AddQuantity(p, size, 1)
}

func (c *Cart) AddQuantity(p catalog.Product, size string, qty int) {
	if qty <= 0 {
		return
	}
	if i := c.index(p.ID, size); i >= 0 {
		c.items[i].Quantity += qty
		return
	}
	c.items = append(c.items, CartItem{Product: p, Quantity: qty, SelectedSize: size})
}

// UpdateQuantity sets the quantity of a line; zero or less removes it.
func (c *Cart) UpdateQuantity(id int64, size string, qty int) {
	if qty <= 0 {
		c.Remove(id, size)
		return
	}
	if i := c.index(id, size); i >= 0 {
		c.items[i].Quantity = qty
	}
}

func (c *Cart) Remove(id int64, size string) {
	if i := c.index(id, size); i >= 0 {
		c.items = append(c.items[:i], c.items[i+1:]...)
	}
}

func (c *Cart) Subtotal() decimal.Decimal {
	lines := make([]decimal.Decimal, 0, len(c.items))
	for _, it := range c.items {
		lines = append(lines, it.LineTotal())
	}
	return money.Sum(lines...)
}

// Count is the number of units, not lines.
func (c *Cart) Count() int {
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) Items() []CartItem {
	return append([]CartItem(nil), c.items...)
}

func (c *Cart) Empty() bool { return len(c.items) == 0 }
