package domain

import "github.com/shopspring/decimal"

type CartItem struct {
	Product  *Product
	Quantity int
}

// Subtotal is price * quantity without rounding; rounding happens only when
// the value is displayed.
func (i CartItem) Subtotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart keeps at most one item per product id, in the order products were
// first added. Quantities of items held by the cart are always >= 1.
type Cart struct {
	items    []*CartItem
	revision uint64
}

// Snapshot is an immutable copy of the cart state.
type Snapshot struct {
	Items    []CartItem
	Total    decimal.Decimal
	Revision uint64
}

func NewCart() *Cart {
	return &Cart{}
}

// AddItem increments the quantity of an existing item or appends a new one.
// Any product is accepted. A quantity that leaves an item at <= 0 removes it,
// and a new item is only appended for a positive quantity. It returns the
// resulting quantity, 0 when the product is not in the cart afterwards.
func (c *Cart) AddItem(product *Product, quantity int) int {
	if idx := c.indexOf(product.ID); idx >= 0 {
		item := c.items[idx]
		if quantity == 0 {
			return item.Quantity
		}
		item.Quantity += quantity
		if item.Quantity <= 0 {
			c.removeAt(idx)
			return 0
		}
		c.revision++
		return item.Quantity
	}

	if quantity <= 0 {
		return 0
	}
	c.items = append(c.items, &CartItem{Product: product, Quantity: quantity})
	c.revision++
	return quantity
}

// RemoveItem deletes the item for productID. Unknown ids are a no-op.
func (c *Cart) RemoveItem(productID int64) bool {
	idx := c.indexOf(productID)
	if idx < 0 {
		return false
	}
	c.removeAt(idx)
	return true
}

// UpdateQuantity adds delta to the item's quantity and removes the item when
// the result is <= 0. It reports false, without touching the cart, when the
// product is not in the cart.
func (c *Cart) UpdateQuantity(productID int64, delta int) (int, bool) {
	idx := c.indexOf(productID)
	if idx < 0 {
		return 0, false
	}

	item := c.items[idx]
	if delta == 0 {
		return item.Quantity, true
	}
	item.Quantity += delta
	if item.Quantity <= 0 {
		c.removeAt(idx)
		return 0, true
	}
	c.revision++
	return item.Quantity, true
}

func (c *Cart) CalculateTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.items {
		total = total.Add(item.Subtotal())
	}
	return total
}

func (c *Cart) Item(productID int64) (CartItem, bool) {
	idx := c.indexOf(productID)
	if idx < 0 {
		return CartItem{}, false
	}
	return *c.items[idx], true
}

// Items returns copies of the line items in display order.
func (c *Cart) Items() []CartItem {
	out := make([]CartItem, len(c.items))
	for i, item := range c.items {
		out[i] = *item
	}
	return out
}

func (c *Cart) Len() int {
	return len(c.items)
}

// Revision changes whenever the cart state changes.
func (c *Cart) Revision() uint64 {
	return c.revision
}

func (c *Cart) Snapshot() Snapshot {
	return Snapshot{
		Items:    c.Items(),
		Total:    c.CalculateTotal(),
		Revision: c.revision,
	}
}

func (c *Cart) indexOf(productID int64) int {
	for i, item := range c.items {
		if item.Product.ID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) removeAt(idx int) {
	c.items = append(c.items[:idx], c.items[idx+1:]...)
	c.revision++
}
