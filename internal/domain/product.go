package domain

import "github.com/shopspring/decimal"

// Product is a catalog entry. It is created once at startup and shared by
// every line item that references it, so it must never be mutated.
type Product struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

func NewProduct(id int64, name string, price decimal.Decimal) *Product {
	return &Product{
		ID:    id,
		Name:  name,
		Price: price,
	}
}
