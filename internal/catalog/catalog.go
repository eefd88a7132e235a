package catalog

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/cart-widget/internal/domain"
	"github.com/shopspring/decimal"
)

var ErrProductNotFound = errors.New("product not found")

type Repository interface {
	GetAllProducts(ctx context.Context) ([]*domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	Close() error
}

// DefaultProducts is the catalog the widget ships with.
func DefaultProducts() []*domain.Product {
	return []*domain.Product{
		domain.NewProduct(1, "Prod 1", decimal.RequireFromString("10.00")),
		domain.NewProduct(2, "Prod 2", decimal.RequireFromString("10.50")),
		domain.NewProduct(3, "Prod 3", decimal.RequireFromString("10.00")),
	}
}
