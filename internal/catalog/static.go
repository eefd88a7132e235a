package catalog

import (
	"context"

	"github.com/fjod/go_cart/cart-widget/internal/domain"
)

// StaticRepository serves a fixed set of products held in memory. The
// returned products are shared, never copied.
type StaticRepository struct {
	products []*domain.Product
	byID     map[int64]*domain.Product
}

func NewStaticRepository(products ...*domain.Product) *StaticRepository {
	r := &StaticRepository{
		products: products,
		byID:     make(map[int64]*domain.Product, len(products)),
	}
	for _, p := range products {
		r.byID[p.ID] = p
	}
	return r
}

func (r *StaticRepository) GetAllProducts(ctx context.Context) ([]*domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]*domain.Product, len(r.products))
	copy(out, r.products)
	return out, nil
}

func (r *StaticRepository) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, ok := r.byID[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return p, nil
}

func (r *StaticRepository) Close() error {
	return nil
}
