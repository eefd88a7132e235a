package http

import (
	"context"
	"testing"
	"time"

	"github.com/fjod/go_cart/cart-widget/internal/cache"
	"github.com/fjod/go_cart/cart-widget/internal/catalog"
	"github.com/fjod/go_cart/cart-widget/internal/domain"
	"github.com/fjod/go_cart/cart-widget/internal/service"
	"github.com/fjod/go_cart/cart-widget/internal/view"
	"github.com/stretchr/testify/require"
)

const testTimeout = 5 * time.Second

type SessionMock struct {
	snap domain.Snapshot
	err  error
}

func (s SessionMock) AddItem(context.Context, *domain.Product, int) error { return s.err }
func (s SessionMock) RemoveItem(context.Context, int64) error             { return s.err }
func (s SessionMock) UpdateQuantity(context.Context, int64, int) error    { return s.err }
func (s SessionMock) Snapshot(context.Context) (domain.Snapshot, error) {
	if s.err != nil {
		return domain.Snapshot{}, s.err
	}
	return s.snap, nil
}

// seededSession returns a live cart session holding the default products
// with quantities 2, 1 and 3.
func seededSession(t *testing.T) (*service.CartService, *catalog.StaticRepository) {
	t.Helper()
	repo := catalog.NewStaticRepository(catalog.DefaultProducts()...)
	svc := service.NewCartService(domain.NewCart(), nil)
	t.Cleanup(svc.Close)

	ctx := context.Background()
	for _, seed := range []struct {
		id  int64
		qty int
	}{{1, 2}, {2, 1}, {3, 3}} {
		p, err := repo.GetProduct(ctx, seed.id)
		require.NoError(t, err)
		require.NoError(t, svc.AddItem(ctx, p, seed.qty))
	}
	return svc, repo
}

func newTestRenderer(t *testing.T) *view.Renderer {
	t.Helper()
	r, err := view.NewRenderer(cache.NewMemoryCache(time.Minute), nil)
	require.NoError(t, err)
	return r
}
