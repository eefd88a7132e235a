package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fjod/go_cart/cart-widget/internal/catalog"
	"github.com/fjod/go_cart/cart-widget/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingRepository struct{}

func (failingRepository) GetAllProducts(context.Context) ([]*domain.Product, error) {
	return nil, errors.New("database is locked")
}

func (failingRepository) GetProduct(context.Context, int64) (*domain.Product, error) {
	return nil, errors.New("database is locked")
}

func (failingRepository) Close() error { return nil }

func TestGetProducts_Success(t *testing.T) {
	handler := NewProductHandler(catalog.NewStaticRepository(catalog.DefaultProducts()...), testTimeout)

	recorder := httptest.NewRecorder()
	handler.Get(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))

	require.Equal(t, http.StatusOK, recorder.Code)

	var response ProductsResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, []ProductResponse{
		{ID: 1, Name: "Prod 1", Price: "10.00"},
		{ID: 2, Name: "Prod 2", Price: "10.50"},
		{ID: 3, Name: "Prod 3", Price: "10.00"},
	}, response.Products)
}

func TestGetProducts_RepositoryError(t *testing.T) {
	handler := NewProductHandler(failingRepository{}, testTimeout)

	recorder := httptest.NewRecorder()
	handler.Get(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
}

func TestAddItem_CatalogError(t *testing.T) {
	handler := NewCartHandler(SessionMock{}, failingRepository{}, testTimeout)

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"product_id": 1, "quantity": 1}`))
	handler.AddItem(recorder, req)

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
}
