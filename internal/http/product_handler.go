package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/cart-widget/internal/catalog"
)

type ProductHandler struct {
	products catalog.Repository
	timeout  time.Duration
}

func NewProductHandler(products catalog.Repository, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		products: products,
		timeout:  timeout,
	}
}

type ProductResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
}

type ProductsResponse struct {
	Products []ProductResponse `json:"products"`
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	res, err := h.products.GetAllProducts(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load products")
		return
	}

	products := make([]ProductResponse, len(res))
	for i, p := range res {
		products[i] = ProductResponse{
			ID:    p.ID,
			Name:  p.Name,
			Price: p.Price.StringFixed(2),
		}
	}

	respondJSON(w, http.StatusOK, &ProductsResponse{Products: products})
}
