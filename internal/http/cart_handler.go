package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_cart/cart-widget/internal/catalog"
	"github.com/fjod/go_cart/cart-widget/internal/domain"
	"github.com/fjod/go_cart/cart-widget/internal/view"
	"github.com/go-chi/chi/v5"
)

// CartSession is the cart the handlers operate on.
type CartSession interface {
	AddItem(ctx context.Context, product *domain.Product, quantity int) error
	RemoveItem(ctx context.Context, productID int64) error
	UpdateQuantity(ctx context.Context, productID int64, delta int) error
	Snapshot(ctx context.Context) (domain.Snapshot, error)
}

type CartHandler struct {
	cart     CartSession
	products catalog.Repository
	timeout  time.Duration
}

func NewCartHandler(cart CartSession, products catalog.Repository, timeout time.Duration) *CartHandler {
	return &CartHandler{
		cart:     cart,
		products: products,
		timeout:  timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Delta int `json:"delta"`
}

type CartItemResponse struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	Subtotal  string `json:"subtotal"`
}

type CartResponse struct {
	Items    []CartItemResponse `json:"items"`
	Total    string             `json:"total"`
	Revision uint64             `json:"revision"`
}

func newCartResponse(snap domain.Snapshot) CartResponse {
	items := make([]CartItemResponse, len(snap.Items))
	for i, item := range snap.Items {
		items[i] = CartItemResponse{
			ProductID: item.Product.ID,
			Name:      item.Product.Name,
			UnitPrice: item.Product.Price.StringFixed(2),
			Quantity:  item.Quantity,
			Subtotal:  item.Subtotal().StringFixed(2),
		}
	}
	return CartResponse{
		Items:    items,
		Total:    snap.Total.StringFixed(2),
		Revision: snap.Revision,
	}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	snap, err := h.cart.Snapshot(ctx)
	if err != nil {
		handleSessionError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newCartResponse(snap))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}
	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	product, err := h.products.GetProduct(ctx, req.ProductID)
	if errors.Is(err, catalog.ErrProductNotFound) {
		respondError(w, http.StatusNotFound, "not_found", "product not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "catalog lookup failed")
		return
	}

	if err := h.cart.AddItem(ctx, product, req.Quantity); err != nil {
		handleSessionError(w, err)
		return
	}

	h.respondCart(ctx, w, http.StatusCreated)
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Delta == 0 || req.Delta < -99 || req.Delta > 99 {
		respondError(w, http.StatusBadRequest, "invalid_delta", "delta must be non-zero and between -99 and 99")
		return
	}

	if err := h.cart.UpdateQuantity(ctx, productID, req.Delta); err != nil {
		handleSessionError(w, err)
		return
	}

	h.respondCart(ctx, w, http.StatusOK)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	if err := h.cart.RemoveItem(ctx, productID); err != nil {
		handleSessionError(w, err)
		return
	}

	h.respondCart(ctx, w, http.StatusOK)
}

func (h *CartHandler) respondCart(ctx context.Context, w http.ResponseWriter, status int) {
	snap, err := h.cart.Snapshot(ctx)
	if err != nil {
		handleSessionError(w, err)
		return
	}
	respondJSON(w, status, newCartResponse(snap))
}

func productIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return 0, false
	}
	return productID, true
}

// dispatch applies an activated widget control to the cart.
func dispatch(ctx context.Context, cart CartSession, control view.Control) error {
	switch control.Action {
	case view.ActionIncrement:
		return cart.UpdateQuantity(ctx, control.ProductID, 1)
	case view.ActionDecrement:
		return cart.UpdateQuantity(ctx, control.ProductID, -1)
	case view.ActionRemove:
		return cart.RemoveItem(ctx, control.ProductID)
	}
	return nil
}
