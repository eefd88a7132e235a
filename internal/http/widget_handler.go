package http

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/fjod/go_cart/cart-widget/internal/cache"
	"github.com/fjod/go_cart/cart-widget/internal/domain"
	"github.com/fjod/go_cart/cart-widget/internal/view"
	"github.com/fjod/go_cart/cart-widget/pkg/logger"
	"go.uber.org/zap"
)

// Presenter renders the cart widget.
type Presenter interface {
	Fragment(ctx context.Context, snap domain.Snapshot) (*cache.Fragment, error)
	WritePage(w io.Writer, fragment *cache.Fragment) error
	WriteFragment(w io.Writer, fragment *cache.Fragment) error
}

// WidgetHandler serves the server-rendered cart widget. All of its buttons
// post to Action, which tells them apart by the submitted control value.
type WidgetHandler struct {
	cart      CartSession
	presenter Presenter
	timeout   time.Duration
	log       *zap.Logger
}

func NewWidgetHandler(cart CartSession, presenter Presenter, timeout time.Duration, log *zap.Logger) *WidgetHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WidgetHandler{
		cart:      cart,
		presenter: presenter,
		timeout:   timeout,
		log:       log,
	}
}

func (h *WidgetHandler) Page(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.presenter.WritePage)
}

func (h *WidgetHandler) Fragment(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.presenter.WriteFragment)
}

// Action applies the activated control and sends the browser back to the
// page. Unrecognised controls change nothing.
func (h *WidgetHandler) Action(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	log := logger.WithTrace(ctx, h.log)

	if err := r.ParseForm(); err != nil {
		log.Debug("ignoring unreadable form", zap.Error(err))
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	value := r.PostFormValue("control")
	control, ok := view.ParseControl(value)
	if !ok {
		log.Debug("ignoring unknown control", zap.String("control", value))
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if err := dispatch(ctx, h.cart, control); err != nil {
		log.Error("cart action failed",
			zap.String("action", string(control.Action)),
			zap.Int64("product_id", control.ProductID),
			zap.Error(err),
		)
		status, _ := sessionErrorStatus(err)
		http.Error(w, http.StatusText(status), status)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *WidgetHandler) serve(w http.ResponseWriter, r *http.Request, write func(io.Writer, *cache.Fragment) error) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	log := logger.WithTrace(ctx, h.log)

	snap, err := h.cart.Snapshot(ctx)
	if err != nil {
		status, _ := sessionErrorStatus(err)
		http.Error(w, http.StatusText(status), status)
		return
	}

	fragment, err := h.presenter.Fragment(ctx, snap)
	if err != nil {
		log.Error("render failed", zap.Uint64("revision", snap.Revision), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := write(w, fragment); err != nil {
		log.Error("write widget failed", zap.Error(err))
	}
}
