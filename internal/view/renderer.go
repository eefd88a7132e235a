package view

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"sync"
	"time"

	"github.com/fjod/go_cart/cart-widget/internal/cache"
	"github.com/fjod/go_cart/cart-widget/internal/domain"
	"github.com/fjod/go_cart/cart-widget/internal/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

//go:embed templates/*.gohtml
var templatesFS embed.FS

const cacheTimeout = time.Second

type itemView struct {
	ID        int64
	Name      string
	UnitPrice string
	Quantity  int
}

type cartView struct {
	Items []itemView
}

type surfaceView struct {
	Items template.HTML
	Total string
}

// Renderer turns cart snapshots into the widget's HTML. Rendered fragments
// are kept in a FragmentCache keyed by cart revision, so a page load after a
// mutation serves what the mutation already rendered.
type Renderer struct {
	templates *template.Template
	cache     cache.FragmentCache
	keyPrefix string
	sfg       singleflight.Group
	log       *zap.Logger

	mu sync.Mutex
	// current is the key of the newest fragment stored by OnChange.
	current string
}

func NewRenderer(fragments cache.FragmentCache, log *zap.Logger) (*Renderer, error) {
	tmpl, err := template.New("widget").
		Funcs(template.FuncMap{"control": ControlValue}).
		ParseFS(templatesFS, "templates/*.gohtml")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{
		templates: tmpl,
		cache:     fragments,
		// revisions restart at zero with every process
		keyPrefix: uuid.NewString(),
		log:       log,
	}, nil
}

// Render builds the fragment for snap. It depends on nothing but snap.
func (r *Renderer) Render(snap domain.Snapshot) (*cache.Fragment, error) {
	view := cartView{Items: make([]itemView, 0, len(snap.Items))}
	for _, item := range snap.Items {
		view.Items = append(view.Items, itemView{
			ID:        item.Product.ID,
			Name:      item.Product.Name,
			UnitPrice: FormatPrice(item.Product.Price),
			Quantity:  item.Quantity,
		})
	}

	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, "cart", view); err != nil {
		return nil, fmt.Errorf("render cart: %w", err)
	}

	return &cache.Fragment{
		Revision:   snap.Revision,
		HTML:       buf.String(),
		Total:      FormatPrice(snap.Total),
		RenderedAt: time.Now(),
	}, nil
}

// OnChange re-renders the widget after every cart change and evicts the
// fragment of the revision it replaces.
func (r *Renderer) OnChange(ctx context.Context, change service.Change) {
	fragment, err := r.Render(change.Snapshot)
	if err != nil {
		r.log.Error("render failed", zap.String("change", string(change.Kind)), zap.Error(err))
		return
	}

	key := r.key(change.Snapshot.Revision)
	r.store(ctx, key, fragment)

	r.mu.Lock()
	previous := r.current
	r.current = key
	r.mu.Unlock()

	if previous != "" && previous != key {
		r.evict(ctx, previous)
	}
}

// Fragment returns the rendered fragment for snap, rendering it only when no
// render of that revision is cached.
func (r *Renderer) Fragment(ctx context.Context, snap domain.Snapshot) (*cache.Fragment, error) {
	key := r.key(snap.Revision)

	fragment, err := r.cache.Get(ctx, key)
	if err == nil {
		return fragment, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		r.log.Warn("fragment cache get failed", zap.Error(err))
	}

	v, err, _ := r.sfg.Do(key, func() (interface{}, error) {
		fragment, err := r.Render(snap)
		if err != nil {
			return nil, err
		}
		r.store(ctx, key, fragment)
		return fragment, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*cache.Fragment), nil
}

func (r *Renderer) WritePage(w io.Writer, fragment *cache.Fragment) error {
	return r.templates.ExecuteTemplate(w, "page.gohtml", surface(fragment))
}

func (r *Renderer) WriteFragment(w io.Writer, fragment *cache.Fragment) error {
	return r.templates.ExecuteTemplate(w, "fragment", surface(fragment))
}

func (r *Renderer) store(ctx context.Context, key string, fragment *cache.Fragment) {
	ctx, cancel := context.WithTimeout(ctx, cacheTimeout)
	defer cancel()
	if err := r.cache.Set(ctx, key, fragment); err != nil {
		r.log.Warn("fragment cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func (r *Renderer) evict(ctx context.Context, key string) {
	ctx, cancel := context.WithTimeout(ctx, cacheTimeout)
	defer cancel()
	if err := r.cache.Delete(ctx, key); err != nil {
		r.log.Warn("fragment cache delete failed", zap.String("key", key), zap.Error(err))
	}
}

func (r *Renderer) key(revision uint64) string {
	return fmt.Sprintf("%s:%d", r.keyPrefix, revision)
}

func surface(fragment *cache.Fragment) surfaceView {
	// the fragment was produced by the cart template, so it is already escaped
	return surfaceView{
		Items: template.HTML(fragment.HTML),
		Total: fragment.Total,
	}
}
