package service

import (
	"context"
	"errors"
	"sync"

	"github.com/fjod/go_cart/cart-widget/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrSessionClosed = errors.New("cart session closed")

type ChangeKind string

const (
	ChangeItemAdded       ChangeKind = "item_added"
	ChangeItemRemoved     ChangeKind = "item_removed"
	ChangeQuantityUpdated ChangeKind = "quantity_updated"
	// ChangeRefreshed asks subscribers to re-render without a mutation.
	ChangeRefreshed ChangeKind = "refreshed"
)

// Change is delivered to subscribers after every cart operation that must be
// reflected on the presentation surface.
type Change struct {
	Kind      ChangeKind
	ProductID int64
	// Quantity is the item's quantity after the change, 0 when it left the cart.
	Quantity int
	// Mutated is false when the operation left the cart as it was, as for a
	// refresh or the removal of a product that was not in the cart.
	Mutated  bool
	Snapshot domain.Snapshot
}

// Subscriber is invoked on the session goroutine. It must not call back
// into the CartService.
type Subscriber func(ctx context.Context, change Change)

type command struct {
	ctx   context.Context
	run   func(cart *domain.Cart) (Change, bool)
	reply chan commandResult
}

type commandResult struct {
	change   Change
	snapshot domain.Snapshot
}

// CartService owns the single cart of a session. Every operation goes
// through one goroutine and runs to completion, subscribers included, before
// the next one starts.
type CartService struct {
	cart     *domain.Cart
	commands chan command
	quit     chan struct{}
	done     chan struct{}
	once     sync.Once
	log      *zap.Logger

	mu          sync.RWMutex
	subscribers []Subscriber
}

func NewCartService(cart *domain.Cart, log *zap.Logger) *CartService {
	if log == nil {
		log = zap.NewNop()
	}
	s := &CartService{
		cart:     cart,
		commands: make(chan command),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		log:      log,
	}
	go s.loop()
	return s
}

// Subscribe registers fn for change notifications. Subscribers run in
// registration order.
func (s *CartService) Subscribe(fn Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *CartService) loop() {
	defer close(s.done)
	for {
		select {
		case cmd := <-s.commands:
			before := s.cart.Revision()
			change, notify := cmd.run(s.cart)
			snapshot := s.cart.Snapshot()
			if notify {
				change.Mutated = snapshot.Revision != before
				change.Snapshot = snapshot
				s.notify(context.WithoutCancel(cmd.ctx), change)
			}
			cmd.reply <- commandResult{change: change, snapshot: snapshot}
		case <-s.quit:
			return
		}
	}
}

func (s *CartService) notify(ctx context.Context, change Change) {
	s.mu.RLock()
	subscribers := make([]Subscriber, len(s.subscribers))
	copy(subscribers, s.subscribers)
	s.mu.RUnlock()

	for _, fn := range subscribers {
		fn(ctx, change)
	}
}

func (s *CartService) submit(ctx context.Context, run func(cart *domain.Cart) (Change, bool)) (commandResult, error) {
	cmd := command{ctx: ctx, run: run, reply: make(chan commandResult, 1)}

	select {
	case s.commands <- cmd:
	case <-s.quit:
		return commandResult{}, ErrSessionClosed
	case <-ctx.Done():
		return commandResult{}, ctx.Err()
	}

	// An accepted command always completes; the buffered reply keeps the
	// loop from blocking on a caller that gave up.
	select {
	case res := <-cmd.reply:
		return res, nil
	case <-ctx.Done():
		return commandResult{}, ctx.Err()
	}
}

// AddItem adds quantity of product to the cart and re-renders.
func (s *CartService) AddItem(ctx context.Context, product *domain.Product, quantity int) error {
	res, err := s.submit(ctx, func(cart *domain.Cart) (Change, bool) {
		qty := cart.AddItem(product, quantity)
		return Change{Kind: ChangeItemAdded, ProductID: product.ID, Quantity: qty}, true
	})
	if err != nil {
		return err
	}
	s.log.Debug("item added",
		zap.Int64("product_id", product.ID),
		zap.Int("quantity", quantity),
		zap.Int("new_quantity", res.change.Quantity),
	)
	return nil
}

// RemoveItem removes the product from the cart and re-renders, also when the
// product was not in the cart.
func (s *CartService) RemoveItem(ctx context.Context, productID int64) error {
	_, err := s.submit(ctx, func(cart *domain.Cart) (Change, bool) {
		cart.RemoveItem(productID)
		return Change{Kind: ChangeItemRemoved, ProductID: productID}, true
	})
	if err != nil {
		return err
	}
	s.log.Debug("item removed", zap.Int64("product_id", productID))
	return nil
}

// UpdateQuantity adds delta to the product's quantity. Nothing happens, not
// even a render, when the product is not in the cart.
func (s *CartService) UpdateQuantity(ctx context.Context, productID int64, delta int) error {
	res, err := s.submit(ctx, func(cart *domain.Cart) (Change, bool) {
		qty, ok := cart.UpdateQuantity(productID, delta)
		if !ok {
			return Change{}, false
		}
		if qty == 0 {
			return Change{Kind: ChangeItemRemoved, ProductID: productID}, true
		}
		return Change{Kind: ChangeQuantityUpdated, ProductID: productID, Quantity: qty}, true
	})
	if err != nil {
		return err
	}
	if res.change.Kind == "" {
		s.log.Debug("quantity update ignored, product not in cart", zap.Int64("product_id", productID))
		return nil
	}
	s.log.Debug("quantity updated",
		zap.Int64("product_id", productID),
		zap.Int("delta", delta),
		zap.Int("new_quantity", res.change.Quantity),
	)
	return nil
}

// Refresh re-renders the current state without changing it.
func (s *CartService) Refresh(ctx context.Context) error {
	_, err := s.submit(ctx, func(cart *domain.Cart) (Change, bool) {
		return Change{Kind: ChangeRefreshed}, true
	})
	return err
}

func (s *CartService) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	res, err := s.submit(ctx, func(cart *domain.Cart) (Change, bool) {
		return Change{}, false
	})
	if err != nil {
		return domain.Snapshot{}, err
	}
	return res.snapshot, nil
}

func (s *CartService) Total(ctx context.Context) (decimal.Decimal, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return snap.Total, nil
}

// Close stops the session goroutine. Calls after Close return ErrSessionClosed.
func (s *CartService) Close() {
	s.once.Do(func() {
		close(s.quit)
	})
	<-s.done
}
