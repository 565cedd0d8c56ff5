// Package cart owns the shopping-cart state of a single storefront session.
//
// An Engine holds the ordered line items and the drawer visibility flag. All
// item mutations go through the Engine and are written to a Store afterwards;
// a failed write is logged and never rolls back the in-memory state.
package cart

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductRef is the copy of a catalog product captured when it is added.
type ProductRef struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image"`
}

type Item struct {
	Product  ProductRef `json:"product"`
	Quantity int        `json:"quantity"`
}

// LineTotal is price times quantity for the line.
func (i Item) LineTotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// State is a point-in-time copy of a cart.
type State struct {
	Items  []Item `json:"items"`
	IsOpen bool   `json:"isOpen"`
}

func (s State) TotalItems() int {
	total := 0
	for _, it := range s.Items {
		total += it.Quantity
	}
	return total
}

func (s State) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, it := range s.Items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// MaxQuantity caps a single line. Larger adds and updates saturate to it.
const MaxQuantity = 999

// persistTimeout bounds a store write once it is detached from the caller.
const persistTimeout = 5 * time.Second

// Engine serializes every operation on one cart. Observers are notified in the
// order the mutations were applied.
type Engine struct {
	mu        sync.Mutex
	notifyMu  sync.Mutex
	key       string
	store     Store
	logger    *zap.Logger
	items     []Item
	isOpen    bool
	observers []func(State)
}

// New builds an Engine for key and restores its items from store. A missing or
// unreadable payload yields an empty cart. A nil store keeps the cart in memory only.
func New(ctx context.Context, key string, store Store, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{key: key, store: store, logger: logger}
	e.items = e.load(ctx)
	return e
}

func (e *Engine) load(ctx context.Context) []Item {
	if e.store == nil {
		return nil
	}
	raw, err := e.store.Load(ctx, e.key)
	if err != nil {
		if !IsNotFound(err) {
			e.logger.Warn("cart load failed, starting empty", zap.String("key", e.key), zap.Error(err))
		}
		return nil
	}
	items, err := Decode(raw)
	if err != nil {
		e.logger.Warn("cart payload unreadable, starting empty", zap.String("key", e.key), zap.Error(err))
		return nil
	}
	return normalize(items)
}

// AddItem appends product or, when its id is already present, increases that
// line by quantity. Quantities below 1 are clamped to 1 and the line never
// exceeds MaxQuantity.
func (e *Engine) AddItem(ctx context.Context, product ProductRef, quantity int) {
	if strings.TrimSpace(product.ID) == "" {
		return
	}
	quantity = capQuantity(max(quantity, 1))
	e.mutate(ctx, func(items []Item) []Item {
		if idx := indexOf(items, product.ID); idx >= 0 {
			items[idx].Quantity = addQuantity(items[idx].Quantity, quantity)
			return items
		}
		return append(items, Item{Product: product, Quantity: quantity})
	})
}

// RemoveItem deletes the line for productID. Unknown ids leave the cart unchanged.
func (e *Engine) RemoveItem(ctx context.Context, productID string) {
	e.mutate(ctx, func(items []Item) []Item {
		idx := indexOf(items, productID)
		if idx < 0 {
			return items
		}
		return append(items[:idx], items[idx+1:]...)
	})
}

// UpdateQuantity sets the line quantity exactly, up to MaxQuantity; zero or
// less removes the line.
func (e *Engine) UpdateQuantity(ctx context.Context, productID string, quantity int) {
	if quantity <= 0 {
		e.RemoveItem(ctx, productID)
		return
	}
	quantity = capQuantity(quantity)
	e.mutate(ctx, func(items []Item) []Item {
		if idx := indexOf(items, productID); idx >= 0 {
			items[idx].Quantity = quantity
		}
		return items
	})
}

// Clear empties the cart without touching the drawer flag.
func (e *Engine) Clear(ctx context.Context) {
	e.mutate(ctx, func([]Item) []Item { return nil })
}

// Open, Close and Toggle only flip the drawer flag, which is never persisted.
func (e *Engine) Open() { e.setOpen(func(bool) bool { return true }) }
func (e *Engine) Close() { e.setOpen(func(bool) bool { return false }) }
func (e *Engine) Toggle() { e.setOpen(func(v bool) bool { return !v }) }

func (e *Engine) IsOpen() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.isOpen
}

func (e *Engine) TotalItems() int {
	return e.Snapshot().TotalItems()
}

func (e *Engine) TotalPrice() decimal.Decimal {
	return e.Snapshot().TotalPrice()
}

// Snapshot returns a deep copy safe to hand to presentation code or the order sink.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Subscribe registers fn to receive the state after every change.
func (e *Engine) Subscribe(fn func(State)) {
	e.mu.Lock()
	e.observers = append(e.observers, fn)
	e.mu.Unlock()
}

func (e *Engine) mutate(ctx context.Context, apply func([]Item) []Item) {
	e.mu.Lock()
	e.items = apply(e.items)
	e.persistLocked(ctx)
	e.notifyUnlock()
}

func (e *Engine) setOpen(next func(bool) bool) {
	e.mu.Lock()
	e.isOpen = next(e.isOpen)
	e.notifyUnlock()
}

// notifyUnlock must be called with mu held. notifyMu is taken before mu is
// released so deliveries follow mutation order. Observers must not mutate the
// Engine they are subscribed to.
func (e *Engine) notifyUnlock() {
	state := e.snapshotLocked()
	observers := append([]func(State){}, e.observers...)
	e.notifyMu.Lock()
	e.mu.Unlock()
	defer e.notifyMu.Unlock()

	for _, fn := range observers {
		fn(state)
	}
}

// persistLocked writes the items detached from ctx cancellation, so a client
// that goes away mid-request cannot leave the store behind memory.
func (e *Engine) persistLocked(ctx context.Context) {
	if e.store == nil {
		return
	}
	raw, err := Encode(e.items)
	if err != nil {
		e.logger.Error("cart encode failed", zap.String("key", e.key), zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	if err := e.store.Save(ctx, e.key, raw); err != nil {
		e.logger.Warn("cart persist failed, keeping in-memory state", zap.String("key", e.key), zap.Error(err))
	}
}

func (e *Engine) snapshotLocked() State {
	items := make([]Item, len(e.items))
	copy(items, e.items)
	return State{Items: items, IsOpen: e.isOpen}
}

func indexOf(items []Item, productID string) int {
	for i, it := range items {
		if it.Product.ID == productID {
			return i
		}
	}
	return -1
}

// normalize restores the line invariants on data read from storage.
func normalize(items []Item) []Item {
	var out []Item
	for _, it := range items {
		if it.Product.ID == "" || it.Quantity < 1 {
			continue
		}
		it.Quantity = capQuantity(it.Quantity)
		if idx := indexOf(out, it.Product.ID); idx >= 0 {
			out[idx].Quantity = addQuantity(out[idx].Quantity, it.Quantity)
			continue
		}
		out = append(out, it)
	}
	return out
}

func capQuantity(q int) int {
	return min(q, MaxQuantity)
}

// addQuantity sums two capped quantities without overflowing.
func addQuantity(a, b int) int {
	if a >= MaxQuantity-b {
		return MaxQuantity
	}
	return a + b
}
