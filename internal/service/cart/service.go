package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"farmisian/internal/cart"
	"farmisian/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type productSource interface {
	Get(ctx context.Context, id string) (*domain.Product, error)
}

// View is the cart as rendered to the storefront.
type View struct {
	Items      []cart.Item     `json:"items"`
	IsOpen     bool            `json:"isOpen"`
	TotalItems int             `json:"totalItems"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

func viewOf(s cart.State) View {
	items := s.Items
	if items == nil {
		items = []cart.Item{}
	}
	return View{Items: items, IsOpen: s.IsOpen, TotalItems: s.TotalItems(), TotalPrice: s.TotalPrice()}
}

type entry struct {
	engine   *cart.Engine
	lastSeen time.Time
}

// Service keeps one cart engine per storefront session.
type Service struct {
	products productSource
	store    cart.Store
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.RWMutex
	engines map[string]*entry
}

func New(products productSource, store cart.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		products: products,
		store:    store,
		logger:   logger,
		now:      time.Now,
		engines:  make(map[string]*entry),
	}
}

// Engine returns the cart for sessionID, restoring it from the store on first use.
func (s *Service) Engine(ctx context.Context, sessionID string) *cart.Engine {
	now := s.now()
	s.mu.RLock()
	e, ok := s.engines[sessionID]
	s.mu.RUnlock()
	if ok {
		s.touch(e, now)
		return e.engine
	}

	engine := cart.New(ctx, sessionID, s.store, s.logger.With(zap.String("session_id", sessionID)))

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.engines[sessionID]; ok {
		existing.lastSeen = now
		return existing.engine
	}
	s.engines[sessionID] = &entry{engine: engine, lastSeen: now}
	return engine
}

func (s *Service) touch(e *entry, now time.Time) {
	s.mu.Lock()
	e.lastSeen = now
	s.mu.Unlock()
}

func (s *Service) View(ctx context.Context, sessionID string) View {
	return viewOf(s.Engine(ctx, sessionID).Snapshot())
}

// Add resolves productID in the catalog and adds quantity of it.
func (s *Service) Add(ctx context.Context, sessionID, productID string, quantity int) (View, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return View{}, fmt.Errorf("%w: productId required", domain.ErrValidation)
	}
	p, err := s.products.Get(ctx, productID)
	if err != nil {
		return View{}, err
	}
	if !p.InStock {
		return View{}, fmt.Errorf("%w: %s is out of stock", domain.ErrValidation, p.Name)
	}
	e := s.Engine(ctx, sessionID)
	e.AddItem(ctx, RefFromProduct(*p), quantity)
	return viewOf(e.Snapshot()), nil
}

func (s *Service) UpdateQuantity(ctx context.Context, sessionID, productID string, quantity int) View {
	e := s.Engine(ctx, sessionID)
	e.UpdateQuantity(ctx, productID, quantity)
	return viewOf(e.Snapshot())
}

func (s *Service) Remove(ctx context.Context, sessionID, productID string) View {
	e := s.Engine(ctx, sessionID)
	e.RemoveItem(ctx, productID)
	return viewOf(e.Snapshot())
}

func (s *Service) Clear(ctx context.Context, sessionID string) View {
	e := s.Engine(ctx, sessionID)
	e.Clear(ctx)
	return viewOf(e.Snapshot())
}

// Drawer actions accepted by SetDrawer.
const (
	DrawerOpen   = "open"
	DrawerClose  = "close"
	DrawerToggle = "toggle"
)

// SetDrawer applies a drawer action to the open flag.
func (s *Service) SetDrawer(ctx context.Context, sessionID, action string) (View, error) {
	e := s.Engine(ctx, sessionID)
	switch action {
	case DrawerOpen:
		e.Open()
	case DrawerClose:
		e.Close()
	case DrawerToggle:
		e.Toggle()
	default:
		return View{}, fmt.Errorf("%w: unknown drawer action %q", domain.ErrValidation, action)
	}
	return viewOf(e.Snapshot()), nil
}

// EvictIdle drops engines untouched since before cutoff. Their items remain in
// the store and are restored on the next request.
func (s *Service) EvictIdle(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, e := range s.engines {
		if e.lastSeen.Before(cutoff) {
			delete(s.engines, id)
			n++
		}
	}
	if n > 0 {
		s.logger.Debug("idle carts evicted", zap.Int("count", n))
	}
	return n
}

// Len reports the number of live engines.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.engines)
}

// RefFromProduct captures the fields a cart line keeps from the catalog.
func RefFromProduct(p domain.Product) cart.ProductRef {
	return cart.ProductRef{ID: p.ID, Name: p.Name, Price: p.Price, Image: p.Image}
}
