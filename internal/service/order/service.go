package order

import (
	"context"
	"fmt"

	"farmisian/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type orderRepo interface {
	Get(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
	Totals(ctx context.Context) (int, decimal.Decimal, error)
}

type counter interface {
	Count(ctx context.Context) (int, error)
}

// Stats backs the admin dashboard.
type Stats struct {
	TotalSales     decimal.Decimal `json:"totalSales"`
	TotalOrders    int             `json:"totalOrders"`
	TotalProducts  int             `json:"totalProducts"`
	TotalCustomers int             `json:"totalCustomers"`
}

type Service struct {
	repo      orderRepo
	products  counter
	customers counter
	logger    *zap.Logger
}

func New(repo orderRepo, products, customers counter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, products: products, customers: customers, logger: logger}
}

// ListForUser returns the customer's orders, newest first.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Get returns one of the customer's orders. Orders of other customers are
// reported as not found.
func (s *Service) Get(ctx context.Context, userID, id string) (*domain.Order, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

func (s *Service) ListAll(ctx context.Context) ([]domain.Order, error) {
	return s.repo.ListAll(ctx)
}

func (s *Service) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown order status %q", domain.ErrValidation, status)
	}
	o, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.logger.Info("order status updated", zap.String("order_id", id), zap.String("status", string(status)))
	return o, nil
}

// Stats gathers the dashboard figures concurrently.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, sales, err := s.repo.Totals(gctx)
		if err != nil {
			return fmt.Errorf("order totals: %w", err)
		}
		st.TotalOrders, st.TotalSales = n, sales
		return nil
	})
	g.Go(func() error {
		n, err := s.products.Count(gctx)
		if err != nil {
			return fmt.Errorf("product count: %w", err)
		}
		st.TotalProducts = n
		return nil
	})
	g.Go(func() error {
		n, err := s.customers.Count(gctx)
		if err != nil {
			return fmt.Errorf("customer count: %w", err)
		}
		st.TotalCustomers = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	return st, nil
}
