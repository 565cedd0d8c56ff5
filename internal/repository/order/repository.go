package order

import (
	"context"

	"farmisian/internal/domain"
	"github.com/shopspring/decimal"
)

// Repository is the order submission sink and order history store.
type Repository interface {
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	Get(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
	// Totals returns the order count and the summed total of orders that
	// were not cancelled.
	Totals(ctx context.Context) (int, decimal.Decimal, error)
}
