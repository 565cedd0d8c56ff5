package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"farmisian/internal/cart"
	"farmisian/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

var (
	// ErrEmptyCart is returned when checkout is attempted with no items.
	ErrEmptyCart = fmt.Errorf("%w: cart is empty", domain.ErrValidation)
	// ErrSubmitFailed means the order sink did not accept the order. The cart
	// is left untouched.
	ErrSubmitFailed = errors.New("order submission failed")
)

const PaymentCashOnDelivery = "cod"

var (
	freeShippingFrom = decimal.NewFromInt(2000)
	flatShipping     = decimal.NewFromInt(100)
	taxRate          = decimal.RequireFromString("0.08")
)

type cartSource interface {
	Engine(ctx context.Context, sessionID string) *cart.Engine
}

type orderSink interface {
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
}

type publisher interface {
	PublishOrderPlaced(ctx context.Context, o domain.Order) error
}

// Quote is the price breakdown shown before an order is placed.
type Quote struct {
	Items    []cart.Item     `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// Price computes shipping, tax and total for a subtotal.
func Price(subtotal decimal.Decimal) (shipping, tax, total decimal.Decimal) {
	shipping = flatShipping
	if subtotal.GreaterThanOrEqual(freeShippingFrom) {
		shipping = decimal.Zero
	}
	tax = subtotal.Mul(taxRate).Round(2)
	total = subtotal.Add(shipping).Add(tax)
	return shipping, tax, total
}

func quoteFor(items []cart.Item) Quote {
	state := cart.State{Items: items}
	subtotal := state.TotalPrice()
	shipping, tax, total := Price(subtotal)
	if items == nil {
		items = []cart.Item{}
	}
	return Quote{Items: items, Subtotal: subtotal, Shipping: shipping, Tax: tax, Total: total}
}

type Service struct {
	carts     cartSource
	sink      orderSink
	publisher publisher
	breaker   *gobreaker.CircuitBreaker[*domain.Order]
	logger    *zap.Logger
	now       func() time.Time
}

func New(carts cartSource, sink orderSink, pub publisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{carts: carts, sink: sink, publisher: pub, logger: logger, now: time.Now}
	s.breaker = gobreaker.NewCircuitBreaker[*domain.Order](gobreaker.Settings{
		Name:        "order-sink",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})
	return s
}

// Quote prices the session's current cart without submitting anything.
func (s *Service) Quote(ctx context.Context, sessionID string) Quote {
	return quoteFor(s.carts.Engine(ctx, sessionID).Snapshot().Items)
}

// Place submits the session's cart as an order for customer. The cart is
// cleared only after the sink confirmed the order.
func (s *Service) Place(ctx context.Context, sessionID string, customer domain.Customer, addr domain.ShippingAddress) (*domain.Order, error) {
	if err := validateAddress(addr); err != nil {
		return nil, err
	}
	engine := s.carts.Engine(ctx, sessionID)
	q := quoteFor(engine.Snapshot().Items)
	if len(q.Items) == 0 {
		return nil, ErrEmptyCart
	}

	o := domain.Order{
		UserID:          customer.ID,
		Items:           make([]domain.OrderItem, 0, len(q.Items)),
		Subtotal:        q.Subtotal,
		Shipping:        q.Shipping,
		Tax:             q.Tax,
		Total:           q.Total,
		Status:          domain.OrderStatusProcessing,
		ShippingAddress: addr,
		PaymentMethod:   PaymentCashOnDelivery,
		CreatedAt:       s.now().UTC(),
	}
	for _, it := range q.Items {
		o.Items = append(o.Items, domain.OrderItem{
			ProductID: it.Product.ID,
			Name:      it.Product.Name,
			Image:     it.Product.Image,
			UnitPrice: it.Product.Price,
			Quantity:  it.Quantity,
		})
	}

	placed, err := s.breaker.Execute(func() (*domain.Order, error) {
		return s.sink.Create(ctx, o)
	})
	if err != nil {
		s.logger.Warn("order submission failed", zap.String("customer_id", customer.ID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrSubmitFailed, err)
	}

	if err := s.publisher.PublishOrderPlaced(ctx, *placed); err != nil {
		s.logger.Warn("order event not published", zap.String("order_id", placed.ID), zap.Error(err))
	}
	engine.Clear(ctx)
	s.logger.Info("order placed",
		zap.String("order_id", placed.ID),
		zap.String("customer_id", customer.ID),
		zap.String("total", placed.Total.StringFixed(2)))
	return placed, nil
}

func validateAddress(a domain.ShippingAddress) error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"firstName", a.FirstName},
		{"lastName", a.LastName},
		{"address", a.Address},
		{"city", a.City},
		{"zip", a.Zip},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", domain.ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}
