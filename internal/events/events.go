package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"farmisian/internal/domain"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const TypeOrderPlaced = "order.placed"

// OrderPlaced is published once the order sink accepted an order.
type OrderPlaced struct {
	Type      string    `json:"type"`
	OrderID   string    `json:"orderId"`
	UserID    string    `json:"userId"`
	Total     string    `json:"total"`
	ItemCount int       `json:"itemCount"`
	PlacedAt  time.Time `json:"placedAt"`
}

func NewOrderPlaced(o domain.Order) OrderPlaced {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return OrderPlaced{
		Type:      TypeOrderPlaced,
		OrderID:   o.ID,
		UserID:    o.UserID,
		Total:     o.Total.StringFixed(2),
		ItemCount: n,
		PlacedAt:  o.CreatedAt,
	}
}

type Publisher interface {
	PublishOrderPlaced(ctx context.Context, o domain.Order) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events keyed by order id.
type KafkaPublisher struct {
	writer messageWriter
	logger *zap.Logger
}

func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		RequiredAcks:           kafka.RequireOne,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return newKafkaPublisher(w, logger)
}

func newKafkaPublisher(w messageWriter, logger *zap.Logger) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaPublisher{writer: w, logger: logger}
}

func (p *KafkaPublisher) PublishOrderPlaced(ctx context.Context, o domain.Order) error {
	body, err := json.Marshal(NewOrderPlaced(o))
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(o.ID),
		Value: body,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(TypeOrderPlaced)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", TypeOrderPlaced, err)
	}
	p.logger.Debug("event published", zap.String("type", TypeOrderPlaced), zap.String("order_id", o.ID))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Nop drops every event. It is used when no brokers are configured.
type Nop struct{}

func (Nop) PublishOrderPlaced(context.Context, domain.Order) error { return nil }
func (Nop) Close() error { return nil }

// New returns a Kafka publisher, or Nop when brokers is empty.
func New(brokers []string, topic string, logger *zap.Logger) Publisher {
	if len(brokers) == 0 || topic == "" {
		return Nop{}
	}
	return NewKafkaPublisher(brokers, topic, logger)
}
