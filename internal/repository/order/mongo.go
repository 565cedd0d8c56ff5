package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"farmisian/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "orders"

type itemDoc struct {
	ProductID string               `bson:"product_id"`
	Name      string               `bson:"name"`
	Image     string               `bson:"image,omitempty"`
	UnitPrice primitive.Decimal128 `bson:"unit_price"`
	Quantity  int                  `bson:"quantity"`
}

type addressDoc struct {
	FirstName string `bson:"first_name"`
	LastName  string `bson:"last_name"`
	Address   string `bson:"address"`
	City      string `bson:"city"`
	Zip       string `bson:"zip"`
}

type orderDoc struct {
	ID              string               `bson:"_id"`
	UserID          string               `bson:"user_id"`
	Items           []itemDoc            `bson:"items"`
	Subtotal        primitive.Decimal128 `bson:"subtotal"`
	Shipping        primitive.Decimal128 `bson:"shipping"`
	Tax             primitive.Decimal128 `bson:"tax"`
	Total           primitive.Decimal128 `bson:"total"`
	Status          string               `bson:"status"`
	ShippingAddress addressDoc           `bson:"shipping_address"`
	PaymentMethod   string               `bson:"payment_method"`
	CreatedAt       time.Time            `bson:"created_at"`
	UpdatedAt       time.Time            `bson:"updated_at"`
}

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{collection: db.Collection(collectionName)}
}

func (m *mongoRepository) Create(ctx context.Context, o domain.Order) (*domain.Order, error) {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	doc, err := toDoc(o)
	if err != nil {
		return nil, err
	}
	if _, err := m.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}
	return &o, nil
}

func (m *mongoRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	var doc orderDoc
	err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	o := fromDoc(doc)
	return &o, nil
}

func (m *mongoRepository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return m.find(ctx, bson.M{"user_id": userID})
}

func (m *mongoRepository) ListAll(ctx context.Context) ([]domain.Order, error) {
	return m.find(ctx, bson.M{})
}

func (m *mongoRepository) find(ctx context.Context, filter bson.M) ([]domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	var docs []orderDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	out := make([]domain.Order, 0, len(docs))
	for _, d := range docs {
		out = append(out, fromDoc(d))
	}
	return out, nil
}

func (m *mongoRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	update := bson.M{"$set": bson.M{"status": string(status), "updated_at": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc orderDoc
	err := m.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	o := fromDoc(doc)
	return &o, nil
}

func (m *mongoRepository) Totals(ctx context.Context) (int, decimal.Decimal, error) {
	count, err := m.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, decimal.Zero, fmt.Errorf("failed to count orders: %w", err)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": bson.M{"$ne": string(domain.OrderStatusCancelled)}}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "sales": bson.M{"$sum": "$total"}}}},
	}
	cur, err := m.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, decimal.Zero, fmt.Errorf("failed to sum orders: %w", err)
	}
	var rows []struct {
		Sales primitive.Decimal128 `bson:"sales"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return 0, decimal.Zero, fmt.Errorf("failed to decode order sum: %w", err)
	}
	sales := decimal.Zero
	if len(rows) > 0 {
		sales = fromDecimal128(rows[0].Sales)
	}
	return int(count), sales, nil
}

func (m *mongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}
	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// EnsureIndexes creates the order indexes when repo is Mongo backed.
func EnsureIndexes(ctx context.Context, repo Repository) error {
	if m, ok := repo.(*mongoRepository); ok {
		return m.CreateIndexes(ctx)
	}
	return nil
}

func toDoc(o domain.Order) (orderDoc, error) {
	doc := orderDoc{
		ID:            o.ID,
		UserID:        o.UserID,
		Status:        string(o.Status),
		PaymentMethod: o.PaymentMethod,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.CreatedAt,
		ShippingAddress: addressDoc{
			FirstName: o.ShippingAddress.FirstName,
			LastName:  o.ShippingAddress.LastName,
			Address:   o.ShippingAddress.Address,
			City:      o.ShippingAddress.City,
			Zip:       o.ShippingAddress.Zip,
		},
		Items: make([]itemDoc, 0, len(o.Items)),
	}
	var err error
	for _, money := range []struct {
		dst *primitive.Decimal128
		src decimal.Decimal
	}{
		{&doc.Subtotal, o.Subtotal},
		{&doc.Shipping, o.Shipping},
		{&doc.Tax, o.Tax},
		{&doc.Total, o.Total},
	} {
		if *money.dst, err = toDecimal128(money.src); err != nil {
			return orderDoc{}, err
		}
	}
	for _, it := range o.Items {
		price, err := toDecimal128(it.UnitPrice)
		if err != nil {
			return orderDoc{}, err
		}
		doc.Items = append(doc.Items, itemDoc{
			ProductID: it.ProductID,
			Name:      it.Name,
			Image:     it.Image,
			UnitPrice: price,
			Quantity:  it.Quantity,
		})
	}
	return doc, nil
}

func fromDoc(d orderDoc) domain.Order {
	o := domain.Order{
		ID:            d.ID,
		UserID:        d.UserID,
		Subtotal:      fromDecimal128(d.Subtotal),
		Shipping:      fromDecimal128(d.Shipping),
		Tax:           fromDecimal128(d.Tax),
		Total:         fromDecimal128(d.Total),
		Status:        domain.OrderStatus(d.Status),
		PaymentMethod: d.PaymentMethod,
		CreatedAt:     d.CreatedAt,
		ShippingAddress: domain.ShippingAddress{
			FirstName: d.ShippingAddress.FirstName,
			LastName:  d.ShippingAddress.LastName,
			Address:   d.ShippingAddress.Address,
			City:      d.ShippingAddress.City,
			Zip:       d.ShippingAddress.Zip,
		},
		Items: make([]domain.OrderItem, 0, len(d.Items)),
	}
	for _, it := range d.Items {
		o.Items = append(o.Items, domain.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Image:     it.Image,
			UnitPrice: fromDecimal128(it.UnitPrice),
			Quantity:  it.Quantity,
		})
	}
	return o
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("encode amount %s: %w", d, err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}
