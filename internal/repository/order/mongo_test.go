package order

import (
	"context"
	"os"
	"testing"
	"time"

	"farmisian/internal/docstore"
	"farmisian/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecimalRoundTrip(t *testing.T) {
	for _, s := range []string{"0", "1190.00", "95.2", "123456789.99"} {
		d := decimal.RequireFromString(s)
		v, err := toDecimal128(d)
		require.NoError(t, err)
		assert.True(t, fromDecimal128(v).Equal(d), "round trip of %s", s)
	}
}

func TestDocConversionKeepsFields(t *testing.T) {
	o := sampleOrder("user-1", time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC))
	o.ID = "order-1"
	doc, err := toDoc(o)
	require.NoError(t, err)

	back := fromDoc(doc)
	assert.Equal(t, o.ID, back.ID)
	assert.Equal(t, o.ShippingAddress, back.ShippingAddress)
	assert.True(t, back.Total.Equal(o.Total))
	require.Len(t, back.Items, 1)
	assert.True(t, back.Items[0].UnitPrice.Equal(o.Items[0].UnitPrice))
}

func setupTestDB(t *testing.T) Repository {
	t.Helper()
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	client, err := docstore.Connect(ctx, uri)
	require.NoError(t, err)

	db := client.Database("farmisian_test_" + uuid.NewString()[:8])
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	repo := NewMongoRepository(db)
	require.NoError(t, EnsureIndexes(ctx, repo))
	return repo
}

func sampleOrder(userID string, at time.Time) domain.Order {
	return domain.Order{
		UserID: userID,
		Items: []domain.OrderItem{
			{ProductID: "1", Name: "Strawberries", UnitPrice: decimal.RequireFromString("299"), Quantity: 2},
		},
		Subtotal:        decimal.RequireFromString("598"),
		Shipping:        decimal.RequireFromString("100"),
		Tax:             decimal.RequireFromString("47.84"),
		Total:           decimal.RequireFromString("745.84"),
		Status:          domain.OrderStatusProcessing,
		ShippingAddress: domain.ShippingAddress{FirstName: "Asha", LastName: "Rao", Address: "12 MG Road", City: "Pune", Zip: "411001"},
		PaymentMethod:   "cod",
		CreatedAt:       at,
	}
}

func TestMongo_CreateAndList(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	first, err := repo.Create(ctx, sampleOrder("u1", base))
	require.NoError(t, err)
	second, err := repo.Create(ctx, sampleOrder("u1", base.Add(time.Minute)))
	require.NoError(t, err)
	_, err = repo.Create(ctx, sampleOrder("u2", base))
	require.NoError(t, err)

	list, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	got, err := repo.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, got.Tax.Equal(decimal.RequireFromString("47.84")))

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMongo_UpdateStatusAndTotals(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	a, err := repo.Create(ctx, sampleOrder("u1", time.Now().UTC()))
	require.NoError(t, err)
	_, err = repo.Create(ctx, sampleOrder("u1", time.Now().UTC()))
	require.NoError(t, err)

	updated, err := repo.UpdateStatus(ctx, a.ID, domain.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, updated.Status)

	_, err = repo.UpdateStatus(ctx, "missing", domain.OrderStatusShipped)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	count, sales, err := repo.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.True(t, sales.Equal(decimal.RequireFromString("745.84")), "sales = %s", sales)
}
