package seed

import (
	"context"
	"testing"

	"farmisian/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	cat, err := Default()
	require.NoError(t, err)

	assert.Len(t, cat.Categories, 6)
	assert.Len(t, cat.Products, 12)

	apples := cat.Products[0]
	assert.Equal(t, "red-kotgarh-apples", apples.Slug)
	assert.True(t, apples.Price.Equal(decimal.NewFromInt(425)))
	require.NotNil(t, apples.OriginalPrice)
	assert.True(t, apples.OnSale())
	require.NotNil(t, apples.NutritionFacts)
	assert.Equal(t, "52 kcal", apples.NutritionFacts.Calories)

	slugs := map[string]bool{}
	for _, p := range cat.Products {
		assert.False(t, slugs[p.Slug], "duplicate slug %s", p.Slug)
		slugs[p.Slug] = true
		assert.True(t, p.Price.IsPositive(), "price of %s", p.Slug)
	}
}

func TestParseRejectsUnknownCategory(t *testing.T) {
	_, err := Parse([]byte(`
categories:
  - id: fruits
    name: Fruits
products:
  - slug: kale
    name: Kale
    price: "99"
    category: greens
`))
	assert.ErrorContains(t, err, "unknown category")
}

func TestParseRejectsBadPrice(t *testing.T) {
	_, err := Parse([]byte(`
categories:
  - id: fruits
    name: Fruits
products:
  - slug: kiwi
    name: Kiwi
    price: "cheap"
    category: fruits
`))
	assert.Error(t, err)
}

type categoryFunc func(context.Context, domain.Category) (*domain.Category, error)

func (f categoryFunc) Upsert(ctx context.Context, c domain.Category) (*domain.Category, error) {
	return f(ctx, c)
}

type productFunc func(context.Context, domain.Product) (*domain.Product, error)

func (f productFunc) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	return f(ctx, p)
}

func TestApplyWritesCategoriesFirst(t *testing.T) {
	cat, err := Default()
	require.NoError(t, err)

	var order []string
	categories := categoryFunc(func(_ context.Context, c domain.Category) (*domain.Category, error) {
		order = append(order, "c:"+c.ID)
		return &c, nil
	})
	products := productFunc(func(_ context.Context, p domain.Product) (*domain.Product, error) {
		order = append(order, "p:"+p.Slug)
		return &p, nil
	})

	require.NoError(t, Apply(context.Background(), cat, categories, products, nil))
	require.Len(t, order, 18)
	assert.Equal(t, "c:fruits", order[0])
	assert.Equal(t, "p:red-kotgarh-apples", order[6])
}
