package product

import (
	"context"
	"errors"

	"farmisian/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger}
}

// attributes holds the descriptive fields kept in the jsonb column.
type attributes struct {
	NutritionFacts *domain.NutritionFacts `json:"nutritionFacts,omitempty"`
	Origin         string                 `json:"origin,omitempty"`
	Weight         string                 `json:"weight,omitempty"`
}

const selectColumns = `
SELECT id, slug, name, description, price_cents, original_price_cents, category_id, image, images,
       rating, reviews, in_stock, is_organic, is_bestseller, is_new, tags, attributes, created_at
FROM products`

func (r *postgresRepo) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, selectColumns+` ORDER BY created_at ASC, id ASC`)
	if err != nil {
		r.logger.Warn("product repo: list", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Warn("product repo: list rows", zap.Error(err))
		return nil, err
	}
	r.logger.Debug("product repo: list", zap.Int("count", len(result)))
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, selectColumns+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("product repo: get not found", zap.String("id", id))
			return nil, domain.ErrNotFound
		}
		r.logger.Warn("product repo: get", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	const q = `
INSERT INTO products (id, slug, name, description, price_cents, original_price_cents, category_id, image, images,
                      rating, reviews, in_stock, is_organic, is_bestseller, is_new, tags, attributes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
RETURNING created_at
`
	err := r.pool.QueryRow(ctx, q, writeArgs(p)...).Scan(&p.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Warn("product repo: create", zap.String("slug", p.Slug), zap.Error(err))
		return nil, err
	}
	r.logger.Debug("product repo: created", zap.String("id", p.ID), zap.String("slug", p.Slug))
	return &p, nil
}

func (r *postgresRepo) Update(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
UPDATE products SET slug = $2, name = $3, description = $4, price_cents = $5, original_price_cents = $6,
       category_id = $7, image = $8, images = $9, rating = $10, reviews = $11, in_stock = $12,
       is_organic = $13, is_bestseller = $14, is_new = $15, tags = $16, attributes = $17
WHERE id = $1
RETURNING created_at
`
	err := r.pool.QueryRow(ctx, q, writeArgs(p)...).Scan(&p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Warn("product repo: update", zap.String("id", p.ID), zap.Error(err))
		return nil, err
	}
	return &p, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	const q = `
INSERT INTO products (id, slug, name, description, price_cents, original_price_cents, category_id, image, images,
                      rating, reviews, in_stock, is_organic, is_bestseller, is_new, tags, attributes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
ON CONFLICT (slug) DO UPDATE SET
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    price_cents = EXCLUDED.price_cents,
    original_price_cents = EXCLUDED.original_price_cents,
    category_id = EXCLUDED.category_id,
    image = EXCLUDED.image,
    images = EXCLUDED.images,
    rating = EXCLUDED.rating,
    reviews = EXCLUDED.reviews,
    in_stock = EXCLUDED.in_stock,
    is_organic = EXCLUDED.is_organic,
    is_bestseller = EXCLUDED.is_bestseller,
    is_new = EXCLUDED.is_new,
    tags = EXCLUDED.tags,
    attributes = EXCLUDED.attributes
RETURNING id, created_at
`
	var res domain.Product
	if err := r.pool.QueryRow(ctx, q, writeArgs(p)...).Scan(&res.ID, &res.CreatedAt); err != nil {
		r.logger.Warn("product repo: upsert", zap.String("slug", p.Slug), zap.Error(err))
		return nil, err
	}
	if res.ID != p.ID {
		r.logger.Debug("product repo: upsert kept existing id", zap.String("slug", p.Slug), zap.String("id", res.ID))
	}
	p.ID, p.CreatedAt = res.ID, res.CreatedAt
	return &p, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		r.logger.Warn("product repo: delete", zap.String("id", id), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM products`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p             domain.Product
		priceCents    int64
		originalCents *int64
		attrs         attributes
	)
	err := row.Scan(&p.ID, &p.Slug, &p.Name, &p.Description, &priceCents, &originalCents, &p.Category, &p.Image, &p.Images,
		&p.Rating, &p.Reviews, &p.InStock, &p.IsOrganic, &p.IsBestseller, &p.IsNew, &p.Tags, &attrs, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.Price = FromCents(priceCents)
	if originalCents != nil {
		op := FromCents(*originalCents)
		p.OriginalPrice = &op
	}
	p.NutritionFacts = attrs.NutritionFacts
	p.Origin = attrs.Origin
	p.Weight = attrs.Weight
	return &p, nil
}

func writeArgs(p domain.Product) []any {
	var original *int64
	if p.OriginalPrice != nil {
		c := ToCents(*p.OriginalPrice)
		original = &c
	}
	images, tags := p.Images, p.Tags
	if images == nil {
		images = []string{}
	}
	if tags == nil {
		tags = []string{}
	}
	return []any{
		p.ID, p.Slug, p.Name, p.Description, ToCents(p.Price), original, p.Category, p.Image, images,
		p.Rating, p.Reviews, p.InStock, p.IsOrganic, p.IsBestseller, p.IsNew, tags,
		attributes{NutritionFacts: p.NutritionFacts, Origin: p.Origin, Weight: p.Weight},
	}
}

// ToCents converts a rupee amount to integer paise, rounding half away from zero.
func ToCents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

// FromCents converts integer paise to a rupee amount.
func FromCents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}
