package category

import (
	"context"

	"farmisian/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Category, error) {
	const q = `
SELECT c.id, c.name, c.icon, c.image, count(p.id), c.created_at
FROM categories c
LEFT JOIN products p ON p.category_id = c.id
GROUP BY c.id
ORDER BY c.created_at ASC, c.id ASC
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.Image, &c.ProductCount, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, c domain.Category) (*domain.Category, error) {
	const q = `
INSERT INTO categories (id, name, icon, image)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name,
    icon = COALESCE(NULLIF(EXCLUDED.icon, ''), categories.icon),
    image = COALESCE(NULLIF(EXCLUDED.image, ''), categories.image)
RETURNING icon, image, created_at
`
	out := domain.Category{ID: c.ID, Name: c.Name}
	err := r.pool.QueryRow(ctx, q, c.ID, c.Name, c.Icon, c.Image).Scan(&out.Icon, &out.Image, &out.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
