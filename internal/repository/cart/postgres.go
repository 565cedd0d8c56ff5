package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"farmisian/internal/cart"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
	ttl  time.Duration
	now  func() time.Time
}

// NewPostgres returns a cart repository. Carts idle longer than ttl read as
// missing; a zero ttl keeps them forever.
func NewPostgres(pool *pgxpool.Pool, ttl time.Duration) Repository {
	return &postgresRepo{pool: pool, ttl: ttl, now: time.Now}
}

func (r *postgresRepo) Load(ctx context.Context, sessionID string) ([]byte, error) {
	const q = `
SELECT payload, updated_at
FROM carts
WHERE session_id = $1
`
	var (
		payload   []byte
		updatedAt time.Time
	)
	if err := r.pool.QueryRow(ctx, q, sessionID).Scan(&payload, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNotFound
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if r.ttl > 0 && updatedAt.Before(r.now().Add(-r.ttl)) {
		return nil, cart.ErrNotFound
	}
	return payload, nil
}

func (r *postgresRepo) Save(ctx context.Context, sessionID string, data []byte) error {
	const q = `
INSERT INTO carts (session_id, payload, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (session_id) DO UPDATE
SET payload = EXCLUDED.payload,
    updated_at = EXCLUDED.updated_at
`
	if _, err := r.pool.Exec(ctx, q, sessionID, data, r.now().UTC()); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (r *postgresRepo) DeleteStale(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM carts WHERE updated_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("delete stale carts: %w", err)
	}
	return tag.RowsAffected(), nil
}
