package cart

import (
	"context"
	"time"
)

// Repository keeps serialized carts in Postgres. It satisfies cart.Store
// and is used when redis is not the configured cart backend.
type Repository interface {
	Load(ctx context.Context, sessionID string) ([]byte, error)
	Save(ctx context.Context, sessionID string, data []byte) error
	// DeleteStale drops carts not written since before.
	DeleteStale(ctx context.Context, before time.Time) (int64, error)
}
