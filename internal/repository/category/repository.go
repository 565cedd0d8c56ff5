package category

import (
	"context"

	"farmisian/internal/domain"
)

type Repository interface {
	// List returns every category with its live product count.
	List(ctx context.Context) ([]domain.Category, error)
	Upsert(ctx context.Context, c domain.Category) (*domain.Category, error)
}
