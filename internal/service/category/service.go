package category

import (
	"context"
	"fmt"
	"strings"

	"farmisian/internal/domain"
	"farmisian/internal/repository/category"
)

type Service struct {
	repo category.Repository
}

func New(repo category.Repository) *Service {
	return &Service{repo: repo}
}

// List returns categories with their product counts.
func (s *Service) List(ctx context.Context) ([]domain.Category, error) {
	return s.repo.List(ctx)
}

func (s *Service) Upsert(ctx context.Context, c domain.Category) (*domain.Category, error) {
	c.ID = strings.ToLower(strings.TrimSpace(c.ID))
	c.Name = strings.TrimSpace(c.Name)
	if c.ID == "" || c.Name == "" {
		return nil, fmt.Errorf("%w: category id and name required", domain.ErrValidation)
	}
	return s.repo.Upsert(ctx, c)
}
