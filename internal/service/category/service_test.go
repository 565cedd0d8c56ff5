package category

import (
	"context"
	"errors"
	"testing"

	"farmisian/internal/domain"
)

type stubRepo struct {
	upserted []domain.Category
}

func (s *stubRepo) List(_ context.Context) ([]domain.Category, error) {
	return s.upserted, nil
}

func (s *stubRepo) Upsert(_ context.Context, c domain.Category) (*domain.Category, error) {
	s.upserted = append(s.upserted, c)
	return &c, nil
}

func TestUpsertNormalizesID(t *testing.T) {
	repo := &stubRepo{}
	svc := New(repo)

	got, err := svc.Upsert(context.Background(), domain.Category{ID: " Fruits ", Name: " Fresh Fruits "})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if got.ID != "fruits" || got.Name != "Fresh Fruits" {
		t.Fatalf("unexpected category %+v", got)
	}
	if _, err := svc.Upsert(context.Background(), domain.Category{ID: "x"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	list, _ := svc.List(context.Background())
	if len(list) != 1 {
		t.Fatalf("expected one stored category, got %d", len(list))
	}
}
