package product

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"farmisian/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type productRepo interface {
	List(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, p domain.Product) (*domain.Product, error)
	Update(ctx context.Context, p domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// Sort orders a product listing.
type Sort string

const (
	SortFeatured  Sort = "featured"
	SortPriceLow  Sort = "price-low"
	SortPriceHigh Sort = "price-high"
	SortRating    Sort = "rating"
	SortNewest    Sort = "newest"
)

// Filter narrows a listing. Zero values mean "no constraint".
type Filter struct {
	Query       string
	Categories  []string
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	OrganicOnly bool
	OnSaleOnly  bool
	Sort        Sort
}

type Service struct {
	repo   productRepo
	logger *zap.Logger
	group  singleflight.Group
}

func New(repo productRepo, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}
}

// List returns the products matching f in the requested order.
func (s *Service) List(ctx context.Context, f Filter) ([]domain.Product, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(all))
	for _, p := range all {
		if f.matches(p) {
			out = append(out, p)
		}
	}
	sortProducts(out, f.Sort)
	return out, nil
}

// Get looks a product up by id. Concurrent lookups of the same id share one
// repository call.
func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	v, err, shared := s.group.Do(id, func() (any, error) {
		return s.repo.GetByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug("product lookup shared", zap.String("id", id))
	}
	p := *v.(*domain.Product)
	return &p, nil
}

func (s *Service) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if err := prepare(&p); err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	s.logger.Info("product created", zap.String("id", created.ID), zap.String("slug", created.Slug))
	return created, nil
}

func (s *Service) Update(ctx context.Context, id string, p domain.Product) (*domain.Product, error) {
	p.ID = id
	if err := prepare(&p); err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, p)
	if err != nil {
		return nil, err
	}
	s.group.Forget(id)
	s.logger.Info("product updated", zap.String("id", id))
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.group.Forget(id)
	s.logger.Info("product deleted", zap.String("id", id))
	return nil
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// ParseSort maps a query value to a Sort, defaulting to featured.
func ParseSort(v string) Sort {
	switch s := Sort(strings.ToLower(strings.TrimSpace(v))); s {
	case SortPriceLow, SortPriceHigh, SortRating, SortNewest:
		return s
	}
	return SortFeatured
}

func (f Filter) matches(p domain.Product) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" && !matchesQuery(p, q) {
		return false
	}
	if len(f.Categories) > 0 && !containsFold(f.Categories, p.Category) {
		return false
	}
	if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	if f.OrganicOnly && !p.IsOrganic {
		return false
	}
	if f.OnSaleOnly && !p.OnSale() {
		return false
	}
	return true
}

func matchesQuery(p domain.Product, q string) bool {
	if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Description), q) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

func containsFold(values []string, v string) bool {
	for _, c := range values {
		if strings.EqualFold(c, v) {
			return true
		}
	}
	return false
}

func sortProducts(ps []domain.Product, by Sort) {
	var less func(a, b domain.Product) bool
	switch by {
	case SortPriceLow:
		less = func(a, b domain.Product) bool { return a.Price.LessThan(b.Price) }
	case SortPriceHigh:
		less = func(a, b domain.Product) bool { return a.Price.GreaterThan(b.Price) }
	case SortRating:
		less = func(a, b domain.Product) bool { return a.Rating > b.Rating }
	case SortNewest:
		less = func(a, b domain.Product) bool {
			if a.IsNew != b.IsNew {
				return a.IsNew
			}
			return a.CreatedAt.After(b.CreatedAt)
		}
	default:
		less = func(a, b domain.Product) bool { return a.IsBestseller && !b.IsBestseller }
	}
	sort.SliceStable(ps, func(i, j int) bool { return less(ps[i], ps[j]) })
}

// prepare validates an admin write and fills derived fields.
func prepare(p *domain.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Category = strings.TrimSpace(p.Category)
	switch {
	case p.Name == "":
		return fmt.Errorf("%w: name required", domain.ErrValidation)
	case !p.Price.IsPositive():
		return fmt.Errorf("%w: price must be positive", domain.ErrValidation)
	case p.Category == "":
		return fmt.Errorf("%w: category required", domain.ErrValidation)
	case p.OriginalPrice != nil && p.OriginalPrice.IsNegative():
		return fmt.Errorf("%w: original price must not be negative", domain.ErrValidation)
	}
	if p.Rating < 0 || p.Rating > 5 {
		return fmt.Errorf("%w: rating must be between 0 and 5", domain.ErrValidation)
	}
	if strings.TrimSpace(p.Slug) == "" {
		p.Slug = Slugify(p.Name)
	}
	return nil
}

// Slugify lower-cases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
