package seed

import (
	"context"
	_ "embed"
	"fmt"

	"farmisian/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

type categorySeed struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Icon  string `yaml:"icon"`
	Image string `yaml:"image"`
}

type productSeed struct {
	ID             string                 `yaml:"id"`
	Slug           string                 `yaml:"slug"`
	Name           string                 `yaml:"name"`
	Description    string                 `yaml:"description"`
	Price          string                 `yaml:"price"`
	OriginalPrice  string                 `yaml:"originalPrice"`
	Category       string                 `yaml:"category"`
	Image          string                 `yaml:"image"`
	Images         []string               `yaml:"images"`
	Rating         float64                `yaml:"rating"`
	Reviews        int                    `yaml:"reviews"`
	InStock        bool                   `yaml:"inStock"`
	IsOrganic      bool                   `yaml:"isOrganic"`
	IsBestseller   bool                   `yaml:"isBestseller"`
	IsNew          bool                   `yaml:"isNew"`
	Tags           []string               `yaml:"tags"`
	NutritionFacts *domain.NutritionFacts `yaml:"nutritionFacts"`
	Origin         string                 `yaml:"origin"`
	Weight         string                 `yaml:"weight"`
}

// Catalog is the parsed seed file.
type Catalog struct {
	Categories []domain.Category
	Products   []domain.Product
}

type categoryWriter interface {
	Upsert(ctx context.Context, c domain.Category) (*domain.Category, error)
}

type productWriter interface {
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
}

// Default returns the embedded storefront catalog.
func Default() (Catalog, error) {
	return Parse(catalogYAML)
}

// Parse decodes a YAML catalog. Products must reference a declared category.
func Parse(data []byte) (Catalog, error) {
	var raw struct {
		Categories []categorySeed `yaml:"categories"`
		Products   []productSeed  `yaml:"products"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Catalog{}, fmt.Errorf("decode catalog: %w", err)
	}

	var out Catalog
	known := make(map[string]bool, len(raw.Categories))
	for _, c := range raw.Categories {
		if c.ID == "" || c.Name == "" {
			return Catalog{}, fmt.Errorf("category %q: id and name required", c.ID)
		}
		known[c.ID] = true
		out.Categories = append(out.Categories, domain.Category{ID: c.ID, Name: c.Name, Icon: c.Icon, Image: c.Image})
	}
	for _, p := range raw.Products {
		if !known[p.Category] {
			return Catalog{}, fmt.Errorf("product %q: unknown category %q", p.Slug, p.Category)
		}
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return Catalog{}, fmt.Errorf("product %q: price: %w", p.Slug, err)
		}
		prod := domain.Product{
			ID:             p.ID,
			Slug:           p.Slug,
			Name:           p.Name,
			Description:    p.Description,
			Price:          price,
			Category:       p.Category,
			Image:          p.Image,
			Images:         p.Images,
			Rating:         p.Rating,
			Reviews:        p.Reviews,
			InStock:        p.InStock,
			IsOrganic:      p.IsOrganic,
			IsBestseller:   p.IsBestseller,
			IsNew:          p.IsNew,
			Tags:           p.Tags,
			NutritionFacts: p.NutritionFacts,
			Origin:         p.Origin,
			Weight:         p.Weight,
		}
		if p.OriginalPrice != "" {
			op, err := decimal.NewFromString(p.OriginalPrice)
			if err != nil {
				return Catalog{}, fmt.Errorf("product %q: original price: %w", p.Slug, err)
			}
			prod.OriginalPrice = &op
		}
		out.Products = append(out.Products, prod)
	}
	return out, nil
}

// Apply writes the catalog. It is idempotent: categories upsert by id and
// products by slug.
func Apply(ctx context.Context, cat Catalog, categories categoryWriter, products productWriter, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, c := range cat.Categories {
		if _, err := categories.Upsert(ctx, c); err != nil {
			return fmt.Errorf("upsert category %s: %w", c.ID, err)
		}
	}
	for _, p := range cat.Products {
		if _, err := products.Upsert(ctx, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Slug, err)
		}
	}
	logger.Info("catalog seeded", zap.Int("categories", len(cat.Categories)), zap.Int("products", len(cat.Products)))
	return nil
}
