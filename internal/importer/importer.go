package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"farmisian/internal/domain"
	"farmisian/internal/logging"
	productsvc "farmisian/internal/service/product"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Kind tells which entity a CSV file holds.
type Kind string

const (
	KindProducts   Kind = "products"
	KindCategories Kind = "categories"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

type CategoryWriter interface {
	Upsert(ctx context.Context, c domain.Category) (*domain.Category, error)
}

// CSVImporter reads storefront CSV exports and inserts or updates rows.
type CSVImporter struct {
	reader     *csv.Reader
	products   ProductWriter
	categories CategoryWriter
	logger     *zap.Logger
}

func NewCSVImporter(r io.Reader, products ProductWriter, categories CategoryWriter, logger *zap.Logger) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{reader: csvr, products: products, categories: categories, logger: logging.OrNop(logger)}
}

// DetectKind peeks at the header row. A file with a price column holds
// products, one with an icon column holds categories.
func DetectKind(r io.Reader) (Kind, error) {
	headers, err := csv.NewReader(r).Read()
	if err != nil {
		return "", fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["price"]; ok {
		return KindProducts, nil
	}
	if _, ok := index["icon"]; ok {
		return KindCategories, nil
	}
	return "", errors.New("unrecognised csv header")
}

// Run imports every row and returns the number of saved entities.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["price"]; ok {
		return i.runProducts(ctx, index)
	}
	if _, ok := index["icon"]; ok {
		return i.runCategories(ctx, index)
	}
	return 0, errors.New("unrecognised csv header")
}

func (i *CSVImporter) runProducts(ctx context.Context, index map[string]int) (int, error) {
	if i.products == nil {
		return 0, errors.New("product writer unavailable")
	}
	var (
		current  *domain.Product
		imported int
		line     = 1
	)
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		line++

		name := pick(record, index, "name")
		image := pick(record, index, "image")
		if name == "" {
			// Continuation rows carry extra gallery images for the current product.
			if current != nil && image != "" {
				current.Images = append(current.Images, image)
			}
			continue
		}

		if current != nil {
			if err := i.saveProduct(ctx, current); err != nil {
				return imported, err
			}
			imported++
		}
		current, err = parseProduct(record, index)
		if err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if current != nil {
		if err := i.saveProduct(ctx, current); err != nil {
			return imported, err
		}
		imported++
	}
	i.logger.Info("products imported", zap.Int("count", imported))
	return imported, nil
}

func (i *CSVImporter) saveProduct(ctx context.Context, p *domain.Product) error {
	if p.Name == "" || p.Category == "" || !p.Price.IsPositive() {
		return fmt.Errorf("invalid product row (missing required fields) for %q", p.Name)
	}
	if p.Slug == "" {
		p.Slug = productsvc.Slugify(p.Name)
	}
	if _, err := i.products.Upsert(ctx, *p); err != nil {
		return fmt.Errorf("upsert product %q: %w", p.Slug, err)
	}
	return nil
}

func (i *CSVImporter) runCategories(ctx context.Context, index map[string]int) (int, error) {
	if i.categories == nil {
		return 0, errors.New("category writer unavailable")
	}
	imported := 0
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		c := domain.Category{
			ID:    strings.ToLower(pick(record, index, "id")),
			Name:  pick(record, index, "name"),
			Icon:  pick(record, index, "icon"),
			Image: pick(record, index, "image"),
		}
		if c.ID == "" && c.Name == "" {
			continue
		}
		if c.ID == "" {
			c.ID = productsvc.Slugify(c.Name)
		}
		if c.Name == "" {
			c.Name = titleCase(c.ID)
		}
		if _, err := i.categories.Upsert(ctx, c); err != nil {
			return imported, fmt.Errorf("upsert category %q: %w", c.ID, err)
		}
		imported++
	}
	i.logger.Info("categories imported", zap.Int("count", imported))
	return imported, nil
}

func parseProduct(record []string, index map[string]int) (*domain.Product, error) {
	p := &domain.Product{
		ID:          pick(record, index, "id"),
		Slug:        pick(record, index, "slug"),
		Name:        pick(record, index, "name"),
		Description: pick(record, index, "description"),
		Category:    strings.ToLower(pick(record, index, "category")),
		Image:       pick(record, index, "image"),
		Images:      splitList(pick(record, index, "images")),
		Tags:        splitList(pick(record, index, "tags")),
		Origin:      pick(record, index, "origin"),
		Weight:      pick(record, index, "weight"),
		InStock:     true,
	}

	price, err := decimal.NewFromString(pick(record, index, "price"))
	if err != nil {
		return nil, fmt.Errorf("price for %q: %w", p.Name, err)
	}
	p.Price = price
	if v := pick(record, index, "originalPrice"); v != "" {
		op, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("original price for %q: %w", p.Name, err)
		}
		p.OriginalPrice = &op
	}
	if v := pick(record, index, "rating"); v != "" {
		if p.Rating, err = strconv.ParseFloat(v, 64); err != nil {
			return nil, fmt.Errorf("rating for %q: %w", p.Name, err)
		}
	}
	if v := pick(record, index, "reviews"); v != "" {
		if p.Reviews, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("reviews for %q: %w", p.Name, err)
		}
	}
	for col, dst := range map[string]*bool{
		"inStock":      &p.InStock,
		"isOrganic":    &p.IsOrganic,
		"isBestseller": &p.IsBestseller,
		"isNew":        &p.IsNew,
	} {
		if v := pick(record, index, col); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("%s for %q: %w", col, p.Name, err)
			}
			*dst = b
		}
	}
	return p, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}

// splitList splits a semicolon separated cell.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func titleCase(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '_' || r == ' ' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
