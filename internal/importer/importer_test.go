package importer

import (
	"context"
	"strings"
	"testing"

	"farmisian/internal/domain"
	"github.com/shopspring/decimal"
)

type stubProductRepo struct {
	items []domain.Product
}

type stubCategoryRepo struct {
	items []domain.Category
}

func (s *stubProductRepo) Upsert(_ context.Context, p domain.Product) (*domain.Product, error) {
	s.items = append(s.items, p)
	return &p, nil
}

func (s *stubCategoryRepo) Upsert(_ context.Context, c domain.Category) (*domain.Category, error) {
	s.items = append(s.items, c)
	return &c, nil
}

func TestCSVImporter_RunProducts(t *testing.T) {
	csvData := `id,slug,name,description,price,originalPrice,category,image,images,rating,reviews,inStock,isOrganic,isBestseller,tags,origin,weight
1,,Red Kotgarh Apples,Crisp apples,425,595,Fruits,https://example.com/apple.jpg,https://example.com/a1.jpg,4.8,124,true,true,true,organic;fresh,Shimla,1 kg
,,,,,,,https://example.com/a2.jpg,,,,,,,,,
2,greek-yogurt,Greek Yogurt,Thick and creamy,510,,dairy,https://example.com/yogurt.jpg,,4.6,54,false,false,,,,`

	repo := &stubProductRepo{}
	imp := NewCSVImporter(strings.NewReader(csvData), repo, nil, nil)

	count, err := imp.Run(context.Background())
	if err != nil {
		t.Fatalf("import run: %v", err)
	}
	if count != 2 || len(repo.items) != 2 {
		t.Fatalf("expected 2 products imported, got %d (%d saved)", count, len(repo.items))
	}

	apples := repo.items[0]
	if apples.Slug != "red-kotgarh-apples" || apples.Category != "fruits" || apples.ID != "1" {
		t.Fatalf("unexpected product data: %+v", apples)
	}
	if !apples.Price.Equal(decimal.NewFromInt(425)) || apples.OriginalPrice == nil || !apples.OnSale() {
		t.Fatalf("unexpected prices: %+v", apples)
	}
	if len(apples.Images) != 2 {
		t.Fatalf("expected continuation image appended, got %v", apples.Images)
	}
	if len(apples.Tags) != 2 || !apples.IsBestseller || apples.Origin != "Shimla" {
		t.Fatalf("unexpected attributes: %+v", apples)
	}

	yogurt := repo.items[1]
	if yogurt.Slug != "greek-yogurt" || yogurt.InStock || yogurt.OriginalPrice != nil {
		t.Fatalf("unexpected second product: %+v", yogurt)
	}
}

func TestCSVImporter_RejectsBadRows(t *testing.T) {
	cases := map[string]string{
		"bad price":      "name,price,category\nKiwi,cheap,fruits",
		"missing cat":    "name,price,category\nKiwi,10,",
		"bad flag":       "name,price,category,isOrganic\nKiwi,10,fruits,maybe",
		"zero price row": "name,price,category\nKiwi,0,fruits",
	}
	for name, data := range cases {
		imp := NewCSVImporter(strings.NewReader(data), &stubProductRepo{}, nil, nil)
		if _, err := imp.Run(context.Background()); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestCSVImporter_RunCategories(t *testing.T) {
	csvData := `id,name,icon,image
Fruits,Fresh Fruits,🍎,https://example.com/fruits.jpg
,Dairy & Eggs,🥛,
dry-fruits,,🥜,
,,,
`
	catRepo := &stubCategoryRepo{}
	imp := NewCSVImporter(strings.NewReader(csvData), nil, catRepo, nil)

	count, err := imp.Run(context.Background())
	if err != nil {
		t.Fatalf("import run: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 categories imported, got %d", count)
	}
	if catRepo.items[0].ID != "fruits" || catRepo.items[0].Icon != "🍎" {
		t.Fatalf("unexpected first category %+v", catRepo.items[0])
	}
	if catRepo.items[1].ID != "dairy-eggs" {
		t.Fatalf("expected id derived from name, got %+v", catRepo.items[1])
	}
	if catRepo.items[2].Name != "Dry Fruits" {
		t.Fatalf("expected title-cased name, got %+v", catRepo.items[2])
	}
}

func TestDetectKind(t *testing.T) {
	kind, err := DetectKind(strings.NewReader("id,name,price,category\n1,Kiwi,10,fruits"))
	if err != nil || kind != KindProducts {
		t.Fatalf("expected product kind, got %s, %v", kind, err)
	}
	kind, err = DetectKind(strings.NewReader("id,name,icon\nfruits,Fruits,🍎"))
	if err != nil || kind != KindCategories {
		t.Fatalf("expected category kind, got %s, %v", kind, err)
	}
	if _, err := DetectKind(strings.NewReader("foo,bar\n1,2")); err == nil {
		t.Fatalf("expected error for unknown header")
	}
}
