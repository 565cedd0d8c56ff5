package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type NutritionFacts struct {
	Calories string `json:"calories,omitempty"`
	Protein  string `json:"protein,omitempty"`
	Carbs    string `json:"carbs,omitempty"`
	Fat      string `json:"fat,omitempty"`
	Fiber    string `json:"fiber,omitempty"`
}

type Product struct {
	ID             string           `json:"id"`
	Slug           string           `json:"slug"`
	Name           string           `json:"name"`
	Description    string           `json:"description,omitempty"`
	Price          decimal.Decimal  `json:"price"`
	OriginalPrice  *decimal.Decimal `json:"originalPrice,omitempty"`
	Category       string           `json:"category"`
	Image          string           `json:"image"`
	Images         []string         `json:"images,omitempty"`
	Rating         float64          `json:"rating"`
	Reviews        int              `json:"reviews"`
	InStock        bool             `json:"inStock"`
	IsOrganic      bool             `json:"isOrganic"`
	IsBestseller   bool             `json:"isBestseller,omitempty"`
	IsNew          bool             `json:"isNew,omitempty"`
	Tags           []string         `json:"tags,omitempty"`
	NutritionFacts *NutritionFacts  `json:"nutritionFacts,omitempty"`
	Origin         string           `json:"origin,omitempty"`
	Weight         string           `json:"weight,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
}

// OnSale reports whether the product carries a struck-through original price.
func (p Product) OnSale() bool {
	return p.OriginalPrice != nil && p.OriginalPrice.GreaterThan(p.Price)
}
