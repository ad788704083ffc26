package product

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

type Origin struct {
	Country string `json:"country"`
	Region  string `json:"region"`
}

type BrewingInfo struct {
	Amount      string `json:"amount"`
	Temperature string `json:"temperature"`
	Time        string `json:"time"`
}

// Variant is a purchasable size of a product with its own price and stock.
type Variant struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"productId"`
	Weight    string          `json:"weight"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
}

type Product struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Slug        string      `json:"slug"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Origin      Origin      `json:"origin"`
	Flavor      []string    `json:"flavor"`
	Caffeine    string      `json:"caffeine"`
	Organic     bool        `json:"organic"`
	Vegan       bool        `json:"vegan"`
	Allergens   []string    `json:"allergens"`
	Qualities   []string    `json:"qualities"`
	Ingredients string      `json:"ingredients"`
	ImageURL    string      `json:"imageUrl"`
	BrewingInfo BrewingInfo `json:"brewingInfo"`
	Variants    []Variant   `json:"variants"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

type VariantInput struct {
	Weight string
	Price  decimal.Decimal
	Stock  int
}

// Input carries the admin-editable fields of a product. Origin is [country, region].
type Input struct {
	Name        string
	Slug        string
	Description string
	Category    string
	Origin      []string
	Flavor      []string
	Caffeine    string
	Organic     bool
	Vegan       bool
	Allergens   []string
	Qualities   []string
	Ingredients string
	ImageURL    string
	BrewingInfo *BrewingInfo
	Variants    []VariantInput
}
