package product

import (
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

const (
	DefaultServingSize  = "2 tsp per cup"
	DefaultWaterTemp    = "100°C"
	DefaultSteepingTime = "3-5 minutes"
	DefaultColor        = "#8B4513"
	UnknownCountry      = "Unknown"
)

type BrewingView struct {
	ServingSize    string `json:"servingSize"`
	WaterTemp      string `json:"waterTemp"`
	SteepingTime   string `json:"steepingTime"`
	ColorAfter3Min string `json:"colorAfter3Min"`
}

type VariantView struct {
	ID     uuid.UUID `json:"id"`
	Weight string    `json:"weight"`
	Price  float64   `json:"price"`
	Stock  int       `json:"stock"`
}

// View is the flattened product shape served to clients.
type View struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	Slug        string        `json:"slug"`
	Category    string        `json:"category"`
	Origin      []string      `json:"origin"`
	Flavor      []string      `json:"flavor"`
	Caffeine    string        `json:"caffeine"`
	Organic     bool          `json:"organic"`
	Vegan       bool          `json:"vegan"`
	Price       float64       `json:"price"`
	Image       string        `json:"image"`
	Description string        `json:"description"`
	Allergens   []string      `json:"allergens"`
	Qualities   []string      `json:"qualities"`
	Ingredients string        `json:"ingredients"`
	Brewing     BrewingView   `json:"brewing"`
	Variants    []VariantView `json:"variants"`
}

// Adapt reshapes a stored product into its client view.
func Adapt(p Product) View {
	variants := make([]VariantView, 0, len(p.Variants))
	for _, v := range p.Variants {
		variants = append(variants, VariantView{
			ID:     v.ID,
			Weight: v.Weight,
			Price:  v.Price.InexactFloat64(),
			Stock:  v.Stock,
		})
	}

	return View{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Category:    p.Category,
		Origin:      flattenOrigin(p.Origin),
		Flavor:      nonNil(p.Flavor),
		Caffeine:    p.Caffeine,
		Organic:     p.Organic,
		Vegan:       p.Vegan,
		Price:       MinPrice(p.Variants).InexactFloat64(),
		Image:       p.ImageURL,
		Description: p.Description,
		Allergens:   nonNil(p.Allergens),
		Qualities:   nonNil(p.Qualities),
		Ingredients: p.Ingredients,
		Brewing: BrewingView{
			ServingSize:    orDefault(p.BrewingInfo.Amount, DefaultServingSize),
			WaterTemp:      orDefault(p.BrewingInfo.Temperature, DefaultWaterTemp),
			SteepingTime:   orDefault(p.BrewingInfo.Time, DefaultSteepingTime),
			ColorAfter3Min: DefaultColor,
		},
		Variants: variants,
	}
}

func AdaptAll(products []Product) []View {
	views := make([]View, 0, len(products))
	for _, p := range products {
		views = append(views, Adapt(p))
	}
	return views
}

// MinPrice returns the cheapest variant price, or zero when there are no variants.
func MinPrice(variants []Variant) decimal.Decimal {
	if len(variants) == 0 {
		return decimal.Zero
	}
	minPrice := variants[0].Price
	for _, v := range variants[1:] {
		if v.Price.LessThan(minPrice) {
			minPrice = v.Price
		}
	}
	return minPrice
}

func flattenOrigin(o Origin) []string {
	origin := make([]string, 0, 2)
	for _, part := range []string{o.Country, o.Region} {
		if part != "" {
			origin = append(origin, part)
		}
	}
	return origin
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
