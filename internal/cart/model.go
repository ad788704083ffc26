package cart

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

type ProductSummary struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Slug     string    `json:"slug"`
	Category string    `json:"category"`
	ImageURL string    `json:"image"`
}

type VariantSummary struct {
	ID     uuid.UUID       `json:"id"`
	Weight string          `json:"weight"`
	Price  decimal.Decimal `json:"price"`
	Stock  int             `json:"stock"`
}

// Line is one (product, variant) entry of a user's cart.
type Line struct {
	ID        uuid.UUID      `json:"id"`
	UserID    uuid.UUID      `json:"userId"`
	ProductID uuid.UUID      `json:"productId"`
	VariantID uuid.UUID      `json:"variantId"`
	Quantity  int            `json:"quantity"`
	Product   ProductSummary `json:"product"`
	Variant   VariantSummary `json:"variant"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func (l Line) Total() decimal.Decimal {
	return l.Variant.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Cart struct {
	Items     []Line          `json:"items"`
	ItemCount int             `json:"itemCount"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

func newCart(lines []Line) *Cart {
	c := &Cart{Items: lines, Subtotal: decimal.Zero}
	if c.Items == nil {
		c.Items = []Line{}
	}
	for _, l := range c.Items {
		c.ItemCount += l.Quantity
		c.Subtotal = c.Subtotal.Add(l.Total())
	}
	return c
}
