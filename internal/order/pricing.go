package order

import (
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyOrder       = errors.New("order must contain at least one item")
	ErrInvalidQuantity  = errors.New("order item quantity out of range")
	ErrAmountOutOfRange = errors.New("order amount exceeds the supported maximum")
	ErrVariantNotFound  = errors.New("product variant not found")
	ErrOrderNumberTaken = errors.New("order number already exists")
)

// MaxQuantity caps the quantity of one order line.
const MaxQuantity = 1000

// MaxAmount is the largest value the NUMERIC(10,2) money columns hold.
var MaxAmount = decimal.RequireFromString("99999999.99")

// VariantInfo is the live catalog data an order item is priced from.
type VariantInfo struct {
	ID          uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Weight      string
	Price       decimal.Decimal
}

type Quote struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	DeliveryCost decimal.Decimal `json:"deliveryCost"`
	Total        decimal.Decimal `json:"total"`
}

// Price snapshots every item against variants and sums the order. The whole
// order fails if any item references a variant missing from the map.
func Price(items []ItemInput, variants map[uuid.UUID]VariantInfo, deliveryCost decimal.Decimal) (Quote, []OrderItem, error) {
	if len(items) == 0 {
		return Quote{}, nil, ErrEmptyOrder
	}

	subtotal := decimal.Zero
	snapshots := make([]OrderItem, 0, len(items))

	for _, item := range items {
		if item.Quantity <= 0 || item.Quantity > MaxQuantity {
			return Quote{}, nil, fmt.Errorf("%w: variant %s", ErrInvalidQuantity, item.VariantID)
		}

		v, ok := variants[item.VariantID]
		if !ok {
			return Quote{}, nil, fmt.Errorf("%w: %s", ErrVariantNotFound, item.VariantID)
		}

		subtotal = subtotal.Add(v.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))

		productID, variantID := v.ProductID, v.ID
		snapshots = append(snapshots, OrderItem{
			ProductID:     &productID,
			VariantID:     &variantID,
			ProductName:   v.ProductName,
			VariantWeight: v.Weight,
			Price:         v.Price,
			Quantity:      item.Quantity,
		})
	}

	total := subtotal.Add(deliveryCost)
	if total.GreaterThan(MaxAmount) {
		return Quote{}, nil, fmt.Errorf("%w: total %s", ErrAmountOutOfRange, total)
	}

	return Quote{
		Subtotal:     subtotal,
		DeliveryCost: deliveryCost,
		Total:        total,
	}, snapshots, nil
}

func variantIDs(items []ItemInput) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(items))
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.VariantID]; ok {
			continue
		}
		seen[item.VariantID] = struct{}{}
		ids = append(ids, item.VariantID)
	}
	return ids
}
