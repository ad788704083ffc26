package order

import (
	"regexp"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPrice_SubtotalAndTotal(t *testing.T) {
	small := VariantInfo{ID: uuid.Must(uuid.NewV4()), ProductID: uuid.Must(uuid.NewV4()), ProductName: "Sencha", Weight: "50g", Price: dec("4.25")}
	large := VariantInfo{ID: uuid.Must(uuid.NewV4()), ProductID: uuid.Must(uuid.NewV4()), ProductName: "Assam", Weight: "250g", Price: dec("11.50")}
	variants := map[uuid.UUID]VariantInfo{small.ID: small, large.ID: large}

	quote, items, err := Price([]ItemInput{
		{VariantID: small.ID, Quantity: 2},
		{VariantID: large.ID, Quantity: 1},
	}, variants, dec("5.99"))
	require.NoError(t, err)

	assert.True(t, quote.Subtotal.Equal(dec("20.00")), "subtotal %s", quote.Subtotal)
	assert.True(t, quote.DeliveryCost.Equal(dec("5.99")))
	assert.True(t, quote.Total.Equal(dec("25.99")), "total %s", quote.Total)
	assert.Equal(t, "25.99", quote.Total.StringFixed(2))

	require.Len(t, items, 2)
	assert.Equal(t, "Sencha", items[0].ProductName)
	assert.Equal(t, "50g", items[0].VariantWeight)
	assert.Equal(t, small.ProductID, *items[0].ProductID)
	assert.Equal(t, small.ID, *items[0].VariantID)
	assert.True(t, items[0].Price.Equal(dec("4.25")))
	assert.Equal(t, 2, items[0].Quantity)
}

func TestPrice_DuplicateVariantLinesAreSummed(t *testing.T) {
	v := VariantInfo{ID: uuid.Must(uuid.NewV4()), Price: dec("3.00")}

	quote, items, err := Price([]ItemInput{{VariantID: v.ID, Quantity: 1}, {VariantID: v.ID, Quantity: 2}},
		map[uuid.UUID]VariantInfo{v.ID: v}, decimal.Zero)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.True(t, quote.Total.Equal(dec("9.00")))
}

func TestPrice_Errors(t *testing.T) {
	known := VariantInfo{ID: uuid.Must(uuid.NewV4()), Price: dec("1.00")}
	variants := map[uuid.UUID]VariantInfo{known.ID: known}

	tests := []struct {
		name    string
		items   []ItemInput
		wantErr error
	}{
		{name: "empty", items: nil, wantErr: ErrEmptyOrder},
		{name: "unknown_variant", items: []ItemInput{{VariantID: known.ID, Quantity: 1}, {VariantID: uuid.Must(uuid.NewV4()), Quantity: 1}}, wantErr: ErrVariantNotFound},
		{name: "zero_quantity", items: []ItemInput{{VariantID: known.ID, Quantity: 0}}, wantErr: ErrInvalidQuantity},
		{name: "above_max_quantity", items: []ItemInput{{VariantID: known.ID, Quantity: MaxQuantity + 1}}, wantErr: ErrInvalidQuantity},
		{name: "quantity_past_int32", items: []ItemInput{{VariantID: known.ID, Quantity: 3000000000}}, wantErr: ErrInvalidQuantity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, items, err := Price(tt.items, variants, dec("5.99"))
			require.ErrorIs(t, err, tt.wantErr)
			require.Nil(t, items)
		})
	}
}

func TestPrice_TotalAboveColumnLimit(t *testing.T) {
	expensive := VariantInfo{ID: uuid.Must(uuid.NewV4()), Price: dec("100000.00")}

	_, items, err := Price([]ItemInput{{VariantID: expensive.ID, Quantity: MaxQuantity}},
		map[uuid.UUID]VariantInfo{expensive.ID: expensive}, dec("5.99"))
	require.ErrorIs(t, err, ErrAmountOutOfRange)
	require.Nil(t, items)
}

func TestPrice_TotalAtColumnLimit(t *testing.T) {
	v := VariantInfo{ID: uuid.Must(uuid.NewV4()), Price: dec("99999.99")}

	quote, _, err := Price([]ItemInput{{VariantID: v.ID, Quantity: MaxQuantity}},
		map[uuid.UUID]VariantInfo{v.ID: v}, dec("5.99"))
	require.NoError(t, err)
	assert.Equal(t, "99999995.99", quote.Total.StringFixed(2))
}

func TestVariantIDs_Deduplicates(t *testing.T) {
	a, b := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())
	got := variantIDs([]ItemInput{{VariantID: a}, {VariantID: b}, {VariantID: a}})
	assert.Equal(t, []uuid.UUID{a, b}, got)
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{StatusPending, StatusPaid, true},
		{StatusPaid, StatusPacking, true},
		{StatusPacking, StatusShipped, true},
		{StatusShipped, StatusDelivered, true},
		{StatusPending, StatusCancelled, true},
		{StatusShipped, StatusCancelled, true},
		{StatusPending, StatusShipped, false},
		{StatusPaid, StatusPending, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"_to_"+tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, canTransition(tt.from, tt.to))
		})
	}
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("SHIPPED")
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, s)

	_, err = ParseStatus("shipped")
	require.ErrorIs(t, err, ErrInvalidStatus)
	_, err = ParseStatus("")
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestNewOrderNumber_Format(t *testing.T) {
	now := time.UnixMilli(1713268800123)
	pattern := regexp.MustCompile(`^ORD-1713268800123-\d{3}$`)

	for range 50 {
		assert.Regexp(t, pattern, newOrderNumber(now))
	}
}
