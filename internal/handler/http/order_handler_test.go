package http_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	teashopHttp "github.com/vasiliy-maslov/teashop/internal/handler/http"
	"github.com/vasiliy-maslov/teashop/internal/order"
	"github.com/vasiliy-maslov/teashop/internal/user"
)

func validOrderRequest(variantID uuid.UUID) teashopHttp.CreateOrderRequest {
	return teashopHttp.CreateOrderRequest{
		ShippingFirstName:     "Ada",
		ShippingLastName:      "Lovelace",
		ShippingStreet:        "1 Tea Lane",
		ShippingPostCode:      "12345",
		ShippingCity:          "London",
		ShippingCountry:       "UK",
		BillingSameAsShipping: true,
		Email:                 "ada@example.com",
		PaymentType:           "card",
		Items:                 []teashopHttp.OrderItemRequest{{VariantID: variantID, Quantity: 2}},
	}
}

func TestOrderHandler_handleCreateOrder_Success(t *testing.T) {
	ts := newTestServer(t)
	userID, variantID := newID(t), newID(t)

	expectedInput := order.CreateInput{
		Shipping: order.Address{
			FirstName: "Ada", LastName: "Lovelace", Street: "1 Tea Lane",
			PostCode: "12345", City: "London", Country: "UK",
		},
		BillingSameAsShipping: true,
		Email:                 "ada@example.com",
		PaymentType:           "card",
		Items:                 []order.ItemInput{{VariantID: variantID, Quantity: 2}},
	}
	created := &order.Order{
		ID:           newID(t),
		OrderNumber:  "ORD-1700000000000-042",
		UserID:       userID,
		Subtotal:     decimal.RequireFromString("20.00"),
		DeliveryCost: decimal.RequireFromString("5.99"),
		Total:        decimal.RequireFromString("25.99"),
		Status:       order.StatusPending,
	}

	var captured order.CreateInput
	ts.orders.On("CreateOrder", mock.Anything, userID, mock.AnythingOfType("order.CreateInput")).
		Run(func(args mock.Arguments) { captured = args.Get(2).(order.CreateInput) }).
		Return(created, nil).Once()

	rr := ts.do(t, http.MethodPost, "/api/orders", validOrderRequest(variantID), ts.token(t, userID, user.RoleUser))

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	if diff := cmp.Diff(expectedInput, captured); diff != "" {
		t.Errorf("create input mismatch (-want +got):\n%s", diff)
	}

	var got order.Order
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, created.OrderNumber, got.OrderNumber)
	assert.True(t, got.Total.Equal(decimal.RequireFromString("25.99")), "total %s", got.Total)
}

func TestOrderHandler_handleCreateOrder_Validation(t *testing.T) {
	testCases := []struct {
		name          string
		mutate        func(*teashopHttp.CreateOrderRequest)
		expectedInMsg string
	}{
		{
			name:          "no items",
			mutate:        func(r *teashopHttp.CreateOrderRequest) { r.Items = []teashopHttp.OrderItemRequest{} },
			expectedInMsg: "Field 'Items' must contain at least 1 items",
		},
		{
			name:          "zero quantity",
			mutate:        func(r *teashopHttp.CreateOrderRequest) { r.Items[0].Quantity = 0 },
			expectedInMsg: "Field 'Items[0].Quantity' is required",
		},
		{
			name:          "quantity above max",
			mutate:        func(r *teashopHttp.CreateOrderRequest) { r.Items[0].Quantity = 100001 },
			expectedInMsg: "Field 'Items[0].Quantity' must be at most 1000",
		},
		{
			name:          "billing required when not same as shipping",
			mutate:        func(r *teashopHttp.CreateOrderRequest) { r.BillingSameAsShipping = false },
			expectedInMsg: "Field 'BillingFirstName' is required",
		},
		{
			name:          "invalid email",
			mutate:        func(r *teashopHttp.CreateOrderRequest) { r.Email = "nope" },
			expectedInMsg: "Field 'Email' must be a valid email address",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(t)
			requestDTO := validOrderRequest(newID(t))
			tc.mutate(&requestDTO)

			rr := ts.do(t, http.MethodPost, "/api/orders", requestDTO, ts.token(t, newID(t), user.RoleUser))

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Contains(t, decodeError(t, rr), tc.expectedInMsg)
		})
	}
}

func TestOrderHandler_handleCreateOrder_UnknownVariant(t *testing.T) {
	ts := newTestServer(t)
	userID := newID(t)
	ts.orders.On("CreateOrder", mock.Anything, userID, mock.AnythingOfType("order.CreateInput")).
		Return(nil, order.ErrVariantNotFound).Once()

	rr := ts.do(t, http.MethodPost, "/api/orders", validOrderRequest(newID(t)), ts.token(t, userID, user.RoleUser))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Product variant not found", decodeError(t, rr))
}

func TestOrderHandler_handleCreateOrder_TotalOutOfRange(t *testing.T) {
	ts := newTestServer(t)
	userID := newID(t)
	ts.orders.On("CreateOrder", mock.Anything, userID, mock.AnythingOfType("order.CreateInput")).
		Return(nil, order.ErrAmountOutOfRange).Once()

	rr := ts.do(t, http.MethodPost, "/api/orders", validOrderRequest(newID(t)), ts.token(t, userID, user.RoleUser))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Order total exceeds the allowed maximum", decodeError(t, rr))
}

func TestOrderHandler_handleQuote(t *testing.T) {
	ts := newTestServer(t)
	variantID := newID(t)
	ts.orders.On("Quote", mock.Anything, []order.ItemInput{{VariantID: variantID, Quantity: 2}}).
		Return(&order.Quote{
			Subtotal:     decimal.RequireFromString("20.00"),
			DeliveryCost: decimal.RequireFromString("5.99"),
			Total:        decimal.RequireFromString("25.99"),
		}, nil).Once()

	rr := ts.do(t, http.MethodPost, "/api/orders/quote", teashopHttp.QuoteRequest{
		Items: []teashopHttp.OrderItemRequest{{VariantID: variantID, Quantity: 2}},
	}, ts.token(t, newID(t), user.RoleUser))

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var got order.Quote
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.True(t, got.DeliveryCost.Equal(decimal.RequireFromString("5.99")))
	assert.True(t, got.Total.Equal(decimal.RequireFromString("25.99")))
}

func TestOrderHandler_handleGetOrders(t *testing.T) {
	t.Run("own orders", func(t *testing.T) {
		ts := newTestServer(t)
		userID := newID(t)
		ts.orders.On("GetOrdersByUserID", mock.Anything, userID).
			Return([]order.Order{{ID: newID(t), UserID: userID}}, nil).Once()

		rr := ts.do(t, http.MethodGet, "/api/orders", nil, ts.token(t, userID, user.RoleUser))

		require.Equal(t, http.StatusOK, rr.Code)
		var got []order.Order
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Len(t, got, 1)
	})

	t.Run("other user's order is forbidden", func(t *testing.T) {
		ts := newTestServer(t)
		userID, orderID := newID(t), newID(t)
		ts.orders.On("GetOrderByID", mock.Anything, orderID, userID, false).Return(nil, order.ErrForbidden).Once()

		rr := ts.do(t, http.MethodGet, "/api/orders/"+orderID.String(), nil, ts.token(t, userID, user.RoleUser))

		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Equal(t, "Access denied", decodeError(t, rr))
	})

	t.Run("admin passes admin flag", func(t *testing.T) {
		ts := newTestServer(t)
		adminID, orderID := newID(t), newID(t)
		ts.orders.On("GetOrderByID", mock.Anything, orderID, adminID, true).
			Return(&order.Order{ID: orderID}, nil).Once()

		rr := ts.do(t, http.MethodGet, "/api/orders/"+orderID.String(), nil, ts.token(t, adminID, user.RoleAdmin))

		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestOrderHandler_handleListOrders(t *testing.T) {
	t.Run("user role forbidden", func(t *testing.T) {
		ts := newTestServer(t)

		rr := ts.do(t, http.MethodGet, "/api/orders/admin/all", nil, ts.token(t, newID(t), user.RoleUser))

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("admin with filters", func(t *testing.T) {
		ts := newTestServer(t)
		status := order.StatusShipped
		ts.orders.On("ListOrders", mock.Anything, order.ListFilter{Status: &status, Limit: 10, Offset: 20}).
			Return(&order.Page{Orders: []order.Order{}, Total: 21}, nil).Once()

		rr := ts.do(t, http.MethodGet, "/api/orders/admin/all?status=SHIPPED&limit=10&offset=20", nil,
			ts.token(t, newID(t), user.RoleAdmin))

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var page order.Page
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
		assert.Equal(t, 21, page.Total)
	})

	t.Run("bad status", func(t *testing.T) {
		ts := newTestServer(t)

		rr := ts.do(t, http.MethodGet, "/api/orders/admin/all?status=LOST", nil, ts.token(t, newID(t), user.RoleAdmin))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Invalid order status", decodeError(t, rr))
	})

	t.Run("bad limit", func(t *testing.T) {
		ts := newTestServer(t)

		rr := ts.do(t, http.MethodGet, "/api/orders/admin/all?limit=ten", nil, ts.token(t, newID(t), user.RoleAdmin))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Invalid limit parameter", decodeError(t, rr))
	})
}

func TestOrderHandler_handleUpdateOrderStatus(t *testing.T) {
	t.Run("user role forbidden", func(t *testing.T) {
		ts := newTestServer(t)

		rr := ts.do(t, http.MethodPut, "/api/orders/"+newID(t).String()+"/status", `{"status":"PAID"}`,
			ts.token(t, newID(t), user.RoleUser))

		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Equal(t, "Admin access required", decodeError(t, rr))
	})

	t.Run("admin updates", func(t *testing.T) {
		ts := newTestServer(t)
		orderID := newID(t)
		ts.orders.On("UpdateOrderStatus", mock.Anything, orderID, order.StatusPaid).
			Return(&order.Order{ID: orderID, Status: order.StatusPaid}, nil).Once()

		rr := ts.do(t, http.MethodPut, "/api/orders/"+orderID.String()+"/status", `{"status":"PAID"}`,
			ts.token(t, newID(t), user.RoleAdmin))

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var got order.Order
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, order.StatusPaid, got.Status)
	})

	t.Run("unknown status", func(t *testing.T) {
		ts := newTestServer(t)

		rr := ts.do(t, http.MethodPut, "/api/orders/"+newID(t).String()+"/status", `{"status":"TELEPORTED"}`,
			ts.token(t, newID(t), user.RoleAdmin))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Invalid order status", decodeError(t, rr))
	})

	t.Run("illegal transition", func(t *testing.T) {
		ts := newTestServer(t)
		orderID := newID(t)
		ts.orders.On("UpdateOrderStatus", mock.Anything, orderID, order.StatusPending).
			Return(nil, order.ErrInvalidStatusTransition).Once()

		rr := ts.do(t, http.MethodPut, "/api/orders/"+orderID.String()+"/status", `{"status":"PENDING"}`,
			ts.token(t, newID(t), user.RoleAdmin))

		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}
