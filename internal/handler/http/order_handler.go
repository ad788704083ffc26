package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/vasiliy-maslov/teashop/internal/order"
)

type OrderItemRequest struct {
	VariantID uuid.UUID `json:"variantId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1,max=1000"`
}

type CreateOrderRequest struct {
	ShippingFirstName     string             `json:"shippingFirstName" validate:"required"`
	ShippingLastName      string             `json:"shippingLastName" validate:"required"`
	ShippingStreet        string             `json:"shippingStreet" validate:"required"`
	ShippingPostCode      string             `json:"shippingPostCode" validate:"required"`
	ShippingCity          string             `json:"shippingCity" validate:"required"`
	ShippingCountry       string             `json:"shippingCountry" validate:"required"`
	BillingSameAsShipping bool               `json:"billingSameAsShipping"`
	BillingFirstName      string             `json:"billingFirstName" validate:"required_if=BillingSameAsShipping false"`
	BillingLastName       string             `json:"billingLastName" validate:"required_if=BillingSameAsShipping false"`
	BillingStreet         string             `json:"billingStreet" validate:"required_if=BillingSameAsShipping false"`
	BillingPostCode       string             `json:"billingPostCode" validate:"required_if=BillingSameAsShipping false"`
	BillingCity           string             `json:"billingCity" validate:"required_if=BillingSameAsShipping false"`
	BillingCountry        string             `json:"billingCountry" validate:"required_if=BillingSameAsShipping false"`
	Email                 string             `json:"email" validate:"required,email"`
	PaymentType           string             `json:"paymentType" validate:"required"`
	Items                 []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type QuoteRequest struct {
	Items []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func toItemInputs(items []OrderItemRequest) []order.ItemInput {
	inputs := make([]order.ItemInput, 0, len(items))
	for _, item := range items {
		inputs = append(inputs, order.ItemInput{VariantID: item.VariantID, Quantity: item.Quantity})
	}
	return inputs
}

func (req CreateOrderRequest) toInput() order.CreateInput {
	return order.CreateInput{
		Shipping: order.Address{
			FirstName: req.ShippingFirstName,
			LastName:  req.ShippingLastName,
			Street:    req.ShippingStreet,
			PostCode:  req.ShippingPostCode,
			City:      req.ShippingCity,
			Country:   req.ShippingCountry,
		},
		BillingSameAsShipping: req.BillingSameAsShipping,
		Billing: order.Address{
			FirstName: req.BillingFirstName,
			LastName:  req.BillingLastName,
			Street:    req.BillingStreet,
			PostCode:  req.BillingPostCode,
			City:      req.BillingCity,
			Country:   req.BillingCountry,
		},
		Email:       req.Email,
		PaymentType: req.PaymentType,
		Items:       toItemInputs(req.Items),
	}
}

type OrderHandler struct {
	service  order.Service
	validate *validator.Validate
}

func NewOrderHandler(service order.Service) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes expects router to already require authentication.
func (h *OrderHandler) RegisterRoutes(router chi.Router) {
	router.Route("/orders", func(r chi.Router) {
		r.Post("/", h.handleCreateOrder)
		r.Post("/quote", h.handleQuote)
		r.Get("/", h.handleGetMyOrders)

		r.With(RequireAdmin).Get("/admin/all", h.handleListOrders)
		r.With(RequireAdmin).Put("/{id}/status", h.handleUpdateOrderStatus)

		r.Get("/{id}", h.handleGetOrderByID)
	})
}

var orderMessages = map[error]string{
	order.ErrOrderNotFound:           "Order not found",
	order.ErrVariantNotFound:         "Product variant not found",
	order.ErrEmptyOrder:              "Order must contain at least one item",
	order.ErrInvalidQuantity:         "Quantity must be between 1 and 1000",
	order.ErrAmountOutOfRange:        "Order total exceeds the allowed maximum",
	order.ErrInvalidStatus:           "Invalid order status",
	order.ErrInvalidStatusTransition: "Order status transition not allowed",
	order.ErrForbidden:               "Access denied",
}

func (h *OrderHandler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreateOrderRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	created, err := h.service.CreateOrder(r.Context(), identityFrom(r).UserID, requestPayload.toInput())
	if err != nil {
		respondWithServiceError(w, err, orderMessages, "Failed to create order")
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *OrderHandler) handleQuote(w http.ResponseWriter, r *http.Request) {
	var requestPayload QuoteRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	quote, err := h.service.Quote(r.Context(), toItemInputs(requestPayload.Items))
	if err != nil {
		respondWithServiceError(w, err, orderMessages, "Failed to quote order")
		return
	}

	respondWithJSON(w, http.StatusOK, quote)
}

func (h *OrderHandler) handleGetMyOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.GetOrdersByUserID(r.Context(), identityFrom(r).UserID)
	if err != nil {
		respondWithServiceError(w, err, orderMessages, "Failed to fetch orders")
		return
	}

	respondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) handleGetOrderByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, chi.URLParam(r, "id"), "order_id")
	if !ok {
		return
	}

	identity := identityFrom(r)
	found, err := h.service.GetOrderByID(r.Context(), id, identity.UserID, identity.IsAdmin())
	if err != nil {
		respondWithServiceError(w, err, orderMessages, "Failed to fetch order")
		return
	}

	respondWithJSON(w, http.StatusOK, found)
}

func (h *OrderHandler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var filter order.ListFilter
	if raw := query.Get("status"); raw != "" {
		status, err := order.ParseStatus(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid order status")
			return
		}
		filter.Status = &status
	}

	var ok bool
	if filter.Limit, ok = parseIntQuery(w, query.Get("limit"), "limit"); !ok {
		return
	}
	if filter.Offset, ok = parseIntQuery(w, query.Get("offset"), "offset"); !ok {
		return
	}

	page, err := h.service.ListOrders(r.Context(), filter)
	if err != nil {
		respondWithServiceError(w, err, orderMessages, "Failed to list orders")
		return
	}

	respondWithJSON(w, http.StatusOK, page)
}

func (h *OrderHandler) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, chi.URLParam(r, "id"), "order_id")
	if !ok {
		return
	}

	var requestPayload UpdateOrderStatusRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	status, err := order.ParseStatus(requestPayload.Status)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid order status")
		return
	}

	updated, err := h.service.UpdateOrderStatus(r.Context(), id, status)
	if err != nil {
		respondWithServiceError(w, err, orderMessages, "Failed to update order status")
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}

// parseIntQuery treats an empty value as zero.
func parseIntQuery(w http.ResponseWriter, raw, name string) (int, bool) {
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid "+name+" parameter")
		return 0, false
	}
	return n, true
}
