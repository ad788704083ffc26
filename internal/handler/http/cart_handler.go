package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/vasiliy-maslov/teashop/internal/cart"
)

type AddToCartRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	VariantID uuid.UUID `json:"variantId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1,max=1000"`
}

// UpdateCartItemRequest uses a pointer so an explicit 0 passes "required".
type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" validate:"required,max=1000"`
}

type CartHandler struct {
	service  cart.Service
	validate *validator.Validate
}

func NewCartHandler(service cart.Service) *CartHandler {
	return &CartHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes expects router to already require authentication.
func (h *CartHandler) RegisterRoutes(router chi.Router) {
	router.Route("/cart", func(r chi.Router) {
		r.Get("/", h.handleGetCart)
		r.Post("/", h.handleAddToCart)
		r.Delete("/", h.handleClearCart)
		r.Put("/{id}", h.handleUpdateCartItem)
		r.Delete("/{id}", h.handleRemoveFromCart)
	})
}

var cartMessages = map[error]string{
	cart.ErrNotFound:        "Cart item not found",
	cart.ErrVariantNotFound: "Product variant not found",
	cart.ErrInvalidQuantity: "Quantity must be between 0 and 1000",
}

func (h *CartHandler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.GetCart(r.Context(), identityFrom(r).UserID)
	if err != nil {
		respondWithServiceError(w, err, cartMessages, "Failed to fetch cart")
		return
	}

	respondWithJSON(w, http.StatusOK, c)
}

func (h *CartHandler) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	var requestPayload AddToCartRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	line, err := h.service.AddToCart(r.Context(), identityFrom(r).UserID,
		requestPayload.ProductID, requestPayload.VariantID, requestPayload.Quantity)
	if err != nil {
		respondWithServiceError(w, err, cartMessages, "Failed to add to cart")
		return
	}

	respondWithJSON(w, http.StatusCreated, line)
}

func (h *CartHandler) handleUpdateCartItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, chi.URLParam(r, "id"), "cart_item_id")
	if !ok {
		return
	}

	var requestPayload UpdateCartItemRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	line, err := h.service.UpdateCartItem(r.Context(), identityFrom(r).UserID, id, *requestPayload.Quantity)
	if err != nil {
		respondWithServiceError(w, err, cartMessages, "Failed to update cart item")
		return
	}

	if line == nil {
		respondWithJSON(w, http.StatusOK, MessageResponse{Message: "Item removed from cart"})
		return
	}
	respondWithJSON(w, http.StatusOK, line)
}

func (h *CartHandler) handleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, chi.URLParam(r, "id"), "cart_item_id")
	if !ok {
		return
	}

	if err := h.service.RemoveFromCart(r.Context(), identityFrom(r).UserID, id); err != nil {
		respondWithServiceError(w, err, cartMessages, "Failed to remove from cart")
		return
	}

	respondWithJSON(w, http.StatusOK, MessageResponse{Message: "Item removed from cart"})
}

func (h *CartHandler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearCart(r.Context(), identityFrom(r).UserID); err != nil {
		respondWithServiceError(w, err, cartMessages, "Failed to clear cart")
		return
	}

	respondWithJSON(w, http.StatusOK, MessageResponse{Message: "Cart cleared"})
}
