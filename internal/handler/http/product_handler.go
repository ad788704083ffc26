package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/teashop/internal/catalog"
	"github.com/vasiliy-maslov/teashop/internal/product"
)

type VariantRequest struct {
	Weight string          `json:"weight" validate:"required"`
	Price  decimal.Decimal `json:"price"`
	Stock  int             `json:"stock" validate:"gte=0"`
}

type BrewingInfoRequest struct {
	Amount      string `json:"amount"`
	Temperature string `json:"temperature"`
	Time        string `json:"time"`
}

type ProductRequest struct {
	Name        string              `json:"name" validate:"required"`
	Slug        string              `json:"slug" validate:"required"`
	Description string              `json:"description"`
	Category    string              `json:"category" validate:"required"`
	Origin      []string            `json:"origin" validate:"max=2"`
	Flavor      []string            `json:"flavor"`
	Caffeine    string              `json:"caffeine"`
	Organic     bool                `json:"organic"`
	Vegan       bool                `json:"vegan"`
	Allergens   []string            `json:"allergens"`
	Qualities   []string            `json:"qualities"`
	Ingredients string              `json:"ingredients"`
	ImageURL    string              `json:"imageUrl"`
	BrewingInfo *BrewingInfoRequest `json:"brewingInfo"`
	Variants    []VariantRequest    `json:"variants" validate:"required,min=1,dive"`
}

func (p ProductRequest) toInput() product.Input {
	in := product.Input{
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Category:    p.Category,
		Origin:      p.Origin,
		Flavor:      p.Flavor,
		Caffeine:    p.Caffeine,
		Organic:     p.Organic,
		Vegan:       p.Vegan,
		Allergens:   p.Allergens,
		Qualities:   p.Qualities,
		Ingredients: p.Ingredients,
		ImageURL:    p.ImageURL,
	}
	if p.BrewingInfo != nil {
		in.BrewingInfo = &product.BrewingInfo{
			Amount:      p.BrewingInfo.Amount,
			Temperature: p.BrewingInfo.Temperature,
			Time:        p.BrewingInfo.Time,
		}
	}
	for _, v := range p.Variants {
		in.Variants = append(in.Variants, product.VariantInput{Weight: v.Weight, Price: v.Price, Stock: v.Stock})
	}
	return in
}

type ProductHandler struct {
	service  product.Service
	validate *validator.Validate
}

func NewProductHandler(service product.Service) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes mounts catalog reads publicly and writes behind admin.
func (h *ProductHandler) RegisterRoutes(router chi.Router, admin func(http.Handler) http.Handler) {
	router.Route("/products", func(r chi.Router) {
		r.Get("/", h.handleListProducts)
		r.Get("/facets", h.handleGetFacets)
		r.Get("/slug/{slug}", h.handleGetProductBySlug)
		r.Get("/{id}", h.handleGetProductByID)

		r.Group(func(r chi.Router) {
			r.Use(admin)
			r.Post("/", h.handleCreateProduct)
			r.Put("/{id}", h.handleUpdateProduct)
			r.Delete("/{id}", h.handleDeleteProduct)
		})
	})
}

var productMessages = map[error]string{
	product.ErrNotFound:   "Product not found",
	product.ErrSlugExists: "Product with this slug already exists",
}

func (h *ProductHandler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.List(r.Context())
	if err != nil {
		respondWithServiceError(w, err, productMessages, "Failed to fetch products")
		return
	}

	query := r.URL.Query()
	views = catalog.FilterProducts(views, catalog.ParseFilters(query))
	if sortBy := query.Get("sort"); sortBy != "" {
		views = catalog.SortProducts(views, catalog.SortKey(sortBy))
	}

	respondWithJSON(w, http.StatusOK, views)
}

func (h *ProductHandler) handleGetFacets(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.List(r.Context())
	if err != nil {
		respondWithServiceError(w, err, productMessages, "Failed to fetch product facets")
		return
	}

	respondWithJSON(w, http.StatusOK, catalog.BuildFacets(views))
}

func (h *ProductHandler) handleGetProductByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, chi.URLParam(r, "id"), "product_id")
	if !ok {
		return
	}

	view, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, productMessages, "Failed to fetch product")
		return
	}

	respondWithJSON(w, http.StatusOK, view)
}

func (h *ProductHandler) handleGetProductBySlug(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		respondWithServiceError(w, err, productMessages, "Failed to fetch product")
		return
	}

	respondWithJSON(w, http.StatusOK, view)
}

func (h *ProductHandler) decodeProduct(w http.ResponseWriter, r *http.Request) (product.Input, bool) {
	var requestPayload ProductRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return product.Input{}, false
	}
	for _, v := range requestPayload.Variants {
		if v.Price.IsNegative() {
			respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
				Error:   "Validation failed: Field 'Variants.Price' must be greater than or equal to 0",
				Details: []string{"Field 'Variants.Price' must be greater than or equal to 0"},
			})
			return product.Input{}, false
		}
	}
	return requestPayload.toInput(), true
}

func (h *ProductHandler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}

	view, err := h.service.Create(r.Context(), in)
	if err != nil {
		respondWithServiceError(w, err, productMessages, "Failed to create product")
		return
	}

	respondWithJSON(w, http.StatusCreated, view)
}

func (h *ProductHandler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, chi.URLParam(r, "id"), "product_id")
	if !ok {
		return
	}

	in, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}

	view, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		respondWithServiceError(w, err, productMessages, "Failed to update product")
		return
	}

	respondWithJSON(w, http.StatusOK, view)
}

func (h *ProductHandler) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, chi.URLParam(r, "id"), "product_id")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		respondWithServiceError(w, err, productMessages, "Failed to delete product")
		return
	}

	respondWithJSON(w, http.StatusOK, MessageResponse{Message: "Product deleted successfully"})
}
