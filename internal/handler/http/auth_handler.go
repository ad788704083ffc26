package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/teashop/internal/user"
)

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required,min=1"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      user.Role `json:"role"`
	Avatar    *string   `json:"avatar"`
	CreatedAt time.Time `json:"createdAt"`
}

type AuthResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Issue(userID uuid.UUID, role user.Role) (string, error)
}

type AuthHandler struct {
	service  user.Service
	tokens   TokenIssuer
	validate *validator.Validate
}

func NewAuthHandler(service user.Service, tokens TokenIssuer) *AuthHandler {
	return &AuthHandler{
		service:  service,
		tokens:   tokens,
		validate: validator.New(),
	}
}

// RegisterRoutes mounts the public auth routes. authenticated guards /auth/me.
func (h *AuthHandler) RegisterRoutes(router chi.Router, authenticated func(http.Handler) http.Handler) {
	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.handleRegister)
		r.Post("/login", h.handleLogin)
		r.With(authenticated).Get("/me", h.handleMe)
	})
}

func toUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
	}
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var requestPayload RegisterRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	createdUser, err := h.service.Register(r.Context(), requestPayload.Email, requestPayload.Password, requestPayload.Name)
	if err != nil {
		respondWithServiceError(w, err, map[error]string{
			user.ErrEmailExists: "User already exists",
		}, "Failed to register user")
		return
	}

	h.respondWithToken(w, http.StatusCreated, createdUser)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var requestPayload LoginRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	foundUser, err := h.service.Login(r.Context(), requestPayload.Email, requestPayload.Password)
	if err != nil {
		respondWithServiceError(w, err, map[error]string{
			user.ErrInvalidCredentials: "Invalid credentials",
		}, "Failed to login")
		return
	}

	h.respondWithToken(w, http.StatusOK, foundUser)
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r)

	foundUser, err := h.service.GetUserByID(r.Context(), identity.UserID)
	if err != nil {
		respondWithServiceError(w, err, map[error]string{
			user.ErrNotFound: "User not found",
		}, "Failed to get current user")
		return
	}

	respondWithJSON(w, http.StatusOK, toUserResponse(foundUser))
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, status int, u *user.User) {
	token, err := h.tokens.Issue(u.ID, u.Role)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", u.ID).Msg("Failed to issue token")
		respondWithError(w, http.StatusInternalServerError, internalErrorMessage)
		return
	}

	respondWithJSON(w, status, AuthResponse{User: toUserResponse(u), Token: token})
}
