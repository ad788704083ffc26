package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/teashop/internal/cart"
	"github.com/vasiliy-maslov/teashop/internal/order"
	"github.com/vasiliy-maslov/teashop/internal/product"
	"github.com/vasiliy-maslov/teashop/internal/user"
)

const internalErrorMessage = "Internal server error"

type ValidationErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func mapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, user.ErrNotFound),
		errors.Is(err, product.ErrNotFound),
		errors.Is(err, cart.ErrNotFound),
		errors.Is(err, cart.ErrVariantNotFound),
		errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, order.ErrVariantNotFound):
		return http.StatusNotFound
	case errors.Is(err, user.ErrEmailExists),
		errors.Is(err, product.ErrSlugExists),
		errors.Is(err, order.ErrInvalidStatusTransition):
		return http.StatusConflict
	case errors.Is(err, user.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, order.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, order.ErrInvalidQuantity),
		errors.Is(err, order.ErrEmptyOrder),
		errors.Is(err, order.ErrAmountOutOfRange),
		errors.Is(err, order.ErrInvalidStatus):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondWithServiceError writes the mapped status. Messages for expected
// failures come from clientMessages; 500s always get a fixed message.
func respondWithServiceError(w http.ResponseWriter, err error, clientMessages map[error]string, fallback string) {
	statusCode := mapErrorToStatusCode(err)
	if statusCode == http.StatusInternalServerError {
		log.Error().Err(err).Msg(fallback)
		respondWithError(w, statusCode, internalErrorMessage)
		return
	}

	for target, message := range clientMessages {
		if errors.Is(err, target) {
			respondWithError(w, statusCode, message)
			return
		}
	}
	respondWithError(w, statusCode, fallback)
}

// decodeAndValidate reads a JSON body into dst, rejecting unknown fields, and
// runs struct validation. It writes the error response and returns false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, validate *validator.Validate, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		log.Warn().Err(err).Msg("Failed to decode request body")
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			details := formatValidationErrors(validationErrors)
			respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
				Error:   "Validation failed: " + strings.Join(details, "; "),
				Details: details,
			})
		} else {
			log.Error().Err(err).Type("validation_error_type", err).Msg("Unexpected error type during validation")
			respondWithError(w, http.StatusInternalServerError, "Internal validation error")
		}
		return false
	}

	return true
}

func formatValidationErrors(errs validator.ValidationErrors) []string {
	details := make([]string, 0, len(errs))
	for _, fe := range errs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}

		var msg string
		switch fe.Tag() {
		case "required", "required_if", "required_unless":
			msg = fmt.Sprintf("Field '%s' is required", field)
		case "email":
			msg = fmt.Sprintf("Field '%s' must be a valid email address", field)
		case "min":
			if fe.Kind() == reflect.Slice {
				msg = fmt.Sprintf("Field '%s' must contain at least %s items", field, fe.Param())
			} else if fe.Kind() == reflect.String {
				msg = fmt.Sprintf("Field '%s' must be at least %s characters long", field, fe.Param())
			} else {
				msg = fmt.Sprintf("Field '%s' must be at least %s", field, fe.Param())
			}
		case "max":
			msg = fmt.Sprintf("Field '%s' must be at most %s", field, fe.Param())
		case "gte":
			msg = fmt.Sprintf("Field '%s' must be greater than or equal to %s", field, fe.Param())
		case "oneof":
			msg = fmt.Sprintf("Field '%s' must be one of [%s]", field, fe.Param())
		case "uuid", "uuid4":
			msg = fmt.Sprintf("Field '%s' must be a valid UUID", field)
		default:
			msg = fmt.Sprintf("Field '%s' is invalid (%s)", field, fe.Tag())
		}
		details = append(details, msg)
	}
	return details
}

func parseUUIDParam(w http.ResponseWriter, raw, field string) (uuid.UUID, bool) {
	id, err := uuid.FromString(raw)
	if err != nil {
		log.Warn().Err(err).Str(field, raw).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return uuid.Nil, false
	}
	return id, true
}
