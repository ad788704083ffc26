package http_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/vasiliy-maslov/teashop/internal/auth"
	teashopHttp "github.com/vasiliy-maslov/teashop/internal/handler/http"
	"github.com/vasiliy-maslov/teashop/internal/user"
)

func TestAuthenticate(t *testing.T) {
	tokens := auth.NewTokenManager(testSecret, time.Hour)
	otherTokens := auth.NewTokenManager("another-secret", time.Hour)
	expired := auth.NewTokenManager(testSecret, -time.Minute)

	router := chi.NewRouter()
	router.With(teashopHttp.Authenticate(tokens)).Get("/private", func(w http.ResponseWriter, r *http.Request) {
		identity, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		_, _ = w.Write([]byte(identity.UserID.String()))
	})

	userID := newID(t)
	validToken, err := tokens.Issue(userID, user.RoleUser)
	assert.NoError(t, err)
	foreignToken, err := otherTokens.Issue(userID, user.RoleUser)
	assert.NoError(t, err)
	expiredToken, err := expired.Issue(userID, user.RoleUser)
	assert.NoError(t, err)

	testCases := []struct {
		name           string
		header         string
		expectedStatus int
		expectedError  string
	}{
		{name: "no header", header: "", expectedStatus: http.StatusUnauthorized, expectedError: "No token provided"},
		{name: "wrong scheme", header: "Basic abc", expectedStatus: http.StatusUnauthorized, expectedError: "No token provided"},
		{name: "empty bearer", header: "Bearer ", expectedStatus: http.StatusUnauthorized, expectedError: "No token provided"},
		{name: "garbage", header: "Bearer not.a.jwt", expectedStatus: http.StatusUnauthorized, expectedError: "Invalid token"},
		{name: "foreign signature", header: "Bearer " + foreignToken, expectedStatus: http.StatusUnauthorized, expectedError: "Invalid token"},
		{name: "expired", header: "Bearer " + expiredToken, expectedStatus: http.StatusUnauthorized, expectedError: "Invalid token"},
		{name: "valid", header: "Bearer " + validToken, expectedStatus: http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()

			router.ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatus, rr.Code)
			if tc.expectedError != "" {
				assert.Equal(t, tc.expectedError, decodeError(t, rr))
			} else {
				assert.Equal(t, userID.String(), rr.Body.String())
			}
		})
	}
}

func TestRequireAdmin_WithoutIdentity(t *testing.T) {
	router := chi.NewRouter()
	router.With(teashopHttp.RequireAdmin).Get("/admin", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())

	rr = ts.do(t, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "teashop_http_requests_total")
}
