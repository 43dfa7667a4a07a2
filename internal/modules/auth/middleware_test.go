package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printlog/printlog-backend/internal/modules/auth"
	"github.com/printlog/printlog-backend/internal/tenant"
)

func signToken(t *testing.T, secret, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &jwt.StandardClaims{
		Subject:   subject,
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestMiddleware_InjectsOwnerIntoContext(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	var seenOwner string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenOwner = tenant.OwnerID(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stock", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "test-secret", "owner-123"))
	rec := httptest.NewRecorder()
	auth.Middleware(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "owner-123", seenOwner, "downstream handlers read the subject via tenant.OwnerID")
}

func TestMiddleware_RejectsMissingAndBadTokens(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run without a valid token")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stock", nil)
	rec := httptest.NewRecorder()
	auth.Middleware(next).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "missing header")

	req = httptest.NewRequest(http.MethodGet, "/api/v1/stock", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "wrong-secret", "owner-123"))
	rec = httptest.NewRecorder()
	auth.Middleware(next).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "wrong signing key")
}
