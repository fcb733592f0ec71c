package httpapi

import (
	"net/http"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillpos/backend/internal/domain"
)

const testSecret = "test-secret-key-with-at-least-32-chars"

func TestIssueAndParseToken(t *testing.T) {
	auth := NewAuthManager(testSecret, time.Hour)
	actor := domain.Actor{UserID: 7, Username: "night", Role: domain.RoleCashier}

	resp, err := auth.Issue(actor)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCashier, resp.Role)
	assert.NotEmpty(t, resp.AccessToken)

	expiresAt, err := time.Parse(time.RFC3339, resp.ExpiresAt)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	parsed, err := auth.ParseToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, actor, parsed)
}

func TestParseTokenRejectsOtherSecret(t *testing.T) {
	resp, err := NewAuthManager("another-secret-key-with-32-characters!", time.Hour).
		Issue(domain.Actor{UserID: 1, Username: "admin", Role: domain.RoleManager})
	require.NoError(t, err)

	_, err = NewAuthManager(testSecret, time.Hour).ParseToken(resp.AccessToken)
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	auth := NewAuthManager(testSecret, time.Hour)
	auth.now = func() time.Time { return time.Now().UTC().Add(-2 * time.Hour) }
	resp, err := auth.Issue(domain.Actor{UserID: 1, Username: "admin", Role: domain.RoleManager})
	require.NoError(t, err)

	auth.now = func() time.Time { return time.Now().UTC() }
	_, err = auth.ParseToken(resp.AccessToken)
	assert.Error(t, err)
}

func TestParseTokenRejectsUnsignedToken(t *testing.T) {
	claims := tillClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   "admin",
			Issuer:    tokenIssuer,
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID: 1,
		Role:   domain.RoleManager,
	}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, claims).SignedString(jwtlib.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewAuthManager(testSecret, time.Hour).ParseToken(token)
	assert.Error(t, err)
}

func TestProtectedRouteRequiresBearerToken(t *testing.T) {
	api := newTestAPI(t)

	res := doJSON(t, api.Handler(), http.MethodGet, "/api/v1/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	res = doJSON(t, api.Handler(), http.MethodGet, "/api/v1/cart", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestCashierTokenCannotManageProducts(t *testing.T) {
	api := newTestAPI(t)
	token := login(t, api, "cashier", "cashier123")

	res := doJSON(t, api.Handler(), http.MethodPost, "/api/v1/products", token, map[string]any{
		"name": "Gum", "price": "0.50", "quantity": 10,
	})
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = doJSON(t, api.Handler(), http.MethodGet, "/api/v1/products", token, nil)
	assert.Equal(t, http.StatusOK, res.Code)
}
