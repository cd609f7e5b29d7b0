package authz

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidhood/bird-trading-platform/pkg/logger"
)

func testResolver(t *testing.T) IdentityResolver {
	t.Helper()
	return func(token string) (*Identity, error) {
		switch token {
		case "user-token":
			return NewIdentity("acc-user", "buyer@example.com", RoleUser)
		case "admin-token":
			return NewIdentity("acc-admin", "admin@example.com", RoleAdmin)
		default:
			return nil, fmt.Errorf("bad token")
		}
	}
}

func authzHandler(t *testing.T) http.Handler {
	t.Helper()
	mw := Middleware(testResolver(t), testEvaluator(), logger.New("authz-test", "error"))
	return mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestMiddleware_PublicPathWithoutToken(t *testing.T) {
	rec := httptest.NewRecorder()
	authzHandler(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddleware_ProtectedPathWithoutToken_401(t *testing.T) {
	rec := httptest.NewRecorder()
	authzHandler(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/user/orders", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
}

func TestMiddleware_InvalidToken_401(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/user/orders", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	authzHandler(t).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddleware_WrongArea_403(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/accounts", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	authzHandler(t).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "FORBIDDEN")
}

func TestMiddleware_AllowedRequestReachesHandlerWithIdentity(t *testing.T) {
	var seen *Identity
	mw := Middleware(testResolver(t), testEvaluator(), logger.New("authz-test", "error"))
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/user/orders", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "acc-user", seen.AccountID)
	assert.Equal(t, RoleUser, seen.Role)
}

func TestMiddleware_MalformedAuthorizationHeaderTreatedAsAnonymous(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/user/orders", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	authzHandler(t).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
