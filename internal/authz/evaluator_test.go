package authz

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvaluator() *Evaluator {
	return NewEvaluator(Config{PublicPatterns: DefaultPublicPatterns()})
}

func mustIdentity(t *testing.T, role Role) *Identity {
	t.Helper()
	id, err := NewIdentity("acc-"+string(role), string(role)+"@example.com", role)
	require.NoError(t, err)
	return id
}

func TestDecide_PublicPathsAllowAnonymous(t *testing.T) {
	e := testEvaluator()

	paths := []string{
		"/",
		"/api/v1/auth/login",
		"/api/v1/users/register",
		"/api/v1/users/authenticate",
		"/api/v1/products",
		"/api/v1/products/123",
		"/api/v1/birds/45",
		"/api/v1/accessories",
		"/api/v1/foods/9",
	}

	for _, path := range paths {
		assert.Equal(t, Allow, e.Decide(path, http.MethodGet, nil), "path %s", path)
	}
}

func TestDecide_PublicIgnoresPermissions(t *testing.T) {
	e := testEvaluator()

	// Even a caller holding no relevant permission gets through on public paths.
	staff := mustIdentity(t, RoleShopStaff)
	assert.Equal(t, Allow, e.Decide("/api/v1/products", http.MethodGet, staff))
	assert.Equal(t, Allow, e.Decide("/api/v1/users/register", http.MethodPost, nil))
}

func TestDecide_UserAreaPermissionPerMethod(t *testing.T) {
	e := testEvaluator()
	user := mustIdentity(t, RoleUser)

	assert.Equal(t, Allow, e.Decide("/api/v1/user/orders", http.MethodGet, user))
	assert.Equal(t, Allow, e.Decide("/api/v1/user/orders", http.MethodPost, user))
	assert.Equal(t, Allow, e.Decide("/api/v1/user/profile", http.MethodPut, user))
	assert.Equal(t, Allow, e.Decide("/api/v1/user/addresses/1", http.MethodDelete, user))
}

func TestDecide_ReadOnlyCallerDeniedDelete(t *testing.T) {
	e := testEvaluator()

	// Caller holding only user:read may GET but not DELETE in the user area.
	readOnly := &Identity{
		AccountID:   "acc-ro",
		Email:       "ro@example.com",
		Role:        RoleUser,
		Permissions: []Permission{PermUserRead},
	}

	assert.Equal(t, Allow, e.Decide("/api/v1/user/orders", http.MethodGet, readOnly))
	assert.Equal(t, Deny, e.Decide("/api/v1/user/orders", http.MethodDelete, readOnly))
}

func TestDecide_AdminAreaDeniesOtherRoles(t *testing.T) {
	e := testEvaluator()
	admin := mustIdentity(t, RoleAdmin)
	user := mustIdentity(t, RoleUser)

	assert.Equal(t, Allow, e.Decide("/api/v1/admin/accounts", http.MethodGet, admin))
	assert.Equal(t, Allow, e.Decide("/api/v1/admin/accounts", http.MethodDelete, admin))
	assert.Equal(t, Deny, e.Decide("/api/v1/admin/accounts", http.MethodGet, user))
	assert.Equal(t, Deny, e.Decide("/api/v1/admin/accounts", http.MethodGet, nil))
}

func TestDecide_ShopStaffArea(t *testing.T) {
	e := testEvaluator()
	staff := mustIdentity(t, RoleShopStaff)

	assert.Equal(t, Allow, e.Decide("/api/v1/shopstaff/orders", http.MethodGet, staff))
	assert.Equal(t, Allow, e.Decide("/api/v1/shopstaff/orders/ord-1/status", http.MethodPut, staff))
	// POST is unmapped for the shopstaff area, so role membership decides.
	assert.Equal(t, Allow, e.Decide("/api/v1/shopstaff/orders", http.MethodPost, staff))

	user := mustIdentity(t, RoleUser)
	assert.Equal(t, Deny, e.Decide("/api/v1/shopstaff/orders", http.MethodGet, user))
	assert.Equal(t, Deny, e.Decide("/api/v1/shopstaff/orders/ord-1/status", http.MethodPut, user))
}

func TestDecide_SharedUsersAreaUnion(t *testing.T) {
	e := testEvaluator()

	user := mustIdentity(t, RoleUser)
	staff := mustIdentity(t, RoleShopStaff)
	owner := mustIdentity(t, RoleShopOwner)
	admin := mustIdentity(t, RoleAdmin)

	// GET: user, shopstaff and shopowner reads are all accepted.
	assert.Equal(t, Allow, e.Decide("/api/v1/users/me", http.MethodGet, user))
	assert.Equal(t, Allow, e.Decide("/api/v1/users/me", http.MethodGet, staff))
	assert.Equal(t, Allow, e.Decide("/api/v1/users/me", http.MethodGet, owner))
	assert.Equal(t, Deny, e.Decide("/api/v1/users/me", http.MethodGet, admin))

	// DELETE: only shopowner and user deletes qualify.
	assert.Equal(t, Allow, e.Decide("/api/v1/users/me", http.MethodDelete, user))
	assert.Equal(t, Allow, e.Decide("/api/v1/users/me", http.MethodDelete, owner))
	assert.Equal(t, Deny, e.Decide("/api/v1/users/me", http.MethodDelete, staff))

	// POST is unmapped: role membership in the shared area decides.
	assert.Equal(t, Allow, e.Decide("/api/v1/users/avatar", http.MethodPost, staff))
	assert.Equal(t, Deny, e.Decide("/api/v1/users/avatar", http.MethodPost, admin))
}

func TestDecide_UsersRuleWinsOverUserPrefix(t *testing.T) {
	e := testEvaluator()

	// "/api/v1/user" is a string prefix of "/api/v1/users/..." paths; the
	// shared rule must match first or shopstaff would lose access.
	staff := mustIdentity(t, RoleShopStaff)
	assert.Equal(t, Allow, e.Decide("/api/v1/users/me", http.MethodPut, staff))
}

func TestDecide_UnmatchedPathRequiresAuthentication(t *testing.T) {
	e := testEvaluator()
	user := mustIdentity(t, RoleUser)

	assert.Equal(t, Allow, e.Decide("/api/v1/reviews", http.MethodPost, user))
	assert.Equal(t, Deny, e.Decide("/api/v1/reviews", http.MethodPost, nil))
	assert.Equal(t, Deny, e.Decide("/api/v1/reviews", http.MethodPost, &Identity{}))
}

func TestDecide_AnonymousDeniedInsideAreas(t *testing.T) {
	e := testEvaluator()

	assert.Equal(t, Deny, e.Decide("/api/v1/user/orders", http.MethodGet, nil))
	assert.Equal(t, Deny, e.Decide("/api/v1/shopowner/dashboard", http.MethodGet, nil))
	// Unmapped method with anonymous caller is also denied.
	assert.Equal(t, Deny, e.Decide("/api/v1/admin/accounts", http.MethodPatch, nil))
}
