package authz

import (
	"net/http"
	"strings"
)

// Decision is the outcome of an access evaluation.
type Decision int

const (
	// Deny rejects the request. The middleware maps it to 401 or 403
	// depending on whether the caller is authenticated.
	Deny Decision = iota
	// Allow admits the request.
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// areaRule guards one path prefix. For the mapped methods the caller must
// hold one of the listed permissions; for any other method role membership
// in one of the rule's roles suffices.
type areaRule struct {
	prefix  string
	methods map[string][]Permission
	roles   []Role
}

// Evaluator decides allow/deny for a request path and method given the
// caller's identity. It holds no mutable state and is safe for concurrent use.
//
// Rules are evaluated in declaration order, first match wins, so more
// specific prefixes must be registered before shorter ones that would also
// match ("/api/v1/users" before "/api/v1/user").
type Evaluator struct {
	publicExact  map[string]struct{}
	publicPrefix []string
	rules        []areaRule
}

// Config carries the externally supplied allow-list. Patterns ending in "/*"
// match by prefix; all others match exactly.
type Config struct {
	PublicPatterns []string
}

// DefaultPublicPatterns is the marketplace's public allow-list: auth and
// registration endpoints plus the read-only catalog.
func DefaultPublicPatterns() []string {
	return []string{
		"/",
		"/healthz",
		"/readyz",
		"/metrics",
		"/api/v1/auth/*",
		"/oauth2/*",
		"/api/v1/users/register",
		"/api/v1/users/authenticate",
		"/api/v1/users/reset-password",
		"/api/v1/users/verify/register",
		"/api/v1/users/verify/reset-password",
		"/api/v1/products",
		"/api/v1/products/*",
		"/api/v1/shops",
		"/api/v1/shops/*",
		"/api/v1/birds",
		"/api/v1/birds/*",
		"/api/v1/accessories",
		"/api/v1/accessories/*",
		"/api/v1/foods",
		"/api/v1/foods/*",
	}
}

// NewEvaluator builds an evaluator with the given public allow-list and the
// static area rule table.
func NewEvaluator(cfg Config) *Evaluator {
	e := &Evaluator{
		publicExact: make(map[string]struct{}),
	}

	for _, p := range cfg.PublicPatterns {
		if strings.HasSuffix(p, "/*") {
			e.publicPrefix = append(e.publicPrefix, strings.TrimSuffix(p, "*"))
		} else {
			e.publicExact[p] = struct{}{}
		}
	}

	// Declaration order matters: the shared "/api/v1/users" area must come
	// before "/api/v1/user", which is a string prefix of it.
	e.rules = []areaRule{
		{
			prefix: "/api/v1/admin",
			methods: map[string][]Permission{
				http.MethodGet:    {PermAdminRead},
				http.MethodPost:   {PermAdminCreate},
				http.MethodPut:    {PermAdminUpdate},
				http.MethodDelete: {PermAdminDelete},
			},
			roles: []Role{RoleAdmin},
		},
		{
			prefix: "/api/v1/shopowner",
			methods: map[string][]Permission{
				http.MethodGet:    {PermShopOwnerRead},
				http.MethodPost:   {PermShopOwnerCreate},
				http.MethodPut:    {PermShopOwnerUpdate},
				http.MethodDelete: {PermShopOwnerDelete},
			},
			roles: []Role{RoleShopOwner},
		},
		{
			prefix: "/api/v1/users",
			methods: map[string][]Permission{
				http.MethodGet:    {PermUserRead, PermShopStaffRead, PermShopOwnerRead},
				http.MethodPut:    {PermUserUpdate, PermShopStaffUpdate, PermShopOwnerUpdate},
				http.MethodDelete: {PermShopOwnerDelete, PermUserDelete},
			},
			roles: []Role{RoleUser, RoleShopStaff, RoleShopOwner},
		},
		{
			prefix: "/api/v1/user",
			methods: map[string][]Permission{
				http.MethodGet:    {PermUserRead},
				http.MethodPost:   {PermUserCreate},
				http.MethodPut:    {PermUserUpdate},
				http.MethodDelete: {PermUserDelete},
			},
			roles: []Role{RoleUser},
		},
		{
			prefix: "/api/v1/shopstaff",
			methods: map[string][]Permission{
				http.MethodGet: {PermShopStaffRead},
				http.MethodPut: {PermShopStaffUpdate},
			},
			roles: []Role{RoleShopStaff},
		},
	}

	return e
}

// Decide evaluates the request in rule order:
//
//  1. Public allow-list (exact or prefix) allows unconditionally.
//  2. The first area rule whose prefix matches requires the method's mapped
//     permission; unmapped methods fall back to role membership.
//  3. No rule matched: allow any authenticated caller, deny anonymous.
func (e *Evaluator) Decide(path, method string, identity *Identity) Decision {
	if e.isPublic(path) {
		return Allow
	}

	for _, rule := range e.rules {
		if !strings.HasPrefix(path, rule.prefix) {
			continue
		}
		if identity.Anonymous() {
			return Deny
		}

		required, mapped := rule.methods[method]
		if !mapped {
			for _, role := range rule.roles {
				if identity.Role == role {
					return Allow
				}
			}
			return Deny
		}

		for _, perm := range required {
			if identity.HasPermission(perm) {
				return Allow
			}
		}
		return Deny
	}

	if identity.Anonymous() {
		return Deny
	}
	return Allow
}

func (e *Evaluator) isPublic(path string) bool {
	if _, ok := e.publicExact[path]; ok {
		return true
	}
	for _, prefix := range e.publicPrefix {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
