package authz

import "fmt"

// Role is a coarse-grained identity category. The set of roles is closed and
// known at compile time.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleShopOwner Role = "shopowner"
	RoleShopStaff Role = "shopstaff"
	RoleUser      Role = "user"
)

// Roles lists every defined role.
func Roles() []Role {
	return []Role{RoleAdmin, RoleShopOwner, RoleShopStaff, RoleUser}
}

// ParseRole converts a stored role string into a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleShopOwner, RoleShopStaff, RoleUser:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Permission is a fine-grained (area, action) capability.
type Permission string

const (
	PermAdminRead   Permission = "admin:read"
	PermAdminCreate Permission = "admin:create"
	PermAdminUpdate Permission = "admin:update"
	PermAdminDelete Permission = "admin:delete"

	PermShopOwnerRead   Permission = "shopowner:read"
	PermShopOwnerCreate Permission = "shopowner:create"
	PermShopOwnerUpdate Permission = "shopowner:update"
	PermShopOwnerDelete Permission = "shopowner:delete"

	PermShopStaffRead   Permission = "shopstaff:read"
	PermShopStaffUpdate Permission = "shopstaff:update"

	PermUserRead   Permission = "user:read"
	PermUserCreate Permission = "user:create"
	PermUserUpdate Permission = "user:update"
	PermUserDelete Permission = "user:delete"
)

// rolePermissions is the static role-to-permission table. It is never mutated
// after process start.
var rolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermAdminRead, PermAdminCreate, PermAdminUpdate, PermAdminDelete,
	},
	RoleShopOwner: {
		PermShopOwnerRead, PermShopOwnerCreate, PermShopOwnerUpdate, PermShopOwnerDelete,
	},
	RoleShopStaff: {
		PermShopStaffRead, PermShopStaffUpdate,
	},
	RoleUser: {
		PermUserRead, PermUserCreate, PermUserUpdate, PermUserDelete,
	},
}

// PermissionsFor resolves a role to its permission set. The returned slice is
// a copy; callers may not mutate the underlying table. An unknown role is a
// configuration error and should be treated as fatal at startup.
func PermissionsFor(role Role) ([]Permission, error) {
	perms, ok := rolePermissions[role]
	if !ok {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out, nil
}

// Identity is the per-request resolved principal. It is constructed once from
// a verified token by the authentication middleware and passed explicitly to
// every downstream call; nothing reads it from ambient global state.
type Identity struct {
	AccountID   string
	Email       string
	Role        Role
	Permissions []Permission
}

// Anonymous reports whether the identity belongs to an unauthenticated caller.
func (id *Identity) Anonymous() bool {
	return id == nil || id.AccountID == ""
}

// HasPermission reports whether the identity holds the given permission.
func (id *Identity) HasPermission(p Permission) bool {
	if id == nil {
		return false
	}
	for _, held := range id.Permissions {
		if held == p {
			return true
		}
	}
	return false
}

// NewIdentity builds an Identity for an account, resolving the role's
// permission set from the static table.
func NewIdentity(accountID, email string, role Role) (*Identity, error) {
	perms, err := PermissionsFor(role)
	if err != nil {
		return nil, err
	}
	return &Identity{
		AccountID:   accountID,
		Email:       email,
		Role:        role,
		Permissions: perms,
	}, nil
}
