package auth

// Role is an authorisation tier.
type Role string

const (
	// RoleViewer may read feature status, settings and throttles.
	RoleViewer Role = "viewer"

	// RoleOperator may also enable and disable features.
	RoleOperator Role = "operator"

	// RoleAdmin may also change feature settings.
	RoleAdmin Role = "admin"
)

// ValidRoles lists every role a token may carry.
var ValidRoles = []Role{RoleViewer, RoleOperator, RoleAdmin}

// IsValidRole reports whether r is one of ValidRoles.
func IsValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// Permission is a named capability.
type Permission string

const (
	PermFeatureRead      Permission = "feature:read"
	PermFeatureOperate   Permission = "feature:operate"
	PermFeatureConfigure Permission = "feature:configure"
)

// rolePermissions is the single source of truth for the authorisation model.
var rolePermissions = map[Role][]Permission{
	RoleViewer: {
		PermFeatureRead,
	},
	RoleOperator: {
		PermFeatureRead,
		PermFeatureOperate,
	},
	RoleAdmin: {
		PermFeatureRead,
		PermFeatureOperate,
		PermFeatureConfigure,
	},
}

// HasPermission reports whether role grants perm.
func HasPermission(role Role, perm Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}
