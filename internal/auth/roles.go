package auth

// Role is the authorization level resolved from the on-chain registry.
// The zero value is the deactivated sentinel: an address the registry does
// not recognise carries no authorization at all.
type Role int

const (
	RoleDeactivated    Role = 0
	RoleAdmin          Role = 1
	RoleOperationAdmin Role = 2
	RoleHeadOfBD       Role = 3
	RoleSuperAdmin     Role = 4
	RoleOwner          Role = 5
)

// Valid reports whether the code is one the registry can legitimately return.
func (r Role) Valid() bool {
	return r >= RoleDeactivated && r <= RoleOwner
}

// ManagesAccounts reports whether the role may create, update, or toggle
// other admin accounts.
func (r Role) ManagesAccounts() bool {
	return r == RoleSuperAdmin || r == RoleOwner
}

func (r Role) String() string {
	switch r {
	case RoleDeactivated:
		return "deactivated"
	case RoleAdmin:
		return "admin"
	case RoleOperationAdmin:
		return "operation-admin"
	case RoleHeadOfBD:
		return "head-of-bd"
	case RoleSuperAdmin:
		return "super-admin"
	case RoleOwner:
		return "owner"
	default:
		return "unknown"
	}
}
