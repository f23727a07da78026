package models

// Role is the role string the upstream API assigns to a user
type Role string

// Role constants
const (
	RoleSuperAdmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleResident   Role = "resident"
	RoleSupplier   Role = "supplier"
)

// AdminRoles is the set of roles allowed into the admin area
var AdminRoles = []Role{RoleAdmin, RoleSuperAdmin}

// IsAdministrative reports whether the role belongs to the administrative tier
func (r Role) IsAdministrative() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// User is the profile snapshot cached client-side after login
type User struct {
	ID            ID     `json:"id"`
	Role          Role   `json:"role"`
	CondominiumID ID     `json:"condominiumId,omitempty"`
	SupplierID    ID     `json:"supplierId,omitempty"`
	Name          string `json:"name"`
	Email         string `json:"email"`
}

// Session pairs the auth token with the cached user profile
type Session struct {
	Token string
	User  *User
}

// IsValid checks that both halves of the session are present
func (s *Session) IsValid() bool {
	return s != nil && s.Token != "" && s.User != nil
}
