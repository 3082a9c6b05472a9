package model

// Role is the role claim attached to an authenticated caller.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleAdmin
}

// Caller is the identity supplied by the external identity provider. The
// claims are trusted verbatim; only the role is checked by the core.
type Caller struct {
	ID    string
	Name  string
	Email string
	Role  Role
}

// Student returns the caller as a student identity, or ErrForbidden.
func (c Caller) Student() (Caller, error) {
	if c.Role != RoleStudent || c.ID == "" {
		return Caller{}, ErrForbidden
	}
	return c, nil
}

// Admin returns nil when the caller holds the admin role.
func (c Caller) Admin() error {
	if c.Role != RoleAdmin {
		return ErrForbidden
	}
	return nil
}
