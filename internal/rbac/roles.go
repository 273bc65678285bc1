package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	RoleAdmin   = "admin"
	RoleCourier = "courier"
)

func IsAdmin(role string) bool { return role == RoleAdmin }
