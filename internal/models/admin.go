package models

// Admin roles
const (
	RoleManager = "manager"
	RoleSuper   = "super"
)

// Admin is a panel identity record. UserID is the Telegram account id and
// never changes; Username is the unique panel handle.
type Admin struct {
	ID       string `json:"_id"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// IsSuper reports whether the admin holds the super role.
func (a *Admin) IsSuper() bool {
	return a.Role == RoleSuper
}
