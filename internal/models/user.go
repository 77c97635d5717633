package models

// Role represents the capability level of an acting user
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUsher Role = "usher"
)

// User represents the authenticated-identity record stored at users/{uid}.
// One user account exists per church; the church field scopes every member,
// team and attendance query the user performs.
type User struct {
	UID          string `json:"-"`
	Email        string `json:"email"`
	Church       string `json:"church"`
	Role         Role   `json:"role"`
	Phone        string `json:"phone,omitempty"`
	Address      string `json:"address,omitempty"`
	PasswordHash string `json:"passwordHash,omitempty"`
}

// IsAdmin reports whether the user may perform mutating actions
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
