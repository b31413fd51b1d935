package auth

import "errors"

type Role string

const (
	RoleOwner Role = "owner"
	RoleBuyer Role = "buyer"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleBuyer, RoleAdmin:
		return true
	}
	return false
}

// Principal is the authenticated caller attached to the request context.
type Principal struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

// IsAdmin reports whether the principal bypasses ownership checks.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)
