package user

import (
	"errors"
	"strings"
	"time"

	"realty-system/auth"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Surname      string    `json:"surname"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Phone        string    `json:"phone,omitempty"`
	Role         auth.Role `json:"role"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

var ErrEmailTaken = errors.New("email already registered")

func (u *User) Validate() error {
	if len(strings.TrimSpace(u.Name)) < 2 {
		return errors.New("name must be at least 2 characters")
	}
	if len(strings.TrimSpace(u.Surname)) < 2 {
		return errors.New("surname must be at least 2 characters")
	}
	if !strings.Contains(u.Email, "@") {
		return errors.New("email is invalid")
	}
	if u.Role != auth.RoleOwner && u.Role != auth.RoleBuyer {
		return errors.New(`role must be "owner" or "buyer"`)
	}
	return nil
}
