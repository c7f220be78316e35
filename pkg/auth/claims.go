package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// AdminClaims is the subset of the backend-issued access token the
// storefront inspects before proxying admin calls.
type AdminClaims struct {
	UserID   any    `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	IsStaff  bool   `json:"is_staff"`
	jwt.RegisteredClaims
}

// Actor returns a printable identifier for logs.
func (c *AdminClaims) Actor() string {
	if c == nil {
		return ""
	}
	switch {
	case c.Email != "":
		return c.Email
	case c.Username != "":
		return c.Username
	case c.UserID != nil:
		return fmt.Sprint(c.UserID)
	default:
		return c.Subject
	}
}
