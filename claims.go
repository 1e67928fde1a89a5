package flashdeck

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims represents structured JWT claims with role checking
type AuthClaims interface {
	Subject() string
	UserID() int64
	Username() string
	Email() string
	Role() UserRole
	HasRole(role UserRole) bool
	IsAdmin() bool
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims. The role is
// written twice on the wire: "role" is what we read back, "UserType" is
// kept for clients that still check the legacy claim name.
type JWTClaims struct {
	jwt.RegisteredClaims
	UserName string   `json:"username,omitempty"`
	UserMail string   `json:"email,omitempty"`
	UserRole UserRole `json:"role,omitempty"`
	UserType UserRole `json:"UserType,omitempty"`
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the subject parsed as the account id, 0 if unparsable
func (c *JWTClaims) UserID() int64 {
	id, err := strconv.ParseInt(c.RegisteredClaims.Subject, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// Username returns the username claim
func (c *JWTClaims) Username() string {
	return c.UserName
}

// Email returns the email claim
func (c *JWTClaims) Email() string {
	return c.UserMail
}

// Role returns the user's role, falling back to the legacy claim when
// only one of the two was written.
func (c *JWTClaims) Role() UserRole {
	if c.UserRole != "" {
		return c.UserRole
	}
	return c.UserType
}

// HasRole checks if the user has a specific role
func (c *JWTClaims) HasRole(role UserRole) bool {
	return c.Role() == role
}

// IsAdmin reports whether the claims grant administrative access
func (c *JWTClaims) IsAdmin() bool {
	return c.Role().IsAdmin()
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
