package flashdeck_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"github.com/flashdeck/flashdeck"
)

func TestJWTClaimsUserID(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		want    int64
	}{
		{"numeric subject", "42", 42},
		{"large id", "9007199254740993", 9007199254740993},
		{"non numeric subject", "not-a-number", 0},
		{"empty subject", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := &flashdeck.JWTClaims{
				RegisteredClaims: jwt.RegisteredClaims{Subject: tt.subject},
			}
			assert.Equal(t, tt.want, claims.UserID())
			assert.Equal(t, tt.subject, claims.Subject())
		})
	}
}

func TestJWTClaimsRoleFallback(t *testing.T) {
	t.Run("prefers the role claim", func(t *testing.T) {
		claims := &flashdeck.JWTClaims{
			UserRole: flashdeck.RoleAdmin,
			UserType: flashdeck.RoleUser,
		}
		assert.Equal(t, flashdeck.RoleAdmin, claims.Role())
	})

	t.Run("falls back to the legacy claim", func(t *testing.T) {
		claims := &flashdeck.JWTClaims{UserType: flashdeck.RoleAdmin}
		assert.Equal(t, flashdeck.RoleAdmin, claims.Role())
		assert.True(t, claims.IsAdmin())
	})

	t.Run("empty when neither is set", func(t *testing.T) {
		claims := &flashdeck.JWTClaims{}
		assert.Equal(t, flashdeck.UserRole(""), claims.Role())
		assert.False(t, claims.IsAdmin())
	})
}

func TestJWTClaimsHasRole(t *testing.T) {
	claims := &flashdeck.JWTClaims{UserRole: flashdeck.RoleUser}

	assert.True(t, claims.HasRole(flashdeck.RoleUser))
	assert.False(t, claims.HasRole(flashdeck.RoleAdmin))
}

func TestJWTClaimsTimes(t *testing.T) {
	t.Run("returns claim times", func(t *testing.T) {
		issued := time.Now().Truncate(time.Second)
		expires := issued.Add(time.Hour)

		claims := &flashdeck.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				IssuedAt:  jwt.NewNumericDate(issued),
				ExpiresAt: jwt.NewNumericDate(expires),
			},
		}

		assert.Equal(t, issued, claims.IssuedAt())
		assert.Equal(t, expires, claims.Expires())
	})

	t.Run("zero time when claims are absent", func(t *testing.T) {
		claims := &flashdeck.JWTClaims{}

		assert.True(t, claims.IssuedAt().IsZero())
		assert.True(t, claims.Expires().IsZero())
	})
}
