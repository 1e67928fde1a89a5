package flashdeck_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"github.com/flashdeck/flashdeck"
)

func newTestIdentity(role flashdeck.UserRole) *MockIdentity {
	identity := &MockIdentity{}
	identity.On("ID").Return(int64(123))
	identity.On("Username").Return("testuser")
	identity.On("Email").Return("test@example.com")
	identity.On("Role").Return(role)
	return identity
}

func TestTokenServiceGenerate(t *testing.T) {
	signingKey := []byte("test-signing-key")
	issuer := "test-issuer"
	audience := jwt.ClaimStrings{"test-audience"}

	service := flashdeck.NewTokenService(signingKey, issuer, audience, nil)

	t.Run("generates a valid HS256 token", func(t *testing.T) {
		identity := newTestIdentity(flashdeck.RoleAdmin)

		tokenString, err := service.Generate(identity, 24*time.Hour)

		assert.NoError(t, err)
		assert.NotEmpty(t, tokenString)

		token, err := jwt.ParseWithClaims(tokenString, &flashdeck.JWTClaims{}, func(token *jwt.Token) (any, error) {
			return signingKey, nil
		})

		assert.NoError(t, err)
		assert.True(t, token.Valid)
		assert.Equal(t, "HS256", token.Method.Alg())

		claims, ok := token.Claims.(*flashdeck.JWTClaims)
		assert.True(t, ok)
		assert.Equal(t, "123", claims.Subject())
		assert.Equal(t, int64(123), claims.UserID())
		assert.Equal(t, "testuser", claims.Username())
		assert.Equal(t, "test@example.com", claims.Email())
		assert.Equal(t, flashdeck.RoleAdmin, claims.Role())
		assert.Equal(t, issuer, claims.Issuer)
		assert.Equal(t, audience, claims.Audience)
		assert.NotNil(t, claims.RegisteredClaims.IssuedAt)
		assert.NotNil(t, claims.RegisteredClaims.ExpiresAt)

		identity.AssertExpectations(t)
	})

	t.Run("writes the role under both claim names", func(t *testing.T) {
		identity := newTestIdentity(flashdeck.RoleUser)

		tokenString, err := service.Generate(identity, time.Hour)
		assert.NoError(t, err)

		mapClaims := jwt.MapClaims{}
		_, err = jwt.ParseWithClaims(tokenString, mapClaims, func(token *jwt.Token) (any, error) {
			return signingKey, nil
		})
		assert.NoError(t, err)

		assert.Equal(t, "User", mapClaims["role"])
		assert.Equal(t, "User", mapClaims["UserType"])
	})

	t.Run("sets expiry from the ttl", func(t *testing.T) {
		identity := newTestIdentity(flashdeck.RoleUser)

		before := time.Now()
		tokenString, err := service.Generate(identity, 48*time.Hour)
		after := time.Now()

		assert.NoError(t, err)

		claims, err := service.Validate(tokenString)
		assert.NoError(t, err)

		assert.True(t, claims.Expires().After(before.Add(48*time.Hour-time.Second)))
		assert.True(t, claims.Expires().Before(after.Add(48*time.Hour+time.Second)))
	})
}

func TestTokenServiceValidate(t *testing.T) {
	signingKey := []byte("test-signing-key")
	issuer := "test-issuer"
	audience := jwt.ClaimStrings{"test-audience"}

	service := flashdeck.NewTokenService(signingKey, issuer, audience, nil)

	t.Run("round trips a generated token", func(t *testing.T) {
		identity := newTestIdentity(flashdeck.RoleAdmin)

		tokenString, err := service.Generate(identity, time.Hour)
		assert.NoError(t, err)

		claims, err := service.Validate(tokenString)

		assert.NoError(t, err)
		assert.NotNil(t, claims)
		assert.Equal(t, int64(123), claims.UserID())
		assert.Equal(t, "testuser", claims.Username())
		assert.True(t, claims.IsAdmin())
	})

	t.Run("reads the role from the legacy claim when only it is present", func(t *testing.T) {
		legacy := &flashdeck.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    issuer,
				Subject:   "456",
				Audience:  audience,
				IssuedAt:  jwt.NewNumericDate(time.Now()),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
			UserType: flashdeck.RoleAdmin,
		}

		tokenString, err := service.SignClaims(legacy)
		assert.NoError(t, err)

		claims, err := service.Validate(tokenString)
		assert.NoError(t, err)
		assert.Equal(t, flashdeck.RoleAdmin, claims.Role())
		assert.True(t, claims.IsAdmin())
	})

	t.Run("rejects an expired token with no skew allowance", func(t *testing.T) {
		identity := newTestIdentity(flashdeck.RoleUser)

		tokenString, err := service.Generate(identity, -time.Second)
		assert.NoError(t, err)

		claims, err := service.Validate(tokenString)

		assert.Nil(t, claims)
		assert.ErrorIs(t, err, flashdeck.ErrTokenExpired)
		assert.True(t, flashdeck.IsTokenExpiredError(err))
	})

	t.Run("rejects a token signed with a different key", func(t *testing.T) {
		other := flashdeck.NewTokenService([]byte("some-other-key"), issuer, audience, nil)
		identity := newTestIdentity(flashdeck.RoleUser)

		tokenString, err := other.Generate(identity, time.Hour)
		assert.NoError(t, err)

		claims, err := service.Validate(tokenString)

		assert.Nil(t, claims)
		assert.ErrorIs(t, err, flashdeck.ErrTokenSignatureInvalid)
	})

	t.Run("rejects a token from a different issuer", func(t *testing.T) {
		other := flashdeck.NewTokenService(signingKey, "someone-else", audience, nil)
		identity := newTestIdentity(flashdeck.RoleUser)

		tokenString, err := other.Generate(identity, time.Hour)
		assert.NoError(t, err)

		claims, err := service.Validate(tokenString)

		assert.Nil(t, claims)
		assert.ErrorIs(t, err, flashdeck.ErrTokenIssuerMismatch)
	})

	t.Run("rejects a token for a different audience", func(t *testing.T) {
		other := flashdeck.NewTokenService(signingKey, issuer, jwt.ClaimStrings{"other-audience"}, nil)
		identity := newTestIdentity(flashdeck.RoleUser)

		tokenString, err := other.Generate(identity, time.Hour)
		assert.NoError(t, err)

		claims, err := service.Validate(tokenString)

		assert.Nil(t, claims)
		assert.ErrorIs(t, err, flashdeck.ErrTokenAudienceMismatch)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		claims, err := service.Validate("not.a.token")

		assert.Nil(t, claims)
		assert.True(t, flashdeck.IsMalformedError(err))
	})
}
