package flashdeck_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"

	"github.com/flashdeck/flashdeck"
	"github.com/flashdeck/flashdeck/middleware/tokenware"
)

func newRouteAuthenticator(t *testing.T, tracker *MockUserTracker) *flashdeck.RouteAuthenticator {
	t.Helper()

	hasher := flashdeck.NewHasher("test-pepper")
	provider := flashdeck.NewUserProvider(tracker, hasher)
	auther := flashdeck.NewAuthenticator(provider, testConfig{})

	routeAuth, err := flashdeck.NewHTTPAuthenticator(auther, testConfig{})
	assert.NoError(t, err)
	return routeAuth
}

func loginToken(t *testing.T, tracker *MockUserTracker) string {
	t.Helper()

	hasher := flashdeck.NewHasher("test-pepper")
	provider := flashdeck.NewUserProvider(tracker, hasher)
	auther := flashdeck.NewAuthenticator(provider, testConfig{})

	user := hashedTestUser(t, hasher, "password123")
	tracker.On("GetByIdentifier", context.Background(), "testuser").Return(user, nil)
	tracker.On("TrackSuccessfulLogin", context.Background(), user).Return(nil)

	token, _, err := auther.Login(context.Background(), "testuser", "password123")
	assert.NoError(t, err)
	return token
}

func runGate(gate router.MiddlewareFunc, ctx router.Context) error {
	return gate(func(c router.Context) error {
		return c.Next()
	})(ctx)
}

func TestAPIRouteFailureStyle(t *testing.T) {
	t.Run("missing token answers 401 JSON", func(t *testing.T) {
		auth := newRouteAuthenticator(t, new(MockUserTracker))
		gate := auth.ProtectedRoute(tokenware.PolicyRegistered, auth.MakeAPIRouteAuthErrorHandler())

		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("")
		ctx.On("OriginalURL").Return("/api/friends")

		err := runGate(gate, ctx)

		assert.NoError(t, err)
		assert.False(t, ctx.NextCalled)
		assert.Equal(t, http.StatusUnauthorized, ctx.StatusCodeM)
		assert.Contains(t, ctx.ResponseBodyM, "token is malformed")
	})

	t.Run("invalid token answers 401 JSON", func(t *testing.T) {
		auth := newRouteAuthenticator(t, new(MockUserTracker))
		gate := auth.ProtectedRoute(tokenware.PolicyRegistered, auth.MakeAPIRouteAuthErrorHandler())

		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("Bearer not.a.token")
		ctx.On("OriginalURL").Return("/api/friends")

		err := runGate(gate, ctx)

		assert.NoError(t, err)
		assert.False(t, ctx.NextCalled)
		assert.Equal(t, http.StatusUnauthorized, ctx.StatusCodeM)
	})

	t.Run("non admin on an admin route answers 403 JSON", func(t *testing.T) {
		tracker := new(MockUserTracker)
		token := loginToken(t, tracker)

		auth := newRouteAuthenticator(t, tracker)
		gate := auth.ProtectedRoute(tokenware.PolicyAdminOnly, auth.MakeAPIRouteAuthErrorHandler())

		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("Bearer " + token)
		ctx.On("OriginalURL").Return("/api/admin/users")

		err := runGate(gate, ctx)

		assert.NoError(t, err)
		assert.False(t, ctx.NextCalled)
		assert.Equal(t, http.StatusForbidden, ctx.StatusCodeM)
		assert.Contains(t, ctx.ResponseBodyM, "insufficient permissions")
	})
}

func TestViewRouteFailureStyle(t *testing.T) {
	t.Run("missing token redirects to login", func(t *testing.T) {
		auth := newRouteAuthenticator(t, new(MockUserTracker))
		gate := auth.ProtectedRoute(tokenware.PolicyRegistered, auth.MakeClientRouteAuthErrorHandler(false))

		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("")
		ctx.On("OriginalURL").Return("/sets/1")
		ctx.On("Method").Return("GET")
		ctx.On("Redirect", "/login", []int{http.StatusFound}).Return(nil)

		err := runGate(gate, ctx)

		assert.NoError(t, err)
		assert.False(t, ctx.NextCalled)
		assert.Equal(t, http.StatusFound, ctx.StatusCodeM)
		// the rejected route is preserved for the post-login redirect
		assert.Equal(t, "/sets/1", ctx.CookiesM["rejected_route"])
	})
}
