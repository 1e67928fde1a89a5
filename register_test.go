package flashdeck_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/flashdeck/flashdeck"
)

func TestRegisterUserHandlerExecute(t *testing.T) {
	ctx := context.Background()
	hasher := flashdeck.NewHasher("test-pepper")

	t.Run("registers a new account", func(t *testing.T) {
		users := new(MockUsers)
		repo := &stubRepoManager{users: users}
		handler := flashdeck.NewRegisterUserHandler(repo, hasher)

		users.On("UsernameExists", mock.Anything, "newuser").Return(false, nil).Once()
		users.On("EmailExists", mock.Anything, "new@example.com").Return(false, nil).Once()
		users.On("CreateTx", mock.Anything, mock.Anything, mock.AnythingOfType("*flashdeck.User")).
			Return(nil, nil).Once()

		user, err := handler.Execute(ctx, flashdeck.RegisterUserMessage{
			Username:        "newuser",
			Email:           "new@example.com",
			Password:        "password123",
			ConfirmPassword: "password123",
			FirstName:       "New",
			LastName:        "User",
		})

		assert.NoError(t, err)
		assert.NotNil(t, user)
		assert.Equal(t, "newuser", user.Username)
		assert.Equal(t, "new@example.com", user.Email)
		assert.Equal(t, "New", user.FirstName)
		assert.Equal(t, "User", user.LastName)
		assert.NotEmpty(t, user.PasswordHash)
		assert.NotEmpty(t, user.Salt)
		assert.NoError(t, hasher.ComparePasswordAndHash("password123", user.PasswordHash, user.Salt))

		users.AssertExpectations(t)
	})

	t.Run("derives the username from the email local part", func(t *testing.T) {
		users := new(MockUsers)
		repo := &stubRepoManager{users: users}
		handler := flashdeck.NewRegisterUserHandler(repo, hasher)

		users.On("UsernameExists", mock.Anything, "").Return(false, nil).Once()
		users.On("EmailExists", mock.Anything, "pepe@example.com").Return(false, nil).Once()
		users.On("CreateTx", mock.Anything, mock.Anything, mock.AnythingOfType("*flashdeck.User")).
			Return(nil, nil).Once()

		user, err := handler.Execute(ctx, flashdeck.RegisterUserMessage{
			Email:           "pepe@example.com",
			Password:        "password123",
			ConfirmPassword: "password123",
		})

		assert.NoError(t, err)
		assert.Equal(t, "pepe", user.Username)

		users.AssertExpectations(t)
	})

	t.Run("rejects mismatched password confirmation", func(t *testing.T) {
		users := new(MockUsers)
		repo := &stubRepoManager{users: users}
		handler := flashdeck.NewRegisterUserHandler(repo, hasher)

		user, err := handler.Execute(ctx, flashdeck.RegisterUserMessage{
			Username:        "newuser",
			Email:           "new@example.com",
			Password:        "password123",
			ConfirmPassword: "different",
		})

		assert.Nil(t, user)
		assert.ErrorIs(t, err, flashdeck.ErrPasswordMismatch)
		users.AssertNotCalled(t, "CreateTx", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects a taken username", func(t *testing.T) {
		users := new(MockUsers)
		repo := &stubRepoManager{users: users}
		handler := flashdeck.NewRegisterUserHandler(repo, hasher)

		users.On("UsernameExists", mock.Anything, "taken").Return(true, nil).Once()

		user, err := handler.Execute(ctx, flashdeck.RegisterUserMessage{
			Username:        "taken",
			Email:           "new@example.com",
			Password:        "password123",
			ConfirmPassword: "password123",
		})

		assert.Nil(t, user)
		assert.ErrorIs(t, err, flashdeck.ErrUsernameTaken)

		users.AssertExpectations(t)
	})

	t.Run("rejects a taken email", func(t *testing.T) {
		users := new(MockUsers)
		repo := &stubRepoManager{users: users}
		handler := flashdeck.NewRegisterUserHandler(repo, hasher)

		users.On("UsernameExists", mock.Anything, "newuser").Return(false, nil).Once()
		users.On("EmailExists", mock.Anything, "taken@example.com").Return(true, nil).Once()

		user, err := handler.Execute(ctx, flashdeck.RegisterUserMessage{
			Username:        "newuser",
			Email:           "taken@example.com",
			Password:        "password123",
			ConfirmPassword: "password123",
		})

		assert.Nil(t, user)
		assert.ErrorIs(t, err, flashdeck.ErrEmailTaken)

		users.AssertExpectations(t)
	})

	t.Run("maps a unique index violation on insert", func(t *testing.T) {
		users := new(MockUsers)
		repo := &stubRepoManager{users: users}
		handler := flashdeck.NewRegisterUserHandler(repo, hasher)

		users.On("UsernameExists", mock.Anything, "newuser").Return(false, nil).Once()
		users.On("EmailExists", mock.Anything, "new@example.com").Return(false, nil).Once()
		users.On("CreateTx", mock.Anything, mock.Anything, mock.AnythingOfType("*flashdeck.User")).
			Return(nil, errors.New("UNIQUE constraint failed: users.email")).Once()

		user, err := handler.Execute(ctx, flashdeck.RegisterUserMessage{
			Username:        "newuser",
			Email:           "new@example.com",
			Password:        "password123",
			ConfirmPassword: "password123",
		})

		assert.Nil(t, user)
		assert.ErrorIs(t, err, flashdeck.ErrEmailTaken)

		users.AssertExpectations(t)
	})

	t.Run("rejects an empty password", func(t *testing.T) {
		users := new(MockUsers)
		repo := &stubRepoManager{users: users}
		handler := flashdeck.NewRegisterUserHandler(repo, hasher)

		users.On("UsernameExists", mock.Anything, "newuser").Return(false, nil).Once()
		users.On("EmailExists", mock.Anything, "new@example.com").Return(false, nil).Once()

		user, err := handler.Execute(ctx, flashdeck.RegisterUserMessage{
			Username:        "newuser",
			Email:           "new@example.com",
			Password:        "",
			ConfirmPassword: "",
		})

		assert.Nil(t, user)
		assert.Error(t, err)
		users.AssertNotCalled(t, "CreateTx", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("honors a cancelled context", func(t *testing.T) {
		users := new(MockUsers)
		repo := &stubRepoManager{users: users}
		handler := flashdeck.NewRegisterUserHandler(repo, hasher)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		user, err := handler.Execute(cancelled, flashdeck.RegisterUserMessage{
			Username:        "newuser",
			Email:           "new@example.com",
			Password:        "password123",
			ConfirmPassword: "password123",
		})

		assert.Nil(t, user)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRegisterUserMessageType(t *testing.T) {
	assert.Equal(t, "user.register", flashdeck.RegisterUserMessage{}.Type())
}
