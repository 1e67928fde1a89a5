package flashdeck

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// RegisterUserMessage carries a registration request
type RegisterUserMessage struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// RegisterUserHandler creates new accounts
type RegisterUserHandler struct {
	repo   RepositoryManager
	hasher PasswordAuthenticator
}

// NewRegisterUserHandler wires the registration handler
func NewRegisterUserHandler(repo RepositoryManager, hasher PasswordAuthenticator) *RegisterUserHandler {
	return &RegisterUserHandler{repo: repo, hasher: hasher}
}

// Execute registers the account. Uniqueness is checked up front for
// friendly errors; the unique indexes remain the real guard, and a
// constraint violation on insert maps back to the same errors.
func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	if event.Password != event.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}

	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if taken, err := h.repo.Users().UsernameExists(ctx, event.Username); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check username")
		} else if taken {
			return ErrUsernameTaken
		}

		if taken, err := h.repo.Users().EmailExists(ctx, event.Email); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email")
		} else if taken {
			return ErrEmailTaken
		}

		hash, salt, err := h.hasher.HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.PasswordHash = hash
		user.Salt = salt
		user.Email = strings.TrimSpace(event.Email)
		user.Username = getUsername(event.Username, event.Email)
		user.FirstName = event.FirstName
		user.LastName = event.LastName

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return mapConstraintError(err)
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}

		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	return user, nil
}

// mapConstraintError turns a unique-index violation into the matching
// registration error. Covers the race where two registrations pass the
// fast-path existence checks together.
func mapConstraintError(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique") || strings.Contains(msg, "constraint") {
		if strings.Contains(msg, "email") {
			return ErrEmailTaken
		}
		if strings.Contains(msg, "username") {
			return ErrUsernameTaken
		}
	}
	return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
}

func getUsername(username, email string) string {
	username = strings.TrimSpace(username)
	if username != "" {
		return username
	}

	if strings.Contains(email, "@") {
		username = strings.Split(email, "@")[0]
	}

	return username
}
