package flashdeck_test

import (
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"

	"github.com/flashdeck/flashdeck"
)

func TestIsTokenExpiredError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "structured token expired error",
			err:      flashdeck.ErrTokenExpired,
			expected: true,
		},
		{
			name:     "legacy token expired error (string match)",
			err:      errors.New("some wrapper: token is expired"),
			expected: true,
		},
		{
			name:     "different structured error",
			err:      flashdeck.ErrIdentityNotFound,
			expected: false,
		},
		{
			name:     "different legacy error",
			err:      errors.New("invalid token"),
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, flashdeck.IsTokenExpiredError(tt.err))
		})
	}
}

func TestIsMalformedError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "structured malformed error",
			err:      flashdeck.ErrTokenMalformed,
			expected: true,
		},
		{
			name:     "legacy malformed error (string match)",
			err:      errors.New("parse failed: token is malformed"),
			expected: true,
		},
		{
			name:     "missing token error",
			err:      errors.New("missing or malformed JWT"),
			expected: true,
		},
		{
			name:     "different error",
			err:      flashdeck.ErrTokenExpired,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, flashdeck.IsMalformedError(tt.err))
		})
	}
}

func TestErrorCategories(t *testing.T) {
	tests := []struct {
		name     string
		err      *goerrors.Error
		category goerrors.Category
		textCode string
	}{
		{"invalid credentials", flashdeck.ErrMismatchedHashAndPassword, goerrors.CategoryAuth, flashdeck.TextCodeInvalidCreds},
		{"identity not found", flashdeck.ErrIdentityNotFound, goerrors.CategoryNotFound, flashdeck.TextCodeRecordNotFound},
		{"too many attempts", flashdeck.ErrTooManyLoginAttempts, goerrors.CategoryRateLimit, flashdeck.TextCodeTooManyAttempts},
		{"empty password", flashdeck.ErrNoEmptyString, goerrors.CategoryValidation, flashdeck.TextCodeEmptyPassword},
		{"password mismatch", flashdeck.ErrPasswordMismatch, goerrors.CategoryValidation, flashdeck.TextCodePasswordMismatch},
		{"username taken", flashdeck.ErrUsernameTaken, goerrors.CategoryConflict, flashdeck.TextCodeUsernameTaken},
		{"email taken", flashdeck.ErrEmailTaken, goerrors.CategoryConflict, flashdeck.TextCodeEmailTaken},
		{"token expired", flashdeck.ErrTokenExpired, goerrors.CategoryAuth, flashdeck.TextCodeTokenExpired},
		{"bad signature", flashdeck.ErrTokenSignatureInvalid, goerrors.CategoryAuth, flashdeck.TextCodeBadSignature},
		{"forbidden", flashdeck.ErrForbidden, goerrors.CategoryAuthz, flashdeck.TextCodeForbidden},
		{"friend request closed", flashdeck.ErrFriendRequestClosed, goerrors.CategoryConflict, flashdeck.TextCodeFriendRequestClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.category, tt.err.Category)
			assert.Equal(t, tt.textCode, tt.err.TextCode)
		})
	}
}

func TestNotFoundDetection(t *testing.T) {
	assert.True(t, goerrors.IsNotFound(flashdeck.ErrIdentityNotFound))
	assert.False(t, goerrors.IsNotFound(flashdeck.ErrMismatchedHashAndPassword))
}
