package flashdeck

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// Text codes carried on structured errors so API clients can branch
// without string matching.
const (
	TextCodeInvalidCreds        = "INVALID_CREDENTIALS"
	TextCodeTooManyAttempts     = "TOO_MANY_ATTEMPTS"
	TextCodeEmptyPassword       = "EMPTY_PASSWORD"
	TextCodePasswordMismatch    = "PASSWORD_MISMATCH"
	TextCodeUsernameTaken       = "USERNAME_TAKEN"
	TextCodeEmailTaken          = "EMAIL_TAKEN"
	TextCodeTokenExpired        = "TOKEN_EXPIRED"
	TextCodeTokenMalformed      = "TOKEN_MALFORMED"
	TextCodeBadSignature        = "BAD_SIGNATURE"
	TextCodeIssuerMismatch      = "ISSUER_MISMATCH"
	TextCodeAudienceMismatch    = "AUDIENCE_MISMATCH"
	TextCodeSessionNotFound     = "SESSION_NOT_FOUND"
	TextCodeSessionDecodeError  = "SESSION_DECODE_ERROR"
	TextCodeClaimsMappingError  = "CLAIMS_MAPPING_ERROR"
	TextCodeDataParseError      = "DATA_PARSE_ERROR"
	TextCodeUnauthenticated     = "UNAUTHENTICATED"
	TextCodeForbidden           = "FORBIDDEN"
	TextCodeRecordNotFound      = "RECORD_NOT_FOUND"
	TextCodeFriendRequestClosed = "FRIEND_REQUEST_CLOSED"
)

// ErrIdentityNotFound is returned when no account matches the identifier
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithTextCode(TextCodeRecordNotFound)

// ErrMismatchedHashAndPassword is the uniform bad-credentials error. The
// same value covers unknown identifiers and wrong passwords so responses
// do not leak which accounts exist.
var ErrMismatchedHashAndPassword = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds)

// ErrTooManyLoginAttempts is returned when an account is in cooldown
var ErrTooManyLoginAttempts = errors.New("too many login attempts", errors.CategoryRateLimit).
	WithTextCode(TextCodeTooManyAttempts)

// ErrNoEmptyString rejects empty passwords before hashing
var ErrNoEmptyString = errors.New("password cannot be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword)

// ErrPasswordMismatch is returned when password and confirmation differ
var ErrPasswordMismatch = errors.New("passwords do not match", errors.CategoryValidation).
	WithTextCode(TextCodePasswordMismatch)

// ErrUsernameTaken is returned when registration hits an existing username
var ErrUsernameTaken = errors.New("username is already taken", errors.CategoryConflict).
	WithTextCode(TextCodeUsernameTaken)

// ErrEmailTaken is returned when registration hits an existing email
var ErrEmailTaken = errors.New("email is already registered", errors.CategoryConflict).
	WithTextCode(TextCodeEmailTaken)

// ErrTokenExpired is returned for tokens past their expiry
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired)

// ErrTokenMalformed is returned for tokens that do not parse
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed)

// ErrTokenSignatureInvalid is returned when the HMAC does not verify
var ErrTokenSignatureInvalid = errors.New("token signature is invalid", errors.CategoryAuth).
	WithTextCode(TextCodeBadSignature)

// ErrTokenIssuerMismatch is returned when the iss claim is not ours
var ErrTokenIssuerMismatch = errors.New("token issuer mismatch", errors.CategoryAuth).
	WithTextCode(TextCodeIssuerMismatch)

// ErrTokenAudienceMismatch is returned when the aud claim is not ours
var ErrTokenAudienceMismatch = errors.New("token audience mismatch", errors.CategoryAuth).
	WithTextCode(TextCodeAudienceMismatch)

// ErrUnableToFindSession is the error when our request has no auth cookie
var ErrUnableToFindSession = errors.New("unable to find session", errors.CategoryAuth).
	WithTextCode(TextCodeSessionNotFound)

// ErrUnableToDecodeSession unable to decode JWT from session cookie
var ErrUnableToDecodeSession = errors.New("unable to decode session", errors.CategoryAuth).
	WithTextCode(TextCodeSessionDecodeError)

// ErrUnableToMapClaims unable to get claims from token
var ErrUnableToMapClaims = errors.New("unable to map claims", errors.CategoryAuth).
	WithTextCode(TextCodeClaimsMappingError)

// ErrUnableToParseData parse error
var ErrUnableToParseData = errors.New("unable to parse data", errors.CategoryBadInput).
	WithTextCode(TextCodeDataParseError)

// ErrUnauthenticated is returned by the gate when no valid token resolved
var ErrUnauthenticated = errors.New("authentication required", errors.CategoryAuth).
	WithTextCode(TextCodeUnauthenticated).
	WithCode(errors.CodeUnauthorized)

// ErrForbidden is returned when a valid identity lacks the required role
var ErrForbidden = errors.New("insufficient permissions", errors.CategoryAuthz).
	WithTextCode(TextCodeForbidden).
	WithCode(errors.CodeForbidden)

// ErrFriendRequestClosed is returned when acting on a non pending request
var ErrFriendRequestClosed = errors.New("friend request is no longer pending", errors.CategoryConflict).
	WithTextCode(TextCodeFriendRequestClosed)

// IsTokenExpiredError will check for expired tokens, including legacy
// string-matched errors coming out of the JWT parser.
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	var rich *errors.Error
	if errors.As(err, &rich) && rich.TextCode == TextCodeTokenExpired {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	var rich *errors.Error
	if errors.As(err, &rich) && rich.TextCode == TextCodeTokenMalformed {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
