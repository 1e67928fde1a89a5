package flashdeck

import (
	"context"
	"reflect"
	"time"
)

// Auther authenticates credentials and mints bearer tokens
type Auther struct {
	provider       IdentityProvider
	tokenService   TokenService
	tokenValidator TokenValidator
	expirationDays int
	extendedDays   int
	logger         Logger
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	return &Auther{
		provider:       provider,
		tokenService:   tokenService,
		expirationDays: opts.GetTokenExpiration(),
		extendedDays:   opts.GetExtendedTokenDuration(),
		logger:         defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithTokenValidator sets a custom token validator for externally issued tokens.
func (s *Auther) WithTokenValidator(validator TokenValidator) *Auther {
	s.tokenValidator = validator
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies credentials and returns a signed token with the
// authenticated identity.
func (s *Auther) Login(ctx context.Context, identifier, password string) (string, Identity, error) {
	return s.login(ctx, identifier, password, s.expirationDays)
}

// LoginExtended is Login with the remember-me token lifetime
func (s *Auther) LoginExtended(ctx context.Context, identifier, password string) (string, Identity, error) {
	days := s.extendedDays
	if days <= 0 {
		days = s.expirationDays
	}
	return s.login(ctx, identifier, password, days)
}

func (s *Auther) login(ctx context.Context, identifier, password string, days int) (string, Identity, error) {
	identity, err := s.provider.VerifyIdentity(ctx, identifier, password)
	if err != nil {
		s.logger.Error("Login verify identity error: %v", err)
		return "", nil, err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Login identity is nil or zero value")
		return "", nil, ErrIdentityNotFound
	}

	token, err := s.tokenService.Generate(identity, time.Duration(days)*24*time.Hour)
	if err != nil {
		s.logger.Error("Login token generation error: %v", err)
		return "", nil, err
	}

	return token, identity, nil
}

// IdentityFromToken validates a raw token and resolves the identity it
// names against the store.
func (s *Auther) IdentityFromToken(token string) (Identity, error) {
	claims, err := s.validator().Validate(token)
	if err != nil {
		s.logger.Error("IdentityFromToken validation failed: %v", err)
		return nil, err
	}

	identity, err := s.provider.FindIdentityByIdentifier(context.Background(), claims.Username())
	if err != nil {
		s.logger.Error("IdentityFromToken find identity by identifier: %v", err)
		return nil, err
	}

	return identity, nil
}

// ClaimsFromToken validates a raw token and returns its claims without
// touching the store.
func (s *Auther) ClaimsFromToken(raw string) (AuthClaims, error) {
	claims, err := s.validator().Validate(raw)
	if err != nil {
		s.logger.Error("ClaimsFromToken validation failed: %v", err)
		return nil, err
	}
	return claims, nil
}

func (s *Auther) validator() TokenValidator {
	if s.tokenValidator != nil {
		return s.tokenValidator
	}
	return s.tokenService
}

var _ Authenticator = (*Auther)(nil)
