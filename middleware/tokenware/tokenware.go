package tokenware

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-router"
)

var defaultTokenLookup = "header:" + router.HeaderAuthorization

// Policy is a per-route access requirement
type Policy string

const (
	// PolicyPublic lets anonymous requests through; a present valid
	// token still attaches claims to the context
	PolicyPublic Policy = "public"
	// PolicyRegistered requires any valid identity
	PolicyRegistered Policy = "registered"
	// PolicyAdminOnly requires a valid identity with the admin role
	PolicyAdminOnly Policy = "admin-only"
)

// TokenValidator interface for validating tokens without import cycles.
// This mirrors the TokenService.Validate method from the root package.
type TokenValidator interface {
	Validate(tokenString string) (AuthClaims, error)
}

// AuthClaims interface for structured claims without import cycles.
// This mirrors the AuthClaims interface from the root package.
type AuthClaims interface {
	Subject() string
	UserID() int64
	Username() string
	Email() string
	IsAdmin() bool
}

// Logger is the subset of the root logger the middleware needs
type Logger interface {
	Warn(format string, args ...any)
}

type Config struct {
	Filter         func(router.Context) bool
	SuccessHandler router.HandlerFunc
	ErrorHandler   router.ErrorHandler
	SigningKey     SigningKey
	SigningKeys    map[string]SigningKey
	ContextKey     string
	TokenLookup    string
	AuthScheme     string
	KeyFunc        jwt.Keyfunc
	JWKSetURLs     []string

	// TokenValidator is required for token validation
	TokenValidator TokenValidator

	// Policy is the access requirement enforced after validation
	Policy Policy

	// Logger receives warnings for non-header token sources
	Logger Logger

	// ContextEnricher is an optional function to propagate claims to the
	// standard Go context. If provided, it will be called after
	// successful token validation.
	ContextEnricher func(c context.Context, claims AuthClaims) context.Context
}

type SigningKey struct {
	JWTAlg string
	Key    any
}

// New builds the gate middleware. Resolution order follows the lookup
// definition; a valid token attaches claims under ContextKey, then the
// policy decides whether the request proceeds.
func New(config ...Config) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		cfg := GetDefaultConfig(config...)
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			raw, source, err := ExtractRawToken(ctx, cfg.getExtractors())
			if err != nil {
				if cfg.Policy == PolicyPublic {
					return cfg.SuccessHandler(ctx)
				}
				return cfg.ErrorHandler(ctx, err)
			}

			if source == SourceCookie || source == SourceQuery {
				cfg.Logger.Warn("token resolved from %s, prefer the Authorization header", source)
			}

			claims, err := cfg.TokenValidator.Validate(raw)
			if err != nil {
				// An invalid token fails even on public routes: garbage
				// credentials are reported, never silently ignored.
				return cfg.ErrorHandler(ctx, err)
			}

			if err := Authorize(claims, cfg.Policy); err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			ctx.Locals(cfg.ContextKey, claims)

			// if a context enricher we use it to propagate claims to the standard context
			if cfg.ContextEnricher != nil {
				stdCtx := ctx.Context()
				stdCtxWithClaims := cfg.ContextEnricher(stdCtx, claims)
				ctx.SetContext(stdCtxWithClaims)
			}

			return cfg.SuccessHandler(ctx)
		}
	}
}

// ErrForbidden marks an authorization (not authentication) failure
type ErrForbidden struct {
	Policy Policy
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("access denied: policy %q not satisfied", e.Policy)
}

// Authorize decides whether validated claims satisfy a policy. Pure
// function: no context, no I/O.
func Authorize(claims AuthClaims, policy Policy) error {
	switch policy {
	case PolicyPublic:
		return nil
	case PolicyRegistered:
		if claims == nil {
			return ErrTokenMissingOrMalformed
		}
		return nil
	case PolicyAdminOnly:
		if claims == nil {
			return ErrTokenMissingOrMalformed
		}
		if !claims.IsAdmin() {
			return &ErrForbidden{Policy: policy}
		}
		return nil
	default:
		return fmt.Errorf("unknown access policy: %q", policy)
	}
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(ctx router.Context) error {
			return ctx.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c router.Context, err error) error {
			var forbidden *ErrForbidden
			if errors.As(err, &forbidden) {
				return c.Status(router.StatusForbidden).SendString(err.Error())
			}
			if err.Error() == ErrTokenMissingOrMalformed.Error() {
				return c.Status(router.StatusBadRequest).SendString(ErrTokenMissingOrMalformed.Error())
			}
			return c.Status(router.StatusUnauthorized).SendString("Invalid or expired token")
		}
	}

	if cfg.TokenValidator == nil {
		panic("AUTH: token middleware configuration: TokenValidator is required.")
	}

	if cfg.SigningKey.Key == nil && len(cfg.SigningKeys) == 0 && len(cfg.JWKSetURLs) == 0 && cfg.KeyFunc == nil {
		panic("AUTH: token middleware configuration: At least one of the following is required: KeyFunc, JWKSetURLs, SigningKeys, or SigningKey.")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "user"
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	if cfg.Policy == "" {
		cfg.Policy = PolicyRegistered
	}

	if cfg.Logger == nil {
		cfg.Logger = noopLogger{}
	}

	if cfg.KeyFunc == nil {
		if len(cfg.SigningKeys) > 0 || len(cfg.JWKSetURLs) > 0 {
			var givenKeys map[string]keyfunc.GivenKey
			if cfg.SigningKeys != nil {
				givenKeys = make(map[string]keyfunc.GivenKey, len(cfg.SigningKeys))
				for kid, key := range cfg.SigningKeys {
					givenKeys[kid] = keyfunc.NewGivenCustom(key.Key, keyfunc.GivenKeyOptions{
						Algorithm: key.JWTAlg,
					})
				}
			}
			if len(cfg.JWKSetURLs) > 0 {
				var err error
				cfg.KeyFunc, err = multiKeyfunc(givenKeys, cfg.JWKSetURLs)
				if err != nil {
					panic("Failed to create keyfunc from JWK Set URL: " + err.Error())
				}
			} else {
				cfg.KeyFunc = keyfunc.NewGiven(givenKeys).Keyfunc
			}
		} else {
			cfg.KeyFunc = signingKeyFunc(cfg.SigningKey)
		}
	}

	return cfg
}

func multiKeyfunc(givenKeys map[string]keyfunc.GivenKey, jwtSetUrls []string) (jwt.Keyfunc, error) {
	opts := keyfuncOptions(givenKeys)
	m := make(map[string]keyfunc.Options, len(jwtSetUrls))
	for _, url := range jwtSetUrls {
		m[url] = opts
	}
	mopts := keyfunc.MultipleOptions{
		KeySelector: keyfunc.KeySelectorFirst,
	}
	multi, err := keyfunc.GetMultiple(m, mopts)
	if err != nil {
		return nil, fmt.Errorf("failed to get JWT URLs: %w", err)
	}
	return multi.Keyfunc, nil
}

func keyfuncOptions(givenKeys map[string]keyfunc.GivenKey) keyfunc.Options {
	return keyfunc.Options{
		GivenKeys: givenKeys,
		RefreshErrorHandler: func(err error) {
			log.Printf("failed to do a background refresh of JWT set: %s", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	}
}

func (cfg *Config) getExtractors() []Extractor {
	return GetExtractors(cfg.TokenLookup, cfg.AuthScheme)
}

func signingKeyFunc(key SigningKey) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		if key.JWTAlg != "" {
			alg, ok := token.Header["alg"].(string)
			if !ok {
				return nil, fmt.Errorf("unexpected JWT signing method: expected %q got: missing json type", key.JWTAlg)
			}
			if alg != key.JWTAlg {
				return nil, fmt.Errorf("unexpected jwt signing method: expected: %q: got: %q", key.JWTAlg, alg)
			}
		}
		return key.Key, nil
	}
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}
