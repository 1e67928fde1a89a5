package main

import (
	"log"
	"os"
	"strconv"
)

// EnvConfig implements flashdeck.Config from process environment.
// Missing required values are fatal at startup, never defaulted:
// an app running with an empty pepper or signing key would mint
// credentials nobody intended.
type EnvConfig struct {
	signingKey     string
	issuer         string
	audience       []string
	pepper         string
	expireDays     int
	extendedDays   int
	tokenLookup    string
	authScheme     string
	contextKey     string
	rejectedKey    string
	rejectedRoute  string
	dsn            string
	listenAddr     string
}

func LoadEnvConfig() *EnvConfig {
	return &EnvConfig{
		signingKey:    mustEnv("JWT_SECRET"),
		issuer:        mustEnv("JWT_ISSUER"),
		audience:      []string{mustEnv("JWT_AUDIENCE")},
		pepper:        mustEnv("PASSWORD_PEPPER"),
		expireDays:    mustEnvInt("JWT_EXPIRE_DAYS"),
		extendedDays:  envIntOrDefault("JWT_EXTENDED_EXPIRE_DAYS", 30),
		tokenLookup:   envOrDefault("TOKEN_LOOKUP", "header:Authorization,cookie:flashdeck,query:auth_token"),
		authScheme:    envOrDefault("AUTH_SCHEME", "Bearer"),
		contextKey:    envOrDefault("AUTH_CONTEXT_KEY", "user"),
		rejectedKey:   envOrDefault("REJECTED_ROUTE_KEY", "rejected_route"),
		rejectedRoute: envOrDefault("REJECTED_ROUTE_DEFAULT", "/"),
		dsn:           envOrDefault("DATABASE_DSN", "file:flashdeck.db?cache=shared&mode=rwc"),
		listenAddr:    ":" + envOrDefault("PORT", "8080"),
	}
}

func (c *EnvConfig) GetSigningKey() string           { return c.signingKey }
func (c *EnvConfig) GetSigningMethod() string        { return "HS256" }
func (c *EnvConfig) GetContextKey() string           { return c.contextKey }
func (c *EnvConfig) GetTokenExpiration() int         { return c.expireDays }
func (c *EnvConfig) GetExtendedTokenDuration() int   { return c.extendedDays }
func (c *EnvConfig) GetTokenLookup() string          { return c.tokenLookup }
func (c *EnvConfig) GetAuthScheme() string           { return c.authScheme }
func (c *EnvConfig) GetIssuer() string               { return c.issuer }
func (c *EnvConfig) GetAudience() []string           { return c.audience }
func (c *EnvConfig) GetPasswordPepper() string       { return c.pepper }
func (c *EnvConfig) GetRejectedRouteKey() string     { return c.rejectedKey }
func (c *EnvConfig) GetRejectedRouteDefault() string { return c.rejectedRoute }

func (c *EnvConfig) GetDSN() string        { return c.dsn }
func (c *EnvConfig) GetListenAddr() string { return c.listenAddr }

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("missing required environment variable %s", key)
	}
	return v
}

func mustEnvInt(key string) int {
	v := mustEnv(key)
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("environment variable %s must be an integer, got %q", key, v)
	}
	return n
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOrDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
