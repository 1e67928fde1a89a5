package tokenware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-router"
)

// ErrTokenMissingOrMalformed is returned when no extractor produced a token
var ErrTokenMissingOrMalformed = errors.New("missing or malformed JWT")

// TokenSource names where a credential was resolved from
type TokenSource string

const (
	SourceHeader TokenSource = "header"
	SourceCookie TokenSource = "cookie"
	SourceQuery  TokenSource = "query"
	SourceParam  TokenSource = "param"
	SourceNone   TokenSource = ""
)

// Extractor pulls a raw token from one request location
type Extractor struct {
	Source TokenSource
	Name   string
	Fn     func(c router.Context) (string, error)
}

// ExtractRawToken tries extractors in order and returns the first token
// found together with its source. Order is priority: a header token
// wins even when a cookie is also present.
func ExtractRawToken(ctx router.Context, extractors []Extractor) (string, TokenSource, error) {
	var raw string
	var err error

	for _, extractor := range extractors {
		raw, err = extractor.Fn(ctx)
		if raw != "" && err == nil {
			return raw, extractor.Source, nil
		}
	}

	if err == nil {
		err = ErrTokenMissingOrMalformed
	}
	return "", SourceNone, err
}

// GetExtractors parses a lookup definition into an ordered extractor
// chain. The definition is a comma list of source:name pairs, e.g.
// "header:Authorization,cookie:flashdeck,query:auth_token".
func GetExtractors(tokenLookup string, authSchemes ...string) []Extractor {
	extractors := make([]Extractor, 0)

	authScheme := "Bearer"
	if len(authSchemes) > 0 {
		authScheme = authSchemes[0]
	}

	rootParts := strings.Split(tokenLookup, ",")
	for _, rootPart := range rootParts {
		parts := strings.Split(strings.TrimSpace(rootPart), ":")
		if len(parts) != 2 {
			continue
		}

		for i, el := range parts {
			parts[i] = strings.TrimSpace(el)
		}

		switch parts[0] {
		case "header":
			extractors = append(extractors, Extractor{SourceHeader, parts[1], tokenFromHeader(parts[1], authScheme)})
		case "cookie":
			extractors = append(extractors, Extractor{SourceCookie, parts[1], tokenFromCookie(parts[1])})
		case "query":
			extractors = append(extractors, Extractor{SourceQuery, parts[1], tokenFromQuery(parts[1])})
		case "param":
			extractors = append(extractors, Extractor{SourceParam, parts[1], tokenFromParam(parts[1])})
		}
	}

	return extractors
}

// tokenFromHeader returns a function that extracts token from the request header.
func tokenFromHeader(header string, authScheme string) func(c router.Context) (string, error) {
	return func(c router.Context) (string, error) {
		a := c.GetString(header, "")
		l := len(authScheme)
		if l == 0 {
			fmt.Println("[WARNING] Missing auth scheme in config definition")
			return "", ErrTokenMissingOrMalformed
		}
		authScheme = strings.TrimSpace(authScheme)
		if len(a) > l+1 && strings.EqualFold(a[:l], authScheme) {
			return strings.TrimSpace(a[l:]), nil
		}
		return "", ErrTokenMissingOrMalformed
	}
}

// tokenFromQuery returns a function that extracts token from the query string.
func tokenFromQuery(param string) func(c router.Context) (string, error) {
	return func(c router.Context) (string, error) {
		token := c.Query(param, "")
		if token == "" {
			return "", ErrTokenMissingOrMalformed
		}
		return token, nil
	}
}

// tokenFromParam returns a function that extracts token from the url param string.
func tokenFromParam(param string) func(c router.Context) (string, error) {
	return func(c router.Context) (string, error) {
		token := c.Param(param)
		if token == "" {
			return "", ErrTokenMissingOrMalformed
		}
		return token, nil
	}
}

// tokenFromCookie returns a function that extracts token from the named cookie.
func tokenFromCookie(name string) func(c router.Context) (string, error) {
	return func(c router.Context) (string, error) {
		token := c.Cookies(name)
		if token == "" {
			return "", ErrTokenMissingOrMalformed
		}
		return token, nil
	}
}
