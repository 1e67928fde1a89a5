package tokenware_test

import (
	"testing"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"

	"github.com/flashdeck/flashdeck/middleware/tokenware"
)

func TestGetExtractors(t *testing.T) {
	t.Run("parses an ordered lookup chain", func(t *testing.T) {
		extractors := tokenware.GetExtractors("header:Authorization,cookie:flashdeck,query:auth_token")

		assert.Len(t, extractors, 3)
		assert.Equal(t, tokenware.SourceHeader, extractors[0].Source)
		assert.Equal(t, "Authorization", extractors[0].Name)
		assert.Equal(t, tokenware.SourceCookie, extractors[1].Source)
		assert.Equal(t, "flashdeck", extractors[1].Name)
		assert.Equal(t, tokenware.SourceQuery, extractors[2].Source)
		assert.Equal(t, "auth_token", extractors[2].Name)
	})

	t.Run("tolerates whitespace", func(t *testing.T) {
		extractors := tokenware.GetExtractors(" header : Authorization , cookie : tok ")

		assert.Len(t, extractors, 2)
		assert.Equal(t, "Authorization", extractors[0].Name)
		assert.Equal(t, "tok", extractors[1].Name)
	})

	t.Run("skips malformed and unknown pairs", func(t *testing.T) {
		extractors := tokenware.GetExtractors("header:Authorization,garbage,body:field")

		assert.Len(t, extractors, 1)
		assert.Equal(t, tokenware.SourceHeader, extractors[0].Source)
	})
}

func TestExtractRawToken(t *testing.T) {
	lookup := "header:Authorization,cookie:flashdeck,query:auth_token"

	t.Run("header wins over cookie and query", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("Bearer header-token")
		ctx.CookiesM["flashdeck"] = "cookie-token"
		ctx.QueriesM["auth_token"] = "query-token"

		raw, source, err := tokenware.ExtractRawToken(ctx, tokenware.GetExtractors(lookup))

		assert.NoError(t, err)
		assert.Equal(t, "header-token", raw)
		assert.Equal(t, tokenware.SourceHeader, source)
	})

	t.Run("cookie wins over query when the header is empty", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("")
		ctx.CookiesM["flashdeck"] = "cookie-token"
		ctx.QueriesM["auth_token"] = "query-token"

		raw, source, err := tokenware.ExtractRawToken(ctx, tokenware.GetExtractors(lookup))

		assert.NoError(t, err)
		assert.Equal(t, "cookie-token", raw)
		assert.Equal(t, tokenware.SourceCookie, source)
	})

	t.Run("falls through to the query string", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("")
		ctx.QueriesM["auth_token"] = "query-token"

		raw, source, err := tokenware.ExtractRawToken(ctx, tokenware.GetExtractors(lookup))

		assert.NoError(t, err)
		assert.Equal(t, "query-token", raw)
		assert.Equal(t, tokenware.SourceQuery, source)
	})

	t.Run("reports a missing token", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("")

		raw, source, err := tokenware.ExtractRawToken(ctx, tokenware.GetExtractors(lookup))

		assert.Empty(t, raw)
		assert.Equal(t, tokenware.SourceNone, source)
		assert.ErrorIs(t, err, tokenware.ErrTokenMissingOrMalformed)
	})

	t.Run("rejects a header without the scheme prefix", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("raw-token-without-scheme")

		raw, _, err := tokenware.ExtractRawToken(ctx, tokenware.GetExtractors("header:Authorization"))

		assert.Empty(t, raw)
		assert.ErrorIs(t, err, tokenware.ErrTokenMissingOrMalformed)
	})

	t.Run("scheme comparison is case insensitive", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("bearer lowercase-scheme")

		raw, source, err := tokenware.ExtractRawToken(ctx, tokenware.GetExtractors("header:Authorization"))

		assert.NoError(t, err)
		assert.Equal(t, "lowercase-scheme", raw)
		assert.Equal(t, tokenware.SourceHeader, source)
	})

	t.Run("honors a custom auth scheme", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("GetString", "Authorization", "").Return("Token abc123")

		raw, _, err := tokenware.ExtractRawToken(ctx, tokenware.GetExtractors("header:Authorization", "Token"))

		assert.NoError(t, err)
		assert.Equal(t, "abc123", raw)
	})
}
