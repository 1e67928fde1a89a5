package flashdeck

import (
	"strconv"

	"github.com/goliatone/go-router"
)

func paramID(ctx router.Context, name string) (int64, error) {
	return strconv.ParseInt(ctx.Param(name, ""), 10, 64)
}

func badRequest(ctx router.Context, msg string) error {
	return ctx.JSON(router.StatusBadRequest, map[string]any{
		"success": false,
		"message": msg,
	})
}

func notFound(ctx router.Context, msg string) error {
	return ctx.JSON(router.StatusNotFound, map[string]any{
		"success": false,
		"message": msg,
	})
}

func forbidden(ctx router.Context) error {
	return ctx.JSON(router.StatusForbidden, map[string]any{
		"success": false,
		"message": "You do not have permission to do that",
	})
}
