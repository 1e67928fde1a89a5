package flashdeck

import (
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"

	"github.com/flashdeck/flashdeck/middleware/tokenware"
)

// RegisterAdminRoutes mounts the admin API behind the admin-only policy
func RegisterAdminRoutes[T any](app router.Router[T], controller *AdminController) {
	adminOnly := controller.Auther.ProtectedRoute(
		tokenware.PolicyAdminOnly,
		controller.Auther.MakeAPIRouteAuthErrorHandler(),
	)

	api := app.Group("/api/admin").Use(adminOnly)
	api.Get("/users", controller.ListUsers).SetName("api.admin.users")
	api.Delete("/users/:id", controller.DeleteUser).SetName("api.admin.users.delete")
	api.Post("/users/:id/reset-password", controller.ResetPassword).SetName("api.admin.users.reset")
	api.Post("/users/:id/set-admin", controller.SetAdmin).SetName("api.admin.users.set-admin")
}

// AdminController serves the administrative endpoints
type AdminController struct {
	Logger Logger
	Repo   RepositoryManager
	Hasher PasswordAuthenticator
	Auther *RouteAuthenticator
}

func NewAdminController(repo RepositoryManager, hasher PasswordAuthenticator, auther *RouteAuthenticator, logger Logger) *AdminController {
	if logger == nil {
		logger = defLogger{}
	}
	return &AdminController{Logger: logger, Repo: repo, Hasher: hasher, Auther: auther}
}

// AdminUserSummary is a user row in the admin overview
type AdminUserSummary struct {
	*User
	SetCount   int64 `json:"set_count"`
	TotalViews int64 `json:"total_views"`
}

func (c *AdminController) ListUsers(ctx router.Context) error {
	users, err := c.Repo.Users().List(ctx.Context())
	if err != nil {
		return c.internalError(ctx, "failed to list users", err)
	}

	setCounts, err := c.Repo.Sets().CountPerOwner(ctx.Context())
	if err != nil {
		return c.internalError(ctx, "failed to count sets", err)
	}

	viewCounts, err := c.Repo.Views().TotalsPerOwner(ctx.Context())
	if err != nil {
		return c.internalError(ctx, "failed to count views", err)
	}

	sets := make(map[int64]int64, len(setCounts))
	for _, sc := range setCounts {
		sets[sc.UserID] = sc.SetCount
	}
	views := make(map[int64]int64, len(viewCounts))
	for _, vc := range viewCounts {
		views[vc.UserID] = vc.TotalViews
	}

	out := make([]*AdminUserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, &AdminUserSummary{
			User:       u,
			SetCount:   sets[u.ID],
			TotalViews: views[u.ID],
		})
	}

	return ctx.JSON(router.StatusOK, out)
}

func (c *AdminController) DeleteUser(ctx router.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return badRequest(ctx, "invalid user id")
	}

	if id == UserIDFromRouter(ctx) {
		return badRequest(ctx, "you cannot delete your own account")
	}

	if err := c.Repo.Users().Delete(ctx.Context(), id); err != nil {
		if errors.IsNotFound(err) {
			return notFound(ctx, "user not found")
		}
		return c.internalError(ctx, "failed to delete user", err)
	}
	return ctx.JSON(router.StatusOK, map[string]any{"success": true})
}

// ResetPassword overwrites the account credential with a random
// temporary password and returns the cleartext once. The old password
// stops working immediately; outstanding tokens keep working until
// they expire.
func (c *AdminController) ResetPassword(ctx router.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return badRequest(ctx, "invalid user id")
	}

	tempPassword := RandomPassword()
	hash, salt, err := c.Hasher.HashPassword(tempPassword)
	if err != nil {
		return c.internalError(ctx, "failed to hash temporary password", err)
	}

	if err := c.Repo.Users().ResetPassword(ctx.Context(), id, hash, salt); err != nil {
		if errors.IsNotFound(err) {
			return notFound(ctx, "user not found")
		}
		return c.internalError(ctx, "failed to reset password", err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"success":           true,
		"temporaryPassword": tempPassword,
	})
}

// SetAdminPayload toggles the admin flag
type SetAdminPayload struct {
	IsAdmin bool `form:"is_admin" json:"is_admin"`
}

func (c *AdminController) SetAdmin(ctx router.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return badRequest(ctx, "invalid user id")
	}

	if id == UserIDFromRouter(ctx) {
		return badRequest(ctx, "you cannot change your own admin flag")
	}

	payload := new(SetAdminPayload)
	if err := ctx.Bind(payload); err != nil {
		return badRequest(ctx, "invalid request body")
	}

	if err := c.Repo.Users().SetAdmin(ctx.Context(), id, payload.IsAdmin); err != nil {
		if errors.IsNotFound(err) {
			return notFound(ctx, "user not found")
		}
		return c.internalError(ctx, "failed to update admin flag", err)
	}
	return ctx.JSON(router.StatusOK, map[string]any{"success": true})
}

func (c *AdminController) internalError(ctx router.Context, msg string, err error) error {
	c.Logger.Error("%s: %v", msg, err)
	return ctx.JSON(router.StatusInternalServerError, map[string]any{
		"success": false,
		"message": msg,
	})
}
