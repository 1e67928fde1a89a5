package flashdeck

import (
	"github.com/goliatone/go-router"

	"github.com/flashdeck/flashdeck/middleware/tokenware"
)

// RegisterPageRoutes mounts the server-rendered pages
func RegisterPageRoutes[T any](app router.Router[T], controller *PagesController) {
	public := controller.Auther.ProtectedRoute(
		tokenware.PolicyPublic,
		controller.Auther.MakeClientRouteAuthErrorHandler(true),
	)

	app.Get("/", controller.Home, public).SetName("home.get")
	app.Get("/sets/:id", controller.Study, public).SetName("study.get")
}

// PagesController renders the home and study pages
type PagesController struct {
	Logger Logger
	Repo   RepositoryManager
	Auther *RouteAuthenticator
}

func NewPagesController(repo RepositoryManager, auther *RouteAuthenticator, logger Logger) *PagesController {
	if logger == nil {
		logger = defLogger{}
	}
	return &PagesController{Logger: logger, Repo: repo, Auther: auther}
}

func (c *PagesController) Home(ctx router.Context) error {
	viewerID := UserIDFromRouter(ctx)

	var sets []*FlashcardSet
	var err error
	if viewerID == 0 {
		sets, err = c.Repo.Sets().ListPublic(ctx.Context())
	} else {
		var friendIDs []int64
		friendIDs, err = c.Repo.Friends().FriendIDs(ctx.Context(), viewerID)
		if err == nil {
			sets, err = c.Repo.Sets().ListVisible(ctx.Context(), viewerID, friendIDs)
		}
	}

	if err != nil {
		c.Logger.Error("home page failed to list sets: %v", err)
		sets = nil
	}

	return ctx.Render("home", router.ViewContext{
		"sets":      sets,
		"signed_in": viewerID != 0,
	})
}

func (c *PagesController) Study(ctx router.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return ctx.Status(router.StatusNotFound).Render("errors/404", router.ViewContext{})
	}

	set, err := c.Repo.Sets().GetByID(ctx.Context(), id)
	if err != nil {
		return ctx.Status(router.StatusNotFound).Render("errors/404", router.ViewContext{})
	}

	viewerID := UserIDFromRouter(ctx)
	allowed := set.Visibility == VisibilityPublic ||
		(viewerID != 0 && (set.UserID == viewerID || IsAdminFromRouter(ctx)))
	if !allowed && set.Visibility == VisibilityFriends && viewerID != 0 {
		allowed, _ = c.Repo.Friends().AreFriends(ctx.Context(), set.UserID, viewerID)
	}
	if !allowed {
		return ctx.Status(router.StatusNotFound).Render("errors/404", router.ViewContext{})
	}

	var userID *int64
	if viewerID != 0 {
		userID = &viewerID
	}
	if err := c.Repo.Views().Record(ctx.Context(), set.ID, userID, ctx.GetString("X-Forwarded-For", "")); err != nil {
		c.Logger.Warn("failed to record set view: %v", err)
	}

	return ctx.Render("study", router.ViewContext{
		"set":       set,
		"owner":     viewerID != 0 && set.UserID == viewerID,
		"signed_in": viewerID != 0,
	})
}
