package flashdeck

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"

	"github.com/flashdeck/flashdeck/middleware/tokenware"
)

// RegisterSetRoutes mounts the flashcard-set API
func RegisterSetRoutes[T any](app router.Router[T], controller *SetsController) {
	authErr := controller.Auther.MakeAPIRouteAuthErrorHandler()
	public := controller.Auther.ProtectedRoute(tokenware.PolicyPublic, authErr)
	registered := controller.Auther.ProtectedRoute(tokenware.PolicyRegistered, authErr)

	api := app.Group("/api/flashcard-sets")
	api.Get("", controller.List, public).SetName("api.sets.list")
	api.Get("/my-sets", controller.MySets, registered).SetName("api.sets.mine")
	api.Get("/favourites", controller.Favourites, registered).SetName("api.sets.favourites")
	api.Get("/:id", controller.Show, public).SetName("api.sets.show")
	api.Get("/:id/stats", controller.Stats, registered).SetName("api.sets.stats")
	api.Post("", controller.Create, registered).SetName("api.sets.create")
	api.Put("/:id", controller.Update, registered).SetName("api.sets.update")
	api.Delete("/:id", controller.Delete, registered).SetName("api.sets.delete")
	api.Post("/:id/favourite", controller.Favourite, registered).SetName("api.sets.favourite")
	api.Delete("/:id/favourite", controller.Unfavourite, registered).SetName("api.sets.unfavourite")
}

// SetsController serves the flashcard-set endpoints
type SetsController struct {
	Logger Logger
	Repo   RepositoryManager
	Auther *RouteAuthenticator
}

func NewSetsController(repo RepositoryManager, auther *RouteAuthenticator, logger Logger) *SetsController {
	if logger == nil {
		logger = defLogger{}
	}
	return &SetsController{Logger: logger, Repo: repo, Auther: auther}
}

// SetPayload is the create/update body
type SetPayload struct {
	Title         string        `form:"title" json:"title"`
	Description   string        `form:"description" json:"description"`
	Visibility    SetVisibility `form:"visibility" json:"visibility"`
	CoverImageURL string        `form:"cover_image_url" json:"cover_image_url"`
	Flashcards    []CardPayload `json:"flashcards"`
}

// Validate will run validation rules
func (p SetPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&p.Description, validation.Length(0, 2000)),
		validation.Field(&p.Visibility, validation.By(validateVisibility)),
	)
}

func validateVisibility(value any) error {
	v, _ := value.(SetVisibility)
	if v == "" || v.Valid() {
		return nil
	}
	return errors.New("visibility must be public, friends, or private", errors.CategoryValidation)
}

// List returns every set the caller may see. Anonymous callers get
// public sets only.
func (c *SetsController) List(ctx router.Context) error {
	viewerID := UserIDFromRouter(ctx)

	if viewerID == 0 {
		sets, err := c.Repo.Sets().ListPublic(ctx.Context())
		if err != nil {
			return c.internalError(ctx, "failed to list sets", err)
		}
		return ctx.JSON(router.StatusOK, sets)
	}

	friendIDs, err := c.Repo.Friends().FriendIDs(ctx.Context(), viewerID)
	if err != nil {
		return c.internalError(ctx, "failed to resolve friendships", err)
	}

	sets, err := c.Repo.Sets().ListVisible(ctx.Context(), viewerID, friendIDs)
	if err != nil {
		return c.internalError(ctx, "failed to list sets", err)
	}
	return ctx.JSON(router.StatusOK, sets)
}

// Show returns a single set, enforcing visibility, and records the view
func (c *SetsController) Show(ctx router.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return badRequest(ctx, "invalid set id")
	}

	set, err := c.Repo.Sets().GetByID(ctx.Context(), id)
	if err != nil {
		return c.notFoundOrInternal(ctx, "set not found", err)
	}

	viewerID := UserIDFromRouter(ctx)
	allowed, err := c.canView(ctx, set, viewerID)
	if err != nil {
		return c.internalError(ctx, "failed to check visibility", err)
	}
	if !allowed {
		// a hidden set looks identical to a missing one
		return notFound(ctx, "set not found")
	}

	c.recordView(ctx, set.ID, viewerID)

	return ctx.JSON(router.StatusOK, set)
}

func (c *SetsController) canView(ctx router.Context, set *FlashcardSet, viewerID int64) (bool, error) {
	if set.Visibility == VisibilityPublic {
		return true, nil
	}
	if viewerID == 0 {
		return false, nil
	}
	if set.UserID == viewerID || IsAdminFromRouter(ctx) {
		return true, nil
	}
	if set.Visibility == VisibilityFriends {
		return c.Repo.Friends().AreFriends(ctx.Context(), set.UserID, viewerID)
	}
	return false, nil
}

func (c *SetsController) recordView(ctx router.Context, setID, viewerID int64) {
	var userID *int64
	if viewerID != 0 {
		userID = &viewerID
	}
	if err := c.Repo.Views().Record(ctx.Context(), setID, userID, ctx.GetString("X-Forwarded-For", "")); err != nil {
		// analytics never block a read
		c.Logger.Warn("failed to record set view: %v", err)
	}
}

// MySets returns the caller's own sets, any visibility
func (c *SetsController) MySets(ctx router.Context) error {
	sets, err := c.Repo.Sets().ListByOwner(ctx.Context(), UserIDFromRouter(ctx))
	if err != nil {
		return c.internalError(ctx, "failed to list sets", err)
	}
	return ctx.JSON(router.StatusOK, sets)
}

func (c *SetsController) Create(ctx router.Context) error {
	payload := new(SetPayload)
	if err := ctx.Bind(payload); err != nil {
		return badRequest(ctx, "invalid request body")
	}
	if err := payload.Validate(); err != nil {
		return badRequest(ctx, err.Error())
	}

	set := &FlashcardSet{
		UserID:        UserIDFromRouter(ctx),
		Title:         payload.Title,
		Description:   payload.Description,
		Visibility:    payload.Visibility,
		CoverImageURL: payload.CoverImageURL,
	}
	if set.Visibility == "" {
		set.Visibility = VisibilityPrivate
	}

	err := c.Repo.RunInTx(ctx.Context(), nil, func(txCtx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(set).Exec(txCtx); err != nil {
			return err
		}

		if len(payload.Flashcards) == 0 {
			return nil
		}

		cards := make([]*Flashcard, 0, len(payload.Flashcards))
		for _, cp := range payload.Flashcards {
			cards = append(cards, cp.toModel(set.ID))
		}
		return c.Repo.Flashcards().CreateManyTx(txCtx, tx, cards)
	})
	if err != nil {
		return c.internalError(ctx, "failed to create set", err)
	}

	return ctx.JSON(router.StatusCreated, set)
}

func (c *SetsController) Update(ctx router.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return badRequest(ctx, "invalid set id")
	}

	set, err := c.Repo.Sets().GetByID(ctx.Context(), id)
	if err != nil {
		return c.notFoundOrInternal(ctx, "set not found", err)
	}

	if !c.canMutate(ctx, set.UserID) {
		return forbidden(ctx)
	}

	payload := new(SetPayload)
	if err := ctx.Bind(payload); err != nil {
		return badRequest(ctx, "invalid request body")
	}
	if err := payload.Validate(); err != nil {
		return badRequest(ctx, err.Error())
	}

	set.Title = payload.Title
	set.Description = payload.Description
	if payload.Visibility != "" {
		set.Visibility = payload.Visibility
	}
	set.CoverImageURL = payload.CoverImageURL

	updated, err := c.Repo.Sets().Update(ctx.Context(), set)
	if err != nil {
		return c.internalError(ctx, "failed to update set", err)
	}
	return ctx.JSON(router.StatusOK, updated)
}

func (c *SetsController) Delete(ctx router.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return badRequest(ctx, "invalid set id")
	}

	set, err := c.Repo.Sets().GetByID(ctx.Context(), id)
	if err != nil {
		return c.notFoundOrInternal(ctx, "set not found", err)
	}

	if !c.canMutate(ctx, set.UserID) {
		return forbidden(ctx)
	}

	err = c.Repo.RunInTx(ctx.Context(), nil, func(txCtx context.Context, tx bun.Tx) error {
		return c.Repo.Sets().DeleteTx(txCtx, tx, id)
	})
	if err != nil {
		return c.internalError(ctx, "failed to delete set", err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{"success": true})
}

// canMutate allows the owner and admins
func (c *SetsController) canMutate(ctx router.Context, ownerID int64) bool {
	return UserIDFromRouter(ctx) == ownerID || IsAdminFromRouter(ctx)
}

// Stats returns the view counters for a set the caller owns
func (c *SetsController) Stats(ctx router.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return badRequest(ctx, "invalid set id")
	}

	set, err := c.Repo.Sets().GetByID(ctx.Context(), id)
	if err != nil {
		return c.notFoundOrInternal(ctx, "set not found", err)
	}

	if !c.canMutate(ctx, set.UserID) {
		return forbidden(ctx)
	}

	count, err := c.Repo.Views().CountForSet(ctx.Context(), id)
	if err != nil {
		return c.internalError(ctx, "failed to load stats", err)
	}
	return ctx.JSON(router.StatusOK, count)
}

func (c *SetsController) Favourite(ctx router.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return badRequest(ctx, "invalid set id")
	}

	set, err := c.Repo.Sets().GetByID(ctx.Context(), id)
	if err != nil {
		return c.notFoundOrInternal(ctx, "set not found", err)
	}

	viewerID := UserIDFromRouter(ctx)
	allowed, err := c.canView(ctx, set, viewerID)
	if err != nil || !allowed {
		return notFound(ctx, "set not found")
	}

	if err := c.Repo.Sets().Favourite(ctx.Context(), viewerID, id); err != nil {
		return c.internalError(ctx, "failed to favourite set", err)
	}
	return ctx.JSON(router.StatusOK, map[string]any{"success": true})
}

func (c *SetsController) Unfavourite(ctx router.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return badRequest(ctx, "invalid set id")
	}
	if err := c.Repo.Sets().Unfavourite(ctx.Context(), UserIDFromRouter(ctx), id); err != nil {
		return c.internalError(ctx, "failed to unfavourite set", err)
	}
	return ctx.JSON(router.StatusOK, map[string]any{"success": true})
}

func (c *SetsController) Favourites(ctx router.Context) error {
	sets, err := c.Repo.Sets().ListFavourites(ctx.Context(), UserIDFromRouter(ctx))
	if err != nil {
		return c.internalError(ctx, "failed to list favourites", err)
	}
	return ctx.JSON(router.StatusOK, sets)
}

func (c *SetsController) internalError(ctx router.Context, msg string, err error) error {
	c.Logger.Error("%s: %v", msg, err)
	return ctx.JSON(router.StatusInternalServerError, map[string]any{
		"success": false,
		"message": msg,
	})
}

func (c *SetsController) notFoundOrInternal(ctx router.Context, msg string, err error) error {
	if errors.IsNotFound(err) {
		return notFound(ctx, msg)
	}
	return c.internalError(ctx, msg, err)
}
