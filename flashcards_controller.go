package flashdeck

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-router"

	"github.com/flashdeck/flashdeck/middleware/tokenware"
)

// RegisterFlashcardRoutes mounts the flashcard API
func RegisterFlashcardRoutes[T any](app router.Router[T], controller *FlashcardsController) {
	authErr := controller.Auther.MakeAPIRouteAuthErrorHandler()
	public := controller.Auther.ProtectedRoute(tokenware.PolicyPublic, authErr)
	registered := controller.Auther.ProtectedRoute(tokenware.PolicyRegistered, authErr)

	api := app.Group("/api/flashcards")
	api.Get("/by-set/:id", controller.BySet, public).SetName("api.cards.by-set")
	api.Get("/:id", controller.Show, public).SetName("api.cards.show")
	api.Post("", controller.Create, registered).SetName("api.cards.create")
	api.Put("/:id", controller.Update, registered).SetName("api.cards.update")
	api.Delete("/:id", controller.Delete, registered).SetName("api.cards.delete")
}

// FlashcardsController serves the flashcard endpoints. Access rules
// follow the parent set: you can read a card if you can see its set,
// and mutate it if you own its set or are an admin.
type FlashcardsController struct {
	Logger Logger
	Repo   RepositoryManager
	Auther *RouteAuthenticator
}

func NewFlashcardsController(repo RepositoryManager, auther *RouteAuthenticator, logger Logger) *FlashcardsController {
	if logger == nil {
		logger = defLogger{}
	}
	return &FlashcardsController{Logger: logger, Repo: repo, Auther: auther}
}

// CardPayload is the create/update body
type CardPayload struct {
	SetID           int64  `form:"set_id" json:"set_id"`
	Term            string `form:"term" json:"term"`
	Definition      string `form:"definition" json:"definition"`
	ImageURL        string `form:"image_url" json:"image_url"`
	ExampleSentence string `form:"example_sentence" json:"example_sentence"`
}

// Validate will run validation rules
func (p CardPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Term, validation.Required, validation.Length(1, 500)),
		validation.Field(&p.Definition, validation.Required, validation.Length(1, 2000)),
		validation.Field(&p.ExampleSentence, validation.Length(0, 2000)),
	)
}

func (p CardPayload) toModel(setID int64) *Flashcard {
	return &Flashcard{
		SetID:           setID,
		Term:            p.Term,
		Definition:      p.Definition,
		ImageURL:        p.ImageURL,
		ExampleSentence: p.ExampleSentence,
	}
}

// BySet returns all cards of a set the caller may see
func (c *FlashcardsController) BySet(ctx router.Context) error {
	setID, err := paramID(ctx, "id")
	if err != nil {
		return badRequest(ctx, "invalid set id")
	}

	set, allowed, err := c.resolveSet(ctx, setID)
	if err != nil {
		return c.internalError(ctx, "failed to load set", err)
	}
	if set == nil || !allowed {
		return notFound(ctx, "set not found")
	}

	cards, err := c.Repo.Flashcards().ListBySet(ctx.Context(), setID)
	if err != nil {
		return c.internalError(ctx, "failed to list flashcards", err)
	}
	return ctx.JSON(router.StatusOK, cards)
}

func (c *FlashcardsController) Show(ctx router.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return badRequest(ctx, "invalid flashcard id")
	}

	card, err := c.Repo.Flashcards().GetByID(ctx.Context(), id)
	if err != nil {
		return notFound(ctx, "flashcard not found")
	}

	set, allowed, err := c.resolveSet(ctx, card.SetID)
	if err != nil {
		return c.internalError(ctx, "failed to load set", err)
	}
	if set == nil || !allowed {
		return notFound(ctx, "flashcard not found")
	}

	return ctx.JSON(router.StatusOK, card)
}

func (c *FlashcardsController) Create(ctx router.Context) error {
	payload := new(CardPayload)
	if err := ctx.Bind(payload); err != nil {
		return badRequest(ctx, "invalid request body")
	}
	if err := payload.Validate(); err != nil {
		return badRequest(ctx, err.Error())
	}
	if payload.SetID == 0 {
		return badRequest(ctx, "set_id is required")
	}

	set, err := c.Repo.Sets().GetByID(ctx.Context(), payload.SetID)
	if err != nil {
		return notFound(ctx, "set not found")
	}
	if !c.canMutate(ctx, set.UserID) {
		return forbidden(ctx)
	}

	card, err := c.Repo.Flashcards().Create(ctx.Context(), payload.toModel(payload.SetID))
	if err != nil {
		return c.internalError(ctx, "failed to create flashcard", err)
	}
	return ctx.JSON(router.StatusCreated, card)
}

func (c *FlashcardsController) Update(ctx router.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return badRequest(ctx, "invalid flashcard id")
	}

	card, err := c.Repo.Flashcards().GetByID(ctx.Context(), id)
	if err != nil {
		return notFound(ctx, "flashcard not found")
	}

	set, err := c.Repo.Sets().GetByID(ctx.Context(), card.SetID)
	if err != nil {
		return notFound(ctx, "set not found")
	}
	if !c.canMutate(ctx, set.UserID) {
		return forbidden(ctx)
	}

	payload := new(CardPayload)
	if err := ctx.Bind(payload); err != nil {
		return badRequest(ctx, "invalid request body")
	}
	if err := payload.Validate(); err != nil {
		return badRequest(ctx, err.Error())
	}

	card.Term = payload.Term
	card.Definition = payload.Definition
	card.ImageURL = payload.ImageURL
	card.ExampleSentence = payload.ExampleSentence

	updated, err := c.Repo.Flashcards().Update(ctx.Context(), card)
	if err != nil {
		return c.internalError(ctx, "failed to update flashcard", err)
	}
	return ctx.JSON(router.StatusOK, updated)
}

func (c *FlashcardsController) Delete(ctx router.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return badRequest(ctx, "invalid flashcard id")
	}

	card, err := c.Repo.Flashcards().GetByID(ctx.Context(), id)
	if err != nil {
		return notFound(ctx, "flashcard not found")
	}

	set, err := c.Repo.Sets().GetByID(ctx.Context(), card.SetID)
	if err != nil {
		return notFound(ctx, "set not found")
	}
	if !c.canMutate(ctx, set.UserID) {
		return forbidden(ctx)
	}

	if err := c.Repo.Flashcards().Delete(ctx.Context(), id); err != nil {
		return c.internalError(ctx, "failed to delete flashcard", err)
	}
	return ctx.JSON(router.StatusOK, map[string]any{"success": true})
}

// resolveSet loads a set and answers whether the caller may see it.
// A missing set comes back as (nil, false, nil).
func (c *FlashcardsController) resolveSet(ctx router.Context, setID int64) (*FlashcardSet, bool, error) {
	set, err := c.Repo.Sets().GetByID(ctx.Context(), setID)
	if err != nil {
		return nil, false, nil
	}

	if set.Visibility == VisibilityPublic {
		return set, true, nil
	}

	viewerID := UserIDFromRouter(ctx)
	if viewerID == 0 {
		return set, false, nil
	}
	if set.UserID == viewerID || IsAdminFromRouter(ctx) {
		return set, true, nil
	}
	if set.Visibility == VisibilityFriends {
		ok, err := c.Repo.Friends().AreFriends(ctx.Context(), set.UserID, viewerID)
		return set, ok, err
	}
	return set, false, nil
}

func (c *FlashcardsController) canMutate(ctx router.Context, ownerID int64) bool {
	return UserIDFromRouter(ctx) == ownerID || IsAdminFromRouter(ctx)
}

func (c *FlashcardsController) internalError(ctx router.Context, msg string, err error) error {
	c.Logger.Error("%s: %v", msg, err)
	return ctx.JSON(router.StatusInternalServerError, map[string]any{
		"success": false,
		"message": msg,
	})
}
