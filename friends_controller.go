package flashdeck

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"

	"github.com/flashdeck/flashdeck/middleware/tokenware"
)

// RegisterFriendRoutes mounts the friendship API. Everything here
// requires a signed-in caller.
func RegisterFriendRoutes[T any](app router.Router[T], controller *FriendsController) {
	registered := controller.Auther.ProtectedRoute(
		tokenware.PolicyRegistered,
		controller.Auther.MakeAPIRouteAuthErrorHandler(),
	)

	api := app.Group("/api/friends").Use(registered)
	api.Get("", controller.List).SetName("api.friends.list")
	api.Get("/pending-requests", controller.PendingRequests).SetName("api.friends.pending")
	api.Get("/sent-requests", controller.SentRequests).SetName("api.friends.sent")
	api.Post("/send-request/:userId", controller.SendRequest).SetName("api.friends.send")
	api.Post("/accept/:requestId", controller.Accept).SetName("api.friends.accept")
	api.Post("/decline/:requestId", controller.Decline).SetName("api.friends.decline")
	api.Delete("/cancel-request/:requestId", controller.CancelRequest).SetName("api.friends.cancel")
	api.Delete("/remove-friend/:userId", controller.RemoveFriend).SetName("api.friends.remove")
}

// FriendsController serves the friendship endpoints
type FriendsController struct {
	Logger Logger
	Repo   RepositoryManager
	Auther *RouteAuthenticator
}

func NewFriendsController(repo RepositoryManager, auther *RouteAuthenticator, logger Logger) *FriendsController {
	if logger == nil {
		logger = defLogger{}
	}
	return &FriendsController{Logger: logger, Repo: repo, Auther: auther}
}

func (c *FriendsController) List(ctx router.Context) error {
	friends, err := c.Repo.Friends().ListFriends(ctx.Context(), UserIDFromRouter(ctx))
	if err != nil {
		return c.internalError(ctx, "failed to list friends", err)
	}
	return ctx.JSON(router.StatusOK, friends)
}

func (c *FriendsController) PendingRequests(ctx router.Context) error {
	requests, err := c.Repo.Friends().PendingFor(ctx.Context(), UserIDFromRouter(ctx))
	if err != nil {
		return c.internalError(ctx, "failed to list pending requests", err)
	}
	return ctx.JSON(router.StatusOK, requests)
}

func (c *FriendsController) SentRequests(ctx router.Context) error {
	requests, err := c.Repo.Friends().SentBy(ctx.Context(), UserIDFromRouter(ctx))
	if err != nil {
		return c.internalError(ctx, "failed to list sent requests", err)
	}
	return ctx.JSON(router.StatusOK, requests)
}

func (c *FriendsController) SendRequest(ctx router.Context) error {
	receiverID, err := paramID(ctx, "userId")
	if err != nil {
		return badRequest(ctx, "invalid user id")
	}

	senderID := UserIDFromRouter(ctx)
	if senderID == receiverID {
		return badRequest(ctx, "you cannot send a friend request to yourself")
	}

	if _, err := c.Repo.Users().GetByID(ctx.Context(), receiverID); err != nil {
		return notFound(ctx, "user not found")
	}

	request, err := c.Repo.Friends().CreateRequest(ctx.Context(), senderID, receiverID)
	if err != nil {
		var richErr *errors.Error
		if errors.As(err, &richErr) && richErr.Category == errors.CategoryConflict {
			return ctx.JSON(router.StatusConflict, map[string]any{
				"success": false,
				"message": richErr.Message,
			})
		}
		return c.internalError(ctx, "failed to send friend request", err)
	}

	return ctx.JSON(router.StatusCreated, request)
}

// Accept closes a pending request addressed to the caller and records
// the friendship in one transaction.
func (c *FriendsController) Accept(ctx router.Context) error {
	request, err := c.ownedPendingRequest(ctx, false)
	if err != nil {
		return err
	}

	err = c.Repo.RunInTx(ctx.Context(), nil, func(txCtx context.Context, tx bun.Tx) error {
		return c.Repo.Friends().AcceptTx(txCtx, tx, request)
	})
	if err != nil {
		return c.requestStateError(ctx, "failed to accept friend request", err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{"success": true})
}

func (c *FriendsController) Decline(ctx router.Context) error {
	request, err := c.ownedPendingRequest(ctx, false)
	if err != nil {
		return err
	}

	if err := c.Repo.Friends().Decline(ctx.Context(), request); err != nil {
		return c.requestStateError(ctx, "failed to decline friend request", err)
	}
	return ctx.JSON(router.StatusOK, map[string]any{"success": true})
}

// CancelRequest lets the sender withdraw a pending request
func (c *FriendsController) CancelRequest(ctx router.Context) error {
	request, err := c.ownedPendingRequest(ctx, true)
	if err != nil {
		return err
	}

	if err := c.Repo.Friends().DeleteRequest(ctx.Context(), request.ID); err != nil {
		return c.requestStateError(ctx, "failed to cancel friend request", err)
	}
	return ctx.JSON(router.StatusOK, map[string]any{"success": true})
}

func (c *FriendsController) RemoveFriend(ctx router.Context) error {
	otherID, err := paramID(ctx, "userId")
	if err != nil {
		return badRequest(ctx, "invalid user id")
	}

	callerID := UserIDFromRouter(ctx)
	if err := c.Repo.Friends().RemoveFriend(ctx.Context(), callerID, otherID); err != nil {
		if errors.IsNotFound(err) {
			return notFound(ctx, "friendship not found")
		}
		return c.internalError(ctx, "failed to remove friend", err)
	}
	return ctx.JSON(router.StatusOK, map[string]any{"success": true})
}

// ownedPendingRequest loads the request and checks the caller is on
// the right side of it: the receiver for accept/decline, the sender
// for cancel. Errors are already written to the response.
func (c *FriendsController) ownedPendingRequest(ctx router.Context, asSender bool) (*FriendRequest, error) {
	id, err := paramID(ctx, "requestId")
	if err != nil {
		return nil, badRequest(ctx, "invalid request id")
	}

	request, err := c.Repo.Friends().GetRequest(ctx.Context(), id)
	if err != nil {
		return nil, notFound(ctx, "friend request not found")
	}

	owner := request.ReceiverID
	if asSender {
		owner = request.SenderID
	}
	if owner != UserIDFromRouter(ctx) {
		return nil, forbidden(ctx)
	}

	if request.Status != RequestPending {
		return nil, ctx.JSON(router.StatusConflict, map[string]any{
			"success": false,
			"message": "friend request is no longer pending",
		})
	}

	return request, nil
}

func (c *FriendsController) requestStateError(ctx router.Context, msg string, err error) error {
	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.Category == errors.CategoryConflict {
		return ctx.JSON(router.StatusConflict, map[string]any{
			"success": false,
			"message": richErr.Message,
		})
	}
	return c.internalError(ctx, msg, err)
}

func (c *FriendsController) internalError(ctx router.Context, msg string, err error) error {
	c.Logger.Error("%s: %v", msg, err)
	return ctx.JSON(router.StatusInternalServerError, map[string]any{
		"success": false,
		"message": msg,
	})
}
