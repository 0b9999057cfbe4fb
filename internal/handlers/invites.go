package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/pub-golf/internal/game"
	"github.com/trentd187/pub-golf/internal/middleware"
	"github.com/trentd187/pub-golf/internal/models"
)

// SendInvitesRequest is the JSON body for POST /api/v1/games/:id/invites.
type SendInvitesRequest struct {
	ToUIDs []string `json:"to_uids"`
}

// RespondInviteRequest is the JSON body for POST /api/v1/invites/:id/respond.
type RespondInviteRequest struct {
	Action string `json:"action"` // "accept" or "decline"
}

// SendInvites returns a handler for POST /api/v1/games/:id/invites.
// Responds 201 with the invite ids in request order, one per distinct recipient.
func SendInvites(svc *game.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req SendInvitesRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}

		ids, err := svc.SendInvites(c.UserContext(), c.Params("id"), middleware.UserID(c), req.ToUIDs)
		if err != nil {
			return writeError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"invite_ids": ids})
	}
}

// ListInvites returns a handler for GET /api/v1/invites.
// Lists invites addressed to the caller, newest first.
// Optional query param: ?status=pending (or accepted / declined).
func ListInvites(svc *game.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status := models.InviteStatus(c.Query("status"))

		invites, err := svc.ListInvites(c.UserContext(), middleware.UserID(c), status)
		if err != nil {
			return writeError(c, err)
		}
		if invites == nil {
			invites = []models.Invite{}
		}
		return c.JSON(invites)
	}
}

// RespondToInvite returns a handler for POST /api/v1/invites/:id/respond.
// Answering an invite that was already answered returns it unchanged with 200.
func RespondToInvite(svc *game.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req RespondInviteRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}

		inv, err := svc.RespondToInvite(c.UserContext(), c.Params("id"), middleware.UserID(c),
			game.InviteAction(req.Action))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"invite": inv})
	}
}
