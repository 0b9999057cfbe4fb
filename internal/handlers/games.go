package handlers

// games.go handles the /api/v1/games routes: creating a crawl, reading it, moving it through
// its lifecycle and recording scores.
//
// --- Permission model ---
// Handlers never decide who may do what. They pass the authenticated uid (set by
// middleware.Auth) into the engine, which checks host authority against the same snapshot it
// mutates. A role check here would read the game a second time and could act on stale data.

import (
	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/pub-golf/internal/game"
	"github.com/trentd187/pub-golf/internal/middleware"
	"github.com/trentd187/pub-golf/internal/models"
)

// CreateGameRequest is the JSON body we expect on POST /api/v1/games.
type CreateGameRequest struct {
	Title  string         `json:"title"`  // Optional; defaults to "Pub Golf"
	Origin models.Venue   `json:"origin"` // Where the crawl starts
	Venues []models.Venue `json:"venues"` // Nearby candidates from the places provider
}

// RecordScoreRequest is the JSON body for POST /api/v1/games/:id/scores.
// Strokes is a pointer so a missing field can be told apart from a zero score.
type RecordScoreRequest struct {
	PlayerUID  string `json:"player_uid"`
	HoleNumber int    `json:"hole_number"`
	Strokes    *int   `json:"strokes"`
}

// CreateGame returns a handler for POST /api/v1/games.
// The caller becomes the host and only player of a new pending game.
func CreateGame(svc *game.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req CreateGameRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}

		g, err := svc.CreateGame(c.UserContext(), game.CreateGameInput{
			HostUID: middleware.UserID(c),
			Title:   req.Title,
			Origin:  req.Origin,
			Venues:  req.Venues,
		})
		if err != nil {
			return writeError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(g)
	}
}

// GetGame returns a handler for GET /api/v1/games/:id.
// Clients poll this; the response is the full game document.
func GetGame(svc *game.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		g, err := svc.GetGame(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(g)
	}
}

// GetLeaderboard returns a handler for GET /api/v1/games/:id/leaderboard.
func GetLeaderboard(svc *game.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rows, err := svc.Leaderboard(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(rows)
	}
}

// StartGame returns a handler for POST /api/v1/games/:id/start. Host only.
func StartGame(svc *game.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		g, err := svc.StartGame(c.UserContext(), c.Params("id"), middleware.UserID(c))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(g)
	}
}

// FinishGame returns a handler for POST /api/v1/games/:id/finish. Host only.
func FinishGame(svc *game.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		g, err := svc.FinishGame(c.UserContext(), c.Params("id"), middleware.UserID(c))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(g)
	}
}

// RecordScore returns a handler for POST /api/v1/games/:id/scores.
// The host records a player's total for one hole; the engine recomputes totals.
func RecordScore(svc *game.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req RecordScoreRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid request body")
		}
		if req.PlayerUID == "" {
			return badRequest(c, "player_uid is required")
		}
		if req.Strokes == nil {
			return badRequest(c, "strokes is required")
		}

		g, err := svc.RecordScore(c.UserContext(), c.Params("id"), middleware.UserID(c),
			req.PlayerUID, req.HoleNumber, *req.Strokes)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(g)
	}
}
