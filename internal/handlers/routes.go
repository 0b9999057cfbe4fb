package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/trentd187/pub-golf/internal/config"
	"github.com/trentd187/pub-golf/internal/game"
	"github.com/trentd187/pub-golf/internal/middleware"
)

// Register mounts every route on app.
//
// Route group pattern: app.Group(prefix, middlewares...) applies the auth middleware to every
// route registered on the returned group, so it is not repeated per route.
func Register(app *fiber.App, cfg *config.Config, db *gorm.DB, svc *game.Service) {
	// Public: liveness and database reachability.
	app.Get("/health", HealthCheck(db))

	api := app.Group("/api/v1", middleware.Auth(cfg, db))

	// Game routes
	// POST /api/v1/games                  create a crawl, caller becomes host
	// GET  /api/v1/games/:id              polled by clients
	// GET  /api/v1/games/:id/leaderboard  standings
	// POST /api/v1/games/:id/start        host only
	// POST /api/v1/games/:id/scores       host only
	// POST /api/v1/games/:id/finish       host only
	api.Post("/games", CreateGame(svc))
	api.Get("/games/:id", GetGame(svc))
	api.Get("/games/:id/leaderboard", GetLeaderboard(svc))
	api.Post("/games/:id/start", StartGame(svc))
	api.Post("/games/:id/scores", RecordScore(svc))
	api.Post("/games/:id/finish", FinishGame(svc))

	// Invite routes
	// POST /api/v1/games/:id/invites      invite friends to a game
	// GET  /api/v1/invites                caller's inbox, optional ?status=
	// POST /api/v1/invites/:id/respond    accept or decline
	api.Post("/games/:id/invites", SendInvites(svc))
	api.Get("/invites", ListInvites(svc))
	api.Post("/invites/:id/respond", RespondToInvite(svc))
}
