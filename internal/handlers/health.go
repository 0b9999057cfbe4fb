// Package handlers contains the HTTP route handler functions for the Pub Golf API.
// Each handler corresponds to one API endpoint and is responsible for reading the
// request, calling into the game engine, and writing a response.
//
// Every exported function follows the "handler factory" pattern: it takes its dependencies
// (the engine service or the database) and returns a fiber.Handler, so nothing lives in
// package-level globals.
package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/trentd187/pub-golf/internal/database"
)

// HealthCheck returns a handler for GET /health.
// It reports whether the server is up and the database answers a ping. Load balancers and
// container probes use it, so it stays unauthenticated and cheap.
func HealthCheck(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		if err := database.Ping(ctx, db); err != nil {
			log.Warn().Err(err).Msg("health check: database unreachable")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":   "degraded",
				"database": "unreachable",
			})
		}
		return c.JSON(fiber.Map{"status": "ok", "database": "ok"})
	}
}
