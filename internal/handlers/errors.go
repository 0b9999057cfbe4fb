package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/trentd187/pub-golf/internal/game"
)

// statusByKind maps engine error kinds to HTTP status codes.
var statusByKind = map[game.Kind]int{
	game.KindNotFound:         fiber.StatusNotFound,
	game.KindPermissionDenied: fiber.StatusForbidden,
	game.KindInvalidState:     fiber.StatusConflict,
	game.KindValidation:       fiber.StatusBadRequest,
}

// writeError turns an engine error into a JSON error response.
// Business errors carry their own message; anything else is logged and reported as a
// generic 500 so driver details never reach the client.
func writeError(c *fiber.Ctx, err error) error {
	if kind, ok := game.KindOf(err); ok {
		return c.Status(statusByKind[kind]).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	log.Error().Err(err).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Msg("request failed")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "internal error",
	})
}

// badRequest is the shorthand for malformed bodies and missing fields.
func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}
