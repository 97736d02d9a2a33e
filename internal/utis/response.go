package utils

import "github.com/gofiber/fiber/v2"

// JSONSuccess wraps a payload in the envelope every pipeline endpoint
// returns: staged items, signed urls and progress snapshots all ride in
// "data".
func JSONSuccess(c *fiber.Ctx, status int, payload interface{}) error {
	return c.Status(status).JSON(fiber.Map{"status": "ok", "data": payload})
}

// JSONError reports a handler failure without leaking internals; the message
// is user-facing, the cause goes to the logger.
func JSONError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"status": "error", "message": msg})
}
