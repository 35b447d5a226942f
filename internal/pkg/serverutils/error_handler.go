// Package serverutils holds small Fiber middleware shared by internal/server
// handlers. ErrorHandlerMiddleware is referenced by the teacher's own
// server.go but was never actually defined anywhere in that tree; this fills
// that gap for real, mapping this system's error taxonomy to HTTP status
// codes instead of leaking raw error strings.
package serverutils

import (
	"errors"

	"thoughtstream/internal/errkind"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware recovers any error returned by a downstream handler
// and renders it as a JSON body with an appropriate status code, classifying
// the error through errkind so the response never exposes Go error internals.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
		}

		if kind, ok := errkind.PermanentKind(err); ok {
			return c.Status(statusForPermanent(kind)).JSON(fiber.Map{"error": err.Error(), "kind": string(kind)})
		}
		if kind, ok := errkind.TransientKind(err); ok {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error(), "kind": string(kind)})
		}

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
}

func statusForPermanent(kind errkind.Kind) int {
	switch kind {
	case errkind.PermanentUnknownUser:
		return fiber.StatusNotFound
	case errkind.PermanentInvalidPayload:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusUnprocessableEntity
	}
}
