package middleware

import (
	"log/slog"
	"runtime/debug"

	"github.com/gofiber/fiber/v2"

	"github.com/datalumen/lumen/internal/domain"
)

// Recover stops a panicking handler from killing the fasthttp worker. The
// panic value and stack are logged; the client gets the generic 500 envelope.
func Recover(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			logger.Error("panic recovered",
				slog.Any("panic", r),
				slog.String("method", c.Method()),
				slog.String("path", c.Path()),
				slog.String("stack", string(debug.Stack())),
			)

			_ = respond(c, fiber.StatusInternalServerError,
				domain.ErrInternal.Code, domain.ErrInternal.Message)
		}()
		return c.Next()
	}
}
