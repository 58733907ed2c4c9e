package router

import (
	"fmt"
	"runtime/debug"

	"github.com/gofiber/fiber/v2"

	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/log"
)

// RecoveryMiddleware converts panics into the standard JSON envelope instead
// of letting fasthttp tear the connection down. Register it before the routes.
func RecoveryMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			message := fmt.Sprintf("%v", rec)
			log.Print(c).
				WithField("request_id", c.Locals("request_id")).
				WithField("stack", string(debug.Stack())).
				Error("panic recovered: " + message)
			_ = c.Status(fiber.StatusInternalServerError).JSON(Response{
				Status:  false,
				Code:    fiber.StatusInternalServerError,
				Message: message,
				Error:   message,
			})
		}()
		return c.Next()
	}
}
