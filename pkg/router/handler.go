package router

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// HttpErrorHandler turns unhandled route errors into the standard envelope.
// fiber errors keep their own status code, anything else becomes a 500.
func HttpErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	}

	logError(c, code, message)
	return c.Status(code).JSON(&Response{
		Status:  false,
		Code:    code,
		Message: message,
		Error:   message,
	})
}
