package router

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/log"
)

type Response struct {
	Status  bool        `json:"status"`
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"` // kept for backward compatibility
}

// orStatusText substitutes the standard status text when the caller passed
// no message of its own.
func orStatusText(code int, message string) string {
	if strings.TrimSpace(message) == "" {
		return http.StatusText(code)
	}
	return message
}

func logSuccess(c *fiber.Ctx, code int, message string) {
	if c.OriginalURL() == BaseURL {
		message = http.StatusText(code)
	}
	log.Print(c).Info(fmt.Sprintf("%d %s", code, message))
}

func logError(c *fiber.Ctx, code int, message string) {
	log.Print(c).Error(fmt.Sprintf("%d %s", code, message))
}

func success(c *fiber.Ctx, code int, message string, data interface{}) error {
	message = orStatusText(code, message)
	logSuccess(c, code, message)
	return c.Status(code).JSON(Response{
		Status:  true,
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// failure mirrors the message into the error field so older CRM integrations
// that only read "error" keep working.
func failure(c *fiber.Ctx, code int, message string) error {
	message = orStatusText(code, message)
	logError(c, code, message)
	return c.Status(code).JSON(Response{
		Status:  false,
		Code:    code,
		Message: message,
		Error:   message,
	})
}

func ResponseSuccess(c *fiber.Ctx, message string) error {
	return success(c, http.StatusOK, message, nil)
}

func ResponseSuccessWithData(c *fiber.Ctx, message string, data interface{}) error {
	return success(c, http.StatusOK, message, data)
}

func ResponseSuccessWithHTML(c *fiber.Ctx, html string) error {
	logSuccess(c, http.StatusOK, http.StatusText(http.StatusOK))
	c.Type("html", "utf-8")
	return c.Status(http.StatusOK).SendString(html)
}

func ResponseCreated(c *fiber.Ctx, message string) error {
	return success(c, http.StatusCreated, message, nil)
}

func ResponseCreatedWithData(c *fiber.Ctx, message string, data interface{}) error {
	return success(c, http.StatusCreated, message, data)
}

func ResponseNoContent(c *fiber.Ctx) error {
	return c.SendStatus(http.StatusNoContent)
}

func ResponseNotFound(c *fiber.Ctx, message string) error {
	return failure(c, http.StatusNotFound, message)
}

func ResponseAuthenticate(c *fiber.Ctx) error {
	c.Set("WWW-Authenticate", `Basic realm="Authentication Required"`)
	return ResponseUnauthorized(c, "")
}

func ResponseUnauthorized(c *fiber.Ctx, message string) error {
	return failure(c, http.StatusUnauthorized, message)
}

func ResponseBadRequest(c *fiber.Ctx, message string) error {
	return failure(c, http.StatusBadRequest, message)
}

func ResponseInternalError(c *fiber.Ctx, message string) error {
	return failure(c, http.StatusInternalServerError, message)
}

func ResponseBadGateway(c *fiber.Ctx, message string) error {
	return failure(c, http.StatusBadGateway, message)
}
