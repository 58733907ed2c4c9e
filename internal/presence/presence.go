package presence

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"

	typWhatsApp "github.com/gdbrns/go-whatsapp-crm-gateway/internal/types"
	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/router"
	pkgWhatsApp "github.com/gdbrns/go-whatsapp-crm-gateway/pkg/whatsapp"
)

func parseTimer(timer string) (int, error) {
	switch timer {
	case "off":
		return 0, nil
	case "24h":
		return 86400, nil
	case "7d":
		return 604800, nil
	case "90d":
		return 7776000, nil
	default:
		return 0, fmt.Errorf("invalid timer value")
	}
}

func SendChatPresence(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	chatJID := c.Params("chat_jid")

	var reqPresence typWhatsApp.RequestPresence
	err := c.BodyParser(&reqPresence)
	if err != nil {
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	phoneJID := pkgWhatsApp.WhatsAppGetJID(ctx, chatJID)

	isComposing := reqPresence.State == "composing"
	isAudio := reqPresence.Media == "audio"

	pkgWhatsApp.WhatsAppComposeStatus(ctx, phoneJID, isComposing, isAudio)

	return router.ResponseSuccess(c, "Success send presence")
}

func UpdateStatus(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	var req struct {
		Status string `json:"status"`
	}
	err := c.BodyParser(&req)
	if err != nil {
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	isAvailable := req.Status == "available"
	pkgWhatsApp.WhatsAppPresence(ctx, isAvailable)

	return router.ResponseSuccess(c, "Success update presence status")
}

func SetDisappearingTimer(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	chatJID := c.Params("chat_jid")

	var req struct {
		Timer string `json:"timer"`
	}
	err := c.BodyParser(&req)
	if err != nil {
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	timer, err := parseTimer(req.Timer)
	if err != nil {
		return router.ResponseBadRequest(c, "Invalid timer value")
	}

	err = pkgWhatsApp.WhatsAppSetDisappearingTimer(ctx, timer, chatJID)
	if err != nil {
		return router.ResponseInternalError(c, err.Error())
	}

	return router.ResponseSuccess(c, "Success set disappearing timer")
}
