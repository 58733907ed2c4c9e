package history

import (
	"context"

	"github.com/gofiber/fiber/v2"

	typWhatsApp "github.com/gdbrns/go-whatsapp-crm-gateway/internal/types"
	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/log"
	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/router"
	pkgWhatsApp "github.com/gdbrns/go-whatsapp-crm-gateway/pkg/whatsapp"
)

func BuildHistorySyncRequest(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	var req typWhatsApp.RequestBuildHistorySync
	if err := c.BodyParser(&req); err != nil {
		log.SessionOp(c, "BuildHistorySyncRequest").Warn("Failed to parse body")
		return router.ResponseBadRequest(c, "Failed to parse body request")
	}

	if req.Count <= 0 {
		req.Count = 25
	}

	log.SessionOp(c, "BuildHistorySyncRequest").WithField("count", req.Count).Info("Building history sync request")

	err := pkgWhatsApp.WhatsAppBuildHistorySyncRequest(ctx, req.Count)
	if err != nil {
		log.SessionOp(c, "BuildHistorySyncRequest").WithError(err).Error("Failed to build history sync")
		return router.ResponseInternalError(c, err.Error())
	}

	log.SessionOp(c, "BuildHistorySyncRequest").Info("History sync request sent successfully")

	return router.ResponseSuccessWithData(c, "History sync requested", map[string]interface{}{
		"requested": true,
		"count":     req.Count,
		"note":      "History payloads are streamed asynchronously by the paired device",
	})
}
