package call

import (
	"context"

	"github.com/gofiber/fiber/v2"

	typWhatsApp "github.com/gdbrns/go-whatsapp-crm-gateway/internal/types"
	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/log"
	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/router"
	pkgWhatsApp "github.com/gdbrns/go-whatsapp-crm-gateway/pkg/whatsapp"
)

// RejectCall rejects an incoming WhatsApp call
func RejectCall(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	var req typWhatsApp.RequestRejectCall
	if err := c.BodyParser(&req); err != nil {
		log.SessionOp(c, "RejectCall").Warn("Failed to parse body request")
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	if req.CallFrom == "" || req.CallID == "" {
		log.SessionOp(c, "RejectCall").Warn("Missing required fields")
		return router.ResponseBadRequest(c, "call_from and call_id are required")
	}

	log.SessionOp(c, "RejectCall").
		WithField("call_from", req.CallFrom).
		WithField("call_id", req.CallID).
		Info("Rejecting call")

	err := pkgWhatsApp.WhatsAppRejectCall(ctx, req.CallFrom, req.CallID)
	if err != nil {
		log.SessionOp(c, "RejectCall").WithError(err).Error("Failed to reject call")
		return router.ResponseInternalError(c, err.Error())
	}

	log.SessionOp(c, "RejectCall").
		WithField("call_from", req.CallFrom).
		WithField("call_id", req.CallID).
		Info("Call rejected successfully")

	return router.ResponseSuccess(c, "Call rejected successfully")
}
