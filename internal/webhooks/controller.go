package webhooks

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/gdbrns/go-whatsapp-crm-gateway/internal/webhook"
	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/log"
	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/router"
	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/validation"
	pkgWhatsApp "github.com/gdbrns/go-whatsapp-crm-gateway/pkg/whatsapp"
)

type createWebhookRequest struct {
	URL    string   `json:"url"`
	Events []string `json:"events"`
}

type updateWebhookRequest struct {
	URL    string   `json:"url"`
	Events []string `json:"events"`
	Active bool     `json:"active"`
}

func toEventTypes(events []string) []webhook.EventType {
	out := make([]webhook.EventType, 0, len(events))
	for _, evt := range events {
		out = append(out, webhook.EventType(evt))
	}
	return out
}

func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx
}

func ListWebhooks(c *fiber.Ctx) error {
	log.WebhookOp(c, "ListWebhooks", 0).Info("Listing webhooks")

	engine := pkgWhatsApp.GetWebhookEngine()
	if engine == nil {
		log.WebhookOp(c, "ListWebhooks", 0).Error("Webhook engine not initialized")
		return router.ResponseInternalError(c, "webhook engine not initialized")
	}

	webhooks, err := engine.Store().GetAllWebhooks(requestContext(c))
	if err != nil {
		log.WebhookOp(c, "ListWebhooks", 0).WithError(err).Error("Failed to list webhooks")
		return router.ResponseInternalError(c, err.Error())
	}

	webhookCount := 0
	if webhooks != nil {
		webhookCount = len(webhooks)
	}

	log.WebhookOp(c, "ListWebhooks", 0).WithField("webhook_count", webhookCount).Info("Webhooks listed successfully")

	return router.ResponseSuccessWithData(c, "success", map[string]interface{}{"webhooks": webhooks})
}

func GetWebhook(c *fiber.Ctx) error {
	webhookID, err := c.ParamsInt("webhook_id")
	if err != nil {
		log.WebhookOp(c, "GetWebhook", 0).Warn("Invalid webhook_id parameter")
		return router.ResponseBadRequest(c, "invalid webhook_id")
	}

	log.WebhookOp(c, "GetWebhook", int64(webhookID)).Info("Getting webhook")

	engine := pkgWhatsApp.GetWebhookEngine()
	if engine == nil {
		log.WebhookOp(c, "GetWebhook", int64(webhookID)).Error("Webhook engine not initialized")
		return router.ResponseInternalError(c, "webhook engine not initialized")
	}

	wh, err := engine.Store().GetWebhook(requestContext(c), int64(webhookID))
	if errors.Is(err, sql.ErrNoRows) {
		return router.ResponseNotFound(c, "webhook not found")
	}
	if err != nil {
		log.WebhookOp(c, "GetWebhook", int64(webhookID)).WithError(err).Error("Failed to get webhook")
		return router.ResponseInternalError(c, err.Error())
	}

	log.WebhookOp(c, "GetWebhook", int64(webhookID)).Info("Webhook retrieved successfully")

	return router.ResponseSuccessWithData(c, "success", map[string]interface{}{"webhook": wh})
}

func CreateWebhook(c *fiber.Ctx) error {
	var req createWebhookRequest
	if err := c.BodyParser(&req); err != nil {
		log.WebhookOp(c, "CreateWebhook", 0).Warn("Invalid request body")
		return router.ResponseBadRequest(c, "invalid request body")
	}

	if err := validation.ValidateURL(req.URL); err != nil {
		log.WebhookOp(c, "CreateWebhook", 0).WithError(err).Warn("Invalid webhook URL")
		return router.ResponseBadRequest(c, err.Error())
	}
	if err := validation.ValidateEventList(req.Events, webhook.KnownEventTypes()); err != nil {
		log.WebhookOp(c, "CreateWebhook", 0).WithError(err).Warn("Invalid event list")
		return router.ResponseBadRequest(c, err.Error())
	}

	log.WebhookOp(c, "CreateWebhook", 0).WithField("url", req.URL).WithField("event_count", len(req.Events)).Info("Creating webhook")

	// The signing secret is generated server-side and returned exactly once
	secret := make([]byte, 32)
	_, _ = rand.Read(secret)
	secretStr := hex.EncodeToString(secret)

	engine := pkgWhatsApp.GetWebhookEngine()
	if engine == nil {
		log.WebhookOp(c, "CreateWebhook", 0).Error("Webhook engine not initialized")
		return router.ResponseInternalError(c, "webhook engine not initialized")
	}

	webhookID, err := engine.Store().CreateWebhook(requestContext(c), req.URL, secretStr, toEventTypes(req.Events))
	if err != nil {
		log.WebhookOp(c, "CreateWebhook", 0).WithField("url", req.URL).WithError(err).Error("Failed to create webhook")
		return router.ResponseInternalError(c, err.Error())
	}

	log.WebhookOp(c, "CreateWebhook", webhookID).WithField("url", req.URL).Info("Webhook created successfully")

	return router.ResponseCreatedWithData(c, "webhook created", map[string]interface{}{"webhook_id": webhookID, "secret": secretStr})
}

func UpdateWebhook(c *fiber.Ctx) error {
	webhookID, err := c.ParamsInt("webhook_id")
	if err != nil {
		log.WebhookOp(c, "UpdateWebhook", 0).Warn("Invalid webhook_id parameter")
		return router.ResponseBadRequest(c, "invalid webhook_id")
	}

	var req updateWebhookRequest
	if err := c.BodyParser(&req); err != nil {
		log.WebhookOp(c, "UpdateWebhook", int64(webhookID)).Warn("Invalid request body")
		return router.ResponseBadRequest(c, "invalid request body")
	}

	if err := validation.ValidateURL(req.URL); err != nil {
		log.WebhookOp(c, "UpdateWebhook", int64(webhookID)).WithError(err).Warn("Invalid webhook URL")
		return router.ResponseBadRequest(c, err.Error())
	}
	if err := validation.ValidateEventList(req.Events, webhook.KnownEventTypes()); err != nil {
		log.WebhookOp(c, "UpdateWebhook", int64(webhookID)).WithError(err).Warn("Invalid event list")
		return router.ResponseBadRequest(c, err.Error())
	}

	log.WebhookOp(c, "UpdateWebhook", int64(webhookID)).WithField("url", req.URL).WithField("active", req.Active).Info("Updating webhook")

	engine := pkgWhatsApp.GetWebhookEngine()
	if engine == nil {
		log.WebhookOp(c, "UpdateWebhook", int64(webhookID)).Error("Webhook engine not initialized")
		return router.ResponseInternalError(c, "webhook engine not initialized")
	}

	ctx := requestContext(c)

	// Keep the existing secret, updates never rotate it
	wh, err := engine.Store().GetWebhook(ctx, int64(webhookID))
	if errors.Is(err, sql.ErrNoRows) {
		return router.ResponseNotFound(c, "webhook not found")
	}
	if err != nil {
		log.WebhookOp(c, "UpdateWebhook", int64(webhookID)).WithError(err).Error("Failed to get existing webhook")
		return router.ResponseInternalError(c, err.Error())
	}

	if err := engine.Store().UpdateWebhook(ctx, int64(webhookID), req.URL, wh.Secret, toEventTypes(req.Events), req.Active); err != nil {
		log.WebhookOp(c, "UpdateWebhook", int64(webhookID)).WithError(err).Error("Failed to update webhook")
		return router.ResponseInternalError(c, err.Error())
	}

	log.WebhookOp(c, "UpdateWebhook", int64(webhookID)).WithField("url", req.URL).WithField("active", req.Active).Info("Webhook updated successfully")

	return router.ResponseSuccess(c, "webhook updated")
}

func DeleteWebhook(c *fiber.Ctx) error {
	webhookID, err := c.ParamsInt("webhook_id")
	if err != nil {
		log.WebhookOp(c, "DeleteWebhook", 0).Warn("Invalid webhook_id parameter")
		return router.ResponseBadRequest(c, "invalid webhook_id")
	}

	log.WebhookOp(c, "DeleteWebhook", int64(webhookID)).Info("Deleting webhook")

	engine := pkgWhatsApp.GetWebhookEngine()
	if engine == nil {
		log.WebhookOp(c, "DeleteWebhook", int64(webhookID)).Error("Webhook engine not initialized")
		return router.ResponseInternalError(c, "webhook engine not initialized")
	}

	err = engine.Store().DeleteWebhook(requestContext(c), int64(webhookID))
	if errors.Is(err, sql.ErrNoRows) {
		return router.ResponseNotFound(c, "webhook not found")
	}
	if err != nil {
		log.WebhookOp(c, "DeleteWebhook", int64(webhookID)).WithError(err).Error("Failed to delete webhook")
		return router.ResponseInternalError(c, err.Error())
	}

	log.WebhookOp(c, "DeleteWebhook", int64(webhookID)).Info("Webhook deleted successfully")

	return router.ResponseSuccess(c, "webhook deleted")
}

func GetWebhookLogs(c *fiber.Ctx) error {
	webhookID, err := c.ParamsInt("webhook_id")
	if err != nil {
		log.WebhookOp(c, "GetWebhookLogs", 0).Warn("Invalid webhook_id parameter")
		return router.ResponseBadRequest(c, "invalid webhook_id")
	}

	limit := c.QueryInt("limit", 100)

	log.WebhookOp(c, "GetWebhookLogs", int64(webhookID)).Info("Getting webhook logs")

	engine := pkgWhatsApp.GetWebhookEngine()
	if engine == nil {
		log.WebhookOp(c, "GetWebhookLogs", int64(webhookID)).Error("Webhook engine not initialized")
		return router.ResponseInternalError(c, "webhook engine not initialized")
	}

	ctx := requestContext(c)

	_, err = engine.Store().GetWebhook(ctx, int64(webhookID))
	if errors.Is(err, sql.ErrNoRows) {
		return router.ResponseNotFound(c, "webhook not found")
	}
	if err != nil {
		log.WebhookOp(c, "GetWebhookLogs", int64(webhookID)).WithError(err).Error("Failed to get webhook")
		return router.ResponseInternalError(c, err.Error())
	}

	logs, err := engine.Store().GetDeliveryLogs(ctx, int64(webhookID), limit)
	if err != nil {
		log.WebhookOp(c, "GetWebhookLogs", int64(webhookID)).WithError(err).Error("Failed to get delivery logs")
		return router.ResponseInternalError(c, err.Error())
	}

	logCount := 0
	if logs != nil {
		logCount = len(logs)
	}

	log.WebhookOp(c, "GetWebhookLogs", int64(webhookID)).WithField("log_count", logCount).Info("Webhook logs retrieved successfully")

	return router.ResponseSuccessWithData(c, "success", map[string]interface{}{"logs": logs})
}

func TestWebhook(c *fiber.Ctx) error {
	webhookID, err := c.ParamsInt("webhook_id")
	if err != nil {
		log.WebhookOp(c, "TestWebhook", 0).Warn("Invalid webhook_id parameter")
		return router.ResponseBadRequest(c, "invalid webhook_id")
	}

	log.WebhookOp(c, "TestWebhook", int64(webhookID)).Info("Testing webhook")

	engine := pkgWhatsApp.GetWebhookEngine()
	if engine == nil {
		log.WebhookOp(c, "TestWebhook", int64(webhookID)).Error("Webhook engine not initialized")
		return router.ResponseInternalError(c, "webhook engine not initialized")
	}

	err = engine.DispatchTest(requestContext(c), int64(webhookID))
	if errors.Is(err, sql.ErrNoRows) {
		return router.ResponseNotFound(c, "webhook not found")
	}
	if err != nil {
		log.WebhookOp(c, "TestWebhook", int64(webhookID)).WithError(err).Error("Failed to dispatch test event")
		return router.ResponseInternalError(c, err.Error())
	}

	log.WebhookOp(c, "TestWebhook", int64(webhookID)).Info("Test webhook dispatched successfully")

	return router.ResponseSuccess(c, "test webhook dispatched")
}
