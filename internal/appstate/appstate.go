package appstate

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.mau.fi/whatsmeow/appstate"

	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/router"
	pkgWhatsApp "github.com/gdbrns/go-whatsapp-crm-gateway/pkg/whatsapp"
)

func FetchAppState(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	appStateName := c.Params("name")

	// Validate app state name
	if appStateName == "" {
		return router.ResponseBadRequest(c, "app state name is required")
	}

	// Parse query parameters
	fullSync := c.QueryBool("full_sync", false)
	onlyIfNotSynced := c.QueryBool("only_if_not_synced", false)

	err := pkgWhatsApp.WhatsAppFetchAppState(ctx, appStateName, fullSync, onlyIfNotSynced)
	if err != nil {
		return router.ResponseInternalError(c, "Failed to fetch app state: "+err.Error())
	}

	return router.ResponseSuccessWithData(c, "Successfully fetched app state", map[string]interface{}{
		"name":               appStateName,
		"full_sync":          fullSync,
		"only_if_not_synced": onlyIfNotSynced,
	})
}

func SendAppState(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	var req struct {
		Name   string                 `json:"name"`
		Action string                 `json:"action"`
		Data   map[string]interface{} `json:"data"`
	}

	err := c.BodyParser(&req)
	if err != nil {
		return router.ResponseBadRequest(c, "Failed to parse request body")
	}

	// Validate required fields
	if req.Name == "" {
		return router.ResponseBadRequest(c, "app state name is required")
	}
	if req.Action == "" {
		return router.ResponseBadRequest(c, "action is required")
	}

	// Build patch info based on action
	var patchInfo appstate.PatchInfo

	switch req.Action {
	case "mute":
		// Handle chat mute/unmute
		chatJID, ok := req.Data["chat_jid"].(string)
		if !ok {
			return router.ResponseBadRequest(c, "chat_jid is required for mute action")
		}
		muted, _ := req.Data["muted"].(bool)
		duration, _ := req.Data["duration"].(float64)

		parsedJID, err := pkgWhatsApp.WhatsAppCheckJID(ctx, chatJID)
		if err != nil {
			return router.ResponseInternalError(c, "Invalid chat JID: "+err.Error())
		}

		patchInfo = appstate.BuildMute(parsedJID, muted, time.Duration(duration)*time.Second)

	case "pin":
		// Handle chat pin/unpin
		chatJID, ok := req.Data["chat_jid"].(string)
		if !ok {
			return router.ResponseBadRequest(c, "chat_jid is required for pin action")
		}
		pinned, _ := req.Data["pinned"].(bool)

		parsedJID, err := pkgWhatsApp.WhatsAppCheckJID(ctx, chatJID)
		if err != nil {
			return router.ResponseInternalError(c, "Invalid chat JID: "+err.Error())
		}

		patchInfo = appstate.BuildPin(parsedJID, pinned)

	default:
		return router.ResponseBadRequest(c, "unsupported action: "+req.Action)
	}

	err = pkgWhatsApp.WhatsAppSendAppState(ctx, patchInfo)
	if err != nil {
		return router.ResponseInternalError(c, "Failed to send app state: "+err.Error())
	}

	return router.ResponseSuccessWithData(c, "Successfully sent app state", map[string]interface{}{
		"name":   req.Name,
		"action": req.Action,
	})
}

func MarkNotDirty(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	var req struct {
		CleanType string `json:"clean_type"`
		Timestamp int64  `json:"timestamp"`
	}

	err := c.BodyParser(&req)
	if err != nil {
		return router.ResponseBadRequest(c, "Failed to parse request body")
	}

	// Validate required fields
	if req.CleanType == "" {
		return router.ResponseBadRequest(c, "clean_type is required")
	}

	// Use provided timestamp or current time
	var timestamp time.Time
	if req.Timestamp > 0 {
		timestamp = time.Unix(req.Timestamp, 0)
	} else {
		timestamp = time.Now()
	}

	err = pkgWhatsApp.WhatsAppMarkNotDirty(ctx, req.CleanType, timestamp)
	if err != nil {
		return router.ResponseInternalError(c, "Failed to mark app state as clean: "+err.Error())
	}

	return router.ResponseSuccessWithData(c, "Successfully marked app state as clean", map[string]interface{}{
		"clean_type": req.CleanType,
		"timestamp":  timestamp.Unix(),
	})
}
