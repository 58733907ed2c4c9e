package bot

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/log"
	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/router"
	pkgWhatsApp "github.com/gdbrns/go-whatsapp-crm-gateway/pkg/whatsapp"
)

// GetBotList retrieves the list of available WhatsApp bots
func GetBotList(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	log.SessionOp(c, "GetBotList").Info("Getting bot list")

	botList, err := pkgWhatsApp.WhatsAppGetBotListV2(ctx)
	if err != nil {
		log.SessionOp(c, "GetBotList").
			WithError(err).
			Error("Failed to get bot list")
		return router.ResponseInternalError(c, err.Error())
	}

	// Convert to response format
	bots := make([]map[string]interface{}, 0, len(botList))
	for _, bot := range botList {
		bots = append(bots, map[string]interface{}{
			"jid":        bot.BotJID.String(),
			"persona_id": bot.PersonaID,
		})
	}

	log.SessionOp(c, "GetBotList").
		WithField("count", len(bots)).
		Info("Bot list retrieved successfully")

	return router.ResponseSuccessWithData(c, "Success get bot list", map[string]interface{}{
		"bots": bots,
	})
}

// GetBotProfiles retrieves profiles for available bots
func GetBotProfiles(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	log.SessionOp(c, "GetBotProfiles").Info("Getting bot profiles")

	// First get the bot list
	botList, err := pkgWhatsApp.WhatsAppGetBotListV2(ctx)
	if err != nil {
		log.SessionOp(c, "GetBotProfiles").
			WithError(err).
			Error("Failed to get bot list")
		return router.ResponseInternalError(c, err.Error())
	}

	if len(botList) == 0 {
		return router.ResponseSuccessWithData(c, "No bots available", map[string]interface{}{
			"profiles": []interface{}{},
		})
	}

	// Get profiles for the bots
	profiles, err := pkgWhatsApp.WhatsAppGetBotProfiles(ctx, botList)
	if err != nil {
		log.SessionOp(c, "GetBotProfiles").
			WithError(err).
			Error("Failed to get bot profiles")
		return router.ResponseInternalError(c, err.Error())
	}

	// Convert to response format
	result := make([]map[string]interface{}, 0, len(profiles))
	for _, profile := range profiles {
		result = append(result, map[string]interface{}{
			"jid":         profile.JID.String(),
			"persona_id":  profile.PersonaID,
			"name":        profile.Name,
			"description": profile.Description,
			"commands":    profile.Commands,
		})
	}

	log.SessionOp(c, "GetBotProfiles").
		WithField("count", len(result)).
		Info("Bot profiles retrieved successfully")

	return router.ResponseSuccessWithData(c, "Success get bot profiles", map[string]interface{}{
		"profiles": result,
	})
}
