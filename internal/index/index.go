package index

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/router"
	pkgWhatsApp "github.com/gdbrns/go-whatsapp-crm-gateway/pkg/whatsapp"
)

// Index
// @Summary     Show The Status of The Server
// @Description Get The Server Status
// @Tags        Root
// @Produce     json
// @Success     200
// @Router      / [get]
func Index(c *fiber.Ctx) error {
	return router.ResponseSuccess(c, "Go WhatsApp CRM Gateway is running")
}

// Health
// @Summary     Health Check
// @Description Report session and datastore health
// @Tags        Root
// @Produce     json
// @Success     200
// @Router      /health [get]
func Health(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	status := pkgWhatsApp.WhatsAppSessionStatus()

	storeHealthy := true
	var storeError string
	if err := pkgWhatsApp.GatewayStoreHealth(ctx); err != nil {
		storeHealthy = false
		storeError = err.Error()
	}

	data := map[string]interface{}{
		"session": status,
		"store": map[string]interface{}{
			"healthy": storeHealthy,
		},
	}
	if storeError != "" {
		data["store"].(map[string]interface{})["error"] = storeError
	}

	if !storeHealthy {
		return router.ResponseInternalError(c, "Gateway store is unreachable")
	}

	return router.ResponseSuccessWithData(c, "Gateway is healthy", data)
}
