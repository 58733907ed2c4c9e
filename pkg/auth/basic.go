package auth

import (
	"context"
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/env"
	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/router"
	pkgWhatsApp "github.com/gdbrns/go-whatsapp-crm-gateway/pkg/whatsapp"
)

// AdminSecretKey guards the /admin/* tier. Empty until ADMIN_SECRET_KEY is
// set; AdminAuth refuses requests rather than failing the process at init.
var AdminSecretKey string

func init() {
	AdminSecretKey, _ = env.GetEnvString("ADMIN_SECRET_KEY")
}

// AdminAuth validates the X-Admin-Secret header for admin endpoints
func AdminAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		adminSecret := c.Get("X-Admin-Secret")
		if adminSecret == "" {
			return router.ResponseUnauthorized(c, "Missing X-Admin-Secret header")
		}

		if AdminSecretKey == "" {
			return router.ResponseInternalError(c, "Admin secret key not configured")
		}

		if subtle.ConstantTimeCompare([]byte(adminSecret), []byte(AdminSecretKey)) != 1 {
			return router.ResponseUnauthorized(c, "Invalid admin secret")
		}

		return c.Next()
	}
}

// TokenAuth validates the JWT token from Authorization header
// Token format: "Bearer <jwt_token>"
// Claims are validated statelessly; the token version is then checked against
// the gateway store so revoked tokens die immediately.
func TokenAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return router.ResponseUnauthorized(c, "Missing Authorization header")
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return router.ResponseUnauthorized(c, "Invalid Authorization header format. Use: Bearer <token>")
		}

		tokenString := parts[1]
		if tokenString == "" {
			return router.ResponseUnauthorized(c, "Missing token")
		}

		claims, err := ValidateGatewayToken(tokenString)
		if err != nil {
			return router.ResponseUnauthorized(c, "Invalid or expired token")
		}

		ctx := c.UserContext()
		if ctx == nil {
			ctx = context.Background()
		}
		currentVersion, err := pkgWhatsApp.GetGatewayTokenVersion(ctx, claims.TokenID)
		if err != nil {
			return router.ResponseUnauthorized(c, "Token not found")
		}
		if claims.TokenVersion != currentVersion {
			return router.ResponseUnauthorized(c, "Token has been revoked. Please regenerate a new token.")
		}

		// Store caller context in locals (from JWT claims - no extra DB hit)
		c.Locals("token_id", claims.TokenID)
		c.Locals("token_label", claims.Label)
		c.Locals("token_version", claims.TokenVersion)

		return c.Next()
	}
}
