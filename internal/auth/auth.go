package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"

	typAuth "github.com/gdbrns/go-whatsapp-crm-gateway/internal/auth/types"
	pkgAuth "github.com/gdbrns/go-whatsapp-crm-gateway/pkg/auth"
	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/log"
	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/router"
	pkgWhatsApp "github.com/gdbrns/go-whatsapp-crm-gateway/pkg/whatsapp"
)

// RefreshToken exchanges gateway token credentials for a fresh JWT
// @Summary     Refresh Gateway Token
// @Description Exchange token_id and token_secret for a new JWT. Invalidates all previous JWTs of this token.
// @Tags        Authentication
// @Accept      json
// @Produce     json
// @Param       body body typAuth.RequestRefreshToken true "Token credentials"
// @Success     200 {object} typAuth.ResponseTokenRefreshed
// @Failure     400 {object} router.ResError
// @Failure     401 {object} router.ResError
// @Failure     500 {object} router.ResError
// @Router      /tokens/refresh [post]
func RefreshToken(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	var req typAuth.RequestRefreshToken
	if err := c.BodyParser(&req); err != nil {
		return router.ResponseBadRequest(c, "Invalid request body")
	}

	if req.TokenID <= 0 || req.TokenSecret == "" {
		return router.ResponseBadRequest(c, "token_id and token_secret are required")
	}

	token, err := pkgWhatsApp.ValidateGatewayTokenCredentials(ctx, req.TokenID, req.TokenSecret)
	if err != nil {
		log.TokenOp(c, "RefreshToken").Warn("Invalid token credentials")
		return router.ResponseUnauthorized(c, "Invalid token credentials")
	}

	// Increment JWT version to invalidate old tokens
	newVersion, err := pkgWhatsApp.IncrementGatewayTokenVersion(ctx, token.ID)
	if err != nil {
		return router.ResponseInternalError(c, "Failed to invalidate old tokens")
	}

	jwtToken, err := pkgAuth.GenerateGatewayToken(token.ID, token.Label, newVersion)
	if err != nil {
		return router.ResponseInternalError(c, "Failed to generate new token: "+err.Error())
	}

	log.TokenOp(c, "RefreshToken").Info("Token refreshed")

	response := typAuth.ResponseTokenRefreshed{
		TokenID: token.ID,
		Label:   token.Label,
		Token:   jwtToken,
		Message: "Token refreshed successfully. All previous tokens are now invalid.",
	}

	return router.ResponseSuccessWithData(c, "Token refreshed successfully", response)
}
