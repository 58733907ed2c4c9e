package admin

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"

	pkgAuth "github.com/gdbrns/go-whatsapp-crm-gateway/pkg/auth"
	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/log"
	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/router"
	pkgWhatsApp "github.com/gdbrns/go-whatsapp-crm-gateway/pkg/whatsapp"
)

// Request types for admin endpoints
type CreateTokenRequest struct {
	Label string `json:"label" form:"label"`
}

type UpdateTokenRequest struct {
	Label    string `json:"label" form:"label"`
	IsActive *bool  `json:"is_active" form:"is_active"`
}

// Helper to convert string ID to int64
func parseTokenID(idStr string) (int64, error) {
	return strconv.ParseInt(idStr, 10, 64)
}

// @Summary     Create Gateway Token
// @Description Create a new gateway token (Admin only). Returns the token_secret once, plus a ready-to-use JWT.
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Param       X-Admin-Secret header string true "Admin secret key"
// @Param       body body CreateTokenRequest true "Token details"
// @Success     201 {object} pkgWhatsApp.GatewayToken
// @Failure     400 {object} router.ResError
// @Failure     401 {object} router.ResError
// @Failure     500 {object} router.ResError
// @Router      /admin/tokens [post]
func CreateToken(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	var req CreateTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return router.ResponseBadRequest(c, "Invalid request body")
	}

	if req.Label == "" {
		return router.ResponseBadRequest(c, "label is required")
	}

	token, err := pkgWhatsApp.CreateGatewayToken(ctx, req.Label)
	if err != nil {
		return router.ResponseInternalError(c, "Failed to create token: "+err.Error())
	}

	jwtToken, err := pkgAuth.GenerateGatewayToken(token.ID, token.Label, token.JWTVersion)
	if err != nil {
		return router.ResponseInternalError(c, "Failed to generate token JWT: "+err.Error())
	}

	log.TokenOp(c, "CreateToken").Info("Gateway token created")

	response := fiber.Map{
		"id":           token.ID,
		"label":        token.Label,
		"token_secret": token.TokenSecret,
		"token":        jwtToken,
		"created_at":   token.CreatedAt,
		"message":      "Token created successfully. Save the token_secret securely - it's needed to refresh JWTs. Use the token in Authorization header for all API calls.",
	}

	return router.ResponseCreatedWithData(c, "Token created successfully", response)
}

// @Summary     List Gateway Tokens
// @Description List all gateway tokens (Admin only). Secrets are never included.
// @Tags        Admin
// @Produce     json
// @Param       X-Admin-Secret header string true "Admin secret key"
// @Success     200 {array} pkgWhatsApp.GatewayToken
// @Failure     401 {object} router.ResError
// @Failure     500 {object} router.ResError
// @Router      /admin/tokens [get]
func ListTokens(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	tokens, err := pkgWhatsApp.ListGatewayTokens(ctx)
	if err != nil {
		return router.ResponseInternalError(c, "Failed to list tokens: "+err.Error())
	}

	return router.ResponseSuccessWithData(c, "Tokens retrieved successfully", tokens)
}

// @Summary     Get Gateway Token
// @Description Get gateway token details by ID (Admin only)
// @Tags        Admin
// @Produce     json
// @Param       X-Admin-Secret header string true "Admin secret key"
// @Param       id path int true "Token ID"
// @Success     200 {object} pkgWhatsApp.GatewayToken
// @Failure     401 {object} router.ResError
// @Failure     404 {object} router.ResError
// @Router      /admin/tokens/{id} [get]
func GetToken(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	id, err := parseTokenID(c.Params("id"))
	if err != nil {
		return router.ResponseBadRequest(c, "Invalid token ID")
	}

	token, err := pkgWhatsApp.GetGatewayTokenByID(ctx, id)
	if err != nil {
		return router.ResponseNotFound(c, "Token not found")
	}

	return router.ResponseSuccessWithData(c, "Token retrieved successfully", token)
}

// @Summary     Update Gateway Token
// @Description Update a gateway token label or active flag (Admin only)
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Param       X-Admin-Secret header string true "Admin secret key"
// @Param       id path int true "Token ID"
// @Param       body body UpdateTokenRequest true "Update details"
// @Success     200 {object} router.ResSuccess
// @Failure     400 {object} router.ResError
// @Failure     401 {object} router.ResError
// @Failure     404 {object} router.ResError
// @Router      /admin/tokens/{id} [put]
func UpdateToken(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	id, err := parseTokenID(c.Params("id"))
	if err != nil {
		return router.ResponseBadRequest(c, "Invalid token ID")
	}

	existing, err := pkgWhatsApp.GetGatewayTokenByID(ctx, id)
	if err != nil {
		return router.ResponseNotFound(c, "Token not found")
	}

	var req UpdateTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return router.ResponseBadRequest(c, "Invalid request body")
	}

	// Use existing values for empty fields
	if req.Label == "" {
		req.Label = existing.Label
	}

	isActive := existing.IsActive
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	err = pkgWhatsApp.UpdateGatewayToken(ctx, id, req.Label, isActive)
	if err != nil {
		return router.ResponseInternalError(c, "Failed to update token: "+err.Error())
	}

	log.TokenOp(c, "UpdateToken").Info("Gateway token updated")

	return router.ResponseSuccess(c, "Token updated successfully")
}

// @Summary     Delete Gateway Token
// @Description Delete a gateway token. Its JWTs stop validating once the version cache expires (Admin only).
// @Tags        Admin
// @Produce     json
// @Param       X-Admin-Secret header string true "Admin secret key"
// @Param       id path int true "Token ID"
// @Success     200 {object} router.ResSuccess
// @Failure     401 {object} router.ResError
// @Failure     404 {object} router.ResError
// @Router      /admin/tokens/{id} [delete]
func DeleteToken(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	id, err := parseTokenID(c.Params("id"))
	if err != nil {
		return router.ResponseBadRequest(c, "Invalid token ID")
	}

	err = pkgWhatsApp.DeleteGatewayToken(ctx, id)
	if err != nil {
		return router.ResponseNotFound(c, "Token not found")
	}

	log.TokenOp(c, "DeleteToken").Info("Gateway token deleted")

	return router.ResponseSuccess(c, "Token deleted successfully")
}

// @Summary     Regenerate Token Secret
// @Description Replace the token secret and invalidate all previously issued JWTs (Admin only)
// @Tags        Admin
// @Produce     json
// @Param       X-Admin-Secret header string true "Admin secret key"
// @Param       id path int true "Token ID"
// @Success     200 {object} pkgWhatsApp.GatewayToken
// @Failure     401 {object} router.ResError
// @Failure     404 {object} router.ResError
// @Router      /admin/tokens/{id}/regenerate [post]
func RegenerateTokenSecret(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	id, err := parseTokenID(c.Params("id"))
	if err != nil {
		return router.ResponseBadRequest(c, "Invalid token ID")
	}

	token, err := pkgWhatsApp.RegenerateGatewayTokenSecret(ctx, id)
	if err != nil {
		return router.ResponseNotFound(c, "Token not found")
	}

	jwtToken, err := pkgAuth.GenerateGatewayToken(token.ID, token.Label, token.JWTVersion)
	if err != nil {
		return router.ResponseInternalError(c, "Failed to generate token JWT: "+err.Error())
	}

	log.TokenOp(c, "RegenerateTokenSecret").Info("Gateway token secret regenerated")

	response := fiber.Map{
		"id":           token.ID,
		"label":        token.Label,
		"token_secret": token.TokenSecret,
		"token":        jwtToken,
		"message":      "Secret regenerated successfully. All previous tokens are now invalid.",
	}

	return router.ResponseSuccessWithData(c, "Secret regenerated successfully", response)
}

// @Summary     Get WhatsApp Version Status
// @Description Show the WhatsApp web version the client announces and when it was last refreshed (Admin only)
// @Tags        Admin
// @Produce     json
// @Param       X-Admin-Secret header string true "Admin secret key"
// @Success     200 {object} pkgWhatsApp.WAVersionRefreshStatus
// @Failure     401 {object} router.ResError
// @Router      /admin/version [get]
func GetWAVersion(c *fiber.Ctx) error {
	status := pkgWhatsApp.WhatsAppGetWAVersionRefreshStatus()
	return router.ResponseSuccessWithData(c, "WhatsApp version status", status)
}

// @Summary     Refresh WhatsApp Version
// @Description Fetch the latest WhatsApp web version and apply it to the client (Admin only)
// @Tags        Admin
// @Produce     json
// @Param       X-Admin-Secret header string true "Admin secret key"
// @Param       force query bool false "Refresh even when the version is current"
// @Success     200 {object} pkgWhatsApp.WAVersionRefreshStatus
// @Failure     401 {object} router.ResError
// @Failure     502 {object} router.ResError
// @Router      /admin/version/refresh [post]
func RefreshWAVersion(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	force := c.QueryBool("force", false)

	status, refreshed, err := pkgWhatsApp.WhatsAppRefreshWAVersion(ctx, force)
	if err != nil {
		return router.ResponseBadGateway(c, "Failed to refresh WhatsApp version: "+err.Error())
	}

	message := "WhatsApp version already current"
	if refreshed {
		message = "WhatsApp version refreshed"
	}

	return router.ResponseSuccessWithData(c, message, status)
}
