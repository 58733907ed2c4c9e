package session

import (
	"context"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	typWhatsApp "github.com/gdbrns/go-whatsapp-crm-gateway/internal/types"
	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/log"
	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/router"
	pkgWhatsApp "github.com/gdbrns/go-whatsapp-crm-gateway/pkg/whatsapp"
)

// Login starts the QR pairing flow, or reconnects when already paired
func Login(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	var reqLogin typWhatsApp.RequestLogin
	reqLogin.Output = strings.TrimSpace(c.FormValue("output"))
	if len(reqLogin.Output) == 0 {
		reqLogin.Output = "html"
	}

	if err := pkgWhatsApp.WhatsAppEnsureClient(ctx); err != nil {
		log.SessionOp(c, "Login").WithError(err).Error("Failed to init client")
		return router.ResponseInternalError(c, err.Error())
	}

	qrCodeImage, qrCodeTimeout, err := pkgWhatsApp.WhatsAppLogin()
	if err != nil {
		log.SessionOp(c, "Login").WithError(err).Error("Failed to login")
		return router.ResponseInternalError(c, err.Error())
	}

	if qrCodeImage == "WhatsApp Client is Reconnected" || qrCodeImage == "WhatsApp Client is already paired" {
		return router.ResponseSuccess(c, qrCodeImage)
	}

	var resLogin typWhatsApp.ResponseLogin
	resLogin.QRCode = qrCodeImage
	resLogin.Timeout = qrCodeTimeout

	if reqLogin.Output == "html" {
		htmlContent := `
		<html>
			<head>
				<title>WhatsApp CRM Gateway Login</title>
				<meta name="viewport" content="width=device-width, initial-scale=1, shrink-to-fit=no" />
			</head>
			<body>
				<img src="` + resLogin.QRCode + `" />
				<p>
					<b>QR Code Scan</b>
					<br/>
					Timeout in ` + strconv.Itoa(resLogin.Timeout) + ` Second(s)
				</p>
			</body>
		</html>
		`

		return router.ResponseSuccessWithHTML(c, htmlContent)
	}

	return router.ResponseSuccessWithData(c, "Success Generate QR Code", resLogin)
}

// LoginWithCode pairs with an 8-character code typed on the phone
func LoginWithCode(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	var reqLoginCode typWhatsApp.RequestLoginCode
	err := c.BodyParser(&reqLoginCode)
	if err != nil {
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	phone := strings.TrimSpace(reqLoginCode.Phone)
	if phone == "" {
		return router.ResponseBadRequest(c, "Phone is required")
	}

	if err := pkgWhatsApp.WhatsAppEnsureClient(ctx); err != nil {
		log.SessionOp(c, "LoginWithCode").WithError(err).Error("Failed to init client")
		return router.ResponseInternalError(c, err.Error())
	}

	pairCode, timeout, err := pkgWhatsApp.WhatsAppLoginPair(phone)
	if err != nil {
		log.SessionOp(c, "LoginWithCode").WithError(err).Error("Failed to generate pairing code")
		return router.ResponseInternalError(c, err.Error())
	}

	if pairCode == "WhatsApp Client is Reconnected" {
		return router.ResponseSuccess(c, pairCode)
	}

	var resLoginCode typWhatsApp.ResponseLoginCode
	resLoginCode.PairCode = pairCode
	resLoginCode.Timeout = timeout

	return router.ResponseSuccessWithData(c, "Success Generate Pairing Code", resLoginCode)
}

// Reconnect drops and re-establishes the WhatsApp connection
func Reconnect(c *fiber.Ctx) error {
	log.SessionOp(c, "Reconnect").Info("Reconnecting session")

	if err := pkgWhatsApp.WhatsAppReconnect(); err != nil {
		log.SessionOp(c, "Reconnect").WithError(err).Error("Failed to reconnect")
		return router.ResponseInternalError(c, err.Error())
	}

	return router.ResponseSuccess(c, "Success reconnect session")
}

// Logout logs the session out of WhatsApp and clears the stored pairing
func Logout(c *fiber.Ctx) error {
	log.SessionOp(c, "Logout").Info("Logging out session")

	err := pkgWhatsApp.WhatsAppLogout()
	if err != nil {
		log.SessionOp(c, "Logout").WithError(err).Error("Failed to logout")
		return router.ResponseInternalError(c, err.Error())
	}

	return router.ResponseSuccess(c, "Success logout session")
}

// GetStatus reports connection state, pairing, cache and reconnect counters
func GetStatus(c *fiber.Ctx) error {
	status := pkgWhatsApp.WhatsAppSessionStatus()

	return router.ResponseSuccessWithData(c, "Session status", status)
}
