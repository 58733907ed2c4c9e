package user

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	typWhatsApp "github.com/gdbrns/go-whatsapp-crm-gateway/internal/types"
	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/log"
	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/router"
	pkgWhatsApp "github.com/gdbrns/go-whatsapp-crm-gateway/pkg/whatsapp"
)

// decodeUserJID URL-decodes the user JID parameter from the route
func decodeUserJID(encoded string) string {
	decoded, err := url.PathUnescape(encoded)
	if err != nil {
		return encoded
	}
	return decoded
}

// normalizeToUserJID converts a device JID (e.g., "6281378887612:74@s.whatsapp.net")
// to a base user JID (e.g., "6281378887612@s.whatsapp.net") by removing the device part
func normalizeToUserJID(jidStr string) string {
	// If there's no @ symbol, it's already a phone number, return as-is
	if !strings.Contains(jidStr, "@") {
		return jidStr
	}

	// Split at @ to get user part and server
	parts := strings.SplitN(jidStr, "@", 2)
	if len(parts) != 2 {
		return jidStr
	}

	userPart := parts[0]
	server := parts[1]

	// If user part contains ":" (device ID separator), remove it
	// e.g., "6281378887612:74" -> "6281378887612"
	if colonIdx := strings.Index(userPart, ":"); colonIdx != -1 {
		userPart = userPart[:colonIdx]
	}

	return userPart + "@" + server
}

// CheckRegistered verifies whether a phone number is registered on WhatsApp
func CheckRegistered(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	phone := decodeUserJID(c.Params("phone"))

	log.SessionOp(c, "CheckRegistered").WithField("phone", phone).Info("Checking phone registration")

	var resCheck typWhatsApp.ResponseCheckPhone

	remoteJID, err := pkgWhatsApp.WhatsAppCheckJID(ctx, phone)
	switch {
	case errors.Is(err, pkgWhatsApp.ErrJIDNotRegistered):
		resCheck.IsRegistered = false
	case err != nil:
		log.SessionOp(c, "CheckRegistered").WithField("phone", phone).WithError(err).Error("Failed to check phone registration")
		return router.ResponseInternalError(c, err.Error())
	default:
		resCheck.IsRegistered = true
		resCheck.JID = remoteJID.String()
	}

	log.SessionOp(c, "CheckRegistered").WithField("phone", phone).WithField("registered", resCheck.IsRegistered).Info("Phone registration checked")

	return router.ResponseSuccessWithData(c, "Success check phone", resCheck)
}

func GetInfo(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	rawJID := decodeUserJID(c.Params("user_jid"))
	userJID := pkgWhatsApp.WhatsAppComposeJID(normalizeToUserJID(rawJID))

	log.SessionOp(c, "GetUserInfo").WithField("target_user", userJID.String()).Info("Getting user info")

	userInfo, err := pkgWhatsApp.WhatsAppGetUserInfo(ctx, []string{userJID.String()})
	if err != nil {
		log.SessionOp(c, "GetUserInfo").WithField("target_user", userJID.String()).WithError(err).Error("Failed to get user info")
		return router.ResponseInternalError(c, err.Error())
	}

	var resUserInfo typWhatsApp.ResponseUserInfo
	if info, exists := userInfo[userJID.String()]; exists {
		if info.VerifiedName != nil {
			resUserInfo.VerifiedName = info.VerifiedName.Details.GetVerifiedName()
		}
		resUserInfo.Status = info.Status
		resUserInfo.PictureID = info.PictureID
		for _, device := range info.Devices {
			resUserInfo.Devices = append(resUserInfo.Devices, device.String())
		}
	}

	log.SessionOp(c, "GetUserInfo").WithField("target_user", userJID.String()).Info("User info retrieved successfully")

	return router.ResponseSuccessWithData(c, "Success get user info", resUserInfo)
}

func GetProfilePicture(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	rawJID := decodeUserJID(c.Params("user_jid"))
	userJID := normalizeToUserJID(rawJID)
	preview := c.QueryBool("preview", false)

	log.SessionOp(c, "GetProfilePicture").WithField("target_user", userJID).Info("Getting user profile picture")

	pictureInfo, err := pkgWhatsApp.WhatsAppGetUserProfilePicture(ctx, userJID, preview)
	if err != nil {
		log.SessionOp(c, "GetProfilePicture").WithField("target_user", userJID).WithError(err).Error("Failed to get profile picture")
		return router.ResponseInternalError(c, err.Error())
	}

	var resUserPicture typWhatsApp.ResponseUserPicture
	if pictureInfo != nil {
		resUserPicture.URL = pictureInfo.URL
		resUserPicture.ID = pictureInfo.ID
		resUserPicture.Type = pictureInfo.Type
		resUserPicture.DirectURL = pictureInfo.DirectPath
	}

	log.SessionOp(c, "GetProfilePicture").WithField("target_user", userJID).Info("Profile picture retrieved successfully")

	return router.ResponseSuccessWithData(c, "Success get user picture", resUserPicture)
}

func GetDevices(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	rawJID := decodeUserJID(c.Params("user_jid"))
	userJID := normalizeToUserJID(rawJID)

	log.SessionOp(c, "GetDevices").WithField("target_user", userJID).Info("Getting user devices")

	// Use WhatsAppComposeJID to parse the normalized JID directly
	phoneJID := pkgWhatsApp.WhatsAppComposeJID(userJID)

	devices, err := pkgWhatsApp.WhatsAppGetUserDevices(ctx, phoneJID)
	if err != nil {
		log.SessionOp(c, "GetDevices").WithField("target_user", userJID).WithError(err).Error("Failed to get user devices")
		return router.ResponseInternalError(c, err.Error())
	}

	log.SessionOp(c, "GetDevices").WithField("target_user", userJID).WithField("device_count", len(devices)).Info("User devices retrieved successfully")

	return router.ResponseSuccessWithData(c, "Success get user devices", devices)
}

func BlockUser(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	userJID := decodeUserJID(c.Params("user_jid"))

	log.SessionOp(c, "BlockUser").WithField("target_user", userJID).Info("Blocking user")

	err := pkgWhatsApp.WhatsAppBlockUser(ctx, userJID)
	if err != nil {
		log.SessionOp(c, "BlockUser").WithField("target_user", userJID).WithError(err).Error("Failed to block user")
		return router.ResponseInternalError(c, err.Error())
	}

	log.SessionOp(c, "BlockUser").WithField("target_user", userJID).Info("User blocked successfully")

	return router.ResponseSuccess(c, "Success block user")
}

func UnblockUser(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	userJID := decodeUserJID(c.Params("user_jid"))

	log.SessionOp(c, "UnblockUser").WithField("target_user", userJID).Info("Unblocking user")

	err := pkgWhatsApp.WhatsAppUnblockUser(ctx, userJID)
	if err != nil {
		log.SessionOp(c, "UnblockUser").WithField("target_user", userJID).WithError(err).Error("Failed to unblock user")
		return router.ResponseInternalError(c, err.Error())
	}

	log.SessionOp(c, "UnblockUser").WithField("target_user", userJID).Info("User unblocked successfully")

	return router.ResponseSuccess(c, "Success unblock user")
}

func GetPrivacy(c *fiber.Ctx) error {
	log.SessionOp(c, "GetPrivacy").Info("Getting privacy settings")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	privacy, err := pkgWhatsApp.WhatsAppGetPrivacy(ctx)
	if err != nil {
		log.SessionOp(c, "GetPrivacy").WithError(err).Error("Failed to get privacy settings")
		return router.ResponseInternalError(c, err.Error())
	}

	log.SessionOp(c, "GetPrivacy").Info("Privacy settings retrieved successfully")

	return router.ResponseSuccessWithData(c, "Success get privacy settings", privacy)
}

func UpdatePrivacy(c *fiber.Ctx) error {
	var reqPrivacy typWhatsApp.RequestPrivacy
	err := c.BodyParser(&reqPrivacy)
	if err != nil {
		log.SessionOp(c, "UpdatePrivacy").Warn("Failed to parse body request")
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	log.SessionOp(c, "UpdatePrivacy").WithField("setting", reqPrivacy.Setting).WithField("value", reqPrivacy.Value).Info("Updating privacy setting")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	privacy, err := pkgWhatsApp.WhatsAppSetUserPrivacy(ctx, reqPrivacy.Setting, reqPrivacy.Value)
	if err != nil {
		log.SessionOp(c, "UpdatePrivacy").WithField("setting", reqPrivacy.Setting).WithError(err).Error("Failed to update privacy setting")
		return router.ResponseInternalError(c, err.Error())
	}

	log.SessionOp(c, "UpdatePrivacy").WithField("setting", reqPrivacy.Setting).Info("Privacy setting updated successfully")

	return router.ResponseSuccessWithData(c, "Success update privacy settings", privacy)
}

func GetStatusPrivacy(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	log.SessionOp(c, "GetStatusPrivacy").Info("Getting status privacy settings")

	statusPrivacy, err := pkgWhatsApp.WhatsAppGetStatusPrivacy(ctx)
	if err != nil {
		log.SessionOp(c, "GetStatusPrivacy").WithError(err).Error("Failed to get status privacy")
		return router.ResponseInternalError(c, err.Error())
	}

	log.SessionOp(c, "GetStatusPrivacy").Info("Status privacy retrieved successfully")

	return router.ResponseSuccessWithData(c, "Success get status privacy", statusPrivacy)
}

func UpdateStatus(c *fiber.Ctx) error {
	var reqStatus typWhatsApp.RequestStatus
	err := c.BodyParser(&reqStatus)
	if err != nil {
		log.SessionOp(c, "UpdateStatus").Warn("Failed to parse body request")
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	log.SessionOp(c, "UpdateStatus").WithField("status_length", len(reqStatus.Status)).Info("Updating user status")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	err = pkgWhatsApp.WhatsAppSetUserStatus(ctx, reqStatus.Status)
	if err != nil {
		log.SessionOp(c, "UpdateStatus").WithError(err).Error("Failed to update status")
		return router.ResponseInternalError(c, err.Error())
	}

	log.SessionOp(c, "UpdateStatus").Info("Status updated successfully")

	return router.ResponseSuccess(c, "Success update status")
}
