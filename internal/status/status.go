package status

import (
	"bytes"
	"context"
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/log"
	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/router"
	pkgWhatsApp "github.com/gdbrns/go-whatsapp-crm-gateway/pkg/whatsapp"
)

func convertFileToBytes(file io.Reader) ([]byte, error) {
	buffer := bytes.NewBuffer(nil)
	_, err := io.Copy(buffer, file)
	if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// PostStatus posts a new status (story)
func PostStatus(c *fiber.Ctx) error {
	log.SessionOp(c, "PostStatus").Info("Posting status")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	// Check content type to determine if it's text, image, or video
	contentType := c.Get("Content-Type")

	var msgID string
	var err error

	if contentType == "application/json" || contentType == "" {
		// Text status
		var req struct {
			Text            string `json:"text"`
			BackgroundColor string `json:"background_color"`
			Font            int    `json:"font"`
		}
		if err := c.BodyParser(&req); err != nil {
			log.SessionOp(c, "PostStatus").Warn("Failed to parse body request")
			return router.ResponseBadRequest(c, "Failed parse body request")
		}

		if req.Text == "" {
			log.SessionOp(c, "PostStatus").Warn("Text is required for text status")
			return router.ResponseBadRequest(c, "text is required")
		}

		msgID, err = pkgWhatsApp.WhatsAppPostTextStatus(ctx, req.Text, req.BackgroundColor, req.Font)
	} else {
		// Media status (image or video)
		fileHeader, fileErr := c.FormFile("file")
		if fileErr != nil {
			log.SessionOp(c, "PostStatus").Warn("No file provided for media status")
			return router.ResponseBadRequest(c, "file is required for media status")
		}

		file, openErr := fileHeader.Open()
		if openErr != nil {
			log.SessionOp(c, "PostStatus").WithError(openErr).Error("Failed to open file")
			return router.ResponseInternalError(c, openErr.Error())
		}
		defer file.Close()

		fileBytes, readErr := convertFileToBytes(file)
		if readErr != nil {
			log.SessionOp(c, "PostStatus").WithError(readErr).Error("Failed to read file")
			return router.ResponseInternalError(c, readErr.Error())
		}

		caption := c.FormValue("caption")
		mediaType := c.FormValue("type") // "image" or "video"

		if mediaType == "video" {
			msgID, err = pkgWhatsApp.WhatsAppPostVideoStatus(ctx, fileBytes, caption)
		} else {
			msgID, err = pkgWhatsApp.WhatsAppPostImageStatus(ctx, fileBytes, caption)
		}
	}

	if err != nil {
		log.SessionOp(c, "PostStatus").WithError(err).Error("Failed to post status")
		return router.ResponseInternalError(c, err.Error())
	}

	log.SessionOp(c, "PostStatus").WithField("message_id", msgID).Info("Status posted successfully")

	return router.ResponseSuccessWithData(c, "Success post status", map[string]interface{}{"message_id": msgID})
}

// GetStatusUpdates gets status updates from contacts
func GetStatusUpdates(c *fiber.Ctx) error {
	log.SessionOp(c, "GetStatusUpdates").Info("Getting status updates")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	updates, err := pkgWhatsApp.WhatsAppGetStatusUpdates(ctx)
	if err != nil {
		log.SessionOp(c, "GetStatusUpdates").WithError(err).Error("Failed to get status updates")
		return router.ResponseInternalError(c, err.Error())
	}

	log.SessionOp(c, "GetStatusUpdates").WithField("count", len(updates)).Info("Status updates retrieved successfully")

	return router.ResponseSuccessWithData(c, "Success get status updates", updates)
}

// DeleteStatus deletes own status
func DeleteStatus(c *fiber.Ctx) error {
	statusID := c.Params("status_id")

	log.SessionOp(c, "DeleteStatus").WithField("status_id", statusID).Info("Deleting status")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	err := pkgWhatsApp.WhatsAppDeleteStatus(ctx, statusID)
	if err != nil {
		log.SessionOp(c, "DeleteStatus").WithError(err).Error("Failed to delete status")
		return router.ResponseInternalError(c, err.Error())
	}

	log.SessionOp(c, "DeleteStatus").Info("Status deleted successfully")

	return router.ResponseSuccess(c, "Success delete status")
}

// GetUserStatus gets status updates from a specific user
func GetUserStatus(c *fiber.Ctx) error {
	userJID := c.Params("user_jid")

	log.SessionOp(c, "GetUserStatus").WithField("user_jid", userJID).Info("Getting user status")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	statuses, err := pkgWhatsApp.WhatsAppGetUserStatus(ctx, userJID)
	if err != nil {
		log.SessionOp(c, "GetUserStatus").WithError(err).Error("Failed to get user status")
		return router.ResponseInternalError(c, err.Error())
	}

	log.SessionOp(c, "GetUserStatus").WithField("count", len(statuses)).Info("User status retrieved successfully")

	return router.ResponseSuccessWithData(c, "Success get user status", statuses)
}
