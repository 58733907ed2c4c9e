package messaging

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"time"

	"github.com/gofiber/fiber/v2"

	typWhatsApp "github.com/gdbrns/go-whatsapp-crm-gateway/internal/types"
	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/log"
	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/router"
	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/validation"
	pkgWhatsApp "github.com/gdbrns/go-whatsapp-crm-gateway/pkg/whatsapp"
)

func convertFileToBytes(file multipart.File) ([]byte, error) {
	buffer := bytes.NewBuffer(nil)
	_, err := io.Copy(buffer, file)
	if err != nil {
		return bytes.NewBuffer(nil).Bytes(), err
	}
	return buffer.Bytes(), nil
}

// formFileBytes reads the uploaded "file" part and its declared content type
func formFileBytes(c *fiber.Ctx, fallbackType string) ([]byte, string, string, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return nil, "", "", err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, "", "", err
	}
	defer file.Close()

	fileBytes, err := convertFileToBytes(file)
	if err != nil {
		return nil, "", "", err
	}

	fileType := fileHeader.Header.Get("Content-Type")
	if fileType == "" {
		fileType = fallbackType
	}

	return fileBytes, fileType, fileHeader.Filename, nil
}

func SendText(c *fiber.Ctx) error {
	chatJID := c.Params("chat_jid")

	var reqSendMessage typWhatsApp.RequestSendMessage
	err := c.BodyParser(&reqSendMessage)
	if err != nil {
		log.MessageOp(c, "SendText", chatJID).Warn("Failed to parse body request")
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	message := reqSendMessage.Message
	if message == "" {
		message = reqSendMessage.Text
	}
	if message == "" {
		return router.ResponseBadRequest(c, "message is required")
	}

	log.MessageOp(c, "SendText", chatJID).WithField("text_length", len(message)).Info("Sending text message")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	msgID, err := pkgWhatsApp.WhatsAppSendText(ctx, chatJID, message)
	if err != nil {
		log.MessageOp(c, "SendText", chatJID).WithError(err).Error("Failed to send text message")
		return router.ResponseInternalError(c, err.Error())
	}

	log.MessageOp(c, "SendText", chatJID).WithField("message_id", msgID).Info("Text message sent successfully")

	return router.ResponseSuccessWithData(c, "Success send message", map[string]interface{}{"message_id": msgID})
}

func SendImage(c *fiber.Ctx) error {
	chatJID := c.Params("chat_jid")

	caption := c.FormValue("caption")
	viewOnce := c.FormValue("view_once") == "true"

	fileBytes, fileType, fileName, err := formFileBytes(c, "image/jpeg")
	if err != nil {
		log.MessageOp(c, "SendImage", chatJID).Warn("No file provided")
		return router.ResponseBadRequest(c, "file is required")
	}

	log.MessageOp(c, "SendImage", chatJID).WithField("filename", fileName).WithField("size", len(fileBytes)).WithField("view_once", viewOnce).Info("Sending image")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	msgID, err := pkgWhatsApp.WhatsAppSendImage(ctx, chatJID, fileBytes, fileType, caption, viewOnce)
	if err != nil {
		log.MessageOp(c, "SendImage", chatJID).WithError(err).Error("Failed to send image")
		return router.ResponseInternalError(c, err.Error())
	}

	log.MessageOp(c, "SendImage", chatJID).WithField("message_id", msgID).Info("Image sent successfully")

	return router.ResponseSuccessWithData(c, "Success send image", map[string]interface{}{"message_id": msgID})
}

func SendVideo(c *fiber.Ctx) error {
	chatJID := c.Params("chat_jid")

	caption := c.FormValue("caption")
	viewOnce := c.FormValue("view_once") == "true"

	fileBytes, fileType, fileName, err := formFileBytes(c, "video/mp4")
	if err != nil {
		log.MessageOp(c, "SendVideo", chatJID).Warn("No file provided")
		return router.ResponseBadRequest(c, "file is required")
	}

	log.MessageOp(c, "SendVideo", chatJID).WithField("filename", fileName).WithField("size", len(fileBytes)).Info("Sending video")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	msgID, err := pkgWhatsApp.WhatsAppSendVideo(ctx, chatJID, fileBytes, fileType, caption, viewOnce)
	if err != nil {
		log.MessageOp(c, "SendVideo", chatJID).WithError(err).Error("Failed to send video")
		return router.ResponseInternalError(c, err.Error())
	}

	log.MessageOp(c, "SendVideo", chatJID).WithField("message_id", msgID).Info("Video sent successfully")

	return router.ResponseSuccessWithData(c, "Success send video", map[string]interface{}{"message_id": msgID})
}

func SendAudio(c *fiber.Ctx) error {
	chatJID := c.Params("chat_jid")

	fileBytes, fileType, fileName, err := formFileBytes(c, "audio/ogg; codecs=opus")
	if err != nil {
		log.MessageOp(c, "SendAudio", chatJID).Warn("No file provided")
		return router.ResponseBadRequest(c, "file is required")
	}

	log.MessageOp(c, "SendAudio", chatJID).WithField("filename", fileName).WithField("size", len(fileBytes)).Info("Sending audio")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	msgID, err := pkgWhatsApp.WhatsAppSendAudio(ctx, chatJID, fileBytes, fileType)
	if err != nil {
		log.MessageOp(c, "SendAudio", chatJID).WithError(err).Error("Failed to send audio")
		return router.ResponseInternalError(c, err.Error())
	}

	log.MessageOp(c, "SendAudio", chatJID).WithField("message_id", msgID).Info("Audio sent successfully")

	return router.ResponseSuccessWithData(c, "Success send audio", map[string]interface{}{"message_id": msgID})
}

func SendDocument(c *fiber.Ctx) error {
	chatJID := c.Params("chat_jid")

	fileName := c.FormValue("filename")

	fileBytes, fileType, uploadName, err := formFileBytes(c, "application/octet-stream")
	if err != nil {
		log.MessageOp(c, "SendDocument", chatJID).Warn("No file provided")
		return router.ResponseBadRequest(c, "file is required")
	}

	if fileName == "" {
		fileName = uploadName
	}

	log.MessageOp(c, "SendDocument", chatJID).WithField("filename", fileName).WithField("size", len(fileBytes)).Info("Sending document")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	msgID, err := pkgWhatsApp.WhatsAppSendDocument(ctx, chatJID, fileBytes, fileType, fileName)
	if err != nil {
		log.MessageOp(c, "SendDocument", chatJID).WithError(err).Error("Failed to send document")
		return router.ResponseInternalError(c, err.Error())
	}

	log.MessageOp(c, "SendDocument", chatJID).WithField("message_id", msgID).WithField("filename", fileName).Info("Document sent successfully")

	return router.ResponseSuccessWithData(c, "Success send document", map[string]interface{}{"message_id": msgID})
}

func SendSticker(c *fiber.Ctx) error {
	chatJID := c.Params("chat_jid")

	fileBytes, _, fileName, err := formFileBytes(c, "image/webp")
	if err != nil {
		log.MessageOp(c, "SendSticker", chatJID).Warn("No file provided")
		return router.ResponseBadRequest(c, "file is required")
	}

	log.MessageOp(c, "SendSticker", chatJID).WithField("filename", fileName).WithField("size", len(fileBytes)).Info("Sending sticker")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	msgID, err := pkgWhatsApp.WhatsAppSendSticker(ctx, chatJID, fileBytes)
	if err != nil {
		log.MessageOp(c, "SendSticker", chatJID).WithError(err).Error("Failed to send sticker")
		return router.ResponseInternalError(c, err.Error())
	}

	log.MessageOp(c, "SendSticker", chatJID).WithField("message_id", msgID).Info("Sticker sent successfully")

	return router.ResponseSuccessWithData(c, "Success send sticker", map[string]interface{}{"message_id": msgID})
}

func SendLocation(c *fiber.Ctx) error {
	chatJID := c.Params("chat_jid")

	var reqSendLocation typWhatsApp.RequestSendLocation
	err := c.BodyParser(&reqSendLocation)
	if err != nil {
		log.MessageOp(c, "SendLocation", chatJID).Warn("Failed to parse body request")
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	log.MessageOp(c, "SendLocation", chatJID).Info("Sending location")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	msgID, err := pkgWhatsApp.WhatsAppSendLocation(ctx, chatJID, reqSendLocation.Latitude, reqSendLocation.Longitude)
	if err != nil {
		log.MessageOp(c, "SendLocation", chatJID).WithError(err).Error("Failed to send location")
		return router.ResponseInternalError(c, err.Error())
	}

	log.MessageOp(c, "SendLocation", chatJID).WithField("message_id", msgID).Info("Location sent successfully")

	return router.ResponseSuccessWithData(c, "Success send location", map[string]interface{}{"message_id": msgID})
}

func SendContact(c *fiber.Ctx) error {
	chatJID := c.Params("chat_jid")

	var reqSendContact typWhatsApp.RequestSendContact
	err := c.BodyParser(&reqSendContact)
	if err != nil {
		log.MessageOp(c, "SendContact", chatJID).Warn("Failed to parse body request")
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	if reqSendContact.Name == "" || reqSendContact.Phone == "" {
		return router.ResponseBadRequest(c, "name and phone are required")
	}

	log.MessageOp(c, "SendContact", chatJID).WithField("contact_name", reqSendContact.Name).Info("Sending contact")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	msgID, err := pkgWhatsApp.WhatsAppSendContact(ctx, chatJID, reqSendContact.Name, reqSendContact.Phone)
	if err != nil {
		log.MessageOp(c, "SendContact", chatJID).WithError(err).Error("Failed to send contact")
		return router.ResponseInternalError(c, err.Error())
	}

	log.MessageOp(c, "SendContact", chatJID).WithField("message_id", msgID).Info("Contact sent successfully")

	return router.ResponseSuccessWithData(c, "Success send contact", map[string]interface{}{"message_id": msgID})
}

func SendLink(c *fiber.Ctx) error {
	chatJID := c.Params("chat_jid")

	var reqSendLink typWhatsApp.RequestSendLink
	err := c.BodyParser(&reqSendLink)
	if err != nil {
		log.MessageOp(c, "SendLink", chatJID).Warn("Failed to parse body request")
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	link := reqSendLink.Link
	if link == "" {
		link = reqSendLink.URL
	}
	if err := validation.ValidateURL(link); err != nil {
		return router.ResponseBadRequest(c, err.Error())
	}

	log.MessageOp(c, "SendLink", chatJID).Info("Sending link")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	msgID, err := pkgWhatsApp.WhatsAppSendLink(ctx, chatJID, reqSendLink.Caption, link)
	if err != nil {
		log.MessageOp(c, "SendLink", chatJID).WithError(err).Error("Failed to send link")
		return router.ResponseInternalError(c, err.Error())
	}

	log.MessageOp(c, "SendLink", chatJID).WithField("message_id", msgID).Info("Link sent successfully")

	return router.ResponseSuccessWithData(c, "Success send link", map[string]interface{}{"message_id": msgID})
}

func GetMessages(c *fiber.Ctx) error {
	chatJID := c.Params("chat_jid")

	limit := c.QueryInt("limit", 50)
	before := c.Query("before", "")
	after := c.Query("after", "")

	log.MessageOp(c, "GetMessages", chatJID).WithField("limit", limit).Info("Getting chat messages")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	chatID := pkgWhatsApp.WhatsAppGetJID(ctx, chatJID)

	messages, err := pkgWhatsApp.WhatsAppGetChatHistory(chatID, limit, before, after)
	if err != nil {
		log.MessageOp(c, "GetMessages", chatJID).WithError(err).Error("Failed to get chat messages")
		return router.ResponseInternalError(c, err.Error())
	}

	log.MessageOp(c, "GetMessages", chatJID).Info("Chat messages retrieved successfully")

	return router.ResponseSuccessWithData(c, "Success get chat messages", messages)
}

func ArchiveChat(c *fiber.Ctx) error {
	chatJID := c.Params("chat_jid")

	var req struct {
		Archive bool `json:"archive"`
	}
	err := c.BodyParser(&req)
	if err != nil {
		log.MessageOp(c, "ArchiveChat", chatJID).Warn("Failed to parse body request")
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	log.MessageOp(c, "ArchiveChat", chatJID).WithField("archive", req.Archive).Info("Archiving/unarchiving chat")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	chatID := pkgWhatsApp.WhatsAppGetJID(ctx, chatJID)

	err = pkgWhatsApp.WhatsAppArchiveChat(ctx, chatID, req.Archive)
	if err != nil {
		log.MessageOp(c, "ArchiveChat", chatJID).WithError(err).Error("Failed to archive/unarchive chat")
		return router.ResponseInternalError(c, err.Error())
	}

	log.MessageOp(c, "ArchiveChat", chatJID).WithField("archive", req.Archive).Info("Chat archive status updated successfully")

	return router.ResponseSuccess(c, "Success archive chat")
}

func PinChat(c *fiber.Ctx) error {
	chatJID := c.Params("chat_jid")

	var req struct {
		Pin bool `json:"pin"`
	}
	err := c.BodyParser(&req)
	if err != nil {
		log.MessageOp(c, "PinChat", chatJID).Warn("Failed to parse body request")
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	log.MessageOp(c, "PinChat", chatJID).WithField("pin", req.Pin).Info("Pinning/unpinning chat")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	chatID := pkgWhatsApp.WhatsAppGetJID(ctx, chatJID)

	err = pkgWhatsApp.WhatsAppPinChat(ctx, chatID, req.Pin)
	if err != nil {
		log.MessageOp(c, "PinChat", chatJID).WithError(err).Error("Failed to pin/unpin chat")
		return router.ResponseInternalError(c, err.Error())
	}

	log.MessageOp(c, "PinChat", chatJID).WithField("pin", req.Pin).Info("Chat pin status updated successfully")

	return router.ResponseSuccess(c, "Success pin chat")
}

func MuteChat(c *fiber.Ctx) error {
	chatJID := c.Params("chat_jid")

	var req struct {
		Mute     bool `json:"mute"`
		Duration int  `json:"duration"`
	}
	err := c.BodyParser(&req)
	if err != nil {
		log.MessageOp(c, "MuteChat", chatJID).Warn("Failed to parse body request")
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	log.MessageOp(c, "MuteChat", chatJID).WithField("mute", req.Mute).Info("Muting/unmuting chat")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	chatID := pkgWhatsApp.WhatsAppGetJID(ctx, chatJID)

	err = pkgWhatsApp.WhatsAppMuteChat(ctx, chatID, req.Mute, time.Duration(req.Duration)*time.Second)
	if err != nil {
		log.MessageOp(c, "MuteChat", chatJID).WithError(err).Error("Failed to mute/unmute chat")
		return router.ResponseInternalError(c, err.Error())
	}

	log.MessageOp(c, "MuteChat", chatJID).WithField("mute", req.Mute).Info("Chat mute status updated successfully")

	return router.ResponseSuccess(c, "Success mute chat")
}
