package message

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.mau.fi/whatsmeow/types"

	typWhatsApp "github.com/gdbrns/go-whatsapp-crm-gateway/internal/types"
	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/log"
	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/router"
	pkgWhatsApp "github.com/gdbrns/go-whatsapp-crm-gateway/pkg/whatsapp"
)

func MarkRead(c *fiber.Ctx) error {
	chatParam := c.Params("chat_jid")
	messageID := c.Params("message_id")

	var reqRead typWhatsApp.RequestMarkRead
	if err := c.BodyParser(&reqRead); err == nil {
	}

	log.MessageOp(c, "MarkRead", chatParam).WithField("message_id", messageID).Info("Marking message as read")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	chatJID := pkgWhatsApp.WhatsAppGetJID(ctx, chatParam)
	var senderJID types.JID
	if reqRead.SenderJID != "" {
		senderJID = pkgWhatsApp.WhatsAppGetJID(ctx, reqRead.SenderJID)
	} else {
		senderJID = chatJID
	}

	err := pkgWhatsApp.WhatsAppMarkRead(ctx, chatJID, senderJID, messageID)
	if err != nil {
		log.MessageOp(c, "MarkRead", chatParam).WithField("message_id", messageID).WithError(err).Error("Failed to mark message as read")
		return router.ResponseInternalError(c, err.Error())
	}

	log.MessageOp(c, "MarkRead", chatParam).WithField("message_id", messageID).Info("Message marked as read successfully")

	return router.ResponseSuccess(c, "Success mark message as read")
}

func React(c *fiber.Ctx) error {
	chatParam := c.Params("chat_jid")
	messageID := c.Params("message_id")

	var reqReact typWhatsApp.RequestReact
	err := c.BodyParser(&reqReact)
	if err != nil {
		log.MessageOp(c, "React", chatParam).Warn("Failed to parse body request")
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	if reqReact.Emoji == "" {
		return router.ResponseBadRequest(c, "emoji is required")
	}

	log.MessageOp(c, "React", chatParam).WithField("message_id", messageID).WithField("emoji", reqReact.Emoji).Info("Reacting to message")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	chatJID := pkgWhatsApp.WhatsAppGetJID(ctx, chatParam)
	senderJID := chatJID

	msgID, err := pkgWhatsApp.WhatsAppReact(ctx, chatJID, senderJID, messageID, reqReact.Emoji)
	if err != nil {
		log.MessageOp(c, "React", chatParam).WithField("message_id", messageID).WithError(err).Error("Failed to react to message")
		return router.ResponseInternalError(c, err.Error())
	}

	log.MessageOp(c, "React", chatParam).WithField("message_id", messageID).WithField("reaction_msg_id", msgID).Info("Reaction sent successfully")

	return router.ResponseSuccessWithData(c, "Success react to message", map[string]interface{}{"message_id": msgID})
}

func Edit(c *fiber.Ctx) error {
	chatParam := c.Params("chat_jid")
	messageID := c.Params("message_id")

	var reqEdit typWhatsApp.RequestEdit
	err := c.BodyParser(&reqEdit)
	if err != nil {
		log.MessageOp(c, "Edit", chatParam).Warn("Failed to parse body request")
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	newText := reqEdit.Text
	if newText == "" {
		newText = reqEdit.Message
	}
	if newText == "" {
		return router.ResponseBadRequest(c, "text is required")
	}

	log.MessageOp(c, "Edit", chatParam).WithField("message_id", messageID).Info("Editing message")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	chatJID := pkgWhatsApp.WhatsAppGetJID(ctx, chatParam)

	msgID, err := pkgWhatsApp.WhatsAppEditMessage(ctx, chatJID, messageID, newText)
	if err != nil {
		log.MessageOp(c, "Edit", chatParam).WithField("message_id", messageID).WithError(err).Error("Failed to edit message")
		return router.ResponseInternalError(c, err.Error())
	}

	log.MessageOp(c, "Edit", chatParam).WithField("message_id", messageID).WithField("new_msg_id", msgID).Info("Message edited successfully")

	return router.ResponseSuccessWithData(c, "Success edit message", map[string]interface{}{"message_id": msgID})
}

func Delete(c *fiber.Ctx) error {
	chatParam := c.Params("chat_jid")
	messageID := c.Params("message_id")

	var reqDelete typWhatsApp.RequestDelete
	if err := c.BodyParser(&reqDelete); err == nil {
	}

	log.MessageOp(c, "Delete", chatParam).WithField("message_id", messageID).Info("Deleting message")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	chatJID := pkgWhatsApp.WhatsAppGetJID(ctx, chatParam)
	var senderJID types.JID
	if reqDelete.SenderJID != "" {
		senderJID = pkgWhatsApp.WhatsAppGetJID(ctx, reqDelete.SenderJID)
	} else {
		senderJID = chatJID
	}

	err := pkgWhatsApp.WhatsAppDeleteMessage(ctx, chatJID, senderJID, messageID)
	if err != nil {
		log.MessageOp(c, "Delete", chatParam).WithField("message_id", messageID).WithError(err).Error("Failed to delete message")
		return router.ResponseInternalError(c, err.Error())
	}

	log.MessageOp(c, "Delete", chatParam).WithField("message_id", messageID).Info("Message deleted successfully")

	return router.ResponseSuccess(c, "Success delete message")
}

func Reply(c *fiber.Ctx) error {
	chatParam := c.Params("chat_jid")
	messageID := c.Params("message_id")

	var reqReply typWhatsApp.RequestReply
	err := c.BodyParser(&reqReply)
	if err != nil {
		log.MessageOp(c, "Reply", chatParam).Warn("Failed to parse body request")
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	text := reqReply.Text
	if text == "" {
		text = reqReply.Message
	}
	if text == "" {
		return router.ResponseBadRequest(c, "text is required")
	}

	log.MessageOp(c, "Reply", chatParam).WithField("reply_to_message_id", messageID).Info("Replying to message")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	msgID, err := pkgWhatsApp.WhatsAppSendReply(ctx, chatParam, messageID, text)
	if err != nil {
		log.MessageOp(c, "Reply", chatParam).WithField("reply_to_message_id", messageID).WithError(err).Error("Failed to reply to message")
		return router.ResponseInternalError(c, err.Error())
	}

	log.MessageOp(c, "Reply", chatParam).WithField("reply_to_message_id", messageID).WithField("new_msg_id", msgID).Info("Reply sent successfully")

	return router.ResponseSuccessWithData(c, "Success reply to message", map[string]interface{}{"message_id": msgID})
}

func Forward(c *fiber.Ctx) error {
	chatParam := c.Params("chat_jid")
	messageID := c.Params("message_id")

	var reqForward typWhatsApp.RequestForward
	err := c.BodyParser(&reqForward)
	if err != nil {
		log.MessageOp(c, "Forward", chatParam).Warn("Failed to parse body request")
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	if reqForward.ToChatJID == "" {
		return router.ResponseBadRequest(c, "to_chat_jid is required")
	}

	log.MessageOp(c, "Forward", chatParam).WithField("message_id", messageID).WithField("to_chat_jid", reqForward.ToChatJID).Info("Forwarding message")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	msgID, err := pkgWhatsApp.WhatsAppForwardMessage(ctx, messageID, reqForward.ToChatJID)
	if err != nil {
		log.MessageOp(c, "Forward", chatParam).WithField("message_id", messageID).WithError(err).Error("Failed to forward message")
		return router.ResponseInternalError(c, err.Error())
	}

	log.MessageOp(c, "Forward", chatParam).WithField("message_id", messageID).WithField("new_msg_id", msgID).Info("Message forwarded successfully")

	return router.ResponseSuccessWithData(c, "Success forward message", map[string]interface{}{"message_id": msgID})
}

// Download streams the media payload of a cached message
func Download(c *fiber.Ctx) error {
	chatParam := c.Params("chat_jid")
	messageID := c.Params("message_id")

	log.MessageOp(c, "Download", chatParam).WithField("message_id", messageID).Info("Downloading media")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	data, mimetype, err := pkgWhatsApp.WhatsAppDownloadMedia(ctx, chatParam, messageID)
	if err != nil {
		log.MessageOp(c, "Download", chatParam).WithField("message_id", messageID).WithError(err).Error("Failed to download media")
		return router.ResponseInternalError(c, err.Error())
	}

	log.MessageOp(c, "Download", chatParam).WithField("message_id", messageID).WithField("size", len(data)).Info("Media downloaded successfully")

	c.Set("Content-Type", mimetype)
	return c.Send(data)
}

// Thumbnail serves the inline JPEG preview of a cached media message
func Thumbnail(c *fiber.Ctx) error {
	chatParam := c.Params("chat_jid")
	messageID := c.Params("message_id")

	data, mimetype, err := pkgWhatsApp.WhatsAppGetMessageThumbnail(messageID)
	if err != nil {
		log.MessageOp(c, "Thumbnail", chatParam).WithField("message_id", messageID).WithError(err).Error("Failed to get thumbnail")
		return router.ResponseNotFound(c, err.Error())
	}

	c.Set("Content-Type", mimetype)
	return c.Send(data)
}
