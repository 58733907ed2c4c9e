package poll

import (
	"context"

	"github.com/gofiber/fiber/v2"

	typWhatsApp "github.com/gdbrns/go-whatsapp-crm-gateway/internal/types"
	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/log"
	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/router"
	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/validation"
	pkgWhatsApp "github.com/gdbrns/go-whatsapp-crm-gateway/pkg/whatsapp"
)

// CreatePoll creates a new poll in a chat
func CreatePoll(c *fiber.Ctx) error {
	chatJID := c.Params("chat_jid")

	if err := validation.ValidateChatJID(chatJID); err != nil {
		log.MessageOp(c, "CreatePoll", chatJID).Warn("Invalid chat_jid")
		return router.ResponseBadRequest(c, err.Error())
	}

	var req typWhatsApp.RequestSendPoll
	err := c.BodyParser(&req)
	if err != nil {
		log.MessageOp(c, "CreatePoll", chatJID).Warn("Failed to parse body request")
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	if req.Question == "" {
		log.MessageOp(c, "CreatePoll", chatJID).Warn("Question is required")
		return router.ResponseBadRequest(c, "question is required")
	}
	if len(req.Options) < 2 {
		log.MessageOp(c, "CreatePoll", chatJID).Warn("At least 2 options are required")
		return router.ResponseBadRequest(c, "at least 2 options are required")
	}
	if len(req.Options) > 12 {
		log.MessageOp(c, "CreatePoll", chatJID).Warn("Maximum 12 options allowed")
		return router.ResponseBadRequest(c, "maximum 12 options allowed")
	}

	log.MessageOp(c, "CreatePoll", chatJID).WithField("question", req.Question).WithField("options_count", len(req.Options)).Info("Creating poll")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	msgID, err := pkgWhatsApp.WhatsAppCreatePoll(ctx, chatJID, req.Question, req.Options, req.MultiAnswer)
	if err != nil {
		log.MessageOp(c, "CreatePoll", chatJID).WithError(err).Error("Failed to create poll")
		return router.ResponseInternalError(c, err.Error())
	}

	log.MessageOp(c, "CreatePoll", chatJID).WithField("message_id", msgID).Info("Poll created successfully")

	return router.ResponseSuccessWithData(c, "Success create poll", map[string]interface{}{"message_id": msgID})
}

// VotePoll votes on an existing poll
func VotePoll(c *fiber.Ctx) error {
	pollID := c.Params("poll_id")

	var req typWhatsApp.RequestSendPollVote
	err := c.BodyParser(&req)
	if err != nil {
		log.MessageOp(c, "VotePoll", "").WithField("poll_id", pollID).Warn("Failed to parse body request")
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	if req.ChatJID == "" {
		log.MessageOp(c, "VotePoll", "").WithField("poll_id", pollID).Warn("chat_jid is required")
		return router.ResponseBadRequest(c, "chat_jid is required")
	}
	if len(req.Options) == 0 {
		log.MessageOp(c, "VotePoll", req.ChatJID).WithField("poll_id", pollID).Warn("At least 1 option is required")
		return router.ResponseBadRequest(c, "at least 1 option is required to vote")
	}

	log.MessageOp(c, "VotePoll", req.ChatJID).WithField("poll_id", pollID).WithField("options", req.Options).Info("Voting on poll")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	_, err = pkgWhatsApp.WhatsAppVotePoll(ctx, req.ChatJID, pollID, req.Options)
	if err != nil {
		log.MessageOp(c, "VotePoll", req.ChatJID).WithField("poll_id", pollID).WithError(err).Error("Failed to vote on poll")
		return router.ResponseInternalError(c, err.Error())
	}

	log.MessageOp(c, "VotePoll", req.ChatJID).WithField("poll_id", pollID).Info("Poll vote submitted successfully")

	return router.ResponseSuccess(c, "Success vote on poll")
}

// GetPollResults gets the results of a poll (placeholder - requires message history)
func GetPollResults(c *fiber.Ctx) error {
	pollID := c.Params("poll_id")

	// Poll votes arrive as inbound messages and are relayed to the CRM webhook
	// This endpoint returns the poll message ID for reference
	log.MessageOp(c, "GetPollResults", "").WithField("poll_id", pollID).Info("Getting poll results")

	return router.ResponseSuccessWithData(c, "Poll results are delivered via webhook events", map[string]interface{}{
		"poll_id": pollID,
		"note":    "Poll votes are relayed through message.received webhook deliveries",
	})
}

// DeletePoll deletes a poll message
func DeletePoll(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	pollID := c.Params("poll_id")

	var req struct {
		ChatJID string `json:"chat_jid"`
	}
	err := c.BodyParser(&req)
	if err != nil {
		log.MessageOp(c, "DeletePoll", "").WithField("poll_id", pollID).Warn("Failed to parse body request")
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	if req.ChatJID == "" {
		log.MessageOp(c, "DeletePoll", "").WithField("poll_id", pollID).Warn("chat_jid is required")
		return router.ResponseBadRequest(c, "chat_jid is required")
	}

	log.MessageOp(c, "DeletePoll", req.ChatJID).WithField("poll_id", pollID).Info("Deleting poll")

	chatJID := pkgWhatsApp.WhatsAppGetJID(ctx, req.ChatJID)

	err = pkgWhatsApp.WhatsAppDeleteMessage(ctx, chatJID, chatJID, pollID)
	if err != nil {
		log.MessageOp(c, "DeletePoll", req.ChatJID).WithField("poll_id", pollID).WithError(err).Error("Failed to delete poll")
		return router.ResponseInternalError(c, err.Error())
	}

	log.MessageOp(c, "DeletePoll", req.ChatJID).WithField("poll_id", pollID).Info("Poll deleted successfully")

	return router.ResponseSuccess(c, "Success delete poll")
}
