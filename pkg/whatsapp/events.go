package whatsapp

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types/events"

	"github.com/gdbrns/go-whatsapp-crm-gateway/internal/webhook"
	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/log"
)

// WhatsAppEnsureClient re-creates the client handle after a logout wiped it,
// reusing the first stored device (or a fresh one when unpaired).
func WhatsAppEnsureClient(ctx context.Context) error {
	if WhatsAppHasClient() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	device, err := WhatsAppDatastore.GetFirstDevice(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	WhatsAppInitClient(device)
	return nil
}

// handleWhatsAppEvents reacts to library-emitted state transitions and relays
// message traffic to the CRM webhook engine.
func handleWhatsAppEvents(rawEvt interface{}) {
	switch e := rawEvt.(type) {
	case *events.Message:
		handleMessageEvent(e)

	case *events.Receipt:
		eventType := webhook.EventMessageDelivered
		if e.Type == events.ReceiptTypeRead || e.Type == events.ReceiptTypeReadSelf {
			eventType = webhook.EventMessageRead
		} else if e.Type == events.ReceiptTypePlayed {
			eventType = webhook.EventMessagePlayed
		}
		for _, msgID := range e.MessageIDs {
			dispatchWebhook(eventType, map[string]interface{}{
				"message_id": msgID,
				"chat":       e.Chat.String(),
				"chat_crm":   FormatJIDForCRM(e.Chat),
				"sender":     e.Sender.String(),
				"timestamp":  e.Timestamp.Unix(),
			})
		}

	case *events.Connected:
		ownJID := ""
		client, err := currentClient()
		if err == nil && client.Store.ID != nil {
			ownJID = client.Store.ID.String()
		}
		log.Evt("connected", "").Info("Client connected: " + maskJIDForLog(ownJID))
		markConnected()
		stateCtx, cancel := context.WithTimeout(context.Background(), stateCleanupTimeout)
		if err := UpsertSessionState(stateCtx, ownJID, "connected"); err != nil {
			log.SysErr("session", err).Warn("Failed to persist connected state")
		}
		cancel()
		WhatsAppPresence(context.Background(), true)
		dispatchWebhook(webhook.EventConnectionConnected, map[string]interface{}{
			"jid": ownJID,
		})

	case *events.Disconnected:
		log.Evt("disconnected", "").Warn("Client disconnected")
		markDisconnected()
		dispatchWebhook(webhook.EventConnectionDisconnected, nil)
		requestReconnect("disconnected")

	case *events.LoggedOut:
		log.Evt("logged_out", "").Warn("Client logged out, clearing session")
		client, err := currentClient()
		if err == nil {
			client.Disconnect()
		}
		stateCtx, cancel := context.WithTimeout(context.Background(), stateCleanupTimeout)
		if err := ClearSessionState(stateCtx); err != nil {
			log.SysErr("session", err).Warn("Failed to clear session state")
		}
		cancel()
		clearClient()
		dispatchWebhook(webhook.EventConnectionLoggedOut, nil)

	case *events.PairSuccess:
		log.Evt("paired", "").Info("Pairing succeeded: " + maskJIDForLog(e.ID.String()))
		stateCtx, cancel := context.WithTimeout(context.Background(), stateCleanupTimeout)
		if err := UpsertSessionState(stateCtx, e.ID.String(), "paired"); err != nil {
			log.SysErr("session", err).Warn("Failed to persist paired state")
		}
		cancel()
		dispatchWebhook(webhook.EventSessionPaired, map[string]interface{}{
			"jid":       e.ID.String(),
			"platform":  e.Platform,
			"busi_name": e.BusinessName,
		})

	case *events.StreamReplaced:
		// Another client took over the stream, reconnecting would just
		// bounce the session back and forth.
		log.Evt("stream_replaced", "").Error("Stream replaced by another client, not reconnecting")
		client, err := currentClient()
		if err == nil {
			client.Disconnect()
		}

	case *events.KeepAliveTimeout:
		log.Evt("keepalive_timeout", "").Warn(fmt.Sprintf("Keepalive timeout: errors=%d, lastSuccess=%s", e.ErrorCount, e.LastSuccess.Format(time.RFC3339)))
		if e.ErrorCount > 3 {
			requestReconnect("keepalive")
		}

	case *events.KeepAliveRestored:
		log.Evt("keepalive_restored", "").Info("Keepalive restored")

	case *events.TemporaryBan:
		log.Evt("temporary_ban", "").Error(fmt.Sprintf("Client temporarily banned: reason=%s, expires=%s", e.Code, e.Expire))

	case *events.ConnectFailure:
		log.Evt("connect_failure", "").Error(fmt.Sprintf("Client connection failure: reason=%s, message=%s", e.Reason, e.Message))
	}
}

func handleMessageEvent(e *events.Message) {
	// Revoke protocol messages mean a deletion, not new content
	if e.Message != nil && e.Message.ProtocolMessage != nil &&
		e.Message.ProtocolMessage.GetType() == waE2E.ProtocolMessage_REVOKE {
		deletedMsgID := e.Message.ProtocolMessage.GetKey().GetID()
		dispatchWebhook(webhook.EventMessageDeleted, map[string]interface{}{
			"message_id": deletedMsgID,
			"from":       e.Info.Sender.String(),
			"from_crm":   FormatJIDForCRM(e.Info.Sender),
			"chat":       e.Info.Chat.String(),
			"chat_crm":   FormatJIDForCRM(e.Info.Chat),
			"timestamp":  e.Info.Timestamp.Unix(),
			"deleted_by": e.Info.Sender.String(),
			"is_from_me": e.Info.IsFromMe,
		})
		return
	}

	msgType, text, mimetype, mediaLength, quotedID := extractMessageContent(e.Message)

	messageCache.Add(&CachedMessage{
		MessageID: e.Info.ID,
		ChatJID:   e.Info.Chat.String(),
		SenderJID: e.Info.Sender.String(),
		PushName:  e.Info.PushName,
		Timestamp: e.Info.Timestamp,
		FromMe:    e.Info.IsFromMe,
		IsGroup:   e.Info.IsGroup,
		MediaType: msgType,
		Text:      text,
		Message:   e.Message,
	})

	data := map[string]interface{}{
		"message_id":   e.Info.ID,
		"from":         e.Info.Sender.String(),
		"from_crm":     FormatJIDForCRM(e.Info.Sender),
		"chat":         e.Info.Chat.String(),
		"chat_crm":     FormatJIDForCRM(e.Info.Chat),
		"push_name":    e.Info.PushName,
		"timestamp":    e.Info.Timestamp.Unix(),
		"is_from_me":   e.Info.IsFromMe,
		"is_group":     e.Info.IsGroup,
		"message_type": msgType,
	}
	if text != "" {
		data["text"] = text
	}
	if mimetype != "" {
		data["mimetype"] = mimetype
	}
	if mediaLength > 0 {
		data["media_length"] = mediaLength
	}
	if quotedID != "" {
		data["quoted_message_id"] = quotedID
	}

	dispatchWebhook(webhook.EventMessageReceived, data)
}

// extractMessageContent flattens the oneof-style message payload into the
// fields the CRM cares about.
func extractMessageContent(msg *waE2E.Message) (msgType string, text string, mimetype string, mediaLength uint64, quotedID string) {
	if msg == nil {
		return "unknown", "", "", 0, ""
	}

	quotedFrom := func(ci *waE2E.ContextInfo) {
		if ci != nil && ci.StanzaID != nil {
			quotedID = ci.GetStanzaID()
		}
	}

	switch {
	case msg.Conversation != nil:
		return "text", msg.GetConversation(), "", 0, ""
	case msg.ExtendedTextMessage != nil:
		quotedFrom(msg.ExtendedTextMessage.GetContextInfo())
		return "text", msg.ExtendedTextMessage.GetText(), "", 0, quotedID
	case msg.ImageMessage != nil:
		quotedFrom(msg.ImageMessage.GetContextInfo())
		return "image", msg.ImageMessage.GetCaption(), msg.ImageMessage.GetMimetype(), msg.ImageMessage.GetFileLength(), quotedID
	case msg.VideoMessage != nil:
		quotedFrom(msg.VideoMessage.GetContextInfo())
		return "video", msg.VideoMessage.GetCaption(), msg.VideoMessage.GetMimetype(), msg.VideoMessage.GetFileLength(), quotedID
	case msg.AudioMessage != nil:
		quotedFrom(msg.AudioMessage.GetContextInfo())
		return "audio", "", msg.AudioMessage.GetMimetype(), msg.AudioMessage.GetFileLength(), quotedID
	case msg.DocumentMessage != nil:
		quotedFrom(msg.DocumentMessage.GetContextInfo())
		return "document", msg.DocumentMessage.GetFileName(), msg.DocumentMessage.GetMimetype(), msg.DocumentMessage.GetFileLength(), quotedID
	case msg.StickerMessage != nil:
		return "sticker", "", msg.StickerMessage.GetMimetype(), msg.StickerMessage.GetFileLength(), ""
	case msg.LocationMessage != nil:
		return "location", msg.LocationMessage.GetName(), "", 0, ""
	case msg.ContactMessage != nil:
		return "contact", msg.ContactMessage.GetDisplayName(), "", 0, ""
	case msg.PollCreationMessage != nil:
		return "poll", msg.PollCreationMessage.GetName(), "", 0, ""
	case msg.PollUpdateMessage != nil:
		return "poll_vote", "", "", 0, ""
	case msg.ReactionMessage != nil:
		return "reaction", msg.ReactionMessage.GetText(), "", 0, msg.ReactionMessage.GetKey().GetID()
	case msg.ProtocolMessage != nil:
		return "protocol", "", "", 0, ""
	default:
		return "unknown", "", "", 0, ""
	}
}

func dispatchWebhook(eventType webhook.EventType, data map[string]interface{}) {
	if webhookEngine == nil {
		return
	}
	if data == nil {
		data = map[string]interface{}{}
	}
	webhookEngine.Dispatch(context.Background(), webhook.Event{
		EventType: eventType,
		Timestamp: time.Now(),
		Data:      data,
	})
}

func GetWebhookEngine() *webhook.Engine {
	return webhookEngine
}
