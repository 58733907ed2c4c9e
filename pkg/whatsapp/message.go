package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/forPelevin/gomoji"
	"github.com/rivo/uniseg"
	"google.golang.org/protobuf/proto"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/appstate"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
)

func WhatsAppMarkRead(ctx context.Context, chatJID types.JID, senderJID types.JID, messageID string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := currentClient()
	if err != nil {
		return err
	}
	if err = WhatsAppIsClientOK(); err != nil {
		return err
	}
	msgIDs := []types.MessageID{types.MessageID(messageID)}
	return client.MarkRead(ctx, msgIDs, time.Now(), chatJID, senderJID)
}

func WhatsAppReact(ctx context.Context, chatJID types.JID, senderJID types.JID, messageID string, emoji string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := currentClient()
	if err != nil {
		return "", err
	}
	if err = WhatsAppIsClientOK(); err != nil {
		return "", err
	}
	if !gomoji.ContainsEmoji(emoji) && uniseg.GraphemeClusterCount(emoji) != 1 {
		return "", errors.New("WhatsApp Message React Emoji Must Be Contain Only 1 Emoji Character")
	}

	msg := client.BuildReaction(chatJID, senderJID, messageID, emoji)
	resp, err := client.SendMessage(ctx, chatJID, msg)
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

func WhatsAppEditMessage(ctx context.Context, chatJID types.JID, messageID string, newText string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := currentClient()
	if err != nil {
		return "", err
	}
	if err = WhatsAppIsClientOK(); err != nil {
		return "", err
	}

	msgContent := &waE2E.Message{
		Conversation: proto.String(newText),
	}
	resp, err := client.SendMessage(ctx, chatJID, client.BuildEdit(chatJID, messageID, msgContent))
	if err != nil {
		return "", err
	}

	if cached, ok := messageCache.Get(chatJID.String(), messageID); ok {
		cached.Text = newText
		cached.Message = msgContent
		messageCache.Add(cached)
	}

	return resp.ID, nil
}

func WhatsAppDeleteMessage(ctx context.Context, chatJID types.JID, senderJID types.JID, messageID string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := currentClient()
	if err != nil {
		return err
	}
	if err = WhatsAppIsClientOK(); err != nil {
		return err
	}

	msg := client.BuildRevoke(chatJID, senderJID, messageID)
	_, err = client.SendMessage(ctx, chatJID, msg)
	return err
}

// WhatsAppForwardMessage re-sends a cached message to another chat with the
// forwarded flag set and the forwarding score carried over.
func WhatsAppForwardMessage(ctx context.Context, messageID string, toChatID string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := currentClient()
	if err != nil {
		return "", err
	}
	if err = WhatsAppIsClientOK(); err != nil {
		return "", err
	}

	toJID, err := WhatsAppCheckJID(ctx, toChatID)
	if err != nil {
		return "", err
	}

	cached, ok := messageCache.Find(messageID)
	if !ok || cached.Message == nil {
		return "", ErrMessageNotCached
	}
	messageContent := cached.Message

	if err = waitSendSlot(ctx); err != nil {
		return "", err
	}

	forwardedContent := &waE2E.Message{}

	if messageContent.Conversation != nil {
		forwardedContent.Conversation = proto.String(*messageContent.Conversation)
	} else if messageContent.ImageMessage != nil {
		forwardedContent.ImageMessage = messageContent.ImageMessage
	} else if messageContent.VideoMessage != nil {
		forwardedContent.VideoMessage = messageContent.VideoMessage
	} else if messageContent.AudioMessage != nil {
		forwardedContent.AudioMessage = messageContent.AudioMessage
	} else if messageContent.DocumentMessage != nil {
		forwardedContent.DocumentMessage = messageContent.DocumentMessage
	} else if messageContent.StickerMessage != nil {
		forwardedContent.StickerMessage = messageContent.StickerMessage
	} else if messageContent.ContactMessage != nil {
		forwardedContent.ContactMessage = messageContent.ContactMessage
	} else if messageContent.LocationMessage != nil {
		forwardedContent.LocationMessage = messageContent.LocationMessage
	} else if messageContent.ExtendedTextMessage != nil {
		forwardedContent.ExtendedTextMessage = messageContent.ExtendedTextMessage
	} else if messageContent.PollCreationMessage != nil {
		forwardedContent.PollCreationMessage = messageContent.PollCreationMessage
	} else {
		forwardedContent.Conversation = proto.String("📎 Forwarded message")
	}

	forwardingScore := uint32(1)

	var originalForwardingScore uint32
	if messageContent.ExtendedTextMessage != nil && messageContent.ExtendedTextMessage.ContextInfo != nil {
		if fs := messageContent.ExtendedTextMessage.ContextInfo.ForwardingScore; fs != nil && *fs > 0 {
			originalForwardingScore = *fs
		}
	} else if messageContent.ImageMessage != nil && messageContent.ImageMessage.ContextInfo != nil {
		if fs := messageContent.ImageMessage.ContextInfo.ForwardingScore; fs != nil && *fs > 0 {
			originalForwardingScore = *fs
		}
	} else if messageContent.VideoMessage != nil && messageContent.VideoMessage.ContextInfo != nil {
		if fs := messageContent.VideoMessage.ContextInfo.ForwardingScore; fs != nil && *fs > 0 {
			originalForwardingScore = *fs
		}
	}

	if originalForwardingScore > 0 {
		forwardingScore = originalForwardingScore + 1
	}

	contextInfo := &waE2E.ContextInfo{
		IsForwarded:     proto.Bool(true),
		ForwardingScore: proto.Uint32(forwardingScore),
	}

	if forwardedContent.Conversation != nil {
		forwardedContent.ExtendedTextMessage = &waE2E.ExtendedTextMessage{
			Text:        forwardedContent.Conversation,
			ContextInfo: contextInfo,
		}
		forwardedContent.Conversation = nil
	} else if forwardedContent.ImageMessage != nil {
		forwardedContent.ImageMessage.ContextInfo = contextInfo
	} else if forwardedContent.VideoMessage != nil {
		forwardedContent.VideoMessage.ContextInfo = contextInfo
	} else if forwardedContent.AudioMessage != nil {
		forwardedContent.AudioMessage.ContextInfo = contextInfo
	} else if forwardedContent.DocumentMessage != nil {
		forwardedContent.DocumentMessage.ContextInfo = contextInfo
	} else if forwardedContent.StickerMessage != nil {
		forwardedContent.StickerMessage.ContextInfo = contextInfo
	} else if forwardedContent.ContactMessage != nil {
		forwardedContent.ContactMessage.ContextInfo = contextInfo
	} else if forwardedContent.LocationMessage != nil {
		forwardedContent.LocationMessage.ContextInfo = contextInfo
	} else if forwardedContent.ExtendedTextMessage != nil {
		forwardedContent.ExtendedTextMessage.ContextInfo = contextInfo
	} else if forwardedContent.PollCreationMessage != nil {
		forwardedContent.PollCreationMessage.ContextInfo = contextInfo
	}

	msgExtra := whatsmeow.SendRequestExtra{ID: client.GenerateMessageID()}
	resp, err := client.SendMessage(ctx, toJID, forwardedContent, msgExtra)
	if err != nil {
		return "", fmt.Errorf("failed to send forwarded message: %w", err)
	}

	cacheSentMessage(msgExtra.ID, toJID, resp.Timestamp, cached.MediaType, cached.Text, forwardedContent)
	return resp.ID, nil
}

// WhatsAppDownloadMedia fetches the media payload of a cached message from
// the WhatsApp media servers. Returns the raw bytes and the mimetype.
func WhatsAppDownloadMedia(ctx context.Context, chatID string, messageID string) ([]byte, string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := currentClient()
	if err != nil {
		return nil, "", err
	}
	if err = WhatsAppIsClientOK(); err != nil {
		return nil, "", err
	}

	chatJID, err := WhatsAppCheckJID(ctx, chatID)
	if err != nil {
		return nil, "", err
	}

	cached, ok := messageCache.Get(chatJID.String(), messageID)
	if !ok || cached.Message == nil {
		return nil, "", ErrMessageNotCached
	}

	mimetype := mediaMimetype(cached.Message)
	if mimetype == "" {
		return nil, "", errors.New("WhatsApp Message Does Not Contain Downloadable Media")
	}

	data, err := client.DownloadAny(ctx, cached.Message)
	if err != nil {
		return nil, "", err
	}

	return data, mimetype, nil
}

// WhatsAppGetMessageThumbnail returns the inline JPEG thumbnail of a cached
// media message without hitting the media servers.
func WhatsAppGetMessageThumbnail(messageID string) ([]byte, string, error) {
	cached, ok := messageCache.Find(messageID)
	if !ok || cached.Message == nil {
		return nil, "", ErrMessageNotCached
	}

	var thumbnail []byte
	switch {
	case cached.Message.ImageMessage != nil:
		thumbnail = cached.Message.ImageMessage.JPEGThumbnail
	case cached.Message.VideoMessage != nil:
		thumbnail = cached.Message.VideoMessage.JPEGThumbnail
	case cached.Message.ExtendedTextMessage != nil:
		thumbnail = cached.Message.ExtendedTextMessage.JPEGThumbnail
	}

	if len(thumbnail) == 0 {
		return nil, "", errors.New("WhatsApp Message Does Not Contain a Thumbnail")
	}

	return thumbnail, "image/jpeg", nil
}

// WhatsAppGetChatHistory lists cached messages for a chat, newest first.
// Only messages still in the in-memory cache are returned.
func WhatsAppGetChatHistory(chatJID types.JID, limit int, before string, after string) (map[string]interface{}, error) {
	if limit <= 0 {
		limit = 50
	}

	var beforeTime, afterTime time.Time
	if before != "" {
		t, err := time.Parse(time.RFC3339, before)
		if err != nil {
			return nil, errors.New("invalid before timestamp, expected RFC3339")
		}
		beforeTime = t
	}
	if after != "" {
		t, err := time.Parse(time.RFC3339, after)
		if err != nil {
			return nil, errors.New("invalid after timestamp, expected RFC3339")
		}
		afterTime = t
	}

	// Fetch the whole chat slice so before/after filtering sees every
	// cached message, then cap at limit.
	cachedMessages := messageCache.Recent(chatJID.String(), messageCache.Len())
	messages := make([]*CachedMessage, 0, limit)
	for _, msg := range cachedMessages {
		if !beforeTime.IsZero() && !msg.Timestamp.Before(beforeTime) {
			continue
		}
		if !afterTime.IsZero() && !msg.Timestamp.After(afterTime) {
			continue
		}
		messages = append(messages, msg)
		if len(messages) >= limit {
			break
		}
	}

	return map[string]interface{}{
		"chat_jid": chatJID.String(),
		"limit":    limit,
		"before":   before,
		"after":    after,
		"count":    len(messages),
		"messages": messages,
	}, nil
}

func WhatsAppArchiveChat(ctx context.Context, chatJID types.JID, archive bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := currentClient()
	if err != nil {
		return err
	}
	if err = WhatsAppIsClientOK(); err != nil {
		return err
	}
	return client.SendAppState(ctx, appstate.BuildArchive(chatJID, archive, time.Time{}, nil))
}

func WhatsAppPinChat(ctx context.Context, chatJID types.JID, pin bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := currentClient()
	if err != nil {
		return err
	}
	if err = WhatsAppIsClientOK(); err != nil {
		return err
	}
	return client.SendAppState(ctx, appstate.BuildPin(chatJID, pin))
}

func WhatsAppMuteChat(ctx context.Context, chatJID types.JID, mute bool, duration time.Duration) error {
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := currentClient()
	if err != nil {
		return err
	}
	if err = WhatsAppIsClientOK(); err != nil {
		return err
	}
	return client.SendAppState(ctx, appstate.BuildMute(chatJID, mute, duration))
}

// mediaMimetype returns the declared mimetype of the downloadable part of a
// message, or empty when the message has no media.
func mediaMimetype(msg *waE2E.Message) string {
	switch {
	case msg.ImageMessage != nil:
		return msg.ImageMessage.GetMimetype()
	case msg.VideoMessage != nil:
		return msg.VideoMessage.GetMimetype()
	case msg.AudioMessage != nil:
		return msg.AudioMessage.GetMimetype()
	case msg.DocumentMessage != nil:
		return msg.DocumentMessage.GetMimetype()
	case msg.StickerMessage != nil:
		return msg.StickerMessage.GetMimetype()
	}
	return ""
}
