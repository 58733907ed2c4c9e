package whatsapp

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"google.golang.org/protobuf/proto"
)

// Status stories are regular messages addressed to the status broadcast JID.
// Who sees them is controlled by the account's status privacy list, fetched
// separately via WhatsAppGetStatusPrivacy.

const whatsappGreenARGB = uint32(0xFF075E54)

// WhatsAppPostTextStatus publishes a text story. backgroundColor takes a
// "#RRGGBB" hex string, font one of the protocol font enum values.
func WhatsAppPostTextStatus(ctx context.Context, text string, backgroundColor string, font int) (string, error) {
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
	if err = waitSendSlot(ctx); err != nil {
		return "", err
	}

	extMsg := &waE2E.ExtendedTextMessage{
		Text:           proto.String(text),
		BackgroundArgb: proto.Uint32(parseColorToARGB(backgroundColor)),
		TextArgb:       proto.Uint32(0xFFFFFFFF),
	}
	if font > 0 {
		extMsg.Font = waE2E.ExtendedTextMessage_FontType(font).Enum()
	}

	msgContent := &waE2E.Message{
		ExtendedTextMessage: extMsg,
	}

	msgExtra := whatsmeow.SendRequestExtra{
		ID: client.GenerateMessageID(),
	}

	resp, err := client.SendMessage(ctx, types.StatusBroadcastJID, msgContent, msgExtra)
	if err != nil {
		return "", err
	}

	cacheSentMessage(msgExtra.ID, types.StatusBroadcastJID, resp.Timestamp, "text", text, msgContent)
	return msgExtra.ID, nil
}

func WhatsAppPostImageStatus(ctx context.Context, imageBytes []byte, caption string) (string, error) {
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
	if err = waitSendSlot(ctx); err != nil {
		return "", err
	}

	mimeType := http.DetectContentType(imageBytes)
	if !strings.HasPrefix(mimeType, "image/") {
		return "", fmt.Errorf("invalid image content type: %s", mimeType)
	}

	uploaded, err := client.Upload(ctx, imageBytes, whatsmeow.MediaImage)
	if err != nil {
		return "", err
	}

	msgContent := &waE2E.Message{
		ImageMessage: &waE2E.ImageMessage{
			Caption:       proto.String(caption),
			Mimetype:      proto.String(mimeType),
			URL:           proto.String(uploaded.URL),
			DirectPath:    proto.String(uploaded.DirectPath),
			MediaKey:      uploaded.MediaKey,
			FileEncSHA256: uploaded.FileEncSHA256,
			FileSHA256:    uploaded.FileSHA256,
			FileLength:    proto.Uint64(uint64(len(imageBytes))),
		},
	}

	msgExtra := whatsmeow.SendRequestExtra{
		ID: client.GenerateMessageID(),
	}

	resp, err := client.SendMessage(ctx, types.StatusBroadcastJID, msgContent, msgExtra)
	if err != nil {
		return "", err
	}

	cacheSentMessage(msgExtra.ID, types.StatusBroadcastJID, resp.Timestamp, "image", caption, msgContent)
	return msgExtra.ID, nil
}

func WhatsAppPostVideoStatus(ctx context.Context, videoBytes []byte, caption string) (string, error) {
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
	if err = waitSendSlot(ctx); err != nil {
		return "", err
	}

	mimeType := http.DetectContentType(videoBytes)
	if !strings.HasPrefix(mimeType, "video/") {
		mimeType = "video/mp4"
	}

	uploaded, err := client.Upload(ctx, videoBytes, whatsmeow.MediaVideo)
	if err != nil {
		return "", err
	}

	msgContent := &waE2E.Message{
		VideoMessage: &waE2E.VideoMessage{
			Caption:       proto.String(caption),
			Mimetype:      proto.String(mimeType),
			URL:           proto.String(uploaded.URL),
			DirectPath:    proto.String(uploaded.DirectPath),
			MediaKey:      uploaded.MediaKey,
			FileEncSHA256: uploaded.FileEncSHA256,
			FileSHA256:    uploaded.FileSHA256,
			FileLength:    proto.Uint64(uint64(len(videoBytes))),
		},
	}

	msgExtra := whatsmeow.SendRequestExtra{
		ID: client.GenerateMessageID(),
	}

	resp, err := client.SendMessage(ctx, types.StatusBroadcastJID, msgContent, msgExtra)
	if err != nil {
		return "", err
	}

	cacheSentMessage(msgExtra.ID, types.StatusBroadcastJID, resp.Timestamp, "video", caption, msgContent)
	return msgExtra.ID, nil
}

// WhatsAppGetStatusUpdates lists cached stories from all contacts, newest
// first. Stories older than the cache TTL are gone.
func WhatsAppGetStatusUpdates(ctx context.Context) ([]*CachedMessage, error) {
	if _, err := currentClient(); err != nil {
		return nil, err
	}
	if err := WhatsAppIsClientOK(); err != nil {
		return nil, err
	}
	return messageCache.Recent(types.StatusBroadcastJID.String(), messageCache.Len()), nil
}

// WhatsAppGetUserStatus lists cached stories posted by one contact.
func WhatsAppGetUserStatus(ctx context.Context, userID string) ([]*CachedMessage, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := currentClient(); err != nil {
		return nil, err
	}
	if err := WhatsAppIsClientOK(); err != nil {
		return nil, err
	}

	userJID, err := WhatsAppCheckJID(ctx, userID)
	if err != nil {
		return nil, err
	}
	bareUser := userJID.ToNonAD().User

	all := messageCache.Recent(types.StatusBroadcastJID.String(), messageCache.Len())
	statuses := make([]*CachedMessage, 0, len(all))
	for _, msg := range all {
		sender, err := types.ParseJID(msg.SenderJID)
		if err != nil {
			continue
		}
		if sender.ToNonAD().User == bareUser {
			statuses = append(statuses, msg)
		}
	}
	return statuses, nil
}

// WhatsAppDeleteStatus revokes an own story.
func WhatsAppDeleteStatus(ctx context.Context, statusID string) error {
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

	_, err = client.SendMessage(ctx, types.StatusBroadcastJID, client.BuildRevoke(types.StatusBroadcastJID, types.EmptyJID, statusID))
	return err
}

// parseColorToARGB turns "#RRGGBB" into an opaque ARGB value, falling back
// to WhatsApp green on anything unparseable.
func parseColorToARGB(hex string) uint32 {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return whatsappGreenARGB
	}

	var r, g, b uint8
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		return whatsappGreenARGB
	}
	return 0xFF000000 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}
