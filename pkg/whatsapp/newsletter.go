package whatsapp

import (
	"context"
	"time"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"google.golang.org/protobuf/proto"
)

func WhatsAppGetSubscribedNewsletters(ctx context.Context) ([]*types.NewsletterMetadata, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := currentClient()
	if err != nil {
		return nil, err
	}
	if err = WhatsAppIsClientOK(); err != nil {
		return nil, err
	}
	return client.GetSubscribedNewsletters(ctx)
}

func WhatsAppCreateNewsletter(ctx context.Context, name string, description string) (*types.NewsletterMetadata, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := currentClient()
	if err != nil {
		return nil, err
	}
	if err = WhatsAppIsClientOK(); err != nil {
		return nil, err
	}

	return client.CreateNewsletter(ctx, whatsmeow.CreateNewsletterParams{
		Name:        name,
		Description: description,
	})
}

func WhatsAppGetNewsletterInfo(ctx context.Context, newsletterID string) (*types.NewsletterMetadata, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := currentClient()
	if err != nil {
		return nil, err
	}
	if err = WhatsAppIsClientOK(); err != nil {
		return nil, err
	}

	newsletterJID, err := parseNewsletterJID(newsletterID)
	if err != nil {
		return nil, err
	}

	return client.GetNewsletterInfo(ctx, newsletterJID)
}

func WhatsAppGetNewsletterInfoWithInvite(ctx context.Context, inviteCode string) (*types.NewsletterMetadata, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := currentClient()
	if err != nil {
		return nil, err
	}
	if err = WhatsAppIsClientOK(); err != nil {
		return nil, err
	}

	return client.GetNewsletterInfoWithInvite(ctx, inviteCode)
}

func WhatsAppFollowNewsletter(ctx context.Context, newsletterID string) error {
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

	newsletterJID, err := parseNewsletterJID(newsletterID)
	if err != nil {
		return err
	}

	return client.FollowNewsletter(ctx, newsletterJID)
}

func WhatsAppUnfollowNewsletter(ctx context.Context, newsletterID string) error {
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

	newsletterJID, err := parseNewsletterJID(newsletterID)
	if err != nil {
		return err
	}

	return client.UnfollowNewsletter(ctx, newsletterJID)
}

// WhatsAppGetNewsletterMessages fetches newsletter messages, newest first.
// before is a message server id, zero fetches from the latest.
func WhatsAppGetNewsletterMessages(ctx context.Context, newsletterID string, count int, before int) ([]*types.NewsletterMessage, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := currentClient()
	if err != nil {
		return nil, err
	}
	if err = WhatsAppIsClientOK(); err != nil {
		return nil, err
	}

	newsletterJID, err := parseNewsletterJID(newsletterID)
	if err != nil {
		return nil, err
	}

	params := &whatsmeow.GetNewsletterMessagesParams{}
	if count > 0 {
		params.Count = count
	}
	if before > 0 {
		params.Before = types.MessageServerID(before)
	}

	return client.GetNewsletterMessages(ctx, newsletterJID, params)
}

// WhatsAppSendNewsletterMessage posts a plain text message to a channel the
// session administers. Newsletter sends skip the send limiter because they
// are not personal-chat traffic.
func WhatsAppSendNewsletterMessage(ctx context.Context, newsletterID string, text string) (string, error) {
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

	newsletterJID, err := parseNewsletterJID(newsletterID)
	if err != nil {
		return "", err
	}

	msgContent := &waE2E.Message{
		Conversation: proto.String(text),
	}

	resp, err := client.SendMessage(ctx, newsletterJID, msgContent)
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

func WhatsAppNewsletterSendReaction(ctx context.Context, newsletterID string, messageServerID int, emoji string) error {
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

	newsletterJID, err := parseNewsletterJID(newsletterID)
	if err != nil {
		return err
	}

	// Empty emoji removes the existing reaction. The message id is left for
	// the server to generate.
	return client.NewsletterSendReaction(ctx, newsletterJID, types.MessageServerID(messageServerID), emoji, "")
}

func WhatsAppNewsletterToggleMute(ctx context.Context, newsletterID string, mute bool) error {
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

	newsletterJID, err := parseNewsletterJID(newsletterID)
	if err != nil {
		return err
	}

	return client.NewsletterToggleMute(ctx, newsletterJID, mute)
}

func WhatsAppNewsletterMarkViewed(ctx context.Context, newsletterID string, messageServerIDs []int) error {
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

	newsletterJID, err := parseNewsletterJID(newsletterID)
	if err != nil {
		return err
	}

	serverIDs := make([]types.MessageServerID, len(messageServerIDs))
	for i, id := range messageServerIDs {
		serverIDs[i] = types.MessageServerID(id)
	}

	return client.NewsletterMarkViewed(ctx, newsletterJID, serverIDs)
}

func WhatsAppNewsletterSubscribeLiveUpdates(ctx context.Context, newsletterID string) (time.Duration, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := currentClient()
	if err != nil {
		return 0, err
	}
	if err = WhatsAppIsClientOK(); err != nil {
		return 0, err
	}

	newsletterJID, err := parseNewsletterJID(newsletterID)
	if err != nil {
		return 0, err
	}

	return client.NewsletterSubscribeLiveUpdates(ctx, newsletterJID)
}

// WhatsAppGetNewsletterMessageUpdates fetches view and reaction count updates.
// since is a unix timestamp in seconds, zero means no lower bound.
func WhatsAppGetNewsletterMessageUpdates(ctx context.Context, newsletterID string, count int, since int) ([]*types.NewsletterMessage, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := currentClient()
	if err != nil {
		return nil, err
	}
	if err = WhatsAppIsClientOK(); err != nil {
		return nil, err
	}

	newsletterJID, err := parseNewsletterJID(newsletterID)
	if err != nil {
		return nil, err
	}

	params := &whatsmeow.GetNewsletterUpdatesParams{}
	if count > 0 {
		params.Count = count
	}
	if since > 0 {
		params.Since = time.Unix(int64(since), 0)
	}

	return client.GetNewsletterMessageUpdates(ctx, newsletterJID, params)
}

func WhatsAppAcceptTOSNotice(ctx context.Context, noticeID string, stage string) error {
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

	return client.AcceptTOSNotice(ctx, noticeID, stage)
}

func parseNewsletterJID(id string) (types.JID, error) {
	parsed, err := types.ParseJID(id)
	if err != nil {
		return types.EmptyJID, err
	}
	if parsed.Server != types.NewsletterServer {
		return types.EmptyJID, ErrInvalidNewsletterID
	}
	return parsed, nil
}
