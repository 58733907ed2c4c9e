package whatsapp

import (
	"context"
	"errors"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/types"
)

func WhatsAppGetBusinessProfile(ctx context.Context, targetID string) (*types.BusinessProfile, error) {
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

	target, err := types.ParseJID(targetID)
	if err != nil {
		return nil, err
	}

	return client.GetBusinessProfile(ctx, target)
}

// WhatsAppResolveBusinessMessageLink resolves a wa.me/message/CODE link to
// the business account behind it.
func WhatsAppResolveBusinessMessageLink(ctx context.Context, code string) (*types.BusinessMessageLinkTarget, error) {
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

	return client.ResolveBusinessMessageLink(ctx, code)
}

func WhatsAppRejectCall(ctx context.Context, callFrom string, callID string) error {
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

	callerJID, err := types.ParseJID(callFrom)
	if err != nil {
		return err
	}

	return client.RejectCall(ctx, callerJID, callID)
}

// WhatsAppBuildHistorySyncRequest asks the phone to replay recent history.
// The results arrive asynchronously as history sync events, they are not
// returned here.
func WhatsAppBuildHistorySyncRequest(ctx context.Context, count int) error {
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
	if client.Store.ID == nil {
		return errors.New("client store is not available")
	}

	historyMsg := client.BuildHistorySyncRequest(nil, count)
	if historyMsg == nil {
		return errors.New("failed to build history sync request")
	}

	// History sync requests are peer messages to our own devices
	_, err = client.SendMessage(ctx, client.Store.ID.ToNonAD(), historyMsg, whatsmeow.SendRequestExtra{Peer: true})
	return err
}

func WhatsAppGetBotListV2(ctx context.Context) ([]types.BotListInfo, error) {
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

	return client.GetBotListV2(ctx)
}

func WhatsAppGetBotProfiles(ctx context.Context, botList []types.BotListInfo) ([]types.BotProfileInfo, error) {
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

	return client.GetBotProfiles(ctx, botList)
}
