package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/appstate"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
)

func WhatsAppGetUserInfo(ctx context.Context, ids []string) (map[string]types.UserInfo, error) {
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

	jidList := make([]types.JID, len(ids))
	for i, id := range ids {
		jidList[i], err = types.ParseJID(id)
		if err != nil {
			return nil, fmt.Errorf("invalid JID format: %s", id)
		}
	}

	result, err := client.GetUserInfo(ctx, jidList)
	if err != nil {
		return nil, err
	}

	stringMap := make(map[string]types.UserInfo)
	for k, v := range result {
		stringMap[k.String()] = v
	}
	return stringMap, nil
}

func WhatsAppGetUserProfilePicture(ctx context.Context, targetID string, preview bool) (*types.ProfilePictureInfo, error) {
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
		return nil, fmt.Errorf("invalid JID format: %s", targetID)
	}

	params := &whatsmeow.GetProfilePictureParams{
		Preview: preview,
	}

	return client.GetProfilePictureInfo(ctx, target, params)
}

func WhatsAppGetUserDevices(ctx context.Context, userJID types.JID) ([]types.JID, error) {
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
	return client.GetUserDevicesContext(ctx, []types.JID{userJID})
}

func WhatsAppSetUserStatus(ctx context.Context, status string) error {
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
	return client.SetStatusMessage(ctx, status)
}

func WhatsAppGetPrivacy(ctx context.Context) (types.PrivacySettings, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := currentClient()
	if err != nil {
		return types.PrivacySettings{}, err
	}
	if err = WhatsAppIsClientOK(); err != nil {
		return types.PrivacySettings{}, err
	}
	privacy, err := client.TryFetchPrivacySettings(ctx, false)
	if err != nil {
		return types.PrivacySettings{}, err
	}
	if privacy == nil {
		return types.PrivacySettings{}, errors.New("privacy settings not available")
	}
	return *privacy, nil
}

// WhatsAppSetUserPrivacy maps the REST-facing setting and value names onto
// the protocol constants. read_receipts only knows true and false, which map
// to all and none.
func WhatsAppSetUserPrivacy(ctx context.Context, setting string, value string) (types.PrivacySettings, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := currentClient()
	if err != nil {
		return types.PrivacySettings{}, err
	}
	if err = WhatsAppIsClientOK(); err != nil {
		return types.PrivacySettings{}, err
	}

	var privacyType types.PrivacySettingType
	var privacyValue types.PrivacySetting

	switch setting {
	case "group_add":
		privacyType = types.PrivacySettingTypeGroupAdd
	case "last_seen":
		privacyType = types.PrivacySettingTypeLastSeen
	case "status":
		privacyType = types.PrivacySettingTypeStatus
	case "profile":
		privacyType = types.PrivacySettingTypeProfile
	case "read_receipts":
		privacyType = types.PrivacySettingTypeReadReceipts
	default:
		return types.PrivacySettings{}, fmt.Errorf("invalid privacy setting: %s", setting)
	}

	switch value {
	case "all":
		privacyValue = types.PrivacySettingAll
	case "contacts":
		privacyValue = types.PrivacySettingContacts
	case "contact_blacklist":
		privacyValue = types.PrivacySettingContactBlacklist
	case "none":
		privacyValue = types.PrivacySettingNone
	case "matched":
		privacyValue = types.PrivacySettingMatchLastSeen
	default:
		if setting == "read_receipts" {
			if value == "true" {
				privacyValue = types.PrivacySettingAll
			} else {
				privacyValue = types.PrivacySettingNone
			}
		} else {
			return types.PrivacySettings{}, fmt.Errorf("invalid privacy value: %s", value)
		}
	}

	return client.SetPrivacySetting(ctx, privacyType, privacyValue)
}

func WhatsAppGetStatusPrivacy(ctx context.Context) ([]types.StatusPrivacy, error) {
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
	return client.GetStatusPrivacy(ctx)
}

func WhatsAppBlockUser(ctx context.Context, targetID string) error {
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

	target, err := types.ParseJID(targetID)
	if err != nil {
		return fmt.Errorf("invalid JID format: %s", targetID)
	}

	_, err = client.UpdateBlocklist(ctx, target, events.BlocklistChangeActionBlock)
	return err
}

func WhatsAppUnblockUser(ctx context.Context, targetID string) error {
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

	target, err := types.ParseJID(targetID)
	if err != nil {
		return fmt.Errorf("invalid JID format: %s", targetID)
	}

	_, err = client.UpdateBlocklist(ctx, target, events.BlocklistChangeActionUnblock)
	return err
}

// WhatsAppSetDisappearingTimer sets the disappearing message timer for one
// chat, or the account-wide default when chatJID is empty. The timer is in
// seconds, zero disables it.
func WhatsAppSetDisappearingTimer(ctx context.Context, timer int, chatJID string) error {
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

	duration := time.Duration(timer) * time.Second

	if chatJID == "" {
		return client.SetDefaultDisappearingTimer(ctx, duration)
	}

	chat, err := types.ParseJID(chatJID)
	if err != nil {
		return fmt.Errorf("invalid chat JID format: %s", chatJID)
	}

	return client.SetDisappearingTimer(ctx, chat, duration, time.Now())
}

func WhatsAppFetchAppState(ctx context.Context, name string, fullSync bool, onlyIfNotSynced bool) error {
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

	patchName := appstate.WAPatchName(name)
	return client.FetchAppState(ctx, patchName, fullSync, onlyIfNotSynced)
}

func WhatsAppSendAppState(ctx context.Context, patchInfo appstate.PatchInfo) error {
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

	return client.SendAppState(ctx, patchInfo)
}

// WhatsAppMarkNotDirty marks server-side app state as clean so the phone
// stops asking for a resync.
func WhatsAppMarkNotDirty(ctx context.Context, cleanType string, timestamp time.Time) error {
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

	return client.MarkNotDirty(ctx, cleanType, timestamp)
}
