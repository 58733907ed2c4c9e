package whatsapp

import (
	"context"
	"encoding/base64"
	"fmt"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/types"
)

const joinedGroupsCacheKey = "joined_groups"

// WhatsAppGroupList returns all joined groups in the enhanced JSON shape.
// Results are cached for a couple of minutes because the server roundtrip is
// expensive for accounts with many groups.
func WhatsAppGroupList(ctx context.Context) ([]EnhancedGroupInfo, error) {
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

	if cached, ok := groupCache.Get(joinedGroupsCacheKey); ok {
		return cached.([]EnhancedGroupInfo), nil
	}

	groups, err := client.GetJoinedGroups(ctx)
	if err != nil {
		return nil, err
	}

	enhanced, err := ConvertGroupsToEnhanced(ctx, groups, 10)
	if err != nil {
		return nil, err
	}

	groupCache.SetDefault(joinedGroupsCacheKey, enhanced)
	return enhanced, nil
}

func WhatsAppGroupGet(ctx context.Context) ([]types.GroupInfo, error) {
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
	groups, err := client.GetJoinedGroups(ctx)
	if err != nil {
		return nil, err
	}
	var gids []types.GroupInfo
	for _, group := range groups {
		gids = append(gids, *group)
	}
	return gids, nil
}

func WhatsAppGroupInfo(ctx context.Context, gjid string) (*types.GroupInfo, error) {
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
	groupJID, err := WhatsAppCheckJID(ctx, gjid)
	if err != nil {
		return nil, err
	}
	if groupJID.Server != types.GroupServer {
		return nil, ErrInvalidGroupID
	}
	return client.GetGroupInfo(ctx, groupJID)
}

func WhatsAppGroupCreate(ctx context.Context, subject string, participantIDs []string) (*types.GroupInfo, error) {
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
	req := whatsmeow.ReqCreateGroup{
		Name: subject,
	}
	if len(participantIDs) > 0 {
		participants := make([]types.JID, 0, len(participantIDs))
		for _, participant := range participantIDs {
			parsed, err := WhatsAppCheckJID(ctx, participant)
			if err != nil {
				return nil, err
			}
			if parsed.Server == types.GroupServer {
				return nil, ErrParticipantMustBeUser
			}
			participants = append(participants, parsed)
		}
		req.Participants = participants
	}
	group, err := client.CreateGroup(ctx, req)
	if err != nil {
		return nil, err
	}
	invalidateGroupCache()
	return group, nil
}

// WhatsAppCreateGroupEnhanced creates a group and applies the optional
// description and photo in followup calls. Invalid participant IDs are
// skipped instead of failing the whole creation.
func WhatsAppCreateGroupEnhanced(ctx context.Context, name string, participants []string, description string, photoBase64 string) (*types.GroupInfo, error) {
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

	req := whatsmeow.ReqCreateGroup{
		Name: name,
	}

	if len(participants) > 0 {
		jidList := make([]types.JID, 0, len(participants))
		for _, participant := range participants {
			parsed, err := WhatsAppCheckJID(ctx, participant)
			if err != nil {
				continue
			}
			if parsed.Server == types.GroupServer {
				continue
			}
			jidList = append(jidList, parsed)
		}
		req.Participants = jidList
	}

	group, err := client.CreateGroup(ctx, req)
	if err != nil {
		return nil, err
	}
	invalidateGroupCache()

	groupJID := group.JID

	if description != "" {
		if err := client.SetGroupDescription(ctx, groupJID, description); err != nil {
			return group, err
		}
	}

	if photoBase64 != "" {
		photoBytes, err := base64.StdEncoding.DecodeString(photoBase64)
		if err != nil {
			return group, fmt.Errorf("invalid base64 photo data: %v", err)
		}
		if _, err := client.SetGroupPhoto(ctx, groupJID, photoBytes); err != nil {
			return group, err
		}
	}

	return group, nil
}

func WhatsAppGroupJoin(ctx context.Context, link string) (string, error) {
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
	gid, err := client.JoinGroupWithLink(ctx, link)
	if err != nil {
		return "", err
	}
	invalidateGroupCache()
	return gid.String(), nil
}

func WhatsAppGroupLeave(ctx context.Context, gjid string) error {
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
	groupJID, err := WhatsAppCheckJID(ctx, gjid)
	if err != nil {
		return err
	}
	if groupJID.Server != types.GroupServer {
		return ErrInvalidGroupID
	}
	if err = client.LeaveGroup(ctx, groupJID); err != nil {
		return err
	}
	invalidateGroupCache()
	return nil
}

func WhatsAppGroupSetName(ctx context.Context, gjid string, name string) error {
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
	groupJID, err := WhatsAppCheckJID(ctx, gjid)
	if err != nil {
		return err
	}
	if groupJID.Server != types.GroupServer {
		return ErrInvalidGroupID
	}
	if err = client.SetGroupName(ctx, groupJID, name); err != nil {
		return err
	}
	invalidateGroupCache()
	return nil
}

func WhatsAppGroupSetDescription(ctx context.Context, gjid string, description string) error {
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
	groupJID, err := WhatsAppCheckJID(ctx, gjid)
	if err != nil {
		return err
	}
	if groupJID.Server != types.GroupServer {
		return ErrInvalidGroupID
	}
	return client.SetGroupDescription(ctx, groupJID, description)
}

func WhatsAppGroupSetPhoto(ctx context.Context, gjid string, photo []byte) (string, error) {
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
	groupJID, err := WhatsAppCheckJID(ctx, gjid)
	if err != nil {
		return "", err
	}
	if groupJID.Server != types.GroupServer {
		return "", ErrInvalidGroupID
	}
	photoID, err := client.SetGroupPhoto(ctx, groupJID, photo)
	if err != nil {
		return "", err
	}
	return photoID, nil
}

func WhatsAppGroupInviteLink(ctx context.Context, gjid string, reset bool) (string, error) {
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
	groupJID, err := WhatsAppCheckJID(ctx, gjid)
	if err != nil {
		return "", err
	}
	if groupJID.Server != types.GroupServer {
		return "", ErrInvalidGroupID
	}
	return client.GetGroupInviteLink(ctx, groupJID, reset)
}

func WhatsAppGroupGetRequestParticipants(ctx context.Context, gjid string) ([]types.GroupParticipantRequest, error) {
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
	groupJID, err := WhatsAppCheckJID(ctx, gjid)
	if err != nil {
		return nil, err
	}
	if groupJID.Server != types.GroupServer {
		return nil, ErrInvalidGroupID
	}
	return client.GetGroupRequestParticipants(ctx, groupJID)
}

func WhatsAppGroupSetLocked(ctx context.Context, gjid string, locked bool) error {
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
	groupJID, err := WhatsAppCheckJID(ctx, gjid)
	if err != nil {
		return err
	}
	if groupJID.Server != types.GroupServer {
		return ErrInvalidGroupID
	}
	return client.SetGroupLocked(ctx, groupJID, locked)
}

func WhatsAppGroupSetAnnounce(ctx context.Context, gjid string, announce bool) error {
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
	groupJID, err := WhatsAppCheckJID(ctx, gjid)
	if err != nil {
		return err
	}
	if groupJID.Server != types.GroupServer {
		return ErrInvalidGroupID
	}
	return client.SetGroupAnnounce(ctx, groupJID, announce)
}

func WhatsAppGroupSetJoinApprovalMode(ctx context.Context, gjid string, mode bool) error {
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
	groupJID, err := WhatsAppCheckJID(ctx, gjid)
	if err != nil {
		return err
	}
	if groupJID.Server != types.GroupServer {
		return ErrInvalidGroupID
	}
	return client.SetGroupJoinApprovalMode(ctx, groupJID, mode)
}

func WhatsAppGroupSetMemberAddMode(ctx context.Context, gjid string, mode string) error {
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

	groupJID, err := WhatsAppCheckJID(ctx, gjid)
	if err != nil {
		return err
	}
	if groupJID.Server != types.GroupServer {
		return ErrInvalidGroupID
	}

	var memberAddMode types.GroupMemberAddMode
	switch mode {
	case "all_members":
		memberAddMode = types.GroupMemberAddModeAllMember
	case "admin_only":
		memberAddMode = types.GroupMemberAddModeAdmin
	default:
		return fmt.Errorf("invalid member add mode: %s", mode)
	}

	return client.SetGroupMemberAddMode(ctx, groupJID, memberAddMode)
}

func WhatsAppGroupSetTopic(ctx context.Context, gjid string, previousID string, newID string, topic string) error {
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

	groupJID, err := WhatsAppCheckJID(ctx, gjid)
	if err != nil {
		return err
	}
	if groupJID.Server != types.GroupServer {
		return ErrInvalidGroupID
	}

	return client.SetGroupTopic(ctx, groupJID, previousID, newID, topic)
}

func WhatsAppGroupJoinWithInvite(ctx context.Context, groupID string, inviter string, code string, expiration int64) error {
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

	groupJID, err := WhatsAppCheckJID(ctx, groupID)
	if err != nil {
		return err
	}

	inviterJID, err := WhatsAppCheckJID(ctx, inviter)
	if err != nil {
		return err
	}

	if err = client.JoinGroupWithInvite(ctx, groupJID, inviterJID, code, expiration); err != nil {
		return err
	}
	invalidateGroupCache()
	return nil
}

func WhatsAppGroupGetInfoFromInvite(ctx context.Context, groupID string, inviter string, code string, expiration int64) (*types.GroupInfo, error) {
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

	groupJID, err := WhatsAppCheckJID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	inviterJID, err := WhatsAppCheckJID(ctx, inviter)
	if err != nil {
		return nil, err
	}

	return client.GetGroupInfoFromInvite(ctx, groupJID, inviterJID, code, expiration)
}

func WhatsAppGroupGetInfoFromLink(ctx context.Context, code string) (*types.GroupInfo, error) {
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

	return client.GetGroupInfoFromLink(ctx, code)
}

func WhatsAppGroupLink(ctx context.Context, parent string, child string) error {
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

	parentJID, err := WhatsAppCheckJID(ctx, parent)
	if err != nil {
		return err
	}

	childJID, err := WhatsAppCheckJID(ctx, child)
	if err != nil {
		return err
	}

	return client.LinkGroup(ctx, parentJID, childJID)
}

func WhatsAppUnlinkGroup(ctx context.Context, parent string, child string) error {
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

	parentJID, err := WhatsAppCheckJID(ctx, parent)
	if err != nil {
		return err
	}

	childJID, err := WhatsAppCheckJID(ctx, child)
	if err != nil {
		return err
	}

	return client.UnlinkGroup(ctx, parentJID, childJID)
}

func WhatsAppGroupGetLinkedParticipants(ctx context.Context, community string) ([]types.JID, error) {
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

	communityJID, err := WhatsAppCheckJID(ctx, community)
	if err != nil {
		return nil, err
	}

	return client.GetLinkedGroupsParticipants(ctx, communityJID)
}

func WhatsAppGroupGetSubGroups(ctx context.Context, community string) ([]*types.GroupLinkTarget, error) {
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

	communityJID, err := WhatsAppCheckJID(ctx, community)
	if err != nil {
		return nil, err
	}

	return client.GetSubGroups(ctx, communityJID)
}

func WhatsAppAddParticipants(ctx context.Context, groupID string, participants []string) ([]types.GroupParticipant, error) {
	return whatsAppChangeParticipants(ctx, groupID, participants, whatsmeow.ParticipantChangeAdd)
}

func WhatsAppRemoveParticipants(ctx context.Context, groupID string, participants []string) ([]types.GroupParticipant, error) {
	return whatsAppChangeParticipants(ctx, groupID, participants, whatsmeow.ParticipantChangeRemove)
}

func WhatsAppPromoteAdmins(ctx context.Context, groupID string, userIDs []string) ([]types.GroupParticipant, error) {
	return whatsAppChangeParticipants(ctx, groupID, userIDs, whatsmeow.ParticipantChangePromote)
}

func WhatsAppDemoteAdmins(ctx context.Context, groupID string, userIDs []string) ([]types.GroupParticipant, error) {
	return whatsAppChangeParticipants(ctx, groupID, userIDs, whatsmeow.ParticipantChangeDemote)
}

func whatsAppChangeParticipants(ctx context.Context, groupID string, participants []string, change whatsmeow.ParticipantChange) ([]types.GroupParticipant, error) {
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

	groupJID, err := WhatsAppCheckJID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if groupJID.Server != types.GroupServer {
		return nil, ErrInvalidGroupID
	}

	// Unresolvable IDs are skipped so one bad entry does not fail the batch
	jidList := make([]types.JID, 0, len(participants))
	for _, participant := range participants {
		parsed, err := WhatsAppCheckJID(ctx, participant)
		if err != nil {
			continue
		}
		if parsed.Server == types.GroupServer {
			continue
		}
		jidList = append(jidList, parsed)
	}

	result, err := client.UpdateGroupParticipants(ctx, groupJID, jidList, change)
	if err != nil {
		return nil, err
	}
	invalidateGroupCache()
	return result, nil
}

func WhatsAppApproveJoinRequests(ctx context.Context, groupID string, userIDs []string) ([]types.GroupParticipant, error) {
	return whatsAppChangeRequestParticipants(ctx, groupID, userIDs, whatsmeow.ParticipantChangeApprove)
}

func WhatsAppRejectJoinRequests(ctx context.Context, groupID string, userIDs []string) ([]types.GroupParticipant, error) {
	return whatsAppChangeRequestParticipants(ctx, groupID, userIDs, whatsmeow.ParticipantChangeReject)
}

func whatsAppChangeRequestParticipants(ctx context.Context, groupID string, userIDs []string, change whatsmeow.ParticipantRequestChange) ([]types.GroupParticipant, error) {
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

	groupJID, err := WhatsAppCheckJID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if groupJID.Server != types.GroupServer {
		return nil, ErrInvalidGroupID
	}

	jidList := make([]types.JID, 0, len(userIDs))
	for _, userID := range userIDs {
		parsed, err := WhatsAppCheckJID(ctx, userID)
		if err != nil {
			continue
		}
		jidList = append(jidList, parsed)
	}

	result, err := client.UpdateGroupRequestParticipants(ctx, groupJID, jidList, change)
	if err != nil {
		return nil, err
	}
	invalidateGroupCache()
	return result, nil
}

// WhatsAppUpdateGroupSettings applies the non-nil settings in order and
// stops on the first failure.
func WhatsAppUpdateGroupSettings(ctx context.Context, groupID string, announce *bool, locked *bool, memberAddMode string, joinApproval *bool) error {
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

	groupJID, err := WhatsAppCheckJID(ctx, groupID)
	if err != nil {
		return err
	}
	if groupJID.Server != types.GroupServer {
		return ErrInvalidGroupID
	}

	if announce != nil {
		if err := client.SetGroupAnnounce(ctx, groupJID, *announce); err != nil {
			return err
		}
	}

	if locked != nil {
		if err := client.SetGroupLocked(ctx, groupJID, *locked); err != nil {
			return err
		}
	}

	if memberAddMode != "" {
		var mode types.GroupMemberAddMode
		switch memberAddMode {
		case "all", "all_members":
			mode = types.GroupMemberAddModeAllMember
		case "admin_only":
			mode = types.GroupMemberAddModeAdmin
		default:
			return fmt.Errorf("invalid member_add_mode: %s", memberAddMode)
		}
		if err := client.SetGroupMemberAddMode(ctx, groupJID, mode); err != nil {
			return err
		}
	}

	if joinApproval != nil {
		if err := client.SetGroupJoinApprovalMode(ctx, groupJID, *joinApproval); err != nil {
			return err
		}
	}

	invalidateGroupCache()
	return nil
}

func invalidateGroupCache() {
	groupCache.Delete(joinedGroupsCacheKey)
}
