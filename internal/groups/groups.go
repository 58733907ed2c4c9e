package groups

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	typWhatsApp "github.com/gdbrns/go-whatsapp-crm-gateway/internal/types"
	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/log"
	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/router"
	pkgWhatsApp "github.com/gdbrns/go-whatsapp-crm-gateway/pkg/whatsapp"
)

func List(c *fiber.Ctx) error {
	startTotal := time.Now()

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	withMembers := c.QueryBool("members", true)

	log.GroupOp(c, "ListGroups", "").WithField("members", withMembers).Info("Listing groups")

	if !withMembers {
		groups, err := pkgWhatsApp.WhatsAppGroupGet(ctx)
		if err != nil {
			log.GroupOp(c, "ListGroups", "").WithError(err).Error("Failed to list groups")
			return router.ResponseInternalError(c, err.Error())
		}
		return router.ResponseSuccessWithData(c, fmt.Sprintf("Success get %d groups", len(groups)), groups)
	}

	startFetch := time.Now()
	groups, err := pkgWhatsApp.WhatsAppGroupList(ctx)
	fetchDuration := time.Since(startFetch)

	if err != nil {
		log.GroupOp(c, "ListGroups", "").WithError(err).Error("Failed to list groups")
		return router.ResponseInternalError(c, err.Error())
	}

	groupCount := 0
	if groups != nil {
		groupCount = len(groups)
	}

	log.GroupOp(c, "ListGroups", "").WithField("group_count", groupCount).WithField("fetch_duration_ms", fetchDuration.Milliseconds()).WithField("total_duration_ms", time.Since(startTotal).Milliseconds()).Info("Groups listed successfully")

	return router.ResponseSuccessWithData(c, fmt.Sprintf("Success get %d groups with members", groupCount), groups)
}

func GetInfo(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	groupJID := c.Params("group_jid")

	log.GroupOp(c, "GetGroupInfo", groupJID).Info("Getting group info")

	// Pass groupJID directly - WhatsAppGroupInfo handles JID parsing internally
	groupInfo, err := pkgWhatsApp.WhatsAppGroupInfo(ctx, groupJID)
	if err != nil {
		log.GroupOp(c, "GetGroupInfo", groupJID).WithError(err).Error("Failed to get group info")
		return router.ResponseInternalError(c, err.Error())
	}

	log.GroupOp(c, "GetGroupInfo", groupJID).Info("Group info retrieved successfully")

	return router.ResponseSuccessWithData(c, "Success get group info", groupInfo)
}

func Create(c *fiber.Ctx) error {
	var reqCreate typWhatsApp.RequestCreateGroup
	err := c.BodyParser(&reqCreate)
	if err != nil {
		log.GroupOp(c, "CreateGroup", "").Warn("Failed to parse body request")
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	if reqCreate.Name == "" {
		return router.ResponseBadRequest(c, "name is required")
	}

	log.GroupOp(c, "CreateGroup", "").WithField("name", reqCreate.Name).WithField("participants", len(reqCreate.Participants)).Info("Creating group")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	// Plain creation validates every participant strictly; the enhanced path
	// skips invalid ones so the optional description/photo still get applied.
	var groupInfo interface{}
	if reqCreate.Description == "" && reqCreate.Photo == "" {
		groupInfo, err = pkgWhatsApp.WhatsAppGroupCreate(ctx, reqCreate.Name, reqCreate.Participants)
	} else {
		groupInfo, err = pkgWhatsApp.WhatsAppCreateGroupEnhanced(ctx, reqCreate.Name, reqCreate.Participants, reqCreate.Description, reqCreate.Photo)
	}
	if err != nil {
		log.GroupOp(c, "CreateGroup", "").WithField("name", reqCreate.Name).WithError(err).Error("Failed to create group")
		return router.ResponseInternalError(c, err.Error())
	}

	log.GroupOp(c, "CreateGroup", "").WithField("name", reqCreate.Name).Info("Group created successfully")

	return router.ResponseSuccessWithData(c, "Success create group", groupInfo)
}

func Join(c *fiber.Ctx) error {
	var req struct {
		Link string `json:"link"`
	}
	err := c.BodyParser(&req)
	if err != nil {
		log.GroupOp(c, "JoinGroup", "").Warn("Failed to parse body request")
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	if req.Link == "" {
		return router.ResponseBadRequest(c, "link is required")
	}

	log.GroupOp(c, "JoinGroup", "").Info("Joining group with link")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	groupID, err := pkgWhatsApp.WhatsAppGroupJoin(ctx, req.Link)
	if err != nil {
		log.GroupOp(c, "JoinGroup", "").WithError(err).Error("Failed to join group")
		return router.ResponseInternalError(c, err.Error())
	}

	log.GroupOp(c, "JoinGroup", groupID).Info("Joined group successfully")

	return router.ResponseSuccessWithData(c, "Success join group", map[string]interface{}{"group_jid": groupID})
}

func Leave(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	groupJID := c.Params("group_jid")

	log.GroupOp(c, "LeaveGroup", groupJID).Info("Leaving group")

	// Pass groupJID directly - WhatsAppGroupLeave handles JID parsing internally
	err := pkgWhatsApp.WhatsAppGroupLeave(ctx, groupJID)
	if err != nil {
		log.GroupOp(c, "LeaveGroup", groupJID).WithError(err).Error("Failed to leave group")
		return router.ResponseInternalError(c, err.Error())
	}

	log.GroupOp(c, "LeaveGroup", groupJID).Info("Left group successfully")

	return router.ResponseSuccess(c, "Success leave group")
}

func UpdateName(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	groupJID := c.Params("group_jid")

	var req struct {
		Name string `json:"name"`
	}
	err := c.BodyParser(&req)
	if err != nil {
		log.GroupOp(c, "UpdateGroupName", groupJID).Warn("Failed to parse body request")
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	log.GroupOp(c, "UpdateGroupName", groupJID).WithField("new_name", req.Name).Info("Updating group name")

	err = pkgWhatsApp.WhatsAppGroupSetName(ctx, groupJID, req.Name)
	if err != nil {
		log.GroupOp(c, "UpdateGroupName", groupJID).WithError(err).Error("Failed to update group name")
		return router.ResponseInternalError(c, err.Error())
	}

	log.GroupOp(c, "UpdateGroupName", groupJID).WithField("new_name", req.Name).Info("Group name updated successfully")

	return router.ResponseSuccess(c, "Success update group name")
}

func UpdateDescription(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	groupJID := c.Params("group_jid")

	var req struct {
		Description string `json:"description"`
	}
	err := c.BodyParser(&req)
	if err != nil {
		log.GroupOp(c, "UpdateGroupDescription", groupJID).Warn("Failed to parse body request")
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	log.GroupOp(c, "UpdateGroupDescription", groupJID).Info("Updating group description")

	err = pkgWhatsApp.WhatsAppGroupSetDescription(ctx, groupJID, req.Description)
	if err != nil {
		log.GroupOp(c, "UpdateGroupDescription", groupJID).WithError(err).Error("Failed to update group description")
		return router.ResponseInternalError(c, err.Error())
	}

	log.GroupOp(c, "UpdateGroupDescription", groupJID).Info("Group description updated successfully")

	return router.ResponseSuccess(c, "Success update group description")
}

func UpdatePhoto(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	groupJID := c.Params("group_jid")

	log.GroupOp(c, "UpdateGroupPhoto", groupJID).Info("Updating group photo")

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		log.GroupOp(c, "UpdateGroupPhoto", groupJID).Warn("No photo provided")
		return router.ResponseBadRequest(c, "photo is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.GroupOp(c, "UpdateGroupPhoto", groupJID).WithError(err).Error("Failed to open photo file")
		return router.ResponseInternalError(c, err.Error())
	}
	defer file.Close()

	photoBytes := make([]byte, fileHeader.Size)
	if _, err := file.Read(photoBytes); err != nil {
		log.GroupOp(c, "UpdateGroupPhoto", groupJID).WithError(err).Error("Failed to read photo file")
		return router.ResponseInternalError(c, err.Error())
	}

	pictureID, err := pkgWhatsApp.WhatsAppGroupSetPhoto(ctx, groupJID, photoBytes)
	if err != nil {
		log.GroupOp(c, "UpdateGroupPhoto", groupJID).WithError(err).Error("Failed to update group photo")
		return router.ResponseInternalError(c, err.Error())
	}

	log.GroupOp(c, "UpdateGroupPhoto", groupJID).Info("Group photo updated successfully")

	return router.ResponseSuccessWithData(c, "Success update group photo", map[string]interface{}{"picture_id": pictureID})
}

func GetInviteLink(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	groupJID := c.Params("group_jid")

	reset := c.QueryBool("reset", false)

	log.GroupOp(c, "GetInviteLink", groupJID).WithField("reset", reset).Info("Getting group invite link")

	// Pass groupJID directly - WhatsAppGroupInviteLink handles JID parsing internally
	inviteLink, err := pkgWhatsApp.WhatsAppGroupInviteLink(ctx, groupJID, reset)
	if err != nil {
		log.GroupOp(c, "GetInviteLink", groupJID).WithError(err).Error("Failed to get invite link")
		return router.ResponseInternalError(c, err.Error())
	}

	log.GroupOp(c, "GetInviteLink", groupJID).WithField("reset", reset).Info("Invite link retrieved successfully")

	return router.ResponseSuccessWithData(c, "Success get invite link", map[string]interface{}{"link": inviteLink})
}

func UpdateSettings(c *fiber.Ctx) error {
	groupJID := c.Params("group_jid")

	var req typWhatsApp.RequestUpdateGroupSettings
	err := c.BodyParser(&req)
	if err != nil {
		log.GroupOp(c, "UpdateSettings", groupJID).Warn("Failed to parse body request")
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	log.GroupOp(c, "UpdateSettings", groupJID).Info("Updating group settings")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	err = pkgWhatsApp.WhatsAppUpdateGroupSettings(ctx, groupJID, req.Announce, req.Locked, req.MemberAddMode, req.JoinApproval)
	if err != nil {
		log.GroupOp(c, "UpdateSettings", groupJID).WithError(err).Error("Failed to update group settings")
		return router.ResponseInternalError(c, err.Error())
	}

	log.GroupOp(c, "UpdateSettings", groupJID).Info("Group settings updated successfully")

	return router.ResponseSuccess(c, "Success update group settings")
}

func SetAnnounce(c *fiber.Ctx) error {
	groupJID := c.Params("group_jid")

	var req struct {
		Announce bool `json:"announce"`
	}
	err := c.BodyParser(&req)
	if err != nil {
		log.GroupOp(c, "SetAnnounce", groupJID).Warn("Failed to parse body request")
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	log.GroupOp(c, "SetAnnounce", groupJID).WithField("announce", req.Announce).Info("Setting announce mode")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	err = pkgWhatsApp.WhatsAppGroupSetAnnounce(ctx, groupJID, req.Announce)
	if err != nil {
		log.GroupOp(c, "SetAnnounce", groupJID).WithError(err).Error("Failed to set announce mode")
		return router.ResponseInternalError(c, err.Error())
	}

	log.GroupOp(c, "SetAnnounce", groupJID).WithField("announce", req.Announce).Info("Announce mode set successfully")

	return router.ResponseSuccess(c, "Success set announce mode")
}

func SetLocked(c *fiber.Ctx) error {
	groupJID := c.Params("group_jid")

	var req struct {
		Locked bool `json:"locked"`
	}
	err := c.BodyParser(&req)
	if err != nil {
		log.GroupOp(c, "SetLocked", groupJID).Warn("Failed to parse body request")
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	log.GroupOp(c, "SetLocked", groupJID).WithField("locked", req.Locked).Info("Setting locked mode")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	err = pkgWhatsApp.WhatsAppGroupSetLocked(ctx, groupJID, req.Locked)
	if err != nil {
		log.GroupOp(c, "SetLocked", groupJID).WithError(err).Error("Failed to set locked mode")
		return router.ResponseInternalError(c, err.Error())
	}

	log.GroupOp(c, "SetLocked", groupJID).WithField("locked", req.Locked).Info("Locked mode set successfully")

	return router.ResponseSuccess(c, "Success set locked mode")
}

func GetParticipantRequests(c *fiber.Ctx) error {
	groupJID := c.Params("group_jid")

	log.GroupOp(c, "GetParticipantRequests", groupJID).Info("Getting participant requests")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	requests, err := pkgWhatsApp.WhatsAppGroupGetRequestParticipants(ctx, groupJID)
	if err != nil {
		log.GroupOp(c, "GetParticipantRequests", groupJID).WithError(err).Error("Failed to get participant requests")
		return router.ResponseInternalError(c, err.Error())
	}

	requestCount := 0
	if requests != nil {
		requestCount = len(requests)
	}

	log.GroupOp(c, "GetParticipantRequests", groupJID).WithField("request_count", requestCount).Info("Participant requests retrieved successfully")

	return router.ResponseSuccessWithData(c, "Success get participant requests", requests)
}

func SetJoinApproval(c *fiber.Ctx) error {
	groupJID := c.Params("group_jid")

	var req struct {
		Mode bool `json:"mode"`
	}
	err := c.BodyParser(&req)
	if err != nil {
		log.GroupOp(c, "SetJoinApproval", groupJID).Warn("Failed to parse body request")
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	log.GroupOp(c, "SetJoinApproval", groupJID).WithField("mode", req.Mode).Info("Setting join approval mode")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	err = pkgWhatsApp.WhatsAppGroupSetJoinApprovalMode(ctx, groupJID, req.Mode)
	if err != nil {
		log.GroupOp(c, "SetJoinApproval", groupJID).WithError(err).Error("Failed to set join approval mode")
		return router.ResponseInternalError(c, err.Error())
	}

	log.GroupOp(c, "SetJoinApproval", groupJID).WithField("mode", req.Mode).Info("Join approval mode set successfully")

	return router.ResponseSuccess(c, "Success set join approval mode")
}

// GetInfoFromLink previews a group from its invite link code without joining
func GetInfoFromLink(c *fiber.Ctx) error {
	code := c.Query("code")
	if code == "" {
		return router.ResponseBadRequest(c, "code is required")
	}

	log.GroupOp(c, "GetInfoFromLink", "").Info("Getting group info from link")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	groupInfo, err := pkgWhatsApp.WhatsAppGroupGetInfoFromLink(ctx, code)
	if err != nil {
		log.GroupOp(c, "GetInfoFromLink", "").WithError(err).Error("Failed to get group info from link")
		return router.ResponseInternalError(c, err.Error())
	}

	log.GroupOp(c, "GetInfoFromLink", "").Info("Group info from link retrieved successfully")

	return router.ResponseSuccessWithData(c, "Success get group info", groupInfo)
}

// GetInfoFromInvite previews a group from a direct invite before accepting it
func GetInfoFromInvite(c *fiber.Ctx) error {
	groupJID := c.Params("group_jid")

	inviter := c.Query("inviter")
	code := c.Query("code")
	expiration := int64(c.QueryInt("expiration", 0))

	if code == "" {
		return router.ResponseBadRequest(c, "code is required")
	}

	log.GroupOp(c, "GetInfoFromInvite", groupJID).WithField("invite_code", code).Info("Getting group info from invite")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	groupInfo, err := pkgWhatsApp.WhatsAppGroupGetInfoFromInvite(ctx, groupJID, inviter, code, expiration)
	if err != nil {
		log.GroupOp(c, "GetInfoFromInvite", groupJID).WithField("invite_code", code).WithError(err).Error("Failed to get group info from invite")
		return router.ResponseInternalError(c, err.Error())
	}

	log.GroupOp(c, "GetInfoFromInvite", groupJID).WithField("invite_code", code).Info("Group info from invite retrieved successfully")

	return router.ResponseSuccessWithData(c, "Success get group info", groupInfo)
}

func JoinWithInvite(c *fiber.Ctx) error {
	groupJID := c.Params("group_jid")

	var req typWhatsApp.RequestJoinGroupInvite
	err := c.BodyParser(&req)
	if err != nil {
		log.GroupOp(c, "JoinWithInvite", groupJID).Warn("Failed to parse body request")
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	log.GroupOp(c, "JoinWithInvite", groupJID).WithField("invite_code", req.InviteCode).Info("Joining group with invite")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	// Pass groupJID directly - WhatsAppGroupJoinWithInvite handles JID parsing internally
	err = pkgWhatsApp.WhatsAppGroupJoinWithInvite(ctx, groupJID, req.Inviter, req.InviteCode, req.Expiration)
	if err != nil {
		log.GroupOp(c, "JoinWithInvite", groupJID).WithError(err).Error("Failed to join group with invite")
		return router.ResponseInternalError(c, err.Error())
	}

	log.GroupOp(c, "JoinWithInvite", groupJID).Info("Joined group with invite successfully")

	return router.ResponseSuccess(c, "Success join group with invite")
}

func SetMemberAddMode(c *fiber.Ctx) error {
	groupJID := c.Params("group_jid")

	var req struct {
		Mode string `json:"mode"`
	}
	err := c.BodyParser(&req)
	if err != nil {
		log.GroupOp(c, "SetMemberAddMode", groupJID).Warn("Failed to parse body request")
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	log.GroupOp(c, "SetMemberAddMode", groupJID).WithField("mode", req.Mode).Info("Setting member add mode")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	err = pkgWhatsApp.WhatsAppGroupSetMemberAddMode(ctx, groupJID, req.Mode)
	if err != nil {
		log.GroupOp(c, "SetMemberAddMode", groupJID).WithError(err).Error("Failed to set member add mode")
		return router.ResponseInternalError(c, err.Error())
	}

	log.GroupOp(c, "SetMemberAddMode", groupJID).WithField("mode", req.Mode).Info("Member add mode set successfully")

	return router.ResponseSuccess(c, "Success set member add mode")
}

func SetTopic(c *fiber.Ctx) error {
	groupJID := c.Params("group_jid")

	var req typWhatsApp.RequestSetGroupTopic
	err := c.BodyParser(&req)
	if err != nil {
		log.GroupOp(c, "SetTopic", groupJID).Warn("Failed to parse body request")
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	log.GroupOp(c, "SetTopic", groupJID).WithField("topic", req.Topic).Info("Setting group topic")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	err = pkgWhatsApp.WhatsAppGroupSetTopic(ctx, groupJID, req.PreviousID, req.NewID, req.Topic)
	if err != nil {
		log.GroupOp(c, "SetTopic", groupJID).WithError(err).Error("Failed to set group topic")
		return router.ResponseInternalError(c, err.Error())
	}

	log.GroupOp(c, "SetTopic", groupJID).Info("Group topic set successfully")

	return router.ResponseSuccess(c, "Success set group topic")
}

func LinkGroup(c *fiber.Ctx) error {
	parentGroupJID := c.Params("parent_group_jid")
	childGroupJID := c.Params("group_jid")

	log.GroupOp(c, "LinkGroup", parentGroupJID).WithField("child_group", childGroupJID).Info("Linking groups")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	err := pkgWhatsApp.WhatsAppGroupLink(ctx, parentGroupJID, childGroupJID)
	if err != nil {
		log.GroupOp(c, "LinkGroup", parentGroupJID).WithField("child_group", childGroupJID).WithError(err).Error("Failed to link groups")
		return router.ResponseInternalError(c, err.Error())
	}

	log.GroupOp(c, "LinkGroup", parentGroupJID).WithField("child_group", childGroupJID).Info("Groups linked successfully")

	return router.ResponseSuccess(c, "Success link groups")
}

// UnlinkGroup unlinks a subgroup from a community/parent group
func UnlinkGroup(c *fiber.Ctx) error {
	parentJID := c.Params("parent_group_jid")
	childJID := c.Params("group_jid")

	log.GroupOp(c, "UnlinkGroup", parentJID).
		WithField("child_jid", childJID).
		Info("Unlinking subgroup from community")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	err := pkgWhatsApp.WhatsAppUnlinkGroup(ctx, parentJID, childJID)
	if err != nil {
		log.GroupOp(c, "UnlinkGroup", parentJID).
			WithField("child_jid", childJID).
			WithError(err).
			Error("Failed to unlink subgroup")
		return router.ResponseInternalError(c, err.Error())
	}

	log.GroupOp(c, "UnlinkGroup", parentJID).
		WithField("child_jid", childJID).
		Info("Subgroup unlinked successfully")

	return router.ResponseSuccess(c, "Success unlink subgroup from community")
}

func GetLinkedParticipants(c *fiber.Ctx) error {
	communityJID := c.Params("community_jid")

	log.GroupOp(c, "GetLinkedParticipants", communityJID).Info("Getting linked participants")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	participants, err := pkgWhatsApp.WhatsAppGroupGetLinkedParticipants(ctx, communityJID)
	if err != nil {
		log.GroupOp(c, "GetLinkedParticipants", communityJID).WithError(err).Error("Failed to get linked participants")
		return router.ResponseInternalError(c, err.Error())
	}

	participantCount := 0
	if participants != nil {
		participantCount = len(participants)
	}

	log.GroupOp(c, "GetLinkedParticipants", communityJID).WithField("participant_count", participantCount).Info("Linked participants retrieved successfully")

	return router.ResponseSuccessWithData(c, "Success get linked participants", participants)
}

func GetSubGroups(c *fiber.Ctx) error {
	communityJID := c.Params("community_jid")

	log.GroupOp(c, "GetSubGroups", communityJID).Info("Getting sub groups")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	subGroups, err := pkgWhatsApp.WhatsAppGroupGetSubGroups(ctx, communityJID)
	if err != nil {
		log.GroupOp(c, "GetSubGroups", communityJID).WithError(err).Error("Failed to get sub groups")
		return router.ResponseInternalError(c, err.Error())
	}

	subGroupCount := 0
	if subGroups != nil {
		subGroupCount = len(subGroups)
	}

	log.GroupOp(c, "GetSubGroups", communityJID).WithField("sub_group_count", subGroupCount).Info("Sub groups retrieved successfully")

	return router.ResponseSuccessWithData(c, "Success get sub groups", subGroups)
}

func AddParticipants(c *fiber.Ctx) error {
	groupJID := c.Params("group_jid")

	var req typWhatsApp.RequestGroupParticipants
	err := c.BodyParser(&req)
	if err != nil {
		log.GroupOp(c, "AddParticipants", groupJID).Warn("Failed to parse body request")
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	log.GroupOp(c, "AddParticipants", groupJID).WithField("participant_count", len(req.Participants)).Info("Adding participants to group")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	participants, err := pkgWhatsApp.WhatsAppAddParticipants(ctx, groupJID, req.Participants)
	if err != nil {
		log.GroupOp(c, "AddParticipants", groupJID).WithError(err).Error("Failed to add participants")
		return router.ResponseInternalError(c, err.Error())
	}

	log.GroupOp(c, "AddParticipants", groupJID).WithField("participant_count", len(req.Participants)).Info("Participants added successfully")

	return router.ResponseSuccessWithData(c, "Success add participants", participants)
}

func RemoveParticipants(c *fiber.Ctx) error {
	groupJID := c.Params("group_jid")

	var req typWhatsApp.RequestGroupParticipants
	err := c.BodyParser(&req)
	if err != nil {
		log.GroupOp(c, "RemoveParticipants", groupJID).Warn("Failed to parse body request")
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	log.GroupOp(c, "RemoveParticipants", groupJID).WithField("participant_count", len(req.Participants)).Info("Removing participants from group")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	participants, err := pkgWhatsApp.WhatsAppRemoveParticipants(ctx, groupJID, req.Participants)
	if err != nil {
		log.GroupOp(c, "RemoveParticipants", groupJID).WithError(err).Error("Failed to remove participants")
		return router.ResponseInternalError(c, err.Error())
	}

	log.GroupOp(c, "RemoveParticipants", groupJID).WithField("participant_count", len(req.Participants)).Info("Participants removed successfully")

	return router.ResponseSuccessWithData(c, "Success remove participants", participants)
}

func ApproveRequests(c *fiber.Ctx) error {
	groupJID := c.Params("group_jid")

	var req struct {
		Users []string `json:"users"`
	}
	err := c.BodyParser(&req)
	if err != nil {
		log.GroupOp(c, "ApproveRequests", groupJID).Warn("Failed to parse body request")
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	log.GroupOp(c, "ApproveRequests", groupJID).WithField("user_count", len(req.Users)).Info("Approving join requests")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	participants, err := pkgWhatsApp.WhatsAppApproveJoinRequests(ctx, groupJID, req.Users)
	if err != nil {
		log.GroupOp(c, "ApproveRequests", groupJID).WithError(err).Error("Failed to approve join requests")
		return router.ResponseInternalError(c, err.Error())
	}

	log.GroupOp(c, "ApproveRequests", groupJID).WithField("user_count", len(req.Users)).Info("Join requests approved successfully")

	return router.ResponseSuccessWithData(c, "Success approve join requests", participants)
}

func RejectRequests(c *fiber.Ctx) error {
	groupJID := c.Params("group_jid")

	var req struct {
		Users []string `json:"users"`
	}
	err := c.BodyParser(&req)
	if err != nil {
		log.GroupOp(c, "RejectRequests", groupJID).Warn("Failed to parse body request")
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	log.GroupOp(c, "RejectRequests", groupJID).WithField("user_count", len(req.Users)).Info("Rejecting join requests")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	participants, err := pkgWhatsApp.WhatsAppRejectJoinRequests(ctx, groupJID, req.Users)
	if err != nil {
		log.GroupOp(c, "RejectRequests", groupJID).WithError(err).Error("Failed to reject join requests")
		return router.ResponseInternalError(c, err.Error())
	}

	log.GroupOp(c, "RejectRequests", groupJID).WithField("user_count", len(req.Users)).Info("Join requests rejected successfully")

	return router.ResponseSuccessWithData(c, "Success reject join requests", participants)
}

func PromoteAdmins(c *fiber.Ctx) error {
	groupJID := c.Params("group_jid")

	var req struct {
		Users []string `json:"users"`
	}
	err := c.BodyParser(&req)
	if err != nil {
		log.GroupOp(c, "PromoteAdmins", groupJID).Warn("Failed to parse body request")
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	log.GroupOp(c, "PromoteAdmins", groupJID).WithField("user_count", len(req.Users)).Info("Promoting users to admin")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	participants, err := pkgWhatsApp.WhatsAppPromoteAdmins(ctx, groupJID, req.Users)
	if err != nil {
		log.GroupOp(c, "PromoteAdmins", groupJID).WithError(err).Error("Failed to promote admins")
		return router.ResponseInternalError(c, err.Error())
	}

	log.GroupOp(c, "PromoteAdmins", groupJID).WithField("user_count", len(req.Users)).Info("Users promoted to admin successfully")

	return router.ResponseSuccessWithData(c, "Success promote admins", participants)
}

func DemoteAdmins(c *fiber.Ctx) error {
	groupJID := c.Params("group_jid")

	var req struct {
		Users []string `json:"users"`
	}
	err := c.BodyParser(&req)
	if err != nil {
		log.GroupOp(c, "DemoteAdmins", groupJID).Warn("Failed to parse body request")
		return router.ResponseBadRequest(c, "Failed parse body request")
	}

	log.GroupOp(c, "DemoteAdmins", groupJID).WithField("user_count", len(req.Users)).Info("Demoting admins")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	participants, err := pkgWhatsApp.WhatsAppDemoteAdmins(ctx, groupJID, req.Users)
	if err != nil {
		log.GroupOp(c, "DemoteAdmins", groupJID).WithError(err).Error("Failed to demote admins")
		return router.ResponseInternalError(c, err.Error())
	}

	log.GroupOp(c, "DemoteAdmins", groupJID).WithField("user_count", len(req.Users)).Info("Admins demoted successfully")

	return router.ResponseSuccessWithData(c, "Success demote admins", participants)
}
