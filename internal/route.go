package internal

import (
	"github.com/gofiber/fiber/v2"
	swagger "github.com/gofiber/swagger"

	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/auth"
	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/router"

	ctlAdmin "github.com/gdbrns/go-whatsapp-crm-gateway/internal/admin"
	ctlAppState "github.com/gdbrns/go-whatsapp-crm-gateway/internal/appstate"
	ctlAuth "github.com/gdbrns/go-whatsapp-crm-gateway/internal/auth"
	ctlBot "github.com/gdbrns/go-whatsapp-crm-gateway/internal/bot"
	ctlBusiness "github.com/gdbrns/go-whatsapp-crm-gateway/internal/business"
	ctlCall "github.com/gdbrns/go-whatsapp-crm-gateway/internal/call"
	ctlGroups "github.com/gdbrns/go-whatsapp-crm-gateway/internal/groups"
	ctlHistory "github.com/gdbrns/go-whatsapp-crm-gateway/internal/history"
	ctlIndex "github.com/gdbrns/go-whatsapp-crm-gateway/internal/index"
	ctlMessage "github.com/gdbrns/go-whatsapp-crm-gateway/internal/message"
	ctlMessaging "github.com/gdbrns/go-whatsapp-crm-gateway/internal/messaging"
	ctlNewsletter "github.com/gdbrns/go-whatsapp-crm-gateway/internal/newsletter"
	ctlPoll "github.com/gdbrns/go-whatsapp-crm-gateway/internal/poll"
	ctlPresence "github.com/gdbrns/go-whatsapp-crm-gateway/internal/presence"
	ctlSession "github.com/gdbrns/go-whatsapp-crm-gateway/internal/session"
	ctlStatus "github.com/gdbrns/go-whatsapp-crm-gateway/internal/status"
	ctlUser "github.com/gdbrns/go-whatsapp-crm-gateway/internal/user"
	ctlWebhooks "github.com/gdbrns/go-whatsapp-crm-gateway/internal/webhooks"
)

func Routes(app *fiber.App) {
	// Configure OpenAPI / Swagger
	specURL := router.BaseURL + "/docs/swagger.json"
	swaggerHandler := swagger.New(swagger.Config{
		URL: specURL,
	})

	// Route for Index
	// ---------------------------------------------
	if router.BaseURL == "" {
		app.Get("/", ctlIndex.Index)
	} else {
		app.Get(router.BaseURL, ctlIndex.Index)
		app.Get(router.BaseURL+"/", ctlIndex.Index)
	}
	app.Get(router.BaseURL+"/health", ctlIndex.Health)

	// Route for OpenAPI / Swagger
	// ---------------------------------------------
	app.Get(router.BaseURL+"/docs/swagger.json", func(c *fiber.Ctx) error {
		return c.SendFile("docs/swagger.json")
	})
	app.Get(router.BaseURL+"/docs/*", swaggerHandler)

	// ============================================================
	// TOKEN REFRESH (No auth - uses token credentials in body)
	// ============================================================
	app.Post(router.BaseURL+"/tokens/refresh", ctlAuth.RefreshToken)

	// ============================================================
	// ADMIN ROUTES (X-Admin-Secret authentication)
	// ============================================================
	adminMiddleware := auth.AdminAuth()

	// Gateway token management
	app.Post(router.BaseURL+"/admin/tokens", adminMiddleware, ctlAdmin.CreateToken)
	app.Get(router.BaseURL+"/admin/tokens", adminMiddleware, ctlAdmin.ListTokens)
	app.Get(router.BaseURL+"/admin/tokens/:id", adminMiddleware, ctlAdmin.GetToken)
	app.Put(router.BaseURL+"/admin/tokens/:id", adminMiddleware, ctlAdmin.UpdateToken)
	app.Delete(router.BaseURL+"/admin/tokens/:id", adminMiddleware, ctlAdmin.DeleteToken)
	app.Post(router.BaseURL+"/admin/tokens/:id/regenerate", adminMiddleware, ctlAdmin.RegenerateTokenSecret)

	// WhatsApp web version administration
	app.Get(router.BaseURL+"/admin/version", adminMiddleware, ctlAdmin.GetWAVersion)
	app.Post(router.BaseURL+"/admin/version/refresh", adminMiddleware, ctlAdmin.RefreshWAVersion)

	// ============================================================
	// GATEWAY OPERATIONS (JWT Bearer token authentication)
	// All WhatsApp operations require a valid gateway token
	// ============================================================
	tokenMiddleware := auth.TokenAuth()

	// Session lifecycle
	app.Post(router.BaseURL+"/session/login", tokenMiddleware, ctlSession.Login)
	app.Post(router.BaseURL+"/session/login/pair", tokenMiddleware, ctlSession.LoginWithCode)
	app.Post(router.BaseURL+"/session/reconnect", tokenMiddleware, ctlSession.Reconnect)
	app.Post(router.BaseURL+"/session/logout", tokenMiddleware, ctlSession.Logout)
	app.Get(router.BaseURL+"/session/status", tokenMiddleware, ctlSession.GetStatus)

	// Chat/Messaging routes
	app.Post(router.BaseURL+"/chats/:chat_jid/messages/text", tokenMiddleware, ctlMessaging.SendText)
	app.Post(router.BaseURL+"/chats/:chat_jid/messages/image", tokenMiddleware, ctlMessaging.SendImage)
	app.Post(router.BaseURL+"/chats/:chat_jid/messages/video", tokenMiddleware, ctlMessaging.SendVideo)
	app.Post(router.BaseURL+"/chats/:chat_jid/messages/audio", tokenMiddleware, ctlMessaging.SendAudio)
	app.Post(router.BaseURL+"/chats/:chat_jid/messages/document", tokenMiddleware, ctlMessaging.SendDocument)
	app.Post(router.BaseURL+"/chats/:chat_jid/messages/sticker", tokenMiddleware, ctlMessaging.SendSticker)
	app.Post(router.BaseURL+"/chats/:chat_jid/messages/location", tokenMiddleware, ctlMessaging.SendLocation)
	app.Post(router.BaseURL+"/chats/:chat_jid/messages/contact", tokenMiddleware, ctlMessaging.SendContact)
	app.Post(router.BaseURL+"/chats/:chat_jid/messages/link", tokenMiddleware, ctlMessaging.SendLink)
	app.Get(router.BaseURL+"/chats/:chat_jid/messages", tokenMiddleware, ctlMessaging.GetMessages)
	app.Post(router.BaseURL+"/chats/:chat_jid/archive", tokenMiddleware, ctlMessaging.ArchiveChat)
	app.Post(router.BaseURL+"/chats/:chat_jid/pin", tokenMiddleware, ctlMessaging.PinChat)
	app.Post(router.BaseURL+"/chats/:chat_jid/mute", tokenMiddleware, ctlMessaging.MuteChat)
	app.Post(router.BaseURL+"/chats/:chat_jid/disappearing", tokenMiddleware, ctlPresence.SetDisappearingTimer)
	app.Post(router.BaseURL+"/chats/:chat_jid/presence", tokenMiddleware, ctlPresence.SendChatPresence)

	// Message routes
	app.Post(router.BaseURL+"/chats/:chat_jid/messages/:message_id/read", tokenMiddleware, ctlMessage.MarkRead)
	app.Post(router.BaseURL+"/chats/:chat_jid/messages/:message_id/react", tokenMiddleware, ctlMessage.React)
	app.Patch(router.BaseURL+"/chats/:chat_jid/messages/:message_id", tokenMiddleware, ctlMessage.Edit)
	app.Delete(router.BaseURL+"/chats/:chat_jid/messages/:message_id", tokenMiddleware, ctlMessage.Delete)
	app.Post(router.BaseURL+"/chats/:chat_jid/messages/:message_id/reply", tokenMiddleware, ctlMessage.Reply)
	app.Post(router.BaseURL+"/chats/:chat_jid/messages/:message_id/forward", tokenMiddleware, ctlMessage.Forward)
	app.Get(router.BaseURL+"/chats/:chat_jid/messages/:message_id/download", tokenMiddleware, ctlMessage.Download)
	app.Get(router.BaseURL+"/chats/:chat_jid/messages/:message_id/thumbnail", tokenMiddleware, ctlMessage.Thumbnail)

	// Poll routes
	app.Post(router.BaseURL+"/chats/:chat_jid/polls", tokenMiddleware, ctlPoll.CreatePoll)
	app.Post(router.BaseURL+"/polls/:poll_id/vote", tokenMiddleware, ctlPoll.VotePoll)
	app.Get(router.BaseURL+"/polls/:poll_id/results", tokenMiddleware, ctlPoll.GetPollResults)
	app.Delete(router.BaseURL+"/polls/:poll_id", tokenMiddleware, ctlPoll.DeletePoll)

	// User routes (static paths before :user_jid)
	app.Get(router.BaseURL+"/users/check/:phone", tokenMiddleware, ctlUser.CheckRegistered)
	app.Get(router.BaseURL+"/users/privacy", tokenMiddleware, ctlUser.GetPrivacy)
	app.Patch(router.BaseURL+"/users/privacy", tokenMiddleware, ctlUser.UpdatePrivacy)
	app.Get(router.BaseURL+"/users/status-privacy", tokenMiddleware, ctlUser.GetStatusPrivacy)
	app.Post(router.BaseURL+"/users/status", tokenMiddleware, ctlUser.UpdateStatus)
	app.Get(router.BaseURL+"/users/:user_jid/info", tokenMiddleware, ctlUser.GetInfo)
	app.Get(router.BaseURL+"/users/:user_jid/picture", tokenMiddleware, ctlUser.GetProfilePicture)
	app.Get(router.BaseURL+"/users/:user_jid/devices", tokenMiddleware, ctlUser.GetDevices)
	app.Post(router.BaseURL+"/users/:user_jid/block", tokenMiddleware, ctlUser.BlockUser)
	app.Delete(router.BaseURL+"/users/:user_jid/block", tokenMiddleware, ctlUser.UnblockUser)

	// Group routes (static paths before :group_jid)
	app.Get(router.BaseURL+"/groups", tokenMiddleware, ctlGroups.List)
	app.Post(router.BaseURL+"/groups", tokenMiddleware, ctlGroups.Create)
	app.Post(router.BaseURL+"/groups/join", tokenMiddleware, ctlGroups.Join)
	app.Get(router.BaseURL+"/groups/invite-info", tokenMiddleware, ctlGroups.GetInfoFromLink)
	app.Get(router.BaseURL+"/groups/:group_jid", tokenMiddleware, ctlGroups.GetInfo)
	app.Post(router.BaseURL+"/groups/:group_jid/leave", tokenMiddleware, ctlGroups.Leave)
	app.Patch(router.BaseURL+"/groups/:group_jid/name", tokenMiddleware, ctlGroups.UpdateName)
	app.Patch(router.BaseURL+"/groups/:group_jid/description", tokenMiddleware, ctlGroups.UpdateDescription)
	app.Post(router.BaseURL+"/groups/:group_jid/photo", tokenMiddleware, ctlGroups.UpdatePhoto)
	app.Get(router.BaseURL+"/groups/:group_jid/invite-link", tokenMiddleware, ctlGroups.GetInviteLink)
	app.Patch(router.BaseURL+"/groups/:group_jid/settings", tokenMiddleware, ctlGroups.UpdateSettings)
	app.Post(router.BaseURL+"/groups/:group_jid/announce", tokenMiddleware, ctlGroups.SetAnnounce)
	app.Post(router.BaseURL+"/groups/:group_jid/locked", tokenMiddleware, ctlGroups.SetLocked)
	app.Get(router.BaseURL+"/groups/:group_jid/participant-requests", tokenMiddleware, ctlGroups.GetParticipantRequests)
	app.Post(router.BaseURL+"/groups/:group_jid/join-approval", tokenMiddleware, ctlGroups.SetJoinApproval)
	app.Get(router.BaseURL+"/groups/:group_jid/invite-info", tokenMiddleware, ctlGroups.GetInfoFromInvite)
	app.Post(router.BaseURL+"/groups/:group_jid/join-invite", tokenMiddleware, ctlGroups.JoinWithInvite)
	app.Patch(router.BaseURL+"/groups/:group_jid/member-add-mode", tokenMiddleware, ctlGroups.SetMemberAddMode)
	app.Patch(router.BaseURL+"/groups/:group_jid/topic", tokenMiddleware, ctlGroups.SetTopic)
	app.Post(router.BaseURL+"/groups/:parent_group_jid/link/:group_jid", tokenMiddleware, ctlGroups.LinkGroup)
	app.Delete(router.BaseURL+"/groups/:parent_group_jid/link/:group_jid", tokenMiddleware, ctlGroups.UnlinkGroup)
	app.Get(router.BaseURL+"/groups/:community_jid/linked-participants", tokenMiddleware, ctlGroups.GetLinkedParticipants)
	app.Get(router.BaseURL+"/groups/:community_jid/subgroups", tokenMiddleware, ctlGroups.GetSubGroups)
	app.Post(router.BaseURL+"/groups/:group_jid/participants", tokenMiddleware, ctlGroups.AddParticipants)
	app.Delete(router.BaseURL+"/groups/:group_jid/participants", tokenMiddleware, ctlGroups.RemoveParticipants)
	app.Post(router.BaseURL+"/groups/:group_jid/requests/approve", tokenMiddleware, ctlGroups.ApproveRequests)
	app.Post(router.BaseURL+"/groups/:group_jid/requests/reject", tokenMiddleware, ctlGroups.RejectRequests)
	app.Post(router.BaseURL+"/groups/:group_jid/admins", tokenMiddleware, ctlGroups.PromoteAdmins)
	app.Delete(router.BaseURL+"/groups/:group_jid/admins", tokenMiddleware, ctlGroups.DemoteAdmins)

	// Presence routes
	app.Post(router.BaseURL+"/presence/status", tokenMiddleware, ctlPresence.UpdateStatus)

	// App state routes
	app.Post(router.BaseURL+"/app-state", tokenMiddleware, ctlAppState.SendAppState)
	app.Post(router.BaseURL+"/app-state/mark-clean", tokenMiddleware, ctlAppState.MarkNotDirty)
	app.Get(router.BaseURL+"/app-state/:name", tokenMiddleware, ctlAppState.FetchAppState)

	// Status/Stories routes
	app.Post(router.BaseURL+"/status", tokenMiddleware, ctlStatus.PostStatus)
	app.Get(router.BaseURL+"/status", tokenMiddleware, ctlStatus.GetStatusUpdates)
	app.Delete(router.BaseURL+"/status/:status_id", tokenMiddleware, ctlStatus.DeleteStatus)
	app.Get(router.BaseURL+"/status/:user_jid", tokenMiddleware, ctlStatus.GetUserStatus)

	// Newsletter/Channel routes (static paths before :jid)
	app.Get(router.BaseURL+"/newsletters", tokenMiddleware, ctlNewsletter.ListNewsletters)
	app.Post(router.BaseURL+"/newsletters", tokenMiddleware, ctlNewsletter.CreateNewsletter)
	app.Get(router.BaseURL+"/newsletters/invite/:code", tokenMiddleware, ctlNewsletter.GetNewsletterInfoFromInvite)
	app.Post(router.BaseURL+"/newsletters/tos/accept", tokenMiddleware, ctlNewsletter.AcceptTOSNotice)
	app.Get(router.BaseURL+"/newsletters/:jid", tokenMiddleware, ctlNewsletter.GetNewsletterInfo)
	app.Post(router.BaseURL+"/newsletters/:jid/follow", tokenMiddleware, ctlNewsletter.FollowNewsletter)
	app.Delete(router.BaseURL+"/newsletters/:jid/follow", tokenMiddleware, ctlNewsletter.UnfollowNewsletter)
	app.Get(router.BaseURL+"/newsletters/:jid/messages", tokenMiddleware, ctlNewsletter.GetNewsletterMessages)
	app.Post(router.BaseURL+"/newsletters/:jid/messages", tokenMiddleware, ctlNewsletter.SendNewsletterMessage)
	app.Post(router.BaseURL+"/newsletters/:jid/reaction", tokenMiddleware, ctlNewsletter.ReactToNewsletterMessage)
	app.Post(router.BaseURL+"/newsletters/:jid/mute", tokenMiddleware, ctlNewsletter.ToggleNewsletterMute)
	app.Post(router.BaseURL+"/newsletters/:jid/viewed", tokenMiddleware, ctlNewsletter.MarkNewsletterViewed)
	app.Post(router.BaseURL+"/newsletters/:jid/live", tokenMiddleware, ctlNewsletter.SubscribeLiveUpdates)
	app.Get(router.BaseURL+"/newsletters/:jid/updates", tokenMiddleware, ctlNewsletter.GetNewsletterMessageUpdates)

	// Business routes
	app.Get(router.BaseURL+"/business/link/:code", tokenMiddleware, ctlBusiness.ResolveBusinessMessageLink)
	app.Get(router.BaseURL+"/business/:jid/profile", tokenMiddleware, ctlBusiness.GetBusinessProfile)

	// Call routes
	app.Post(router.BaseURL+"/calls/reject", tokenMiddleware, ctlCall.RejectCall)

	// History sync
	app.Post(router.BaseURL+"/history/sync", tokenMiddleware, ctlHistory.BuildHistorySyncRequest)

	// Bot routes
	app.Get(router.BaseURL+"/bots", tokenMiddleware, ctlBot.GetBotList)
	app.Get(router.BaseURL+"/bots/profiles", tokenMiddleware, ctlBot.GetBotProfiles)

	// Webhook routes
	app.Get(router.BaseURL+"/webhooks", tokenMiddleware, ctlWebhooks.ListWebhooks)
	app.Post(router.BaseURL+"/webhooks", tokenMiddleware, ctlWebhooks.CreateWebhook)
	app.Get(router.BaseURL+"/webhooks/:webhook_id", tokenMiddleware, ctlWebhooks.GetWebhook)
	app.Patch(router.BaseURL+"/webhooks/:webhook_id", tokenMiddleware, ctlWebhooks.UpdateWebhook)
	app.Delete(router.BaseURL+"/webhooks/:webhook_id", tokenMiddleware, ctlWebhooks.DeleteWebhook)
	app.Get(router.BaseURL+"/webhooks/:webhook_id/logs", tokenMiddleware, ctlWebhooks.GetWebhookLogs)
	app.Post(router.BaseURL+"/webhooks/:webhook_id/test", tokenMiddleware, ctlWebhooks.TestWebhook)
}
