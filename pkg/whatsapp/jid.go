package whatsapp

import (
	"context"
	"errors"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.mau.fi/whatsmeow/types"
)

// CRM callers address chats by phone-number style ids (bare digits, "+"
// prefixed, or the legacy "<digits>@c.us" form). whatsmeow wants full
// user@server JIDs. Translation between the two lives here.

const legacyUserServer = "c.us"

var ErrJIDNotRegistered = errors.New("WhatsApp Personal ID is Not Registered")

// jidCache remembers IsOnWhatsApp resolutions so repeated sends to the same
// number skip the network round trip.
var jidCache = gocache.New(10*time.Minute, 15*time.Minute)

// WhatsAppDecomposeJID reduces any accepted id form to its bare user part:
// server suffix, device part (":NN"), leading "+" and whitespace stripped.
func WhatsAppDecomposeJID(id string) string {
	if strings.ContainsRune(id, '@') {
		buffers := strings.Split(id, "@")
		id = buffers[0]
	}

	if strings.ContainsRune(id, ':') {
		buffers := strings.Split(id, ":")
		id = buffers[0]
	}

	if len(id) > 0 && id[0] == '+' {
		id = id[1:]
	}

	return strings.TrimSpace(id)
}

// WhatsAppComposeJID builds a protocol JID from any accepted id form. Legacy
// "@c.us" ids map to the multi-device user server. Bare ids containing "-"
// or at least 18 digits are treated as group ids.
func WhatsAppComposeJID(id string) types.JID {
	trimmed := strings.TrimSpace(id)

	if strings.HasSuffix(trimmed, "@"+legacyUserServer) {
		return types.NewJID(WhatsAppDecomposeJID(trimmed), types.DefaultUserServer)
	}

	if strings.ContainsRune(trimmed, '@') {
		if parsed, err := types.ParseJID(trimmed); err == nil && parsed.Server != "" && parsed.User != "" {
			return parsed
		}
	}

	bare := WhatsAppDecomposeJID(trimmed)
	if strings.ContainsRune(bare, '-') || len(bare) >= 18 {
		return types.NewJID(bare, types.GroupServer)
	}
	return types.NewJID(bare, types.DefaultUserServer)
}

// WhatsAppGetJID resolves a personal id through IsOnWhatsApp, caching hits.
// Returns types.EmptyJID when the number is not registered.
func WhatsAppGetJID(ctx context.Context, id string) types.JID {
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := currentClient()
	if err != nil {
		return types.EmptyJID
	}

	normalized := WhatsAppDecomposeJID(id)
	if normalized == "" {
		return types.EmptyJID
	}

	if cached, found := jidCache.Get(normalized); found {
		if jidStr, ok := cached.(string); ok {
			if parsed, err := types.ParseJID(jidStr); err == nil {
				return parsed
			}
		}
	}

	infos, err := client.IsOnWhatsApp(ctx, []string{"+" + normalized})
	if err != nil || len(infos) == 0 {
		return types.EmptyJID
	}
	if !infos[0].IsIn {
		return types.EmptyJID
	}

	jidCache.Set(normalized, infos[0].JID.String(), gocache.DefaultExpiration)
	return infos[0].JID
}

// WhatsAppCheckJID composes the target JID and, for personal chats,
// requires the number to be a registered account.
func WhatsAppCheckJID(ctx context.Context, id string) (types.JID, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := currentClient(); err != nil {
		return types.EmptyJID, err
	}

	remoteJID := WhatsAppComposeJID(id)
	if remoteJID.Server != types.GroupServer && remoteJID.Server != types.NewsletterServer && remoteJID.Server != types.BroadcastServer {
		resolved := WhatsAppGetJID(ctx, id)
		if resolved.IsEmpty() {
			return types.EmptyJID, ErrJIDNotRegistered
		}
		remoteJID = resolved
	}
	return remoteJID, nil
}

// FormatJIDForCRM renders a protocol JID in the form the CRM webhook
// consumes: "+<digits>" for personal chats, the full JID otherwise.
func FormatJIDForCRM(jid types.JID) string {
	if jid.IsEmpty() {
		return ""
	}
	if jid.Server == types.DefaultUserServer {
		return "+" + jid.User
	}
	return jid.String()
}
