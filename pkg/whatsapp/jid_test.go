package whatsapp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mau.fi/whatsmeow/types"
)

func TestWhatsAppDecomposeJID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare digits", "6281234567890", "6281234567890"},
		{"plus prefixed", "+6281234567890", "6281234567890"},
		{"protocol jid", "6281234567890@s.whatsapp.net", "6281234567890"},
		{"legacy jid", "6281234567890@c.us", "6281234567890"},
		{"device part stripped", "6281234567890:12@s.whatsapp.net", "6281234567890"},
		{"group jid", "120363021033254949@g.us", "120363021033254949"},
		{"whitespace trimmed", " 6281234567890 ", "6281234567890"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WhatsAppDecomposeJID(tt.in))
		})
	}
}

func TestWhatsAppComposeJID(t *testing.T) {
	tests := []struct {
		name       string
		in         string
		wantUser   string
		wantServer string
	}{
		{"bare digits", "6281234567890", "6281234567890", types.DefaultUserServer},
		{"plus prefixed", "+6281234567890", "6281234567890", types.DefaultUserServer},
		{"legacy form", "6281234567890@c.us", "6281234567890", types.DefaultUserServer},
		{"protocol form passthrough", "6281234567890@s.whatsapp.net", "6281234567890", types.DefaultUserServer},
		{"group passthrough", "120363021033254949@g.us", "120363021033254949", types.GroupServer},
		{"newsletter passthrough", "120363166555160601@newsletter", "120363166555160601", types.NewsletterServer},
		{"legacy group id with dash", "628123456789-1631537000", "628123456789-1631537000", types.GroupServer},
		{"long bare id is a group", "120363021033254949", "120363021033254949", types.GroupServer},
		{"short bare id is a user", "628123456789012", "628123456789012", types.DefaultUserServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WhatsAppComposeJID(tt.in)
			assert.Equal(t, tt.wantUser, got.User)
			assert.Equal(t, tt.wantServer, got.Server)
		})
	}
}

func TestWhatsAppComposeJIDKeepsDevicePart(t *testing.T) {
	got := WhatsAppComposeJID("6281234567890:12@s.whatsapp.net")
	assert.Equal(t, "6281234567890", got.User)
	assert.Equal(t, types.DefaultUserServer, got.Server)
	assert.Equal(t, uint16(12), got.Device)
}

func TestFormatJIDForCRM(t *testing.T) {
	tests := []struct {
		name string
		in   types.JID
		want string
	}{
		{"personal chat", types.NewJID("6281234567890", types.DefaultUserServer), "+6281234567890"},
		{"group chat", types.NewJID("120363021033254949", types.GroupServer), "120363021033254949@g.us"},
		{"newsletter", types.NewJID("120363166555160601", types.NewsletterServer), "120363166555160601@newsletter"},
		{"empty", types.EmptyJID, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatJIDForCRM(tt.in))
		})
	}
}

func TestJIDLookupsWithoutClient(t *testing.T) {
	// No client is initialized in tests, resolution degrades cleanly
	assert.True(t, WhatsAppGetJID(context.Background(), "6281234567890").IsEmpty())

	_, err := WhatsAppCheckJID(context.Background(), "6281234567890")
	assert.ErrorIs(t, err, ErrNoClient)
}
