package messaging

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/router"
	pkgWhatsApp "github.com/gdbrns/go-whatsapp-crm-gateway/pkg/whatsapp"
)

func newMessagingTestApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: router.HttpErrorHandler})
	app.Post("/chats/:chat_jid/messages/text", SendText)
	app.Post("/chats/:chat_jid/messages/image", SendImage)
	app.Post("/chats/:chat_jid/messages/contact", SendContact)
	app.Post("/chats/:chat_jid/messages/link", SendLink)
	app.Get("/chats/:chat_jid/messages", GetMessages)
	return app
}

func callMessagingAPI(t *testing.T, app *fiber.App, method string, target string, payload string) (int, router.Response) {
	t.Helper()

	var body io.Reader
	if payload != "" {
		body = bytes.NewReader([]byte(payload))
	}
	req := httptest.NewRequest(method, target, body)
	if payload != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var envelope router.Response
	require.NoError(t, json.Unmarshal(raw, &envelope))
	return resp.StatusCode, envelope
}

func TestSendTextRequiresMessage(t *testing.T) {
	app := newMessagingTestApp()

	status, envelope := callMessagingAPI(t, app, http.MethodPost, "/chats/+6281234567890/messages/text", `{}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "message is required", envelope.Error)
}

func TestSendTextAcceptsTextAlias(t *testing.T) {
	app := newMessagingTestApp()

	// The alias passes the guard, then sending fails without a live session
	status, envelope := callMessagingAPI(t, app, http.MethodPost, "/chats/+6281234567890/messages/text", `{"text":"hello from the CRM"}`)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, pkgWhatsApp.ErrNoClient.Error(), envelope.Error)
}

func TestSendTextMalformedBody(t *testing.T) {
	app := newMessagingTestApp()

	status, envelope := callMessagingAPI(t, app, http.MethodPost, "/chats/+6281234567890/messages/text", `{"message": `)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Failed parse body request", envelope.Error)
}

func TestSendContactRequiresNameAndPhone(t *testing.T) {
	app := newMessagingTestApp()

	status, envelope := callMessagingAPI(t, app, http.MethodPost, "/chats/+6281234567890/messages/contact", `{"name":"Ada"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "name and phone are required", envelope.Error)
}

func TestSendLinkValidatesURL(t *testing.T) {
	app := newMessagingTestApp()

	status, envelope := callMessagingAPI(t, app, http.MethodPost, "/chats/+6281234567890/messages/link", `{"link":"not a url"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "url must be valid", envelope.Error)

	status, envelope = callMessagingAPI(t, app, http.MethodPost, "/chats/+6281234567890/messages/link", `{}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "url cannot be empty", envelope.Error)
}

func TestSendImageRequiresFile(t *testing.T) {
	app := newMessagingTestApp()

	status, envelope := callMessagingAPI(t, app, http.MethodPost, "/chats/+6281234567890/messages/image", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "file is required", envelope.Error)
}

func TestGetMessagesRejectsBadTimestamp(t *testing.T) {
	app := newMessagingTestApp()

	status, envelope := callMessagingAPI(t, app, http.MethodGet, "/chats/+6281234567890/messages?before=yesterday", "")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "invalid before timestamp, expected RFC3339", envelope.Error)
}

func TestGetMessagesEmptyHistory(t *testing.T) {
	app := newMessagingTestApp()

	status, envelope := callMessagingAPI(t, app, http.MethodGet, "/chats/+6281234567890/messages", "")
	require.Equal(t, http.StatusOK, status)

	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(0), data["count"])
	assert.Equal(t, float64(50), data["limit"])
}
