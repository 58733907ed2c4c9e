package webhooks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/router"
)

func newWebhooksTestApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: router.HttpErrorHandler})
	app.Get("/webhooks", ListWebhooks)
	app.Post("/webhooks", CreateWebhook)
	app.Get("/webhooks/:webhook_id", GetWebhook)
	app.Patch("/webhooks/:webhook_id", UpdateWebhook)
	app.Delete("/webhooks/:webhook_id", DeleteWebhook)
	app.Get("/webhooks/:webhook_id/logs", GetWebhookLogs)
	return app
}

func callWebhooksAPI(t *testing.T, app *fiber.App, method string, target string, payload string) (int, router.Response) {
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

func TestWebhookLifecycleThroughAPI(t *testing.T) {
	app := newWebhooksTestApp()

	status, envelope := callWebhooksAPI(t, app, http.MethodPost, "/webhooks",
		`{"url":"https://crm.example.com/hooks/wa","events":["message.received","message.read"]}`)
	require.Equal(t, http.StatusCreated, status)

	created, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	webhookID := int64(created["webhook_id"].(float64))
	require.Greater(t, webhookID, int64(0))

	// The signing secret is only ever shown in the create response
	secret, _ := created["secret"].(string)
	assert.Len(t, secret, 64)

	target := fmt.Sprintf("/webhooks/%d", webhookID)

	status, envelope = callWebhooksAPI(t, app, http.MethodGet, target, "")
	require.Equal(t, http.StatusOK, status)
	data := envelope.Data.(map[string]interface{})
	wh := data["webhook"].(map[string]interface{})
	assert.Equal(t, "https://crm.example.com/hooks/wa", wh["url"])
	assert.Equal(t, true, wh["active"])
	assert.NotContains(t, wh, "secret")

	status, envelope = callWebhooksAPI(t, app, http.MethodGet, "/webhooks", "")
	require.Equal(t, http.StatusOK, status)
	listData := envelope.Data.(map[string]interface{})
	listed, _ := listData["webhooks"].([]interface{})
	found := false
	for _, item := range listed {
		if entry, ok := item.(map[string]interface{}); ok && int64(entry["id"].(float64)) == webhookID {
			found = true
		}
	}
	assert.True(t, found, "created webhook missing from list")

	status, envelope = callWebhooksAPI(t, app, http.MethodPatch, target,
		`{"url":"https://crm.example.com/hooks/v2","events":["connection.connected"],"active":false}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "webhook updated", envelope.Message)

	status, envelope = callWebhooksAPI(t, app, http.MethodGet, target, "")
	require.Equal(t, http.StatusOK, status)
	wh = envelope.Data.(map[string]interface{})["webhook"].(map[string]interface{})
	assert.Equal(t, "https://crm.example.com/hooks/v2", wh["url"])
	assert.Equal(t, false, wh["active"])

	status, _ = callWebhooksAPI(t, app, http.MethodGet, target+"/logs", "")
	assert.Equal(t, http.StatusOK, status)

	status, envelope = callWebhooksAPI(t, app, http.MethodDelete, target, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "webhook deleted", envelope.Message)

	status, envelope = callWebhooksAPI(t, app, http.MethodDelete, target, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "webhook not found", envelope.Error)

	status, _ = callWebhooksAPI(t, app, http.MethodGet, target, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCreateWebhookValidation(t *testing.T) {
	app := newWebhooksTestApp()

	tests := []struct {
		name    string
		payload string
		wantErr string
	}{
		{
			name:    "missing url",
			payload: `{"events":["message.received"]}`,
			wantErr: "url cannot be empty",
		},
		{
			name:    "invalid url",
			payload: `{"url":"not a url"}`,
			wantErr: "url must be valid",
		},
		{
			name:    "unknown event",
			payload: `{"url":"https://crm.example.com/hooks","events":["message.exploded"]}`,
			wantErr: "unknown event type: message.exploded",
		},
		{
			name:    "malformed body",
			payload: `{"url": `,
			wantErr: "invalid request body",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, envelope := callWebhooksAPI(t, app, http.MethodPost, "/webhooks", tc.payload)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, tc.wantErr, envelope.Error)
		})
	}
}

func TestWebhookIDMustBeNumeric(t *testing.T) {
	app := newWebhooksTestApp()

	status, envelope := callWebhooksAPI(t, app, http.MethodGet, "/webhooks/abc", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid webhook_id", envelope.Error)
}

func TestGetUnknownWebhookReturns404(t *testing.T) {
	app := newWebhooksTestApp()

	status, envelope := callWebhooksAPI(t, app, http.MethodGet, "/webhooks/99999999", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "webhook not found", envelope.Error)
}
