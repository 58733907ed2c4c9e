package session

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

func newSessionTestApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: router.HttpErrorHandler})
	app.Post("/session/login/pair", LoginWithCode)
	app.Post("/session/reconnect", Reconnect)
	app.Post("/session/logout", Logout)
	app.Get("/session/status", GetStatus)
	return app
}

func callSessionAPI(t *testing.T, app *fiber.App, method string, target string, payload string) (int, router.Response) {
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

func TestLoginWithCodeRequiresPhone(t *testing.T) {
	app := newSessionTestApp()

	status, envelope := callSessionAPI(t, app, http.MethodPost, "/session/login/pair", `{}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Phone is required", envelope.Error)
}

func TestReconnectWithoutSession(t *testing.T) {
	app := newSessionTestApp()

	status, envelope := callSessionAPI(t, app, http.MethodPost, "/session/reconnect", "")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, pkgWhatsApp.ErrNoClient.Error(), envelope.Error)
}

func TestLogoutWithoutSession(t *testing.T) {
	app := newSessionTestApp()

	status, envelope := callSessionAPI(t, app, http.MethodPost, "/session/logout", "")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, pkgWhatsApp.ErrNoClient.Error(), envelope.Error)
}

func TestGetStatusWithoutSession(t *testing.T) {
	app := newSessionTestApp()

	status, envelope := callSessionAPI(t, app, http.MethodGet, "/session/status", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Session status", envelope.Message)

	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, false, data["connected"])
	assert.Equal(t, false, data["logged_in"])
	assert.NotContains(t, data, "jid")

	cache, ok := data["message_cache"].(map[string]interface{})
	require.True(t, ok)
	assert.GreaterOrEqual(t, cache["capacity"].(float64), float64(100))
}
