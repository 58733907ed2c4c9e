package groups

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

func newGroupsTestApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: router.HttpErrorHandler})
	app.Post("/groups", Create)
	app.Post("/groups/join", Join)
	app.Get("/groups/invite-info", GetInfoFromLink)
	return app
}

func performJSON(t *testing.T, app *fiber.App, method string, target string, payload string) (int, router.Response) {
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

func TestCreateGroupRequiresName(t *testing.T) {
	app := newGroupsTestApp()

	status, envelope := performJSON(t, app, http.MethodPost, "/groups", `{"participants":["+6281234567890"]}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "name is required", envelope.Error)
}

func TestCreateGroupRejectsMalformedBody(t *testing.T) {
	app := newGroupsTestApp()

	status, envelope := performJSON(t, app, http.MethodPost, "/groups", `{"name": `)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Failed parse body request", envelope.Error)
}

func TestCreateGroupWithoutSession(t *testing.T) {
	app := newGroupsTestApp()

	status, envelope := performJSON(t, app, http.MethodPost, "/groups", `{"name":"Field Ops"}`)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, pkgWhatsApp.ErrNoClient.Error(), envelope.Error)
}

func TestJoinGroupRequiresLink(t *testing.T) {
	app := newGroupsTestApp()

	status, envelope := performJSON(t, app, http.MethodPost, "/groups/join", `{}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "link is required", envelope.Error)
}

func TestGetInfoFromLinkRequiresCode(t *testing.T) {
	app := newGroupsTestApp()

	status, envelope := performJSON(t, app, http.MethodGet, "/groups/invite-info", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "code is required", envelope.Error)
}
