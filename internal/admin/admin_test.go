package admin

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

	pkgAuth "github.com/gdbrns/go-whatsapp-crm-gateway/pkg/auth"
	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/router"
)

func newAdminTestApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: router.HttpErrorHandler})
	app.Post("/admin/tokens", CreateToken)
	app.Get("/admin/tokens", ListTokens)
	app.Get("/admin/tokens/:id", GetToken)
	app.Put("/admin/tokens/:id", UpdateToken)
	app.Delete("/admin/tokens/:id", DeleteToken)
	app.Post("/admin/tokens/:id/regenerate", RegenerateTokenSecret)
	app.Get("/admin/version", GetWAVersion)
	return app
}

func callAdminAPI(t *testing.T, app *fiber.App, method string, target string, payload string) (int, router.Response) {
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

func withSigningSecret(t *testing.T) {
	t.Helper()
	previous := pkgAuth.JWTSecretKey
	pkgAuth.JWTSecretKey = "admin-controller-test-secret-32chars-min"
	t.Cleanup(func() { pkgAuth.JWTSecretKey = previous })
}

func TestTokenLifecycleThroughAPI(t *testing.T) {
	withSigningSecret(t)
	app := newAdminTestApp()

	status, envelope := callAdminAPI(t, app, http.MethodPost, "/admin/tokens", `{}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "label is required", envelope.Error)

	status, envelope = callAdminAPI(t, app, http.MethodPost, "/admin/tokens", `{"label":"crm-prod-api"}`)
	require.Equal(t, http.StatusCreated, status)

	created, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	tokenID := int64(created["id"].(float64))
	require.Greater(t, tokenID, int64(0))
	assert.Equal(t, "crm-prod-api", created["label"])

	initialSecret, _ := created["token_secret"].(string)
	assert.Len(t, initialSecret, 64)
	issuedJWT, _ := created["token"].(string)
	assert.NotEmpty(t, issuedJWT)

	target := fmt.Sprintf("/admin/tokens/%d", tokenID)

	// Reads never return the secret again
	status, envelope = callAdminAPI(t, app, http.MethodGet, target, "")
	require.Equal(t, http.StatusOK, status)
	fetched := envelope.Data.(map[string]interface{})
	assert.Equal(t, "crm-prod-api", fetched["label"])
	assert.NotContains(t, fetched, "token_secret")

	status, envelope = callAdminAPI(t, app, http.MethodGet, "/admin/tokens", "")
	require.Equal(t, http.StatusOK, status)
	listed, _ := envelope.Data.([]interface{})
	found := false
	for _, item := range listed {
		if entry, ok := item.(map[string]interface{}); ok && int64(entry["id"].(float64)) == tokenID {
			found = true
			assert.NotContains(t, entry, "token_secret")
		}
	}
	assert.True(t, found, "created token missing from list")

	status, envelope = callAdminAPI(t, app, http.MethodPut, target, `{"label":"crm-staging-api","is_active":false}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Token updated successfully", envelope.Message)

	status, envelope = callAdminAPI(t, app, http.MethodGet, target, "")
	require.Equal(t, http.StatusOK, status)
	fetched = envelope.Data.(map[string]interface{})
	assert.Equal(t, "crm-staging-api", fetched["label"])
	assert.Equal(t, false, fetched["is_active"])

	// Empty update keeps the existing label
	status, _ = callAdminAPI(t, app, http.MethodPut, target, `{}`)
	require.Equal(t, http.StatusOK, status)
	status, envelope = callAdminAPI(t, app, http.MethodGet, target, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "crm-staging-api", envelope.Data.(map[string]interface{})["label"])

	status, envelope = callAdminAPI(t, app, http.MethodPost, target+"/regenerate", "")
	require.Equal(t, http.StatusOK, status)
	regenerated := envelope.Data.(map[string]interface{})
	newSecret, _ := regenerated["token_secret"].(string)
	assert.Len(t, newSecret, 64)
	assert.NotEqual(t, initialSecret, newSecret)
	assert.NotEmpty(t, regenerated["token"])

	status, envelope = callAdminAPI(t, app, http.MethodDelete, target, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Token deleted successfully", envelope.Message)

	status, envelope = callAdminAPI(t, app, http.MethodDelete, target, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Token not found", envelope.Error)
}

func TestGetTokenValidation(t *testing.T) {
	app := newAdminTestApp()

	status, envelope := callAdminAPI(t, app, http.MethodGet, "/admin/tokens/abc", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid token ID", envelope.Error)

	status, envelope = callAdminAPI(t, app, http.MethodGet, "/admin/tokens/99999999", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Token not found", envelope.Error)
}

func TestGetWAVersionStatus(t *testing.T) {
	app := newAdminTestApp()

	status, envelope := callAdminAPI(t, app, http.MethodGet, "/admin/version", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "WhatsApp version status", envelope.Message)

	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, data, "current_version")
}
