package auth

import (
	"context"
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

func newMiddlewareApp(middleware fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Get("/protected", middleware, func(c *fiber.Ctx) error {
		return router.ResponseSuccessWithData(c, "through", fiber.Map{
			"token_id":    c.Locals("token_id"),
			"token_label": c.Locals("token_label"),
		})
	})
	return app
}

func doProtectedRequest(t *testing.T, app *fiber.App, headers map[string]string) (int, router.Response) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var envelope router.Response
	require.NoError(t, json.Unmarshal(body, &envelope))
	return resp.StatusCode, envelope
}

func withTestAdminSecret(t *testing.T, secret string) {
	t.Helper()
	previous := AdminSecretKey
	AdminSecretKey = secret
	t.Cleanup(func() { AdminSecretKey = previous })
}

func TestAdminAuthMissingHeader(t *testing.T) {
	app := newMiddlewareApp(AdminAuth())

	status, envelope := doProtectedRequest(t, app, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.False(t, envelope.Status)
	assert.Equal(t, "Missing X-Admin-Secret header", envelope.Error)
}

func TestAdminAuthUnconfiguredSecret(t *testing.T) {
	withTestAdminSecret(t, "")
	app := newMiddlewareApp(AdminAuth())

	status, envelope := doProtectedRequest(t, app, map[string]string{"X-Admin-Secret": "whatever"})
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Admin secret key not configured", envelope.Error)
}

func TestAdminAuthWrongSecret(t *testing.T) {
	withTestAdminSecret(t, "correct-admin-secret")
	app := newMiddlewareApp(AdminAuth())

	status, envelope := doProtectedRequest(t, app, map[string]string{"X-Admin-Secret": "guessed-admin-secret"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid admin secret", envelope.Error)
}

func TestAdminAuthAccepted(t *testing.T) {
	withTestAdminSecret(t, "correct-admin-secret")
	app := newMiddlewareApp(AdminAuth())

	status, envelope := doProtectedRequest(t, app, map[string]string{"X-Admin-Secret": "correct-admin-secret"})
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, envelope.Status)
}

func TestTokenAuthHeaderFailures(t *testing.T) {
	withTestSecret(t)
	app := newMiddlewareApp(TokenAuth())

	tests := []struct {
		name    string
		headers map[string]string
		wantErr string
	}{
		{
			name:    "missing header",
			headers: nil,
			wantErr: "Missing Authorization header",
		},
		{
			name:    "wrong scheme",
			headers: map[string]string{"Authorization": "Basic dXNlcjpwYXNz"},
			wantErr: "Invalid Authorization header format. Use: Bearer <token>",
		},
		{
			name:    "scheme without token",
			headers: map[string]string{"Authorization": "Bearer"},
			wantErr: "Invalid Authorization header format. Use: Bearer <token>",
		},
		{
			name:    "malformed token",
			headers: map[string]string{"Authorization": "Bearer not.a.jwt"},
			wantErr: "Invalid or expired token",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, envelope := doProtectedRequest(t, app, tc.headers)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, tc.wantErr, envelope.Error)
		})
	}
}

func TestTokenAuthUnknownToken(t *testing.T) {
	withTestSecret(t)
	app := newMiddlewareApp(TokenAuth())

	// Valid signature, but no such row in the gateway store
	tokenString, err := GenerateGatewayToken(987654321, "ghost", 1)
	require.NoError(t, err)

	status, envelope := doProtectedRequest(t, app, map[string]string{"Authorization": "Bearer " + tokenString})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Token not found", envelope.Error)
}

func TestTokenAuthAcceptsAndRevokes(t *testing.T) {
	withTestSecret(t)
	app := newMiddlewareApp(TokenAuth())
	ctx := context.Background()

	created, err := pkgWhatsApp.CreateGatewayToken(ctx, "auth-middleware-test")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = pkgWhatsApp.DeleteGatewayToken(context.Background(), created.ID)
		pkgWhatsApp.InvalidateTokenVersionCache(created.ID)
	})

	tokenString, err := GenerateGatewayToken(created.ID, created.Label, created.JWTVersion)
	require.NoError(t, err)

	status, envelope := doProtectedRequest(t, app, map[string]string{"Authorization": "Bearer " + tokenString})
	require.Equal(t, http.StatusOK, status)
	assert.True(t, envelope.Status)

	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(created.ID), data["token_id"])
	assert.Equal(t, "auth-middleware-test", data["token_label"])

	// Bump the stored version, old JWTs must stop working immediately
	_, err = pkgWhatsApp.IncrementGatewayTokenVersion(ctx, created.ID)
	require.NoError(t, err)
	pkgWhatsApp.InvalidateTokenVersionCache(created.ID)

	status, envelope = doProtectedRequest(t, app, map[string]string{"Authorization": "Bearer " + tokenString})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Token has been revoked. Please regenerate a new token.", envelope.Error)
}
