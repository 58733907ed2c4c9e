package auth

import (
	"bytes"
	"context"
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
	pkgWhatsApp "github.com/gdbrns/go-whatsapp-crm-gateway/pkg/whatsapp"
)

func newRefreshTestApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: router.HttpErrorHandler})
	app.Post("/tokens/refresh", RefreshToken)
	return app
}

func postRefresh(t *testing.T, app *fiber.App, payload string) (int, router.Response) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/tokens/refresh", bytes.NewReader([]byte(payload)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var envelope router.Response
	require.NoError(t, json.Unmarshal(raw, &envelope))
	return resp.StatusCode, envelope
}

func TestRefreshTokenRequiresCredentials(t *testing.T) {
	app := newRefreshTestApp()

	status, envelope := postRefresh(t, app, `{}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "token_id and token_secret are required", envelope.Error)

	status, envelope = postRefresh(t, app, `{"token_id":1}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "token_id and token_secret are required", envelope.Error)
}

func TestRefreshTokenRejectsBadCredentials(t *testing.T) {
	app := newRefreshTestApp()

	status, envelope := postRefresh(t, app, `{"token_id":99999999,"token_secret":"deadbeef"}`)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid token credentials", envelope.Error)
}

func TestRefreshTokenIssuesNewJWTAndRevokesOld(t *testing.T) {
	previous := pkgAuth.JWTSecretKey
	pkgAuth.JWTSecretKey = "refresh-endpoint-test-secret-32chars-min"
	t.Cleanup(func() { pkgAuth.JWTSecretKey = previous })

	app := newRefreshTestApp()
	ctx := context.Background()

	created, err := pkgWhatsApp.CreateGatewayToken(ctx, "crm-refresh-test")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = pkgWhatsApp.DeleteGatewayToken(context.Background(), created.ID)
		pkgWhatsApp.InvalidateTokenVersionCache(created.ID)
	})

	payload := fmt.Sprintf(`{"token_id":%d,"token_secret":"%s"}`, created.ID, created.TokenSecret)
	status, envelope := postRefresh(t, app, payload)
	require.Equal(t, http.StatusOK, status)

	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(created.ID), data["token_id"])
	assert.Equal(t, "crm-refresh-test", data["label"])

	issuedJWT, _ := data["token"].(string)
	require.NotEmpty(t, issuedJWT)

	// The refreshed JWT carries the bumped version
	claims, err := pkgAuth.ValidateGatewayToken(issuedJWT)
	require.NoError(t, err)
	assert.Equal(t, created.ID, claims.TokenID)
	assert.Equal(t, created.JWTVersion+1, claims.TokenVersion)

	// Pre-refresh versions no longer match the stored one
	storedVersion, err := pkgWhatsApp.GetGatewayTokenVersion(ctx, created.ID)
	require.NoError(t, err)
	assert.NotEqual(t, created.JWTVersion, storedVersion)
	assert.Equal(t, claims.TokenVersion, storedVersion)
}
