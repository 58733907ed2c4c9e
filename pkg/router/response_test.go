package router

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fetchEnvelope(t *testing.T, app *fiber.App, target string) (*http.Response, string, Response) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var envelope Response
	if len(body) > 0 {
		require.NoError(t, json.Unmarshal(body, &envelope))
	}
	return resp, string(body), envelope
}

func TestResponseSuccessEnvelope(t *testing.T) {
	app := fiber.New()
	app.Get("/ok", func(c *fiber.Ctx) error {
		return ResponseSuccess(c, "Session logged out")
	})
	app.Get("/ok-default", func(c *fiber.Ctx) error {
		return ResponseSuccess(c, "  ")
	})

	resp, body, envelope := fetchEnvelope(t, app, "/ok")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, envelope.Status)
	assert.Equal(t, http.StatusOK, envelope.Code)
	assert.Equal(t, "Session logged out", envelope.Message)
	assert.NotContains(t, body, `"error"`)
	assert.NotContains(t, body, `"data"`)

	// Blank messages fall back to the standard status text
	_, _, envelope = fetchEnvelope(t, app, "/ok-default")
	assert.Equal(t, "OK", envelope.Message)
}

func TestResponseSuccessWithData(t *testing.T) {
	app := fiber.New()
	app.Get("/data", func(c *fiber.Ctx) error {
		return ResponseSuccessWithData(c, "Message sent", fiber.Map{"message_id": "3EB0ABCD"})
	})

	resp, _, envelope := fetchEnvelope(t, app, "/data")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, envelope.Data)

	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "3EB0ABCD", data["message_id"])
}

func TestResponseCreated(t *testing.T) {
	app := fiber.New()
	app.Get("/created", func(c *fiber.Ctx) error {
		return ResponseCreatedWithData(c, "", fiber.Map{"id": 7})
	})

	resp, _, envelope := fetchEnvelope(t, app, "/created")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.True(t, envelope.Status)
	assert.Equal(t, http.StatusCreated, envelope.Code)
	assert.Equal(t, "Created", envelope.Message)
}

func TestResponseNoContent(t *testing.T) {
	app := fiber.New()
	app.Get("/gone", func(c *fiber.Ctx) error {
		return ResponseNoContent(c)
	})

	resp, body, _ := fetchEnvelope(t, app, "/gone")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, body)
}

func TestErrorResponsesMirrorMessageIntoError(t *testing.T) {
	app := fiber.New()
	app.Get("/bad", func(c *fiber.Ctx) error {
		return ResponseBadRequest(c, "Phone number is invalid")
	})
	app.Get("/missing", func(c *fiber.Ctx) error {
		return ResponseNotFound(c, "Message not found in cache")
	})
	app.Get("/broken", func(c *fiber.Ctx) error {
		return ResponseInternalError(c, "")
	})
	app.Get("/upstream", func(c *fiber.Ctx) error {
		return ResponseBadGateway(c, "WhatsApp connection is not established")
	})

	tests := []struct {
		target      string
		wantStatus  int
		wantMessage string
	}{
		{"/bad", http.StatusBadRequest, "Phone number is invalid"},
		{"/missing", http.StatusNotFound, "Message not found in cache"},
		{"/broken", http.StatusInternalServerError, "Internal Server Error"},
		{"/upstream", http.StatusBadGateway, "WhatsApp connection is not established"},
	}

	for _, tc := range tests {
		t.Run(tc.target, func(t *testing.T) {
			resp, _, envelope := fetchEnvelope(t, app, tc.target)
			assert.Equal(t, tc.wantStatus, resp.StatusCode)
			assert.False(t, envelope.Status)
			assert.Equal(t, tc.wantStatus, envelope.Code)
			assert.Equal(t, tc.wantMessage, envelope.Message)
			assert.Equal(t, tc.wantMessage, envelope.Error)
		})
	}
}

func TestResponseAuthenticateSetsChallenge(t *testing.T) {
	app := fiber.New()
	app.Get("/login", func(c *fiber.Ctx) error {
		return ResponseAuthenticate(c)
	})

	resp, _, envelope := fetchEnvelope(t, app, "/login")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, `Basic realm="Authentication Required"`, resp.Header.Get("WWW-Authenticate"))
	assert.Equal(t, "Unauthorized", envelope.Message)
}

func TestHttpErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: HttpErrorHandler})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("datastore exploded")
	})
	app.Get("/teapot", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "short and stout")
	})

	// Plain errors become 500s
	resp, _, envelope := fetchEnvelope(t, app, "/boom")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.False(t, envelope.Status)
	assert.Equal(t, "datastore exploded", envelope.Message)
	assert.Equal(t, "datastore exploded", envelope.Error)

	// fiber.Error carries its own status code through
	resp, _, envelope = fetchEnvelope(t, app, "/teapot")
	assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)
	assert.Equal(t, "short and stout", envelope.Message)

	// Unmatched routes flow through the handler as 404s
	resp, _, envelope = fetchEnvelope(t, app, "/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.False(t, envelope.Status)
	assert.True(t, strings.Contains(envelope.Message, "/nope"))
}

func TestParseBodyLimit(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"8M", 8 * 1024 * 1024},
		{"512K", 512 * 1024},
		{"1G", 1024 * 1024 * 1024},
		{"2m", 2 * 1024 * 1024},
		{"1024", 1024},
		{" 16M ", 16 * 1024 * 1024},
		{"", 8 * 1024 * 1024},
		{"zero", 8 * 1024 * 1024},
		{"-4M", 8 * 1024 * 1024},
		{"0", 8 * 1024 * 1024},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, parseBodyLimit(tc.input), "input %q", tc.input)
	}
}
