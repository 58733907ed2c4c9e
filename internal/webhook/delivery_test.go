package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedDelivery struct {
	path   string
	body   []byte
	header http.Header
}

func newCaptureServer(t *testing.T, status int) (*httptest.Server, chan capturedDelivery) {
	t.Helper()

	received := make(chan capturedDelivery, 16)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received <- capturedDelivery{path: r.URL.Path, body: body, header: r.Header.Clone()}
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server, received
}

func waitForDelivery(t *testing.T, received chan capturedDelivery) capturedDelivery {
	t.Helper()

	select {
	case delivery := <-received:
		return delivery
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for webhook delivery")
		return capturedDelivery{}
	}
}

func newTestEngine(t *testing.T, store *Store) *Engine {
	t.Helper()

	t.Setenv("WEBHOOKS_ENABLED", "true")
	t.Setenv("WEBHOOK_ALLOW_INSECURE_URLS", "true")
	t.Setenv("WEBHOOK_RETRY_LIMIT", "1")
	t.Setenv("WEBHOOK_WORKERS", "2")
	return NewEngine(store)
}

func TestDispatchDeliversSignedEvent(t *testing.T) {
	store := newTestStore(t)
	server, received := newCaptureServer(t, http.StatusOK)
	ctx := context.Background()

	webhookID, err := store.CreateWebhook(ctx, server.URL+"/hooks/wa", "s3cret", []EventType{EventMessageReceived})
	require.NoError(t, err)

	engine := newTestEngine(t, store)
	engine.Dispatch(ctx, Event{
		EventType: EventMessageReceived,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"message_id": "3EB0ABCD",
			"chat_jid":   "+628123456789",
		},
	})

	delivery := waitForDelivery(t, received)
	assert.Equal(t, "/hooks/wa", delivery.path)
	assert.Equal(t, "application/json", delivery.header.Get("Content-Type"))
	assert.Equal(t, "message.received", delivery.header.Get("X-Webhook-Event"))
	assert.Equal(t, "WhatsApp-CRM-Gateway/1.0", delivery.header.Get("User-Agent"))

	// Signature covers the exact payload bytes
	mac := hmac.New(sha256.New, []byte("s3cret"))
	mac.Write(delivery.body)
	wantSignature := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	assert.Equal(t, wantSignature, delivery.header.Get("X-Webhook-Signature"))
	assert.Equal(t, wantSignature, delivery.header.Get("X-Hub-Signature-256"))

	var event Event
	require.NoError(t, json.Unmarshal(delivery.body, &event))
	assert.Equal(t, EventMessageReceived, event.EventType)
	assert.Equal(t, "3EB0ABCD", event.Data["message_id"])

	engine.Shutdown()

	logs, err := store.GetDeliveryLogs(ctx, webhookID, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, DeliverySuccess, logs[0].Status)
	assert.Equal(t, 1, logs[0].AttemptCount)
}

func TestDispatchHonorsEventFilter(t *testing.T) {
	store := newTestStore(t)
	server, received := newCaptureServer(t, http.StatusOK)
	ctx := context.Background()

	_, err := store.CreateWebhook(ctx, server.URL+"/messages-only", "s1", []EventType{EventMessageReceived})
	require.NoError(t, err)
	_, err = store.CreateWebhook(ctx, server.URL+"/connections-only", "s2", []EventType{EventConnectionConnected})
	require.NoError(t, err)
	_, err = store.CreateWebhook(ctx, server.URL+"/everything", "s3", nil)
	require.NoError(t, err)

	engine := newTestEngine(t, store)
	engine.Dispatch(ctx, Event{EventType: EventMessageReceived, Timestamp: time.Now(), Data: map[string]interface{}{}})

	paths := map[string]bool{}
	paths[waitForDelivery(t, received).path] = true
	paths[waitForDelivery(t, received).path] = true
	engine.Shutdown()

	assert.True(t, paths["/messages-only"])
	assert.True(t, paths["/everything"])

	select {
	case extra := <-received:
		t.Fatalf("unexpected delivery to %s", extra.path)
	default:
	}
}

func TestDispatchTestBypassesFilterAndActiveFlag(t *testing.T) {
	store := newTestStore(t)
	server, received := newCaptureServer(t, http.StatusOK)
	ctx := context.Background()

	webhookID, err := store.CreateWebhook(ctx, server.URL+"/hooks/wa", "s1", []EventType{EventMessageReceived})
	require.NoError(t, err)
	require.NoError(t, store.UpdateWebhook(ctx, webhookID, server.URL+"/hooks/wa", "s1", []EventType{EventMessageReceived}, false))

	engine := newTestEngine(t, store)
	require.NoError(t, engine.DispatchTest(ctx, webhookID))

	delivery := waitForDelivery(t, received)
	assert.Equal(t, "test.ping", delivery.header.Get("X-Webhook-Event"))

	var event Event
	require.NoError(t, json.Unmarshal(delivery.body, &event))
	assert.Equal(t, EventTestPing, event.EventType)
	assert.Equal(t, float64(webhookID), event.Data["webhook_id"])

	engine.Shutdown()

	err = engine.DispatchTest(ctx, webhookID+999)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestFailedDeliveryLogged(t *testing.T) {
	store := newTestStore(t)
	server, received := newCaptureServer(t, http.StatusInternalServerError)
	ctx := context.Background()

	webhookID, err := store.CreateWebhook(ctx, server.URL+"/hooks/wa", "s1", nil)
	require.NoError(t, err)

	engine := newTestEngine(t, store)
	engine.Dispatch(ctx, Event{EventType: EventMessageReceived, Timestamp: time.Now(), Data: map[string]interface{}{}})

	waitForDelivery(t, received)
	engine.Shutdown()

	logs, err := store.GetDeliveryLogs(ctx, webhookID, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, DeliveryFailed, logs[0].Status)
	assert.Equal(t, 1, logs[0].AttemptCount)
	assert.Contains(t, logs[0].LastError, "HTTP 500")
}

func TestInsecureURLRejectedBeforeDelivery(t *testing.T) {
	store := newTestStore(t)
	server, received := newCaptureServer(t, http.StatusOK)
	ctx := context.Background()

	// httptest serves plain HTTP, which the default policy refuses
	webhookID, err := store.CreateWebhook(ctx, server.URL+"/hooks/wa", "s1", nil)
	require.NoError(t, err)

	t.Setenv("WEBHOOKS_ENABLED", "true")
	t.Setenv("WEBHOOK_ALLOW_INSECURE_URLS", "false")
	t.Setenv("WEBHOOK_RETRY_LIMIT", "1")
	t.Setenv("WEBHOOK_WORKERS", "2")
	engine := NewEngine(store)

	engine.Dispatch(ctx, Event{EventType: EventMessageReceived, Timestamp: time.Now(), Data: map[string]interface{}{}})

	// No HTTP call to wait on, poll for the rejection log instead
	require.Eventually(t, func() bool {
		logs, err := store.GetDeliveryLogs(ctx, webhookID, 0)
		return err == nil && len(logs) == 1
	}, 5*time.Second, 50*time.Millisecond)
	engine.Shutdown()

	logs, err := store.GetDeliveryLogs(ctx, webhookID, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, DeliveryFailed, logs[0].Status)
	assert.Equal(t, 0, logs[0].AttemptCount)
	assert.Equal(t, "only HTTPS URLs are allowed", logs[0].LastError)

	select {
	case <-received:
		t.Fatal("insecure URL must not be called")
	default:
	}
}

func TestDispatchDisabledEngine(t *testing.T) {
	store := newTestStore(t)
	server, received := newCaptureServer(t, http.StatusOK)
	ctx := context.Background()

	_, err := store.CreateWebhook(ctx, server.URL+"/hooks/wa", "s1", nil)
	require.NoError(t, err)

	t.Setenv("WEBHOOKS_ENABLED", "false")
	engine := NewEngine(store)

	engine.Dispatch(ctx, Event{EventType: EventMessageReceived, Timestamp: time.Now(), Data: map[string]interface{}{}})
	engine.Shutdown()

	select {
	case <-received:
		t.Fatal("disabled engine must not deliver")
	default:
	}
}

func TestValidateURL(t *testing.T) {
	strict := &Engine{allowInsecure: false}
	relaxed := &Engine{allowInsecure: true}

	tests := []struct {
		url     string
		wantErr string
	}{
		{"https://crm.example.com/hooks/wa", ""},
		{"http://crm.example.com/hooks/wa", "only HTTPS URLs are allowed"},
		{"https://localhost/hooks", "private/local network URLs are not allowed"},
		{"https://127.0.0.1:8443/hooks", "private/local network URLs are not allowed"},
		{"https://192.168.1.20/hooks", "private/local network URLs are not allowed"},
		{"https://10.0.0.5/hooks", "private/local network URLs are not allowed"},
		{"https://172.16.0.9/hooks", "private/local network URLs are not allowed"},
	}

	for _, tc := range tests {
		err := strict.validateURL(tc.url)
		if tc.wantErr == "" {
			assert.NoError(t, err, "url %q", tc.url)
		} else {
			assert.EqualError(t, err, tc.wantErr, "url %q", tc.url)
		}
		assert.NoError(t, relaxed.validateURL(tc.url), "relaxed url %q", tc.url)
	}
}

func TestGenerateSignature(t *testing.T) {
	engine := &Engine{}
	payload := []byte(`{"event_type":"message.received"}`)

	signature := engine.generateSignature(payload, "s3cret")
	assert.True(t, strings.HasPrefix(signature, "sha256="))
	assert.Len(t, signature, len("sha256=")+64)

	mac := hmac.New(sha256.New, []byte("s3cret"))
	mac.Write(payload)
	assert.Equal(t, "sha256="+hex.EncodeToString(mac.Sum(nil)), signature)

	assert.NotEqual(t, signature, engine.generateSignature(payload, "other-secret"))
}

func TestShouldDispatch(t *testing.T) {
	engine := &Engine{}

	catchAll := Webhook{Events: nil}
	assert.True(t, engine.shouldDispatch(catchAll, EventMessageReceived))
	assert.True(t, engine.shouldDispatch(catchAll, EventConnectionLoggedOut))

	filtered := Webhook{Events: []EventType{EventMessageReceived, EventMessageRead}}
	assert.True(t, engine.shouldDispatch(filtered, EventMessageReceived))
	assert.False(t, engine.shouldDispatch(filtered, EventConnectionConnected))
	assert.False(t, engine.shouldDispatch(filtered, EventTestPing))
}
