package webhook

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := sql.Open("sqlite", "file:"+filepath.Join(t.TempDir(), "webhooks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := NewStore(db, "sqlite")
	require.NoError(t, err)
	return store
}

func TestWebhookCRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.CreateWebhook(ctx, "https://crm.example.com/hooks/wa", "whsec_abc123", []EventType{EventMessageReceived, EventMessageRead})
	require.NoError(t, err)
	require.Greater(t, id, int64(0))

	second, err := store.CreateWebhook(ctx, "https://backup.example.com/hooks", "whsec_def456", nil)
	require.NoError(t, err)
	require.Greater(t, second, id)

	wh, err := store.GetWebhook(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "https://crm.example.com/hooks/wa", wh.URL)
	assert.Equal(t, "whsec_abc123", wh.Secret)
	assert.Equal(t, []EventType{EventMessageReceived, EventMessageRead}, wh.Events)
	assert.True(t, wh.Active)
	assert.False(t, wh.CreatedAt.IsZero())

	all, err := store.GetAllWebhooks(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = store.GetWebhook(ctx, 9999)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	err = store.UpdateWebhook(ctx, id, "https://crm.example.com/hooks/v2", "whsec_rotated", []EventType{EventConnectionConnected}, false)
	require.NoError(t, err)

	wh, err = store.GetWebhook(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "https://crm.example.com/hooks/v2", wh.URL)
	assert.Equal(t, "whsec_rotated", wh.Secret)
	assert.Equal(t, []EventType{EventConnectionConnected}, wh.Events)
	assert.False(t, wh.Active)

	err = store.UpdateWebhook(ctx, 9999, "https://x.example.com", "s", nil, true)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, store.DeleteWebhook(ctx, second))
	assert.ErrorIs(t, store.DeleteWebhook(ctx, second), sql.ErrNoRows)

	all, err = store.GetAllWebhooks(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGetActiveWebhooksFiltersAndCaches(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	activeID, err := store.CreateWebhook(ctx, "https://crm.example.com/hooks/wa", "s1", nil)
	require.NoError(t, err)
	dormantID, err := store.CreateWebhook(ctx, "https://old.example.com/hooks", "s2", nil)
	require.NoError(t, err)
	require.NoError(t, store.UpdateWebhook(ctx, dormantID, "https://old.example.com/hooks", "s2", nil, false))

	active, err := store.GetActiveWebhooks(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, activeID, active[0].ID)

	// Insert behind the store's back, the cached snapshot keeps serving
	_, err = store.db.ExecContext(ctx, `
		INSERT INTO wa_webhooks (url, secret, events, active, created_at, updated_at)
		VALUES ('https://sneaky.example.com', 's3', '[]', TRUE, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`)
	require.NoError(t, err)

	active, err = store.GetActiveWebhooks(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	store.invalidateActiveCache()
	active, err = store.GetActiveWebhooks(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestDeliveryLogs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	webhookID, err := store.CreateWebhook(ctx, "https://crm.example.com/hooks/wa", "s1", nil)
	require.NoError(t, err)

	require.NoError(t, store.LogDelivery(ctx, webhookID, EventMessageReceived, DeliverySuccess, 1, ""))
	require.NoError(t, store.LogDelivery(ctx, webhookID, EventMessageRead, DeliverySuccess, 2, ""))
	require.NoError(t, store.LogDelivery(ctx, webhookID, EventConnectionDisconnected, DeliveryFailed, 3, "HTTP 503: upstream sad"))

	logs, err := store.GetDeliveryLogs(ctx, webhookID, 0)
	require.NoError(t, err)
	require.Len(t, logs, 3)

	byEvent := make(map[EventType]Delivery, len(logs))
	for _, entry := range logs {
		assert.Equal(t, webhookID, entry.WebhookID)
		assert.False(t, entry.CreatedAt.IsZero())
		byEvent[entry.EventType] = entry
	}
	assert.Equal(t, DeliverySuccess, byEvent[EventMessageReceived].Status)
	assert.Equal(t, 2, byEvent[EventMessageRead].AttemptCount)
	assert.Equal(t, DeliveryFailed, byEvent[EventConnectionDisconnected].Status)
	assert.Equal(t, "HTTP 503: upstream sad", byEvent[EventConnectionDisconnected].LastError)

	limited, err := store.GetDeliveryLogs(ctx, webhookID, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	other, err := store.GetDeliveryLogs(ctx, webhookID+100, 0)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestPruneDeliveries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	webhookID, err := store.CreateWebhook(ctx, "https://crm.example.com/hooks/wa", "s1", nil)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.LogDelivery(ctx, webhookID, EventMessageReceived, DeliverySuccess, 1, ""))
	}

	// Fresh rows survive a 30 day retention window
	pruned, err := store.PruneDeliveries(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pruned)

	// A cutoff in the future removes everything
	pruned, err = store.PruneDeliveries(ctx, -48*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(3), pruned)

	logs, err := store.GetDeliveryLogs(ctx, webhookID, 0)
	require.NoError(t, err)
	assert.Empty(t, logs)
}
