package webhook

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/env"
)

// Store persists webhook subscriptions and delivery logs on the same
// database the rest of the gateway uses. Events are stored JSON-encoded in a
// TEXT column so every statement stays portable across postgres and sqlite.
type Store struct {
	db             *sql.DB
	cacheMu        sync.RWMutex
	activeCache    []Webhook
	activeCachedAt time.Time
	activeCacheTTL time.Duration
}

func NewStore(db *sql.DB, dialect string) (*Store, error) {
	if err := ensureSchema(db, dialect); err != nil {
		return nil, err
	}

	ttlSeconds := env.GetEnvIntOrDefault("WEBHOOK_CACHE_TTL_SECONDS", 15)
	if ttlSeconds < 0 {
		ttlSeconds = 0
	}
	return &Store{
		db:             db,
		activeCacheTTL: time.Duration(ttlSeconds) * time.Second,
	}, nil
}

func ensureSchema(db *sql.DB, dialect string) error {
	webhooksDDL := `CREATE TABLE IF NOT EXISTS wa_webhooks (
		id SERIAL PRIMARY KEY,
		url TEXT NOT NULL,
		secret TEXT NOT NULL,
		events TEXT NOT NULL DEFAULT '[]',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`
	deliveriesDDL := `CREATE TABLE IF NOT EXISTS wa_webhook_deliveries (
		id SERIAL PRIMARY KEY,
		webhook_id INT NOT NULL,
		event_type TEXT NOT NULL,
		status TEXT NOT NULL,
		attempt_count INT NOT NULL DEFAULT 0,
		last_error TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`
	if dialect == "sqlite" {
		webhooksDDL = `CREATE TABLE IF NOT EXISTS wa_webhooks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			url TEXT NOT NULL,
			secret TEXT NOT NULL,
			events TEXT NOT NULL DEFAULT '[]',
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`
		deliveriesDDL = `CREATE TABLE IF NOT EXISTS wa_webhook_deliveries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			webhook_id INTEGER NOT NULL,
			event_type TEXT NOT NULL,
			status TEXT NOT NULL,
			attempt_count INTEGER NOT NULL DEFAULT 0,
			last_error TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`
	}

	if _, err := db.Exec(webhooksDDL); err != nil {
		return err
	}
	if _, err := db.Exec(deliveriesDDL); err != nil {
		return err
	}
	_, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_wa_webhook_deliveries_webhook ON wa_webhook_deliveries(webhook_id, created_at)`)
	return err
}

func (s *Store) getActiveCache() ([]Webhook, bool) {
	if s.activeCacheTTL <= 0 {
		return nil, false
	}
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	if s.activeCache == nil || time.Since(s.activeCachedAt) > s.activeCacheTTL {
		return nil, false
	}
	return s.activeCache, true
}

func (s *Store) setActiveCache(webhooks []Webhook) {
	if s.activeCacheTTL <= 0 {
		return
	}
	s.cacheMu.Lock()
	s.activeCache = webhooks
	s.activeCachedAt = time.Now()
	s.cacheMu.Unlock()
}

func (s *Store) invalidateActiveCache() {
	s.cacheMu.Lock()
	s.activeCache = nil
	s.cacheMu.Unlock()
}

func scanWebhookRows(rows *sql.Rows) ([]Webhook, error) {
	var webhooks []Webhook
	for rows.Next() {
		var w Webhook
		var eventsJSON []byte
		if err := rows.Scan(&w.ID, &w.URL, &w.Secret, &eventsJSON, &w.Active, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(eventsJSON, &w.Events); err != nil {
			return nil, err
		}
		webhooks = append(webhooks, w)
	}
	return webhooks, rows.Err()
}

func (s *Store) GetAllWebhooks(ctx context.Context) ([]Webhook, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, url, secret, events, active, created_at, updated_at
		FROM wa_webhooks
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanWebhookRows(rows)
}

func (s *Store) GetActiveWebhooks(ctx context.Context) ([]Webhook, error) {
	if cached, ok := s.getActiveCache(); ok {
		return cached, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, url, secret, events, active, created_at, updated_at
		FROM wa_webhooks
		WHERE active = TRUE
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	webhooks, err := scanWebhookRows(rows)
	if err != nil {
		return nil, err
	}
	s.setActiveCache(webhooks)
	return webhooks, nil
}

func (s *Store) GetWebhook(ctx context.Context, webhookID int64) (*Webhook, error) {
	var w Webhook
	var eventsJSON []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT id, url, secret, events, active, created_at, updated_at
		FROM wa_webhooks
		WHERE id = $1
	`, webhookID).Scan(&w.ID, &w.URL, &w.Secret, &eventsJSON, &w.Active, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(eventsJSON, &w.Events); err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *Store) CreateWebhook(ctx context.Context, url string, secret string, events []EventType) (int64, error) {
	eventsJSON, err := json.Marshal(events)
	if err != nil {
		return 0, err
	}

	var id int64
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO wa_webhooks (url, secret, events, active, created_at, updated_at)
		VALUES ($1, $2, $3, TRUE, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id
	`, url, secret, string(eventsJSON)).Scan(&id)
	if err == nil {
		s.invalidateActiveCache()
	}
	return id, err
}

func (s *Store) UpdateWebhook(ctx context.Context, webhookID int64, url string, secret string, events []EventType, active bool) error {
	eventsJSON, err := json.Marshal(events)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE wa_webhooks
		SET url = $1, secret = $2, events = $3, active = $4, updated_at = CURRENT_TIMESTAMP
		WHERE id = $5
	`, url, secret, string(eventsJSON), active, webhookID)
	if err != nil {
		return err
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	s.invalidateActiveCache()
	return nil
}

func (s *Store) DeleteWebhook(ctx context.Context, webhookID int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM wa_webhooks WHERE id = $1
	`, webhookID)
	if err != nil {
		return err
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	s.invalidateActiveCache()
	return nil
}

func (s *Store) LogDelivery(ctx context.Context, webhookID int64, eventType EventType, status DeliveryStatus, attemptCount int, lastError string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO wa_webhook_deliveries (webhook_id, event_type, status, attempt_count, last_error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, webhookID, string(eventType), string(status), attemptCount, lastError)
	return err
}

func (s *Store) GetDeliveryLogs(ctx context.Context, webhookID int64, limit int) ([]Delivery, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, webhook_id, event_type, status, attempt_count, last_error, created_at, updated_at
		FROM wa_webhook_deliveries
		WHERE webhook_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, webhookID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []Delivery
	for rows.Next() {
		var d Delivery
		var lastError sql.NullString
		if err := rows.Scan(&d.ID, &d.WebhookID, &d.EventType, &d.Status, &d.AttemptCount, &lastError, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		if lastError.Valid {
			d.LastError = lastError.String
		}
		logs = append(logs, d)
	}
	return logs, rows.Err()
}

// PruneDeliveries drops delivery logs older than maxAge. Returns how many
// rows were removed.
func (s *Store) PruneDeliveries(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge)
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM wa_webhook_deliveries WHERE created_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
