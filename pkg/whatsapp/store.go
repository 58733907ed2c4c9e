package whatsapp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"errors"
	"sync"
	"time"
)

// GatewayToken represents an API credential for the gateway REST surface.
// The secret is only returned on creation and regeneration.
type GatewayToken struct {
	ID          int64      `json:"id"`
	TokenSecret string     `json:"token_secret,omitempty"`
	Label       string     `json:"label"`
	JWTVersion  int        `json:"jwt_version,omitempty"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
	LastUsedAt  *time.Time `json:"last_used_at,omitempty"`
}

// SessionState is the persisted pairing state of the single WhatsApp session.
// It survives restarts so the gateway knows whether to restore the connection.
type SessionState struct {
	JID       string    `json:"jid"`
	Status    string    `json:"status"` // paired, connected, logged_out
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	gatewayDB     *sql.DB
	gatewayDBOnce sync.Once
	gatewayDBErr  error

	// Token Version Cache - prevents DB hit on every request
	tokenVersionCache    = make(map[int64]tokenVersionCacheEntry)
	tokenVersionCacheMu  sync.RWMutex
	tokenVersionCacheTTL = 30 * time.Second // Cache token version for 30 seconds
)

// tokenVersionCacheEntry caches token JWT version to avoid DB queries on every request
type tokenVersionCacheEntry struct {
	version   int
	expiresAt time.Time
}

// gatewayDialect reports the SQL dialect family used for gateway tables.
// Both pgx and lib/pq speak the postgres dialect.
func gatewayDialect() string {
	if datastoreDriver == "sqlite" {
		return "sqlite"
	}
	return "postgres"
}

// openGatewayDB opens the gateway-owned tables on the same datastore the
// WhatsApp client uses. Placeholders are written as $N with each ordinal
// appearing exactly once and in order, which binds identically on pgx,
// lib/pq and modernc sqlite.
func openGatewayDB() (*sql.DB, error) {
	gatewayDBOnce.Do(func() {
		driver := datastoreDriver
		dsn := datastoreDSN
		if driver == "" || dsn == "" {
			gatewayDBErr = errors.New("whatsapp datastore configuration not initialized")
			return
		}
		db, err := sql.Open(driver, dsn)
		if err != nil {
			gatewayDBErr = err
			return
		}
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(10 * time.Minute)
		db.SetConnMaxIdleTime(3 * time.Minute)
		if err = db.Ping(); err != nil {
			gatewayDBErr = err
			return
		}

		tokensDDL := `CREATE TABLE IF NOT EXISTS wa_gateway_tokens (
			id SERIAL PRIMARY KEY,
			token_secret VARCHAR(64) NOT NULL,
			label VARCHAR(255) NOT NULL,
			jwt_version INT NOT NULL DEFAULT 1,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			last_used_at TIMESTAMP
		)`
		if gatewayDialect() == "sqlite" {
			tokensDDL = `CREATE TABLE IF NOT EXISTS wa_gateway_tokens (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				token_secret TEXT NOT NULL,
				label TEXT NOT NULL,
				jwt_version INTEGER NOT NULL DEFAULT 1,
				is_active BOOLEAN NOT NULL DEFAULT TRUE,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				last_used_at TIMESTAMP
			)`
		}
		_, err = db.Exec(tokensDDL)
		if err != nil {
			gatewayDBErr = err
			return
		}

		// Single-row table, the CHECK keeps concurrent writers on the same row
		_, err = db.Exec(`CREATE TABLE IF NOT EXISTS wa_session_state (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			jid TEXT NOT NULL,
			status TEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`)
		if err != nil {
			gatewayDBErr = err
			return
		}

		_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_wa_gateway_tokens_active ON wa_gateway_tokens(is_active)`)
		if err != nil {
			gatewayDBErr = err
			return
		}

		gatewayDB = db
	})
	return gatewayDB, gatewayDBErr
}

// GenerateGatewayTokenSecret creates a cryptographically secure token secret
func GenerateGatewayTokenSecret() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// CreateGatewayToken creates a new gateway token and returns it with the
// plaintext secret. The secret is not retrievable afterwards.
func CreateGatewayToken(ctx context.Context, label string) (*GatewayToken, error) {
	db, err := openGatewayDB()
	if err != nil {
		return nil, err
	}

	secret, err := GenerateGatewayTokenSecret()
	if err != nil {
		return nil, err
	}

	token := &GatewayToken{
		TokenSecret: secret,
		Label:       label,
		JWTVersion:  1,
		IsActive:    true,
	}

	err = db.QueryRowContext(ctx, `
		INSERT INTO wa_gateway_tokens (token_secret, label)
		VALUES ($1, $2)
		RETURNING id, jwt_version, created_at
	`, secret, label).Scan(&token.ID, &token.JWTVersion, &token.CreatedAt)
	if err != nil {
		return nil, err
	}

	return token, nil
}

// GetGatewayTokenByID retrieves a token by ID. The secret is never included.
func GetGatewayTokenByID(ctx context.Context, tokenID int64) (*GatewayToken, error) {
	db, err := openGatewayDB()
	if err != nil {
		return nil, err
	}

	var token GatewayToken
	var updatedAt, lastUsedAt sql.NullTime

	err = db.QueryRowContext(ctx, `
		SELECT id, label, jwt_version, is_active, created_at, updated_at, last_used_at
		FROM wa_gateway_tokens
		WHERE id = $1
	`, tokenID).Scan(&token.ID, &token.Label, &token.JWTVersion, &token.IsActive, &token.CreatedAt, &updatedAt, &lastUsedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.New("gateway token not found")
	}
	if err != nil {
		return nil, err
	}

	if updatedAt.Valid {
		token.UpdatedAt = &updatedAt.Time
	}
	if lastUsedAt.Valid {
		token.LastUsedAt = &lastUsedAt.Time
	}

	return &token, nil
}

// ListGatewayTokens lists all tokens, newest first. Secrets are never included.
func ListGatewayTokens(ctx context.Context) ([]GatewayToken, error) {
	db, err := openGatewayDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, label, jwt_version, is_active, created_at, updated_at, last_used_at
		FROM wa_gateway_tokens
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tokens := make([]GatewayToken, 0)
	for rows.Next() {
		var token GatewayToken
		var updatedAt, lastUsedAt sql.NullTime
		if err := rows.Scan(&token.ID, &token.Label, &token.JWTVersion, &token.IsActive, &token.CreatedAt, &updatedAt, &lastUsedAt); err != nil {
			return nil, err
		}
		if updatedAt.Valid {
			token.UpdatedAt = &updatedAt.Time
		}
		if lastUsedAt.Valid {
			token.LastUsedAt = &lastUsedAt.Time
		}
		tokens = append(tokens, token)
	}

	return tokens, rows.Err()
}

// ValidateGatewayTokenCredentials checks a token ID and secret pair.
// The secret comparison is constant-time.
func ValidateGatewayTokenCredentials(ctx context.Context, tokenID int64, tokenSecret string) (*GatewayToken, error) {
	db, err := openGatewayDB()
	if err != nil {
		return nil, err
	}

	var token GatewayToken
	var storedSecret string
	var lastUsedAt sql.NullTime

	err = db.QueryRowContext(ctx, `
		SELECT id, token_secret, label, jwt_version, is_active, created_at, last_used_at
		FROM wa_gateway_tokens
		WHERE id = $1
	`, tokenID).Scan(&token.ID, &storedSecret, &token.Label, &token.JWTVersion, &token.IsActive, &token.CreatedAt, &lastUsedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.New("invalid token credentials")
	}
	if err != nil {
		return nil, err
	}

	if subtle.ConstantTimeCompare([]byte(storedSecret), []byte(tokenSecret)) != 1 {
		return nil, errors.New("invalid token credentials")
	}
	if !token.IsActive {
		return nil, errors.New("gateway token is disabled")
	}

	if lastUsedAt.Valid {
		token.LastUsedAt = &lastUsedAt.Time
	}

	// Update last_used_at
	_, _ = db.ExecContext(ctx, `UPDATE wa_gateway_tokens SET last_used_at = CURRENT_TIMESTAMP WHERE id = $1`, tokenID)

	return &token, nil
}

// UpdateGatewayToken updates the label and active flag of a token
func UpdateGatewayToken(ctx context.Context, tokenID int64, label string, isActive bool) error {
	db, err := openGatewayDB()
	if err != nil {
		return err
	}

	result, err := db.ExecContext(ctx, `
		UPDATE wa_gateway_tokens
		SET label = $1, is_active = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $3
	`, label, isActive, tokenID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errors.New("gateway token not found")
	}

	// Disabling a token must take effect before the version cache expires
	InvalidateTokenVersionCache(tokenID)

	return nil
}

// DeleteGatewayToken removes a token. JWTs minted from it stop validating
// once the version cache entry expires.
func DeleteGatewayToken(ctx context.Context, tokenID int64) error {
	db, err := openGatewayDB()
	if err != nil {
		return err
	}

	result, err := db.ExecContext(ctx, `DELETE FROM wa_gateway_tokens WHERE id = $1`, tokenID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errors.New("gateway token not found")
	}

	InvalidateTokenVersionCache(tokenID)

	return nil
}

// RegenerateGatewayTokenSecret replaces the secret and bumps the JWT version
// so previously issued JWTs stop validating. Returns the new plaintext secret.
func RegenerateGatewayTokenSecret(ctx context.Context, tokenID int64) (*GatewayToken, error) {
	db, err := openGatewayDB()
	if err != nil {
		return nil, err
	}

	secret, err := GenerateGatewayTokenSecret()
	if err != nil {
		return nil, err
	}

	var token GatewayToken
	err = db.QueryRowContext(ctx, `
		UPDATE wa_gateway_tokens
		SET token_secret = $1, jwt_version = jwt_version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2
		RETURNING id, label, jwt_version, is_active, created_at
	`, secret, tokenID).Scan(&token.ID, &token.Label, &token.JWTVersion, &token.IsActive, &token.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.New("gateway token not found")
	}
	if err != nil {
		return nil, err
	}

	token.TokenSecret = secret

	InvalidateTokenVersionCache(tokenID)

	return &token, nil
}

// GetGatewayTokenVersion gets the current jwt_version for a token (with caching).
// This is called on EVERY authenticated request, so caching is critical for performance.
// Disabled and deleted tokens fail here, which is what revokes their JWTs.
func GetGatewayTokenVersion(ctx context.Context, tokenID int64) (int, error) {
	// Check cache first (fast path - no DB hit)
	tokenVersionCacheMu.RLock()
	if entry, ok := tokenVersionCache[tokenID]; ok && time.Now().Before(entry.expiresAt) {
		tokenVersionCacheMu.RUnlock()
		return entry.version, nil
	}
	tokenVersionCacheMu.RUnlock()

	// Cache miss - fetch from DB
	db, err := openGatewayDB()
	if err != nil {
		return 0, err
	}

	var version int
	var isActive bool
	err = db.QueryRowContext(ctx, `SELECT jwt_version, is_active FROM wa_gateway_tokens WHERE id = $1`, tokenID).Scan(&version, &isActive)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, errors.New("gateway token not found")
	}
	if err != nil {
		return 0, err
	}
	if !isActive {
		return 0, errors.New("gateway token is disabled")
	}

	// Store in cache
	tokenVersionCacheMu.Lock()
	tokenVersionCache[tokenID] = tokenVersionCacheEntry{
		version:   version,
		expiresAt: time.Now().Add(tokenVersionCacheTTL),
	}
	tokenVersionCacheMu.Unlock()

	return version, nil
}

// InvalidateTokenVersionCache removes a token from the version cache.
// Call this when a token is revoked/regenerated.
func InvalidateTokenVersionCache(tokenID int64) {
	tokenVersionCacheMu.Lock()
	delete(tokenVersionCache, tokenID)
	tokenVersionCacheMu.Unlock()
}

// IncrementGatewayTokenVersion increments the jwt_version and returns the new version
func IncrementGatewayTokenVersion(ctx context.Context, tokenID int64) (int, error) {
	db, err := openGatewayDB()
	if err != nil {
		return 0, err
	}

	var newVersion int
	err = db.QueryRowContext(ctx, `
		UPDATE wa_gateway_tokens SET jwt_version = jwt_version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING jwt_version
	`, tokenID).Scan(&newVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, errors.New("gateway token not found")
	}
	if err != nil {
		return newVersion, err
	}

	// Invalidate cache so next request fetches new version
	InvalidateTokenVersionCache(tokenID)

	return newVersion, nil
}

// UpsertSessionState stores the paired JID and connection status
func UpsertSessionState(ctx context.Context, jid string, status string) error {
	db, err := openGatewayDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO wa_session_state (id, jid, status, updated_at)
		VALUES (1, $1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE SET jid = excluded.jid, status = excluded.status, updated_at = CURRENT_TIMESTAMP
	`, jid, status)

	return err
}

// GetSessionState returns the stored session state, or nil when the gateway
// has never been paired
func GetSessionState(ctx context.Context) (*SessionState, error) {
	db, err := openGatewayDB()
	if err != nil {
		return nil, err
	}

	var state SessionState
	err = db.QueryRowContext(ctx, `
		SELECT jid, status, updated_at FROM wa_session_state WHERE id = 1
	`).Scan(&state.JID, &state.Status, &state.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &state, nil
}

// TouchSessionState refreshes the stored state for the currently paired
// session so updated_at reflects liveness. No-op when nothing is paired.
func TouchSessionState(ctx context.Context) error {
	client, err := currentClient()
	if err != nil || client.Store.ID == nil {
		return nil
	}
	return UpsertSessionState(ctx, client.Store.ID.String(), "connected")
}

// ClearSessionState removes the stored session state after logout
func ClearSessionState(ctx context.Context) error {
	db, err := openGatewayDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `DELETE FROM wa_session_state WHERE id = 1`)

	return err
}

// GatewayStoreHealth pings the gateway database
func GatewayStoreHealth(ctx context.Context) error {
	db, err := openGatewayDB()
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}
