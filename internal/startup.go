package internal

import (
	"context"
	mathrand "math/rand/v2"
	"time"

	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/auth"
	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/env"
	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/log"
	pkgWhatsApp "github.com/gdbrns/go-whatsapp-crm-gateway/pkg/whatsapp"
)

// retryBackoff returns the delay before the next attempt, growing
// exponentially from base and capped at max.
func retryBackoff(attempt int, base time.Duration, max time.Duration) time.Duration {
	if base <= 0 {
		base = 2 * time.Second
	}
	if max <= 0 {
		max = 2 * time.Minute
	}
	backoff := base * time.Duration(1<<(attempt-1))
	if backoff > max || backoff <= 0 {
		backoff = max
	}
	return backoff
}

func reconnectWithRetry(retries int, baseBackoff time.Duration, maxBackoff time.Duration) error {
	if retries <= 1 {
		return pkgWhatsApp.WhatsAppReconnect()
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		lastErr = pkgWhatsApp.WhatsAppReconnect()
		if lastErr == nil {
			return nil
		}
		if attempt == retries {
			break
		}

		// Exponential backoff with small jitter.
		jitter := time.Duration(mathrand.Int64N(int64(500*time.Millisecond) + 1))
		time.Sleep(retryBackoff(attempt, baseBackoff, maxBackoff) + jitter)
	}
	return lastErr
}

func Startup() {
	log.Print(nil).Info("Running Startup Tasks")

	if auth.JWTSecretKey == "" {
		log.Print(nil).Fatal("JWT_SECRET_KEY is required (min 32 chars)")
	}

	ctx := context.Background()

	if err := pkgWhatsApp.GatewayStoreHealth(ctx); err != nil {
		log.SysErr("startup", err).Error("Gateway datastore is not reachable")
	}

	// Background TTL sweep over the message cache
	pkgWhatsApp.StartCacheCleanup(env.GetEnvDurationOrDefault("WHATSAPP_CACHE_SWEEP_INTERVAL", time.Hour))
	pkgWhatsApp.StartReconnectWatcher()

	if state, err := pkgWhatsApp.GetSessionState(ctx); err == nil && state != nil {
		log.Print(nil).
			WithField("status", state.Status).
			WithField("updated_at", state.UpdatedAt.Format(time.RFC3339)).
			Info("Found persisted session state")
	}

	device, err := pkgWhatsApp.WhatsAppDatastore.GetFirstDevice(ctx)
	if err != nil {
		log.SysErr("startup", err).Error("Failed to load WhatsApp session from datastore")
		return
	}

	// Init client before attempting reconnect.
	// The underlying function is idempotent and will no-op if client already exists.
	pkgWhatsApp.WhatsAppInitClient(device)

	if device.ID == nil {
		if env.GetEnvBoolOrDefault("WHATSAPP_STARTUP_QR_TERMINAL", false) {
			log.Print(nil).Info("No paired session found, rendering pairing QR to the terminal")
			go func() {
				if err := pkgWhatsApp.WhatsAppLoginTerminal(context.Background()); err != nil {
					log.SysErr("startup", err).Warn("Terminal QR pairing did not complete")
				}
			}()
		} else {
			log.Print(nil).Info("No paired session found, waiting for login via the API")
		}
		return
	}

	retries := env.GetEnvIntOrDefaultMin("WHATSAPP_STARTUP_RECONNECT_RETRIES", 5, 1)
	baseBackoff := env.GetEnvDurationOrDefault("WHATSAPP_STARTUP_RECONNECT_BACKOFF_BASE", 2*time.Second)
	maxBackoff := env.GetEnvDurationOrDefault("WHATSAPP_STARTUP_RECONNECT_BACKOFF_MAX", 2*time.Minute)

	maskJID := pkgWhatsApp.WhatsAppDecomposeJID(device.ID.User)
	if len(maskJID) > 4 {
		maskJID = maskJID[0:len(maskJID)-4] + "xxxx"
	}
	log.Print(nil).Info("Restoring WhatsApp session for " + maskJID)

	if err := reconnectWithRetry(retries, baseBackoff, maxBackoff); err != nil {
		log.SysErr("startup", err).Warn("Startup reconnect failed, the watcher retries on the next connection event")
		return
	}

	log.Print(nil).Info("Startup reconnect complete for " + maskJID)
}
