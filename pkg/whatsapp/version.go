package whatsapp

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store"
	"golang.org/x/sync/singleflight"

	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/env"
	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/log"
)

var ErrWAVersionOutdatedForQR = errors.New("whatsapp client version is outdated for QR pairing")

type WAVersionRefreshStatus struct {
	CurrentVersion store.WAVersionContainer `json:"current_version"`
	LastRefreshed  *time.Time               `json:"last_refreshed,omitempty"`
	LastError      string                   `json:"last_error,omitempty"`
}

var (
	waVersionRefreshGroup singleflight.Group

	waVersionRefreshMu       sync.RWMutex
	waVersionLastRefreshedAt *time.Time
	waVersionLastError       string
)

func getWAVersionRefreshMinInterval() time.Duration {
	// Conservative default to avoid hammering the endpoint
	return env.GetEnvDurationOrDefault("WHATSAPP_WAVERSION_REFRESH_MIN_INTERVAL", 10*time.Minute)
}

func WhatsAppGetWAVersionRefreshStatus() WAVersionRefreshStatus {
	waVersionRefreshMu.RLock()
	defer waVersionRefreshMu.RUnlock()

	current := store.GetWAVersion()
	var last *time.Time
	if waVersionLastRefreshedAt != nil {
		t := *waVersionLastRefreshedAt
		last = &t
	}

	return WAVersionRefreshStatus{
		CurrentVersion: current,
		LastRefreshed:  last,
		LastError:      waVersionLastError,
	}
}

// WhatsAppRefreshWAVersion fetches the latest WhatsApp Web version and applies it globally via store.SetWAVersion.
// If force=false, it will be throttled by WHATSAPP_WAVERSION_REFRESH_MIN_INTERVAL (default 10m).
// The second return value reports whether a refresh was actually attempted.
func WhatsAppRefreshWAVersion(ctx context.Context, force bool) (WAVersionRefreshStatus, bool, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	minInterval := getWAVersionRefreshMinInterval()
	if !force && minInterval > 0 {
		waVersionRefreshMu.RLock()
		last := waVersionLastRefreshedAt
		waVersionRefreshMu.RUnlock()
		if last != nil && time.Since(*last) < minInterval {
			return WhatsAppGetWAVersionRefreshStatus(), false, nil
		}
	}

	_, err, _ := waVersionRefreshGroup.Do("refresh", func() (interface{}, error) {
		httpClient := &http.Client{Timeout: 15 * time.Second}
		latest, err := whatsmeow.GetLatestVersion(ctx, httpClient)
		if err != nil {
			recordWAVersionRefresh(err)
			return nil, err
		}
		if latest == nil {
			err := errors.New("latest WhatsApp Web version is nil")
			recordWAVersionRefresh(err)
			return nil, err
		}

		store.SetWAVersion(*latest)
		recordWAVersionRefresh(nil)

		log.Print(nil).Info("Refreshed WhatsApp Web version to " + latest.String())

		return store.GetWAVersion(), nil
	})
	if err != nil {
		return WhatsAppGetWAVersionRefreshStatus(), true, err
	}

	return WhatsAppGetWAVersionRefreshStatus(), true, nil
}

func recordWAVersionRefresh(err error) {
	waVersionRefreshMu.Lock()
	now := time.Now()
	waVersionLastRefreshedAt = &now
	if err != nil {
		waVersionLastError = err.Error()
	} else {
		waVersionLastError = ""
	}
	waVersionRefreshMu.Unlock()
}
