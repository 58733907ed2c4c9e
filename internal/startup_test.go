package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	pkgWhatsApp "github.com/gdbrns/go-whatsapp-crm-gateway/pkg/whatsapp"
)

func TestRetryBackoff(t *testing.T) {
	tests := []struct {
		name    string
		attempt int
		base    time.Duration
		max     time.Duration
		want    time.Duration
	}{
		{"first attempt", 1, 2 * time.Second, 2 * time.Minute, 2 * time.Second},
		{"second attempt doubles", 2, 2 * time.Second, 2 * time.Minute, 4 * time.Second},
		{"fourth attempt", 4, 2 * time.Second, 2 * time.Minute, 16 * time.Second},
		{"capped at max", 8, 2 * time.Second, 2 * time.Minute, 2 * time.Minute},
		{"zero base falls back", 1, 0, time.Minute, 2 * time.Second},
		{"zero max falls back", 10, time.Second, 0, 2 * time.Minute},
		{"shift overflow saturates", 70, 2 * time.Second, time.Minute, time.Minute},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, retryBackoff(tc.attempt, tc.base, tc.max))
		})
	}
}

func TestReconnectWithRetryWithoutClient(t *testing.T) {
	// No client is initialized in tests, every attempt fails fast
	err := reconnectWithRetry(1, time.Millisecond, 2*time.Millisecond)
	assert.ErrorIs(t, err, pkgWhatsApp.ErrNoClient)

	err = reconnectWithRetry(3, time.Millisecond, 2*time.Millisecond)
	assert.ErrorIs(t, err, pkgWhatsApp.ErrNoClient)
}
