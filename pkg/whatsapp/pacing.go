package whatsapp

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/env"
)

// Outbound sends are paced to keep the account off WhatsApp's flood radar.
// WHATSAPP_SEND_RATE_PER_MINUTE=0 disables pacing entirely.
var sendLimiter *rate.Limiter

func initSendLimiter() {
	perMinute := env.GetEnvIntOrDefault("WHATSAPP_SEND_RATE_PER_MINUTE", 20)
	if perMinute <= 0 {
		sendLimiter = nil
		return
	}
	burst := env.GetEnvIntOrDefault("WHATSAPP_SEND_BURST", 5)
	if burst < 1 {
		burst = 1
	}
	sendLimiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst)
}

func waitSendSlot(ctx context.Context) error {
	if sendLimiter == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return sendLimiter.Wait(ctx)
}
