package internal

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/env"
	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/log"
	pkgWhatsApp "github.com/gdbrns/go-whatsapp-crm-gateway/pkg/whatsapp"
)

// Routines registers the recurring background jobs: session keep-alive,
// optional WhatsApp web version refresh and webhook delivery log pruning.
func Routines(cron *cron.Cron) {
	log.Print(nil).Info("Running Routine Tasks")

	if isHealthCheckEnabled() {
		_, err := cron.AddFunc("0 */5 * * * *", func() {
			if !pkgWhatsApp.WhatsAppHasClient() {
				return
			}
			if err := pkgWhatsApp.WhatsAppIsClientOK(); err != nil {
				log.Print(nil).Warn("Session unhealthy: " + err.Error())
				pkgWhatsApp.RequestReconnect("keep-alive")
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			pkgWhatsApp.WhatsAppPresence(ctx, true)
			_ = pkgWhatsApp.TouchSessionState(ctx)
		})
		if err != nil {
			log.Print(nil).WithField("error", err.Error()).Error("Failed to add keep-alive cron job")
		}
	} else {
		log.Print(nil).Info("Keep-alive cron disabled; relying on whatsmeow event handlers")
	}

	if isWAVersionRefreshCronEnabled() {
		spec := getWAVersionRefreshCronSpec()
		force := getWAVersionRefreshCronForce()
		_, err := cron.AddFunc(spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			status, refreshed, err := pkgWhatsApp.WhatsAppRefreshWAVersion(ctx, force)
			v := status.CurrentVersion
			versionStr := strconv.FormatUint(uint64(v[0]), 10) + "." + strconv.FormatUint(uint64(v[1]), 10) + "." + strconv.FormatUint(uint64(v[2]), 10)
			if err != nil {
				log.Print(nil).WithField("version", versionStr).WithField("force", force).Error("WA Web version refresh failed: " + err.Error())
				return
			}
			log.Print(nil).WithField("version", versionStr).WithField("refreshed", refreshed).WithField("force", force).Info("WA Web version refresh completed")
		})
		if err != nil {
			log.Print(nil).WithField("error", err.Error()).Error("Failed to add WA Web version refresh cron job")
		} else {
			log.Print(nil).WithField("spec", spec).WithField("force", force).Info("WA Web version refresh cron enabled")
		}
	}

	retention := env.GetEnvDurationOrDefault("WEBHOOK_DELIVERY_RETENTION", 30*24*time.Hour)
	_, err := cron.AddFunc("0 0 4 * * *", func() {
		engine := pkgWhatsApp.GetWebhookEngine()
		if engine == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		pruned, err := engine.Store().PruneDeliveries(ctx, retention)
		if err != nil {
			log.SysErr("webhook", err).Error("Failed to prune webhook delivery logs")
			return
		}
		if pruned > 0 {
			log.Print(nil).WithField("pruned", pruned).Info("Pruned old webhook delivery logs")
		}
	})
	if err != nil {
		log.Print(nil).WithField("error", err.Error()).Error("Failed to add delivery log prune cron job")
	}

	cron.Start()
}

func isHealthCheckEnabled() bool {
	envValue, ok := os.LookupEnv("WHATSAPP_ENABLE_HEALTH_CHECK_CRON")
	if !ok {
		// Default to true - keeps the session state in sync with the actual connection
		return true
	}
	enabled, err := strconv.ParseBool(envValue)
	if err != nil {
		log.Print(nil).Warn("Invalid WHATSAPP_ENABLE_HEALTH_CHECK_CRON value; defaulting to enabled")
		return true
	}
	return enabled
}

func isWAVersionRefreshCronEnabled() bool {
	envValue, ok := os.LookupEnv("WHATSAPP_ENABLE_WAVERSION_REFRESH_CRON")
	if !ok {
		return false
	}
	enabled, err := strconv.ParseBool(strings.TrimSpace(envValue))
	if err != nil {
		log.Print(nil).Warn("Invalid WHATSAPP_ENABLE_WAVERSION_REFRESH_CRON value; defaulting to disabled")
		return false
	}
	return enabled
}

func getWAVersionRefreshCronSpec() string {
	// robfig/cron with seconds field (6 parts). Default: daily at 03:00:00.
	spec := strings.TrimSpace(os.Getenv("WHATSAPP_WAVERSION_REFRESH_CRON_SPEC"))
	if spec == "" {
		return "0 0 3 * * *"
	}
	return spec
}

func getWAVersionRefreshCronForce() bool {
	// Default: false (respects WHATSAPP_WAVERSION_REFRESH_MIN_INTERVAL throttling).
	raw := strings.TrimSpace(os.Getenv("WHATSAPP_WAVERSION_REFRESH_CRON_FORCE"))
	if raw == "" {
		return false
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false
	}
	return b
}
