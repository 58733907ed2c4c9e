package log

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

var logger = logrus.New()

func init() {
	logger.Formatter = &logrus.TextFormatter{
		TimestampFormat: time.RFC3339,
		FullTimestamp:   true,
		DisableColors:   false,
		ForceColors:     true,
	}
}

func Print(c *fiber.Ctx) *logrus.Entry {
	if c == nil {
		return logger.WithFields(logrus.Fields{})
	}

	remoteIP := c.IP()
	if v := c.Locals("remote_ip"); v != nil {
		if ip, ok := v.(string); ok && ip != "" {
			remoteIP = ip
		}
	}
	return logger.WithFields(logrus.Fields{
		"remote_ip": remoteIP,
		"method":    c.Method(),
		"uri":       c.OriginalURL(),
	})
}

// SessionOp tags session lifecycle handlers (login, pair, reconnect, logout)
func SessionOp(c *fiber.Ctx, op string) *logrus.Entry {
	return Print(c).WithField("op", op)
}

// MessageOp tags message handlers with the target chat
func MessageOp(c *fiber.Ctx, op string, chat string) *logrus.Entry {
	return Print(c).WithFields(logrus.Fields{
		"op":   op,
		"chat": chat,
	})
}

// GroupOp tags group handlers with the target group JID
func GroupOp(c *fiber.Ctx, op string, group string) *logrus.Entry {
	return Print(c).WithFields(logrus.Fields{
		"op":    op,
		"group": group,
	})
}

// TokenOp tags admin token management handlers
func TokenOp(c *fiber.Ctx, op string) *logrus.Entry {
	return Print(c).WithField("op", op)
}

// WebhookOp tags webhook CRUD handlers with the subscription row id
func WebhookOp(c *fiber.Ctx, op string, id int64) *logrus.Entry {
	return Print(c).WithFields(logrus.Fields{
		"op":         op,
		"webhook_id": id,
	})
}

// Evt tags connection watcher and protocol event processing (no request context)
func Evt(evt string, chat string) *logrus.Entry {
	f := logrus.Fields{"event": evt}
	if chat != "" {
		f["chat"] = chat
	}
	return logger.WithFields(f)
}

// WH tags webhook dispatch fan-out (event type, event id, subscriptions matched)
func WH(evt string, id string, count int) *logrus.Entry {
	return logger.WithFields(logrus.Fields{
		"event":    evt,
		"event_id": id,
		"matched":  count,
	})
}

// WHACK tags a finished webhook delivery attempt chain
func WHACK(evt string, id string, webhookID int64, ok bool, attempts int) *logrus.Entry {
	return logger.WithFields(logrus.Fields{
		"event":      evt,
		"event_id":   id,
		"webhook_id": webhookID,
		"delivered":  ok,
		"attempts":   attempts,
	})
}

// SysErr tags background failures outside any request
func SysErr(tag string, err error) *logrus.Entry {
	return logger.WithFields(logrus.Fields{
		"module": tag,
		"error":  err,
	})
}
