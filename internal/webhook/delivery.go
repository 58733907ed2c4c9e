package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/env"
	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/log"
)

// Engine fans events out to every matching subscription through a bounded
// worker pool. Delivery is at-most-once per subscription: when the queue is
// full the event is dropped and logged rather than blocking the caller.
type Engine struct {
	store         *Store
	httpClient    *http.Client
	queue         chan *deliveryTask
	workers       int
	retryLimit    int
	enabled       bool
	allowInsecure bool
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

type deliveryTask struct {
	webhook Webhook
	event   Event
	eventID string
}

func NewEngine(store *Store) *Engine {
	workers := env.GetEnvIntOrDefault("WEBHOOK_WORKERS", 4)
	if workers <= 0 {
		workers = 4
	}
	retryLimit := env.GetEnvIntOrDefault("WEBHOOK_RETRY_LIMIT", 3)
	if retryLimit <= 0 {
		retryLimit = 3
	}
	enabled := env.GetEnvBoolOrDefault("WEBHOOKS_ENABLED", true)
	allowInsecure := env.GetEnvBoolOrDefault("WEBHOOK_ALLOW_INSECURE_URLS", false)

	ctx, cancel := context.WithCancel(context.Background())

	engine := &Engine{
		store:         store,
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		queue:         make(chan *deliveryTask, 1000),
		workers:       workers,
		retryLimit:    retryLimit,
		enabled:       enabled,
		allowInsecure: allowInsecure,
		ctx:           ctx,
		cancel:        cancel,
	}

	if enabled {
		for i := 0; i < workers; i++ {
			engine.wg.Add(1)
			go engine.worker()
		}
	}

	return engine
}

func (e *Engine) Store() *Store {
	return e.store
}

func (e *Engine) Shutdown() {
	e.cancel()
	close(e.queue)
	e.wg.Wait()
}

// Dispatch fans an event out to all active subscriptions whose event filter
// matches. It never blocks the protocol event loop.
func (e *Engine) Dispatch(ctx context.Context, event Event) {
	if !e.enabled {
		return
	}

	webhooks, err := e.store.GetActiveWebhooks(ctx)
	if err != nil {
		log.SysErr("wh-fetch", err).Error("Failed to load active webhooks")
		return
	}

	eventID, _ := event.Data["message_id"].(string)

	dispatched := 0
	for _, wh := range webhooks {
		if !e.shouldDispatch(wh, event.EventType) {
			continue
		}
		select {
		case e.queue <- &deliveryTask{webhook: wh, event: event, eventID: eventID}:
			dispatched++
		default:
			log.Evt("wh.queue_full", "").Warn("Webhook queue full, dropping " + string(event.EventType))
		}
	}

	if dispatched > 0 {
		log.WH(string(event.EventType), eventID, dispatched).Info("Webhook event dispatched")
	}
}

// DispatchTest sends a test.ping event to one subscription, bypassing the
// event filter and the active flag so disabled endpoints can be probed.
func (e *Engine) DispatchTest(ctx context.Context, webhookID int64) error {
	wh, err := e.store.GetWebhook(ctx, webhookID)
	if err != nil {
		return err
	}

	event := Event{
		EventType: EventTestPing,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"webhook_id": webhookID,
		},
	}

	select {
	case e.queue <- &deliveryTask{webhook: *wh, event: event}:
		return nil
	default:
		return fmt.Errorf("webhook delivery queue is full")
	}
}

func (e *Engine) shouldDispatch(wh Webhook, eventType EventType) bool {
	if len(wh.Events) == 0 {
		return true
	}
	for _, evt := range wh.Events {
		if evt == eventType {
			return true
		}
	}
	return false
}

func (e *Engine) worker() {
	defer e.wg.Done()
	for {
		select {
		case <-e.ctx.Done():
			return
		case task, ok := <-e.queue:
			if !ok {
				return
			}
			e.deliver(task)
		}
	}
}

func (e *Engine) deliver(task *deliveryTask) {
	if err := e.validateURL(task.webhook.URL); err != nil {
		log.WHACK(string(task.event.EventType), task.eventID, task.webhook.ID, false, 0).Warn("Webhook URL rejected: " + err.Error())
		_ = e.store.LogDelivery(context.Background(), task.webhook.ID, task.event.EventType, DeliveryFailed, 0, err.Error())
		return
	}

	payload, err := json.Marshal(task.event)
	if err != nil {
		log.SysErr("wh-marshal", err).Error("Failed to marshal webhook payload")
		return
	}

	signature := e.generateSignature(payload, task.webhook.Secret)

	var lastErr error
	for attempt := 1; attempt <= e.retryLimit; attempt++ {
		req, err := http.NewRequestWithContext(e.ctx, "POST", task.webhook.URL, bytes.NewReader(payload))
		if err != nil {
			lastErr = err
			continue
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Webhook-Signature", signature)
		req.Header.Set("X-Hub-Signature-256", signature)
		req.Header.Set("X-Webhook-Event", string(task.event.EventType))
		req.Header.Set("User-Agent", "WhatsApp-CRM-Gateway/1.0")

		resp, err := e.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if attempt < e.retryLimit {
				time.Sleep(time.Duration(attempt*2) * time.Second)
			}
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			_ = e.store.LogDelivery(context.Background(), task.webhook.ID, task.event.EventType, DeliverySuccess, attempt, "")
			log.WHACK(string(task.event.EventType), task.eventID, task.webhook.ID, true, attempt).Info("Webhook delivered")
			return
		}

		lastErr = fmt.Errorf("HTTP %d: %s", resp.StatusCode, truncateBody(body))
		if attempt < e.retryLimit {
			time.Sleep(time.Duration(attempt*2) * time.Second)
		}
	}

	errorMsg := ""
	if lastErr != nil {
		errorMsg = lastErr.Error()
	}
	_ = e.store.LogDelivery(context.Background(), task.webhook.ID, task.event.EventType, DeliveryFailed, e.retryLimit, errorMsg)
	log.WHACK(string(task.event.EventType), task.eventID, task.webhook.ID, false, e.retryLimit).Warn("Webhook delivery failed: " + errorMsg)
}

func (e *Engine) generateSignature(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// validateURL enforces HTTPS targets on public hosts. The development
// override WEBHOOK_ALLOW_INSECURE_URLS lifts both checks.
func (e *Engine) validateURL(rawURL string) error {
	if e.allowInsecure {
		return nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}

	if u.Scheme != "https" {
		return fmt.Errorf("only HTTPS URLs are allowed")
	}

	host := strings.ToLower(u.Hostname())
	if host == "localhost" || host == "127.0.0.1" || host == "0.0.0.0" || strings.HasPrefix(host, "192.168.") || strings.HasPrefix(host, "10.") || strings.HasPrefix(host, "172.") {
		return fmt.Errorf("private/local network URLs are not allowed")
	}

	return nil
}

func truncateBody(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
