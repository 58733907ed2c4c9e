package whatsapp

import (
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/env"
	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/log"
)

// Reconnection is driven entirely by library-emitted connection events: the
// event handler files a request here and the watcher works through it with
// exponential backoff. The client's own auto reconnect stays disabled so
// this loop is the single owner.

var (
	reconnectRequests = make(chan string, 1)
	watcherOnce       sync.Once

	reconnectAttempts atomic.Uint32
	reconnectFailures atomic.Uint32

	connStateMu        sync.Mutex
	lastConnectedAt    *time.Time
	lastDisconnectedAt *time.Time
)

func markConnected() {
	reconnectFailures.Store(0)
	now := time.Now()
	connStateMu.Lock()
	lastConnectedAt = &now
	connStateMu.Unlock()
}

func markDisconnected() {
	now := time.Now()
	connStateMu.Lock()
	lastDisconnectedAt = &now
	connStateMu.Unlock()
}

func reconnectCounters() (attempts uint32, failures uint32, connectedAt *time.Time, disconnectedAt *time.Time) {
	connStateMu.Lock()
	if lastConnectedAt != nil {
		t := *lastConnectedAt
		connectedAt = &t
	}
	if lastDisconnectedAt != nil {
		t := *lastDisconnectedAt
		disconnectedAt = &t
	}
	connStateMu.Unlock()
	return reconnectAttempts.Load(), reconnectFailures.Load(), connectedAt, disconnectedAt
}

// requestReconnect files a reconnect request without blocking the event
// handler. A request already in flight absorbs the new one.
func requestReconnect(reason string) {
	select {
	case reconnectRequests <- reason:
	default:
	}
}

// RequestReconnect lets the keep-alive cron nudge the watcher.
func RequestReconnect(reason string) {
	requestReconnect(reason)
}

// StartReconnectWatcher launches the watcher goroutine. Safe to call more
// than once.
func StartReconnectWatcher() {
	watcherOnce.Do(func() {
		go func() {
			for reason := range reconnectRequests {
				if reason == "disconnected" {
					// Give transient network blips room to settle before
					// the first attempt
					delay := time.Duration(5+rand.Intn(11)) * time.Second
					log.Evt("reconnect", "").Info("Disconnect noticed, first attempt in " + delay.String())
					time.Sleep(delay)
				}
				runReconnectCycle(reason)
			}
		}()
	})
}

func runReconnectCycle(reason string) {
	retries := env.GetEnvIntOrDefault("WHATSAPP_RECONNECT_RETRIES", 5)
	if retries < 1 {
		retries = 1
	}
	baseBackoff := env.GetEnvDurationOrDefault("WHATSAPP_RECONNECT_BACKOFF", 2*time.Second)
	maxBackoff := env.GetEnvDurationOrDefault("WHATSAPP_RECONNECT_BACKOFF_MAX", 2*time.Minute)

	for attempt := 1; attempt <= retries; attempt++ {
		client, err := currentClient()
		if err != nil {
			// Logged out while waiting, nothing to reconnect
			return
		}
		if client.Store.ID == nil {
			return
		}
		if client.IsConnected() {
			reconnectFailures.Store(0)
			return
		}

		reconnectAttempts.Add(1)
		log.Evt("reconnect", "").Info(fmt.Sprintf("Reconnect attempt %d/%d (%s)", attempt, retries, reason))

		err = client.Connect()
		if err == nil {
			log.Evt("reconnect", "").Info(fmt.Sprintf("Reconnect succeeded on attempt %d", attempt))
			return
		}

		reconnectFailures.Add(1)
		log.SysErr("reconnect", err).Warn("Reconnect attempt failed")

		if attempt == retries {
			break
		}

		backoff := baseBackoff * (1 << uint(attempt-1))
		if backoff <= 0 || backoff > maxBackoff {
			// The shift wraps for very large attempt counts
			backoff = maxBackoff
		}
		backoff += time.Duration(rand.Intn(500)) * time.Millisecond
		time.Sleep(backoff)
	}

	log.Evt("reconnect", "").Error("Reconnect retries exhausted (" + reason + "), waiting for the next connection event")
}
