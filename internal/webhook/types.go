package webhook

import (
	"time"
)

type EventType string

const (
	EventSessionPaired          EventType = "session.paired"
	EventMessageReceived        EventType = "message.received"
	EventMessageDelivered       EventType = "message.delivered"
	EventMessageRead            EventType = "message.read"
	EventMessagePlayed          EventType = "message.played"
	EventMessageDeleted         EventType = "message.deleted"
	EventConnectionConnected    EventType = "connection.connected"
	EventConnectionDisconnected EventType = "connection.disconnected"
	EventConnectionLoggedOut    EventType = "connection.logged_out"

	// EventTestPing is only produced by the manual test endpoint, it never
	// matches a subscription filter on its own.
	EventTestPing EventType = "test.ping"
)

type DeliveryStatus string

const (
	DeliverySuccess DeliveryStatus = "success"
	DeliveryFailed  DeliveryStatus = "failed"
)

// Event is the payload POSTed to subscribed CRM endpoints.
type Event struct {
	EventType EventType              `json:"event_type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Webhook is one CRM endpoint subscription. An empty Events list means the
// subscription receives every event type.
type Webhook struct {
	ID        int64       `json:"id"`
	URL       string      `json:"url"`
	Secret    string      `json:"-"`
	Events    []EventType `json:"events"`
	Active    bool        `json:"active"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Delivery is one finished delivery attempt chain for a webhook.
type Delivery struct {
	ID           int64          `json:"id"`
	WebhookID    int64          `json:"webhook_id"`
	EventType    EventType      `json:"event_type"`
	Status       DeliveryStatus `json:"status"`
	AttemptCount int            `json:"attempt_count"`
	LastError    string         `json:"last_error,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// KnownEventTypes returns the set of event names a subscription may filter on.
// test.ping is excluded, the manual test endpoint targets one webhook directly.
func KnownEventTypes() map[string]bool {
	return map[string]bool{
		string(EventSessionPaired):          true,
		string(EventMessageReceived):        true,
		string(EventMessageDelivered):       true,
		string(EventMessageRead):            true,
		string(EventMessagePlayed):          true,
		string(EventMessageDeleted):         true,
		string(EventConnectionConnected):    true,
		string(EventConnectionDisconnected): true,
		string(EventConnectionLoggedOut):    true,
	}
}
