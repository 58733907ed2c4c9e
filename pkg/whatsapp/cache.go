package whatsapp

import (
	"sync"
	"time"

	"go.mau.fi/whatsmeow/proto/waE2E"

	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/env"
	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/log"
)

const cacheKeySeparator = "\x00"

// CachedMessage is one relayed message kept around for forward, reply,
// download and recent-history lookups.
type CachedMessage struct {
	MessageID string         `json:"message_id"`
	ChatJID   string         `json:"chat_jid"`
	SenderJID string         `json:"sender_jid"`
	PushName  string         `json:"push_name,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	FromMe    bool           `json:"from_me"`
	IsGroup   bool           `json:"is_group"`
	MediaType string         `json:"media_type,omitempty"`
	Text      string         `json:"text,omitempty"`
	Message   *waE2E.Message `json:"-"`
	StoredAt  time.Time      `json:"-"`
}

// MessageCache is an insertion-order map keyed by chat JID + message id,
// capped at a fixed size with oldest-first eviction. Re-adding an existing
// key updates the value in place without changing its position.
type MessageCache struct {
	mu       sync.RWMutex
	capacity int
	ttl      time.Duration
	order    []string
	entries  map[string]*CachedMessage
	inserts  uint64
	evicted  uint64
}

type MessageCacheStats struct {
	Entries  int        `json:"entries"`
	Capacity int        `json:"capacity"`
	TTL      string     `json:"ttl,omitempty"`
	Inserts  uint64     `json:"inserts"`
	Evicted  uint64     `json:"evicted"`
	OldestAt *time.Time `json:"oldest_at,omitempty"`
}

const (
	defaultMessageCacheCapacity = 4000
	minMessageCacheCapacity     = 100
	defaultMessageCacheTTL      = 6 * time.Hour
)

func NewMessageCache(capacity int, ttl time.Duration) *MessageCache {
	if capacity <= 0 {
		capacity = defaultMessageCacheCapacity
	}
	if capacity < minMessageCacheCapacity {
		capacity = minMessageCacheCapacity
	}
	return &MessageCache{
		capacity: capacity,
		ttl:      ttl,
		order:    make([]string, 0, capacity),
		entries:  make(map[string]*CachedMessage, capacity),
	}
}

func newMessageCacheFromEnv() *MessageCache {
	capacity := env.GetEnvIntOrDefaultMin("WHATSAPP_MESSAGE_CACHE_CAPACITY", defaultMessageCacheCapacity, minMessageCacheCapacity)
	ttl := env.GetEnvDurationOrDefault("WHATSAPP_MESSAGE_CACHE_TTL", defaultMessageCacheTTL)
	return NewMessageCache(capacity, ttl)
}

func cacheKey(chatJID string, messageID string) string {
	return chatJID + cacheKeySeparator + messageID
}

// Add stores a message. Existing keys are updated in place; new keys go to
// the back of the insertion order and may push the oldest entries out.
func (c *MessageCache) Add(msg *CachedMessage) {
	if msg == nil || msg.MessageID == "" || msg.ChatJID == "" {
		return
	}
	if msg.StoredAt.IsZero() {
		msg.StoredAt = time.Now()
	}

	key := cacheKey(msg.ChatJID, msg.MessageID)

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[key]; ok {
		// Keep the original order slot and age
		msg.StoredAt = existing.StoredAt
		c.entries[key] = msg
		return
	}

	c.entries[key] = msg
	c.order = append(c.order, key)
	c.inserts++

	for len(c.order) > c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
		c.evicted++
	}
	c.maybeCompactLocked()
}

// maybeCompactLocked reallocates the order slice once eviction has left
// most of its backing array behind the head.
func (c *MessageCache) maybeCompactLocked() {
	if cap(c.order) > 2*c.capacity && len(c.order) <= c.capacity {
		compact := make([]string, len(c.order), c.capacity)
		copy(compact, c.order)
		c.order = compact
	}
}

func (c *MessageCache) Get(chatJID string, messageID string) (*CachedMessage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	msg, ok := c.entries[cacheKey(chatJID, messageID)]
	return msg, ok
}

// Find locates a message by id alone, scanning newest-first so duplicate
// ids across chats resolve to the most recent one.
func (c *MessageCache) Find(messageID string) (*CachedMessage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := len(c.order) - 1; i >= 0; i-- {
		if msg, ok := c.entries[c.order[i]]; ok && msg.MessageID == messageID {
			return msg, true
		}
	}
	return nil, false
}

// Recent returns up to limit messages for a chat, newest first.
func (c *MessageCache) Recent(chatJID string, limit int) []*CachedMessage {
	if limit <= 0 {
		limit = 50
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*CachedMessage, 0, limit)
	for i := len(c.order) - 1; i >= 0 && len(out) < limit; i-- {
		msg, ok := c.entries[c.order[i]]
		if !ok {
			continue
		}
		if chatJID == "" || msg.ChatJID == chatJID {
			out = append(out, msg)
		}
	}
	return out
}

func (c *MessageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

func (c *MessageCache) Stats() MessageCacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	stats := MessageCacheStats{
		Entries:  len(c.order),
		Capacity: c.capacity,
		Inserts:  c.inserts,
		Evicted:  c.evicted,
	}
	if c.ttl > 0 {
		stats.TTL = c.ttl.String()
	}
	if len(c.order) > 0 {
		if oldest, ok := c.entries[c.order[0]]; ok {
			t := oldest.StoredAt
			stats.OldestAt = &t
		}
	}
	return stats
}

// Sweep drops entries older than the cache TTL, keeping the remaining
// insertion order intact. Returns how many entries were removed.
func (c *MessageCache) Sweep() int {
	if c.ttl <= 0 {
		return 0
	}
	cutoff := time.Now().Add(-c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.order[:0]
	removed := 0
	for _, key := range c.order {
		msg, ok := c.entries[key]
		if !ok {
			continue
		}
		if msg.StoredAt.Before(cutoff) {
			delete(c.entries, key)
			removed++
			continue
		}
		kept = append(kept, key)
	}
	c.order = kept
	c.evicted += uint64(removed)
	c.maybeCompactLocked()
	return removed
}

// StartCacheCleanup runs a periodic TTL sweep over the package message cache.
func StartCacheCleanup(interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			if removed := messageCache.Sweep(); removed > 0 {
				log.Evt("cache.sweep", "").WithField("removed", removed).Info("Swept expired cached messages")
			}
		}
	}()
}
